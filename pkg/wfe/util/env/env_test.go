/*
Copyright 2025 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package env

import (
	"testing"
	"time"

	"github.com/go-logr/logr/testr"
	"github.com/spf13/pflag"

	logutil "github.com/jordigilh/kubernaut-sub014/pkg/wfe/util/logging"
)

func TestGetEnvDuration(t *testing.T) {
	logger := testr.New(t)

	tests := []struct {
		name       string
		key        string
		value      string
		set        bool
		defaultVal time.Duration
		expected   time.Duration
	}{
		{
			name:       "valid duration",
			key:        "WFE_TEST_DURATION",
			value:      "1h30m",
			set:        true,
			defaultVal: time.Minute,
			expected:   90 * time.Minute,
		},
		{
			name:       "invalid duration",
			key:        "WFE_TEST_DURATION",
			value:      "soon",
			set:        true,
			defaultVal: time.Minute,
			expected:   time.Minute,
		},
		{
			name:       "unset",
			key:        "WFE_TEST_DURATION_MISSING",
			defaultVal: 5 * time.Second,
			expected:   5 * time.Second,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.set {
				t.Setenv(tc.key, tc.value)
			}
			result := GetEnvDuration(tc.key, tc.defaultVal, logger.V(logutil.VERBOSE))
			if result != tc.expected {
				t.Errorf("GetEnvDuration(%s, %v) = %v, expected %v", tc.key, tc.defaultVal, result, tc.expected)
			}
		})
	}
}

func TestGetEnvString(t *testing.T) {
	logger := testr.New(t)
	t.Setenv("WFE_TEST_STRING", "kubernaut-workflows")

	if got := GetEnvString("WFE_TEST_STRING", "default", logger); got != "kubernaut-workflows" {
		t.Errorf("GetEnvString() = %q, expected %q", got, "kubernaut-workflows")
	}
	if got := GetEnvString("WFE_TEST_STRING_MISSING", "default", logger); got != "default" {
		t.Errorf("GetEnvString() = %q, expected %q", got, "default")
	}
}

func TestBindToFlags(t *testing.T) {
	logger := testr.New(t)

	newFlagSet := func() (*pflag.FlagSet, *string, *time.Duration) {
		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		ns := fs.String("execution-namespace", "kubernaut-workflows", "")
		cooldown := fs.Duration("cooldown-period", 5*time.Minute, "")
		return fs, ns, cooldown
	}
	mapping := map[string]string{
		"WFE_EXECUTION_NAMESPACE": "execution-namespace",
		"WFE_COOLDOWN_PERIOD":     "cooldown-period",
	}

	t.Run("environment overrides defaults", func(t *testing.T) {
		t.Setenv("WFE_EXECUTION_NAMESPACE", "workflows")
		t.Setenv("WFE_COOLDOWN_PERIOD", "10m")
		fs, ns, cooldown := newFlagSet()
		if err := fs.Parse(nil); err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if err := BindToFlags(fs, mapping, logger); err != nil {
			t.Fatalf("BindToFlags() error = %v", err)
		}
		if *ns != "workflows" || *cooldown != 10*time.Minute {
			t.Errorf("got namespace %q cooldown %v", *ns, *cooldown)
		}
	})

	t.Run("explicit flags win", func(t *testing.T) {
		t.Setenv("WFE_EXECUTION_NAMESPACE", "workflows")
		fs, ns, _ := newFlagSet()
		if err := fs.Parse([]string{"--execution-namespace=cli"}); err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if err := BindToFlags(fs, mapping, logger); err != nil {
			t.Fatalf("BindToFlags() error = %v", err)
		}
		if *ns != "cli" {
			t.Errorf("got namespace %q, want %q", *ns, "cli")
		}
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Setenv("WFE_COOLDOWN_PERIOD", "later")
		fs, _, _ := newFlagSet()
		if err := fs.Parse(nil); err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if err := BindToFlags(fs, mapping, logger); err == nil {
			t.Error("expected an error for an invalid duration")
		}
	})

	t.Run("unknown flag", func(t *testing.T) {
		fs, _, _ := newFlagSet()
		if err := BindToFlags(fs, map[string]string{"WFE_NOPE": "nope"}, logger); err == nil {
			t.Error("expected an error for an unknown flag")
		}
	})
}
