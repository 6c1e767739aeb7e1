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

package server

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	uberzap "go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"

	configapi "github.com/jordigilh/kubernaut-sub014/api/config/v1alpha1"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/controller"
	logutil "github.com/jordigilh/kubernaut-sub014/pkg/wfe/util/logging"
)

func parseOptions(t *testing.T, args ...string) *Options {
	t.Helper()
	fs := pflag.NewFlagSet(t.Name(), pflag.ContinueOnError)
	opts := NewOptions()
	opts.AddFlags(fs)
	require.NoError(t, fs.Parse(args))
	return opts
}

func TestDefaultOptions(t *testing.T) {
	opts := parseOptions(t)
	require.NoError(t, opts.Complete())
	require.NoError(t, opts.Validate())

	want := controller.Config{
		ExecutionNamespace:      "kubernaut-workflows",
		DefaultServiceAccount:   "kubernaut-workflow-runner",
		APITimeout:              10 * time.Second,
		StatusPollInterval:      10 * time.Second,
		MaxConcurrentReconciles: 10,
		RetryBaseDelay:          time.Second,
		RetryMaxDelay:           5 * time.Minute,
	}
	if diff := cmp.Diff(want, opts.ControllerConfig()); diff != "" {
		t.Errorf("Unexpected controller config (-want +got):\n%s", diff)
	}

	calc := opts.Calculator()
	assert.Equal(t, 5*time.Minute, calc.BaseCooldown)
	assert.Equal(t, int32(6), calc.MaxExponent)
	assert.Equal(t, time.Duration(0), calc.MaxCooldown)
}

func TestCompleteUsesVerbosity(t *testing.T) {
	opts := parseOptions(t, "-v", "4")
	require.NoError(t, opts.Complete())

	lvl, ok := opts.ZapOptions.Level.(uberzap.AtomicLevel)
	require.True(t, ok, "zap level should be an atomic level, got %T", opts.ZapOptions.Level)
	assert.Equal(t, zapcore.Level(-logutil.DEBUG), lvl.Level())
}

func TestCompleteKeepsExplicitZapLevel(t *testing.T) {
	opts := parseOptions(t, "-v", "4", "--zap-log-level", "error")
	require.NoError(t, opts.Complete())

	assert.True(t, opts.ZapOptions.Level.Enabled(zapcore.ErrorLevel))
	assert.False(t, opts.ZapOptions.Level.Enabled(zapcore.InfoLevel))
}

func TestBindEnv(t *testing.T) {
	t.Setenv("WFE_COOLDOWN_PERIOD", "2m")
	t.Setenv("WFE_EXECUTION_NAMESPACE", "from-env")
	t.Setenv("WFE_MAX_CONCURRENT_RECONCILES", "3")

	opts := parseOptions(t, "--execution-namespace", "from-flag")
	require.NoError(t, opts.BindEnv(logutil.NewTestLogger()))

	assert.Equal(t, 2*time.Minute, opts.CooldownPeriod)
	assert.Equal(t, 3, opts.MaxConcurrentReconciles)
	assert.Equal(t, "from-flag", opts.ExecutionNamespace, "explicit flags win over the environment")
}

func TestBindEnvInvalidValue(t *testing.T) {
	t.Setenv("WFE_API_TIMEOUT", "soon")

	opts := parseOptions(t)
	assert.Error(t, opts.BindEnv(logutil.NewTestLogger()))
}

func TestApplyConfig(t *testing.T) {
	t.Setenv("WFE_STATUS_POLL_INTERVAL", "30s")

	opts := parseOptions(t, "--max-backoff-exponent", "3")
	require.NoError(t, opts.BindEnv(logutil.NewTestLogger()))

	opts.ApplyConfig(&configapi.WorkflowExecutionControllerConfig{
		Execution: &configapi.ExecutionSettings{
			Namespace: "pipelines",
		},
		Cooldown: &configapi.CooldownSettings{
			Period:             &metav1.Duration{Duration: 10 * time.Minute},
			MaxBackoffExponent: ptr.To[int32](5),
			MaxPeriod:          &metav1.Duration{Duration: time.Hour},
		},
		Reconciler: &configapi.ReconcilerSettings{
			MaxConcurrentReconciles: ptr.To[int32](4),
			StatusPollInterval:      &metav1.Duration{Duration: 5 * time.Second},
		},
	})
	require.NoError(t, opts.Validate())

	assert.Equal(t, "pipelines", opts.ExecutionNamespace)
	assert.Equal(t, "kubernaut-workflow-runner", opts.DefaultServiceAccount, "unset file values keep the flag default")
	assert.Equal(t, 10*time.Minute, opts.CooldownPeriod)
	assert.Equal(t, 3, opts.MaxBackoffExponent, "command line flags win over the file")
	assert.Equal(t, time.Hour, opts.MaxCooldownPeriod)
	assert.Equal(t, 4, opts.MaxConcurrentReconciles)
	assert.Equal(t, 30*time.Second, opts.StatusPollInterval, "environment wins over the file")
}

func TestApplyNilConfig(t *testing.T) {
	opts := parseOptions(t)
	opts.ApplyConfig(nil)
	if diff := cmp.Diff(NewOptions().ControllerConfig(), opts.ControllerConfig()); diff != "" {
		t.Errorf("Nil config changed the options (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{
			name: "valid overrides",
			args: []string{"--cooldown-period", "1m", "--max-cooldown-period", "1h", "--ha-enable-leader-election"},
		},
		{
			name:    "empty execution namespace",
			args:    []string{"--execution-namespace", ""},
			wantErr: true,
		},
		{
			name:    "empty default service account",
			args:    []string{"--default-service-account", ""},
			wantErr: true,
		},
		{
			name:    "zero cooldown",
			args:    []string{"--cooldown-period", "0s"},
			wantErr: true,
		},
		{
			name:    "negative backoff exponent",
			args:    []string{"--max-backoff-exponent", "-1"},
			wantErr: true,
		},
		{
			name:    "no reconcile workers",
			args:    []string{"--max-concurrent-reconciles", "0"},
			wantErr: true,
		},
		{
			name:    "retry base above max",
			args:    []string{"--retry-base-delay", "10m", "--retry-max-delay", "1m"},
			wantErr: true,
		},
		{
			name:    "empty audit buffer",
			args:    []string{"--audit-buffer-size", "0"},
			wantErr: true,
		},
		{
			name:    "leader election without lease name",
			args:    []string{"--ha-enable-leader-election", "--leader-election-id", ""},
			wantErr: true,
		},
		{
			name:    "port out of range",
			args:    []string{"--grpc-health-port", "65536"},
			wantErr: true,
		},
		{
			name:    "config file and text",
			args:    []string{"--config-file", "/etc/wfe/config.yaml", "--config-text", "kind: WorkflowExecutionControllerConfig"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := parseOptions(t, tt.args...)
			require.NoError(t, opts.Complete())
			err := opts.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
