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

package fingerprint

import (
	"regexp"
	"testing"
)

func TestOf(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   string
	}{
		{
			name:   "namespaced deployment",
			target: "e2e/deployment/app-1",
			want:   "c9fb5cf05f8956fa",
		},
		{
			name:   "pod",
			target: "default/pod/nginx",
			want:   "a76ac935c932368e",
		},
		{
			name:   "empty input is still total",
			target: "",
			want:   "e3b0c44298fc1c14",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Of(test.target); got != test.want {
				t.Errorf("Of(%q) = %q, want %q", test.target, got, test.want)
			}
		})
	}
}

func TestOfIsDeterministicAndLabelSafe(t *testing.T) {
	labelValue := regexp.MustCompile(`^[0-9a-f]{16}$`)
	targets := []string{"e2e/deployment/app-1", "e2e/deployment/app-2", "node/worker-1"}
	seen := map[string]string{}
	for _, target := range targets {
		first, second := Of(target), Of(target)
		if first != second {
			t.Errorf("Of(%q) not deterministic: %q != %q", target, first, second)
		}
		if !labelValue.MatchString(first) {
			t.Errorf("Of(%q) = %q is not a 16 char hex string", target, first)
		}
		if other, ok := seen[first]; ok {
			t.Errorf("Of(%q) collides with Of(%q)", target, other)
		}
		seen[first] = target
	}
}

func TestPipelineRunName(t *testing.T) {
	if got, want := PipelineRunName("e2e/deployment/app-1"), "wfe-c9fb5cf05f8956fa"; got != want {
		t.Errorf("PipelineRunName() = %q, want %q", got, want)
	}
}
