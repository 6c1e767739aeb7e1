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

package v1alpha1

import (
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
)

const (
	DefaultExecutionNamespace    = "kubernaut-workflows"
	DefaultServiceAccount        = "kubernaut-workflow-runner"
	DefaultCooldownPeriod        = 5 * time.Minute
	DefaultMaxBackoffExponent    = int32(6)
	DefaultBackoffStateRetention = 24 * time.Hour
)

// SetDefaults_WorkflowExecutionControllerConfig sets default values in a
// WorkflowExecutionControllerConfig struct.
//
// This naming convension is required by the defalter-gen code.
func SetDefaults_WorkflowExecutionControllerConfig(cfg *WorkflowExecutionControllerConfig) {
	if cfg.Execution == nil {
		cfg.Execution = &ExecutionSettings{}
	}
	if cfg.Execution.Namespace == "" {
		cfg.Execution.Namespace = DefaultExecutionNamespace
	}
	if cfg.Execution.DefaultServiceAccount == "" {
		cfg.Execution.DefaultServiceAccount = DefaultServiceAccount
	}

	if cfg.Cooldown == nil {
		cfg.Cooldown = &CooldownSettings{}
	}
	if cfg.Cooldown.Period == nil {
		cfg.Cooldown.Period = &metav1.Duration{Duration: DefaultCooldownPeriod}
	}
	if cfg.Cooldown.MaxBackoffExponent == nil {
		cfg.Cooldown.MaxBackoffExponent = ptr.To(DefaultMaxBackoffExponent)
	}
	if cfg.Cooldown.StateRetention == nil {
		cfg.Cooldown.StateRetention = &metav1.Duration{Duration: DefaultBackoffStateRetention}
	}

	if cfg.Reconciler == nil {
		cfg.Reconciler = &ReconcilerSettings{}
	}
}
