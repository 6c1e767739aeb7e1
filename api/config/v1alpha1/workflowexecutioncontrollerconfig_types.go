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
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// +kubebuilder:object:root=true

// WorkflowExecutionControllerConfig is the Schema for the controller configuration file.
type WorkflowExecutionControllerConfig struct {
	metav1.TypeMeta `json:",inline"`

	// +optional
	// Execution configures where and as whom PipelineRuns are executed.
	Execution *ExecutionSettings `json:"execution,omitempty"`

	// +optional
	// Cooldown configures the per target cooldown and exponential backoff.
	Cooldown *CooldownSettings `json:"cooldown,omitempty"`

	// +optional
	// Reconciler configures the reconcile loop.
	Reconciler *ReconcilerSettings `json:"reconciler,omitempty"`
}

func (cfg WorkflowExecutionControllerConfig) String() string {
	return fmt.Sprintf(
		"{Execution: %v, Cooldown: %v, Reconciler: %v}",
		cfg.Execution,
		cfg.Cooldown,
		cfg.Reconciler,
	)
}

// ExecutionSettings configures PipelineRun placement.
type ExecutionSettings struct {
	// +optional
	// Namespace is the dedicated namespace PipelineRuns are created in.
	Namespace string `json:"namespace,omitempty"`

	// +optional
	// DefaultServiceAccount is used when a request does not name one.
	DefaultServiceAccount string `json:"defaultServiceAccount,omitempty"`
}

func (es ExecutionSettings) String() string {
	return fmt.Sprintf("{Namespace: %s, DefaultServiceAccount: %s}", es.Namespace, es.DefaultServiceAccount)
}

// CooldownSettings configures the cooldown calculator.
type CooldownSettings struct {
	// +optional
	// Period is the base cooldown after any terminal execution.
	Period *metav1.Duration `json:"period,omitempty"`

	// +optional
	// MaxBackoffExponent caps the exponent applied to Period after failures.
	MaxBackoffExponent *int32 `json:"maxBackoffExponent,omitempty"`

	// +optional
	// MaxPeriod clamps the computed cooldown. Zero means no clamp.
	MaxPeriod *metav1.Duration `json:"maxPeriod,omitempty"`

	// +optional
	// StateRetention is how long per target backoff state is kept in memory
	// after its cooldown elapsed.
	StateRetention *metav1.Duration `json:"stateRetention,omitempty"`
}

func (cs CooldownSettings) String() string {
	return fmt.Sprintf("{Period: %v, MaxBackoffExponent: %v, MaxPeriod: %v, StateRetention: %v}",
		durationString(cs.Period), int32String(cs.MaxBackoffExponent), durationString(cs.MaxPeriod), durationString(cs.StateRetention))
}

// ReconcilerSettings configures the reconcile loop.
type ReconcilerSettings struct {
	// +optional
	MaxConcurrentReconciles *int32 `json:"maxConcurrentReconciles,omitempty"`

	// +optional
	// APITimeout bounds every call to the API server.
	APITimeout *metav1.Duration `json:"apiTimeout,omitempty"`

	// +optional
	// StatusPollInterval is the requeue period of Running requests.
	StatusPollInterval *metav1.Duration `json:"statusPollInterval,omitempty"`

	// +optional
	RetryBaseDelay *metav1.Duration `json:"retryBaseDelay,omitempty"`

	// +optional
	RetryMaxDelay *metav1.Duration `json:"retryMaxDelay,omitempty"`
}

func (rs ReconcilerSettings) String() string {
	return fmt.Sprintf("{MaxConcurrentReconciles: %v, APITimeout: %v, StatusPollInterval: %v, RetryBaseDelay: %v, RetryMaxDelay: %v}",
		int32String(rs.MaxConcurrentReconciles), durationString(rs.APITimeout), durationString(rs.StatusPollInterval),
		durationString(rs.RetryBaseDelay), durationString(rs.RetryMaxDelay))
}

func durationString(d *metav1.Duration) string {
	if d == nil {
		return "<unset>"
	}
	return d.Duration.String()
}

func int32String(i *int32) string {
	if i == nil {
		return "<unset>"
	}
	return fmt.Sprintf("%d", *i)
}
