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
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// WorkflowExecution is the Schema for the workflowexecutions API. It asks the
// controller to run one remediation workflow against one target resource.
//
// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:shortName=wfe
// +kubebuilder:printcolumn:name="Target",type=string,JSONPath=`.spec.targetResource`
// +kubebuilder:printcolumn:name="Phase",type=string,JSONPath=`.status.phase`
// +kubebuilder:printcolumn:name="Reason",type=string,JSONPath=`.status.skipDetails.reason`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`
// +genclient
type WorkflowExecution struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   WorkflowExecutionSpec   `json:"spec,omitempty"`
	Status WorkflowExecutionStatus `json:"status,omitempty"`
}

// WorkflowExecutionList contains a list of WorkflowExecution.
//
// +kubebuilder:object:root=true
type WorkflowExecutionList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []WorkflowExecution `json:"items"`
}

// WorkflowExecutionSpec is the immutable request written by the remediation
// orchestrator.
type WorkflowExecutionSpec struct {
	// TargetResource identifies the resource the workflow remediates, in the
	// form "namespace/kind/name" for namespaced resources or "kind/name" for
	// cluster scoped ones. All locking and cooldown accounting is keyed on it.
	//
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinLength=1
	// +kubebuilder:validation:MaxLength=512
	TargetResource string `json:"targetResource"`

	// WorkflowRef identifies the workflow bundle to run.
	//
	// +kubebuilder:validation:Required
	WorkflowRef WorkflowRef `json:"workflowRef"`

	// Parameters are handed to the workflow verbatim as pipeline params.
	//
	// +optional
	// +kubebuilder:validation:MaxProperties=64
	Parameters map[string]string `json:"parameters,omitempty"`

	// ExecutionConfig tunes how the workflow is executed.
	//
	// +optional
	ExecutionConfig *ExecutionConfig `json:"executionConfig,omitempty"`

	// RemediationRequestRef points back to the object that asked for this
	// execution. It is only used to correlate audit events.
	//
	// +optional
	RemediationRequestRef *corev1.ObjectReference `json:"remediationRequestRef,omitempty"`
}

// WorkflowRef identifies a workflow bundle.
type WorkflowRef struct {
	// WorkflowID is the catalog identifier of the workflow.
	//
	// +optional
	WorkflowID string `json:"workflowId,omitempty"`

	// Version is the catalog version of the workflow.
	//
	// +optional
	Version string `json:"version,omitempty"`

	// ContainerImage is the OCI reference of the workflow bundle.
	//
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinLength=1
	ContainerImage string `json:"containerImage"`

	// ContainerDigest pins the bundle. When set it is appended to the image
	// reference.
	//
	// +optional
	ContainerDigest string `json:"containerDigest,omitempty"`
}

// ExecutionConfig carries per request execution overrides.
type ExecutionConfig struct {
	// ServiceAccountName is the identity the workflow runs as. Defaults to the
	// controller's configured default service account.
	//
	// +optional
	ServiceAccountName string `json:"serviceAccountName,omitempty"`

	// Timeout bounds the whole pipeline run.
	//
	// +optional
	Timeout *metav1.Duration `json:"timeout,omitempty"`
}

// WorkflowExecutionPhase is the lifecycle phase of a WorkflowExecution.
//
// +kubebuilder:validation:Enum=Pending;Running;Completed;Failed;Skipped
type WorkflowExecutionPhase string

const (
	// PhasePending is the initial phase. An empty phase is treated as Pending.
	PhasePending WorkflowExecutionPhase = "Pending"
	// PhaseRunning means the PipelineRun was created and has not finished.
	PhaseRunning WorkflowExecutionPhase = "Running"
	// PhaseCompleted means the PipelineRun succeeded.
	PhaseCompleted WorkflowExecutionPhase = "Completed"
	// PhaseFailed means the PipelineRun failed, disappeared, or the request was invalid.
	PhaseFailed WorkflowExecutionPhase = "Failed"
	// PhaseSkipped means the request was never executed.
	PhaseSkipped WorkflowExecutionPhase = "Skipped"
)

// IsTerminal returns true if no transition can leave the phase.
func (p WorkflowExecutionPhase) IsTerminal() bool {
	return p == PhaseCompleted || p == PhaseFailed || p == PhaseSkipped
}

// SkipReason explains why a request was skipped.
//
// +kubebuilder:validation:Enum=ResourceBusy;RecentlyRemediated;PreviousExecutionFailedBackoff
type SkipReason string

const (
	// SkipReasonResourceBusy means another execution holds the target lock.
	SkipReasonResourceBusy SkipReason = "ResourceBusy"
	// SkipReasonRecentlyRemediated means the last execution succeeded and its
	// cooldown has not elapsed.
	SkipReasonRecentlyRemediated SkipReason = "RecentlyRemediated"
	// SkipReasonPreviousExecutionFailedBackoff means the last execution failed
	// and the exponential backoff has not elapsed.
	SkipReasonPreviousExecutionFailedBackoff SkipReason = "PreviousExecutionFailedBackoff"
)

// FailureCategory is a coarse classification of a failure.
type FailureCategory string

const (
	FailureCategoryOOMKilled          FailureCategory = "OOMKilled"
	FailureCategoryDeadlineExceeded   FailureCategory = "DeadlineExceeded"
	FailureCategoryForbidden          FailureCategory = "Forbidden"
	FailureCategoryResourceExhausted  FailureCategory = "ResourceExhausted"
	FailureCategoryConfigurationError FailureCategory = "ConfigurationError"
	FailureCategoryImagePullBackOff   FailureCategory = "ImagePullBackOff"
	FailureCategoryUnknown            FailureCategory = "Unknown"
)

const (
	// ConditionPipelineRunCreated is True once the PipelineRun exists.
	ConditionPipelineRunCreated = "PipelineRunCreated"
	// ConditionPipelineRunRunning mirrors whether the PipelineRun is still executing.
	ConditionPipelineRunRunning = "PipelineRunRunning"
	// ConditionPipelineRunComplete is True on success and False on failure.
	ConditionPipelineRunComplete = "PipelineRunComplete"
)

// WorkflowExecutionStatus is owned by the controller.
type WorkflowExecutionStatus struct {
	// Phase is the current lifecycle phase.
	//
	// +optional
	Phase WorkflowExecutionPhase `json:"phase,omitempty"`

	// StartTime is when the PipelineRun was created or adopted.
	//
	// +optional
	StartTime *metav1.Time `json:"startTime,omitempty"`

	// CompletionTime is when a terminal phase was recorded.
	//
	// +optional
	CompletionTime *metav1.Time `json:"completionTime,omitempty"`

	// Duration is the human readable time between StartTime and CompletionTime.
	//
	// +optional
	Duration string `json:"duration,omitempty"`

	// PipelineRunRef names the PipelineRun in ExecutionNamespace.
	//
	// +optional
	PipelineRunRef *corev1.LocalObjectReference `json:"pipelineRunRef,omitempty"`

	// ExecutionNamespace is where the PipelineRun lives.
	//
	// +optional
	ExecutionNamespace string `json:"executionNamespace,omitempty"`

	// PipelineRunStatus mirrors the PipelineRun progress while Running.
	//
	// +optional
	PipelineRunStatus *PipelineRunStatusSummary `json:"pipelineRunStatus,omitempty"`

	// FailureDetails is only set when Phase is Failed.
	//
	// +optional
	FailureDetails *FailureDetails `json:"failureDetails,omitempty"`

	// SkipDetails is only set when Phase is Skipped.
	//
	// +optional
	SkipDetails *SkipDetails `json:"skipDetails,omitempty"`

	// ConsecutiveFailures is the per target execution failure count observed
	// when this request reached a terminal phase.
	//
	// +optional
	ConsecutiveFailures int32 `json:"consecutiveFailures,omitempty"`

	// NextAllowedExecution is the earliest time a new execution for the same
	// target may start.
	//
	// +optional
	NextAllowedExecution *metav1.Time `json:"nextAllowedExecution,omitempty"`

	// Conditions track PipelineRun progress.
	//
	// +optional
	// +listType=map
	// +listMapKey=type
	// +kubebuilder:validation:MaxItems=8
	Conditions []metav1.Condition `json:"conditions,omitempty"`
}

// PipelineRunStatusSummary is a compact mirror of the PipelineRun status.
type PipelineRunStatusSummary struct {
	// Status is the Succeeded condition status (True, False or Unknown).
	Status string `json:"status"`
	// +optional
	Reason string `json:"reason,omitempty"`
	// +optional
	Message string `json:"message,omitempty"`
	// +optional
	CompletedTasks int32 `json:"completedTasks,omitempty"`
	// +optional
	TotalTasks int32 `json:"totalTasks,omitempty"`
}

// FailureDetails is a structured summary of why an execution failed.
type FailureDetails struct {
	// Reason is the machine readable failure reason.
	Reason string `json:"reason"`

	// Message is the raw failure message.
	//
	// +optional
	Message string `json:"message,omitempty"`

	// FailedTaskName is the first task that failed. Unset when no task ran.
	//
	// +optional
	FailedTaskName *string `json:"failedTaskName,omitempty"`

	// FailedTaskIndex is the position of FailedTaskName in the run.
	//
	// +optional
	FailedTaskIndex *int32 `json:"failedTaskIndex,omitempty"`

	// ExitCode is the exit code of the first failing step of FailedTaskName.
	//
	// +optional
	ExitCode *int32 `json:"exitCode,omitempty"`

	// Category classifies the failure.
	Category FailureCategory `json:"category"`

	// FailedAt is when the failure was observed.
	FailedAt metav1.Time `json:"failedAt"`

	// ExecutionTimeBeforeFailure is how long the run executed before failing.
	//
	// +optional
	ExecutionTimeBeforeFailure string `json:"executionTimeBeforeFailure,omitempty"`

	// WasExecutionFailure is true iff at least one task started and failed.
	// Only these failures grow the per target failure counter.
	WasExecutionFailure bool `json:"wasExecutionFailure"`

	// NaturalLanguageSummary is a deterministic human readable sentence.
	NaturalLanguageSummary string `json:"naturalLanguageSummary"`
}

// SkipDetails explains a Skipped request.
type SkipDetails struct {
	Reason SkipReason `json:"reason"`

	// +optional
	Message string `json:"message,omitempty"`

	SkippedAt metav1.Time `json:"skippedAt"`

	// ConflictingPipelineRun is set for ResourceBusy.
	//
	// +optional
	ConflictingPipelineRun *ConflictingPipelineRunRef `json:"conflictingPipelineRun,omitempty"`

	// RecentRemediation is set for cooldown skips.
	//
	// +optional
	RecentRemediation *RecentRemediationRef `json:"recentRemediation,omitempty"`
}

// ConflictingPipelineRunRef identifies the PipelineRun holding the lock.
type ConflictingPipelineRunRef struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
	// WorkflowExecution is "namespace/name" of the request that owns the run, when known.
	//
	// +optional
	WorkflowExecution string `json:"workflowExecution,omitempty"`
}

// RecentRemediationRef describes the execution that started the active cooldown.
type RecentRemediationRef struct {
	// Outcome is Completed or Failed.
	Outcome WorkflowExecutionPhase `json:"outcome"`

	// +optional
	CompletedAt *metav1.Time `json:"completedAt,omitempty"`

	ConsecutiveFailures int32 `json:"consecutiveFailures"`

	NextAllowedExecution metav1.Time `json:"nextAllowedExecution"`

	// +optional
	WorkflowExecution string `json:"workflowExecution,omitempty"`
}
