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

// Package executor delegates workflow runs to an external job system.
package executor

import (
	"context"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
)

const (
	// LabelWorkflowExecution names the WorkflowExecution that owns a job.
	LabelWorkflowExecution = "kubernaut.ai/workflow-execution"
	// LabelSourceNamespace is the namespace of the owning WorkflowExecution.
	LabelSourceNamespace = "kubernaut.ai/source-namespace"
	// LabelTargetFingerprint is the fingerprint of the remediated target.
	LabelTargetFingerprint = "kubernaut.ai/target-fingerprint"
	// AnnotationTargetResource carries the unhashed target resource.
	AnnotationTargetResource = "kubernaut.ai/target-resource"
)

// Executor creates, observes and deletes delegated jobs. Get must return an
// error satisfying apierrors.IsNotFound when the job does not exist.
type Executor interface {
	Create(ctx context.Context, job *JobSpec) error
	Get(ctx context.Context, name, namespace string) (*JobStatus, error)
	// Delete removes the job. When job carries a UID or ResourceVersion the
	// delete only applies to that observed instance. A missing or replaced
	// job is not an error.
	Delete(ctx context.Context, job *JobStatus) error
}

// JobSpec describes a job to create.
type JobSpec struct {
	Name      string
	Namespace string
	// BundleRef is the OCI reference of the workflow bundle.
	BundleRef string
	// PipelineName is the pipeline to run inside the bundle.
	PipelineName string
	Params       map[string]string
	// ServiceAccount is the identity the job runs as.
	ServiceAccount string
	// Timeout bounds the whole job when positive.
	Timeout         time.Duration
	Labels          map[string]string
	Annotations     map[string]string
	OwnerReferences []metav1.OwnerReference
}

// JobStatus is the observed state of a job.
type JobStatus struct {
	Name              string
	Namespace         string
	UID               types.UID
	ResourceVersion   string
	Labels            map[string]string
	CreationTimestamp time.Time
	// Condition is the status of the job's Succeeded condition.
	Condition      corev1.ConditionStatus
	Reason         string
	Message        string
	StartTime      *time.Time
	CompletionTime *time.Time
	// Tasks are the child tasks in the order the job reported them.
	Tasks []TaskStatus
}

// IsDone returns true once the job reached a terminal state.
func (s *JobStatus) IsDone() bool {
	return s.Condition == corev1.ConditionTrue || s.Condition == corev1.ConditionFalse
}

// Succeeded returns true if the job finished successfully.
func (s *JobStatus) Succeeded() bool {
	return s.Condition == corev1.ConditionTrue
}

// Owner returns the WorkflowExecution recorded in the job labels.
func (s *JobStatus) Owner() (types.NamespacedName, bool) {
	name, ok := s.Labels[LabelWorkflowExecution]
	if !ok || name == "" {
		return types.NamespacedName{}, false
	}
	return types.NamespacedName{Namespace: s.Labels[LabelSourceNamespace], Name: name}, true
}

// OwnedBy returns true if the job was created for the given WorkflowExecution.
func (s *JobStatus) OwnedBy(owner types.NamespacedName) bool {
	got, ok := s.Owner()
	return ok && got == owner
}

// CompletedTasks counts the tasks that succeeded.
func (s *JobStatus) CompletedTasks() int {
	n := 0
	for _, t := range s.Tasks {
		if t.Condition == corev1.ConditionTrue {
			n++
		}
	}
	return n
}

// TaskStatus is the observed state of a child task.
type TaskStatus struct {
	// Name is the name of the task run object.
	Name string
	// PipelineTaskName is the task name inside the pipeline.
	PipelineTaskName string
	// Index is the position of the task in the job.
	Index     int
	Condition corev1.ConditionStatus
	Reason    string
	Message   string
	// TerminationReason is the container termination reason of the first failed step, like OOMKilled.
	TerminationReason string
	// ExitCode is the exit code of the first step that exited non zero.
	ExitCode       *int32
	StartTime      *time.Time
	CompletionTime *time.Time
}

// Failed returns true if the task finished unsuccessfully.
func (t *TaskStatus) Failed() bool {
	return t.Condition == corev1.ConditionFalse
}

// Started returns true if the task began executing.
func (t *TaskStatus) Started() bool {
	return t.StartTime != nil
}

// DisplayName prefers the pipeline task name.
func (t *TaskStatus) DisplayName() string {
	if t.PipelineTaskName != "" {
		return t.PipelineTaskName
	}
	return t.Name
}
