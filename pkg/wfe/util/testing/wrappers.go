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

package testing

import (
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/types"

	"github.com/jordigilh/kubernaut-sub014/api/v1alpha1"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/executor"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/fingerprint"
)

// WorkflowExecutionWrapper wraps a WorkflowExecution.
type WorkflowExecutionWrapper struct {
	v1alpha1.WorkflowExecution
}

// MakeWorkflowExecution creates a wrapper for a valid WorkflowExecution.
func MakeWorkflowExecution(name string) *WorkflowExecutionWrapper {
	return &WorkflowExecutionWrapper{
		v1alpha1.WorkflowExecution{
			ObjectMeta: metav1.ObjectMeta{
				Name:      name,
				Namespace: "default",
				UID:       types.UID(name + "-uid"),
			},
			Spec: v1alpha1.WorkflowExecutionSpec{
				WorkflowRef: v1alpha1.WorkflowRef{
					WorkflowID:     "restart-deployment",
					Version:        "v1",
					ContainerImage: "quay.io/kubernaut/workflows/restart-deployment:v1",
				},
			},
		},
	}
}

func (w *WorkflowExecutionWrapper) Namespace(ns string) *WorkflowExecutionWrapper {
	w.ObjectMeta.Namespace = ns
	return w
}

func (w *WorkflowExecutionWrapper) Target(target string) *WorkflowExecutionWrapper {
	w.Spec.TargetResource = target
	return w
}

func (w *WorkflowExecutionWrapper) Image(image string) *WorkflowExecutionWrapper {
	w.Spec.WorkflowRef.ContainerImage = image
	return w
}

func (w *WorkflowExecutionWrapper) Params(params map[string]string) *WorkflowExecutionWrapper {
	w.Spec.Parameters = params
	return w
}

func (w *WorkflowExecutionWrapper) ServiceAccount(sa string) *WorkflowExecutionWrapper {
	if w.Spec.ExecutionConfig == nil {
		w.Spec.ExecutionConfig = &v1alpha1.ExecutionConfig{}
	}
	w.Spec.ExecutionConfig.ServiceAccountName = sa
	return w
}

func (w *WorkflowExecutionWrapper) Timeout(d time.Duration) *WorkflowExecutionWrapper {
	if w.Spec.ExecutionConfig == nil {
		w.Spec.ExecutionConfig = &v1alpha1.ExecutionConfig{}
	}
	w.Spec.ExecutionConfig.Timeout = &metav1.Duration{Duration: d}
	return w
}

func (w *WorkflowExecutionWrapper) Finalizers(finalizers ...string) *WorkflowExecutionWrapper {
	w.ObjectMeta.Finalizers = finalizers
	return w
}

func (w *WorkflowExecutionWrapper) CreationTimestamp(t time.Time) *WorkflowExecutionWrapper {
	w.ObjectMeta.CreationTimestamp = metav1.NewTime(t)
	return w
}

// DeletionTimestamp marks the object as being deleted. The fake client
// requires a finalizer on such objects.
func (w *WorkflowExecutionWrapper) DeletionTimestamp(finalizer string) *WorkflowExecutionWrapper {
	now := metav1.Now()
	w.ObjectMeta.DeletionTimestamp = &now
	w.ObjectMeta.Finalizers = []string{finalizer}
	return w
}

func (w *WorkflowExecutionWrapper) Phase(phase v1alpha1.WorkflowExecutionPhase) *WorkflowExecutionWrapper {
	w.Status.Phase = phase
	return w
}

// Running sets the status of a request whose PipelineRun was created at start.
func (w *WorkflowExecutionWrapper) Running(executionNamespace string, start time.Time) *WorkflowExecutionWrapper {
	w.Status.Phase = v1alpha1.PhaseRunning
	st := metav1.NewTime(start)
	w.Status.StartTime = &st
	w.Status.ExecutionNamespace = executionNamespace
	w.Status.PipelineRunRef = &corev1.LocalObjectReference{Name: fingerprint.PipelineRunName(w.Spec.TargetResource)}
	return w
}

// Terminal sets a terminal phase with its backoff bookkeeping.
func (w *WorkflowExecutionWrapper) Terminal(phase v1alpha1.WorkflowExecutionPhase, completion time.Time, failures int32, next time.Time) *WorkflowExecutionWrapper {
	w.Status.Phase = phase
	ct := metav1.NewTime(completion)
	w.Status.CompletionTime = &ct
	w.Status.ConsecutiveFailures = failures
	nt := metav1.NewTime(next)
	w.Status.NextAllowedExecution = &nt
	return w
}

func (w *WorkflowExecutionWrapper) FailureDetails(details *v1alpha1.FailureDetails) *WorkflowExecutionWrapper {
	w.Status.FailureDetails = details
	return w
}

// ObjRef returns the wrapped WorkflowExecution.
func (w *WorkflowExecutionWrapper) ObjRef() *v1alpha1.WorkflowExecution {
	return &w.WorkflowExecution
}

// PipelineRunWrapper wraps an unstructured tekton.dev/v1 PipelineRun.
type PipelineRunWrapper struct {
	unstructured.Unstructured
}

// MakePipelineRun creates a wrapper for a PipelineRun.
func MakePipelineRun(name, namespace string) *PipelineRunWrapper {
	u := executor.NewPipelineRun()
	u.SetName(name)
	u.SetNamespace(namespace)
	return &PipelineRunWrapper{*u}
}

// OwnedBy sets the labels that tie the run to a WorkflowExecution.
func (p *PipelineRunWrapper) OwnedBy(wfe *v1alpha1.WorkflowExecution) *PipelineRunWrapper {
	labels := p.GetLabels()
	if labels == nil {
		labels = map[string]string{}
	}
	labels[executor.LabelWorkflowExecution] = wfe.Name
	labels[executor.LabelSourceNamespace] = wfe.Namespace
	labels[executor.LabelTargetFingerprint] = fingerprint.Of(wfe.Spec.TargetResource)
	p.SetLabels(labels)
	return p
}

func (p *PipelineRunWrapper) StartTime(t time.Time) *PipelineRunWrapper {
	_ = unstructured.SetNestedField(p.Object, t.UTC().Format(time.RFC3339), "status", "startTime")
	return p
}

// Running sets an Unknown Succeeded condition.
func (p *PipelineRunWrapper) Running() *PipelineRunWrapper {
	return p.condition("Unknown", "Running", "Tasks Completed: 0 (Failed: 0, Cancelled 0), Incomplete: 1, Skipped: 0")
}

// Succeeded sets a True Succeeded condition.
func (p *PipelineRunWrapper) Succeeded() *PipelineRunWrapper {
	return p.condition("True", "Succeeded", "Tasks Completed: 1 (Failed: 0, Cancelled 0), Skipped: 0")
}

// Failed sets a False Succeeded condition.
func (p *PipelineRunWrapper) Failed(reason, message string) *PipelineRunWrapper {
	return p.condition("False", reason, message)
}

// CompletionTime sets status.completionTime.
func (p *PipelineRunWrapper) CompletionTime(t time.Time) *PipelineRunWrapper {
	_ = unstructured.SetNestedField(p.Object, t.UTC().Format(time.RFC3339), "status", "completionTime")
	return p
}

// ChildTaskRun appends a TaskRun child reference.
func (p *PipelineRunWrapper) ChildTaskRun(taskRunName, pipelineTaskName string) *PipelineRunWrapper {
	children, _, _ := unstructured.NestedSlice(p.Object, "status", "childReferences")
	children = append(children, map[string]interface{}{
		"apiVersion":       executor.TaskRunGVK.GroupVersion().String(),
		"kind":             executor.TaskRunGVK.Kind,
		"name":             taskRunName,
		"pipelineTaskName": pipelineTaskName,
	})
	_ = unstructured.SetNestedSlice(p.Object, children, "status", "childReferences")
	return p
}

func (p *PipelineRunWrapper) condition(status, reason, message string) *PipelineRunWrapper {
	_ = unstructured.SetNestedSlice(p.Object, []interface{}{
		map[string]interface{}{
			"type":    "Succeeded",
			"status":  status,
			"reason":  reason,
			"message": message,
		},
	}, "status", "conditions")
	return p
}

// ObjRef returns the wrapped PipelineRun.
func (p *PipelineRunWrapper) ObjRef() *unstructured.Unstructured {
	return &p.Unstructured
}

// TaskRunWrapper wraps an unstructured tekton.dev/v1 TaskRun.
type TaskRunWrapper struct {
	unstructured.Unstructured
}

// MakeTaskRun creates a wrapper for a TaskRun belonging to pipelineRun.
func MakeTaskRun(name, namespace, pipelineRun, pipelineTask string) *TaskRunWrapper {
	u := &unstructured.Unstructured{}
	u.SetGroupVersionKind(executor.TaskRunGVK)
	u.SetName(name)
	u.SetNamespace(namespace)
	u.SetLabels(map[string]string{
		"tekton.dev/pipelineRun":  pipelineRun,
		"tekton.dev/pipelineTask": pipelineTask,
	})
	return &TaskRunWrapper{*u}
}

func (t *TaskRunWrapper) StartTime(ts time.Time) *TaskRunWrapper {
	_ = unstructured.SetNestedField(t.Object, ts.UTC().Format(time.RFC3339), "status", "startTime")
	return t
}

func (t *TaskRunWrapper) Succeeded() *TaskRunWrapper {
	return t.condition("True", "Succeeded", "All Steps have completed executing")
}

func (t *TaskRunWrapper) Failed(reason, message string) *TaskRunWrapper {
	return t.condition("False", reason, message)
}

// Step appends a terminated step.
func (t *TaskRunWrapper) Step(name string, exitCode int64, reason string) *TaskRunWrapper {
	steps, _, _ := unstructured.NestedSlice(t.Object, "status", "steps")
	steps = append(steps, map[string]interface{}{
		"name": name,
		"terminated": map[string]interface{}{
			"exitCode": exitCode,
			"reason":   reason,
		},
	})
	_ = unstructured.SetNestedSlice(t.Object, steps, "status", "steps")
	return t
}

func (t *TaskRunWrapper) condition(status, reason, message string) *TaskRunWrapper {
	_ = unstructured.SetNestedSlice(t.Object, []interface{}{
		map[string]interface{}{
			"type":    "Succeeded",
			"status":  status,
			"reason":  reason,
			"message": message,
		},
	}, "status", "conditions")
	return t
}

// ObjRef returns the wrapped TaskRun.
func (t *TaskRunWrapper) ObjRef() *unstructured.Unstructured {
	return &t.Unstructured
}
