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

package executor

import (
	"context"
	"fmt"
	"sort"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	logutil "github.com/jordigilh/kubernaut-sub014/pkg/wfe/util/logging"
)

const (
	// DefaultPipelineName is the pipeline resolved from a bundle when none is given.
	DefaultPipelineName = "workflow"

	tektonPipelineRunLabel = "tekton.dev/pipelineRun"
	bundlesResolver        = "bundles"
)

var (
	PipelineRunGVK = schema.GroupVersionKind{Group: "tekton.dev", Version: "v1", Kind: "PipelineRun"}
	TaskRunGVK     = schema.GroupVersionKind{Group: "tekton.dev", Version: "v1", Kind: "TaskRun"}
)

// TektonExecutor runs jobs as Tekton PipelineRuns resolved from OCI bundles.
// Objects are handled as unstructured so no Tekton client is needed.
type TektonExecutor struct {
	Client client.Client
	// Timeout bounds each API call when positive.
	Timeout time.Duration
}

var _ Executor = &TektonExecutor{}

// NewTektonExecutor returns an executor using c for every call.
func NewTektonExecutor(c client.Client, timeout time.Duration) *TektonExecutor {
	return &TektonExecutor{Client: c, Timeout: timeout}
}

// NewPipelineRun returns an empty PipelineRun object.
func NewPipelineRun() *unstructured.Unstructured {
	u := &unstructured.Unstructured{}
	u.SetGroupVersionKind(PipelineRunGVK)
	return u
}

func (e *TektonExecutor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.Timeout)
}

// Create creates the PipelineRun. An AlreadyExists error is returned as is.
func (e *TektonExecutor) Create(ctx context.Context, job *JobSpec) error {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	pr := BuildPipelineRun(job)
	if err := e.Client.Create(ctx, pr); err != nil {
		return fmt.Errorf("failed to create PipelineRun %s/%s - %w", job.Namespace, job.Name, err)
	}
	log.FromContext(ctx).V(logutil.VERBOSE).Info("PipelineRun created", "pipelineRun", job.Name, "namespace", job.Namespace)
	return nil
}

// Get returns the PipelineRun status together with its TaskRuns.
func (e *TektonExecutor) Get(ctx context.Context, name, namespace string) (*JobStatus, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	pr := NewPipelineRun()
	if err := e.Client.Get(ctx, client.ObjectKey{Namespace: namespace, Name: name}, pr); err != nil {
		return nil, err
	}
	status := pipelineRunStatus(pr)

	taskRuns := &unstructured.UnstructuredList{}
	taskRuns.SetGroupVersionKind(TaskRunGVK.GroupVersion().WithKind(TaskRunGVK.Kind + "List"))
	if err := e.Client.List(ctx, taskRuns, client.InNamespace(namespace), client.MatchingLabels{tektonPipelineRunLabel: name}); err != nil {
		return nil, fmt.Errorf("failed to list TaskRuns of PipelineRun %s/%s - %w", namespace, name, err)
	}
	status.Tasks = taskStatuses(pr, taskRuns.Items)
	return status, nil
}

// Delete deletes the PipelineRun and its children. NotFound is not an error,
// neither is a precondition conflict caused by the run being replaced.
func (e *TektonExecutor) Delete(ctx context.Context, job *JobStatus) error {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	pr := NewPipelineRun()
	pr.SetName(job.Name)
	pr.SetNamespace(job.Namespace)
	opts := []client.DeleteOption{client.PropagationPolicy(metav1.DeletePropagationBackground)}
	if job.UID != "" || job.ResourceVersion != "" {
		pre := client.Preconditions{}
		if job.UID != "" {
			pre.UID = &job.UID
		}
		if job.ResourceVersion != "" {
			pre.ResourceVersion = &job.ResourceVersion
		}
		opts = append(opts, pre)
	}
	err := e.Client.Delete(ctx, pr, opts...)
	switch {
	case err == nil:
		log.FromContext(ctx).V(logutil.VERBOSE).Info("PipelineRun deleted", "pipelineRun", job.Name, "namespace", job.Namespace)
		return nil
	case apierrors.IsNotFound(err), apierrors.IsConflict(err):
		return nil
	default:
		return fmt.Errorf("failed to delete PipelineRun %s/%s - %w", job.Namespace, job.Name, err)
	}
}

// BuildPipelineRun renders job as a tekton.dev/v1 PipelineRun using the bundles resolver.
func BuildPipelineRun(job *JobSpec) *unstructured.Unstructured {
	pr := NewPipelineRun()
	pr.SetName(job.Name)
	pr.SetNamespace(job.Namespace)
	pr.SetLabels(job.Labels)
	pr.SetAnnotations(job.Annotations)
	if len(job.OwnerReferences) > 0 {
		pr.SetOwnerReferences(job.OwnerReferences)
	}

	pipelineName := job.PipelineName
	if pipelineName == "" {
		pipelineName = DefaultPipelineName
	}

	keys := make([]string, 0, len(job.Params))
	for k := range job.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	params := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		params = append(params, map[string]interface{}{"name": k, "value": job.Params[k]})
	}

	spec := map[string]interface{}{
		"pipelineRef": map[string]interface{}{
			"resolver": bundlesResolver,
			"params": []interface{}{
				map[string]interface{}{"name": "bundle", "value": job.BundleRef},
				map[string]interface{}{"name": "name", "value": pipelineName},
				map[string]interface{}{"name": "kind", "value": "pipeline"},
			},
		},
		"params": params,
	}
	if job.ServiceAccount != "" {
		spec["taskRunTemplate"] = map[string]interface{}{"serviceAccountName": job.ServiceAccount}
	}
	if job.Timeout > 0 {
		spec["timeouts"] = map[string]interface{}{"pipeline": job.Timeout.String()}
	}
	pr.Object["spec"] = spec
	return pr
}

func pipelineRunStatus(pr *unstructured.Unstructured) *JobStatus {
	status := &JobStatus{
		Name:              pr.GetName(),
		Namespace:         pr.GetNamespace(),
		UID:               pr.GetUID(),
		ResourceVersion:   pr.GetResourceVersion(),
		Labels:            pr.GetLabels(),
		CreationTimestamp: pr.GetCreationTimestamp().Time,
		Condition:         corev1.ConditionUnknown,
	}
	if cond, ok := succeededCondition(pr.Object); ok {
		status.Condition = corev1.ConditionStatus(cond["status"])
		status.Reason = cond["reason"]
		status.Message = cond["message"]
	}
	status.StartTime = nestedTime(pr.Object, "status", "startTime")
	status.CompletionTime = nestedTime(pr.Object, "status", "completionTime")
	return status
}

// taskStatuses orders task runs by the PipelineRun childReferences and
// appends any task run the PipelineRun does not reference yet.
func taskStatuses(pr *unstructured.Unstructured, taskRuns []unstructured.Unstructured) []TaskStatus {
	byName := make(map[string]*unstructured.Unstructured, len(taskRuns))
	for i := range taskRuns {
		byName[taskRuns[i].GetName()] = &taskRuns[i]
	}

	var tasks []TaskStatus
	seen := map[string]bool{}
	children, _, _ := unstructured.NestedSlice(pr.Object, "status", "childReferences")
	for _, c := range children {
		child, ok := c.(map[string]interface{})
		if !ok {
			continue
		}
		if kind, _ := child["kind"].(string); kind != "" && kind != TaskRunGVK.Kind {
			continue
		}
		name, _ := child["name"].(string)
		pipelineTask, _ := child["pipelineTaskName"].(string)
		task := TaskStatus{Name: name, PipelineTaskName: pipelineTask, Index: len(tasks), Condition: corev1.ConditionUnknown}
		if tr, ok := byName[name]; ok {
			fillTaskStatus(&task, tr)
		}
		seen[name] = true
		tasks = append(tasks, task)
	}

	var unreferenced []string
	for name := range byName {
		if !seen[name] {
			unreferenced = append(unreferenced, name)
		}
	}
	sort.Strings(unreferenced)
	for _, name := range unreferenced {
		tr := byName[name]
		task := TaskStatus{
			Name:             name,
			PipelineTaskName: tr.GetLabels()["tekton.dev/pipelineTask"],
			Index:            len(tasks),
			Condition:        corev1.ConditionUnknown,
		}
		fillTaskStatus(&task, tr)
		tasks = append(tasks, task)
	}
	return tasks
}

func fillTaskStatus(task *TaskStatus, tr *unstructured.Unstructured) {
	if cond, ok := succeededCondition(tr.Object); ok {
		task.Condition = corev1.ConditionStatus(cond["status"])
		task.Reason = cond["reason"]
		task.Message = cond["message"]
	}
	task.StartTime = nestedTime(tr.Object, "status", "startTime")
	task.CompletionTime = nestedTime(tr.Object, "status", "completionTime")

	steps, _, _ := unstructured.NestedSlice(tr.Object, "status", "steps")
	for _, s := range steps {
		step, ok := s.(map[string]interface{})
		if !ok {
			continue
		}
		terminated, ok := step["terminated"].(map[string]interface{})
		if !ok {
			continue
		}
		code, ok := toInt32(terminated["exitCode"])
		if !ok || code == 0 {
			continue
		}
		task.ExitCode = &code
		task.TerminationReason, _ = terminated["reason"].(string)
		return
	}
}

func succeededCondition(obj map[string]interface{}) (map[string]string, bool) {
	conditions, _, _ := unstructured.NestedSlice(obj, "status", "conditions")
	for _, c := range conditions {
		cond, ok := c.(map[string]interface{})
		if !ok {
			continue
		}
		if t, _ := cond["type"].(string); t != "Succeeded" {
			continue
		}
		out := map[string]string{}
		for _, k := range []string{"status", "reason", "message"} {
			out[k], _ = cond[k].(string)
		}
		return out, true
	}
	return nil, false
}

func nestedTime(obj map[string]interface{}, fields ...string) *time.Time {
	s, found, err := unstructured.NestedString(obj, fields...)
	if !found || err != nil || s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

func toInt32(v interface{}) (int32, bool) {
	switch n := v.(type) {
	case int64:
		return int32(n), true
	case int32:
		return n, true
	case int:
		return int32(n), true
	case float64:
		return int32(n), true
	default:
		return 0, false
	}
}
