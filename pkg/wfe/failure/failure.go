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

// Package failure turns a failed or missing job into a structured failure summary.
package failure

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"

	"github.com/jordigilh/kubernaut-sub014/api/v1alpha1"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/executor"
	errutil "github.com/jordigilh/kubernaut-sub014/pkg/wfe/util/error"
)

const (
	// ReasonPipelineRunDeleted is reported when the job disappeared while the request was Running.
	ReasonPipelineRunDeleted = "PipelineRunDeleted"
	// ReasonValidationFailed is reported for requests that fail validation.
	ReasonValidationFailed = "ValidationFailed"
	// ReasonUnknown is used when the job did not report a reason.
	ReasonUnknown = "Unknown"
)

// categoryKeywords are matched case insensitively against the reason and
// message, in order. The first match wins.
var categoryKeywords = []struct {
	category v1alpha1.FailureCategory
	keywords []string
}{
	{v1alpha1.FailureCategoryOOMKilled, []string{"oomkilled", "out of memory", "exit code 137", "exited with code 137"}},
	{v1alpha1.FailureCategoryDeadlineExceeded, []string{"timeout", "timed out", "deadline exceeded", "deadlineexceeded"}},
	{v1alpha1.FailureCategoryForbidden, []string{"forbidden", "permission denied", "unauthorized", "rbac"}},
	{v1alpha1.FailureCategoryImagePullBackOff, []string{"imagepullbackoff", "errimagepull", "image pull", "manifest unknown"}},
	{v1alpha1.FailureCategoryResourceExhausted, []string{"exceeded quota", "resourceexhausted", "insufficient", "quota"}},
	{v1alpha1.FailureCategoryConfigurationError, []string{"couldntgetpipeline", "couldntgettask", "invalid", "parameter", "not found", "resolution"}},
}

// Extract builds FailureDetails from a failed job. startTime is when the
// request started Running and now is when the failure was observed.
func Extract(status *executor.JobStatus, startTime, now time.Time) *v1alpha1.FailureDetails {
	details := &v1alpha1.FailureDetails{
		Reason:   status.Reason,
		Message:  status.Message,
		FailedAt: metav1.NewTime(now),
	}
	if details.Reason == "" {
		details.Reason = ReasonUnknown
	}

	start := startTime
	if status.StartTime != nil && !status.StartTime.IsZero() {
		start = *status.StartTime
	}
	end := now
	if status.CompletionTime != nil && !status.CompletionTime.IsZero() {
		end = *status.CompletionTime
	}
	if !start.IsZero() && end.After(start) {
		details.ExecutionTimeBeforeFailure = end.Sub(start).Round(time.Second).String()
	}

	classifyText := []string{details.Reason, details.Message}
	if task := FirstFailedTask(status.Tasks); task != nil {
		// A task that never started did not run, so the job failed before any task ran.
		if task.Started() {
			details.FailedTaskName = ptr.To(task.DisplayName())
			details.FailedTaskIndex = ptr.To(int32(task.Index))
			details.ExitCode = task.ExitCode
			details.WasExecutionFailure = true
		}
		classifyText = append([]string{task.TerminationReason, task.Reason, task.Message}, classifyText...)
	}
	details.Category = Classify(classifyText...)
	details.NaturalLanguageSummary = summarize(details)
	return details
}

// FirstFailedTask returns the earliest started failed task. Tasks that never
// started sort last, ties are broken by name.
func FirstFailedTask(tasks []executor.TaskStatus) *executor.TaskStatus {
	var failed []executor.TaskStatus
	for _, t := range tasks {
		if t.Failed() {
			failed = append(failed, t)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	sort.SliceStable(failed, func(i, j int) bool {
		a, b := failed[i], failed[j]
		switch {
		case a.StartTime != nil && b.StartTime != nil && !a.StartTime.Equal(*b.StartTime):
			return a.StartTime.Before(*b.StartTime)
		case a.StartTime != nil && b.StartTime == nil:
			return true
		case a.StartTime == nil && b.StartTime != nil:
			return false
		}
		return a.DisplayName() < b.DisplayName()
	})
	return &failed[0]
}

// Classify returns the category of the first keyword found in texts.
func Classify(texts ...string) v1alpha1.FailureCategory {
	joined := strings.ToLower(strings.Join(texts, " "))
	for _, ck := range categoryKeywords {
		for _, kw := range ck.keywords {
			if strings.Contains(joined, kw) {
				return ck.category
			}
		}
	}
	return v1alpha1.FailureCategoryUnknown
}

// ExternallyDeleted describes a job that vanished while the request was Running.
func ExternallyDeleted(name, namespace string, startTime, now time.Time) *v1alpha1.FailureDetails {
	details := &v1alpha1.FailureDetails{
		Reason:              ReasonPipelineRunDeleted,
		Message:             fmt.Sprintf("PipelineRun %s/%s was deleted before it reported completion", namespace, name),
		Category:            v1alpha1.FailureCategoryUnknown,
		FailedAt:            metav1.NewTime(now),
		WasExecutionFailure: false,
	}
	if !startTime.IsZero() && now.After(startTime) {
		details.ExecutionTimeBeforeFailure = now.Sub(startTime).Round(time.Second).String()
	}
	details.NaturalLanguageSummary = summarize(details)
	return details
}

// Validation describes a request rejected before execution.
func Validation(err error, now time.Time) *v1alpha1.FailureDetails {
	message := err.Error()
	var coded errutil.Error
	if errors.As(err, &coded) {
		message = coded.Msg
	}
	details := &v1alpha1.FailureDetails{
		Reason:              ReasonValidationFailed,
		Message:             message,
		Category:            v1alpha1.FailureCategoryConfigurationError,
		FailedAt:            metav1.NewTime(now),
		WasExecutionFailure: false,
	}
	details.NaturalLanguageSummary = summarize(details)
	return details
}

func summarize(d *v1alpha1.FailureDetails) string {
	var b strings.Builder
	switch d.Reason {
	case ReasonPipelineRunDeleted:
		b.WriteString("The workflow run was deleted externally before it finished")
	case ReasonValidationFailed:
		b.WriteString("The workflow execution request was rejected before running")
	default:
		if d.FailedTaskName != nil {
			fmt.Fprintf(&b, "Workflow failed at task %q", *d.FailedTaskName)
			if d.FailedTaskIndex != nil {
				fmt.Fprintf(&b, " (step %d)", *d.FailedTaskIndex+1)
			}
			if d.ExitCode != nil {
				fmt.Fprintf(&b, " with exit code %d", *d.ExitCode)
			}
		} else {
			b.WriteString("Workflow failed before any task ran")
		}
	}
	if d.ExecutionTimeBeforeFailure != "" {
		fmt.Fprintf(&b, " after %s", d.ExecutionTimeBeforeFailure)
	}
	fmt.Fprintf(&b, ". Category: %s. Reason: %s", d.Category, d.Reason)
	if d.Message != "" {
		fmt.Fprintf(&b, ": %s", d.Message)
	}
	b.WriteString(".")
	return b.String()
}
