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

package controller

import (
	"fmt"
	"regexp"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/jordigilh/kubernaut-sub014/api/v1alpha1"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/cooldown"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/datastore"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/executor"
)

// conditionReasonRegexp is the format metav1.Condition accepts for reasons.
var conditionReasonRegexp = regexp.MustCompile(`^[A-Za-z]([A-Za-z0-9_,:]*[A-Za-z0-9_])?$`)

func setCondition(wfe *v1alpha1.WorkflowExecution, conditionType string, status metav1.ConditionStatus, reason, message string, now time.Time) {
	meta.SetStatusCondition(&wfe.Status.Conditions, metav1.Condition{
		Type:               conditionType,
		Status:             status,
		Reason:             reason,
		Message:            message,
		ObservedGeneration: wfe.Generation,
		LastTransitionTime: metav1.NewTime(now),
	})
}

func conditionReason(reason, fallback string) string {
	if conditionReasonRegexp.MatchString(reason) {
		return reason
	}
	return fallback
}

func startTime(wfe *v1alpha1.WorkflowExecution) time.Time {
	if wfe.Status.StartTime == nil {
		return time.Time{}
	}
	return wfe.Status.StartTime.Time
}

func summaryOf(status *executor.JobStatus) *v1alpha1.PipelineRunStatusSummary {
	condition := status.Condition
	if condition == "" {
		condition = corev1.ConditionUnknown
	}
	return &v1alpha1.PipelineRunStatusSummary{
		Status:         string(condition),
		Reason:         status.Reason,
		Message:        status.Message,
		CompletedTasks: int32(status.CompletedTasks()),
		TotalTasks:     int32(len(status.Tasks)),
	}
}

func resourceBusyDetails(existing *executor.JobStatus, now time.Time) *v1alpha1.SkipDetails {
	ref := &v1alpha1.ConflictingPipelineRunRef{
		Name:      existing.Name,
		Namespace: existing.Namespace,
	}
	if owner, ok := existing.Owner(); ok {
		ref.WorkflowExecution = owner.String()
	}
	return &v1alpha1.SkipDetails{
		Reason:                 v1alpha1.SkipReasonResourceBusy,
		Message:                fmt.Sprintf("Another workflow is running on the target resource (PipelineRun %s/%s)", existing.Namespace, existing.Name),
		SkippedAt:              metav1.NewTime(now),
		ConflictingPipelineRun: ref,
	}
}

func cooldownDetails(state *datastore.BackoffState, decision cooldown.Decision, now time.Time) *v1alpha1.SkipDetails {
	reason := cooldown.SkipReason(state.LastOutcome)
	remaining := decision.Remaining.Round(time.Second)

	recent := &v1alpha1.RecentRemediationRef{
		Outcome:              v1alpha1.PhaseCompleted,
		ConsecutiveFailures:  state.ConsecutiveFailures,
		NextAllowedExecution: metav1.NewTime(state.NextAllowedExecution),
	}
	if state.LastOutcome.IsFailure() {
		recent.Outcome = v1alpha1.PhaseFailed
	}
	if !state.LastCompletion.IsZero() {
		completedAt := metav1.NewTime(state.LastCompletion)
		recent.CompletedAt = &completedAt
	}
	if state.LastExecution.Name != "" {
		recent.WorkflowExecution = state.LastExecution.String()
	}

	message := fmt.Sprintf("Target resource was remediated recently, next execution allowed in %s", remaining)
	if reason == v1alpha1.SkipReasonPreviousExecutionFailedBackoff {
		message = fmt.Sprintf("Previous execution failed (%d consecutive failures), next execution allowed in %s", state.ConsecutiveFailures, remaining)
	}
	return &v1alpha1.SkipDetails{
		Reason:            reason,
		Message:           message,
		SkippedAt:         metav1.NewTime(now),
		RecentRemediation: recent,
	}
}
