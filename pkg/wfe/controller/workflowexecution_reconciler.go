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
	"context"
	"fmt"
	"maps"
	"time"

	"go.uber.org/multierr"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/equality"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/util/workqueue"
	"k8s.io/utils/clock"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/builder"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/handler"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/predicate"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"

	"github.com/jordigilh/kubernaut-sub014/api/v1alpha1"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/audit"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/cooldown"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/datastore"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/executor"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/failure"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/fingerprint"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/lock"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/metrics"
	errutil "github.com/jordigilh/kubernaut-sub014/pkg/wfe/util/error"
	logutil "github.com/jordigilh/kubernaut-sub014/pkg/wfe/util/logging"
)

const (
	// FinalizerName guards the cleanup of PipelineRuns in other namespaces.
	FinalizerName = "kubernaut.ai/workflowexecution-cleanup"

	// StaleLockRequeue is how long to wait for a finished PipelineRun's owner to record its outcome.
	StaleLockRequeue = time.Second
	// DeletionConfirmRequeue is how long to wait before confirming a PipelineRun is gone.
	DeletionConfirmRequeue = time.Second
)

// Config holds the reconciler settings.
type Config struct {
	ExecutionNamespace      string
	DefaultServiceAccount   string
	APITimeout              time.Duration
	StatusPollInterval      time.Duration
	MaxConcurrentReconciles int
	RetryBaseDelay          time.Duration
	RetryMaxDelay           time.Duration
}

// WorkflowExecutionReconciler drives WorkflowExecutions through their phases
// and delegates the actual work to PipelineRuns.
type WorkflowExecutionReconciler struct {
	client.Client
	Datastore datastore.Datastore
	Lock      *lock.Manager
	Cooldown  *cooldown.Calculator
	Audit     audit.Sink
	Clock     clock.PassiveClock
	Config    Config
}

// Reconcile returns errors that retrying cannot fix as terminal errors so the
// workqueue drops them. Everything else is retried with backoff.
func (r *WorkflowExecutionReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	result, err := r.reconcile(ctx, req)
	if errutil.IsTerminal(err) {
		return ctrl.Result{}, reconcile.TerminalError(err)
	}
	return result, err
}

func (r *WorkflowExecutionReconciler) reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	logger := log.FromContext(ctx).WithValues("workflowExecution", req.NamespacedName)
	ctx = ctrl.LoggerInto(ctx, logger)

	wfe := &v1alpha1.WorkflowExecution{}
	if err := r.get(ctx, req.NamespacedName, wfe); err != nil {
		if apierrors.IsNotFound(err) {
			logger.V(logutil.DEBUG).Info("WorkflowExecution not found")
			return ctrl.Result{}, nil
		}
		return ctrl.Result{}, fmt.Errorf("unable to get WorkflowExecution - %w", err)
	}

	logger = logger.WithValues("targetResource", wfe.Spec.TargetResource, "phase", wfe.Status.Phase)
	ctx = ctrl.LoggerInto(ctx, logger)
	logger.V(logutil.VERBOSE).Info("Reconciling WorkflowExecution")

	if !wfe.DeletionTimestamp.IsZero() {
		return r.reconcileDelete(ctx, wfe)
	}

	switch wfe.Status.Phase {
	case "", v1alpha1.PhasePending:
		return r.reconcilePending(ctx, wfe)
	case v1alpha1.PhaseRunning:
		return r.reconcileRunning(ctx, wfe)
	case v1alpha1.PhaseCompleted, v1alpha1.PhaseFailed:
		return r.reconcileCompleted(ctx, wfe)
	default:
		logger.V(logutil.TRACE).Info("Nothing to do")
		return ctrl.Result{}, nil
	}
}

func (r *WorkflowExecutionReconciler) reconcilePending(ctx context.Context, wfe *v1alpha1.WorkflowExecution) (ctrl.Result, error) {
	logger := log.FromContext(ctx)
	now := r.now()

	if err := wfe.Spec.Validate(); err != nil {
		return r.reject(ctx, wfe, errutil.Error{Code: errutil.Validation, Msg: err.Error()})
	}

	target := wfe.Spec.TargetResource
	owner := client.ObjectKeyFromObject(wfe)

	check, err := r.Lock.Check(ctx, target)
	if err != nil {
		return ctrl.Result{}, err
	}
	switch check.State {
	case lock.Busy:
		if check.Existing.OwnedBy(owner) {
			return r.markRunning(ctx, wfe, true)
		}
		return r.skip(ctx, wfe, EventResourceBusy, resourceBusyDetails(check.Existing, now))
	case lock.Stale:
		if check.Existing.OwnedBy(owner) {
			return r.markRunning(ctx, wfe, true)
		}
		pending, err := r.ownerPending(ctx, check.Existing)
		if err != nil {
			return ctrl.Result{}, err
		}
		if pending {
			logger.V(logutil.VERBOSE).Info("Finished PipelineRun is waiting for its owner, requeueing", "pipelineRun", check.Existing.Name)
			return ctrl.Result{RequeueAfter: StaleLockRequeue}, nil
		}
	}

	dsCtx, cancel := r.withTimeout(ctx)
	state, err := r.Datastore.BackoffGet(dsCtx, target)
	cancel()
	if err != nil {
		return ctrl.Result{}, err
	}
	if decision := r.Cooldown.Check(now, state.NextAllowedExecution); !decision.Proceed {
		return r.skip(ctx, wfe, EventCooldownActive, cooldownDetails(state, decision, now))
	}

	if check.State == lock.Stale {
		if err := r.Lock.ReleaseStale(ctx, check.Existing); err != nil {
			return ctrl.Result{}, err
		}
	}

	if controllerutil.AddFinalizer(wfe, FinalizerName) {
		if err := r.update(ctx, wfe); err != nil {
			return ctrl.Result{}, fmt.Errorf("failed to add finalizer - %w", err)
		}
	}

	acquired, err := r.Lock.Acquire(ctx, owner, r.jobFor(wfe))
	if errutil.CanonicalCode(err) == errutil.Validation {
		return r.reject(ctx, wfe, err)
	}
	if err != nil {
		return ctrl.Result{}, err
	}
	switch acquired.State {
	case lock.Busy:
		return r.skip(ctx, wfe, EventResourceBusy, resourceBusyDetails(acquired.Existing, now))
	case lock.Stale:
		return ctrl.Result{RequeueAfter: StaleLockRequeue}, nil
	}
	if !acquired.Adopted {
		metrics.RecordPipelineRunCreation()
	}
	return r.markRunning(ctx, wfe, acquired.Adopted)
}

func (r *WorkflowExecutionReconciler) reconcileRunning(ctx context.Context, wfe *v1alpha1.WorkflowExecution) (ctrl.Result, error) {
	logger := log.FromContext(ctx)
	now := r.now()
	name, namespace := r.jobRef(wfe)

	status, err := r.Lock.Executor.Get(ctx, name, namespace)
	if err != nil && !apierrors.IsNotFound(err) {
		return ctrl.Result{}, fmt.Errorf("unable to get PipelineRun %s/%s - %w", namespace, name, err)
	}
	if apierrors.IsNotFound(err) || !status.OwnedBy(client.ObjectKeyFromObject(wfe)) {
		logger.V(logutil.DEFAULT).Info("PipelineRun deleted externally", "pipelineRun", name)
		details := failure.ExternallyDeleted(name, namespace, startTime(wfe), now)
		if result, err := r.finish(ctx, wfe, EventJobDeleted, details, cooldown.OutcomeInfrastructureFailure, nil); err != nil {
			return result, err
		}
		return ctrl.Result{}, errutil.Error{Code: errutil.ExternalInterference, Msg: details.Message}
	}

	if !status.IsDone() {
		original := wfe.Status.DeepCopy()
		wfe.Status.PipelineRunStatus = summaryOf(status)
		setCondition(wfe, v1alpha1.ConditionPipelineRunRunning, metav1.ConditionTrue, conditionReason(status.Reason, "Running"), status.Message, now)
		if !equality.Semantic.DeepEqual(original, &wfe.Status) {
			if err := r.updateStatus(ctx, wfe); err != nil {
				return ctrl.Result{}, err
			}
		}
		return ctrl.Result{RequeueAfter: r.Config.StatusPollInterval}, nil
	}

	if status.Succeeded() {
		return r.finish(ctx, wfe, EventJobSucceeded, nil, cooldown.OutcomeSuccess, status)
	}
	details := failure.Extract(status, startTime(wfe), now)
	outcome := cooldown.OutcomeInfrastructureFailure
	if details.WasExecutionFailure {
		outcome = cooldown.OutcomeExecutionFailure
	}
	return r.finish(ctx, wfe, EventJobFailed, details, outcome, status)
}

// reconcileCompleted releases the lock once the cooldown of a finished execution elapsed.
func (r *WorkflowExecutionReconciler) reconcileCompleted(ctx context.Context, wfe *v1alpha1.WorkflowExecution) (ctrl.Result, error) {
	if wfe.Status.PipelineRunRef == nil {
		return ctrl.Result{}, nil
	}
	if next := wfe.Status.NextAllowedExecution; next != nil {
		if decision := r.Cooldown.Check(r.now(), next.Time); !decision.Proceed {
			return ctrl.Result{RequeueAfter: decision.Remaining}, nil
		}
	}
	if err := r.Lock.Release(ctx, client.ObjectKeyFromObject(wfe), wfe.Spec.TargetResource); err != nil {
		return ctrl.Result{}, err
	}
	return ctrl.Result{}, nil
}

// reconcileDelete deletes the PipelineRun of the request and removes the
// finalizer once the deletion is confirmed.
func (r *WorkflowExecutionReconciler) reconcileDelete(ctx context.Context, wfe *v1alpha1.WorkflowExecution) (ctrl.Result, error) {
	logger := log.FromContext(ctx)
	if !controllerutil.ContainsFinalizer(wfe, FinalizerName) {
		return ctrl.Result{}, nil
	}

	owner := client.ObjectKeyFromObject(wfe)
	name, namespace := r.jobRef(wfe)
	var errs error
	if err := r.Lock.Release(ctx, owner, wfe.Spec.TargetResource); err != nil {
		errs = multierr.Append(errs, err)
	}
	status, err := r.Lock.Executor.Get(ctx, name, namespace)
	deleting := false
	switch {
	case apierrors.IsNotFound(err):
	case err != nil:
		errs = multierr.Append(errs, fmt.Errorf("unable to confirm deletion of PipelineRun %s/%s - %w", namespace, name, err))
	default:
		deleting = status.OwnedBy(owner)
	}
	if errs != nil {
		return ctrl.Result{}, errs
	}
	if deleting {
		logger.V(logutil.VERBOSE).Info("Waiting for PipelineRun deletion", "pipelineRun", name)
		return ctrl.Result{RequeueAfter: DeletionConfirmRequeue}, nil
	}

	controllerutil.RemoveFinalizer(wfe, FinalizerName)
	if err := r.update(ctx, wfe); err != nil && !apierrors.IsNotFound(err) {
		return ctrl.Result{}, fmt.Errorf("failed to remove finalizer - %w", err)
	}
	logger.V(logutil.DEFAULT).Info("WorkflowExecution cleaned up")
	return ctrl.Result{}, nil
}

func (r *WorkflowExecutionReconciler) markRunning(ctx context.Context, wfe *v1alpha1.WorkflowExecution, adopted bool) (ctrl.Result, error) {
	logger := log.FromContext(ctx)
	to, err := Transition(wfe.Status.Phase, EventLockAcquired)
	if err != nil {
		return ctrl.Result{}, errutil.Error{Code: errutil.Fatal, Msg: err.Error()}
	}
	now := r.now()
	name := r.Lock.JobName(wfe.Spec.TargetResource)

	wfe.Status.Phase = to
	if wfe.Status.StartTime == nil {
		start := metav1.NewTime(now)
		wfe.Status.StartTime = &start
	}
	wfe.Status.PipelineRunRef = &corev1.LocalObjectReference{Name: name}
	wfe.Status.ExecutionNamespace = r.Lock.Namespace
	reason, message := "Created", fmt.Sprintf("PipelineRun %s/%s created", r.Lock.Namespace, name)
	if adopted {
		reason, message = "Adopted", fmt.Sprintf("PipelineRun %s/%s adopted", r.Lock.Namespace, name)
	}
	setCondition(wfe, v1alpha1.ConditionPipelineRunCreated, metav1.ConditionTrue, reason, message, now)
	if err := r.updateStatus(ctx, wfe); err != nil {
		return ctrl.Result{}, err
	}

	logger.V(logutil.DEFAULT).Info("WorkflowExecution running", "pipelineRun", name, "adopted", adopted)
	r.record(ctx, wfe, corev1.EventTypeNormal, audit.ReasonStarted, message)
	return ctrl.Result{RequeueAfter: r.Config.StatusPollInterval}, nil
}

// reject fails a request that can never run and returns err once the failure is recorded.
func (r *WorkflowExecutionReconciler) reject(ctx context.Context, wfe *v1alpha1.WorkflowExecution, err error) (ctrl.Result, error) {
	log.FromContext(ctx).V(logutil.DEFAULT).Info("WorkflowExecution is invalid", "error", err.Error())
	if result, ferr := r.finish(ctx, wfe, EventValidationFailed, failure.Validation(err, r.now()), cooldown.OutcomeNone, nil); ferr != nil {
		return result, ferr
	}
	return ctrl.Result{}, err
}

func (r *WorkflowExecutionReconciler) skip(ctx context.Context, wfe *v1alpha1.WorkflowExecution, event Event, details *v1alpha1.SkipDetails) (ctrl.Result, error) {
	logger := log.FromContext(ctx)
	to, err := Transition(wfe.Status.Phase, event)
	if err != nil {
		return ctrl.Result{}, errutil.Error{Code: errutil.Fatal, Msg: err.Error()}
	}

	wfe.Status.Phase = to
	wfe.Status.SkipDetails = details
	if err := r.updateStatus(ctx, wfe); err != nil {
		return ctrl.Result{}, err
	}

	logger.V(logutil.DEFAULT).Info("WorkflowExecution skipped", "reason", details.Reason)
	metrics.RecordSkip(string(details.Reason))
	r.record(ctx, wfe, corev1.EventTypeNormal, audit.ReasonSkipped, fmt.Sprintf("%s: %s", details.Reason, details.Message))
	return ctrl.Result{}, nil
}

// finish moves the request to a terminal phase. The backoff state is recorded
// before the status write; recording is idempotent per request so a failed
// write can be retried.
func (r *WorkflowExecutionReconciler) finish(ctx context.Context, wfe *v1alpha1.WorkflowExecution, event Event, details *v1alpha1.FailureDetails,
	outcome cooldown.Outcome, job *executor.JobStatus) (ctrl.Result, error) {
	logger := log.FromContext(ctx)
	to, err := Transition(wfe.Status.Phase, event)
	if err != nil {
		return ctrl.Result{}, errutil.Error{Code: errutil.Fatal, Msg: err.Error()}
	}

	completion := r.now()
	var state *datastore.BackoffState
	if outcome != cooldown.OutcomeNone {
		dsCtx, cancel := r.withTimeout(ctx)
		state, err = r.Datastore.BackoffRecord(dsCtx, wfe.Spec.TargetResource, client.ObjectKeyFromObject(wfe), wfe.UID, outcome, completion)
		cancel()
		if err != nil {
			return ctrl.Result{}, err
		}
		completion = state.LastCompletion
		next := metav1.NewTime(state.NextAllowedExecution)
		wfe.Status.NextAllowedExecution = &next
		wfe.Status.ConsecutiveFailures = state.ConsecutiveFailures
	}

	wfe.Status.Phase = to
	ct := metav1.NewTime(completion)
	wfe.Status.CompletionTime = &ct
	var duration time.Duration
	if wfe.Status.StartTime != nil {
		duration = completion.Sub(wfe.Status.StartTime.Time)
		wfe.Status.Duration = duration.Round(time.Second).String()
	}
	wfe.Status.FailureDetails = details
	if job != nil {
		wfe.Status.PipelineRunStatus = summaryOf(job)
	}
	if wfe.Status.PipelineRunRef != nil {
		completeStatus, reason, message := metav1.ConditionTrue, "Succeeded", "PipelineRun succeeded"
		if details != nil {
			completeStatus, reason, message = metav1.ConditionFalse, conditionReason(details.Reason, "Failed"), details.NaturalLanguageSummary
		}
		setCondition(wfe, v1alpha1.ConditionPipelineRunRunning, metav1.ConditionFalse, reason, message, completion)
		setCondition(wfe, v1alpha1.ConditionPipelineRunComplete, completeStatus, reason, message, completion)
	}
	if err := r.updateStatus(ctx, wfe); err != nil {
		return ctrl.Result{}, err
	}

	metrics.RecordExecution(string(to), duration)
	if details != nil {
		logger.V(logutil.DEFAULT).Info("WorkflowExecution failed", "reason", details.Reason, "category", details.Category,
			"consecutiveFailures", wfe.Status.ConsecutiveFailures)
		r.record(ctx, wfe, corev1.EventTypeWarning, audit.ReasonFailed, details.NaturalLanguageSummary)
	} else {
		logger.V(logutil.DEFAULT).Info("WorkflowExecution completed", "duration", wfe.Status.Duration)
		r.record(ctx, wfe, corev1.EventTypeNormal, audit.ReasonCompleted, fmt.Sprintf("Workflow completed after %s", wfe.Status.Duration))
	}

	if job == nil {
		return ctrl.Result{}, nil
	}
	// Come back to release the lock when the cooldown ends.
	if remaining := state.NextAllowedExecution.Sub(r.now()); remaining > 0 {
		return ctrl.Result{RequeueAfter: remaining}, nil
	}
	return ctrl.Result{}, nil
}

// ownerPending reports whether the owner of a finished PipelineRun has yet to record its outcome.
func (r *WorkflowExecutionReconciler) ownerPending(ctx context.Context, job *executor.JobStatus) (bool, error) {
	owner, ok := job.Owner()
	if !ok {
		return false, nil
	}
	wfe := &v1alpha1.WorkflowExecution{}
	if err := r.get(ctx, owner, wfe); err != nil {
		if apierrors.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("unable to get owner %s of PipelineRun %s - %w", owner, job.Name, err)
	}
	return !wfe.Status.Phase.IsTerminal() && wfe.DeletionTimestamp.IsZero(), nil
}

func (r *WorkflowExecutionReconciler) jobFor(wfe *v1alpha1.WorkflowExecution) *executor.JobSpec {
	target := wfe.Spec.TargetResource
	job := &executor.JobSpec{
		Name:           r.Lock.JobName(target),
		Namespace:      r.Lock.Namespace,
		BundleRef:      wfe.Spec.WorkflowRef.BundleReference(),
		PipelineName:   executor.DefaultPipelineName,
		Params:         maps.Clone(wfe.Spec.Parameters),
		ServiceAccount: r.Config.DefaultServiceAccount,
		Labels: map[string]string{
			executor.LabelWorkflowExecution: wfe.Name,
			executor.LabelSourceNamespace:   wfe.Namespace,
			executor.LabelTargetFingerprint: fingerprint.Of(target),
		},
		Annotations: map[string]string{
			executor.AnnotationTargetResource: target,
		},
	}
	if cfg := wfe.Spec.ExecutionConfig; cfg != nil {
		if cfg.ServiceAccountName != "" {
			job.ServiceAccount = cfg.ServiceAccountName
		}
		if cfg.Timeout != nil {
			job.Timeout = cfg.Timeout.Duration
		}
	}
	// Owner references cannot cross namespaces; the finalizer covers the other case.
	if job.Namespace == wfe.Namespace {
		job.OwnerReferences = []metav1.OwnerReference{
			*metav1.NewControllerRef(wfe, v1alpha1.GroupVersion.WithKind("WorkflowExecution")),
		}
	}
	return job
}

func (r *WorkflowExecutionReconciler) jobRef(wfe *v1alpha1.WorkflowExecution) (string, string) {
	name := r.Lock.JobName(wfe.Spec.TargetResource)
	if wfe.Status.PipelineRunRef != nil && wfe.Status.PipelineRunRef.Name != "" {
		name = wfe.Status.PipelineRunRef.Name
	}
	namespace := r.Lock.Namespace
	if wfe.Status.ExecutionNamespace != "" {
		namespace = wfe.Status.ExecutionNamespace
	}
	return name, namespace
}

func (r *WorkflowExecutionReconciler) record(ctx context.Context, wfe *v1alpha1.WorkflowExecution, eventType, reason, message string) {
	if r.Audit == nil {
		return
	}
	event := audit.NewEvent(wfe.DeepCopy(), eventType, reason, message)
	if ref := wfe.Spec.RemediationRequestRef; ref != nil {
		event.Annotations = map[string]string{audit.AnnotationRemediationRequest: types.NamespacedName{Namespace: ref.Namespace, Name: ref.Name}.String()}
	}
	r.Audit.Record(ctx, event)
	log.FromContext(ctx).V(logutil.DEBUG).Info("Audit event recorded", "reason", reason, "auditID", event.ID)
}

// now is truncated to the precision that survives a round trip through the API.
func (r *WorkflowExecutionReconciler) now() time.Time {
	return r.Clock.Now().Truncate(time.Second)
}

func (r *WorkflowExecutionReconciler) get(ctx context.Context, key types.NamespacedName, wfe *v1alpha1.WorkflowExecution) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.Get(ctx, key, wfe)
}

func (r *WorkflowExecutionReconciler) update(ctx context.Context, wfe *v1alpha1.WorkflowExecution) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.Update(ctx, wfe)
}

func (r *WorkflowExecutionReconciler) updateStatus(ctx context.Context, wfe *v1alpha1.WorkflowExecution) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.Status().Update(ctx, wfe); err != nil {
		return fmt.Errorf("failed to update status to %s - %w", wfe.Status.Phase, err)
	}
	return nil
}

func (r *WorkflowExecutionReconciler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Config.APITimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.Config.APITimeout)
}

func (r *WorkflowExecutionReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&v1alpha1.WorkflowExecution{}).
		Watches(executor.NewPipelineRun(),
			handler.EnqueueRequestsFromMapFunc(PipelineRunToRequests),
			builder.WithPredicates(predicate.NewPredicateFuncs(hasOwnerLabels))).
		WithOptions(controller.Options{
			MaxConcurrentReconciles: r.Config.MaxConcurrentReconciles,
			RateLimiter:             workqueue.NewTypedItemExponentialFailureRateLimiter[reconcile.Request](r.Config.RetryBaseDelay, r.Config.RetryMaxDelay),
		}).
		Complete(r)
}

// PipelineRunToRequests maps a PipelineRun to the WorkflowExecution named in its labels.
func PipelineRunToRequests(_ context.Context, obj client.Object) []reconcile.Request {
	if !hasOwnerLabels(obj) {
		return nil
	}
	labels := obj.GetLabels()
	return []reconcile.Request{{NamespacedName: types.NamespacedName{
		Namespace: labels[executor.LabelSourceNamespace],
		Name:      labels[executor.LabelWorkflowExecution],
	}}}
}

func hasOwnerLabels(obj client.Object) bool {
	labels := obj.GetLabels()
	return labels[executor.LabelWorkflowExecution] != "" && labels[executor.LabelSourceNamespace] != ""
}
