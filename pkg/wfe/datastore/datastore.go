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

package datastore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/util/retry"
	"k8s.io/utils/clock"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/jordigilh/kubernaut-sub014/api/v1alpha1"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/cooldown"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/fingerprint"
	logutil "github.com/jordigilh/kubernaut-sub014/pkg/wfe/util/logging"
)

const (
	TargetResourceIndexKey = "spec.targetResource"
)

var (
	// ErrConflict is returned when the state changed between read and write.
	ErrConflict = errors.New("backoff state was modified concurrently")

	casBackoff = wait.Backoff{
		Steps:    20,
		Duration: time.Millisecond,
		Factor:   2,
		Jitter:   0.5,
		Cap:      100 * time.Millisecond,
	}
)

// TargetResourceIndexFunc indexes WorkflowExecutions by spec.targetResource.
func TargetResourceIndexFunc(obj client.Object) []string {
	wfe, ok := obj.(*v1alpha1.WorkflowExecution)
	if !ok || wfe.Spec.TargetResource == "" {
		return nil
	}
	return []string{wfe.Spec.TargetResource}
}

// The datastore keeps the per target backoff state that outlives individual
// WorkflowExecutions. Missing entries are rebuilt from the most recent terminal
// WorkflowExecution of the target.
type Datastore interface {
	// BackoffGet returns the state of a target, resyncing from the API on a miss.
	BackoffGet(ctx context.Context, target string) (*BackoffState, error)
	// BackoffRecord folds a terminal outcome into the target state. Recording the
	// same request twice returns the state of the first call.
	BackoffRecord(ctx context.Context, target string, by types.NamespacedName, uid types.UID, outcome cooldown.Outcome, completion time.Time) (*BackoffState, error)
	BackoffGetAll() []*BackoffState

	// Start runs the expiration loop until ctx is done.
	Start(ctx context.Context) error
}

func NewDatastore(reader client.Reader, calculator *cooldown.Calculator, retention time.Duration, clk clock.PassiveClock) Datastore {
	return &datastore{
		reader:     reader,
		calculator: calculator,
		retention:  retention,
		clock:      clk,
		states: ttlcache.New(
			ttlcache.WithTTL[string, *BackoffState](retention),
			ttlcache.WithDisableTouchOnHit[string, *BackoffState](),
		),
	}
}

type datastore struct {
	reader     client.Reader
	calculator *cooldown.Calculator
	retention  time.Duration
	clock      clock.PassiveClock

	// mu serializes compare-and-swap writes. Reads go to the cache directly.
	mu sync.Mutex
	// key: fingerprint of the target, value: *BackoffState
	states *ttlcache.Cache[string, *BackoffState]
}

func (ds *datastore) Start(ctx context.Context) error {
	logger := log.FromContext(ctx).WithName("backoff-datastore")
	ds.states.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *BackoffState]) {
		if reason != ttlcache.EvictionReasonExpired {
			return
		}
		logger.V(logutil.DEBUG).Info("Backoff state expired", "fingerprint", item.Key(), "target", item.Value().Target)
	})
	go ds.states.Start()
	<-ctx.Done()
	ds.states.Stop()
	return nil
}

func (ds *datastore) BackoffGet(ctx context.Context, target string) (*BackoffState, error) {
	state, err := ds.load(ctx, target)
	if err != nil {
		return nil, err
	}
	return state.Clone(), nil
}

func (ds *datastore) BackoffRecord(ctx context.Context, target string, by types.NamespacedName, uid types.UID, outcome cooldown.Outcome, completion time.Time) (*BackoffState, error) {
	logger := log.FromContext(ctx)
	var result *BackoffState
	err := retry.OnError(casBackoff, func(err error) bool { return errors.Is(err, ErrConflict) }, func() error {
		current, err := ds.load(ctx, target)
		if err != nil {
			return err
		}
		// Only the latest recorder is recognized as a repeat. The reconciler
		// keeps another request from recording in between: a finished
		// PipelineRun whose owner is not terminal yet blocks the next request
		// (ownerPending), and a terminal owner never records again.
		if uid != "" && current.LastRecordedBy == uid {
			result = current.Clone()
			return nil
		}

		next := current.Clone()
		next.ConsecutiveFailures, next.NextAllowedExecution = ds.calculator.Next(outcome, current.ConsecutiveFailures, completion)
		next.LastOutcome = outcome
		next.LastCompletion = completion
		next.LastRecordedBy = uid
		next.LastExecution = by
		if err := ds.compareAndSwap(current.version, next); err != nil {
			logger.V(logutil.DEBUG).Info("Backoff state conflict, retrying", "target", target)
			return err
		}
		result = next.Clone()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record %s outcome for %q - %w", outcome, target, err)
	}
	logger.V(logutil.VERBOSE).Info("Backoff state recorded", "target", target, "outcome", outcome,
		"consecutiveFailures", result.ConsecutiveFailures, "nextAllowedExecution", result.NextAllowedExecution)
	return result, nil
}

func (ds *datastore) BackoffGetAll() []*BackoffState {
	items := ds.states.Items()
	res := make([]*BackoffState, 0, len(items))
	for _, item := range items {
		res = append(res, item.Value().Clone())
	}
	return res
}

// load returns the cached state, rebuilding it from the API when absent.
// The returned pointer must not be modified.
func (ds *datastore) load(ctx context.Context, target string) (*BackoffState, error) {
	fp := fingerprint.Of(target)
	if item := ds.states.Get(fp); item != nil {
		return item.Value(), nil
	}

	state, err := ds.resync(ctx, target)
	if err != nil {
		return nil, err
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()
	// Another reconcile may have populated the entry while the list was in flight.
	if item := ds.states.Get(fp); item != nil {
		return item.Value(), nil
	}
	state.version = 1
	ds.states.Set(fp, state, ds.ttl(state))
	return state, nil
}

func (ds *datastore) resync(ctx context.Context, target string) (*BackoffState, error) {
	var list v1alpha1.WorkflowExecutionList
	if err := ds.reader.List(ctx, &list, client.MatchingFields{TargetResourceIndexKey: target}); err != nil {
		return nil, fmt.Errorf("failed to list WorkflowExecutions for target %q - %w", target, err)
	}

	state := &BackoffState{Target: target, Fingerprint: fingerprint.Of(target)}
	var latest *v1alpha1.WorkflowExecution
	for i := range list.Items {
		wfe := &list.Items[i]
		if wfe.Spec.TargetResource != target || // The index should filter those out.
			(wfe.Status.Phase != v1alpha1.PhaseCompleted && wfe.Status.Phase != v1alpha1.PhaseFailed) ||
			wfe.Status.CompletionTime == nil ||
			wfe.Status.NextAllowedExecution == nil {
			continue
		}
		if latest == nil || latest.Status.CompletionTime.Before(wfe.Status.CompletionTime) {
			latest = wfe
		}
	}
	if latest == nil {
		log.FromContext(ctx).V(logutil.DEBUG).Info("No previous execution found", "target", target)
		return state, nil
	}

	state.ConsecutiveFailures = latest.Status.ConsecutiveFailures
	state.NextAllowedExecution = latest.Status.NextAllowedExecution.Time
	state.LastOutcome = OutcomeOf(latest)
	state.LastCompletion = latest.Status.CompletionTime.Time
	state.LastRecordedBy = latest.UID
	state.LastExecution = types.NamespacedName{Namespace: latest.Namespace, Name: latest.Name}
	log.FromContext(ctx).V(logutil.VERBOSE).Info("Backoff state rebuilt", "target", target,
		"workflowExecution", state.LastExecution, "consecutiveFailures", state.ConsecutiveFailures)
	return state, nil
}

func (ds *datastore) compareAndSwap(version uint64, next *BackoffState) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	var current uint64
	if item := ds.states.Get(next.Fingerprint); item != nil {
		current = item.Value().version
	}
	if current != version {
		return ErrConflict
	}
	next.version = version + 1
	ds.states.Set(next.Fingerprint, next, ds.ttl(next))
	return nil
}

// ttl keeps an entry for the retention period past the end of its cooldown.
func (ds *datastore) ttl(state *BackoffState) time.Duration {
	ttl := ds.retention
	if remaining := state.NextAllowedExecution.Sub(ds.clock.Now()); remaining > 0 {
		ttl += remaining
	}
	return ttl
}

// OutcomeOf maps a terminal WorkflowExecution to its backoff outcome.
func OutcomeOf(wfe *v1alpha1.WorkflowExecution) cooldown.Outcome {
	switch wfe.Status.Phase {
	case v1alpha1.PhaseCompleted:
		return cooldown.OutcomeSuccess
	case v1alpha1.PhaseFailed:
		if wfe.Status.FailureDetails != nil && wfe.Status.FailureDetails.WasExecutionFailure {
			return cooldown.OutcomeExecutionFailure
		}
		return cooldown.OutcomeInfrastructureFailure
	default:
		return cooldown.OutcomeNone
	}
}
