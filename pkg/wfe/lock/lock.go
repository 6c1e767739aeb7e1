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

// Package lock serializes remediations per target resource. The lock is the
// existence of the deterministically named job in the execution namespace.
package lock

import (
	"context"
	"errors"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/executor"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/fingerprint"
	errutil "github.com/jordigilh/kubernaut-sub014/pkg/wfe/util/error"
	logutil "github.com/jordigilh/kubernaut-sub014/pkg/wfe/util/logging"
)

// State is the lock state of a target.
type State int

const (
	// Allowed means no job holds the target.
	Allowed State = iota
	// Busy means a job for the target has not finished yet.
	Busy
	// Stale means a finished job still holds the target name.
	Stale
)

func (s State) String() string {
	switch s {
	case Allowed:
		return "Allowed"
	case Busy:
		return "Busy"
	case Stale:
		return "Stale"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrLookup wraps failures to read the lock. Callers must retry and never proceed.
var ErrLookup = errors.New("lock lookup failed")

// Result is the outcome of a lock check or acquisition.
type Result struct {
	State State
	// Existing is the job that holds the target, if any.
	Existing *executor.JobStatus
	// Adopted is set by Acquire when the existing job already belongs to the caller.
	Adopted bool
}

// Manager checks, acquires and releases target locks.
type Manager struct {
	Executor  executor.Executor
	Namespace string
}

func NewManager(exec executor.Executor, namespace string) *Manager {
	return &Manager{Executor: exec, Namespace: namespace}
}

// JobName is the name of the job that locks target.
func (m *Manager) JobName(target string) string {
	return fingerprint.PipelineRunName(target)
}

// Check reports whether target is free.
func (m *Manager) Check(ctx context.Context, target string) (Result, error) {
	name := m.JobName(target)
	status, err := m.Executor.Get(ctx, name, m.Namespace)
	if apierrors.IsNotFound(err) {
		return Result{State: Allowed}, nil
	}
	if err != nil {
		return Result{}, lookupError(m.Namespace, name, err)
	}
	if !status.IsDone() {
		return Result{State: Busy, Existing: status}, nil
	}
	return Result{State: Stale, Existing: status}, nil
}

// Acquire creates the job. Losing a creation race to a job of the same owner
// adopts it; losing to another owner reports Busy, or Stale if that job finished.
// A job the API server rejects as invalid returns a Validation error.
func (m *Manager) Acquire(ctx context.Context, owner types.NamespacedName, job *executor.JobSpec) (Result, error) {
	logger := log.FromContext(ctx)
	err := m.Executor.Create(ctx, job)
	if err == nil {
		return Result{State: Allowed}, nil
	}
	switch {
	case apierrors.IsInvalid(err), apierrors.IsBadRequest(err):
		return Result{}, errutil.Error{Code: errutil.Validation, Msg: err.Error()}
	case !apierrors.IsAlreadyExists(err):
		return Result{}, errutil.Error{Code: errutil.Transient, Msg: err.Error()}
	}

	status, err := m.Executor.Get(ctx, job.Name, job.Namespace)
	if err != nil {
		// Deleted between create and get. Let the caller retry.
		return Result{}, lookupError(job.Namespace, job.Name, err)
	}
	switch {
	case status.OwnedBy(owner):
		logger.V(logutil.DEFAULT).Info("Adopting existing PipelineRun", "pipelineRun", job.Name)
		return Result{State: Allowed, Existing: status, Adopted: true}, nil
	case !status.IsDone():
		logger.V(logutil.VERBOSE).Info("Lost PipelineRun creation race", "pipelineRun", job.Name)
		return Result{State: Busy, Existing: status}, nil
	default:
		return Result{State: Stale, Existing: status}, nil
	}
}

// Release deletes the job of target if owner created it. A missing job is success.
func (m *Manager) Release(ctx context.Context, owner types.NamespacedName, target string) error {
	name := m.JobName(target)
	status, err := m.Executor.Get(ctx, name, m.Namespace)
	if apierrors.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return lookupError(m.Namespace, name, err)
	}
	if !status.OwnedBy(owner) {
		log.FromContext(ctx).V(logutil.VERBOSE).Info("PipelineRun belongs to another WorkflowExecution, not releasing",
			"pipelineRun", name, "owner", owner)
		return nil
	}
	if err := m.Executor.Delete(ctx, status); err != nil {
		return errutil.Error{Code: errutil.Transient, Msg: err.Error()}
	}
	log.FromContext(ctx).V(logutil.VERBOSE).Info("Lock released", "pipelineRun", name)
	return nil
}

// ReleaseStale deletes a finished job observed by Check. A job that changed
// since it was observed is left alone.
func (m *Manager) ReleaseStale(ctx context.Context, existing *executor.JobStatus) error {
	if existing == nil || !existing.IsDone() {
		return fmt.Errorf("PipelineRun is not finished, refusing to release it")
	}
	if err := m.Executor.Delete(ctx, existing); err != nil {
		return errutil.Error{Code: errutil.Transient, Msg: err.Error()}
	}
	log.FromContext(ctx).V(logutil.VERBOSE).Info("Stale lock released", "pipelineRun", existing.Name)
	return nil
}

func lookupError(namespace, name string, err error) error {
	return fmt.Errorf("%w for PipelineRun %s/%s - %w", ErrLookup, namespace, name, errutil.Error{Code: errutil.Transient, Msg: err.Error()})
}
