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

package server

import (
	"context"
	"fmt"

	"k8s.io/utils/clock"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/manager"

	"github.com/jordigilh/kubernaut-sub014/api/v1alpha1"
	"github.com/jordigilh/kubernaut-sub014/internal/runnable"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/audit"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/controller"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/datastore"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/executor"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/lock"
)

// ControllerName is used for the event recorder and the controller logger.
const ControllerName = "workflowexecution-controller"

// WorkflowExecutionRunner builds the controller components and registers them
// with a manager.
type WorkflowExecutionRunner struct {
	Options *Options
	Clock   clock.Clock

	// Populated by SetupWithManager.
	Datastore datastore.Datastore
	Audit     *audit.AsyncRecorder
}

// NewDefaultWorkflowExecutionRunner returns a runner using the real clock.
func NewDefaultWorkflowExecutionRunner(opts *Options) *WorkflowExecutionRunner {
	return &WorkflowExecutionRunner{
		Options: opts,
		Clock:   clock.RealClock{},
	}
}

// SetupWithManager sets up the datastore, the audit recorder and the reconciler.
func (r *WorkflowExecutionRunner) SetupWithManager(ctx context.Context, mgr ctrl.Manager) error {
	opts := r.Options
	if err := mgr.GetFieldIndexer().IndexField(ctx, &v1alpha1.WorkflowExecution{},
		datastore.TargetResourceIndexKey, datastore.TargetResourceIndexFunc); err != nil {
		return fmt.Errorf("failed to index WorkflowExecutions by target resource - %w", err)
	}

	calculator := opts.Calculator()
	r.Datastore = datastore.NewDatastore(mgr.GetClient(), calculator, opts.BackoffStateRetention, r.Clock)
	if err := mgr.Add(runnable.NoLeaderElection(manager.RunnableFunc(r.Datastore.Start))); err != nil {
		return fmt.Errorf("failed to add backoff datastore - %w", err)
	}

	sink := &audit.EventRecorderSink{Recorder: mgr.GetEventRecorderFor(ControllerName)}
	r.Audit = audit.NewAsyncRecorder(sink, opts.AuditBufferSize)
	if err := mgr.Add(r.Audit); err != nil {
		return fmt.Errorf("failed to add audit recorder - %w", err)
	}

	exec := executor.NewTektonExecutor(mgr.GetClient(), opts.APITimeout)
	reconciler := &controller.WorkflowExecutionReconciler{
		Client:    mgr.GetClient(),
		Datastore: r.Datastore,
		Lock:      lock.NewManager(exec, opts.ExecutionNamespace),
		Cooldown:  calculator,
		Audit:     r.Audit,
		Clock:     r.Clock,
		Config:    opts.ControllerConfig(),
	}
	if err := reconciler.SetupWithManager(mgr); err != nil {
		return fmt.Errorf("failed setting up WorkflowExecutionReconciler: %v", err)
	}
	return nil
}
