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
	"errors"
	"sync"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	clocktesting "k8s.io/utils/clock/testing"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	"sigs.k8s.io/controller-runtime/pkg/client/interceptor"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"

	"github.com/jordigilh/kubernaut-sub014/api/v1alpha1"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/audit"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/cooldown"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/datastore"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/executor"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/lock"
	utiltest "github.com/jordigilh/kubernaut-sub014/pkg/wfe/util/testing"
)

const (
	testExecNamespace  = "kubernaut-workflows"
	testTarget         = "e2e/deployment/app-1"
	testJobName        = "wfe-c9fb5cf05f8956fa"
	testServiceAccount = "kubernaut-workflow-runner"
	testPollInterval   = 10 * time.Second
	testBaseCooldown   = 5 * time.Minute
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// captureSink keeps audit events in memory.
type captureSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (s *captureSink) Record(_ context.Context, event audit.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *captureSink) reasons() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, e := range s.events {
		out = append(out, e.Reason)
	}
	return out
}

type testEnv struct {
	client     client.Client
	clock      *clocktesting.FakeClock
	sink       *captureSink
	reconciler *WorkflowExecutionReconciler
}

func newTestEnv(funcs *interceptor.Funcs, objs ...client.Object) *testEnv {
	scheme := runtime.NewScheme()
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(v1alpha1.Install(scheme))

	builder := fake.NewClientBuilder().
		WithScheme(scheme).
		WithObjects(objs...).
		WithStatusSubresource(&v1alpha1.WorkflowExecution{}).
		WithIndex(&v1alpha1.WorkflowExecution{}, datastore.TargetResourceIndexKey, datastore.TargetResourceIndexFunc)
	if funcs != nil {
		builder = builder.WithInterceptorFuncs(*funcs)
	}
	c := builder.Build()

	clk := clocktesting.NewFakeClock(testNow)
	calculator := cooldown.NewCalculator(testBaseCooldown, 6, 0)
	sink := &captureSink{}
	return &testEnv{
		client: c,
		clock:  clk,
		sink:   sink,
		reconciler: &WorkflowExecutionReconciler{
			Client:    c,
			Datastore: datastore.NewDatastore(c, calculator, 24*time.Hour, clk),
			Lock:      lock.NewManager(executor.NewTektonExecutor(c, time.Second), testExecNamespace),
			Cooldown:  calculator,
			Audit:     sink,
			Clock:     clk,
			Config: Config{
				ExecutionNamespace:    testExecNamespace,
				DefaultServiceAccount: testServiceAccount,
				APITimeout:            5 * time.Second,
				StatusPollInterval:    testPollInterval,
			},
		},
	}
}

func (e *testEnv) reconcile(ctx context.Context, name string) (ctrl.Result, error) {
	return e.reconciler.Reconcile(ctx, ctrl.Request{NamespacedName: types.NamespacedName{Namespace: "default", Name: name}})
}

// isTerminal reports whether err is dropped by the workqueue instead of requeued.
func isTerminal(err error) bool {
	return errors.Is(err, reconcile.TerminalError(nil))
}

func (e *testEnv) getWorkflowExecution(ctx context.Context, name string) (*v1alpha1.WorkflowExecution, error) {
	wfe := &v1alpha1.WorkflowExecution{}
	err := e.client.Get(ctx, types.NamespacedName{Namespace: "default", Name: name}, wfe)
	return wfe, err
}

func (e *testEnv) getPipelineRun(ctx context.Context) (*unstructured.Unstructured, error) {
	pr := executor.NewPipelineRun()
	err := e.client.Get(ctx, types.NamespacedName{Namespace: testExecNamespace, Name: testJobName}, pr)
	return pr, err
}

// updatePipelineRun plays the part of the Tekton controller.
func (e *testEnv) updatePipelineRun(ctx context.Context, mutate func(*utiltest.PipelineRunWrapper)) error {
	pr, err := e.getPipelineRun(ctx)
	if err != nil {
		return err
	}
	w := &utiltest.PipelineRunWrapper{Unstructured: *pr}
	mutate(w)
	return e.client.Update(ctx, w.ObjRef())
}
