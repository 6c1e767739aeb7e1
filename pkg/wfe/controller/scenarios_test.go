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
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/jordigilh/kubernaut-sub014/api/v1alpha1"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/audit"
	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/failure"
	errutil "github.com/jordigilh/kubernaut-sub014/pkg/wfe/util/error"
	logutil "github.com/jordigilh/kubernaut-sub014/pkg/wfe/util/logging"
	utiltest "github.com/jordigilh/kubernaut-sub014/pkg/wfe/util/testing"
)

var _ = ginkgo.Describe("WorkflowExecution", func() {
	var (
		ctx      context.Context
		env      *testEnv
		recorder *record.FakeRecorder
	)

	ginkgo.BeforeEach(func() {
		ctx = logutil.NewTestLoggerIntoContext(context.Background())
		env = newTestEnv(nil)
		recorder = record.NewFakeRecorder(100)
		env.reconciler.Audit = &audit.EventRecorderSink{Recorder: recorder}
	})

	submit := func(name string) {
		wfe := pendingWorkflowExecution(name).ObjRef()
		gomega.Expect(env.client.Create(ctx, wfe)).To(gomega.Succeed())
	}

	reconcile := func(name string) ctrl.Result {
		result, err := env.reconcile(ctx, name)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		return result
	}

	get := func(name string) *v1alpha1.WorkflowExecution {
		wfe, err := env.getWorkflowExecution(ctx, name)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		return wfe
	}

	expectNoPipelineRun := func() {
		_, err := env.getPipelineRun(ctx)
		gomega.Expect(apierrors.IsNotFound(err)).To(gomega.BeTrue(), "PipelineRun should not exist, got %v", err)
	}

	// failRun fails the current PipelineRun at a task that ran.
	failRun := func(round int, message string) client.Object {
		taskRun := utiltest.MakeTaskRun(fmt.Sprintf("%s-restart-%d", testJobName, round), testExecNamespace, testJobName, "restart").
			StartTime(env.clock.Now().Add(-time.Minute)).
			Failed("Failed", message).
			Step("apply", 1, "Error").
			ObjRef()
		gomega.Expect(env.client.Create(ctx, taskRun)).To(gomega.Succeed())
		gomega.Expect(env.updatePipelineRun(ctx, func(w *utiltest.PipelineRunWrapper) {
			w.Failed("Failed", "Tasks Completed: 1 (Failed: 1, Cancelled 0), Skipped: 0").
				ChildTaskRun(taskRun.GetName(), "restart")
		})).To(gomega.Succeed())
		return taskRun
	}

	ginkgo.When("a remediation is requested for an idle target", func() {
		ginkgo.It("runs the workflow and enforces the cooldown afterwards", func() {
			ginkgo.By("Starting the PipelineRun")
			submit("wfe-1")
			gomega.Expect(reconcile("wfe-1")).To(gomega.Equal(ctrl.Result{RequeueAfter: testPollInterval}))
			wfe := get("wfe-1")
			gomega.Expect(wfe.Status.Phase).To(gomega.Equal(v1alpha1.PhaseRunning))
			gomega.Expect(wfe.Status.PipelineRunRef.Name).To(gomega.Equal("wfe-c9fb5cf05f8956fa"))
			gomega.Expect(recorder.Events).To(gomega.Receive(gomega.ContainSubstring("Normal " + audit.ReasonStarted)))

			ginkgo.By("Completing the PipelineRun")
			env.clock.Step(2 * time.Minute)
			gomega.Expect(env.updatePipelineRun(ctx, func(w *utiltest.PipelineRunWrapper) { w.Succeeded() })).To(gomega.Succeed())
			gomega.Expect(reconcile("wfe-1")).To(gomega.Equal(ctrl.Result{RequeueAfter: testBaseCooldown}))
			wfe = get("wfe-1")
			gomega.Expect(wfe.Status.Phase).To(gomega.Equal(v1alpha1.PhaseCompleted))
			gomega.Expect(wfe.Status.Duration).To(gomega.Equal("2m0s"))
			gomega.Expect(recorder.Events).To(gomega.Receive(gomega.ContainSubstring("Normal " + audit.ReasonCompleted)))

			ginkgo.By("Skipping a new request during the cooldown")
			env.clock.Step(time.Minute)
			submit("wfe-2")
			gomega.Expect(reconcile("wfe-2")).To(gomega.Equal(ctrl.Result{}))
			skipped := get("wfe-2")
			gomega.Expect(skipped.Status.Phase).To(gomega.Equal(v1alpha1.PhaseSkipped))
			gomega.Expect(skipped.Status.SkipDetails.Reason).To(gomega.Equal(v1alpha1.SkipReasonRecentlyRemediated))
			gomega.Expect(skipped.Status.SkipDetails.RecentRemediation.WorkflowExecution).To(gomega.Equal("default/wfe-1"))
			gomega.Expect(recorder.Events).To(gomega.Receive(gomega.ContainSubstring("Normal " + audit.ReasonSkipped)))

			ginkgo.By("Releasing the lock when the cooldown ends")
			gomega.Expect(reconcile("wfe-1")).To(gomega.Equal(ctrl.Result{RequeueAfter: 4 * time.Minute}))
			env.clock.Step(4 * time.Minute)
			gomega.Expect(reconcile("wfe-1")).To(gomega.Equal(ctrl.Result{}))
			expectNoPipelineRun()

			ginkgo.By("Running the next request")
			submit("wfe-3")
			reconcile("wfe-3")
			gomega.Expect(get("wfe-3").Status.Phase).To(gomega.Equal(v1alpha1.PhaseRunning))
		})
	})

	ginkgo.When("executions keep failing", func() {
		ginkgo.It("backs off exponentially and resets on success", func() {
			for round := 1; round <= 3; round++ {
				name := fmt.Sprintf("wfe-%d", round)
				backoff := testBaseCooldown << round

				ginkgo.By(fmt.Sprintf("Failing execution %d", round))
				submit(name)
				reconcile(name)
				gomega.Expect(get(name).Status.Phase).To(gomega.Equal(v1alpha1.PhaseRunning))

				taskRun := failRun(round, `step "apply" exited with code 1: permission denied on deployments.apps "app-1"`)
				completion := env.clock.Now()
				gomega.Expect(reconcile(name)).To(gomega.Equal(ctrl.Result{RequeueAfter: backoff}))
				wfe := get(name)
				gomega.Expect(wfe.Status.Phase).To(gomega.Equal(v1alpha1.PhaseFailed))
				gomega.Expect(wfe.Status.ConsecutiveFailures).To(gomega.Equal(int32(round)))
				gomega.Expect(wfe.Status.FailureDetails.Category).To(gomega.Equal(v1alpha1.FailureCategoryForbidden))
				gomega.Expect(wfe.Status.FailureDetails.WasExecutionFailure).To(gomega.BeTrue())
				gomega.Expect(wfe.Status.NextAllowedExecution.Time).To(gomega.BeTemporally("==", completion.Add(backoff)))

				if round == 3 {
					gomega.Expect(backoff).To(gomega.Equal(8 * testBaseCooldown))

					ginkgo.By("Skipping a request during the backoff")
					submit("wfe-blocked")
					reconcile("wfe-blocked")
					blocked := get("wfe-blocked")
					gomega.Expect(blocked.Status.Phase).To(gomega.Equal(v1alpha1.PhaseSkipped))
					gomega.Expect(blocked.Status.SkipDetails.Reason).To(gomega.Equal(v1alpha1.SkipReasonPreviousExecutionFailedBackoff))
					gomega.Expect(blocked.Status.SkipDetails.RecentRemediation.ConsecutiveFailures).To(gomega.Equal(int32(3)))
				}

				env.clock.Step(backoff)
				gomega.Expect(reconcile(name)).To(gomega.Equal(ctrl.Result{}))
				expectNoPipelineRun()
				gomega.Expect(env.client.Delete(ctx, taskRun)).To(gomega.Succeed())
			}

			ginkgo.By("Succeeding after the backoff")
			submit("wfe-4")
			reconcile("wfe-4")
			gomega.Expect(env.updatePipelineRun(ctx, func(w *utiltest.PipelineRunWrapper) { w.Succeeded() })).To(gomega.Succeed())
			completion := env.clock.Now()
			reconcile("wfe-4")
			wfe := get("wfe-4")
			gomega.Expect(wfe.Status.Phase).To(gomega.Equal(v1alpha1.PhaseCompleted))
			gomega.Expect(wfe.Status.ConsecutiveFailures).To(gomega.BeZero())
			gomega.Expect(wfe.Status.NextAllowedExecution.Time).To(gomega.BeTemporally("==", completion.Add(testBaseCooldown)))
		})
	})

	ginkgo.When("the PipelineRun is deleted by someone else", func() {
		ginkgo.It("fails the execution without growing the failure counter", func() {
			submit("wfe-1")
			reconcile("wfe-1")
			pr, err := env.getPipelineRun(ctx)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(env.client.Delete(ctx, pr)).To(gomega.Succeed())

			result, err := env.reconcile(ctx, "wfe-1")
			gomega.Expect(isTerminal(err)).To(gomega.BeTrue(), "got %v", err)
			gomega.Expect(errutil.CanonicalCode(err)).To(gomega.Equal(errutil.ExternalInterference))
			gomega.Expect(result).To(gomega.Equal(ctrl.Result{}))
			wfe := get("wfe-1")
			gomega.Expect(wfe.Status.Phase).To(gomega.Equal(v1alpha1.PhaseFailed))
			gomega.Expect(wfe.Status.FailureDetails.Reason).To(gomega.Equal(failure.ReasonPipelineRunDeleted))
			gomega.Expect(wfe.Status.ConsecutiveFailures).To(gomega.BeZero())
			gomega.Eventually(recorder.Events).Should(gomega.Receive(gomega.ContainSubstring("Warning " + audit.ReasonFailed)))

			submit("wfe-2")
			reconcile("wfe-2")
			skipped := get("wfe-2")
			gomega.Expect(skipped.Status.SkipDetails.Reason).To(gomega.Equal(v1alpha1.SkipReasonPreviousExecutionFailedBackoff))
			gomega.Expect(skipped.Status.SkipDetails.RecentRemediation.ConsecutiveFailures).To(gomega.BeZero())
		})
	})

	ginkgo.When("a running WorkflowExecution is deleted", func() {
		ginkgo.It("deletes its PipelineRun in the execution namespace before letting go", func() {
			submit("wfe-1")
			reconcile("wfe-1")
			wfe := get("wfe-1")
			gomega.Expect(wfe.Finalizers).To(gomega.ContainElement(FinalizerName))

			gomega.Expect(env.client.Delete(ctx, wfe)).To(gomega.Succeed())
			gomega.Expect(reconcile("wfe-1")).To(gomega.Equal(ctrl.Result{}))

			expectNoPipelineRun()
			_, err := env.getWorkflowExecution(ctx, "wfe-1")
			gomega.Expect(apierrors.IsNotFound(err)).To(gomega.BeTrue())
		})
	})
})
