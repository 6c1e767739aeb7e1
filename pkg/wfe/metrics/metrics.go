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

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	compbasemetrics "k8s.io/component-base/metrics"
	"sigs.k8s.io/controller-runtime/pkg/metrics"

	metricsutil "github.com/jordigilh/kubernaut-sub014/pkg/wfe/util/metrics"
)

const (
	WorkflowExecutionComponent = "wfe"
)

var (
	OutcomeLabels = []string{"outcome"}

	// ExecutionDurationBuckets cover workflows from one second to two hours.
	ExecutionDurationBuckets = []float64{
		1, 5, 10, 30, 60, 120, 300, 600, 900, 1200, 1800, 2700, 3600, 5400, 7200,
	}
)

var (
	executionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: WorkflowExecutionComponent,
			Name:      "execution_total",
			Help:      metricsutil.HelpMsgWithStability("Counter of workflow executions that reached a terminal phase, broken out by outcome.", compbasemetrics.ALPHA),
		},
		OutcomeLabels,
	)

	skipTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: WorkflowExecutionComponent,
			Name:      "skip_total",
			Help:      metricsutil.HelpMsgWithStability("Counter of workflow executions skipped before running, broken out by reason.", compbasemetrics.ALPHA),
		},
		[]string{"reason"},
	)

	executionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Subsystem: WorkflowExecutionComponent,
			Name:      "execution_duration_seconds",
			Help:      metricsutil.HelpMsgWithStability("Workflow execution duration distribution in seconds, broken out by outcome.", compbasemetrics.ALPHA),
			Buckets:   ExecutionDurationBuckets,
		},
		OutcomeLabels,
	)

	pipelineRunCreationTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Subsystem: WorkflowExecutionComponent,
			Name:      "pipelinerun_creation_total",
			Help:      metricsutil.HelpMsgWithStability("Counter of PipelineRuns created by the controller.", compbasemetrics.ALPHA),
		},
	)

	auditEventsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Subsystem: WorkflowExecutionComponent,
			Name:      "audit_events_dropped_total",
			Help:      metricsutil.HelpMsgWithStability("Counter of audit events dropped because the audit buffer was full.", compbasemetrics.ALPHA),
		},
	)
)

// --- Info Metrics ---
var WorkflowExecutionInfo = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Subsystem: WorkflowExecutionComponent,
		Name:      "info",
		Help:      metricsutil.HelpMsgWithStability("General information of the current build of the workflow execution controller.", compbasemetrics.ALPHA),
	},
	[]string{"commit", "build_ref"},
)

var registerMetrics sync.Once

// Register all metrics.
func Register(customCollectors ...prometheus.Collector) {
	registerMetrics.Do(func() {
		metrics.Registry.MustRegister(executionTotal)
		metrics.Registry.MustRegister(skipTotal)
		metrics.Registry.MustRegister(executionDuration)
		metrics.Registry.MustRegister(pipelineRunCreationTotal)
		metrics.Registry.MustRegister(auditEventsDroppedTotal)
		metrics.Registry.MustRegister(WorkflowExecutionInfo)
		for _, collector := range customCollectors {
			metrics.Registry.MustRegister(collector)
		}
	})
}

// Just for tests. Plain counters cannot be reset.
func Reset() {
	executionTotal.Reset()
	skipTotal.Reset()
	executionDuration.Reset()
	WorkflowExecutionInfo.Reset()
}

// RecordExecution records a terminal execution and its duration.
func RecordExecution(outcome string, duration time.Duration) {
	executionTotal.WithLabelValues(outcome).Inc()
	if duration > 0 {
		executionDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	}
}

// RecordSkip records a skipped execution.
func RecordSkip(reason string) {
	skipTotal.WithLabelValues(reason).Inc()
}

// RecordPipelineRunCreation records a PipelineRun created by the controller.
func RecordPipelineRunCreation() {
	pipelineRunCreationTotal.Inc()
}

// RecordAuditEventDropped records an audit event that could not be buffered.
func RecordAuditEventDropped() {
	auditEventsDroppedTotal.Inc()
}

func RecordWorkflowExecutionInfo(commitSha, buildRef string) {
	WorkflowExecutionInfo.WithLabelValues(commitSha, buildRef).Set(1)
}
