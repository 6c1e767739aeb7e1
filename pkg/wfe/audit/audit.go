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

// Package audit records the lifecycle of workflow executions as Kubernetes events.
package audit

import (
	"context"
	"maps"

	"github.com/google/uuid"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/tools/record"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/metrics"
	logutil "github.com/jordigilh/kubernaut-sub014/pkg/wfe/util/logging"
)

const (
	// AnnotationAuditID correlates an event with the logs of the reconcile that emitted it.
	AnnotationAuditID = "kubernaut.ai/audit-id"
	// AnnotationRemediationRequest names the orchestrator object behind the execution.
	AnnotationRemediationRequest = "kubernaut.ai/remediation-request"

	ReasonStarted   = "WorkflowExecutionStarted"
	ReasonCompleted = "WorkflowExecutionCompleted"
	ReasonFailed    = "WorkflowExecutionFailed"
	ReasonSkipped   = "WorkflowExecutionSkipped"
)

// Event is one audit record.
type Event struct {
	ID          string
	Object      runtime.Object
	Type        string
	Reason      string
	Message     string
	Annotations map[string]string
}

// NewEvent returns an event with a fresh correlation id.
func NewEvent(obj runtime.Object, eventType, reason, message string) Event {
	return Event{
		ID:      uuid.NewString(),
		Object:  obj,
		Type:    eventType,
		Reason:  reason,
		Message: message,
	}
}

// Sink accepts audit events. Record must not block the caller for long and never fails.
type Sink interface {
	Record(ctx context.Context, event Event)
}

// EventRecorderSink writes events through a Kubernetes event recorder.
type EventRecorderSink struct {
	Recorder record.EventRecorder
}

var _ Sink = &EventRecorderSink{}

func (s *EventRecorderSink) Record(_ context.Context, event Event) {
	annotations := maps.Clone(event.Annotations)
	if annotations == nil {
		annotations = map[string]string{}
	}
	annotations[AnnotationAuditID] = event.ID
	eventType := event.Type
	if eventType == "" {
		eventType = corev1.EventTypeNormal
	}
	s.Recorder.AnnotatedEventf(event.Object, annotations, eventType, event.Reason, "%s", event.Message)
}

// AsyncRecorder buffers events and hands them to a sink from its own
// goroutine. Events that do not fit the buffer are dropped and counted.
type AsyncRecorder struct {
	sink   Sink
	events chan Event
}

var _ Sink = &AsyncRecorder{}

func NewAsyncRecorder(sink Sink, bufferSize int) *AsyncRecorder {
	return &AsyncRecorder{
		sink:   sink,
		events: make(chan Event, bufferSize),
	}
}

// Record enqueues the event without blocking.
func (r *AsyncRecorder) Record(ctx context.Context, event Event) {
	select {
	case r.events <- event:
	default:
		metrics.RecordAuditEventDropped()
		log.FromContext(ctx).V(logutil.DEFAULT).Info("Audit buffer full, dropping event",
			"reason", event.Reason, "auditID", event.ID)
	}
}

// Start drains the buffer until ctx is done, then flushes what is left.
func (r *AsyncRecorder) Start(ctx context.Context) error {
	logger := log.FromContext(ctx).WithName("audit")
	logger.V(logutil.VERBOSE).Info("Audit recorder started", "bufferSize", cap(r.events))
	for {
		select {
		case event := <-r.events:
			r.sink.Record(ctx, event)
		case <-ctx.Done():
			r.flush(ctx)
			return nil
		}
	}
}

func (r *AsyncRecorder) flush(ctx context.Context) {
	for {
		select {
		case event := <-r.events:
			r.sink.Record(ctx, event)
		default:
			return
		}
	}
}

// NeedLeaderElection implements manager.LeaderElectionRunnable.
func (r *AsyncRecorder) NeedLeaderElection() bool {
	return false
}
