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

package audit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/tools/record"

	logutil "github.com/jordigilh/kubernaut-sub014/pkg/wfe/util/logging"
	utiltest "github.com/jordigilh/kubernaut-sub014/pkg/wfe/util/testing"
)

type recordedEvent struct {
	object      runtime.Object
	annotations map[string]string
	eventType   string
	reason      string
	message     string
}

type capturingRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

var _ record.EventRecorder = &capturingRecorder{}

func (r *capturingRecorder) Event(object runtime.Object, eventtype, reason, message string) {
	r.AnnotatedEventf(object, nil, eventtype, reason, "%s", message)
}

func (r *capturingRecorder) Eventf(object runtime.Object, eventtype, reason, messageFmt string, args ...interface{}) {
	r.AnnotatedEventf(object, nil, eventtype, reason, messageFmt, args...)
}

func (r *capturingRecorder) AnnotatedEventf(object runtime.Object, annotations map[string]string, eventtype, reason, messageFmt string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{
		object:      object,
		annotations: annotations,
		eventType:   eventtype,
		reason:      reason,
		message:     fmt.Sprintf(messageFmt, args...),
	})
}

type chanSink struct {
	events chan Event
}

func (s *chanSink) Record(_ context.Context, event Event) {
	s.events <- event
}

func TestNewEvent(t *testing.T) {
	wfe := utiltest.MakeWorkflowExecution("wfe-1").ObjRef()
	first := NewEvent(wfe, corev1.EventTypeNormal, ReasonCompleted, "done")
	second := NewEvent(wfe, corev1.EventTypeNormal, ReasonCompleted, "done")

	_, err := uuid.Parse(first.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, ReasonCompleted, first.Reason)
}

func TestEventRecorderSink(t *testing.T) {
	ctx := logutil.NewTestLoggerIntoContext(context.Background())
	recorder := &capturingRecorder{}
	sink := &EventRecorderSink{Recorder: recorder}
	wfe := utiltest.MakeWorkflowExecution("wfe-1").ObjRef()

	failed := NewEvent(wfe, corev1.EventTypeWarning, ReasonFailed, "Workflow failed before any task ran")
	failed.Annotations = map[string]string{AnnotationRemediationRequest: "default/rr-1"}
	sink.Record(ctx, failed)
	// An empty type is recorded as Normal.
	skipped := NewEvent(wfe, "", ReasonSkipped, "ResourceBusy")
	sink.Record(ctx, skipped)

	require.Len(t, recorder.events, 2)
	assert.Equal(t, recordedEvent{
		object: wfe,
		annotations: map[string]string{
			AnnotationAuditID:            failed.ID,
			AnnotationRemediationRequest: "default/rr-1",
		},
		eventType: corev1.EventTypeWarning,
		reason:    ReasonFailed,
		message:   "Workflow failed before any task ran",
	}, recorder.events[0])
	assert.Equal(t, corev1.EventTypeNormal, recorder.events[1].eventType)
	assert.Equal(t, map[string]string{AnnotationAuditID: skipped.ID}, recorder.events[1].annotations)
	// The caller's map is left untouched.
	assert.Equal(t, map[string]string{AnnotationRemediationRequest: "default/rr-1"}, failed.Annotations)
}

func TestAsyncRecorderDropsWhenFull(t *testing.T) {
	ctx := logutil.NewTestLoggerIntoContext(context.Background())
	sink := &chanSink{events: make(chan Event, 10)}
	r := NewAsyncRecorder(sink, 1)
	wfe := utiltest.MakeWorkflowExecution("wfe-1").ObjRef()

	for i := range 3 {
		r.Record(ctx, NewEvent(wfe, corev1.EventTypeNormal, ReasonSkipped, fmt.Sprintf("event %d", i)))
	}
	assert.Len(t, r.events, 1)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error)
	go func() { done <- r.Start(runCtx) }()

	select {
	case event := <-sink.events:
		assert.Equal(t, "event 0", event.Message)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the buffered event")
	}
	cancel()
	require.NoError(t, <-done)
	assert.Empty(t, sink.events)
}

func TestAsyncRecorderFlushesOnStop(t *testing.T) {
	ctx := logutil.NewTestLoggerIntoContext(context.Background())
	sink := &chanSink{events: make(chan Event, 10)}
	r := NewAsyncRecorder(sink, 5)
	wfe := utiltest.MakeWorkflowExecution("wfe-1").ObjRef()

	for range 3 {
		r.Record(ctx, NewEvent(wfe, corev1.EventTypeNormal, ReasonCompleted, "done"))
	}

	stopped, cancel := context.WithCancel(ctx)
	cancel()
	require.NoError(t, r.Start(stopped))
	assert.Len(t, sink.events, 3)
	assert.False(t, r.NeedLeaderElection())
}
