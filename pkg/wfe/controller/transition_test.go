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
	"errors"
	"testing"

	"github.com/jordigilh/kubernaut-sub014/api/v1alpha1"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		from    v1alpha1.WorkflowExecutionPhase
		event   Event
		want    v1alpha1.WorkflowExecutionPhase
		wantErr bool
	}{
		{from: "", event: EventLockAcquired, want: v1alpha1.PhaseRunning},
		{from: v1alpha1.PhasePending, event: EventValidationFailed, want: v1alpha1.PhaseFailed},
		{from: v1alpha1.PhasePending, event: EventResourceBusy, want: v1alpha1.PhaseSkipped},
		{from: v1alpha1.PhasePending, event: EventCooldownActive, want: v1alpha1.PhaseSkipped},
		{from: v1alpha1.PhasePending, event: EventLockAcquired, want: v1alpha1.PhaseRunning},
		{from: v1alpha1.PhaseRunning, event: EventJobSucceeded, want: v1alpha1.PhaseCompleted},
		{from: v1alpha1.PhaseRunning, event: EventJobFailed, want: v1alpha1.PhaseFailed},
		{from: v1alpha1.PhaseRunning, event: EventJobDeleted, want: v1alpha1.PhaseFailed},

		{from: v1alpha1.PhasePending, event: EventJobSucceeded, wantErr: true},
		{from: v1alpha1.PhaseRunning, event: EventResourceBusy, wantErr: true},
		{from: v1alpha1.PhaseRunning, event: EventLockAcquired, wantErr: true},
		{from: v1alpha1.PhaseCompleted, event: EventJobFailed, wantErr: true},
		{from: v1alpha1.PhaseFailed, event: EventLockAcquired, wantErr: true},
		{from: v1alpha1.PhaseSkipped, event: EventLockAcquired, wantErr: true},
		{from: v1alpha1.PhaseSkipped, event: EventCooldownActive, wantErr: true},
	}
	for _, test := range tests {
		t.Run(string(test.from)+"/"+string(test.event), func(t *testing.T) {
			got, err := Transition(test.from, test.event)
			if test.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Errorf("Transition() error = %v, want ErrInvalidTransition", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Transition() error = %v", err)
			}
			if got != test.want {
				t.Errorf("Transition() = %s, want %s", got, test.want)
			}
		})
	}
}

func TestTerminalPhasesAcceptNoEvent(t *testing.T) {
	events := []Event{EventValidationFailed, EventResourceBusy, EventCooldownActive, EventLockAcquired, EventJobSucceeded, EventJobFailed, EventJobDeleted}
	for _, phase := range []v1alpha1.WorkflowExecutionPhase{v1alpha1.PhaseCompleted, v1alpha1.PhaseFailed, v1alpha1.PhaseSkipped} {
		for _, event := range events {
			if got, err := Transition(phase, event); err == nil {
				t.Errorf("Transition(%s, %s) = %s, want error", phase, event, got)
			}
		}
	}
}
