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
	"fmt"

	"github.com/jordigilh/kubernaut-sub014/api/v1alpha1"
)

// Event is an input of the phase state machine.
type Event string

const (
	EventValidationFailed Event = "ValidationFailed"
	EventResourceBusy     Event = "ResourceBusy"
	EventCooldownActive   Event = "CooldownActive"
	EventLockAcquired     Event = "LockAcquired"
	EventJobSucceeded     Event = "JobSucceeded"
	EventJobFailed        Event = "JobFailed"
	EventJobDeleted       Event = "JobDeleted"
)

var ErrInvalidTransition = errors.New("invalid phase transition")

var transitions = map[v1alpha1.WorkflowExecutionPhase]map[Event]v1alpha1.WorkflowExecutionPhase{
	v1alpha1.PhasePending: {
		EventValidationFailed: v1alpha1.PhaseFailed,
		EventResourceBusy:     v1alpha1.PhaseSkipped,
		EventCooldownActive:   v1alpha1.PhaseSkipped,
		EventLockAcquired:     v1alpha1.PhaseRunning,
	},
	v1alpha1.PhaseRunning: {
		EventJobSucceeded: v1alpha1.PhaseCompleted,
		EventJobFailed:    v1alpha1.PhaseFailed,
		EventJobDeleted:   v1alpha1.PhaseFailed,
	},
}

// Transition returns the phase that follows from on event. Terminal phases
// accept no event. An empty phase is Pending.
func Transition(from v1alpha1.WorkflowExecutionPhase, event Event) (v1alpha1.WorkflowExecutionPhase, error) {
	if from == "" {
		from = v1alpha1.PhasePending
	}
	to, ok := transitions[from][event]
	if !ok {
		return from, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, from, event)
	}
	return to, nil
}
