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
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/types"

	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/cooldown"
)

// BackoffState is the cooldown bookkeeping of one target resource.
type BackoffState struct {
	Target      string
	Fingerprint string

	ConsecutiveFailures  int32
	NextAllowedExecution time.Time
	LastOutcome          cooldown.Outcome
	LastCompletion       time.Time
	// LastRecordedBy is the UID of the request whose outcome produced this state.
	LastRecordedBy types.UID
	LastExecution  types.NamespacedName

	version uint64
}

// Clone returns a copy of the state.
func (s *BackoffState) Clone() *BackoffState {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

func (s *BackoffState) String() string {
	if s == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s{failures: %d, next: %s, outcome: %q}", s.Target, s.ConsecutiveFailures,
		s.NextAllowedExecution.Format(time.RFC3339), s.LastOutcome)
}
