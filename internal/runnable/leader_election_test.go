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

package runnable

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/controller-runtime/pkg/manager"
)

func TestLeaderElectionWrappers(t *testing.T) {
	noop := manager.RunnableFunc(func(context.Context) error { return nil })

	required, ok := RequireLeaderElection(noop).(manager.LeaderElectionRunnable)
	require.True(t, ok)
	assert.True(t, required.NeedLeaderElection())

	notRequired, ok := NoLeaderElection(noop).(manager.LeaderElectionRunnable)
	require.True(t, ok)
	assert.False(t, notRequired.NeedLeaderElection())
}

func TestLeaderTracker(t *testing.T) {
	var isLeader atomic.Bool
	tracker := LeaderTracker(&isLeader)

	le, ok := tracker.(manager.LeaderElectionRunnable)
	require.True(t, ok)
	assert.True(t, le.NeedLeaderElection())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tracker.Start(ctx) }()

	assert.Eventually(t, isLeader.Load, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("tracker did not stop")
	}
	assert.False(t, isLeader.Load())
}
