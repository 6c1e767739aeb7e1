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

	"sigs.k8s.io/controller-runtime/pkg/manager"
)

type leaderElection struct {
	manager.Runnable
	needsLeaderElection bool
}

// LeaderElection wraps the given runnable to implement manager.LeaderElectionRunnable.
func LeaderElection(runnable manager.Runnable, needsLeaderElection bool) manager.Runnable {
	return &leaderElection{
		Runnable:            runnable,
		needsLeaderElection: needsLeaderElection,
	}
}

// RequireLeaderElection wraps the given runnable, marking it as requiring leader election.
func RequireLeaderElection(runnable manager.Runnable) manager.Runnable {
	return LeaderElection(runnable, true)
}

// NoLeaderElection wraps the given runnable, marking it as not requiring leader election.
func NoLeaderElection(runnable manager.Runnable) manager.Runnable {
	return LeaderElection(runnable, false)
}

// NeedLeaderElection implements manager.LeaderElectionRunnable.
func (r *leaderElection) NeedLeaderElection() bool {
	return r.needsLeaderElection
}

// LeaderTracker returns a runnable that sets isLeader while this replica holds
// the lease. The manager only starts it once the lease is acquired, or right
// away when leader election is disabled.
func LeaderTracker(isLeader *atomic.Bool) manager.Runnable {
	return RequireLeaderElection(manager.RunnableFunc(func(ctx context.Context) error {
		isLeader.Store(true)
		<-ctx.Done()
		isLeader.Store(false)
		return nil
	}))
}
