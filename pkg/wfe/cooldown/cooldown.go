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

// Package cooldown computes when a target may be remediated again.
package cooldown

import (
	"fmt"
	"math"
	"time"

	"github.com/jordigilh/kubernaut-sub014/api/v1alpha1"
)

// Outcome is the result of a terminal execution as seen by the backoff accounting.
type Outcome string

const (
	// OutcomeNone means no execution has been recorded for the target.
	OutcomeNone Outcome = ""
	// OutcomeSuccess resets the failure counter.
	OutcomeSuccess Outcome = "Success"
	// OutcomeExecutionFailure is a workflow that ran and failed. It grows the failure counter.
	OutcomeExecutionFailure Outcome = "ExecutionFailure"
	// OutcomeInfrastructureFailure is a failure where no workflow step ran. It
	// keeps the failure counter as is.
	OutcomeInfrastructureFailure Outcome = "InfrastructureFailure"
)

// IsFailure returns true for both failure outcomes.
func (o Outcome) IsFailure() bool {
	return o == OutcomeExecutionFailure || o == OutcomeInfrastructureFailure
}

// Calculator holds the cooldown configuration. The zero value is not usable; see NewCalculator.
type Calculator struct {
	// BaseCooldown is applied after every terminal execution.
	BaseCooldown time.Duration
	// MaxExponent caps the exponent applied to BaseCooldown.
	MaxExponent int32
	// MaxCooldown clamps the result when positive.
	MaxCooldown time.Duration
}

// NewCalculator returns a Calculator with the given settings.
func NewCalculator(base time.Duration, maxExponent int32, maxCooldown time.Duration) *Calculator {
	return &Calculator{
		BaseCooldown: base,
		MaxExponent:  maxExponent,
		MaxCooldown:  maxCooldown,
	}
}

// Validate checks the configuration.
func (c *Calculator) Validate() error {
	if c.BaseCooldown <= 0 {
		return fmt.Errorf("base cooldown must be positive, got %v", c.BaseCooldown)
	}
	if c.MaxExponent < 0 {
		return fmt.Errorf("max backoff exponent must not be negative, got %d", c.MaxExponent)
	}
	if c.MaxCooldown < 0 {
		return fmt.Errorf("max cooldown must not be negative, got %v", c.MaxCooldown)
	}
	return nil
}

// Backoff returns BaseCooldown * 2^min(failures, MaxExponent), saturating at
// the largest representable duration and clamped to MaxCooldown when set.
func (c *Calculator) Backoff(failures int32) time.Duration {
	exp := failures
	if exp > c.MaxExponent {
		exp = c.MaxExponent
	}
	if exp < 0 {
		exp = 0
	}

	d := c.BaseCooldown
	switch {
	case d <= 0:
		d = 0
	case exp >= 63 || d > time.Duration(math.MaxInt64>>uint(exp)):
		d = time.Duration(math.MaxInt64)
	default:
		d <<= uint(exp)
	}

	if c.MaxCooldown > 0 && d > c.MaxCooldown {
		d = c.MaxCooldown
	}
	return d
}

// Next returns the failure counter and next allowed execution time that
// follow an execution with the given outcome.
func (c *Calculator) Next(outcome Outcome, consecutiveFailures int32, completion time.Time) (int32, time.Time) {
	switch outcome {
	case OutcomeExecutionFailure:
		n := consecutiveFailures
		if n < math.MaxInt32 {
			n++
		}
		return n, addSaturating(completion, c.Backoff(n))
	case OutcomeInfrastructureFailure:
		return consecutiveFailures, addSaturating(completion, c.Backoff(consecutiveFailures))
	default:
		return 0, addSaturating(completion, c.Backoff(0))
	}
}

// Decision is the result of a cooldown check.
type Decision struct {
	// Proceed is true when the execution may start.
	Proceed bool
	// Remaining is the time left until the execution may start. Zero when Proceed is true.
	Remaining time.Duration
}

// Check compares now with the next allowed execution time. A zero
// nextAllowed means no cooldown is active. now equal to nextAllowed proceeds.
func (c *Calculator) Check(now, nextAllowed time.Time) Decision {
	if nextAllowed.IsZero() || !now.Before(nextAllowed) {
		return Decision{Proceed: true}
	}
	return Decision{Remaining: nextAllowed.Sub(now)}
}

// SkipReason maps the outcome that started the active cooldown to the skip reason reported to users.
func SkipReason(lastOutcome Outcome) v1alpha1.SkipReason {
	if lastOutcome.IsFailure() {
		return v1alpha1.SkipReasonPreviousExecutionFailedBackoff
	}
	return v1alpha1.SkipReasonRecentlyRemediated
}

func addSaturating(t time.Time, d time.Duration) time.Time {
	next := t.Add(d)
	if next.Before(t) {
		return time.Unix(1<<62, 0)
	}
	return next
}
