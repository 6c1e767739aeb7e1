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

package cooldown

import (
	"math"
	"testing"
	"time"

	"github.com/jordigilh/kubernaut-sub014/api/v1alpha1"
)

var completion = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestBackoff(t *testing.T) {
	tests := []struct {
		name     string
		calc     *Calculator
		failures int32
		want     time.Duration
	}{
		{
			name:     "no failures is the base",
			calc:     NewCalculator(5*time.Minute, 6, 0),
			failures: 0,
			want:     5 * time.Minute,
		},
		{
			name:     "three failures",
			calc:     NewCalculator(5*time.Minute, 6, 0),
			failures: 3,
			want:     40 * time.Minute,
		},
		{
			name:     "exponent capped",
			calc:     NewCalculator(5*time.Minute, 6, 0),
			failures: 20,
			want:     320 * time.Minute,
		},
		{
			name:     "clamped to max cooldown",
			calc:     NewCalculator(5*time.Minute, 6, time.Hour),
			failures: 5,
			want:     time.Hour,
		},
		{
			name:     "saturates instead of overflowing",
			calc:     NewCalculator(time.Duration(math.MaxInt64/2), 62, 0),
			failures: 62,
			want:     time.Duration(math.MaxInt64),
		},
		{
			name:     "negative counter treated as zero",
			calc:     NewCalculator(time.Minute, 6, 0),
			failures: -4,
			want:     time.Minute,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.calc.Backoff(test.failures); got != test.want {
				t.Errorf("Backoff(%d) = %v, want %v", test.failures, got, test.want)
			}
		})
	}
}

func TestBackoffIsMonotonic(t *testing.T) {
	calc := NewCalculator(time.Hour, 40, 0)
	prev := time.Duration(0)
	for n := int32(0); n <= 100; n++ {
		got := calc.Backoff(n)
		if got < prev {
			t.Fatalf("Backoff(%d) = %v is smaller than Backoff(%d) = %v", n, got, n-1, prev)
		}
		if got <= 0 {
			t.Fatalf("Backoff(%d) = %v overflowed", n, got)
		}
		prev = got
	}
}

func TestNext(t *testing.T) {
	calc := NewCalculator(5*time.Minute, 6, 0)

	tests := []struct {
		name      string
		outcome   Outcome
		failures  int32
		wantCount int32
		wantNext  time.Time
	}{
		{
			name:      "success resets the counter",
			outcome:   OutcomeSuccess,
			failures:  4,
			wantCount: 0,
			wantNext:  completion.Add(5 * time.Minute),
		},
		{
			name:      "first execution failure",
			outcome:   OutcomeExecutionFailure,
			failures:  0,
			wantCount: 1,
			wantNext:  completion.Add(10 * time.Minute),
		},
		{
			name:      "third execution failure",
			outcome:   OutcomeExecutionFailure,
			failures:  2,
			wantCount: 3,
			wantNext:  completion.Add(40 * time.Minute),
		},
		{
			name:      "infrastructure failure keeps the counter",
			outcome:   OutcomeInfrastructureFailure,
			failures:  2,
			wantCount: 2,
			wantNext:  completion.Add(20 * time.Minute),
		},
		{
			name:      "counter does not wrap",
			outcome:   OutcomeExecutionFailure,
			failures:  math.MaxInt32,
			wantCount: math.MaxInt32,
			wantNext:  completion.Add(320 * time.Minute),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			gotCount, gotNext := calc.Next(test.outcome, test.failures, completion)
			if gotCount != test.wantCount {
				t.Errorf("Next() count = %d, want %d", gotCount, test.wantCount)
			}
			if !gotNext.Equal(test.wantNext) {
				t.Errorf("Next() next = %v, want %v", gotNext, test.wantNext)
			}
		})
	}
}

func TestThreeFailuresBackOffEightTimesBase(t *testing.T) {
	calc := NewCalculator(5*time.Minute, 6, 0)
	n := int32(0)
	var next time.Time
	for i := 0; i < 3; i++ {
		n, next = calc.Next(OutcomeExecutionFailure, n, completion)
	}
	if n != 3 {
		t.Fatalf("counter = %d, want 3", n)
	}
	if got, want := next.Sub(completion), 8*5*time.Minute; got != want {
		t.Errorf("cooldown = %v, want %v", got, want)
	}
}

func TestNextSaturatesTime(t *testing.T) {
	calc := NewCalculator(time.Duration(math.MaxInt64), 6, 0)
	_, next := calc.Next(OutcomeExecutionFailure, 10, completion)
	if next.Before(completion) {
		t.Errorf("Next() = %v wrapped before completion %v", next, completion)
	}
}

func TestCheck(t *testing.T) {
	calc := NewCalculator(5*time.Minute, 6, 0)
	next := completion.Add(5 * time.Minute)

	tests := []struct {
		name        string
		now         time.Time
		next        time.Time
		wantProceed bool
		wantRemain  time.Duration
	}{
		{
			name:        "no cooldown recorded",
			now:         completion,
			wantProceed: true,
		},
		{
			name:        "exactly at the boundary proceeds",
			now:         next,
			next:        next,
			wantProceed: true,
		},
		{
			name:       "one nanosecond early skips",
			now:        next.Add(-time.Nanosecond),
			next:       next,
			wantRemain: time.Nanosecond,
		},
		{
			name:        "after the boundary proceeds",
			now:         next.Add(time.Second),
			next:        next,
			wantProceed: true,
		},
		{
			name:       "right after completion",
			now:        completion,
			next:       next,
			wantRemain: 5 * time.Minute,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := calc.Check(test.now, test.next)
			if got.Proceed != test.wantProceed || got.Remaining != test.wantRemain {
				t.Errorf("Check() = %+v, want {Proceed:%v Remaining:%v}", got, test.wantProceed, test.wantRemain)
			}
		})
	}
}

func TestSkipReason(t *testing.T) {
	tests := map[Outcome]v1alpha1.SkipReason{
		OutcomeNone:                  v1alpha1.SkipReasonRecentlyRemediated,
		OutcomeSuccess:               v1alpha1.SkipReasonRecentlyRemediated,
		OutcomeExecutionFailure:      v1alpha1.SkipReasonPreviousExecutionFailedBackoff,
		OutcomeInfrastructureFailure: v1alpha1.SkipReasonPreviousExecutionFailedBackoff,
	}
	for outcome, want := range tests {
		if got := SkipReason(outcome); got != want {
			t.Errorf("SkipReason(%q) = %q, want %q", outcome, got, want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		calc    *Calculator
		wantErr bool
	}{
		{name: "defaults", calc: NewCalculator(5*time.Minute, 6, 0)},
		{name: "zero base", calc: NewCalculator(0, 6, 0), wantErr: true},
		{name: "negative exponent", calc: NewCalculator(time.Minute, -1, 0), wantErr: true},
		{name: "negative max", calc: NewCalculator(time.Minute, 6, -time.Minute), wantErr: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if err := test.calc.Validate(); (err != nil) != test.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, test.wantErr)
			}
		})
	}
}
