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

package loader

import (
	"errors"
	"fmt"
	"strings"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/validation"

	configapi "github.com/jordigilh/kubernaut-sub014/api/config/v1alpha1"
)

// validateConfig checks a defaulted configuration.
func validateConfig(cfg *configapi.WorkflowExecutionControllerConfig) error {
	if err := validateExecution(cfg.Execution); err != nil {
		return fmt.Errorf("execution validation failed: %w", err)
	}
	if err := validateCooldown(cfg.Cooldown); err != nil {
		return fmt.Errorf("cooldown validation failed: %w", err)
	}
	if err := validateReconciler(cfg.Reconciler); err != nil {
		return fmt.Errorf("reconciler validation failed: %w", err)
	}
	return nil
}

func validateExecution(es *configapi.ExecutionSettings) error {
	if es == nil {
		return errors.New("execution settings are missing")
	}
	if errs := validation.IsDNS1123Label(es.Namespace); len(errs) > 0 {
		return fmt.Errorf("namespace '%s' is invalid: %s", es.Namespace, strings.Join(errs, ", "))
	}
	if errs := validation.IsDNS1123Subdomain(es.DefaultServiceAccount); len(errs) > 0 {
		return fmt.Errorf("defaultServiceAccount '%s' is invalid: %s", es.DefaultServiceAccount, strings.Join(errs, ", "))
	}
	return nil
}

func validateCooldown(cs *configapi.CooldownSettings) error {
	if cs == nil {
		return errors.New("cooldown settings are missing")
	}
	if err := positive("period", cs.Period); err != nil {
		return err
	}
	if cs.MaxBackoffExponent != nil && *cs.MaxBackoffExponent < 0 {
		return fmt.Errorf("maxBackoffExponent must not be negative, got %d", *cs.MaxBackoffExponent)
	}
	if cs.MaxPeriod != nil {
		if cs.MaxPeriod.Duration < 0 {
			return fmt.Errorf("maxPeriod must not be negative, got %v", cs.MaxPeriod.Duration)
		}
		if cs.MaxPeriod.Duration > 0 && cs.Period != nil && cs.MaxPeriod.Duration < cs.Period.Duration {
			return fmt.Errorf("maxPeriod %v is shorter than period %v", cs.MaxPeriod.Duration, cs.Period.Duration)
		}
	}
	return positive("stateRetention", cs.StateRetention)
}

func validateReconciler(rs *configapi.ReconcilerSettings) error {
	if rs == nil {
		return nil
	}
	if rs.MaxConcurrentReconciles != nil && *rs.MaxConcurrentReconciles < 1 {
		return fmt.Errorf("maxConcurrentReconciles must be at least 1, got %d", *rs.MaxConcurrentReconciles)
	}
	for name, d := range map[string]*metav1.Duration{
		"apiTimeout":         rs.APITimeout,
		"statusPollInterval": rs.StatusPollInterval,
		"retryBaseDelay":     rs.RetryBaseDelay,
		"retryMaxDelay":      rs.RetryMaxDelay,
	} {
		if d == nil {
			continue
		}
		if err := positive(name, d); err != nil {
			return err
		}
	}
	if rs.RetryBaseDelay != nil && rs.RetryMaxDelay != nil && rs.RetryBaseDelay.Duration > rs.RetryMaxDelay.Duration {
		return fmt.Errorf("retryBaseDelay %v is longer than retryMaxDelay %v", rs.RetryBaseDelay.Duration, rs.RetryMaxDelay.Duration)
	}
	return nil
}

func positive(name string, d *metav1.Duration) error {
	if d == nil || d.Duration <= time.Duration(0) {
		return fmt.Errorf("%s must be positive", name)
	}
	return nil
}
