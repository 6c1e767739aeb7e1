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

package collectors

import (
	"github.com/prometheus/client_golang/prometheus"
	compbasemetrics "k8s.io/component-base/metrics"
	"k8s.io/utils/clock"

	"github.com/jordigilh/kubernaut-sub014/pkg/wfe/datastore"
	metricsutil "github.com/jordigilh/kubernaut-sub014/pkg/wfe/util/metrics"
)

var (
	descConsecutiveFailures = prometheus.NewDesc(
		"wfe_consecutive_failures",
		metricsutil.HelpMsgWithStability("The number of consecutive execution failures of each target resource.", compbasemetrics.ALPHA),
		[]string{
			"target_fingerprint",
		}, nil,
	)

	descCooldownRemaining = prometheus.NewDesc(
		"wfe_cooldown_remaining_seconds",
		metricsutil.HelpMsgWithStability("The time left until each target resource may be remediated again.", compbasemetrics.ALPHA),
		[]string{
			"target_fingerprint",
		}, nil,
	)
)

type backoffMetricsCollector struct {
	ds    datastore.Datastore
	clock clock.PassiveClock
}

// Check if backoffMetricsCollector implements necessary interface
var _ prometheus.Collector = &backoffMetricsCollector{}

// NewBackoffMetricsCollector implements the prometheus.Collector interface and
// exposes the per target backoff state.
func NewBackoffMetricsCollector(ds datastore.Datastore, clk clock.PassiveClock) prometheus.Collector {
	return &backoffMetricsCollector{
		ds:    ds,
		clock: clk,
	}
}

// Describe implements the prometheus.Collector interface.
func (c *backoffMetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- descConsecutiveFailures
	ch <- descCooldownRemaining
}

// Collect implements the prometheus.Collector interface.
func (c *backoffMetricsCollector) Collect(ch chan<- prometheus.Metric) {
	now := c.clock.Now()
	for _, state := range c.ds.BackoffGetAll() {
		ch <- prometheus.MustNewConstMetric(
			descConsecutiveFailures,
			prometheus.GaugeValue,
			float64(state.ConsecutiveFailures),
			state.Fingerprint,
		)

		remaining := state.NextAllowedExecution.Sub(now).Seconds()
		if state.NextAllowedExecution.IsZero() || remaining < 0 {
			remaining = 0
		}
		ch <- prometheus.MustNewConstMetric(
			descCooldownRemaining,
			prometheus.GaugeValue,
			remaining,
			state.Fingerprint,
		)
	}
}
