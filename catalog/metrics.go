// Copyright 2024 The Brain B2B Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package catalog

import "github.com/prometheus/client_golang/prometheus"

const namespace = "pricelist"

var (
	refreshTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "catalog",
		Name:      "refresh_total",
		Help:      "Completed catalog refresh passes.",
	})
	refreshErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "catalog",
		Name:      "refresh_errors_total",
		Help:      "Sub-load attempts that failed and were retried.",
	}, []string{"sub_load"})
	refreshDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "catalog",
		Name:      "last_refresh_duration_seconds",
		Help:      "Duration of the last completed refresh pass.",
	})
	containerRows = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "catalog",
		Name:      "container_rows",
		Help:      "Rows held per container after the last refresh pass.",
	}, []string{"container"})
)

func init() {
	prometheus.MustRegister(refreshTotal, refreshErrors, refreshDuration, containerRows)
}
