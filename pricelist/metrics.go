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

package pricelist

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "pricelist"
	subsystem = "builder"
)

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "requests_total",
		Help:      "Price-list requests by format and outcome.",
	}, []string{"format", "outcome"})
	artifactHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "artifact_cache_hits_total",
		Help:      "Requests answered from the artifact cache.",
	})
	artifactMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "artifact_cache_misses_total",
		Help:      "Requests that had to generate a fresh artifact.",
	})
	buildDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "build_duration_seconds",
		Help:      "Duration of the last price-list generation.",
	})
)

func init() {
	prometheus.MustRegister(requestsTotal, artifactHits, artifactMisses, buildDuration)
}
