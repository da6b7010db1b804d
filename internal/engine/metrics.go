// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// tickDuration is the histogram for full-world tick duration. At 20 ticks
// per second a tick has a 50ms budget; the buckets bracket it.
var tickDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "ghostloop_tick_duration_seconds",
		Help:    "Duration of one full simulation tick in seconds",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
	},
)

// cyclesCompleted counts completed cycles per arena.
var cyclesCompleted = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ghostloop_cycles_completed_total",
		Help: "Total number of completed arena cycles",
	},
	[]string{"arena"},
)

// activeGhosts tracks how many ghosts are installed per arena.
var activeGhosts = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "ghostloop_active_ghosts",
		Help: "Number of ghosts currently installed per arena",
	},
	[]string{"arena"},
)

// RegisterMetrics registers engine metrics with the given Prometheus
// registry. This must be called at startup to make metrics available on
// /metrics. Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(tickDuration)
	reg.MustRegister(cyclesCompleted)
	reg.MustRegister(activeGhosts)
}
