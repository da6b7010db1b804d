// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package command

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Status constants for command dispatch metrics.
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusNotFound = "not_found"
	StatusRejected = "rejected"
)

// Dispatches is the counter for command dispatches.
// Use RegisterMetrics to register this with a Prometheus registry.
var Dispatches = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ghostloop_command_dispatches_total",
		Help: "Total number of command dispatches",
	},
	[]string{"command", "status"},
)

// DispatchDuration is the histogram for command dispatch duration.
// Use RegisterMetrics to register this with a Prometheus registry.
var DispatchDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "ghostloop_command_dispatch_duration_seconds",
		Help:    "Command dispatch duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"command"},
)

// RegisterMetrics registers command package metrics with the given Prometheus registry.
// This must be called at startup to make metrics available on /metrics.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Dispatches)
	reg.MustRegister(DispatchDuration)
}

// observeDispatch records metrics for a single dispatch.
func observeDispatch(name, status string, start time.Time) {
	Dispatches.WithLabelValues(name, status).Inc()
	DispatchDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}
