// Package telemetry wires Prometheus metrics, OpenTelemetry tracing, and
// Sentry error reporting around the simulation loop, grounded on
// reddit-cluster-map/backend/internal/{metrics,tracing,errorreporting}.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StepDuration records wall-clock time per simulation step, by phase.
	StepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nbody_step_duration_seconds",
			Help:    "Duration of one simulation step, by phase.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"phase"}, // tree_build, local_force, ring_exchange, integrate, gather
	)

	// RingRoundsTotal counts completed ring-exchange rounds.
	RingRoundsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nbody_ring_rounds_total",
			Help: "Total number of completed ForceExchange ring rounds.",
		},
	)

	// BodiesSkippedTotal counts owned bodies excluded from the local tree
	// in a step because they drifted outside the root quadrant.
	BodiesSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nbody_bodies_skipped_total",
			Help: "Total owned bodies excluded from the local tree for drifting outside the root quadrant.",
		},
	)

	// MessagingErrorsTotal counts fatal transport failures.
	MessagingErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nbody_messaging_errors_total",
			Help: "Total fatal transport failures observed by this process.",
		},
	)
)
