// Package observability provides Prometheus metrics for the ordering engine.
package observability

import "github.com/prometheus/client_golang/prometheus"

// Outcome labels for MovesTotal.
const (
	OutcomeApplied            = "applied"
	OutcomeNoop               = "noop"
	OutcomePersistenceError   = "persistence_error"
	OutcomeInvariantViolation = "invariant_violation"
	OutcomeError              = "error"
)

// MoveBuckets covers single-row moves on an embedded database (sub-millisecond)
// up to large group shifts against a remote store.
var MoveBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

var (
	// MovesTotal counts engine operations by name and outcome.
	MovesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "treeorder_moves_total",
			Help: "Ordering operations",
		},
		[]string{"op", "outcome"},
	)

	// PositionWritesTotal counts single-record writes issued to the store.
	PositionWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "treeorder_position_writes_total",
			Help: "Records written by ordering operations",
		},
		[]string{"op"},
	)

	// MoveDuration records operation latency in seconds, lock wait included.
	MoveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "treeorder_move_duration_seconds",
			Help:    "Ordering operation duration",
			Buckets: MoveBuckets,
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(
		MovesTotal,
		PositionWritesTotal,
		MoveDuration,
	)
}
