// Package metrics holds the Prometheus collectors for the write engine.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "onboarding"

// Metrics groups the counters exported by the transaction guard and step engine
type Metrics struct {
	TxBegun          prometheus.Counter
	TxCommitted      prometheus.Counter
	TxRolledBack     prometheus.Counter
	CommitFailures   prometheus.Counter
	RollbackFailures prometheus.Counter
	AcquireFailures  *prometheus.CounterVec
	AcquireWait      prometheus.Histogram
	StepOutcomes     *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// A nil registerer leaves the collectors unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TxBegun: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tx",
			Name:      "begun_total",
			Help:      "Transactions opened by the guard.",
		}),
		TxCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tx",
			Name:      "committed_total",
			Help:      "Transactions committed successfully.",
		}),
		TxRolledBack: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tx",
			Name:      "rolled_back_total",
			Help:      "Transactions rolled back on release without a commit.",
		}),
		CommitFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tx",
			Name:      "commit_failures_total",
			Help:      "COMMIT statements that returned an error.",
		}),
		RollbackFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tx",
			Name:      "rollback_failures_total",
			Help:      "Rollbacks that failed during cleanup.",
		}),
		AcquireFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "acquire_failures_total",
			Help:      "Connection acquisitions that failed, by reason.",
		}, []string{"reason"}),
		AcquireWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "acquire_wait_seconds",
			Help:      "Time spent waiting for a pooled connection.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 2.5, 5, 10},
		}),
		StepOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "step",
			Name:      "outcomes_total",
			Help:      "Onboarding step results by step and outcome.",
		}, []string{"step", "outcome"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.TxBegun,
			m.TxCommitted,
			m.TxRolledBack,
			m.CommitFailures,
			m.RollbackFailures,
			m.AcquireFailures,
			m.AcquireWait,
			m.StepOutcomes,
		)
	}
	return m
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Default returns the process-wide collectors registered with prometheus.DefaultRegisterer
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = New(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}
