package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the transfer core
type Metrics struct {
	transfers        *prometheus.CounterVec
	transferDuration prometheus.Histogram
	reconcileRuns    *prometheus.CounterVec
	mismatches       prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bank",
			Name:      "transfers_total",
			Help:      "Transfers processed, by result.",
		}, []string{"result"}),
		transferDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bank",
			Name:      "transfer_duration_seconds",
			Help:      "Time spent executing a transfer.",
			Buckets:   prometheus.DefBuckets,
		}),
		reconcileRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bank",
			Name:      "reconcile_runs_total",
			Help:      "Ledger reconciliation runs, by outcome.",
		}, []string{"outcome"}),
		mismatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bank",
			Name:      "reconcile_mismatches",
			Help:      "Accounts whose balance disagreed with the ledger in the last run.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.transfers, m.transferDuration, m.reconcileRuns, m.mismatches)
	}
	return m
}

// ObserveTransfer records one transfer. result is "success" or an error kind.
func (m *Metrics) ObserveTransfer(result string, d time.Duration) {
	m.transfers.WithLabelValues(result).Inc()
	m.transferDuration.Observe(d.Seconds())
}

// ObserveReconcile records a reconciliation run
func (m *Metrics) ObserveReconcile(err error, mismatches int) {
	if err != nil {
		m.reconcileRuns.WithLabelValues("error").Inc()
		return
	}
	m.reconcileRuns.WithLabelValues("ok").Inc()
	m.mismatches.Set(float64(mismatches))
}
