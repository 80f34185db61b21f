package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the audit trail.
type Metrics struct {
	EntriesRecorded *prometheus.CounterVec
	WriteFailures   prometheus.Counter
	ObserveLatency  prometheus.Histogram
}

// New registers and returns audit metrics collectors.
func New() *Metrics {
	return &Metrics{
		EntriesRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aegis_audit_entries_recorded_total",
			Help: "Total number of audit entries recorded, labeled by action and entity",
		}, []string{"action", "entity"}),
		WriteFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aegis_audit_write_failures_total",
			Help: "Total number of audit entries dropped due to persistence failure",
		}),
		ObserveLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "aegis_audit_observe_latency_seconds",
			Help:    "Overhead of the audit observation interceptor in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
	}
}

func (m *Metrics) IncrementEntriesRecorded(action, entity string) {
	m.EntriesRecorded.WithLabelValues(action, entity).Inc()
}

func (m *Metrics) IncrementWriteFailures() {
	m.WriteFailures.Inc()
}

func (m *Metrics) ObserveObserveLatency(seconds float64) {
	m.ObserveLatency.Observe(seconds)
}
