package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for consent operations.
type Metrics struct {
	ConsentsGranted *prometheus.CounterVec
	DuplicateGrants *prometheus.CounterVec
	ConsentChecks   *prometheus.CounterVec
	GrantLatency    prometheus.Histogram
}

// New registers and returns consent metrics collectors.
func New() *Metrics {
	return &Metrics{
		ConsentsGranted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aegis_consents_granted_total",
			Help: "Total number of consents granted, labeled by consent type",
		}, []string{"consent_type"}),
		DuplicateGrants: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aegis_consent_duplicate_grants_total",
			Help: "Total number of idempotent re-grants returning an existing record, labeled by consent type",
		}, []string{"consent_type"}),
		ConsentChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aegis_consent_checks_total",
			Help: "Total number of consent existence checks, labeled by consent type and outcome",
		}, []string{"consent_type", "outcome"}),
		GrantLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "aegis_consent_grant_latency_seconds",
			Help:    "Latency of consent grant operations in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncrementConsentsGranted(consentType string) {
	m.ConsentsGranted.WithLabelValues(consentType).Inc()
}

func (m *Metrics) IncrementDuplicateGrants(consentType string) {
	m.DuplicateGrants.WithLabelValues(consentType).Inc()
}

func (m *Metrics) IncrementConsentChecks(consentType string, granted bool) {
	outcome := "denied"
	if granted {
		outcome = "granted"
	}
	m.ConsentChecks.WithLabelValues(consentType, outcome).Inc()
}

func (m *Metrics) ObserveGrantLatency(seconds float64) {
	m.GrantLatency.Observe(seconds)
}
