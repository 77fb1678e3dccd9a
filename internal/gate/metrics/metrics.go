// Package metrics exposes Prometheus instrumentation for the admission
// gate.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the gate's Prometheus collectors. Construct one per
// process; tests pass their own registry to avoid duplicate
// registration panics.
type Metrics struct {
	Decisions         *prometheus.CounterVec
	PassVerifications *prometheus.CounterVec
	SettingsCache     *prometheus.CounterVec
	ASNLookupSeconds  prometheus.Histogram
	RateLimited       prometheus.Counter
}

// New registers the gate collectors with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "synergyhr_gate_decisions_total",
			Help: "Admission gate decisions by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		PassVerifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "synergyhr_gate_pass_verifications_total",
			Help: "Office pass verification attempts by result",
		}, []string{"result"}),
		SettingsCache: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "synergyhr_gate_settings_cache_total",
			Help: "Settings cache lookups by result",
		}, []string{"result"}),
		ASNLookupSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "synergyhr_gate_asn_lookup_seconds",
			Help:    "Latency of external ASN lookups",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "synergyhr_gate_rate_limited_total",
			Help: "Requests rejected by the gate rate limiter",
		}),
	}
}

// ObserveDecision counts one gate decision.
func (m *Metrics) ObserveDecision(endpoint, outcome string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(endpoint, outcome).Inc()
}

// ObservePassVerification counts one pass verification attempt.
func (m *Metrics) ObservePassVerification(result string) {
	if m == nil {
		return
	}
	m.PassVerifications.WithLabelValues(result).Inc()
}

// ObserveCache counts one settings cache lookup (hit, refresh, error).
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.SettingsCache.WithLabelValues(result).Inc()
}

// ObserveASNLookup records the duration of one external ASN lookup.
func (m *Metrics) ObserveASNLookup(d time.Duration) {
	if m == nil {
		return
	}
	m.ASNLookupSeconds.Observe(d.Seconds())
}

// ObserveRateLimited counts one rate-limited request.
func (m *Metrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}
