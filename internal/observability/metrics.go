// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Provider call outcomes used as the "outcome" label.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
	OutcomePanic   = "panic"
)

// Enrichment lookup outcomes.
const (
	EnrichHit     = "hit"
	EnrichMiss    = "miss"
	EnrichFailure = "failure"
)

// Metrics holds the Prometheus collectors for the aggregator. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	// Searches counts aggregated searches by result ("ok" or "invalid").
	Searches *prometheus.CounterVec

	// SearchDuration observes end-to-end search latency in seconds.
	SearchDuration prometheus.Histogram

	// ProviderCalls counts provider calls by provider and outcome.
	ProviderCalls *prometheus.CounterVec

	// ProviderDuration observes provider call latency in seconds.
	ProviderDuration *prometheus.HistogramVec

	// ProviderRecords counts raw records returned, by provider.
	ProviderRecords *prometheus.CounterVec

	// Duplicates counts records dropped by title deduplication.
	Duplicates prometheus.Counter

	// EnrichmentLookups counts enrichment lookups by outcome.
	EnrichmentLookups *prometheus.CounterVec
}

// NewMetrics creates the collectors under namespace and registers them
// with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Searches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total number of aggregated searches",
		}, []string{"result"}),
		SearchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of aggregated searches",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}),
		ProviderCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "Provider calls by outcome",
		}, []string{"provider", "outcome"}),
		ProviderDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_call_duration_seconds",
			Help:      "Duration of provider calls",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		}, []string{"provider"}),
		ProviderRecords: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_records_total",
			Help:      "Raw records returned by providers",
		}, []string{"provider"}),
		Duplicates: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_dropped_total",
			Help:      "Records dropped as duplicate titles",
		}),
		EnrichmentLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_lookups_total",
			Help:      "Enrichment lookups by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveSearch records one finished search.
func (m *Metrics) ObserveSearch(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.Searches.WithLabelValues(result).Inc()
	m.SearchDuration.Observe(d.Seconds())
}

// ObserveProvider records one provider call.
func (m *Metrics) ObserveProvider(provider, outcome string, d time.Duration, records int) {
	if m == nil {
		return
	}
	m.ProviderCalls.WithLabelValues(provider, outcome).Inc()
	m.ProviderDuration.WithLabelValues(provider).Observe(d.Seconds())
	m.ProviderRecords.WithLabelValues(provider).Add(float64(records))
}

// AddDuplicates records n records dropped by deduplication.
func (m *Metrics) AddDuplicates(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Duplicates.Add(float64(n))
}

// ObserveEnrichment records one enrichment lookup.
func (m *Metrics) ObserveEnrichment(outcome string) {
	if m == nil {
		return
	}
	m.EnrichmentLookups.WithLabelValues(outcome).Inc()
}
