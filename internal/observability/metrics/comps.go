// Package metrics provides comparable-discovery metrics for observability
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CompsMetrics contains Prometheus metrics for the comparable pipeline
type CompsMetrics struct {
	registry *prometheus.Registry

	searchesTotal   *prometheus.CounterVec
	candidatesTotal *prometheus.CounterVec
	enrichmentTotal *prometheus.CounterVec
	searchDuration  prometheus.Histogram
	resultsReturned prometheus.Histogram
}

// NewCompsMetrics creates and registers new comparable pipeline metrics
func NewCompsMetrics(registry *prometheus.Registry) (*CompsMetrics, error) {
	m := &CompsMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// initMetrics initializes all Prometheus metrics
func (m *CompsMetrics) initMetrics() error {
	m.searchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comps_searches_total",
			Help: "Total number of comparable searches",
		},
		[]string{"status"}, // status: success, error
	)

	m.candidatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comps_candidates_total",
			Help: "Candidate sales counted at each pipeline stage",
		},
		[]string{"stage"}, // stage: fetched, filtered, enriched
	)

	m.enrichmentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comps_enrichment_total",
			Help: "Per-candidate enrichment outcomes",
		},
		[]string{"status"}, // status: success, degraded
	)

	m.searchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "comps_search_duration_seconds",
			Help: "End-to-end time for a comparable search",
			// A search issues several portal queries, so this sits above
			// single-query latency
			Buckets: prometheus.ExponentialBuckets(BucketStart100ms, BucketFactor2, BucketCount10),
		},
	)

	m.resultsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "comps_results_returned",
			Help:    "Number of comparables returned per search",
			Buckets: prometheus.LinearBuckets(5, 5, 10),
		},
	)

	return nil
}

// Describe implements the Collector interface
func (m *CompsMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.searchesTotal.Describe(ch)
	m.candidatesTotal.Describe(ch)
	m.enrichmentTotal.Describe(ch)
	m.searchDuration.Describe(ch)
	m.resultsReturned.Describe(ch)
}

// Collect implements the Collector interface
func (m *CompsMetrics) Collect(ch chan<- prometheus.Metric) {
	m.searchesTotal.Collect(ch)
	m.candidatesTotal.Collect(ch)
	m.enrichmentTotal.Collect(ch)
	m.searchDuration.Collect(ch)
	m.resultsReturned.Collect(ch)
}

// RecordSearch records a comparable search by outcome
func (m *CompsMetrics) RecordSearch(status string) {
	m.searchesTotal.WithLabelValues(status).Inc()
}

// RecordCandidates records candidate counts at a pipeline stage
func (m *CompsMetrics) RecordCandidates(stage string, count int) {
	m.candidatesTotal.WithLabelValues(stage).Add(float64(count))
}

// RecordEnrichment records a per-candidate enrichment outcome
func (m *CompsMetrics) RecordEnrichment(status string) {
	m.enrichmentTotal.WithLabelValues(status).Inc()
}

// RecordSearchDuration records the end-to-end duration of a search
func (m *CompsMetrics) RecordSearchDuration(seconds float64) {
	m.searchDuration.Observe(seconds)
}

// RecordResultsReturned records how many comparables a search returned
func (m *CompsMetrics) RecordResultsReturned(count int) {
	m.resultsReturned.Observe(float64(count))
}
