// Package metrics provides registry client metrics for observability
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RegistryMetrics contains Prometheus metrics for open-data portal queries
type RegistryMetrics struct {
	registry *prometheus.Registry

	// Portal query metrics
	queriesTotal      *prometheus.CounterVec
	queryErrorsTotal  *prometheus.CounterVec
	queryDuration     *prometheus.HistogramVec
	rowsFetchedTotal  *prometheus.CounterVec
	decodeErrorsTotal *prometheus.CounterVec

	// Response cache metrics
	cacheTotal *prometheus.CounterVec

	// Rate limiter metrics
	rateLimitWait prometheus.Histogram
}

// NewRegistryMetrics creates and registers new registry client metrics
func NewRegistryMetrics(registry *prometheus.Registry) (*RegistryMetrics, error) {
	m := &RegistryMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// initMetrics initializes all Prometheus metrics
func (m *RegistryMetrics) initMetrics() error {
	m.queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_queries_total",
			Help: "Total number of queries issued to the open-data portal",
		},
		[]string{"dataset", "status"}, // status: success, error
	)

	m.queryErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_query_errors_total",
			Help: "Total number of portal query errors",
		},
		[]string{"dataset", "error_type"},
	)

	m.queryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "registry_query_duration_seconds",
			Help: "Time taken for portal queries",
			// Portal responses typically land between 100ms and a few
			// seconds, timeouts at 30s+
			Buckets: prometheus.ExponentialBuckets(BucketStart100ms, BucketFactor2, BucketCount10),
		},
		[]string{"dataset"},
	)

	m.rowsFetchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_rows_fetched_total",
			Help: "Total number of rows returned by portal queries",
		},
		[]string{"dataset"},
	)

	m.decodeErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_decode_errors_total",
			Help: "Total number of response rows that failed to decode",
		},
		[]string{"dataset"},
	)

	m.cacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_cache_total",
			Help: "Response cache lookups by result",
		},
		[]string{"dataset", "result"}, // result: hit, miss
	)

	m.rateLimitWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "registry_rate_limit_wait_seconds",
			Help: "Time spent waiting on the portal rate limiter",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount10),
		},
	)

	return nil
}

// Describe implements the Collector interface
func (m *RegistryMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.queriesTotal.Describe(ch)
	m.queryErrorsTotal.Describe(ch)
	m.queryDuration.Describe(ch)
	m.rowsFetchedTotal.Describe(ch)
	m.decodeErrorsTotal.Describe(ch)
	m.cacheTotal.Describe(ch)
	m.rateLimitWait.Describe(ch)
}

// Collect implements the Collector interface
func (m *RegistryMetrics) Collect(ch chan<- prometheus.Metric) {
	m.queriesTotal.Collect(ch)
	m.queryErrorsTotal.Collect(ch)
	m.queryDuration.Collect(ch)
	m.rowsFetchedTotal.Collect(ch)
	m.decodeErrorsTotal.Collect(ch)
	m.cacheTotal.Collect(ch)
	m.rateLimitWait.Collect(ch)
}

// RecordQuery records a portal query by outcome
func (m *RegistryMetrics) RecordQuery(dataset, status string) {
	m.queriesTotal.WithLabelValues(dataset, status).Inc()
}

// RecordQueryError records a portal query error
func (m *RegistryMetrics) RecordQueryError(dataset, errorType string) {
	m.queryErrorsTotal.WithLabelValues(dataset, errorType).Inc()
}

// RecordQueryDuration records the duration of a portal query
func (m *RegistryMetrics) RecordQueryDuration(dataset string, seconds float64) {
	m.queryDuration.WithLabelValues(dataset).Observe(seconds)
}

// RecordRowsFetched records the number of rows a query returned
func (m *RegistryMetrics) RecordRowsFetched(dataset string, rows int) {
	m.rowsFetchedTotal.WithLabelValues(dataset).Add(float64(rows))
}

// RecordDecodeError records a row that failed to decode
func (m *RegistryMetrics) RecordDecodeError(dataset string) {
	m.decodeErrorsTotal.WithLabelValues(dataset).Inc()
}

// RecordCacheResult records a response cache lookup
func (m *RegistryMetrics) RecordCacheResult(dataset, result string) {
	m.cacheTotal.WithLabelValues(dataset, result).Inc()
}

// RecordRateLimitWait records time spent waiting on the rate limiter
func (m *RegistryMetrics) RecordRateLimitWait(seconds float64) {
	m.rateLimitWait.Observe(seconds)
}
