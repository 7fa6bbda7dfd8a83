// Package metrics provides constants used across metric definitions.
package metrics

import "time"

// Label value constants used for metric labels.
const (
	// LabelSuccess marks an operation that completed normally.
	LabelSuccess = "success"
	// LabelError marks a failed operation.
	LabelError = "error"
	// LabelDegraded marks an operation that completed with partial data.
	LabelDegraded = "degraded"
	// LabelHit marks a cache hit.
	LabelHit = "hit"
	// LabelMiss marks a cache miss.
	LabelMiss = "miss"
)

// Histogram bucket configuration constants.
const (
	// BucketStart1ms is the starting bucket for 1ms histograms (1ms to ~1s range).
	BucketStart1ms = 0.001
	// BucketStart100ms is the starting bucket for 100ms histograms (100ms to ~100s range).
	BucketStart100ms = 0.1
	// BucketFactor2 is the common exponential growth factor for histogram buckets.
	BucketFactor2 = 2
	// BucketCount10 defines 10 exponential buckets.
	BucketCount10 = 10
)

// ShutdownTimeout is the timeout for graceful shutdown of the metrics endpoint.
const ShutdownTimeout = 5 * time.Second
