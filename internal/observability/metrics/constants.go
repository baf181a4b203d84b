// Package metrics provides Prometheus collectors for the inventory and its datastore.
package metrics

// Status label values
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// Histogram bucket parameters
const (
	// BucketStart1ms is the first bucket boundary (1ms) for exponential buckets.
	BucketStart1ms = 0.001
	// BucketFactor2 doubles each successive bucket.
	BucketFactor2 = 2.0
	// BucketCount15 covers 1ms to ~16s.
	BucketCount15 = 15
)
