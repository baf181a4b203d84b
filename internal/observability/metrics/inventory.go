package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// InventoryMetrics tracks inventory operations: lifecycle transitions,
// hierarchy edits, bulk runs, imports and exports.
type InventoryMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bulkAffectedTotal *prometheus.CounterVec
	importRowsTotal   *prometheus.CounterVec
	cacheLookupsTotal *prometheus.CounterVec

	collectors []prometheus.Collector
}

// NewInventoryMetrics creates and registers inventory metrics
func NewInventoryMetrics(registry prometheus.Registerer) (*InventoryMetrics, error) {
	m := &InventoryMetrics{}

	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pcrdb_inventory_operations_total",
			Help: "Total number of inventory operations by outcome",
		},
		[]string{"operation", "status"},
	)
	m.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pcrdb_inventory_operation_duration_seconds",
			Help:    "Time taken by inventory operations",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount15),
		},
		[]string{"operation"},
	)
	m.bulkAffectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pcrdb_inventory_bulk_affected_total",
			Help: "Samples transitioned by bulk operations",
		},
		[]string{"operation"},
	)
	m.importRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pcrdb_inventory_import_rows_total",
			Help: "Spreadsheet import rows by outcome",
		},
		[]string{"status"},
	)
	m.cacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pcrdb_inventory_cache_lookups_total",
			Help: "Read cache lookups by cache and result",
		},
		[]string{"cache", "result"}, // result: hit, miss
	)

	m.collectors = []prometheus.Collector{
		m.operationsTotal,
		m.operationDuration,
		m.bulkAffectedTotal,
		m.importRowsTotal,
		m.cacheLookupsTotal,
	}

	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Describe implements prometheus.Collector
func (m *InventoryMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector
func (m *InventoryMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors {
		c.Collect(ch)
	}
}

// RecordOperation records the outcome and duration of an operation
func (m *InventoryMetrics) RecordOperation(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// RecordBulk records how many samples a bulk run transitioned and how many it skipped
func (m *InventoryMetrics) RecordBulk(operation string, affected, skipped int) {
	if m == nil {
		return
	}
	m.bulkAffectedTotal.WithLabelValues(operation).Add(float64(affected))
	if skipped > 0 {
		m.operationsTotal.WithLabelValues(operation, StatusSkipped).Add(float64(skipped))
	}
}

// RecordImport records imported and rejected row counts
func (m *InventoryMetrics) RecordImport(imported, rejected int) {
	if m == nil {
		return
	}
	m.importRowsTotal.WithLabelValues(StatusSuccess).Add(float64(imported))
	m.importRowsTotal.WithLabelValues(StatusError).Add(float64(rejected))
}

// RecordCacheLookup records a cache hit or miss
func (m *InventoryMetrics) RecordCacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookupsTotal.WithLabelValues(cache, result).Inc()
}
