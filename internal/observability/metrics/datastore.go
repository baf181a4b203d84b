package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DatastoreMetrics contains Prometheus metrics for datastore operations
type DatastoreMetrics struct {
	dbOperationsTotal   *prometheus.CounterVec
	dbOperationDuration *prometheus.HistogramVec
	dbTransactionsTotal *prometheus.CounterVec
	dbConnectionsOpen   prometheus.Gauge
	dbConnectionsInUse  prometheus.Gauge

	collectors []prometheus.Collector
}

// NewDatastoreMetrics creates and registers new datastore metrics
func NewDatastoreMetrics(registry prometheus.Registerer) (*DatastoreMetrics, error) {
	m := &DatastoreMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *DatastoreMetrics) initMetrics() {
	m.dbOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pcrdb_datastore_operations_total",
			Help: "Total number of database operations",
		},
		[]string{"operation", "table", "status"}, // operation: create, query, update, delete
	)

	m.dbOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pcrdb_datastore_operation_duration_seconds",
			Help:    "Time taken for database operations",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount15),
		},
		[]string{"operation", "table"},
	)

	m.dbTransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pcrdb_datastore_transactions_total",
			Help: "Total number of database transactions",
		},
		[]string{"status"}, // committed, rollback
	)

	m.dbConnectionsOpen = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pcrdb_datastore_connections_open",
		Help: "Open database connections",
	})

	m.dbConnectionsInUse = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pcrdb_datastore_connections_in_use",
		Help: "Database connections currently in use",
	})

	m.collectors = []prometheus.Collector{
		m.dbOperationsTotal,
		m.dbOperationDuration,
		m.dbTransactionsTotal,
		m.dbConnectionsOpen,
		m.dbConnectionsInUse,
	}
}

// Describe implements prometheus.Collector
func (m *DatastoreMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector
func (m *DatastoreMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors {
		c.Collect(ch)
	}
}

// RecordDbOperation counts a database operation on table
func (m *DatastoreMetrics) RecordDbOperation(operation, table, status string) {
	if m == nil {
		return
	}
	m.dbOperationsTotal.WithLabelValues(operation, table, status).Inc()
}

// RecordDbOperationDuration records the duration of a database operation in seconds
func (m *DatastoreMetrics) RecordDbOperationDuration(operation, table string, seconds float64) {
	if m == nil {
		return
	}
	m.dbOperationDuration.WithLabelValues(operation, table).Observe(seconds)
}

// RecordTransaction counts a finished transaction
func (m *DatastoreMetrics) RecordTransaction(status string) {
	if m == nil {
		return
	}
	m.dbTransactionsTotal.WithLabelValues(status).Inc()
}

// UpdateConnectionStats mirrors sql.DBStats connection counts
func (m *DatastoreMetrics) UpdateConnectionStats(open, inUse int) {
	if m == nil {
		return
	}
	m.dbConnectionsOpen.Set(float64(open))
	m.dbConnectionsInUse.Set(float64(inUse))
}
