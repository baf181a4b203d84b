package datastore

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/pcrdb/internal/observability/metrics"
)

const startedAtKey = "pcrdb:started_at"

// registerMetricsCallbacks instruments create, query, update and delete
// statements with operation counters and latency histograms.
func registerMetricsCallbacks(db *gorm.DB, m *metrics.DatastoreMetrics) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(startedAtKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			table := tx.Statement.Table
			if table == "" {
				table = "unknown"
			}
			status := metrics.StatusSuccess
			if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
				status = metrics.StatusError
			}
			m.RecordDbOperation(operation, table, status)
			if v, ok := tx.InstanceGet(startedAtKey); ok {
				if started, ok := v.(time.Time); ok {
					m.RecordDbOperationDuration(operation, table, time.Since(started).Seconds())
				}
			}
		}
	}

	cb := db.Callback()
	registrations := []error{
		cb.Create().Before("gorm:create").Register("pcrdb:before_create", before),
		cb.Create().After("gorm:create").Register("pcrdb:after_create", after("create")),
		cb.Query().Before("gorm:query").Register("pcrdb:before_query", before),
		cb.Query().After("gorm:query").Register("pcrdb:after_query", after("query")),
		cb.Update().Before("gorm:update").Register("pcrdb:before_update", before),
		cb.Update().After("gorm:update").Register("pcrdb:after_update", after("update")),
		cb.Delete().Before("gorm:delete").Register("pcrdb:before_delete", before),
		cb.Delete().After("gorm:delete").Register("pcrdb:after_delete", after("delete")),
	}
	return errors.Join(registrations...)
}
