// Package datastore opens the inventory database, migrates its schema and
// instruments every statement with datastore metrics.
package datastore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/pcrdb/internal/conf"
	"github.com/tphakala/pcrdb/internal/errors"
	"github.com/tphakala/pcrdb/internal/logger"
	"github.com/tphakala/pcrdb/internal/observability/metrics"
)

// DefaultSlowQueryThreshold is used when the configuration leaves the threshold unset.
const DefaultSlowQueryThreshold = 1 * time.Second

// Store owns the GORM connection of the inventory database.
type Store struct {
	DB       *gorm.DB
	settings *conf.DatabaseSettings
	metrics  *metrics.DatastoreMetrics
	log      logger.Logger
}

// Option customizes a Store
type Option func(*Store)

// WithMetrics enables datastore metrics collection
func WithMetrics(m *metrics.DatastoreMetrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithLogger overrides the module logger
func WithLogger(l logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New creates a Store for the given settings. Call Open before use.
func New(settings *conf.DatabaseSettings, opts ...Option) *Store {
	s := &Store{settings: settings}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = GetLogger()
	}
	return s
}

// Open connects to the configured engine and migrates the schema.
func (s *Store) Open(ctx context.Context) error {
	dialector, location, err := s.dialector()
	if err != nil {
		return err
	}

	threshold := s.settings.SlowQueryThreshold
	if threshold <= 0 {
		threshold = DefaultSlowQueryThreshold
	}
	gormLogger := logger.NewGormLoggerAdapter(s.log, threshold)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("engine", s.settings.Engine).
			Context("operation", "open").
			Build()
	}

	if s.metrics != nil {
		if err := registerMetricsCallbacks(db, s.metrics); err != nil {
			return err
		}
	}

	s.DB = db
	s.log.Info("database opened",
		logger.String("engine", s.settings.Engine),
		logger.String("location", location))

	return performAutoMigration(db.WithContext(ctx), s.settings.Engine, s.log)
}

func (s *Store) dialector() (gorm.Dialector, string, error) {
	switch s.settings.Engine {
	case conf.EngineSQLite, "":
		return sqliteDialector(&s.settings.SQLite)
	case conf.EngineMySQL:
		return mysqlDialector(&s.settings.MySQL)
	case conf.EnginePostgres:
		return postgresDialector(&s.settings.Postgres)
	default:
		return nil, "", errors.Newf("unsupported database engine %q", s.settings.Engine).
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

// Conn returns the connection for reads outside a transaction.
func (s *Store) Conn() *gorm.DB {
	return s.DB
}

// Transaction runs fn in a single database transaction and records its outcome.
func (s *Store) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := s.DB.WithContext(ctx).Transaction(fn)
	if err != nil {
		s.metrics.RecordTransaction(metrics.StatusError)
		return err
	}
	s.metrics.RecordTransaction(metrics.StatusSuccess)
	return nil
}

// UpdateConnectionStats publishes the connection pool gauges.
func (s *Store) UpdateConnectionStats() {
	if s.DB == nil || s.metrics == nil {
		return
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return
	}
	stats := sqlDB.Stats()
	s.metrics.UpdateConnectionStats(stats.OpenConnections, stats.InUse)
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	if s.DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	sqlDB, err := s.DB.DB()
	if err != nil {
		s.log.Error("failed to retrieve generic DB object", logger.Error(err))
		return err
	}

	if err := sqlDB.Close(); err != nil {
		s.log.Error("failed to close database", logger.Error(err))
		return err
	}
	return nil
}
