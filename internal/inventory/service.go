// Package inventory implements the sample inventory state model: the storage
// hierarchy, the sample lifecycle, the usage ledger and the bulk, import,
// export, dashboard and overdue operations built on them.
//
// Every mutation of one sample runs in a single database transaction, so a
// sample's flags, its ledger entry and its volume commit together or not at all.
package inventory

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/tphakala/pcrdb/internal/conf"
	"github.com/tphakala/pcrdb/internal/datastore/entities"
	"github.com/tphakala/pcrdb/internal/datastore/repository"
	"github.com/tphakala/pcrdb/internal/logger"
	"github.com/tphakala/pcrdb/internal/observability/metrics"
)

// Datastore is the persistence the service runs on.
type Datastore interface {
	Conn() *gorm.DB
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Actor identifies the user performing an operation. Authentication happens
// upstream; the service only records who acted.
type Actor struct {
	Username string
	Email    string
}

// Service exposes the inventory operations.
type Service struct {
	db             Datastore
	settings       conf.InventorySettings
	log            logger.Logger
	metrics        *metrics.InventoryMetrics
	publishMetrics *metrics.NotificationMetrics
	publishers     []Publisher
	now            func() time.Time

	cache      *cache.Cache
	group      singleflight.Group
	generation atomic.Uint64 // bumped by every invalidate
	ttl        conf.CacheSettings
}

// Option customizes a Service
type Option func(*Service)

// WithLogger overrides the module logger
func WithLogger(l logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithMetrics enables operation metrics
func WithMetrics(inv *metrics.InventoryMetrics, pub *metrics.NotificationMetrics) Option {
	return func(s *Service) {
		s.metrics = inv
		s.publishMetrics = pub
	}
}

// WithPublisher registers a lifecycle event publisher
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publishers = append(s.publishers, p) }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCache sets the tree and dashboard cache lifetimes. Zero disables a cache.
func WithCache(ttl conf.CacheSettings) Option {
	return func(s *Service) { s.ttl = ttl }
}

// NewService creates the inventory service.
func NewService(db Datastore, settings conf.InventorySettings, opts ...Option) *Service {
	s := &Service{
		db:       db,
		settings: settings,
		now:      time.Now,
		cache:    cache.New(cache.NoExpiration, 0), // no janitor; Get skips expired entries
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Global().Module("inventory")
	}
	s.applyDefaults()
	return s
}

func (s *Service) applyDefaults() {
	if s.settings.OverdueDays <= 0 {
		s.settings.OverdueDays = conf.DefaultOverdueDays
	}
	if s.settings.RecentActivity <= 0 {
		s.settings.RecentActivity = conf.DefaultRecentActivity
	}
	if s.settings.LowVolumePercent <= 0 {
		s.settings.LowVolumePercent = conf.DefaultLowVolumePercent
	}
	if s.settings.ImportErrorLimit <= 0 {
		s.settings.ImportErrorLimit = conf.DefaultImportErrorLimit
	}
	if s.settings.TopDistribution <= 0 {
		s.settings.TopDistribution = conf.DefaultTopDistribution
	}
	if s.settings.TopUsers <= 0 {
		s.settings.TopUsers = conf.DefaultTopUsers
	}
	if s.settings.CTMax <= 0 {
		s.settings.CTMax = conf.DefaultCTMax
	}
	if s.settings.VolumeMax <= 0 {
		s.settings.VolumeMax = conf.DefaultVolumeMax
	}
}

// repos bundles the repositories bound to one transaction.
type repos struct {
	samples repository.SampleRepository
	places  repository.StoragePlaceRepository
	lookups repository.LookupRepository
	users   repository.UserRepository
	logs    repository.UsageLogRepository
}

func newRepos(db *gorm.DB) repos {
	return repos{
		samples: repository.NewSampleRepository(db),
		places:  repository.NewStoragePlaceRepository(db),
		lookups: repository.NewLookupRepository(db),
		users:   repository.NewUserRepository(db),
		logs:    repository.NewUsageLogRepository(db),
	}
}

// read returns repositories on the plain connection
func (s *Service) read() repos {
	return newRepos(s.db.Conn())
}

// inTx runs fn in one transaction and records the operation metric.
func (s *Service) inTx(ctx context.Context, operation string, fn func(r repos) error) error {
	started := time.Now()
	err := s.db.Transaction(ctx, func(tx *gorm.DB) error {
		return fn(newRepos(tx))
	})
	err = databaseError(err, operation)
	s.metrics.RecordOperation(operation, started, err)
	return err
}

func (s *Service) resolveUser(ctx context.Context, r repos, actor Actor) (*entities.User, error) {
	username := normalizeName(actor.Username)
	if username == "" {
		return nil, validationError("user", "acting user is required")
	}
	return r.users.GetOrCreate(ctx, username, actor.Email)
}

// invalidate drops cached read models after a write.
func (s *Service) invalidate(keys ...string) {
	s.generation.Add(1)
	for _, k := range keys {
		s.group.Forget(k)
		s.cache.Delete(k)
	}
}

const (
	treeCacheKey      = "tree"
	dashboardCacheKey = "dashboard"
)

// cached returns the value under key, building it once across concurrent callers.
func cached[T any](s *Service, key string, ttl time.Duration, build func() (T, error)) (T, error) {
	if ttl > 0 {
		if v, ok := s.cache.Get(key); ok {
			s.metrics.RecordCacheLookup(key, true)
			return v.(T), nil
		}
		s.metrics.RecordCacheLookup(key, false)
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		gen := s.generation.Load()
		built, err := build()
		if err != nil {
			return nil, err
		}
		// A write during the build makes the result stale for later callers.
		if ttl > 0 && s.generation.Load() == gen {
			s.cache.Set(key, built, ttl)
		}
		return built, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
