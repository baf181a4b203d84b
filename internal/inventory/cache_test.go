package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tphakala/pcrdb/internal/conf"
	"github.com/tphakala/pcrdb/internal/logger"
)

func newCacheOnlyService() *Service {
	return NewService(nil, conf.InventorySettings{}, WithLogger(logger.NewDiscardLogger()))
}

func TestCached_WriteDuringBuildIsNotCached(t *testing.T) {
	t.Parallel()
	s := newCacheOnlyService()

	got, err := cached(s, treeCacheKey, time.Minute, func() (int, error) {
		s.invalidate(treeCacheKey) // a mutation commits while the snapshot is built
		return 1, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, got, "the caller still gets its result")
	_, ok := s.cache.Get(treeCacheKey)
	assert.False(t, ok, "a snapshot older than the last write must not be cached")

	got, err = cached(s, treeCacheKey, time.Minute, func() (int, error) { return 2, nil })
	require.NoError(t, err)
	assert.Equal(t, 2, got)
	v, ok := s.cache.Get(treeCacheKey)
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestCached_ZeroTTLDisablesCache(t *testing.T) {
	t.Parallel()
	s := newCacheOnlyService()

	_, err := cached(s, dashboardCacheKey, 0, func() (int, error) { return 1, nil })
	require.NoError(t, err)
	_, ok := s.cache.Get(dashboardCacheKey)
	assert.False(t, ok)
}

func TestNewService_StartsNoGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	for range 3 {
		newCacheOnlyService()
	}
}
