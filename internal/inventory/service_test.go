package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tphakala/pcrdb/internal/conf"
	"github.com/tphakala/pcrdb/internal/datastore"
	"github.com/tphakala/pcrdb/internal/datastore/entities"
	"github.com/tphakala/pcrdb/internal/datastore/repository"
	"github.com/tphakala/pcrdb/internal/inventory"
	"github.com/tphakala/pcrdb/internal/logger"
	"github.com/tphakala/pcrdb/internal/testutil"
)

var (
	alice = inventory.Actor{Username: "alice", Email: "alice@lab.example"}
	bob   = inventory.Actor{Username: "bob", Email: "bob@lab.example"}
)

// recorder collects published events
type recorder struct {
	mu     sync.Mutex
	events []inventory.Event
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) Publish(_ context.Context, e inventory.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []inventory.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]inventory.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type env struct {
	svc    *inventory.Service
	store  *datastore.Store
	events *recorder

	provider, target, sampleType repository.LookupEntry
}

func newEnv(t *testing.T, opts ...inventory.Option) *env {
	t.Helper()
	store := testutil.NewTestStore(t)
	events := &recorder{}
	opts = append([]inventory.Option{
		inventory.WithLogger(logger.NewDiscardLogger()),
		inventory.WithPublisher(events),
	}, opts...)
	svc := inventory.NewService(store, conf.InventorySettings{}, opts...)

	e := &env{svc: svc, store: store, events: events}
	e.provider = e.lookup(t, repository.KindProvider, "Charité")
	e.target = e.lookup(t, repository.KindTarget, "HSV-1")
	e.sampleType = e.lookup(t, repository.KindSampleType, "Swab")
	return e
}

func (e *env) lookup(t *testing.T, kind repository.LookupKind, name string) repository.LookupEntry {
	t.Helper()
	entry, err := e.svc.AddLookup(context.Background(), kind, name)
	require.NoError(t, err)
	return *entry
}

func (e *env) input(number string, volume float64) inventory.SampleInput {
	return inventory.SampleInput{
		InternalNumber: number,
		ProviderID:     e.provider.ID,
		TargetID:       e.target.ID,
		SampleTypeID:   e.sampleType.ID,
		Volume:         volume,
	}
}

func (e *env) addSample(t *testing.T, number string, volume float64) *entities.Sample {
	t.Helper()
	sample, err := e.svc.AddSample(context.Background(), e.input(number, volume), alice)
	require.NoError(t, err)
	return sample
}

func (e *env) bulk(t *testing.T, op inventory.Operation, actor inventory.Actor, volume float64, ids ...uint) *inventory.BulkResult {
	t.Helper()
	result, err := e.svc.Bulk(context.Background(), inventory.BulkRequest{
		Operation:  op,
		SampleIDs:  ids,
		Actor:      actor,
		VolumeUsed: volume,
	})
	require.NoError(t, err)
	return result
}

func (e *env) reload(t *testing.T, id uint) *inventory.SampleDetail {
	t.Helper()
	detail, err := e.svc.GetSample(context.Background(), id)
	require.NoError(t, err)
	return detail
}

// age backdates last_modified without going through the autoUpdateTime hook.
func (e *env) age(t *testing.T, id uint, at time.Time) {
	t.Helper()
	err := e.store.DB.Model(&entities.Sample{}).Where("id = ?", id).
		UpdateColumn("last_modified", at).Error
	require.NoError(t, err)
}

// requireHolderInvariant checks that a holder is set exactly when the sample is in use.
func requireHolderInvariant(t *testing.T, s *entities.Sample) {
	t.Helper()
	require.Equal(t, s.InUse, s.CurrentUserID != nil, "holder must be set iff in use")
	require.GreaterOrEqual(t, s.VolumeRemaining, 0.0)
	require.LessOrEqual(t, s.VolumeRemaining, s.Volume)
}

func ptr[T any](v T) *T { return &v }

func longCache() conf.CacheSettings {
	return conf.CacheSettings{TreeTTL: 5 * time.Minute, DashboardTTL: 5 * time.Minute}
}
