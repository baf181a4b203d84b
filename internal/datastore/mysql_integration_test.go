//go:build integration

package datastore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/tphakala/pcrdb/internal/conf"
	"github.com/tphakala/pcrdb/internal/datastore"
	"github.com/tphakala/pcrdb/internal/datastore/entities"
	"github.com/tphakala/pcrdb/internal/datastore/repository"
	"github.com/tphakala/pcrdb/internal/errors"
	"github.com/tphakala/pcrdb/internal/inventory"
	"github.com/tphakala/pcrdb/internal/logger"
)

// openMySQL starts a MySQL container and returns a migrated store on it.
func openMySQL(t *testing.T) *datastore.Store {
	t.Helper()
	ctx := context.Background()

	container, err := mysql.Run(ctx, "mysql:8.4",
		mysql.WithDatabase("pcrdb"),
		mysql.WithUsername("pcrdb"),
		mysql.WithPassword("pcrdb"),
	)
	require.NoError(t, err, "failed to start MySQL container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)

	settings := &conf.DatabaseSettings{
		Engine: conf.EngineMySQL,
		MySQL: conf.ServerSettings{
			Host:     host,
			Port:     port.Int(),
			Username: "pcrdb",
			Password: "pcrdb",
			Database: "pcrdb",
		},
	}
	store := datastore.New(settings, datastore.WithLogger(logger.NewDiscardLogger()))
	require.NoError(t, store.Open(ctx))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestMySQL_InventoryRoundTrip(t *testing.T) {
	store := openMySQL(t)
	ctx := context.Background()

	for _, model := range entities.All() {
		assert.True(t, store.DB.Migrator().HasTable(model), "missing table for %T", model)
	}

	svc := inventory.NewService(store, conf.InventorySettings{},
		inventory.WithLogger(logger.NewDiscardLogger()))

	room, err := svc.AddNode(ctx, "Lab 1", entities.PlaceRoom, nil)
	require.NoError(t, err)
	freezer, err := svc.AddNode(ctx, "Freezer A", entities.PlaceFreezer, &room.ID)
	require.NoError(t, err)

	provider, err := svc.AddLookup(ctx, repository.KindProvider, "Hospital")
	require.NoError(t, err)
	target, err := svc.AddLookup(ctx, repository.KindTarget, "HSV-1")
	require.NoError(t, err)
	sampleType, err := svc.AddLookup(ctx, repository.KindSampleType, "Swab")
	require.NoError(t, err)

	in := inventory.SampleInput{
		InternalNumber: "MY-001",
		ProviderID:     provider.ID,
		TargetID:       target.ID,
		SampleTypeID:   sampleType.ID,
		FreezerID:      &freezer.ID,
		Volume:         20,
	}
	alice := inventory.Actor{Username: "alice", Email: "alice@lab.example"}

	sample, err := svc.AddSample(ctx, in, alice)
	require.NoError(t, err)

	_, err = svc.AddSample(ctx, in, alice)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryDuplicateKey))

	res, err := svc.Bulk(ctx, inventory.BulkRequest{
		Operation: inventory.OpCheckout,
		SampleIDs: []uint{sample.ID},
		Actor:     alice,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Affected)

	detail, err := svc.GetSample(ctx, sample.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lab 1 → Freezer A", detail.StoragePath)
	require.Len(t, detail.History, 1)
	assert.Equal(t, "alice", detail.History[0].User.Username)
}
