package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tphakala/pcrdb/internal/conf"
	"github.com/tphakala/pcrdb/internal/datastore"
	"github.com/tphakala/pcrdb/internal/logger"
)

// NewTestStore opens a migrated SQLite store in a fresh temp directory.
// The store is closed when the test ends.
func NewTestStore(t *testing.T, opts ...datastore.Option) *datastore.Store {
	t.Helper()

	settings := &conf.DatabaseSettings{
		Engine: conf.EngineSQLite,
		SQLite: conf.SQLiteSettings{Path: filepath.Join(t.TempDir(), "pcrdb_test.db")},
	}
	opts = append([]datastore.Option{datastore.WithLogger(logger.NewDiscardLogger())}, opts...)
	store := datastore.New(settings, opts...)
	require.NoError(t, store.Open(context.Background()))
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
