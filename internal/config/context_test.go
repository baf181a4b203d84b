package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/pcrdb/internal/buildinfo"
	"github.com/tphakala/pcrdb/internal/conf"
	"github.com/tphakala/pcrdb/internal/errors"
)

func TestServiceRequiresSettings(t *testing.T) {
	t.Parallel()

	ctx := NewContext(buildinfo.NewContext("test", ""))
	_, err := ctx.Service(t.Context())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestServiceIsOpenedOnce(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Database.Engine = conf.EngineSQLite
	settings.Database.SQLite.Path = filepath.Join(t.TempDir(), "pcrdb.db")
	settings.Inventory.OverdueDays = conf.DefaultOverdueDays

	ctx := NewContext(buildinfo.NewContext("test", ""))
	ctx.Settings = settings

	first, err := ctx.Service(t.Context())
	require.NoError(t, err)
	second, err := ctx.Service(t.Context())
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.NotNil(t, ctx.Store())

	var order []string
	ctx.OnClose(func() { order = append(order, "first") })
	ctx.OnClose(func() { order = append(order, "second") })

	ctx.Close()
	assert.Nil(t, ctx.Store())
	assert.Equal(t, []string{"second", "first"}, order)

	ctx.Close()
	assert.Len(t, order, 2, "closers run once")
}
