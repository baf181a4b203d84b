package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/pcrdb/internal/datastore/repository"
	"github.com/tphakala/pcrdb/internal/errors"
	"github.com/tphakala/pcrdb/internal/inventory"
)

func TestDeleteLookup_ProtectedReference(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	s := e.addSample(t, "MG-001", 1)

	for kind, id := range map[repository.LookupKind]uint{
		repository.KindProvider:   e.provider.ID,
		repository.KindTarget:     e.target.ID,
		repository.KindSampleType: e.sampleType.ID,
	} {
		err := e.svc.DeleteLookup(ctx, kind, id)
		require.Error(t, err, kind)
		assert.ErrorIs(t, err, inventory.ErrLookupInUse, kind)
		assert.True(t, errors.IsCategory(err, errors.CategoryReferentialIntegrity), kind)
	}

	require.NoError(t, e.svc.DeleteSample(ctx, s.ID, alice))
	assert.NoError(t, e.svc.DeleteLookup(ctx, repository.KindProvider, e.provider.ID))
}

func TestDeleteLookup_ExtractorNullsReference(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	extractor := e.lookup(t, repository.KindExtractor, "MagNA Pure 96")
	cycler := e.lookup(t, repository.KindCycler, "CFX96")
	in := e.input("MG-001", 1)
	in.ExtractorID = &extractor.ID
	in.CyclerID = &cycler.ID
	s, err := e.svc.AddSample(ctx, in, alice)
	require.NoError(t, err)

	require.NoError(t, e.svc.DeleteLookup(ctx, repository.KindExtractor, extractor.ID))
	require.NoError(t, e.svc.DeleteLookup(ctx, repository.KindCycler, cycler.ID))

	d := e.reload(t, s.ID)
	assert.Nil(t, d.ExtractorID)
	assert.Nil(t, d.CyclerID)
}

func TestLookups_CreateRename(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.AddLookup(ctx, repository.KindProvider, "Charité")
	assert.ErrorIs(t, err, inventory.ErrDuplicateLookup)
	assert.True(t, errors.IsCategory(err, errors.CategoryDuplicateKey))

	_, err = e.svc.AddLookup(ctx, repository.KindProvider, " ")
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	_, err = e.svc.AddLookup(ctx, repository.LookupKind("colour"), "red")
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	other := e.lookup(t, repository.KindProvider, "Labor Berlin")
	err = e.svc.RenameLookup(ctx, repository.KindProvider, other.ID, "Charité")
	assert.ErrorIs(t, err, inventory.ErrDuplicateLookup)
	require.NoError(t, e.svc.RenameLookup(ctx, repository.KindProvider, other.ID, "Labor Berlin GmbH"))

	err = e.svc.RenameLookup(ctx, repository.KindProvider, 999, "x")
	assert.ErrorIs(t, err, inventory.ErrLookupNotFound)

	providers, err := e.svc.Lookups(ctx, repository.KindProvider)
	require.NoError(t, err)
	require.Len(t, providers, 2)
	assert.Equal(t, "Labor Berlin GmbH", providers[1].Name)
}
