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

func TestAddSample(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	in := e.input(" MG-001 ", 12.5)
	in.PositiveFor = []string{"HSV-1", " CMV "}
	in.Gender = "Weiblich"
	sample, err := e.svc.AddSample(ctx, in, alice)
	require.NoError(t, err)
	assert.Equal(t, "MG-001", sample.InternalNumber)
	assert.InDelta(t, 12.5, sample.VolumeRemaining, 1e-9)
	assert.Equal(t, "HSV-1, CMV", sample.PositiveFor)
	require.NotNil(t, sample.Gender)
	assert.Equal(t, "female", string(*sample.Gender))

	_, err = e.svc.AddSample(ctx, e.input("MG-001", 3), bob)
	require.Error(t, err)
	assert.ErrorIs(t, err, inventory.ErrDuplicateInternalNumber)
	assert.True(t, errors.IsCategory(err, errors.CategoryDuplicateKey))

	detail, err := e.svc.GetSampleByNumber(ctx, "MG-001")
	require.NoError(t, err)
	assert.Equal(t, []string{"HSV-1", "CMV"}, detail.PositiveTargets)
	assert.InDelta(t, 100.0, detail.VolumePercentage, 1e-9)
	require.NotNil(t, detail.AddedBy)
	assert.Equal(t, "alice", detail.AddedBy.Username)
}

func TestAddSample_FieldErrors(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	_, err := e.svc.AddSample(context.Background(), inventory.SampleInput{Volume: -1, Gender: "x"}, alice)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	var fields inventory.FieldErrors
	require.ErrorAs(t, err, &fields)
	var names []string
	for _, f := range fields {
		names = append(names, f.Field)
	}
	assert.ElementsMatch(t, []string{"internal_number", "provider", "target", "sample_type", "volume", "gender"}, names)
}

func TestAddSample_UnknownReference(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	in := e.input("MG-001", 1)
	in.ProviderID = 999
	_, err := e.svc.AddSample(context.Background(), in, alice)
	assert.ErrorIs(t, err, inventory.ErrLookupNotFound)
	assert.True(t, errors.IsNotFound(err))

	in = e.input("MG-001", 1)
	kit := e.lookup(t, repository.KindExternalKit, "RealStar")
	in.MikrogenKitID = &kit.ID
	_, err = e.svc.AddSample(context.Background(), in, alice)
	assert.True(t, errors.IsNotFound(err), "an external kit is not a mikrogen kit")
}

func TestEditSample_DuplicateNumber(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	e.addSample(t, "MG-001", 1)
	second := e.addSample(t, "MG-002", 1)

	_, err := e.svc.EditSample(ctx, second.ID, e.input("MG-001", 1))
	assert.ErrorIs(t, err, inventory.ErrDuplicateInternalNumber)

	edited, err := e.svc.EditSample(ctx, second.ID, e.input("MG-002", 1))
	require.NoError(t, err, "keeping its own number is not a duplicate")
	assert.Equal(t, "MG-002", edited.InternalNumber)

	_, err = e.svc.EditSample(ctx, 999, e.input("MG-003", 1))
	assert.ErrorIs(t, err, inventory.ErrSampleNotFound)
}

func TestDeleteSample_CascadesLedger(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	s := e.addSample(t, "MG-001", 10)
	e.bulk(t, inventory.OpCheckout, alice, 0, s.ID)

	require.NoError(t, e.svc.DeleteSample(ctx, s.ID, alice))
	_, err := e.svc.GetSample(ctx, s.ID)
	assert.ErrorIs(t, err, inventory.ErrSampleNotFound)

	var logs int64
	require.NoError(t, e.store.DB.Table("usage_logs").Count(&logs).Error)
	assert.Zero(t, logs)
	assert.Contains(t, e.events.types(), inventory.EventDeleted)
}

func TestInventory_Filters(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	withCT := e.input("MG-001", 10)
	withCT.MikrogenCT = ptr(28.5)
	withCT.PositiveFor = []string{"CMV"}
	_, err := e.svc.AddSample(ctx, withCT, alice)
	require.NoError(t, err)
	noCT := e.addSample(t, "MG-002", 2)
	e.bulk(t, inventory.OpCheckout, alice, 0, noCT.ID)

	all, err := e.svc.Inventory(ctx, inventory.InventoryQuery{CTMin: ptr(0.0), CTMax: ptr(50.0)})
	require.NoError(t, err)
	assert.Len(t, all, 2, "default CT bounds do not filter")

	narrowed, err := e.svc.Inventory(ctx, inventory.InventoryQuery{CTMin: ptr(20.0), CTMax: ptr(30.0)})
	require.NoError(t, err)
	require.Len(t, narrowed, 1)
	assert.Equal(t, "MG-001", narrowed[0].InternalNumber)

	reserved, err := e.svc.Inventory(ctx, inventory.InventoryQuery{Status: repository.StatusReserved})
	require.NoError(t, err)
	require.Len(t, reserved, 1)
	assert.True(t, reserved[0].Reserved)

	cmv := e.lookup(t, repository.KindTarget, "CMV")
	positive, err := e.svc.Inventory(ctx, inventory.InventoryQuery{PositiveTargetID: &cmv.ID})
	require.NoError(t, err)
	require.Len(t, positive, 1)
	assert.Equal(t, "MG-001", positive[0].InternalNumber)

	hsv1 := e.input("MG-003", 10)
	hsv1.PositiveFor = []string{"HSV-1"}
	_, err = e.svc.AddSample(ctx, hsv1, alice)
	require.NoError(t, err)
	hsv := e.lookup(t, repository.KindTarget, "HSV")
	positive, err = e.svc.Inventory(ctx, inventory.InventoryQuery{PositiveTargetID: &hsv.ID})
	require.NoError(t, err)
	assert.Empty(t, positive, "HSV is not an item of \"HSV-1\"")

	lowVolume, err := e.svc.Inventory(ctx, inventory.InventoryQuery{VolumeMax: ptr(5.0)})
	require.NoError(t, err)
	require.Len(t, lowVolume, 1)
	assert.Equal(t, "MG-002", lowVolume[0].InternalNumber)

	_, err = e.svc.Inventory(ctx, inventory.InventoryQuery{Status: "lost"})
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}
