package inventory_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/pcrdb/internal/conf"
	"github.com/tphakala/pcrdb/internal/datastore/entities"
	"github.com/tphakala/pcrdb/internal/datastore/repository"
	"github.com/tphakala/pcrdb/internal/inventory"
	"github.com/tphakala/pcrdb/internal/logger"
	"github.com/tphakala/pcrdb/internal/testutil"
)

func row(n int, number string) inventory.ImportRow {
	return inventory.ImportRow{
		Row:            n,
		InternalNumber: number,
		Provider:       "Charité",
		Target:         "HSV-1",
		SampleType:     "Swab",
		Volume:         "10",
	}
}

func TestImport_DuplicateScenario(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	result, err := e.svc.Import(context.Background(), []inventory.ImportRow{row(2, "MG-001"), row(3, "MG-001")}, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.ErrorCount)
	assert.Equal(t, []string{
		"Row 3: Sample with Mikrogen Internal Number 'MG-001' already exists in the database.",
	}, result.Errors)
	assert.Equal(t, []inventory.EventType{inventory.EventImported}, e.events.types())
}

func TestImport_GetOrCreateReferences(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	r := row(2, "MG-010")
	r.Provider = "Uniklinik Köln"
	r.StoragePlace = "Cold Room 2"
	r.Extractor = "MagNA Pure"
	r.Cycler = "CFX96"
	r.MikrogenKit = "ampliCube HSV"
	r.ExternalKit = "ampliCube HSV"
	r.PositiveFor = "HSV-1, VZV"
	r.NegativeFor = "CMV"
	r.Gender = "männlich"
	r.Age = "42"
	r.DrawDate = "15.01.2024"
	r.ExtractionDate = "2024-01-17"
	r.MikrogenCT = "27,4"
	r.Volume = "1,5"

	result, err := e.svc.Import(ctx, []inventory.ImportRow{r}, alice)
	require.NoError(t, err)
	require.Equal(t, 1, result.Imported, result.Errors)

	d, err := e.svc.GetSampleByNumber(ctx, "MG-010")
	require.NoError(t, err)
	assert.Equal(t, "Uniklinik Köln", d.Provider.Name)
	require.NotNil(t, d.Storage)
	assert.Equal(t, entities.PlaceRoom, d.Storage.Type)
	assert.Equal(t, "MagNA Pure", d.Extractor.Name)
	assert.Equal(t, "CFX96", d.Cycler.Name)
	require.NotNil(t, d.MikrogenKit)
	require.NotNil(t, d.ExternalKit)
	assert.NotEqual(t, d.MikrogenKit.ID, d.ExternalKit.ID, "kits are distinct per kind")
	assert.Equal(t, "HSV-1, VZV", d.PositiveFor)
	assert.Equal(t, "male", string(*d.Gender))
	assert.Equal(t, 42, *d.Age)
	assert.Equal(t, 2024, d.DrawDate.Year())
	assert.InDelta(t, 27.4, *d.MikrogenCT, 1e-9)
	assert.InDelta(t, 1.5, d.VolumeRemaining, 1e-9)

	targets, err := e.svc.Lookups(ctx, repository.KindTarget)
	require.NoError(t, err)
	var names []string
	for _, tg := range targets {
		names = append(names, tg.Name)
	}
	assert.ElementsMatch(t, []string{"HSV-1", "VZV", "CMV"}, names)
}

func TestImport_RowErrors(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	missing := row(2, "MG-001")
	missing.Volume = ""
	badDate := row(3, "MG-002")
	badDate.DrawDate = "yesterday"
	badGender := row(4, "MG-003")
	badGender.Gender = "x"
	ok := row(5, "MG-004")

	result, err := e.svc.Import(context.Background(), []inventory.ImportRow{missing, badDate, badGender, ok}, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 3, result.ErrorCount)
	require.Len(t, result.Errors, 3)
	assert.Equal(t, "Row 2: Missing required fields", result.Errors[0])
	assert.Contains(t, result.Errors[1], "Error in row 3")
	assert.Contains(t, result.Errors[1], "yesterday")
	assert.Contains(t, result.Errors[2], "Error in row 4")
}

func TestImport_ErrorListIsCapped(t *testing.T) {
	t.Parallel()
	store := testutil.NewTestStore(t)
	svc := inventory.NewService(store, conf.InventorySettings{ImportErrorLimit: 2},
		inventory.WithLogger(logger.NewDiscardLogger()))

	rows := make([]inventory.ImportRow, 5)
	for i := range rows {
		rows[i] = inventory.ImportRow{Row: i + 2, InternalNumber: fmt.Sprintf("MG-%03d", i)}
	}
	result, err := svc.Import(context.Background(), rows, alice)
	require.NoError(t, err)
	assert.Zero(t, result.Imported)
	assert.Equal(t, 5, result.ErrorCount)
	assert.Len(t, result.Errors, 2)
}

func TestNewTargets(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	r := row(2, "MG-001")
	r.PositiveFor = "HSV-1, VZV"
	r.NegativeFor = "EBV, VZV"
	missing, err := e.svc.NewTargets(context.Background(), []inventory.ImportRow{r})
	require.NoError(t, err)
	assert.Equal(t, []string{"VZV", "EBV"}, missing)
}
