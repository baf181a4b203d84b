package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	mw "github.com/tphakala/pcrdb/internal/api/middleware"
	"github.com/tphakala/pcrdb/internal/conf"
	"github.com/tphakala/pcrdb/internal/datastore/entities"
	"github.com/tphakala/pcrdb/internal/datastore/repository"
	"github.com/tphakala/pcrdb/internal/errors"
	"github.com/tphakala/pcrdb/internal/inventory"
	"github.com/tphakala/pcrdb/internal/logger"
	"github.com/tphakala/pcrdb/internal/spreadsheet"
	"github.com/tphakala/pcrdb/internal/testutil"
)

type testAPI struct {
	e   *echo.Echo
	svc *inventory.Service

	provider, target, sampleType *repository.LookupEntry
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := testutil.NewTestStore(t)
	svc := inventory.NewService(store, conf.InventorySettings{},
		inventory.WithLogger(logger.NewDiscardLogger()))

	e := echo.New()
	New(e, svc, &conf.Settings{}, WithLogger(logger.NewDiscardLogger()))

	ta := &testAPI{e: e, svc: svc}
	ctx := context.Background()
	var err error
	ta.provider, err = svc.AddLookup(ctx, repository.KindProvider, "Charité")
	require.NoError(t, err)
	ta.target, err = svc.AddLookup(ctx, repository.KindTarget, "HSV-1")
	require.NoError(t, err)
	ta.sampleType, err = svc.AddLookup(ctx, repository.KindSampleType, "Swab")
	require.NoError(t, err)
	return ta
}

// do sends a JSON request as user (empty for anonymous) through the router.
func (ta *testAPI) do(t *testing.T, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, Prefix+path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if user != "" {
		req.Header.Set(mw.UserHeader, user)
	}
	rec := httptest.NewRecorder()
	ta.e.ServeHTTP(rec, req)
	return rec
}

func (ta *testAPI) sampleRequest(number string, volume float64) SampleRequest {
	return SampleRequest{
		InternalNumber: number,
		ProviderID:     ta.provider.ID,
		TargetID:       ta.target.ID,
		SampleTypeID:   ta.sampleType.ID,
		Volume:         volume,
	}
}

func (ta *testAPI) addSample(t *testing.T, number string, volume float64) SampleDetailResponse {
	t.Helper()
	rec := ta.do(t, http.MethodPost, "/samples", "alice", ta.sampleRequest(number, volume))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out SampleDetailResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	build := func(c errors.ErrorCategory) error {
		return errors.Newf("boom").Category(c).Build()
	}
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", build(errors.CategoryValidation), http.StatusBadRequest},
		{"not found", build(errors.CategoryNotFound), http.StatusNotFound},
		{"structural", build(errors.CategoryStructural), http.StatusConflict},
		{"referential", build(errors.CategoryReferentialIntegrity), http.StatusConflict},
		{"duplicate", build(errors.CategoryDuplicateKey), http.StatusConflict},
		{"database", build(errors.CategoryDatabase), http.StatusInternalServerError},
		{"plain", fmt.Errorf("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestStorageRoutes(t *testing.T) {
	t.Parallel()
	ta := newTestAPI(t)

	add := func(name string, typ entities.PlaceType, parent *uint) PlaceResponse {
		rec := ta.do(t, http.MethodPost, "/storage", "alice", AddPlaceRequest{Name: name, Type: typ, ParentID: parent})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var p PlaceResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
		return p
	}
	room := add("R", entities.PlaceRoom, nil)
	freezer := add("F", entities.PlaceFreezer, &room.ID)
	drawer := add("D", entities.PlaceDrawer, &freezer.ID)

	t.Run("wrong parent type", func(t *testing.T) {
		rec := ta.do(t, http.MethodPost, "/storage", "alice", AddPlaceRequest{Name: "B", Type: entities.PlaceBox, ParentID: &room.ID})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, errors.CategoryStructural, decodeError(t, rec).Kind)
	})

	t.Run("move room under its drawer", func(t *testing.T) {
		rec := ta.do(t, http.MethodPut, fmt.Sprintf("/storage/%d/parent", room.ID), "alice", MovePlaceRequest{ParentID: &drawer.ID})
		assert.Equal(t, http.StatusConflict, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, errors.CategoryStructural, resp.Kind)
		assert.NotEmpty(t, resp.CorrelationID)
	})

	t.Run("tree", func(t *testing.T) {
		rec := ta.do(t, http.MethodGet, "/storage/tree", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var tree inventory.Tree
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tree))
		require.Len(t, tree.Rooms, 1)
		assert.Equal(t, "R", tree.Rooms[0].Name)
		require.Len(t, tree.Rooms[0].Children, 1)
		assert.Equal(t, "F", tree.Rooms[0].Children[0].Name)
	})

	t.Run("places by type", func(t *testing.T) {
		rec := ta.do(t, http.MethodGet, fmt.Sprintf("/storage?type=drawer&parent=%d", freezer.ID), "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var places []PlaceResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &places))
		require.Len(t, places, 1)
		assert.Equal(t, drawer.ID, places[0].ID)
	})

	t.Run("delete with children", func(t *testing.T) {
		rec := ta.do(t, http.MethodDelete, fmt.Sprintf("/storage/%d", room.ID), "alice", nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("delete leaf", func(t *testing.T) {
		rec := ta.do(t, http.MethodDelete, fmt.Sprintf("/storage/%d", drawer.ID), "alice", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		rec := ta.do(t, http.MethodDelete, "/storage/abc", "alice", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSampleRoutes(t *testing.T) {
	t.Parallel()
	ta := newTestAPI(t)

	created := ta.addSample(t, "MG-001", 10)
	assert.Equal(t, "Charité", created.Provider)
	assert.Equal(t, repository.StatusAvailable, created.Status)
	assert.Equal(t, "alice", created.AddedBy)
	assert.InDelta(t, 10.0, created.VolumeRemaining, 0.001)

	t.Run("requires user", func(t *testing.T) {
		rec := ta.do(t, http.MethodPost, "/samples", "", ta.sampleRequest("MG-002", 1))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("field errors", func(t *testing.T) {
		req := ta.sampleRequest("MG-003", 1)
		req.DrawDate = "15.01.2024"
		rec := ta.do(t, http.MethodPost, "/samples", "alice", req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, errors.CategoryValidation, resp.Kind)
		require.Len(t, resp.Fields, 1)
		assert.Equal(t, "draw_date", resp.Fields[0].Field)
	})

	t.Run("duplicate internal number", func(t *testing.T) {
		rec := ta.do(t, http.MethodPost, "/samples", "alice", ta.sampleRequest("MG-001", 1))
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, errors.CategoryDuplicateKey, decodeError(t, rec).Kind)
	})

	t.Run("not found", func(t *testing.T) {
		rec := ta.do(t, http.MethodGet, "/samples/9999", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("edit volume", func(t *testing.T) {
		rec := ta.do(t, http.MethodPut, fmt.Sprintf("/samples/%d/volume", created.ID), "alice", VolumeRequest{Volume: 15})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var out SampleDetailResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.InDelta(t, 15.0, out.Volume, 0.001)
		assert.InDelta(t, 15.0, out.VolumeRemaining, 0.001)
	})

	t.Run("list filters by status", func(t *testing.T) {
		rec := ta.do(t, http.MethodGet, "/samples?status=available&q=MG", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var out []SampleResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		require.Len(t, out, 1)
		assert.Equal(t, "MG-001", out[0].InternalNumber)

		rec = ta.do(t, http.MethodGet, "/samples?status=lost", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = ta.do(t, http.MethodGet, "/samples?ct_min=abc", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestBulkLifecycle(t *testing.T) {
	t.Parallel()
	ta := newTestAPI(t)
	s := ta.addSample(t, "MG-100", 5)

	bulk := func(op, user string, body BulkRequest) *inventory.BulkResult {
		rec := ta.do(t, http.MethodPost, "/samples/bulk/"+op, user, body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var res inventory.BulkResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		return &res
	}

	res := bulk("checkout", "bob", BulkRequest{IDs: []uint{s.ID}})
	assert.Equal(t, 1, res.Affected)

	res = bulk("checkout", "alice", BulkRequest{IDs: []uint{s.ID}})
	assert.Equal(t, 0, res.Affected)
	assert.Equal(t, 1, res.Skipped, "a held sample is skipped")

	rec := ta.do(t, http.MethodGet, "/samples/mine", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []SampleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, repository.StatusReserved, mine[0].Status)
	assert.Equal(t, "bob", mine[0].CurrentUser)

	bulk("activate", "bob", BulkRequest{IDs: []uint{s.ID}})
	res = bulk("finish", "bob", BulkRequest{IDs: []uint{s.ID}, VolumeUsed: 2})
	assert.Equal(t, 1, res.Affected)

	rec = ta.do(t, http.MethodGet, fmt.Sprintf("/samples/%d", s.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail SampleDetailResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, repository.StatusAvailable, detail.Status)
	assert.InDelta(t, 3.0, detail.VolumeRemaining, 0.001)
	require.Len(t, detail.History, 1)
	assert.Equal(t, "bob", detail.History[0].Username)
	assert.NotNil(t, detail.History[0].ReturnDate)

	t.Run("unknown operation", func(t *testing.T) {
		rec := ta.do(t, http.MethodPost, "/samples/bulk/borrow", "bob", BulkRequest{IDs: []uint{s.ID}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("negative volume", func(t *testing.T) {
		rec := ta.do(t, http.MethodPost, "/samples/bulk/finish", "bob", BulkRequest{IDs: []uint{s.ID}, VolumeUsed: -1})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("requires user", func(t *testing.T) {
		rec := ta.do(t, http.MethodPost, "/samples/bulk/checkout", "", BulkRequest{IDs: []uint{s.ID}})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestLookupRoutes(t *testing.T) {
	t.Parallel()
	ta := newTestAPI(t)

	rec := ta.do(t, http.MethodPost, "/lookups/target", "alice", LookupRequest{Name: "CMV"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var entry repository.LookupEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))

	rec = ta.do(t, http.MethodPost, "/lookups/target", "alice", LookupRequest{Name: "CMV"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ta.do(t, http.MethodGet, "/lookups/target", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []repository.LookupEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 2)

	rec = ta.do(t, http.MethodPut, fmt.Sprintf("/lookups/target/%d", entry.ID), "alice", LookupRequest{Name: "EBV"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ta.do(t, http.MethodGet, "/lookups/colour", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	t.Run("referenced target cannot be deleted", func(t *testing.T) {
		ta.addSample(t, "MG-200", 1)
		rec := ta.do(t, http.MethodDelete, fmt.Sprintf("/lookups/target/%d", ta.target.ID), "alice", nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, errors.CategoryReferentialIntegrity, decodeError(t, rec).Kind)
	})

	rec = ta.do(t, http.MethodDelete, fmt.Sprintf("/lookups/target/%d", entry.ID), "alice", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestExportAndTemplate(t *testing.T) {
	t.Parallel()
	ta := newTestAPI(t)
	s := ta.addSample(t, "MG-300", 4)

	rec := ta.do(t, http.MethodPost, "/export", "alice", ExportRequest{IDs: []uint{s.ID}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, spreadsheet.ContentType, rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "PCR_Datenbank_")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, spreadsheet.ExportColumns, rows[0])
	assert.Equal(t, "MG-300", rows[1][0])

	detail, err := ta.svc.GetSample(context.Background(), s.ID)
	require.NoError(t, err)
	assert.True(t, detail.Reserved, "export checks the sample out")

	rec = ta.do(t, http.MethodPost, "/export", "alice", ExportRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ta.do(t, http.MethodGet, "/import/template", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), spreadsheet.TemplateFilename)
}

func uploadWorkbook(t *testing.T, rows ...[]any) (*bytes.Buffer, string) {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(importFormField, "samples.xlsx")
	require.NoError(t, err)
	_, err = f.WriteTo(part)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func TestImport(t *testing.T) {
	t.Parallel()
	ta := newTestAPI(t)
	ta.addSample(t, "MG-400", 1)

	header := []any{"Mikrogen Internal Number", "Provider", "Target", "Sample Type", "Sample Volume"}
	send := func(query string) *httptest.ResponseRecorder {
		body, contentType := uploadWorkbook(t,
			header,
			[]any{"MG-400", "Charité", "HSV-1", "Swab", 1},
			[]any{"MG-401", "Charité", "VZV", "Swab", 2},
		)
		req := httptest.NewRequest(http.MethodPost, Prefix+"/import"+query, body)
		req.Header.Set(echo.HeaderContentType, contentType)
		req.Header.Set(mw.UserHeader, "alice")
		rec := httptest.NewRecorder()
		ta.e.ServeHTTP(rec, req)
		return rec
	}

	rec := send("?preview=true")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var preview ImportPreview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	assert.Equal(t, 2, preview.Rows)
	assert.Equal(t, []string{"VZV"}, preview.NewTargets)

	rec = send("")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result inventory.ImportResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.ErrorCount)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "MG-400")

	t.Run("missing file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, Prefix+"/import", strings.NewReader(""))
		req.Header.Set(mw.UserHeader, "alice")
		rec := httptest.NewRecorder()
		ta.e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing columns", func(t *testing.T) {
		body, contentType := uploadWorkbook(t, []any{"Provider"}, []any{"Charité"})
		req := httptest.NewRequest(http.MethodPost, Prefix+"/import", body)
		req.Header.Set(echo.HeaderContentType, contentType)
		req.Header.Set(mw.UserHeader, "alice")
		rec := httptest.NewRecorder()
		ta.e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestReports(t *testing.T) {
	t.Parallel()
	ta := newTestAPI(t)
	ta.addSample(t, "MG-500", 1)

	rec := ta.do(t, http.MethodGet, "/dashboard", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var d inventory.Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, int64(1), d.Total)
	assert.Equal(t, int64(1), d.Available)

	rec = ta.do(t, http.MethodGet, "/overdue", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = ta.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// brokenService fails every dashboard build with an infrastructure error.
type brokenService struct {
	InventoryService
}

func (brokenService) Dashboard(context.Context) (*inventory.Dashboard, error) {
	return nil, errors.Newf("connection refused").Category(errors.CategoryDatabase).Build()
}

func TestInfrastructureErrorIs500(t *testing.T) {
	t.Parallel()
	e := echo.New()
	New(e, brokenService{}, &conf.Settings{}, WithLogger(logger.NewDiscardLogger()))

	req := httptest.NewRequest(http.MethodGet, Prefix+"/dashboard", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeError(t, rec)
	assert.Empty(t, resp.Kind, "infrastructure failures carry no domain kind")
	assert.Equal(t, "connection refused", resp.Error)
}
