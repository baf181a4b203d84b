package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v2 "github.com/tphakala/pcrdb/internal/api/v2"
	"github.com/tphakala/pcrdb/internal/conf"
	"github.com/tphakala/pcrdb/internal/inventory"
	"github.com/tphakala/pcrdb/internal/logger"
	"github.com/tphakala/pcrdb/internal/observability"
	"github.com/tphakala/pcrdb/internal/testutil"
)

func newTestServer(t *testing.T, settings *conf.Settings) *Server {
	t.Helper()
	m, err := observability.NewMetrics()
	require.NoError(t, err)
	svc := inventory.NewService(testutil.NewTestStore(t), settings.Inventory,
		inventory.WithLogger(logger.NewDiscardLogger()),
		inventory.WithMetrics(m.Inventory, m.Notification))

	s, err := New(settings, svc, WithLogger(logger.NewDiscardLogger()), WithMetrics(m))
	require.NoError(t, err)
	return s
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestServerRoutes(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Main.Name = "lab-1"
	settings.WebServer.Listen = ":0"
	settings.WebServer.Metrics = true
	settings.WebServer.CORSOrigins = []string{"https://lab.example"}
	s := newTestServer(t, settings)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"lab-1"`)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = serve(s, httptest.NewRequest(http.MethodGet, v2.Prefix+"/dashboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")

	req := httptest.NewRequest(http.MethodOptions, v2.Prefix+"/samples", nil)
	req.Header.Set(echo.HeaderOrigin, "https://lab.example")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec = serve(s, req)
	assert.Equal(t, "https://lab.example", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestMetricsDisabled(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.WebServer.Listen = ":0"
	s := newTestServer(t, settings)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Listen = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.WriteTimeout = 0
	assert.Error(t, cfg.Validate())
}
