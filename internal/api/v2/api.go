// Package api implements the JSON endpoints of the inventory under /api/v2.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	mw "github.com/tphakala/pcrdb/internal/api/middleware"
	"github.com/tphakala/pcrdb/internal/conf"
	"github.com/tphakala/pcrdb/internal/datastore/entities"
	"github.com/tphakala/pcrdb/internal/datastore/repository"
	"github.com/tphakala/pcrdb/internal/errors"
	"github.com/tphakala/pcrdb/internal/inventory"
	"github.com/tphakala/pcrdb/internal/logger"
)

// Prefix is the mount point of the API
const Prefix = "/api/v2"

// InventoryService is the part of the inventory the API exposes.
type InventoryService interface {
	ListTree(ctx context.Context) (*inventory.Tree, error)
	AddNode(ctx context.Context, name string, placeType entities.PlaceType, parentID *uint) (*entities.StoragePlace, error)
	MoveNode(ctx context.Context, nodeID uint, newParentID *uint) error
	DeleteNode(ctx context.Context, nodeID uint) error
	PlacesByType(ctx context.Context, placeType entities.PlaceType, parentID *uint) ([]entities.StoragePlace, error)

	Inventory(ctx context.Context, q inventory.InventoryQuery) ([]inventory.SampleSummary, error)
	AddSample(ctx context.Context, in inventory.SampleInput, actor inventory.Actor) (*entities.Sample, error)
	GetSample(ctx context.Context, id uint) (*inventory.SampleDetail, error)
	EditSample(ctx context.Context, id uint, in inventory.SampleInput) (*entities.Sample, error)
	EditVolume(ctx context.Context, id uint, volume float64) (*entities.Sample, error)
	DeleteSample(ctx context.Context, id uint, actor inventory.Actor) error
	MySamples(ctx context.Context, actor inventory.Actor) ([]inventory.SampleSummary, error)
	Bulk(ctx context.Context, req inventory.BulkRequest) (*inventory.BulkResult, error)

	NewTargets(ctx context.Context, rows []inventory.ImportRow) ([]string, error)
	Import(ctx context.Context, rows []inventory.ImportRow, actor inventory.Actor) (*inventory.ImportResult, error)
	Export(ctx context.Context, ids []uint, actor inventory.Actor) ([]inventory.ExportRow, error)

	Dashboard(ctx context.Context) (*inventory.Dashboard, error)
	Overdue(ctx context.Context) ([]inventory.OverdueUser, error)

	Lookups(ctx context.Context, kind repository.LookupKind) ([]repository.LookupEntry, error)
	AddLookup(ctx context.Context, kind repository.LookupKind, name string) (*repository.LookupEntry, error)
	RenameLookup(ctx context.Context, kind repository.LookupKind, id uint, name string) error
	DeleteLookup(ctx context.Context, kind repository.LookupKind, id uint) error
}

// Controller manages the API routes and handlers
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	Service  InventoryService
	Settings *conf.Settings

	logger    logger.Logger
	startTime time.Time
}

// Option is a functional option for configuring the Controller.
type Option func(*Controller)

// WithLogger overrides the module logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// New creates the controller and registers its routes under Prefix.
func New(e *echo.Echo, svc InventoryService, settings *conf.Settings, opts ...Option) *Controller {
	c := &Controller{
		Echo:      e,
		Group:     e.Group(Prefix),
		Service:   svc,
		Settings:  settings,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Global().Module("api")
	}
	c.initRoutes()
	return c
}

// initRoutes registers all API endpoints
func (c *Controller) initRoutes() {
	c.Group.GET("/health", c.HealthCheck)

	routeInitializers := []struct {
		name string
		fn   func()
	}{
		{"storage routes", c.initStorageRoutes},
		{"sample routes", c.initSampleRoutes},
		{"transfer routes", c.initTransferRoutes},
		{"report routes", c.initReportRoutes},
		{"lookup routes", c.initLookupRoutes},
	}

	for _, initializer := range routeInitializers {
		initializer.fn()
		c.logger.Debug("initialized routes", logger.String("group", initializer.name))
	}
}

// HealthCheck handles the API health check endpoint
func (c *Controller) HealthCheck(ctx echo.Context) error {
	uptime := time.Since(c.startTime)
	return ctx.JSON(http.StatusOK, map[string]any{
		"status":         "healthy",
		"uptime":         uptime.String(),
		"uptime_seconds": uptime.Seconds(),
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}

// ErrorResponse represents a standard error response for the API
type ErrorResponse struct {
	Error         string                `json:"error"`
	Message       string                `json:"message"`
	Code          int                   `json:"code"`
	Kind          errors.ErrorCategory  `json:"kind,omitempty"`
	Fields        inventory.FieldErrors `json:"fields,omitempty"`
	CorrelationID string                `json:"correlation_id"`
}

// NewErrorResponse creates a new API error response
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}

	resp := &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: uuid.NewString()[:8],
	}
	if err != nil && errors.IsDomain(err) {
		resp.Kind = errors.CategoryOf(err)
	}
	var fields inventory.FieldErrors
	if errors.As(err, &fields) {
		resp.Fields = fields
	}
	return resp
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch errors.CategoryOf(err) {
	case errors.CategoryValidation:
		return http.StatusBadRequest
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryStructural, errors.CategoryReferentialIntegrity, errors.CategoryDuplicateKey:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// HandleError writes a JSON error response and logs it with a correlation id.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	errorResp := NewErrorResponse(err, message, code)

	fields := []logger.Field{
		logger.String("correlation_id", errorResp.CorrelationID),
		logger.String("message", message),
		logger.Int("code", code),
		logger.String("path", ctx.Request().URL.Path),
		logger.String("method", ctx.Request().Method),
		logger.String("ip", ctx.RealIP()),
	}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}

	log := c.logger.WithContext(ctx.Request().Context())
	if code >= http.StatusInternalServerError {
		log.Error("API error", fields...)
	} else {
		log.Debug("API error", fields...)
	}

	return ctx.JSON(code, errorResp)
}

// handleServiceError reports a service failure with the status of its kind.
func (c *Controller) handleServiceError(ctx echo.Context, err error, message string) error {
	return c.HandleError(ctx, err, message, StatusFor(err))
}

// actor returns the user named by the upstream authenticator.
func actor(ctx echo.Context) inventory.Actor {
	h := ctx.Request().Header
	return inventory.Actor{
		Username: h.Get(mw.UserHeader),
		Email:    h.Get(mw.UserEmailHeader),
	}
}

// missingActor answers requests that need a user but carry none.
func (c *Controller) missingActor(ctx echo.Context) error {
	return c.HandleError(ctx, nil, "missing "+mw.UserHeader+" header", http.StatusUnauthorized)
}

// parseID reads a numeric path parameter.
func parseID(ctx echo.Context, name string) (uint, error) {
	raw := ctx.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.Newf("invalid %s %q", name, raw).
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	return uint(id), nil
}

// optionalID reads an optional numeric query parameter.
func optionalID(ctx echo.Context, name string) (*uint, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, errors.Newf("invalid %s %q", name, raw).
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	v := uint(id)
	return &v, nil
}

// optionalFloat reads an optional numeric query parameter.
func optionalFloat(ctx echo.Context, name string) (*float64, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errors.Newf("invalid %s %q", name, raw).
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	return &f, nil
}

// bindError wraps a request decoding failure as a validation error.
func bindError(err error) error {
	return errors.New(err).
		Component("api").
		Category(errors.CategoryValidation).
		Context("operation", "bind").
		Build()
}
