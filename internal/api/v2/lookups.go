package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/pcrdb/internal/datastore/repository"
	"github.com/tphakala/pcrdb/internal/errors"
)

// LookupRequest is the body of POST /lookups/:kind and PUT /lookups/:kind/:id
type LookupRequest struct {
	Name string `json:"name"`
}

func (c *Controller) initLookupRoutes() {
	g := c.Group.Group("/lookups/:kind")
	g.GET("", c.ListLookups)
	g.POST("", c.AddLookup)
	g.PUT("/:id", c.RenameLookup)
	g.DELETE("/:id", c.DeleteLookup)
}

func lookupKind(ctx echo.Context) (repository.LookupKind, error) {
	kind, err := repository.ParseLookupKind(ctx.Param("kind"))
	if err != nil {
		return "", errors.New(err).
			Component("api").
			Category(errors.CategoryValidation).
			Context("kind", ctx.Param("kind")).
			Build()
	}
	return kind, nil
}

// ListLookups handles GET /lookups/:kind
func (c *Controller) ListLookups(ctx echo.Context) error {
	kind, err := lookupKind(ctx)
	if err != nil {
		return c.handleServiceError(ctx, err, "Unknown lookup kind")
	}
	entries, err := c.Service.Lookups(ctx.Request().Context(), kind)
	if err != nil {
		return c.handleServiceError(ctx, err, "Failed to list lookup entries")
	}
	if entries == nil {
		entries = []repository.LookupEntry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

// AddLookup handles POST /lookups/:kind
func (c *Controller) AddLookup(ctx echo.Context) error {
	kind, err := lookupKind(ctx)
	if err != nil {
		return c.handleServiceError(ctx, err, "Unknown lookup kind")
	}
	var req LookupRequest
	if err := ctx.Bind(&req); err != nil {
		return c.handleServiceError(ctx, bindError(err), "Invalid request body")
	}
	entry, err := c.Service.AddLookup(ctx.Request().Context(), kind, req.Name)
	if err != nil {
		return c.handleServiceError(ctx, err, "Failed to add lookup entry")
	}
	return ctx.JSON(http.StatusCreated, entry)
}

// RenameLookup handles PUT /lookups/:kind/:id
func (c *Controller) RenameLookup(ctx echo.Context) error {
	kind, err := lookupKind(ctx)
	if err != nil {
		return c.handleServiceError(ctx, err, "Unknown lookup kind")
	}
	id, err := parseID(ctx, "id")
	if err != nil {
		return c.handleServiceError(ctx, err, "Invalid lookup id")
	}
	var req LookupRequest
	if err := ctx.Bind(&req); err != nil {
		return c.handleServiceError(ctx, bindError(err), "Invalid request body")
	}
	if err := c.Service.RenameLookup(ctx.Request().Context(), kind, id, req.Name); err != nil {
		return c.handleServiceError(ctx, err, "Failed to rename lookup entry")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// DeleteLookup handles DELETE /lookups/:kind/:id
func (c *Controller) DeleteLookup(ctx echo.Context) error {
	kind, err := lookupKind(ctx)
	if err != nil {
		return c.handleServiceError(ctx, err, "Unknown lookup kind")
	}
	id, err := parseID(ctx, "id")
	if err != nil {
		return c.handleServiceError(ctx, err, "Invalid lookup id")
	}
	if err := c.Service.DeleteLookup(ctx.Request().Context(), kind, id); err != nil {
		return c.handleServiceError(ctx, err, "Failed to delete lookup entry")
	}
	return ctx.NoContent(http.StatusNoContent)
}
