package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/pcrdb/internal/datastore/entities"
)

// PlaceResponse is a storage place as returned by the API
type PlaceResponse struct {
	ID       uint               `json:"id"`
	Name     string             `json:"name"`
	Type     entities.PlaceType `json:"type"`
	ParentID *uint              `json:"parent_id"`
}

func newPlaceResponse(p *entities.StoragePlace) PlaceResponse {
	return PlaceResponse{ID: p.ID, Name: p.Name, Type: p.Type, ParentID: p.ParentID}
}

// AddPlaceRequest is the body of POST /storage
type AddPlaceRequest struct {
	Name     string             `json:"name"`
	Type     entities.PlaceType `json:"type"`
	ParentID *uint              `json:"parent_id"`
}

// MovePlaceRequest is the body of PUT /storage/:id/parent. A null parent
// makes the node a root.
type MovePlaceRequest struct {
	ParentID *uint `json:"parent_id"`
}

func (c *Controller) initStorageRoutes() {
	g := c.Group.Group("/storage")
	g.GET("/tree", c.GetStorageTree)
	g.GET("", c.ListPlaces)
	g.POST("", c.AddPlace)
	g.PUT("/:id/parent", c.MovePlace)
	g.DELETE("/:id", c.DeletePlace)
}

// GetStorageTree handles GET /storage/tree
func (c *Controller) GetStorageTree(ctx echo.Context) error {
	tree, err := c.Service.ListTree(ctx.Request().Context())
	if err != nil {
		return c.handleServiceError(ctx, err, "Failed to load storage tree")
	}
	return ctx.JSON(http.StatusOK, tree)
}

// ListPlaces handles GET /storage?type=drawer&parent=3, the picker lists of
// the sample form.
func (c *Controller) ListPlaces(ctx echo.Context) error {
	parentID, err := optionalID(ctx, "parent")
	if err != nil {
		return c.handleServiceError(ctx, err, "Invalid parent")
	}
	places, err := c.Service.PlacesByType(ctx.Request().Context(), entities.PlaceType(ctx.QueryParam("type")), parentID)
	if err != nil {
		return c.handleServiceError(ctx, err, "Failed to list storage places")
	}
	out := make([]PlaceResponse, 0, len(places))
	for i := range places {
		out = append(out, newPlaceResponse(&places[i]))
	}
	return ctx.JSON(http.StatusOK, out)
}

// AddPlace handles POST /storage
func (c *Controller) AddPlace(ctx echo.Context) error {
	var req AddPlaceRequest
	if err := ctx.Bind(&req); err != nil {
		return c.handleServiceError(ctx, bindError(err), "Invalid request body")
	}
	place, err := c.Service.AddNode(ctx.Request().Context(), req.Name, req.Type, req.ParentID)
	if err != nil {
		return c.handleServiceError(ctx, err, "Failed to add storage place")
	}
	return ctx.JSON(http.StatusCreated, newPlaceResponse(place))
}

// MovePlace handles PUT /storage/:id/parent
func (c *Controller) MovePlace(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return c.handleServiceError(ctx, err, "Invalid storage place id")
	}
	var req MovePlaceRequest
	if err := ctx.Bind(&req); err != nil {
		return c.handleServiceError(ctx, bindError(err), "Invalid request body")
	}
	if err := c.Service.MoveNode(ctx.Request().Context(), id, req.ParentID); err != nil {
		return c.handleServiceError(ctx, err, "Failed to move storage place")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// DeletePlace handles DELETE /storage/:id
func (c *Controller) DeletePlace(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return c.handleServiceError(ctx, err, "Invalid storage place id")
	}
	if err := c.Service.DeleteNode(ctx.Request().Context(), id); err != nil {
		return c.handleServiceError(ctx, err, "Failed to delete storage place")
	}
	return ctx.NoContent(http.StatusNoContent)
}
