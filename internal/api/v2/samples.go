package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/pcrdb/internal/datastore/repository"
	"github.com/tphakala/pcrdb/internal/inventory"
)

// BulkRequest is the body of POST /samples/bulk/:operation
type BulkRequest struct {
	IDs        []uint  `json:"ids"`
	VolumeUsed float64 `json:"volume_used"`
}

// VolumeRequest is the body of PUT /samples/:id/volume
type VolumeRequest struct {
	Volume float64 `json:"volume"`
}

func (c *Controller) initSampleRoutes() {
	g := c.Group.Group("/samples")
	g.GET("", c.ListSamples)
	g.POST("", c.AddSample)
	g.GET("/mine", c.MySamples)
	g.POST("/bulk/:operation", c.BulkOperation)
	g.GET("/:id", c.GetSample)
	g.PUT("/:id", c.EditSample)
	g.PUT("/:id/volume", c.EditVolume)
	g.DELETE("/:id", c.DeleteSample)
}

// ListSamples handles GET /samples with the inventory filters as query
// parameters: q, target, sample_type, positive_for, negative_for, ct_min,
// ct_max, volume_min, volume_max and status.
func (c *Controller) ListSamples(ctx echo.Context) error {
	q := inventory.InventoryQuery{
		Search: ctx.QueryParam("q"),
		Status: repository.SampleStatus(ctx.QueryParam("status")),
	}

	var err error
	ids := []struct {
		name string
		dst  **uint
	}{
		{"target", &q.TargetID},
		{"sample_type", &q.SampleTypeID},
		{"positive_for", &q.PositiveTargetID},
		{"negative_for", &q.NegativeTargetID},
	}
	for _, p := range ids {
		if *p.dst, err = optionalID(ctx, p.name); err != nil {
			return c.handleServiceError(ctx, err, "Invalid filter")
		}
	}
	bounds := []struct {
		name string
		dst  **float64
	}{
		{"ct_min", &q.CTMin},
		{"ct_max", &q.CTMax},
		{"volume_min", &q.VolumeMin},
		{"volume_max", &q.VolumeMax},
	}
	for _, p := range bounds {
		if *p.dst, err = optionalFloat(ctx, p.name); err != nil {
			return c.handleServiceError(ctx, err, "Invalid filter")
		}
	}

	samples, err := c.Service.Inventory(ctx.Request().Context(), q)
	if err != nil {
		return c.handleServiceError(ctx, err, "Failed to list samples")
	}
	return ctx.JSON(http.StatusOK, newSampleResponses(samples))
}

// AddSample handles POST /samples
func (c *Controller) AddSample(ctx echo.Context) error {
	user := actor(ctx)
	if user.Username == "" {
		return c.missingActor(ctx)
	}
	var req SampleRequest
	if err := ctx.Bind(&req); err != nil {
		return c.handleServiceError(ctx, bindError(err), "Invalid request body")
	}
	in, err := req.Input()
	if err != nil {
		return c.handleServiceError(ctx, err, "Invalid sample")
	}
	sample, err := c.Service.AddSample(ctx.Request().Context(), in, user)
	if err != nil {
		return c.handleServiceError(ctx, err, "Failed to add sample")
	}
	return c.writeDetail(ctx, http.StatusCreated, sample.ID)
}

// GetSample handles GET /samples/:id
func (c *Controller) GetSample(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return c.handleServiceError(ctx, err, "Invalid sample id")
	}
	return c.writeDetail(ctx, http.StatusOK, id)
}

func (c *Controller) writeDetail(ctx echo.Context, status int, id uint) error {
	detail, err := c.Service.GetSample(ctx.Request().Context(), id)
	if err != nil {
		return c.handleServiceError(ctx, err, "Failed to load sample")
	}
	return ctx.JSON(status, newSampleDetailResponse(detail))
}

// EditSample handles PUT /samples/:id
func (c *Controller) EditSample(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return c.handleServiceError(ctx, err, "Invalid sample id")
	}
	var req SampleRequest
	if err := ctx.Bind(&req); err != nil {
		return c.handleServiceError(ctx, bindError(err), "Invalid request body")
	}
	in, err := req.Input()
	if err != nil {
		return c.handleServiceError(ctx, err, "Invalid sample")
	}
	if _, err := c.Service.EditSample(ctx.Request().Context(), id, in); err != nil {
		return c.handleServiceError(ctx, err, "Failed to update sample")
	}
	return c.writeDetail(ctx, http.StatusOK, id)
}

// EditVolume handles PUT /samples/:id/volume. The remaining volume moves by
// the same amount as the initial volume.
func (c *Controller) EditVolume(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return c.handleServiceError(ctx, err, "Invalid sample id")
	}
	var req VolumeRequest
	if err := ctx.Bind(&req); err != nil {
		return c.handleServiceError(ctx, bindError(err), "Invalid request body")
	}
	if _, err := c.Service.EditVolume(ctx.Request().Context(), id, req.Volume); err != nil {
		return c.handleServiceError(ctx, err, "Failed to update volume")
	}
	return c.writeDetail(ctx, http.StatusOK, id)
}

// DeleteSample handles DELETE /samples/:id
func (c *Controller) DeleteSample(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return c.handleServiceError(ctx, err, "Invalid sample id")
	}
	if err := c.Service.DeleteSample(ctx.Request().Context(), id, actor(ctx)); err != nil {
		return c.handleServiceError(ctx, err, "Failed to delete sample")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// MySamples handles GET /samples/mine
func (c *Controller) MySamples(ctx echo.Context) error {
	user := actor(ctx)
	if user.Username == "" {
		return c.missingActor(ctx)
	}
	samples, err := c.Service.MySamples(ctx.Request().Context(), user)
	if err != nil {
		return c.handleServiceError(ctx, err, "Failed to list your samples")
	}
	return ctx.JSON(http.StatusOK, newSampleResponses(samples))
}

// BulkOperation handles POST /samples/bulk/:operation
func (c *Controller) BulkOperation(ctx echo.Context) error {
	user := actor(ctx)
	if user.Username == "" {
		return c.missingActor(ctx)
	}
	op, err := inventory.ParseOperation(ctx.Param("operation"))
	if err != nil {
		return c.handleServiceError(ctx, err, "Unknown operation")
	}
	var req BulkRequest
	if err := ctx.Bind(&req); err != nil {
		return c.handleServiceError(ctx, bindError(err), "Invalid request body")
	}

	result, err := c.Service.Bulk(ctx.Request().Context(), inventory.BulkRequest{
		Operation:  op,
		SampleIDs:  req.IDs,
		Actor:      user,
		VolumeUsed: req.VolumeUsed,
	})
	if err != nil {
		return c.handleServiceError(ctx, err, "Bulk operation failed")
	}
	return ctx.JSON(http.StatusOK, result)
}
