package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (c *Controller) initReportRoutes() {
	c.Group.GET("/dashboard", c.GetDashboard)
	c.Group.GET("/overdue", c.GetOverdue)
}

// GetDashboard handles GET /dashboard
func (c *Controller) GetDashboard(ctx echo.Context) error {
	d, err := c.Service.Dashboard(ctx.Request().Context())
	if err != nil {
		return c.handleServiceError(ctx, err, "Failed to build dashboard")
	}
	return ctx.JSON(http.StatusOK, d)
}

// GetOverdue handles GET /overdue. The report is read-only; reminders are
// sent by the overdue command.
func (c *Controller) GetOverdue(ctx echo.Context) error {
	users, err := c.Service.Overdue(ctx.Request().Context())
	if err != nil {
		return c.handleServiceError(ctx, err, "Failed to build overdue report")
	}
	return ctx.JSON(http.StatusOK, users)
}
