package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/pcrdb/internal/errors"
	"github.com/tphakala/pcrdb/internal/spreadsheet"
)

// importFormField is the multipart field carrying the workbook
const importFormField = "file"

// ExportRequest is the body of POST /export
type ExportRequest struct {
	IDs []uint `json:"ids"`
}

// ImportPreview lists the targets an import would create
type ImportPreview struct {
	Rows       int      `json:"rows"`
	NewTargets []string `json:"new_targets"`
}

func (c *Controller) initTransferRoutes() {
	c.Group.POST("/import", c.ImportSamples)
	c.Group.GET("/import/template", c.ImportTemplate)
	c.Group.POST("/export", c.ExportSamples)
}

// ImportSamples handles POST /import. With ?preview=true nothing is
// written and the response lists the targets the import would create.
func (c *Controller) ImportSamples(ctx echo.Context) error {
	user := actor(ctx)
	if user.Username == "" {
		return c.missingActor(ctx)
	}

	fh, err := ctx.FormFile(importFormField)
	if err != nil {
		return c.handleServiceError(ctx, bindError(err), "Missing workbook upload")
	}
	file, err := fh.Open()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to read upload", http.StatusBadRequest)
	}
	defer file.Close() //nolint:errcheck // multipart part, read-only

	rows, err := spreadsheet.ReadImport(file)
	if err != nil {
		if errors.IsDomain(err) {
			return c.handleServiceError(ctx, err, "Invalid workbook")
		}
		return c.HandleError(ctx, err, "Failed to parse workbook", http.StatusBadRequest)
	}

	reqCtx := ctx.Request().Context()
	if ctx.QueryParam("preview") == "true" {
		targets, err := c.Service.NewTargets(reqCtx, rows)
		if err != nil {
			return c.handleServiceError(ctx, err, "Failed to preview import")
		}
		return ctx.JSON(http.StatusOK, ImportPreview{Rows: len(rows), NewTargets: targets})
	}

	result, err := c.Service.Import(reqCtx, rows, user)
	if err != nil {
		return c.handleServiceError(ctx, err, "Import failed")
	}
	return ctx.JSON(http.StatusOK, result)
}

// ExportSamples handles POST /export. Exported samples not held by anyone
// are checked out to the caller.
func (c *Controller) ExportSamples(ctx echo.Context) error {
	user := actor(ctx)
	if user.Username == "" {
		return c.missingActor(ctx)
	}
	var req ExportRequest
	if err := ctx.Bind(&req); err != nil {
		return c.handleServiceError(ctx, bindError(err), "Invalid request body")
	}

	rows, err := c.Service.Export(ctx.Request().Context(), req.IDs, user)
	if err != nil {
		return c.handleServiceError(ctx, err, "Export failed")
	}

	var buf bytes.Buffer
	if err := spreadsheet.WriteExport(&buf, rows); err != nil {
		return c.HandleError(ctx, err, "Failed to write workbook", http.StatusInternalServerError)
	}
	return c.attachment(ctx, spreadsheet.ExportFilename(time.Now()), &buf)
}

// ImportTemplate handles GET /import/template
func (c *Controller) ImportTemplate(ctx echo.Context) error {
	var buf bytes.Buffer
	if err := spreadsheet.WriteTemplate(&buf); err != nil {
		return c.HandleError(ctx, err, "Failed to write template", http.StatusInternalServerError)
	}
	return c.attachment(ctx, spreadsheet.TemplateFilename, &buf)
}

func (c *Controller) attachment(ctx echo.Context, filename string, buf *bytes.Buffer) error {
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Blob(http.StatusOK, spreadsheet.ContentType, buf.Bytes())
}
