package spreadsheet

import (
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tphakala/pcrdb/internal/errors"
	"github.com/tphakala/pcrdb/internal/inventory"
)

const sheetName = "Sheet1"

// WriteExport writes rows as a workbook in the export column order.
func WriteExport(w io.Writer, rows []inventory.ExportRow) error {
	f, err := newWorkbook(ExportColumns)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return writeError(err)
		}
		if err := f.SetSheetRow(sheetName, cell, exportValues(&rows[i])); err != nil {
			return writeError(err)
		}
	}
	return flush(f, w)
}

// WriteTemplate writes an empty import sheet with only the header row.
func WriteTemplate(w io.Writer) error {
	f, err := newWorkbook(ImportColumns)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return flush(f, w)
}

func newWorkbook(header []string) (*excelize.File, error) {
	f := excelize.NewFile()
	values := make([]any, len(header))
	for i, h := range header {
		values[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &values); err != nil {
		_ = f.Close()
		return nil, writeError(err)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, writeError(err)
	}
	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		_ = f.Close()
		return nil, writeError(err)
	}
	if err := f.SetCellStyle(sheetName, "A1", last+"1", style); err != nil {
		_ = f.Close()
		return nil, writeError(err)
	}
	return f, nil
}

func flush(f *excelize.File, w io.Writer) error {
	if _, err := f.WriteTo(w); err != nil {
		return writeError(err)
	}
	return nil
}

func writeError(err error) error {
	return errors.New(err).
		Component(component).
		Category(errors.CategoryFileIO).
		Context("operation", "write_workbook").
		Build()
}

func exportValues(r *inventory.ExportRow) *[]any {
	values := []any{
		r.InternalNumber,
		r.ProviderNumber,
		r.Provider,
		r.Target,
		r.PositiveFor,
		r.NegativeFor,
		r.SampleType,
		r.StoragePlace,
		dateCell(r.DrawDate),
		optional(r.Age),
		r.Gender,
		r.CountryOfOrigin,
		dateCell(r.ExtractionDate),
		r.Extractor,
		r.Cycler,
		r.MikrogenKit,
		r.ExternalKit,
		optional(r.MikrogenCT),
		optional(r.ExternalCT),
		r.Volume,
		r.VolumeRemaining,
		r.Notes,
	}
	return &values
}

func dateCell(t *time.Time) any {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}

func optional[T any](v *T) any {
	if v == nil {
		return ""
	}
	return *v
}
