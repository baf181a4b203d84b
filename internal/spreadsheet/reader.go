package spreadsheet

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tphakala/pcrdb/internal/errors"
	"github.com/tphakala/pcrdb/internal/inventory"
)

const component = "spreadsheet"

// ErrMissingColumns is returned when the header lacks a required column
var ErrMissingColumns = errors.NewStd("missing required columns")

// ReadImport parses the first sheet of an xlsx workbook into import rows.
// The first row is the header; columns are matched by name in any order and
// unknown columns are ignored. Blank rows are skipped.
func ReadImport(r io.Reader) ([]inventory.ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.New(err).
			Component(component).
			Category(errors.CategoryValidation).
			Context("operation", "open_workbook").
			Build()
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.Newf("workbook has no sheets").
			Component(component).
			Category(errors.CategoryValidation).
			Build()
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.New(err).
			Component(component).
			Category(errors.CategoryFileParsing).
			Context("sheet", sheets[0]).
			Build()
	}
	if len(rows) == 0 {
		return nil, missingColumns(RequiredColumns)
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, missingColumns(missing)
	}

	out := make([]inventory.ImportRow, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		if blank(cells) {
			continue
		}
		cell := func(col string) string {
			pos, ok := index[col]
			if !ok || pos >= len(cells) {
				return ""
			}
			v := strings.TrimSpace(cells[pos])
			if dateColumns[col] {
				return serialDate(v)
			}
			return v
		}
		out = append(out, inventory.ImportRow{
			Row:             i + 2,
			InternalNumber:  cell(ColInternalNumber),
			ProviderNumber:  cell(ColProviderNumber),
			Provider:        cell(ColProvider),
			Target:          cell(ColTarget),
			PositiveFor:     cell(ColPositiveFor),
			NegativeFor:     cell(ColNegativeFor),
			SampleType:      cell(ColSampleType),
			StoragePlace:    cell(ColStoragePlace),
			DrawDate:        cell(ColDrawDate),
			Age:             cell(ColAge),
			Gender:          cell(ColGender),
			CountryOfOrigin: cell(ColCountry),
			ExtractionDate:  cell(ColExtractionDate),
			Extractor:       cell(ColExtractor),
			Cycler:          cell(ColCycler),
			MikrogenKit:     cell(ColMikrogenKit),
			ExternalKit:     cell(ColExternalKit),
			MikrogenCT:      cell(ColMikrogenCT),
			ExternalCT:      cell(ColExternalCT),
			Volume:          cell(ColVolume),
			Notes:           cell(ColNotes),
		})
	}
	return out, nil
}

func missingColumns(cols []string) error {
	return errors.Newf("%w: %s", ErrMissingColumns, strings.Join(cols, ", ")).
		Component(component).
		Category(errors.CategoryValidation).
		Context("columns", cols).
		Build()
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// serialDate turns an Excel date serial into YYYY-MM-DD. Text dates pass through.
func serialDate(v string) string {
	serial, err := strconv.ParseFloat(v, 64)
	if err != nil || serial <= 0 {
		return v
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return v
	}
	return t.Format(time.DateOnly)
}
