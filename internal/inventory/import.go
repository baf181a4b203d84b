package inventory

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/pcrdb/internal/datastore/entities"
	"github.com/tphakala/pcrdb/internal/datastore/repository"
	"github.com/tphakala/pcrdb/internal/errors"
	"github.com/tphakala/pcrdb/internal/logger"
)

// ImportRow is one spreadsheet row as raw cell text. Row is the 1-based
// sheet row number used in error messages.
type ImportRow struct {
	Row             int
	InternalNumber  string
	ProviderNumber  string
	Provider        string
	Target          string
	PositiveFor     string
	NegativeFor     string
	SampleType      string
	StoragePlace    string
	DrawDate        string
	Age             string
	Gender          string
	CountryOfOrigin string
	ExtractionDate  string
	Extractor       string
	Cycler          string
	MikrogenKit     string
	ExternalKit     string
	MikrogenCT      string
	ExternalCT      string
	Volume          string
	Notes           string
}

// ImportResult summarizes an import. Errors holds the first messages only.
type ImportResult struct {
	Imported   int      `json:"imported"`
	ErrorCount int      `json:"error_count"`
	Errors     []string `json:"errors,omitempty"`
}

func (r *ImportResult) addError(limit int, msg string) {
	r.ErrorCount++
	if len(r.Errors) < limit {
		r.Errors = append(r.Errors, msg)
	}
}

var errMissingRequired = errors.NewStd("missing required fields")

// dateLayouts are the date renderings accepted from spreadsheets
var dateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	time.RFC3339,
	"02.01.2006",
	"2.1.2006",
	"01-02-06",
}

func parseDate(field, s string) (*time.Time, error) {
	if s = strings.TrimSpace(s); s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, validationError(field, "invalid date %q", s)
}

// parseNumber accepts a decimal point or a decimal comma.
func parseNumber(field, s string) (*float64, error) {
	if s = strings.TrimSpace(s); s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, validationError(field, "invalid number %q", s)
	}
	return &v, nil
}

func parseAge(s string) (*int, error) {
	v, err := parseNumber("age", s)
	if err != nil || v == nil {
		return nil, err
	}
	if *v < 0 || *v != math.Trunc(*v) {
		return nil, validationError("age", "invalid age %q", s)
	}
	age := int(*v)
	return &age, nil
}

// NewTargets returns the target names used by rows that do not exist yet,
// so callers can confirm them before importing.
func (s *Service) NewTargets(ctx context.Context, rows []ImportRow) ([]string, error) {
	r := s.read()
	seen := make(map[string]bool)
	var missing []string
	for i := range rows {
		names := append([]string{rows[i].Target}, SplitTargets(rows[i].PositiveFor)...)
		names = append(names, SplitTargets(rows[i].NegativeFor)...)
		for _, name := range names {
			name = normalizeName(name)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			_, err := r.lookups.GetByName(ctx, repository.KindTarget, name)
			switch {
			case errors.Is(err, repository.ErrLookupNotFound):
				missing = append(missing, name)
			case err != nil:
				return nil, databaseError(err, "import_targets")
			}
		}
	}
	return missing, nil
}

// Import creates one sample per row. Every row commits on its own; rows
// with missing fields, bad values or an existing internal number are
// reported and skipped. Referenced lookups are created on demand.
func (s *Service) Import(ctx context.Context, rows []ImportRow, actor Actor) (*ImportResult, error) {
	if normalizeName(actor.Username) == "" {
		return nil, validationError("user", "acting user is required")
	}

	started := time.Now()
	result := &ImportResult{}
	var events []Event
	for i := range rows {
		sample, err := s.importRow(ctx, &rows[i], actor)
		if err != nil {
			result.addError(s.settings.ImportErrorLimit, importMessage(rows[i], err))
			continue
		}
		result.Imported++
		events = append(events, s.newEvent(EventImported, sample.ID, sample.InternalNumber, actor.Username))
	}

	s.metrics.RecordImport(result.Imported, result.ErrorCount)
	s.metrics.RecordOperation("import", started, nil)
	if result.Imported > 0 {
		s.invalidate(dashboardCacheKey, treeCacheKey)
		s.publish(ctx, events...)
	}
	s.log.Info("import finished",
		logger.String("user", actor.Username),
		logger.Int("rows", len(rows)),
		logger.Int("imported", result.Imported),
		logger.Int("errors", result.ErrorCount))
	return result, nil
}

func importMessage(row ImportRow, err error) string {
	switch {
	case errors.Is(err, errMissingRequired):
		return fmt.Sprintf("Row %d: Missing required fields", row.Row)
	case errors.Is(err, ErrDuplicateInternalNumber):
		return fmt.Sprintf("Row %d: Sample with Mikrogen Internal Number '%s' already exists in the database.",
			row.Row, normalizeName(row.InternalNumber))
	}
	return fmt.Sprintf("Error in row %d: %v", row.Row, err)
}

// rowValues holds the coerced optional values of a row
type rowValues struct {
	volume     float64
	drawDate   *time.Time
	extraction *time.Time
	age        *int
	gender     *entities.Gender
	mikrogenCT *float64
	externalCT *float64
}

func (row *ImportRow) coerce() (*rowValues, error) {
	if normalizeName(row.InternalNumber) == "" || normalizeName(row.Provider) == "" ||
		normalizeName(row.Target) == "" || normalizeName(row.SampleType) == "" ||
		strings.TrimSpace(row.Volume) == "" {
		return nil, errMissingRequired
	}

	v := &rowValues{}
	volume, err := parseNumber("volume", row.Volume)
	if err != nil {
		return nil, err
	}
	if *volume < 0 {
		return nil, validationError("volume", "volume cannot be negative")
	}
	v.volume = *volume
	if v.drawDate, err = parseDate("draw_date", row.DrawDate); err != nil {
		return nil, err
	}
	if v.extraction, err = parseDate("extraction_date", row.ExtractionDate); err != nil {
		return nil, err
	}
	if v.age, err = parseAge(row.Age); err != nil {
		return nil, err
	}
	if v.mikrogenCT, err = parseNumber("mikrogen_ct", row.MikrogenCT); err != nil {
		return nil, err
	}
	if v.externalCT, err = parseNumber("external_ct", row.ExternalCT); err != nil {
		return nil, err
	}
	if g := strings.TrimSpace(row.Gender); g != "" {
		gender, ok := parseGender(g)
		if !ok {
			return nil, validationError("gender", "unknown gender %q", g)
		}
		v.gender = &gender
	}
	return v, nil
}

func (s *Service) importRow(ctx context.Context, row *ImportRow, actor Actor) (*entities.Sample, error) {
	values, err := row.coerce()
	if err != nil {
		return nil, err
	}

	sample := &entities.Sample{}
	err = s.db.Transaction(ctx, func(tx *gorm.DB) error {
		r := newRepos(tx)
		number := normalizeName(row.InternalNumber)
		exists, err := r.samples.ExistsInternalNumber(ctx, number, 0)
		if err != nil {
			return err
		}
		if exists {
			return duplicateError(ErrDuplicateInternalNumber, number)
		}

		user, err := s.resolveUser(ctx, r, actor)
		if err != nil {
			return err
		}
		if err := s.resolveRowReferences(ctx, r, row, sample); err != nil {
			return err
		}

		sample.InternalNumber = number
		sample.ProviderNumber = normalizeName(row.ProviderNumber)
		sample.PositiveFor = joinTargets(SplitTargets(row.PositiveFor))
		sample.NegativeFor = joinTargets(SplitTargets(row.NegativeFor))
		sample.DrawDate = values.drawDate
		sample.ExtractionDate = values.extraction
		sample.Age = values.age
		sample.Gender = values.gender
		sample.CountryOfOrigin = normalizeName(row.CountryOfOrigin)
		sample.MikrogenCT = values.mikrogenCT
		sample.ExternalCT = values.externalCT
		sample.Volume = values.volume
		sample.VolumeRemaining = values.volume
		sample.Notes = row.Notes
		sample.AddedByID = &user.ID
		return s.createSample(ctx, r, sample)
	})
	if err != nil {
		return nil, databaseError(err, "import_row")
	}
	return sample, nil
}

// resolveRowReferences gets or creates every lookup a row names.
func (s *Service) resolveRowReferences(ctx context.Context, r repos, row *ImportRow, sample *entities.Sample) error {
	required := []struct {
		kind repository.LookupKind
		name string
		dst  *uint
	}{
		{repository.KindProvider, row.Provider, &sample.ProviderID},
		{repository.KindTarget, row.Target, &sample.TargetID},
		{repository.KindSampleType, row.SampleType, &sample.SampleTypeID},
	}
	for _, ref := range required {
		entry, err := r.lookups.GetOrCreate(ctx, ref.kind, normalizeName(ref.name))
		if err != nil {
			return err
		}
		*ref.dst = entry.ID
	}

	optional := []struct {
		kind repository.LookupKind
		name string
		dst  **uint
	}{
		{repository.KindExtractor, row.Extractor, &sample.ExtractorID},
		{repository.KindCycler, row.Cycler, &sample.CyclerID},
		{repository.KindMikrogenKit, row.MikrogenKit, &sample.MikrogenKitID},
		{repository.KindExternalKit, row.ExternalKit, &sample.ExternalKitID},
	}
	for _, ref := range optional {
		name := normalizeName(ref.name)
		if name == "" {
			continue
		}
		entry, err := r.lookups.GetOrCreate(ctx, ref.kind, name)
		if err != nil {
			return err
		}
		*ref.dst = &entry.ID
	}

	// Targets listed as positive or negative become selectable filter values.
	for _, name := range append(SplitTargets(row.PositiveFor), SplitTargets(row.NegativeFor)...) {
		if _, err := r.lookups.GetOrCreate(ctx, repository.KindTarget, normalizeName(name)); err != nil {
			return err
		}
	}

	if name := normalizeName(row.StoragePlace); name != "" {
		place, err := r.places.GetOrCreateByName(ctx, name)
		if err != nil {
			return err
		}
		sample.StorageID = &place.ID
	}
	return nil
}
