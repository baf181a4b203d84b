package inventory

import (
	"context"
	"time"

	"github.com/tphakala/pcrdb/internal/datastore/entities"
	"github.com/tphakala/pcrdb/internal/logger"
)

// ExportRow is the flat projection of a sample with references resolved to names.
type ExportRow struct {
	InternalNumber  string
	ProviderNumber  string
	Provider        string
	Target          string
	PositiveFor     string
	NegativeFor     string
	SampleType      string
	StoragePlace    string
	DrawDate        *time.Time
	Age             *int
	Gender          string
	CountryOfOrigin string
	ExtractionDate  *time.Time
	Extractor       string
	Cycler          string
	MikrogenKit     string
	ExternalKit     string
	MikrogenCT      *float64
	ExternalCT      *float64
	Volume          float64
	VolumeRemaining float64
	Notes           string
}

func lookupName[T any](v *T, name func(*T) string) string {
	if v == nil {
		return ""
	}
	return name(v)
}

func exportRow(s *entities.Sample) ExportRow {
	return ExportRow{
		InternalNumber:  s.InternalNumber,
		ProviderNumber:  s.ProviderNumber,
		Provider:        lookupName(s.Provider, func(p *entities.Provider) string { return p.Name }),
		Target:          lookupName(s.Target, func(t *entities.Target) string { return t.Name }),
		PositiveFor:     s.PositiveFor,
		NegativeFor:     s.NegativeFor,
		SampleType:      lookupName(s.SampleType, func(t *entities.SampleType) string { return t.Name }),
		StoragePlace:    lookupName(s.Storage, func(p *entities.StoragePlace) string { return p.Name }),
		DrawDate:        s.DrawDate,
		Age:             s.Age,
		Gender:          genderLabel(s.Gender),
		CountryOfOrigin: s.CountryOfOrigin,
		ExtractionDate:  s.ExtractionDate,
		Extractor:       lookupName(s.Extractor, func(e *entities.Extractor) string { return e.Name }),
		Cycler:          lookupName(s.Cycler, func(c *entities.Cycler) string { return c.Name }),
		MikrogenKit:     lookupName(s.MikrogenKit, func(k *entities.PCRKit) string { return k.Name }),
		ExternalKit:     lookupName(s.ExternalKit, func(k *entities.PCRKit) string { return k.Name }),
		MikrogenCT:      s.MikrogenCT,
		ExternalCT:      s.ExternalCT,
		Volume:          s.Volume,
		VolumeRemaining: s.VolumeRemaining,
		Notes:           s.Notes,
	}
}

// Export returns the rows of the given samples, ordered by internal number.
// Samples that are not in use are checked out to the actor in the same
// transaction, so an export doubles as a checkout.
func (s *Service) Export(ctx context.Context, ids []uint, actor Actor) ([]ExportRow, error) {
	if len(ids) == 0 {
		return nil, validationError("ids", "no samples selected")
	}

	var rows []ExportRow
	var events []Event
	err := s.inTx(ctx, "export", func(r repos) error {
		user, err := s.resolveUser(ctx, r, actor)
		if err != nil {
			return err
		}
		samples, err := r.samples.GetByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if len(samples) == 0 {
			return notFoundError(ErrSampleNotFound, ids)
		}

		at := s.now()
		for i := range samples {
			sample := &samples[i]
			if !sample.InUse {
				t := &transition{r: r, sample: sample, user: user, at: at}
				if err := t.checkout(ctx); err != nil {
					return err
				}
				events = append(events, s.newEvent(EventCheckout, sample.ID, sample.InternalNumber, user.Username))
			}
			rows = append(rows, exportRow(sample))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(events) > 0 {
		s.invalidate(dashboardCacheKey)
		s.publish(ctx, events...)
	}
	s.log.Info("samples exported",
		logger.String("user", actor.Username),
		logger.Int("rows", len(rows)),
		logger.Int("checked_out", len(events)))
	return rows, nil
}
