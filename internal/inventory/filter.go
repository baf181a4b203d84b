package inventory

import (
	"context"

	"github.com/tphakala/pcrdb/internal/datastore/repository"
)

// InventoryQuery holds the filters of the inventory listing. Bounds equal
// to the configured defaults are ignored, so samples without CT values are
// listed until the user narrows the CT range.
type InventoryQuery struct {
	Search           string
	TargetID         *uint
	SampleTypeID     *uint
	PositiveTargetID *uint
	NegativeTargetID *uint
	CTMin            *float64
	CTMax            *float64
	VolumeMin        *float64
	VolumeMax        *float64
	Status           repository.SampleStatus
}

func boundIfChanged(v *float64, def float64) *float64 {
	if v == nil || *v == def {
		return nil
	}
	return v
}

// Inventory lists samples matching q, ordered by internal number.
func (s *Service) Inventory(ctx context.Context, q InventoryQuery) ([]SampleSummary, error) {
	switch q.Status {
	case repository.StatusAny, repository.StatusAvailable, repository.StatusReserved,
		repository.StatusInUse, repository.StatusNotFound:
	default:
		return nil, validationError("status", "unknown status %q", q.Status)
	}

	r := s.read()
	f := repository.SampleFilter{
		Search:       normalizeName(q.Search),
		TargetID:     q.TargetID,
		SampleTypeID: q.SampleTypeID,
		CTMin:        boundIfChanged(q.CTMin, s.settings.CTMin),
		CTMax:        boundIfChanged(q.CTMax, s.settings.CTMax),
		VolumeMin:    boundIfChanged(q.VolumeMin, s.settings.VolumeMin),
		VolumeMax:    boundIfChanged(q.VolumeMax, s.settings.VolumeMax),
		Status:       q.Status,
	}

	if q.PositiveTargetID != nil {
		target, err := r.lookups.GetByID(ctx, repository.KindTarget, *q.PositiveTargetID)
		if err != nil {
			return nil, databaseError(mapRepoError(err, *q.PositiveTargetID), "inventory")
		}
		f.PositiveTarget = target.Name
	}
	if q.NegativeTargetID != nil {
		target, err := r.lookups.GetByID(ctx, repository.KindTarget, *q.NegativeTargetID)
		if err != nil {
			return nil, databaseError(mapRepoError(err, *q.NegativeTargetID), "inventory")
		}
		f.NegativeTarget = target.Name
	}

	samples, err := r.samples.Filter(ctx, f)
	if err != nil {
		return nil, databaseError(err, "inventory")
	}
	return summarize(samples), nil
}
