package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/tphakala/pcrdb/internal/datastore/entities"
	"github.com/tphakala/pcrdb/internal/datastore/repository"
	"github.com/tphakala/pcrdb/internal/errors"
	"github.com/tphakala/pcrdb/internal/logger"
)

// SampleInput carries the editable fields of a sample.
type SampleInput struct {
	InternalNumber string
	ProviderNumber string
	ProviderID     uint
	TargetID       uint
	SampleTypeID   uint

	// Location pickers; the most specific one given wins.
	RoomID    *uint
	FreezerID *uint
	DrawerID  *uint
	BoxID     *uint

	ExtractorID   *uint
	CyclerID      *uint
	MikrogenKitID *uint
	ExternalKitID *uint
	MikrogenCT    *float64
	ExternalCT    *float64

	DrawDate        *time.Time
	ExtractionDate  *time.Time
	Gender          string
	Age             *int
	CountryOfOrigin string

	Volume      float64
	PositiveFor []string
	NegativeFor []string
	Notes       string
}

// storageID picks the box, then drawer, freezer and room.
func (in *SampleInput) storageID() *uint {
	for _, id := range []*uint{in.BoxID, in.DrawerID, in.FreezerID, in.RoomID} {
		if id != nil && *id != 0 {
			return id
		}
	}
	return nil
}

func (in *SampleInput) validate() (*entities.Gender, error) {
	var fe FieldErrors
	in.InternalNumber = normalizeName(in.InternalNumber)
	if in.InternalNumber == "" {
		fe.add("internal_number", "internal number is required")
	}
	if in.ProviderID == 0 {
		fe.add("provider", "provider is required")
	}
	if in.TargetID == 0 {
		fe.add("target", "target is required")
	}
	if in.SampleTypeID == 0 {
		fe.add("sample_type", "sample type is required")
	}
	if in.Volume < 0 {
		fe.add("volume", "volume cannot be negative")
	}
	if in.Age != nil && *in.Age < 0 {
		fe.add("age", "age cannot be negative")
	}
	var gender *entities.Gender
	if in.Gender != "" {
		g, ok := parseGender(in.Gender)
		if !ok {
			fe.add("gender", "unknown gender %q", in.Gender)
		} else {
			gender = &g
		}
	}
	return gender, fe.err()
}

// checkReferences verifies that every referenced row exists and that kits have the right kind.
func (s *Service) checkReferences(ctx context.Context, r repos, in *SampleInput) error {
	required := []struct {
		kind repository.LookupKind
		id   *uint
	}{
		{repository.KindProvider, &in.ProviderID},
		{repository.KindTarget, &in.TargetID},
		{repository.KindSampleType, &in.SampleTypeID},
		{repository.KindExtractor, in.ExtractorID},
		{repository.KindCycler, in.CyclerID},
		{repository.KindMikrogenKit, in.MikrogenKitID},
		{repository.KindExternalKit, in.ExternalKitID},
	}
	for _, ref := range required {
		if ref.id == nil {
			continue
		}
		if _, err := r.lookups.GetByID(ctx, ref.kind, *ref.id); err != nil {
			return mapRepoError(err, fmt.Sprintf("%s %d", ref.kind, *ref.id))
		}
	}
	pickers := []struct {
		placeType entities.PlaceType
		id        *uint
	}{
		{entities.PlaceRoom, in.RoomID},
		{entities.PlaceFreezer, in.FreezerID},
		{entities.PlaceDrawer, in.DrawerID},
		{entities.PlaceBox, in.BoxID},
	}
	var fe FieldErrors
	for _, p := range pickers {
		if p.id == nil || *p.id == 0 {
			continue
		}
		place, err := r.places.GetByID(ctx, *p.id)
		if err != nil {
			return mapRepoError(err, *p.id)
		}
		if place.Type != p.placeType {
			fe.add(string(p.placeType), "storage place %d is a %s, not a %s", *p.id, place.Type, p.placeType)
		}
	}
	return fe.err()
}

func (in *SampleInput) applyTo(sample *entities.Sample, gender *entities.Gender) {
	sample.InternalNumber = in.InternalNumber
	sample.ProviderNumber = normalizeName(in.ProviderNumber)
	sample.ProviderID = in.ProviderID
	sample.TargetID = in.TargetID
	sample.SampleTypeID = in.SampleTypeID
	sample.StorageID = in.storageID()
	sample.ExtractorID = in.ExtractorID
	sample.CyclerID = in.CyclerID
	sample.MikrogenKitID = in.MikrogenKitID
	sample.ExternalKitID = in.ExternalKitID
	sample.MikrogenCT = in.MikrogenCT
	sample.ExternalCT = in.ExternalCT
	sample.DrawDate = in.DrawDate
	sample.ExtractionDate = in.ExtractionDate
	sample.Gender = gender
	sample.Age = in.Age
	sample.CountryOfOrigin = normalizeName(in.CountryOfOrigin)
	sample.PositiveFor = joinTargets(in.PositiveFor)
	sample.NegativeFor = joinTargets(in.NegativeFor)
	sample.Notes = in.Notes
}

// AddSample creates a sample with its remaining volume equal to its volume.
func (s *Service) AddSample(ctx context.Context, in SampleInput, actor Actor) (*entities.Sample, error) {
	gender, err := in.validate()
	if err != nil {
		return nil, err
	}

	sample := &entities.Sample{}
	err = s.inTx(ctx, "sample_add", func(r repos) error {
		user, err := s.resolveUser(ctx, r, actor)
		if err != nil {
			return err
		}
		if err := s.checkReferences(ctx, r, &in); err != nil {
			return err
		}
		exists, err := r.samples.ExistsInternalNumber(ctx, in.InternalNumber, 0)
		if err != nil {
			return err
		}
		if exists {
			return duplicateError(ErrDuplicateInternalNumber, in.InternalNumber)
		}

		in.applyTo(sample, gender)
		sample.Volume = in.Volume
		sample.VolumeRemaining = in.Volume
		sample.AddedByID = &user.ID
		return s.createSample(ctx, r, sample)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(dashboardCacheKey)
	s.log.Info("sample added",
		logger.String("internal_number", sample.InternalNumber),
		logger.String("user", actor.Username))
	return sample, nil
}

// createSample maps a unique constraint race onto the duplicate error.
func (s *Service) createSample(ctx context.Context, r repos, sample *entities.Sample) error {
	err := r.samples.Create(ctx, sample)
	if errors.Is(err, repository.ErrDuplicateKey) {
		return duplicateError(ErrDuplicateInternalNumber, sample.InternalNumber)
	}
	return err
}

// EditSample replaces the editable fields. Changing the total volume shifts
// the remaining volume by the same amount.
func (s *Service) EditSample(ctx context.Context, id uint, in SampleInput) (*entities.Sample, error) {
	gender, err := in.validate()
	if err != nil {
		return nil, err
	}

	var sample *entities.Sample
	err = s.inTx(ctx, "sample_edit", func(r repos) error {
		var err error
		sample, err = r.samples.GetByIDForUpdate(ctx, id)
		if err != nil {
			return mapRepoError(err, id)
		}
		if err := s.checkReferences(ctx, r, &in); err != nil {
			return err
		}
		if in.InternalNumber != sample.InternalNumber {
			exists, err := r.samples.ExistsInternalNumber(ctx, in.InternalNumber, sample.ID)
			if err != nil {
				return err
			}
			if exists {
				return duplicateError(ErrDuplicateInternalNumber, in.InternalNumber)
			}
		}

		in.applyTo(sample, gender)
		sample.VolumeRemaining = applyVolumeEdit(sample.Volume, in.Volume, sample.VolumeRemaining)
		sample.Volume = in.Volume
		err = r.samples.Save(ctx, sample)
		if errors.Is(err, repository.ErrDuplicateKey) {
			return duplicateError(ErrDuplicateInternalNumber, sample.InternalNumber)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(dashboardCacheKey)
	return sample, nil
}

// EditVolume changes only the total volume of a sample.
func (s *Service) EditVolume(ctx context.Context, id uint, volume float64) (*entities.Sample, error) {
	if volume < 0 {
		return nil, validationError("volume", "volume cannot be negative")
	}
	var sample *entities.Sample
	err := s.inTx(ctx, "sample_edit_volume", func(r repos) error {
		var err error
		sample, err = r.samples.GetByIDForUpdate(ctx, id)
		if err != nil {
			return mapRepoError(err, id)
		}
		sample.VolumeRemaining = applyVolumeEdit(sample.Volume, volume, sample.VolumeRemaining)
		sample.Volume = volume
		return r.samples.Save(ctx, sample)
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(dashboardCacheKey)
	return sample, nil
}

// DeleteSample hard deletes a sample together with its ledger.
func (s *Service) DeleteSample(ctx context.Context, id uint, actor Actor) error {
	var sample *entities.Sample
	err := s.inTx(ctx, "sample_delete", func(r repos) error {
		var err error
		sample, err = r.samples.GetByIDForUpdate(ctx, id)
		if err != nil {
			return mapRepoError(err, id)
		}
		return r.samples.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.invalidate(dashboardCacheKey)
	s.publish(ctx, s.newEvent(EventDeleted, sample.ID, sample.InternalNumber, actor.Username))
	s.log.Info("sample deleted",
		logger.String("internal_number", sample.InternalNumber),
		logger.String("user", actor.Username))
	return nil
}

// SampleSummary is a sample with its derived values
type SampleSummary struct {
	entities.Sample
	VolumePercentage float64
	Reserved         bool
}

func summarize(samples []entities.Sample) []SampleSummary {
	out := make([]SampleSummary, len(samples))
	for i := range samples {
		out[i] = SampleSummary{
			Sample:           samples[i],
			VolumePercentage: samples[i].VolumePercentage(),
			Reserved:         samples[i].IsReserved(),
		}
	}
	return out
}

// SampleDetail is the full view of one sample
type SampleDetail struct {
	SampleSummary
	StoragePath     string
	PositiveTargets []string
	NegativeTargets []string
	History         []entities.UsageLog
}

// GetSample returns a sample with its storage path and ledger, newest first.
func (s *Service) GetSample(ctx context.Context, id uint) (*SampleDetail, error) {
	r := s.read()
	sample, err := r.samples.GetByID(ctx, id)
	if err != nil {
		return nil, databaseError(mapRepoError(err, id), "sample_get")
	}
	return s.detail(ctx, r, sample)
}

// GetSampleByNumber looks a sample up by its internal number.
func (s *Service) GetSampleByNumber(ctx context.Context, internalNumber string) (*SampleDetail, error) {
	r := s.read()
	sample, err := r.samples.GetByInternalNumber(ctx, internalNumber)
	if err != nil {
		return nil, databaseError(mapRepoError(err, internalNumber), "sample_get")
	}
	return s.detail(ctx, r, sample)
}

func (s *Service) detail(ctx context.Context, r repos, sample *entities.Sample) (*SampleDetail, error) {
	path, err := s.storagePath(ctx, r, sample.Storage)
	if err != nil {
		return nil, databaseError(err, "sample_get")
	}
	history, err := r.logs.History(ctx, sample.ID)
	if err != nil {
		return nil, databaseError(err, "sample_get")
	}
	return &SampleDetail{
		SampleSummary:   summarize([]entities.Sample{*sample})[0],
		StoragePath:     path,
		PositiveTargets: SplitTargets(sample.PositiveFor),
		NegativeTargets: SplitTargets(sample.NegativeFor),
		History:         history,
	}, nil
}

// MySamples lists the samples the actor currently holds.
func (s *Service) MySamples(ctx context.Context, actor Actor) ([]SampleSummary, error) {
	user, err := s.actorUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	samples, err := s.read().samples.HeldBy(ctx, user.ID)
	if err != nil {
		return nil, databaseError(err, "my_samples")
	}
	return summarize(samples), nil
}
