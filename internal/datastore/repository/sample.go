package repository

import (
	"context"
	"time"

	"github.com/tphakala/pcrdb/internal/datastore/entities"
)

// SampleStatus selects samples by lifecycle state
type SampleStatus string

const (
	StatusAny       SampleStatus = ""
	StatusAvailable SampleStatus = "available"
	StatusReserved  SampleStatus = "reserved"
	StatusInUse     SampleStatus = "in_use"
	StatusNotFound  SampleStatus = "not_found"
)

// SampleFilter narrows sample listings. Nil bounds are not applied.
type SampleFilter struct {
	Search         string
	TargetID       *uint
	SampleTypeID   *uint
	PositiveTarget string // substring of positive_for
	NegativeTarget string // substring of negative_for
	CTMin          *float64
	CTMax          *float64
	VolumeMin      *float64
	VolumeMax      *float64
	Status         SampleStatus
}

// NameCount is one bucket of a distribution
type NameCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Distribution selects the lookup a sample distribution groups by
type Distribution string

const (
	BySampleType Distribution = "sample_type"
	ByTarget     Distribution = "target"
)

// SampleRepository provides access to the samples table.
type SampleRepository interface {
	// Create inserts a sample. Returns ErrDuplicateKey on an internal number collision.
	Create(ctx context.Context, sample *entities.Sample) error

	// GetByID loads the sample with all references. Returns ErrSampleNotFound.
	GetByID(ctx context.Context, id uint) (*entities.Sample, error)

	// GetByIDForUpdate loads the bare sample row, locking it where the engine supports it.
	GetByIDForUpdate(ctx context.Context, id uint) (*entities.Sample, error)

	// GetByInternalNumber loads the sample with all references. Returns ErrSampleNotFound.
	GetByInternalNumber(ctx context.Context, internalNumber string) (*entities.Sample, error)

	// ExistsInternalNumber reports whether another sample uses the number.
	// excludeID skips the sample being edited; pass 0 to check all.
	ExistsInternalNumber(ctx context.Context, internalNumber string, excludeID uint) (bool, error)

	// Save writes every column of the sample, refreshing last_modified.
	Save(ctx context.Context, sample *entities.Sample) error

	// Delete removes the sample; its usage logs cascade.
	Delete(ctx context.Context, id uint) error

	// GetByIDs loads samples with references, ordered by internal number.
	GetByIDs(ctx context.Context, ids []uint) ([]entities.Sample, error)

	// Filter lists samples matching f, ordered by internal number.
	Filter(ctx context.Context, f SampleFilter) ([]entities.Sample, error)

	// HeldBy lists the samples currently checked out by a user.
	HeldBy(ctx context.Context, userID uint) ([]entities.Sample, error)

	// RefreshCandidates returns ids of the user's reserved samples flagged not found.
	RefreshCandidates(ctx context.Context, userID uint) ([]uint, error)

	// Overdue lists in-use samples not modified since cutoff, with holders loaded.
	Overdue(ctx context.Context, cutoff time.Time) ([]entities.Sample, error)

	// Count returns the total number of samples.
	Count(ctx context.Context) (int64, error)

	// CountInUse returns the number of checked out samples.
	CountInUse(ctx context.Context) (int64, error)

	// CountLowVolume returns the number of samples whose remaining volume is
	// below percent of their initial volume.
	CountLowVolume(ctx context.Context, percent float64) (int64, error)

	// Distribution counts samples per lookup name, largest first.
	Distribution(ctx context.Context, by Distribution, limit int) ([]NameCount, error)
}
