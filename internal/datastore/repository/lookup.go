package repository

import (
	"context"

	"github.com/tphakala/pcrdb/internal/datastore/entities"
)

// LookupKind names one of the lookup tables managed through the settings screens.
type LookupKind string

const (
	KindProvider    LookupKind = "provider"
	KindTarget      LookupKind = "target"
	KindSampleType  LookupKind = "sample_type"
	KindExtractor   LookupKind = "extractor"
	KindCycler      LookupKind = "cycler"
	KindMikrogenKit LookupKind = "mikrogen_kit"
	KindExternalKit LookupKind = "external_kit"
)

// LookupKinds lists every managed lookup kind
var LookupKinds = []LookupKind{
	KindProvider, KindTarget, KindSampleType, KindExtractor, KindCycler, KindMikrogenKit, KindExternalKit,
}

// ParseLookupKind validates a kind received from a caller
func ParseLookupKind(s string) (LookupKind, error) {
	for _, k := range LookupKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", ErrUnknownLookupKind
}

// SampleColumn returns the samples column that references this kind
func (k LookupKind) SampleColumn() string {
	switch k {
	case KindProvider:
		return "provider_id"
	case KindTarget:
		return "target_id"
	case KindSampleType:
		return "sample_type_id"
	case KindExtractor:
		return "extractor_id"
	case KindCycler:
		return "cycler_id"
	case KindMikrogenKit:
		return "mikrogen_kit_id"
	case KindExternalKit:
		return "external_kit_id"
	}
	return ""
}

// Protected reports whether samples block deletion of entries of this kind.
// Extractors and cyclers are nulled on the referencing samples instead.
func (k LookupKind) Protected() bool {
	return k != KindExtractor && k != KindCycler
}

// kitKind returns the PCRKit kind for kit lookups
func (k LookupKind) kitKind() (entities.KitKind, bool) {
	switch k {
	case KindMikrogenKit:
		return entities.KitKindMikrogen, true
	case KindExternalKit:
		return entities.KitKindExternal, true
	}
	return "", false
}

// LookupEntry is the common projection of every lookup table
type LookupEntry struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// LookupRepository provides access to the lookup tables.
// Every method takes the kind explicitly; there is no current-section state.
type LookupRepository interface {
	// GetOrCreate retrieves an entry by exact name or creates it.
	GetOrCreate(ctx context.Context, kind LookupKind, name string) (*LookupEntry, error)

	// GetByID returns ErrLookupNotFound if the entry does not exist.
	GetByID(ctx context.Context, kind LookupKind, id uint) (*LookupEntry, error)

	// GetByName returns ErrLookupNotFound if the entry does not exist.
	GetByName(ctx context.Context, kind LookupKind, name string) (*LookupEntry, error)

	// List returns all entries ordered by name.
	List(ctx context.Context, kind LookupKind) ([]LookupEntry, error)

	// Create inserts a new entry. Returns ErrDuplicateKey if the name is taken.
	Create(ctx context.Context, kind LookupKind, name string) (*LookupEntry, error)

	// Rename changes the name of an entry.
	Rename(ctx context.Context, kind LookupKind, id uint, name string) error

	// Delete removes an entry. Returns ErrLookupNotFound if nothing was deleted.
	Delete(ctx context.Context, kind LookupKind, id uint) error

	// CountSamples returns how many samples reference the entry.
	CountSamples(ctx context.Context, kind LookupKind, id uint) (int64, error)
}
