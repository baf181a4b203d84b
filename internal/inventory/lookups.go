package inventory

import (
	"context"

	"github.com/tphakala/pcrdb/internal/datastore/repository"
	"github.com/tphakala/pcrdb/internal/errors"
)

// Lookups lists the entries of one lookup table.
func (s *Service) Lookups(ctx context.Context, kind repository.LookupKind) ([]repository.LookupEntry, error) {
	entries, err := s.read().lookups.List(ctx, kind)
	if err != nil {
		return nil, databaseError(mapRepoError(err, kind), "lookup_list")
	}
	return entries, nil
}

// AddLookup creates a lookup entry.
func (s *Service) AddLookup(ctx context.Context, kind repository.LookupKind, name string) (*repository.LookupEntry, error) {
	name = normalizeName(name)
	if name == "" {
		return nil, validationError("name", "name is required")
	}
	var entry *repository.LookupEntry
	err := s.inTx(ctx, "lookup_add", func(r repos) error {
		var err error
		entry, err = r.lookups.Create(ctx, kind, name)
		if errors.Is(err, repository.ErrDuplicateKey) {
			return duplicateError(ErrDuplicateLookup, name)
		}
		return mapRepoError(err, kind)
	})
	return entry, err
}

// RenameLookup renames a lookup entry.
func (s *Service) RenameLookup(ctx context.Context, kind repository.LookupKind, id uint, name string) error {
	name = normalizeName(name)
	if name == "" {
		return validationError("name", "name is required")
	}
	err := s.inTx(ctx, "lookup_rename", func(r repos) error {
		err := r.lookups.Rename(ctx, kind, id, name)
		if errors.Is(err, repository.ErrDuplicateKey) {
			return duplicateError(ErrDuplicateLookup, name)
		}
		return mapRepoError(err, id)
	})
	if err == nil {
		s.invalidate(dashboardCacheKey)
	}
	return err
}

// DeleteLookup removes a lookup entry. Providers, targets, sample types and
// kits still referenced by samples cannot be deleted; extractors and cyclers
// are cleared on the samples that use them.
func (s *Service) DeleteLookup(ctx context.Context, kind repository.LookupKind, id uint) error {
	err := s.inTx(ctx, "lookup_delete", func(r repos) error {
		entry, err := r.lookups.GetByID(ctx, kind, id)
		if err != nil {
			return mapRepoError(err, id)
		}
		if kind.Protected() {
			refs, err := r.lookups.CountSamples(ctx, kind, id)
			if err != nil {
				return err
			}
			if refs > 0 {
				return referentialError(ErrLookupInUse, "cannot delete %s %q: %d samples reference it", kind, entry.Name, refs)
			}
		}
		return mapRepoError(r.lookups.Delete(ctx, kind, id), id)
	})
	if err == nil {
		s.invalidate(dashboardCacheKey)
	}
	return err
}
