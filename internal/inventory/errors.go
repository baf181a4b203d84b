package inventory

import (
	"fmt"
	"strings"

	"github.com/tphakala/pcrdb/internal/datastore/repository"
	"github.com/tphakala/pcrdb/internal/errors"
)

const component = "inventory"

// Sentinel errors. Every error returned by the service wraps at most one of
// these inside an EnhancedError carrying the matching category.
var (
	ErrInvalidParentType       = errors.NewStd("invalid parent type")
	ErrCyclicReference         = errors.NewStd("cyclic reference")
	ErrHasChildren             = errors.NewStd("storage place has children")
	ErrInUseBySamples          = errors.NewStd("storage place is in use by samples")
	ErrDuplicateInternalNumber = errors.NewStd("duplicate internal number")
	ErrSampleNotFound          = errors.NewStd("sample not found")
	ErrStorageNotFound         = errors.NewStd("storage place not found")
	ErrLookupNotFound          = errors.NewStd("lookup entry not found")
	ErrLookupInUse             = errors.NewStd("lookup entry is referenced by samples")
	ErrDuplicateLookup         = errors.NewStd("lookup entry already exists")
)

// FieldError describes one invalid input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors collects every invalid field of one request
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, e := range fe {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return strings.Join(parts, "; ")
}

func (fe *FieldErrors) add(field, format string, args ...any) {
	*fe = append(*fe, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// err returns nil when no field failed, so callers can return it directly.
func (fe FieldErrors) err() error {
	if len(fe) == 0 {
		return nil
	}
	return errors.New(fe).
		Component(component).
		Category(errors.CategoryValidation).
		Build()
}

func validationError(field, format string, args ...any) error {
	var fe FieldErrors
	fe.add(field, format, args...)
	return fe.err()
}

func structuralError(sentinel error, format string, args ...any) error {
	return errors.Newf("%s: %w", fmt.Sprintf(format, args...), sentinel).
		Component(component).
		Category(errors.CategoryStructural).
		Build()
}

func duplicateError(sentinel error, key string) error {
	return errors.Newf("%q already exists: %w", key, sentinel).
		Component(component).
		Category(errors.CategoryDuplicateKey).
		Context("key", key).
		Build()
}

func notFoundError(sentinel error, id any) error {
	return errors.Newf("%v: %w", id, sentinel).
		Component(component).
		Category(errors.CategoryNotFound).
		Context("id", id).
		Build()
}

func referentialError(sentinel error, format string, args ...any) error {
	return errors.Newf("%s: %w", fmt.Sprintf(format, args...), sentinel).
		Component(component).
		Category(errors.CategoryReferentialIntegrity).
		Build()
}

// databaseError wraps infrastructure failures. Domain errors pass through unchanged.
func databaseError(err error, operation string) error {
	if err == nil || errors.IsDomain(err) {
		return err
	}
	return errors.New(err).
		Component(component).
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Build()
}

// mapRepoError turns repository sentinels into categorized service errors.
func mapRepoError(err error, id any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrSampleNotFound):
		return notFoundError(ErrSampleNotFound, id)
	case errors.Is(err, repository.ErrStoragePlaceNotFound):
		return notFoundError(ErrStorageNotFound, id)
	case errors.Is(err, repository.ErrLookupNotFound):
		return notFoundError(ErrLookupNotFound, id)
	case errors.Is(err, repository.ErrUnknownLookupKind):
		return validationError("kind", "unknown lookup kind %v", id)
	}
	return err
}
