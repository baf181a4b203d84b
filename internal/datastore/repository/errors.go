// Package repository provides the GORM repositories of the inventory schema.
//
// Repositories are cheap to construct. Services create them per transaction
// from the *gorm.DB handed to the transaction callback so that every read and
// write of one operation shares the same transaction.
package repository

import (
	"errors"

	"gorm.io/gorm"

	pcrerrors "github.com/tphakala/pcrdb/internal/errors"
)

// Sentinel errors for repository operations.
// These typed errors let callers distinguish failure modes without relying on
// GORM specific errors.
var (
	// ErrSampleNotFound indicates the requested sample does not exist.
	ErrSampleNotFound = pcrerrors.NewStd("sample not found")

	// ErrStoragePlaceNotFound indicates the requested storage place does not exist.
	ErrStoragePlaceNotFound = pcrerrors.NewStd("storage place not found")

	// ErrLookupNotFound indicates the requested lookup entry does not exist.
	ErrLookupNotFound = pcrerrors.NewStd("lookup entry not found")

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = pcrerrors.NewStd("user not found")

	// ErrUsageLogNotFound indicates no matching ledger entry exists.
	ErrUsageLogNotFound = pcrerrors.NewStd("usage log not found")

	// ErrDuplicateKey indicates a unique constraint violation.
	ErrDuplicateKey = pcrerrors.NewStd("duplicate key")

	// ErrUnknownLookupKind indicates a lookup kind outside the known tables.
	ErrUnknownLookupKind = pcrerrors.NewStd("unknown lookup kind")
)

// translate maps GORM errors onto repository sentinels.
func translate(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	default:
		return err
	}
}
