package repository

import (
	"context"
	"time"

	"github.com/tphakala/pcrdb/internal/datastore/entities"
)

// UserActivity counts the ledger entries of one user
type UserActivity struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Count    int64  `json:"count"`
}

// UsageLogRepository provides access to the usage ledger.
type UsageLogRepository interface {
	// Open appends a new open entry for (sampleID, userID). Callers check
	// FindOpen first; nothing here prevents a second open entry.
	Open(ctx context.Context, sampleID, userID uint, at time.Time) (*entities.UsageLog, error)

	// FindOpen returns the most recent open entry for the pair, or ErrUsageLogNotFound.
	FindOpen(ctx context.Context, sampleID, userID uint) (*entities.UsageLog, error)

	// MarkActiveUse stamps the active-use time on an entry.
	MarkActiveUse(ctx context.Context, logID uint, at time.Time) error

	// Close sets the return date, the volume used and the not-found flag.
	Close(ctx context.Context, logID uint, volumeUsed float64, notFound bool, at time.Time) error

	// CloseAllOpen closes every open entry of the pair as not found and
	// returns how many were closed.
	CloseAllOpen(ctx context.Context, sampleID, userID uint, notFound bool, at time.Time) (int64, error)

	// History returns the entries of a sample, newest checkout first.
	History(ctx context.Context, sampleID uint) ([]entities.UsageLog, error)

	// Recent returns the latest entries with sample and user loaded.
	Recent(ctx context.Context, limit int) ([]entities.UsageLog, error)

	// TopUsers ranks users by ledger entry count.
	TopUsers(ctx context.Context, limit int) ([]UserActivity, error)
}
