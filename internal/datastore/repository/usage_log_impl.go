package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/pcrdb/internal/datastore/entities"
)

type usageLogRepository struct {
	db *gorm.DB
}

// NewUsageLogRepository creates a new UsageLogRepository.
func NewUsageLogRepository(db *gorm.DB) UsageLogRepository {
	return &usageLogRepository{db: db}
}

func (r *usageLogRepository) Open(ctx context.Context, sampleID, userID uint, at time.Time) (*entities.UsageLog, error) {
	entry := &entities.UsageLog{
		SampleID:     sampleID,
		UserID:       userID,
		CheckoutDate: at,
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *usageLogRepository) FindOpen(ctx context.Context, sampleID, userID uint) (*entities.UsageLog, error) {
	var entry entities.UsageLog
	err := r.db.WithContext(ctx).
		Where("sample_id = ? AND user_id = ? AND return_date IS NULL", sampleID, userID).
		Order("checkout_date DESC").
		Order("id DESC").
		First(&entry).Error
	if err != nil {
		return nil, translate(err, ErrUsageLogNotFound)
	}
	return &entry, nil
}

func (r *usageLogRepository) MarkActiveUse(ctx context.Context, logID uint, at time.Time) error {
	return r.update(ctx, logID, map[string]any{"active_use_date": at})
}

func (r *usageLogRepository) Close(ctx context.Context, logID uint, volumeUsed float64, notFound bool, at time.Time) error {
	return r.update(ctx, logID, map[string]any{
		"return_date": at,
		"volume_used": volumeUsed,
		"not_found":   notFound,
	})
}

func (r *usageLogRepository) update(ctx context.Context, logID uint, values map[string]any) error {
	result := r.db.WithContext(ctx).Model(&entities.UsageLog{}).
		Where("id = ?", logID).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUsageLogNotFound
	}
	return nil
}

func (r *usageLogRepository) CloseAllOpen(ctx context.Context, sampleID, userID uint, notFound bool, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entities.UsageLog{}).
		Where("sample_id = ? AND user_id = ? AND return_date IS NULL", sampleID, userID).
		Updates(map[string]any{
			"return_date": at,
			"not_found":   notFound,
		})
	return result.RowsAffected, result.Error
}

func (r *usageLogRepository) History(ctx context.Context, sampleID uint) ([]entities.UsageLog, error) {
	var entries []entities.UsageLog
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("sample_id = ?", sampleID).
		Order("checkout_date DESC").
		Order("id DESC").
		Find(&entries).Error
	return entries, err
}

// Recent orders by checkout date like the activity feed always has; the
// caller re-sorts the page by event time.
func (r *usageLogRepository) Recent(ctx context.Context, limit int) ([]entities.UsageLog, error) {
	var entries []entities.UsageLog
	err := r.db.WithContext(ctx).
		Preload("Sample").
		Preload("User").
		Order("checkout_date DESC").
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *usageLogRepository) TopUsers(ctx context.Context, limit int) ([]UserActivity, error) {
	var rows []UserActivity
	err := r.db.WithContext(ctx).
		Table("users").
		Select("users.id AS user_id, users.username AS username, COUNT(usage_logs.id) AS count").
		Joins("LEFT JOIN usage_logs ON usage_logs.user_id = users.id").
		Group("users.id, users.username").
		Order("count DESC").
		Order("users.username ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
