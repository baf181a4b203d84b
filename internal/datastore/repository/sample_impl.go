package repository

import (
	"context"
	"slices"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tphakala/pcrdb/internal/datastore/entities"
)

// sampleReferences are the relations loaded for detail, listing and export views.
var sampleReferences = []string{
	"Provider", "Target", "SampleType", "Storage", "Extractor", "Cycler",
	"MikrogenKit", "ExternalKit", "CurrentUser", "AddedBy",
}

type sampleRepository struct {
	db *gorm.DB
}

// NewSampleRepository creates a new SampleRepository.
func NewSampleRepository(db *gorm.DB) SampleRepository {
	return &sampleRepository{db: db}
}

func (r *sampleRepository) withReferences(ctx context.Context) *gorm.DB {
	q := r.db.WithContext(ctx)
	for _, rel := range sampleReferences {
		q = q.Preload(rel)
	}
	return q
}

func (r *sampleRepository) Create(ctx context.Context, sample *entities.Sample) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(sample).Error
	return translate(err, ErrSampleNotFound)
}

func (r *sampleRepository) GetByID(ctx context.Context, id uint) (*entities.Sample, error) {
	var sample entities.Sample
	if err := r.withReferences(ctx).First(&sample, id).Error; err != nil {
		return nil, translate(err, ErrSampleNotFound)
	}
	return &sample, nil
}

// GetByIDForUpdate relies on the dialect to drop FOR UPDATE where it is unsupported.
func (r *sampleRepository) GetByIDForUpdate(ctx context.Context, id uint) (*entities.Sample, error) {
	q := r.db.WithContext(ctx)
	if q.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var sample entities.Sample
	if err := q.First(&sample, id).Error; err != nil {
		return nil, translate(err, ErrSampleNotFound)
	}
	return &sample, nil
}

func (r *sampleRepository) GetByInternalNumber(ctx context.Context, internalNumber string) (*entities.Sample, error) {
	var sample entities.Sample
	err := r.withReferences(ctx).
		Where("internal_number = ?", internalNumber).
		First(&sample).Error
	if err != nil {
		return nil, translate(err, ErrSampleNotFound)
	}
	return &sample, nil
}

func (r *sampleRepository) ExistsInternalNumber(ctx context.Context, internalNumber string, excludeID uint) (bool, error) {
	q := r.db.WithContext(ctx).Model(&entities.Sample{}).Where("internal_number = ?", internalNumber)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *sampleRepository) Save(ctx context.Context, sample *entities.Sample) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Save(sample).Error
	return translate(err, ErrSampleNotFound)
}

func (r *sampleRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.Sample{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSampleNotFound
	}
	return nil
}

func (r *sampleRepository) GetByIDs(ctx context.Context, ids []uint) ([]entities.Sample, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var samples []entities.Sample
	err := r.withReferences(ctx).
		Where("id IN ?", ids).
		Order("internal_number ASC").
		Find(&samples).Error
	return samples, err
}

func likePattern(s string) string {
	return "%" + strings.ToLower(s) + "%"
}

func (r *sampleRepository) Filter(ctx context.Context, f SampleFilter) ([]entities.Sample, error) {
	q := r.withReferences(ctx).Model(&entities.Sample{}).Select("samples.*")

	if f.Search != "" {
		pattern := likePattern(f.Search)
		q = q.
			Joins("LEFT JOIN providers ON providers.id = samples.provider_id").
			Joins("LEFT JOIN targets ON targets.id = samples.target_id").
			Joins("LEFT JOIN sample_types ON sample_types.id = samples.sample_type_id").
			Joins("LEFT JOIN pcr_kits mk ON mk.id = samples.mikrogen_kit_id").
			Joins("LEFT JOIN pcr_kits ek ON ek.id = samples.external_kit_id").
			Where(`(LOWER(samples.internal_number) LIKE ? OR LOWER(samples.provider_number) LIKE ?
				OR LOWER(providers.name) LIKE ? OR LOWER(targets.name) LIKE ?
				OR LOWER(sample_types.name) LIKE ? OR LOWER(mk.name) LIKE ?
				OR LOWER(ek.name) LIKE ? OR LOWER(samples.notes) LIKE ?)`,
				pattern, pattern, pattern, pattern, pattern, pattern, pattern, pattern)
	}
	if f.TargetID != nil {
		q = q.Where("samples.target_id = ?", *f.TargetID)
	}
	if f.SampleTypeID != nil {
		q = q.Where("samples.sample_type_id = ?", *f.SampleTypeID)
	}
	if f.PositiveTarget != "" {
		q = q.Where("LOWER(samples.positive_for) LIKE ?", likePattern(f.PositiveTarget))
	}
	if f.NegativeTarget != "" {
		q = q.Where("LOWER(samples.negative_for) LIKE ?", likePattern(f.NegativeTarget))
	}
	if ct := ctCondition(f.CTMin, f.CTMax); ct != nil {
		q = q.Where(ct)
	}
	if f.VolumeMin != nil {
		q = q.Where("samples.volume_remaining >= ?", *f.VolumeMin)
	}
	if f.VolumeMax != nil {
		q = q.Where("samples.volume_remaining <= ?", *f.VolumeMax)
	}
	q = statusCondition(q, f.Status)

	var samples []entities.Sample
	if err := q.Order("samples.internal_number ASC").Find(&samples).Error; err != nil {
		return nil, err
	}

	// LIKE narrows the rows but matches substrings and, on most engines,
	// ignores case. Target lists match whole items exactly.
	if f.PositiveTarget != "" || f.NegativeTarget != "" {
		samples = slices.DeleteFunc(samples, func(s entities.Sample) bool {
			return (f.PositiveTarget != "" && !hasListItem(s.PositiveFor, f.PositiveTarget)) ||
				(f.NegativeTarget != "" && !hasListItem(s.NegativeFor, f.NegativeTarget))
		})
	}
	return samples, nil
}

// hasListItem reports whether the comma-joined list contains item.
func hasListItem(list, item string) bool {
	for part := range strings.SplitSeq(list, ",") {
		if strings.TrimSpace(part) == item {
			return true
		}
	}
	return false
}

// ctCondition matches when either the mikrogen or the external CT value is in range.
func ctCondition(lo, hi *float64) clause.Expression {
	if lo == nil && hi == nil {
		return nil
	}
	side := func(column string) clause.Expression {
		var exprs []clause.Expression
		if lo != nil {
			exprs = append(exprs, clause.Gte{Column: clause.Column{Table: "samples", Name: column}, Value: *lo})
		}
		if hi != nil {
			exprs = append(exprs, clause.Lte{Column: clause.Column{Table: "samples", Name: column}, Value: *hi})
		}
		return clause.And(exprs...)
	}
	return clause.Or(side("mikrogen_ct_value"), side("external_ct_value"))
}

func statusCondition(q *gorm.DB, status SampleStatus) *gorm.DB {
	switch status {
	case StatusAvailable:
		return q.Where("samples.in_use = ? AND samples.not_found = ?", false, false)
	case StatusReserved:
		return q.Where("samples.in_use = ? AND samples.active_use = ?", true, false)
	case StatusInUse:
		return q.Where("samples.in_use = ? AND samples.active_use = ?", true, true)
	case StatusNotFound:
		return q.Where("samples.not_found = ?", true)
	}
	return q
}

func (r *sampleRepository) HeldBy(ctx context.Context, userID uint) ([]entities.Sample, error) {
	var samples []entities.Sample
	err := r.withReferences(ctx).
		Where("current_user_id = ? AND in_use = ?", userID, true).
		Order("internal_number ASC").
		Find(&samples).Error
	return samples, err
}

func (r *sampleRepository) RefreshCandidates(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&entities.Sample{}).
		Where("current_user_id = ? AND in_use = ? AND active_use = ? AND not_found = ?", userID, true, false, true).
		Order("internal_number ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *sampleRepository) Overdue(ctx context.Context, cutoff time.Time) ([]entities.Sample, error) {
	var samples []entities.Sample
	err := r.db.WithContext(ctx).
		Preload("CurrentUser").
		Where("in_use = ? AND current_user_id IS NOT NULL AND last_modified < ?", true, cutoff).
		Order("current_user_id ASC").
		Order("internal_number ASC").
		Find(&samples).Error
	return samples, err
}

func (r *sampleRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Sample{}).Count(&count).Error
	return count, err
}

func (r *sampleRepository) CountInUse(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Sample{}).Where("in_use = ?", true).Count(&count).Error
	return count, err
}

func (r *sampleRepository) CountLowVolume(ctx context.Context, percent float64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Sample{}).
		Where("volume > 0 AND volume_remaining * 100.0 / volume < ?", percent).
		Count(&count).Error
	return count, err
}

func (r *sampleRepository) Distribution(ctx context.Context, by Distribution, limit int) ([]NameCount, error) {
	var table, column string
	switch by {
	case BySampleType:
		table, column = "sample_types", "sample_type_id"
	case ByTarget:
		table, column = "targets", "target_id"
	default:
		return nil, ErrUnknownLookupKind
	}

	var rows []NameCount
	err := r.db.WithContext(ctx).
		Table("samples").
		Select(table + ".name AS name, COUNT(samples.id) AS count").
		Joins("JOIN " + table + " ON " + table + ".id = samples." + column).
		Group(table + ".name").
		Order("count DESC").
		Order(table + ".name ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
