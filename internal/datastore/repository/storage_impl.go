package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tphakala/pcrdb/internal/datastore/entities"
)

type storagePlaceRepository struct {
	db *gorm.DB
}

// NewStoragePlaceRepository creates a new StoragePlaceRepository.
func NewStoragePlaceRepository(db *gorm.DB) StoragePlaceRepository {
	return &storagePlaceRepository{db: db}
}

func (r *storagePlaceRepository) Create(ctx context.Context, place *entities.StoragePlace) error {
	return translate(r.db.WithContext(ctx).Omit("Parent").Create(place).Error, ErrStoragePlaceNotFound)
}

func (r *storagePlaceRepository) GetByID(ctx context.Context, id uint) (*entities.StoragePlace, error) {
	var place entities.StoragePlace
	if err := r.db.WithContext(ctx).First(&place, id).Error; err != nil {
		return nil, translate(err, ErrStoragePlaceNotFound)
	}
	return &place, nil
}

func (r *storagePlaceRepository) getByName(ctx context.Context, name string) (*entities.StoragePlace, error) {
	var place entities.StoragePlace
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		Order("id ASC").
		First(&place).Error
	if err != nil {
		return nil, translate(err, ErrStoragePlaceNotFound)
	}
	return &place, nil
}

// GetOrCreateByName creates missing places as rooms, the only type that is
// valid without a parent.
func (r *storagePlaceRepository) GetOrCreateByName(ctx context.Context, name string) (*entities.StoragePlace, error) {
	place, err := r.getByName(ctx, name)
	if err == nil {
		return place, nil
	}
	if !errors.Is(err, ErrStoragePlaceNotFound) {
		return nil, err
	}

	place = &entities.StoragePlace{Name: name, Type: entities.PlaceRoom}
	if err := r.Create(ctx, place); err != nil {
		return nil, err
	}
	return place, nil
}

func (r *storagePlaceRepository) SetParent(ctx context.Context, id uint, parentID *uint) error {
	result := r.db.WithContext(ctx).Model(&entities.StoragePlace{}).
		Where("id = ?", id).
		Update("parent_id", parentID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStoragePlaceNotFound
	}
	return nil
}

func (r *storagePlaceRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.StoragePlace{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStoragePlaceNotFound
	}
	return nil
}

func (r *storagePlaceRepository) All(ctx context.Context) ([]entities.StoragePlace, error) {
	var places []entities.StoragePlace
	err := r.db.WithContext(ctx).Order("name ASC").Order("id ASC").Find(&places).Error
	return places, err
}

func (r *storagePlaceRepository) ListByType(ctx context.Context, placeType entities.PlaceType, parentID *uint) ([]entities.StoragePlace, error) {
	q := r.db.WithContext(ctx).Where("type = ?", placeType)
	if parentID != nil {
		q = q.Where("parent_id = ?", *parentID)
	}
	var places []entities.StoragePlace
	err := q.Order("name ASC").Find(&places).Error
	return places, err
}

func (r *storagePlaceRepository) CountChildren(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.StoragePlace{}).
		Where("parent_id = ?", id).
		Count(&count).Error
	return count, err
}

func (r *storagePlaceRepository) CountSamples(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Sample{}).
		Where("storage_id = ?", id).
		Count(&count).Error
	return count, err
}
