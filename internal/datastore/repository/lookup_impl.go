package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tphakala/pcrdb/internal/datastore/entities"
)

// lookupRepository implements LookupRepository.
type lookupRepository struct {
	db *gorm.DB
}

// NewLookupRepository creates a new LookupRepository.
func NewLookupRepository(db *gorm.DB) LookupRepository {
	return &lookupRepository{db: db}
}

// model returns an empty entity of the table backing kind.
func model(kind LookupKind) any {
	switch kind {
	case KindProvider:
		return &entities.Provider{}
	case KindTarget:
		return &entities.Target{}
	case KindSampleType:
		return &entities.SampleType{}
	case KindExtractor:
		return &entities.Extractor{}
	case KindCycler:
		return &entities.Cycler{}
	case KindMikrogenKit, KindExternalKit:
		return &entities.PCRKit{}
	}
	return nil
}

// scope selects the table of kind, narrowed to the kit kind for kit lookups.
func (r *lookupRepository) scope(ctx context.Context, kind LookupKind) (*gorm.DB, error) {
	m := model(kind)
	if m == nil {
		return nil, ErrUnknownLookupKind
	}
	q := r.db.WithContext(ctx).Model(m)
	if kitKind, ok := kind.kitKind(); ok {
		q = q.Where("kind = ?", kitKind)
	}
	return q, nil
}

// GetOrCreate retrieves an existing entry or creates a new one.
func (r *lookupRepository) GetOrCreate(ctx context.Context, kind LookupKind, name string) (*LookupEntry, error) {
	entry, err := r.GetByName(ctx, kind, name)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, ErrLookupNotFound) {
		return nil, err
	}

	entry, createErr := r.Create(ctx, kind, name)
	if createErr != nil {
		// Another writer may have created it between the lookup and the insert.
		entry, findErr := r.GetByName(ctx, kind, name)
		if findErr != nil {
			return nil, createErr
		}
		return entry, nil
	}
	return entry, nil
}

func (r *lookupRepository) GetByID(ctx context.Context, kind LookupKind, id uint) (*LookupEntry, error) {
	q, err := r.scope(ctx, kind)
	if err != nil {
		return nil, err
	}
	var entry LookupEntry
	if err := q.Select("id", "name").Where("id = ?", id).Take(&entry).Error; err != nil {
		return nil, translate(err, ErrLookupNotFound)
	}
	return &entry, nil
}

func (r *lookupRepository) GetByName(ctx context.Context, kind LookupKind, name string) (*LookupEntry, error) {
	q, err := r.scope(ctx, kind)
	if err != nil {
		return nil, err
	}
	var entry LookupEntry
	if err := q.Select("id", "name").Where("name = ?", name).Take(&entry).Error; err != nil {
		return nil, translate(err, ErrLookupNotFound)
	}
	return &entry, nil
}

func (r *lookupRepository) List(ctx context.Context, kind LookupKind) ([]LookupEntry, error) {
	q, err := r.scope(ctx, kind)
	if err != nil {
		return nil, err
	}
	var entries []LookupEntry
	err = q.Select("id", "name").Order("name ASC").Find(&entries).Error
	return entries, err
}

// Create inserts through the typed entity so that timestamps and the kit
// kind are filled the same way as everywhere else.
func (r *lookupRepository) Create(ctx context.Context, kind LookupKind, name string) (*LookupEntry, error) {
	var (
		record any
		id     func() uint
	)
	switch kind {
	case KindProvider:
		e := &entities.Provider{Name: name}
		record, id = e, func() uint { return e.ID }
	case KindTarget:
		e := &entities.Target{Name: name}
		record, id = e, func() uint { return e.ID }
	case KindSampleType:
		e := &entities.SampleType{Name: name}
		record, id = e, func() uint { return e.ID }
	case KindExtractor:
		e := &entities.Extractor{Name: name}
		record, id = e, func() uint { return e.ID }
	case KindCycler:
		e := &entities.Cycler{Name: name}
		record, id = e, func() uint { return e.ID }
	case KindMikrogenKit, KindExternalKit:
		kitKind, _ := kind.kitKind()
		e := &entities.PCRKit{Name: name, Kind: kitKind}
		record, id = e, func() uint { return e.ID }
	default:
		return nil, ErrUnknownLookupKind
	}

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, translate(err, ErrLookupNotFound)
	}
	return &LookupEntry{ID: id(), Name: name}, nil
}

func (r *lookupRepository) Rename(ctx context.Context, kind LookupKind, id uint, name string) error {
	q, err := r.scope(ctx, kind)
	if err != nil {
		return err
	}
	result := q.Where("id = ?", id).Update("name", name)
	if result.Error != nil {
		return translate(result.Error, ErrLookupNotFound)
	}
	if result.RowsAffected == 0 {
		return ErrLookupNotFound
	}
	return nil
}

func (r *lookupRepository) Delete(ctx context.Context, kind LookupKind, id uint) error {
	q, err := r.scope(ctx, kind)
	if err != nil {
		return err
	}
	result := q.Where("id = ?", id).Delete(model(kind))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLookupNotFound
	}
	return nil
}

func (r *lookupRepository) CountSamples(ctx context.Context, kind LookupKind, id uint) (int64, error) {
	column := kind.SampleColumn()
	if column == "" {
		return 0, ErrUnknownLookupKind
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Sample{}).
		Where(column+" = ?", id).
		Count(&count).Error
	return count, err
}
