package entities

import "time"

// UsageLog records one holding period of a sample by a user. The entry is
// open while ReturnDate is nil.
type UsageLog struct {
	ID            uint       `gorm:"primaryKey"`
	SampleID      uint       `gorm:"not null;index:idx_usage_open,priority:1"`
	UserID        uint       `gorm:"not null;index:idx_usage_open,priority:2"`
	VolumeUsed    float64    `gorm:"not null;default:0"`
	CheckoutDate  time.Time  `gorm:"not null;index"`
	ActiveUseDate *time.Time // stamped when the holder starts processing
	ReturnDate    *time.Time `gorm:"index:idx_usage_open,priority:3"`
	NotFound      bool       `gorm:"not null;default:false"`
	Notes         string     `gorm:"type:text"`

	// Relationships
	Sample *Sample `gorm:"foreignKey:SampleID;constraint:OnDelete:CASCADE"`
	User   *User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM.
func (UsageLog) TableName() string { return "usage_logs" }

// IsOpen reports whether the entry has not been closed yet
func (l *UsageLog) IsOpen() bool {
	return l.ReturnDate == nil
}

// EventTime is the latest event of the entry: the return if closed, else the checkout
func (l *UsageLog) EventTime() time.Time {
	if l.ReturnDate != nil {
		return *l.ReturnDate
	}
	return l.CheckoutDate
}

// All returns every entity for auto-migration, parents before children.
func All() []any {
	return []any{
		&User{},
		&Provider{},
		&Target{},
		&SampleType{},
		&Extractor{},
		&Cycler{},
		&PCRKit{},
		&StoragePlace{},
		&Sample{},
		&UsageLog{},
	}
}
