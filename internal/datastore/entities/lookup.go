package entities

import "time"

// Provider is the lab or hospital that sent a sample
type Provider struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"size:200;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (Provider) TableName() string { return "providers" }

// Target is a pathogen a sample is tested for
type Target struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"size:200;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (Target) TableName() string { return "targets" }

// SampleType is the specimen material (swab, serum, ...)
type SampleType struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"size:200;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (SampleType) TableName() string { return "sample_types" }

// Extractor is a nucleic-acid extraction instrument
type Extractor struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"size:200;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (Extractor) TableName() string { return "extractors" }

// Cycler is a PCR thermocycler
type Cycler struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"size:200;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (Cycler) TableName() string { return "cyclers" }

// KitKind distinguishes in-house kits from third-party kits
type KitKind string

const (
	KitKindMikrogen KitKind = "mikrogen"
	KitKindExternal KitKind = "external"
)

// Valid reports whether k is a known kit kind
func (k KitKind) Valid() bool {
	return k == KitKindMikrogen || k == KitKindExternal
}

// PCRKit is a PCR test kit. Names are unique per kind.
type PCRKit struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"size:200;not null;uniqueIndex:idx_kit_identity"`
	Kind      KitKind   `gorm:"size:20;not null;uniqueIndex:idx_kit_identity"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (PCRKit) TableName() string { return "pcr_kits" }
