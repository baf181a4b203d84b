package entities

import "time"

// Gender of the patient the sample was drawn from
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Sample is a PCR sample held in the inventory.
//
// Lifecycle flags:
//
//	Available  InUse=false
//	Reserved   InUse=true  ActiveUse=false CurrentUserID set
//	InUse      InUse=true  ActiveUse=true  CurrentUserID set
//	NotFound   NotFound=true InUse=false   CurrentUserID nil
//
// CurrentUserID is set iff InUse is true, and
// 0 <= VolumeRemaining <= Volume at all times.
type Sample struct {
	ID             uint   `gorm:"primaryKey"`
	InternalNumber string `gorm:"size:100;not null;uniqueIndex"`
	ProviderNumber string `gorm:"size:100"`

	ProviderID   uint  `gorm:"not null;index"`
	TargetID     uint  `gorm:"not null;index"`
	SampleTypeID uint  `gorm:"not null;index"`
	StorageID    *uint `gorm:"index"`
	ExtractorID  *uint `gorm:"index"`
	CyclerID     *uint `gorm:"index"`

	MikrogenKitID *uint    `gorm:"index"`
	ExternalKitID *uint    `gorm:"index"`
	MikrogenCT    *float64 `gorm:"column:mikrogen_ct_value"`
	ExternalCT    *float64 `gorm:"column:external_ct_value"`

	DrawDate        *time.Time
	ExtractionDate  *time.Time
	Gender          *Gender `gorm:"size:10"`
	Age             *int
	CountryOfOrigin string `gorm:"size:100"`

	Volume          float64 `gorm:"not null"`
	VolumeRemaining float64 `gorm:"not null"`

	CurrentUserID *uint `gorm:"index"`
	InUse         bool  `gorm:"not null;default:false;index"`
	ActiveUse     bool  `gorm:"not null;default:false"`
	NotFound      bool  `gorm:"not null;default:false"`

	// Comma-joined target names. Consumers depend on the literal string.
	PositiveFor string `gorm:"type:text"`
	NegativeFor string `gorm:"type:text"`
	Notes       string `gorm:"type:text"`

	AddedByID    *uint
	DateAdded    time.Time `gorm:"autoCreateTime;index"`
	LastModified time.Time `gorm:"autoUpdateTime;index"`

	// Relationships
	Provider    *Provider     `gorm:"foreignKey:ProviderID;constraint:OnDelete:RESTRICT"`
	Target      *Target       `gorm:"foreignKey:TargetID;constraint:OnDelete:RESTRICT"`
	SampleType  *SampleType   `gorm:"foreignKey:SampleTypeID;constraint:OnDelete:RESTRICT"`
	Storage     *StoragePlace `gorm:"foreignKey:StorageID;constraint:OnDelete:SET NULL"`
	Extractor   *Extractor    `gorm:"foreignKey:ExtractorID;constraint:OnDelete:SET NULL"`
	Cycler      *Cycler       `gorm:"foreignKey:CyclerID;constraint:OnDelete:SET NULL"`
	MikrogenKit *PCRKit       `gorm:"foreignKey:MikrogenKitID;constraint:OnDelete:RESTRICT"`
	ExternalKit *PCRKit       `gorm:"foreignKey:ExternalKitID;constraint:OnDelete:RESTRICT"`
	CurrentUser *User         `gorm:"foreignKey:CurrentUserID;constraint:OnDelete:SET NULL"`
	AddedBy     *User         `gorm:"foreignKey:AddedByID;constraint:OnDelete:SET NULL"`
}

// TableName returns the table name for GORM.
func (Sample) TableName() string { return "samples" }

// IsReserved reports whether the sample is held by a user and not lost
func (s *Sample) IsReserved() bool {
	return s.InUse && s.CurrentUserID != nil && !s.NotFound
}

// HeldBy reports whether userID currently holds the sample
func (s *Sample) HeldBy(userID uint) bool {
	return s.InUse && s.CurrentUserID != nil && *s.CurrentUserID == userID
}

// VolumePercentage returns remaining volume as a percentage of the initial volume
func (s *Sample) VolumePercentage() float64 {
	if s.Volume <= 0 {
		return 0
	}
	return s.VolumeRemaining / s.Volume * 100
}
