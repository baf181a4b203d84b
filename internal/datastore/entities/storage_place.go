package entities

// PlaceType is the level of a storage place in the hierarchy
type PlaceType string

const (
	PlaceRoom    PlaceType = "room"
	PlaceFreezer PlaceType = "freezer"
	PlaceDrawer  PlaceType = "drawer"
	PlaceBox     PlaceType = "box"
)

// PlaceTypes lists the levels from the top of the tree down
var PlaceTypes = []PlaceType{PlaceRoom, PlaceFreezer, PlaceDrawer, PlaceBox}

// Valid reports whether t is a known place type
func (t PlaceType) Valid() bool {
	switch t {
	case PlaceRoom, PlaceFreezer, PlaceDrawer, PlaceBox:
		return true
	}
	return false
}

// ParentType returns the only type a node of type t may be placed under.
// Rooms have no parent; ok is false for them.
func (t PlaceType) ParentType() (parent PlaceType, ok bool) {
	switch t {
	case PlaceFreezer:
		return PlaceRoom, true
	case PlaceDrawer:
		return PlaceFreezer, true
	case PlaceBox:
		return PlaceDrawer, true
	}
	return "", false
}

// StoragePlace is a node of the storage tree. The parent is stored as a plain
// nullable id; acyclicity is enforced by the inventory service on every
// mutation, not by the schema.
type StoragePlace struct {
	ID       uint      `gorm:"primaryKey"`
	Name     string    `gorm:"size:200;not null;index"`
	Type     PlaceType `gorm:"size:20;not null;index"`
	ParentID *uint     `gorm:"index"`

	Parent *StoragePlace `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM.
func (StoragePlace) TableName() string { return "storage_places" }
