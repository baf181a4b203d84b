package entities

import "time"

// User is a person who can hold samples. Authentication happens upstream;
// users are created the first time a username acts on the inventory.
type User struct {
	ID        uint      `gorm:"primaryKey"`
	Username  string    `gorm:"size:150;not null;uniqueIndex"`
	Email     string    `gorm:"size:254"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (User) TableName() string { return "users" }
