package models

import "time"

// Store represents a physical store location. It is the tenant scoping
// users, tasks, shift definitions, rosters and settings.
type Store struct {
	// ID is the unique identifier for the store.
	ID uint64 `gorm:"primaryKey"`
	// Name is the unique display name of the store.
	Name string `gorm:"unique;size:100;not null"`
	// Address is the free-form street address of the store.
	Address string `gorm:"size:255"`
	// Timezone is the IANA timezone name the store's shift times refer to.
	Timezone string `gorm:"size:64;default:'Asia/Kolkata'"`
	// Active indicates whether the store is currently operating.
	Active bool `gorm:"default:true"`
	// CreatedAt is the timestamp when the store was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the store was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Store model.
func (Store) TableName() string {
	return "stores"
}
