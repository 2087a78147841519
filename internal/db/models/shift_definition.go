package models

import "time"

// ShiftDefinition represents a named shift template for one store, e.g.
// "Morning Shift" from 06:00 to 14:00. Slot time windows default to the
// shift window when a roster is created.
type ShiftDefinition struct {
	// ID is the unique identifier for the shift definition.
	ID uint64 `gorm:"primaryKey"`
	// StoreID is the store this shift definition belongs to.
	StoreID uint64 `gorm:"column:store_id;uniqueIndex:idx_store_shift_name;not null"`
	// Name is the shift name, unique within a store.
	Name string `gorm:"uniqueIndex:idx_store_shift_name;size:100;not null"`
	// StartTime is the local start time of day in "HH:MM".
	StartTime string `gorm:"size:5;not null"`
	// EndTime is the local end time of day in "HH:MM".
	EndTime string `gorm:"size:5;not null"`
	// DurationHours is derived from the time window, rounded to one decimal.
	// The invariant DurationHours <= 10 is enforced at create/update time.
	DurationHours float64
	// Active indicates whether rosters may still be created for this shift.
	Active bool `gorm:"default:true"`
	// DisplayOrder controls the order shifts appear in on dashboards.
	DisplayOrder int `gorm:"default:0"`
	// CreatedAt is the timestamp when the shift definition was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the shift definition was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the ShiftDefinition model.
func (ShiftDefinition) TableName() string {
	return "shift_definitions"
}
