package models

import "time"

// Task represents a unit of work that can be assigned to a roster slot
// (e.g. "Inbound", "Picking", "Returns").
type Task struct {
	// ID is the unique identifier for the task.
	ID uint64 `gorm:"primaryKey"`
	// StoreID is the store this task belongs to.
	StoreID uint64 `gorm:"column:store_id;uniqueIndex:idx_store_task_name;not null"`
	// Name is the task name, unique within a store.
	Name string `gorm:"uniqueIndex:idx_store_task_name;size:100;not null"`
	// Description provides a human-readable explanation of the task.
	Description string `gorm:"size:255"`
	// Active indicates whether the task may still be assigned to new slots.
	Active bool `gorm:"default:true"`
	// CreatedAt is the timestamp when the task was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the task was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Task model.
func (Task) TableName() string {
	return "tasks"
}
