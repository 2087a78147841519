package models

import "time"

// AuditLog represents one append-only audit trail entry. Entries are written
// for every mutating operation and are never updated or deleted by this
// system.
type AuditLog struct {
	// ID is the unique identifier for the audit entry.
	ID uint64 `gorm:"primaryKey"`
	// Action is the action type (e.g. "roster.delete", "user.update").
	Action string `gorm:"size:100;not null;index:idx_audit_action_entity"`
	// EntityType is the kind of entity the action touched.
	EntityType string `gorm:"size:50;not null;index:idx_audit_action_entity"`
	// EntityID is the primary key of the touched entity.
	EntityID uint64 `gorm:"index:idx_audit_action_entity"`
	// Changes holds the before/after change map for the mutation.
	Changes JSONMap `gorm:"type:text"`
	// Metadata holds free-form context (request source, bulk counts, ...).
	Metadata JSONMap `gorm:"type:text"`
	// ActorID is the user who performed the action.
	ActorID uint64 `gorm:"index"`
	// CreatedAt is the timestamp when the entry was written.
	CreatedAt time.Time
}

// TableName specifies the database table name for the AuditLog model.
func (AuditLog) TableName() string {
	return "audit_logs"
}
