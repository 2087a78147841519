package models

import "time"

// RoleKind is the stable identifier authorization decisions are made on.
// Display names are free to change in the UI; the kind is not, so renaming a
// role can never silently change who may modify whom.
type RoleKind string

const (
	// RoleKindStoreManager is the distinguished full-access role.
	RoleKindStoreManager RoleKind = "store_manager"
	// RoleKindShiftInCharge is the shift supervisor role.
	RoleKindShiftInCharge RoleKind = "shift_in_charge"
	// RoleKindInventoryExecutive is the inventory management role.
	RoleKindInventoryExecutive RoleKind = "inventory_executive"
	// RoleKindPickerPacker covers the picker-packer staff roles.
	RoleKindPickerPacker RoleKind = "picker_packer"
	// RoleKindCustom marks roles added by administrators at runtime.
	RoleKindCustom RoleKind = "custom"
)

// Role represents a role in the role-based access control (RBAC) system.
// Roles are collections of permissions assigned to users. A fixed set of
// system roles seeds the permission lattice; custom roles may be added.
type Role struct {
	// ID is the unique identifier for the role.
	ID uint `gorm:"primaryKey"`
	// Name is the unique display name of the role (e.g. "Store Manager").
	Name string `gorm:"unique;size:100;not null"`
	// Kind is the stable role identifier used by authorization checks.
	Kind RoleKind `gorm:"type:varchar(30);not null;default:'custom';index"`
	// Description provides a human-readable description of the role's purpose.
	Description string `gorm:"size:255"`
	// DefaultTaskIDs are the tasks pre-selected when planning a user with this role.
	DefaultTaskIDs IDList `gorm:"type:text"`
	// DefaultExperience is the experience level pre-selected for this role.
	DefaultExperience string `gorm:"size:50"`
	// Editable indicates whether the role's permission set may be changed.
	Editable bool `gorm:"default:true"`
	// IsSystem indicates if this is a system role that cannot be deleted.
	IsSystem bool `gorm:"default:false"`
	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the role was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Role model.
// This overrides GORM's default pluralized table naming.
func (Role) TableName() string {
	return "roles"
}
