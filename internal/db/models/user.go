package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AuthSource represents the authentication source for a user account.
// It indicates how the user authenticates (local database, LDAP, or OIDC).
type AuthSource string

const (
	// AuthSourceLocal indicates the user authenticates with a local database password.
	AuthSourceLocal AuthSource = "local"
	// AuthSourceOIDC indicates the user authenticates via the hosted identity provider (OIDC).
	AuthSourceOIDC AuthSource = "oidc"
	// AuthSourceLDAP indicates the user authenticates via LDAP or Active Directory.
	AuthSourceLDAP AuthSource = "ldap"
)

// User represents a staff member account. Users belong to one store, carry
// one role and can be planned into roster slots. Accounts are soft deleted
// so historical rosters keep resolving their references.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey"`
	// Active indicates whether the user account is active and can log in.
	Active bool
	// Username is the unique username for login.
	Username string `gorm:"unique;size:100;not null"`
	// Email is the user's email address.
	Email string `gorm:"size:255;not null"`
	// Password is the Argon2id hashed password (only used for local authentication).
	Password string `gorm:"size:255"`
	// FirstName is the user's first or given name.
	FirstName string `gorm:"size:100"`
	// LastName is the user's last or family name.
	LastName string `gorm:"size:100"`
	// EmployeeCode is the unique human-readable staff code printed on badges.
	EmployeeCode string `gorm:"unique;size:20;not null"`
	// StoreID is the store this user belongs to.
	StoreID uint64 `gorm:"column:store_id;index;not null"`
	// Store is the associated store.
	Store Store `gorm:"foreignKey:StoreID;references:ID;constraint:OnDelete:RESTRICT,OnUpdate:CASCADE"`
	// RoleID is the ID of the role assigned to this user.
	RoleID uint `gorm:"column:role_id;not null"`
	// Role is the associated role (enforced with a foreign key constraint).
	Role Role `gorm:"foreignKey:RoleID;references:ID;constraint:OnDelete:RESTRICT,OnUpdate:CASCADE"`
	// ExperienceLevel classifies the user's proficiency (e.g. "trainee", "experienced").
	ExperienceLevel string `gorm:"size:50"`
	// PickerPackerType is the picker-packer subtype, empty for other roles.
	PickerPackerType string `gorm:"size:50"`
	// WeekOffCount is the number of weekly days off granted to the user (0-7).
	WeekOffCount int `gorm:"default:1"`
	// WeekOffDays holds specific weekday indices (0=Sunday .. 6=Saturday) the
	// user is off. At most one entry is accepted at update time.
	WeekOffDays IntList `gorm:"type:text"`
	// DefaultShiftName is the free-text shift name the user is usually planned into.
	DefaultShiftName string `gorm:"size:100"`
	// AuthSource indicates how this user authenticates (local, oidc, or ldap).
	AuthSource AuthSource `gorm:"type:varchar(20);not null;default:'local'"`
	// ExternalID is the external identifier for OIDC (sub claim) or LDAP (DN) users.
	ExternalID string `gorm:"size:255"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time
	// DeletedAt is the soft delete timestamp. Deleted users are filtered from
	// queries but never physically removed while rosters reference them.
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
// This function should be used when creating or updating local user passwords.
// It uses the default Argon2id parameters for secure password hashing.
func HashPassword(password string) string {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatal().Msgf("failed to hash password: %v", err)
	}

	return hashedPassword
}

// VerifyPassword verifies a plaintext password against the user's stored hashed password.
// It uses constant-time comparison to prevent timing attacks.
// Returns true if the password matches, false otherwise.
func (u *User) VerifyPassword(password string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, u.Password)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}
