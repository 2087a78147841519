package models

import (
	"time"

	"github.com/rosterbase/rosterbase/internal/roster"
)

// Roster represents the planned staffing of one store shift on one date.
// At most one roster exists per (store, date, shift name) triple. Coverage
// metrics are recomputed whenever slots change and persisted for fast reads;
// the slots remain the authoritative source.
type Roster struct {
	// ID is the unique identifier for the roster.
	ID uint64 `gorm:"primaryKey"`
	// StoreID is the store this roster belongs to.
	StoreID uint64 `gorm:"column:store_id;uniqueIndex:idx_store_date_shift;not null"`
	// Store is the associated store.
	Store Store `gorm:"foreignKey:StoreID;references:ID;constraint:OnDelete:RESTRICT,OnUpdate:CASCADE"`
	// RosterDate is the calendar date the roster covers.
	RosterDate time.Time `gorm:"type:date;uniqueIndex:idx_store_date_shift;not null"`
	// ShiftName is the free-text shift name (see roster.ShiftNamesMatch for
	// reconciliation against the legacy enumerated shift type).
	ShiftName string `gorm:"uniqueIndex:idx_store_date_shift;size:100;not null"`
	// LegacyShiftType carries the enumerated shift type ("morning"/"evening")
	// from before the free-text migration. Nil once a row has been migrated.
	LegacyShiftType *string `gorm:"size:20"`
	// Status is the roster lifecycle state (draft, published, archived).
	Status roster.Status `gorm:"type:varchar(20);not null;default:'draft'"`

	// Persisted coverage metrics, derivable from slot state.
	TotalSlots         int
	FilledSlots        int
	VacantSlots        int
	CoveragePercentage float64
	MinRequiredStaff   int
	ActualStaff        int
	Warnings           StringList `gorm:"type:text"`

	// Slots is the ordered set of staffing assignments for this roster.
	Slots []RosterSlot `gorm:"foreignKey:RosterID;constraint:OnDelete:CASCADE"`

	// CreatedAt is the timestamp when the roster was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the roster was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Roster model.
func (Roster) TableName() string {
	return "rosters"
}

// Metrics converts the persisted coverage columns back into the aggregate form.
func (r *Roster) Metrics() roster.Metrics {
	return roster.Metrics{
		TotalSlots:         r.TotalSlots,
		FilledSlots:        r.FilledSlots,
		VacantSlots:        r.VacantSlots,
		CoveragePercentage: r.CoveragePercentage,
		MinRequiredStaff:   r.MinRequiredStaff,
		ActualStaff:        r.ActualStaff,
		Warnings:           r.Warnings,
	}
}

// ApplyMetrics writes a coverage aggregate into the persisted columns.
func (r *Roster) ApplyMetrics(m roster.Metrics) {
	r.TotalSlots = m.TotalSlots
	r.FilledSlots = m.FilledSlots
	r.VacantSlots = m.VacantSlots
	r.CoveragePercentage = m.CoveragePercentage
	r.MinRequiredStaff = m.MinRequiredStaff
	r.ActualStaff = m.ActualStaff
	r.Warnings = m.Warnings
}
