package models

import (
	"time"

	"github.com/rosterbase/rosterbase/internal/roster"
)

// RosterSlot represents one staffing assignment within a roster: a planned
// user (or vacancy), assigned tasks and a time window, plus an optional
// actuals overlay recording who really worked and when.
//
// Slot rows are fully replaced when a roster is edited, so slot IDs are not
// stable across edits; only the user/task/time content is preserved
// logically.
type RosterSlot struct {
	// ID is the unique identifier for the slot.
	ID uint64 `gorm:"primaryKey"`
	// RosterID is the roster this slot belongs to.
	RosterID uint64 `gorm:"column:roster_id;index;not null"`
	// PlannedUserID is the user planned into the slot; nil means vacant.
	PlannedUserID *uint64 `gorm:"column:planned_user_id;index"`
	// PlannedUser is the associated planned user, if any.
	PlannedUser *User `gorm:"foreignKey:PlannedUserID;references:ID"`
	// TaskIDs are the tasks assigned to the slot.
	TaskIDs IDList `gorm:"type:text"`
	// StartTime is the local start time of day in "HH:MM", normally inherited
	// from the shift definition.
	StartTime string `gorm:"size:5;not null"`
	// EndTime is the local end time of day in "HH:MM".
	EndTime string `gorm:"size:5;not null"`
	// Status mirrors the roster lifecycle state.
	Status roster.Status `gorm:"type:varchar(20);not null;default:'draft'"`

	// Actuals overlay. All fields are nil/empty until actuals are recorded.

	// ActualUserID is the user who actually worked the slot when it differs
	// from the plan (substitution).
	ActualUserID *uint64 `gorm:"column:actual_user_id"`
	// ActualUser is the associated actual user, if any.
	ActualUser *User `gorm:"foreignKey:ActualUserID;references:ID"`
	// ActualStartTime is the recorded start time of day in "HH:MM".
	ActualStartTime *string `gorm:"size:8"`
	// ActualEndTime is the recorded end time of day in "HH:MM".
	ActualEndTime *string `gorm:"size:8"`
	// ActualTasksCompleted are the tasks actually completed during the slot.
	ActualTasksCompleted IDList `gorm:"type:text"`
	// AttendanceStatus is the derived attendance classification. Empty until
	// actuals exist. Absent and substituted are only ever set explicitly.
	AttendanceStatus roster.AttendanceStatus `gorm:"type:varchar(20)"`
	// SubstitutionReason explains why a different user worked the slot.
	SubstitutionReason string `gorm:"size:255"`
	// ActualNotes carries free-text notes recorded with the actuals.
	ActualNotes string `gorm:"size:1000"`
	// CheckedInAt is stamped when the actual start time is first recorded.
	// Written at most once per slot; retries are no-ops for this field.
	CheckedInAt *time.Time
	// CheckedInBy is the user who recorded the check-in.
	CheckedInBy *uint64
	// CheckedOutAt is stamped when the actual end time is first recorded.
	// Written at most once per slot; retries are no-ops for this field.
	CheckedOutAt *time.Time
	// CheckedOutBy is the user who recorded the check-out.
	CheckedOutBy *uint64

	// CreatedAt is the timestamp when the slot was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the slot was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the RosterSlot model.
func (RosterSlot) TableName() string {
	return "roster_slots"
}

// HasActuals reports whether any actuals field has been recorded on the slot.
func (s *RosterSlot) HasActuals() bool {
	return s.ActualUserID != nil ||
		s.ActualStartTime != nil ||
		s.ActualEndTime != nil ||
		len(s.ActualTasksCompleted) > 0 ||
		s.AttendanceStatus != "" ||
		s.CheckedInAt != nil ||
		s.CheckedOutAt != nil
}

// Staffing converts the slot into the staffing view used for coverage
// aggregation.
func (s *RosterSlot) Staffing() roster.SlotStaffing {
	return roster.SlotStaffing{
		PlannedUserID: s.PlannedUserID,
		ActualUserID:  s.ActualUserID,
		HasActuals:    s.HasActuals(),
	}
}
