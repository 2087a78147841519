// Package rosterctl orchestrates roster lifecycle operations: creating and
// replacing planned slots, publishing, recording actuals, and deletion. All
// multi-row mutations run inside a transaction so readers never observe a
// roster with half of its slots.
package rosterctl

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rosterbase/rosterbase/internal/audit"
	"github.com/rosterbase/rosterbase/internal/db/controller/storesetting"
	"github.com/rosterbase/rosterbase/internal/db/models"
	"github.com/rosterbase/rosterbase/internal/roster"
)

// Audit actions recorded by this package.
const (
	ActionRosterCreated   = "roster.created"
	ActionRosterUpdated   = "roster.updated"
	ActionRosterPublished = "roster.published"
	ActionRosterDeleted   = "roster.deleted"
	ActionActualsRecorded = "actuals.recorded"
	ActionActualsCleared  = "actuals.cleared"

	// EntityRoster and EntitySlot name the audited entity types.
	EntityRoster = "roster"
	EntitySlot   = "roster_slot"
)

// MaxSlotHours is the longest slot window that passes without a warning.
const MaxSlotHours = 10.0

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrRosterNotFound is returned when a roster cannot be found.
	ErrRosterNotFound = errors.New("roster not found")
	// ErrSlotNotFound is returned when a roster slot cannot be found.
	ErrSlotNotFound = errors.New("roster slot not found")
	// ErrShiftNameEmpty is returned when the shift name is blank.
	ErrShiftNameEmpty = errors.New("shift name cannot be empty")
	// ErrNoSlots is returned when a roster is written without any slots.
	ErrNoSlots = errors.New("a roster needs at least one slot")
	// ErrInvalidTransition is returned for a lifecycle transition that would
	// move backwards (publishing is irreversible).
	ErrInvalidTransition = errors.New("invalid roster status transition")
	// ErrDeletionInProgress is returned when another request is already
	// deleting the same roster.
	ErrDeletionInProgress = errors.New("roster deletion already in progress")
	// ErrNotSlotOwner is returned when a user checks out a slot that is not
	// theirs.
	ErrNotSlotOwner = errors.New("slot is not assigned to this user")
	// ErrInvalidAttendance is returned for an unknown attendance status.
	ErrInvalidAttendance = errors.New("invalid attendance status")
)

// SlotInput is the planned content of one slot for create/replace.
type SlotInput struct {
	PlannedUserID *uint64
	TaskIDs       []uint64
	StartTime     string
	EndTime       string
}

// UpsertInput identifies a roster by its (store, date, shift) triple and
// carries the full replacement slot set.
type UpsertInput struct {
	StoreID    uint64
	RosterDate time.Time
	ShiftName  string
	Slots      []SlotInput
}

// ActualsInput carries the actuals overlay for one slot. Nil/empty fields
// are left untouched.
type ActualsInput struct {
	SlotID               uint64
	ActualUserID         *uint64
	ActualStartTime      *string
	ActualEndTime        *string
	ActualTasksCompleted []uint64
	AttendanceStatus     roster.AttendanceStatus
	SubstitutionReason   string
	ActualNotes          string
}

// BulkError pairs a failed slot with the reason it was skipped.
type BulkError struct {
	SlotID  uint64 `json:"slotId"`
	Message string `json:"message"`
}

// BulkResult summarizes a best-effort bulk actuals write.
type BulkResult struct {
	Updated int         `json:"updated"`
	Errors  []BulkError `json:"errors,omitempty"`
}

// Get retrieves a roster by ID with its slots and user associations.
func Get(db *gorm.DB, rosterID uint64) (*models.Roster, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var r models.Roster

	err := db.
		Preload("Slots", func(db *gorm.DB) *gorm.DB { return db.Order("roster_slots.id ASC") }).
		Preload("Slots.PlannedUser").
		Preload("Slots.ActualUser").
		First(&r, rosterID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRosterNotFound
	}

	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return &r, nil
}

// List retrieves the rosters of one store between two dates (inclusive),
// slots included.
func List(db *gorm.DB, storeID uint64, from, to time.Time) ([]models.Roster, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var rosters []models.Roster

	err := db.
		Preload("Slots", func(db *gorm.DB) *gorm.DB { return db.Order("roster_slots.id ASC") }).
		Where("store_id = ? AND roster_date BETWEEN ? AND ?", storeID, dateOnly(from), dateOnly(to)).
		Order("roster_date ASC, shift_name ASC").
		Find(&rosters).Error
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return rosters, nil
}

// FindByShift locates the roster for a store/date whose shift name matches
// shiftName. An exact triple match wins; otherwise names are compared
// permissively (case-insensitive, substring either way) against both the
// shift name and the legacy enumerated shift type.
func FindByShift(db *gorm.DB, storeID uint64, date time.Time, shiftName string) (*models.Roster, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var candidates []models.Roster

	err := db.Where("store_id = ? AND roster_date = ?", storeID, dateOnly(date)).
		Order("id ASC").
		Find(&candidates).Error
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	for i := range candidates {
		if candidates[i].ShiftName == shiftName {
			return Get(db, candidates[i].ID)
		}
	}

	for i := range candidates {
		c := &candidates[i]

		if roster.ShiftNamesMatch(c.ShiftName, shiftName) {
			return Get(db, c.ID)
		}

		if c.LegacyShiftType != nil && roster.ShiftNamesMatch(*c.LegacyShiftType, shiftName) {
			return Get(db, c.ID)
		}
	}

	return nil, ErrRosterNotFound
}

// Exists reports whether a roster is already stored for the exact
// (store, date, shift) triple. Callers that must tell a create apart from a
// slot replacement check here before Upsert.
func Exists(db *gorm.DB, storeID uint64, date time.Time, shiftName string) (bool, error) {
	if db == nil {
		return false, ErrDBNil
	}

	var count int64

	err := db.Model(&models.Roster{}).
		Where("store_id = ? AND roster_date = ? AND shift_name = ?", storeID, dateOnly(date), shiftName).
		Count(&count).Error
	if err != nil {
		return false, err //nolint:wrapcheck
	}

	return count > 0, nil
}

// Upsert creates the roster for input's (store, date, shift) triple, or
// replaces its slot set when it already exists. Replacement deletes every
// existing slot and re-inserts the new set; the delete and insert, together
// with the coverage recompute, commit atomically. Slot IDs are therefore not
// stable across edits.
func Upsert(db *gorm.DB, actorID uint64, input UpsertInput) (*models.Roster, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if input.ShiftName == "" {
		return nil, ErrShiftNameEmpty
	}

	if len(input.Slots) == 0 {
		return nil, ErrNoSlots
	}

	for _, s := range input.Slots {
		if _, err := roster.MinutesOfDay(s.StartTime); err != nil {
			return nil, err //nolint:wrapcheck
		}

		if _, err := roster.MinutesOfDay(s.EndTime); err != nil {
			return nil, err //nolint:wrapcheck
		}
	}

	var result *models.Roster

	err := db.Transaction(func(tx *gorm.DB) error {
		var (
			r       models.Roster
			created bool
		)

		err := tx.Where("store_id = ? AND roster_date = ? AND shift_name = ?",
			input.StoreID, dateOnly(input.RosterDate), input.ShiftName).
			First(&r).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
			r = models.Roster{
				StoreID:    input.StoreID,
				RosterDate: dateOnly(input.RosterDate),
				ShiftName:  input.ShiftName,
				Status:     roster.StatusDraft,
			}

			if err := tx.Create(&r).Error; err != nil {
				return fmt.Errorf("failed to create roster: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to look up roster: %w", err)
		default:
			// Full slot replacement: actuals recorded on the old rows are
			// dropped with them.
			if err := tx.Where("roster_id = ?", r.ID).Delete(&models.RosterSlot{}).Error; err != nil {
				return fmt.Errorf("failed to clear slots: %w", err)
			}
		}

		slots := make([]models.RosterSlot, 0, len(input.Slots))
		for _, s := range input.Slots {
			slots = append(slots, models.RosterSlot{
				RosterID:      r.ID,
				PlannedUserID: s.PlannedUserID,
				TaskIDs:       s.TaskIDs,
				StartTime:     s.StartTime,
				EndTime:       s.EndTime,
				Status:        r.Status,
			})
		}

		if err := tx.Create(&slots).Error; err != nil {
			return fmt.Errorf("failed to insert slots: %w", err)
		}

		r.Slots = slots

		if err := recomputeCoverage(tx, &r); err != nil {
			return err
		}

		action := ActionRosterUpdated
		if created {
			action = ActionRosterCreated
		}

		if err := audit.Record(tx, actorID, action, EntityRoster, r.ID, models.JSONMap{
			"shiftName": r.ShiftName,
			"slotCount": len(slots),
		}, nil); err != nil {
			return err //nolint:wrapcheck
		}

		result = &r

		return nil
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return result, nil
}

// Publish moves a draft roster to published. The transition is irreversible;
// slot rows mirror the new status.
func Publish(db *gorm.DB, actorID, rosterID uint64) (*models.Roster, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var result *models.Roster

	err := db.Transaction(func(tx *gorm.DB) error {
		var r models.Roster

		if err := tx.First(&r, rosterID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRosterNotFound
			}

			return err //nolint:wrapcheck
		}

		if !roster.CanTransition(r.Status, roster.StatusPublished) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, roster.StatusPublished)
		}

		r.Status = roster.StatusPublished
		if err := tx.Model(&r).Update("status", r.Status).Error; err != nil {
			return fmt.Errorf("failed to publish roster: %w", err)
		}

		err := tx.Model(&models.RosterSlot{}).
			Where("roster_id = ?", r.ID).
			Update("status", roster.StatusPublished).Error
		if err != nil {
			return fmt.Errorf("failed to publish slots: %w", err)
		}

		if err := audit.Record(tx, actorID, ActionRosterPublished, EntityRoster, r.ID, nil, nil); err != nil {
			return err //nolint:wrapcheck
		}

		result = &r

		return nil
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return result, nil
}

// RecordActuals applies one actuals overlay and recomputes the roster's
// coverage metrics.
func RecordActuals(db *gorm.DB, actorID uint64, input ActualsInput) (*models.RosterSlot, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var result *models.RosterSlot

	err := db.Transaction(func(tx *gorm.DB) error {
		slot, err := applyActuals(tx, actorID, input)
		if err != nil {
			return err
		}

		if err := recomputeCoverageByID(tx, slot.RosterID); err != nil {
			return err
		}

		result = slot

		return nil
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return result, nil
}

// RecordActualsBulk applies many actuals overlays best-effort: each item
// succeeds or fails on its own, and the result reports both the success
// count and the per-slot failures. Coverage is recomputed once per touched
// roster at the end.
func RecordActualsBulk(db *gorm.DB, actorID uint64, items []ActualsInput) (BulkResult, error) {
	if db == nil {
		return BulkResult{}, ErrDBNil
	}

	var result BulkResult

	touched := map[uint64]struct{}{}

	for _, item := range items {
		err := db.Transaction(func(tx *gorm.DB) error {
			slot, err := applyActuals(tx, actorID, item)
			if err != nil {
				return err
			}

			touched[slot.RosterID] = struct{}{}

			return nil
		})
		if err != nil {
			result.Errors = append(result.Errors, BulkError{SlotID: item.SlotID, Message: err.Error()})

			continue
		}

		result.Updated++
	}

	for rosterID := range touched {
		if err := db.Transaction(func(tx *gorm.DB) error {
			return recomputeCoverageByID(tx, rosterID)
		}); err != nil {
			return result, err //nolint:wrapcheck
		}
	}

	return result, nil
}

// applyActuals mutates one slot with the given overlay inside tx.
func applyActuals(tx *gorm.DB, actorID uint64, input ActualsInput) (*models.RosterSlot, error) {
	var slot models.RosterSlot

	if err := tx.First(&slot, input.SlotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotNotFound
		}

		return nil, err //nolint:wrapcheck
	}

	if input.AttendanceStatus != "" && !roster.ValidAttendanceStatus(input.AttendanceStatus) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAttendance, input.AttendanceStatus)
	}

	now := time.Now()

	if input.ActualUserID != nil {
		slot.ActualUserID = input.ActualUserID
	}

	if len(input.ActualTasksCompleted) > 0 {
		slot.ActualTasksCompleted = input.ActualTasksCompleted
	}

	if input.SubstitutionReason != "" {
		slot.SubstitutionReason = input.SubstitutionReason
	}

	if input.ActualNotes != "" {
		slot.ActualNotes = input.ActualNotes
	}

	// An explicit status (absent, substituted, or a manager correction) wins
	// over derivation. Otherwise recording a time initializes the status to
	// present before the grace-window checks run.
	explicit := input.AttendanceStatus != ""
	if explicit {
		slot.AttendanceStatus = input.AttendanceStatus
	} else if slot.AttendanceStatus == "" && (input.ActualStartTime != nil || input.ActualEndTime != nil) {
		slot.AttendanceStatus = roster.AttendancePresent
	}

	if input.ActualStartTime != nil {
		if _, err := roster.MinutesOfDay(*input.ActualStartTime); err != nil {
			return nil, err //nolint:wrapcheck
		}

		slot.ActualStartTime = input.ActualStartTime

		// check-in stamp is write-once
		if slot.CheckedInAt == nil {
			slot.CheckedInAt = &now
			slot.CheckedInBy = &actorID
		}

		if !explicit {
			status, err := roster.DeriveCheckIn(slot.AttendanceStatus, slot.StartTime, *input.ActualStartTime)
			if err != nil {
				return nil, err //nolint:wrapcheck
			}

			slot.AttendanceStatus = status
		}
	}

	if input.ActualEndTime != nil {
		if _, err := roster.MinutesOfDay(*input.ActualEndTime); err != nil {
			return nil, err //nolint:wrapcheck
		}

		slot.ActualEndTime = input.ActualEndTime

		// check-out stamp is write-once
		if slot.CheckedOutAt == nil {
			slot.CheckedOutAt = &now
			slot.CheckedOutBy = &actorID
		}

		if !explicit {
			status, err := roster.DeriveCheckOut(slot.AttendanceStatus, slot.EndTime, *input.ActualEndTime)
			if err != nil {
				return nil, err //nolint:wrapcheck
			}

			slot.AttendanceStatus = status
		}
	}

	if err := tx.Save(&slot).Error; err != nil {
		return nil, fmt.Errorf("failed to save slot: %w", err)
	}

	if err := audit.Record(tx, actorID, ActionActualsRecorded, EntitySlot, slot.ID, nil, nil); err != nil {
		return nil, err //nolint:wrapcheck
	}

	return &slot, nil
}

// ClearActuals removes the whole actuals overlay from a slot and recomputes
// the roster's coverage metrics.
func ClearActuals(db *gorm.DB, actorID, slotID uint64) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Transaction(func(tx *gorm.DB) error { //nolint:wrapcheck
		var slot models.RosterSlot

		if err := tx.First(&slot, slotID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSlotNotFound
			}

			return err //nolint:wrapcheck
		}

		err := tx.Model(&slot).Updates(map[string]interface{}{
			"actual_user_id":         nil,
			"actual_start_time":      nil,
			"actual_end_time":        nil,
			"actual_tasks_completed": nil,
			"attendance_status":      "",
			"substitution_reason":    "",
			"actual_notes":           "",
			"checked_in_at":          nil,
			"checked_in_by":          nil,
			"checked_out_at":         nil,
			"checked_out_by":         nil,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to clear actuals: %w", err)
		}

		if err := audit.Record(tx, actorID, ActionActualsCleared, EntitySlot, slot.ID, nil, nil); err != nil {
			return err //nolint:wrapcheck
		}

		return recomputeCoverageByID(tx, slot.RosterID)
	})
}

// CheckOut records the end of the caller's own slot. The slot must be
// planned for (or actually worked by) the caller. The check-out stamp is
// written once; repeated calls update the recorded end time but never the
// stamp, and the attendance status derives from the grace window.
func CheckOut(db *gorm.DB, userID, slotID uint64, actualEnd string) (*models.RosterSlot, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var result *models.RosterSlot

	err := db.Transaction(func(tx *gorm.DB) error {
		var slot models.RosterSlot

		if err := tx.First(&slot, slotID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSlotNotFound
			}

			return err //nolint:wrapcheck
		}

		owns := (slot.PlannedUserID != nil && *slot.PlannedUserID == userID) ||
			(slot.ActualUserID != nil && *slot.ActualUserID == userID)
		if !owns {
			return ErrNotSlotOwner
		}

		slot, err := checkOutSlot(tx, slot, userID, actualEnd)
		if err != nil {
			return err
		}

		if err := recomputeCoverageByID(tx, slot.RosterID); err != nil {
			return err
		}

		result = &slot

		return nil
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return result, nil
}

// checkOutSlot applies the end-of-slot mutation.
func checkOutSlot(tx *gorm.DB, slot models.RosterSlot, userID uint64, actualEnd string) (models.RosterSlot, error) {
	if _, err := roster.MinutesOfDay(actualEnd); err != nil {
		return slot, err //nolint:wrapcheck
	}

	if slot.AttendanceStatus == "" {
		slot.AttendanceStatus = roster.AttendancePresent
	}

	status, err := roster.DeriveCheckOut(slot.AttendanceStatus, slot.EndTime, actualEnd)
	if err != nil {
		return slot, err //nolint:wrapcheck
	}

	slot.AttendanceStatus = status
	slot.ActualEndTime = &actualEnd

	if slot.CheckedOutAt == nil {
		now := time.Now()
		slot.CheckedOutAt = &now
		slot.CheckedOutBy = &userID
	}

	if err := tx.Save(&slot).Error; err != nil {
		return slot, fmt.Errorf("failed to save slot: %w", err)
	}

	return slot, nil
}

// Delete removes a roster and its slots. The roster row is locked for the
// duration of the transaction so concurrent deletes serialize at the
// database; the audit trail doubles as the in-progress marker, so a second
// delete arriving while (or after) the first one runs reports
// ErrDeletionInProgress or ErrRosterNotFound instead of deleting twice.
func Delete(db *gorm.DB, actorID, rosterID uint64) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Transaction(func(tx *gorm.DB) error { //nolint:wrapcheck
		var r models.Roster

		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&r, rosterID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRosterNotFound
		}

		if err != nil {
			return err //nolint:wrapcheck
		}

		deleted, err := audit.Exists(tx, ActionRosterDeleted, EntityRoster, r.ID)
		if err != nil {
			return err //nolint:wrapcheck
		}

		if deleted {
			return ErrDeletionInProgress
		}

		if err := audit.Record(tx, actorID, ActionRosterDeleted, EntityRoster, r.ID, models.JSONMap{
			"shiftName":  r.ShiftName,
			"rosterDate": r.RosterDate.Format("2006-01-02"),
		}, nil); err != nil {
			return err //nolint:wrapcheck
		}

		if err := tx.Where("roster_id = ?", r.ID).Delete(&models.RosterSlot{}).Error; err != nil {
			return fmt.Errorf("failed to delete slots: %w", err)
		}

		if err := tx.Delete(&r).Error; err != nil {
			return fmt.Errorf("failed to delete roster: %w", err)
		}

		return nil
	})
}

// recomputeCoverageByID reloads a roster with its slots and recomputes its
// coverage columns.
func recomputeCoverageByID(tx *gorm.DB, rosterID uint64) error {
	var r models.Roster

	if err := tx.Preload("Slots").First(&r, rosterID).Error; err != nil {
		return err //nolint:wrapcheck
	}

	return recomputeCoverage(tx, &r)
}

// recomputeCoverage derives the coverage aggregate from r.Slots and persists
// it. Must run inside the same transaction as the slot mutation.
func recomputeCoverage(tx *gorm.DB, r *models.Roster) error {
	staffing := make([]roster.SlotStaffing, 0, len(r.Slots))
	for i := range r.Slots {
		staffing = append(staffing, r.Slots[i].Staffing())
	}

	minRequired := storesetting.MinRequiredStaff(tx, r.StoreID)
	warnings := slotWarnings(r.Slots)

	m := roster.Compute(staffing, minRequired, warnings)
	r.ApplyMetrics(m)

	err := tx.Model(&models.Roster{}).
		Where("id = ?", r.ID).
		Updates(map[string]interface{}{
			"total_slots":         m.TotalSlots,
			"filled_slots":        m.FilledSlots,
			"vacant_slots":        m.VacantSlots,
			"coverage_percentage": m.CoveragePercentage,
			"min_required_staff":  m.MinRequiredStaff,
			"actual_staff":        m.ActualStaff,
			"warnings":            models.StringList(m.Warnings),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to persist coverage: %w", err)
	}

	return nil
}

// slotWarnings enumerates planning policy violations: a user planned into
// more than one slot, and slot windows exceeding the working-hours limit.
func slotWarnings(slots []models.RosterSlot) []string {
	var warnings []string

	seen := map[uint64]bool{}
	flagged := map[uint64]bool{}

	for i := range slots {
		s := &slots[i]

		if s.PlannedUserID != nil {
			id := *s.PlannedUserID
			if seen[id] && !flagged[id] {
				warnings = append(warnings, fmt.Sprintf("user %d is planned into multiple slots", id))
				flagged[id] = true
			}

			seen[id] = true
		}

		hours, err := roster.ShiftDuration(s.StartTime, s.EndTime)
		if err != nil {
			continue
		}

		if hours > MaxSlotHours {
			warnings = append(warnings,
				fmt.Sprintf("slot %s-%s exceeds %.0f working hours", s.StartTime, s.EndTime, MaxSlotHours))
		}
	}

	return warnings
}

// dateOnly truncates a timestamp to its calendar date in UTC.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
