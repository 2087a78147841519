package rosterctl

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rosterbase/rosterbase/internal/audit"
	"github.com/rosterbase/rosterbase/internal/db/controller/storesetting"
	"github.com/rosterbase/rosterbase/internal/db/models"
	"github.com/rosterbase/rosterbase/internal/roster"
)

const actorID = uint64(99)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(
		&models.Store{},
		&models.Role{},
		&models.User{},
		&models.Roster{},
		&models.RosterSlot{},
		&models.StoreSetting{},
		&models.AuditLog{},
	)
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func uid(v uint64) *uint64 { return &v }

func str(v string) *string { return &v }

// seedRoster creates a draft roster with the given planned user IDs, one slot
// each, 09:00-17:00.
func seedRoster(t *testing.T, db *gorm.DB, shiftName string, plannedUsers ...*uint64) *models.Roster {
	t.Helper()

	input := UpsertInput{
		StoreID:    1,
		RosterDate: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		ShiftName:  shiftName,
	}

	for _, u := range plannedUsers {
		input.Slots = append(input.Slots, SlotInput{
			PlannedUserID: u,
			StartTime:     "09:00",
			EndTime:       "17:00",
		})
	}

	r, err := Upsert(db, actorID, input)
	require.NoError(t, err)

	return r
}

func TestUpsertCreate(t *testing.T) {
	db := setupTestDB(t)

	_, err := storesetting.Set(db, 1, storesetting.NameMinRequiredStaff, []byte("4"))
	require.NoError(t, err)

	// 5 slots, 3 filled, min required 4
	r := seedRoster(t, db, "Morning", uid(1), uid(2), uid(3), nil, nil)

	assert.Equal(t, roster.StatusDraft, r.Status)
	assert.Equal(t, 5, r.TotalSlots)
	assert.Equal(t, 3, r.FilledSlots)
	assert.Equal(t, 2, r.VacantSlots)
	assert.InDelta(t, 75.0, r.CoveragePercentage, 0.001)
	assert.Equal(t, 4, r.MinRequiredStaff)
	assert.Equal(t, 3, r.ActualStaff)

	exists, err := audit.Exists(db, ActionRosterCreated, EntityRoster, r.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUpsertReplace(t *testing.T) {
	db := setupTestDB(t)

	r := seedRoster(t, db, "Morning", uid(1), uid(2))

	var oldSlotIDs []uint64
	for _, s := range r.Slots {
		oldSlotIDs = append(oldSlotIDs, s.ID)
	}

	replaced, err := Upsert(db, actorID, UpsertInput{
		StoreID:    1,
		RosterDate: r.RosterDate,
		ShiftName:  "Morning",
		Slots: []SlotInput{
			{PlannedUserID: uid(3), StartTime: "10:00", EndTime: "18:00"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, r.ID, replaced.ID, "upsert must reuse the existing roster")
	assert.Len(t, replaced.Slots, 1)
	assert.Equal(t, 1, replaced.TotalSlots)

	// Old slot rows are gone.
	var count int64
	require.NoError(t, db.Model(&models.RosterSlot{}).Where("id IN ?", oldSlotIDs).Count(&count).Error)
	assert.Zero(t, count)

	exists, err := audit.Exists(db, ActionRosterUpdated, EntityRoster, r.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUpsertValidation(t *testing.T) {
	db := setupTestDB(t)

	testCases := []struct {
		name          string
		input         UpsertInput
		expectedError error
	}{
		{
			name:          "empty shift name",
			input:         UpsertInput{StoreID: 1, Slots: []SlotInput{{StartTime: "09:00", EndTime: "17:00"}}},
			expectedError: ErrShiftNameEmpty,
		},
		{
			name:          "no slots",
			input:         UpsertInput{StoreID: 1, ShiftName: "Morning"},
			expectedError: ErrNoSlots,
		},
		{
			name: "bad slot time",
			input: UpsertInput{
				StoreID:   1,
				ShiftName: "Morning",
				Slots:     []SlotInput{{StartTime: "morning", EndTime: "17:00"}},
			},
			expectedError: roster.ErrBadTimeOfDay,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Upsert(db, actorID, tc.input)
			require.ErrorIs(t, err, tc.expectedError)
		})
	}
}

func TestUpsertWarnings(t *testing.T) {
	db := setupTestDB(t)

	// Same user twice, and a 12-hour slot.
	r, err := Upsert(db, actorID, UpsertInput{
		StoreID:    1,
		RosterDate: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		ShiftName:  "Morning",
		Slots: []SlotInput{
			{PlannedUserID: uid(1), StartTime: "09:00", EndTime: "17:00"},
			{PlannedUserID: uid(1), StartTime: "06:00", EndTime: "18:00"},
		},
	})
	require.NoError(t, err)

	require.Len(t, r.Warnings, 2)
	assert.Contains(t, r.Warnings[0], "multiple slots")
	assert.Contains(t, r.Warnings[1], "exceeds")
}

func TestPublish(t *testing.T) {
	db := setupTestDB(t)

	r := seedRoster(t, db, "Morning", uid(1))

	published, err := Publish(db, actorID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, roster.StatusPublished, published.Status)

	// Slots mirror the roster status.
	var slot models.RosterSlot
	require.NoError(t, db.Where("roster_id = ?", r.ID).First(&slot).Error)
	assert.Equal(t, roster.StatusPublished, slot.Status)

	// Publishing is irreversible and not repeatable.
	_, err = Publish(db, actorID, r.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = Publish(db, actorID, 12345)
	require.ErrorIs(t, err, ErrRosterNotFound)
}

func TestRecordActualsDerivesAttendance(t *testing.T) {
	db := setupTestDB(t)

	testCases := []struct {
		name           string
		actualEnd      string
		expectedStatus roster.AttendanceStatus
	}{
		{name: "20 minutes early is left_early", actualEnd: "16:40", expectedStatus: roster.AttendanceLeftEarly},
		{name: "10 minutes early stays present", actualEnd: "16:50", expectedStatus: roster.AttendancePresent},
		{name: "exactly 15 minutes early stays present", actualEnd: "16:45", expectedStatus: roster.AttendancePresent},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := seedRoster(t, db, "shift "+tc.actualEnd, uid(1))

			slot, err := RecordActuals(db, actorID, ActualsInput{
				SlotID:        r.Slots[0].ID,
				ActualEndTime: str(tc.actualEnd),
			})
			require.NoError(t, err)
			assert.Equal(t, tc.expectedStatus, slot.AttendanceStatus)
			require.NotNil(t, slot.CheckedOutAt)
			assert.Equal(t, actorID, *slot.CheckedOutBy)
		})
	}
}

func TestRecordActualsExplicitStatusWins(t *testing.T) {
	db := setupTestDB(t)

	r := seedRoster(t, db, "Morning", uid(1))

	// Manager marks the user absent.
	slot, err := RecordActuals(db, actorID, ActualsInput{
		SlotID:           r.Slots[0].ID,
		AttendanceStatus: roster.AttendanceAbsent,
	})
	require.NoError(t, err)
	assert.Equal(t, roster.AttendanceAbsent, slot.AttendanceStatus)

	// A later derived check-out must not overwrite the explicit status.
	slot, err = RecordActuals(db, actorID, ActualsInput{
		SlotID:        r.Slots[0].ID,
		ActualEndTime: str("16:00"),
	})
	require.NoError(t, err)
	assert.Equal(t, roster.AttendanceAbsent, slot.AttendanceStatus)
}

func TestRecordActualsCheckStampsWriteOnce(t *testing.T) {
	db := setupTestDB(t)

	r := seedRoster(t, db, "Morning", uid(1))

	first, err := RecordActuals(db, actorID, ActualsInput{
		SlotID:          r.Slots[0].ID,
		ActualStartTime: str("09:05"),
	})
	require.NoError(t, err)
	require.NotNil(t, first.CheckedInAt)

	second, err := RecordActuals(db, uint64(77), ActualsInput{
		SlotID:          r.Slots[0].ID,
		ActualStartTime: str("09:30"),
	})
	require.NoError(t, err)

	assert.Equal(t, first.CheckedInAt.Unix(), second.CheckedInAt.Unix(), "check-in stamp must not move")
	assert.Equal(t, actorID, *second.CheckedInBy)
	assert.Equal(t, "09:30", *second.ActualStartTime, "recorded time still updates")
}

func TestRecordActualsInvalidStatus(t *testing.T) {
	db := setupTestDB(t)

	r := seedRoster(t, db, "Morning", uid(1))

	_, err := RecordActuals(db, actorID, ActualsInput{
		SlotID:           r.Slots[0].ID,
		AttendanceStatus: "vanished",
	})
	require.ErrorIs(t, err, ErrInvalidAttendance)
}

func TestRecordActualsBulkBestEffort(t *testing.T) {
	db := setupTestDB(t)

	r := seedRoster(t, db, "Morning", uid(1), uid(2))

	result, err := RecordActualsBulk(db, actorID, []ActualsInput{
		{SlotID: r.Slots[0].ID, ActualEndTime: str("17:00")},
		{SlotID: 999999, ActualEndTime: str("17:00")},
		{SlotID: r.Slots[1].ID, ActualEndTime: str("not-a-time")},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Updated)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, uint64(999999), result.Errors[0].SlotID)
	assert.Equal(t, r.Slots[1].ID, result.Errors[1].SlotID)

	// The good slot was committed despite its neighbors failing.
	var slot models.RosterSlot
	require.NoError(t, db.First(&slot, r.Slots[0].ID).Error)
	assert.NotNil(t, slot.ActualEndTime)
}

func TestClearActuals(t *testing.T) {
	db := setupTestDB(t)

	r := seedRoster(t, db, "Morning", uid(1))

	_, err := RecordActuals(db, actorID, ActualsInput{
		SlotID:          r.Slots[0].ID,
		ActualUserID:    uid(2),
		ActualStartTime: str("09:00"),
		ActualEndTime:   str("17:00"),
		ActualNotes:     "covered the floor",
	})
	require.NoError(t, err)

	require.NoError(t, ClearActuals(db, actorID, r.Slots[0].ID))

	var slot models.RosterSlot
	require.NoError(t, db.First(&slot, r.Slots[0].ID).Error)
	assert.False(t, slot.HasActuals(), "all actuals fields must be reset")
	assert.Empty(t, slot.ActualNotes)

	require.ErrorIs(t, ClearActuals(db, actorID, 999999), ErrSlotNotFound)
}

func TestCheckOut(t *testing.T) {
	db := setupTestDB(t)

	r := seedRoster(t, db, "Morning", uid(1))
	slotID := r.Slots[0].ID

	// Someone else's slot is rejected.
	_, err := CheckOut(db, uint64(2), slotID, "16:40")
	require.ErrorIs(t, err, ErrNotSlotOwner)

	slot, err := CheckOut(db, uint64(1), slotID, "16:40")
	require.NoError(t, err)
	assert.Equal(t, roster.AttendanceLeftEarly, slot.AttendanceStatus)
	require.NotNil(t, slot.CheckedOutAt)
	assert.Equal(t, uint64(1), *slot.CheckedOutBy)

	// Repeat updates the time but keeps the original stamp.
	again, err := CheckOut(db, uint64(1), slotID, "17:00")
	require.NoError(t, err)
	assert.Equal(t, slot.CheckedOutAt.Unix(), again.CheckedOutAt.Unix())
	assert.Equal(t, "17:00", *again.ActualEndTime)
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)

	r := seedRoster(t, db, "Morning", uid(1))

	require.NoError(t, Delete(db, actorID, r.ID))

	_, err := Get(db, r.ID)
	require.ErrorIs(t, err, ErrRosterNotFound)

	var count int64
	require.NoError(t, db.Model(&models.RosterSlot{}).Where("roster_id = ?", r.ID).Count(&count).Error)
	assert.Zero(t, count, "slots must be deleted with the roster")

	// Second delete: the row is gone.
	require.ErrorIs(t, Delete(db, actorID, r.ID), ErrRosterNotFound)
}

func TestDeleteDedupViaAuditTrail(t *testing.T) {
	db := setupTestDB(t)

	r := seedRoster(t, db, "Morning", uid(1))

	// A deletion audit entry already exists (a concurrent request got there
	// first but its row delete has not landed yet from our point of view).
	require.NoError(t, audit.Record(db, actorID, ActionRosterDeleted, EntityRoster, r.ID, nil, nil))

	require.ErrorIs(t, Delete(db, actorID, r.ID), ErrDeletionInProgress)

	// The roster survives the rejected attempt.
	_, err := Get(db, r.ID)
	require.NoError(t, err)
}

func TestFindByShift(t *testing.T) {
	db := setupTestDB(t)

	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	r := seedRoster(t, db, "Morning Shift", uid(1))

	legacy := seedRoster(t, db, "Late Window", uid(2))
	require.NoError(t, db.Model(&models.Roster{}).
		Where("id = ?", legacy.ID).
		Update("legacy_shift_type", "evening").Error)

	testCases := []struct {
		name          string
		query         string
		expectedID    uint64
		expectedError error
	}{
		{name: "exact match", query: "Morning Shift", expectedID: r.ID},
		{name: "case-insensitive", query: "morning shift", expectedID: r.ID},
		{name: "substring of stored name", query: "morning", expectedID: r.ID},
		{name: "stored name inside query", query: "early morning shift crew", expectedID: r.ID},
		{name: "legacy shift type", query: "Evening", expectedID: legacy.ID},
		{name: "no match", query: "night", expectedError: ErrRosterNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			found, err := FindByShift(db, 1, date, tc.query)
			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectedID, found.ID)
		})
	}
}

func TestListBetweenDates(t *testing.T) {
	db := setupTestDB(t)

	seedRoster(t, db, "Morning", uid(1))
	seedRoster(t, db, "Evening", uid(2))

	rosters, err := List(db, 1,
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, rosters, 2)

	// Outside the window.
	rosters, err = List(db, 1,
		time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, rosters)
}
