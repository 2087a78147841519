package roster

// Status represents the lifecycle state of a roster and its slots.
type Status string

const (
	// StatusDraft is the initial state of a roster; slots may be edited freely.
	StatusDraft Status = "draft"
	// StatusPublished is the state after a roster has been published to staff.
	// The transition from draft is irreversible.
	StatusPublished Status = "published"
	// StatusArchived is the terminal state applied by retention logic.
	StatusArchived Status = "archived"
)

// AttendanceStatus classifies how a planned slot was actually worked.
type AttendanceStatus string

const (
	// AttendancePresent means the planned user worked the slot as scheduled.
	AttendancePresent AttendanceStatus = "present"
	// AttendanceAbsent means the planned user did not show up. Always set
	// explicitly by a manager, never inferred from time deltas.
	AttendanceAbsent AttendanceStatus = "absent"
	// AttendanceLate means the user checked in more than the grace threshold
	// after the planned start.
	AttendanceLate AttendanceStatus = "late"
	// AttendanceLeftEarly means the user checked out more than the grace
	// threshold before the planned end.
	AttendanceLeftEarly AttendanceStatus = "left_early"
	// AttendanceSubstituted means a different user worked the slot. Always set
	// explicitly together with the actual user.
	AttendanceSubstituted AttendanceStatus = "substituted"
)

// ValidAttendanceStatus reports whether s is one of the known classifications.
func ValidAttendanceStatus(s AttendanceStatus) bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceLeftEarly, AttendanceSubstituted:
		return true
	}

	return false
}

// CanTransition reports whether a roster may move from one lifecycle state to
// another. Transitions only ever move forward: draft to published to archived.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusDraft:
		return to == StatusPublished || to == StatusArchived
	case StatusPublished:
		return to == StatusArchived
	case StatusArchived:
		return false
	}

	return false
}
