package roster

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// GraceMinutes is the tolerance applied to check-in and check-out deltas.
// A deviation must be strictly greater than this to change the status.
const GraceMinutes = 15

const minutesPerDay = 24 * 60

// ErrBadTimeOfDay is returned when a time-of-day string is not "HH:MM".
var ErrBadTimeOfDay = errors.New("time of day must be HH:MM")

// MinutesOfDay parses an "HH:MM" local time-of-day string into minutes since
// midnight. Comparisons are same-day only; there is no cross-midnight
// wraparound handling.
func MinutesOfDay(hhmm string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(hhmm), ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrBadTimeOfDay, hhmm)
	}

	hours, err := strconv.Atoi(h)
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("%w: %q", ErrBadTimeOfDay, hhmm)
	}

	// seconds are tolerated and ignored ("HH:MM:SS" rows from the migration)
	if i := strings.IndexByte(m, ':'); i >= 0 {
		m = m[:i]
	}

	minutes, err := strconv.Atoi(m)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("%w: %q", ErrBadTimeOfDay, hhmm)
	}

	return hours*60 + minutes, nil
}

// DeriveCheckOut returns the attendance status after a check-out at
// actualEnd against a planned end of plannedEnd. The status escalates to
// left_early only when the user left strictly more than GraceMinutes early
// and the current status is present. An explicit absent, substituted or late
// classification is never overwritten.
func DeriveCheckOut(current AttendanceStatus, plannedEnd, actualEnd string) (AttendanceStatus, error) {
	if current != AttendancePresent {
		return current, nil
	}

	planned, err := MinutesOfDay(plannedEnd)
	if err != nil {
		return current, err
	}

	actual, err := MinutesOfDay(actualEnd)
	if err != nil {
		return current, err
	}

	if actual < planned && planned-actual > GraceMinutes {
		return AttendanceLeftEarly, nil
	}

	return current, nil
}

// DeriveCheckIn returns the attendance status after a check-in at
// actualStart against a planned start of plannedStart. Symmetric to
// DeriveCheckOut: escalates to late only from present, and only when the
// user arrived strictly more than GraceMinutes after the planned start.
func DeriveCheckIn(current AttendanceStatus, plannedStart, actualStart string) (AttendanceStatus, error) {
	if current != AttendancePresent {
		return current, nil
	}

	planned, err := MinutesOfDay(plannedStart)
	if err != nil {
		return current, err
	}

	actual, err := MinutesOfDay(actualStart)
	if err != nil {
		return current, err
	}

	if actual > planned && actual-planned > GraceMinutes {
		return AttendanceLate, nil
	}

	return current, nil
}

// ShiftDuration returns the length of a shift in hours, rounded to one
// decimal. End times before the start wrap to the next day.
func ShiftDuration(start, end string) (float64, error) {
	s, err := MinutesOfDay(start)
	if err != nil {
		return 0, err
	}

	e, err := MinutesOfDay(end)
	if err != nil {
		return 0, err
	}

	minutes := (e - s + minutesPerDay) % minutesPerDay

	// round to 0.1h
	return float64((minutes*10+30)/60) / 10, nil //nolint:mnd
}
