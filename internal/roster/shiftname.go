package roster

import "strings"

// ShiftNamesMatch reconciles a legacy enumerated shift type with a free-text
// shift name during the schema migration window. It matches on
// case-insensitive equality or when either lower-cased string contains the
// other as a substring.
//
// The substring rule is deliberately permissive and is a known source of
// false positives ("Morning" matches "Morning Overflow Shift"). It must not
// be tightened while the legacy shift_type column is still consulted.
func ShiftNamesMatch(a, b string) bool {
	la := strings.ToLower(strings.TrimSpace(a))
	lb := strings.ToLower(strings.TrimSpace(b))

	if la == "" || lb == "" {
		return false
	}

	if la == lb {
		return true
	}

	return strings.Contains(la, lb) || strings.Contains(lb, la)
}
