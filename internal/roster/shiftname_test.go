package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShiftNamesMatch(t *testing.T) {
	testCases := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{name: "case-insensitive exact", a: "Morning Shift", b: "morning shift", want: true},
		{name: "substring by design", a: "Morning", b: "Morning Overflow Shift", want: true},
		{name: "substring reversed", a: "Evening Overflow", b: "evening", want: true},
		{name: "no overlap", a: "Morning", b: "Evening", want: false},
		{name: "whitespace trimmed", a: "  morning ", b: "Morning", want: true},
		{name: "empty never matches", a: "", b: "Morning", want: false},
		{name: "both empty never match", a: "", b: "", want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ShiftNamesMatch(tc.a, tc.b))
		})
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusDraft, StatusPublished))
	assert.True(t, CanTransition(StatusDraft, StatusArchived))
	assert.True(t, CanTransition(StatusPublished, StatusArchived))

	// publishing is irreversible
	assert.False(t, CanTransition(StatusPublished, StatusDraft))
	assert.False(t, CanTransition(StatusArchived, StatusDraft))
	assert.False(t, CanTransition(StatusArchived, StatusPublished))
	assert.False(t, CanTransition(StatusDraft, StatusDraft))
}
