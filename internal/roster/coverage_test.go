package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func uid(v uint64) *uint64 { return &v }

func TestCompute(t *testing.T) {
	testCases := []struct {
		name        string
		slots       []SlotStaffing
		minRequired int
		warnings    []string
		want        Metrics
	}{
		{
			name: "five slots three filled",
			slots: []SlotStaffing{
				{PlannedUserID: uid(1)},
				{PlannedUserID: uid(2)},
				{PlannedUserID: uid(3)},
				{},
				{},
			},
			minRequired: 4,
			want: Metrics{
				TotalSlots:         5,
				FilledSlots:        3,
				VacantSlots:        2,
				CoveragePercentage: 75,
				MinRequiredStaff:   4,
				ActualStaff:        3,
			},
		},
		{
			name: "percentage clamped at 100",
			slots: []SlotStaffing{
				{PlannedUserID: uid(1)},
				{PlannedUserID: uid(2)},
				{PlannedUserID: uid(3)},
			},
			minRequired: 2,
			want: Metrics{
				TotalSlots:         3,
				FilledSlots:        3,
				VacantSlots:        0,
				CoveragePercentage: 100,
				MinRequiredStaff:   2,
				ActualStaff:        3,
			},
		},
		{
			name: "duplicate planned user counted once",
			slots: []SlotStaffing{
				{PlannedUserID: uid(7)},
				{PlannedUserID: uid(7)},
			},
			minRequired: 2,
			want: Metrics{
				TotalSlots:         2,
				FilledSlots:        2,
				VacantSlots:        0,
				CoveragePercentage: 100,
				MinRequiredStaff:   2,
				ActualStaff:        1,
			},
		},
		{
			name: "actuals switch headcount to engaged users",
			slots: []SlotStaffing{
				{PlannedUserID: uid(1), ActualUserID: uid(9), HasActuals: true},
				{PlannedUserID: uid(2)},
			},
			minRequired: 2,
			want: Metrics{
				TotalSlots:         2,
				FilledSlots:        2,
				VacantSlots:        0,
				CoveragePercentage: 100,
				MinRequiredStaff:   2,
				ActualStaff:        1,
			},
		},
		{
			name:        "zero min required leaves percentage at zero",
			slots:       []SlotStaffing{{PlannedUserID: uid(1)}},
			minRequired: 0,
			want: Metrics{
				TotalSlots:         1,
				FilledSlots:        1,
				VacantSlots:        0,
				CoveragePercentage: 0,
				MinRequiredStaff:   0,
				ActualStaff:        1,
			},
		},
		{
			name:        "warnings carried through",
			slots:       nil,
			minRequired: 3,
			warnings:    []string{"below minimum staffing"},
			want: Metrics{
				TotalSlots:         0,
				FilledSlots:        0,
				VacantSlots:        0,
				CoveragePercentage: 0,
				MinRequiredStaff:   3,
				ActualStaff:        0,
				Warnings:           []string{"below minimum staffing"},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Compute(tc.slots, tc.minRequired, tc.warnings)
			assert.Equal(t, tc.want, got)
		})
	}
}
