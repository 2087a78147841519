package roster

// SlotStaffing is the staffing view of a single slot used for coverage
// aggregation: who was planned and, when actuals exist, who really worked.
type SlotStaffing struct {
	PlannedUserID *uint64
	ActualUserID  *uint64
	HasActuals    bool
}

// Metrics is the per-roster coverage aggregate. It is always derivable from
// slot state; it is persisted alongside the roster only for fast reads.
type Metrics struct {
	TotalSlots         int      `json:"totalSlots"`
	FilledSlots        int      `json:"filledSlots"`
	VacantSlots        int      `json:"vacantSlots"`
	CoveragePercentage float64  `json:"coveragePercentage"`
	MinRequiredStaff   int      `json:"minRequiredStaff"`
	ActualStaff        int      `json:"actualStaff"`
	Warnings           []string `json:"warnings,omitempty"`
}

// Compute aggregates coverage metrics over the slots of one roster.
// minRequiredStaff is store-configured, never derived. The percentage is
// filled/minRequired and clamped to [0,100] for display. ActualStaff counts
// distinct planned users, or distinct actual users once any slot carries
// actuals (unique engaged headcount). Warnings are carried by the caller;
// Compute does not enumerate policy violations itself.
func Compute(slots []SlotStaffing, minRequiredStaff int, warnings []string) Metrics {
	m := Metrics{
		TotalSlots:       len(slots),
		MinRequiredStaff: minRequiredStaff,
		Warnings:         warnings,
	}

	var (
		anyActuals bool
		planned    = map[uint64]struct{}{}
		actual     = map[uint64]struct{}{}
	)

	for _, s := range slots {
		if s.PlannedUserID != nil {
			m.FilledSlots++
			planned[*s.PlannedUserID] = struct{}{}
		}

		if s.HasActuals {
			anyActuals = true
		}

		if s.ActualUserID != nil {
			actual[*s.ActualUserID] = struct{}{}
		}
	}

	m.VacantSlots = m.TotalSlots - m.FilledSlots

	if anyActuals {
		m.ActualStaff = len(actual)
	} else {
		m.ActualStaff = len(planned)
	}

	if minRequiredStaff > 0 {
		pct := float64(m.FilledSlots) / float64(minRequiredStaff) * 100 //nolint:mnd

		switch {
		case pct < 0:
			pct = 0
		case pct > 100:
			pct = 100
		}

		m.CoveragePercentage = pct
	}

	return m
}
