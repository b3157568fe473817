package domain

import "time"

type StreakRecord struct {
	WorkItemID    string
	Frequency     Frequency
	CurrentStreak int
	LongestStreak int
	Status        StreakStatus

	// LastCompletedPeriod is the start of the most recent qualifying period,
	// nil when the habit was never completed.
	LastCompletedPeriod *time.Time

	// PeriodEnd is the end of the current period; the grace window for an
	// at-risk habit closes here.
	PeriodEnd  time.Time
	ComputedAt time.Time
}

// TimeRemaining returns the time left in the grace window. It is only
// defined for at-risk streaks.
func (r StreakRecord) TimeRemaining(now time.Time) (time.Duration, bool) {
	if r.Status != StreakAtRisk {
		return 0, false
	}
	left := r.PeriodEnd.Sub(now)
	if left < 0 {
		left = 0
	}
	return left, true
}
