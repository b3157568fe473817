package domain

import "time"

// Aggregate holds derived totals for one work item. It is always recomputable
// from the execution log plus the live interval.
type Aggregate struct {
	WorkItemID     string
	SessionElapsed time.Duration
	TodayTotal     time.Duration
	LifetimeTotal  time.Duration
	ComputedAt     time.Time
}

// SameTotals compares the durations of two aggregates, ignoring ComputedAt.
func (a Aggregate) SameTotals(b Aggregate) bool {
	return a.WorkItemID == b.WorkItemID &&
		a.SessionElapsed == b.SessionElapsed &&
		a.TodayTotal == b.TodayTotal &&
		a.LifetimeTotal == b.LifetimeTotal
}
