package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/alexanderramin/cadence/internal/calendar"
	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/repository"
)

// StreakEngine derives habit continuity from completion markers and closed
// intervals. A period qualifies when it holds at least one of either.
type StreakEngine struct {
	intervals   repository.IntervalRepo
	completions repository.CompletionRepo
	boundary    *calendar.Boundary
}

func NewStreakEngine(intervals repository.IntervalRepo, completions repository.CompletionRepo, boundary *calendar.Boundary) *StreakEngine {
	return &StreakEngine{intervals: intervals, completions: completions, boundary: boundary}
}

func (e *StreakEngine) ComputeStreak(ctx context.Context, workItemID string, freq domain.Frequency, now time.Time) (domain.StreakRecord, error) {
	ivs, err := e.intervals.ListByWorkItem(ctx, workItemID, domain.IntervalFilter{})
	if err != nil {
		return domain.StreakRecord{}, fmt.Errorf("loading intervals of %s: %w", workItemID, err)
	}
	marks, err := e.completions.ListByWorkItem(ctx, workItemID)
	if err != nil {
		return domain.StreakRecord{}, fmt.Errorf("loading completions of %s: %w", workItemID, err)
	}

	instants := make([]time.Time, 0, len(ivs)+len(marks))
	for _, iv := range ivs {
		if !iv.IsOpen() {
			instants = append(instants, iv.StartedAt)
		}
	}
	for _, c := range marks {
		instants = append(instants, c.CompletedAt)
	}

	return e.fromInstants(workItemID, freq, instants, now), nil
}

// TimeRemaining is the grace window left for an at-risk record.
func (e *StreakEngine) TimeRemaining(r domain.StreakRecord, now time.Time) (time.Duration, bool) {
	return r.TimeRemaining(now)
}

// fromInstants walks the qualifying periods. The streak is alive when the
// current period or the one before it qualifies; only the former is active.
func (e *StreakEngine) fromInstants(workItemID string, freq domain.Frequency, instants []time.Time, now time.Time) domain.StreakRecord {
	current := e.boundary.PeriodStart(freq, now)
	rec := domain.StreakRecord{
		WorkItemID: workItemID,
		Frequency:  freq,
		Status:     domain.StreakExpired,
		PeriodEnd:  e.boundary.PeriodEnd(freq, now),
		ComputedAt: now,
	}

	periods := e.qualifyingPeriods(freq, instants, current)
	if len(periods) == 0 {
		return rec
	}
	last := periods[len(periods)-1]
	rec.LastCompletedPeriod = &last

	run := 0
	for i, p := range periods {
		if i > 0 && e.boundary.NextPeriodStart(freq, periods[i-1]).Equal(p) {
			run++
		} else {
			run = 1
		}
		if run > rec.LongestStreak {
			rec.LongestStreak = run
		}
	}

	switch {
	case last.Equal(current):
		rec.Status = domain.StreakActive
	case last.Equal(e.boundary.PrevPeriodStart(freq, now)):
		rec.Status = domain.StreakAtRisk
	default:
		return rec
	}
	// run ends at last because periods is sorted and deduplicated.
	rec.CurrentStreak = run
	return rec
}

// qualifyingPeriods returns the distinct period starts holding an instant,
// ascending. Periods after current are ignored.
func (e *StreakEngine) qualifyingPeriods(freq domain.Frequency, instants []time.Time, current time.Time) []time.Time {
	seen := make(map[string]bool, len(instants))
	var periods []time.Time
	for _, t := range instants {
		p := e.boundary.PeriodStart(freq, t)
		if p.After(current) {
			continue
		}
		key := e.boundary.Key(freq, p)
		if seen[key] {
			continue
		}
		seen[key] = true
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })
	return periods
}
