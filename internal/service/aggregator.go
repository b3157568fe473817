package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/cadence/internal/calendar"
	"github.com/alexanderramin/cadence/internal/domain"
)

// SessionSource exposes the live session to read-only consumers.
type SessionSource interface {
	Snapshot() domain.ActiveExecution
	SessionElapsed(workItemID string, now time.Time) time.Duration
}

// TimeAggregator derives session, today and lifetime totals from the
// execution log plus the live interval. It has no side effects.
type TimeAggregator struct {
	log      ExecutionLog
	sessions SessionSource
	boundary *calendar.Boundary
}

func NewTimeAggregator(execLog ExecutionLog, sessions SessionSource, boundary *calendar.Boundary) *TimeAggregator {
	return &TimeAggregator{log: execLog, sessions: sessions, boundary: boundary}
}

// Recompute builds a fresh Aggregate. Today is the local day containing now
// and intervals count toward the day they started in.
func (a *TimeAggregator) Recompute(ctx context.Context, workItemID string, now time.Time) (domain.Aggregate, error) {
	lifetime, err := a.log.SumDuration(ctx, workItemID, domain.IntervalFilter{})
	if err != nil {
		return domain.Aggregate{}, fmt.Errorf("summing lifetime of %s: %w", workItemID, err)
	}

	from, to := a.boundary.DayRange(now)
	today, err := a.log.SumDuration(ctx, workItemID, domain.IntervalFilter{From: from, To: to})
	if err != nil {
		return domain.Aggregate{}, fmt.Errorf("summing today of %s: %w", workItemID, err)
	}

	active := a.sessions.Snapshot()
	if active.Owns(workItemID) && active.IsRunning() {
		live := now.Sub(active.StartedAt)
		if live > 0 {
			lifetime += live
			if a.boundary.IsSameDay(active.StartedAt, now) {
				today += live
			}
		}
	}

	return domain.Aggregate{
		WorkItemID:     workItemID,
		SessionElapsed: a.sessions.SessionElapsed(workItemID, now),
		TodayTotal:     today,
		LifetimeTotal:  lifetime,
		ComputedAt:     now,
	}, nil
}

// ProjectAggregate advances agg from its ComputedAt to now without reading
// the log, given the session as it stands. The live span is attributed to
// the day it started in, as Recompute does. Work items the session does not
// own come back unchanged.
func ProjectAggregate(agg domain.Aggregate, active domain.ActiveExecution, now time.Time, boundary *calendar.Boundary) domain.Aggregate {
	if !active.Owns(agg.WorkItemID) {
		return agg
	}

	out := agg
	out.SessionElapsed = active.Elapsed(now)
	out.ComputedAt = now
	if !boundary.IsSameDay(agg.ComputedAt, now) {
		out.TodayTotal = 0
	}
	if !active.IsRunning() {
		return out
	}

	from := active.StartedAt
	if agg.ComputedAt.After(from) {
		from = agg.ComputedAt
	}
	extra := now.Sub(from)
	if extra <= 0 {
		return out
	}
	out.LifetimeTotal += extra
	if boundary.IsSameDay(active.StartedAt, now) {
		if boundary.IsSameDay(agg.ComputedAt, now) {
			out.TodayTotal += extra
		} else {
			out.TodayTotal = now.Sub(active.StartedAt)
		}
	}
	return out
}
