package domain

import "time"

// ActiveExecution is the in-memory view of the single system-wide session.
// While paused, StartedAt is zero and AccumulatedBeforePause holds the frozen
// session clock.
type ActiveExecution struct {
	State                  ExecutionState
	WorkItemID             string
	SessionID              string
	IntervalID             string
	StartedAt              time.Time
	AccumulatedBeforePause time.Duration
}

// IdleExecution is the zero-value idle state.
var IdleExecution = ActiveExecution{State: StateIdle}

func (a ActiveExecution) IsIdle() bool {
	return a.State == StateIdle || a.State == ""
}

func (a ActiveExecution) IsRunning() bool {
	return a.State == StateRunning
}

func (a ActiveExecution) IsPaused() bool {
	return a.State == StatePaused
}

// Owns reports whether the session belongs to the given work item.
func (a ActiveExecution) Owns(workItemID string) bool {
	return !a.IsIdle() && a.WorkItemID == workItemID
}

// Elapsed is AccumulatedBeforePause plus the running span up to now. It is
// derived from instants only, so missed ticks never drift the clock.
func (a ActiveExecution) Elapsed(now time.Time) time.Duration {
	if a.IsIdle() {
		return 0
	}
	elapsed := a.AccumulatedBeforePause
	if a.IsRunning() {
		if live := now.Sub(a.StartedAt); live > 0 {
			elapsed += live
		}
	}
	return elapsed
}

// PausedSession marks a session that is paused. It has no open interval, so
// the marker is what lets a later process find it again.
type PausedSession struct {
	SessionID  string
	WorkItemID string
	PausedAt   time.Time
}
