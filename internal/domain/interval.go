package domain

import "time"

// ExecutionInterval is one start/stop pair in the execution log. An interval
// with a nil EndedAt is open; at most one may be open system-wide.
type ExecutionInterval struct {
	ID         string
	WorkItemID string
	SessionID  string // shared by the intervals of one start..stop session
	StartedAt  time.Time
	EndedAt    *time.Time
}

func (iv *ExecutionInterval) IsOpen() bool {
	return iv.EndedAt == nil
}

// Duration returns the closed length of the interval, or the length up to now
// when it is still open. Negative spans clamp to zero.
func (iv *ExecutionInterval) Duration(now time.Time) time.Duration {
	end := now
	if iv.EndedAt != nil {
		end = *iv.EndedAt
	}
	d := end.Sub(iv.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// ValidateClose checks that the interval can be closed at the given instant.
func (iv *ExecutionInterval) ValidateClose(at time.Time) error {
	if !iv.IsOpen() {
		return ErrNotOpen
	}
	if at.Before(iv.StartedAt) {
		return ErrInvalidRange
	}
	return nil
}

// IntervalHandle identifies an open interval returned by the execution log.
type IntervalHandle struct {
	ID         string
	WorkItemID string
	SessionID  string
	StartedAt  time.Time

	// Reconciled is set when the log already held an open interval for the
	// same work item and returned it instead of opening a second one.
	Reconciled bool
}

// IntervalFilter restricts which closed intervals an aggregation includes.
// Zero bounds are unbounded; bounds apply to StartedAt, From inclusive and
// To exclusive.
type IntervalFilter struct {
	From      time.Time
	To        time.Time
	SessionID string
}
