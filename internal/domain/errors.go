package domain

import "errors"

var (
	// ErrConflictingExecution indicates another work item already owns the
	// single active execution.
	ErrConflictingExecution = errors.New("another work item is already running")

	// ErrNoActiveSession indicates a transition that needs a running or
	// paused session was invoked while idle.
	ErrNoActiveSession = errors.New("no active session")

	// ErrNoPausedSession indicates resume was invoked without a paused session.
	ErrNoPausedSession = errors.New("no paused session")

	// ErrNotRunning indicates pause was invoked while not running.
	ErrNotRunning = errors.New("session is not running")

	// ErrNotOpen indicates a close of an interval that is already closed.
	ErrNotOpen = errors.New("interval is not open")

	// ErrInvalidRange indicates an interval would end before it started,
	// typically from clock skew.
	ErrInvalidRange = errors.New("interval ends before it starts")

	// ErrAlreadyOpenElsewhere indicates the execution log already holds an
	// open interval for a different work item.
	ErrAlreadyOpenElsewhere = errors.New("an interval is already open for another work item")

	// ErrPersistenceUnavailable indicates a transient store failure. Callers
	// may retry with backoff.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")

	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotHabit indicates a habit-only operation on a task.
	ErrNotHabit = errors.New("work item is not a habit")

	// ErrInvalidWorkItem indicates a work item failed validation.
	ErrInvalidWorkItem = errors.New("invalid work item")
)
