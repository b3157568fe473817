package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/log"
	"github.com/alexanderramin/cadence/internal/retry"
)

// finishedSession remembers the last stopped session so aggregates can keep
// reporting its length until the next start or a reset.
type finishedSession struct {
	workItemID string
	sessionID  string
	elapsed    time.Duration
}

// ActiveExecutionManager owns the single system-wide session. Every
// transition is serialized through mu and only advances local state after
// the execution log accepted the write.
type ActiveExecutionManager struct {
	mu     sync.Mutex
	log    ExecutionLog
	retry  retry.Policy
	logger log.Logger

	state domain.ActiveExecution
	last  finishedSession
}

func NewActiveExecutionManager(execLog ExecutionLog, policy retry.Policy, logger log.Logger) *ActiveExecutionManager {
	if logger == nil {
		logger = log.Noop
	}
	return &ActiveExecutionManager{
		log:    execLog,
		retry:  policy,
		logger: logger.WithValues(log.Kv{"svc": "service.ActiveExecutionManager"}),
		state:  domain.IdleExecution,
	}
}

// Snapshot returns the current state. It never touches persistence.
func (m *ActiveExecutionManager) Snapshot() domain.ActiveExecution {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SessionElapsed reports the session clock for a work item: the live session
// when it owns it, otherwise the last session it finished, otherwise zero.
func (m *ActiveExecutionManager) SessionElapsed(workItemID string, now time.Time) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Owns(workItemID) {
		return m.state.Elapsed(now)
	}
	if m.last.workItemID == workItemID {
		return m.last.elapsed
	}
	return 0
}

func (m *ActiveExecutionManager) Start(ctx context.Context, workItemID string, at time.Time) (domain.ActiveExecution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	at = storedInstant(at)

	if !m.state.IsIdle() {
		return m.state, fmt.Errorf("starting %s: %w (%s is %s)", workItemID, domain.ErrConflictingExecution, m.state.WorkItemID, m.state.State)
	}

	h, err := m.open(ctx, workItemID, newTimeID(at), at)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyOpenElsewhere) {
			return m.state, fmt.Errorf("starting %s: %w: %w", workItemID, domain.ErrConflictingExecution, err)
		}
		return m.state, fmt.Errorf("starting %s: %w", workItemID, err)
	}

	var accumulated time.Duration
	if h.Reconciled {
		// A previous attempt already opened this session; count what it
		// closed before.
		accumulated, err = m.log.SumDuration(ctx, workItemID, domain.IntervalFilter{SessionID: h.SessionID})
		if err != nil {
			return m.state, fmt.Errorf("starting %s: %w", workItemID, err)
		}
	}

	m.state = domain.ActiveExecution{
		State:                  domain.StateRunning,
		WorkItemID:             workItemID,
		SessionID:              h.SessionID,
		IntervalID:             h.ID,
		StartedAt:              h.StartedAt,
		AccumulatedBeforePause: accumulated,
	}
	m.last = finishedSession{}
	m.logger.Debugf("started %s session %s", workItemID, h.SessionID)
	return m.state, nil
}

func (m *ActiveExecutionManager) Pause(ctx context.Context, at time.Time) (domain.ActiveExecution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	at = storedInstant(at)

	switch {
	case m.state.IsIdle():
		return m.state, fmt.Errorf("pausing: %w", domain.ErrNoActiveSession)
	case !m.state.IsRunning():
		return m.state, fmt.Errorf("pausing %s: %w", m.state.WorkItemID, domain.ErrNotRunning)
	}

	if err := m.closeWith(ctx, m.log.Pause, at); err != nil {
		return m.state, fmt.Errorf("pausing %s: %w", m.state.WorkItemID, err)
	}

	next := m.state
	next.State = domain.StatePaused
	next.AccumulatedBeforePause = m.state.Elapsed(at)
	next.StartedAt = time.Time{}
	next.IntervalID = ""
	m.state = next
	return m.state, nil
}

func (m *ActiveExecutionManager) Resume(ctx context.Context, at time.Time) (domain.ActiveExecution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	at = storedInstant(at)

	if !m.state.IsPaused() {
		return m.state, fmt.Errorf("resuming: %w", domain.ErrNoPausedSession)
	}

	h, err := m.open(ctx, m.state.WorkItemID, m.state.SessionID, at)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyOpenElsewhere) {
			return m.state, fmt.Errorf("resuming %s: %w: %w", m.state.WorkItemID, domain.ErrConflictingExecution, err)
		}
		return m.state, fmt.Errorf("resuming %s: %w", m.state.WorkItemID, err)
	}

	next := m.state
	next.State = domain.StateRunning
	next.IntervalID = h.ID
	next.StartedAt = h.StartedAt
	m.state = next
	return m.state, nil
}

// Stop finalizes the session and returns it as it ended. A paused session
// has nothing open, so stopping it only drops its pause marker.
func (m *ActiveExecutionManager) Stop(ctx context.Context, at time.Time) (domain.ActiveExecution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	at = storedInstant(at)

	if m.state.IsIdle() {
		return m.state, fmt.Errorf("stopping: %w", domain.ErrNoActiveSession)
	}

	if m.state.IsRunning() {
		if err := m.closeWith(ctx, m.log.Close, at); err != nil {
			return m.state, fmt.Errorf("stopping %s: %w", m.state.WorkItemID, err)
		}
	} else {
		sessionID := m.state.SessionID
		err := retry.Do(ctx, m.retry, func(ctx context.Context) error {
			return m.log.EndPause(ctx, sessionID)
		})
		if err != nil {
			return m.state, fmt.Errorf("stopping %s: %w", m.state.WorkItemID, err)
		}
	}

	ended := m.state
	ended.AccumulatedBeforePause = m.state.Elapsed(at)
	ended.StartedAt = time.Time{}
	ended.IntervalID = ""
	ended.State = domain.StateIdle

	m.last = finishedSession{
		workItemID: ended.WorkItemID,
		sessionID:  ended.SessionID,
		elapsed:    ended.AccumulatedBeforePause,
	}
	m.state = domain.IdleExecution
	m.logger.Debugf("stopped %s session %s after %s", ended.WorkItemID, ended.SessionID, ended.AccumulatedBeforePause)
	return ended, nil
}

// DiscardSession forgets the in-memory session clock of a work item. The
// caller must stop an active session first; nothing persisted is touched.
func (m *ActiveExecutionManager) DiscardSession(workItemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Owns(workItemID) {
		return fmt.Errorf("discarding session of %s: %w", workItemID, domain.ErrConflictingExecution)
	}
	if m.last.workItemID == workItemID {
		m.last = finishedSession{}
	}
	return nil
}

// Recover rebuilds the session an earlier process left behind: running from
// an open interval, otherwise paused from a pause marker. Closed intervals of
// the same session count toward the session clock.
func (m *ActiveExecutionManager) Recover(ctx context.Context) (domain.ActiveExecution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.state.IsIdle() {
		return m.state, nil
	}

	var (
		open   *domain.ExecutionInterval
		paused *domain.PausedSession
	)
	err := retry.Do(ctx, m.retry, func(ctx context.Context) error {
		var err error
		open, err = m.log.OpenInterval(ctx)
		if err != nil || open != nil {
			return err
		}
		paused, err = m.log.PausedSession(ctx)
		return err
	})
	if err != nil {
		return m.state, fmt.Errorf("recovering session: %w", err)
	}
	if open == nil && paused == nil {
		return m.state, nil
	}

	if open == nil {
		accumulated, err := m.log.SumDuration(ctx, paused.WorkItemID, domain.IntervalFilter{SessionID: paused.SessionID})
		if err != nil {
			return m.state, fmt.Errorf("recovering session: %w", err)
		}
		m.state = domain.ActiveExecution{
			State:                  domain.StatePaused,
			WorkItemID:             paused.WorkItemID,
			SessionID:              paused.SessionID,
			AccumulatedBeforePause: accumulated,
		}
		m.logger.Infof("recovered paused session %s for %s", paused.SessionID, paused.WorkItemID)
		return m.state, nil
	}

	accumulated, err := m.log.SumDuration(ctx, open.WorkItemID, domain.IntervalFilter{SessionID: open.SessionID})
	if err != nil {
		return m.state, fmt.Errorf("recovering session: %w", err)
	}

	m.state = domain.ActiveExecution{
		State:                  domain.StateRunning,
		WorkItemID:             open.WorkItemID,
		SessionID:              open.SessionID,
		IntervalID:             open.ID,
		StartedAt:              open.StartedAt,
		AccumulatedBeforePause: accumulated,
	}
	m.logger.Infof("recovered running session %s for %s", open.SessionID, open.WorkItemID)
	return m.state, nil
}

func (m *ActiveExecutionManager) open(ctx context.Context, workItemID, sessionID string, at time.Time) (domain.IntervalHandle, error) {
	var h domain.IntervalHandle
	err := retry.Do(ctx, m.retry, func(ctx context.Context) error {
		var err error
		h, err = m.log.Open(ctx, workItemID, sessionID, at)
		return err
	})
	return h, err
}

// closeWith ends the current interval through fn, the log's Close or Pause.
// A retry that finds the interval already closed means an earlier attempt
// landed.
func (m *ActiveExecutionManager) closeWith(ctx context.Context, fn func(context.Context, domain.IntervalHandle, time.Time) error, at time.Time) error {
	h := domain.IntervalHandle{
		ID:         m.state.IntervalID,
		WorkItemID: m.state.WorkItemID,
		SessionID:  m.state.SessionID,
		StartedAt:  m.state.StartedAt,
	}
	attempt := 0
	return retry.Do(ctx, m.retry, func(ctx context.Context) error {
		attempt++
		err := fn(ctx, h, at)
		if attempt > 1 && errors.Is(err, domain.ErrNotOpen) {
			return nil
		}
		return err
	})
}
