package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/cadence/internal/calendar"
	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/log"
	"github.com/alexanderramin/cadence/internal/repository"
)

type executionLog struct {
	intervals repository.IntervalRepo
	pauses    repository.PauseRepo
	uow       db.UnitOfWork
	boundary  *calendar.Boundary
	logger    log.Logger
}

// NewExecutionLog returns the SQLite-backed execution log. Writes run inside
// the unit of work; reads go through intervals directly.
func NewExecutionLog(intervals repository.IntervalRepo, pauses repository.PauseRepo, uow db.UnitOfWork, boundary *calendar.Boundary, logger log.Logger) ExecutionLog {
	if logger == nil {
		logger = log.Noop
	}
	return &executionLog{
		intervals: intervals,
		pauses:    pauses,
		uow:       uow,
		boundary:  boundary,
		logger:    logger.WithValues(log.Kv{"svc": "service.ExecutionLog"}),
	}
}

// Open starts an interval. An interval already open for the same work item
// is returned as is with Reconciled set, which makes a retried open safe.
// Opening the paused session clears its pause marker; any other paused
// session blocks the open.
func (l *executionLog) Open(ctx context.Context, workItemID, sessionID string, at time.Time) (domain.IntervalHandle, error) {
	at = storedInstant(at)
	var h domain.IntervalHandle
	err := l.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txIntervals := repository.NewSQLiteIntervalRepo(tx)
		txWorkItems := repository.NewSQLiteWorkItemRepo(tx)
		txPauses := repository.NewSQLitePauseRepo(tx)

		open, err := txIntervals.GetOpen(ctx)
		if err != nil {
			return err
		}
		if open != nil {
			if open.WorkItemID != workItemID {
				return fmt.Errorf("opening interval for %s: %w (open on %s)", workItemID, domain.ErrAlreadyOpenElsewhere, open.WorkItemID)
			}
			h = handleOf(open)
			h.Reconciled = true
			return nil
		}

		paused, err := txPauses.Get(ctx)
		if err != nil {
			return err
		}
		if paused != nil {
			if paused.SessionID != sessionID {
				return fmt.Errorf("opening interval for %s: %w (%s is paused)", workItemID, domain.ErrAlreadyOpenElsewhere, paused.WorkItemID)
			}
			if _, err := txPauses.Delete(ctx, sessionID); err != nil {
				return err
			}
		}

		if _, err := txWorkItems.GetByID(ctx, workItemID); err != nil {
			return err
		}

		iv := &domain.ExecutionInterval{
			ID:         newTimeID(at),
			WorkItemID: workItemID,
			SessionID:  sessionID,
			StartedAt:  at,
		}
		if err := txIntervals.Insert(ctx, iv); err != nil {
			return err
		}
		h = handleOf(iv)
		return nil
	})
	if err != nil {
		return domain.IntervalHandle{}, err
	}

	if h.Reconciled {
		l.logger.Infof("reconciled open interval %s for %s", h.ID, workItemID)
	}
	return h, nil
}

// Close ends the interval at the given instant. A close before the start is
// rejected and nothing is written.
func (l *executionLog) Close(ctx context.Context, h domain.IntervalHandle, at time.Time) error {
	at = storedInstant(at)
	return l.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return l.closeIn(ctx, tx, h, at)
	})
}

// Pause closes the interval and records the session as paused in the same
// transaction.
func (l *executionLog) Pause(ctx context.Context, h domain.IntervalHandle, at time.Time) error {
	at = storedInstant(at)
	return l.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := l.closeIn(ctx, tx, h, at); err != nil {
			return err
		}
		return repository.NewSQLitePauseRepo(tx).Put(ctx, &domain.PausedSession{
			SessionID:  h.SessionID,
			WorkItemID: h.WorkItemID,
			PausedAt:   at,
		})
	})
}

// EndPause drops the pause marker of a session. A missing marker is not an
// error.
func (l *executionLog) EndPause(ctx context.Context, sessionID string) error {
	_, err := l.pauses.Delete(ctx, sessionID)
	return err
}

func (l *executionLog) PausedSession(ctx context.Context) (*domain.PausedSession, error) {
	return l.pauses.Get(ctx)
}

func (l *executionLog) closeIn(ctx context.Context, tx db.DBTX, h domain.IntervalHandle, at time.Time) error {
	txIntervals := repository.NewSQLiteIntervalRepo(tx)

	iv, err := txIntervals.GetByID(ctx, h.ID)
	if err != nil {
		return err
	}
	if err := iv.ValidateClose(at); err != nil {
		if errors.Is(err, domain.ErrInvalidRange) {
			l.logger.Warningf("discarding close of %s at %s: started at %s", iv.ID, at.Format(time.RFC3339), iv.StartedAt.Format(time.RFC3339))
		}
		return fmt.Errorf("closing interval %s: %w", iv.ID, err)
	}
	return txIntervals.Close(ctx, iv.ID, at)
}

func (l *executionLog) DeleteForScope(ctx context.Context, workItemID string, scope domain.DeleteScope, now time.Time) (int64, error) {
	var n int64
	err := l.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		n, err = l.DeleteForScopeTx(ctx, tx, workItemID, scope, now)
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// DeleteForScopeTx is DeleteForScope inside a transaction the caller owns.
// "today" is the local day containing now, matched on start instant. Open
// intervals are never deleted.
func (l *executionLog) DeleteForScopeTx(ctx context.Context, tx db.DBTX, workItemID string, scope domain.DeleteScope, now time.Time) (int64, error) {
	var f domain.IntervalFilter
	switch scope {
	case domain.DeleteToday:
		f.From, f.To = l.boundary.DayRange(now)
	case domain.DeleteAll:
	default:
		return 0, fmt.Errorf("unknown delete scope %q", scope)
	}
	return repository.NewSQLiteIntervalRepo(tx).DeleteClosed(ctx, workItemID, f)
}

func (l *executionLog) SumDuration(ctx context.Context, workItemID string, f domain.IntervalFilter) (time.Duration, error) {
	return l.intervals.SumClosed(ctx, workItemID, f)
}

func (l *executionLog) ListIntervals(ctx context.Context, workItemID string, f domain.IntervalFilter) ([]*domain.ExecutionInterval, error) {
	return l.intervals.ListByWorkItem(ctx, workItemID, f)
}

func (l *executionLog) OpenInterval(ctx context.Context) (*domain.ExecutionInterval, error) {
	return l.intervals.GetOpen(ctx)
}

func handleOf(iv *domain.ExecutionInterval) domain.IntervalHandle {
	return domain.IntervalHandle{
		ID:         iv.ID,
		WorkItemID: iv.WorkItemID,
		SessionID:  iv.SessionID,
		StartedAt:  iv.StartedAt,
	}
}
