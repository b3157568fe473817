package service

import (
	"context"
	"time"

	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/domain"
)

type WorkItemService interface {
	Create(ctx context.Context, w *domain.WorkItem) error
	GetByID(ctx context.Context, id string) (*domain.WorkItem, error)
	List(ctx context.Context, kind domain.WorkItemKind) ([]*domain.WorkItem, error)
	Delete(ctx context.Context, id string) error
}

// ExecutionLog is the append-mostly record of start/stop intervals. It is the
// ground truth for every total.
type ExecutionLog interface {
	Open(ctx context.Context, workItemID, sessionID string, at time.Time) (domain.IntervalHandle, error)
	Close(ctx context.Context, h domain.IntervalHandle, at time.Time) error
	// Pause closes h and marks its session paused, atomically.
	Pause(ctx context.Context, h domain.IntervalHandle, at time.Time) error
	EndPause(ctx context.Context, sessionID string) error
	PausedSession(ctx context.Context) (*domain.PausedSession, error)
	DeleteForScope(ctx context.Context, workItemID string, scope domain.DeleteScope, now time.Time) (int64, error)
	DeleteForScopeTx(ctx context.Context, tx db.DBTX, workItemID string, scope domain.DeleteScope, now time.Time) (int64, error)
	SumDuration(ctx context.Context, workItemID string, f domain.IntervalFilter) (time.Duration, error)
	ListIntervals(ctx context.Context, workItemID string, f domain.IntervalFilter) ([]*domain.ExecutionInterval, error)
	OpenInterval(ctx context.Context) (*domain.ExecutionInterval, error)
}

// TimerService is the engine surface the CLI and other front ends drive.
type TimerService interface {
	Start(ctx context.Context, workItemID string) (domain.ActiveExecution, error)
	Pause(ctx context.Context) (domain.ActiveExecution, error)
	Resume(ctx context.Context) (domain.ActiveExecution, error)
	Stop(ctx context.Context) (domain.Aggregate, error)
	Reset(ctx context.Context, workItemID string, scope domain.ResetScope) (domain.Aggregate, error)

	// Active returns the current execution without touching persistence.
	Active() domain.ActiveExecution
	Recover(ctx context.Context) (domain.ActiveExecution, error)

	GetAggregate(ctx context.Context, workItemID string) (domain.Aggregate, error)
	GetStreak(ctx context.Context, workItemID string) (domain.StreakRecord, error)
	GetTimeRemaining(ctx context.Context, workItemID string) (time.Duration, bool, error)
	Complete(ctx context.Context, workItemID string) (domain.StreakRecord, error)
	Uncomplete(ctx context.Context, workItemID string) (domain.StreakRecord, error)
	ListIntervals(ctx context.Context, workItemID string) ([]*domain.ExecutionInterval, error)
}
