package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
)

// WorkItemRepo stores the task/habit metadata the engine reads.
type WorkItemRepo interface {
	Create(ctx context.Context, w *domain.WorkItem) error
	GetByID(ctx context.Context, id string) (*domain.WorkItem, error)
	List(ctx context.Context, kind domain.WorkItemKind) ([]*domain.WorkItem, error)
	Delete(ctx context.Context, id string) error
}

// IntervalRepo is the row store behind the execution log.
type IntervalRepo interface {
	Insert(ctx context.Context, iv *domain.ExecutionInterval) error
	Close(ctx context.Context, id string, endedAt time.Time) error
	GetByID(ctx context.Context, id string) (*domain.ExecutionInterval, error)
	// GetOpen returns the single open interval, or nil when none is open.
	GetOpen(ctx context.Context) (*domain.ExecutionInterval, error)
	ListByWorkItem(ctx context.Context, workItemID string, f domain.IntervalFilter) ([]*domain.ExecutionInterval, error)
	// SumClosed adds up the closed intervals of a work item matching f.
	SumClosed(ctx context.Context, workItemID string, f domain.IntervalFilter) (time.Duration, error)
	// DeleteClosed removes the closed intervals of a work item matching f and
	// reports how many rows went away. Open intervals are never deleted.
	DeleteClosed(ctx context.Context, workItemID string, f domain.IntervalFilter) (int64, error)
}

// CompletionRepo stores explicit habit completion markers.
type CompletionRepo interface {
	Create(ctx context.Context, c *domain.HabitCompletion) error
	ListByWorkItem(ctx context.Context, workItemID string) ([]*domain.HabitCompletion, error)
	// DeleteByWorkItem removes markers with CompletedAt in [from, to). Zero
	// bounds are unbounded.
	DeleteByWorkItem(ctx context.Context, workItemID string, from, to time.Time) (int64, error)
}

// PauseRepo stores the marker of the paused session, if any.
type PauseRepo interface {
	Put(ctx context.Context, p *domain.PausedSession) error
	// Get returns the paused session, or nil when nothing is paused.
	Get(ctx context.Context) (*domain.PausedSession, error)
	Delete(ctx context.Context, sessionID string) (int64, error)
}
