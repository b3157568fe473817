package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/alexanderramin/cadence/internal/domain"
)

// WorkItem options
type WorkItemOption func(*domain.WorkItem)

func WithFrequency(f domain.Frequency) WorkItemOption {
	return func(w *domain.WorkItem) {
		w.Frequency = f
	}
}

func WithCreatedAt(t time.Time) WorkItemOption {
	return func(w *domain.WorkItem) {
		w.CreatedAt = t
		w.UpdatedAt = t
	}
}

func WithID(id string) WorkItemOption {
	return func(w *domain.WorkItem) {
		w.ID = id
	}
}

func NewTestWorkItem(title string, opts ...WorkItemOption) *domain.WorkItem {
	now := time.Now().UTC().Truncate(time.Millisecond)
	w := &domain.WorkItem{
		ID:        uuid.New().String(),
		Title:     title,
		Kind:      domain.KindTask,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// NewTestHabit builds a daily habit unless overridden with WithFrequency.
func NewTestHabit(title string, opts ...WorkItemOption) *domain.WorkItem {
	w := NewTestWorkItem(title)
	w.Kind = domain.KindHabit
	w.Frequency = domain.FrequencyDaily
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Interval options
type IntervalOption func(*domain.ExecutionInterval)

func WithSessionID(id string) IntervalOption {
	return func(iv *domain.ExecutionInterval) {
		iv.SessionID = id
	}
}

// Open leaves the interval without an end.
func Open() IntervalOption {
	return func(iv *domain.ExecutionInterval) {
		iv.EndedAt = nil
	}
}

// NewTestInterval builds a closed interval of length d starting at start.
func NewTestInterval(workItemID string, start time.Time, d time.Duration, opts ...IntervalOption) *domain.ExecutionInterval {
	end := start.Add(d)
	iv := &domain.ExecutionInterval{
		ID:         ulid.Make().String(),
		WorkItemID: workItemID,
		SessionID:  ulid.Make().String(),
		StartedAt:  start,
		EndedAt:    &end,
	}
	for _, opt := range opts {
		opt(iv)
	}
	return iv
}

func NewTestCompletion(workItemID string, at time.Time) *domain.HabitCompletion {
	return &domain.HabitCompletion{
		ID:          uuid.New().String(),
		WorkItemID:  workItemID,
		CompletedAt: at,
		CreatedAt:   at,
	}
}
