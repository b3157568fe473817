package domain

import (
	"fmt"
	"strings"
	"time"
)

// WorkItem is a task or habit that can be timed. The engine only reads Kind
// and Frequency; the rest belongs to the surrounding application.
type WorkItem struct {
	ID        string
	Title     string
	Kind      WorkItemKind
	Frequency Frequency

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsHabit reports whether the item recurs and therefore carries a streak.
func (w *WorkItem) IsHabit() bool {
	return w.Kind == KindHabit
}

// Validate checks kind/frequency consistency: habits need a frequency,
// tasks must not have one.
func (w *WorkItem) Validate() error {
	if strings.TrimSpace(w.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidWorkItem)
	}
	switch w.Kind {
	case KindTask:
		if w.Frequency != FrequencyNone {
			return fmt.Errorf("%w: task %q cannot have frequency %q", ErrInvalidWorkItem, w.Title, w.Frequency)
		}
	case KindHabit:
		if !ValidFrequencies[w.Frequency] {
			return fmt.Errorf("%w: habit %q needs a frequency of daily, weekly or monthly (got %q)", ErrInvalidWorkItem, w.Title, w.Frequency)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidWorkItem, w.Kind)
	}
	return nil
}
