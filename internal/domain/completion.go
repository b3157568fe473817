package domain

import "time"

// HabitCompletion is an explicit "done for this period" marker.
type HabitCompletion struct {
	ID          string
	WorkItemID  string
	CompletedAt time.Time
	CreatedAt   time.Time
}
