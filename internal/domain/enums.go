package domain

type WorkItemKind string

const (
	KindTask  WorkItemKind = "task"
	KindHabit WorkItemKind = "habit"
)

// Frequency is the recurrence period of a habit. Tasks carry FrequencyNone.
type Frequency string

const (
	FrequencyNone    Frequency = ""
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// ValidFrequencies is the canonical set of accepted habit frequencies.
var ValidFrequencies = map[Frequency]bool{
	FrequencyDaily:   true,
	FrequencyWeekly:  true,
	FrequencyMonthly: true,
}

// ExecutionState is the state of the system-wide timer.
type ExecutionState string

const (
	StateIdle    ExecutionState = "idle"
	StateRunning ExecutionState = "running"
	StatePaused  ExecutionState = "paused"
)

// ResetScope selects how much recorded time a reset discards.
type ResetScope string

const (
	ResetSession ResetScope = "session"
	ResetToday   ResetScope = "today"
	ResetTotal   ResetScope = "total"
)

// ValidResetScopes is the canonical set of accepted reset scopes.
var ValidResetScopes = map[ResetScope]bool{
	ResetSession: true,
	ResetToday:   true,
	ResetTotal:   true,
}

// DeleteScope selects which persisted intervals a bulk delete removes.
type DeleteScope string

const (
	DeleteToday DeleteScope = "today"
	DeleteAll   DeleteScope = "all"
)

type StreakStatus string

const (
	StreakActive  StreakStatus = "active"
	StreakAtRisk  StreakStatus = "at_risk"
	StreakExpired StreakStatus = "expired"
)
