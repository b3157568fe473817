package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/cadence/internal/calendar"
	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/repository"
	"github.com/alexanderramin/cadence/internal/retry"
	"github.com/alexanderramin/cadence/internal/testutil"
)

// testStart is a Sunday morning in UTC.
var testStart = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

type harness struct {
	db          *sql.DB
	clock       *testutil.FakeClock
	workItems   *repository.SQLiteWorkItemRepo
	intervals   *repository.SQLiteIntervalRepo
	completions *repository.SQLiteCompletionRepo
	pauses      *repository.SQLitePauseRepo
	timer       TimerService
}

type harnessOption func(h *harness, cfg *TimerServiceConfig)

func withBoundary(b *calendar.Boundary) harnessOption {
	return func(_ *harness, cfg *TimerServiceConfig) { cfg.Boundary = b }
}

func withRetry(p retry.Policy) harnessOption {
	return func(_ *harness, cfg *TimerServiceConfig) { cfg.Retry = p }
}

func withObserver(o UseCaseObserver) harnessOption {
	return func(_ *harness, cfg *TimerServiceConfig) { cfg.Observer = o }
}

func withFailOnExec(n int32, err error) harnessOption {
	return func(h *harness, cfg *TimerServiceConfig) {
		cfg.UoW = &testutil.FailOnNthExecUoW{DB: h.db, FailOn: n, Err: err}
	}
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	database := testutil.NewTestDB(t)
	h := &harness{
		db:          database,
		clock:       testutil.NewFakeClock(testStart),
		workItems:   repository.NewSQLiteWorkItemRepo(database),
		intervals:   repository.NewSQLiteIntervalRepo(database),
		completions: repository.NewSQLiteCompletionRepo(database),
		pauses:      repository.NewSQLitePauseRepo(database),
	}
	cfg := TimerServiceConfig{
		WorkItems:   h.workItems,
		Intervals:   h.intervals,
		Completions: h.completions,
		Pauses:      h.pauses,
		UoW:         testutil.NewTestUoW(database),
		Clock:       h.clock,
	}
	for _, opt := range opts {
		opt(h, &cfg)
	}
	timer, err := NewTimerService(cfg)
	require.NoError(t, err)
	h.timer = timer
	return h
}

// restart builds a second service over the same store, as a new process
// would.
func (h *harness) restart(t *testing.T) TimerService {
	t.Helper()
	timer, err := NewTimerService(TimerServiceConfig{
		WorkItems:   h.workItems,
		Intervals:   h.intervals,
		Completions: h.completions,
		Pauses:      h.pauses,
		UoW:         testutil.NewTestUoW(h.db),
		Clock:       h.clock,
	})
	require.NoError(t, err)
	return timer
}

func (h *harness) task(t *testing.T, title string) *domain.WorkItem {
	t.Helper()
	w := testutil.NewTestWorkItem(title)
	require.NoError(t, h.workItems.Create(context.Background(), w))
	return w
}

func (h *harness) habit(t *testing.T, title string, freq domain.Frequency) *domain.WorkItem {
	t.Helper()
	w := testutil.NewTestHabit(title, testutil.WithFrequency(freq))
	require.NoError(t, h.workItems.Create(context.Background(), w))
	return w
}

func (h *harness) interval(t *testing.T, workItemID string, start time.Time, d time.Duration) {
	t.Helper()
	require.NoError(t, h.intervals.Insert(context.Background(), testutil.NewTestInterval(workItemID, start, d)))
}

func (h *harness) complete(t *testing.T, workItemID string, at time.Time) {
	t.Helper()
	require.NoError(t, h.completions.Create(context.Background(), testutil.NewTestCompletion(workItemID, at)))
}

// recordingObserver keeps every use-case event for assertions.
type recordingObserver struct {
	events []UseCaseEvent
}

func (o *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	o.events = append(o.events, e)
}

func (o *recordingObserver) names() []string {
	out := make([]string, 0, len(o.events))
	for _, e := range o.events {
		out = append(out, e.Name)
	}
	return out
}
