package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/cadence/internal/calendar"
	"github.com/alexanderramin/cadence/internal/clock"
	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/log"
	"github.com/alexanderramin/cadence/internal/repository"
	"github.com/alexanderramin/cadence/internal/retry"
)

// TimerServiceConfig is the configuration for NewTimerService.
type TimerServiceConfig struct {
	WorkItems   repository.WorkItemRepo
	Intervals   repository.IntervalRepo
	Completions repository.CompletionRepo
	Pauses      repository.PauseRepo
	UoW         db.UnitOfWork

	Boundary *calendar.Boundary
	Clock    clock.Clock
	Retry    retry.Policy
	Logger   log.Logger
	Observer UseCaseObserver
}

func (c *TimerServiceConfig) defaults() error {
	if c.WorkItems == nil {
		return fmt.Errorf("work item repository is required")
	}
	if c.Intervals == nil {
		return fmt.Errorf("interval repository is required")
	}
	if c.Completions == nil {
		return fmt.Errorf("completion repository is required")
	}
	if c.Pauses == nil {
		return fmt.Errorf("pause repository is required")
	}
	if c.UoW == nil {
		return fmt.Errorf("unit of work is required")
	}
	if c.Boundary == nil {
		c.Boundary = calendar.UTC()
	}
	if c.Clock == nil {
		c.Clock = clock.System{}
	}
	if c.Retry.Attempts == 0 {
		c.Retry = retry.NoRetry
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	if c.Observer == nil {
		c.Observer = NoopUseCaseObserver{}
	}
	return nil
}

type timerService struct {
	// opMu serializes every mutating use case, resets included. Reads hold
	// it shared so they never observe half of a transition.
	opMu sync.RWMutex

	workItems   repository.WorkItemRepo
	completions repository.CompletionRepo
	boundary    *calendar.Boundary
	clock       clock.Clock
	retry       retry.Policy
	logger      log.Logger
	observer    UseCaseObserver

	log        ExecutionLog
	manager    *ActiveExecutionManager
	aggregator *TimeAggregator
	streaks    *StreakEngine
	resets     *ResetController

	cacheMu    sync.RWMutex
	aggregates map[string]domain.Aggregate
	records    map[string]domain.StreakRecord
}

// NewTimerService wires the execution engine over the given stores.
func NewTimerService(cfg TimerServiceConfig) (TimerService, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	execLog := NewExecutionLog(cfg.Intervals, cfg.Pauses, cfg.UoW, cfg.Boundary, cfg.Logger)
	manager := NewActiveExecutionManager(execLog, cfg.Retry, cfg.Logger)

	return &timerService{
		workItems:   cfg.WorkItems,
		completions: cfg.Completions,
		boundary:    cfg.Boundary,
		clock:       cfg.Clock,
		retry:       cfg.Retry,
		logger:      cfg.Logger.WithValues(log.Kv{"svc": "service.TimerService"}),
		observer:    cfg.Observer,
		log:         execLog,
		manager:     manager,
		aggregator:  NewTimeAggregator(execLog, manager, cfg.Boundary),
		streaks:     NewStreakEngine(cfg.Intervals, cfg.Completions, cfg.Boundary),
		resets:      NewResetController(manager, execLog, cfg.UoW, cfg.Retry, cfg.Logger),
		aggregates:  make(map[string]domain.Aggregate),
		records:     make(map[string]domain.StreakRecord),
	}, nil
}

func (s *timerService) Start(ctx context.Context, workItemID string) (state domain.ActiveExecution, err error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	defer observe(ctx, s.observer, "timer-start", time.Now(), map[string]any{"work_item": workItemID}, &err)

	now := s.clock.Now()
	state, err = s.manager.Start(ctx, workItemID, now)
	if err != nil {
		return state, err
	}
	s.refreshAggregate(ctx, workItemID, now)
	return state, nil
}

func (s *timerService) Pause(ctx context.Context) (state domain.ActiveExecution, err error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	defer observe(ctx, s.observer, "timer-pause", time.Now(), nil, &err)

	now := s.clock.Now()
	state, err = s.manager.Pause(ctx, now)
	if err != nil {
		return state, err
	}
	s.refreshAggregate(ctx, state.WorkItemID, now)
	return state, nil
}

func (s *timerService) Resume(ctx context.Context) (state domain.ActiveExecution, err error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	defer observe(ctx, s.observer, "timer-resume", time.Now(), nil, &err)

	now := s.clock.Now()
	state, err = s.manager.Resume(ctx, now)
	if err != nil {
		return state, err
	}
	s.refreshAggregate(ctx, state.WorkItemID, now)
	return state, nil
}

// Stop ends the session, then recomputes totals and, for habits, the streak.
// A failed recompute after a persisted stop returns the cached aggregate with
// the error.
func (s *timerService) Stop(ctx context.Context) (agg domain.Aggregate, err error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	fields := map[string]any{}
	defer observe(ctx, s.observer, "timer-stop", time.Now(), fields, &err)

	now := s.clock.Now()
	ended, err := s.manager.Stop(ctx, now)
	if err != nil {
		return domain.Aggregate{}, err
	}
	fields["work_item"] = ended.WorkItemID
	fields["session_ms"] = ended.AccumulatedBeforePause.Milliseconds()

	agg, err = s.recompute(ctx, ended.WorkItemID, now)
	if err != nil {
		return agg, err
	}
	s.refreshStreak(ctx, ended.WorkItemID, now)
	return agg, nil
}

func (s *timerService) Reset(ctx context.Context, workItemID string, scope domain.ResetScope) (agg domain.Aggregate, err error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	defer observe(ctx, s.observer, "timer-reset", time.Now(), map[string]any{"work_item": workItemID, "scope": string(scope)}, &err)

	if _, err = s.getWorkItem(ctx, workItemID); err != nil {
		return s.cachedAggregate(workItemID), err
	}

	now := s.clock.Now()
	if err = s.resets.Reset(ctx, workItemID, scope, now); err != nil {
		return s.cachedAggregate(workItemID), err
	}

	agg, err = s.recompute(ctx, workItemID, now)
	if err != nil {
		return agg, err
	}
	s.refreshStreak(ctx, workItemID, now)
	return agg, nil
}

func (s *timerService) Active() domain.ActiveExecution {
	return s.manager.Snapshot()
}

func (s *timerService) Recover(ctx context.Context) (state domain.ActiveExecution, err error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	defer observe(ctx, s.observer, "timer-recover", time.Now(), nil, &err)

	return s.manager.Recover(ctx)
}

func (s *timerService) GetAggregate(ctx context.Context, workItemID string) (domain.Aggregate, error) {
	s.opMu.RLock()
	defer s.opMu.RUnlock()

	if _, err := s.getWorkItem(ctx, workItemID); err != nil {
		return s.cachedAggregate(workItemID), err
	}
	return s.recompute(ctx, workItemID, s.clock.Now())
}

func (s *timerService) GetStreak(ctx context.Context, workItemID string) (domain.StreakRecord, error) {
	s.opMu.RLock()
	defer s.opMu.RUnlock()

	item, err := s.getHabit(ctx, workItemID)
	if err != nil {
		return s.cachedStreak(workItemID), err
	}
	return s.computeStreak(ctx, item, s.clock.Now())
}

// GetTimeRemaining reports the grace window of an at-risk habit. The bool is
// false for active and expired streaks.
func (s *timerService) GetTimeRemaining(ctx context.Context, workItemID string) (time.Duration, bool, error) {
	s.opMu.RLock()
	defer s.opMu.RUnlock()

	now := s.clock.Now()
	item, err := s.getHabit(ctx, workItemID)
	if err != nil {
		return 0, false, err
	}
	rec, err := s.computeStreak(ctx, item, now)
	if err != nil {
		return 0, false, err
	}
	d, ok := s.streaks.TimeRemaining(rec, now)
	return d, ok, nil
}

// Complete records an explicit completion of a habit at the current instant.
func (s *timerService) Complete(ctx context.Context, workItemID string) (rec domain.StreakRecord, err error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	defer observe(ctx, s.observer, "habit-complete", time.Now(), map[string]any{"work_item": workItemID}, &err)

	item, err := s.getHabit(ctx, workItemID)
	if err != nil {
		return s.cachedStreak(workItemID), err
	}

	now := s.clock.Now()
	mark := &domain.HabitCompletion{
		ID:          uuid.New().String(),
		WorkItemID:  workItemID,
		CompletedAt: now,
		CreatedAt:   now,
	}
	err = retry.Do(ctx, s.retry, func(ctx context.Context) error {
		return s.completions.Create(ctx, mark)
	})
	if err != nil {
		return s.cachedStreak(workItemID), fmt.Errorf("completing %s: %w", workItemID, err)
	}
	return s.computeStreak(ctx, item, now)
}

// Uncomplete removes the completion markers of the current period. Time
// logged in the period still qualifies it.
func (s *timerService) Uncomplete(ctx context.Context, workItemID string) (rec domain.StreakRecord, err error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	defer observe(ctx, s.observer, "habit-uncomplete", time.Now(), map[string]any{"work_item": workItemID}, &err)

	item, err := s.getHabit(ctx, workItemID)
	if err != nil {
		return s.cachedStreak(workItemID), err
	}

	now := s.clock.Now()
	from := s.boundary.PeriodStart(item.Frequency, now)
	to := s.boundary.PeriodEnd(item.Frequency, now)
	err = retry.Do(ctx, s.retry, func(ctx context.Context) error {
		_, err := s.completions.DeleteByWorkItem(ctx, workItemID, from, to)
		return err
	})
	if err != nil {
		return s.cachedStreak(workItemID), fmt.Errorf("uncompleting %s: %w", workItemID, err)
	}
	return s.computeStreak(ctx, item, now)
}

func (s *timerService) ListIntervals(ctx context.Context, workItemID string) ([]*domain.ExecutionInterval, error) {
	s.opMu.RLock()
	defer s.opMu.RUnlock()

	if _, err := s.getWorkItem(ctx, workItemID); err != nil {
		return nil, err
	}
	return s.log.ListIntervals(ctx, workItemID, domain.IntervalFilter{})
}

func (s *timerService) getWorkItem(ctx context.Context, id string) (*domain.WorkItem, error) {
	var item *domain.WorkItem
	err := retry.Do(ctx, s.retry, func(ctx context.Context) error {
		var err error
		item, err = s.workItems.GetByID(ctx, id)
		return err
	})
	return item, err
}

func (s *timerService) getHabit(ctx context.Context, id string) (*domain.WorkItem, error) {
	item, err := s.getWorkItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if !item.IsHabit() {
		return nil, fmt.Errorf("%s: %w", item.Title, domain.ErrNotHabit)
	}
	return item, nil
}

// recompute refreshes the aggregate cache, falling back to the previous
// value when the log cannot be read.
func (s *timerService) recompute(ctx context.Context, workItemID string, now time.Time) (domain.Aggregate, error) {
	var agg domain.Aggregate
	err := retry.Do(ctx, s.retry, func(ctx context.Context) error {
		var err error
		agg, err = s.aggregator.Recompute(ctx, workItemID, now)
		return err
	})
	if err != nil {
		return s.cachedAggregate(workItemID), err
	}

	s.cacheMu.Lock()
	s.aggregates[workItemID] = agg
	s.cacheMu.Unlock()
	return agg, nil
}

func (s *timerService) refreshAggregate(ctx context.Context, workItemID string, now time.Time) {
	if _, err := s.recompute(ctx, workItemID, now); err != nil {
		s.logger.Warningf("keeping stale aggregate of %s: %s", workItemID, err)
	}
}

func (s *timerService) computeStreak(ctx context.Context, item *domain.WorkItem, now time.Time) (domain.StreakRecord, error) {
	var rec domain.StreakRecord
	err := retry.Do(ctx, s.retry, func(ctx context.Context) error {
		var err error
		rec, err = s.streaks.ComputeStreak(ctx, item.ID, item.Frequency, now)
		return err
	})
	if err != nil {
		return s.cachedStreak(item.ID), err
	}

	s.cacheMu.Lock()
	s.records[item.ID] = rec
	s.cacheMu.Unlock()
	return rec, nil
}

// refreshStreak recomputes the streak of a habit after its log changed.
// Tasks are skipped.
func (s *timerService) refreshStreak(ctx context.Context, workItemID string, now time.Time) {
	item, err := s.getWorkItem(ctx, workItemID)
	if err != nil {
		s.logger.Warningf("skipping streak refresh of %s: %s", workItemID, err)
		return
	}
	if !item.IsHabit() {
		return
	}
	if _, err := s.computeStreak(ctx, item, now); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warningf("keeping stale streak of %s: %s", workItemID, err)
	}
}

func (s *timerService) cachedAggregate(workItemID string) domain.Aggregate {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	if agg, ok := s.aggregates[workItemID]; ok {
		return agg
	}
	return domain.Aggregate{WorkItemID: workItemID}
}

func (s *timerService) cachedStreak(workItemID string) domain.StreakRecord {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	if rec, ok := s.records[workItemID]; ok {
		return rec
	}
	return domain.StreakRecord{WorkItemID: workItemID}
}
