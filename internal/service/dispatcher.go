package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alexanderramin/cadence/internal/clock"
	"github.com/alexanderramin/cadence/internal/domain"
)

type OutcomeKind string

const (
	OutcomeConfirmed  OutcomeKind = "confirmed"
	OutcomeRolledBack OutcomeKind = "rolled_back"
)

// Outcome is the settled result of a dispatched transition. On rollback State
// is the state the engine actually holds.
type Outcome struct {
	Kind      OutcomeKind
	State     domain.ActiveExecution
	Aggregate domain.Aggregate // set by a confirmed stop
	Err       error
}

func (o Outcome) Confirmed() bool {
	return o.Kind == OutcomeConfirmed
}

// Pending is the first phase of a dispatched transition: the state a UI may
// show right away, followed later by an Outcome.
type Pending struct {
	Proposed domain.ActiveExecution

	done    chan struct{}
	outcome Outcome
}

func newPending(proposed domain.ActiveExecution) *Pending {
	return &Pending{Proposed: proposed, done: make(chan struct{})}
}

func (p *Pending) resolve(o Outcome) {
	p.outcome = o
	close(p.done)
}

// Done is closed once the outcome is known.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Outcome returns the settled outcome, or false while still in flight.
func (p *Pending) Outcome() (Outcome, bool) {
	select {
	case <-p.done:
		return p.outcome, true
	default:
		return Outcome{}, false
	}
}

// Wait blocks until the outcome is known or ctx is done.
func (p *Pending) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-p.done:
		return p.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Dispatcher runs timer transitions in the background. Each call returns
// immediately with the proposed state; transitions that are invalid from the
// current state roll back without reaching the store.
type Dispatcher struct {
	timer TimerService
	clock clock.Clock
	wg    sync.WaitGroup
}

func NewDispatcher(timer TimerService, clk clock.Clock) *Dispatcher {
	if clk == nil {
		clk = clock.System{}
	}
	return &Dispatcher{timer: timer, clock: clk}
}

func (d *Dispatcher) Start(ctx context.Context, workItemID string) *Pending {
	current := d.timer.Active()
	proposed, err := proposeStart(current, workItemID, d.clock)
	return d.dispatch(ctx, current, proposed, err, func(ctx context.Context) (Outcome, error) {
		state, err := d.timer.Start(ctx, workItemID)
		return Outcome{State: state}, err
	})
}

func (d *Dispatcher) Pause(ctx context.Context) *Pending {
	current := d.timer.Active()
	proposed, err := proposePause(current, d.clock)
	return d.dispatch(ctx, current, proposed, err, func(ctx context.Context) (Outcome, error) {
		state, err := d.timer.Pause(ctx)
		return Outcome{State: state}, err
	})
}

func (d *Dispatcher) Resume(ctx context.Context) *Pending {
	current := d.timer.Active()
	proposed, err := proposeResume(current, d.clock)
	return d.dispatch(ctx, current, proposed, err, func(ctx context.Context) (Outcome, error) {
		state, err := d.timer.Resume(ctx)
		return Outcome{State: state}, err
	})
}

func (d *Dispatcher) Stop(ctx context.Context) *Pending {
	current := d.timer.Active()
	var err error
	if current.IsIdle() {
		err = fmt.Errorf("stopping: %w", domain.ErrNoActiveSession)
	}
	return d.dispatch(ctx, current, domain.IdleExecution, err, func(ctx context.Context) (Outcome, error) {
		agg, err := d.timer.Stop(ctx)
		return Outcome{State: d.timer.Active(), Aggregate: agg}, err
	})
}

// Wait blocks until every dispatched transition has settled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) dispatch(ctx context.Context, current, proposed domain.ActiveExecution, invalid error, run func(ctx context.Context) (Outcome, error)) *Pending {
	if invalid != nil {
		p := newPending(current)
		p.resolve(Outcome{Kind: OutcomeRolledBack, State: current, Err: invalid})
		return p
	}

	p := newPending(proposed)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		o, err := run(ctx)
		if err != nil {
			p.resolve(Outcome{Kind: OutcomeRolledBack, State: d.timer.Active(), Err: err})
			return
		}
		o.Kind = OutcomeConfirmed
		p.resolve(o)
	}()
	return p
}

func proposeStart(current domain.ActiveExecution, workItemID string, clk clock.Clock) (domain.ActiveExecution, error) {
	if !current.IsIdle() {
		return current, fmt.Errorf("starting %s: %w (%s is %s)", workItemID, domain.ErrConflictingExecution, current.WorkItemID, current.State)
	}
	return domain.ActiveExecution{
		State:      domain.StateRunning,
		WorkItemID: workItemID,
		StartedAt:  clk.Now(),
	}, nil
}

func proposePause(current domain.ActiveExecution, clk clock.Clock) (domain.ActiveExecution, error) {
	switch {
	case current.IsIdle():
		return current, fmt.Errorf("pausing: %w", domain.ErrNoActiveSession)
	case !current.IsRunning():
		return current, fmt.Errorf("pausing %s: %w", current.WorkItemID, domain.ErrNotRunning)
	}
	next := current
	next.State = domain.StatePaused
	next.AccumulatedBeforePause = current.Elapsed(clk.Now())
	next.StartedAt = time.Time{}
	next.IntervalID = ""
	return next, nil
}

func proposeResume(current domain.ActiveExecution, clk clock.Clock) (domain.ActiveExecution, error) {
	if !current.IsPaused() {
		return current, fmt.Errorf("resuming: %w", domain.ErrNoPausedSession)
	}
	next := current
	next.State = domain.StateRunning
	next.StartedAt = clk.Now()
	return next, nil
}
