package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexanderramin/cadence/internal/cli/formatter"
	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/service"
)

const watchInterval = time.Second

type tickMsg time.Time

type watchKeyMap struct {
	Toggle key.Binding
	Stop   key.Binding
	Quit   key.Binding
}

func defaultWatchKeys() watchKeyMap {
	return watchKeyMap{
		Toggle: key.NewBinding(key.WithKeys("p", " ", "space"), key.WithHelp("p/space", "pause/resume")),
		Stop:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "detach")),
	}
}

type watchOp string

const (
	opPause  watchOp = "pause"
	opResume watchOp = "resume"
	opStop   watchOp = "stop"
)

// aggregateMsg carries totals loaded from the store.
type aggregateMsg struct {
	agg domain.Aggregate
	err error
}

// outcomeMsg settles a transition the dispatcher ran in the background.
type outcomeMsg struct {
	op      watchOp
	outcome service.Outcome
}

// watchModel renders a live session clock. Leaving with q keeps the session
// running; s stops it and records the time.
//
// Totals are loaded from the store on start and after each confirmed
// transition. Ticks only project them forward in memory.
type watchModel struct {
	ctx        context.Context
	app        *App
	dispatcher *service.Dispatcher
	item       *domain.WorkItem
	keys       watchKeyMap
	every      time.Duration

	active  domain.ActiveExecution
	base    domain.Aggregate
	agg     domain.Aggregate
	now     time.Time
	pending watchOp
	ended   time.Duration
	err     error
	stopped bool
}

func newWatchModel(ctx context.Context, app *App, dispatcher *service.Dispatcher, item *domain.WorkItem) watchModel {
	m := watchModel{
		ctx:        ctx,
		app:        app,
		dispatcher: dispatcher,
		item:       item,
		keys:       defaultWatchKeys(),
		every:      watchInterval,
		base:       domain.Aggregate{WorkItemID: item.ID},
	}
	m.now = app.Clock.Now()
	m.active = app.Timer.Active()
	m.base.ComputedAt = m.now
	m.project()
	return m
}

func (m watchModel) tick() tea.Cmd {
	if m.every <= 0 {
		return nil
	}
	return tea.Tick(m.every, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m watchModel) loadAggregate() tea.Cmd {
	ctx, timer, id := m.ctx, m.app.Timer, m.item.ID
	return func() tea.Msg {
		agg, err := timer.GetAggregate(ctx, id)
		return aggregateMsg{agg: agg, err: err}
	}
}

// await turns the outcome of p into a message.
func (m watchModel) await(op watchOp, p *service.Pending) tea.Cmd {
	ctx, timer := m.ctx, m.app.Timer
	return func() tea.Msg {
		o, err := p.Wait(ctx)
		if err != nil {
			o = service.Outcome{Kind: service.OutcomeRolledBack, State: timer.Active(), Err: err}
		}
		return outcomeMsg{op: op, outcome: o}
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.loadAggregate(), m.tick())
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.now = m.app.Clock.Now()
		if m.pending == "" {
			m.active = m.app.Timer.Active()
			if !m.active.Owns(m.item.ID) {
				return m, tea.Quit
			}
		}
		m.project()
		return m, m.tick()

	case aggregateMsg:
		// A failed read still carries the cached aggregate.
		m.base = msg.agg
		if msg.err != nil {
			m.err = msg.err
		}
		m.project()
		return m, nil

	case outcomeMsg:
		return m.settle(msg)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case m.pending != "":
			return m, nil

		case key.Matches(msg, m.keys.Toggle):
			if m.active.IsPaused() {
				return m.propose(opResume, m.dispatcher.Resume(m.ctx))
			}
			return m.propose(opPause, m.dispatcher.Pause(m.ctx))

		case key.Matches(msg, m.keys.Stop):
			m.now = m.app.Clock.Now()
			m.ended = m.active.Elapsed(m.now)
			return m.propose(opStop, m.dispatcher.Stop(m.ctx))
		}
	}
	return m, nil
}

// propose shows the state a transition is heading for while it runs.
func (m watchModel) propose(op watchOp, p *service.Pending) (tea.Model, tea.Cmd) {
	m.pending = op
	m.err = nil
	m.active = p.Proposed
	m.now = m.app.Clock.Now()
	m.project()
	return m, m.await(op, p)
}

// settle applies a transition outcome. A rollback shows the state the engine
// actually holds along with the error.
func (m watchModel) settle(msg outcomeMsg) (tea.Model, tea.Cmd) {
	o := msg.outcome
	m.pending = ""
	m.active = o.State
	m.now = m.app.Clock.Now()

	if !o.Confirmed() {
		m.err = o.Err
		m.project()
		return m, nil
	}

	if msg.op == opStop {
		m.stopped = true
		m.base = o.Aggregate
		m.agg = o.Aggregate
		return m, tea.Quit
	}
	m.project()
	return m, m.loadAggregate()
}

func (m *watchModel) project() {
	m.agg = service.ProjectAggregate(m.base, m.active, m.now, m.app.Boundary)
}

func (m watchModel) View() string {
	var b strings.Builder

	state := m.active.State
	elapsed := m.active.Elapsed(m.now)
	switch {
	case m.stopped:
		state = domain.StateIdle
		elapsed = m.agg.SessionElapsed
	case m.pending == opStop:
		elapsed = m.ended
	}

	fmt.Fprintf(&b, "%s  %s\n\n", formatter.Bold(m.item.Title), formatter.StatePill(state))
	fmt.Fprintf(&b, "  session  %s\n", formatter.FormatClock(elapsed))
	fmt.Fprintf(&b, "  today    %s\n", formatter.FormatDuration(m.agg.TodayTotal))
	fmt.Fprintf(&b, "  lifetime %s\n", formatter.FormatDuration(m.agg.LifetimeTotal))
	if m.err != nil {
		fmt.Fprintf(&b, "\n%s\n", formatter.StyleRed.Render(m.err.Error()))
	}
	if !m.stopped {
		help := []string{}
		for _, k := range []key.Binding{m.keys.Toggle, m.keys.Stop, m.keys.Quit} {
			h := k.Help()
			help = append(help, h.Key+" "+h.Desc)
		}
		fmt.Fprintf(&b, "\n%s\n", formatter.Dim(strings.Join(help, " · ")))
	}

	return formatter.RenderBox("Session", b.String())
}

func runWatch(ctx context.Context, app *App, item *domain.WorkItem, in io.Reader, out io.Writer) error {
	dispatcher := service.NewDispatcher(app.Timer, app.Clock)
	p := tea.NewProgram(newWatchModel(ctx, app, dispatcher, item),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	final, err := p.Run()
	// Detaching mid-transition still lets it reach the store.
	dispatcher.Wait()
	if err != nil {
		return err
	}
	if m, ok := final.(watchModel); ok && m.err != nil && !m.stopped {
		return m.err
	}
	return nil
}
