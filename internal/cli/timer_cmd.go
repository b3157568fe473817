package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/cadence/internal/cli/formatter"
	"github.com/alexanderramin/cadence/internal/domain"
)

func newTimerCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Start, pause, resume and stop the session timer",
	}

	cmd.AddCommand(
		newTimerStartCmd(app),
		newTimerPauseCmd(app),
		newTimerResumeCmd(app),
		newTimerStopCmd(app),
		newTimerStatusCmd(app),
		newTimerWatchCmd(app),
	)

	return cmd
}

func newTimerStartCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "start <id>",
		Short: "Start timing a work item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w, err := resolveWorkItem(ctx, app, args[0])
			if err != nil {
				return err
			}
			state, err := app.Timer.Start(ctx, w.ID)
			if err != nil {
				return conflictHint(ctx, app, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s at %s\n",
				formatter.StatePill(state.State), formatter.Bold(w.Title),
				formatter.FormatInstant(state.StartedAt, app.Boundary.Location()))
			return nil
		},
	}
}

func newTimerPauseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause the running session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := app.Timer.Pause(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s session at %s\n",
				formatter.StatePill(state.State), formatter.FormatClock(state.AccumulatedBeforePause))
			return nil
		},
	}
}

func newTimerResumeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume the paused session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := app.Timer.Resume(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s from %s\n",
				formatter.StatePill(state.State), formatter.FormatClock(state.AccumulatedBeforePause))
			return nil
		},
	}
}

func newTimerStopCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the session and record its time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			agg, err := app.Timer.Stop(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s after %s\n", formatter.StatePill(domain.StateIdle), formatter.FormatDuration(agg.SessionElapsed))
			writeTotals(out, agg)
			return nil
		},
	}
}

func newTimerStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			active := app.Timer.Active()
			if active.IsIdle() {
				fmt.Fprintf(out, "%s no session\n", formatter.StatePill(domain.StateIdle))
				return nil
			}

			w, err := app.WorkItems.GetByID(ctx, active.WorkItemID)
			if err != nil {
				return err
			}
			agg, err := app.Timer.GetAggregate(ctx, w.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s %s %s\n", formatter.StatePill(active.State), formatter.Bold(w.Title),
				formatter.FormatClock(active.Elapsed(app.Clock.Now())))
			writeTotals(out, agg)
			return nil
		},
	}
}

func newTimerWatchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [id]",
		Short: "Show a live session clock, starting the item if needed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			active := app.Timer.Active()

			var w *domain.WorkItem
			var err error
			switch {
			case len(args) == 1:
				if w, err = resolveWorkItem(ctx, app, args[0]); err != nil {
					return err
				}
				if !active.Owns(w.ID) {
					if _, err := app.Timer.Start(ctx, w.ID); err != nil {
						return conflictHint(ctx, app, err)
					}
				}
			case active.IsIdle():
				return fmt.Errorf("nothing to watch: %w", domain.ErrNoActiveSession)
			default:
				if w, err = app.WorkItems.GetByID(ctx, active.WorkItemID); err != nil {
					return err
				}
			}

			return runWatch(ctx, app, w, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func writeTotals(out io.Writer, agg domain.Aggregate) {
	fmt.Fprintf(out, "  today    %s\n", formatter.FormatDuration(agg.TodayTotal))
	fmt.Fprintf(out, "  lifetime %s\n", formatter.FormatDuration(agg.LifetimeTotal))
}

// conflictHint names the work item that holds the session when a start is
// rejected.
func conflictHint(ctx context.Context, app *App, err error) error {
	active := app.Timer.Active()
	if !errors.Is(err, domain.ErrConflictingExecution) || active.IsIdle() {
		return err
	}
	w, getErr := app.WorkItems.GetByID(ctx, active.WorkItemID)
	if getErr != nil {
		return err
	}
	return fmt.Errorf("%w (%q is %s)", err, w.Title, active.State)
}
