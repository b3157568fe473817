package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/cadence/internal/calendar"
	"github.com/alexanderramin/cadence/internal/cli/formatter"
	"github.com/alexanderramin/cadence/internal/domain"
)

func newHabitCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "habit",
		Short: "Mark habits done and check streaks",
	}

	cmd.AddCommand(
		newHabitCompleteCmd(app),
		newHabitUncompleteCmd(app),
		newHabitStreakCmd(app),
	)

	return cmd
}

func newHabitCompleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark a habit done for the current period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w, err := resolveWorkItem(ctx, app, args[0])
			if err != nil {
				return err
			}
			rec, err := app.Timer.Complete(ctx, w.ID)
			if err != nil {
				return err
			}
			writeStreak(cmd.OutOrStdout(), app.Boundary, w, rec, app.Clock.Now())
			return nil
		},
	}
}

func newHabitUncompleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "uncomplete <id>",
		Short: "Remove this period's completion marks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w, err := resolveWorkItem(ctx, app, args[0])
			if err != nil {
				return err
			}
			rec, err := app.Timer.Uncomplete(ctx, w.ID)
			if err != nil {
				return err
			}
			writeStreak(cmd.OutOrStdout(), app.Boundary, w, rec, app.Clock.Now())
			return nil
		},
	}
}

func newHabitStreakCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "streak [id]",
		Short: "Show the streak of one habit, or of every habit",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			now := app.Clock.Now()

			if len(args) == 1 {
				w, err := resolveWorkItem(ctx, app, args[0])
				if err != nil {
					return err
				}
				rec, err := app.Timer.GetStreak(ctx, w.ID)
				if err != nil {
					return err
				}
				writeStreak(out, app.Boundary, w, rec, now)
				return nil
			}

			habits, err := app.WorkItems.List(ctx, domain.KindHabit)
			if err != nil {
				return err
			}
			if len(habits) == 0 {
				fmt.Fprintln(out, "No habits found.")
				return nil
			}

			rows := make([][]string, 0, len(habits))
			for _, w := range habits {
				rec, err := app.Timer.GetStreak(ctx, w.ID)
				if err != nil {
					return err
				}
				rows = append(rows, []string{
					formatter.TruncID(w.ID),
					w.Title,
					string(w.Frequency),
					fmt.Sprintf("%d", rec.CurrentStreak),
					fmt.Sprintf("%d", rec.LongestStreak),
					formatter.StreakPill(rec.Status),
				})
			}
			table := formatter.Table{
				Headers: []string{"ID", "HABIT", "EVERY", "CURRENT", "LONGEST", "STATUS"},
				Rows:    rows,
				Right:   map[int]bool{3: true, 4: true},
			}
			fmt.Fprint(out, formatter.RenderBox("Streaks", table.Render()))
			fmt.Fprintln(out)
			return nil
		},
	}
}

func periodUnit(freq domain.Frequency) (string, string) {
	switch freq {
	case domain.FrequencyWeekly:
		return "week", "weeks"
	case domain.FrequencyMonthly:
		return "month", "months"
	default:
		return "day", "days"
	}
}

// writeStreak prints the streak and, for an at-risk habit, how much of the
// current period is left to keep it.
func writeStreak(out io.Writer, b *calendar.Boundary, w *domain.WorkItem, rec domain.StreakRecord, now time.Time) {
	one, many := periodUnit(rec.Frequency)
	fmt.Fprintf(out, "%s  %s\n", formatter.Bold(w.Title), formatter.StreakPill(rec.Status))
	fmt.Fprintf(out, "  current  %s\n", formatter.Plural(rec.CurrentStreak, one, many))
	fmt.Fprintf(out, "  longest  %s\n", formatter.Plural(rec.LongestStreak, one, many))
	if left, ok := rec.TimeRemaining(now); ok {
		window := rec.PeriodEnd.Sub(b.PeriodStart(rec.Frequency, now))
		fmt.Fprintf(out, "  grace    %s\n", formatter.RenderGraceBar(left, window, 20))
	}
}
