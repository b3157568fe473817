package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/cadence/internal/cli/formatter"
)

func newLogCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log <id>",
		Short: "List the recorded intervals of a work item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w, err := resolveWorkItem(ctx, app, args[0])
			if err != nil {
				return err
			}
			intervals, err := app.Timer.ListIntervals(ctx, w.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(intervals) == 0 {
				fmt.Fprintf(out, "No time recorded for %s.\n", w.Title)
				return nil
			}
			if limit > 0 && len(intervals) > limit {
				intervals = intervals[len(intervals)-limit:]
			}

			now := app.Clock.Now()
			loc := app.Boundary.Location()
			var total time.Duration
			rows := make([][]string, 0, len(intervals)+1)
			for _, iv := range intervals {
				d := iv.Duration(now)
				total += d
				end := formatter.StyleGreen.Render("running")
				if iv.EndedAt != nil {
					end = formatter.FormatInstant(*iv.EndedAt, loc)
				}
				rows = append(rows, []string{
					formatter.TruncID(iv.SessionID),
					formatter.FormatInstant(iv.StartedAt, loc),
					end,
					formatter.FormatDuration(d),
				})
			}
			rows = append(rows, []string{"", "", formatter.Bold("total"), formatter.Bold(formatter.FormatDuration(total))})

			table := formatter.Table{
				Headers: []string{"SESSION", "STARTED", "ENDED", "DURATION"},
				Rows:    rows,
				Right:   map[int]bool{3: true},
			}
			fmt.Fprint(out, formatter.RenderBox(w.Title, table.Render()))
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Only show the most recent N intervals")

	return cmd
}
