package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/cadence/internal/cli/formatter"
	"github.com/alexanderramin/cadence/internal/domain"
)

func newItemCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage tasks and habits",
	}

	cmd.AddCommand(
		newItemAddCmd(app),
		newItemListCmd(app),
		newItemRemoveCmd(app),
	)

	return cmd
}

func newItemAddCmd(app *App) *cobra.Command {
	var freq frequencyValue

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task, or a habit when --every is set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := &domain.WorkItem{Title: args[0], Kind: domain.KindTask}
			if freq != "" {
				w.Kind = domain.KindHabit
				w.Frequency = domain.Frequency(freq)
			}
			if err := app.WorkItems.Create(cmd.Context(), w); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s %s\n",
				formatter.KindBadge(w), formatter.Bold(w.Title), formatter.TruncID(w.ID))
			return nil
		},
	}

	cmd.Flags().Var(&freq, "every", "Make this a habit repeating daily, weekly or monthly")

	return cmd
}

func newItemListCmd(app *App) *cobra.Command {
	var kind kindValue

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work items with their totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			items, err := app.WorkItems.List(ctx, domain.WorkItemKind(kind))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No work items found.")
				return nil
			}

			active := app.Timer.Active()
			rows := make([][]string, 0, len(items))
			for _, w := range items {
				agg, err := app.Timer.GetAggregate(ctx, w.ID)
				if err != nil {
					return err
				}
				state := ""
				if active.Owns(w.ID) {
					state = formatter.StatePill(active.State)
				}
				rows = append(rows, []string{
					formatter.TruncID(w.ID),
					w.Title,
					formatter.KindBadge(w),
					formatter.FormatDuration(agg.TodayTotal),
					formatter.FormatDuration(agg.LifetimeTotal),
					state,
				})
			}

			table := formatter.Table{
				Headers: []string{"ID", "TITLE", "KIND", "TODAY", "TOTAL", ""},
				Rows:    rows,
				Right:   map[int]bool{3: true, 4: true},
			}
			fmt.Fprint(out, formatter.RenderBox("Work items", table.Render()))
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().Var(&kind, "kind", "Only list tasks or habits")

	return cmd
}

func newItemRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a work item and its recorded time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w, err := resolveWorkItem(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.WorkItems.Delete(ctx, w.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", formatter.Bold(w.Title), formatter.TruncID(w.ID))
			return nil
		},
	}
}
