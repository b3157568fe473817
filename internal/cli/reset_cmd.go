package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/cadence/internal/cli/formatter"
	"github.com/alexanderramin/cadence/internal/domain"
)

func newResetCmd(app *App) *cobra.Command {
	scope := scopeValue(domain.ResetSession)
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset <id>",
		Short: "Discard recorded time for a work item",
		Long: `Discard recorded time. A running or paused session on the item is
stopped and saved first.

  session  forget the current session clock, keep logged time
  today    delete time logged today
  total    delete all time and habit completions`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w, err := resolveWorkItem(ctx, app, args[0])
			if err != nil {
				return err
			}

			target := domain.ResetScope(scope)
			if target != domain.ResetSession && !yes {
				if !app.interactive() {
					return fmt.Errorf("reset --scope %s deletes recorded time; pass --yes to confirm", target)
				}
				ok, err := app.confirm(fmt.Sprintf("Reset %s time for %q?", target, w.Title))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Reset cancelled.")
					return nil
				}
			}

			agg, err := app.Timer.Reset(ctx, w.ID, target)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Reset %s for %s\n", target, formatter.Bold(w.Title))
			writeTotals(out, agg)
			return nil
		},
	}

	cmd.Flags().Var(&scope, "scope", "What to discard: session, today or total")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
