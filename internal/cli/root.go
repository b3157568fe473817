package cli

import (
	"github.com/spf13/cobra"

	"github.com/alexanderramin/cadence/internal/calendar"
	"github.com/alexanderramin/cadence/internal/clock"
	"github.com/alexanderramin/cadence/internal/service"
)

// App holds the services and terminal hooks used by CLI commands.
type App struct {
	WorkItems service.WorkItemService
	Timer     service.TimerService
	Clock     clock.Clock
	Boundary  *calendar.Boundary

	// IsInteractive reports whether stdin is a terminal. Destructive
	// commands only prompt when it returns true.
	IsInteractive func() bool

	// Confirm asks a yes/no question. Nil falls back to a huh form.
	Confirm func(title string) (bool, error)
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) confirm(title string) (bool, error) {
	if a.Confirm != nil {
		return a.Confirm(title)
	}
	return huhConfirm(title)
}

// NewRootCmd creates the top-level "cadence" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "cadence",
		Short:         "Time tracker and habit streak keeper",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newItemCmd(app),
		newTimerCmd(app),
		newResetCmd(app),
		newHabitCmd(app),
		newLogCmd(app),
	)

	return root
}
