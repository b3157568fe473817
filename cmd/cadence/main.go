package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/oklog/run"

	"github.com/alexanderramin/cadence/internal/cli"
	"github.com/alexanderramin/cadence/internal/clock"
	"github.com/alexanderramin/cadence/internal/config"
	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/log"
	loglogrus "github.com/alexanderramin/cadence/internal/log/logrus"
	"github.com/alexanderramin/cadence/internal/repository"
	"github.com/alexanderramin/cadence/internal/retry"
	"github.com/alexanderramin/cadence/internal/service"
)

// Run wires the engine against the configured database and executes one
// CLI command.
func Run(ctx context.Context, args []string, stdin *os.File, stdout, stderr io.Writer) error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	boundary, err := cfg.Boundary()
	if err != nil {
		return err
	}

	logger := loglogrus.New(stderr, cfg.LogLevel, cfg.LogJSON).WithValues(log.Kv{"app": "cadence"})

	database, err := db.OpenDB(cfg.DBPath, logger)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	workItemRepo := repository.NewSQLiteWorkItemRepo(database)
	clk := clock.System{}

	timer, err := service.NewTimerService(service.TimerServiceConfig{
		WorkItems:   workItemRepo,
		Intervals:   repository.NewSQLiteIntervalRepo(database),
		Completions: repository.NewSQLiteCompletionRepo(database),
		Pauses:      repository.NewSQLitePauseRepo(database),
		UoW:         db.NewSQLiteUnitOfWork(database),
		Boundary:    boundary,
		Clock:       clk,
		Retry: retry.Policy{
			Attempts:  cfg.Retry.Attempts,
			BaseDelay: cfg.Retry.BaseDelay(),
			MaxDelay:  cfg.Retry.MaxDelay(),
		},
		Logger:   logger,
		Observer: service.NewLogUseCaseObserver(logger),
	})
	if err != nil {
		return err
	}

	// A session left open by an earlier invocation keeps running.
	if _, err := timer.Recover(ctx); err != nil {
		return fmt.Errorf("recovering session: %w", err)
	}

	app := &cli.App{
		WorkItems: service.NewWorkItemService(workItemRepo, timer, clk),
		Timer:     timer,
		Clock:     clk,
		Boundary:  boundary,
		IsInteractive: func() bool {
			return isatty.IsTerminal(stdin.Fd()) || isatty.IsCygwinTerminal(stdin.Fd())
		},
	}

	root := cli.NewRootCmd(app)
	root.SetArgs(args[1:])
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	var g run.Group

	// OS signals.
	{
		signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
		defer signalCancel()

		g.Add(
			func() error {
				<-signalCtx.Done()
				logger.Debugf("termination signal received")
				return nil
			},
			func(_ error) {
				signalCancel()
			},
		)
	}

	// Execute command.
	{
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		g.Add(
			func() error {
				return root.ExecuteContext(ctx)
			},
			func(_ error) {
				cancel()
			},
		)
	}

	return g.Run()
}

func main() {
	if err := Run(context.Background(), os.Args, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
