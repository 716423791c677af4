package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/scaffold/internal/app"
)

func newRunCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the interactive shell",
		Long: `run starts the terminal shell. Its window, panels, theme and key
bindings are loaded from the state files and saved again on exit. Edits made
to the files while the shell runs are picked up live.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return c.runShell(ctx)
		},
	}
}

func (c *cli) runShell(ctx context.Context) error {
	term, err := app.NewTerminal()
	if err != nil {
		return fmt.Errorf("creating terminal: %w", err)
	}

	application, err := app.New(app.Options{
		Config:    c.manager(true),
		Backend:   term,
		Logger:    c.logger,
		FrameRate: c.settings.FrameRate,
		Theme:     c.settings.Theme,
	})
	if err != nil {
		return err
	}

	if err := application.Init(ctx); err != nil {
		_ = application.Shutdown()
		return err
	}

	runErr := application.Run(ctx)
	if err := application.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
