package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abrezinsky/tokenvote/internal/app"
	"github.com/abrezinsky/tokenvote/internal/config"
)

func serveRun(cmd *cobra.Command, cfg *config.Config) error {
	log := commonRun(cfg)

	a, err := app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		log.Error("Server stopped", "error", err)
		return err
	}
	log.Info("Server stopped")
	return nil
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, event stream and deadline sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd, configFromContext(cmd.Context()))
		},
	}
}

// sweepRun closes every expired scenario once and prints the closed IDs
func sweepRun(cmd *cobra.Command, cfg *config.Config) error {
	log := commonRun(cfg)

	a, err := app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer a.Close()

	closed, err := a.Sweep(cmd.Context())
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}
	for _, id := range closed {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	log.Info("Sweep complete", "closed", len(closed))
	return nil
}

func sweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Close every scenario whose deadline has passed, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return sweepRun(cmd, configFromContext(cmd.Context()))
		},
	}
}
