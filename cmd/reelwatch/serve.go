package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amaumene/reelwatch/internal/app"
	"github.com/amaumene/reelwatch/internal/config"
	"github.com/amaumene/reelwatch/internal/models"
	"github.com/spf13/cobra"
)

const loopShutdownTimeout = 30 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard API and the monitoring loops",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	application, cleanup, err := app.Initialize(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	logger := application.Logger
	logger.Info().Str("config_dir", cfg.ConfigDirectory).Msg("Starting reelwatch")
	for _, warning := range cfg.Warnings {
		logger.Warn().Msg(warning)
	}

	seeded, err := application.DB.SeedAccounts(parent, models.DefaultAccounts())
	if err != nil {
		return fmt.Errorf("failed to seed accounts: %w", err)
	}
	if seeded > 0 {
		logger.Info().Int("count", seeded).Msg("Default accounts seeded")
	}

	if cfg.AutoStart {
		application.Scheduler.Start()
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- application.Server.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info().Str("port", cfg.ServerPort).Msg("reelwatch is running")

	select {
	case err := <-serverErrChan:
		stopLoops(application)
		return err
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case <-parent.Done():
	}

	// Start shuts the server down once ctx is cancelled
	cancel()
	if err := <-serverErrChan; err != nil {
		logger.Error().Err(err).Msg("Error during server shutdown")
	}
	stopLoops(application)

	logger.Info().Msg("reelwatch stopped")
	return nil
}

func stopLoops(application *app.App) {
	application.Scheduler.Stop()

	done := make(chan struct{})
	go func() {
		application.Scheduler.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(loopShutdownTimeout):
		application.Logger.Warn().Dur("timeout", loopShutdownTimeout).Msg("Monitoring loops still busy at shutdown")
	}
}
