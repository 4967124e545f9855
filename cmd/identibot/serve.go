package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/maelig/identibot/internal/app"
	"github.com/maelig/identibot/internal/config"
	"github.com/maelig/identibot/internal/firehose"
	"github.com/maelig/identibot/internal/httpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot daemon",
	Long: `Run the identibot daemon: the HTTP hook and status surface, and
optionally a firehose watcher that triggers the mention plugins.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForServe(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("wire application: %w", err)
	}
	defer a.Close()

	if err := a.Client.ValidateCredentials(ctx); err != nil {
		slog.Error("failed to validate Bluesky credentials", "error", err)
	}

	server := httpserver.NewServer(cfg, a.Gate, a.News, a.Cache, a.Store, slog.Default())

	errCh := make(chan error, 2)
	go func() {
		errCh <- server.Start()
	}()

	if cfg.FirehoseEnabled {
		watcher := firehose.NewWatcher(cfg.FirehoseURL, cfg.BlueskyHandle, a.Gate, a.MentionPlugins, slog.Default())
		go func() {
			errCh <- watcher.Start(ctx)
		}()
	}

	slog.Info("identibot daemon started",
		"port", cfg.Port,
		"min_dispatch_interval", cfg.MinDispatchInterval,
		"firehose", cfg.FirehoseEnabled,
		"plugins", a.Registry.Names(),
	)

	// Wait for shutdown signal or error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		if err != nil && err != context.Canceled {
			return fmt.Errorf("server error: %w", err)
		}
	}

	slog.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}
