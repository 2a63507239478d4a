package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/vietddude/stylelog"

	"github.com/hrops/registry/internal/control"
	"github.com/hrops/registry/internal/core/config"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	once := flag.Bool("once", false, "Run a single classification pass and exit")
	dryRun := flag.Bool("dry-run", false, "Plan changes without classifying or writing")
	resetProcessed := flag.Bool("reset-processed", false, "Clear processed flags on every row and exit")
	isDebug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// .env is optional; config values can reference its variables.
	_ = godotenv.Load()

	// Load configuration first (before setting up logger)
	cfg, err := config.Load(*configPath)
	if err != nil {
		// Fall back to default logger for config load errors
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	slogLevel := slog.LevelInfo
	if *isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}

	stylelog.InitDefault(
		&tint.Options{
			Level:      slogLevel,
			TimeFormat: time.RFC3339,
		})
	slog.Info("Logger initialized", "level", slogLevel.String())

	controlCfg := control.Config{
		Port:       cfg.Server.Port,
		Database:   cfg.Database,
		Redis:      cfg.Redis,
		Decision:   cfg.Decision,
		Processing: cfg.Processing,
		Rules:      cfg.Rules,
		DryRun:     *dryRun,
	}

	app, err := control.NewService(controlCfg)
	if err != nil {
		slog.Error("Failed to initialize service", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *resetProcessed {
		n, err := app.ResetProcessed(ctx)
		if err != nil {
			slog.Error("Failed to reset processed flags", "error", err)
			os.Exit(1)
		}
		slog.Info("Processed flags cleared", "rows", n)
		return
	}

	if *once {
		if _, err := app.RunPass(ctx); err != nil {
			slog.Error("Classification pass failed", "error", err)
			os.Exit(1)
		}
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := app.Start(ctx); err != nil {
		slog.Error("Failed to start service", "error", err)
		os.Exit(1)
	}

	sig := <-sigChan
	slog.Info("Received signal, shutting down...", "signal", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Registry stopped gracefully")
}
