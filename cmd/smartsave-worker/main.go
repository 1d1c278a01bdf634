package main

import (
	"context"
	"errors"
	"os"
	"time"

	"smartsave/internal/adapters"
	"smartsave/internal/backend"
	"smartsave/internal/cli"
	"smartsave/internal/log"
	"smartsave/internal/notify"
	"smartsave/internal/sheets"
	gsheet "smartsave/internal/sheets/google"
	"smartsave/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	logger.Info("Starting smartsave-worker")

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	backendCfg.AMQPIsRequired = true

	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err)
		os.Exit(1)
	}
	b := result.Backend

	// Google Sheets mirror is optional
	var mirror sheets.TransactionWriter
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		mirror = client
		logger.Info("Google Sheets mirror enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	w := worker.NewNotificationWorker(worker.Config{
		Users:        b.Repository,
		Transactions: b.Repository,
		Snapshots:    b.Snapshots,
		Monitor:      b.Monitor,
		Sender:       notify.New(cfg.WhatsAppAPIURL, cfg.WhatsAppAPIToken, logger),
		Sheets:       mirror,
		Alerts:       adapters.AlertPublisher(b.Events),
		Logger:       logger,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Consuming events", "queue", cfg.AMQPQueue, "prefetch", cfg.WorkerPrefetch)
	if err := b.Events.Consume(ctx, w.Handle); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		result.Cleanup()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
