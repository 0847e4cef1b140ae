package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"igreja/internal/amqp"
	"igreja/internal/cli"
	"igreja/internal/config"
	applog "igreja/internal/log"
	"igreja/internal/services"
	gsheet "igreja/internal/sheets/google"
	"igreja/internal/storage"
	"igreja/internal/worker"
)

func main() {
	cfg := cli.LoadAndValidateConfig((*config.Config).ValidateWorker)
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat, applog.ComponentWorker)

	ctx, stop := cli.SignalContext()
	defer stop()

	logger.InfoContext(ctx, "Starting igreja-worker")

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize SQLite repository", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	sheetsClient, err := gsheet.NewFromEnv(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}
	logger.InfoContext(ctx, "Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// The worker rebuilds each panel from the database; no cache.
	syncWorker := worker.NewSyncWorker(services.NewReportService(repo, nil), sheetsClient)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumePanelSync(gctx, syncWorker.HandlePanelSync)
	})
	g.Go(func() error {
		return syncWorker.Run(gctx, cfg.SyncInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.ErrorContext(context.Background(), "Worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.InfoContext(context.Background(), "Worker shutdown complete")
}
