package main

import (
	"context"
	"errors"
	"os"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/cli"
	"bilancio/internal/export"
	gsheet "bilancio/internal/export/google"
	mem "bilancio/internal/export/memory"
	"bilancio/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("export-worker")
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	var archive export.ExpenseAppender
	switch cfg.ExportBackend {
	case "google":
		client, err := gsheet.New(context.Background(), gsheet.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets archive", "error", err)
			os.Exit(1)
		}
		archive = client
		logger.Info("Google Sheets archive initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	default:
		archive = mem.New()
		logger.Info("In-memory archive initialized, exported rows are not persisted")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exportWorker := worker.NewExportWorker(repo, archive, cfg.ExportBatchSize)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	logger.Info("Starting export worker",
		"batch_size", cfg.ExportBatchSize,
		"sweep_interval", cfg.ExportSweepInterval.String())

	if err := exportWorker.Run(ctx, amqpClient, cfg.ExportSweepInterval); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Export worker stopped", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Export worker stopped gracefully")
}
