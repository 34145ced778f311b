package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/cli"
	apphttp "bilancio/internal/http"
	"bilancio/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("api")
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	// The event broker is optional for the API: expenses still get
	// recorded when it is down, the worker catches up through the pending
	// export sweep.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without event publishing", "error", err)
		} else {
			publisher = amqpClient
		}
	}

	ledgerSvc := services.NewLedgerService(repo, publisher)
	dashboardSvc := services.NewDashboardService(repo)

	// Run the month-close evaluation once at startup so income-less
	// ledgers roll over without waiting for a request.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if _, err := ledgerSvc.EvaluateMonthClose(startupCtx, time.Now()); err != nil {
		logger.Warn("Startup month-close evaluation failed", "error", err)
	}
	startupCancel()

	srv := apphttp.NewServer(":"+cfg.Port, ledgerSvc, dashboardSvc)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := ledgerSvc.Close(); err != nil {
			logger.Error("Service shutdown error", "error", err)
		}
	})

	logger.Info("Starting bilancio server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
