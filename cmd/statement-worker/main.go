package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finledger/internal/amqp"
	"finledger/internal/cache"
	"finledger/internal/cli"
	"finledger/internal/core"
	applog "finledger/internal/log"
	gsheet "finledger/internal/sheets/google"
	"finledger/internal/worker"
)

const dedupeEntries = 10000

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(nil, applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg, applog.ComponentWorker)

	if err := cfg.ValidateExport(); err != nil {
		logger.Error("Export configuration invalid",
			applog.FieldError, err.Error(),
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	sheets, err := gsheet.NewFromEnv(ctx)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, string(core.EventBillPaid))
	if err != nil {
		logger.Error("Failed to initialize AMQP client",
			applog.FieldError, err.Error(),
			applog.FieldErrorType, applog.ErrorTypeNetwork)
		os.Exit(1)
	}
	defer consumer.Close()

	seen := cache.NewLRUCache[time.Time](dedupeEntries, cfg.ExportDedupeTTL)
	caches := cache.NewManager()
	caches.Register(seen)

	statements := worker.NewStatementWorker(repo, sheets, seen)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		caches.Run(gctx, 10*time.Minute)
		return nil
	})
	g.Go(func() error {
		logger.Info("Starting statement worker", "queue", cfg.AMQPQueue, "exchange", cfg.AMQPExchange)
		return consumer.Consume(gctx, statements.HandleLedgerEvent)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Statement worker stopped", applog.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
