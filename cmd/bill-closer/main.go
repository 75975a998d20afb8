package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finledger/internal/cli"
	applog "finledger/internal/log"
	"finledger/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(nil, applog.ComponentCloser)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg, applog.ComponentCloser)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	publisher := cli.InitPublisher(logger, cfg)
	if publisher != nil {
		defer publisher.Close()
	}
	ledger := cli.NewLedger(repo, publisher, cfg)

	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return run(gctx, logger, ledger.Closer, cfg.BillCloseInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Bill closer stopped", applog.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Bill closer shutdown complete")
}

// run closes due bills right away and then every interval.
func run(ctx context.Context, logger *applog.Logger, closer *services.BillCloser, interval time.Duration) error {
	logger.Info("Starting bill closer", "interval", interval.String())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := closer.CloseDueBills(ctx, time.Now())
		switch {
		case err != nil && ctx.Err() == nil:
			logger.Error("Closing due bills failed",
				applog.FieldError, err.Error(),
				applog.FieldOperation, applog.OpClose)
		case n > 0:
			logger.Info("Closed due bills", "count", n)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
