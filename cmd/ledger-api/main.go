package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finledger/internal/cli"
	apphttp "finledger/internal/http"
	applog "finledger/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(nil, applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg, applog.ComponentApp)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	publisher := cli.InitPublisher(logger, cfg)
	if publisher != nil {
		defer publisher.Close()
	}
	ledger := cli.NewLedger(repo, publisher, cfg)

	httpLogger := logger.WithComponent(applog.ComponentHTTP)
	srv := apphttp.NewServer(":"+cfg.Port, ledger, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             httpLogger,
		Ready:              repo.Ping,
	})

	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting ledger API", "port", cfg.Port, "db", cfg.SQLiteDBPath, "events", cfg.EventsEnabled())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", applog.FieldError, err.Error(), "port", cfg.Port)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", applog.FieldError, err.Error())
	}
	logger.Info("Server stopped gracefully")
}
