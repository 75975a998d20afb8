// Package cli provides the initialization shared by cmd/ledger-api,
// cmd/statement-worker and cmd/bill-closer.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"finledger/internal/amqp"
	"finledger/internal/config"
	applog "finledger/internal/log"
	"finledger/internal/services"
	"finledger/internal/storage"
)

// SetupLogger builds the logger for component from cfg and sets it as the
// slog default. Invalid levels fall back to info.
func SetupLogger(cfg *config.Config, component string) *applog.Logger {
	lc := applog.DefaultConfig()
	lc.Component = component
	if cfg != nil {
		if level, err := applog.ParseLevel(cfg.LogLevel); err == nil {
			lc.Level = level
		}
		lc.Format = cfg.LogFormat
	}
	logger := applog.New(lc)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			applog.FieldError, err.Error(),
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite opens and migrates the ledger database.
// Returns the repository or exits the process on failure.
func InitSQLite(logger *applog.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			applog.FieldError, err.Error(),
			applog.FieldErrorType, applog.ErrorTypeDatabase,
			"path", dbPath)
		os.Exit(1)
	}
	return repo
}

// InitPublisher connects a publish-only AMQP client when events are enabled.
// Without a broker it returns nil and the ledger runs without events.
func InitPublisher(logger *applog.Logger, cfg *config.Config) *amqp.Client {
	if !cfg.EventsEnabled() {
		logger.Info("AMQP_URL not set, ledger events disabled")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, "")
	if err != nil {
		logger.Error("Failed to initialize AMQP publisher",
			applog.FieldError, err.Error(),
			applog.FieldErrorType, applog.ErrorTypeNetwork)
		os.Exit(1)
	}
	logger.Info("Publishing ledger events", "exchange", cfg.AMQPExchange)
	return client
}

// NewLedger wires the ledger services over repo. publisher may be nil.
func NewLedger(repo *storage.SQLiteRepository, publisher *amqp.Client, cfg *config.Config) *services.Ledger {
	opts := services.Options{DefaultDueDay: cfg.DefaultDueDay}
	if publisher != nil {
		opts.Events = publisher
	}
	return services.NewLedger(repo, opts)
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM and
// its stop function.
func GracefulShutdown(logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown)
	}()
	return ctx, stop
}
