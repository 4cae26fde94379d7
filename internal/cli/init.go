// Package cli holds the bootstrap steps shared by cmd/lifeledger,
// cmd/ledger-worker and cmd/ledgerctl.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"lifeledger/internal/backend"
	"lifeledger/internal/config"
	"lifeledger/internal/log"
	"lifeledger/internal/sheets"
	gsheet "lifeledger/internal/sheets/google"
	memsheet "lifeledger/internal/sheets/memory"
)

// LoadEnvFile loads .env for local development. A missing file is not an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig reads the environment and validates it.
func LoadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the process logger from LOG_LEVEL / LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	if cfg == nil {
		return log.Setup(log.ConfigFromStrings("info", "text", component))
	}
	return log.Setup(log.ConfigFromStrings(cfg.LogLevel, cfg.LogFormat, component))
}

// Fatal logs err and exits. Used before a server loop is running.
func Fatal(logger *log.Logger, msg string, err error, args ...any) {
	logger.Error(msg, append([]any{log.FieldError, err}, args...)...)
	os.Exit(1)
}

// OpenBackend opens the configured ledger store. With events false the AMQP
// publisher is not started, which is what read-only consumers want.
func OpenBackend(ctx context.Context, logger *log.Logger, cfg *config.Config, events bool) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	if !events {
		bcfg.AMQPURL = ""
	}
	return backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, bcfg)
}

// NewActivityExporter returns the Google Sheets exporter when a spreadsheet is
// configured and an in-memory exporter otherwise. The sheet header row is
// written on first use.
func NewActivityExporter(ctx context.Context, logger *log.Logger, cfg *config.Config) (sheets.ActivityExporter, error) {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets disabled, activity rows are kept in memory")
		return memsheet.New(), nil
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize Google Sheets client: %w", err)
	}
	if err := client.EnsureHeader(ctx); err != nil {
		return nil, fmt.Errorf("write sheet header: %w", err)
	}
	logger.Info("Google Sheets exporter initialized",
		log.FieldSheetsRef, cfg.GoogleSpreadsheetID)
	return client, nil
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. cleanup
// runs once after the signal with a context bounded by timeout; done is
// closed when it returns.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer close(done)
		<-ctx.Done()
		stop()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
			return
		}
		logger.Info("Shutdown complete")
	}()

	return ctx, done
}
