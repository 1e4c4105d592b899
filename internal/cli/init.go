// Package cli provides the initialization shared by cmd/finanzas and
// cmd/finanzas-worker: environment, logging, configuration, the record
// store with its data migrations, and signal handling.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finanzas/internal/backend"
	"finanzas/internal/config"
	"finanzas/internal/log"
	"finanzas/internal/migration"
	"finanzas/internal/records"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger at the configured level and sets it
// as the slog default.
func SetupLogger(cfg *config.Config) *log.Logger {
	logger := log.New(cfg.Logger())
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig() *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg
}

// OpenStore opens the configured record store, stages the legacy document
// when one is configured, and runs the data migration pipeline. Schema
// migrations run when the database is opened. A failed data migration does
// not stop startup.
func OpenStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (*backend.Store, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	store, err := backend.Open(ctx, bcfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.LegacyImportPath != "" {
		if err := StageLegacyFile(ctx, store.Records.Legacy, cfg.LegacyImportPath); err != nil {
			store.Close()
			return nil, err
		}
		logger.InfoContext(ctx, "Legacy document staged", "path", cfg.LegacyImportPath)
	}

	MigrateData(ctx, store.Records, logger)
	return store, nil
}

// MigrateData runs the data migration pipeline and reports whether every
// step is applied. A failed step keeps its marker unset and is retried on
// the next start.
func MigrateData(ctx context.Context, store records.Set, logger *log.Logger) bool {
	if err := migration.NewPipeline(store, logger).Run(ctx); err != nil {
		logger.WarnContext(ctx, "Data migration incomplete, retrying on next start",
			log.FieldOperation, log.OpMigrate, log.FieldError, err)
		return false
	}
	return true
}

// StageLegacyFile copies a legacy JSON store file into the legacy store
// unless a document is already staged.
func StageLegacyFile(ctx context.Context, legacy records.LegacyStore, path string) error {
	if _, ok, err := legacy.LegacyDocument(ctx, migration.LegacySource); err != nil {
		return fmt.Errorf("read staged legacy document: %w", err)
	} else if ok {
		return nil
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read legacy file: %w", err)
	}
	if _, err := migration.ParseLegacyStore(payload); err != nil {
		return fmt.Errorf("parse legacy file: %w", err)
	}
	if err := legacy.StageLegacyDocument(ctx, migration.LegacySource, payload); err != nil {
		return fmt.Errorf("stage legacy document: %w", err)
	}
	return nil
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. cleanup
// runs with a context bounded by timeout before the returned channel closes.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}
