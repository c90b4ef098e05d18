// Package cli provides common initialization shared by the binaries under
// cmd/.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"registro/internal/backend"
	"registro/internal/config"
	"registro/internal/core"
	"registro/internal/ledger"
)

// SetupLogger initializes structured logging with default settings and sets
// the process default logger.
func SetupLogger() *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitLedger constructs the configured backend and an initialized ledger on
// top of it. The returned cleanup releases the backend.
func InitLedger(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*ledger.Ledger, backend.CleanupFunc, error) {
	result, err := backend.Create(logger, backend.Config{
		Type:         backend.Type(cfg.DataBackend),
		SQLiteDBPath: cfg.SQLiteDBPath,
	})
	if err != nil {
		return nil, nil, err
	}

	factories := core.DefaultFactories()
	l := ledger.New(result.Store, factories[:])
	if err := l.Init(ctx); err != nil {
		if result.Cleanup != nil {
			_ = result.Cleanup()
		}
		return nil, nil, err
	}
	return l, result.Cleanup, nil
}
