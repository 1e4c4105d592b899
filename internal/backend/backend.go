// Package backend selects and opens the record store: the SQLite database
// for real use or the in-memory store for demos and local experiments.
package backend

import (
	"context"
	"fmt"

	"finanzas/internal/config"
	"finanzas/internal/log"
	"finanzas/internal/records"
	"finanzas/internal/records/memory"
	"finanzas/internal/storage"
)

// Type names a record store implementation.
type Type string

const (
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

func (t Type) IsValid() bool {
	return t == SQLiteBackend || t == MemoryBackend
}

func (t Type) String() string { return string(t) }

// Types returns all valid backend types.
func Types() []Type {
	return []Type{SQLiteBackend, MemoryBackend}
}

type Config struct {
	Type         Type
	SQLiteDBPath string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	cfg := Config{
		Type:         Type(appConfig.DataBackend),
		SQLiteDBPath: appConfig.SQLiteDBPath,
	}
	return cfg, cfg.Validate()
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend")
	}
	return nil
}

// Store is an opened record store.
type Store struct {
	Type    Type
	Records records.Set
	close   func() error
}

// Close releases the underlying database, if any.
func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open opens the configured store. The SQLite backend applies pending
// schema migrations first.
func Open(ctx context.Context, cfg Config, logger *log.Logger) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger = logger.WithComponent(log.ComponentStorage)

	switch cfg.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		logger.InfoContext(ctx, "Initialized SQLite backend", "path", cfg.SQLiteDBPath)
		return &Store{Type: cfg.Type, Records: repo.Records(), close: repo.Close}, nil
	default:
		logger.WarnContext(ctx, "Initialized memory backend; data is lost on exit")
		return &Store{Type: cfg.Type, Records: memory.New()}, nil
	}
}
