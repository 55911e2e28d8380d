package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/krissolling/delli-data/internal/config"
	"github.com/krissolling/delli-data/internal/model"
)

// Store persists snapshots and run history.
type Store interface {
	// LoadLatest returns the last persisted snapshot, or (nil, nil)
	// when no snapshot exists yet.
	LoadLatest(ctx context.Context) (*model.Snapshot, error)

	// SaveRun replaces the current snapshot with snap and records the
	// run's changes, then prunes history beyond the retention limit.
	// Runs with no changes still replace the snapshot but are not
	// appended to history.
	SaveRun(ctx context.Context, snap model.Snapshot, changes []model.Change) error

	// History returns past run entries, newest first, at most limit
	// entries (all of them when limit <= 0).
	History(ctx context.Context, limit int) ([]model.HistoryEntry, error)

	// Ping verifies the backend is reachable and writable.
	Ping(ctx context.Context) error

	Close() error
}

// Open creates the store backend selected by cfg.
func Open(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Backend {
	case "json":
		return NewJSONStore(cfg.DataDir, cfg.HistoryLimit, logger)
	case "sqlite":
		return OpenSQLite(ctx, cfg.SQLitePath, cfg.HistoryLimit, logger)
	case "postgres":
		return OpenPostgres(ctx, cfg.Postgres, cfg.HistoryLimit, logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
