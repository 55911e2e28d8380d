package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/krissolling/delli-data/internal/config"
	"github.com/krissolling/delli-data/internal/model"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS snapshot_meta (
	run_id     UUID NOT NULL,
	fetched_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshot_products (
	id               BIGINT PRIMARY KEY,
	handle           TEXT NOT NULL,
	title            TEXT NOT NULL,
	vendor           TEXT NOT NULL,
	product_type     TEXT NOT NULL,
	price_cents      BIGINT NOT NULL,
	compare_at_cents BIGINT NOT NULL,
	on_sale          BOOLEAN NOT NULL,
	available        BOOLEAN NOT NULL,
	tags             JSONB NOT NULL,
	image_url        TEXT NOT NULL,
	variant_count    INT NOT NULL,
	created_ts       BIGINT NOT NULL,
	updated_ts       BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	run_id       UUID PRIMARY KEY,
	ts           BIGINT NOT NULL,
	change_count INT NOT NULL
);

CREATE TABLE IF NOT EXISTS changes (
	run_id      UUID NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	seq         INT NOT NULL,
	product_id  BIGINT NOT NULL,
	handle      TEXT NOT NULL,
	title       TEXT NOT NULL,
	vendor      TEXT NOT NULL,
	change_type TEXT NOT NULL,
	details     JSONB NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(ts);
`

// PostgresStore persists snapshots and history in PostgreSQL.
type PostgresStore struct {
	pool         *pgxpool.Pool
	historyLimit int
	logger       *slog.Logger
}

// OpenPostgres connects to the database and ensures the schema exists.
func OpenPostgres(ctx context.Context, cfg config.DBConfig, historyLimit int, logger *slog.Logger) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(BuildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{
		pool:         pool,
		historyLimit: historyLimit,
		logger:       logger,
	}, nil
}

func (s *PostgresStore) LoadLatest(ctx context.Context) (*model.Snapshot, error) {
	snap := &model.Snapshot{}
	err := s.pool.QueryRow(ctx,
		`SELECT run_id, fetched_at FROM snapshot_meta LIMIT 1`,
	).Scan(&snap.RunID, &snap.FetchedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot meta: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, handle, title, vendor, product_type,
		       price_cents, compare_at_cents, on_sale, available,
		       tags, image_url, variant_count, created_ts, updated_ts
		FROM snapshot_products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("read snapshot products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p    model.Product
			tags []byte
		)
		if err := rows.Scan(
			&p.ID, &p.Handle, &p.Title, &p.Vendor, &p.ProductType,
			&p.PriceCents, &p.CompareAtCents, &p.OnSale, &p.Available,
			&tags, &p.ImageURL, &p.VariantCount, &p.CreatedTS, &p.UpdatedTS,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if len(tags) > 0 {
			if err := json.Unmarshal(tags, &p.Tags); err != nil {
				return nil, fmt.Errorf("decode tags for product %d: %w", p.ID, err)
			}
		}
		snap.Products = append(snap.Products, p)
	}
	return snap, rows.Err()
}

func (s *PostgresStore) SaveRun(ctx context.Context, snap model.Snapshot, changes []model.Change) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM snapshot_meta`); err != nil {
		return fmt.Errorf("clear snapshot meta: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM snapshot_products`); err != nil {
		return fmt.Errorf("clear snapshot products: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO snapshot_meta (run_id, fetched_at) VALUES ($1, $2)`,
		snap.RunID, snap.FetchedAt,
	); err != nil {
		return fmt.Errorf("insert snapshot meta: %w", err)
	}

	for _, p := range snap.Products {
		tags, err := json.Marshal(p.Tags)
		if err != nil {
			return fmt.Errorf("encode tags for product %d: %w", p.ID, err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO snapshot_products
				(id, handle, title, vendor, product_type,
				 price_cents, compare_at_cents, on_sale, available,
				 tags, image_url, variant_count, created_ts, updated_ts)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			p.ID, p.Handle, p.Title, p.Vendor, p.ProductType,
			p.PriceCents, p.CompareAtCents, p.OnSale, p.Available,
			tags, p.ImageURL, p.VariantCount, p.CreatedTS, p.UpdatedTS,
		); err != nil {
			return fmt.Errorf("insert product %d: %w", p.ID, err)
		}
	}

	if len(changes) > 0 {
		if _, err := tx.Exec(ctx,
			`INSERT INTO runs (run_id, ts, change_count) VALUES ($1, $2, $3)`,
			snap.RunID, snap.FetchedAt, len(changes),
		); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		for i, c := range changes {
			details, err := json.Marshal(c.Details)
			if err != nil {
				return fmt.Errorf("encode change details: %w", err)
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO changes
					(run_id, seq, product_id, handle, title, vendor, change_type, details)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				snap.RunID, i, c.ProductID, c.Handle, c.Title, c.Vendor,
				string(c.Type), details,
			); err != nil {
				return fmt.Errorf("insert change: %w", err)
			}
		}
	}

	// Cascade removes the pruned runs' changes.
	if _, err := tx.Exec(ctx, `
		DELETE FROM runs WHERE run_id IN (
			SELECT run_id FROM runs ORDER BY ts DESC OFFSET $1
		)`, s.historyLimit,
	); err != nil {
		return fmt.Errorf("prune runs: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) History(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	query := `SELECT run_id, ts FROM runs ORDER BY ts DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read runs: %w", err)
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		if err := rows.Scan(&e.RunID, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range entries {
		changes, err := s.runChanges(ctx, entries[i].RunID)
		if err != nil {
			return nil, err
		}
		entries[i].Changes = changes
	}
	return entries, nil
}

func (s *PostgresStore) runChanges(ctx context.Context, runID uuid.UUID) ([]model.Change, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT product_id, handle, title, vendor, change_type, details
		FROM changes WHERE run_id = $1 ORDER BY seq`,
		runID)
	if err != nil {
		return nil, fmt.Errorf("read changes: %w", err)
	}
	defer rows.Close()

	var changes []model.Change
	for rows.Next() {
		var (
			c       model.Change
			typ     string
			details []byte
		)
		if err := rows.Scan(&c.ProductID, &c.Handle, &c.Title, &c.Vendor, &typ, &details); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		c.Type = model.ChangeType(typ)
		if err := json.Unmarshal(details, &c.Details); err != nil {
			return nil, fmt.Errorf("decode change details: %w", err)
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

// Ping checks the connection pool.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
