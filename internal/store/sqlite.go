package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/krissolling/delli-data/internal/model"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS snapshot_meta (
	run_id     TEXT NOT NULL,
	fetched_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshot_products (
	id               INTEGER PRIMARY KEY,
	handle           TEXT NOT NULL,
	title            TEXT NOT NULL,
	vendor           TEXT NOT NULL,
	product_type     TEXT NOT NULL,
	price_cents      INTEGER NOT NULL,
	compare_at_cents INTEGER NOT NULL,
	on_sale          INTEGER NOT NULL,
	available        INTEGER NOT NULL,
	tags             TEXT NOT NULL,
	image_url        TEXT NOT NULL,
	variant_count    INTEGER NOT NULL,
	created_ts       INTEGER NOT NULL,
	updated_ts       INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	ts           INTEGER NOT NULL,
	change_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS changes (
	run_id      TEXT NOT NULL,
	seq         INTEGER NOT NULL,
	product_id  INTEGER NOT NULL,
	handle      TEXT NOT NULL,
	title       TEXT NOT NULL,
	vendor      TEXT NOT NULL,
	change_type TEXT NOT NULL,
	details     TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(ts);
`

// SQLiteStore persists snapshots and history in a single-file database.
type SQLiteStore struct {
	db           *sql.DB
	historyLimit int
	logger       *slog.Logger
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string, historyLimit int, logger *slog.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// A file database wants a single writer connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteStore{
		db:           db,
		historyLimit: historyLimit,
		logger:       logger,
	}, nil
}

func (s *SQLiteStore) LoadLatest(ctx context.Context) (*model.Snapshot, error) {
	var (
		runID     string
		fetchedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, fetched_at FROM snapshot_meta LIMIT 1`,
	).Scan(&runID, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot meta: %w", err)
	}

	id, err := uuid.Parse(runID)
	if err != nil {
		return nil, fmt.Errorf("parse run id: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, handle, title, vendor, product_type,
		       price_cents, compare_at_cents, on_sale, available,
		       tags, image_url, variant_count, created_ts, updated_ts
		FROM snapshot_products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("read snapshot products: %w", err)
	}
	defer rows.Close()

	snap := &model.Snapshot{RunID: id, FetchedAt: fetchedAt}
	for rows.Next() {
		var (
			p    model.Product
			tags string
		)
		if err := rows.Scan(
			&p.ID, &p.Handle, &p.Title, &p.Vendor, &p.ProductType,
			&p.PriceCents, &p.CompareAtCents, &p.OnSale, &p.Available,
			&tags, &p.ImageURL, &p.VariantCount, &p.CreatedTS, &p.UpdatedTS,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if tags != "" {
			if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
				return nil, fmt.Errorf("decode tags for product %d: %w", p.ID, err)
			}
		}
		snap.Products = append(snap.Products, p)
	}
	return snap, rows.Err()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, snap model.Snapshot, changes []model.Change) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Replace the snapshot wholesale.
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_meta`); err != nil {
		return fmt.Errorf("clear snapshot meta: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_products`); err != nil {
		return fmt.Errorf("clear snapshot products: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshot_meta (run_id, fetched_at) VALUES (?, ?)`,
		snap.RunID.String(), snap.FetchedAt,
	); err != nil {
		return fmt.Errorf("insert snapshot meta: %w", err)
	}

	for _, p := range snap.Products {
		tags, err := json.Marshal(p.Tags)
		if err != nil {
			return fmt.Errorf("encode tags for product %d: %w", p.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO snapshot_products
				(id, handle, title, vendor, product_type,
				 price_cents, compare_at_cents, on_sale, available,
				 tags, image_url, variant_count, created_ts, updated_ts)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Handle, p.Title, p.Vendor, p.ProductType,
			p.PriceCents, p.CompareAtCents, p.OnSale, p.Available,
			string(tags), p.ImageURL, p.VariantCount, p.CreatedTS, p.UpdatedTS,
		); err != nil {
			return fmt.Errorf("insert product %d: %w", p.ID, err)
		}
	}

	if len(changes) > 0 {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO runs (run_id, ts, change_count) VALUES (?, ?, ?)`,
			snap.RunID.String(), snap.FetchedAt, len(changes),
		); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		for i, c := range changes {
			details, err := json.Marshal(c.Details)
			if err != nil {
				return fmt.Errorf("encode change details: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO changes
					(run_id, seq, product_id, handle, title, vendor, change_type, details)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				snap.RunID.String(), i, c.ProductID, c.Handle, c.Title, c.Vendor,
				string(c.Type), string(details),
			); err != nil {
				return fmt.Errorf("insert change: %w", err)
			}
		}
	}

	// Prune runs beyond the retention limit, oldest first.
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM changes WHERE run_id IN (
			SELECT run_id FROM runs ORDER BY ts DESC LIMIT -1 OFFSET ?
		)`, s.historyLimit,
	); err != nil {
		return fmt.Errorf("prune changes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM runs WHERE run_id IN (
			SELECT run_id FROM runs ORDER BY ts DESC LIMIT -1 OFFSET ?
		)`, s.historyLimit,
	); err != nil {
		return fmt.Errorf("prune runs: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteStore) History(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	query := `SELECT run_id, ts FROM runs ORDER BY ts DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read runs: %w", err)
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		var (
			runID string
			ts    int64
		)
		if err := rows.Scan(&runID, &ts); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		id, err := uuid.Parse(runID)
		if err != nil {
			return nil, fmt.Errorf("parse run id: %w", err)
		}
		entries = append(entries, model.HistoryEntry{RunID: id, Timestamp: ts})
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

func (s *SQLiteStore) runChanges(ctx context.Context, runID uuid.UUID) ([]model.Change, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, handle, title, vendor, change_type, details
		FROM changes WHERE run_id = ? ORDER BY seq`,
		runID.String())
	if err != nil {
		return nil, fmt.Errorf("read changes: %w", err)
	}
	defer rows.Close()

	var changes []model.Change
	for rows.Next() {
		var (
			c       model.Change
			typ     string
			details string
		)
		if err := rows.Scan(&c.ProductID, &c.Handle, &c.Title, &c.Vendor, &typ, &details); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		c.Type = model.ChangeType(typ)
		if err := json.Unmarshal([]byte(details), &c.Details); err != nil {
			return nil, fmt.Errorf("decode change details: %w", err)
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
