package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/krissolling/delli-data/internal/model"
)

// File names inside the data directory.
const (
	productsFile = "products.json"
	changesFile  = "latest_changes.json"
	historyFile  = "history.json"
)

// JSONStore keeps the snapshot and history as flat JSON files, the
// layout a scheduled job can commit directly to version control.
type JSONStore struct {
	dir          string
	historyLimit int
	logger       *slog.Logger
}

// snapshotDoc is the on-disk shape of products.json.
type snapshotDoc struct {
	RunID        uuid.UUID       `json:"run_id"`
	FetchedAt    int64           `json:"fetched_at"`
	ProductCount int             `json:"product_count"`
	Products     []model.Product `json:"products"`
}

// changesDoc is the on-disk shape of latest_changes.json.
type changesDoc struct {
	RunID       uuid.UUID      `json:"run_id"`
	DetectedAt  int64          `json:"detected_at"`
	ChangeCount int            `json:"change_count"`
	Changes     []model.Change `json:"changes"`
}

// NewJSONStore creates a JSON file store rooted at dir.
func NewJSONStore(dir string, historyLimit int, logger *slog.Logger) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONStore{
		dir:          dir,
		historyLimit: historyLimit,
		logger:       logger,
	}, nil
}

// LoadLatest reads the last snapshot from products.json.
// A missing or unreadable file counts as no prior snapshot.
func (s *JSONStore) LoadLatest(ctx context.Context) (*model.Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, productsFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", productsFile, err)
	}

	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("snapshot file corrupt, treating as first run",
			"file", productsFile,
			"err", err,
		)
		return nil, nil
	}

	return &model.Snapshot{
		RunID:     doc.RunID,
		FetchedAt: doc.FetchedAt,
		Products:  doc.Products,
	}, nil
}

// SaveRun writes the snapshot, latest changes, and updated history.
// All three files are staged as .tmp first and renamed into place only
// after every write has succeeded, so a failed run leaves the previous
// files untouched.
func (s *JSONStore) SaveRun(ctx context.Context, snap model.Snapshot, changes []model.Change) error {
	history, err := s.readHistory()
	if err != nil {
		return err
	}

	if len(changes) > 0 {
		history = append(history, model.HistoryEntry{
			RunID:     snap.RunID,
			Timestamp: snap.FetchedAt,
			Changes:   changes,
		})
	}
	if s.historyLimit > 0 && len(history) > s.historyLimit {
		history = history[len(history)-s.historyLimit:]
	}

	files := []struct {
		name string
		doc  any
	}{
		{productsFile, snapshotDoc{
			RunID:        snap.RunID,
			FetchedAt:    snap.FetchedAt,
			ProductCount: len(snap.Products),
			Products:     snap.Products,
		}},
		{changesFile, changesDoc{
			RunID:       snap.RunID,
			DetectedAt:  snap.FetchedAt,
			ChangeCount: len(changes),
			Changes:     changes,
		}},
		{historyFile, history},
	}

	var g errgroup.Group
	for _, f := range files {
		g.Go(func() error {
			return s.stageFile(f.name, f.doc)
		})
	}
	if err := g.Wait(); err != nil {
		for _, f := range files {
			os.Remove(filepath.Join(s.dir, f.name+".tmp"))
		}
		return err
	}

	// Same-directory renames; once the first rename lands the rest
	// cannot realistically fail.
	for _, f := range files {
		path := filepath.Join(s.dir, f.name)
		if err := os.Rename(path+".tmp", path); err != nil {
			return fmt.Errorf("rename %s: %w", f.name, err)
		}
	}
	return nil
}

// History returns past entries, newest first.
func (s *JSONStore) History(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	history, err := s.readHistory()
	if err != nil {
		return nil, err
	}

	// Stored oldest first; reverse for newest-first.
	out := make([]model.HistoryEntry, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		out = append(out, history[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Ping checks that the data directory still exists and is a directory.
func (s *JSONStore) Ping(ctx context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("stat data dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data dir %s is not a directory", s.dir)
	}
	return nil
}

func (s *JSONStore) Close() error { return nil }

// readHistory loads history.json, oldest entry first.
// A missing or corrupt file yields empty history.
func (s *JSONStore) readHistory() ([]model.HistoryEntry, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, historyFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", historyFile, err)
	}

	var history []model.HistoryEntry
	if err := json.Unmarshal(data, &history); err != nil {
		s.logger.Warn("history file corrupt, starting fresh",
			"file", historyFile,
			"err", err,
		)
		return nil, nil
	}
	return history, nil
}

// stageFile marshals v and writes it to <name>.tmp, leaving the live
// file untouched until SaveRun commits the renames.
func (s *JSONStore) stageFile(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	tmp := filepath.Join(s.dir, name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	return nil
}
