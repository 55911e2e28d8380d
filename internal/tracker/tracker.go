package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/krissolling/delli-data/internal/diff"
	"github.com/krissolling/delli-data/internal/model"
	"github.com/krissolling/delli-data/internal/store"
)

// ErrEmptyCatalog signals that the storefront returned zero products.
// The run aborts rather than record a mass removal.
var ErrEmptyCatalog = errors.New("fetched empty catalog")

// ProductSource provides the current catalog.
type ProductSource interface {
	FetchAll(ctx context.Context) ([]model.Product, error)
}

// ProductSourceFunc is a function adapter for ProductSource.
type ProductSourceFunc func(ctx context.Context) ([]model.Product, error)

func (f ProductSourceFunc) FetchAll(ctx context.Context) ([]model.Product, error) {
	return f(ctx)
}

// Config holds tracker configuration.
type Config struct {
	Interval time.Duration // Daemon run interval (default: 24h)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval: 24 * time.Hour,
	}
}

// RunResult summarizes one completed run.
type RunResult struct {
	RunID         uuid.UUID
	FetchedAt     int64 // µs since epoch
	ProductCount  int
	PreviousCount int
	Changes       []model.Change
	Duration      time.Duration
}

// Tracker runs the snapshot-diff pipeline.
type Tracker struct {
	cfg    Config
	source ProductSource
	store  store.Store
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	lastRun *RunResult
	lastErr error
}

// New creates a new Tracker.
func New(cfg Config, source ProductSource, st store.Store, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		cfg:    cfg,
		source: source,
		store:  st,
		logger: logger,
	}
}

// RunOnce executes a single fetch-diff-persist cycle.
func (t *Tracker) RunOnce(ctx context.Context) (*RunResult, error) {
	start := time.Now()

	prev, err := t.store.LoadLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("load previous snapshot: %w", err)
	}

	var prevProducts map[int64]model.Product
	prevCount := 0
	if prev != nil {
		prevProducts = prev.ByID()
		prevCount = len(prev.Products)
	}
	t.logger.Info("previous snapshot loaded", "products", prevCount)

	products, err := t.source.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	if len(products) == 0 {
		return nil, ErrEmptyCatalog
	}
	t.logger.Info("catalog fetched", "products", len(products))

	snap := model.Snapshot{
		RunID:     uuid.New(),
		FetchedAt: time.Now().UnixMicro(),
		Products:  products,
	}

	changes := diff.Compare(prevProducts, snap.ByID())

	if err := t.store.SaveRun(ctx, snap, changes); err != nil {
		return nil, fmt.Errorf("persist run: %w", err)
	}

	result := &RunResult{
		RunID:         snap.RunID,
		FetchedAt:     snap.FetchedAt,
		ProductCount:  len(products),
		PreviousCount: prevCount,
		Changes:       changes,
		Duration:      time.Since(start),
	}

	t.logger.Info("run complete",
		"run_id", snap.RunID,
		"products", result.ProductCount,
		"changes", len(changes),
		"duration", result.Duration,
	)

	t.mu.Lock()
	t.lastRun = result
	t.lastErr = nil
	t.mu.Unlock()

	return result, nil
}

// Start begins the daemon loop: an immediate run, then one per interval.
func (t *Tracker) Start(ctx context.Context) error {
	t.ctx, t.cancel = context.WithCancel(ctx)

	t.wg.Add(1)
	go t.run()

	t.logger.Info("tracker daemon started", "interval", t.cfg.Interval)
	return nil
}

// Stop gracefully shuts down the daemon loop.
func (t *Tracker) Stop(ctx context.Context) error {
	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("tracker daemon stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LastRun returns the most recent run result and error, for health checks.
func (t *Tracker) LastRun() (*RunResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastRun, t.lastErr
}

// run is the daemon loop.
func (t *Tracker) run() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.cfg.Interval)
	defer ticker.Stop()

	// Run immediately on start.
	t.runCycle()

	for {
		select {
		case <-t.ctx.Done():
			return
		case <-ticker.C:
			t.runCycle()
		}
	}
}

// runCycle runs once and records but does not propagate errors; the
// daemon keeps going and retries next interval.
func (t *Tracker) runCycle() {
	if _, err := t.RunOnce(t.ctx); err != nil {
		t.logger.Error("run failed", "err", err)
		t.mu.Lock()
		t.lastErr = err
		t.mu.Unlock()
	}
}
