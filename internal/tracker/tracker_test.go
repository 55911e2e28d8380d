package tracker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/krissolling/delli-data/internal/model"
)

// memStore is an in-memory store.Store for pipeline tests.
type memStore struct {
	snapshot *model.Snapshot
	history  []model.HistoryEntry
	saveErr  error
	saves    atomic.Int32
}

func (m *memStore) LoadLatest(ctx context.Context) (*model.Snapshot, error) {
	return m.snapshot, nil
}

func (m *memStore) SaveRun(ctx context.Context, snap model.Snapshot, changes []model.Change) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves.Add(1)
	m.snapshot = &snap
	if len(changes) > 0 {
		m.history = append(m.history, model.HistoryEntry{
			RunID:     snap.RunID,
			Timestamp: snap.FetchedAt,
			Changes:   changes,
		})
	}
	return nil
}

func (m *memStore) History(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	return m.history, nil
}

func (m *memStore) Ping(ctx context.Context) error { return nil }

func (m *memStore) Close() error { return nil }

func fixedSource(products ...model.Product) ProductSource {
	return ProductSourceFunc(func(ctx context.Context) ([]model.Product, error) {
		return products, nil
	})
}

func TestRunOnceFirstRun(t *testing.T) {
	st := &memStore{}
	source := fixedSource(
		model.Product{ID: 1, Handle: "a", Title: "A", PriceCents: 100, Available: true},
		model.Product{ID: 2, Handle: "b", Title: "B", PriceCents: 200, Available: true},
	)

	tr := New(DefaultConfig(), source, st, nil)

	result, err := tr.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	if result.ProductCount != 2 {
		t.Errorf("ProductCount = %d, want 2", result.ProductCount)
	}
	if result.PreviousCount != 0 {
		t.Errorf("PreviousCount = %d, want 0", result.PreviousCount)
	}
	if len(result.Changes) != 2 {
		t.Fatalf("len(Changes) = %d, want 2 (all new)", len(result.Changes))
	}
	for _, c := range result.Changes {
		if c.Type != model.ChangeNew {
			t.Errorf("change type = %q, want new", c.Type)
		}
	}
	if st.snapshot == nil || len(st.snapshot.Products) != 2 {
		t.Error("snapshot not persisted")
	}
}

func TestRunOnceDetectsChanges(t *testing.T) {
	st := &memStore{}
	ctx := context.Background()

	first := fixedSource(
		model.Product{ID: 1, Handle: "a", Title: "A", PriceCents: 100, Available: true},
		model.Product{ID: 2, Handle: "b", Title: "B", PriceCents: 200, Available: true},
	)
	tr := New(DefaultConfig(), first, st, nil)
	if _, err := tr.RunOnce(ctx); err != nil {
		t.Fatalf("first RunOnce failed: %v", err)
	}

	second := fixedSource(
		model.Product{ID: 1, Handle: "a", Title: "A", PriceCents: 150, Available: true},
		model.Product{ID: 3, Handle: "c", Title: "C", PriceCents: 300, Available: true},
	)
	tr = New(DefaultConfig(), second, st, nil)
	result, err := tr.RunOnce(ctx)
	if err != nil {
		t.Fatalf("second RunOnce failed: %v", err)
	}

	// Product 3 new, product 2 removed, product 1 price change.
	if len(result.Changes) != 3 {
		t.Fatalf("len(Changes) = %d, want 3: %+v", len(result.Changes), result.Changes)
	}
	if result.PreviousCount != 2 {
		t.Errorf("PreviousCount = %d, want 2", result.PreviousCount)
	}
	if len(st.history) != 2 {
		t.Errorf("len(history) = %d, want 2", len(st.history))
	}
}

func TestRunOnceNoChanges(t *testing.T) {
	st := &memStore{}
	ctx := context.Background()
	source := fixedSource(model.Product{ID: 1, Handle: "a", Title: "A", PriceCents: 100})

	tr := New(DefaultConfig(), source, st, nil)
	if _, err := tr.RunOnce(ctx); err != nil {
		t.Fatalf("first RunOnce failed: %v", err)
	}

	result, err := tr.RunOnce(ctx)
	if err != nil {
		t.Fatalf("second RunOnce failed: %v", err)
	}
	if len(result.Changes) != 0 {
		t.Errorf("len(Changes) = %d, want 0", len(result.Changes))
	}
	if len(st.history) != 1 {
		t.Errorf("len(history) = %d, want 1 (changeless run not recorded)", len(st.history))
	}
	if st.saves.Load() != 2 {
		t.Errorf("saves = %d, want 2 (snapshot still replaced)", st.saves.Load())
	}
}

func TestRunOnceEmptyFetchAborts(t *testing.T) {
	st := &memStore{
		snapshot: &model.Snapshot{
			Products: []model.Product{{ID: 1, Handle: "a", Title: "A"}},
		},
	}

	tr := New(DefaultConfig(), fixedSource(), st, nil)

	_, err := tr.RunOnce(context.Background())
	if !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("error = %v, want ErrEmptyCatalog", err)
	}
	if st.saves.Load() != 0 {
		t.Error("empty fetch must not touch the store")
	}
	if len(st.snapshot.Products) != 1 {
		t.Error("previous snapshot must survive an empty fetch")
	}
}

func TestRunOnceFetchError(t *testing.T) {
	st := &memStore{}
	source := ProductSourceFunc(func(ctx context.Context) ([]model.Product, error) {
		return nil, errors.New("connection refused")
	})

	tr := New(DefaultConfig(), source, st, nil)

	if _, err := tr.RunOnce(context.Background()); err == nil {
		t.Fatal("expected fetch error")
	}
	if st.saves.Load() != 0 {
		t.Error("failed fetch must not touch the store")
	}
}

func TestRunOnceSaveError(t *testing.T) {
	st := &memStore{saveErr: errors.New("disk full")}
	source := fixedSource(model.Product{ID: 1, Handle: "a", Title: "A"})

	tr := New(DefaultConfig(), source, st, nil)

	if _, err := tr.RunOnce(context.Background()); err == nil {
		t.Fatal("expected persist error")
	}
}

func TestDaemonStartStop(t *testing.T) {
	st := &memStore{}
	var fetches atomic.Int32
	source := ProductSourceFunc(func(ctx context.Context) ([]model.Product, error) {
		fetches.Add(1)
		return []model.Product{{ID: 1, Handle: "a", Title: "A"}}, nil
	})

	tr := New(Config{Interval: time.Hour}, source, st, nil)

	ctx := context.Background()
	if err := tr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Immediate first run.
	deadline := time.Now().Add(5 * time.Second)
	for fetches.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if fetches.Load() == 0 {
		t.Fatal("daemon never ran")
	}

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := tr.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	last, lastErr := tr.LastRun()
	if last == nil {
		t.Fatal("LastRun = nil after a successful run")
	}
	if lastErr != nil {
		t.Errorf("LastRun err = %v, want nil", lastErr)
	}
	if last.ProductCount != 1 {
		t.Errorf("last.ProductCount = %d, want 1", last.ProductCount)
	}
}

func TestDaemonSurvivesRunError(t *testing.T) {
	st := &memStore{}
	source := ProductSourceFunc(func(ctx context.Context) ([]model.Product, error) {
		return nil, errors.New("boom")
	})

	tr := New(Config{Interval: time.Hour}, source, st, nil)

	ctx := context.Background()
	if err := tr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, lastErr := tr.LastRun(); lastErr != nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("daemon never recorded run error")
		}
		time.Sleep(10 * time.Millisecond)
	}

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := tr.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}
