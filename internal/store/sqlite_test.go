package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/krissolling/delli-data/internal/model"
)

func openTestSQLite(t *testing.T, historyLimit int) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tracker.db")
	s, err := OpenSQLite(context.Background(), path, historyLimit, nil)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteLoadLatestEmpty(t *testing.T) {
	s := openTestSQLite(t, 90)

	snap, err := s.LoadLatest(context.Background())
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	if snap != nil {
		t.Errorf("LoadLatest on fresh db = %+v, want nil", snap)
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	s := openTestSQLite(t, 90)
	ctx := context.Background()

	snap := testSnapshot(
		model.Product{
			ID: 1, Handle: "hot-honey", Title: "Hot Honey", Vendor: "Bee Co",
			ProductType: "Condiments", PriceCents: 1500, CompareAtCents: 2000,
			OnSale: true, Available: true, Tags: []string{"honey", "spicy"},
			ImageURL: "https://cdn.example.com/1.jpg", VariantCount: 2,
			CreatedTS: 1700000000000000, UpdatedTS: 1700000001000000,
		},
		model.Product{ID: 2, Handle: "b", Title: "B", Vendor: "V"},
	)
	price := model.Int64Ptr(1500)
	changes := []model.Change{
		{
			ProductID: 1, Handle: "hot-honey", Title: "Hot Honey", Vendor: "Bee Co",
			Type:    model.ChangeSaleStarted,
			Details: model.ChangeDetails{PriceCents: price, CompareAtCents: model.Int64Ptr(2000)},
		},
	}

	if err := s.SaveRun(ctx, snap, changes); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	got, err := s.LoadLatest(ctx)
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	if got == nil {
		t.Fatal("LoadLatest = nil, want snapshot")
	}
	if diff := cmp.Diff(snap, *got); diff != "" {
		t.Errorf("snapshot round trip (-saved +loaded):\n%s", diff)
	}

	history, err := s.History(ctx, 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("len(history) = %d, want 1", len(history))
	}
	if diff := cmp.Diff(changes, history[0].Changes); diff != "" {
		t.Errorf("history changes (-want +got):\n%s", diff)
	}
}

func TestSQLiteSnapshotReplaced(t *testing.T) {
	s := openTestSQLite(t, 90)
	ctx := context.Background()

	first := testSnapshot(
		model.Product{ID: 1, Handle: "a", Title: "A", Vendor: "V"},
		model.Product{ID: 2, Handle: "b", Title: "B", Vendor: "V"},
	)
	if err := s.SaveRun(ctx, first, nil); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	second := model.Snapshot{
		RunID:     uuid.New(),
		FetchedAt: first.FetchedAt + 1,
		Products:  []model.Product{{ID: 3, Handle: "c", Title: "C", Vendor: "V"}},
	}
	if err := s.SaveRun(ctx, second, nil); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	got, err := s.LoadLatest(ctx)
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	if got.RunID != second.RunID {
		t.Errorf("RunID = %v, want %v", got.RunID, second.RunID)
	}
	if len(got.Products) != 1 || got.Products[0].ID != 3 {
		t.Errorf("Products = %+v, want only ID 3", got.Products)
	}
}

func TestSQLiteNoChangesSkipsHistory(t *testing.T) {
	s := openTestSQLite(t, 90)
	ctx := context.Background()

	if err := s.SaveRun(ctx, testSnapshot(), nil); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	history, err := s.History(ctx, 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("len(history) = %d, want 0 for changeless run", len(history))
	}
}

func TestSQLiteRetention(t *testing.T) {
	s := openTestSQLite(t, 3)
	ctx := context.Background()

	for i := range 5 {
		snap := model.Snapshot{
			RunID:     uuid.New(),
			FetchedAt: int64(1700000000000000 + i),
		}
		if err := s.SaveRun(ctx, snap, []model.Change{testChange(int64(i), model.ChangeNew)}); err != nil {
			t.Fatalf("SaveRun %d failed: %v", i, err)
		}
	}

	history, err := s.History(ctx, 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("len(history) = %d, want 3 (retention)", len(history))
	}
	for i, want := range []int64{1700000000000004, 1700000000000003, 1700000000000002} {
		if history[i].Timestamp != want {
			t.Errorf("history[%d].Timestamp = %d, want %d", i, history[i].Timestamp, want)
		}
	}

	// Pruned runs left no orphaned changes.
	var orphans int
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM changes
		WHERE run_id NOT IN (SELECT run_id FROM runs)`,
	).Scan(&orphans)
	if err != nil {
		t.Fatalf("count orphans: %v", err)
	}
	if orphans != 0 {
		t.Errorf("orphaned changes = %d, want 0", orphans)
	}
}

func TestSQLiteHistoryLimit(t *testing.T) {
	s := openTestSQLite(t, 90)
	ctx := context.Background()

	for i := range 4 {
		snap := model.Snapshot{RunID: uuid.New(), FetchedAt: int64(100 + i)}
		if err := s.SaveRun(ctx, snap, []model.Change{testChange(int64(i), model.ChangeNew)}); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
	}

	history, err := s.History(ctx, 2)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("len(history) = %d, want 2", len(history))
	}
	if history[0].Timestamp != 103 || history[1].Timestamp != 102 {
		t.Errorf("timestamps = %d, %d, want 103, 102", history[0].Timestamp, history[1].Timestamp)
	}
}

func TestSQLitePing(t *testing.T) {
	s := openTestSQLite(t, 90)

	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping = %v, want nil", err)
	}

	s.Close()
	if err := s.Ping(context.Background()); err == nil {
		t.Error("Ping on closed database must fail")
	}
}
