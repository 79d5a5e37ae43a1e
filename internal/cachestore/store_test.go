package cachestore

import (
	"context"
	"testing"
	"time"

	"github.com/attendkit/presence/internal/attendance/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	store, err := New(db, zap.NewNop())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestLocationMetaRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if _, ok := store.LocationMeta(ctx, "loc-1"); ok {
		t.Fatalf("expected miss before put")
	}

	store.PutLocationMeta(ctx, domain.LocationMeta{
		ID: "loc-1", Name: "North Gate", Building: "B1", Latitude: 37.77, Longitude: -122.41,
	})

	meta, ok := store.LocationMeta(ctx, "loc-1")
	if !ok {
		t.Fatalf("expected hit after put")
	}
	if meta.Name != "North Gate" || meta.Building != "B1" {
		t.Fatalf("unexpected meta: %+v", meta)
	}
}

func TestLocationMetaExpiryIsMiss(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	store.PutLocationMeta(ctx, domain.LocationMeta{ID: "loc-2", Name: "South Gate"})

	// Backdate the row past its TTL; the hot layer is flushed so the
	// persisted expiry governs the read.
	expired := time.Now().UTC().Add(-time.Minute)
	if err := store.db.Model(&Entry{}).Where("key = ?", "location:loc-2").Update("expires_at", expired).Error; err != nil {
		t.Fatalf("backdate entry: %v", err)
	}
	store.hot.Flush()

	if _, ok := store.LocationMeta(ctx, "loc-2"); ok {
		t.Fatalf("expected expired entry to miss")
	}
}

func TestHistoryHasNoTTL(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	store.PutHistory(ctx, []domain.HistoryRecord{{ID: "r1", Status: domain.StatusAccepted}})

	var row Entry
	if err := store.db.First(&row, "key = ?", "history").Error; err != nil {
		t.Fatalf("load history row: %v", err)
	}
	if row.ExpiresAt != nil {
		t.Fatalf("history must not carry an expiry, got %v", row.ExpiresAt)
	}

	records, fetchedAt, ok := store.History(ctx)
	if !ok || len(records) != 1 {
		t.Fatalf("expected 1 cached record, got %v ok=%v", records, ok)
	}
	if !fetchedAt.IsZero() && fetchedAt.After(time.Now().UTC()) {
		t.Fatalf("unexpected fetchedAt %v", fetchedAt)
	}
}

func TestPutHistoryReplaces(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	store.PutHistory(ctx, []domain.HistoryRecord{{ID: "r1"}})
	store.PutHistory(ctx, []domain.HistoryRecord{{ID: "r1"}, {ID: "r2"}})

	records, _, ok := store.History(ctx)
	if !ok || len(records) != 2 {
		t.Fatalf("expected replaced list of 2, got %d", len(records))
	}
}

func TestPruneExpiredKeepsHistory(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	store.PutHistory(ctx, []domain.HistoryRecord{{ID: "r1"}})
	store.PutLocationMeta(ctx, domain.LocationMeta{ID: "loc-3"})

	expired := time.Now().UTC().Add(-time.Minute)
	if err := store.db.Model(&Entry{}).Where("key = ?", "location:loc-3").Update("expires_at", expired).Error; err != nil {
		t.Fatalf("backdate entry: %v", err)
	}

	pruned, err := store.PruneExpired(ctx)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if pruned != 1 {
		t.Fatalf("expected 1 pruned row, got %d", pruned)
	}

	if _, _, ok := store.History(ctx); !ok {
		t.Fatalf("prune must never remove history")
	}
}

func TestInvalidateAll(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	store.PutHistory(ctx, []domain.HistoryRecord{{ID: "r1"}})
	store.PutLocationMeta(ctx, domain.LocationMeta{ID: "loc-4"})

	if err := store.InvalidateAll(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, _, ok := store.History(ctx); ok {
		t.Fatalf("expected history gone after invalidate")
	}
	if _, ok := store.LocationMeta(ctx, "loc-4"); ok {
		t.Fatalf("expected meta gone after invalidate")
	}
}

func TestStatsCounters(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	store.History(ctx) // miss
	store.PutHistory(ctx, []domain.HistoryRecord{{ID: "r1"}, {ID: "r2"}})
	store.History(ctx) // hit

	stats := store.Stats(ctx)
	if stats.Entries != 1 {
		t.Fatalf("expected 1 entry, got %d", stats.Entries)
	}
	if stats.HistoryRecords != 2 {
		t.Fatalf("expected 2 history records, got %d", stats.HistoryRecords)
	}
	// Stats itself reads history, so exact counter values would couple
	// the test to that detail.
	if stats.Misses == 0 || stats.Hits == 0 {
		t.Fatalf("expected both hit and miss counters to move, got %+v", stats)
	}
}
