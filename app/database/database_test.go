package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func TestNewConnection(t *testing.T) {
	if _, err := NewConnection(""); err == nil {
		t.Error("Expected error for empty database path")
	}
}

func TestRunMigrations(t *testing.T) {
	db := newTestDB(t)

	version, dirty, err := RunMigrations(db)
	if err != nil {
		t.Fatalf("Second migration run should be a no-op, got %v", err)
	}
	if version != 2 || dirty {
		t.Errorf("Expected version 2 clean, got %d dirty=%v", version, dirty)
	}
}

func TestProductRepository_DoubleBuffer(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(newTestDB(t))

	stats, err := repo.GetStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.ActiveTable != productTableA || stats.ImportedAt != nil {
		t.Fatalf("Unexpected initial stats: %+v", stats)
	}

	staging, err := repo.PrepareStaging(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if staging != productTableB {
		t.Fatalf("Expected staging table %s, got %s", productTableB, staging)
	}

	rows := []ProductRow{
		{Title: "Dell Latitude 5420 Notebook", Price: "449.00", Link: "https://a.example.com/1", Merchant: "Shop A"},
		{Title: "Dell Latitude 7420 Notebook", Price: "699.00", Link: "https://a.example.com/2"},
	}
	if err := repo.InsertBatch(ctx, staging, rows); err != nil {
		t.Fatal(err)
	}

	// Not yet visible to readers.
	found, err := repo.Search(ctx, `"dell"*`, nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 0 {
		t.Fatalf("Staging rows leaked into search: %v", found)
	}

	if err := repo.Optimize(ctx, staging); err != nil {
		t.Fatal(err)
	}
	importedAt := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	if err := repo.Activate(ctx, staging, len(rows), importedAt); err != nil {
		t.Fatal(err)
	}

	found, err = repo.Search(ctx, `"dell"*`, nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(found))
	}

	maxPrice := 500.0
	found, err = repo.Search(ctx, `"dell"* AND "latitude"*`, &maxPrice, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || found[0].Price != "449.00" || found[0].Merchant != "Shop A" {
		t.Fatalf("Expected only the 449.00 row, got %+v", found)
	}

	stats, err = repo.GetStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.ActiveTable != productTableB || stats.RowCount != 2 || stats.ImportedAt == nil || !stats.ImportedAt.Equal(importedAt) {
		t.Errorf("Unexpected stats after activation: %+v", stats)
	}

	// Next staging round clears the old generation, not the serving one.
	staging, err = repo.PrepareStaging(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if staging != productTableA {
		t.Fatalf("Expected staging table %s, got %s", productTableA, staging)
	}
	found, err = repo.Search(ctx, `"dell"*`, nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 2 {
		t.Errorf("Active generation should keep serving during staging, got %d rows", len(found))
	}
}

func TestProductRepository_RejectsUnknownTable(t *testing.T) {
	repo := NewProductRepository(newTestDB(t))
	ctx := context.Background()

	if err := repo.InsertBatch(ctx, "feed_items; DROP TABLE x", []ProductRow{{Title: "x"}}); err == nil {
		t.Error("Expected error for unknown table")
	}
	if err := repo.Optimize(ctx, "cache_entries"); err == nil {
		t.Error("Expected error for unknown table")
	}
}

func TestCacheRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCacheRepository(newTestDB(t))
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	entry, err := repo.GetEntry(ctx, "missing")
	if err != nil || entry != nil {
		t.Fatalf("Expected nil entry for missing key, got %v %v", entry, err)
	}

	if err := repo.SetEntry(ctx, CacheEntry{Key: "offers:a", Value: []byte("one"), Category: "offers", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatal(err)
	}
	if err := repo.SetEntry(ctx, CacheEntry{Key: "offers:a", Value: []byte("two"), Category: "offers", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatal(err)
	}
	if err := repo.SetEntry(ctx, CacheEntry{Key: "links:b", Value: []byte("old"), Category: "links", CreatedAt: now, ExpiresAt: now.Add(-time.Minute)}); err != nil {
		t.Fatal(err)
	}

	entry, err = repo.GetEntry(ctx, "offers:a")
	if err != nil {
		t.Fatal(err)
	}
	if string(entry.Value) != "two" {
		t.Errorf("Expected last write to win, got %q", entry.Value)
	}
	if !entry.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("Unexpected expiry %v", entry.ExpiresAt)
	}

	deleted, err := repo.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 expired entry deleted, got %d", deleted)
	}

	if err := repo.DeleteEntry(ctx, "offers:a"); err != nil {
		t.Fatal(err)
	}
	count, err := repo.GetEntryCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("Expected empty cache, got %d entries", count)
	}
}
