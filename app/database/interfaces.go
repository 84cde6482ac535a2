package database

import (
	"context"
	"time"
)

// ProductRepository stores the double-buffered full-text product index.
// Writers fill the inactive table and then activate it; readers only ever
// see the active one.
type ProductRepository interface {
	PrepareStaging(ctx context.Context) (string, error)
	InsertBatch(ctx context.Context, table string, rows []ProductRow) error
	Optimize(ctx context.Context, table string) error
	Activate(ctx context.Context, table string, rowCount int, importedAt time.Time) error

	Search(ctx context.Context, match string, maxPrice *float64, limit int) ([]ProductRow, error)
	GetStats(ctx context.Context) (IndexStats, error)
}

type CacheRepository interface {
	GetEntry(ctx context.Context, key string) (*CacheEntry, error)
	SetEntry(ctx context.Context, entry CacheEntry) error
	DeleteEntry(ctx context.Context, key string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	GetEntryCount(ctx context.Context) (int, error)
}
