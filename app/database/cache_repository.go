package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var _ CacheRepository = (*CacheRepo)(nil)

type CacheRepo struct {
	db *DB
}

func NewCacheRepository(db *DB) *CacheRepo {
	return &CacheRepo{db: db}
}

// GetEntry returns nil when key is unknown. Expiry is left to the caller.
func (r *CacheRepo) GetEntry(ctx context.Context, key string) (*CacheEntry, error) {
	var entry CacheEntry
	var createdAt, expiresAt int64
	err := r.db.QueryRowContext(ctx, `
		SELECT key, value, category, created_at, expires_at
		FROM cache_entries
		WHERE key = ?
	`, key).Scan(&entry.Key, &entry.Value, &entry.Category, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	entry.CreatedAt = time.UnixMilli(createdAt).UTC()
	entry.ExpiresAt = time.UnixMilli(expiresAt).UTC()
	return &entry, nil
}

func (r *CacheRepo) SetEntry(ctx context.Context, entry CacheEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, value, category, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			category = excluded.category,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
	`, entry.Key, entry.Value, entry.Category, entry.CreatedAt.UnixMilli(), entry.ExpiresAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	return nil
}

func (r *CacheRepo) DeleteEntry(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

func (r *CacheRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE expires_at <= ?", now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired cache entries: %w", err)
	}
	return result.RowsAffected()
}

func (r *CacheRepo) GetEntryCount(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cache_entries").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get cache entry count: %w", err)
	}
	return count, nil
}
