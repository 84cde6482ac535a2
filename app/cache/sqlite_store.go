package cache

import (
	"context"
	"time"

	"github.com/lysyi3m/offer-comb/app/database"
)

var (
	_ Store   = (*SQLiteStore)(nil)
	_ Counter = (*SQLiteStore)(nil)
)

type SQLiteStore struct {
	repo database.CacheRepository
}

func NewSQLiteStore(repo database.CacheRepository) *SQLiteStore {
	return &SQLiteStore{repo: repo}
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (*Entry, error) {
	row, err := s.repo.GetEntry(ctx, key)
	if err != nil || row == nil {
		return nil, err
	}
	if row.Value == nil {
		return nil, ErrCorrupt
	}
	return &Entry{
		Value:     row.Value,
		Category:  row.Category,
		CreatedAt: row.CreatedAt,
		ExpiresAt: row.ExpiresAt,
	}, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, entry Entry) error {
	return s.repo.SetEntry(ctx, database.CacheEntry{
		Key:       key,
		Value:     entry.Value,
		Category:  entry.Category,
		CreatedAt: entry.CreatedAt,
		ExpiresAt: entry.ExpiresAt,
	})
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	return s.repo.DeleteEntry(ctx, key)
}

func (s *SQLiteStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.repo.DeleteExpired(ctx, now)
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	return s.repo.GetEntryCount(ctx)
}
