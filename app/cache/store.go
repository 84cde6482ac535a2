package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCorrupt is returned by a Store when an entry exists but cannot be decoded.
var ErrCorrupt = errors.New("cache entry is corrupt")

// ErrCountUnsupported is returned by Cache.Size when the store cannot count.
var ErrCountUnsupported = errors.New("cache store cannot count entries")

type Entry struct {
	Value     []byte    `json:"value"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store persists entries. Get returns nil without error on a miss; expiry is
// enforced by Cache, not by the store.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, entry Entry) error
	Delete(ctx context.Context, key string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Counter is implemented by stores that can report how many entries they hold.
type Counter interface {
	Count(ctx context.Context) (int, error)
}
