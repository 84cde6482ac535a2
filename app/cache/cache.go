package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const (
	CategoryOffers  = "offers"
	CategoryLinks   = "links"
	CategoryDefault = "default"
)

var DefaultTTLs = map[string]time.Duration{
	CategoryOffers:  time.Hour,
	CategoryLinks:   24 * time.Hour,
	CategoryDefault: time.Hour,
}

type Options struct {
	TTLs map[string]time.Duration
	// Normalize folds key parts (NFKC, case, whitespace) before hashing so
	// that "Laptop  " and "laptop" share an entry.
	Normalize bool
	Now       func() time.Time
}

// Cache is a key/value cache with a TTL per category. Read and write
// failures never surface to callers; they count as misses.
type Cache struct {
	store     Store
	ttls      map[string]time.Duration
	normalize bool
	now       func() time.Time
}

func New(store Store, opts Options) *Cache {
	ttls := make(map[string]time.Duration, len(DefaultTTLs))
	for k, v := range DefaultTTLs {
		ttls[k] = v
	}
	for k, v := range opts.TTLs {
		if v > 0 {
			ttls[k] = v
		}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Cache{
		store:     store,
		ttls:      ttls,
		normalize: opts.Normalize,
		now:       opts.Now,
	}
}

func (c *Cache) TTL(category string) time.Duration {
	if ttl, ok := c.ttls[category]; ok {
		return ttl
	}
	return c.ttls[CategoryDefault]
}

// Key builds a stable "category:sha256" key from parts.
func (c *Cache) Key(category string, parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if c.normalize {
			p = c.normalizeText(p)
		}
		if i > 0 {
			h.Write([]byte{0x1f})
		}
		h.Write([]byte(p))
	}
	return category + ":" + hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) normalizeText(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	entry, err := c.store.Get(ctx, key)
	if errors.Is(err, ErrCorrupt) {
		slog.Warn("Corrupt cache entry removed", "key", key)
		c.Delete(ctx, key)
		return nil, false
	}
	if err != nil {
		slog.Warn("Cache read failed", "key", key, "error", err)
		return nil, false
	}
	if entry == nil {
		return nil, false
	}

	if !c.now().Before(entry.ExpiresAt) {
		c.Delete(ctx, key)
		return nil, false
	}
	return entry.Value, true
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, category string) error {
	now := c.now()
	err := c.store.Set(ctx, key, Entry{
		Value:     value,
		Category:  category,
		CreatedAt: now,
		ExpiresAt: now.Add(c.TTL(category)),
	})
	if err != nil {
		slog.Warn("Cache write failed", "key", key, "error", err)
	}
	return err
}

// GetJSON decodes a cached value into v. An undecodable value is removed and
// reported as a miss.
func (c *Cache) GetJSON(ctx context.Context, key string, v any) bool {
	data, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		slog.Warn("Corrupt cache entry removed", "key", key, "error", err)
		c.Delete(ctx, key)
		return false
	}
	return true
}

func (c *Cache) SetJSON(ctx context.Context, key string, v any, category string) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, category)
}

func (c *Cache) Delete(ctx context.Context, key string) {
	if err := c.store.Delete(ctx, key); err != nil {
		slog.Warn("Cache delete failed", "key", key, "error", err)
	}
}

// Purge removes every expired entry from the store.
func (c *Cache) Purge(ctx context.Context) (int64, error) {
	return c.store.DeleteExpired(ctx, c.now())
}

// Size reports the number of stored entries, expired ones included.
func (c *Cache) Size(ctx context.Context) (int, error) {
	counter, ok := c.store.(Counter)
	if !ok {
		return 0, ErrCountUnsupported
	}
	return counter.Count(ctx)
}
