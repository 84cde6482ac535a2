package database

import (
	"time"
)

// ProductRow is one entry of the feed index. Price keeps the feed's decimal
// text so no precision is lost on the way through SQLite.
type ProductRow struct {
	Title    string
	Price    string
	Link     string
	Image    string
	Merchant string
}

type IndexStats struct {
	ActiveTable string
	RowCount    int
	ImportedAt  *time.Time
}

type CacheEntry struct {
	Key       string
	Value     []byte
	Category  string
	CreatedAt time.Time
	ExpiresAt time.Time
}
