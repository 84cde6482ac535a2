package feed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/lysyi3m/offer-comb/app/database"
)

const (
	DefaultDelimiter = ';'
	DefaultBatchSize = 10000
)

type ImporterOptions struct {
	Delimiter rune
	BatchSize int
	UserAgent string
	Client    *http.Client
}

// Importer loads a gzip-compressed delimited feed into the inactive index
// generation and activates it once the load has completed.
type Importer struct {
	repo      database.ProductRepository
	client    *http.Client
	userAgent string
	delimiter rune
	batchSize int
	now       func() time.Time

	mu sync.Mutex
}

func NewImporter(repo database.ProductRepository, opts ImporterOptions) *Importer {
	if opts.Delimiter == 0 {
		opts.Delimiter = DefaultDelimiter
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 10 * time.Minute}
	}

	return &Importer{
		repo:      repo,
		client:    opts.Client,
		userAgent: opts.UserAgent,
		delimiter: opts.Delimiter,
		batchSize: opts.BatchSize,
		now:       time.Now,
	}
}

// ImportURL downloads the feed at url and imports it. It returns the number
// of rows inserted, or 0 when the import failed.
func (i *Importer) ImportURL(ctx context.Context, url string) int {
	if url == "" {
		slog.Warn("Feed import skipped, no feed URL configured")
		return 0
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		slog.Error("Failed to create feed request", "error", err)
		return 0
	}
	if i.userAgent != "" {
		req.Header.Set("User-Agent", i.userAgent)
	}

	resp, err := i.client.Do(req)
	if err != nil {
		slog.Error("Failed to download feed", "error", err)
		return 0
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Error("Feed download returned unexpected status", "status", resp.StatusCode)
		return 0
	}

	return i.Import(ctx, resp.Body)
}

// Import reads a gzip-compressed feed from r. The serving generation is only
// replaced when every batch was written; on any failure it keeps serving and
// 0 is returned.
func (i *Importer) Import(ctx context.Context, r io.Reader) int {
	i.mu.Lock()
	defer i.mu.Unlock()

	start := i.now()
	inserted, skipped, err := i.load(ctx, r)
	if err != nil {
		slog.Error("Feed import failed, previous index generation kept", "error", err, "rows_written", inserted)
		return 0
	}

	slog.Info("Feed import completed", "inserted", inserted, "skipped", skipped, "duration", time.Since(start).String())
	return inserted
}

func (i *Importer) load(ctx context.Context, r io.Reader) (int, int, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer gz.Close()

	reader := csv.NewReader(gz)
	reader.Comma = i.delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		return 0, 0, fmt.Errorf("failed to read feed header: %w", err)
	}

	table, err := i.repo.PrepareStaging(ctx)
	if err != nil {
		return 0, 0, err
	}

	var inserted, skipped int
	batch := make([]database.ProductRow, 0, i.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := i.repo.InsertBatch(ctx, table, batch); err != nil {
			return err
		}
		inserted += len(batch)
		batch = batch[:0]
		return nil
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			skipped++
			continue
		}
		if err != nil {
			return inserted, skipped, fmt.Errorf("failed to read feed: %w", err)
		}

		row := Row(record)
		if err := row.Validate(); err != nil {
			skipped++
			continue
		}

		batch = append(batch, row.Product())
		if len(batch) >= i.batchSize {
			if err := flush(); err != nil {
				return inserted, skipped, err
			}
		}
	}

	if err := flush(); err != nil {
		return inserted, skipped, err
	}
	if inserted == 0 {
		return 0, skipped, fmt.Errorf("feed contained no valid rows")
	}

	if err := i.repo.Optimize(ctx, table); err != nil {
		return inserted, skipped, err
	}
	if err := i.repo.Activate(ctx, table, inserted, i.now()); err != nil {
		return inserted, skipped, err
	}

	return inserted, skipped, nil
}
