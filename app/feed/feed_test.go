package feed

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/lysyi3m/offer-comb/app/database"
	"github.com/lysyi3m/offer-comb/app/offer"
	"github.com/shopspring/decimal"
)

func newTestRepo(t *testing.T) *database.ProductRepo {
	t.Helper()
	db, err := database.NewConnection(filepath.Join(t.TempDir(), "feed.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return database.NewProductRepository(db)
}

// feedLine builds a 20 column record with the known positions filled.
func feedLine(link, title, image, price, merchant string) string {
	cols := make([]string, MinColumns)
	cols[colLink] = link
	cols[colTitle] = title
	cols[colImage] = image
	cols[colPrice] = price
	cols[colMerchant] = merchant
	return strings.Join(cols, ";")
}

func gzipFeed(t *testing.T, lines ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	header := strings.Repeat("col;", MinColumns-1) + "col"
	if _, err := gz.Write([]byte(header + "\n" + strings.Join(lines, "\n") + "\n")); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestImporter_SkipsInvalidRows(t *testing.T) {
	repo := newTestRepo(t)
	importer := NewImporter(repo, ImporterOptions{})

	data := gzipFeed(t,
		feedLine("https://shop.example.com/p/1", "Dell Laptop 15", "https://img.example.com/1.jpg", "449,00", "Shop A"),
		feedLine("https://shop.example.com/p/2", "Gratis Artikel", "", "0", "Shop A"),
		feedLine("https://shop.example.com/p/3", "", "", "19,90", "Shop B"),
		feedLine("https://shop.example.com/p/4", "Dell Laptop 17", "", "-449,00", "Shop B"),
	)

	if n := importer.Import(context.Background(), bytes.NewReader(data)); n != 1 {
		t.Fatalf("Expected 1 imported row, got %d", n)
	}

	stats, err := repo.GetStats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.RowCount != 1 || stats.ImportedAt == nil {
		t.Errorf("Unexpected stats after import: %+v", stats)
	}
}

func TestImporter_ShortRowsAndBatches(t *testing.T) {
	repo := newTestRepo(t)
	importer := NewImporter(repo, ImporterOptions{BatchSize: 2})

	data := gzipFeed(t,
		feedLine("https://a.example.com/1", "Samsung Galaxy S24", "", "799,00", "A"),
		"https://a.example.com/short;Too short;x",
		feedLine("https://a.example.com/2", "Samsung Galaxy A55", "", "349,00", "A"),
		feedLine("https://a.example.com/3", "Samsung Galaxy A15", "", "149,00", "A"),
	)

	if n := importer.Import(context.Background(), bytes.NewReader(data)); n != 3 {
		t.Fatalf("Expected 3 imported rows across batches, got %d", n)
	}
}

func TestImporter_FailureKeepsPreviousGeneration(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	importer := NewImporter(repo, ImporterOptions{})
	searcher := NewSearcher(repo)

	first := gzipFeed(t, feedLine("https://a.example.com/1", "Lenovo IdeaPad 3", "", "399,00", "A"))
	if n := importer.Import(ctx, bytes.NewReader(first)); n != 1 {
		t.Fatalf("Expected 1 imported row, got %d", n)
	}

	if n := importer.Import(ctx, strings.NewReader("not gzip at all")); n != 0 {
		t.Errorf("Expected 0 for corrupt feed, got %d", n)
	}
	empty := gzipFeed(t, feedLine("https://a.example.com/2", "", "", "1,00", "A"))
	if n := importer.Import(ctx, bytes.NewReader(empty)); n != 0 {
		t.Errorf("Expected 0 for feed without valid rows, got %d", n)
	}

	if got := searcher.Search(ctx, "ideapad", nil, 10); len(got) != 1 {
		t.Errorf("Previous generation should keep serving, got %d results", len(got))
	}
}

func TestImporter_ImportURL(t *testing.T) {
	data := gzipFeed(t, feedLine("https://a.example.com/1", "Apple iPhone 15", "", "699,00", "A"))
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		if r.URL.Path != "/feed.csv.gz" {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	defer server.Close()

	importer := NewImporter(newTestRepo(t), ImporterOptions{UserAgent: "offer-comb-test"})

	if n := importer.ImportURL(context.Background(), server.URL+"/feed.csv.gz"); n != 1 {
		t.Errorf("Expected 1 imported row, got %d", n)
	}
	if userAgent != "offer-comb-test" {
		t.Errorf("Expected user agent to be sent, got %q", userAgent)
	}
	if n := importer.ImportURL(context.Background(), server.URL+"/missing"); n != 0 {
		t.Errorf("Expected 0 for 404 feed, got %d", n)
	}
	if n := importer.ImportURL(context.Background(), ""); n != 0 {
		t.Errorf("Expected 0 without feed URL, got %d", n)
	}
}

func importFixture(t *testing.T, lines ...string) *Searcher {
	t.Helper()
	repo := newTestRepo(t)
	if n := NewImporter(repo, ImporterOptions{}).Import(context.Background(), bytes.NewReader(gzipFeed(t, lines...))); n != len(lines) {
		t.Fatalf("Expected %d imported rows, got %d", len(lines), n)
	}
	return NewSearcher(repo)
}

func titles(offers []offer.Offer) []string {
	out := make([]string, len(offers))
	for i, o := range offers {
		out[i] = o.Title
	}
	return out
}

func TestSearcher_NegativeTerms(t *testing.T) {
	searcher := importFixture(t,
		feedLine("https://a.example.com/1", "Dell Laptop 15", "", "449,00", "A"),
		feedLine("https://a.example.com/2", "Universal Laptop Tasche Schwarz", "", "19,90", "B"),
		feedLine("https://a.example.com/3", "Laptop Tasche Hülle Grau", "", "24,90", "B"),
	)
	ctx := context.Background()

	got := searcher.Search(ctx, "Laptop-tasche -hülle", nil, 10)
	if len(got) != 1 || got[0].Title != "Universal Laptop Tasche Schwarz" {
		t.Errorf("Expected only the bag without Hülle, got %v", titles(got))
	}

	got = searcher.Search(ctx, "laptop -tasche", nil, 10)
	if len(got) != 1 || got[0].Title != "Dell Laptop 15" {
		t.Errorf("Expected only the Dell laptop, got %v", titles(got))
	}
}

func TestSearcher_PriceAndLimit(t *testing.T) {
	searcher := importFixture(t,
		feedLine("https://a.example.com/1", "Samsung Galaxy S24", "", "799,00", ""),
		feedLine("https://a.example.com/2", "Samsung Galaxy A55", "", "349,00", "Shop"),
		feedLine("https://a.example.com/3", "Samsung Galaxy A15", "", "149,00", "Shop"),
	)
	ctx := context.Background()

	max := decimal.RequireFromString("400")
	got := searcher.Search(ctx, "samsung galaxy", &max, 10)
	if len(got) != 2 {
		t.Fatalf("Expected 2 results under 400, got %v", titles(got))
	}
	for _, o := range got {
		if o.Price.GreaterThan(max) {
			t.Errorf("Result %s above max price: %s", o.Title, o.Price)
		}
		if !o.Valid() || o.PriceFormatted == "" {
			t.Errorf("Result %s not normalized", o.Title)
		}
	}

	if got := searcher.Search(ctx, "galax", nil, 1); len(got) != 1 {
		t.Errorf("Expected prefix match capped at 1, got %d", len(got))
	}

	got = searcher.Search(ctx, "samsung s24", nil, 10)
	if len(got) != 1 || got[0].Source != offer.PartnerStoreLabel || got[0].SourceIcon != offer.IconPartnerStore {
		t.Errorf("Expected partner store defaults for blank merchant, got %+v", got)
	}
}

func TestSearcher_NoPositiveTerms(t *testing.T) {
	searcher := importFixture(t, feedLine("https://a.example.com/1", "Dell Laptop 15", "", "449,00", "A"))
	ctx := context.Background()

	for _, q := range []string{"", "   ", "-laptop", "a b", "!!! ??"} {
		if got := searcher.Search(ctx, q, nil, 10); len(got) != 0 {
			t.Errorf("Search(%q) should be empty, got %v", q, titles(got))
		}
	}
}

func TestSearcher_SearchMultiple(t *testing.T) {
	searcher := importFixture(t,
		feedLine("https://a.example.com/1", "Samsung Galaxy A55", "", "349,00", "A"),
		feedLine("https://a.example.com/2", "Samsung Galaxy A15", "", "149,00", "A"),
		feedLine("https://b.example.com/2", "samsung galaxy a15 ", "", "139,00", "B"),
		feedLine("https://a.example.com/3", "Apple iPhone 15", "", "699,00", "A"),
		feedLine("https://a.example.com/4", "Xiaomi Redmi Note 13", "", "199,00", "A"),
		feedLine("https://a.example.com/5", "Xiaomi Redmi 13C", "", "109,00", "A"),
	)
	ctx := context.Background()

	got := searcher.SearchMultiple(ctx, []string{"Samsung Galaxy", "iPhone", "Xiaomi Redmi"}, nil, 5)
	if len(got) > 5 {
		t.Fatalf("Expected at most 5 results, got %d", len(got))
	}

	seen := make(map[string]bool)
	for i, o := range got {
		key := strings.ToLower(strings.TrimSpace(o.Title))
		if seen[key] {
			t.Errorf("Duplicate title %q", o.Title)
		}
		seen[key] = true
		if i > 0 && o.Price.LessThan(got[i-1].Price) {
			t.Errorf("Results not sorted by price: %v", titles(got))
		}
	}

	if got := searcher.SearchMultiple(ctx, nil, nil, 5); len(got) != 0 {
		t.Errorf("Expected no results without queries, got %d", len(got))
	}
}
