package feed

import (
	"context"
	"log/slog"
	"strings"

	"github.com/lysyi3m/offer-comb/app/database"
	"github.com/lysyi3m/offer-comb/app/offer"
	"github.com/shopspring/decimal"
)

type Searcher struct {
	repo database.ProductRepository
}

func NewSearcher(repo database.ProductRepository) *Searcher {
	return &Searcher{repo: repo}
}

// Search queries the active index generation. Errors are logged and yield an
// empty result.
func (s *Searcher) Search(ctx context.Context, query string, maxPrice *decimal.Decimal, limit int) []offer.Offer {
	match := BuildMatchQuery(query)
	if match == "" || limit <= 0 {
		return nil
	}

	var max *float64
	if maxPrice != nil {
		f := maxPrice.InexactFloat64()
		max = &f
	}

	rows, err := s.repo.Search(ctx, match, max, limit)
	if err != nil {
		slog.Warn("Feed index search failed", "query", query, "error", err)
		return nil
	}

	offers := make([]offer.Offer, 0, len(rows))
	for _, row := range rows {
		price, err := decimal.NewFromString(row.Price)
		if err != nil || !offer.WithinBudget(price, maxPrice) {
			continue
		}

		o := offer.Offer{
			Title:  row.Title,
			Price:  price,
			Link:   row.Link,
			Image:  row.Image,
			Source: row.Merchant,
		}.Normalize()
		if o.Valid() {
			offers = append(offers, o)
		}
	}
	return offers
}

// SearchMultiple runs Search for every query with an equal share of limit,
// then merges by title (first wins) and orders by price.
func (s *Searcher) SearchMultiple(ctx context.Context, queries []string, maxPrice *decimal.Decimal, limit int) []offer.Offer {
	if len(queries) == 0 || limit <= 0 {
		return nil
	}

	perQuery := (limit + len(queries) - 1) / len(queries)
	seen := make(map[string]struct{})
	var merged []offer.Offer

	for _, q := range queries {
		for _, o := range s.Search(ctx, q, maxPrice, perQuery) {
			key := strings.ToLower(strings.TrimSpace(o.Title))
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, o)
		}
	}

	offer.SortByPrice(merged)
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

func (s *Searcher) Stats(ctx context.Context) (database.IndexStats, error) {
	return s.repo.GetStats(ctx)
}
