package api

import (
	"context"

	"github.com/lysyi3m/offer-comb/app/offer"
	"github.com/lysyi3m/offer-comb/app/search"
	"github.com/lysyi3m/offer-comb/app/tasks"
	"github.com/shopspring/decimal"
)

type SearchService interface {
	Search(ctx context.Context, req search.Request) *offer.SearchResult
	GenerateSearchLinks(ctx context.Context, query string, maxPrice *decimal.Decimal) []offer.Link
}

var _ SearchService = (*search.Service)(nil)

type CacheSizer interface {
	Size(ctx context.Context) (int, error)
}

type Handler struct {
	search    SearchService
	stats     tasks.IndexStatter
	scheduler tasks.TaskSchedulerInterface
	cache     CacheSizer
	version   string
}
