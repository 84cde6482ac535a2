package search

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/lysyi3m/offer-comb/app/cache"
	"github.com/lysyi3m/offer-comb/app/offer"
	"github.com/lysyi3m/offer-comb/app/scrape"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultMaxResults    = 6
	DefaultOwnSiteSlots  = 3
	DefaultSourceTimeout = 15 * time.Second

	// indexOverFetch leaves room for the relevance filter to drop rows.
	indexOverFetch = 3
)

type IndexSearcher interface {
	Search(ctx context.Context, query string, maxPrice *decimal.Decimal, limit int) []offer.Offer
	SearchMultiple(ctx context.Context, queries []string, maxPrice *decimal.Decimal, limit int) []offer.Offer
}

type RemoteSearcher interface {
	Search(ctx context.Context, keywords string, maxPrice *decimal.Decimal, limit int) []offer.Offer
}

type RelevanceFilter interface {
	Keep(title, query, keyword string) (bool, string)
}

type Config struct {
	MaxResults    int
	OwnSiteSlots  int
	SourceTimeout time.Duration
	PartnerTag    string
	Links         []scrape.LinkConfig
}

// Deps holds the collaborators of a Service. Every source may be nil.
type Deps struct {
	Cache     *cache.Cache
	OwnSite   scrape.Source
	Remote    RemoteSearcher
	Index     IndexSearcher
	Fallbacks []scrape.Source
	Filter    RelevanceFilter
}

type Request struct {
	Query    string
	MaxPrice *decimal.Decimal
	Category string
	Variants []string
}

// Service aggregates offers from all sources into one capped, deduplicated
// result.
type Service struct {
	cfg  Config
	deps Deps
	now  func() time.Time
}

func NewService(cfg Config, deps Deps) *Service {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.OwnSiteSlots <= 0 {
		cfg.OwnSiteSlots = DefaultOwnSiteSlots
	}
	if cfg.OwnSiteSlots > cfg.MaxResults {
		cfg.OwnSiteSlots = cfg.MaxResults
	}
	if cfg.SourceTimeout <= 0 {
		cfg.SourceTimeout = DefaultSourceTimeout
	}

	return &Service{cfg: cfg, deps: deps, now: time.Now}
}

// sourceResults holds what every source returned, in slot priority order.
type sourceResults struct {
	own       []offer.Offer
	remote    []offer.Offer
	index     []offer.Offer
	fallbacks [][]offer.Offer
}

// Search runs all sources concurrently under one deadline and fills result
// slots in priority order: own site, remote API, feed index, fallbacks.
// Source failures only shrink the result. Empty results are not cached.
func (s *Service) Search(ctx context.Context, req Request) *offer.SearchResult {
	req.Query = strings.Join(strings.Fields(req.Query), " ")
	key := s.cacheKey(req)

	var cached offer.SearchResult
	if s.deps.Cache != nil && s.deps.Cache.GetJSON(ctx, key, &cached) {
		slog.Debug("Search served from cache", "query", req.Query)
		return &cached
	}

	result := &offer.SearchResult{
		Query:     req.Query,
		MaxPrice:  req.MaxPrice,
		Results:   []offer.Offer{},
		Timestamp: s.now().UTC(),
	}
	result.SearchLinks = s.GenerateSearchLinks(ctx, req.Query, req.MaxPrice)
	if req.Query == "" {
		return result
	}

	start := time.Now()
	found := s.fetch(ctx, req)

	keyword := req.Category
	if keyword == "" {
		keyword = req.Query
	}
	m := newMerger(s.cfg.MaxResults, req.MaxPrice)

	m.addAll(found.own, s.cfg.OwnSiteSlots, nil)
	external := func(o offer.Offer) bool {
		if s.deps.Filter == nil {
			return true
		}
		keep, reason := s.deps.Filter.Keep(o.Title, req.Query, keyword)
		if !keep {
			slog.Debug("Offer dropped by relevance filter", "title", o.Title, "source", o.Source, "reason", reason)
		}
		return keep
	}
	m.addAll(found.remote, -1, external)
	m.addAll(found.index, -1, external)
	for _, offers := range found.fallbacks {
		m.addAll(offers, -1, external)
	}

	result.Results = finalize(m.results, req.MaxPrice, s.cfg.MaxResults)
	result.TotalFound = m.total

	slog.Info("Search completed",
		"query", req.Query,
		"results", len(result.Results),
		"total_found", result.TotalFound,
		"duration", time.Since(start).String())

	if len(result.Results) > 0 && s.deps.Cache != nil {
		s.deps.Cache.SetJSON(ctx, key, result, cache.CategoryOffers)
	}
	return result
}

func (s *Service) fetch(ctx context.Context, req Request) sourceResults {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SourceTimeout)
	defer cancel()

	var found sourceResults
	found.fallbacks = make([][]offer.Offer, len(s.deps.Fallbacks))

	var g errgroup.Group

	if s.deps.OwnSite != nil {
		g.Go(func() error {
			found.own = s.scrape(ctx, s.deps.OwnSite, req)
			return nil
		})
	}

	if s.deps.Remote != nil {
		g.Go(func() error {
			found.remote = s.deps.Remote.Search(ctx, req.Query, req.MaxPrice, s.cfg.MaxResults)
			return nil
		})
	}

	if s.deps.Index != nil {
		g.Go(func() error {
			limit := s.cfg.MaxResults * indexOverFetch
			if len(req.Variants) >= 2 {
				found.index = s.deps.Index.SearchMultiple(ctx, req.Variants, req.MaxPrice, limit)
			} else {
				found.index = s.deps.Index.Search(ctx, req.Query, req.MaxPrice, limit)
			}
			return nil
		})
	}

	for i, source := range s.deps.Fallbacks {
		g.Go(func() error {
			found.fallbacks[i] = s.scrape(ctx, source, req)
			return nil
		})
	}

	g.Wait()
	return found
}

func (s *Service) scrape(ctx context.Context, source scrape.Source, req Request) []offer.Offer {
	offers, err := source.Search(ctx, req.Query, req.MaxPrice)
	if err != nil {
		slog.Warn("Source search failed", "source", source.Name(), "error", err)
		return nil
	}
	return offers
}

func (s *Service) cacheKey(req Request) string {
	if s.deps.Cache == nil {
		return ""
	}
	maxPrice := ""
	if req.MaxPrice != nil {
		maxPrice = req.MaxPrice.String()
	}
	return s.deps.Cache.Key(cache.CategoryOffers,
		req.Query,
		maxPrice,
		req.Category,
		strings.Join(req.Variants, "|"),
		strconv.Itoa(s.cfg.MaxResults),
	)
}
