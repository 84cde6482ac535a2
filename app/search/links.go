package search

import (
	"context"
	"net/url"
	"strings"

	"github.com/lysyi3m/offer-comb/app/cache"
	"github.com/lysyi3m/offer-comb/app/offer"
	"github.com/lysyi3m/offer-comb/app/scrape"
	"github.com/shopspring/decimal"
)

// GenerateSearchLinks renders the configured browse links for query. A
// budget parameter is appended when maxPrice is set and the link has one.
func (s *Service) GenerateSearchLinks(ctx context.Context, query string, maxPrice *decimal.Decimal) []offer.Link {
	query = strings.Join(strings.Fields(query), " ")
	if query == "" || len(s.cfg.Links) == 0 {
		return []offer.Link{}
	}

	max := ""
	if maxPrice != nil {
		max = maxPrice.Round(0).String()
	}

	var key string
	if s.deps.Cache != nil {
		key = s.deps.Cache.Key(cache.CategoryLinks, query, max)
		var cached []offer.Link
		if s.deps.Cache.GetJSON(ctx, key, &cached) {
			return cached
		}
	}

	links := make([]offer.Link, 0, len(s.cfg.Links))
	for _, l := range s.cfg.Links {
		u := strings.NewReplacer(
			scrape.QueryPlaceholder, url.QueryEscape(query),
			scrape.TagPlaceholder, url.QueryEscape(s.cfg.PartnerTag),
		).Replace(l.URL)

		if max != "" && l.BudgetParam != "" {
			u += strings.ReplaceAll(l.BudgetParam, scrape.MaxPlaceholder, max)
		}

		icon := l.Icon
		if icon == "" {
			icon = offer.IconComparison
		}
		links = append(links, offer.Link{Label: l.Label, URL: u, Icon: icon})
	}

	if s.deps.Cache != nil {
		s.deps.Cache.SetJSON(ctx, key, links, cache.CategoryLinks)
	}
	return links
}
