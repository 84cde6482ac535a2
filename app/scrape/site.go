package scrape

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gocolly/colly/v2"
	"github.com/lysyi3m/offer-comb/app/offer"
	"github.com/shopspring/decimal"
)

// Site scrapes a comparison site's search result page with colly.
type Site struct {
	cfg  SiteConfig
	opts Options
}

func NewSite(cfg SiteConfig, opts Options) *Site {
	return &Site{cfg: cfg, opts: opts}
}

func (s *Site) Name() string {
	return s.cfg.Name
}

func (s *Site) Search(ctx context.Context, query string, maxPrice *decimal.Decimal) ([]offer.Offer, error) {
	if !s.cfg.IsEnabled() {
		return nil, ErrSourceDisabled
	}

	c := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.UserAgent(s.opts.userAgent()),
	)
	c.SetRequestTimeout(s.opts.timeout())

	icon := s.cfg.Icon
	if icon == "" {
		icon = defaultSiteIcon
	}

	var offers []offer.Offer
	var status int

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept-Language", acceptLanguage)
	})
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
	})
	c.OnHTML("html", func(e *colly.HTMLElement) {
		offers = append(offers, Extract(e.DOM, e.Request.URL, s.cfg.Selectors, s.cfg.Name, icon, maxPrice)...)
	})

	if err := c.Visit(searchURL(s.cfg.SearchURL, query)); err != nil {
		return nil, fmt.Errorf("failed to scrape %s: %w", s.cfg.Name, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", s.cfg.Name, status)
	}

	return offers, nil
}
