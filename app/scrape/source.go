package scrape

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/lysyi3m/offer-comb/app/offer"
	"github.com/shopspring/decimal"
)

var ErrSourceDisabled = errors.New("source is disabled")

// Source fetches offers for a query from one external site or feed.
type Source interface {
	Name() string
	Search(ctx context.Context, query string, maxPrice *decimal.Decimal) ([]offer.Offer, error)
}

const (
	DefaultTimeout  = 10 * time.Second
	acceptLanguage  = "de-DE,de;q=0.9,en;q=0.5"
	maxPageBytes    = 5 << 20
	defaultSiteIcon = offer.IconComparison
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36",
}

type Options struct {
	// UserAgent overrides the rotating browser user agents when set.
	UserAgent string
	Timeout   time.Duration
}

func (o Options) userAgent() string {
	if o.UserAgent != "" {
		return o.UserAgent
	}
	return userAgents[rand.IntN(len(userAgents))]
}

func (o Options) timeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return DefaultTimeout
}

// NewSources builds the own-site source (nil when not configured) and the
// fallback sources in configuration order: comparison sites, then deal feeds.
func NewSources(cfg *Config, opts Options) (Source, []Source) {
	var own Source
	if cfg.OwnSite != nil && cfg.OwnSite.IsEnabled() {
		own = NewOwnSite(*cfg.OwnSite, opts)
	}

	var fallbacks []Source
	for _, site := range cfg.Comparison {
		if site.IsEnabled() {
			fallbacks = append(fallbacks, NewSite(site, opts))
		}
	}
	for _, feed := range cfg.DealFeeds {
		if feed.IsEnabled() {
			fallbacks = append(fallbacks, NewDealFeed(feed, opts))
		}
	}
	return own, fallbacks
}
