package scrape

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/lysyi3m/offer-comb/app/offer"
	"github.com/mmcdole/gofeed"
	"github.com/shopspring/decimal"
)

// euroPrice finds "599€", "599,99 €", "€ 599" or "599 EUR" in free text.
var euroPrice = regexp.MustCompile(`(?i)(\d[\d.,]*\d|\d)\s*(?:€|eur\b|euro\b)|€\s*(\d[\d.,]*\d|\d)`)

// DealFeed reads an RSS or Atom deal feed and keeps items whose title
// mentions every query term and a euro price.
type DealFeed struct {
	cfg    FeedConfig
	opts   Options
	parser *gofeed.Parser
}

func NewDealFeed(cfg FeedConfig, opts Options) *DealFeed {
	parser := gofeed.NewParser()
	parser.UserAgent = opts.userAgent()
	return &DealFeed{cfg: cfg, opts: opts, parser: parser}
}

func (d *DealFeed) Name() string {
	return d.cfg.Name
}

func (d *DealFeed) Search(ctx context.Context, query string, maxPrice *decimal.Decimal) ([]offer.Offer, error) {
	if !d.cfg.IsEnabled() {
		return nil, ErrSourceDisabled
	}

	terms := queryTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, d.opts.timeout())
	defer cancel()

	feed, err := d.parser.ParseURLWithContext(d.cfg.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse deal feed %s: %w", d.cfg.Name, err)
	}

	var offers []offer.Offer
	for _, item := range feed.Items {
		if !containsAll(item.Title, terms) {
			continue
		}

		price, ok := PriceInText(item.Title)
		if !ok {
			price, ok = PriceInText(item.Description)
		}
		if !ok || !offer.WithinBudget(price, maxPrice) {
			continue
		}

		image := ""
		if item.Image != nil {
			image = item.Image.URL
		}

		o := offer.Offer{
			Title:      item.Title,
			Price:      price,
			Link:       item.Link,
			Image:      image,
			Source:     d.cfg.Name,
			SourceIcon: offer.IconDeal,
		}.Normalize()
		if o.Valid() {
			offers = append(offers, o)
		}
	}

	return offers, nil
}

// PriceInText extracts the first euro amount from s.
func PriceInText(s string) (decimal.Decimal, bool) {
	m := euroPrice.FindStringSubmatch(s)
	if m == nil {
		return decimal.Zero, false
	}
	raw := m[1]
	if raw == "" {
		raw = m[2]
	}
	price, ok := offer.ParsePrice(raw)
	return price, ok && price.IsPositive()
}

func queryTerms(query string) []string {
	var terms []string
	for _, f := range strings.Fields(strings.ToLower(query)) {
		f = strings.Trim(f, ".,;:!?\"'()")
		if len([]rune(f)) >= 2 {
			terms = append(terms, f)
		}
	}
	return terms
}

func containsAll(title string, terms []string) bool {
	title = strings.ToLower(title)
	for _, t := range terms {
		if !strings.Contains(title, t) {
			return false
		}
	}
	return true
}
