package scrape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/lysyi3m/offer-comb/app/offer"
	"github.com/shopspring/decimal"
)

// OwnSite searches the operator's own shop. A search that redirects to a
// single product page is read with readability plus the product price
// selector.
type OwnSite struct {
	cfg    SiteConfig
	opts   Options
	client *http.Client
}

func NewOwnSite(cfg SiteConfig, opts Options) *OwnSite {
	return &OwnSite{
		cfg:    cfg,
		opts:   opts,
		client: &http.Client{Timeout: opts.timeout()},
	}
}

func (s *OwnSite) Name() string {
	return s.cfg.Name
}

func (s *OwnSite) Search(ctx context.Context, query string, maxPrice *decimal.Decimal) ([]offer.Offer, error) {
	if !s.cfg.IsEnabled() {
		return nil, ErrSourceDisabled
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL(s.cfg.SearchURL, query), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.opts.userAgent())
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", s.cfg.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", s.cfg.Name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", s.cfg.Name, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s response: %w", s.cfg.Name, err)
	}

	pageURL := resp.Request.URL
	icon := s.icon()
	offers := Extract(doc.Selection, pageURL, s.cfg.Selectors, s.cfg.Name, icon, maxPrice)
	if len(offers) > 0 || s.cfg.ProductPrice == "" {
		return offers, nil
	}

	priceText := doc.Find(s.cfg.ProductPrice).First().Text()
	price, ok := offer.ParsePrice(priceText)
	if !ok || !offer.WithinBudget(price, maxPrice) {
		return nil, nil
	}

	var title, image string
	if article, err := readability.FromReader(bytes.NewReader(body), pageURL); err == nil {
		title, image = article.Title, article.Image
	} else {
		slog.Debug("Readability extraction failed", "source", s.cfg.Name, "error", err)
	}
	if title == "" {
		title = metaContent(doc, "og:title")
	}
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if image == "" {
		image = metaContent(doc, "og:image")
	}

	o := offer.Offer{
		Title:      title,
		Price:      price,
		Link:       pageURL.String(),
		Image:      resolve(pageURL, image),
		Source:     s.cfg.Name,
		SourceIcon: icon,
	}.Normalize()
	if !o.Valid() {
		return nil, nil
	}
	return []offer.Offer{o}, nil
}

func metaContent(doc *goquery.Document, property string) string {
	v, _ := doc.Find(`meta[property="` + property + `"]`).First().Attr("content")
	return strings.TrimSpace(v)
}

func (s *OwnSite) icon() string {
	if s.cfg.Icon != "" {
		return s.cfg.Icon
	}
	return offer.IconOwnShop
}
