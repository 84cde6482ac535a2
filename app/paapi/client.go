package paapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/lysyi3m/offer-comb/app/offer"
	"github.com/shopspring/decimal"
)

const (
	DefaultEndpoint    = "https://webservices.amazon.de"
	DefaultRegion      = "eu-west-1"
	DefaultMarketplace = "www.amazon.de"
	DefaultTimeout     = 10 * time.Second

	service        = "ProductAdvertisingAPI"
	searchPath     = "/paapi5/searchitems"
	searchTarget   = "com.amazon.paapi5.v1.ProductAdvertisingAPIv1.SearchItems"
	sourceLabel    = "Amazon"
	maxLoggedBytes = 300
)

var searchResources = []string{
	"ItemInfo.Title",
	"Images.Primary.Large",
	"Offers.Listings.Price",
}

type Config struct {
	AccessKey   string
	SecretKey   string
	PartnerTag  string
	Endpoint    string
	Region      string
	Marketplace string
	Timeout     time.Duration
}

// Client searches the Product Advertising API. A client without credentials
// is disabled and returns no offers.
type Client struct {
	cfg    Config
	host   string
	signer *Signer
	http   *resty.Client
	now    func() time.Time
}

func NewClient(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}
	if cfg.Marketplace == "" {
		cfg.Marketplace = DefaultMarketplace
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	host := ""
	if u, err := url.Parse(cfg.Endpoint); err == nil {
		host = u.Host
	}

	return &Client{
		cfg:    cfg,
		host:   host,
		signer: NewSigner(cfg.AccessKey, cfg.SecretKey, cfg.Region, service),
		http:   resty.New().SetTimeout(cfg.Timeout),
		now:    time.Now,
	}
}

func (c *Client) Enabled() bool {
	return c.cfg.AccessKey != "" && c.cfg.SecretKey != "" && c.cfg.PartnerTag != "" && c.host != ""
}

func (c *Client) Name() string {
	return sourceLabel
}

// Search returns up to limit offers for keywords, cheapest first. Transport
// errors and non-200 responses are logged and yield no offers.
func (c *Client) Search(ctx context.Context, keywords string, maxPrice *decimal.Decimal, limit int) []offer.Offer {
	if !c.Enabled() || keywords == "" || limit <= 0 {
		return nil
	}

	body := searchItemsRequest{
		Keywords:    keywords,
		Resources:   searchResources,
		ItemCount:   itemCount(limit),
		PartnerTag:  c.cfg.PartnerTag,
		PartnerType: "Associates",
		Marketplace: c.cfg.Marketplace,
		SearchIndex: "All",
	}
	if maxPrice != nil {
		body.MaxPrice = maxPrice.Shift(2).IntPart()
	}

	payload, err := json.Marshal(body)
	if err != nil {
		slog.Error("Failed to encode PA-API request", "error", err)
		return nil
	}

	headers := c.signer.Sign("POST", c.host, searchPath, map[string]string{
		"content-encoding": "amz-1.0",
		"content-type":     "application/json; charset=utf-8",
		"x-amz-target":     searchTarget,
	}, payload, c.now())
	delete(headers, "host")

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(payload).
		Post(c.cfg.Endpoint + searchPath)
	if err != nil {
		slog.Warn("PA-API request failed", "error", err)
		return nil
	}

	if resp.StatusCode() != 200 {
		slog.Warn("PA-API returned unexpected status", "status", resp.StatusCode(), "body", truncate(resp.String(), maxLoggedBytes))
		return nil
	}

	var parsed searchItemsResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		slog.Warn("Failed to parse PA-API response", "error", err)
		return nil
	}
	for _, e := range parsed.Errors {
		slog.Debug("PA-API reported item error", "code", e.Code, "message", e.Message)
	}

	return toOffers(parsed.SearchResult.Items, maxPrice, limit)
}

func toOffers(items []item, maxPrice *decimal.Decimal, limit int) []offer.Offer {
	offers := make([]offer.Offer, 0, len(items))
	for _, it := range items {
		price, ok := itemPrice(it)
		if !ok || !offer.WithinBudget(price, maxPrice) {
			continue
		}

		o := offer.Offer{
			Title:      it.ItemInfo.Title.DisplayValue,
			Price:      price,
			Link:       it.DetailPageURL,
			Image:      it.Images.Primary.Large.URL,
			Source:     sourceLabel,
			SourceIcon: offer.IconMarketplace,
		}.Normalize()
		if o.Valid() {
			offers = append(offers, o)
		}
	}

	offer.SortByPrice(offers)
	if len(offers) > limit {
		offers = offers[:limit]
	}
	return offers
}

// itemPrice prefers the structured amount of the first listing and falls
// back to the display string.
func itemPrice(it item) (decimal.Decimal, bool) {
	if len(it.Offers.Listings) == 0 {
		return decimal.Zero, false
	}
	p := it.Offers.Listings[0].Price
	if p.Amount != nil && p.Amount.IsPositive() {
		return *p.Amount, true
	}
	price, ok := offer.ParsePrice(p.DisplayAmount)
	return price, ok && price.IsPositive()
}

// itemCount over-fetches so that filtering still leaves enough items.
func itemCount(limit int) int {
	return max(10, min(30, limit*5))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
