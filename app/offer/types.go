package offer

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	IconPartnerStore = "🏬"
	IconMarketplace  = "📦"
	IconComparison   = "🔎"
	IconOwnShop      = "⭐"
	IconDeal         = "🔥"

	PartnerStoreLabel = "Partner-Shop"
)

// Offer is a single purchasable product result. Prices are EUR.
type Offer struct {
	Title          string          `json:"title"`
	Price          decimal.Decimal `json:"price"`
	PriceFormatted string          `json:"price_formatted"`
	Link           string          `json:"link"`
	Image          string          `json:"image,omitempty"`
	Source         string          `json:"source"`
	SourceIcon     string          `json:"source_icon"`
}

// Link is a human-facing "browse more" URL.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
	Icon  string `json:"icon,omitempty"`
}

type SearchResult struct {
	Query       string           `json:"query"`
	MaxPrice    *decimal.Decimal `json:"max_price,omitempty"`
	Results     []Offer          `json:"results"`
	SearchLinks []Link           `json:"search_links"`
	TotalFound  int              `json:"total_found"`
	Timestamp   time.Time        `json:"timestamp"`
}
