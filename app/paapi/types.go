package paapi

import (
	"github.com/shopspring/decimal"
)

type searchItemsRequest struct {
	Keywords    string   `json:"Keywords"`
	Resources   []string `json:"Resources"`
	ItemCount   int      `json:"ItemCount"`
	PartnerTag  string   `json:"PartnerTag"`
	PartnerType string   `json:"PartnerType"`
	Marketplace string   `json:"Marketplace"`
	SearchIndex string   `json:"SearchIndex,omitempty"`
	// MaxPrice is in cents.
	MaxPrice int64 `json:"MaxPrice,omitempty"`
}

type searchItemsResponse struct {
	SearchResult struct {
		Items []item `json:"Items"`
	} `json:"SearchResult"`
	Errors []struct {
		Code    string `json:"Code"`
		Message string `json:"Message"`
	} `json:"Errors"`
}

type item struct {
	ASIN          string `json:"ASIN"`
	DetailPageURL string `json:"DetailPageURL"`
	ItemInfo      struct {
		Title struct {
			DisplayValue string `json:"DisplayValue"`
		} `json:"Title"`
	} `json:"ItemInfo"`
	Images struct {
		Primary struct {
			Large struct {
				URL string `json:"URL"`
			} `json:"Large"`
		} `json:"Primary"`
	} `json:"Images"`
	Offers struct {
		Listings []struct {
			Price struct {
				Amount        *decimal.Decimal `json:"Amount"`
				Currency      string           `json:"Currency"`
				DisplayAmount string           `json:"DisplayAmount"`
			} `json:"Price"`
		} `json:"Listings"`
	} `json:"Offers"`
}
