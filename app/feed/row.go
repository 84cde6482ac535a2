package feed

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lysyi3m/offer-comb/app/database"
	"github.com/lysyi3m/offer-comb/app/offer"
	"github.com/shopspring/decimal"
)

// Column positions in the partner feed export.
const (
	colLink          = 0
	colTitle         = 1
	colImage         = 4
	colPrice         = 7
	colMerchant      = 8
	colImageFallback = 12

	MinColumns = 20
)

var (
	ErrShortRow     = errors.New("row has too few columns")
	ErrMissingTitle = errors.New("row has no title")
	ErrMissingLink  = errors.New("row has no link")
	ErrBadPrice     = errors.New("row has no positive price")
)

// Row is one raw record of the feed with named accessors over its
// positional columns.
type Row []string

func (r Row) field(i int) string {
	if i >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[i])
}

func (r Row) Link() string     { return r.field(colLink) }
func (r Row) Title() string    { return strings.Join(strings.Fields(r.field(colTitle)), " ") }
func (r Row) Merchant() string { return r.field(colMerchant) }

func (r Row) Image() string {
	if img := r.field(colImage); img != "" {
		return img
	}
	return r.field(colImageFallback)
}

// Price parses the locale-formatted price column ("449,00").
func (r Row) Price() (decimal.Decimal, bool) {
	return offer.ParsePrice(r.field(colPrice))
}

func (r Row) Validate() error {
	if len(r) < MinColumns {
		return fmt.Errorf("%w: got %d, need %d", ErrShortRow, len(r), MinColumns)
	}
	if r.Title() == "" {
		return ErrMissingTitle
	}
	if r.Link() == "" {
		return ErrMissingLink
	}
	if price, ok := r.Price(); !ok || !price.IsPositive() {
		return ErrBadPrice
	}
	return nil
}

// Product converts a validated row into its index form. The price is stored
// with a dot as decimal separator.
func (r Row) Product() database.ProductRow {
	price, _ := r.Price()
	return database.ProductRow{
		Title:    r.Title(),
		Price:    price.String(),
		Link:     r.Link(),
		Image:    r.Image(),
		Merchant: r.Merchant(),
	}
}
