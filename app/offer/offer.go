package offer

import (
	"net/url"
	"sort"
	"strings"
)

// Valid reports whether the offer may be shown to a caller: non-empty title,
// strictly positive price and an absolute http(s) link.
func (o Offer) Valid() bool {
	if strings.TrimSpace(o.Title) == "" || !o.Price.IsPositive() {
		return false
	}
	return IsAbsoluteURL(o.Link)
}

// Normalize trims fields and fills the derived display values.
func (o Offer) Normalize() Offer {
	o.Title = strings.Join(strings.Fields(o.Title), " ")
	o.Link = strings.TrimSpace(o.Link)
	o.Image = strings.TrimSpace(o.Image)
	o.Source = strings.TrimSpace(o.Source)
	if o.Source == "" {
		o.Source = PartnerStoreLabel
		if o.SourceIcon == "" {
			o.SourceIcon = IconPartnerStore
		}
	}
	if o.SourceIcon == "" {
		o.SourceIcon = IconPartnerStore
	}
	o.PriceFormatted = FormatPrice(o.Price)
	return o
}

// DedupeKey identifies an offer across sources: the normalized link when
// present, otherwise a title|merchant composite.
func (o Offer) DedupeKey() string {
	if link := normalizeLink(o.Link); link != "" {
		return "link:" + link
	}
	title := strings.ToLower(strings.Join(strings.Fields(o.Title), " "))
	return "title:" + title + "|" + strings.ToLower(strings.TrimSpace(o.Source))
}

func IsAbsoluteURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func normalizeLink(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String()
}

// SortByPrice orders offers by ascending price, keeping the input order for ties.
func SortByPrice(offers []Offer) {
	sort.SliceStable(offers, func(i, j int) bool {
		return offers[i].Price.LessThan(offers[j].Price)
	})
}
