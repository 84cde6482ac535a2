package scrape

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/lysyi3m/offer-comb/app/offer"
	"github.com/shopspring/decimal"
)

// Extract turns the result items under root into offers. Links and images
// are resolved against base; rows without a valid title, positive price or
// link, or above maxPrice, are dropped.
func Extract(root *goquery.Selection, base *url.URL, sel Selectors, label, icon string, maxPrice *decimal.Decimal) []offer.Offer {
	var offers []offer.Offer

	root.Find(sel.Item).Each(func(_ int, item *goquery.Selection) {
		title := text(item, sel.Title)
		if title == "" && sel.Title != "" {
			title, _ = item.Find(sel.Title).First().Attr("title")
		}

		price, ok := offer.ParsePrice(text(item, sel.Price))
		if !ok || !offer.WithinBudget(price, maxPrice) {
			return
		}

		o := offer.Offer{
			Title:      title,
			Price:      price,
			Link:       resolve(base, attr(item, sel.Link, "href")),
			Image:      resolve(base, imageSource(item, sel.Image)),
			Source:     label,
			SourceIcon: icon,
		}.Normalize()
		if o.Valid() {
			offers = append(offers, o)
		}
	})

	return offers
}

func text(item *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(item.Find(selector).First().Text())
}

// attr reads name from the first match of selector, or from the item itself
// when selector is empty.
func attr(item *goquery.Selection, selector, name string) string {
	target := item
	if selector != "" {
		target = item.Find(selector).First()
	} else if _, ok := item.Attr(name); !ok {
		target = item.Find("a[href]").First()
	}
	v, _ := target.Attr(name)
	return strings.TrimSpace(v)
}

func imageSource(item *goquery.Selection, selector string) string {
	if selector == "" {
		selector = "img"
	}
	img := item.Find(selector).First()
	for _, name := range []string{"src", "data-src", "data-lazy-src"} {
		if v, ok := img.Attr(name); ok && strings.TrimSpace(v) != "" && !strings.HasPrefix(v, "data:") {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func resolve(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base == nil {
		return u.String()
	}
	return base.ResolveReference(u).String()
}
