package search

import (
	"fmt"
	"strings"

	"github.com/lysyi3m/offer-comb/app/offer"
)

// FormatResultsForBot renders result as a plain numbered list followed by
// the browse links. The text carries no natural-language words so it does
// not steer the language of a downstream prompt.
func FormatResultsForBot(result *offer.SearchResult) string {
	if result == nil {
		return ""
	}

	var b strings.Builder
	for i, o := range result.Results {
		price := o.PriceFormatted
		if price == "" {
			price = offer.FormatPrice(o.Price)
		}
		fmt.Fprintf(&b, "%d. %s | %s | %s %s | %s\n", i+1, o.Title, price, o.SourceIcon, o.Source, o.Link)
	}

	if len(result.SearchLinks) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		for _, l := range result.SearchLinks {
			fmt.Fprintf(&b, "%s %s: %s\n", l.Icon, l.Label, l.URL)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
