package offer

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var (
	priceDigits = regexp.MustCompile(`[-−]?\d[\d.,]*`)
	printer     = message.NewPrinter(language.German)
)

// ParsePrice extracts a price from a display string such as "1.234,56 €",
// "449,00", "EUR 12.99" or "ab 19,-". Comma and dot are both accepted as the
// decimal separator; the last separator followed by one or two digits wins.
// Negative amounts are rejected.
func ParsePrice(s string) (decimal.Decimal, bool) {
	m := priceDigits.FindString(strings.ReplaceAll(s, ",-", ",00"))
	if m == "" || strings.HasPrefix(m, "-") || strings.HasPrefix(m, "−") {
		return decimal.Zero, false
	}
	m = strings.TrimRight(m, ".,")

	sep := strings.LastIndexAny(m, ".,")
	var normalized string
	if sep >= 0 && len(m)-sep-1 <= 2 {
		intPart := strings.NewReplacer(".", "", ",", "").Replace(m[:sep])
		normalized = intPart + "." + m[sep+1:]
	} else {
		normalized = strings.NewReplacer(".", "", ",", "").Replace(m)
	}

	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// FormatPrice renders a price the way German shops do: "1.234,50 €".
func FormatPrice(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return printer.Sprintf("%v €", number.Decimal(f, number.Scale(2)))
}

// WithinBudget reports whether price is allowed under an optional cap.
func WithinBudget(price decimal.Decimal, maxPrice *decimal.Decimal) bool {
	return maxPrice == nil || !price.GreaterThan(*maxPrice)
}
