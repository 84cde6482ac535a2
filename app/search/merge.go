package search

import (
	"github.com/lysyi3m/offer-comb/app/offer"
	"github.com/shopspring/decimal"
)

type merger struct {
	limit    int
	maxPrice *decimal.Decimal
	seen     map[string]struct{}
	results  []offer.Offer
	total    int
}

func newMerger(limit int, maxPrice *decimal.Decimal) *merger {
	return &merger{
		limit:    limit,
		maxPrice: maxPrice,
		seen:     make(map[string]struct{}),
	}
}

// addAll offers candidates in order. At most slots are taken from this batch
// (-1 for no batch limit); accept, when set, must approve each candidate.
// Accepted candidates beyond the cap still count towards total.
func (m *merger) addAll(offers []offer.Offer, slots int, accept func(offer.Offer) bool) {
	taken := 0
	for _, o := range offers {
		if slots >= 0 && taken >= slots {
			return
		}
		if !o.Valid() || !offer.WithinBudget(o.Price, m.maxPrice) {
			continue
		}
		if accept != nil && !accept(o) {
			continue
		}

		key := o.DedupeKey()
		if _, ok := m.seen[key]; ok {
			continue
		}
		m.seen[key] = struct{}{}
		m.total++

		if len(m.results) < m.limit {
			m.results = append(m.results, o)
			taken++
		}
	}
}

// finalize is the last pass over the merged set: validity, price cap,
// dedupe and the result cap are enforced again regardless of what the
// sources did.
func finalize(offers []offer.Offer, maxPrice *decimal.Decimal, limit int) []offer.Offer {
	out := make([]offer.Offer, 0, min(len(offers), limit))
	seen := make(map[string]struct{}, len(offers))

	for _, o := range offers {
		if !o.Valid() || !offer.WithinBudget(o.Price, maxPrice) {
			continue
		}
		key := o.DedupeKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, o)
		if len(out) == limit {
			break
		}
	}
	return out
}
