package relevance

import (
	"strings"
)

type Filterer struct {
	rules *Rules
}

func NewFilterer(rules *Rules) *Filterer {
	return &Filterer{rules: rules}
}

// IsAccessory reports whether title names an accessory or other noise item
// rather than a product.
func (f *Filterer) IsAccessory(title string) bool {
	return containsAny(title, f.rules.AccessoryTerms)
}

// IsAccessoryRequested reports whether the user's query asks for an accessory.
func (f *Filterer) IsAccessoryRequested(query string) bool {
	return containsAny(query, f.rules.AccessoryIntents)
}

// IsRelevantProduct validates title against the rule set of keyword's
// category. Unknown categories are always relevant.
func (f *Filterer) IsRelevantProduct(title, keyword string) bool {
	rule, ok := f.Rule(keyword)
	if !ok {
		return true
	}

	if containsAny(title, rule.Exclusions) {
		return false
	}
	return containsAny(title, rule.Brands) || containsAny(title, rule.Specs)
}

// Rule resolves keyword through the alias table to a category rule.
// Multi-word keywords are tried as a whole first, then word by word.
func (f *Filterer) Rule(keyword string) (CategoryRule, bool) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return CategoryRule{}, false
	}

	if rule, ok := f.lookup(keyword); ok {
		return rule, true
	}
	for _, word := range strings.Fields(keyword) {
		if rule, ok := f.lookup(strings.Trim(word, ".,;:!?\"'()")); ok {
			return rule, true
		}
	}
	return CategoryRule{}, false
}

// Keep combines both layers: accessories are dropped unless the query asks
// for one, then the title must validate against keyword's category.
// A requested accessory skips the category check, since category
// exclusions list exactly those accessories.
func (f *Filterer) Keep(title, query, keyword string) (bool, string) {
	if f.IsAccessory(title) {
		if !f.IsAccessoryRequested(query) {
			return false, "accessory"
		}
		return true, ""
	}
	if !f.IsRelevantProduct(title, keyword) {
		return false, "irrelevant"
	}
	return true, ""
}

func (f *Filterer) lookup(key string) (CategoryRule, bool) {
	if alias, ok := f.rules.Aliases[key]; ok {
		key = alias
	}
	rule, ok := f.rules.Categories[key]
	return rule, ok
}

func containsAny(value string, terms []string) bool {
	value = strings.ToLower(value)
	for _, term := range terms {
		if strings.Contains(value, term) {
			return true
		}
	}
	return false
}
