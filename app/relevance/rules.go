package relevance

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yml
var defaultRulesYAML []byte

// CategoryRule is the positive validation set for one product category.
type CategoryRule struct {
	Brands     []string `yaml:"brands"`
	Specs      []string `yaml:"specs"`
	Exclusions []string `yaml:"exclusions"`
}

// Rules is the parsed rule table. It is built once and never mutated.
type Rules struct {
	AccessoryTerms   []string                `yaml:"accessory_terms"`
	AccessoryIntents []string                `yaml:"accessory_intents"`
	Aliases          map[string]string       `yaml:"aliases"`
	Categories       map[string]CategoryRule `yaml:"categories"`
}

// DefaultRules parses the rule table compiled into the binary.
func DefaultRules() (*Rules, error) {
	return ParseRules(defaultRulesYAML)
}

// LoadRules reads a rule table from path, or the embedded defaults when path is empty.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseRules(data)
}

func ParseRules(data []byte) (*Rules, error) {
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules YAML: %w", err)
	}

	rules.normalize()
	if err := rules.validate(); err != nil {
		return nil, err
	}
	return &rules, nil
}

func (r *Rules) validate() error {
	if len(r.AccessoryTerms) == 0 {
		return fmt.Errorf("accessory_terms must not be empty")
	}
	for key, rule := range r.Categories {
		if len(rule.Brands) == 0 && len(rule.Specs) == 0 {
			return fmt.Errorf("category %q must have at least one brand or spec", key)
		}
	}
	for alias, target := range r.Aliases {
		if _, ok := r.Categories[target]; !ok {
			return fmt.Errorf("alias %q points to unknown category %q", alias, target)
		}
	}
	return nil
}

func (r *Rules) normalize() {
	r.AccessoryTerms = lowerAll(r.AccessoryTerms)
	r.AccessoryIntents = lowerAll(r.AccessoryIntents)

	aliases := make(map[string]string, len(r.Aliases))
	for k, v := range r.Aliases {
		aliases[strings.ToLower(strings.TrimSpace(k))] = strings.ToLower(strings.TrimSpace(v))
	}
	r.Aliases = aliases

	categories := make(map[string]CategoryRule, len(r.Categories))
	for k, v := range r.Categories {
		categories[strings.ToLower(strings.TrimSpace(k))] = CategoryRule{
			Brands:     lowerAll(v.Brands),
			Specs:      lowerAll(v.Specs),
			Exclusions: lowerAll(v.Exclusions),
		}
	}
	r.Categories = categories
}

func lowerAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
