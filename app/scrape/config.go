package scrape

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	QueryPlaceholder = "{query}"
	TagPlaceholder   = "{tag}"
	MaxPlaceholder   = "{max}"
)

// Selectors locate offer fields inside a result page. Item selects one
// result; the other selectors are relative to it.
type Selectors struct {
	Item  string `yaml:"item"`
	Title string `yaml:"title"`
	Price string `yaml:"price"`
	Link  string `yaml:"link"`
	Image string `yaml:"image"`
}

type SiteConfig struct {
	Name      string    `yaml:"name"`
	Icon      string    `yaml:"icon"`
	SearchURL string    `yaml:"search_url"`
	Selectors Selectors `yaml:"selectors"`
	// ProductPrice is used when a search lands on a single product page.
	ProductPrice string `yaml:"product_price"`
	Enabled      *bool  `yaml:"enabled"`
}

type FeedConfig struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Enabled *bool  `yaml:"enabled"`
}

// LinkConfig is a "browse more" search URL template.
type LinkConfig struct {
	Label       string `yaml:"label"`
	Icon        string `yaml:"icon"`
	URL         string `yaml:"url"`
	BudgetParam string `yaml:"budget_param"`
}

type Config struct {
	OwnSite    *SiteConfig  `yaml:"own_site"`
	Comparison []SiteConfig `yaml:"comparison"`
	DealFeeds  []FeedConfig `yaml:"deal_feeds"`
	Links      []LinkConfig `yaml:"links"`
}

func (c SiteConfig) IsEnabled() bool { return c.Enabled == nil || *c.Enabled }
func (c FeedConfig) IsEnabled() bool { return c.Enabled == nil || *c.Enabled }

// LoadConfig reads the sources file. A missing file yields an empty config.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return ParseConfig(data)
}

func ParseConfig(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid sources config: %w", err)
	}
	return &config, nil
}

func (c *Config) validate() error {
	if c.OwnSite != nil {
		if err := c.OwnSite.validate(); err != nil {
			return fmt.Errorf("own_site: %w", err)
		}
	}

	for i, site := range c.Comparison {
		if err := site.validate(); err != nil {
			return fmt.Errorf("comparison at index %d: %w", i, err)
		}
	}

	for i, feed := range c.DealFeeds {
		if feed.Name == "" {
			return fmt.Errorf("deal feed at index %d: name is required", i)
		}
		if _, err := url.ParseRequestURI(feed.URL); err != nil {
			return fmt.Errorf("deal feed %s: invalid url: %w", feed.Name, err)
		}
	}

	for i, link := range c.Links {
		if link.Label == "" || !strings.Contains(link.URL, QueryPlaceholder) {
			return fmt.Errorf("link at index %d must have a label and a %s placeholder", i, QueryPlaceholder)
		}
	}

	return nil
}

func (c SiteConfig) validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !strings.Contains(c.SearchURL, QueryPlaceholder) {
		return fmt.Errorf("search_url must contain %s", QueryPlaceholder)
	}

	requiredSelectors := map[string]string{
		"item":  c.Selectors.Item,
		"title": c.Selectors.Title,
		"price": c.Selectors.Price,
	}
	for name, value := range requiredSelectors {
		if value == "" {
			return fmt.Errorf("selector %s is required", name)
		}
	}
	return nil
}

// searchURL fills the query placeholder of a template.
func searchURL(template, query string) string {
	return strings.ReplaceAll(template, QueryPlaceholder, url.QueryEscape(query))
}
