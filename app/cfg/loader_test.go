package cfg

import (
	"testing"
	"time"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestLoadArgsDefaults(t *testing.T) {
	cfg, err := LoadArgs([]string{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.DBPath != "./data/offers.db" {
		t.Errorf("Expected default db path, got '%s'", cfg.DBPath)
	}
	if cfg.FeedDelimiter != ';' {
		t.Errorf("Expected ';' delimiter, got %q", cfg.FeedDelimiter)
	}
	if cfg.FeedBatchSize != 10000 {
		t.Errorf("Expected batch size 10000, got %d", cfg.FeedBatchSize)
	}
	if cfg.OffersTTL != time.Hour || cfg.LinksTTL != 24*time.Hour {
		t.Errorf("Unexpected TTLs: %s / %s", cfg.OffersTTL, cfg.LinksTTL)
	}
	if cfg.MaxResults != 6 || cfg.OwnSiteSlots != 3 {
		t.Errorf("Expected 6 results with 3 own-site slots, got %d/%d", cfg.MaxResults, cfg.OwnSiteSlots)
	}
	if cfg.SourceTimeout != 15*time.Second {
		t.Errorf("Expected 15s source timeout, got %s", cfg.SourceTimeout)
	}
	if cfg.CacheBackend != "sqlite" {
		t.Errorf("Expected sqlite cache backend, got '%s'", cfg.CacheBackend)
	}
	if cfg.PAAPIEnabled() {
		t.Error("PA-API should be disabled without credentials")
	}
}

func TestLoadArgsFlags(t *testing.T) {
	cfg, err := LoadArgs([]string{
		"--feed-url", "https://feeds.example.com/products.csv.gz",
		"--feed-delimiter", "|",
		"--paapi-access-key", "AKID",
		"--paapi-secret-key", "secret",
		"--paapi-partner-tag", "offer-21",
		"--cache-backend", "redis",
		"--max-results", "10",
		"--own-site-slots", "0",
		"--source-timeout", "5",
		"--debug",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.FeedURL != "https://feeds.example.com/products.csv.gz" || cfg.FeedDelimiter != '|' {
		t.Errorf("Unexpected feed settings: %s %q", cfg.FeedURL, cfg.FeedDelimiter)
	}
	if !cfg.PAAPIEnabled() {
		t.Error("PA-API should be enabled with credentials and partner tag")
	}
	if cfg.CacheBackend != "redis" || cfg.MaxResults != 10 || cfg.OwnSiteSlots != 0 {
		t.Errorf("Unexpected values: %+v", cfg)
	}
	if cfg.SourceTimeout != 5*time.Second || !cfg.Debug {
		t.Errorf("Unexpected timeout/debug: %s %v", cfg.SourceTimeout, cfg.Debug)
	}
}

func TestLoadArgsEnv(t *testing.T) {
	t.Setenv("MAX_RESULTS", "8")
	t.Setenv("API_ACCESS_KEY", "from-env")

	cfg, err := LoadArgs(nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.MaxResults != 8 || cfg.APIAccessKey != "from-env" {
		t.Errorf("Expected env values, got %d '%s'", cfg.MaxResults, cfg.APIAccessKey)
	}
}

func TestLoadArgsInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"multi char delimiter", []string{"--feed-delimiter", ";;"}},
		{"zero results", []string{"--max-results", "0"}},
		{"too many own slots", []string{"--max-results", "4", "--own-site-slots", "5"}},
		{"unknown backend", []string{"--cache-backend", "memcached"}},
		{"zero workers", []string{"--worker-count", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadArgs(tt.args); err == nil {
				t.Error("Expected configuration error")
			}
		})
	}
}

func TestPAAPIEnabledRequiresPartnerTag(t *testing.T) {
	cfg := &Cfg{PAAPIAccessKey: "AKID", PAAPISecretKey: "secret"}
	if cfg.PAAPIEnabled() {
		t.Error("PA-API should stay disabled without a partner tag")
	}

	cfg.PAAPIPartnerTag = "offer-21"
	if !cfg.PAAPIEnabled() {
		t.Error("PA-API should be enabled once the partner tag is set")
	}
}
