package cfg

import (
	"cmp"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage
	DBPath string `long:"db-path" env:"DB_PATH" default:"./data/offers.db" description:"SQLite database file"`

	// HTTP server
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for admin endpoints (optional)"`

	// Sources and rules
	SourcesFile string `long:"sources-file" env:"SOURCES_FILE" default:"./sources.yml" description:"YAML file with own-site, comparison, deal feed and link definitions"`
	RulesFile   string `long:"rules-file" env:"RULES_FILE" description:"YAML file overriding the built-in relevance rules"`

	// Product feed
	FeedURL        string `long:"feed-url" env:"FEED_URL" description:"URL of the gzip-compressed partner product CSV feed"`
	FeedDelimiter  string `long:"feed-delimiter" env:"FEED_DELIMITER" default:";" description:"Field delimiter of the product feed"`
	FeedBatchSize  int    `long:"feed-batch-size" env:"FEED_BATCH_SIZE" default:"10000" description:"Rows per insert transaction during feed import"`
	ImportInterval int    `long:"import-interval" env:"IMPORT_INTERVAL" default:"86400" description:"Re-import the feed when the index is older than this many seconds"`

	// Product Advertising API
	PAAPIAccessKey   string `long:"paapi-access-key" env:"PAAPI_ACCESS_KEY" description:"Product Advertising API access key"`
	PAAPISecretKey   string `long:"paapi-secret-key" env:"PAAPI_SECRET_KEY" description:"Product Advertising API secret key"`
	PAAPIPartnerTag  string `long:"paapi-partner-tag" env:"PAAPI_PARTNER_TAG" description:"Partner (associate) tag for API requests and marketplace links"`
	PAAPIEndpoint    string `long:"paapi-endpoint" env:"PAAPI_ENDPOINT" default:"https://webservices.amazon.de" description:"Product Advertising API endpoint"`
	PAAPIRegion      string `long:"paapi-region" env:"PAAPI_REGION" default:"eu-west-1" description:"Signing region"`
	PAAPIMarketplace string `long:"paapi-marketplace" env:"PAAPI_MARKETPLACE" default:"www.amazon.de" description:"Marketplace host"`

	// Cache
	CacheBackend string `long:"cache-backend" env:"CACHE_BACKEND" default:"sqlite" choice:"sqlite" choice:"redis" choice:"none" description:"Result cache backend"`
	RedisAddr    string `long:"redis-addr" env:"REDIS_ADDR" default:"localhost:6379" description:"Redis address for the redis cache backend"`
	RedisPrefix  string `long:"redis-prefix" env:"REDIS_PREFIX" default:"offer-comb:" description:"Key prefix for the redis cache backend"`
	OffersTTL    int    `long:"offers-ttl" env:"OFFERS_TTL" default:"3600" description:"Search result cache TTL in seconds"`
	LinksTTL     int    `long:"links-ttl" env:"LINKS_TTL" default:"86400" description:"Search link cache TTL in seconds"`

	// Aggregation
	MaxResults    int `long:"max-results" env:"MAX_RESULTS" default:"6" description:"Maximum number of offers per search"`
	OwnSiteSlots  int `long:"own-site-slots" env:"OWN_SITE_SLOTS" default:"3" description:"Result slots reserved for own-site offers"`
	SourceTimeout int `long:"source-timeout" env:"SOURCE_TIMEOUT" default:"15" description:"Shared deadline for all sources of one search in seconds"`

	// Background work
	WorkerCount       int `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers"`
	SchedulerInterval int `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"60" description:"Scheduler interval in seconds"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" description:"User agent for outgoing requests (rotating browser agents when empty)"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Europe/Berlin)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load parses the process arguments and environment.
func Load() (*Cfg, error) {
	return LoadArgs(os.Args[1:])
}

// LoadArgs parses args and the environment. It returns nil without an error
// when help was requested.
func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := raw.validate(); err != nil {
		return nil, err
	}

	cfg := &Cfg{
		DBPath:            raw.DBPath,
		Port:              raw.Port,
		APIAccessKey:      raw.APIAccessKey,
		SourcesFile:       raw.SourcesFile,
		RulesFile:         raw.RulesFile,
		FeedURL:           raw.FeedURL,
		FeedDelimiter:     []rune(raw.FeedDelimiter)[0],
		FeedBatchSize:     raw.FeedBatchSize,
		ImportInterval:    seconds(raw.ImportInterval),
		PAAPIAccessKey:    raw.PAAPIAccessKey,
		PAAPISecretKey:    raw.PAAPISecretKey,
		PAAPIPartnerTag:   raw.PAAPIPartnerTag,
		PAAPIEndpoint:     raw.PAAPIEndpoint,
		PAAPIRegion:       raw.PAAPIRegion,
		PAAPIMarketplace:  raw.PAAPIMarketplace,
		CacheBackend:      raw.CacheBackend,
		RedisAddr:         raw.RedisAddr,
		RedisPrefix:       raw.RedisPrefix,
		OffersTTL:         seconds(raw.OffersTTL),
		LinksTTL:          seconds(raw.LinksTTL),
		MaxResults:        raw.MaxResults,
		OwnSiteSlots:      raw.OwnSiteSlots,
		SourceTimeout:     seconds(raw.SourceTimeout),
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: seconds(raw.SchedulerInterval),
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

func (r rawCfg) validate() error {
	if len([]rune(r.FeedDelimiter)) != 1 {
		return fmt.Errorf("feed delimiter must be a single character, got %q", r.FeedDelimiter)
	}
	if r.MaxResults <= 0 {
		return fmt.Errorf("max results must be positive, got %d", r.MaxResults)
	}
	if r.OwnSiteSlots < 0 || r.OwnSiteSlots > r.MaxResults {
		return fmt.Errorf("own-site slots must be between 0 and %d, got %d", r.MaxResults, r.OwnSiteSlots)
	}
	if r.SourceTimeout <= 0 || r.SchedulerInterval <= 0 || r.WorkerCount <= 0 {
		return fmt.Errorf("source timeout, scheduler interval and worker count must be positive")
	}
	return nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
