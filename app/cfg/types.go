package cfg

import "time"

type Cfg struct {
	// Storage
	DBPath string

	// HTTP server
	Port         string
	APIAccessKey string

	// Sources and rules
	SourcesFile string
	RulesFile   string

	// Product feed
	FeedURL        string
	FeedDelimiter  rune
	FeedBatchSize  int
	ImportInterval time.Duration

	// Product Advertising API
	PAAPIAccessKey   string
	PAAPISecretKey   string
	PAAPIPartnerTag  string
	PAAPIEndpoint    string
	PAAPIRegion      string
	PAAPIMarketplace string

	// Cache
	CacheBackend string
	RedisAddr    string
	RedisPrefix  string
	OffersTTL    time.Duration
	LinksTTL     time.Duration

	// Aggregation
	MaxResults    int
	OwnSiteSlots  int
	SourceTimeout time.Duration

	// Background work
	WorkerCount       int
	SchedulerInterval time.Duration

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

// PAAPIEnabled reports whether the API credentials and the partner tag are
// all present. Requests without a partner tag are rejected by the API.
func (c *Cfg) PAAPIEnabled() bool {
	return c.PAAPIAccessKey != "" && c.PAAPISecretKey != "" && c.PAAPIPartnerTag != ""
}
