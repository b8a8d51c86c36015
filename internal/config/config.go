package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for spizarka.
type Config struct {
	Harvest Harvest        `mapstructure:"harvest" yaml:"harvest"`
	Fetcher Fetcher        `mapstructure:"fetcher" yaml:"fetcher"`
	Extract Extract        `mapstructure:"extract" yaml:"extract"`
	Browser Browser        `mapstructure:"browser" yaml:"browser"`
	Storage Storage        `mapstructure:"storage" yaml:"storage"`
	Logging Logging        `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsServing `mapstructure:"metrics" yaml:"metrics"`
}

// Harvest controls both harvest drivers: the concurrent batch scraper and
// the sequential paginated API harvester.
type Harvest struct {
	// Concurrency is the batch worker count. The work is I/O bound, so the
	// default is deliberately high.
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`

	// ReportEvery is the completed-count interval between progress logs.
	ReportEvery int `mapstructure:"report_every" yaml:"report_every"`

	// Endpoint is the paginated product listing API.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ShopBaseURL is the storefront origin, used for Origin/Referer headers
	// and for building product URLs from slugs.
	ShopBaseURL string `mapstructure:"shop_base_url" yaml:"shop_base_url"`

	// PageLimit is the per-page item count requested from the API.
	PageLimit int `mapstructure:"page_limit" yaml:"page_limit"`

	// MaxPages is the hard safety cap on page count.
	MaxPages int `mapstructure:"max_pages" yaml:"max_pages"`

	// PageDelay is the fixed pause between page requests.
	PageDelay time.Duration `mapstructure:"page_delay" yaml:"page_delay"`
}

// Fetcher controls the HTTP transport and retry policy.
type Fetcher struct {
	RequestTimeout  time.Duration `mapstructure:"request_timeout"   yaml:"request_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"       yaml:"max_retries"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"     yaml:"retry_backoff"`
	RetryStatuses   []int         `mapstructure:"retry_statuses"    yaml:"retry_statuses"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	UserAgent       string        `mapstructure:"user_agent"        yaml:"user_agent"`
	AcceptLanguage  string        `mapstructure:"accept_language"   yaml:"accept_language"`
}

// Extract holds the heuristic knobs of the field extractor. The caps are
// small bounded safety limits tuned against one catalog; none of the exact
// values is load-bearing.
type Extract struct {
	// RootAnchorText is the fixed "All" anchor that starts a breadcrumb
	// chain on the catalog.
	RootAnchorText string `mapstructure:"root_anchor_text" yaml:"root_anchor_text"`

	// MaxAncestorLevels bounds the upward walk from a root anchor.
	MaxAncestorLevels int `mapstructure:"max_ancestor_levels" yaml:"max_ancestor_levels"`

	// ContainerBlocklist rejects ancestors whose aggregate text contains any
	// of these phrases (navigation chrome, login, promo banners).
	ContainerBlocklist []string `mapstructure:"container_blocklist" yaml:"container_blocklist"`

	// DescriptionHeading and NutritionHeading are regexes matched against
	// h1-h4 text to locate the respective sections.
	DescriptionHeading string `mapstructure:"description_heading" yaml:"description_heading"`
	NutritionHeading   string `mapstructure:"nutrition_heading"   yaml:"nutrition_heading"`

	// SectionCharCap stops section text collection on malformed documents.
	SectionCharCap int `mapstructure:"section_char_cap" yaml:"section_char_cap"`

	// NutritionLineCap bounds the text-fallback line scan.
	NutritionLineCap int `mapstructure:"nutrition_line_cap" yaml:"nutrition_line_cap"`

	// TitleSiteName is the site name that terminates a document title, e.g.
	// "... , 200 g | Mamyito.pl".
	TitleSiteName string `mapstructure:"title_site_name" yaml:"title_site_name"`
}

// Browser controls the rendered-listing collaborator.
type Browser struct {
	Headless        bool          `mapstructure:"headless"          yaml:"headless"`
	MaxScrollRounds int           `mapstructure:"max_scroll_rounds" yaml:"max_scroll_rounds"`
	StableRounds    int           `mapstructure:"stable_rounds"     yaml:"stable_rounds"`
	ScrollPause     time.Duration `mapstructure:"scroll_pause"      yaml:"scroll_pause"`
	WindowSize      string        `mapstructure:"window_size"       yaml:"window_size"`
}

// Storage controls output.
type Storage struct {
	OutputPath      string `mapstructure:"output_path"      yaml:"output_path"`
	Delimiter       string `mapstructure:"delimiter"        yaml:"delimiter"`
	MongoURI        string `mapstructure:"mongo_uri"        yaml:"mongo_uri"`
	MongoDatabase   string `mapstructure:"mongo_database"   yaml:"mongo_database"`
	MongoCollection string `mapstructure:"mongo_collection" yaml:"mongo_collection"`
}

// Logging controls logging behavior.
type Logging struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsServing controls the metrics endpoint.
type MetricsServing struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Harvest: Harvest{
			Concurrency: 100,
			ReportEvery: 10,
			Endpoint:    "https://api.mamyito.pl/api/products/list/99a2b89c-d8d3-4e49-871a-0ba169593073",
			ShopBaseURL: "https://mamyito.pl",
			PageLimit:   60,
			MaxPages:    100,
			PageDelay:   200 * time.Millisecond,
		},
		Fetcher: Fetcher{
			RequestTimeout:  25 * time.Second,
			MaxRetries:      4,
			RetryBackoff:    600 * time.Millisecond,
			RetryStatuses:   []int{429, 500, 502, 503, 504},
			MaxIdleConns:    100,
			IdleConnTimeout: 90 * time.Second,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
				"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
			AcceptLanguage: "pl-PL,pl;q=0.9,en-US;q=0.8,en;q=0.7",
		},
		Extract: Extract{
			RootAnchorText:    "Wszystkie",
			MaxAncestorLevels: 6,
			ContainerBlocklist: []string{
				"logowanie",
				"rejestracja",
				"strefa niskich cen",
			},
			DescriptionHeading: `Opis produktu`,
			NutritionHeading:   `Wartości odżywcze`,
			SectionCharCap:     2500,
			NutritionLineCap:   120,
			TitleSiteName:      "Mamyito",
		},
		Browser: Browser{
			Headless:        true,
			MaxScrollRounds: 140,
			StableRounds:    4,
			ScrollPause:     time.Second,
			WindowSize:      "1280,900",
		},
		Storage: Storage{
			OutputPath:      "./data/products.csv",
			Delimiter:       ";",
			MongoURI:        "mongodb://localhost:27017",
			MongoDatabase:   "spizarka",
			MongoCollection: "products",
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsServing{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
