package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and defaults.
// Priority (highest to lowest): env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("SPIZARKA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("spizarka")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".spizarka"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("harvest.concurrency", cfg.Harvest.Concurrency)
	v.SetDefault("harvest.report_every", cfg.Harvest.ReportEvery)
	v.SetDefault("harvest.endpoint", cfg.Harvest.Endpoint)
	v.SetDefault("harvest.shop_base_url", cfg.Harvest.ShopBaseURL)
	v.SetDefault("harvest.page_limit", cfg.Harvest.PageLimit)
	v.SetDefault("harvest.max_pages", cfg.Harvest.MaxPages)
	v.SetDefault("harvest.page_delay", cfg.Harvest.PageDelay)

	v.SetDefault("fetcher.request_timeout", cfg.Fetcher.RequestTimeout)
	v.SetDefault("fetcher.max_retries", cfg.Fetcher.MaxRetries)
	v.SetDefault("fetcher.retry_backoff", cfg.Fetcher.RetryBackoff)
	v.SetDefault("fetcher.retry_statuses", cfg.Fetcher.RetryStatuses)
	v.SetDefault("fetcher.max_idle_conns", cfg.Fetcher.MaxIdleConns)
	v.SetDefault("fetcher.idle_conn_timeout", cfg.Fetcher.IdleConnTimeout)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.user_agent", cfg.Fetcher.UserAgent)
	v.SetDefault("fetcher.accept_language", cfg.Fetcher.AcceptLanguage)

	v.SetDefault("extract.root_anchor_text", cfg.Extract.RootAnchorText)
	v.SetDefault("extract.max_ancestor_levels", cfg.Extract.MaxAncestorLevels)
	v.SetDefault("extract.container_blocklist", cfg.Extract.ContainerBlocklist)
	v.SetDefault("extract.description_heading", cfg.Extract.DescriptionHeading)
	v.SetDefault("extract.nutrition_heading", cfg.Extract.NutritionHeading)
	v.SetDefault("extract.section_char_cap", cfg.Extract.SectionCharCap)
	v.SetDefault("extract.nutrition_line_cap", cfg.Extract.NutritionLineCap)
	v.SetDefault("extract.title_site_name", cfg.Extract.TitleSiteName)

	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.max_scroll_rounds", cfg.Browser.MaxScrollRounds)
	v.SetDefault("browser.stable_rounds", cfg.Browser.StableRounds)
	v.SetDefault("browser.scroll_pause", cfg.Browser.ScrollPause)
	v.SetDefault("browser.window_size", cfg.Browser.WindowSize)

	v.SetDefault("storage.output_path", cfg.Storage.OutputPath)
	v.SetDefault("storage.delimiter", cfg.Storage.Delimiter)
	v.SetDefault("storage.mongo_uri", cfg.Storage.MongoURI)
	v.SetDefault("storage.mongo_database", cfg.Storage.MongoDatabase)
	v.SetDefault("storage.mongo_collection", cfg.Storage.MongoCollection)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
