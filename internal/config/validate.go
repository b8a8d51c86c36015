package config

import (
	"fmt"
	"net/url"
	"regexp"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Harvest.Concurrency < 1 {
		return fmt.Errorf("harvest.concurrency must be >= 1, got %d", cfg.Harvest.Concurrency)
	}
	if cfg.Harvest.Concurrency > 1000 {
		return fmt.Errorf("harvest.concurrency must be <= 1000, got %d", cfg.Harvest.Concurrency)
	}
	if cfg.Harvest.PageLimit < 1 {
		return fmt.Errorf("harvest.page_limit must be >= 1, got %d", cfg.Harvest.PageLimit)
	}
	if cfg.Harvest.MaxPages < 1 {
		return fmt.Errorf("harvest.max_pages must be >= 1, got %d", cfg.Harvest.MaxPages)
	}
	if cfg.Harvest.PageDelay < 0 {
		return fmt.Errorf("harvest.page_delay must be >= 0")
	}
	if cfg.Harvest.Endpoint != "" {
		if _, err := url.Parse(cfg.Harvest.Endpoint); err != nil {
			return fmt.Errorf("invalid harvest.endpoint %q: %w", cfg.Harvest.Endpoint, err)
		}
	}

	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.MaxRetries < 0 {
		return fmt.Errorf("fetcher.max_retries must be >= 0, got %d", cfg.Fetcher.MaxRetries)
	}
	if cfg.Fetcher.RetryBackoff < 0 {
		return fmt.Errorf("fetcher.retry_backoff must be >= 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}

	if cfg.Extract.RootAnchorText == "" {
		return fmt.Errorf("extract.root_anchor_text must not be empty")
	}
	if cfg.Extract.MaxAncestorLevels < 1 {
		return fmt.Errorf("extract.max_ancestor_levels must be >= 1, got %d", cfg.Extract.MaxAncestorLevels)
	}
	if cfg.Extract.SectionCharCap < 1 {
		return fmt.Errorf("extract.section_char_cap must be >= 1, got %d", cfg.Extract.SectionCharCap)
	}
	if cfg.Extract.NutritionLineCap < 1 {
		return fmt.Errorf("extract.nutrition_line_cap must be >= 1, got %d", cfg.Extract.NutritionLineCap)
	}
	for _, expr := range []string{cfg.Extract.DescriptionHeading, cfg.Extract.NutritionHeading} {
		if _, err := regexp.Compile(expr); err != nil {
			return fmt.Errorf("invalid heading regex %q: %w", expr, err)
		}
	}

	if cfg.Storage.Delimiter != ";" && cfg.Storage.Delimiter != "," {
		return fmt.Errorf("storage.delimiter must be ';' or ',', got %q", cfg.Storage.Delimiter)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level %q is not supported (valid: debug, info, warn, error)", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be in 1..65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks that a raw URL is a fetchable http(s) URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
