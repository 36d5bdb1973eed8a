package config

import (
	"fmt"
	"net/url"

	"github.com/yuwenq/etsylens/internal/types"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Crawl.MaxURLsPerQuery < 1 {
		return fmt.Errorf("crawl.max_urls_per_query must be >= 1, got %d", cfg.Crawl.MaxURLsPerQuery)
	}
	if cfg.Crawl.Pause < 0 {
		return fmt.Errorf("crawl.pause must be >= 0")
	}
	for _, ch := range cfg.Crawl.Channels {
		if !types.Channel(ch).Valid() {
			return fmt.Errorf("crawl.channels entry %q is not supported (valid: SEO, GEO)", ch)
		}
	}

	if cfg.Scrape.Timeout <= 0 {
		return fmt.Errorf("scrape.timeout must be > 0")
	}
	if cfg.Scrape.TimeoutGrowth < 1.0 {
		return fmt.Errorf("scrape.timeout_growth must be >= 1.0, got %v", cfg.Scrape.TimeoutGrowth)
	}
	if cfg.Scrape.MaxAttempts < 1 {
		return fmt.Errorf("scrape.max_attempts must be >= 1, got %d", cfg.Scrape.MaxAttempts)
	}
	if cfg.Scrape.RetryDelay < 0 {
		return fmt.Errorf("scrape.retry_delay must be >= 0")
	}
	if cfg.Scrape.SoftBlockMin < 0 || cfg.Scrape.SoftBlockMax < cfg.Scrape.SoftBlockMin {
		return fmt.Errorf("scrape soft block delay range [%v, %v] is invalid",
			cfg.Scrape.SoftBlockMin, cfg.Scrape.SoftBlockMax)
	}
	if _, err := url.Parse(cfg.Scrape.Endpoint); err != nil {
		return fmt.Errorf("invalid scrape.endpoint %q: %w", cfg.Scrape.Endpoint, err)
	}

	if cfg.Storage.SEODir == "" || cfg.Storage.GEODir == "" {
		return fmt.Errorf("storage.seo_dir and storage.geo_dir must be set")
	}
	if cfg.Storage.MongoURI != "" {
		if cfg.Storage.MongoDatabase == "" || cfg.Storage.MongoCollection == "" {
			return fmt.Errorf("storage.mongo_database and storage.mongo_collection are required when storage.mongo_uri is set")
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}

// ValidateForCrawl checks credentials and inputs the crawl phase cannot run
// without. A missing scraping-backend key aborts before any network activity;
// a missing search key only disables the GEO channel (the caller decides).
func ValidateForCrawl(cfg *Config) error {
	if cfg.Scrape.APIKey == "" {
		return fmt.Errorf("scrape.api_key: %w", types.ErrMissingAPIKey)
	}
	if cfg.Crawl.PromptsFile == "" {
		return types.ErrNoPrompts
	}
	return nil
}

// GEOEnabled reports whether the GEO channel is both requested and usable.
func GEOEnabled(cfg *Config) bool {
	if cfg.Search.APIKey == "" {
		return false
	}
	for _, ch := range cfg.Crawl.Channels {
		if types.Channel(ch) == types.ChannelGEO {
			return true
		}
	}
	return false
}
