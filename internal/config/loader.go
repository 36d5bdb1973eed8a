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

	v.SetEnvPrefix("ETSYLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("etsylens")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".etsylens"))
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
	v.SetDefault("crawl.prompts_file", cfg.Crawl.PromptsFile)
	v.SetDefault("crawl.max_urls_per_query", cfg.Crawl.MaxURLsPerQuery)
	v.SetDefault("crawl.pause", cfg.Crawl.Pause)
	v.SetDefault("crawl.channels", cfg.Crawl.Channels)

	v.SetDefault("scrape.endpoint", cfg.Scrape.Endpoint)
	v.SetDefault("scrape.timeout", cfg.Scrape.Timeout)
	v.SetDefault("scrape.timeout_growth", cfg.Scrape.TimeoutGrowth)
	v.SetDefault("scrape.max_attempts", cfg.Scrape.MaxAttempts)
	v.SetDefault("scrape.retry_delay", cfg.Scrape.RetryDelay)
	v.SetDefault("scrape.soft_block_min", cfg.Scrape.SoftBlockMin)
	v.SetDefault("scrape.soft_block_max", cfg.Scrape.SoftBlockMax)
	v.SetDefault("scrape.url_deadline", cfg.Scrape.URLDeadline)

	v.SetDefault("search.endpoint", cfg.Search.Endpoint)
	v.SetDefault("search.model", cfg.Search.Model)
	v.SetDefault("search.timeout", cfg.Search.Timeout)

	v.SetDefault("storage.seo_dir", cfg.Storage.SEODir)
	v.SetDefault("storage.geo_dir", cfg.Storage.GEODir)
	v.SetDefault("storage.mongo_uri", cfg.Storage.MongoURI)
	v.SetDefault("storage.mongo_database", cfg.Storage.MongoDatabase)
	v.SetDefault("storage.mongo_collection", cfg.Storage.MongoCollection)

	v.SetDefault("extract.output_dir", cfg.Extract.OutputDir)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)
}
