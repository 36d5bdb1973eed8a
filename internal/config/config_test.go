package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "etsylens.yaml")
	yaml := `
crawl:
  max_urls_per_query: 3
  pause: 2s
scrape:
  api_key: fc-test
  timeout: 30s
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Crawl.MaxURLsPerQuery != 3 {
		t.Errorf("max_urls_per_query = %d, want 3", cfg.Crawl.MaxURLsPerQuery)
	}
	if cfg.Crawl.Pause != 2*time.Second {
		t.Errorf("pause = %v, want 2s", cfg.Crawl.Pause)
	}
	if cfg.Scrape.Timeout != 30*time.Second {
		t.Errorf("scrape.timeout = %v, want 30s", cfg.Scrape.Timeout)
	}
	if cfg.Scrape.APIKey != "fc-test" {
		t.Errorf("scrape.api_key = %q", cfg.Scrape.APIKey)
	}
	// Defaults survive partial files.
	if cfg.Scrape.TimeoutGrowth != 1.5 {
		t.Errorf("timeout_growth = %v, want default 1.5", cfg.Scrape.TimeoutGrowth)
	}
	if cfg.Storage.SEODir != "outputs_etsy_final" {
		t.Errorf("seo_dir = %q, want default", cfg.Storage.SEODir)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero max urls", func(c *Config) { c.Crawl.MaxURLsPerQuery = 0 }},
		{"bad channel", func(c *Config) { c.Crawl.Channels = []string{"SEM"} }},
		{"zero timeout", func(c *Config) { c.Scrape.Timeout = 0 }},
		{"shrinking timeout", func(c *Config) { c.Scrape.TimeoutGrowth = 0.5 }},
		{"zero attempts", func(c *Config) { c.Scrape.MaxAttempts = 0 }},
		{"inverted soft block range", func(c *Config) { c.Scrape.SoftBlockMax = c.Scrape.SoftBlockMin - time.Second }},
		{"empty seo dir", func(c *Config) { c.Storage.SEODir = "" }},
		{"mongo uri without database", func(c *Config) { c.Storage.MongoURI = "mongodb://localhost"; c.Storage.MongoDatabase = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestValidateForCrawl(t *testing.T) {
	cfg := DefaultConfig()
	if err := ValidateForCrawl(cfg); err == nil {
		t.Error("expected error without scrape API key")
	}
	cfg.Scrape.APIKey = "fc-test"
	if err := ValidateForCrawl(cfg); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestGEOEnabled(t *testing.T) {
	cfg := DefaultConfig()
	if GEOEnabled(cfg) {
		t.Error("GEO should be disabled without a search API key")
	}
	cfg.Search.APIKey = "sk-test"
	if !GEOEnabled(cfg) {
		t.Error("GEO should be enabled with a key and GEO in channels")
	}
	cfg.Crawl.Channels = []string{"SEO"}
	if GEOEnabled(cfg) {
		t.Error("GEO should be disabled when not in channels")
	}
}
