package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for etsylens.
type Config struct {
	Crawl   CrawlConfig   `mapstructure:"crawl"   yaml:"crawl"`
	Scrape  ScrapeConfig  `mapstructure:"scrape"  yaml:"scrape"`
	Search  SearchConfig  `mapstructure:"search"  yaml:"search"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Extract ExtractConfig `mapstructure:"extract" yaml:"extract"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// CrawlConfig controls the outer crawl loop.
type CrawlConfig struct {
	PromptsFile     string        `mapstructure:"prompts_file"       yaml:"prompts_file"`
	MaxURLsPerQuery int           `mapstructure:"max_urls_per_query" yaml:"max_urls_per_query"`
	Pause           time.Duration `mapstructure:"pause"              yaml:"pause"`
	Channels        []string      `mapstructure:"channels"           yaml:"channels"`
}

// ScrapeConfig controls the scraping backend client and the retry controller.
type ScrapeConfig struct {
	Endpoint      string        `mapstructure:"endpoint"        yaml:"endpoint"`
	APIKey        string        `mapstructure:"api_key"         yaml:"api_key"`
	Timeout       time.Duration `mapstructure:"timeout"         yaml:"timeout"`
	TimeoutGrowth float64       `mapstructure:"timeout_growth"  yaml:"timeout_growth"`
	MaxAttempts   int           `mapstructure:"max_attempts"    yaml:"max_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"     yaml:"retry_delay"`
	SoftBlockMin  time.Duration `mapstructure:"soft_block_min"  yaml:"soft_block_min"`
	SoftBlockMax  time.Duration `mapstructure:"soft_block_max"  yaml:"soft_block_max"`
	URLDeadline   time.Duration `mapstructure:"url_deadline"    yaml:"url_deadline"`
}

// SearchConfig controls the LLM web-search client used by the GEO channel.
type SearchConfig struct {
	Endpoint string        `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey   string        `mapstructure:"api_key"  yaml:"api_key"`
	Model    string        `mapstructure:"model"    yaml:"model"`
	Timeout  time.Duration `mapstructure:"timeout"  yaml:"timeout"`
}

// StorageConfig controls artifact and run-log persistence.
type StorageConfig struct {
	SEODir          string `mapstructure:"seo_dir"          yaml:"seo_dir"`
	GEODir          string `mapstructure:"geo_dir"          yaml:"geo_dir"`
	MongoURI        string `mapstructure:"mongo_uri"        yaml:"mongo_uri"`
	MongoDatabase   string `mapstructure:"mongo_database"   yaml:"mongo_database"`
	MongoCollection string `mapstructure:"mongo_collection" yaml:"mongo_collection"`
}

// ExtractConfig controls the extraction pipeline outputs.
type ExtractConfig struct {
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Crawl: CrawlConfig{
			PromptsFile:     "prompts.txt",
			MaxURLsPerQuery: 10,
			Pause:           1 * time.Second,
			Channels:        []string{"SEO", "GEO"},
		},
		Scrape: ScrapeConfig{
			Endpoint:      "https://api.firecrawl.dev",
			Timeout:       300 * time.Second,
			TimeoutGrowth: 1.5,
			MaxAttempts:   3,
			RetryDelay:    3 * time.Second,
			SoftBlockMin:  10 * time.Second,
			SoftBlockMax:  20 * time.Second,
			URLDeadline:   0, // unbounded
		},
		Search: SearchConfig{
			Endpoint: "https://api.openai.com/v1",
			Model:    "gpt-5",
			Timeout:  120 * time.Second,
		},
		Storage: StorageConfig{
			SEODir: "outputs_etsy_final",
			GEODir: "outputs_GEO_final",
		},
		Extract: ExtractConfig{
			OutputDir: ".",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}
