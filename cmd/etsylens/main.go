package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yuwenq/etsylens/internal/config"
	"github.com/yuwenq/etsylens/internal/crawl"
	"github.com/yuwenq/etsylens/internal/discover"
	"github.com/yuwenq/etsylens/internal/extract"
	"github.com/yuwenq/etsylens/internal/fetch"
	"github.com/yuwenq/etsylens/internal/prompts"
	"github.com/yuwenq/etsylens/internal/scrape"
	"github.com/yuwenq/etsylens/internal/store"
	"github.com/yuwenq/etsylens/internal/types"
	"github.com/yuwenq/etsylens/internal/websearch"
)

var (
	cfgFile     string
	verbose     bool
	promptsFile string
	maxURLs     int
	outputDir   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "etsylens",
		Short: "etsylens — Etsy listing acquisition and normalization pipeline",
		Long: `etsylens crawls Etsy product listings for a set of search prompts through
two discovery channels (search-page scraping and LLM web search), persists a
markdown/HTML/structured-JSON artifact triple per listing, and flattens the
artifact tree into analysis-ready CSV tables.`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(crawlCmd())
	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// crawlCmd creates the "crawl" subcommand.
func crawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Resolve and fetch listings for every prompt",
		Long:  "Resolve candidate listing URLs per prompt and channel, fetch each with adaptive retry, and persist artifact triples plus per-channel crawl summaries.",
		RunE:  runCrawl,
	}
	cmd.Flags().StringVarP(&promptsFile, "prompts", "p", "", "prompts file (.txt one per line, or .csv)")
	cmd.Flags().IntVarP(&maxURLs, "max-urls", "m", 0, "max listing URLs per query and channel (0 = config default)")
	return cmd
}

// runCrawl executes the crawl command.
func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if promptsFile != "" {
		cfg.Crawl.PromptsFile = promptsFile
	}
	if maxURLs > 0 {
		cfg.Crawl.MaxURLsPerQuery = maxURLs
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := config.ValidateForCrawl(cfg); err != nil {
		return err
	}
	logger := setupLogger(cfg)

	queries, err := prompts.Load(cfg.Crawl.PromptsFile)
	if err != nil {
		return err
	}

	artifacts := store.NewArtifactStore(cfg.Storage.SEODir, cfg.Storage.GEODir, logger)
	scraper := scrape.New(cfg.Scrape, logger)
	controller := fetch.NewController(scraper, artifacts, fetch.FromScrapeConfig(cfg.Scrape), logger)

	var resolvers []discover.Resolver
	for _, name := range cfg.Crawl.Channels {
		switch types.Channel(name) {
		case types.ChannelSEO:
			resolvers = append(resolvers, discover.NewSEOResolver(scraper, cfg.Scrape.Timeout, logger))
		case types.ChannelGEO:
			if !config.GEOEnabled(cfg) {
				logger.Warn("geo channel requested but search.api_key is unset, skipping")
				continue
			}
			resolvers = append(resolvers, discover.NewGEOResolver(websearch.New(cfg.Search, logger), logger))
		}
	}
	if len(resolvers) == 0 {
		return fmt.Errorf("no usable discovery channels configured")
	}

	sinks, err := buildSinks(cfg, resolvers, artifacts, logger)
	if err != nil {
		return err
	}

	orch := crawl.New(resolvers, controller, artifacts, sinks, crawl.Options{
		MaxURLsPerQuery: cfg.Crawl.MaxURLsPerQuery,
		Pause:           cfg.Crawl.Pause,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting crawl",
		"prompts", len(queries),
		"channels", len(resolvers),
		"max_urls_per_query", cfg.Crawl.MaxURLsPerQuery,
	)
	start := time.Now()
	if err := orch.Run(ctx, queries); err != nil {
		return fmt.Errorf("crawl: %w", err)
	}

	fmt.Printf("\nCrawl complete in %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("   SEO output:  %s\n", cfg.Storage.SEODir)
	fmt.Printf("   GEO output:  %s\n", cfg.Storage.GEODir)
	return nil
}

// buildSinks creates one run-log sink per enabled channel, mirrored to
// MongoDB when configured.
func buildSinks(cfg *config.Config, resolvers []discover.Resolver, artifacts *store.ArtifactStore, logger *slog.Logger) (map[types.Channel]store.Sink, error) {
	sinks := make(map[types.Channel]store.Sink)
	for _, r := range resolvers {
		ch := r.Channel()
		var sink store.Sink = store.NewCSVSink(crawl.SummaryPath(artifacts.Root(ch), ch), logger)
		if cfg.Storage.MongoURI != "" {
			mongoSink, err := store.NewMongoSink(cfg.Storage.MongoURI, cfg.Storage.MongoDatabase, cfg.Storage.MongoCollection, logger)
			if err != nil {
				return nil, fmt.Errorf("mongo sink: %w", err)
			}
			sink = store.NewMultiSink(logger, sink, mongoSink)
		}
		sinks[ch] = sink
	}
	return sinks, nil
}

// extractCmd creates the "extract" subcommand.
func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Flatten crawled artifacts into CSV tables",
		Long:  "Scan the artifact tree, build the master index, extract per-format fields, and write the merged analysis tables.",
		RunE:  runExtract,
	}
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for the CSV tables (default from config)")
	return cmd
}

// runExtract executes the extract command.
func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if outputDir != "" {
		cfg.Extract.OutputDir = outputDir
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger := setupLogger(cfg)

	artifacts := store.NewArtifactStore(cfg.Storage.SEODir, cfg.Storage.GEODir, logger)
	pipeline := extract.NewPipeline(artifacts, cfg.Extract.OutputDir, logger)

	start := time.Now()
	if err := pipeline.Run(); err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	fmt.Printf("\nExtraction complete in %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("   Output: %s\n", cfg.Extract.OutputDir)
	return nil
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Crawl:\n")
			fmt.Printf("  Prompts File:       %s\n", cfg.Crawl.PromptsFile)
			fmt.Printf("  Max URLs per Query: %d\n", cfg.Crawl.MaxURLsPerQuery)
			fmt.Printf("  Pause:              %s\n", cfg.Crawl.Pause)
			fmt.Printf("  Channels:           %v\n", cfg.Crawl.Channels)
			fmt.Printf("\nScrape:\n")
			fmt.Printf("  Endpoint:           %s\n", cfg.Scrape.Endpoint)
			fmt.Printf("  API Key Set:        %v\n", cfg.Scrape.APIKey != "")
			fmt.Printf("  Timeout:            %s\n", cfg.Scrape.Timeout)
			fmt.Printf("  Timeout Growth:     %.2f\n", cfg.Scrape.TimeoutGrowth)
			fmt.Printf("  Max Attempts:       %d\n", cfg.Scrape.MaxAttempts)
			fmt.Printf("  Retry Delay:        %s\n", cfg.Scrape.RetryDelay)
			fmt.Printf("  Soft Block Delay:   %s - %s\n", cfg.Scrape.SoftBlockMin, cfg.Scrape.SoftBlockMax)
			fmt.Printf("  URL Deadline:       %s\n", deadlineString(cfg.Scrape.URLDeadline))
			fmt.Printf("\nSearch:\n")
			fmt.Printf("  Endpoint:           %s\n", cfg.Search.Endpoint)
			fmt.Printf("  Model:              %s\n", cfg.Search.Model)
			fmt.Printf("  API Key Set:        %v\n", cfg.Search.APIKey != "")
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  SEO Dir:            %s\n", cfg.Storage.SEODir)
			fmt.Printf("  GEO Dir:            %s\n", cfg.Storage.GEODir)
			fmt.Printf("  Mongo Mirror:       %v\n", cfg.Storage.MongoURI != "")
			fmt.Printf("\nExtract:\n")
			fmt.Printf("  Output Dir:         %s\n", cfg.Extract.OutputDir)
			fmt.Printf("\nLogging:\n")
			fmt.Printf("  Level:              %s\n", cfg.Logging.Level)
			fmt.Printf("  Format:             %s\n", cfg.Logging.Format)
			return nil
		},
	}
}

func deadlineString(d time.Duration) string {
	if d <= 0 {
		return "unbounded"
	}
	return d.String()
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("etsylens %s\n", config.Version)
		},
	}
}

// setupLogger creates a structured logger from the logging section.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	out := os.Stderr
	if cfg.Logging.Output == "stdout" {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler)
}
