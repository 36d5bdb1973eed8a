package discover

import (
	"context"
	"log/slog"
	"time"

	"github.com/yuwenq/etsylens/internal/scrape"
	"github.com/yuwenq/etsylens/internal/types"
)

// MarkupScraper fetches a page's markup without persisting it.
type MarkupScraper interface {
	Scrape(ctx context.Context, url string, opts scrape.Options) (*scrape.Result, error)
}

// SEOResolver extracts listing URLs from the marketplace search page.
type SEOResolver struct {
	scraper MarkupScraper
	timeout time.Duration
	logger  *slog.Logger
}

// NewSEOResolver creates the search-page resolver.
func NewSEOResolver(scraper MarkupScraper, timeout time.Duration, logger *slog.Logger) *SEOResolver {
	return &SEOResolver{
		scraper: scraper,
		timeout: timeout,
		logger:  logger.With("component", "seo_resolver"),
	}
}

func (r *SEOResolver) Channel() types.Channel { return types.ChannelSEO }

// Resolve scrapes the search page for the prompt and returns every distinct
// listing URL in first-seen order, capped at maxURLs.
func (r *SEOResolver) Resolve(ctx context.Context, prompt string, maxURLs int) Resolution {
	searchURL := searchPageURL(prompt)
	r.logger.Info("resolving via search page", "prompt", prompt, "search_url", searchURL)

	res, err := r.scraper.Scrape(ctx, searchURL, scrape.Options{
		Formats: []scrape.Format{scrape.FormatHTML},
		Timeout: r.timeout,
	})
	if err != nil {
		r.logger.Error("search page scrape failed", "prompt", prompt, "error", err)
		return Resolution{SearchURL: searchURL}
	}

	urls := dedupeAndCap(listingURL.FindAllString(res.HTML, -1), maxURLs)
	r.logger.Info("search page resolved", "prompt", prompt, "urls", len(urls))
	return Resolution{URLs: urls, SearchURL: searchURL}
}
