// Package fetch implements the per-URL retry controller. It drives the
// scraping backend through a bounded attempt loop, distinguishing soft blocks
// (anti-automation challenge pages) from transport failures, and persists the
// artifact triple only on a fully successful round-trip.
package fetch

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"

	"github.com/yuwenq/etsylens/internal/config"
	"github.com/yuwenq/etsylens/internal/scrape"
	"github.com/yuwenq/etsylens/internal/slug"
	"github.com/yuwenq/etsylens/internal/types"
)

// SoftBlockMarker is the probe string identifying a JavaScript challenge page
// returned in place of real content.
const SoftBlockMarker = "Please enable JS"

// Scraper is the backend call the controller retries.
type Scraper interface {
	Scrape(ctx context.Context, url string, opts scrape.Options) (*scrape.Result, error)
}

// ArtifactWriter persists a complete triple; all three documents or none.
type ArtifactWriter interface {
	WriteTriple(ch types.Channel, queryID, urlSlug, markdown, html string, structured map[string]any) (types.ArtifactPaths, error)
}

// Config bounds the retry loop for one URL.
type Config struct {
	MaxAttempts   int
	BaseTimeout   time.Duration // per-attempt, grows on hard failures
	TimeoutGrowth float64       // multiplicative, applied after each hard failure
	RetryDelay    time.Duration // hard failure: delay = RetryDelay*attempt + jitter
	SoftBlockMin  time.Duration // soft failure: uniform delay in [min, max]
	SoftBlockMax  time.Duration
	URLDeadline   time.Duration // overall per-URL ceiling; 0 = unbounded
}

// FromScrapeConfig maps the scrape section onto controller bounds.
func FromScrapeConfig(sc config.ScrapeConfig) Config {
	return Config{
		MaxAttempts:   sc.MaxAttempts,
		BaseTimeout:   sc.Timeout,
		TimeoutGrowth: sc.TimeoutGrowth,
		RetryDelay:    sc.RetryDelay,
		SoftBlockMin:  sc.SoftBlockMin,
		SoftBlockMax:  sc.SoftBlockMax,
		URLDeadline:   sc.URLDeadline,
	}
}

// Controller fetches one listing with bounded retries.
type Controller struct {
	scraper Scraper
	writer  ArtifactWriter
	cfg     Config
	logger  *slog.Logger
	md      *converter.Converter

	// Injectable for tests.
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(min, max time.Duration) time.Duration
}

// NewController creates a retry controller.
func NewController(scraper Scraper, writer ArtifactWriter, cfg Config, logger *slog.Logger) *Controller {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.TimeoutGrowth < 1 {
		cfg.TimeoutGrowth = 1.5
	}
	return &Controller{
		scraper: scraper,
		writer:  writer,
		cfg:     cfg,
		logger:  logger.With("component", "fetch_controller"),
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
		sleep:  sleepCtx,
		jitter: randomBetween,
	}
}

// Fetch runs the attempt loop for one listing. The returned result is
// terminal: success with artifact paths, or failure after the attempt budget
// is spent. Soft and hard failures consume the same budget.
func (c *Controller) Fetch(ctx context.Context, listing types.Listing) types.FetchResult {
	if c.cfg.URLDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.URLDeadline)
		defer cancel()
	}

	urlSlug := slug.URL(listing.URL)
	logger := c.logger.With("channel", listing.Channel, "url", listing.URL, "slug", urlSlug)

	timeout := c.cfg.BaseTimeout
	start := time.Now()
	var lastErr error

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		logger.Info("fetching", "attempt", attempt, "max_attempts", c.cfg.MaxAttempts, "timeout", timeout)

		res, err := c.scraper.Scrape(ctx, listing.URL, scrape.Options{
			Formats: []scrape.Format{scrape.FormatMarkdown, scrape.FormatHTML, scrape.FormatJSON},
			Timeout: timeout,
		})

		switch {
		case err == nil && strings.Contains(res.HTML, SoftBlockMarker):
			lastErr = &types.FetchError{URL: listing.URL, Err: types.ErrSoftBlock, SoftBlock: true}
			if attempt == c.cfg.MaxAttempts {
				break
			}
			delay := c.jitter(c.cfg.SoftBlockMin, c.cfg.SoftBlockMax)
			logger.Warn("soft block detected, backing off", "attempt", attempt, "delay", delay)
			if serr := c.sleep(ctx, delay); serr != nil {
				return c.failure(attempt, start, serr)
			}

		case err != nil:
			lastErr = err
			if ctx.Err() != nil {
				logger.Warn("per-url deadline reached", "attempt", attempt)
				return c.failure(attempt, start, lastErr)
			}
			var fe *types.FetchError
			if errors.As(err, &fe) && !fe.Retryable {
				logger.Warn("permanent failure, giving up", "attempt", attempt, "error", err)
				return c.failure(attempt, start, lastErr)
			}
			delay := time.Duration(attempt)*c.cfg.RetryDelay + c.jitter(time.Second, 3*time.Second)
			timeout = time.Duration(float64(timeout) * c.cfg.TimeoutGrowth)
			if attempt == c.cfg.MaxAttempts {
				break
			}
			logger.Warn("fetch failed, retrying",
				"attempt", attempt, "error", err, "delay", delay, "next_timeout", timeout)
			if serr := c.sleep(ctx, delay); serr != nil {
				return c.failure(attempt, start, lastErr)
			}

		default:
			markdown := res.Markdown
			if markdown == "" && res.HTML != "" {
				if converted, cerr := c.md.ConvertString(res.HTML); cerr == nil {
					markdown = converted
				}
			}
			paths, werr := c.writer.WriteTriple(listing.Channel, listing.QueryID, urlSlug, markdown, res.HTML, res.JSON)
			if werr != nil {
				logger.Error("artifact write failed", "error", werr)
				return c.failure(attempt, start, werr)
			}
			elapsed := time.Since(start)
			logger.Info("fetch succeeded", "attempt", attempt, "elapsed", elapsed)
			return types.FetchResult{
				Status:   types.StatusSuccess,
				Paths:    paths,
				Attempts: attempt,
				Elapsed:  elapsed,
			}
		}
	}

	logger.Error("all attempts failed", "attempts", c.cfg.MaxAttempts, "error", lastErr)
	return c.failure(c.cfg.MaxAttempts, start, lastErr)
}

func (c *Controller) failure(attempts int, start time.Time, err error) types.FetchResult {
	if err == nil {
		err = types.ErrRetriesExhausted
	}
	return types.FetchResult{
		Status:   types.StatusFail,
		Attempts: attempts,
		Elapsed:  time.Since(start),
		Err:      err,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func randomBetween(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}
