// Package crawl drives the acquisition phase: for every prompt and enabled
// channel it resolves candidate listing URLs, fetches each one through the
// retry controller, and records one run-log row per listing outcome.
package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuwenq/etsylens/internal/discover"
	"github.com/yuwenq/etsylens/internal/slug"
	"github.com/yuwenq/etsylens/internal/store"
	"github.com/yuwenq/etsylens/internal/types"
)

// Fetcher runs the bounded retry loop for one listing.
type Fetcher interface {
	Fetch(ctx context.Context, listing types.Listing) types.FetchResult
}

// RawRecorder persists the unprocessed web-search answer for a query.
type RawRecorder interface {
	WriteRawSearchOutput(ch types.Channel, queryID, prompt, raw string) error
}

// Options bounds one crawl run.
type Options struct {
	MaxURLsPerQuery int
	Pause           time.Duration // between consecutive listing fetches
}

// Orchestrator walks the prompt x channel matrix. A failed query or channel
// never aborts the run; every outcome lands in the channel's sink.
type Orchestrator struct {
	resolvers []discover.Resolver
	fetcher   Fetcher
	raw       RawRecorder
	sinks     map[types.Channel]store.Sink
	opts      Options
	logger    *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an orchestrator. sinks maps each resolver's channel to the sink
// receiving its run-log rows.
func New(resolvers []discover.Resolver, fetcher Fetcher, raw RawRecorder, sinks map[types.Channel]store.Sink, opts Options, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		resolvers: resolvers,
		fetcher:   fetcher,
		raw:       raw,
		sinks:     sinks,
		opts:      opts,
		logger:    logger.With("component", "orchestrator"),
		sleep:     sleepCtx,
	}
}

// Run crawls every prompt through every channel, then closes the sinks so
// each channel's summary is flushed. Only context cancellation or a sink
// failure stops the run early.
func (o *Orchestrator) Run(ctx context.Context, prompts []string) error {
	var success, fail int
	start := time.Now()

	defer func() {
		for ch, sink := range o.sinks {
			if err := sink.Close(); err != nil {
				o.logger.Error("closing sink failed", "channel", ch, "error", err)
			}
		}
	}()

	for qi, prompt := range prompts {
		queryID := slug.Query(prompt)
		o.logger.Info("crawling query", "query", qi+1, "total", len(prompts), "prompt", prompt, "query_id", queryID)

		for _, resolver := range o.resolvers {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			ch := resolver.Channel()
			res := resolver.Resolve(ctx, prompt, o.opts.MaxURLsPerQuery)

			if ch == types.ChannelGEO && res.RawText != "" && o.raw != nil {
				if err := o.raw.WriteRawSearchOutput(ch, queryID, prompt, res.RawText); err != nil {
					o.logger.Warn("saving raw search output failed", "query_id", queryID, "error", err)
				}
			}
			if len(res.URLs) == 0 {
				o.logger.Warn("no listing urls, skipping", "channel", ch, "prompt", prompt)
				continue
			}

			for i, u := range res.URLs {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				listing := types.Listing{
					Prompt:  prompt,
					QueryID: queryID,
					Channel: ch,
					Rank:    i + 1,
					URL:     u,
				}
				result := o.fetcher.Fetch(ctx, listing)
				if result.Status == types.StatusSuccess {
					success++
				} else {
					fail++
				}

				row := types.AttemptLog{
					Time:      time.Now(),
					Channel:   ch,
					QueryID:   queryID,
					Prompt:    prompt,
					Rank:      listing.Rank,
					URL:       u,
					URLSlug:   slug.URL(u),
					Status:    result.Status,
					Paths:     result.Paths,
					Attempts:  result.Attempts,
					Elapsed:   result.Elapsed,
					SearchURL: res.SearchURL,
				}
				if sink, ok := o.sinks[ch]; ok {
					if err := sink.Append(row); err != nil {
						return fmt.Errorf("recording fetch outcome: %w", err)
					}
				}

				if o.opts.Pause > 0 && i < len(res.URLs)-1 {
					if err := o.sleep(ctx, o.opts.Pause); err != nil {
						return err
					}
				}
			}
		}
	}

	o.logger.Info("crawl finished",
		"queries", len(prompts), "success", success, "fail", fail, "elapsed", time.Since(start))
	return nil
}

// SummaryPath returns the crawl summary location for a channel root.
func SummaryPath(root string, ch types.Channel) string {
	return filepath.Join(root, strings.ToLower(string(ch))+"_crawl_summary.csv")
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
