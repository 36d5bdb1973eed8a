// Package scrape talks to the remote scraping backend. One round-trip can
// request several output formats at once, so a single call yields the whole
// markdown/HTML/structured-JSON artifact triple for a page.
package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/yuwenq/etsylens/internal/config"
	"github.com/yuwenq/etsylens/internal/httpx"
	"github.com/yuwenq/etsylens/internal/types"
)

// Format is a page rendition the backend can produce.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
)

// Options controls a single scrape call.
type Options struct {
	Formats []Format
	// Timeout is forwarded to the backend (milliseconds on the wire) and also
	// bounds the HTTP round-trip client-side.
	Timeout time.Duration
	// OnlyMainContent asks the backend to strip chrome. Listing pages keep the
	// full document so the markup extractor sees navigation and breadcrumbs.
	OnlyMainContent bool
}

// Result holds the renditions returned for one page.
type Result struct {
	Markdown string
	HTML     string
	JSON     map[string]any
}

// Client is the scraping backend API client.
type Client struct {
	endpoint string
	apiKey   string
	hc       *http.Client
	logger   *slog.Logger
}

// New creates a backend client from configuration.
func New(cfg config.ScrapeConfig, logger *slog.Logger) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		// No client-level timeout: per-call deadlines come from Options.
		hc:     httpx.NewClient(0),
		logger: logger.With("component", "scrape_client"),
	}
}

type scrapeRequest struct {
	URL             string `json:"url"`
	Formats         []any  `json:"formats"`
	OnlyMainContent bool   `json:"onlyMainContent"`
	TimeoutMs       int64  `json:"timeout,omitempty"`
}

type scrapeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    struct {
		Markdown string         `json:"markdown"`
		HTML     string         `json:"html"`
		JSON     map[string]any `json:"json"`
	} `json:"data"`
}

// Scrape fetches one URL in the requested formats.
func (c *Client) Scrape(ctx context.Context, pageURL string, opts Options) (*Result, error) {
	formats := make([]any, 0, len(opts.Formats))
	for _, f := range opts.Formats {
		if f == FormatJSON {
			formats = append(formats, map[string]any{
				"type":   "json",
				"schema": ProductSchema(),
			})
			continue
		}
		formats = append(formats, string(f))
	}

	reqBody := scrapeRequest{
		URL:             pageURL,
		Formats:         formats,
		OnlyMainContent: opts.OnlyMainContent,
	}
	if opts.Timeout > 0 {
		reqBody.TimeoutMs = opts.Timeout.Milliseconds()
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encode scrape request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v2/scrape", bytes.NewReader(payload))
	if err != nil {
		return nil, &types.FetchError{URL: pageURL, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, &types.FetchError{URL: pageURL, Err: err, Retryable: httpx.IsRetryable(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &types.FetchError{
			URL:        pageURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("backend returned %d: %s", resp.StatusCode, bytes.TrimSpace(body)),
			Retryable:  resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests,
		}
	}

	var parsed scrapeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &types.FetchError{URL: pageURL, Err: fmt.Errorf("decode backend response: %w", err), Retryable: true}
	}
	if !parsed.Success {
		return nil, &types.FetchError{URL: pageURL, Err: fmt.Errorf("backend error: %s", parsed.Error), Retryable: true}
	}

	c.logger.Debug("scrape complete",
		"url", pageURL,
		"formats", len(formats),
		"duration", time.Since(start),
	)

	return &Result{
		Markdown: parsed.Data.Markdown,
		HTML:     parsed.Data.HTML,
		JSON:     parsed.Data.JSON,
	}, nil
}
