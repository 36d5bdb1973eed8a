package fetch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/yuwenq/etsylens/internal/scrape"
	"github.com/yuwenq/etsylens/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeScraper replays scripted outcomes and records the timeout of each call.
type fakeScraper struct {
	outcomes []fakeOutcome
	timeouts []time.Duration
	calls    int
}

type fakeOutcome struct {
	res *scrape.Result
	err error
}

func (f *fakeScraper) Scrape(ctx context.Context, url string, opts scrape.Options) (*scrape.Result, error) {
	f.timeouts = append(f.timeouts, opts.Timeout)
	out := f.outcomes[f.calls]
	if f.calls < len(f.outcomes)-1 {
		f.calls++
	}
	return out.res, out.err
}

// fakeWriter records triple writes.
type fakeWriter struct {
	writes int
	err    error
}

func (f *fakeWriter) WriteTriple(ch types.Channel, queryID, urlSlug, markdown, html string, structured map[string]any) (types.ArtifactPaths, error) {
	if f.err != nil {
		return types.ArtifactPaths{}, f.err
	}
	f.writes++
	return types.ArtifactPaths{Markdown: urlSlug + ".md", HTML: urlSlug + ".html", JSON: urlSlug + "_full.json"}, nil
}

func testConfig() Config {
	return Config{
		MaxAttempts:   3,
		BaseTimeout:   100 * time.Second,
		TimeoutGrowth: 1.5,
		RetryDelay:    3 * time.Second,
		SoftBlockMin:  10 * time.Second,
		SoftBlockMax:  20 * time.Second,
	}
}

func newTestController(s Scraper, w ArtifactWriter, cfg Config) (*Controller, *[]time.Duration) {
	c := NewController(s, w, cfg, testLogger)
	slept := &[]time.Duration{}
	c.sleep = func(ctx context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	}
	c.jitter = func(min, max time.Duration) time.Duration { return min }
	return c, slept
}

func listing() types.Listing {
	return types.Listing{
		Prompt:  "vintage lamp",
		QueryID: "vintage_lamp",
		Channel: types.ChannelSEO,
		Rank:    1,
		URL:     "https://www.etsy.com/listing/1/lamp",
	}
}

func goodResult() *scrape.Result {
	return &scrape.Result{
		Markdown: "# Lamp",
		HTML:     "<html>lamp</html>",
		JSON:     map[string]any{"title": "Lamp"},
	}
}

func TestFetchSucceedsFirstAttempt(t *testing.T) {
	s := &fakeScraper{outcomes: []fakeOutcome{{res: goodResult()}}}
	w := &fakeWriter{}
	c, slept := newTestController(s, w, testConfig())

	res := c.Fetch(context.Background(), listing())
	if res.Status != types.StatusSuccess {
		t.Fatalf("status = %s, err = %v", res.Status, res.Err)
	}
	if res.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", res.Attempts)
	}
	if w.writes != 1 {
		t.Errorf("writes = %d, want 1", w.writes)
	}
	if len(*slept) != 0 {
		t.Errorf("unexpected sleeps: %v", *slept)
	}
	if res.Paths.JSON == "" {
		t.Error("success result missing artifact paths")
	}
}

func TestFetchSoftBlockRetriesWithoutTimeoutGrowth(t *testing.T) {
	blocked := &scrape.Result{HTML: "<html>Please enable JS to continue</html>"}
	s := &fakeScraper{outcomes: []fakeOutcome{{res: blocked}, {res: goodResult()}}}
	w := &fakeWriter{}
	c, slept := newTestController(s, w, testConfig())

	res := c.Fetch(context.Background(), listing())
	if res.Status != types.StatusSuccess {
		t.Fatalf("status = %s", res.Status)
	}
	if res.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", res.Attempts)
	}
	// Challenge page must never be persisted.
	if w.writes != 1 {
		t.Errorf("writes = %d, want 1", w.writes)
	}
	// Soft failures do not grow the timeout.
	if s.timeouts[1] != s.timeouts[0] {
		t.Errorf("timeout grew after soft block: %v -> %v", s.timeouts[0], s.timeouts[1])
	}
	// Soft delay comes from the configured range.
	if len(*slept) != 1 || (*slept)[0] != 10*time.Second {
		t.Errorf("sleeps = %v, want one 10s soft-block delay", *slept)
	}
}

func TestFetchSoftBlockExhaustsBudget(t *testing.T) {
	blocked := &scrape.Result{HTML: "x Please enable JS x"}
	s := &fakeScraper{outcomes: []fakeOutcome{{res: blocked}}}
	w := &fakeWriter{}
	c, _ := newTestController(s, w, testConfig())

	res := c.Fetch(context.Background(), listing())
	if res.Status != types.StatusFail {
		t.Fatal("persistent soft block must not be treated as success")
	}
	if res.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", res.Attempts)
	}
	if w.writes != 0 {
		t.Errorf("writes = %d, want 0 (no partial artifacts)", w.writes)
	}
	var fe *types.FetchError
	if !errors.As(res.Err, &fe) || !fe.SoftBlock {
		t.Errorf("err = %v, want soft-block FetchError", res.Err)
	}
}

func TestFetchHardFailureGrowsTimeoutAndDelay(t *testing.T) {
	boom := errors.New("backend exploded")
	s := &fakeScraper{outcomes: []fakeOutcome{{err: boom}}}
	w := &fakeWriter{}
	c, slept := newTestController(s, w, testConfig())

	res := c.Fetch(context.Background(), listing())
	if res.Status != types.StatusFail {
		t.Fatal("expected failure")
	}
	if res.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", res.Attempts)
	}
	if len(s.timeouts) != 3 {
		t.Fatalf("scrape calls = %d, want 3", len(s.timeouts))
	}
	// Each attempt's timeout grows by at least the configured factor.
	for i := 1; i < len(s.timeouts); i++ {
		want := time.Duration(float64(s.timeouts[i-1]) * 1.5)
		if s.timeouts[i] < want {
			t.Errorf("attempt %d timeout = %v, want >= %v", i+1, s.timeouts[i], want)
		}
	}
	// Linear backoff: base*attempt + jitter (jitter pinned to 1s in tests).
	wantSleeps := []time.Duration{3*time.Second + time.Second, 6*time.Second + time.Second}
	if len(*slept) != 2 {
		t.Fatalf("sleeps = %v, want 2", *slept)
	}
	for i, want := range wantSleeps {
		if (*slept)[i] != want {
			t.Errorf("sleep %d = %v, want %v", i, (*slept)[i], want)
		}
	}
	if !errors.Is(res.Err, boom) {
		t.Errorf("err = %v, want wrapped cause", res.Err)
	}
}

func TestFetchPermanentFailureStopsEarly(t *testing.T) {
	notFound := &types.FetchError{URL: "x", StatusCode: 404, Err: errors.New("backend returned 404"), Retryable: false}
	s := &fakeScraper{outcomes: []fakeOutcome{{err: notFound}}}
	w := &fakeWriter{}
	c, slept := newTestController(s, w, testConfig())

	res := c.Fetch(context.Background(), listing())
	if res.Status != types.StatusFail {
		t.Fatal("expected failure")
	}
	if res.Attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on permanent failure)", res.Attempts)
	}
	if len(*slept) != 0 {
		t.Errorf("unexpected sleeps: %v", *slept)
	}
}

func TestFetchWriteFailureIsTerminal(t *testing.T) {
	s := &fakeScraper{outcomes: []fakeOutcome{{res: goodResult()}}}
	w := &fakeWriter{err: errors.New("disk full")}
	c, _ := newTestController(s, w, testConfig())

	res := c.Fetch(context.Background(), listing())
	if res.Status != types.StatusFail {
		t.Fatal("write failure must surface as fetch failure")
	}
	if w.writes != 0 {
		t.Errorf("writes = %d, want 0", w.writes)
	}
}

func TestFetchDerivesMarkdownFromHTML(t *testing.T) {
	var gotMarkdown string
	s := &fakeScraper{outcomes: []fakeOutcome{{res: &scrape.Result{
		HTML: "<html><body><h1>Lamp</h1></body></html>",
	}}}}
	w := &markdownCapturingWriter{got: &gotMarkdown}
	c, _ := newTestController(s, w, testConfig())

	res := c.Fetch(context.Background(), listing())
	if res.Status != types.StatusSuccess {
		t.Fatalf("status = %s", res.Status)
	}
	if gotMarkdown == "" {
		t.Error("empty backend markdown should be derived from HTML")
	}
}

type markdownCapturingWriter struct {
	got *string
}

func (m *markdownCapturingWriter) WriteTriple(ch types.Channel, queryID, urlSlug, markdown, html string, structured map[string]any) (types.ArtifactPaths, error) {
	*m.got = markdown
	return types.ArtifactPaths{}, nil
}

func TestFetchRespectsURLDeadline(t *testing.T) {
	cfg := testConfig()
	cfg.URLDeadline = time.Millisecond
	s := &slowFailingScraper{delay: 10 * time.Millisecond}
	w := &fakeWriter{}
	c, _ := newTestController(s, w, cfg)

	res := c.Fetch(context.Background(), listing())
	if res.Status != types.StatusFail {
		t.Fatal("expected failure")
	}
	if res.Attempts >= cfg.MaxAttempts {
		t.Errorf("attempts = %d, want early exit before budget", res.Attempts)
	}
}

// slowFailingScraper outlives the per-URL deadline, then fails.
type slowFailingScraper struct {
	delay time.Duration
}

func (s *slowFailingScraper) Scrape(ctx context.Context, url string, opts scrape.Options) (*scrape.Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(s.delay):
		return nil, context.DeadlineExceeded
	}
}
