// Package discover resolves candidate listing URLs for a query through two
// interchangeable channels: scraping the marketplace search page (SEO) and an
// LLM web search (GEO). Both degrade to an empty list on upstream errors; the
// orchestrator treats an empty list as "skip this query/channel".
package discover

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/yuwenq/etsylens/internal/types"
)

// listingURL matches marketplace listing-page URLs inside raw markup.
var listingURL = regexp.MustCompile(`https://www\.etsy\.com/listing/[0-9]+/[^\s"'<>]+`)

// anyURL matches candidate links inside free-form search output.
var anyURL = regexp.MustCompile(`https?://[^\s"'>]+`)

// Resolution is the outcome of URL discovery for one query.
type Resolution struct {
	URLs []string
	// SearchURL is the search page the SEO channel scraped.
	SearchURL string
	// RawText is the unprocessed web-search answer the GEO channel mined.
	RawText string
}

// Resolver turns a query prompt into a deduplicated, ranked URL list.
type Resolver interface {
	Channel() types.Channel
	Resolve(ctx context.Context, prompt string, maxURLs int) Resolution
}

// dedupeAndCap keeps first-seen order, drops duplicates, and truncates.
func dedupeAndCap(urls []string, max int) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
		if len(out) == max {
			break
		}
	}
	return out
}

// searchPageURL builds the deterministic marketplace search URL for a prompt.
func searchPageURL(prompt string) string {
	q := strings.ReplaceAll(prompt, " ", "+")
	return "https://www.etsy.com/search?q=" + q
}

// trimPunctuation strips trailing characters a sentence may have glued onto a
// bare URL in free text.
func trimPunctuation(u string) string {
	return strings.TrimRight(u, ".,)]")
}

// isListingURL reports whether a discovered link points at a listing page.
func isListingURL(raw string) bool {
	if !strings.Contains(raw, "etsy.com") || !strings.Contains(raw, "/listing/") {
		return false
	}
	_, err := url.Parse(raw)
	return err == nil
}
