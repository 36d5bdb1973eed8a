package discover

import (
	"context"
	"log/slog"

	"github.com/yuwenq/etsylens/internal/types"
)

// geoInstruction steers the web search toward bare listing URLs.
const geoInstruction = "\nSearch the web and return ONLY a list of Etsy product URLs." +
	"\nDo NOT return JSON." +
	"\nDo NOT return structured data." +
	"\nReturn one URL per line, each starting with https://."

// WebSearcher runs a natural-language web search and returns the text answer.
type WebSearcher interface {
	SearchText(ctx context.Context, prompt string) (string, error)
}

// GEOResolver mines listing URLs out of an LLM web-search response.
type GEOResolver struct {
	searcher WebSearcher
	logger   *slog.Logger
}

// NewGEOResolver creates the web-search resolver.
func NewGEOResolver(searcher WebSearcher, logger *slog.Logger) *GEOResolver {
	return &GEOResolver{
		searcher: searcher,
		logger:   logger.With("component", "geo_resolver"),
	}
}

func (r *GEOResolver) Channel() types.Channel { return types.ChannelGEO }

// Resolve asks the web search for listing URLs and returns every distinct
// match in first-seen order, capped at maxURLs. The raw answer text is
// returned for persistence alongside the artifacts.
func (r *GEOResolver) Resolve(ctx context.Context, prompt string, maxURLs int) Resolution {
	r.logger.Info("resolving via web search", "prompt", prompt)

	raw, err := r.searcher.SearchText(ctx, prompt+geoInstruction)
	if err != nil {
		r.logger.Error("web search failed", "prompt", prompt, "error", err)
		return Resolution{}
	}

	var urls []string
	for _, m := range anyURL.FindAllString(raw, -1) {
		m = trimPunctuation(m)
		if isListingURL(m) {
			urls = append(urls, m)
		}
	}
	urls = dedupeAndCap(urls, maxURLs)
	r.logger.Info("web search resolved", "prompt", prompt, "urls", len(urls))
	return Resolution{URLs: urls, RawText: raw}
}
