package types

import (
	"time"
)

// Channel identifies the discovery strategy that produced a listing URL.
type Channel string

const (
	// ChannelSEO discovers listings by scraping the marketplace search page.
	ChannelSEO Channel = "SEO"
	// ChannelGEO discovers listings through an LLM web-search call.
	ChannelGEO Channel = "GEO"
)

// Channels returns both discovery channels in their canonical order.
func Channels() []Channel {
	return []Channel{ChannelSEO, ChannelGEO}
}

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	return c == ChannelSEO || c == ChannelGEO
}

func (c Channel) String() string { return string(c) }

// Listing is one candidate product URL resolved for a query under a channel.
// Rank is 1-based discovery order after deduplication.
type Listing struct {
	Prompt  string
	QueryID string
	Channel Channel
	Rank    int
	URL     string
}

// ArtifactPaths holds the three per-listing artifact locations.
type ArtifactPaths struct {
	Markdown string
	HTML     string
	JSON     string
}

// FetchStatus is the terminal outcome of fetching one listing.
type FetchStatus string

const (
	StatusSuccess FetchStatus = "success"
	StatusFail    FetchStatus = "fail"
)

// FetchResult reports the outcome of the retry controller for one URL.
type FetchResult struct {
	Status   FetchStatus
	Paths    ArtifactPaths
	Attempts int
	Elapsed  time.Duration
	Err      error
}

// AttemptLog is one run-log row per listing fetch outcome.
type AttemptLog struct {
	Time      time.Time
	Channel   Channel
	QueryID   string
	Prompt    string
	Rank      int
	URL       string
	URLSlug   string
	Status    FetchStatus
	Paths     ArtifactPaths
	Attempts  int
	Elapsed   time.Duration
	SearchURL string // SEO only: the search page the URL came from
}
