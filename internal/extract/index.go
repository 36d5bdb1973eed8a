package extract

import (
	"github.com/yuwenq/etsylens/internal/store"
)

// IndexEntry is one master-index row: a slug group discovered on disk with
// its rank and the three artifact locations, whether or not each file exists.
type IndexEntry struct {
	Key
	URLSlug  string
	JSONPath string
	MDPath   string
	HTMLPath string
}

var indexHeader = []string{
	"query_id", "channel", "rank", "url_slug", "json_path", "md_path", "html_path",
}

// BuildIndex assigns ranks to slug groups by their sorted order within each
// (query, channel) pair. This extraction-time rank is the authoritative one;
// it may disagree with the discovery-time rank when slugs do not sort in
// first-seen order.
func BuildIndex(groups []store.ListingGroup) []IndexEntry {
	entries := make([]IndexEntry, 0, len(groups))
	rank := 0
	for i, g := range groups {
		if i == 0 || g.Channel != groups[i-1].Channel || g.QueryID != groups[i-1].QueryID {
			rank = 0
		}
		rank++
		entries = append(entries, IndexEntry{
			Key:      Key{QueryID: g.QueryID, Channel: g.Channel, Rank: rank},
			URLSlug:  g.Slug,
			JSONPath: g.Paths.JSON,
			MDPath:   g.Paths.Markdown,
			HTMLPath: g.Paths.HTML,
		})
	}
	return entries
}

func (e IndexEntry) cells() []string {
	return append(e.Key.cells(), e.URLSlug, e.JSONPath, e.MDPath, e.HTMLPath)
}
