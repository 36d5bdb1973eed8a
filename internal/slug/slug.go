// Package slug derives filesystem-safe identifiers for queries and URLs.
//
// Slugs are deterministic and idempotent so repeated runs resolve to the same
// artifact paths. Two distinct inputs can collide after filtering and
// truncation; the artifact store logs overwrites but does not resolve them.
package slug

import "regexp"

const (
	// MaxQueryLen bounds query directory names.
	MaxQueryLen = 50
	// MaxURLLen bounds per-listing file name stems.
	MaxURLLen = 80

	filler = "_"
)

// queryDisallowed matches everything outside the query allow-set: letters,
// digits, underscore, hyphen, ASCII and fullwidth parentheses, and CJK.
var queryDisallowed = regexp.MustCompile(`[^a-zA-Z0-9_()（）\x{4e00}-\x{9fa5}-]`)

// urlDisallowed matches everything outside the URL allow-set.
var urlDisallowed = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// Query returns the slug used as a query subdirectory name.
func Query(prompt string) string {
	return queryDisallowed.ReplaceAllString(truncate(prompt, MaxQueryLen), filler)
}

// URL returns the slug used as a listing file name stem.
func URL(rawURL string) string {
	return urlDisallowed.ReplaceAllString(truncate(rawURL, MaxURLLen), filler)
}

// truncate cuts s to at most max runes without splitting a rune.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
