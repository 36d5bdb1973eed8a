// Package extract turns the on-disk artifact tree into flat CSV records: a
// master index of every slug group, one extraction pass per artifact format,
// and a left-joined master table. Each stage is total: a missing or broken
// artifact degrades that record's fields, never the record or the run.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yuwenq/etsylens/internal/types"
)

// styleKeywords are the style descriptors probed in listing prose.
var styleKeywords = []string{
	"y2k", "retro", "coquette", "minimalist", "modern",
	"cottagecore", "boho", "preppy", "aesthetic",
}

// persuasionKeywords are the persuasive phrases counted in listing prose.
var persuasionKeywords = []string{
	"Instant download", "Sale", "Limited",
	"Fast", "High-resolution", "Perfect for",
}

// Key identifies one record across the index and all per-format outputs.
type Key struct {
	QueryID string
	Channel types.Channel
	Rank    int
}

func (k Key) cells() []string {
	return []string{k.QueryID, string(k.Channel), strconv.Itoa(k.Rank)}
}

var firstNumber = regexp.MustCompile(`[\d.]+`)

// parsePrice pulls the first numeric substring out of a currency-formatted
// string. Returns nil when v is not a string or carries no number.
func parsePrice(v any) *float64 {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	m := firstNumber.FindString(s)
	if m == "" {
		return nil
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return nil
	}
	return &f
}

// Cell formatting: absent values render as empty CSV cells.

func cellString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func cellFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func cellInt(i int) string {
	return strconv.Itoa(i)
}

func cellBool(b bool) string {
	return strconv.FormatBool(b)
}

func strPtr(s string) *string { return &s }

func wordCount(s string) int {
	return len(strings.Fields(s))
}
