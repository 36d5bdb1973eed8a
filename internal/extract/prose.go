package extract

import (
	"os"
	"regexp"
	"strings"

	"github.com/clipperhouse/uax29/v2/sentences"
)

// ProseRecord holds the fields derived from the markdown artifact.
type ProseRecord struct {
	Key
	Parsed bool

	WordCount              int
	SentenceCount          int
	AvgSentenceLength      float64
	NumBullets             int
	NumSections            int
	StyleDescriptorCount   int
	StyleDescriptorsUnique int
	PersuasionWordCount    int
	SentimentPolarity      float64
	CategoryPath           *string
	TopCategory            *string
}

var proseHeader = []string{
	"query_id", "channel", "rank",
	"md_word_count", "md_sentence_count", "md_avg_sentence_length",
	"md_num_bullets", "md_num_sections", "style_descriptor_count",
	"style_descriptors_unique", "persuasion_word_count",
	"md_sentiment_polarity", "md_category_path", "md_top_category",
}

var (
	markupChars  = regexp.MustCompile(`[#*\[\]()]`)
	bulletLine   = regexp.MustCompile(`(?m)^\s*[-*]\s`)
	headingLine  = regexp.MustCompile(`(?m)^#+\s`)
	categoryLine = regexp.MustCompile(`Category:\s*(.+)`)
)

// ExtractProse derives the prose record for one index entry.
func ExtractProse(entry IndexEntry) ProseRecord {
	rec := ProseRecord{Key: entry.Key}

	data, err := os.ReadFile(entry.MDPath)
	if err != nil {
		return rec
	}
	rec.Parsed = true
	text := string(data)

	clean := markupChars.ReplaceAllString(text, " ")
	rec.WordCount = wordCount(clean)
	rec.SentenceCount = countSentences(clean)
	if rec.SentenceCount > 0 {
		rec.AvgSentenceLength = float64(rec.WordCount) / float64(rec.SentenceCount)
	}

	rec.NumBullets = len(bulletLine.FindAllString(text, -1))
	rec.NumSections = len(headingLine.FindAllString(text, -1))

	lower := strings.ToLower(text)
	hits := make(map[string]bool)
	for _, k := range styleKeywords {
		if strings.Contains(lower, k) {
			hits[k] = true
		}
	}
	rec.StyleDescriptorCount = len(hits)
	rec.StyleDescriptorsUnique = len(hits)
	for _, k := range persuasionKeywords {
		rec.PersuasionWordCount += strings.Count(lower, strings.ToLower(k))
	}

	rec.SentimentPolarity = sentimentPolarity(clean)

	if m := categoryLine.FindStringSubmatch(text); m != nil {
		path := strings.TrimSpace(m[1])
		rec.CategoryPath = strPtr(path)
		top := strings.TrimSpace(strings.SplitN(path, ">", 2)[0])
		rec.TopCategory = strPtr(top)
	}
	return rec
}

// countSentences segments clean prose with Unicode sentence boundaries,
// ignoring whitespace-only segments.
func countSentences(s string) int {
	if strings.TrimSpace(s) == "" {
		return 0
	}
	n := 0
	iter := sentences.FromString(s)
	for iter.Next() {
		if strings.TrimSpace(iter.Value()) != "" {
			n++
		}
	}
	return n
}

func (r ProseRecord) cells() []string {
	cells := r.Key.cells()
	if !r.Parsed {
		return append(cells, make([]string, len(proseHeader)-3)...)
	}
	return append(cells,
		cellInt(r.WordCount),
		cellInt(r.SentenceCount),
		cellFloat(&r.AvgSentenceLength),
		cellInt(r.NumBullets),
		cellInt(r.NumSections),
		cellInt(r.StyleDescriptorCount),
		cellInt(r.StyleDescriptorsUnique),
		cellInt(r.PersuasionWordCount),
		cellFloat(&r.SentimentPolarity),
		cellString(r.CategoryPath),
		cellString(r.TopCategory),
	)
}
