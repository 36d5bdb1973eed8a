package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/yuwenq/etsylens/internal/types"
)

func entryWithMD(t *testing.T, content string) IndexEntry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "listing.md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return IndexEntry{
		Key:    Key{QueryID: "vintage_lamp", Channel: types.ChannelSEO, Rank: 1},
		MDPath: path,
	}
}

func TestExtractProseCounts(t *testing.T) {
	md := `# Vintage Lamp

A beautiful retro lamp. Perfect for a cozy room.

## Details

- hand made
- solid brass

Category: Home & Living > Lighting > Lamps
`
	rec := ExtractProse(entryWithMD(t, md))
	if !rec.Parsed {
		t.Fatal("record not parsed")
	}
	if rec.SentenceCount < 2 {
		t.Errorf("sentences = %d, want >= 2", rec.SentenceCount)
	}
	if rec.WordCount == 0 || rec.AvgSentenceLength == 0 {
		t.Errorf("words = %d, avg = %f", rec.WordCount, rec.AvgSentenceLength)
	}
	if rec.NumBullets != 2 {
		t.Errorf("bullets = %d, want 2", rec.NumBullets)
	}
	if rec.NumSections != 2 {
		t.Errorf("sections = %d, want 2", rec.NumSections)
	}
	if rec.CategoryPath == nil || *rec.CategoryPath != "Home & Living > Lighting > Lamps" {
		t.Errorf("category path = %v", rec.CategoryPath)
	}
	if rec.TopCategory == nil || *rec.TopCategory != "Home & Living" {
		t.Errorf("top category = %v", rec.TopCategory)
	}
	// "retro" appears once; sentiment words present.
	if rec.StyleDescriptorCount != 1 || rec.StyleDescriptorsUnique != 1 {
		t.Errorf("style = %d/%d, want 1/1", rec.StyleDescriptorCount, rec.StyleDescriptorsUnique)
	}
	if rec.SentimentPolarity <= 0 {
		t.Errorf("polarity = %f, want positive", rec.SentimentPolarity)
	}
}

func TestExtractProsePersuasionCount(t *testing.T) {
	md := "Instant download! Limited sale, perfect for gifts. Another sale."
	rec := ExtractProse(entryWithMD(t, md))
	// instant download + limited + 2x sale + perfect for = 5 hits.
	if rec.PersuasionWordCount != 5 {
		t.Errorf("persuasion = %d, want 5", rec.PersuasionWordCount)
	}
}

func TestExtractProseEmptyFile(t *testing.T) {
	rec := ExtractProse(entryWithMD(t, ""))
	if !rec.Parsed {
		t.Fatal("empty file still parses")
	}
	if rec.WordCount != 0 || rec.SentenceCount != 0 || rec.AvgSentenceLength != 0 {
		t.Errorf("counts = %d/%d/%f, want zeros", rec.WordCount, rec.SentenceCount, rec.AvgSentenceLength)
	}
	if rec.CategoryPath != nil {
		t.Errorf("category = %v, want absent", rec.CategoryPath)
	}
}

func TestExtractProseMissingFile(t *testing.T) {
	entry := IndexEntry{
		Key:    Key{QueryID: "q", Channel: types.ChannelGEO, Rank: 1},
		MDPath: filepath.Join(t.TempDir(), "nope.md"),
	}
	rec := ExtractProse(entry)
	if rec.Parsed {
		t.Fatal("missing file must not parse")
	}
	cells := rec.cells()
	if len(cells) != len(proseHeader) {
		t.Fatalf("cells = %d, want %d", len(cells), len(proseHeader))
	}
}

func TestSentimentPolarityBounds(t *testing.T) {
	if p := sentimentPolarity("this is broken and ugly"); p >= 0 {
		t.Errorf("polarity = %f, want negative", p)
	}
	if p := sentimentPolarity("neutral words only here"); p != 0 {
		t.Errorf("polarity = %f, want 0", p)
	}
	if p := sentimentPolarity("perfect best amazing"); p <= 0 || p > 1 {
		t.Errorf("polarity = %f, want in (0, 1]", p)
	}
}
