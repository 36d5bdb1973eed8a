package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yuwenq/etsylens/internal/types"
)

func TestWriteCSVQuotesAndBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	err := WriteCSV(path,
		[]string{"a", "b"},
		[][]string{{"plain", `has "quotes"`}, {"комната", "x,y"}},
	)
	if err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(raw)
	if !strings.HasPrefix(content, "\xef\xbb\xbf") {
		t.Error("missing UTF-8 BOM")
	}
	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(content, "\xef\xbb\xbf"), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	if lines[0] != `"a","b"` {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != `"plain","has ""quotes"""` {
		t.Errorf("row 1 = %q", lines[1])
	}
	if lines[2] != `"комната","x,y"` {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestCSVSinkWritesSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seo_crawl_summary.csv")
	sink := NewCSVSink(path, testLogger)

	row := types.AttemptLog{
		Time:     time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC),
		Channel:  types.ChannelSEO,
		QueryID:  "vintage_lamp",
		Prompt:   "vintage lamp",
		Rank:     1,
		URL:      "https://www.etsy.com/listing/1/lamp",
		URLSlug:  "listing_1",
		Status:   types.StatusSuccess,
		Attempts: 2,
		Elapsed:  1520 * time.Millisecond,
	}
	if err := sink.Append(row); err != nil {
		t.Fatal(err)
	}
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(raw)
	if !strings.Contains(content, `"2026-03-01 12:30:00"`) {
		t.Errorf("missing timestamp: %s", content)
	}
	if !strings.Contains(content, `"success"`) || !strings.Contains(content, `"1.52"`) {
		t.Errorf("missing status/elapsed: %s", content)
	}
}

func TestCSVSinkEmptySkipsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	sink := NewCSVSink(path, testLogger)
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("empty sink should not create a file")
	}
}
