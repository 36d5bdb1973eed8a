package store

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/yuwenq/etsylens/internal/types"
)

// Sink receives one row per listing fetch outcome. Rows are append-only
// within a run; Close flushes whatever the backend buffers.
type Sink interface {
	Append(row types.AttemptLog) error
	Close() error
}

// runLogHeader is the crawl summary column order.
var runLogHeader = []string{
	"time", "channel", "query_id", "prompt", "rank", "url", "url_slug",
	"status", "md_path", "html_path", "json_path", "attempt", "elapsed_s",
	"search_url",
}

// CSVSink buffers run-log rows and writes one summary file on Close.
type CSVSink struct {
	path   string
	mu     sync.Mutex
	rows   [][]string
	logger *slog.Logger
}

// NewCSVSink creates a sink writing to path on Close.
func NewCSVSink(path string, logger *slog.Logger) *CSVSink {
	return &CSVSink{
		path:   path,
		logger: logger.With("component", "csv_sink"),
	}
}

func (s *CSVSink) Append(row types.AttemptLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, runLogRecord(row))
	return nil
}

func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rows) == 0 {
		s.logger.Info("no fetch outcomes, skipping summary", "path", s.path)
		return nil
	}
	if err := WriteCSV(s.path, runLogHeader, s.rows); err != nil {
		return fmt.Errorf("write crawl summary: %w", err)
	}
	s.logger.Info("crawl summary written", "path", s.path, "rows", len(s.rows))
	return nil
}

func runLogRecord(row types.AttemptLog) []string {
	return []string{
		row.Time.Format("2006-01-02 15:04:05"),
		string(row.Channel),
		row.QueryID,
		row.Prompt,
		strconv.Itoa(row.Rank),
		row.URL,
		row.URLSlug,
		string(row.Status),
		row.Paths.Markdown,
		row.Paths.HTML,
		row.Paths.JSON,
		strconv.Itoa(row.Attempts),
		strconv.FormatFloat(row.Elapsed.Seconds(), 'f', 2, 64),
		row.SearchURL,
	}
}

// MultiSink fans rows out to several sinks.
type MultiSink struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewMultiSink creates a sink that forwards to every backend.
func NewMultiSink(logger *slog.Logger, sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks, logger: logger.With("component", "multi_sink")}
}

func (m *MultiSink) Append(row types.AttemptLog) error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Append(row); err != nil {
			m.logger.Error("sink append failed", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (m *MultiSink) Close() error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
