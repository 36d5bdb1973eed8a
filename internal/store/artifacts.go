// Package store persists the per-listing artifact triples and the crawl run
// logs, and scans the artifact tree back for the extraction phase.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/yuwenq/etsylens/internal/types"
)

// artifactFile groups the three renditions by their shared slug; the optional
// _full suffix marks the structured document.
var artifactFile = regexp.MustCompile(`^(.+?)(_full)?\.(md|html|json)$`)

// ArtifactStore writes and scans the per-listing artifact triples.
type ArtifactStore struct {
	roots  map[types.Channel]string
	logger *slog.Logger
}

// NewArtifactStore creates a store over the two channel subtrees.
func NewArtifactStore(seoDir, geoDir string, logger *slog.Logger) *ArtifactStore {
	return &ArtifactStore{
		roots: map[types.Channel]string{
			types.ChannelSEO: seoDir,
			types.ChannelGEO: geoDir,
		},
		logger: logger.With("component", "artifact_store"),
	}
}

// Root returns the base directory for a channel.
func (s *ArtifactStore) Root(ch types.Channel) string {
	return s.roots[ch]
}

// Paths returns the artifact triple locations for a listing slug, whether or
// not the files exist.
func (s *ArtifactStore) Paths(ch types.Channel, queryID, urlSlug string) types.ArtifactPaths {
	dir := filepath.Join(s.roots[ch], queryID)
	return types.ArtifactPaths{
		Markdown: filepath.Join(dir, urlSlug+".md"),
		HTML:     filepath.Join(dir, urlSlug+".html"),
		JSON:     filepath.Join(dir, urlSlug+"_full.json"),
	}
}

// WriteTriple persists all three artifacts for one listing, or none: if any
// write fails, files already written for the slug are removed. An existing
// triple for the same slug is overwritten; slug collisions between distinct
// URLs are not detected.
func (s *ArtifactStore) WriteTriple(ch types.Channel, queryID, urlSlug, markdown, html string, structured map[string]any) (types.ArtifactPaths, error) {
	paths := s.Paths(ch, queryID, urlSlug)

	if err := os.MkdirAll(filepath.Dir(paths.Markdown), 0o755); err != nil {
		return types.ArtifactPaths{}, fmt.Errorf("create query dir: %w", err)
	}
	if _, err := os.Stat(paths.Markdown); err == nil {
		s.logger.Warn("overwriting existing artifacts", "channel", ch, "query", queryID, "slug", urlSlug)
	}

	if structured == nil {
		structured = map[string]any{}
	}
	jsonBytes, err := marshalIndentedUTF8(structured)
	if err != nil {
		return types.ArtifactPaths{}, fmt.Errorf("encode structured artifact: %w", err)
	}

	written := make([]string, 0, 3)
	write := func(path string, data []byte) error {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		written = append(written, path)
		return nil
	}

	err = write(paths.Markdown, []byte(markdown))
	if err == nil {
		err = write(paths.HTML, []byte(html))
	}
	if err == nil {
		err = write(paths.JSON, jsonBytes)
	}
	if err != nil {
		for _, p := range written {
			os.Remove(p)
		}
		return types.ArtifactPaths{}, fmt.Errorf("write artifact triple: %w", err)
	}
	return paths, nil
}

// WriteRawSearchOutput saves the raw web-search text for a GEO query next to
// its artifacts, for later inspection.
func (s *ArtifactStore) WriteRawSearchOutput(ch types.Channel, queryID, prompt, raw string) error {
	dir := filepath.Join(s.roots[ch], queryID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create query dir: %w", err)
	}
	content := "PROMPT:\n" + prompt + "\n\nRAW OUTPUT:\n\n" + raw
	return os.WriteFile(filepath.Join(dir, "gpt_raw_output.txt"), []byte(content), 0o644)
}

// ListingGroup is one slug discovered on disk with whichever formats exist.
// A partial set (for example HTML only) is legal and surfaces downstream as
// missing fields, not as a scan error.
type ListingGroup struct {
	QueryID string
	Channel types.Channel
	Slug    string
	Formats map[string]bool // "md", "html", "json"
	Paths   types.ArtifactPaths
}

// ListListings scans both channel subtrees and returns every slug group,
// sorted by channel order, then query, then slug (lexicographic). Missing
// channel roots are skipped, so an index can be built from a partial run.
func (s *ArtifactStore) ListListings() ([]ListingGroup, error) {
	var groups []ListingGroup

	for _, ch := range types.Channels() {
		root := s.roots[ch]
		queryDirs, err := os.ReadDir(root)
		if err != nil {
			if os.IsNotExist(err) {
				s.logger.Warn("channel root missing, skipping", "channel", ch, "dir", root)
				continue
			}
			return nil, fmt.Errorf("scan %s: %w", root, err)
		}

		for _, qd := range queryDirs {
			if !qd.IsDir() {
				continue
			}
			files, err := os.ReadDir(filepath.Join(root, qd.Name()))
			if err != nil {
				return nil, fmt.Errorf("scan %s: %w", qd.Name(), err)
			}

			formats := make(map[string]map[string]bool)
			for _, f := range files {
				m := artifactFile.FindStringSubmatch(f.Name())
				if m == nil {
					continue
				}
				slug, ext := m[1], m[3]
				if formats[slug] == nil {
					formats[slug] = make(map[string]bool)
				}
				formats[slug][ext] = true
			}

			slugs := make([]string, 0, len(formats))
			for slug := range formats {
				slugs = append(slugs, slug)
			}
			sort.Strings(slugs)

			for _, slug := range slugs {
				groups = append(groups, ListingGroup{
					QueryID: qd.Name(),
					Channel: ch,
					Slug:    slug,
					Formats: formats[slug],
					Paths:   s.Paths(ch, qd.Name(), slug),
				})
			}
		}
	}
	return groups, nil
}

// marshalIndentedUTF8 encodes v with two-space indentation and without
// escaping non-ASCII or HTML-significant characters.
func marshalIndentedUTF8(v any) ([]byte, error) {
	var buf jsonBuffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.bytes, nil
}

type jsonBuffer struct {
	bytes []byte
}

func (b *jsonBuffer) Write(p []byte) (int, error) {
	b.bytes = append(b.bytes, p...)
	return len(p), nil
}
