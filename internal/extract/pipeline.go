package extract

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/yuwenq/etsylens/internal/store"
)

// Output file names, fixed for downstream tooling.
const (
	MasterIndexFile  = "master_index.csv"
	JSONDataFile     = "json_data.csv"
	MDDataFile       = "md_data.csv"
	HTMLDataFile     = "html_data.csv"
	MasterMergedFile = "master_merged.csv"
)

// Lister scans the artifact tree.
type Lister interface {
	ListListings() ([]store.ListingGroup, error)
}

// Pipeline runs index build, the three per-format extractions, and the merge.
type Pipeline struct {
	lister Lister
	outDir string
	logger *slog.Logger
}

// NewPipeline creates a pipeline writing its five CSVs under outDir.
func NewPipeline(lister Lister, outDir string, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		lister: lister,
		outDir: outDir,
		logger: logger.With("component", "extract_pipeline"),
	}
}

// Run executes the whole extraction phase. Per-record degradation never
// fails the run; only an unreadable tree or an unwritable output does.
func (p *Pipeline) Run() error {
	groups, err := p.lister.ListListings()
	if err != nil {
		return fmt.Errorf("scanning artifact tree: %w", err)
	}
	index := BuildIndex(groups)
	if len(index) == 0 {
		return fmt.Errorf("no artifacts found")
	}
	p.logger.Info("master index built", "entries", len(index))

	indexRows := make([][]string, len(index))
	structured := make([]StructuredRecord, len(index))
	prose := make([]ProseRecord, len(index))
	markup := make([]HTMLRecord, len(index))
	for i, entry := range index {
		indexRows[i] = entry.cells()
		structured[i] = ExtractStructured(entry)
		prose[i] = ExtractProse(entry)
		markup[i] = ExtractHTML(entry)
	}

	outputs := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{MasterIndexFile, indexHeader, indexRows},
		{JSONDataFile, structuredHeader, structuredRows(structured)},
		{MDDataFile, proseHeader, proseRows(prose)},
		{HTMLDataFile, htmlHeader, markupRows(markup)},
		{MasterMergedFile, mergedHeader(), mergeRows(structured, prose, markup)},
	}
	for _, out := range outputs {
		path := filepath.Join(p.outDir, out.name)
		if err := store.WriteCSV(path, out.header, out.rows); err != nil {
			return fmt.Errorf("writing %s: %w", out.name, err)
		}
		p.logger.Info("output written", "path", path, "rows", len(out.rows))
	}
	return nil
}

func structuredRows(recs []StructuredRecord) [][]string {
	rows := make([][]string, len(recs))
	for i, r := range recs {
		rows[i] = r.cells()
	}
	return rows
}

func proseRows(recs []ProseRecord) [][]string {
	rows := make([][]string, len(recs))
	for i, r := range recs {
		rows[i] = r.cells()
	}
	return rows
}

func markupRows(recs []HTMLRecord) [][]string {
	rows := make([][]string, len(recs))
	for i, r := range recs {
		rows[i] = r.cells()
	}
	return rows
}

// mergedHeader is the structured columns followed by the non-key prose and
// markup columns.
func mergedHeader() []string {
	header := append([]string{}, structuredHeader...)
	header = append(header, proseHeader[3:]...)
	header = append(header, htmlHeader[3:]...)
	return header
}

// mergeRows left-joins the per-format outputs positionally: all three slices
// are produced from the same index walk, so row i shares one key across them.
// The merged key set therefore equals the index key set exactly.
func mergeRows(structured []StructuredRecord, prose []ProseRecord, markup []HTMLRecord) [][]string {
	rows := make([][]string, len(structured))
	for i := range structured {
		row := append([]string{}, structured[i].cells()...)
		row = append(row, prose[i].cells()[3:]...)
		row = append(row, markup[i].cells()[3:]...)
		rows[i] = row
	}
	return rows
}
