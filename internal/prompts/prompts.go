// Package prompts loads query prompts from plain-text or CSV files.
package prompts

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuwenq/etsylens/internal/types"
)

// Load reads prompts from path. A .csv file is read column-wise: the column
// titled "prompt" (case-insensitive) when a header names one, otherwise the
// second column. Any other extension is treated as plain text, one prompt per
// line. Blank lines are dropped.
func Load(path string) ([]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return loadCSV(path)
	}
	return loadText(path)
}

func loadText(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompts file: %w", err)
	}
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", path, types.ErrNoPrompts)
	}
	return out, nil
}

func loadCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening prompts file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing prompts csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", path, types.ErrNoPrompts)
	}

	col := -1
	for i, name := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(name), "prompt") {
			col = i
			break
		}
	}
	body := rows
	if col >= 0 {
		body = rows[1:]
	} else {
		// No header names the column; fall back to the second column.
		col = 1
	}

	var out []string
	for _, row := range body {
		if col >= len(row) {
			continue
		}
		p := strings.TrimSpace(row[col])
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", path, types.ErrNoPrompts)
	}
	return out, nil
}
