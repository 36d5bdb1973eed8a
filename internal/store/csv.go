package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// utf8BOM keeps spreadsheet tools from misdetecting the encoding.
const utf8BOM = "\xef\xbb\xbf"

// WriteCSV writes a CSV file with a UTF-8 byte-order mark, quoting every
// field. The stdlib encoding/csv writer quotes only when required and cannot
// emit a BOM, and downstream tooling expects both.
func WriteCSV(path string, header []string, rows [][]string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.WriteString(utf8BOM); err != nil {
		return err
	}
	if err := writeRecord(w, header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writeRecord(w, row); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func writeRecord(w *bufio.Writer, fields []string) error {
	for i, field := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if err := w.WriteByte('"'); err != nil {
			return err
		}
		if _, err := w.WriteString(strings.ReplaceAll(field, `"`, `""`)); err != nil {
			return err
		}
		if err := w.WriteByte('"'); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}
