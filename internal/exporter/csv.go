package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"insightreport/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes the table header and rows to w
func WriteCSV(w io.Writer, t Table, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(t.Headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	record := make([]string, len(t.Headers))
	for i, row := range t.Rows {
		record = record[:0]
		for _, cell := range row {
			record = append(record, cellString(cell))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteCSVDir writes one <series>.csv per table into dir and returns the
// written paths.
func WriteCSVDir(dir string, d *domain.Dashboard, options WriteOptions) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	var paths []string
	for _, t := range Tables(d) {
		path := filepath.Join(dir, t.Name+".csv")
		if err := writeCSVFile(path, t, options); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}

	slog.Info("Wrote CSV export",
		slog.String("dir", dir),
		slog.Int("files", len(paths)))
	return paths, nil
}

func writeCSVFile(path string, t Table, options WriteOptions) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := WriteCSV(file, t, options); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return file.Close()
}
