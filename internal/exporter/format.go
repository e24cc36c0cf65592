package exporter

import (
	"fmt"
	"strings"

	"insightreport/internal/dataprocessing"
)

// Format is a download format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts csv and xlsx, case-insensitively; blank means csv.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: export format %q", dataprocessing.ErrUnsupportedFormat, s)
	}
}

// ContentType returns the MIME type of f
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Extension returns the file extension of f, without the dot
func (f Format) Extension() string {
	return string(f)
}
