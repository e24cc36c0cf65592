package dataprocessing

import (
	"strings"

	"insightreport/pkg/contracts/domain"
)

const (
	// DefaultHeaderScanLimit bounds how far into a file we look for the header row.
	DefaultHeaderScanLimit = 30
	// MaxHeaderScanLimit caps configurable scan limits.
	MaxHeaderScanLimit = 50
)

// disclaimerMarkers flag preamble rows that must never be taken as a header.
var disclaimerMarkers = []string{"disclaimer", "免責事項", "注記"}

// FindHeaderRow returns the index of the first row, within the scan limit,
// whose non-empty cells classify as a known report type. Disclaimer rows are
// skipped. It returns -1 when no header row is found.
func FindHeaderRow(rows [][]string, limit int) int {
	if limit <= 0 {
		limit = DefaultHeaderScanLimit
	}
	if limit > MaxHeaderScanLimit {
		limit = MaxHeaderScanLimit
	}
	for i := 0; i < len(rows) && i < limit; i++ {
		if IsDisclaimerRow(rows[i]) {
			continue
		}
		candidate := nonEmptyCells(rows[i])
		if len(candidate) == 0 {
			continue
		}
		if Classify(candidate) != domain.ReportTypeUnknown {
			return i
		}
	}
	return -1
}

// IsDisclaimerRow reports whether the row's text contains a disclaimer marker.
func IsDisclaimerRow(row []string) bool {
	text := strings.ToLower(strings.Join(row, " "))
	for _, marker := range disclaimerMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// FindSemanticColumn walks the headers in order and returns the first one
// containing any of the keywords, compared case-insensitively.
func FindSemanticColumn(headers []string, keywords ...string) (string, bool) {
	for _, h := range headers {
		lower := strings.ToLower(h)
		for _, kw := range keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(kw)) {
				return h, true
			}
		}
	}
	return "", false
}

// ResolveColumn returns the header equal to one of names, trying names in
// priority order. Comparison is case-insensitive and ignores surrounding space.
func ResolveColumn(headers []string, names ...string) (string, bool) {
	for _, name := range names {
		want := strings.ToLower(strings.TrimSpace(name))
		for _, h := range headers {
			if strings.ToLower(strings.TrimSpace(h)) == want {
				return h, true
			}
		}
	}
	return "", false
}

func nonEmptyCells(row []string) []string {
	out := make([]string, 0, len(row))
	for _, cell := range row {
		if c := strings.TrimSpace(cell); c != "" {
			out = append(out, c)
		}
	}
	return out
}
