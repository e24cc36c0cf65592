package dataprocessing

import (
	"strings"

	"insightreport/pkg/contracts/domain"
)

// BuildOptions tunes how raw rows become a ClassifiedReport.
type BuildOptions struct {
	// HeaderScanLimit bounds the header search; <= 0 uses DefaultHeaderScanLimit.
	HeaderScanLimit int
	// FilenameHints enables the filename fallback for inconclusive headers.
	FilenameHints bool
}

// BuildFromRows locates the header row in un-headed tabular data and returns
// the classified report. A file with no recognizable header comes back as an
// Unknown report with no rows; it is never an error.
func BuildFromRows(name string, rows [][]string, opts BuildOptions) *domain.ClassifiedReport {
	idx := FindHeaderRow(rows, opts.HeaderScanLimit)
	if idx < 0 && opts.FilenameHints {
		idx = findHintedHeaderRow(name, rows, opts.HeaderScanLimit)
	}
	if idx < 0 {
		return &domain.ClassifiedReport{Type: domain.ReportTypeUnknown, SourceName: name}
	}

	positional := trimHeaders(rows[idx])
	report := classify(name, nonEmptyCells(positional), opts)
	if report.Type == domain.ReportTypeUnknown {
		return report
	}
	report.Rows = rowsToRecords(positional, rows[idx+1:])
	return report
}

// BuildFromHeader classifies an already-split header row plus records.
// Records are copied so the caller may reuse its maps.
func BuildFromHeader(name string, headers []string, records []domain.RawRow, opts BuildOptions) *domain.ClassifiedReport {
	headers = nonEmptyCells(trimHeaders(headers))
	report := classify(name, headers, opts)
	if report.Type == domain.ReportTypeUnknown {
		return report
	}
	rows := make([]domain.RawRow, 0, len(records))
	for _, rec := range records {
		if isBlankRecord(rec) {
			continue
		}
		copied := make(domain.RawRow, len(rec))
		for k, v := range rec {
			copied[k] = v
		}
		rows = append(rows, copied)
	}
	report.Rows = rows
	return report
}

func classify(name string, headers []string, opts BuildOptions) *domain.ClassifiedReport {
	t := Classify(headers)
	if t == domain.ReportTypeUnknown && opts.FilenameHints {
		t = ClassifyWithHint(headers, name)
	}
	if t == domain.ReportTypeUnknown {
		return &domain.ClassifiedReport{Type: t, SourceName: name}
	}
	return &domain.ClassifiedReport{Type: t, Headers: headers, SourceName: name}
}

func findHintedHeaderRow(name string, rows [][]string, limit int) int {
	if limit <= 0 {
		limit = DefaultHeaderScanLimit
	}
	for i := 0; i < len(rows) && i < limit; i++ {
		if IsDisclaimerRow(rows[i]) {
			continue
		}
		candidate := nonEmptyCells(rows[i])
		if len(candidate) < 2 {
			continue
		}
		if ClassifyWithHint(candidate, name) != domain.ReportTypeUnknown {
			return i
		}
	}
	return -1
}

// trimHeaders trims names, leaves blank cells as "" so positions line up,
// and blanks out duplicates so the first occurrence wins.
func trimHeaders(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			continue
		}
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		out[i] = h
	}
	return out
}

func rowsToRecords(headers []string, data [][]string) []domain.RawRow {
	out := make([]domain.RawRow, 0, len(data))
	for _, cells := range data {
		if isNoiseRow(cells) {
			continue
		}
		rec := make(domain.RawRow, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(cells) {
				rec[h] = strings.TrimSpace(cells[i])
			} else {
				rec[h] = ""
			}
		}
		out = append(out, rec)
	}
	return out
}

// isNoiseRow drops blank rows and single-cell footnotes after the header.
func isNoiseRow(cells []string) bool {
	filled := nonEmptyCells(cells)
	if len(filled) == 0 {
		return true
	}
	return len(filled) == 1 && IsDisclaimerRow(filled)
}

func isBlankRecord(rec domain.RawRow) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
