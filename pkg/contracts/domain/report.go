package domain

import (
	"fmt"
	"strings"
)

// ReportType identifies which kind of marketing export a row-set came from.
type ReportType int

const (
	ReportTypeUnknown ReportType = iota
	ReportTypePerformance
	ReportTypeSuitability
	ReportTypeViewability
	ReportTypeExclusion
)

// KnownReportTypes lists every classifiable type in classification precedence order.
var KnownReportTypes = []ReportType{
	ReportTypePerformance,
	ReportTypeSuitability,
	ReportTypeViewability,
	ReportTypeExclusion,
}

var reportTypeNames = map[ReportType]string{
	ReportTypeUnknown:     "unknown",
	ReportTypePerformance: "performance",
	ReportTypeSuitability: "suitability",
	ReportTypeViewability: "viewability",
	ReportTypeExclusion:   "exclusion",
}

// String returns the lower-case name of the type
func (t ReportType) String() string {
	if name, ok := reportTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ReportType(%d)", int(t))
}

// Valid reports whether t is one of the declared constants, Unknown included.
func (t ReportType) Valid() bool {
	_, ok := reportTypeNames[t]
	return ok
}

// Known reports whether t is a classifiable (non-Unknown) type.
func (t ReportType) Known() bool {
	return t != ReportTypeUnknown && t.Valid()
}

// MarshalText implements encoding.TextMarshaler
func (t ReportType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid report type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *ReportType) UnmarshalText(text []byte) error {
	parsed, err := ParseReportType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseReportType converts a name (or the legacy aliases "risk" and "view") to a ReportType.
func ParseReportType(s string) (ReportType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unknown", "":
		return ReportTypeUnknown, nil
	case "performance":
		return ReportTypePerformance, nil
	case "suitability", "risk":
		return ReportTypeSuitability, nil
	case "viewability", "view":
		return ReportTypeViewability, nil
	case "exclusion":
		return ReportTypeExclusion, nil
	}
	return ReportTypeUnknown, fmt.Errorf("unknown report type %q", s)
}

// RawRow maps a column name, as it appeared in the source header, to its cell text.
// Column order is carried by ClassifiedReport.Headers.
type RawRow map[string]string

// Lookup returns the first non-empty value among the given column names.
// Names are tried in order and compared case-insensitively after trimming.
func (r RawRow) Lookup(names ...string) (string, bool) {
	for _, name := range names {
		want := normalizeKey(name)
		if v, ok := r[name]; ok && strings.TrimSpace(v) != "" {
			return v, true
		}
		// keys differing only in case are resolved by byte order so lookups stay deterministic
		best, found := "", false
		for key, v := range r {
			if normalizeKey(key) != want || strings.TrimSpace(v) == "" {
				continue
			}
			if !found || key < best {
				best, found = key, true
			}
		}
		if found {
			return r[best], true
		}
	}
	return "", false
}

// Get returns the value of the named column, or "" when absent.
func (r RawRow) Get(names ...string) string {
	v, _ := r.Lookup(names...)
	return v
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ClassifiedReport is one decoded file together with its detected type.
// It is treated as immutable once built.
type ClassifiedReport struct {
	Type       ReportType `json:"type"`
	Rows       []RawRow   `json:"-"`
	Headers    []string   `json:"headers"`
	SourceName string     `json:"source_name"`
}

// Len returns the number of data rows
func (r *ClassifiedReport) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}
