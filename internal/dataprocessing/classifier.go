package dataprocessing

import (
	"path/filepath"
	"strings"

	"insightreport/pkg/contracts/domain"
)

// classificationRule requires every group to be satisfied; a group is
// satisfied when the joined header text contains any of its substrings.
type classificationRule struct {
	Type     domain.ReportType
	AllOf    [][]string
	Evidence []string
}

// classificationRules is evaluated in order, first match wins.
var classificationRules = []classificationRule{
	{
		Type:     domain.ReportTypePerformance,
		AllOf:    [][]string{{"category name"}, {"vcr", "vcr%"}},
		Evidence: []string{"vcr", "ctr", "category"},
	},
	{
		Type:     domain.ReportTypeSuitability,
		AllOf:    [][]string{{"brand suitability", "suitability%"}, {"suitable impressions"}},
		Evidence: []string{"suitable"},
	},
	{
		Type:     domain.ReportTypeViewability,
		AllOf:    [][]string{{"viewability rate", "viewability%"}, {"gross impressions"}},
		Evidence: []string{"viewab"},
	},
	{
		Type:     domain.ReportTypeExclusion,
		AllOf:    [][]string{{"video suitability"}, {"placement name"}},
		Evidence: []string{"video suitability", "placement"},
	},
}

// filenameHints maps filename fragments to the type they suggest.
var filenameHints = []struct {
	Fragments []string
	Type      domain.ReportType
}{
	{[]string{"viewability", "view"}, domain.ReportTypeViewability},
	{[]string{"exclusion", "exclu", "placement"}, domain.ReportTypeExclusion},
	{[]string{"risk", "suit"}, domain.ReportTypeSuitability},
	{[]string{"performance", "perf", "context"}, domain.ReportTypePerformance},
}

// Classify decides the report type from a header set alone.
// It is a pure function: the same headers always give the same type.
func Classify(headers []string) domain.ReportType {
	joined := joinHeaders(headers)
	if joined == "" {
		return domain.ReportTypeUnknown
	}
	for _, rule := range classificationRules {
		if rule.matches(joined) {
			return rule.Type
		}
	}
	return domain.ReportTypeUnknown
}

// ClassifyWithHint classifies by headers and falls back to the filename only
// when the headers are inconclusive. The hint is accepted only if the headers
// carry at least one signature column of the hinted type, so a filename never
// classifies a file on its own.
func ClassifyWithHint(headers []string, filename string) domain.ReportType {
	if t := Classify(headers); t != domain.ReportTypeUnknown {
		return t
	}
	hinted := HintFromFilename(filename)
	if hinted == domain.ReportTypeUnknown {
		return domain.ReportTypeUnknown
	}
	joined := joinHeaders(headers)
	for _, rule := range classificationRules {
		if rule.Type != hinted {
			continue
		}
		for _, fragment := range rule.Evidence {
			if strings.Contains(joined, fragment) {
				return hinted
			}
		}
	}
	return domain.ReportTypeUnknown
}

// HintFromFilename returns the type suggested by a file's base name, if any.
func HintFromFilename(filename string) domain.ReportType {
	base := strings.ToLower(filepath.Base(filename))
	if base == "" || base == "." {
		return domain.ReportTypeUnknown
	}
	for _, hint := range filenameHints {
		for _, fragment := range hint.Fragments {
			if strings.Contains(base, fragment) {
				return hint.Type
			}
		}
	}
	return domain.ReportTypeUnknown
}

func (r classificationRule) matches(joined string) bool {
	for _, group := range r.AllOf {
		ok := false
		for _, needle := range group {
			if strings.Contains(joined, needle) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func joinHeaders(headers []string) string {
	parts := make([]string, 0, len(headers))
	for _, h := range headers {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			parts = append(parts, h)
		}
	}
	return strings.Join(parts, "|")
}
