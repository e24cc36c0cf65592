package analytics

import (
	"strings"

	"insightreport/internal/dataprocessing"
	"insightreport/pkg/contracts/domain"
)

// Column names, in lookup priority order.
var (
	totalImpressionCols     = []string{"Total Impressions", "Gross Impressions", "Impressions"}
	suitableImpressionCols  = []string{"Suitable Impressions"}
	exclusionImpressionCols = []string{"Impressions", "Gross Impressions"}
	videoSuitabilityCols    = []string{"Video Suitability"}
	grossImpressionCols     = []string{"Gross Impressions", "Impressions"}
	ivtImpressionCols       = []string{"IVT Impressions", "IVT Imps", "Invalid Traffic Impressions"}
	dateCols                = []string{"Report Date", "Date", "Day"}
	deviceCols              = []string{"Device Type", "Device"}
	accountCols             = []string{"Account", "Account Name", "Advertiser"}
)

// Fuzzy keyword groups for columns whose naming varies between exports.
var (
	suitabilityPctKeywords = []string{"brand suitability", "suitability%", "suitability %", "suitability rate"}
	viewabilityPctKeywords = []string{"viewability rate", "viewability%", "viewability %"}
)

// lookupNumber cleans the first non-empty value among names.
func lookupNumber(row domain.RawRow, names []string) float64 {
	v, ok := row.Lookup(names...)
	if !ok {
		return 0
	}
	return dataprocessing.CleanNumber(v)
}

// rowDate returns the normalized date of a row or "".
func rowDate(row domain.RawRow) string {
	return dataprocessing.ToSortableDate(row.Get(dateCols...))
}

// isCanonicalDate reports whether d looks like YYYY-MM-DD.
func isCanonicalDate(d string) bool {
	if len(d) != 10 || d[4] != '-' || d[7] != '-' {
		return false
	}
	for i, c := range d {
		if i == 4 || i == 7 {
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// semanticColumn resolves a fuzzy column for one file.
func semanticColumn(headers []string, keywords []string) string {
	col, _ := dataprocessing.FindSemanticColumn(headers, keywords...)
	return col
}

// firstSemantic tries each keyword group in priority order.
func firstSemantic(headers []string, groups ...[]string) string {
	for _, group := range groups {
		if col, ok := dataprocessing.FindSemanticColumn(headers, group...); ok {
			return col
		}
	}
	return ""
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
