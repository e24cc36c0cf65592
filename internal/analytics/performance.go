package analytics

import (
	"regexp"
	"sort"
	"strings"

	"insightreport/internal/dataprocessing"
	"insightreport/pkg/contracts/domain"
)

// categorySynonyms folds naming variants into one display group.
var categorySynonyms = []struct {
	Pattern *regexp.Regexp
	Name    string
}{
	{regexp.MustCompile(`(?i)\bmusic\b`), "Music"},
	{regexp.MustCompile(`(?i)\b(film|movie)s?\b`), "Movie"},
}

const unknownCategory = "Unknown"

// NormalizeCategory trims a category and applies the synonym table.
func NormalizeCategory(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return unknownCategory
	}
	for _, syn := range categorySynonyms {
		if syn.Pattern.MatchString(name) {
			return syn.Name
		}
	}
	return name
}

type performanceColumns struct {
	category, vcr, ctr, viewability, volume string
}

func resolvePerformanceColumns(headers []string) performanceColumns {
	return performanceColumns{
		category:    firstSemantic(headers, []string{"category"}, []string{"name"}, []string{"account"}),
		vcr:         rateColumn(headers, []string{"vcr", "video completion", "completion rate"}),
		ctr:         rateColumn(headers, []string{"ctr", "click-through", "click through"}),
		viewability: rateColumn(headers, viewabilityPctKeywords, []string{"viewability", "viewable"}),
		volume:      volumeColumn(headers),
	}
}

// rateColumn resolves a percentage column. Impression counts such as
// "Viewable Impressions" never qualify.
func rateColumn(headers []string, groups ...[]string) string {
	rates := make([]string, 0, len(headers))
	for _, h := range headers {
		if !strings.Contains(strings.ToLower(h), "impression") {
			rates = append(rates, h)
		}
	}
	return firstSemantic(rates, groups...)
}

// volumeColumn prefers an exact impressions column over fuzzy matches such as
// "Viewable Impressions".
func volumeColumn(headers []string) string {
	if col, ok := dataprocessing.ResolveColumn(headers, "Impressions", "Gross Impressions", "Total Impressions"); ok {
		return col
	}
	return semanticColumn(headers, []string{"impression", "imps"})
}

type categoryAccumulator struct {
	volume, vcr, ctr, viewability float64
}

// PerformanceSeries groups performance rows by normalized category and returns
// the volume-weighted VCR, CTR and viewability of the top groups by volume.
func PerformanceSeries(reports []*domain.ClassifiedReport, top int) []domain.PerformancePoint {
	groups := make(map[string]*categoryAccumulator)
	for _, r := range reports {
		cols := resolvePerformanceColumns(r.Headers)
		if cols.volume == "" {
			continue
		}
		for _, row := range r.Rows {
			volume := dataprocessing.CleanNumber(row[cols.volume])
			if volume <= 0 {
				continue
			}
			name := NormalizeCategory(row[cols.category])
			acc, ok := groups[name]
			if !ok {
				acc = &categoryAccumulator{}
				groups[name] = acc
			}
			acc.volume += volume
			acc.vcr += cellPercent(row, cols.vcr) * volume
			acc.ctr += cellPercent(row, cols.ctr) * volume
			acc.viewability += cellPercent(row, cols.viewability) * volume
		}
	}

	series := make([]domain.PerformancePoint, 0, len(groups))
	for name, acc := range groups {
		series = append(series, domain.PerformancePoint{
			Category:    name,
			VCR:         dataprocessing.Round(acc.vcr/acc.volume, 2),
			CTR:         dataprocessing.Round(acc.ctr/acc.volume, 2),
			Viewability: dataprocessing.Round(acc.viewability/acc.volume, 2),
			Volume:      acc.volume,
		})
	}
	sort.Slice(series, func(i, j int) bool {
		if series[i].Volume != series[j].Volume {
			return series[i].Volume > series[j].Volume
		}
		return series[i].Category < series[j].Category
	})
	if top > 0 && len(series) > top {
		series = series[:top]
	}
	return series
}

func cellPercent(row domain.RawRow, col string) float64 {
	if col == "" {
		return 0
	}
	return dataprocessing.CleanPercent(row[col])
}
