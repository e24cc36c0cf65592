package analytics

import (
	"sort"

	"insightreport/internal/dataprocessing"
	"insightreport/pkg/contracts/domain"
)

// weightedMean averages values by weight, falling back to the plain mean
// when every weight is zero.
type weightedMean struct {
	weighted, weights float64
	plain             float64
	n                 int
}

func (m *weightedMean) add(value, weight float64) {
	if weight > 0 {
		m.weighted += value * weight
		m.weights += weight
	}
	m.plain += value
	m.n++
}

func (m *weightedMean) value() float64 {
	switch {
	case m.weights > 0:
		return m.weighted / m.weights
	case m.n > 0:
		return m.plain / float64(m.n)
	}
	return 0
}

type dayBucket struct {
	suitImpressions float64
	viewImpressions float64
	suitability     weightedMean
	viewability     weightedMean
}

// DailyTrend groups suitability and viewability rows by date. Impressions per
// date come from suitability totals, or from viewability gross impressions
// when no suitability rows exist. Both percentages are impression-weighted.
// Dates ascend and only the last window dates are kept. With no dated rows
// the series is a single zero point with an empty date.
func DailyTrend(suitability, viewability []*domain.ClassifiedReport, window int) []domain.DailyTrendPoint {
	days := make(map[string]*dayBucket)
	bucket := func(date string) *dayBucket {
		b, ok := days[date]
		if !ok {
			b = &dayBucket{}
			days[date] = b
		}
		return b
	}

	haveSuitability := false
	for _, r := range suitability {
		pctCol := semanticColumn(r.Headers, suitabilityPctKeywords)
		for _, row := range r.Rows {
			date := rowDate(row)
			if date == "" {
				continue
			}
			haveSuitability = true
			total := lookupNumber(row, totalImpressionCols)
			b := bucket(date)
			b.suitImpressions += total

			switch {
			case pctCol != "" && row[pctCol] != "":
				b.suitability.add(dataprocessing.CleanPercent(row[pctCol]), total)
			case total > 0:
				b.suitability.add(100*lookupNumber(row, suitableImpressionCols)/total, total)
			}
		}
	}

	for _, r := range viewability {
		rateCol := semanticColumn(r.Headers, viewabilityPctKeywords)
		for _, row := range r.Rows {
			date := rowDate(row)
			if date == "" {
				continue
			}
			gross := lookupNumber(row, grossImpressionCols)
			b := bucket(date)
			b.viewImpressions += gross
			if rateCol != "" && row[rateCol] != "" {
				b.viewability.add(dataprocessing.CleanPercent(row[rateCol]), gross)
			}
		}
	}

	if len(days) == 0 {
		return []domain.DailyTrendPoint{{}}
	}

	dates := make([]string, 0, len(days))
	for d := range days {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	dates = lastN(dates, window)

	series := make([]domain.DailyTrendPoint, 0, len(dates))
	for _, d := range dates {
		b := days[d]
		impressions := b.suitImpressions
		if !haveSuitability {
			impressions = b.viewImpressions
		}
		series = append(series, domain.DailyTrendPoint{
			Date:           d,
			Impressions:    impressions,
			ViewabilityPct: dataprocessing.Round(b.viewability.value(), 2),
			SuitabilityPct: dataprocessing.Round(b.suitability.value(), 2),
		})
	}
	return series
}

func lastN(dates []string, n int) []string {
	if n > 0 && len(dates) > n {
		return dates[len(dates)-n:]
	}
	return dates
}
