package analytics

import (
	"strings"

	"insightreport/pkg/contracts/domain"
)

// AccountName returns the first account name found on the first row of any
// report, checking report types in classification order.
func AccountName(set *ReportSet) string {
	for _, t := range domain.KnownReportTypes {
		for _, r := range set.Reports(t) {
			if len(r.Rows) == 0 {
				continue
			}
			if name := strings.TrimSpace(r.Rows[0].Get(accountCols...)); name != "" {
				return name
			}
		}
	}
	return ""
}

// ReportingPeriod spans the earliest and latest canonical dates of all rows.
func ReportingPeriod(set *ReportSet) domain.ReportingPeriod {
	var period domain.ReportingPeriod
	for _, t := range domain.KnownReportTypes {
		for _, r := range set.Reports(t) {
			for _, row := range r.Rows {
				d := rowDate(row)
				if !isCanonicalDate(d) {
					continue
				}
				if period.Start == "" || d < period.Start {
					period.Start = d
				}
				if period.End == "" || d > period.End {
					period.End = d
				}
			}
		}
	}
	return period
}

// TotalImpressions is the suitability total, or the viewability gross total
// when there is no suitability data.
func TotalImpressions(suitability, viewability []*domain.ClassifiedReport) float64 {
	_, total := SuitabilityTotals(suitability)
	if total > 0 {
		return total
	}
	gross := 0.0
	for _, r := range viewability {
		for _, row := range r.Rows {
			gross += lookupNumber(row, grossImpressionCols)
		}
	}
	return gross
}
