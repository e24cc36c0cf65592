package analytics

import (
	"strings"

	"github.com/shopspring/decimal"

	"insightreport/internal/dataprocessing"
	"insightreport/pkg/contracts/domain"
)

// ComputeKPIs derives the headline figures. Lift is FinalSuitability minus
// baseline and is 0 when there is no suitability data to measure.
func ComputeKPIs(set *ReportSet, cpm, baseline float64) domain.KPISet {
	suitable, total := SuitabilityTotals(set.Reports(domain.ReportTypeSuitability))
	final := SuitabilityRate(suitable, total)

	lift := 0.0
	if total > 0 {
		lift = dataprocessing.Round(final-baseline, 2)
	}

	exclusions := TotalExclusions(set.Reports(domain.ReportTypeExclusion))
	return domain.KPISet{
		FinalSuitability:   final,
		Lift:               lift,
		TotalExclusions:    exclusions,
		BudgetOptimization: BudgetOptimization(exclusions, cpm),
	}
}

// SuitabilityTotals sums suitable and total impressions across suitability
// rows, resolving each column per row with first-match-wins.
func SuitabilityTotals(reports []*domain.ClassifiedReport) (suitable, total float64) {
	for _, r := range reports {
		for _, row := range r.Rows {
			total += lookupNumber(row, totalImpressionCols)
			suitable += lookupNumber(row, suitableImpressionCols)
		}
	}
	return suitable, total
}

// SuitabilityRate is 100*suitable/total rounded to 2 places, or 0 when total <= 0.
func SuitabilityRate(suitable, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return dataprocessing.Round(100*suitable/total, 2)
}

// TotalExclusions sums impressions of exclusion rows marked exactly "unsuitable".
func TotalExclusions(reports []*domain.ClassifiedReport) float64 {
	sum := 0.0
	for _, r := range reports {
		for _, row := range r.Rows {
			status := strings.ToLower(strings.TrimSpace(row.Get(videoSuitabilityCols...)))
			if status != "unsuitable" {
				continue
			}
			sum += lookupNumber(row, exclusionImpressionCols)
		}
	}
	return dataprocessing.Round(sum, 0)
}

// BudgetOptimization converts excluded impressions into spend at the given CPM.
func BudgetOptimization(exclusions, cpm float64) float64 {
	if exclusions <= 0 || cpm <= 0 {
		return 0
	}
	value := decimal.NewFromFloat(exclusions).
		Div(decimal.NewFromInt(1000)).
		Mul(decimal.NewFromFloat(cpm)).
		Round(0)
	return value.InexactFloat64()
}
