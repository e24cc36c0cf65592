// Package analytics aggregates classified report row-sets into campaign KPIs
// and chart-ready series.
//
// Aggregation is a pure, synchronous pass over an in-memory ReportSet. Any
// report type may be missing: the affected KPIs come back as 0 and the
// affected series as a stable placeholder, never NaN.
//
// # Formulas
//
//	FinalSuitability    100 * Σ suitable / Σ total          (2 dp, 0 when Σ total == 0)
//	Lift                FinalSuitability - baseline          (2 dp, 0 without suitability data)
//	TotalExclusions     Σ impressions where Video Suitability == "unsuitable"
//	BudgetOptimization  TotalExclusions / 1000 * CPM         (rounded to whole units)
//
// Ratio columns (suitability %, viewability rate, VCR, CTR) go through
// dataprocessing.RescalePercent exactly once before they are averaged.
package analytics
