package analytics

import (
	"math"
	"time"

	"insightreport/pkg/contracts/domain"
)

// Default tuning values
const (
	DefaultTopCategories       = 8
	DefaultTrendWindow         = 14
	DefaultSuitabilityBaseline = 86.4
	DefaultIVTBenchmark        = 1.0
	DefaultBenchmarkLabel      = "Benchmark"
)

// Options parameterizes the aggregation formulas.
type Options struct {
	// TopCategories caps the performance series.
	TopCategories int
	// TrendWindow keeps only the most recent N dates of the trend series.
	TrendWindow int
	// SuitabilityBaseline is the historical suitability rate lift is measured against.
	SuitabilityBaseline float64
	// IVTBenchmark is the external reference rate shown first in the IVT series.
	IVTBenchmark   float64
	BenchmarkLabel string
}

// DefaultOptions returns the production tuning
func DefaultOptions() Options {
	return Options{
		TopCategories:       DefaultTopCategories,
		TrendWindow:         DefaultTrendWindow,
		SuitabilityBaseline: DefaultSuitabilityBaseline,
		IVTBenchmark:        DefaultIVTBenchmark,
		BenchmarkLabel:      DefaultBenchmarkLabel,
	}
}

// Aggregator turns a ReportSet into a Dashboard.
// It holds no per-session state and is safe for concurrent use.
type Aggregator struct {
	opts Options
	now  func() time.Time
}

// NewAggregator creates an aggregator; non-positive sizes fall back to defaults.
func NewAggregator(opts Options) *Aggregator {
	if opts.TopCategories <= 0 {
		opts.TopCategories = DefaultTopCategories
	}
	if opts.TrendWindow <= 0 {
		opts.TrendWindow = DefaultTrendWindow
	}
	if opts.BenchmarkLabel == "" {
		opts.BenchmarkLabel = DefaultBenchmarkLabel
	}
	return &Aggregator{opts: opts, now: time.Now}
}

// Options returns the effective options
func (a *Aggregator) Options() Options {
	return a.opts
}

// Aggregate computes every KPI and series for the set. Missing report types
// degrade to zero values; the only error is a nil set.
func (a *Aggregator) Aggregate(set *ReportSet, cpm float64) (*domain.Dashboard, error) {
	if set == nil {
		return nil, ErrNilReportSet
	}
	if math.IsNaN(cpm) || math.IsInf(cpm, 0) || cpm < 0 {
		cpm = 0
	}

	suitability := set.Reports(domain.ReportTypeSuitability)
	viewability := set.Reports(domain.ReportTypeViewability)

	kpis := ComputeKPIs(set, cpm, a.opts.SuitabilityBaseline)

	d := &domain.Dashboard{
		AccountName:      AccountName(set),
		ReportingPeriod:  ReportingPeriod(set),
		CPM:              cpm,
		TotalImpressions: TotalImpressions(suitability, viewability),
		KPIs:             kpis,
		Performance:      PerformanceSeries(set.Reports(domain.ReportTypePerformance), a.opts.TopCategories),
		DailyTrend:       DailyTrend(suitability, viewability, a.opts.TrendWindow),
		DeviceTrend:      DeviceTrend(viewability, a.opts.TrendWindow),
		BrandRisk:        BrandRisk(suitability),
		IVTRates:         IVTRates(viewability, a.opts.IVTBenchmark, a.opts.BenchmarkLabel),
		Sources:          set.Sources(),
		GeneratedAt:      a.now().UTC(),
	}
	return d, nil
}
