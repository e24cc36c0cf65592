package store

import (
	"math"

	"insightreport/pkg/contracts/domain"
)

// Slim returns a copy of d fit for persistence: every series is cut to its
// first maxRows entries, source errors are dropped and non-finite numbers
// become 0. d itself is not modified.
func Slim(d *domain.Dashboard, maxRows int) *domain.Dashboard {
	if d == nil {
		return nil
	}
	out := *d

	out.CPM = finite(d.CPM)
	out.TotalImpressions = finite(d.TotalImpressions)
	out.KPIs = domain.KPISet{
		FinalSuitability:   finite(d.KPIs.FinalSuitability),
		Lift:               finite(d.KPIs.Lift),
		TotalExclusions:    finite(d.KPIs.TotalExclusions),
		BudgetOptimization: finite(d.KPIs.BudgetOptimization),
	}

	out.Performance = capped(d.Performance, maxRows)
	for i := range out.Performance {
		p := &out.Performance[i]
		p.VCR, p.CTR = finite(p.VCR), finite(p.CTR)
		p.Viewability, p.Volume = finite(p.Viewability), finite(p.Volume)
	}

	out.DailyTrend = capped(d.DailyTrend, maxRows)
	for i := range out.DailyTrend {
		p := &out.DailyTrend[i]
		p.Impressions = finite(p.Impressions)
		p.ViewabilityPct = finite(p.ViewabilityPct)
		p.SuitabilityPct = finite(p.SuitabilityPct)
	}

	out.DeviceTrend = domain.DeviceTrendSeries{
		Devices: capped(d.DeviceTrend.Devices, len(d.DeviceTrend.Devices)),
		Points:  capped(d.DeviceTrend.Points, maxRows),
	}
	for i := range out.DeviceTrend.Points {
		p := &out.DeviceTrend.Points[i]
		values := make(map[string]*float64, len(p.Values))
		for device, v := range p.Values {
			if v == nil {
				values[device] = nil
				continue
			}
			f := finite(*v)
			values[device] = &f
		}
		p.Values = values
	}

	out.BrandRisk = capped(d.BrandRisk, maxRows)
	for i := range out.BrandRisk {
		e := &out.BrandRisk[i]
		e.SuitablePct, e.UnsuitablePct = finite(e.SuitablePct), finite(e.UnsuitablePct)
		e.Suitable, e.Unsuitable = finite(e.Suitable), finite(e.Unsuitable)
	}

	out.IVTRates = capped(d.IVTRates, maxRows)
	for i := range out.IVTRates {
		out.IVTRates[i].RatePct = finite(out.IVTRates[i].RatePct)
	}

	out.Insights = capped(d.Insights, len(d.Insights))

	out.Sources = capped(d.Sources, maxRows)
	for i := range out.Sources {
		out.Sources[i].Error = ""
	}

	return &out
}

// capped copies the first n elements; nil stays nil.
func capped[T any](in []T, n int) []T {
	if in == nil {
		return nil
	}
	if n >= 0 && len(in) > n {
		in = in[:n]
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
