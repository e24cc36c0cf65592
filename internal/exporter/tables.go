package exporter

import (
	"errors"
	"fmt"
	"strings"

	"insightreport/internal/dataprocessing"
	"insightreport/pkg/contracts/domain"
)

// Series names accepted by TableByName
const (
	SeriesKPIs        = "kpis"
	SeriesPerformance = "performance"
	SeriesDailyTrend  = "daily_trend"
	SeriesDeviceTrend = "device_trend"
	SeriesBrandRisk   = "brand_risk"
	SeriesIVT         = "ivt"
	SeriesInsights    = "insights"
	SeriesSources     = "sources"
)

// SeriesNames lists every table in workbook order
var SeriesNames = []string{
	SeriesKPIs,
	SeriesPerformance,
	SeriesDailyTrend,
	SeriesDeviceTrend,
	SeriesBrandRisk,
	SeriesIVT,
	SeriesInsights,
	SeriesSources,
}

// ErrUnknownSeries is returned for a series name outside SeriesNames.
var ErrUnknownSeries = errors.New("unknown series")

// Table is one exportable series. Cells are float64, int, string or nil.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// Tables returns every series of d in SeriesNames order
func Tables(d *domain.Dashboard) []Table {
	tables := make([]Table, 0, len(SeriesNames))
	for _, name := range SeriesNames {
		t, _ := TableByName(d, name)
		tables = append(tables, t)
	}
	return tables
}

// TableByName builds one series table
func TableByName(d *domain.Dashboard, name string) (Table, error) {
	if d == nil {
		d = &domain.Dashboard{}
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case SeriesKPIs:
		return kpiTable(d), nil
	case SeriesPerformance:
		return performanceTable(d), nil
	case SeriesDailyTrend:
		return dailyTable(d), nil
	case SeriesDeviceTrend:
		return deviceTable(d), nil
	case SeriesBrandRisk:
		return brandRiskTable(d), nil
	case SeriesIVT:
		return ivtTable(d), nil
	case SeriesInsights:
		return insightsTable(d), nil
	case SeriesSources:
		return sourcesTable(d), nil
	default:
		return Table{}, fmt.Errorf("%w: %q", ErrUnknownSeries, name)
	}
}

func kpiTable(d *domain.Dashboard) Table {
	return Table{
		Name:    SeriesKPIs,
		Headers: []string{"Metric", "Value"},
		Rows: [][]any{
			{"Account", d.AccountName},
			{"Period Start", d.ReportingPeriod.Start},
			{"Period End", d.ReportingPeriod.End},
			{"CPM", d.CPM},
			{"Total Impressions", d.TotalImpressions},
			{"Final Suitability %", d.KPIs.FinalSuitability},
			{"Lift", d.KPIs.Lift},
			{"Total Exclusions", d.KPIs.TotalExclusions},
			{"Budget Optimization", d.KPIs.BudgetOptimization},
		},
	}
}

func performanceTable(d *domain.Dashboard) Table {
	t := Table{Name: SeriesPerformance, Headers: []string{"Category", "VCR", "CTR", "Viewability", "Volume"}}
	for _, p := range d.Performance {
		t.Rows = append(t.Rows, []any{p.Category, p.VCR, p.CTR, p.Viewability, p.Volume})
	}
	return t
}

func dailyTable(d *domain.Dashboard) Table {
	t := Table{Name: SeriesDailyTrend, Headers: []string{"Date", "Impressions", "Viewability %", "Suitability %"}}
	for _, p := range d.DailyTrend {
		// the empty placeholder point carries no data
		if p.Date == "" && p.Impressions == 0 && p.ViewabilityPct == 0 && p.SuitabilityPct == 0 {
			continue
		}
		t.Rows = append(t.Rows, []any{p.Date, p.Impressions, p.ViewabilityPct, p.SuitabilityPct})
	}
	return t
}

func deviceTable(d *domain.Dashboard) Table {
	t := Table{Name: SeriesDeviceTrend, Headers: append([]string{"Date"}, d.DeviceTrend.Devices...)}
	for _, p := range d.DeviceTrend.Points {
		if p.Date == "" {
			continue
		}
		row := []any{p.Date}
		for _, device := range d.DeviceTrend.Devices {
			if v, ok := p.Value(device); ok {
				row = append(row, v)
			} else {
				row = append(row, nil)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func brandRiskTable(d *domain.Dashboard) Table {
	t := Table{Name: SeriesBrandRisk, Headers: []string{"Key", "Category", "Localized", "Suitable %", "Unsuitable %", "Suitable", "Unsuitable"}}
	for _, e := range d.BrandRisk {
		t.Rows = append(t.Rows, []any{e.Key, e.Category, e.LocalizedCategory, e.SuitablePct, e.UnsuitablePct, e.Suitable, e.Unsuitable})
	}
	return t
}

func ivtTable(d *domain.Dashboard) Table {
	t := Table{Name: SeriesIVT, Headers: []string{"Name", "Rate %"}}
	for _, r := range d.IVTRates {
		t.Rows = append(t.Rows, []any{r.Name, r.RatePct})
	}
	return t
}

func insightsTable(d *domain.Dashboard) Table {
	t := Table{Name: SeriesInsights, Headers: []string{"#", "Insight"}}
	for i, s := range d.Insights {
		t.Rows = append(t.Rows, []any{i + 1, s})
	}
	return t
}

func sourcesTable(d *domain.Dashboard) Table {
	t := Table{Name: SeriesSources, Headers: []string{"File", "Type", "Rows", "Error"}}
	for _, s := range d.Sources {
		t.Rows = append(t.Rows, []any{s.Name, s.Type.String(), s.Rows, s.Error})
	}
	return t
}

// cellString renders a cell for CSV output
func cellString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return dataprocessing.FormatNumber(c)
	case int:
		return fmt.Sprintf("%d", c)
	default:
		return fmt.Sprint(c)
	}
}
