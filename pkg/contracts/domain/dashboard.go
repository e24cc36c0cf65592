package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// KPISet holds the headline campaign figures.
type KPISet struct {
	// FinalSuitability is the share of suitable impressions, 0-100.
	FinalSuitability float64 `json:"final_suitability"`
	// Lift is FinalSuitability minus the configured baseline, in signed percentage points.
	Lift float64 `json:"lift"`
	// TotalExclusions counts impressions served on unsuitable placements.
	TotalExclusions float64 `json:"total_exclusions"`
	// BudgetOptimization is the spend attributable to TotalExclusions at the session CPM.
	BudgetOptimization float64 `json:"budget_optimization"`
}

// PerformancePoint is one category bar in the performance chart
type PerformancePoint struct {
	Category    string  `json:"category"`
	VCR         float64 `json:"vcr"`
	CTR         float64 `json:"ctr"`
	Viewability float64 `json:"viewability"`
	Volume      float64 `json:"volume"`
}

// DailyTrendPoint is one date in the quality/volume trend
type DailyTrendPoint struct {
	Date           string  `json:"date"`
	Impressions    float64 `json:"impressions"`
	ViewabilityPct float64 `json:"viewability_pct"`
	SuitabilityPct float64 `json:"suitability_pct"`
}

// DeviceTrendPoint carries one viewability value per device for a date.
// A nil value means no impressions were measured and must render as a gap.
type DeviceTrendPoint struct {
	Date   string
	Values map[string]*float64
}

// MarshalJSON flattens the point to {"date": ..., "<device>": value|null}.
func (p DeviceTrendPoint) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(p.Values)+1)
	for device, v := range p.Values {
		if v == nil {
			out[device] = nil
			continue
		}
		out[device] = *v
	}
	out["date"] = p.Date
	return json.Marshal(out)
}

// UnmarshalJSON reverses MarshalJSON
func (p *DeviceTrendPoint) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	values := make(map[string]*float64, len(fields))
	var date string
	for key, msg := range fields {
		if key == "date" {
			if err := json.Unmarshal(msg, &date); err != nil {
				return fmt.Errorf("date: %w", err)
			}
			continue
		}
		var v *float64
		if err := json.Unmarshal(msg, &v); err != nil {
			return fmt.Errorf("device %q: %w", key, err)
		}
		values[key] = v
	}
	p.Date = date
	p.Values = values
	return nil
}

// Value returns the device value and whether it is present (non-null).
func (p DeviceTrendPoint) Value(device string) (float64, bool) {
	v := p.Values[device]
	if v == nil {
		return 0, false
	}
	return *v, true
}

// DeviceTrendSeries is the per-device viewability trend
type DeviceTrendSeries struct {
	Devices []string           `json:"devices"`
	Points  []DeviceTrendPoint `json:"points"`
}

// BrandRiskEntry is the suitable/unsuitable split of one GARM category.
type BrandRiskEntry struct {
	Key               string  `json:"key"`
	Category          string  `json:"category"`
	LocalizedCategory string  `json:"localized_category,omitempty"`
	SuitablePct       float64 `json:"suitable_pct"`
	UnsuitablePct     float64 `json:"unsuitable_pct"`
	Suitable          float64 `json:"suitable"`
	Unsuitable        float64 `json:"unsuitable"`
}

// IVTRate is one bar of the invalid traffic comparison
type IVTRate struct {
	Name    string  `json:"name"`
	RatePct float64 `json:"rate_pct"`
}

// ReportingPeriod spans the earliest and latest dates seen in the uploads.
type ReportingPeriod struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// SourceSummary describes what happened to one uploaded file.
type SourceSummary struct {
	Name  string     `json:"name"`
	Type  ReportType `json:"type"`
	Rows  int        `json:"rows"`
	Error string     `json:"error,omitempty"`
}

// Dashboard is everything the presentation layer needs for one session.
type Dashboard struct {
	AccountName      string             `json:"account_name"`
	ReportingPeriod  ReportingPeriod    `json:"reporting_period"`
	CPM              float64            `json:"cpm"`
	TotalImpressions float64            `json:"total_impressions"`
	KPIs             KPISet             `json:"kpis"`
	Performance      []PerformancePoint `json:"performance"`
	DailyTrend       []DailyTrendPoint  `json:"daily_trend"`
	DeviceTrend      DeviceTrendSeries  `json:"device_trend"`
	BrandRisk        []BrandRiskEntry   `json:"brand_risk"`
	IVTRates         []IVTRate          `json:"ivt_rates"`
	Insights         []string           `json:"insights"`
	Sources          []SourceSummary    `json:"sources"`
	GeneratedAt      time.Time          `json:"generated_at"`
}

// Loaded reports whether a file of type t contributed rows.
func (d *Dashboard) Loaded(t ReportType) bool {
	for _, s := range d.Sources {
		if s.Type == t && s.Rows > 0 {
			return true
		}
	}
	return false
}
