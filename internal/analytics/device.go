package analytics

import (
	"sort"
	"strings"

	"insightreport/internal/dataprocessing"
	"insightreport/pkg/contracts/domain"
)

// Device labels used in the device and IVT series.
const (
	DeviceOverall   = "Overall"
	DeviceOTT       = "OTT"
	DeviceMobileApp = "Mobile App"
	DeviceMobileWeb = "Mobile Web"
)

// deviceOrder is the display order of device columns.
var deviceOrder = []string{DeviceOverall, DeviceOTT, DeviceMobileApp, DeviceMobileWeb}

// NormalizeDevice maps an exact device label to its canonical name.
// Unrecognized labels return "" and only count toward Overall.
func NormalizeDevice(raw string) string {
	switch strings.TrimSpace(raw) {
	case "Mobile App":
		return DeviceMobileApp
	case "Mobile Web":
		return DeviceMobileWeb
	case "OTT", "Ott":
		return DeviceOTT
	}
	return ""
}

type ratio struct {
	num, den float64
}

func (r *ratio) add(value, weight float64) {
	r.num += value * weight
	r.den += weight
}

// DeviceTrend computes the impression-weighted viewability per date and
// device. A cell with no measured impressions is nil so it renders as a gap.
// Devices are listed in display order, Overall always first and the rest only
// when observed. With no usable rows the series holds one empty-date point.
func DeviceTrend(viewability []*domain.ClassifiedReport, window int) domain.DeviceTrendSeries {
	cells := make(map[string]map[string]*ratio)
	observed := map[string]bool{DeviceOverall: true}

	for _, r := range viewability {
		rateCol := semanticColumn(r.Headers, viewabilityPctKeywords)
		if rateCol == "" {
			continue
		}
		for _, row := range r.Rows {
			date := rowDate(row)
			if date == "" {
				continue
			}
			imp := lookupNumber(row, grossImpressionCols)
			if imp <= 0 {
				continue
			}
			rate := dataprocessing.CleanPercent(row[rateCol])

			byDevice, ok := cells[date]
			if !ok {
				byDevice = make(map[string]*ratio)
				cells[date] = byDevice
			}
			addRatio(byDevice, DeviceOverall, rate, imp)
			if device := NormalizeDevice(row.Get(deviceCols...)); device != "" {
				observed[device] = true
				addRatio(byDevice, device, rate, imp)
			}
		}
	}

	devices := make([]string, 0, len(deviceOrder))
	for _, d := range deviceOrder {
		if observed[d] {
			devices = append(devices, d)
		}
	}

	if len(cells) == 0 {
		return domain.DeviceTrendSeries{
			Devices: devices,
			Points:  []domain.DeviceTrendPoint{{Values: map[string]*float64{DeviceOverall: nil}}},
		}
	}

	dates := make([]string, 0, len(cells))
	for d := range cells {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	dates = lastN(dates, window)

	points := make([]domain.DeviceTrendPoint, 0, len(dates))
	for _, d := range dates {
		values := make(map[string]*float64, len(devices))
		for _, device := range devices {
			values[device] = cells[d][device].rate()
		}
		points = append(points, domain.DeviceTrendPoint{Date: d, Values: values})
	}
	return domain.DeviceTrendSeries{Devices: devices, Points: points}
}

func addRatio(m map[string]*ratio, key string, value, weight float64) {
	r, ok := m[key]
	if !ok {
		r = &ratio{}
		m[key] = r
	}
	r.add(value, weight)
}

// rate returns the weighted value rounded to 2 places, or nil without weight.
func (r *ratio) rate() *float64 {
	if r == nil || r.den <= 0 {
		return nil
	}
	v := dataprocessing.Round(r.num/r.den, 2)
	return &v
}
