package analytics

import (
	"insightreport/internal/dataprocessing"
	"insightreport/pkg/contracts/domain"
)

// ivtDevices are the per-device bars after Overall.
var ivtDevices = []string{DeviceOTT, DeviceMobileApp, DeviceMobileWeb}

// IVTRates sums IVT and gross impressions across viewability rows and divides
// the sums, so large rows are not diluted by per-row averaging. The benchmark
// comes first, followed by Overall and each device; a zero denominator gives 0.
func IVTRates(viewability []*domain.ClassifiedReport, benchmark float64, label string) []domain.IVTRate {
	overall := &ratio{}
	byDevice := make(map[string]*ratio, len(ivtDevices))
	for _, d := range ivtDevices {
		byDevice[d] = &ratio{}
	}

	for _, r := range viewability {
		for _, row := range r.Rows {
			gross := lookupNumber(row, grossImpressionCols)
			ivt := lookupNumber(row, ivtImpressionCols)
			overall.num += ivt
			overall.den += gross
			if acc, ok := byDevice[NormalizeDevice(row.Get(deviceCols...))]; ok {
				acc.num += ivt
				acc.den += gross
			}
		}
	}

	rates := make([]domain.IVTRate, 0, len(ivtDevices)+2)
	rates = append(rates,
		domain.IVTRate{Name: label, RatePct: benchmark},
		domain.IVTRate{Name: DeviceOverall, RatePct: overall.percent()},
	)
	for _, d := range ivtDevices {
		rates = append(rates, domain.IVTRate{Name: d, RatePct: byDevice[d].percent()})
	}
	return rates
}

func (r *ratio) percent() float64 {
	if r.den <= 0 {
		return 0
	}
	return dataprocessing.Round(100*r.num/r.den, 2)
}
