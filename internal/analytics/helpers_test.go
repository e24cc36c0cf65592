package analytics

import (
	"insightreport/pkg/contracts/domain"
)

// makeReport builds a report whose rows are given in header order.
func makeReport(t domain.ReportType, name string, headers []string, rows ...[]string) *domain.ClassifiedReport {
	r := &domain.ClassifiedReport{Type: t, Headers: headers, SourceName: name}
	for _, cells := range rows {
		row := make(domain.RawRow, len(headers))
		for i, h := range headers {
			if i < len(cells) {
				row[h] = cells[i]
			}
		}
		r.Rows = append(r.Rows, row)
	}
	return r
}

func setOf(reports ...*domain.ClassifiedReport) *ReportSet {
	s := NewReportSet()
	for _, r := range reports {
		if err := s.Add(r); err != nil {
			panic(err)
		}
	}
	return s
}

var (
	suitabilityHeaders = []string{"Report Date", "Brand Suitability %", "Suitable Impressions", "Total Impressions"}
	viewabilityHeaders = []string{"Report Date", "Viewability Rate", "Gross Impressions", "Device Type", "IVT Impressions"}
	exclusionHeaders   = []string{"Placement Name", "Video Suitability", "Impressions"}
	performanceHeaders = []string{"Category Name", "VCR", "CTR", "Viewability", "Impressions"}
)
