package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"insightreport/pkg/contracts/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    domain.ReportType
	}{
		{"performance", []string{"Category Name", "VCR", "CTR", "Impressions"}, domain.ReportTypePerformance},
		{"performance vcr percent", []string{"category name", "VCR%", "Impressions"}, domain.ReportTypePerformance},
		{"suitability", []string{"Report Date", "Brand Suitability %", "Suitable Impressions", "Total Impressions"}, domain.ReportTypeSuitability},
		{"suitability percent", []string{"Suitability%", "Suitable Impressions"}, domain.ReportTypeSuitability},
		{"viewability", []string{"Report Date", "Viewability Rate", "Gross Impressions", "Device Type"}, domain.ReportTypeViewability},
		{"viewability percent", []string{" Viewability% ", "GROSS IMPRESSIONS"}, domain.ReportTypeViewability},
		{"exclusion", []string{"Placement Name", "Video Suitability", "Impressions"}, domain.ReportTypeExclusion},
		{"performance wins precedence", []string{"Category Name", "VCR", "Viewability Rate", "Gross Impressions"}, domain.ReportTypePerformance},
		{"missing vcr", []string{"Category Name", "CTR"}, domain.ReportTypeUnknown},
		{"suitability without impressions", []string{"Brand Suitability %"}, domain.ReportTypeUnknown},
		{"unrelated", []string{"Foo", "Bar"}, domain.ReportTypeUnknown},
		{"empty", nil, domain.ReportTypeUnknown},
		{"blank cells", []string{"", "  "}, domain.ReportTypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := Classify(tt.headers)
			assert.Equal(t, tt.want, first)
			assert.Equal(t, first, Classify(tt.headers), "classification must be stable")
		})
	}
}

func TestClassifyWithHint(t *testing.T) {
	tests := []struct {
		name     string
		headers  []string
		filename string
		want     domain.ReportType
	}{
		{"hint with evidence", []string{"Category", "VCR", "CTR"}, "performance.csv", domain.ReportTypePerformance},
		{"hint without evidence", []string{"Category", "VCR", "CTR"}, "brand_risk.csv", domain.ReportTypeUnknown},
		{"headers beat filename", []string{"Viewability Rate", "Gross Impressions"}, "performance.csv", domain.ReportTypeViewability},
		{"no header evidence at all", []string{"Foo"}, "performance.csv", domain.ReportTypeUnknown},
		{"no hint", []string{"Category", "VCR"}, "export.csv", domain.ReportTypeUnknown},
		{"suitability hint", []string{"Date", "Suitable Impressions"}, "Q1 suitability.xlsx", domain.ReportTypeSuitability},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyWithHint(tt.headers, tt.filename))
		})
	}
}

func TestHintFromFilename(t *testing.T) {
	assert.Equal(t, domain.ReportTypeViewability, HintFromFilename("/tmp/Q1_view_report.csv"))
	assert.Equal(t, domain.ReportTypeSuitability, HintFromFilename("brand_risk.xlsx"))
	assert.Equal(t, domain.ReportTypePerformance, HintFromFilename("Contextual.csv"))
	assert.Equal(t, domain.ReportTypeExclusion, HintFromFilename("exclusion-list.csv"))
	assert.Equal(t, domain.ReportTypeUnknown, HintFromFilename("data.csv"))
	assert.Equal(t, domain.ReportTypeUnknown, HintFromFilename(""))
}
