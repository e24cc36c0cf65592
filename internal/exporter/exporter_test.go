package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"insightreport/internal/dataprocessing"
	"insightreport/pkg/contracts/domain"
)

func sampleDashboard() *domain.Dashboard {
	ott := 55.5
	return &domain.Dashboard{
		AccountName:      "Acme",
		ReportingPeriod:  domain.ReportingPeriod{Start: "2024-04-01", End: "2024-04-02"},
		CPM:              1500,
		TotalImpressions: 20000,
		KPIs:             domain.KPISet{FinalSuitability: 90.25, Lift: 3.85, TotalExclusions: 1000, BudgetOptimization: 1500},
		Performance: []domain.PerformancePoint{
			{Category: "Music", VCR: 80, CTR: 1.25, Viewability: 70, Volume: 12000},
			{Category: "Movie", VCR: 75, CTR: 0.5, Viewability: 65, Volume: 8000},
		},
		DailyTrend: []domain.DailyTrendPoint{
			{Date: "2024-04-01", Impressions: 10000, ViewabilityPct: 60, SuitabilityPct: 90},
			{Date: "2024-04-02", Impressions: 10000, ViewabilityPct: 62, SuitabilityPct: 91},
		},
		DeviceTrend: domain.DeviceTrendSeries{
			Devices: []string{"Overall", "OTT"},
			Points: []domain.DeviceTrendPoint{
				{Date: "2024-04-01", Values: map[string]*float64{"Overall": &ott, "OTT": nil}},
			},
		},
		BrandRisk: []domain.BrandRiskEntry{{Key: "adult", Category: "Adult & Explicit Sexual Content", SuitablePct: 90, UnsuitablePct: 10, Suitable: 900, Unsuitable: 100}},
		IVTRates:  []domain.IVTRate{{Name: "Benchmark", RatePct: 1}, {Name: "Total", RatePct: 0.4}},
		Insights:  []string{"first", "second"},
		Sources:   []domain.SourceSummary{{Name: "risk.csv", Type: domain.ReportTypeSuitability, Rows: 2}},
	}
}

func TestTables_Shapes(t *testing.T) {
	tables := Tables(sampleDashboard())
	require.Len(t, tables, len(SeriesNames))
	for i, table := range tables {
		assert.Equal(t, SeriesNames[i], table.Name)
		for _, row := range table.Rows {
			assert.Len(t, row, len(table.Headers), table.Name)
		}
	}

	byName := map[string]Table{}
	for _, table := range tables {
		byName[table.Name] = table
	}
	assert.Len(t, byName[SeriesKPIs].Rows, 9)
	assert.Len(t, byName[SeriesPerformance].Rows, 2)
	assert.Equal(t, []string{"Date", "Overall", "OTT"}, byName[SeriesDeviceTrend].Headers)
	assert.Equal(t, []any{"2024-04-01", 55.5, nil}, byName[SeriesDeviceTrend].Rows[0])
	assert.Equal(t, []any{1, "first"}, byName[SeriesInsights].Rows[0])
	assert.Equal(t, []any{"risk.csv", "suitability", 2, ""}, byName[SeriesSources].Rows[0])
}

func TestTables_SkipsPlaceholders(t *testing.T) {
	d := &domain.Dashboard{
		DailyTrend: []domain.DailyTrendPoint{{}},
		DeviceTrend: domain.DeviceTrendSeries{
			Devices: []string{"Overall"},
			Points:  []domain.DeviceTrendPoint{{Values: map[string]*float64{"Overall": nil}}},
		},
	}
	daily, err := TableByName(d, SeriesDailyTrend)
	require.NoError(t, err)
	assert.Empty(t, daily.Rows)

	device, err := TableByName(d, SeriesDeviceTrend)
	require.NoError(t, err)
	assert.Empty(t, device.Rows)
}

func TestTableByName(t *testing.T) {
	table, err := TableByName(sampleDashboard(), " Performance ")
	require.NoError(t, err)
	assert.Equal(t, SeriesPerformance, table.Name)

	_, err = TableByName(sampleDashboard(), "nope")
	assert.ErrorIs(t, err, ErrUnknownSeries)

	table, err = TableByName(nil, SeriesKPIs)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 9)
}

func TestWriteCSV(t *testing.T) {
	table, err := TableByName(sampleDashboard(), SeriesPerformance)
	require.NoError(t, err)

	tests := []struct {
		name string
		bom  bool
	}{
		{"plain", false},
		{"with BOM", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteCSV(&buf, table, WriteOptions{BOMPrefix: tt.bom}))

			data := buf.Bytes()
			assert.Equal(t, tt.bom, bytes.HasPrefix(data, utf8BOM))
			records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM))).ReadAll()
			require.NoError(t, err)
			assert.Equal(t, [][]string{
				{"Category", "VCR", "CTR", "Viewability", "Volume"},
				{"Music", "80", "1.25", "70", "12000"},
				{"Movie", "75", "0.5", "65", "8000"},
			}, records)
		})
	}
}

func TestWriteCSV_RoundTripsThroughParser(t *testing.T) {
	table, err := TableByName(sampleDashboard(), SeriesDeviceTrend)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table, WriteOptions{BOMPrefix: true}))

	rows, err := dataprocessing.ParseCSV(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Overall", "OTT"}, rows[0])
	assert.Equal(t, []string{"2024-04-01", "55.5", ""}, rows[1])
}

func TestWriteCSVDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	paths, err := WriteCSVDir(dir, sampleDashboard(), WriteOptions{})
	require.NoError(t, err)
	require.Len(t, paths, len(SeriesNames))

	content, err := os.ReadFile(filepath.Join(dir, "kpis.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "Budget Optimization,1500")
}

func TestWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleDashboard()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"KPIs", "Performance", "Daily Trend", "Device Trend", "Brand Risk", "IVT", "Insights", "Sources"}, f.GetSheetList())

	rows, err := f.GetRows("Performance")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Category", "VCR", "CTR", "Viewability", "Volume"}, rows[0])
	assert.Equal(t, "Music", rows[1][0])
	assert.Equal(t, "12000", rows[1][4])

	kpis, err := f.GetRows("KPIs")
	require.NoError(t, err)
	assert.Equal(t, []string{"Account", "Acme"}, kpis[1])
}

func TestSaveXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.xlsx")
	require.NoError(t, SaveXLSX(path, &domain.Dashboard{}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Performance")
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatCSV, false},
		{"CSV", FormatCSV, false},
		{"xlsx", FormatXLSX, false},
		{"excel", FormatXLSX, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, dataprocessing.ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "text/csv; charset=utf-8", FormatCSV.ContentType())
	assert.Contains(t, FormatXLSX.ContentType(), "spreadsheetml")
	assert.Equal(t, "xlsx", FormatXLSX.Extension())
}
