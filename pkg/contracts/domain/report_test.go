package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReportType(t *testing.T) {
	tests := []struct {
		in      string
		want    ReportType
		wantErr bool
	}{
		{"performance", ReportTypePerformance, false},
		{" Suitability ", ReportTypeSuitability, false},
		{"risk", ReportTypeSuitability, false},
		{"view", ReportTypeViewability, false},
		{"exclusion", ReportTypeExclusion, false},
		{"", ReportTypeUnknown, false},
		{"pie", ReportTypeUnknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseReportType(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReportTypeText(t *testing.T) {
	data, err := json.Marshal(map[string]ReportType{"t": ReportTypeViewability})
	require.NoError(t, err)
	assert.JSONEq(t, `{"t":"viewability"}`, string(data))

	var back map[string]ReportType
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, ReportTypeViewability, back["t"])

	_, err = ReportType(42).MarshalText()
	assert.Error(t, err)
	assert.False(t, ReportType(42).Known())
	assert.False(t, ReportTypeUnknown.Known())
	assert.True(t, ReportTypeExclusion.Known())
}

func TestRawRowLookup(t *testing.T) {
	row := RawRow{
		"Total Impressions":    "",
		" gross impressions ": "1,000",
		"Impressions":          "5",
	}

	v, ok := row.Lookup("Total Impressions", "Gross Impressions", "Impressions")
	assert.True(t, ok)
	assert.Equal(t, "1,000", v)

	assert.Equal(t, "5", row.Get("IMPRESSIONS"))

	_, ok = row.Lookup("Suitable Impressions")
	assert.False(t, ok)
}

func TestDeviceTrendPointJSON(t *testing.T) {
	v := 71.5
	p := DeviceTrendPoint{Date: "2024-01-02", Values: map[string]*float64{"Overall": &v, "OTT": nil}}

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-01-02","Overall":71.5,"OTT":null}`, string(data))

	var back DeviceTrendPoint
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "2024-01-02", back.Date)
	got, ok := back.Value("Overall")
	assert.True(t, ok)
	assert.Equal(t, 71.5, got)
	_, ok = back.Value("OTT")
	assert.False(t, ok)
	assert.Contains(t, back.Values, "OTT")
}

func TestDashboardLoaded(t *testing.T) {
	d := &Dashboard{Sources: []SourceSummary{
		{Name: "a.csv", Type: ReportTypeSuitability, Rows: 3},
		{Name: "b.csv", Type: ReportTypeUnknown},
		{Name: "c.csv", Type: ReportTypeExclusion, Rows: 0},
	}}
	assert.True(t, d.Loaded(ReportTypeSuitability))
	assert.False(t, d.Loaded(ReportTypeExclusion))
	assert.False(t, d.Loaded(ReportTypePerformance))
}
