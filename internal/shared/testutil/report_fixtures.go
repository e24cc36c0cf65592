package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// Report export fixtures. The suitability export starts with a disclaimer
// line the header scan has to skip, and mixes "90%" and "0.8" ratio styles.
const (
	SuitabilityCSV = `Disclaimer: figures are estimates and subject to change
Report Date,Brand Suitability %,Suitable Impressions,Total Impressions,Adult - Suitable Impressions,Adult - Unsuitable Impressions
2024-01-01,90%,900,"1,000",10,5
2024/01/02,0.8,1600,2000,20,15
`

	ViewabilityCSV = `Report Date,Viewability Rate,Gross Impressions,Device Type,IVT Impressions
1/1/2024,70%,1000,OTT,10
1/1/2024,0.5,1000,Mobile App,20
`

	ExclusionCSV = `Placement Name,Video Suitability,Impressions
Channel A,Unsuitable,4000
Channel B,Suitable,1000
Channel C, unsuitable ,2000
`

	PerformanceCSV = `Category Name,VCR,CTR,Viewability,Impressions
Music,80%,1.5%,70%,3000
Film,0.6,0.5,60,1000
Empty,50%,1%,50%,0
`

	// UnknownCSV matches no report type.
	UnknownCSV = `foo,bar
1,2
`
)

// Expected KPIs for the four fixtures aggregated at the default CPM of 1500.
const (
	FixtureFinalSuitability   = 83.33
	FixtureLift               = -3.07
	FixtureTotalExclusions    = 6000
	FixtureBudgetOptimization = 9000
)

// Fixture is one named upload
type Fixture struct {
	Name string
	Data []byte
}

// ReportFixtures returns one file of every known report type.
func ReportFixtures() []Fixture {
	return []Fixture{
		{Name: "brand_risk.csv", Data: []byte(SuitabilityCSV)},
		{Name: "viewability.csv", Data: []byte(ViewabilityCSV)},
		{Name: "exclusions.csv", Data: []byte(ExclusionCSV)},
		{Name: "performance.csv", Data: []byte(PerformanceCSV)},
	}
}

// WriteFixture writes content to dir/name and returns the path.
func WriteFixture(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}

// WriteWorkbook writes rows into the first sheet of a new workbook at dir/name.
func WriteWorkbook(t *testing.T, dir, name string, rows [][]string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			t.Fatalf("set row %d: %v", i, err)
		}
	}

	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook %s: %v", name, err)
	}
	return path
}
