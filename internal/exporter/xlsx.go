package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"insightreport/pkg/contracts/domain"
)

// sheetTitles are the workbook tab names per series
var sheetTitles = map[string]string{
	SeriesKPIs:        "KPIs",
	SeriesPerformance: "Performance",
	SeriesDailyTrend:  "Daily Trend",
	SeriesDeviceTrend: "Device Trend",
	SeriesBrandRisk:   "Brand Risk",
	SeriesIVT:         "IVT",
	SeriesInsights:    "Insights",
	SeriesSources:     "Sources",
}

// Workbook builds an XLSX workbook with one sheet per series.
func Workbook(d *domain.Dashboard) (*excelize.File, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for i, t := range Tables(d) {
		sheet := sheetTitles[t.Name]
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				f.Close()
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", sheet, err)
		}

		if err := writeSheet(f, sheet, t, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("write sheet %s: %w", sheet, err)
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, t Table, headerStyle int) error {
	header := make([]any, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return err
	}

	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	if len(t.Headers) > 0 {
		last, err := excelize.ColumnNumberToName(len(t.Headers))
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, "A", last, 18); err != nil {
			return err
		}
	}
	return nil
}

// WriteXLSX writes the dashboard workbook to w
func WriteXLSX(w io.Writer, d *domain.Dashboard) error {
	f, err := Workbook(d)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveXLSX writes the dashboard workbook to path
func SaveXLSX(path string, d *domain.Dashboard) error {
	f, err := Workbook(d)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}
