package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insightreport/internal/exporter"
	"insightreport/internal/shared/testutil"
	"insightreport/pkg/contracts/domain"
)

func writeFixtures(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, f := range testutil.ReportFixtures() {
		testutil.WriteFixture(t, dir, f.Name, string(f.Data))
	}
	// ignored by directory expansion
	testutil.WriteFixture(t, dir, "notes.md", "# not a report")
	return dir
}

func TestRun_DirectoryToStdout(t *testing.T) {
	dir := writeFixtures(t)
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{"-in", dir, "-cpm", "3000"}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	var d domain.Dashboard
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &d))
	assert.Equal(t, 3000.0, d.CPM)
	assert.InDelta(t, 18000, d.KPIs.BudgetOptimization, 0.01)
	assert.InDelta(t, testutil.FixtureFinalSuitability, d.KPIs.FinalSuitability, 0.01)
	assert.Len(t, d.Sources, len(testutil.ReportFixtures()))
	assert.Len(t, d.Insights, 3)
	assert.Contains(t, stderr.String(), "File classified")
}

func TestRun_FileOutputs(t *testing.T) {
	dir := writeFixtures(t)
	outDir := t.TempDir()
	jsonPath := filepath.Join(outDir, "dashboard.json")
	xlsxPath := filepath.Join(outDir, "report.xlsx")
	csvDir := filepath.Join(outDir, "csv")

	var stdout, stderr bytes.Buffer
	args := []string{
		"-out", jsonPath,
		"-xlsx", xlsxPath,
		"-csv", csvDir,
		"-lang", "ja",
		filepath.Join(dir, "brand_risk.csv"),
		filepath.Join(dir, "exclusions.csv"),
	}
	require.NoError(t, run(context.Background(), args, &stdout, &stderr), stderr.String())
	assert.Empty(t, stdout.String())

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var d domain.Dashboard
	require.NoError(t, json.Unmarshal(data, &d))
	assert.InDelta(t, testutil.FixtureBudgetOptimization, d.KPIs.BudgetOptimization, 0.01)
	require.NotEmpty(t, d.Insights)
	assert.NotRegexp(t, `^[A-Za-z]`, d.Insights[0])

	info, err := os.Stat(xlsxPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	for _, name := range exporter.SeriesNames {
		assert.FileExists(t, filepath.Join(csvDir, name+".csv"))
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no inputs", nil},
		{"missing file", []string{"-in", filepath.Join(t.TempDir(), "missing.csv")}},
		{"empty directory", []string{"-in", t.TempDir()}},
		{"bad flag", []string{"-nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Error(t, run(context.Background(), tt.args, &stdout, &stderr))
			assert.Empty(t, stdout.String())
		})
	}
}

func TestCollectInputs_SortsAndFilters(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFixture(t, dir, "b.csv", "x")
	testutil.WriteFixture(t, dir, "a.XLSX", "x")
	testutil.WriteFixture(t, dir, "~$a.xlsx", "x")
	testutil.WriteFixture(t, dir, "c.pdf", "x")

	paths, err := collectInputs([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.XLSX"), filepath.Join(dir, "b.csv")}, paths)
}
