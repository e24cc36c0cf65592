// Package shared holds helpers used across packages that belong to no single
// layer.
//
// The testutil subpackage provides:
//
//   - a buffered slog handler with assertion helpers for log output
//   - report export fixtures (suitability, viewability, exclusion and
//     performance CSVs) with their expected KPIs
//   - helpers that write fixtures and excelize workbooks into t.TempDir()
//
// Example usage:
//
//	func TestAnalyze(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    svc := newService(t, logger)
//
//	    d, err := svc.Analyze(ctx, "client", uploads(testutil.ReportFixtures()), "")
//	    require.NoError(t, err)
//	    assert.Equal(t, testutil.FixtureFinalSuitability, d.KPIs.FinalSuitability)
//	    testutil.AssertNoErrors(t, logs)
//	}
package shared
