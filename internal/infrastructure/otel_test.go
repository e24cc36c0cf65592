package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insightreport/internal/config"
	"insightreport/pkg/contracts/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestInitializeTelemetry_ExposesInstruments(t *testing.T) {
	tel, err := InitializeTelemetry(config.TelemetryConfig{
		Enabled:     true,
		ServiceName: "insight-test",
		Environment: "test",
	}, quietLogger())
	require.NoError(t, err)
	defer tel.Shutdown(context.Background())

	require.NotNil(t, tel.MetricsHandler)
	require.NotNil(t, tel.TracerProvider)

	ctx := context.Background()
	tel.Metrics.FileClassified(ctx, domain.ReportTypeSuitability)
	tel.Metrics.FileClassified(ctx, domain.ReportTypeSuitability)
	tel.Metrics.SessionAbandoned(ctx)
	tel.Metrics.AggregationObserved(ctx, 30*time.Millisecond)
	tel.Metrics.SnapshotShared(ctx)
	tel.Metrics.HTTPRequest(ctx, http.MethodPost, "/api/v1/reports", http.StatusCreated, time.Millisecond)

	body := scrape(t, tel.MetricsHandler)
	assert.Contains(t, body, "insight_files_classified_total")
	assert.Contains(t, body, `type="suitability"`)
	assert.Contains(t, body, "insight_sessions_abandoned_total")
	assert.Contains(t, body, "insight_aggregation_duration_seconds")
	assert.Contains(t, body, "insight_snapshots_shared_total")
	assert.Contains(t, body, "insight_http_requests_total")
	assert.Contains(t, body, `status="201"`)
	assert.Contains(t, body, "system_goroutines")
}

func TestInitializeTelemetry_InstancesAreIsolated(t *testing.T) {
	cfg := config.TelemetryConfig{Enabled: true, ServiceName: "a"}
	first, err := InitializeTelemetry(cfg, quietLogger())
	require.NoError(t, err)
	defer first.Shutdown(context.Background())
	second, err := InitializeTelemetry(cfg, quietLogger())
	require.NoError(t, err)
	defer second.Shutdown(context.Background())

	first.Metrics.SnapshotShared(context.Background())
	assert.Contains(t, scrape(t, first.MetricsHandler), "insight_snapshots_shared_total")
	assert.NotContains(t, scrape(t, second.MetricsHandler), "insight_snapshots_shared_total")
}

func TestInitializeTelemetry_Disabled(t *testing.T) {
	tel, err := InitializeTelemetry(config.TelemetryConfig{Enabled: false}, quietLogger())
	require.NoError(t, err)

	assert.Nil(t, tel.MetricsHandler)
	assert.Nil(t, tel.TracerProvider)
	require.NotNil(t, tel.Metrics)

	ctx, span := tel.StartSpan(context.Background(), "noop")
	tel.Metrics.FileClassified(ctx, domain.ReportTypeViewability)
	RecordError(ctx, errors.New("ignored"))
	span.End()
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestStartSpan_SetsTraceID(t *testing.T) {
	tel, err := InitializeTelemetry(config.TelemetryConfig{Enabled: true, ServiceName: "span"}, quietLogger())
	require.NoError(t, err)
	defer tel.Shutdown(context.Background())

	ctx, span := tel.StartSpan(context.Background(), "aggregate")
	defer span.End()
	assert.Equal(t, span.SpanContext().TraceID().String(), GetTraceID(ctx))
	RecordError(ctx, errors.New("boom"))
}
