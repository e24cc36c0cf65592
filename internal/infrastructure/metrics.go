package infrastructure

import (
	"context"
	"runtime"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"insightreport/pkg/contracts/domain"
)

// Metrics holds the module's instruments
type Metrics struct {
	filesClassified     metric.Int64Counter
	sessionsAbandoned   metric.Int64Counter
	aggregationDuration metric.Float64Histogram
	snapshotsShared     metric.Int64Counter
	httpRequests        metric.Int64Counter
	httpDuration        metric.Float64Histogram
	wsClients           metric.Int64UpDownCounter
	wsMessages          metric.Int64Counter
	wsDropped           metric.Int64Counter
}

// NewMetrics creates every instrument on meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)

	if m.filesClassified, err = meter.Int64Counter(
		"insight_files_classified_total",
		metric.WithDescription("Uploaded files by detected report type"),
	); err != nil {
		return nil, err
	}

	if m.sessionsAbandoned, err = meter.Int64Counter(
		"insight_sessions_abandoned_total",
		metric.WithDescription("Upload sessions superseded before completion"),
	); err != nil {
		return nil, err
	}

	if m.aggregationDuration, err = meter.Float64Histogram(
		"insight_aggregation_duration_seconds",
		metric.WithDescription("Dashboard aggregation latency"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.snapshotsShared, err = meter.Int64Counter(
		"insight_snapshots_shared_total",
		metric.WithDescription("Dashboard snapshots saved as share links"),
	); err != nil {
		return nil, err
	}

	if m.httpRequests, err = meter.Int64Counter(
		"insight_http_requests_total",
		metric.WithDescription("HTTP requests by route and status"),
	); err != nil {
		return nil, err
	}

	if m.httpDuration, err = meter.Float64Histogram(
		"insight_http_request_duration_seconds",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.wsClients, err = meter.Int64UpDownCounter(
		"insight_websocket_clients",
		metric.WithDescription("Connected websocket clients"),
	); err != nil {
		return nil, err
	}

	if m.wsMessages, err = meter.Int64Counter(
		"insight_websocket_messages_total",
		metric.WithDescription("Progress messages delivered to websocket clients"),
	); err != nil {
		return nil, err
	}

	if m.wsDropped, err = meter.Int64Counter(
		"insight_websocket_dropped_total",
		metric.WithDescription("Clients disconnected because their send buffer was full"),
	); err != nil {
		return nil, err
	}

	return &m, nil
}

// FileClassified counts one decoded file
func (m *Metrics) FileClassified(ctx context.Context, t domain.ReportType) {
	m.filesClassified.Add(ctx, 1, metric.WithAttributes(attribute.String("type", t.String())))
}

// SessionAbandoned counts one superseded session
func (m *Metrics) SessionAbandoned(ctx context.Context) {
	m.sessionsAbandoned.Add(ctx, 1)
}

// AggregationObserved records one aggregation run
func (m *Metrics) AggregationObserved(ctx context.Context, d time.Duration) {
	m.aggregationDuration.Record(ctx, d.Seconds())
}

// SnapshotShared counts one saved share link
func (m *Metrics) SnapshotShared(ctx context.Context) {
	m.snapshotsShared.Add(ctx, 1)
}

// HTTPRequest records one served request
func (m *Metrics) HTTPRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.String("status", strconv.Itoa(status)),
	)
	m.httpRequests.Add(ctx, 1, attrs)
	m.httpDuration.Record(ctx, d.Seconds(), attrs)
}

// WebSocketClients adjusts the connected client gauge by delta
func (m *Metrics) WebSocketClients(ctx context.Context, delta int64) {
	m.wsClients.Add(ctx, delta)
}

// WebSocketMessage counts one message queued for a client
func (m *Metrics) WebSocketMessage(ctx context.Context, msgType string) {
	m.wsMessages.Add(ctx, 1, metric.WithAttributes(attribute.String("type", msgType)))
}

// WebSocketDropped counts one slow client disconnect
func (m *Metrics) WebSocketDropped(ctx context.Context) {
	m.wsDropped.Add(ctx, 1)
}

// RegisterRuntimeMetrics exposes goroutine and heap gauges read at collection time.
func RegisterRuntimeMetrics(meter metric.Meter) error {
	goroutines, err := meter.Int64ObservableGauge(
		"system_goroutines",
		metric.WithDescription("Number of active goroutines"),
	)
	if err != nil {
		return err
	}
	heap, err := meter.Int64ObservableGauge(
		"system_memory_heap_bytes",
		metric.WithDescription("Heap bytes in use"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		o.ObserveInt64(goroutines, int64(runtime.NumGoroutine()))
		o.ObserveInt64(heap, int64(ms.HeapInuse))
		return nil
	}, goroutines, heap)
	return err
}
