package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"insightreport/internal/analytics"
	"insightreport/internal/config"
	"insightreport/internal/dataprocessing"
	"insightreport/internal/exporter"
	"insightreport/internal/insights"
	"insightreport/internal/session"
	"insightreport/internal/store"
	"insightreport/pkg/contracts/domain"
)

// Upload is one file received for analysis
type Upload struct {
	Name string
	Data []byte
}

// ShareRequest asks for a password-protected share link. The dashboard is
// either inline or the latest analysis of Session.
type ShareRequest struct {
	ClientName     string            `json:"clientName" validate:"required,max=200"`
	Password       string            `json:"password" validate:"required,min=4,max=72"`
	CPM            *float64          `json:"cpm,omitempty" validate:"omitempty,gte=0"`
	Dashboard      *domain.Dashboard `json:"dashboard,omitempty" validate:"required_without=Session"`
	Session        string            `json:"session,omitempty"`
	ExpiresInHours int               `json:"expiresInHours" validate:"gte=0,max=8760"`
}

// ShareResult is returned after a snapshot was stored
type ShareResult struct {
	ID        string     `json:"id"`
	ShareURL  string     `json:"shareUrl"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// ReportView is a share configuration without its password hash
type ReportView struct {
	ID         string     `json:"id"`
	ClientName string     `json:"clientName"`
	CPM        float64    `json:"cpm"`
	CreatedAt  time.Time  `json:"createdAt"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	Expired    bool       `json:"expired"`
	ShareURL   string     `json:"shareUrl"`
}

// SharedReport is an opened snapshot
type SharedReport struct {
	Report    ReportView        `json:"report"`
	Dashboard *domain.Dashboard `json:"dashboard"`
}

// ExportResult is a rendered export ready to be written to a response
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Metrics records service-level measurements
type Metrics interface {
	AggregationObserved(ctx context.Context, d time.Duration)
	SnapshotShared(ctx context.Context)
}

type nopMetrics struct{}

func (nopMetrics) AggregationObserved(context.Context, time.Duration) {}
func (nopMetrics) SnapshotShared(context.Context)                     {}

// Option configures a ReportService
type Option func(*ReportService)

// WithMetrics sets the metrics sink
func WithMetrics(m Metrics) Option {
	return func(s *ReportService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer sets the tracer used for service spans
func WithTracer(t trace.Tracer) Option {
	return func(s *ReportService) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *ReportService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the service logger
func WithLogger(l *slog.Logger) Option {
	return func(s *ReportService) {
		if l != nil {
			s.logger = l
		}
	}
}

// ReportService orchestrates upload analysis and snapshot sharing.
type ReportService struct {
	cfg        *config.Config
	sessions   *session.Manager
	aggregator *analytics.Aggregator
	insights   *insights.Generator
	store      store.Store
	validate   *validator.Validate
	metrics    Metrics
	tracer     trace.Tracer
	now        func() time.Time
	logger     *slog.Logger

	// latest holds the last dashboard per session key for sharing
	mu     sync.RWMutex
	latest map[string]retainedDashboard
}

type retainedDashboard struct {
	dashboard *domain.Dashboard
	at        time.Time
}

// defaultMaxRetained applies when the session config leaves the cap unset
const defaultMaxRetained = 256

// AggregatorOptions maps the analytics configuration onto the aggregator.
func AggregatorOptions(cfg config.AnalyticsConfig) analytics.Options {
	return analytics.Options{
		TopCategories:       cfg.TopCategories,
		TrendWindow:         cfg.TrendWindow,
		SuitabilityBaseline: cfg.SuitabilityBaseline,
		IVTBenchmark:        cfg.IVTBenchmark,
		BenchmarkLabel:      cfg.BenchmarkLabel,
	}
}

// NewReportService creates the service
func NewReportService(cfg *config.Config, sessions *session.Manager, st store.Store, opts ...Option) *ReportService {
	s := &ReportService{
		cfg:        cfg,
		sessions:   sessions,
		aggregator: analytics.NewAggregator(AggregatorOptions(cfg.Analytics)),
		insights:   insights.NewGenerator(cfg.Insights.Language),
		store:      st,
		validate:   validator.New(),
		metrics:    nopMetrics{},
		tracer:     noop.NewTracerProvider().Tracer(""),
		now:        time.Now,
		logger:     slog.Default(),
		latest:     make(map[string]retainedDashboard),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "report_service"))
	return s
}

// Analyze decodes uploads inside a session for key and aggregates them.
// A newer Analyze under the same key abandons this one. A blank key gets a
// private session whose dashboard is not kept for sharing.
func (s *ReportService) Analyze(ctx context.Context, key string, uploads []Upload, cpmRaw string) (*domain.Dashboard, error) {
	if len(uploads) == 0 {
		return nil, ErrNoFiles
	}
	if limit := s.cfg.Session.MaxFiles; limit > 0 && len(uploads) > limit {
		return nil, fmt.Errorf("%w: %d files, limit is %d", ErrTooManyFiles, len(uploads), limit)
	}
	private := strings.TrimSpace(key) == ""
	if private {
		key = uuid.NewString()
	}

	ctx, span := s.tracer.Start(ctx, "ReportService.Analyze",
		trace.WithAttributes(
			attribute.String("session.key", key),
			attribute.Int("files", len(uploads)),
		))
	defer span.End()

	if !private {
		s.forget(key)
	}
	sess := s.sessions.Begin(ctx, key)
	for _, u := range uploads {
		if err := sess.Submit(u.Name, u.Data); err != nil {
			sess.Cancel(ctx, err)
			return nil, fmt.Errorf("submit %s: %w", u.Name, err)
		}
	}

	waitCtx := ctx
	if timeout := s.cfg.Session.Timeout; timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	set, err := sess.Wait(waitCtx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("analyze session %s: %w", key, err)
	}

	cpm := dataprocessing.ParseCPM(cpmRaw, s.cfg.Analytics.DefaultCPM)
	start := s.now()
	d, err := s.aggregator.Aggregate(set, cpm)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	d.Insights = s.insights.Generate(d.KPIs)
	s.metrics.AggregationObserved(ctx, s.now().Sub(start))

	if !private {
		s.retain(key, d)
	}

	s.logger.InfoContext(ctx, "Reports analyzed",
		slog.String("session_key", key),
		slog.Int("files", len(uploads)),
		slog.Int("reports", set.Len()),
		slog.Float64("final_suitability", d.KPIs.FinalSuitability),
		slog.Float64("budget_optimization", d.KPIs.BudgetOptimization))
	return d, nil
}

// Latest returns the last dashboard analyzed under key while it is retained
func (s *ReportService) Latest(key string) (*domain.Dashboard, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.latest[key]
	if !ok || s.retentionExpired(r, s.now()) {
		return nil, false
	}
	return r.dashboard, true
}

// retain keeps d for sharing, dropping expired entries and then the oldest
// ones beyond the cap.
func (s *ReportService) retain(key string, d *domain.Dashboard) {
	now := s.now()
	limit := s.cfg.Session.MaxRetained
	if limit <= 0 {
		limit = defaultMaxRetained
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[key] = retainedDashboard{dashboard: d, at: now}
	for k, r := range s.latest {
		if s.retentionExpired(r, now) {
			delete(s.latest, k)
		}
	}
	for len(s.latest) > limit {
		oldest := ""
		var oldestAt time.Time
		for k, r := range s.latest {
			if k == key {
				continue
			}
			if oldest == "" || r.at.Before(oldestAt) {
				oldest, oldestAt = k, r.at
			}
		}
		delete(s.latest, oldest)
	}
}

func (s *ReportService) forget(key string) {
	s.mu.Lock()
	delete(s.latest, key)
	s.mu.Unlock()
}

func (s *ReportService) retentionExpired(r retainedDashboard, now time.Time) bool {
	ttl := s.cfg.Session.RetainFor
	return ttl > 0 && now.Sub(r.at) > ttl
}

// Share stores a slimmed snapshot behind a password and returns its link.
// A CPM different from the dashboard's recomputes the budget figure and
// insights before saving.
func (s *ReportService) Share(ctx context.Context, req ShareRequest) (*ShareResult, error) {
	req.ClientName = strings.TrimSpace(req.ClientName)
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, fmt.Errorf("invalid share request: %w", err)
	}

	ctx, span := s.tracer.Start(ctx, "ReportService.Share")
	defer span.End()

	d := req.Dashboard
	if d == nil {
		var ok bool
		if d, ok = s.Latest(req.Session); !ok {
			return nil, fmt.Errorf("%w: session %q", ErrNoDashboard, req.Session)
		}
	}
	d = store.Slim(d, s.cfg.Store.MaxChartRows)
	if req.CPM != nil && *req.CPM != d.CPM {
		s.reprice(d, *req.CPM)
	}

	hash, err := store.HashPassword(req.Password, s.cfg.Security.BcryptCost)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	snap := &store.Snapshot{
		Config: store.ReportConfig{
			ID:           uuid.NewString(),
			ClientName:   req.ClientName,
			CPM:          d.CPM,
			PasswordHash: hash,
			CreatedAt:    now,
			ExpiresAt:    s.expiry(now, req.ExpiresInHours),
		},
		Dashboard: d,
	}
	if err := s.store.Save(ctx, snap); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	s.metrics.SnapshotShared(ctx)

	s.logger.InfoContext(ctx, "Report shared",
		slog.String("report_id", snap.Config.ID),
		slog.String("client_name", snap.Config.ClientName))
	return &ShareResult{
		ID:        snap.Config.ID,
		ShareURL:  s.shareURL(snap.Config.ID),
		ExpiresAt: snap.Config.ExpiresAt,
	}, nil
}

// reprice recomputes the CPM-dependent figures of d in place
func (s *ReportService) reprice(d *domain.Dashboard, cpm float64) {
	if cpm < 0 {
		cpm = 0
	}
	d.CPM = cpm
	d.KPIs.BudgetOptimization = analytics.BudgetOptimization(d.KPIs.TotalExclusions, cpm)
	d.Insights = s.insights.Generate(d.KPIs)
}

func (s *ReportService) expiry(now time.Time, hours int) *time.Time {
	ttl := time.Duration(hours) * time.Hour
	if hours <= 0 {
		ttl = s.cfg.Store.DefaultExpiry
	}
	if ttl <= 0 {
		return nil
	}
	at := now.Add(ttl)
	return &at
}

func (s *ReportService) shareURL(id string) string {
	return s.cfg.Server.PublicBaseURL + "/shared/" + id
}

// Open verifies the password and returns the snapshot.
func (s *ReportService) Open(ctx context.Context, id, password string) (*SharedReport, error) {
	snap, err := s.authorize(ctx, id, password, false)
	if err != nil {
		return nil, err
	}
	return &SharedReport{Report: s.view(snap.Config), Dashboard: snap.Dashboard}, nil
}

func (s *ReportService) authorize(ctx context.Context, id, password string, allowExpired bool) (*store.Snapshot, error) {
	snap, err := s.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	if !allowExpired && snap.Config.Expired(s.now()) {
		return nil, fmt.Errorf("%w: %s", ErrReportExpired, id)
	}
	if err := store.CheckPassword(snap.Config.PasswordHash, password); err != nil {
		s.logger.WarnContext(ctx, "Wrong report password", slog.String("report_id", id))
		return nil, fmt.Errorf("%w: %s", ErrWrongPassword, id)
	}
	return snap, nil
}

// List returns every share configuration, newest first.
func (s *ReportService) List(ctx context.Context) ([]ReportView, error) {
	configs, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	views := make([]ReportView, 0, len(configs))
	for _, c := range configs {
		views = append(views, s.view(c))
	}
	return views, nil
}

func (s *ReportService) view(c store.ReportConfig) ReportView {
	return ReportView{
		ID:         c.ID,
		ClientName: c.ClientName,
		CPM:        c.CPM,
		CreatedAt:  c.CreatedAt,
		ExpiresAt:  c.ExpiresAt,
		Expired:    c.Expired(s.now()),
		ShareURL:   s.shareURL(c.ID),
	}
}

// Delete removes a snapshot after verifying its password. Expired snapshots
// can still be deleted.
func (s *ReportService) Delete(ctx context.Context, id, password string) error {
	if _, err := s.authorize(ctx, id, password, true); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrReportNotFound, id)
		}
		return fmt.Errorf("delete snapshot %s: %w", id, err)
	}
	s.logger.InfoContext(ctx, "Report deleted", slog.String("report_id", id))
	return nil
}

// Export renders a snapshot as CSV (one series, "kpis" by default) or as an
// XLSX workbook holding every series.
func (s *ReportService) Export(ctx context.Context, id, password, format, series string) (*ExportResult, error) {
	f, err := exporter.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	snap, err := s.authorize(ctx, id, password, false)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	name := id
	switch f {
	case exporter.FormatXLSX:
		if err := exporter.WriteXLSX(&buf, snap.Dashboard); err != nil {
			return nil, fmt.Errorf("export %s: %w", id, err)
		}
	default:
		if strings.TrimSpace(series) == "" {
			series = exporter.SeriesKPIs
		}
		table, err := exporter.TableByName(snap.Dashboard, series)
		if err != nil {
			return nil, err
		}
		if err := exporter.WriteCSV(&buf, table, exporter.WriteOptions{BOMPrefix: true}); err != nil {
			return nil, fmt.Errorf("export %s: %w", id, err)
		}
		name += "-" + table.Name
	}

	return &ExportResult{
		Filename:    name + "." + f.Extension(),
		ContentType: f.ContentType(),
		Body:        buf.Bytes(),
	}, nil
}

// ActiveSessions reports decode sessions still in progress
func (s *ReportService) ActiveSessions() int {
	return s.sessions.Active()
}
