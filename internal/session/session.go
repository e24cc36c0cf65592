// Package session owns the lifecycle of one client's upload batch.
//
// Files are decoded concurrently, but aggregation only ever sees the full
// batch: Wait is a barrier that returns once every submitted decode has
// finished. Beginning a new session under the same key abandons the previous
// one; its pending decodes are discarded and its Wait returns
// ErrSessionAbandoned.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"insightreport/internal/analytics"
	"insightreport/pkg/contracts/domain"
	"insightreport/pkg/contracts/events"
)

var (
	// ErrSessionAbandoned is returned when a newer session replaced this one.
	ErrSessionAbandoned = errors.New("session abandoned")
	// ErrSessionClosed is returned when submitting after Wait.
	ErrSessionClosed = errors.New("session closed")
)

// DefaultMaxConcurrentDecodes bounds decode goroutines per session.
const DefaultMaxConcurrentDecodes = 4

// Decoder turns one uploaded file into a classified report.
type Decoder func(ctx context.Context, name string, data []byte) (*domain.ClassifiedReport, error)

// Notifier receives session progress events.
type Notifier interface {
	Notify(ctx context.Context, e events.SessionEvent)
}

// Metrics records session outcomes.
type Metrics interface {
	FileClassified(ctx context.Context, t domain.ReportType)
	SessionAbandoned(ctx context.Context)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, events.SessionEvent) {}

type nopMetrics struct{}

func (nopMetrics) FileClassified(context.Context, domain.ReportType) {}
func (nopMetrics) SessionAbandoned(context.Context)                  {}

// Option configures a Manager
type Option func(*Manager)

// WithNotifier sets the progress notifier
func WithNotifier(n Notifier) Option {
	return func(m *Manager) {
		if n != nil {
			m.notifier = n
		}
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(mt Metrics) Option {
	return func(m *Manager) {
		if mt != nil {
			m.metrics = mt
		}
	}
}

// WithMaxConcurrentDecodes bounds decode goroutines per session
func WithMaxConcurrentDecodes(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.limit = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// Manager tracks the current session of every client key.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	decode   Decoder
	notifier Notifier
	metrics  Metrics
	limit    int
	logger   *slog.Logger
}

// NewManager creates a session manager around a decoder
func NewManager(decode Decoder, opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		decode:   decode,
		notifier: nopNotifier{},
		metrics:  nopMetrics{},
		limit:    DefaultMaxConcurrentDecodes,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(slog.String("component", "session_manager"))
	return m
}

// Begin starts a new session for key, abandoning any session already
// running under it.
func (m *Manager) Begin(ctx context.Context, key string) *Session {
	sctx, cancel := context.WithCancelCause(context.WithoutCancel(ctx))
	group := &errgroup.Group{}
	group.SetLimit(m.limit)

	s := &Session{
		ID:      uuid.New().String(),
		Key:     key,
		manager: m,
		ctx:     sctx,
		cancel:  cancel,
		group:   group,
		done:    make(chan struct{}),
	}

	m.mu.Lock()
	previous := m.sessions[key]
	m.sessions[key] = s
	m.mu.Unlock()

	if previous != nil {
		previous.abandon(ctx)
	}

	m.logger.InfoContext(ctx, "Upload session started",
		slog.String("session_key", key),
		slog.String("session_id", s.ID))
	m.notifier.Notify(ctx, events.SessionEvent{
		Type:       events.MessageTypeSessionStarted,
		SessionKey: key,
		SessionID:  s.ID,
	})
	return s
}

// Current returns the live session for key, if any.
func (m *Manager) Current(key string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[key]
	return s, ok
}

// Abandon cancels the live session for key, if any.
func (m *Manager) Abandon(ctx context.Context, key string) bool {
	m.mu.Lock()
	s, ok := m.sessions[key]
	if ok {
		delete(m.sessions, key)
	}
	m.mu.Unlock()
	if ok {
		s.abandon(ctx)
	}
	return ok
}

// Active returns the number of live sessions
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) release(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[s.Key] == s {
		delete(m.sessions, s.Key)
	}
}

type decodeResult struct {
	name   string
	report *domain.ClassifiedReport
	err    error
}

// Session is one upload batch. Submit and Wait may be called from different
// goroutines; Wait may be called once.
type Session struct {
	ID  string
	Key string

	manager *Manager
	ctx     context.Context
	cancel  context.CancelCauseFunc
	group   *errgroup.Group
	done    chan struct{}

	mu        sync.Mutex
	results   []decodeResult
	completed int
	closed    bool
}

// Submit schedules one file for decoding. The result keeps the submission
// position regardless of which decode finishes first. Submit blocks while the
// concurrency limit is reached.
func (s *Session) Submit(name string, data []byte) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if err := s.abandonedErr(); err != nil {
		s.mu.Unlock()
		return err
	}
	idx := len(s.results)
	s.results = append(s.results, decodeResult{name: name})
	s.mu.Unlock()

	s.group.Go(func() error {
		s.run(idx, name, data)
		return nil
	})
	return nil
}

func (s *Session) run(idx int, name string, data []byte) {
	if s.ctx.Err() != nil {
		return
	}

	report, err := s.decodeSafely(name, data)

	// a superseded session drops whatever its decoders produced
	if s.ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	s.results[idx].report = report
	s.results[idx].err = err
	s.completed++
	completed, submitted := s.completed, len(s.results)
	s.mu.Unlock()

	m := s.manager
	e := events.SessionEvent{
		SessionKey: s.Key,
		SessionID:  s.ID,
		File:       name,
		Completed:  completed,
		Submitted:  submitted,
	}
	if err != nil {
		e.Type = events.MessageTypeFileFailed
		e.Error = err.Error()
		m.logger.WarnContext(s.ctx, "File decode failed",
			slog.String("session_id", s.ID),
			slog.String("file", name),
			slog.String("error", err.Error()))
		m.metrics.FileClassified(s.ctx, domain.ReportTypeUnknown)
	} else {
		e.Type = events.MessageTypeFileDecoded
		e.ReportType = report.Type.String()
		e.Rows = report.Len()
		m.logger.DebugContext(s.ctx, "File decoded",
			slog.String("session_id", s.ID),
			slog.String("file", name),
			slog.String("report_type", report.Type.String()),
			slog.Int("rows", report.Len()))
		m.metrics.FileClassified(s.ctx, report.Type)
	}
	m.notifier.Notify(s.ctx, e)
}

func (s *Session) decodeSafely(name string, data []byte) (report *domain.ClassifiedReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			report, err = nil, fmt.Errorf("decoder panic: %v", r)
		}
	}()
	report, err = s.manager.decode(s.ctx, name, data)
	if err == nil && report == nil {
		err = fmt.Errorf("decoder returned no report for %s", name)
	}
	return report, err
}

// Wait blocks until every submitted file is decoded and returns the batch in
// submission order. It returns ErrSessionAbandoned if the session is replaced
// before or while waiting, and ctx.Err() if ctx ends first. In that case the
// session is cancelled and released.
func (s *Session) Wait(ctx context.Context) (*analytics.ReportSet, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	s.closed = true
	s.mu.Unlock()

	go func() {
		_ = s.group.Wait()
		close(s.done)
	}()

	select {
	case <-s.done:
	case <-s.ctx.Done():
		return nil, s.abandonedErr()
	case <-ctx.Done():
		s.Cancel(ctx, context.Cause(ctx))
		return nil, ctx.Err()
	}
	if err := s.abandonedErr(); err != nil {
		return nil, err
	}
	defer s.manager.release(s)

	s.mu.Lock()
	results := make([]decodeResult, len(s.results))
	copy(results, s.results)
	s.mu.Unlock()

	set := analytics.NewReportSet()
	for _, r := range results {
		if r.err != nil {
			set.AddFailure(r.name, r.err)
			continue
		}
		if err := set.Add(r.report); err != nil {
			set.AddFailure(r.name, err)
		}
	}

	s.manager.logger.InfoContext(ctx, "Upload session complete",
		slog.String("session_id", s.ID),
		slog.Int("files", set.Len()))
	s.manager.notifier.Notify(ctx, events.SessionEvent{
		Type:       events.MessageTypeSessionCompleted,
		SessionKey: s.Key,
		SessionID:  s.ID,
		Completed:  len(results),
		Submitted:  len(results),
	})
	return set, nil
}

// Done is closed once every decode has finished, after Wait has been called.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Abandoned reports whether the session was superseded or cancelled.
func (s *Session) Abandoned() bool {
	return s.ctx.Err() != nil
}

func (s *Session) abandonedErr() error {
	if s.ctx.Err() == nil {
		return nil
	}
	if cause := context.Cause(s.ctx); cause != nil {
		return cause
	}
	return ErrSessionAbandoned
}

// Cancel stops pending decodes and releases the session from its manager.
// cause is reported by later Submit and Wait calls; nil means
// ErrSessionAbandoned.
func (s *Session) Cancel(ctx context.Context, cause error) {
	defer s.manager.release(s)
	if s.ctx.Err() != nil {
		return
	}
	if cause == nil {
		cause = ErrSessionAbandoned
	}
	s.cancel(cause)
	s.manager.logger.InfoContext(ctx, "Upload session cancelled",
		slog.String("session_key", s.Key),
		slog.String("session_id", s.ID),
		slog.String("cause", cause.Error()))
}

func (s *Session) abandon(ctx context.Context) {
	if s.ctx.Err() != nil {
		return
	}
	s.cancel(ErrSessionAbandoned)
	m := s.manager
	m.metrics.SessionAbandoned(ctx)
	m.logger.InfoContext(ctx, "Upload session abandoned",
		slog.String("session_key", s.Key),
		slog.String("session_id", s.ID))
	m.notifier.Notify(ctx, events.SessionEvent{
		Type:       events.MessageTypeSessionAbandoned,
		SessionKey: s.Key,
		SessionID:  s.ID,
	})
}
