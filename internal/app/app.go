package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"insightreport/internal/config"
	apierrors "insightreport/internal/errors"
	"insightreport/internal/infrastructure"
	customMiddleware "insightreport/internal/middleware"
	"insightreport/internal/services"
	"insightreport/internal/session"
	"insightreport/internal/store"
	handlers "insightreport/internal/transport/http"
	ws "insightreport/internal/websocket"
	"insightreport/pkg/contracts"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	Telemetry     *infrastructure.Telemetry
	Store         store.Store
	WebSocketHub  *ws.Hub
	Sessions      *session.Manager
	ReportService *services.ReportService
	HealthService *services.HealthService
	ErrorHandler  *apierrors.ErrorHandler
	Router        *chi.Mux
	Server        *http.Server
}

// NewApplication loads configuration, initializes the process logger and
// builds the application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(context.Background(), cfg, logger)
}

// New builds every component from cfg. The caller owns logger.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.InfoContext(ctx, "Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.String("store_driver", cfg.Store.Driver))

	telemetry, err := infrastructure.InitializeTelemetry(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	st, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		_ = telemetry.Shutdown(ctx)
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}

	a := &Application{
		Config:       cfg,
		Logger:       logger,
		Telemetry:    telemetry,
		Store:        st,
		ErrorHandler: apierrors.NewErrorHandler(logger, cfg.Logging.Development),
	}
	a.initializeServices()
	a.setupRouter()
	a.createServer()
	return a, nil
}

// initializeServices builds the hub, session manager and services
func (a *Application) initializeServices() {
	a.WebSocketHub = ws.NewHub(a.Logger, ws.WithMetrics(a.Telemetry.Metrics))

	decoder := services.NewDecoder(services.BuildOptions(a.Config.Analytics))
	a.Sessions = session.NewManager(decoder,
		session.WithNotifier(a.WebSocketHub),
		session.WithMetrics(a.Telemetry.Metrics),
		session.WithMaxConcurrentDecodes(a.Config.Session.MaxConcurrentDecodes),
		session.WithLogger(a.Logger),
	)

	a.ReportService = services.NewReportService(a.Config, a.Sessions, a.Store,
		services.WithMetrics(a.Telemetry.Metrics),
		services.WithTracer(a.Telemetry.Tracer),
		services.WithLogger(a.Logger),
	)
	a.HealthService = services.NewHealthService(contracts.Version, a.Store, a.Sessions, a.WebSocketHub, a.Logger)
}

// setupRouter mounts middleware and routes.
// Order: RequestID → RealIP → OTel → Logger → Recoverer → headers → CORS → rate limit.
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	// Upgrades must not pass through wrapping middleware that buffers writes
	r.Handle("/ws", ws.NewHandler(a.WebSocketHub, a.Config.WebSocket, a.Config.Security.AllowedOrigins, a.Logger))

	if a.Telemetry.MetricsHandler != nil && a.Config.Telemetry.MetricsPath != "" {
		r.Handle(a.Config.Telemetry.MetricsPath, a.Telemetry.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.Telemetry.Tracer, a.Telemetry.Metrics, a.Logger).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(apierrors.RecoveryMiddleware(a.ErrorHandler))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
				ExposedHeaders: []string{customMiddleware.RequestIDHeader, "Content-Disposition", "Location"},
				Logger:         a.Logger,
			}))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		handlers.NewHealthHandler(a.HealthService, a.Logger).Routes(r)
		a.setupAPIRoutes(r)
	})

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api/"+contracts.APIVersion, func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.ContentTypeValidator("application/json", "multipart/form-data"))

		reports := handlers.NewReportHandler(a.ReportService, a.Config.Server.MaxUploadBytes, a.Logger, a.ErrorHandler)
		r.Mount("/reports", reports.Routes())
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Address(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts background services and the HTTP listener. A listener
// failure calls cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.WebSocketHub.Start()

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", a.Server.Addr),
		slog.String("public_url", a.Config.Server.PublicBaseURL))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}

	a.WebSocketHub.Stop()

	if n := a.Sessions.Active(); n > 0 {
		a.Logger.WarnContext(ctx, "Abandoning sessions still in progress", slog.Int("active", n))
	}

	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}
	if err := a.Telemetry.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.Start(runCtx, cancel); err != nil {
		return err
	}

	<-runCtx.Done()
	a.Logger.Info("Received shutdown signal")

	// Shutdown gets a fresh context since runCtx is already done
	stopCtx, stopCancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout+5*time.Second)
	defer stopCancel()
	return a.Stop(stopCtx)
}
