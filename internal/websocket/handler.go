package websocket

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"insightreport/internal/config"
	apierrors "insightreport/internal/errors"
	"insightreport/internal/infrastructure"
)

// Handler upgrades HTTP requests and attaches the connection to a hub
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	cfg      config.WebSocketConfig
	logger   *slog.Logger
}

// NewHandler creates the upgrade handler. An empty allowedOrigins accepts
// any origin.
func NewHandler(hub *Hub, cfg config.WebSocketConfig, allowedOrigins []string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	h := &Handler{
		hub:    hub,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "websocket.handler")),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     originChecker(allowedOrigins),
		Error:           h.upgradeError,
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

func (h *Handler) upgradeError(w http.ResponseWriter, r *http.Request, status int, reason error) {
	h.logger.WarnContext(r.Context(), "WebSocket upgrade failed",
		slog.Int("status", status),
		slog.String("error", reason.Error()),
		slog.String("remote_addr", r.RemoteAddr))

	apierrors.NewProblemDetails(
		status,
		apierrors.TypeWebSocketUpgrade,
		"WebSocket Upgrade Failed",
		reason.Error(),
		r.URL.Path,
	).WithExtension("trace_id", infrastructure.GetTraceID(r.Context())).Write(w)
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := NewClient(h.hub, WrapConn(conn), ClientOptions{
		SessionKey: strings.TrimSpace(r.URL.Query().Get("session")),
		TraceID:    infrastructure.GetTraceID(r.Context()),
		PingPeriod: h.cfg.PingPeriod,
		PongWait:   h.cfg.PongWait,
	}, h.logger)

	h.hub.Register(client)
	go client.WritePump()
	go client.ReadPump()
}
