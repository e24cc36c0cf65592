package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"insightreport/internal/infrastructure"
	"insightreport/pkg/contracts/events"
)

// sendBuffer is the per-client outbound queue length
const sendBuffer = 64

// Metrics records hub activity
type Metrics interface {
	WebSocketClients(ctx context.Context, delta int64)
	WebSocketMessage(ctx context.Context, msgType string)
	WebSocketDropped(ctx context.Context)
}

type nopMetrics struct{}

func (nopMetrics) WebSocketClients(context.Context, int64)  {}
func (nopMetrics) WebSocketMessage(context.Context, string) {}
func (nopMetrics) WebSocketDropped(context.Context)         {}

// outbound is one marshalled message addressed to a session key
type outbound struct {
	sessionKey string
	msgType    events.MessageType
	data       []byte
}

// HubOption configures a Hub
type HubOption func(*Hub)

// WithMetrics sets the hub metrics sink
func WithMetrics(m Metrics) HubOption {
	return func(h *Hub) {
		if m != nil {
			h.metrics = m
		}
	}
}

// Hub maintains the set of active clients and routes session events to them
type Hub struct {
	clients map[*Client]bool

	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	running bool
	quit    chan struct{}
	done    chan struct{}

	logger  *slog.Logger
	metrics Metrics
}

// NewHub creates a new Hub. Start must be called before clients connect.
func NewHub(logger *slog.Logger, opts ...HubOption) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	h := &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    nopMetrics{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start runs the hub loop in a new goroutine. It is a no-op when already running.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	h.running = true
	go h.run()
}

// Stop disconnects every client and waits for the hub loop to exit
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	<-h.done
}

func (h *Hub) run() {
	defer close(h.done)
	ctx := context.Background()

	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for c := range h.clients {
				h.drop(ctx, c)
			}
			h.mu.Unlock()
			h.logger.Info("Hub shutting down")
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.metrics.WebSocketClients(ctx, 1)

			h.logger.InfoContext(c.context(), "Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", c.id),
				slog.String("session_key", c.sessionKey),
				slog.String("remote_addr", c.remoteAddr))

			c.queue(h.connectMessage(c))

		case c := <-h.unregister:
			h.mu.Lock()
			if h.clients[c] {
				h.drop(ctx, c)
				count := len(h.clients)
				h.mu.Unlock()
				h.logger.InfoContext(c.context(), "Client unregistered",
					slog.Int("total_clients", count),
					slog.String("client_id", c.id),
					slog.Duration("connection_duration", time.Since(c.connectedAt)))
			} else {
				h.mu.Unlock()
			}

		case msg := <-h.broadcast:
			h.deliver(ctx, msg)
		}
	}
}

// drop removes c and closes its send channel. Callers hold h.mu.
func (h *Hub) drop(ctx context.Context, c *Client) {
	delete(h.clients, c)
	close(c.send)
	h.metrics.WebSocketClients(ctx, -1)
}

func (h *Hub) deliver(ctx context.Context, msg outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for c := range h.clients {
		if !c.subscribed(msg.sessionKey) {
			continue
		}
		select {
		case c.send <- msg.data:
			delivered++
			h.metrics.WebSocketMessage(ctx, string(msg.msgType))
		default:
			h.drop(ctx, c)
			h.metrics.WebSocketDropped(ctx)
			h.logger.WarnContext(c.context(), "Client send buffer full, disconnecting",
				slog.String("client_id", c.id))
		}
	}

	h.logger.Debug("Session event delivered",
		slog.String("type", string(msg.msgType)),
		slog.String("session_key", msg.sessionKey),
		slog.Int("clients", delivered))
}

func (h *Hub) connectMessage(c *Client) []byte {
	msg := events.WebSocketMessage{
		BaseMessage: events.BaseMessage{
			ID:        c.id,
			Type:      events.MessageTypeConnect,
			Timestamp: time.Now().UTC(),
			TraceID:   c.traceID,
		},
		Data: map[string]string{
			"status":      "connected",
			"client_id":   c.id,
			"session_key": c.sessionKey,
		},
	}
	data, _ := json.Marshal(msg)
	return data
}

// Notify implements session.Notifier. Delivery is best effort: when the
// hub queue is full the event is discarded.
func (h *Hub) Notify(ctx context.Context, e events.SessionEvent) {
	data, err := json.Marshal(events.NewMessage(e, infrastructure.GetTraceID(ctx)))
	if err != nil {
		h.logger.ErrorContext(ctx, "Error marshaling session event",
			slog.String("error", err.Error()),
			slog.String("type", string(e.Type)))
		return
	}

	select {
	case h.broadcast <- outbound{sessionKey: e.SessionKey, msgType: e.Type, data: data}:
	default:
		h.logger.WarnContext(ctx, "Hub queue full, dropping session event",
			slog.String("type", string(e.Type)),
			slog.String("session_key", e.SessionKey))
	}
}

// Register adds a client to the hub
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.quit:
		close(c.send)
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
