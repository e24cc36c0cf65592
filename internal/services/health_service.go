package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"insightreport/internal/store"
	"insightreport/pkg/contracts"
)

// ClientCounter reports connected websocket clients
type ClientCounter interface {
	ClientCount() int
}

// SessionCounter reports upload sessions in progress
type SessionCounter interface {
	Active() int
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	store     store.Store
	sessions  SessionCounter
	clients   ClientCounter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a new health service. sessions and clients may be nil.
func NewHealthService(version string, st store.Store, sessions SessionCounter, clients ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		store:     st,
		sessions:  sessions,
		clients:   clients,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(_ context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
	if hs.sessions != nil {
		status.Runtime["active_sessions"] = hs.sessions.Active()
	}
	if hs.clients != nil {
		status.Runtime["websocket_clients"] = hs.clients.ClientCount()
	}
	return status
}

// ReadinessCheck returns readiness status
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"store": hs.checkStoreHealth(ctx),
		},
	}

	for name, sh := range status.Services {
		if sh.Status != "ready" {
			status.Status = "not_ready"
			hs.logger.WarnContext(ctx, "Dependency not ready",
				slog.String("service", name),
				slog.String("message", sh.Message))
		}
	}
	return status
}

// checkStoreHealth pings stores that have a remote backend
func (hs *HealthService) checkStoreHealth(ctx context.Context) ServiceHealth {
	if hs.store == nil {
		return ServiceHealth{Status: "not_ready", Message: "snapshot store not initialized"}
	}
	pinger, ok := hs.store.(store.Pinger)
	if !ok {
		return ServiceHealth{Status: "ready", Message: "in-memory store"}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pinger.Ping(ctx); err != nil {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("store ping failed: %v", err)}
	}
	return ServiceHealth{Status: "ready", Message: "snapshot store is healthy"}
}

// Version returns build information and uptime
func (hs *HealthService) Version() map[string]interface{} {
	info := contracts.GetVersionInfo()
	return map[string]interface{}{
		"version":         hs.version,
		"build_time":      info.BuildTime,
		"git_commit":      info.GitCommit,
		"go_version":      info.GoVersion,
		"os":              info.OS,
		"arch":            info.Architecture,
		"snapshot_format": info.SnapshotFormat,
		"api_version":     info.APIVersion,
		"uptime":          time.Since(hs.startTime).Seconds(),
		"start_time":      hs.startTime.Format(time.RFC3339),
	}
}
