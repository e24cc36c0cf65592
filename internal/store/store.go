// Package store persists shared dashboard snapshots.
//
// A Snapshot pairs the share configuration (client name, CPM, password hash,
// expiry) with a slimmed copy of the dashboard. Three drivers implement
// Store: an in-process map, SQL through GORM (SQLite or PostgreSQL) and
// Redis. Snapshots are immutable once saved.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"insightreport/internal/config"
	"insightreport/pkg/contracts/domain"
)

// ErrNotFound is returned when no snapshot exists for an id.
var ErrNotFound = errors.New("snapshot not found")

// ReportConfig is the share configuration of one snapshot
type ReportConfig struct {
	ID           string     `json:"id"`
	ClientName   string     `json:"client_name"`
	CPM          float64    `json:"cpm"`
	PasswordHash string     `json:"password_hash"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the share link stopped being valid at now.
func (c ReportConfig) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}

// Snapshot is a persisted share
type Snapshot struct {
	Config    ReportConfig      `json:"config"`
	Dashboard *domain.Dashboard `json:"dashboard"`
}

// Store persists snapshots
type Store interface {
	Save(ctx context.Context, snap *Snapshot) error
	Get(ctx context.Context, id string) (*Snapshot, error)
	// List returns share configurations, newest first.
	List(ctx context.Context) ([]ReportConfig, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Pinger is implemented by stores backed by a remote server
type Pinger interface {
	Ping(ctx context.Context) error
}

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "store"), slog.String("driver", cfg.Driver))

	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case config.StoreMemory, "":
		s = NewMemoryStore()
	case config.StoreSQLite, config.StorePostgres:
		s, err = OpenGormStore(cfg.Driver, cfg.DSN)
	case config.StoreRedis:
		s, err = OpenRedisStore(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		logger.ErrorContext(ctx, "Failed to open snapshot store", slog.String("error", err.Error()))
		return nil, err
	}

	logger.InfoContext(ctx, "Snapshot store ready")
	return s, nil
}

func validateSnapshot(snap *Snapshot) error {
	if snap == nil || snap.Dashboard == nil {
		return errors.New("snapshot without dashboard")
	}
	if snap.Config.ID == "" {
		return errors.New("snapshot without id")
	}
	return nil
}
