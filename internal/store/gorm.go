package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"insightreport/internal/config"
	"insightreport/pkg/contracts/domain"
)

// snapshotRecord is the SQL row of a snapshot. The dashboard is stored as a
// JSON document.
type snapshotRecord struct {
	ID           string     `gorm:"primaryKey;size:64"`
	ClientName   string     `gorm:"size:200;not null"`
	CPM          float64    `gorm:"not null"`
	PasswordHash string     `gorm:"size:100;not null"`
	Dashboard    string     `gorm:"type:text;not null"`
	CreatedAt    time.Time  `gorm:"index;not null"`
	ExpiresAt    *time.Time `gorm:"index"`
}

func (snapshotRecord) TableName() string {
	return "report_snapshots"
}

func (r snapshotRecord) config() ReportConfig {
	return ReportConfig{
		ID:           r.ID,
		ClientName:   r.ClientName,
		CPM:          r.CPM,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		ExpiresAt:    r.ExpiresAt,
	}
}

// GormStore persists snapshots in SQLite or PostgreSQL
type GormStore struct {
	db *gorm.DB
}

// OpenGormStore connects with the named driver and migrates the schema.
func OpenGormStore(driver, dsn string) (*GormStore, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.StoreSQLite:
		dialector = sqlite.Open(dsn)
	case config.StorePostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	return NewGormStore(db)
}

// NewGormStore wraps an open connection and migrates the schema
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&snapshotRecord{}); err != nil {
		return nil, fmt.Errorf("migrate snapshots: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Save upserts the snapshot
func (s *GormStore) Save(ctx context.Context, snap *Snapshot) error {
	if err := validateSnapshot(snap); err != nil {
		return err
	}
	body, err := json.Marshal(snap.Dashboard)
	if err != nil {
		return fmt.Errorf("encode dashboard: %w", err)
	}
	rec := snapshotRecord{
		ID:           snap.Config.ID,
		ClientName:   snap.Config.ClientName,
		CPM:          snap.Config.CPM,
		PasswordHash: snap.Config.PasswordHash,
		Dashboard:    string(body),
		CreatedAt:    snap.Config.CreatedAt,
		ExpiresAt:    snap.Config.ExpiresAt,
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rec).Error
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", rec.ID, err)
	}
	return nil
}

// Get loads one snapshot
func (s *GormStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	var rec snapshotRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", id, err)
	}

	var d domain.Dashboard
	if err := json.Unmarshal([]byte(rec.Dashboard), &d); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	return &Snapshot{Config: rec.config(), Dashboard: &d}, nil
}

// List returns share configurations without loading dashboards
func (s *GormStore) List(ctx context.Context) ([]ReportConfig, error) {
	var recs []snapshotRecord
	err := s.db.WithContext(ctx).
		Omit("dashboard").
		Order("created_at desc").
		Order("id").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	configs := make([]ReportConfig, 0, len(recs))
	for _, r := range recs {
		configs = append(configs, r.config())
	}
	return configs, nil
}

// Delete removes one snapshot
func (s *GormStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&snapshotRecord{})
	if res.Error != nil {
		return fmt.Errorf("delete snapshot %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close releases the underlying connection pool
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the database connection
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
