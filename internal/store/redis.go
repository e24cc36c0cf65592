package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"insightreport/internal/config"
)

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	MGet(context.Context, ...string) *redis.SliceCmd
	Del(context.Context, ...string) *redis.IntCmd
	SAdd(context.Context, string, ...any) *redis.IntCmd
	SMembers(context.Context, string) *redis.StringSliceCmd
	SRem(context.Context, string, ...any) *redis.IntCmd
}

// RedisStore keeps each snapshot as a JSON value that expires with the share
// link. A set indexes the ids for List.
type RedisStore struct {
	store  cmdable
	raw    *redis.Client
	prefix string
	now    func() time.Time
}

// OpenRedisStore connects and verifies connectivity
func OpenRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{store: raw, raw: raw, prefix: cfg.KeyPrefix, now: time.Now}, nil
}

func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" && cfg.Address == "" {
		return nil, errors.New("redis url or address is required")
	}
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

func (s *RedisStore) key(parts ...string) string {
	k := s.prefix
	if k == "" {
		k = "insight"
	}
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

func (s *RedisStore) snapshotKey(id string) string { return s.key("report", id) }
func (s *RedisStore) indexKey() string           { return s.key("reports") }

// Save writes the snapshot with a TTL ending at its expiry
func (s *RedisStore) Save(ctx context.Context, snap *Snapshot) error {
	if err := validateSnapshot(snap); err != nil {
		return err
	}
	var ttl time.Duration
	if snap.Config.ExpiresAt != nil {
		ttl = snap.Config.ExpiresAt.Sub(s.now())
		if ttl <= 0 {
			return fmt.Errorf("snapshot %s already expired", snap.Config.ID)
		}
	}

	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.store.Set(ctx, s.snapshotKey(snap.Config.ID), body, ttl).Err(); err != nil {
		return fmt.Errorf("save snapshot %s: %w", snap.Config.ID, err)
	}
	if err := s.store.SAdd(ctx, s.indexKey(), snap.Config.ID).Err(); err != nil {
		return fmt.Errorf("index snapshot %s: %w", snap.Config.ID, err)
	}
	return nil
}

// Get loads one snapshot
func (s *RedisStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	body, err := s.store.Get(ctx, s.snapshotKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	return &snap, nil
}

// List returns the indexed share configurations, newest first. Index
// entries whose value already expired are pruned.
func (s *RedisStore) List(ctx context.Context) ([]ReportConfig, error) {
	ids, err := s.store.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	if len(ids) == 0 {
		return []ReportConfig{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.snapshotKey(id)
	}
	values, err := s.store.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}

	configs := make([]ReportConfig, 0, len(ids))
	var stale []any
	for i, v := range values {
		body, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		var snap Snapshot
		if err := json.Unmarshal([]byte(body), &snap); err != nil {
			return nil, fmt.Errorf("decode snapshot %s: %w", ids[i], err)
		}
		configs = append(configs, snap.Config)
	}
	if len(stale) > 0 {
		if err := s.store.SRem(ctx, s.indexKey(), stale...).Err(); err != nil {
			return nil, fmt.Errorf("prune snapshot index: %w", err)
		}
	}

	sortNewestFirst(configs)
	return configs, nil
}

// Delete removes one snapshot
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.store.Del(ctx, s.snapshotKey(id)).Result()
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", id, err)
	}
	if err := s.store.SRem(ctx, s.indexKey(), id).Err(); err != nil {
		return fmt.Errorf("unindex snapshot %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the connection pool
func (s *RedisStore) Close() error {
	if s.raw == nil {
		return nil
	}
	return s.raw.Close()
}

// Ping checks the Redis connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.store.Ping(ctx).Err()
}
