package store

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insightreport/internal/config"
)

type fakeRedis struct {
	data map[string]string
	ttl  map[string]time.Duration
	sets map[string]map[string]struct{}
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		data: make(map[string]string),
		ttl:  make(map[string]time.Duration),
		sets: make(map[string]map[string]struct{}),
	}
}

func (f *fakeRedis) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	default:
		f.data[key] = fmt.Sprint(v)
	}
	f.ttl[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) MGet(_ context.Context, keys ...string) *redis.SliceCmd {
	out := make([]any, len(keys))
	for i, k := range keys {
		if v, ok := f.data[k]; ok {
			out[i] = v
		}
	}
	return redis.NewSliceResult(out, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) SAdd(_ context.Context, key string, members ...any) *redis.IntCmd {
	set, ok := f.sets[key]
	if !ok {
		set = make(map[string]struct{})
		f.sets[key] = set
	}
	for _, m := range members {
		set[fmt.Sprint(m)] = struct{}{}
	}
	return redis.NewIntResult(int64(len(members)), nil)
}

func (f *fakeRedis) SMembers(_ context.Context, key string) *redis.StringSliceCmd {
	out := make([]string, 0, len(f.sets[key]))
	for m := range f.sets[key] {
		out = append(out, m)
	}
	sort.Strings(out)
	return redis.NewStringSliceResult(out, nil)
}

func (f *fakeRedis) SRem(_ context.Context, key string, members ...any) *redis.IntCmd {
	for _, m := range members {
		delete(f.sets[key], fmt.Sprint(m))
	}
	return redis.NewIntResult(int64(len(members)), nil)
}

func TestRedisStore_Keys(t *testing.T) {
	s := &RedisStore{prefix: "tenant"}
	assert.Equal(t, "tenant:report:abc", s.snapshotKey("abc"))
	assert.Equal(t, "tenant:reports", s.indexKey())

	s = &RedisStore{}
	assert.Equal(t, "insight:report:abc", s.snapshotKey("abc"))
}

func TestRedisStore_TTLFollowsExpiry(t *testing.T) {
	fake := newFakeRedis()
	s := &RedisStore{store: fake, prefix: "p", now: func() time.Time { return baseTime }}
	ctx := context.Background()

	exp := baseTime.Add(48 * time.Hour)
	snap := sampleSnapshot("ttl", baseTime)
	snap.Config.ExpiresAt = &exp
	require.NoError(t, s.Save(ctx, snap))
	assert.Equal(t, 48*time.Hour, fake.ttl["p:report:ttl"])

	require.NoError(t, s.Save(ctx, sampleSnapshot("forever", baseTime)))
	assert.Equal(t, time.Duration(0), fake.ttl["p:report:forever"])

	past := baseTime.Add(-time.Minute)
	stale := sampleSnapshot("stale", baseTime)
	stale.Config.ExpiresAt = &past
	assert.ErrorContains(t, s.Save(ctx, stale), "already expired")
}

func TestRedisStore_ListPrunesExpired(t *testing.T) {
	fake := newFakeRedis()
	s := &RedisStore{store: fake, prefix: "p", now: func() time.Time { return baseTime }}
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleSnapshot("live", baseTime)))
	require.NoError(t, s.Save(ctx, sampleSnapshot("gone", baseTime)))
	delete(fake.data, "p:report:gone") // expired by redis

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "live", list[0].ID)
	assert.NotContains(t, fake.sets["p:reports"], "gone")
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	assert.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{Address: "localhost:6379", DB: 2, PoolSize: 7, DialTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, time.Second, opts.DialTimeout)

	opts, err = optionsFromConfig(config.RedisConfig{URL: "redis://:pw@cache:6380/3"})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 3, opts.DB)

	_, err = optionsFromConfig(config.RedisConfig{URL: "http://nope"})
	assert.Error(t, err)
}
