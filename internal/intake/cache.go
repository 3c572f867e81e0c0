package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Cache holds recent session snapshots in front of the Store. A miss is
// reported with ok=false and a nil error.
type Cache interface {
	Get(ctx context.Context, id string) (snap *Snapshot, ok bool, err error)
	Set(ctx context.Context, snap *Snapshot) error
	Delete(ctx context.Context, id string) error
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (*Snapshot, bool, error) { return nil, false, nil }
func (NopCache) Set(context.Context, *Snapshot) error                 { return nil }
func (NopCache) Delete(context.Context, string) error                 { return nil }

const redisKeyPrefix = "casebrief:session:"

// RedisCache stores snapshots as JSON with a sliding TTL.
type RedisCache struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewRedisCache connects to the Redis server at url (redis://host:port/db)
// and verifies it with a ping.
func NewRedisCache(url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second

	rdb := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newRedisCache(rdb, ttl), nil
}

func newRedisCache(rdb *goredis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

func (c *RedisCache) Get(ctx context.Context, id string) (*Snapshot, bool, error) {
	raw, err := c.rdb.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, false, fmt.Errorf("decoding cached snapshot: %w", err)
	}
	return &snap, true, nil
}

func (c *RedisCache) Set(ctx context.Context, snap *Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := c.rdb.Set(ctx, redisKey(snap.Session.ID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, id string) error {
	if err := c.rdb.Del(ctx, redisKey(id)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close releases the Redis connection pool.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
