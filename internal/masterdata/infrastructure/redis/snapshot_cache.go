package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	masterdata "fuel-dashboard/internal/masterdata/domain"
)

const defaultSnapshotKey = "fuel:masterdata:snapshot"

// SnapshotCache keeps the reference snapshot in Redis with a TTL.
type SnapshotCache struct {
	client goredis.Cmdable
	key    string
	ttl    time.Duration
}

// Option configures the cache.
type Option func(*SnapshotCache)

// WithKey overrides the Redis key.
func WithKey(key string) Option {
	return func(c *SnapshotCache) {
		if key != "" {
			c.key = key
		}
	}
}

// NewSnapshotCache returns a redis-backed cache.
func NewSnapshotCache(client goredis.Cmdable, ttl time.Duration, opts ...Option) *SnapshotCache {
	c := &SnapshotCache{client: client, key: defaultSnapshotKey, ttl: ttl}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load returns the cached snapshot or nil on a miss.
func (c *SnapshotCache) Load(ctx context.Context) (*masterdata.Snapshot, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("snapshot cache: nil client")
	}
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var data masterdata.SnapshotData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return masterdata.SnapshotFromData(data), nil
}

// Store caches the snapshot.
func (c *SnapshotCache) Store(ctx context.Context, snap *masterdata.Snapshot) error {
	if c == nil || c.client == nil {
		return errors.New("snapshot cache: nil client")
	}
	if snap == nil {
		return nil
	}
	raw, err := json.Marshal(snap.Data())
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key, raw, c.ttl).Err()
}

// Invalidate drops the cached snapshot.
func (c *SnapshotCache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("snapshot cache: nil client")
	}
	return c.client.Del(ctx, c.key).Err()
}
