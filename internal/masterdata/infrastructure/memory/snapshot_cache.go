package memory

import (
	"context"
	"sync"
	"time"

	masterdata "fuel-dashboard/internal/masterdata/domain"
)

// SnapshotCache is an in-process cache used when Redis is not configured.
type SnapshotCache struct {
	mu       sync.RWMutex
	snap     *masterdata.Snapshot
	storedAt time.Time
	ttl      time.Duration
	now      func() time.Time
}

// NewSnapshotCache constructs a cache. A zero ttl never expires.
func NewSnapshotCache(ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{ttl: ttl, now: time.Now}
}

// Load returns the cached snapshot or nil when missing or expired.
func (c *SnapshotCache) Load(ctx context.Context) (*masterdata.Snapshot, error) {
	_ = ctx
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return nil, nil
	}
	if c.ttl > 0 && c.now().Sub(c.storedAt) >= c.ttl {
		return nil, nil
	}
	return c.snap, nil
}

// Store caches the snapshot.
func (c *SnapshotCache) Store(ctx context.Context, snap *masterdata.Snapshot) error {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = snap
	c.storedAt = c.now()
	return nil
}

// Invalidate drops the cached snapshot.
func (c *SnapshotCache) Invalidate(ctx context.Context) error {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = nil
	return nil
}
