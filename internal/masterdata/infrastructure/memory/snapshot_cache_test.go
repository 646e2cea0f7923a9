package memory

import (
	"context"
	"testing"
	"time"

	masterdata "fuel-dashboard/internal/masterdata/domain"
)

func TestSnapshotCacheExpires(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	cache := NewSnapshotCache(time.Minute)
	cache.now = func() time.Time { return base }

	snap := masterdata.NewSnapshot([]masterdata.Plaza{{ID: "p1", Name: "Central"}}, nil, nil, base)
	if err := cache.Store(context.Background(), snap); err != nil {
		t.Fatalf("store: %v", err)
	}
	got, err := cache.Load(context.Background())
	if err != nil || got == nil {
		t.Fatalf("expected hit, got %v %v", got, err)
	}

	cache.now = func() time.Time { return base.Add(2 * time.Minute) }
	got, err = cache.Load(context.Background())
	if err != nil || got != nil {
		t.Fatalf("expected expiry, got %v %v", got, err)
	}
}

func TestSnapshotCacheInvalidate(t *testing.T) {
	cache := NewSnapshotCache(0)
	snap := masterdata.NewSnapshot(nil, nil, nil, time.Now())
	_ = cache.Store(context.Background(), snap)
	_ = cache.Invalidate(context.Background())
	got, _ := cache.Load(context.Background())
	if got != nil {
		t.Fatalf("expected miss after invalidate")
	}
}
