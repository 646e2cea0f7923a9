package application

import (
	"context"
	"testing"

	masterdata "fuel-dashboard/internal/masterdata/domain"
	"fuel-dashboard/internal/masterdata/infrastructure/memory"
)

func TestSnapshotLoaderUsesCache(t *testing.T) {
	plazas := newFakePlazas(masterdata.Plaza{ID: "p1", Name: "Central"})
	gens := newFakeGenerators(masterdata.Generator{ID: "g1", PlazaID: "p1", Name: "Gen A"})
	profiles := newFakeProfiles(masterdata.Profile{UserID: "u1", Email: "a@example.com", Role: "user"})
	loader, err := NewSnapshotLoader(plazas, gens, profiles, WithSnapshotCache(memory.NewSnapshotCache(0)))
	if err != nil {
		t.Fatalf("new loader: %v", err)
	}
	ctx := context.Background()

	snap, err := loader.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.GeneratorLabel("g1") != "Gen A" {
		t.Fatalf("unexpected generator label %q", snap.GeneratorLabel("g1"))
	}
	if _, err := loader.Snapshot(ctx); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if plazas.lists != 1 {
		t.Fatalf("expected one storage read, got %d", plazas.lists)
	}

	loader.Invalidate(ctx)
	if _, err := loader.Snapshot(ctx); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if plazas.lists != 2 {
		t.Fatalf("expected reload after invalidate, got %d reads", plazas.lists)
	}
}
