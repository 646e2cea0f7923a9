package reporting

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	fuel "fuel-dashboard/internal/fuel/domain"
	masterdata "fuel-dashboard/internal/masterdata/domain"
)

func TestComputeUserMetrics(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	txs := []fuel.Transaction{
		{FuelAmount: 300, OccurredAt: now.Add(-20 * 24 * time.Hour)},
		{FuelAmount: -40, OccurredAt: now.Add(-10 * 24 * time.Hour)},
		{FuelAmount: -15, OccurredAt: now.Add(-2 * 24 * time.Hour)},
		{FuelAmount: -5, OccurredAt: now.Add(-1 * time.Hour)},
		{FuelAmount: 0, OccurredAt: now},
	}
	m := ComputeUserMetrics(txs, fuel.Tank{CurrentBalance: 240}, now)
	if m.Balance != 240 || m.TotalAdded != 300 || m.TotalUsed != 60 || m.WeeklyUsage != 20 {
		t.Fatalf("unexpected metrics %+v", m)
	}
	if m.LastActivity == nil || !m.LastActivity.Equal(now.Add(-time.Hour)) {
		t.Fatalf("unexpected last activity %v", m.LastActivity)
	}
	if m.TankUpdatedAt != nil {
		t.Fatalf("zero tank timestamp should be omitted")
	}
}

func TestComputeUserMetricsEmpty(t *testing.T) {
	m := ComputeUserMetrics(nil, fuel.Tank{}, time.Now())
	if m.LastActivity != nil || m.TotalAdded != 0 {
		t.Fatalf("unexpected metrics %+v", m)
	}
}

func TestSummarizePlazas(t *testing.T) {
	refs := masterdata.NewSnapshot([]masterdata.Plaza{
		{ID: "p1", Name: "North"},
		{ID: "p2", Name: "Central"},
		{ID: "p3", Name: "East"},
	}, nil, nil, time.Now())
	txs := []fuel.Transaction{
		{PlazaID: "p1", FuelAmount: 500},
		{PlazaID: "p1", FuelAmount: -125},
		{PlazaID: "p2", FuelAmount: 100},
		{PlazaID: "p2", FuelAmount: -80},
		{PlazaID: "p9", FuelAmount: 1000},
	}
	got := SummarizePlazas(txs, []string{"p1", "p2", "p3", "p1"}, refs)
	want := []PlazaSummary{
		{PlazaID: "p2", Name: "Central", Added: 100, Used: 80, Net: 20, UsagePercent: 80, FillPercent: 20, Status: fuel.TankCritical},
		{PlazaID: "p3", Name: "East", Status: fuel.TankCritical},
		{PlazaID: "p1", Name: "North", Added: 500, Used: 125, Net: 375, UsagePercent: 25, FillPercent: 75, Status: fuel.TankNormal},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarizePlazasUnassignedAndClamp(t *testing.T) {
	txs := []fuel.Transaction{
		{PlazaID: "gone", FuelAmount: 50},
		{PlazaID: "gone", FuelAmount: -120},
	}
	got := SummarizePlazas(txs, []string{"gone"}, nil)
	if got[0].Name != "Unassigned" {
		t.Fatalf("missing plaza should be labeled Unassigned, got %q", got[0].Name)
	}
	if got[0].FillPercent != 0 || got[0].Net != -70 || got[0].Status != fuel.TankCritical {
		t.Fatalf("unexpected summary %+v", got[0])
	}
}
