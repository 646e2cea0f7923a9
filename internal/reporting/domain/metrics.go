package reporting

import (
	"math"
	"sort"
	"time"

	fuel "fuel-dashboard/internal/fuel/domain"
	masterdata "fuel-dashboard/internal/masterdata/domain"
)

const (
	weeklyWindow    = 7 * 24 * time.Hour
	unassignedPlaza = "Unassigned"
)

// UserMetrics summarizes one user's fuel activity. Weekly usage and last
// activity are based on OccurredAt.
type UserMetrics struct {
	Balance       float64    `json:"balance"`
	TankUpdatedAt *time.Time `json:"tank_updated_at,omitempty"`
	WeeklyUsage   float64    `json:"weekly_usage"`
	TotalAdded    float64    `json:"total_added"`
	TotalUsed     float64    `json:"total_used"`
	LastActivity  *time.Time `json:"last_activity,omitempty"`
}

// ComputeUserMetrics aggregates txs against the user's tank.
func ComputeUserMetrics(txs []fuel.Transaction, tank fuel.Tank, now time.Time) UserMetrics {
	m := UserMetrics{Balance: tank.CurrentBalance}
	if !tank.UpdatedAt.IsZero() {
		at := tank.UpdatedAt
		m.TankUpdatedAt = &at
	}
	weekStart := now.Add(-weeklyWindow)
	for _, tx := range txs {
		if tx.FuelAmount == 0 || math.IsNaN(tx.FuelAmount) {
			continue
		}
		if tx.FuelAmount > 0 {
			m.TotalAdded += tx.FuelAmount
		} else {
			m.TotalUsed += -tx.FuelAmount
			if !tx.OccurredAt.Before(weekStart) {
				m.WeeklyUsage += -tx.FuelAmount
			}
		}
		if m.LastActivity == nil || tx.OccurredAt.After(*m.LastActivity) {
			at := tx.OccurredAt
			m.LastActivity = &at
		}
	}
	return m
}

// PlazaSummary is the per-plaza fuel overview on the home page.
type PlazaSummary struct {
	PlazaID      string          `json:"plaza_id"`
	Name         string          `json:"name"`
	Added        float64         `json:"added"`
	Used         float64         `json:"used"`
	Net          float64         `json:"net"`
	UsagePercent float64         `json:"usage_percent"`
	FillPercent  float64         `json:"fill_percent"`
	Status       fuel.TankStatus `json:"status"`
}

// SummarizePlazas totals txs for each plaza in plazaIDs. Transactions of other
// plazas are ignored; plazas without transactions are still listed. Results
// are sorted by name.
func SummarizePlazas(txs []fuel.Transaction, plazaIDs []string, refs *masterdata.Snapshot) []PlazaSummary {
	byID := make(map[string]*PlazaSummary, len(plazaIDs))
	out := make([]PlazaSummary, 0, len(plazaIDs))
	for _, id := range plazaIDs {
		if _, dup := byID[id]; dup {
			continue
		}
		name := unassignedPlaza
		if p, ok := refs.Plaza(id); ok && p.Name != "" {
			name = p.Name
		}
		out = append(out, PlazaSummary{PlazaID: id, Name: name})
		byID[id] = nil
	}
	for i := range out {
		byID[out[i].PlazaID] = &out[i]
	}

	for _, tx := range txs {
		s := byID[tx.PlazaID]
		if s == nil || tx.FuelAmount == 0 || math.IsNaN(tx.FuelAmount) {
			continue
		}
		if tx.FuelAmount > 0 {
			s.Added += tx.FuelAmount
		} else {
			s.Used += -tx.FuelAmount
		}
	}

	for i := range out {
		s := &out[i]
		s.Net = s.Added - s.Used
		if s.Added > 0 {
			s.UsagePercent = s.Used / s.Added * 100
			s.FillPercent = math.Max(0, math.Min(100, s.Net/s.Added*100))
		}
		s.Status = fuel.DefaultThresholds.Classify(s.Net)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
