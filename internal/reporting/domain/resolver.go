package reporting

import (
	"math"

	fuel "fuel-dashboard/internal/fuel/domain"
)

// odometerResolver tracks the last reading per generator during one pass
// over a user's transactions.
type odometerResolver struct {
	last map[string]float64
	pool []fuel.Transaction
}

func newOdometerResolver(pool []fuel.Transaction) *odometerResolver {
	return &odometerResolver{last: make(map[string]float64), pool: pool}
}

// resolve returns the odometer delta for tx and records its reading.
// Additions are ignored and never touch the mapping.
func (r *odometerResolver) resolve(tx fuel.Transaction) *float64 {
	if tx.Kind() == fuel.KindAddition {
		return nil
	}
	key := tx.UnitKey()
	current, hasCurrent := odometer(tx)
	prev, hasPrev := r.last[key]

	if !hasPrev && hasCurrent && tx.HasGenerator() {
		prev, hasPrev = r.fallback(tx)
	}

	var delta *float64
	if hasPrev && hasCurrent {
		d := math.Abs(current - prev)
		delta = &d
	}
	if hasCurrent {
		r.last[key] = current
	}
	return delta
}

// fallback finds the latest earlier reading for the same plaza and generator
// in the shared pool. Readings sharing an OccurredAt are ranked by RecordedAt
// and then by ID, highest first.
func (r *odometerResolver) fallback(tx fuel.Transaction) (float64, bool) {
	var (
		best  fuel.Transaction
		value float64
		found bool
	)
	for _, cand := range r.pool {
		if cand.PlazaID != tx.PlazaID || !cand.HasGenerator() || cand.GeneratorID != tx.GeneratorID {
			continue
		}
		if cand.FuelAmount >= 0 {
			continue
		}
		if !cand.OccurredAt.Before(tx.OccurredAt) {
			continue
		}
		reading, ok := odometer(cand)
		if !ok {
			continue
		}
		if !found || laterReading(cand, best) {
			best, value, found = cand, reading, true
		}
	}
	return value, found
}

func laterReading(a, b fuel.Transaction) bool {
	if !a.OccurredAt.Equal(b.OccurredAt) {
		return a.OccurredAt.After(b.OccurredAt)
	}
	if !a.RecordedAt.Equal(b.RecordedAt) {
		return a.RecordedAt.After(b.RecordedAt)
	}
	return a.ID > b.ID
}
