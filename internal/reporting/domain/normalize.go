package reporting

import (
	"math"
	"sort"

	fuel "fuel-dashboard/internal/fuel/domain"
)

// Normalize drops zero and non-finite amounts and orders the rest by
// RecordedAt ascending. Equal RecordedAt values keep their input order.
// Negative or non-finite odometer readings are treated as absent.
func Normalize(txs []fuel.Transaction) []fuel.Transaction {
	out := make([]fuel.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.FuelAmount == 0 || math.IsNaN(tx.FuelAmount) || math.IsInf(tx.FuelAmount, 0) {
			continue
		}
		if _, ok := odometer(tx); !ok {
			tx.OdometerHours = nil
		}
		out = append(out, tx)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RecordedAt.Before(out[j].RecordedAt)
	})
	return out
}

// odometer returns a usable reading.
func odometer(tx fuel.Transaction) (float64, bool) {
	if tx.OdometerHours == nil {
		return 0, false
	}
	v := *tx.OdometerHours
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
