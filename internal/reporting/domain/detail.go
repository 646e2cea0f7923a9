package reporting

import (
	"time"

	"github.com/shopspring/decimal"

	fuel "fuel-dashboard/internal/fuel/domain"
	masterdata "fuel-dashboard/internal/masterdata/domain"
)

// DetailRow is one transaction with its derived odometer delta and
// consumption rate in hours per liter.
type DetailRow struct {
	TransactionID   string    `json:"transaction_id"`
	UserID          string    `json:"user_id"`
	OccurredAt      time.Time `json:"occurred_at"`
	RecordedAt      time.Time `json:"recorded_at"`
	Kind            fuel.Kind `json:"kind"`
	GeneratorID     string    `json:"generator_id,omitempty"`
	GeneratorLabel  string    `json:"generator"`
	PlazaLabel      string    `json:"plaza"`
	LitersAdded     float64   `json:"liters_added"`
	LitersUsed      float64   `json:"liters_used"`
	OdometerReading *float64  `json:"odometer_hours"`
	OdometerDelta   *float64  `json:"odometer_delta"`
	ConsumptionRate *float64  `json:"hours_per_liter"`
}

// ComputeDetailRows derives detail rows for one user's transactions.
// poolTxs is the shared history used when the user has no earlier reading for
// a generator; it should hold every transaction of the user's plazas. Rows are
// returned newest RecordedAt first. refs may be nil.
func ComputeDetailRows(userTxs, poolTxs []fuel.Transaction, refs *masterdata.Snapshot) []DetailRow {
	ordered := Normalize(userTxs)
	rows := make([]DetailRow, 0, len(ordered))
	if len(ordered) == 0 {
		return rows
	}

	resolver := newOdometerResolver(poolTxs)
	for _, tx := range ordered {
		delta := resolver.resolve(tx)
		rows = append(rows, assemble(tx, delta, refs))
	}

	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows
}

func assemble(tx fuel.Transaction, delta *float64, refs *masterdata.Snapshot) DetailRow {
	row := DetailRow{
		TransactionID:  tx.ID,
		UserID:         tx.UserID,
		OccurredAt:     tx.OccurredAt,
		RecordedAt:     tx.RecordedAt,
		Kind:           tx.Kind(),
		PlazaLabel:     refs.PlazaLabel(tx.PlazaID),
		GeneratorLabel: "-",
		OdometerDelta:  delta,
	}
	if tx.HasGenerator() {
		row.GeneratorID = tx.GeneratorID
		row.GeneratorLabel = refs.GeneratorLabel(tx.GeneratorID)
	}
	if reading, ok := odometer(tx); ok {
		row.OdometerReading = &reading
	}

	switch row.Kind {
	case fuel.KindAddition:
		row.LitersAdded = tx.FuelAmount
	default:
		row.LitersUsed = -tx.FuelAmount
	}

	if delta != nil && row.LitersUsed > 0 {
		rate := roundRate(*delta / row.LitersUsed)
		row.ConsumptionRate = &rate
	}
	return row
}

func roundRate(v float64) float64 {
	out, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return out
}
