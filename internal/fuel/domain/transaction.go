package fuel

import (
	"context"
	"strings"
	"time"
)

// TankUnit is the generator key used for additions to a plaza reservoir.
const TankUnit = "tank"

// Kind distinguishes reservoir additions from withdrawals to a generator.
type Kind string

const (
	KindAddition   Kind = "addition"
	KindWithdrawal Kind = "withdrawal"
)

// Label returns the human readable form used in reports.
func (k Kind) Label() string {
	switch k {
	case KindAddition:
		return "Added to tank"
	case KindWithdrawal:
		return "Taken to generator"
	default:
		return ""
	}
}

// Transaction is a single fuel movement recorded against a plaza tank.
type Transaction struct {
	ID                string    `json:"id"`
	GeneratorID       string    `json:"generator_id"`
	PlazaID           string    `json:"plaza_id"`
	UserID            string    `json:"user_id"`
	FuelAmount        float64   `json:"fuel_amount"`
	OccurredAt        time.Time `json:"transaction_date"`
	RecordedAt        time.Time `json:"created_at"`
	OdometerHours     *float64  `json:"odometer_hours"`
	Notes             string    `json:"notes,omitempty"`
	DeliveryDocNumber string    `json:"delivery_doc_number,omitempty"`
}

// Kind reports the transaction kind from the sign of the amount.
func (t Transaction) Kind() Kind {
	if t.FuelAmount > 0 {
		return KindAddition
	}
	return KindWithdrawal
}

// HasGenerator reports whether the transaction targets a real generator.
func (t Transaction) HasGenerator() bool {
	id := strings.TrimSpace(t.GeneratorID)
	return id != "" && id != TankUnit
}

// UnitKey returns the generator key, falling back to TankUnit.
func (t Transaction) UnitKey() string {
	if t.HasGenerator() {
		return t.GeneratorID
	}
	return TankUnit
}

// Validate checks transaction invariants.
func (t Transaction) Validate() error {
	if t.PlazaID == "" {
		return ErrEmptyPlazaID
	}
	if t.UserID == "" {
		return ErrEmptyUserID
	}
	if t.FuelAmount == 0 {
		return ErrZeroAmount
	}
	if t.OdometerHours != nil && *t.OdometerHours < 0 {
		return ErrNegativeOdometer
	}
	return nil
}

// Query filters transaction listings. Empty fields are not applied.
type Query struct {
	UserIDs  []string
	PlazaIDs []string
}

// TransactionRepository persists fuel transactions and tank balances.
type TransactionRepository interface {
	List(ctx context.Context, query Query) ([]Transaction, error)
	RecordAddition(ctx context.Context, tx *Transaction) (float64, error)
	RecordWithdrawal(ctx context.Context, tx *Transaction) (float64, error)
	TankBalance(ctx context.Context, plazaID string) (Tank, error)
}

// Tank is the running balance of a plaza reservoir.
type Tank struct {
	PlazaID        string
	CurrentBalance float64
	UpdatedAt      time.Time
}
