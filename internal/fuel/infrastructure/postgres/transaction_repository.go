package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	fuel "fuel-dashboard/internal/fuel/domain"
)

const (
	defaultTransactionsTable = "fuel_transactions"
	defaultTanksTable        = "plaza_tanks"
)

// TransactionRepository persists fuel transactions and keeps plaza tank
// balances in step with them.
type TransactionRepository struct {
	db           *sql.DB
	transactions string
	tanks        string
}

// Option configures the repository.
type Option func(*TransactionRepository)

// WithTransactionsTable overrides the transactions table.
func WithTransactionsTable(table string) Option {
	return func(r *TransactionRepository) {
		if table != "" {
			r.transactions = table
		}
	}
}

// WithTanksTable overrides the tanks table.
func WithTanksTable(table string) Option {
	return func(r *TransactionRepository) {
		if table != "" {
			r.tanks = table
		}
	}
}

// NewTransactionRepository constructs a repository.
func NewTransactionRepository(db *sql.DB, opts ...Option) *TransactionRepository {
	r := &TransactionRepository{db: db, transactions: defaultTransactionsTable, tanks: defaultTanksTable}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List returns transactions matching the query, oldest recorded first.
func (r *TransactionRepository) List(ctx context.Context, q fuel.Query) ([]fuel.Transaction, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("fuel repo: nil db")
	}
	var (
		where []string
		args  []any
	)
	if len(q.UserIDs) > 0 {
		args = append(args, q.UserIDs)
		where = append(where, fmt.Sprintf("user_id = ANY($%d)", len(args)))
	}
	if len(q.PlazaIDs) > 0 {
		args = append(args, q.PlazaIDs)
		where = append(where, fmt.Sprintf("plaza_id = ANY($%d)", len(args)))
	}
	query := fmt.Sprintf(`
SELECT id, COALESCE(generator_id, ''), plaza_id, user_id, fuel_amount,
	occurred_at, recorded_at, odometer_hours, COALESCE(notes, ''), COALESCE(delivery_doc_number, '')
FROM %s`, r.transactions)
	if len(where) > 0 {
		query += "\nWHERE " + strings.Join(where, " AND ")
	}
	query += "\nORDER BY recorded_at ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []fuel.Transaction
	for rows.Next() {
		var (
			tx       fuel.Transaction
			odometer sql.NullFloat64
		)
		if err := rows.Scan(
			&tx.ID,
			&tx.GeneratorID,
			&tx.PlazaID,
			&tx.UserID,
			&tx.FuelAmount,
			&tx.OccurredAt,
			&tx.RecordedAt,
			&odometer,
			&tx.Notes,
			&tx.DeliveryDocNumber,
		); err != nil {
			return nil, err
		}
		if odometer.Valid {
			v := odometer.Float64
			tx.OdometerHours = &v
		}
		tx.OccurredAt = tx.OccurredAt.UTC()
		tx.RecordedAt = tx.RecordedAt.UTC()
		result = append(result, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// RecordAddition inserts a positive transaction and raises the tank balance.
// A missing tank row is created.
func (r *TransactionRepository) RecordAddition(ctx context.Context, t *fuel.Transaction) (float64, error) {
	if t == nil || t.FuelAmount <= 0 {
		return 0, fuel.ErrInvalidAmount
	}
	return r.record(ctx, t, func(balance float64, found bool) (float64, error) {
		return balance + t.FuelAmount, nil
	})
}

// RecordWithdrawal inserts a negative transaction and lowers the tank balance.
func (r *TransactionRepository) RecordWithdrawal(ctx context.Context, t *fuel.Transaction) (float64, error) {
	if t == nil || t.FuelAmount >= 0 {
		return 0, fuel.ErrInvalidAmount
	}
	return r.record(ctx, t, func(balance float64, found bool) (float64, error) {
		if !found {
			return 0, fuel.ErrTankNotFound
		}
		next := balance + t.FuelAmount
		if next < 0 {
			return 0, fuel.ErrInsufficientBalance
		}
		return next, nil
	})
}

func (r *TransactionRepository) record(ctx context.Context, t *fuel.Transaction, apply func(balance float64, found bool) (float64, error)) (float64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("fuel repo: nil db")
	}
	if err := t.Validate(); err != nil {
		return 0, err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	var balance float64
	found := true
	err = tx.QueryRowContext(ctx, fmt.Sprintf(`
SELECT current_balance
FROM %s
WHERE plaza_id = $1
FOR UPDATE`, r.tanks), t.PlazaID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		found = false
		err = nil
	}
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	if _, err := apply(balance, found); err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	var generator any
	if t.HasGenerator() {
		generator = t.GeneratorID
	}
	var odometer any
	if t.OdometerHours != nil {
		odometer = *t.OdometerHours
	}
	var doc any
	if t.DeliveryDocNumber != "" {
		doc = t.DeliveryDocNumber
	}
	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
INSERT INTO %s (
	id, generator_id, plaza_id, user_id, fuel_amount,
	occurred_at, recorded_at, odometer_hours, notes, delivery_doc_number
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`, r.transactions),
		t.ID, generator, t.PlazaID, t.UserID, t.FuelAmount,
		t.OccurredAt, t.RecordedAt, odometer, t.Notes, doc,
	)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	// Relative update: first additions to a plaza have no row to lock.
	var balanceAfter float64
	err = tx.QueryRowContext(ctx, fmt.Sprintf(`
INSERT INTO %s AS tank (plaza_id, current_balance, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (plaza_id)
DO UPDATE SET current_balance = tank.current_balance + EXCLUDED.current_balance, updated_at = EXCLUDED.updated_at
RETURNING current_balance`, r.tanks),
		t.PlazaID, t.FuelAmount, time.Now().UTC(),
	).Scan(&balanceAfter)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if balanceAfter < 0 {
		_ = tx.Rollback()
		return 0, fuel.ErrInsufficientBalance
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return balanceAfter, nil
}

// TankBalance returns the current balance of a plaza tank.
func (r *TransactionRepository) TankBalance(ctx context.Context, plazaID string) (fuel.Tank, error) {
	if r == nil || r.db == nil {
		return fuel.Tank{}, errors.New("fuel repo: nil db")
	}
	if plazaID == "" {
		return fuel.Tank{}, fuel.ErrEmptyPlazaID
	}
	tank := fuel.Tank{PlazaID: plazaID}
	err := r.db.QueryRowContext(ctx, fmt.Sprintf(`
SELECT current_balance, updated_at
FROM %s
WHERE plaza_id = $1`, r.tanks), plazaID).Scan(&tank.CurrentBalance, &tank.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fuel.Tank{}, fuel.ErrTankNotFound
		}
		return fuel.Tank{}, err
	}
	tank.UpdatedAt = tank.UpdatedAt.UTC()
	return tank, nil
}
