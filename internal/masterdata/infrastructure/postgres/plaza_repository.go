package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	masterdata "fuel-dashboard/internal/masterdata/domain"
)

const (
	defaultPlazasTable = "plazas"
	defaultTanksTable  = "plaza_tanks"
)

// PlazaRepository is a Postgres implementation for plazas. Saving a plaza
// also opens its tank at zero liters.
type PlazaRepository struct {
	db    DBTX
	table string
	tanks string
}

// NewPlazaRepository constructs a repository.
func NewPlazaRepository(db DBTX, opts ...PlazaOption) *PlazaRepository {
	repo := &PlazaRepository{db: db, table: defaultPlazasTable, tanks: defaultTanksTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// PlazaOption configures the repository.
type PlazaOption func(*PlazaRepository)

// WithPlazaTable overrides the default table name.
func WithPlazaTable(table string) PlazaOption {
	return func(repo *PlazaRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// WithPlazaTanksTable overrides the tank table opened for new plazas.
func WithPlazaTanksTable(table string) PlazaOption {
	return func(repo *PlazaRepository) {
		if table != "" {
			repo.tanks = table
		}
	}
}

// Get loads a plaza by id. It returns nil, nil when the plaza does not exist.
func (r *PlazaRepository) Get(ctx context.Context, id string) (*masterdata.Plaza, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("plaza repo: nil db")
	}
	if id == "" {
		return nil, errors.New("plaza repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT id, name, created_at
FROM %s
WHERE id = $1
LIMIT 1`, r.table)

	var plaza masterdata.Plaza
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&plaza.ID, &plaza.Name, &plaza.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	plaza.CreatedAt = plaza.CreatedAt.UTC()
	return &plaza, nil
}

// List loads all plazas ordered by name.
func (r *PlazaRepository) List(ctx context.Context) ([]masterdata.Plaza, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("plaza repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, name, created_at
FROM %s
ORDER BY name ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plazas []masterdata.Plaza
	for rows.Next() {
		var plaza masterdata.Plaza
		if err := rows.Scan(&plaza.ID, &plaza.Name, &plaza.CreatedAt); err != nil {
			return nil, err
		}
		plaza.CreatedAt = plaza.CreatedAt.UTC()
		plazas = append(plazas, plaza)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return plazas, nil
}

// Save upserts a plaza.
func (r *PlazaRepository) Save(ctx context.Context, plaza *masterdata.Plaza) error {
	if r == nil || r.db == nil {
		return errors.New("plaza repo: nil db")
	}
	if plaza == nil {
		return errors.New("plaza repo: nil plaza")
	}
	if err := plaza.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (id, name)
VALUES ($1, $2)
ON CONFLICT (id)
DO UPDATE SET name = EXCLUDED.name`, r.table)

	if _, err := r.db.ExecContext(ctx, query, plaza.ID, plaza.Name); err != nil {
		return err
	}
	tank := fmt.Sprintf(`
INSERT INTO %s (plaza_id, current_balance)
VALUES ($1, 0)
ON CONFLICT (plaza_id) DO NOTHING`, r.tanks)
	if _, err := r.db.ExecContext(ctx, tank, plaza.ID); err != nil {
		return err
	}
	if plaza.CreatedAt.IsZero() {
		plaza.CreatedAt = time.Now().UTC()
	}
	return nil
}

// Delete removes a plaza. Generators cascade in the schema.
func (r *PlazaRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("plaza repo: nil db")
	}
	if id == "" {
		return errors.New("plaza repo: empty id")
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table)
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return masterdata.ErrPlazaNotFound
	}
	return nil
}
