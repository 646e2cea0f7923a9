package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	masterdata "fuel-dashboard/internal/masterdata/domain"
)

const defaultGeneratorsTable = "generators"

// GeneratorRepository is a Postgres implementation for generators.
type GeneratorRepository struct {
	db    DBTX
	table string
}

// NewGeneratorRepository constructs a repository.
func NewGeneratorRepository(db DBTX, opts ...GeneratorOption) *GeneratorRepository {
	repo := &GeneratorRepository{db: db, table: defaultGeneratorsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// GeneratorOption configures the repository.
type GeneratorOption func(*GeneratorRepository)

// WithGeneratorTable overrides the default table name.
func WithGeneratorTable(table string) GeneratorOption {
	return func(repo *GeneratorRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Get loads a generator by id. It returns nil, nil when missing.
func (r *GeneratorRepository) Get(ctx context.Context, id string) (*masterdata.Generator, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("generator repo: nil db")
	}
	if id == "" {
		return nil, errors.New("generator repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT id, plaza_id, name, created_at
FROM %s
WHERE id = $1
LIMIT 1`, r.table)

	var gen masterdata.Generator
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&gen.ID, &gen.PlazaID, &gen.Name, &gen.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	gen.CreatedAt = gen.CreatedAt.UTC()
	return &gen, nil
}

// List loads all generators ordered by name.
func (r *GeneratorRepository) List(ctx context.Context) ([]masterdata.Generator, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("generator repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, plaza_id, name, created_at
FROM %s
ORDER BY name ASC`, r.table)
	return r.query(ctx, query)
}

// ListByPlaza loads generators installed at a plaza.
func (r *GeneratorRepository) ListByPlaza(ctx context.Context, plazaID string) ([]masterdata.Generator, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("generator repo: nil db")
	}
	if plazaID == "" {
		return nil, errors.New("generator repo: empty plaza id")
	}
	query := fmt.Sprintf(`
SELECT id, plaza_id, name, created_at
FROM %s
WHERE plaza_id = $1
ORDER BY name ASC`, r.table)
	return r.query(ctx, query, plazaID)
}

func (r *GeneratorRepository) query(ctx context.Context, query string, args ...any) ([]masterdata.Generator, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gens []masterdata.Generator
	for rows.Next() {
		var gen masterdata.Generator
		if err := rows.Scan(&gen.ID, &gen.PlazaID, &gen.Name, &gen.CreatedAt); err != nil {
			return nil, err
		}
		gen.CreatedAt = gen.CreatedAt.UTC()
		gens = append(gens, gen)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return gens, nil
}

// Save upserts a generator.
func (r *GeneratorRepository) Save(ctx context.Context, gen *masterdata.Generator) error {
	if r == nil || r.db == nil {
		return errors.New("generator repo: nil db")
	}
	if gen == nil {
		return errors.New("generator repo: nil generator")
	}
	if err := gen.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (id, plaza_id, name)
VALUES ($1, $2, $3)
ON CONFLICT (id)
DO UPDATE SET
	plaza_id = EXCLUDED.plaza_id,
	name = EXCLUDED.name`, r.table)

	if _, err := r.db.ExecContext(ctx, query, gen.ID, gen.PlazaID, gen.Name); err != nil {
		return err
	}
	if gen.CreatedAt.IsZero() {
		gen.CreatedAt = time.Now().UTC()
	}
	return nil
}

// Delete removes a generator. The withdrawal foreign key is checked at the
// end of the statement, so a generator with history yields ErrGeneratorInUse
// while a plaza delete still cascades through both tables.
func (r *GeneratorRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("generator repo: nil db")
	}
	if id == "" {
		return errors.New("generator repo: empty id")
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table)
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return masterdata.ErrGeneratorInUse
		}
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return masterdata.ErrGeneratorNotFound
	}
	return nil
}

const foreignKeyViolation = "23503"

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}
