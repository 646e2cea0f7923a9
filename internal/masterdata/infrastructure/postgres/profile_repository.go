package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	masterdata "fuel-dashboard/internal/masterdata/domain"
)

const defaultProfilesTable = "profiles"

// ProfileRepository is a Postgres implementation for user profiles.
type ProfileRepository struct {
	db    DBTX
	table string
}

// NewProfileRepository constructs a repository.
func NewProfileRepository(db DBTX, opts ...ProfileOption) *ProfileRepository {
	repo := &ProfileRepository{db: db, table: defaultProfilesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// ProfileOption configures the repository.
type ProfileOption func(*ProfileRepository)

// WithProfileTable overrides the default table name.
func WithProfileTable(table string) ProfileOption {
	return func(repo *ProfileRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

const profileColumns = `user_id, email, full_name, role, COALESCE(plaza_id, ''), password_hash, created_at`

// Get loads a profile by user id. It returns nil, nil when missing.
func (r *ProfileRepository) Get(ctx context.Context, userID string) (*masterdata.Profile, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("profile repo: nil db")
	}
	if userID == "" {
		return nil, errors.New("profile repo: empty user id")
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE user_id = $1 LIMIT 1`, profileColumns, r.table)
	return r.one(ctx, query, userID)
}

// GetByEmail loads a profile by case-insensitive email.
func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*masterdata.Profile, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("profile repo: nil db")
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, errors.New("profile repo: empty email")
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE lower(email) = lower($1) LIMIT 1`, profileColumns, r.table)
	return r.one(ctx, query, email)
}

func (r *ProfileRepository) one(ctx context.Context, query string, arg string) (*masterdata.Profile, error) {
	var p masterdata.Profile
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&p.UserID,
		&p.Email,
		&p.FullName,
		&p.Role,
		&p.PlazaID,
		&p.PasswordHash,
		&p.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

// List loads all profiles ordered by name then email.
func (r *ProfileRepository) List(ctx context.Context) ([]masterdata.Profile, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("profile repo: nil db")
	}
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY full_name ASC, email ASC`, profileColumns, r.table)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []masterdata.Profile
	for rows.Next() {
		var p masterdata.Profile
		if err := rows.Scan(
			&p.UserID,
			&p.Email,
			&p.FullName,
			&p.Role,
			&p.PlazaID,
			&p.PasswordHash,
			&p.CreatedAt,
		); err != nil {
			return nil, err
		}
		p.CreatedAt = p.CreatedAt.UTC()
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return profiles, nil
}

// Save upserts a profile. An empty plaza id is stored as NULL.
func (r *ProfileRepository) Save(ctx context.Context, p *masterdata.Profile) error {
	if r == nil || r.db == nil {
		return errors.New("profile repo: nil db")
	}
	if p == nil {
		return errors.New("profile repo: nil profile")
	}
	if err := p.Validate(); err != nil {
		return err
	}
	var plaza any
	if p.PlazaID != "" {
		plaza = p.PlazaID
	}

	query := fmt.Sprintf(`
INSERT INTO %s (user_id, email, full_name, role, plaza_id, password_hash)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id)
DO UPDATE SET
	email = EXCLUDED.email,
	full_name = EXCLUDED.full_name,
	role = EXCLUDED.role,
	plaza_id = EXCLUDED.plaza_id,
	password_hash = CASE WHEN EXCLUDED.password_hash = '' THEN %s.password_hash ELSE EXCLUDED.password_hash END`,
		r.table, r.table)

	if _, err := r.db.ExecContext(ctx, query, p.UserID, p.Email, p.FullName, p.Role, plaza, p.PasswordHash); err != nil {
		return err
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	return nil
}
