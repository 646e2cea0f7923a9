package masterdata

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Generator represents a fuel consuming unit installed at a plaza.
type Generator struct {
	ID        string    `json:"id"`
	PlazaID   string    `json:"plaza_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks generator invariants.
func (g Generator) Validate() error {
	if g.ID == "" {
		return errors.New("generator: empty id")
	}
	if g.PlazaID == "" {
		return ErrEmptyPlazaID
	}
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// GeneratorRepository manages generator persistence.
type GeneratorRepository interface {
	Get(ctx context.Context, id string) (*Generator, error)
	List(ctx context.Context) ([]Generator, error)
	ListByPlaza(ctx context.Context, plazaID string) ([]Generator, error)
	Save(ctx context.Context, generator *Generator) error
	Delete(ctx context.Context, id string) error
}
