package masterdata

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Plaza is a physical site with one shared fuel tank.
type Plaza struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks plaza invariants.
func (p Plaza) Validate() error {
	if p.ID == "" {
		return errors.New("plaza: empty id")
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// PlazaRepository manages plaza persistence.
type PlazaRepository interface {
	Get(ctx context.Context, id string) (*Plaza, error)
	List(ctx context.Context) ([]Plaza, error)
	Save(ctx context.Context, plaza *Plaza) error
	Delete(ctx context.Context, id string) error
}
