package masterdata

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Profile roles, lowest privilege first.
const (
	RoleUser    = "user"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

var roleOrder = []string{RoleUser, RoleManager, RoleAdmin}

// RoleRank orders roles user < manager < admin, starting at 1. Unknown roles
// rank 0.
func RoleRank(role string) int {
	for i, r := range roleOrder {
		if r == role {
			return i + 1
		}
	}
	return 0
}

// ValidRole reports whether role is a known profile role.
func ValidRole(role string) bool {
	return RoleRank(role) > 0
}

// Profile is an application user with a role and an optional plaza.
type Profile struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	PlazaID      string    `json:"plaza_id"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Label returns the display name: full name, then email, then user id.
func (p Profile) Label() string {
	if name := strings.TrimSpace(p.FullName); name != "" {
		return name
	}
	if p.Email != "" {
		return p.Email
	}
	return p.UserID
}

// Validate checks profile invariants.
func (p Profile) Validate() error {
	if p.UserID == "" {
		return errors.New("profile: empty user id")
	}
	if strings.TrimSpace(p.Email) == "" {
		return errors.New("profile: empty email")
	}
	if !ValidRole(p.Role) {
		return ErrInvalidRole
	}
	return nil
}

// ProfileRepository manages profile persistence.
type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	List(ctx context.Context) ([]Profile, error)
	Save(ctx context.Context, profile *Profile) error
}
