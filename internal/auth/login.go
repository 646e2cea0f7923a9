package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	masterdata "fuel-dashboard/internal/masterdata/domain"
	"fuel-dashboard/internal/observability/metrics"
)

// ProfileFinder loads profiles by email. It returns nil, nil when missing.
type ProfileFinder interface {
	GetByEmail(ctx context.Context, email string) (*masterdata.Profile, error)
}

// LoginResult is a successful login.
type LoginResult struct {
	Token     string             `json:"token"`
	TokenType string             `json:"token_type"`
	ExpiresAt time.Time          `json:"expires_at"`
	Profile   masterdata.Profile `json:"profile"`
}

// LoginService authenticates profiles by email and password.
type LoginService struct {
	profiles ProfileFinder
	hasher   Hasher
	tokens   *TokenService
	logger   *zap.Logger
}

// NewLoginService builds a LoginService.
func NewLoginService(profiles ProfileFinder, hasher Hasher, tokens *TokenService, logger *zap.Logger) (*LoginService, error) {
	if profiles == nil || hasher == nil || tokens == nil {
		return nil, errors.New("login service: nil dependency")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoginService{profiles: profiles, hasher: hasher, tokens: tokens, logger: logger}, nil
}

// Login verifies credentials and issues a token. Unknown emails and wrong
// passwords both return ErrInvalidCredentials.
func (s *LoginService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	result, err := s.login(ctx, email, password)
	switch {
	case err == nil:
		metrics.IncLogin(metrics.ResultSuccess)
	case errors.Is(err, ErrInvalidCredentials):
		metrics.IncLogin("invalid")
	default:
		metrics.IncLogin(metrics.ResultError)
	}
	return result, err
}

func (s *LoginService) login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	profile, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if profile == nil || profile.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(profile.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	role, ok := NormalizeRole(profile.Role)
	if !ok {
		return nil, ErrInvalidCredentials
	}

	token, expires, err := s.tokens.Issue(Identity{UserID: profile.UserID, Role: role, PlazaID: profile.PlazaID})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", zap.String("user_id", profile.UserID), zap.String("role", profile.Role))

	out := *profile
	out.PasswordHash = ""
	return &LoginResult{Token: token, TokenType: "Bearer", ExpiresAt: expires, Profile: out}, nil
}
