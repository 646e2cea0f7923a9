package application

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	masterdata "fuel-dashboard/internal/masterdata/domain"
)

// PasswordHasher hashes new user passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// Invalidator is notified after reference data changes.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Service manages plazas, generators and user profiles.
type Service struct {
	plazas      masterdata.PlazaRepository
	generators  masterdata.GeneratorRepository
	profiles    masterdata.ProfileRepository
	hasher      PasswordHasher
	invalidator Invalidator
	logger      *zap.Logger
	newID       func() string
}

// ServiceOption configures the service.
type ServiceOption func(*Service)

// WithInvalidator registers a cache invalidator.
func WithInvalidator(inv Invalidator) ServiceOption {
	return func(s *Service) {
		s.invalidator = inv
	}
}

// WithServiceLogger sets the logger.
func WithServiceLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIDGenerator overrides id generation.
func WithIDGenerator(fn func() string) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewService constructs a master data service.
func NewService(plazas masterdata.PlazaRepository, generators masterdata.GeneratorRepository, profiles masterdata.ProfileRepository, hasher PasswordHasher, opts ...ServiceOption) (*Service, error) {
	if plazas == nil || generators == nil || profiles == nil {
		return nil, errors.New("masterdata service: nil repository")
	}
	if hasher == nil {
		return nil, errors.New("masterdata service: nil hasher")
	}
	s := &Service{
		plazas:     plazas,
		generators: generators,
		profiles:   profiles,
		hasher:     hasher,
		logger:     zap.NewNop(),
		newID:      func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ListPlazas returns all plazas.
func (s *Service) ListPlazas(ctx context.Context) ([]masterdata.Plaza, error) {
	return s.plazas.List(ctx)
}

// CreatePlaza adds a plaza with a generated id.
func (s *Service) CreatePlaza(ctx context.Context, name string) (*masterdata.Plaza, error) {
	plaza := &masterdata.Plaza{ID: s.newID(), Name: strings.TrimSpace(name)}
	if err := plaza.Validate(); err != nil {
		return nil, err
	}
	if err := s.plazas.Save(ctx, plaza); err != nil {
		return nil, err
	}
	s.changed(ctx)
	s.logger.Info("plaza created", zap.String("plaza_id", plaza.ID), zap.String("name", plaza.Name))
	return plaza, nil
}

// DeletePlaza removes a plaza.
func (s *Service) DeletePlaza(ctx context.Context, id string) error {
	if id == "" {
		return masterdata.ErrPlazaNotFound
	}
	if err := s.plazas.Delete(ctx, id); err != nil {
		return err
	}
	s.changed(ctx)
	s.logger.Info("plaza deleted", zap.String("plaza_id", id))
	return nil
}

// ListGenerators returns generators, optionally for a single plaza.
func (s *Service) ListGenerators(ctx context.Context, plazaID string) ([]masterdata.Generator, error) {
	if plazaID == "" {
		return s.generators.List(ctx)
	}
	return s.generators.ListByPlaza(ctx, plazaID)
}

// CreateGenerator adds a generator to an existing plaza.
func (s *Service) CreateGenerator(ctx context.Context, plazaID, name string) (*masterdata.Generator, error) {
	if plazaID == "" {
		return nil, masterdata.ErrEmptyPlazaID
	}
	plaza, err := s.plazas.Get(ctx, plazaID)
	if err != nil {
		return nil, err
	}
	if plaza == nil {
		return nil, masterdata.ErrPlazaNotFound
	}
	gen := &masterdata.Generator{ID: s.newID(), PlazaID: plazaID, Name: strings.TrimSpace(name)}
	if err := gen.Validate(); err != nil {
		return nil, err
	}
	if err := s.generators.Save(ctx, gen); err != nil {
		return nil, err
	}
	s.changed(ctx)
	s.logger.Info("generator created", zap.String("generator_id", gen.ID), zap.String("plaza_id", plazaID))
	return gen, nil
}

// DeleteGenerator removes a generator.
func (s *Service) DeleteGenerator(ctx context.Context, id string) error {
	if id == "" {
		return masterdata.ErrGeneratorNotFound
	}
	if err := s.generators.Delete(ctx, id); err != nil {
		if errors.Is(err, masterdata.ErrGeneratorInUse) {
			s.logger.Warn("generator delete rejected", zap.String("generator_id", id), zap.Error(err))
		}
		return err
	}
	s.changed(ctx)
	s.logger.Info("generator deleted", zap.String("generator_id", id))
	return nil
}

// NewUser describes a user created by an admin.
type NewUser struct {
	Email    string
	Password string
	FullName string
	Role     string
	PlazaID  string
}

// CreateUser registers a profile with a hashed password.
func (s *Service) CreateUser(ctx context.Context, in NewUser) (*masterdata.Profile, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return nil, masterdata.ErrEmailRequired
	}
	if in.Password == "" {
		return nil, masterdata.ErrPasswordRequired
	}
	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = masterdata.RoleUser
	}
	if !masterdata.ValidRole(role) {
		return nil, masterdata.ErrInvalidRole
	}

	existing, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, masterdata.ErrEmailInUse
	}
	if in.PlazaID != "" {
		plaza, err := s.plazas.Get(ctx, in.PlazaID)
		if err != nil {
			return nil, err
		}
		if plaza == nil {
			return nil, masterdata.ErrPlazaNotFound
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	profile := &masterdata.Profile{
		UserID:       s.newID(),
		Email:        email,
		FullName:     strings.TrimSpace(in.FullName),
		Role:         role,
		PlazaID:      in.PlazaID,
		PasswordHash: hash,
	}
	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, err
	}
	s.changed(ctx)
	s.logger.Info("user created", zap.String("user_id", profile.UserID), zap.String("role", role))
	out := *profile
	out.PasswordHash = ""
	return &out, nil
}

func (s *Service) changed(ctx context.Context) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
}
