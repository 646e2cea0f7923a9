package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fuel-dashboard/internal/audit"
	fuel "fuel-dashboard/internal/fuel/domain"
	masterdata "fuel-dashboard/internal/masterdata/domain"
	"fuel-dashboard/internal/notify"
	"fuel-dashboard/internal/observability/metrics"
)

// ProfileReader loads the recording user's profile.
type ProfileReader interface {
	Get(ctx context.Context, userID string) (*masterdata.Profile, error)
}

// GeneratorReader loads generators.
type GeneratorReader interface {
	Get(ctx context.Context, id string) (*masterdata.Generator, error)
}

// PlazaReader loads plazas.
type PlazaReader interface {
	Get(ctx context.Context, id string) (*masterdata.Plaza, error)
}

// TankAlerter evaluates a tank level after a withdrawal.
type TankAlerter interface {
	Evaluate(ctx context.Context, reading notify.TankReading) (fuel.TankStatus, bool)
}

// Service records fuel additions and withdrawals.
type Service struct {
	repo       fuel.TransactionRepository
	profiles   ProfileReader
	generators GeneratorReader
	plazas     PlazaReader
	alerter    TankAlerter
	audit      audit.Logger
	logger     *zap.Logger
	now        func() time.Time
	newID      func() string
}

// Option configures the service.
type Option func(*Service)

// WithTankAlerter enables tank alerts after withdrawals.
func WithTankAlerter(alerter TankAlerter) Option {
	return func(s *Service) {
		s.alerter = alerter
	}
}

// WithPlazaReader resolves plaza names for alerts.
func WithPlazaReader(plazas PlazaReader) Option {
	return func(s *Service) {
		s.plazas = plazas
	}
}

// WithAuditLogger records fuel movements in the audit log.
func WithAuditLogger(logger audit.Logger) Option {
	return func(s *Service) {
		s.audit = logger
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides transaction id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewService constructs a fuel service.
func NewService(repo fuel.TransactionRepository, profiles ProfileReader, generators GeneratorReader, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, errors.New("fuel service: nil repository")
	}
	if profiles == nil || generators == nil {
		return nil, errors.New("fuel service: nil reader")
	}
	s := &Service{
		repo:       repo,
		profiles:   profiles,
		generators: generators,
		logger:     zap.NewNop(),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Actor identifies who records a movement.
type Actor struct {
	UserID string
	Role   string
	IP     string
	Agent  string
}

// AdditionInput describes fuel delivered into the plaza tank.
type AdditionInput struct {
	Amount            float64
	DeliveryDocNumber string
	ReceivedAt        time.Time
	Notes             string
}

// WithdrawalInput describes fuel taken from the tank to a generator.
type WithdrawalInput struct {
	GeneratorID   string
	Amount        float64
	OdometerHours float64
	UsedAt        time.Time
	Notes         string
}

// Result is a recorded transaction with the resulting tank balance.
type Result struct {
	Transaction fuel.Transaction
	Balance     float64
	TankStatus  fuel.TankStatus
}

// RecordAddition stores a delivery into the actor's plaza tank.
func (s *Service) RecordAddition(ctx context.Context, actor Actor, in AdditionInput) (*Result, error) {
	start := time.Now()
	res, err := s.recordAddition(ctx, actor, in)
	observe(string(fuel.KindAddition), in.Amount, start, err)
	return res, err
}

func (s *Service) recordAddition(ctx context.Context, actor Actor, in AdditionInput) (*Result, error) {
	if !validAmount(in.Amount) {
		return nil, fuel.ErrInvalidAmount
	}
	plazaID, err := s.plazaOf(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	occurred := in.ReceivedAt
	if occurred.IsZero() {
		occurred = now
	}
	tx := fuel.Transaction{
		ID:                s.newID(),
		GeneratorID:       "",
		PlazaID:           plazaID,
		UserID:            actor.UserID,
		FuelAmount:        in.Amount,
		OccurredAt:        occurred.UTC(),
		RecordedAt:        now,
		Notes:             strings.TrimSpace(in.Notes),
		DeliveryDocNumber: strings.TrimSpace(in.DeliveryDocNumber),
	}
	balance, err := s.repo.RecordAddition(ctx, &tx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("fuel added",
		zap.String("transaction_id", tx.ID),
		zap.String("plaza_id", plazaID),
		zap.String("user_id", actor.UserID),
		zap.Float64("liters", in.Amount),
		zap.Float64("balance", balance),
	)
	s.record(ctx, actor, audit.ActionFuelAdded, tx, balance)
	return &Result{Transaction: tx, Balance: balance, TankStatus: fuel.DefaultThresholds.Classify(balance)}, nil
}

// RecordWithdrawal stores fuel taken to a generator of the actor's plaza.
func (s *Service) RecordWithdrawal(ctx context.Context, actor Actor, in WithdrawalInput) (*Result, error) {
	start := time.Now()
	res, err := s.recordWithdrawal(ctx, actor, in)
	observe(string(fuel.KindWithdrawal), in.Amount, start, err)
	return res, err
}

func (s *Service) recordWithdrawal(ctx context.Context, actor Actor, in WithdrawalInput) (*Result, error) {
	if !validAmount(in.Amount) {
		return nil, fuel.ErrInvalidAmount
	}
	generatorID := strings.TrimSpace(in.GeneratorID)
	if generatorID == "" || generatorID == fuel.TankUnit {
		return nil, fuel.ErrGeneratorRequired
	}
	if !(in.OdometerHours > 0) || math.IsInf(in.OdometerHours, 0) {
		return nil, fuel.ErrInvalidOdometer
	}
	plazaID, err := s.plazaOf(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	gen, err := s.generators.Get(ctx, generatorID)
	if err != nil {
		return nil, err
	}
	if gen == nil {
		return nil, masterdata.ErrGeneratorNotFound
	}
	if gen.PlazaID != plazaID {
		return nil, fuel.ErrGeneratorNotInPlaza
	}

	tank, err := s.repo.TankBalance(ctx, plazaID)
	if err != nil {
		if errors.Is(err, fuel.ErrTankNotFound) {
			return nil, fuel.ErrInsufficientBalance
		}
		return nil, err
	}
	if in.Amount > tank.CurrentBalance {
		return nil, fuel.ErrInsufficientBalance
	}

	now := s.now().UTC()
	occurred := in.UsedAt
	if occurred.IsZero() {
		occurred = now
	}
	notes := strings.TrimSpace(in.Notes)
	if notes == "" {
		notes = fmt.Sprintf("Used %s L", formatLiters(in.Amount))
	}
	odometer := in.OdometerHours
	tx := fuel.Transaction{
		ID:            s.newID(),
		GeneratorID:   generatorID,
		PlazaID:       plazaID,
		UserID:        actor.UserID,
		FuelAmount:    -in.Amount,
		OccurredAt:    occurred.UTC(),
		RecordedAt:    now,
		OdometerHours: &odometer,
		Notes:         notes,
	}
	balance, err := s.repo.RecordWithdrawal(ctx, &tx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("fuel used",
		zap.String("transaction_id", tx.ID),
		zap.String("plaza_id", plazaID),
		zap.String("generator_id", generatorID),
		zap.String("user_id", actor.UserID),
		zap.Float64("liters", in.Amount),
		zap.Float64("balance", balance),
	)
	s.record(ctx, actor, audit.ActionFuelUsed, tx, balance)

	status := fuel.DefaultThresholds.Classify(balance)
	if s.alerter != nil {
		reading := notify.TankReading{
			PlazaID:   plazaID,
			PlazaName: s.plazaName(ctx, plazaID),
			Balance:   balance,
			Withdrawn: in.Amount,
			Actor:     actor.UserID,
			At:        now,
		}
		var sent bool
		status, sent = s.alerter.Evaluate(ctx, reading)
		if sent {
			metrics.IncTankAlert(string(status))
		}
	}
	return &Result{Transaction: tx, Balance: balance, TankStatus: status}, nil
}

// TankBalance returns the current balance for the actor's plaza.
func (s *Service) TankBalance(ctx context.Context, plazaID string) (float64, error) {
	tank, err := s.repo.TankBalance(ctx, plazaID)
	if err != nil {
		if errors.Is(err, fuel.ErrTankNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return tank.CurrentBalance, nil
}

func (s *Service) plazaOf(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", fuel.ErrEmptyUserID
	}
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if profile == nil {
		return "", masterdata.ErrProfileNotFound
	}
	if profile.PlazaID == "" {
		return "", fuel.ErrNoPlazaAssigned
	}
	return profile.PlazaID, nil
}

func (s *Service) plazaName(ctx context.Context, plazaID string) string {
	if s.plazas == nil {
		return ""
	}
	plaza, err := s.plazas.Get(ctx, plazaID)
	if err != nil || plaza == nil {
		return ""
	}
	return plaza.Name
}

func (s *Service) record(ctx context.Context, actor Actor, action string, tx fuel.Transaction, balance float64) {
	if s.audit == nil {
		return
	}
	entry := audit.Entry{
		Actor:        actor.UserID,
		Role:         actor.Role,
		Action:       action,
		ResourceType: "fuel_transaction",
		ResourceID:   tx.ID,
		PlazaID:      tx.PlazaID,
		Metadata: audit.Metadata(map[string]any{
			"amount":       tx.FuelAmount,
			"generator_id": tx.GeneratorID,
			"balance":      balance,
		}),
		IP:        actor.IP,
		UserAgent: actor.Agent,
	}
	if err := s.audit.Log(ctx, entry); err != nil {
		s.logger.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

func observe(kind string, liters float64, start time.Time, err error) {
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObserveTransaction(kind, result, liters, time.Since(start))
}

func validAmount(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func formatLiters(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
