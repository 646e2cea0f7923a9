package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	fuel "fuel-dashboard/internal/fuel/domain"
	masterdata "fuel-dashboard/internal/masterdata/domain"
	"fuel-dashboard/internal/observability/metrics"
	reporting "fuel-dashboard/internal/reporting/domain"
)

var (
	// ErrForbidden is returned when the viewer may not see the requested data.
	ErrForbidden = errors.New("reporting: forbidden")
	// ErrUserNotFound is returned for unknown user ids.
	ErrUserNotFound = errors.New("reporting: user not found")
	// ErrNoUsersSelected is returned by MultiUserDetail without user ids.
	ErrNoUsersSelected = errors.New("reporting: no users selected")
)

// TransactionSource reads fuel transactions and tank balances.
type TransactionSource interface {
	List(ctx context.Context, query fuel.Query) ([]fuel.Transaction, error)
	TankBalance(ctx context.Context, plazaID string) (fuel.Tank, error)
}

// SnapshotSource provides reference data.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*masterdata.Snapshot, error)
}

// Viewer is the authenticated caller.
type Viewer struct {
	UserID  string
	Role    string
	PlazaID string
}

func (v Viewer) isAdmin() bool   { return v.Role == masterdata.RoleAdmin }
func (v Viewer) isManager() bool { return v.Role == masterdata.RoleManager }

// CanExport reports whether the viewer may download reports.
func (v Viewer) CanExport() bool { return v.isAdmin() || v.isManager() }

// Service builds role-scoped reports.
type Service struct {
	txs         TransactionSource
	refs        SnapshotSource
	logger      *zap.Logger
	now         func() time.Time
	concurrency int
}

// Option configures the service.
type Option func(*Service)

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

// WithConcurrency bounds parallel per-user sections in multi-user reports.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewService constructs a reporting service.
func NewService(txs TransactionSource, refs SnapshotSource, opts ...Option) (*Service, error) {
	if txs == nil || refs == nil {
		return nil, errors.New("reporting service: nil dependency")
	}
	s := &Service{
		txs:         txs,
		refs:        refs,
		logger:      zap.NewNop(),
		now:         time.Now,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// HomeView is the landing page content for a viewer.
type HomeView struct {
	Role    string                   `json:"role"`
	Metrics *reporting.UserMetrics   `json:"metrics,omitempty"`
	Plazas  []reporting.PlazaSummary `json:"plazas,omitempty"`
}

// Home returns personal metrics for users and plaza summaries for managers and admins.
func (s *Service) Home(ctx context.Context, viewer Viewer) (view *HomeView, err error) {
	defer s.observe("home", time.Now(), &err)

	if viewer.Role == masterdata.RoleUser {
		txs, err := s.list(ctx, fuel.Query{UserIDs: []string{viewer.UserID}})
		if err != nil {
			return nil, err
		}
		tank, err := s.tank(ctx, viewer.PlazaID)
		if err != nil {
			return nil, err
		}
		m := reporting.ComputeUserMetrics(txs, tank, s.now())
		return &HomeView{Role: viewer.Role, Metrics: &m}, nil
	}

	refs, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	plazaIDs := s.visiblePlazas(viewer, refs)
	txs, err := s.list(ctx, fuel.Query{PlazaIDs: plazaIDs})
	if err != nil {
		return nil, err
	}
	return &HomeView{Role: viewer.Role, Plazas: reporting.SummarizePlazas(txs, plazaIDs, refs)}, nil
}

// TransactionView is a labeled transaction for listings.
type TransactionView struct {
	ID          string    `json:"id"`
	OccurredAt  time.Time `json:"occurred_at"`
	RecordedAt  time.Time `json:"recorded_at"`
	UserID      string    `json:"user_id"`
	User        string    `json:"user"`
	Amount      float64   `json:"amount"`
	Notes       string    `json:"notes"`
	GeneratorID string    `json:"generator_id,omitempty"`
	Generator   string    `json:"generator"`
	PlazaID     string    `json:"plaza_id"`
	Plaza       string    `json:"plaza"`
	Kind        fuel.Kind `json:"kind"`
}

// ListTransactions returns the viewer's scoped transactions, newest recorded first.
func (s *Service) ListTransactions(ctx context.Context, viewer Viewer) (out []TransactionView, err error) {
	defer s.observe("transactions", time.Now(), &err)

	var q fuel.Query
	switch {
	case viewer.isAdmin():
	case viewer.isManager():
		if viewer.PlazaID != "" {
			q.PlazaIDs = []string{viewer.PlazaID}
		}
	default:
		q.UserIDs = []string{viewer.UserID}
	}
	refs, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	txs, err := s.list(ctx, q)
	if err != nil {
		return nil, err
	}
	out = make([]TransactionView, 0, len(txs))
	for _, tx := range txs {
		v := TransactionView{
			ID:         tx.ID,
			OccurredAt: tx.OccurredAt,
			RecordedAt: tx.RecordedAt,
			UserID:     tx.UserID,
			User:       refs.UserLabel(tx.UserID),
			Amount:     tx.FuelAmount,
			Notes:      tx.Notes,
			Generator:  "-",
			PlazaID:    tx.PlazaID,
			Plaza:      refs.PlazaLabel(tx.PlazaID),
			Kind:       tx.Kind(),
		}
		if tx.HasGenerator() {
			v.GeneratorID = tx.GeneratorID
			v.Generator = refs.GeneratorLabel(tx.GeneratorID)
		}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RecordedAt.After(out[j].RecordedAt) })
	return out, nil
}

// UserView is a profile with its plaza label.
type UserView struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	PlazaID  string `json:"plaza_id,omitempty"`
	Plaza    string `json:"plaza"`
}

// ListUsers returns the profiles visible to a manager or admin.
func (s *Service) ListUsers(ctx context.Context, viewer Viewer) (out []UserView, err error) {
	defer s.observe("users", time.Now(), &err)

	if !viewer.CanExport() {
		return nil, ErrForbidden
	}
	refs, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out = []UserView{}
	for _, p := range refs.Profiles() {
		if !canSee(viewer, p) || (viewer.isManager() && p.UserID == viewer.UserID) {
			continue
		}
		out = append(out, userView(p, refs))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

// SelectableUsers lists user-role profiles a viewer can include in a
// multi-user report.
func (s *Service) SelectableUsers(ctx context.Context, viewer Viewer) ([]UserView, error) {
	users, err := s.ListUsers(ctx, viewer)
	if err != nil {
		return nil, err
	}
	out := users[:0]
	for _, u := range users {
		if u.Role == masterdata.RoleUser {
			out = append(out, u)
		}
	}
	return out, nil
}

// UserDetail is a user's detail report.
type UserDetail struct {
	User         UserView              `json:"user"`
	Rows         []reporting.DetailRow `json:"rows"`
	Transactions int                   `json:"transactions"`
	TotalAdded   float64               `json:"total_added"`
	TotalUsed    float64               `json:"total_used"`
	LastActivity *time.Time            `json:"last_activity,omitempty"`
}

// UserDetail builds the detail report for one user.
func (s *Service) UserDetail(ctx context.Context, viewer Viewer, userID string) (detail *UserDetail, err error) {
	defer s.observe("user_detail", time.Now(), &err)

	refs, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	profile, ok := refs.Profile(userID)
	if !ok {
		return nil, ErrUserNotFound
	}
	if !canSee(viewer, profile) {
		return nil, ErrForbidden
	}
	txs, err := s.list(ctx, fuel.Query{UserIDs: []string{userID}})
	if err != nil {
		return nil, err
	}
	pool, err := s.pool(ctx, txs)
	if err != nil {
		return nil, err
	}
	d := buildDetail(userView(profile, refs), txs, pool, refs, s.now())
	return &d, nil
}

// MultiUserReport holds per-user sections and their combined rows.
type MultiUserReport struct {
	Sections []UserDetail  `json:"sections"`
	Combined []CombinedRow `json:"combined"`
}

// CombinedRow is a detail row labeled with its user.
type CombinedRow struct {
	User string `json:"user"`
	reporting.DetailRow
}

// MultiUserDetail builds detail sections for several users in the order given.
// The shared pool is fetched once for every plaza involved.
func (s *Service) MultiUserDetail(ctx context.Context, viewer Viewer, userIDs []string) (report *MultiUserReport, err error) {
	defer s.observe("multi_user_detail", time.Now(), &err)

	if !viewer.CanExport() {
		return nil, ErrForbidden
	}
	ids := dedupe(userIDs)
	if len(ids) == 0 {
		return nil, ErrNoUsersSelected
	}
	refs, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	profiles := make([]masterdata.Profile, len(ids))
	for i, id := range ids {
		p, ok := refs.Profile(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
		}
		if p.Role != masterdata.RoleUser || !canSee(viewer, p) {
			return nil, ErrForbidden
		}
		profiles[i] = p
	}

	txs, err := s.list(ctx, fuel.Query{UserIDs: ids})
	if err != nil {
		return nil, err
	}
	pool, err := s.pool(ctx, txs)
	if err != nil {
		return nil, err
	}
	byUser := make(map[string][]fuel.Transaction, len(ids))
	for _, tx := range txs {
		byUser[tx.UserID] = append(byUser[tx.UserID], tx)
	}

	now := s.now()
	sections := make([]UserDetail, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range profiles {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p := profiles[i]
			sections[i] = buildDetail(userView(p, refs), byUser[p.UserID], pool, refs, now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report = &MultiUserReport{Sections: sections}
	for _, sec := range sections {
		for _, row := range sec.Rows {
			report.Combined = append(report.Combined, CombinedRow{User: sec.User.Name, DetailRow: row})
		}
	}
	return report, nil
}

func buildDetail(user UserView, txs, pool []fuel.Transaction, refs *masterdata.Snapshot, now time.Time) UserDetail {
	m := reporting.ComputeUserMetrics(txs, fuel.Tank{}, now)
	return UserDetail{
		User:         user,
		Rows:         reporting.ComputeDetailRows(txs, pool, refs),
		Transactions: len(txs),
		TotalAdded:   m.TotalAdded,
		TotalUsed:    m.TotalUsed,
		LastActivity: m.LastActivity,
	}
}

// pool loads every transaction of the plazas touched by txs.
func (s *Service) pool(ctx context.Context, txs []fuel.Transaction) ([]fuel.Transaction, error) {
	var plazas []string
	seen := map[string]bool{}
	for _, tx := range txs {
		if tx.PlazaID == "" || seen[tx.PlazaID] {
			continue
		}
		seen[tx.PlazaID] = true
		plazas = append(plazas, tx.PlazaID)
	}
	if len(plazas) == 0 {
		return nil, nil
	}
	return s.list(ctx, fuel.Query{PlazaIDs: plazas})
}

func (s *Service) visiblePlazas(viewer Viewer, refs *masterdata.Snapshot) []string {
	if viewer.isManager() && viewer.PlazaID != "" {
		return []string{viewer.PlazaID}
	}
	plazas := refs.Plazas()
	ids := make([]string, 0, len(plazas))
	for _, p := range plazas {
		ids = append(ids, p.ID)
	}
	return ids
}

func canSee(viewer Viewer, target masterdata.Profile) bool {
	switch {
	case viewer.isAdmin():
		return true
	case viewer.isManager():
		if target.UserID == viewer.UserID {
			return true
		}
		if target.Role == masterdata.RoleAdmin {
			return false
		}
		return viewer.PlazaID == "" || target.PlazaID == viewer.PlazaID
	default:
		return target.UserID == viewer.UserID
	}
}

func userView(p masterdata.Profile, refs *masterdata.Snapshot) UserView {
	plaza := ""
	if p.PlazaID != "" {
		plaza = refs.PlazaLabel(p.PlazaID)
	}
	return UserView{
		UserID:   p.UserID,
		Name:     p.Label(),
		FullName: p.FullName,
		Email:    p.Email,
		Role:     p.Role,
		PlazaID:  p.PlazaID,
		Plaza:    plaza,
	}
}

func (s *Service) list(ctx context.Context, q fuel.Query) ([]fuel.Transaction, error) {
	txs, err := s.txs.List(ctx, q)
	if err != nil {
		s.logger.Error("transaction fetch failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", reporting.ErrDataUnavailable, err)
	}
	return txs, nil
}

func (s *Service) tank(ctx context.Context, plazaID string) (fuel.Tank, error) {
	if plazaID == "" {
		return fuel.Tank{}, nil
	}
	tank, err := s.txs.TankBalance(ctx, plazaID)
	if err != nil {
		if errors.Is(err, fuel.ErrTankNotFound) {
			return fuel.Tank{PlazaID: plazaID}, nil
		}
		s.logger.Error("tank fetch failed", zap.String("plaza_id", plazaID), zap.Error(err))
		return fuel.Tank{}, fmt.Errorf("%w: %v", reporting.ErrDataUnavailable, err)
	}
	return tank, nil
}

func (s *Service) snapshot(ctx context.Context) (*masterdata.Snapshot, error) {
	refs, err := s.refs.Snapshot(ctx)
	if err != nil {
		s.logger.Error("reference data fetch failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", reporting.ErrDataUnavailable, err)
	}
	return refs, nil
}

func (s *Service) observe(report string, start time.Time, err *error) {
	result := metrics.ResultSuccess
	if err != nil && *err != nil {
		result = metrics.ResultError
	}
	metrics.ObserveReport(report, result, time.Since(start))
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
