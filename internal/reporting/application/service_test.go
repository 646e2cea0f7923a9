package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	fuel "fuel-dashboard/internal/fuel/domain"
	masterdata "fuel-dashboard/internal/masterdata/domain"
	reporting "fuel-dashboard/internal/reporting/domain"
)

type stubSource struct {
	mu      sync.Mutex
	txs     []fuel.Transaction
	tanks   map[string]fuel.Tank
	err     error
	queries []fuel.Query
}

func (s *stubSource) List(_ context.Context, q fuel.Query) ([]fuel.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	if s.err != nil {
		return nil, s.err
	}
	var out []fuel.Transaction
	for _, tx := range s.txs {
		if len(q.UserIDs) > 0 && !contains(q.UserIDs, tx.UserID) {
			continue
		}
		if len(q.PlazaIDs) > 0 && !contains(q.PlazaIDs, tx.PlazaID) {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

func (s *stubSource) TankBalance(_ context.Context, plazaID string) (fuel.Tank, error) {
	tank, ok := s.tanks[plazaID]
	if !ok {
		return fuel.Tank{}, fuel.ErrTankNotFound
	}
	return tank, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

type stubRefs struct {
	snap *masterdata.Snapshot
	err  error
}

func (s stubRefs) Snapshot(context.Context) (*masterdata.Snapshot, error) { return s.snap, s.err }

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func h(n int) time.Time { return now.Add(time.Duration(n-100) * time.Hour) }

func reading(v float64) *float64 { return &v }

func fixture() (*stubSource, stubRefs) {
	snap := masterdata.NewSnapshot(
		[]masterdata.Plaza{{ID: "p1", Name: "North"}, {ID: "p2", Name: "South"}},
		[]masterdata.Generator{{ID: "g1", PlazaID: "p1", Name: "Gen 1"}, {ID: "g2", PlazaID: "p2", Name: "Gen 2"}},
		[]masterdata.Profile{
			{UserID: "admin", Email: "admin@example.com", Role: "admin"},
			{UserID: "mgr1", Email: "mgr1@example.com", Role: "manager", PlazaID: "p1"},
			{UserID: "mgrAll", Email: "all@example.com", Role: "manager"},
			{UserID: "alice", Email: "alice@example.com", FullName: "Alice", Role: "user", PlazaID: "p1"},
			{UserID: "bob", Email: "bob@example.com", FullName: "Bob", Role: "user", PlazaID: "p1"},
			{UserID: "carol", Email: "carol@example.com", FullName: "Carol", Role: "user", PlazaID: "p2"},
		},
		now,
	)
	src := &stubSource{
		tanks: map[string]fuel.Tank{"p1": {PlazaID: "p1", CurrentBalance: 330}},
		txs: []fuel.Transaction{
			{ID: "t1", UserID: "alice", PlazaID: "p1", GeneratorID: "tank", FuelAmount: 400, OccurredAt: h(0), RecordedAt: h(0)},
			{ID: "t2", UserID: "bob", PlazaID: "p1", GeneratorID: "g1", FuelAmount: -30, OccurredAt: h(1), RecordedAt: h(1), OdometerHours: reading(100)},
			{ID: "t3", UserID: "alice", PlazaID: "p1", GeneratorID: "g1", FuelAmount: -40, OccurredAt: h(5), RecordedAt: h(5), OdometerHours: reading(140)},
			{ID: "t4", UserID: "carol", PlazaID: "p2", GeneratorID: "g2", FuelAmount: -10, OccurredAt: h(6), RecordedAt: h(6), OdometerHours: reading(20)},
		},
	}
	return src, stubRefs{snap: snap}
}

func newService(t *testing.T, src *stubSource, refs stubRefs) *Service {
	t.Helper()
	svc, err := NewService(src, refs, WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestHomeForUser(t *testing.T) {
	src, refs := fixture()
	svc := newService(t, src, refs)
	view, err := svc.Home(context.Background(), Viewer{UserID: "alice", Role: "user", PlazaID: "p1"})
	if err != nil {
		t.Fatalf("home: %v", err)
	}
	if view.Metrics == nil || view.Plazas != nil {
		t.Fatalf("users get personal metrics only: %+v", view)
	}
	if view.Metrics.Balance != 330 || view.Metrics.TotalAdded != 400 || view.Metrics.TotalUsed != 40 {
		t.Fatalf("unexpected metrics %+v", view.Metrics)
	}
}

func TestHomeForManagers(t *testing.T) {
	src, refs := fixture()
	svc := newService(t, src, refs)

	view, err := svc.Home(context.Background(), Viewer{UserID: "mgr1", Role: "manager", PlazaID: "p1"})
	if err != nil {
		t.Fatalf("home: %v", err)
	}
	if len(view.Plazas) != 1 || view.Plazas[0].Name != "North" || view.Plazas[0].Net != 330 {
		t.Fatalf("unexpected plaza view %+v", view.Plazas)
	}

	view, err = svc.Home(context.Background(), Viewer{UserID: "mgrAll", Role: "manager"})
	if err != nil {
		t.Fatalf("home: %v", err)
	}
	if len(view.Plazas) != 2 {
		t.Fatalf("unassigned manager sees all plazas, got %d", len(view.Plazas))
	}
}

func TestListTransactionsScoping(t *testing.T) {
	src, refs := fixture()
	svc := newService(t, src, refs)
	ctx := context.Background()

	ids := func(v []TransactionView) []string {
		out := make([]string, 0, len(v))
		for _, tx := range v {
			out = append(out, tx.ID)
		}
		return out
	}

	cases := []struct {
		name   string
		viewer Viewer
		want   []string
	}{
		{"user", Viewer{UserID: "alice", Role: "user", PlazaID: "p1"}, []string{"t3", "t1"}},
		{"plaza manager", Viewer{UserID: "mgr1", Role: "manager", PlazaID: "p1"}, []string{"t3", "t2", "t1"}},
		{"global manager", Viewer{UserID: "mgrAll", Role: "manager"}, []string{"t4", "t3", "t2", "t1"}},
		{"admin", Viewer{UserID: "admin", Role: "admin"}, []string{"t4", "t3", "t2", "t1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.ListTransactions(ctx, tc.viewer)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if diff := cmp.Diff(tc.want, ids(got)); diff != "" {
				t.Fatalf("ids (-want +got):\n%s", diff)
			}
		})
	}

	got, _ := svc.ListTransactions(ctx, Viewer{UserID: "admin", Role: "admin"})
	if got[0].User != "Carol" || got[0].Generator != "Gen 2" || got[0].Plaza != "South" {
		t.Fatalf("labels not resolved: %+v", got[0])
	}
	if got[3].Generator != "-" {
		t.Fatalf("tank additions have no generator label: %+v", got[3])
	}
}

func TestListUsersScoping(t *testing.T) {
	src, refs := fixture()
	svc := newService(t, src, refs)
	ctx := context.Background()

	if _, err := svc.ListUsers(ctx, Viewer{UserID: "alice", Role: "user"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("users cannot list users, got %v", err)
	}

	users, err := svc.ListUsers(ctx, Viewer{UserID: "mgr1", Role: "manager", PlazaID: "p1"})
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	var emails []string
	for _, u := range users {
		emails = append(emails, u.Email)
	}
	if diff := cmp.Diff([]string{"alice@example.com", "bob@example.com"}, emails); diff != "" {
		t.Fatalf("manager users (-want +got):\n%s", diff)
	}

	all, _ := svc.ListUsers(ctx, Viewer{UserID: "admin", Role: "admin"})
	if len(all) != 6 {
		t.Fatalf("admin sees everyone, got %d", len(all))
	}

	selectable, _ := svc.SelectableUsers(ctx, Viewer{UserID: "mgrAll", Role: "manager"})
	if len(selectable) != 3 {
		t.Fatalf("only user-role profiles are selectable, got %+v", selectable)
	}
}

func TestUserDetailUsesPlazaPool(t *testing.T) {
	src, refs := fixture()
	svc := newService(t, src, refs)

	detail, err := svc.UserDetail(context.Background(), Viewer{UserID: "mgr1", Role: "manager", PlazaID: "p1"}, "alice")
	if err != nil {
		t.Fatalf("user detail: %v", err)
	}
	if detail.Transactions != 2 || detail.TotalAdded != 400 || detail.TotalUsed != 40 {
		t.Fatalf("unexpected totals %+v", detail)
	}
	row := detail.Rows[0]
	if row.TransactionID != "t3" || row.OdometerDelta == nil || *row.OdometerDelta != 40 {
		t.Fatalf("expected fallback delta from bob's reading, got %+v", row)
	}
	if row.ConsumptionRate == nil || *row.ConsumptionRate != 1 {
		t.Fatalf("expected rate 1, got %v", row.ConsumptionRate)
	}
}

func TestUserDetailAccess(t *testing.T) {
	src, refs := fixture()
	svc := newService(t, src, refs)
	ctx := context.Background()

	if _, err := svc.UserDetail(ctx, Viewer{UserID: "mgr1", Role: "manager", PlazaID: "p1"}, "carol"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("manager of p1 cannot view p2 users, got %v", err)
	}
	if _, err := svc.UserDetail(ctx, Viewer{UserID: "mgr1", Role: "manager", PlazaID: "p1"}, "admin"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("managers cannot view admins, got %v", err)
	}
	if _, err := svc.UserDetail(ctx, Viewer{UserID: "alice", Role: "user"}, "bob"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("users only view themselves, got %v", err)
	}
	if _, err := svc.UserDetail(ctx, Viewer{UserID: "admin", Role: "admin"}, "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := svc.UserDetail(ctx, Viewer{UserID: "alice", Role: "user"}, "alice"); err != nil {
		t.Fatalf("users can view their own detail: %v", err)
	}
}

func TestMultiUserDetailMatchesSingleUser(t *testing.T) {
	src, refs := fixture()
	svc := newService(t, src, refs)
	ctx := context.Background()
	admin := Viewer{UserID: "admin", Role: "admin"}

	single, err := svc.UserDetail(ctx, admin, "alice")
	if err != nil {
		t.Fatalf("user detail: %v", err)
	}
	report, err := svc.MultiUserDetail(ctx, admin, []string{"carol", "alice", "bob", "alice"})
	if err != nil {
		t.Fatalf("multi user detail: %v", err)
	}
	if len(report.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(report.Sections))
	}
	order := []string{report.Sections[0].User.UserID, report.Sections[1].User.UserID, report.Sections[2].User.UserID}
	if diff := cmp.Diff([]string{"carol", "alice", "bob"}, order); diff != "" {
		t.Fatalf("sections keep selection order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(single.Rows, report.Sections[1].Rows); diff != "" {
		t.Fatalf("batch rows differ from single-user rows (-single +batch):\n%s", diff)
	}
	if len(report.Combined) != 4 || report.Combined[0].User != "Carol" {
		t.Fatalf("unexpected combined rows %+v", report.Combined)
	}
}

func TestMultiUserDetailValidation(t *testing.T) {
	src, refs := fixture()
	svc := newService(t, src, refs)
	ctx := context.Background()

	if _, err := svc.MultiUserDetail(ctx, Viewer{UserID: "admin", Role: "admin"}, []string{" "}); !errors.Is(err, ErrNoUsersSelected) {
		t.Fatalf("expected ErrNoUsersSelected, got %v", err)
	}
	if _, err := svc.MultiUserDetail(ctx, Viewer{UserID: "alice", Role: "user"}, []string{"alice"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("users cannot build multi-user reports, got %v", err)
	}
	if _, err := svc.MultiUserDetail(ctx, Viewer{UserID: "admin", Role: "admin"}, []string{"mgr1"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("only user-role profiles can be selected, got %v", err)
	}
}

func TestFetchFailuresAreDataUnavailable(t *testing.T) {
	src, refs := fixture()
	src.err = errors.New("connection refused")
	svc := newService(t, src, refs)
	ctx := context.Background()

	if _, err := svc.UserDetail(ctx, Viewer{UserID: "admin", Role: "admin"}, "alice"); !errors.Is(err, reporting.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
	if _, err := svc.ListTransactions(ctx, Viewer{UserID: "admin", Role: "admin"}); !errors.Is(err, reporting.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}

	badRefs := stubRefs{err: errors.New("redis down")}
	svc = newService(t, &stubSource{}, badRefs)
	if _, err := svc.Home(ctx, Viewer{UserID: "admin", Role: "admin"}); !errors.Is(err, reporting.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable for reference data, got %v", err)
	}
}

func TestEmptyDetailIsNotAnError(t *testing.T) {
	src, refs := fixture()
	src.txs = nil
	svc := newService(t, src, refs)
	detail, err := svc.UserDetail(context.Background(), Viewer{UserID: "admin", Role: "admin"}, "alice")
	if err != nil {
		t.Fatalf("empty history must not fail: %v", err)
	}
	if detail.Rows == nil || len(detail.Rows) != 0 {
		t.Fatalf("expected empty rows, got %#v", detail.Rows)
	}
}
