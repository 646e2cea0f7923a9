package apihttp

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"fuel-dashboard/internal/audit"
	"fuel-dashboard/internal/auth"
	fuelapp "fuel-dashboard/internal/fuel/application"
	fuel "fuel-dashboard/internal/fuel/domain"
	masterdataapp "fuel-dashboard/internal/masterdata/application"
	masterdata "fuel-dashboard/internal/masterdata/domain"
	reportapp "fuel-dashboard/internal/reporting/application"
	reporting "fuel-dashboard/internal/reporting/domain"
)

type stubReports struct {
	txs     []reportapp.TransactionView
	users   []reportapp.UserView
	detail  *reportapp.UserDetail
	multi   *reportapp.MultiUserReport
	err     error
	viewers []reportapp.Viewer
}

func (s *stubReports) Home(_ context.Context, v reportapp.Viewer) (*reportapp.HomeView, error) {
	s.viewers = append(s.viewers, v)
	return &reportapp.HomeView{Role: v.Role}, s.err
}

func (s *stubReports) ListTransactions(_ context.Context, v reportapp.Viewer) ([]reportapp.TransactionView, error) {
	s.viewers = append(s.viewers, v)
	return s.txs, s.err
}

func (s *stubReports) ListUsers(_ context.Context, v reportapp.Viewer) ([]reportapp.UserView, error) {
	return s.users, s.err
}

func (s *stubReports) SelectableUsers(_ context.Context, v reportapp.Viewer) ([]reportapp.UserView, error) {
	return s.users[:1], s.err
}

func (s *stubReports) UserDetail(_ context.Context, v reportapp.Viewer, userID string) (*reportapp.UserDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.detail, nil
}

func (s *stubReports) MultiUserDetail(_ context.Context, v reportapp.Viewer, ids []string) (*reportapp.MultiUserReport, error) {
	if len(ids) == 0 {
		return nil, reportapp.ErrNoUsersSelected
	}
	return s.multi, s.err
}

type stubLedger struct {
	err        error
	withdrawal fuelapp.WithdrawalInput
	actor      fuelapp.Actor
}

func (s *stubLedger) RecordAddition(_ context.Context, actor fuelapp.Actor, in fuelapp.AdditionInput) (*fuelapp.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &fuelapp.Result{Transaction: fuel.Transaction{ID: "tx-1", FuelAmount: in.Amount}, Balance: in.Amount, TankStatus: fuel.TankNormal}, nil
}

func (s *stubLedger) RecordWithdrawal(_ context.Context, actor fuelapp.Actor, in fuelapp.WithdrawalInput) (*fuelapp.Result, error) {
	s.withdrawal = in
	s.actor = actor
	if s.err != nil {
		return nil, s.err
	}
	return &fuelapp.Result{Transaction: fuel.Transaction{ID: "tx-2", FuelAmount: -in.Amount}, Balance: 20, TankStatus: fuel.TankCritical}, nil
}

type stubAdmin struct {
	err error
}

func (s *stubAdmin) ListPlazas(context.Context) ([]masterdata.Plaza, error) {
	return []masterdata.Plaza{{ID: "p1", Name: "North"}}, s.err
}

func (s *stubAdmin) CreatePlaza(_ context.Context, name string) (*masterdata.Plaza, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &masterdata.Plaza{ID: "p9", Name: name}, nil
}

func (s *stubAdmin) DeletePlaza(context.Context, string) error { return s.err }

func (s *stubAdmin) ListGenerators(_ context.Context, plazaID string) ([]masterdata.Generator, error) {
	return []masterdata.Generator{{ID: "g1", PlazaID: plazaID, Name: "Gen"}}, s.err
}

func (s *stubAdmin) CreateGenerator(_ context.Context, plazaID, name string) (*masterdata.Generator, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &masterdata.Generator{ID: "g9", PlazaID: plazaID, Name: name}, nil
}

func (s *stubAdmin) DeleteGenerator(context.Context, string) error { return s.err }

func (s *stubAdmin) CreateUser(_ context.Context, in masterdataapp.NewUser) (*masterdata.Profile, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &masterdata.Profile{UserID: "u9", Email: in.Email, Role: in.Role}, nil
}

type stubLogin struct{}

func (stubLogin) Login(_ context.Context, email, password string) (*auth.LoginResult, error) {
	if password != "secret" {
		return nil, auth.ErrInvalidCredentials
	}
	return &auth.LoginResult{Token: "tok", TokenType: "Bearer"}, nil
}

type memoryAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (m *memoryAudit) Log(_ context.Context, e audit.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

type fixture struct {
	reports *stubReports
	ledger  *stubLedger
	admin   *stubAdmin
	audit   *memoryAudit
	mux     http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		reports: &stubReports{
			txs: []reportapp.TransactionView{{ID: "t1", User: "Alice", Amount: -20, Generator: "Gen 1", Plaza: "North"}},
			users: []reportapp.UserView{
				{UserID: "u1", Name: "Alice", Email: "alice@example.com", Role: "user", Plaza: "North"},
				{UserID: "m1", Name: "Mona", Email: "mona@example.com", Role: "manager", Plaza: "North"},
			},
			detail: &reportapp.UserDetail{User: reportapp.UserView{Name: "Alice"}, Rows: []reporting.DetailRow{}},
			multi:  &reportapp.MultiUserReport{},
		},
		ledger: &stubLedger{},
		admin:  &stubAdmin{},
		audit:  &memoryAudit{},
	}
	h, err := NewHandler(f.reports, f.ledger, f.admin, stubLogin{},
		WithAuditLogger(f.audit),
		WithClock(func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }),
	)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	f.mux = h.Routes()
	return f
}

func (f *fixture) do(method, path string, body any, id *auth.Identity) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if id != nil {
		req = req.WithContext(auth.WithIdentity(req.Context(), *id))
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

var (
	asUser    = &auth.Identity{UserID: "u1", Role: auth.RoleUser, PlazaID: "p1"}
	asManager = &auth.Identity{UserID: "m1", Role: auth.RoleManager, PlazaID: "p1"}
	asAdmin   = &auth.Identity{UserID: "a1", Role: auth.RoleAdmin}
)

func TestLogin(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "a@example.com", "password": "secret"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = f.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "a@example.com", "password": "nope"}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	rec = f.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "a@example.com"}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHomeRequiresIdentity(t *testing.T) {
	f := newFixture(t)
	if rec := f.do(http.MethodGet, "/api/v1/home", nil, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/api/v1/home", nil, asManager); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := f.reports.viewers[0]; got.UserID != "m1" || got.Role != "manager" || got.PlazaID != "p1" {
		t.Fatalf("viewer not derived from identity: %+v", got)
	}
}

func TestTransactionsExport(t *testing.T) {
	f := newFixture(t)

	if rec := f.do(http.MethodGet, "/api/v1/transactions?format=csv", nil, asUser); rec.Code != http.StatusForbidden {
		t.Fatalf("users cannot export, got %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/api/v1/transactions?format=docx", nil, asManager); rec.Code != http.StatusBadRequest {
		t.Fatalf("unsupported format should be 400, got %d", rec.Code)
	}

	rec := f.do(http.MethodGet, "/api/v1/transactions?format=csv", nil, asManager)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "transactions_2026-06-01.csv") {
		t.Fatalf("content disposition %q", cd)
	}
	records, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 2 || records[0][0] != "Date It Was Used" || records[1][2] != "Alice" {
		t.Fatalf("unexpected csv %v", records)
	}
	if len(f.audit.entries) != 1 || f.audit.entries[0].Action != audit.ActionReportExported {
		t.Fatalf("export not audited: %+v", f.audit.entries)
	}

	rec = f.do(http.MethodGet, "/api/v1/transactions", nil, asUser)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("json listing failed: %d", rec.Code)
	}
}

func TestUsersSelectable(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/api/v1/users?selectable=true", nil, asManager)
	var users []reportapp.UserView
	if err := json.NewDecoder(rec.Body).Decode(&users); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(users) != 1 || users[0].UserID != "u1" {
		t.Fatalf("unexpected users %+v", users)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"unavailable", fmt.Errorf("%w: timeout", reporting.ErrDataUnavailable), http.StatusServiceUnavailable},
		{"forbidden", reportapp.ErrForbidden, http.StatusForbidden},
		{"missing", reportapp.ErrUserNotFound, http.StatusNotFound},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.reports.err = tc.err
			rec := f.do(http.MethodGet, "/api/v1/users/u1/detail", nil, asManager)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
			if tc.want == http.StatusInternalServerError && strings.Contains(rec.Body.String(), "boom") {
				t.Fatalf("internal error leaked: %s", rec.Body.String())
			}
		})
	}
}

func TestWithdrawal(t *testing.T) {
	f := newFixture(t)
	body := map[string]any{"generator_id": "g1", "amount": 20, "odometer_hours": 105}
	rec := f.do(http.MethodPost, "/api/v1/transactions/withdrawals", body, asUser)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if f.ledger.withdrawal.GeneratorID != "g1" || f.ledger.withdrawal.OdometerHours != 105 || f.ledger.actor.UserID != "u1" {
		t.Fatalf("unexpected input %+v actor %+v", f.ledger.withdrawal, f.ledger.actor)
	}
	var resp transactionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TankStatus != fuel.TankCritical {
		t.Fatalf("tank status %q", resp.TankStatus)
	}

	f.ledger.err = fuel.ErrInsufficientBalance
	if rec := f.do(http.MethodPost, "/api/v1/transactions/withdrawals", body, asUser); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	f.ledger.err = fuel.ErrGeneratorRequired
	if rec := f.do(http.MethodPost, "/api/v1/transactions/withdrawals", body, asUser); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if rec := f.do(http.MethodPost, "/api/v1/transactions/withdrawals", map[string]any{"bogus": 1}, asUser); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown fields should be rejected, got %d", rec.Code)
	}
}

func TestAdminMutationsAreAudited(t *testing.T) {
	f := newFixture(t)
	if rec := f.do(http.MethodPost, "/api/v1/plazas", map[string]string{"name": "South"}, asAdmin); rec.Code != http.StatusCreated {
		t.Fatalf("create plaza: %d", rec.Code)
	}
	if rec := f.do(http.MethodPost, "/api/v1/generators", map[string]string{"plaza_id": "p9", "name": "G"}, asAdmin); rec.Code != http.StatusCreated {
		t.Fatalf("create generator: %d", rec.Code)
	}
	if rec := f.do(http.MethodDelete, "/api/v1/generators/g9", nil, asAdmin); rec.Code != http.StatusNoContent {
		t.Fatalf("delete generator: %d", rec.Code)
	}
	var actions []string
	for _, e := range f.audit.entries {
		actions = append(actions, e.Action)
	}
	want := []string{audit.ActionPlazaCreated, audit.ActionGeneratorAdded, audit.ActionGeneratorDelete}
	if strings.Join(actions, ",") != strings.Join(want, ",") {
		t.Fatalf("audit actions %v, want %v", actions, want)
	}

	f.admin.err = masterdata.ErrPlazaNotFound
	if rec := f.do(http.MethodDelete, "/api/v1/plazas/nope", nil, asAdmin); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	f.admin.err = masterdata.ErrGeneratorInUse
	if rec := f.do(http.MethodDelete, "/api/v1/generators/g1", nil, asAdmin); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for generator with history, got %d", rec.Code)
	}
	f.admin.err = masterdata.ErrEmailInUse
	if rec := f.do(http.MethodPost, "/api/v1/users", map[string]string{"email": "a@example.com", "password": "x"}, asAdmin); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestMultiUserRequiresSelection(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/api/v1/reports/multi-user", map[string]any{"user_ids": []string{}}, asManager)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	rec = f.do(http.MethodPost, "/api/v1/reports/multi-user?format=xlsx", map[string]any{"user_ids": []string{"u1"}}, asManager)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Header().Get("Content-Disposition"), "multi_user_detail") {
		t.Fatalf("xlsx export failed: %d %v", rec.Code, rec.Header())
	}
}

func TestAccessLogKeepsStatus(t *testing.T) {
	h := AccessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status %d", rec.Code)
	}
}
