// Package apihttp serves the dashboard JSON API and report downloads.
package apihttp

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"fuel-dashboard/internal/audit"
	"fuel-dashboard/internal/auth"
	fuelapp "fuel-dashboard/internal/fuel/application"
	masterdataapp "fuel-dashboard/internal/masterdata/application"
	masterdata "fuel-dashboard/internal/masterdata/domain"
	reportapp "fuel-dashboard/internal/reporting/application"
	"fuel-dashboard/internal/reporting/export"
)

// Reports is the read side used by the handlers.
type Reports interface {
	Home(ctx context.Context, viewer reportapp.Viewer) (*reportapp.HomeView, error)
	ListTransactions(ctx context.Context, viewer reportapp.Viewer) ([]reportapp.TransactionView, error)
	ListUsers(ctx context.Context, viewer reportapp.Viewer) ([]reportapp.UserView, error)
	SelectableUsers(ctx context.Context, viewer reportapp.Viewer) ([]reportapp.UserView, error)
	UserDetail(ctx context.Context, viewer reportapp.Viewer, userID string) (*reportapp.UserDetail, error)
	MultiUserDetail(ctx context.Context, viewer reportapp.Viewer, userIDs []string) (*reportapp.MultiUserReport, error)
}

// Ledger records fuel movements.
type Ledger interface {
	RecordAddition(ctx context.Context, actor fuelapp.Actor, in fuelapp.AdditionInput) (*fuelapp.Result, error)
	RecordWithdrawal(ctx context.Context, actor fuelapp.Actor, in fuelapp.WithdrawalInput) (*fuelapp.Result, error)
}

// MasterData manages plazas, generators and users.
type MasterData interface {
	ListPlazas(ctx context.Context) ([]masterdata.Plaza, error)
	CreatePlaza(ctx context.Context, name string) (*masterdata.Plaza, error)
	DeletePlaza(ctx context.Context, id string) error
	ListGenerators(ctx context.Context, plazaID string) ([]masterdata.Generator, error)
	CreateGenerator(ctx context.Context, plazaID, name string) (*masterdata.Generator, error)
	DeleteGenerator(ctx context.Context, id string) error
	CreateUser(ctx context.Context, in masterdataapp.NewUser) (*masterdata.Profile, error)
}

// Authenticator verifies credentials.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
}

// Handler serves the dashboard API.
type Handler struct {
	reports Reports
	ledger  Ledger
	admin   MasterData
	login   Authenticator
	audit   audit.Logger
	logger  *zap.Logger
	now     func() time.Time
	proxies []string
	trusted proxySet
}

// Option configures the handler.
type Option func(*Handler)

// WithAuditLogger records exports and master data changes.
func WithAuditLogger(logger audit.Logger) Option {
	return func(h *Handler) {
		h.audit = logger
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithClock overrides the clock used for export file names.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// WithTrustedProxies lists proxy addresses or CIDR ranges whose forwarding
// headers are believed when recording client addresses.
func WithTrustedProxies(proxies []string) Option {
	return func(h *Handler) {
		h.proxies = append(h.proxies, proxies...)
	}
}

// NewHandler constructs the API handler.
func NewHandler(reports Reports, ledger Ledger, admin MasterData, login Authenticator, opts ...Option) (*Handler, error) {
	if reports == nil || ledger == nil || admin == nil || login == nil {
		return nil, errors.New("api handler: nil dependency")
	}
	h := &Handler{
		reports: reports,
		ledger:  ledger,
		admin:   admin,
		login:   login,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	trusted, err := parseProxies(h.proxies)
	if err != nil {
		return nil, err
	}
	h.trusted = trusted
	return h, nil
}

// Routes registers the API on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", h.handleLogin)
	mux.HandleFunc("GET /api/v1/home", h.handleHome)
	mux.HandleFunc("GET /api/v1/transactions", h.handleTransactions)
	mux.HandleFunc("POST /api/v1/transactions/additions", h.handleAddition)
	mux.HandleFunc("POST /api/v1/transactions/withdrawals", h.handleWithdrawal)
	mux.HandleFunc("GET /api/v1/users", h.handleUsers)
	mux.HandleFunc("POST /api/v1/users", h.handleCreateUser)
	mux.HandleFunc("GET /api/v1/users/{id}/detail", h.handleUserDetail)
	mux.HandleFunc("POST /api/v1/reports/multi-user", h.handleMultiUser)
	mux.HandleFunc("GET /api/v1/plazas", h.handleListPlazas)
	mux.HandleFunc("POST /api/v1/plazas", h.handleCreatePlaza)
	mux.HandleFunc("DELETE /api/v1/plazas/{id}", h.handleDeletePlaza)
	mux.HandleFunc("GET /api/v1/generators", h.handleListGenerators)
	mux.HandleFunc("POST /api/v1/generators", h.handleCreateGenerator)
	mux.HandleFunc("DELETE /api/v1/generators/{id}", h.handleDeleteGenerator)
	return mux
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	writeError(w, status, messageFor(status, err))
}

func identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return auth.Identity{}, false
	}
	return id, true
}

func viewerOf(id auth.Identity) reportapp.Viewer {
	return reportapp.Viewer{UserID: id.UserID, Role: string(id.Role), PlazaID: id.PlazaID}
}

func (h *Handler) record(r *http.Request, id auth.Identity, action, resourceType, resourceID, plazaID string, meta any) {
	if h.audit == nil {
		return
	}
	metadata := audit.Metadata(meta)
	entry := audit.Entry{
		Actor:         id.UserID,
		Role:          string(id.Role),
		Action:        action,
		ResourceType:  resourceType,
		ResourceID:    resourceID,
		PlazaID:       plazaID,
		Metadata:      metadata,
		PayloadDigest: audit.DigestJSON(metadata),
		IP:            h.trusted.clientIP(r),
		UserAgent:     r.UserAgent(),
	}
	if err := h.audit.Log(r.Context(), entry); err != nil {
		h.logger.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

// exportFormat returns the requested download format. ok is false when the
// request wants JSON.
func exportFormat(r *http.Request) (export.Format, bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("format"))
	if raw == "" || strings.EqualFold(raw, "json") {
		return "", false, nil
	}
	f, err := export.ParseFormat(raw)
	if err != nil {
		return "", false, err
	}
	return f, true, nil
}

// download renders table and writes it as an attachment.
func (h *Handler) download(w http.ResponseWriter, r *http.Request, id auth.Identity, name string, table export.Table, f export.Format) {
	data, err := export.Render(table, f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	filename := export.Filename(name, f, h.now())
	h.record(r, id, audit.ActionReportExported, "report", name, id.PlazaID, map[string]any{
		"format": string(f),
		"rows":   len(table.Rows),
		"file":   filename,
	})
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// exportAllowed rejects downloads for viewers below manager.
func exportAllowed(w http.ResponseWriter, viewer reportapp.Viewer) bool {
	if !viewer.CanExport() {
		writeError(w, http.StatusForbidden, "exports require manager or admin role")
		return false
	}
	return true
}
