// Package app wires the dashboard service from configuration.
package app

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apihttp "fuel-dashboard/internal/api/http"
	"fuel-dashboard/internal/audit"
	"fuel-dashboard/internal/auth"
	fuelapp "fuel-dashboard/internal/fuel/application"
	fuel "fuel-dashboard/internal/fuel/domain"
	fuelrepo "fuel-dashboard/internal/fuel/infrastructure/postgres"
	masterdataapp "fuel-dashboard/internal/masterdata/application"
	masterdatamemory "fuel-dashboard/internal/masterdata/infrastructure/memory"
	masterdatarepo "fuel-dashboard/internal/masterdata/infrastructure/postgres"
	masterdataredis "fuel-dashboard/internal/masterdata/infrastructure/redis"
	"fuel-dashboard/internal/notify"
	"fuel-dashboard/internal/observability/metrics"
	"fuel-dashboard/internal/platform/cache"
	"fuel-dashboard/internal/platform/config"
	"fuel-dashboard/internal/platform/db"
	"fuel-dashboard/internal/platform/httpserver"
	reportapp "fuel-dashboard/internal/reporting/application"
)

// App holds the running service.
type App struct {
	server *httpserver.Server
	db     *sql.DB
	redis  *goredis.Client
	logger *zap.Logger
}

// New builds the application graph.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sqlDB, err := db.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a := &App{db: sqlDB, logger: logger}

	metrics.Init(sqlDB, logger)
	auditRepo := audit.NewRepository(sqlDB)

	plazas := masterdatarepo.NewPlazaRepository(sqlDB)
	generators := masterdatarepo.NewGeneratorRepository(sqlDB)
	profiles := masterdatarepo.NewProfileRepository(sqlDB)

	var snapshotCache masterdataapp.SnapshotCache = masterdatamemory.NewSnapshotCache(cfg.Redis.CacheTTL)
	if cfg.Redis.Addr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redis = client
		snapshotCache = masterdataredis.NewSnapshotCache(client, cfg.Redis.CacheTTL)
	}
	loader, err := masterdataapp.NewSnapshotLoader(plazas, generators, profiles,
		masterdataapp.WithSnapshotCache(snapshotCache),
		masterdataapp.WithLoaderLogger(logger),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	admin, err := masterdataapp.NewService(plazas, generators, profiles, hasher,
		masterdataapp.WithInvalidator(loader),
		masterdataapp.WithServiceLogger(logger),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	alerter, err := newTankNotifier(cfg.TankAlert, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	txRepo := fuelrepo.NewTransactionRepository(sqlDB)
	ledger, err := fuelapp.NewService(txRepo, profiles, generators,
		fuelapp.WithPlazaReader(plazas),
		fuelapp.WithTankAlerter(alerter),
		fuelapp.WithAuditLogger(auditRepo),
		fuelapp.WithLogger(logger),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	reports, err := reportapp.NewService(txRepo, loader,
		reportapp.WithLogger(logger),
		reportapp.WithConcurrency(cfg.Reports.Concurrency),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	tokens := auth.NewTokenService([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
	login, err := auth.NewLoginService(profiles, hasher, tokens, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	api, err := apihttp.NewHandler(reports, ledger, admin, login,
		apihttp.WithAuditLogger(auditRepo),
		apihttp.WithLogger(logger),
		apihttp.WithTrustedProxies(cfg.TrustedProxies),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	mux := api.Routes()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics", "/api/v1/auth/login"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.Auth.JWTSecret), policy)
	handler := apihttp.AccessLog(authMiddleware.Wrap(mux), logger)

	a.server = httpserver.NewServer(cfg.HTTPAddr, handler, logger)
	return a, nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.server == nil {
		return errors.New("app: not initialized")
	}
	return a.server.Run(ctx)
}

// Close releases connections.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func newTankNotifier(cfg config.TankAlert, logger *zap.Logger) (*notify.TankNotifier, error) {
	channels := []notify.Channel{notify.NewLogChannel(logger)}
	if cfg.WebhookURL != "" {
		webhook, err := notify.NewWebhookChannel(cfg.WebhookURL,
			notify.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		)
		if err != nil {
			return nil, err
		}
		channels = append(channels, webhook)
	}
	tpl, err := notify.NewTemplate(cfg.Template)
	if err != nil {
		return nil, err
	}
	window := cfg.DedupeWindow
	if window <= 0 {
		window = time.Hour
	}
	return notify.NewTankNotifier(notify.NewMultiChannel(channels...), tpl,
		notify.WithThresholds(fuel.Thresholds{Warning: cfg.WarningLiters, Critical: cfg.CriticalLiters}),
		notify.WithCooldown(window),
		notify.WithLogger(logger),
	)
}
