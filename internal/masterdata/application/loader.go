package application

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	masterdata "fuel-dashboard/internal/masterdata/domain"
	"fuel-dashboard/internal/observability/metrics"
)

// SnapshotCache stores the reference snapshot between requests.
type SnapshotCache interface {
	Load(ctx context.Context) (*masterdata.Snapshot, error)
	Store(ctx context.Context, snap *masterdata.Snapshot) error
	Invalidate(ctx context.Context) error
}

// SnapshotLoader reads plazas, generators and profiles, using a cache when present.
type SnapshotLoader struct {
	plazas     masterdata.PlazaRepository
	generators masterdata.GeneratorRepository
	profiles   masterdata.ProfileRepository
	cache      SnapshotCache
	logger     *zap.Logger
	now        func() time.Time
}

// LoaderOption configures the loader.
type LoaderOption func(*SnapshotLoader)

// WithSnapshotCache enables caching.
func WithSnapshotCache(cache SnapshotCache) LoaderOption {
	return func(l *SnapshotLoader) {
		l.cache = cache
	}
}

// WithLoaderLogger sets the logger.
func WithLoaderLogger(logger *zap.Logger) LoaderOption {
	return func(l *SnapshotLoader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewSnapshotLoader constructs a loader.
func NewSnapshotLoader(plazas masterdata.PlazaRepository, generators masterdata.GeneratorRepository, profiles masterdata.ProfileRepository, opts ...LoaderOption) (*SnapshotLoader, error) {
	if plazas == nil || generators == nil || profiles == nil {
		return nil, errors.New("snapshot loader: nil repository")
	}
	l := &SnapshotLoader{
		plazas:     plazas,
		generators: generators,
		profiles:   profiles,
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Snapshot returns the current reference data. Cache failures fall through to storage.
func (l *SnapshotLoader) Snapshot(ctx context.Context) (*masterdata.Snapshot, error) {
	if l.cache != nil {
		snap, err := l.cache.Load(ctx)
		if err != nil {
			l.logger.Warn("snapshot cache load failed", zap.Error(err))
		} else if snap != nil {
			metrics.IncReferenceCache(true)
			return snap, nil
		}
		metrics.IncReferenceCache(false)
	}

	plazas, err := l.plazas.List(ctx)
	if err != nil {
		return nil, err
	}
	generators, err := l.generators.List(ctx)
	if err != nil {
		return nil, err
	}
	profiles, err := l.profiles.List(ctx)
	if err != nil {
		return nil, err
	}
	snap := masterdata.NewSnapshot(plazas, generators, profiles, l.now())

	if l.cache != nil {
		if err := l.cache.Store(ctx, snap); err != nil {
			l.logger.Warn("snapshot cache store failed", zap.Error(err))
		}
	}
	return snap, nil
}

// Invalidate drops any cached snapshot.
func (l *SnapshotLoader) Invalidate(ctx context.Context) {
	if l == nil || l.cache == nil {
		return
	}
	if err := l.cache.Invalidate(ctx); err != nil {
		l.logger.Warn("snapshot cache invalidate failed", zap.Error(err))
	}
}
