package application

import (
	"context"
	"sort"
	"strings"
	"sync"

	masterdata "fuel-dashboard/internal/masterdata/domain"
)

type fakePlazas struct {
	mu    sync.Mutex
	data  map[string]masterdata.Plaza
	lists int
}

func newFakePlazas(items ...masterdata.Plaza) *fakePlazas {
	f := &fakePlazas{data: map[string]masterdata.Plaza{}}
	for _, p := range items {
		f.data[p.ID] = p
	}
	return f
}

func (f *fakePlazas) Get(_ context.Context, id string) (*masterdata.Plaza, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.data[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakePlazas) List(context.Context) ([]masterdata.Plaza, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	out := make([]masterdata.Plaza, 0, len(f.data))
	for _, p := range f.data {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakePlazas) Save(_ context.Context, p *masterdata.Plaza) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[p.ID] = *p
	return nil
}

func (f *fakePlazas) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[id]; !ok {
		return masterdata.ErrPlazaNotFound
	}
	delete(f.data, id)
	return nil
}

type fakeGenerators struct {
	mu    sync.Mutex
	data  map[string]masterdata.Generator
	inUse map[string]bool
}

func newFakeGenerators(items ...masterdata.Generator) *fakeGenerators {
	f := &fakeGenerators{data: map[string]masterdata.Generator{}, inUse: map[string]bool{}}
	for _, g := range items {
		f.data[g.ID] = g
	}
	return f
}

func (f *fakeGenerators) Get(_ context.Context, id string) (*masterdata.Generator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.data[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (f *fakeGenerators) List(context.Context) ([]masterdata.Generator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]masterdata.Generator, 0, len(f.data))
	for _, g := range f.data {
		out = append(out, g)
	}
	return out, nil
}

func (f *fakeGenerators) ListByPlaza(_ context.Context, plazaID string) ([]masterdata.Generator, error) {
	all, _ := f.List(context.Background())
	var out []masterdata.Generator
	for _, g := range all {
		if g.PlazaID == plazaID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeGenerators) Save(_ context.Context, g *masterdata.Generator) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[g.ID] = *g
	return nil
}

func (f *fakeGenerators) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[id]; !ok {
		return masterdata.ErrGeneratorNotFound
	}
	if f.inUse[id] {
		return masterdata.ErrGeneratorInUse
	}
	delete(f.data, id)
	return nil
}

type fakeProfiles struct {
	mu   sync.Mutex
	data map[string]masterdata.Profile
}

func newFakeProfiles(items ...masterdata.Profile) *fakeProfiles {
	f := &fakeProfiles{data: map[string]masterdata.Profile{}}
	for _, p := range items {
		f.data[p.UserID] = p
	}
	return f
}

func (f *fakeProfiles) Get(_ context.Context, id string) (*masterdata.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.data[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeProfiles) GetByEmail(_ context.Context, email string) (*masterdata.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.data {
		if strings.EqualFold(p.Email, email) {
			out := p
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeProfiles) List(context.Context) ([]masterdata.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]masterdata.Profile, 0, len(f.data))
	for _, p := range f.data {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProfiles) Save(_ context.Context, p *masterdata.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[p.UserID] = *p
	return nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate(context.Context) { c.calls++ }
