package masterdata

import (
	"sort"
	"time"
)

const missingLabel = "-"

// Snapshot is an immutable view of plazas, generators and profiles used for
// label lookups during report generation. Build it with NewSnapshot.
type Snapshot struct {
	plazas     []Plaza
	generators []Generator
	profiles   []Profile
	loadedAt   time.Time

	plazasByID        map[string]Plaza
	generatorsByID    map[string]Generator
	generatorsByPlaza map[string][]Generator
	profilesByUser    map[string]Profile
}

// NewSnapshot indexes the given reference data. Plazas and generators are
// ordered by name.
func NewSnapshot(plazas []Plaza, generators []Generator, profiles []Profile, loadedAt time.Time) *Snapshot {
	s := &Snapshot{
		plazas:            append([]Plaza(nil), plazas...),
		generators:        append([]Generator(nil), generators...),
		profiles:          append([]Profile(nil), profiles...),
		loadedAt:          loadedAt.UTC(),
		plazasByID:        make(map[string]Plaza, len(plazas)),
		generatorsByID:    make(map[string]Generator, len(generators)),
		generatorsByPlaza: make(map[string][]Generator),
		profilesByUser:    make(map[string]Profile, len(profiles)),
	}
	sort.SliceStable(s.plazas, func(i, j int) bool { return s.plazas[i].Name < s.plazas[j].Name })
	sort.SliceStable(s.generators, func(i, j int) bool { return s.generators[i].Name < s.generators[j].Name })

	for _, p := range s.plazas {
		s.plazasByID[p.ID] = p
	}
	for _, g := range s.generators {
		s.generatorsByID[g.ID] = g
		s.generatorsByPlaza[g.PlazaID] = append(s.generatorsByPlaza[g.PlazaID], g)
	}
	for _, p := range s.profiles {
		p.PasswordHash = ""
		s.profilesByUser[p.UserID] = p
	}
	return s
}

// LoadedAt returns when the snapshot was read from storage.
func (s *Snapshot) LoadedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.loadedAt
}

// Plazas returns plazas ordered by name.
func (s *Snapshot) Plazas() []Plaza {
	if s == nil {
		return nil
	}
	return append([]Plaza(nil), s.plazas...)
}

// Generators returns generators ordered by name.
func (s *Snapshot) Generators() []Generator {
	if s == nil {
		return nil
	}
	return append([]Generator(nil), s.generators...)
}

// Profiles returns all profiles without credentials.
func (s *Snapshot) Profiles() []Profile {
	if s == nil {
		return nil
	}
	out := make([]Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		p.PasswordHash = ""
		out = append(out, p)
	}
	return out
}

// Plaza looks up a plaza by id.
func (s *Snapshot) Plaza(id string) (Plaza, bool) {
	if s == nil || id == "" {
		return Plaza{}, false
	}
	p, ok := s.plazasByID[id]
	return p, ok
}

// Generator looks up a generator by id.
func (s *Snapshot) Generator(id string) (Generator, bool) {
	if s == nil || id == "" {
		return Generator{}, false
	}
	g, ok := s.generatorsByID[id]
	return g, ok
}

// Profile looks up a profile by user id.
func (s *Snapshot) Profile(userID string) (Profile, bool) {
	if s == nil || userID == "" {
		return Profile{}, false
	}
	p, ok := s.profilesByUser[userID]
	return p, ok
}

// GeneratorsForPlaza returns a copy of the generators installed at a plaza.
func (s *Snapshot) GeneratorsForPlaza(plazaID string) []Generator {
	if s == nil {
		return nil
	}
	return append([]Generator(nil), s.generatorsByPlaza[plazaID]...)
}

// PlazaLabel returns the plaza name or "-".
func (s *Snapshot) PlazaLabel(id string) string {
	if p, ok := s.Plaza(id); ok && p.Name != "" {
		return p.Name
	}
	return missingLabel
}

// GeneratorLabel returns the generator name or "-".
func (s *Snapshot) GeneratorLabel(id string) string {
	if g, ok := s.Generator(id); ok && g.Name != "" {
		return g.Name
	}
	return missingLabel
}

// UserLabel returns full name, email or the raw id, or "-" for an empty id.
func (s *Snapshot) UserLabel(userID string) string {
	if p, ok := s.Profile(userID); ok {
		return p.Label()
	}
	if userID == "" {
		return missingLabel
	}
	return userID
}

// SnapshotData is the serializable form of a Snapshot.
type SnapshotData struct {
	Plazas     []Plaza     `json:"plazas"`
	Generators []Generator `json:"generators"`
	Profiles   []Profile   `json:"profiles"`
	LoadedAt   time.Time   `json:"loaded_at"`
}

// Data exports the snapshot for caching.
func (s *Snapshot) Data() SnapshotData {
	if s == nil {
		return SnapshotData{}
	}
	return SnapshotData{
		Plazas:     s.Plazas(),
		Generators: s.Generators(),
		Profiles:   s.Profiles(),
		LoadedAt:   s.loadedAt,
	}
}

// SnapshotFromData rebuilds a snapshot from cached data.
func SnapshotFromData(data SnapshotData) *Snapshot {
	return NewSnapshot(data.Plazas, data.Generators, data.Profiles, data.LoadedAt)
}
