// Package api is the read-only query surface external tools use to inspect
// collections: their resolved files, per-mod settings, conflicts, metadata
// manipulations and role assignments.
package api

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/mesh-intelligence/wardrobe/internal/collections"
)

// Query errors.
var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrModNotFound        = errors.New("mod not found")
)

// Collection describes one collection.
type Collection struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Index         int       `json:"index"`
	ChangeCounter uint64    `json:"change_counter"`
	Temporary     bool      `json:"temporary,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	Inheritance   []string  `json:"inheritance,omitempty"`
	EnabledMods   []string  `json:"enabled_mods,omitempty"`
	Manipulations int       `json:"manipulations"`
}

// ModSettings describes the settings a collection uses for one mod.
type ModSettings struct {
	Mod      string `json:"mod"`
	Enabled  bool   `json:"enabled"`
	Priority int    `json:"priority"`
	// Settings maps group names to their selection value.
	Settings map[string]uint64 `json:"settings,omitempty"`
	// InheritedFrom names the collection the settings come from when the
	// collection does not configure the mod itself.
	InheritedFrom string `json:"inherited_from,omitempty"`
}

// Assignment is one role or individual assignment.
type Assignment struct {
	Role       string `json:"role"`
	Collection string `json:"collection"`
}

// Service answers queries against a registry.
type Service struct {
	reg *collections.Registry
}

// New returns a service over reg.
func New(reg *collections.Registry) *Service {
	return &Service{reg: reg}
}

// Collections lists every collection by index.
func (s *Service) Collections() []Collection {
	all := s.reg.All()
	out := make([]Collection, 0, len(all))
	for _, c := range all {
		out = append(out, describe(c))
	}
	return out
}

// Collection describes the collection named by name or id.
func (s *Service) Collection(nameOrID string) (Collection, error) {
	c, err := s.lookup(nameOrID)
	if err != nil {
		return Collection{}, err
	}
	return describe(c), nil
}

func describe(c *collections.Collection) Collection {
	out := Collection{
		ID:            c.ID(),
		Name:          c.Name(),
		Index:         c.Index(),
		ChangeCounter: c.ChangeCounter(),
		Temporary:     c.Temporary(),
		CreatedAt:     c.CreatedAt(),
		EnabledMods:   c.EnabledMods(),
		Manipulations: c.Meta().Count(),
	}
	for _, p := range c.Inheritance() {
		out.Inheritance = append(out.Inheritance, p.Name())
	}
	return out
}

func (s *Service) lookup(nameOrID string) (*collections.Collection, error) {
	if c, ok := s.reg.ByID(nameOrID); ok {
		return c, nil
	}
	if c, ok := s.reg.ByName(nameOrID); ok {
		return c, nil
	}
	return nil, fmt.Errorf("get collection %q: %w", nameOrID, ErrCollectionNotFound)
}

// ResolvedFiles returns the game path to redirected path map of a
// collection.
func (s *Service) ResolvedFiles(nameOrID string) (map[string]string, error) {
	c, err := s.lookup(nameOrID)
	if err != nil {
		return nil, err
	}
	files := c.Files()
	out := make(map[string]string, len(files))
	for path, r := range files {
		out[path] = r.Path
	}
	return out, nil
}

// ModSettings returns the effective settings of every installed mod in a
// collection, sorted by mod name. Mods the collection neither configures nor
// inherits are reported disabled with their defaults.
func (s *Service) ModSettings(nameOrID string) ([]ModSettings, error) {
	c, err := s.lookup(nameOrID)
	if err != nil {
		return nil, err
	}
	src := s.reg.Mods()
	if src == nil {
		return nil, nil
	}
	var out []ModSettings
	for _, m := range src.Mods() {
		out = append(out, settingsOf(c, m))
	}
	slices.SortFunc(out, func(a, b ModSettings) int { return cmp.Compare(a.Mod, b.Mod) })
	return out, nil
}

// ModSetting returns the effective settings of one mod in a collection.
func (s *Service) ModSetting(nameOrID, mod string) (ModSettings, error) {
	c, err := s.lookup(nameOrID)
	if err != nil {
		return ModSettings{}, err
	}
	src := s.reg.Mods()
	if src == nil {
		return ModSettings{}, fmt.Errorf("get mod %q: %w", mod, ErrModNotFound)
	}
	m, ok := src.Mod(mod)
	if !ok {
		return ModSettings{}, fmt.Errorf("get mod %q: %w", mod, ErrModNotFound)
	}
	return settingsOf(c, m), nil
}

func settingsOf(c *collections.Collection, m *collections.Mod) ModSettings {
	out := ModSettings{Mod: m.Name}
	values := m.DefaultSettings()
	if s, from, ok := c.EffectiveSettings(m.Name); ok {
		out.Enabled = s.Enabled
		out.Priority = s.Priority
		copy(values, s.Settings)
		if from != c {
			out.InheritedFrom = from.Name()
		}
	}
	if len(m.Groups) > 0 {
		out.Settings = make(map[string]uint64, len(m.Groups))
		for i, g := range m.Groups {
			out.Settings[g.Name] = values[i]
		}
	}
	return out
}

// Conflicts returns the file conflicts of a collection.
func (s *Service) Conflicts(nameOrID string) ([]collections.Conflict, error) {
	c, err := s.lookup(nameOrID)
	if err != nil {
		return nil, err
	}
	return c.Conflicts(), nil
}

// Manipulations returns the metadata manipulations of a collection in their
// serialized form.
func (s *Service) Manipulations(nameOrID string) (json.RawMessage, error) {
	c, err := s.lookup(nameOrID)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(c.Meta())
	if err != nil {
		return nil, fmt.Errorf("encode manipulations of %s: %w", c.Name(), err)
	}
	return data, nil
}

// Assignments lists the role assignments followed by the individual
// assignments.
func (s *Service) Assignments() []Assignment {
	active := s.reg.Active()
	roles := active.Assignments()
	var out []Assignment
	for _, r := range collections.Roles() {
		if c, ok := roles[r]; ok {
			out = append(out, Assignment{Role: r.String(), Collection: c.Name()})
		}
	}
	for _, ind := range active.Individuals() {
		out = append(out, Assignment{Role: collections.RoleIndividual + ":" + ind.Name, Collection: ind.Collection.Name()})
	}
	return out
}

// ResolvePath resolves a game path through a collection. It returns the
// path unchanged and false when no enabled mod provides it.
func (s *Service) ResolvePath(nameOrID, gamePath string) (string, bool, error) {
	c, err := s.lookup(nameOrID)
	if err != nil {
		return "", false, err
	}
	r, ok := c.Resolve(gamePath)
	if !ok {
		return gamePath, false, nil
	}
	return r.Path, true, nil
}
