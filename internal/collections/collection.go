package collections

import (
	"cmp"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mesh-intelligence/wardrobe/internal/meta"
)

// Redirect is where a game path resolves to in a collection and which mod
// provides it.
type Redirect struct {
	Path string `json:"path"`
	Mod  string `json:"mod"`
}

// Conflict records a game path provided by more than one enabled mod. Winner
// has the highest priority; Losers are ordered by descending priority.
type Conflict struct {
	Path   string   `json:"path"`
	Winner string   `json:"winner"`
	Losers []string `json:"losers"`
}

// resolved is the immutable result of building a collection from its
// effective settings. It is swapped atomically on every rebuild.
type resolved struct {
	files     map[string]Redirect
	conflicts []Conflict
	meta      *meta.Dictionary
	mods      []string
}

var emptyResolved = &resolved{files: map[string]Redirect{}, meta: &meta.Dictionary{}}

// Collection is a named set of mod settings with an inheritance list.
// Settings edits go through the Registry, which increments the change
// counter and rebuilds the resolved file map and metadata.
type Collection struct {
	id        string
	name      string
	index     int
	createdAt time.Time
	temporary bool

	mu       sync.RWMutex
	settings map[string]ModSettings
	inherits []*Collection

	changes  atomic.Uint64
	resolved atomic.Pointer[resolved]
}

func newCollection(id, name string, index int, created time.Time) *Collection {
	c := &Collection{
		id:        id,
		name:      name,
		index:     index,
		createdAt: created,
		settings:  make(map[string]ModSettings),
	}
	c.resolved.Store(emptyResolved)
	return c
}

// ID returns the stable id of c.
func (c *Collection) ID() string { return c.id }

// Name returns the display name of c.
func (c *Collection) Name() string { return c.name }

// Index returns the process-local index of c. The empty collection has
// index 0; indices are never reused within a run.
func (c *Collection) Index() int { return c.index }

// CreatedAt returns when c was first created.
func (c *Collection) CreatedAt() time.Time { return c.createdAt }

// Temporary reports whether c is a temporary collection that is never
// persisted.
func (c *Collection) Temporary() bool { return c.temporary }

// ChangeCounter returns the number of settings edits applied to c, including
// edits inherited from the collections it inherits from.
func (c *Collection) ChangeCounter() uint64 { return c.changes.Load() }

func (c *Collection) String() string { return c.name }

// Inheritance returns the collections c inherits from directly, in lookup
// order.
func (c *Collection) Inheritance() []*Collection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.inherits)
}

// OwnSettings returns the settings c itself stores for mod.
func (c *Collection) OwnSettings(mod string) (ModSettings, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.settings[mod]
	if !ok {
		return ModSettings{}, false
	}
	return s.clone(), true
}

// ConfiguredMods returns the names of the mods c stores settings for, sorted.
func (c *Collection) ConfiguredMods() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.settings))
}

// Flattened returns c followed by every collection it inherits from,
// depth first in lookup order, each collection once.
func (c *Collection) Flattened() []*Collection {
	var out []*Collection
	seen := make(map[*Collection]bool)
	var walk func(*Collection)
	walk = func(x *Collection) {
		if seen[x] {
			return
		}
		seen[x] = true
		out = append(out, x)
		for _, p := range x.Inheritance() {
			walk(p)
		}
	}
	walk(c)
	return out
}

// EffectiveSettings returns the settings that apply to mod in c and the
// collection they come from: c's own settings, else those of the first
// collection in the flattened inheritance list that configures mod.
func (c *Collection) EffectiveSettings(mod string) (ModSettings, *Collection, bool) {
	for _, x := range c.Flattened() {
		if s, ok := x.OwnSettings(mod); ok {
			return s, x, true
		}
	}
	return ModSettings{}, nil, false
}

// Resolve returns the redirect of a game path, if an enabled mod provides it.
func (c *Collection) Resolve(path string) (Redirect, bool) {
	r, ok := c.resolved.Load().files[NormalizePath(path)]
	return r, ok
}

// Files returns a copy of the resolved file map.
func (c *Collection) Files() map[string]Redirect {
	return maps.Clone(c.resolved.Load().files)
}

// Conflicts returns the file conflicts of the last rebuild, sorted by path.
func (c *Collection) Conflicts() []Conflict {
	return slices.Clone(c.resolved.Load().conflicts)
}

// EnabledMods returns the enabled mods of the last rebuild in descending
// priority order.
func (c *Collection) EnabledMods() []string {
	return slices.Clone(c.resolved.Load().mods)
}

// Meta returns the metadata manipulations of the enabled mods. The returned
// dictionary is shared and must not be modified.
func (c *Collection) Meta() *meta.Dictionary {
	return c.resolved.Load().meta
}

type enabledMod struct {
	mod      *Mod
	priority int
	data     Data
}

// rebuild recomputes the resolved state of c from the effective settings of
// every mod in src. Higher priorities win; ties go to the lexically smaller
// mod name.
func (c *Collection) rebuild(src ModSource) {
	if src == nil {
		c.resolved.Store(emptyResolved)
		return
	}
	var enabled []enabledMod
	for _, m := range src.Mods() {
		s, _, ok := c.EffectiveSettings(m.Name)
		if !ok || !s.Enabled {
			continue
		}
		enabled = append(enabled, enabledMod{mod: m, priority: s.Priority, data: m.Effective(s.Settings)})
	}
	slices.SortFunc(enabled, func(a, b enabledMod) int {
		if a.priority != b.priority {
			return cmp.Compare(b.priority, a.priority)
		}
		return cmp.Compare(a.mod.Name, b.mod.Name)
	})

	r := &resolved{files: make(map[string]Redirect), meta: &meta.Dictionary{}}
	losers := make(map[string][]string)
	for _, e := range enabled {
		r.mods = append(r.mods, e.mod.Name)
		for path, target := range e.data.Files {
			if _, taken := r.files[path]; taken {
				losers[path] = append(losers[path], e.mod.Name)
				continue
			}
			r.files[path] = Redirect{Path: target, Mod: e.mod.Name}
		}
		r.meta.UnionWith(e.data.Manipulations)
	}
	for _, path := range slices.Sorted(maps.Keys(losers)) {
		r.conflicts = append(r.conflicts, Conflict{Path: path, Winner: r.files[path].Mod, Losers: losers[path]})
	}
	c.resolved.Store(r)
}
