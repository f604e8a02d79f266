// Package collections keeps the named collections of mod settings, their
// inheritance, the role and individual assignments that select a collection
// for an actor, and the resolved file map and metadata of every collection.
package collections

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/mesh-intelligence/wardrobe/internal/actors"
	"github.com/mesh-intelligence/wardrobe/pkg/types"
)

// Registry errors.
var (
	ErrCollectionNotFound  = errors.New("collection not found")
	ErrDuplicateName       = errors.New("collection name already in use")
	ErrInvalidName         = errors.New("invalid collection name")
	ErrInheritanceCycle    = errors.New("inheritance would create a cycle")
	ErrCannotDeleteDefault = errors.New("cannot delete the default or empty collection")
	ErrModNotFound         = errors.New("mod not found")
	ErrInvalidSetting      = errors.New("invalid mod setting")
	ErrInvalidRole         = errors.New("invalid role")
	ErrInvalidIdentifier   = errors.New("invalid actor identifier")
	ErrDuplicateIndividual = errors.New("identifier already assigned")
	ErrTemporaryCollection = errors.New("temporary collections cannot be assigned to roles")
	ErrNotTemporary        = errors.New("collection is not temporary")
)

// Reserved collection names.
const (
	DefaultName = "Default"
	EmptyName   = "None"
)

// RoleIndividual is the role name individual assignments are persisted under.
const RoleIndividual = "individual"

const maxNameLength = 64

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithStore persists collections and assignments to s. s must be attached.
func WithStore(s types.Store) RegistryOption {
	return func(r *Registry) { r.store = s }
}

// WithLogger sets the logger. A nil logger uses slog.Default.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithEvents publishes changes to e instead of a private Events.
func WithEvents(e *Events) RegistryOption {
	return func(r *Registry) {
		if e != nil {
			r.events = e
		}
	}
}

// WithClock overrides the creation time source.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// Registry owns every collection. All edits go through it so change counters,
// resolved state, persistence and change events stay consistent.
type Registry struct {
	mu          sync.RWMutex
	mods        ModSource
	store       types.Store
	log         *slog.Logger
	events      *Events
	now         func() time.Time
	active      *Active
	empty       *Collection
	collections []*Collection
	byIndex     map[int]*Collection
	nextIndex   int
}

// New returns a registry over the installed mods of src holding only the
// empty collection. Call Load to read persisted state.
func New(src ModSource, opts ...RegistryOption) *Registry {
	r := &Registry{
		mods:    src,
		log:     slog.Default(),
		events:  &Events{},
		now:     time.Now,
		byIndex: make(map[int]*Collection),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With(slog.String("component", "collections"))
	r.empty = newCollection(uuid.Nil.String(), EmptyName, 0, time.Time{})
	r.byIndex[0] = r.empty
	r.nextIndex = 1
	r.active = newActive(r.empty, r.events, r.log, r.saveAssignments)
	return r
}

// Events returns the change event fan-out.
func (r *Registry) Events() *Events { return r.events }

// Active returns the assignment table.
func (r *Registry) Active() *Active { return r.active }

// Empty returns the collection that never redirects anything.
func (r *Registry) Empty() *Collection { return r.empty }

// Mods returns the installed mod source.
func (r *Registry) Mods() ModSource { return r.mods }

// All returns every permanent collection in creation order, excluding the
// empty collection.
func (r *Registry) All() []*Collection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.collections)
}

// ByID finds a collection by its stable id.
func (r *Registry) ByID(id string) (*Collection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.byIndex {
		if c.id == id {
			return c, true
		}
	}
	return nil, false
}

// ByIndex finds a collection, temporary ones included, by its local index.
func (r *Registry) ByIndex(index int) (*Collection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byIndex[index]
	return c, ok
}

// ByName finds a permanent collection by name, ignoring case. EmptyName finds
// the empty collection.
func (r *Registry) ByName(name string) (*Collection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byNameLocked(name)
}

func (r *Registry) byNameLocked(name string) (*Collection, bool) {
	key := foldName(name)
	if key == foldName(EmptyName) {
		return r.empty, true
	}
	for _, c := range r.collections {
		if foldName(c.name) == key {
			return c, true
		}
	}
	return nil, false
}

// foldName returns the case-folded form of a collection name. Casers are
// stateful, so a fresh one is used per call.
func foldName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

func (r *Registry) validName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLength || strings.ContainsAny(name, "|\n\r") {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	if _, ok := r.byNameLocked(name); ok {
		return fmt.Errorf("%q: %w", name, ErrDuplicateName)
	}
	return nil
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Create adds an empty collection.
func (r *Registry) Create(name string) (*Collection, error) {
	return r.create(name, nil)
}

// Duplicate adds a collection with a copy of src's own settings and
// inheritance list.
func (r *Registry) Duplicate(src *Collection, name string) (*Collection, error) {
	if src == nil {
		return nil, fmt.Errorf("duplicate: %w", ErrCollectionNotFound)
	}
	return r.create(name, src)
}

func (r *Registry) create(name string, src *Collection) (*Collection, error) {
	r.mu.Lock()
	if err := r.validName(name); err != nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("create collection: %w", err)
	}
	c := r.add(newID(), strings.TrimSpace(name), r.now().UTC(), false)
	if src != nil {
		src.mu.RLock()
		for mod, s := range src.settings {
			c.settings[mod] = s.clone()
		}
		c.inherits = slices.Clone(src.inherits)
		src.mu.RUnlock()
	}
	c.rebuild(r.mods)
	err := r.save(c)
	r.mu.Unlock()

	r.log.Info("collection created", slog.String("collection", c.name), slog.String("id", c.id))
	r.publish(Change{Type: ChangeCreated, New: c, Name: c.name})
	return c, err
}

// add registers a new collection. Caller holds r.mu.
func (r *Registry) add(id, name string, created time.Time, temporary bool) *Collection {
	c := newCollection(id, name, r.nextIndex, created)
	c.temporary = temporary
	r.nextIndex++
	r.byIndex[c.index] = c
	if !temporary {
		r.collections = append(r.collections, c)
	}
	return c
}

// CreateTemporary adds a collection that is never persisted and can only be
// assigned to identities through Active.AssignTemporary.
func (r *Registry) CreateTemporary(name string) (*Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLength {
		return nil, fmt.Errorf("create temporary %q: %w", name, ErrInvalidName)
	}
	r.mu.Lock()
	c := r.add(newID(), name, r.now().UTC(), true)
	c.rebuild(r.mods)
	r.mu.Unlock()
	r.publish(Change{Type: ChangeTemporary, New: c, Name: name})
	return c, nil
}

// Delete removes c. Collections inheriting from c drop it from their
// inheritance lists and every assignment of c is removed.
func (r *Registry) Delete(c *Collection) error {
	if c == nil {
		return fmt.Errorf("delete: %w", ErrCollectionNotFound)
	}
	if c == r.empty || strings.EqualFold(c.name, DefaultName) && !c.temporary {
		return fmt.Errorf("delete %s: %w", c.name, ErrCannotDeleteDefault)
	}
	r.mu.Lock()
	if r.byIndex[c.index] != c {
		r.mu.Unlock()
		return fmt.Errorf("delete %s: %w", c.name, ErrCollectionNotFound)
	}
	dependents := r.dependentsLocked(c)
	delete(r.byIndex, c.index)
	r.collections = slices.DeleteFunc(r.collections, func(x *Collection) bool { return x == c })

	var errs []error
	for _, d := range dependents {
		d.mu.Lock()
		d.inherits = slices.DeleteFunc(d.inherits, func(x *Collection) bool { return x == c })
		d.mu.Unlock()
	}
	r.touchLocked(dependents)
	for _, d := range dependents {
		if err := r.save(d); err != nil {
			errs = append(errs, err)
		}
	}
	if r.store != nil && !c.temporary {
		if err := r.store.DeleteCollection(c.id); err != nil && !errors.Is(err, types.ErrNotFound) {
			errs = append(errs, fmt.Errorf("delete collection %s: %w", c.name, err))
		}
	}
	r.mu.Unlock()

	r.active.forget(c)
	if !c.temporary {
		if err := r.saveAssignments(); err != nil {
			errs = append(errs, err)
		}
	}
	r.log.Info("collection deleted", slog.String("collection", c.name), slog.String("id", c.id))
	r.publish(Change{Type: ChangeDeleted, Old: c, Name: c.name})
	return errors.Join(errs...)
}

// dependentsLocked returns every other collection whose flattened
// inheritance contains c. Caller holds r.mu.
func (r *Registry) dependentsLocked(c *Collection) []*Collection {
	var out []*Collection
	for _, x := range r.byIndex {
		if x == c {
			continue
		}
		if slices.Contains(x.Flattened(), c) {
			out = append(out, x)
		}
	}
	slices.SortFunc(out, func(a, b *Collection) int { return a.index - b.index })
	return out
}

// touchLocked bumps the change counter of every collection in cs and
// rebuilds it. Caller holds r.mu.
func (r *Registry) touchLocked(cs []*Collection) {
	for _, c := range cs {
		c.changes.Add(1)
		c.rebuild(r.mods)
	}
}

func (r *Registry) registeredLocked(c *Collection) error {
	if c == nil || c == r.empty || r.byIndex[c.index] != c {
		return ErrCollectionNotFound
	}
	return nil
}

// SetInheritance replaces the inheritance list of c.
func (r *Registry) SetInheritance(c *Collection, parents ...*Collection) error {
	return r.editInheritance(c, func([]*Collection) ([]*Collection, error) {
		out := make([]*Collection, 0, len(parents))
		for _, p := range parents {
			if !slices.Contains(out, p) {
				out = append(out, p)
			}
		}
		return out, nil
	}, parents...)
}

// AddInheritance appends p to the inheritance list of c.
func (r *Registry) AddInheritance(c, p *Collection) error {
	return r.editInheritance(c, func(cur []*Collection) ([]*Collection, error) {
		if slices.Contains(cur, p) {
			return cur, nil
		}
		return append(cur, p), nil
	}, p)
}

// RemoveInheritance removes p from the inheritance list of c.
func (r *Registry) RemoveInheritance(c, p *Collection) error {
	return r.editInheritance(c, func(cur []*Collection) ([]*Collection, error) {
		if !slices.Contains(cur, p) {
			return nil, fmt.Errorf("%s does not inherit %s: %w", c.name, nameOf(p), ErrCollectionNotFound)
		}
		return slices.DeleteFunc(cur, func(x *Collection) bool { return x == p }), nil
	})
}

func (r *Registry) editInheritance(c *Collection, edit func([]*Collection) ([]*Collection, error), added ...*Collection) error {
	r.mu.Lock()
	if err := r.registeredLocked(c); err != nil {
		r.mu.Unlock()
		return fmt.Errorf("edit inheritance: %w", err)
	}
	for _, p := range added {
		if err := r.registeredLocked(p); err != nil || p.temporary {
			r.mu.Unlock()
			return fmt.Errorf("inherit %s: %w", nameOf(p), ErrCollectionNotFound)
		}
		if p == c || slices.Contains(p.Flattened(), c) {
			r.mu.Unlock()
			return fmt.Errorf("%s inherit %s: %w", c.name, p.name, ErrInheritanceCycle)
		}
	}
	next, err := edit(c.Inheritance())
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("edit inheritance: %w", err)
	}
	c.mu.Lock()
	c.inherits = next
	c.mu.Unlock()
	r.touchLocked(append([]*Collection{c}, r.dependentsLocked(c)...))
	err = r.save(c)
	r.mu.Unlock()

	r.publish(Change{Type: ChangeInheritance, New: c, Name: c.name})
	return err
}

// SetModEnabled enables or disables mod in c.
func (r *Registry) SetModEnabled(c *Collection, mod string, enabled bool) error {
	return r.editSettings(c, mod, func(_ *Mod, s *ModSettings) error {
		s.Enabled = enabled
		return nil
	})
}

// SetModPriority sets the priority of mod in c.
func (r *Registry) SetModPriority(c *Collection, mod string, priority int) error {
	return r.editSettings(c, mod, func(_ *Mod, s *ModSettings) error {
		s.Priority = priority
		return nil
	})
}

// SetModSetting sets the selection value of one option group of mod in c.
// Single-select groups take an option index, multi-select groups a bit mask
// over their options.
func (r *Registry) SetModSetting(c *Collection, mod string, group int, value uint64) error {
	return r.editSettings(c, mod, func(m *Mod, s *ModSettings) error {
		if group < 0 || group >= len(m.Groups) {
			return fmt.Errorf("group %d of %s: %w", group, m.Name, ErrInvalidSetting)
		}
		if !validSelection(m.Groups[group], value) {
			return fmt.Errorf("value %d for group %s: %w", value, m.Groups[group].Name, ErrInvalidSetting)
		}
		s.Settings[group] = value
		return nil
	})
}

// SetModSettings replaces the settings of mod in c.
func (r *Registry) SetModSettings(c *Collection, mod string, settings ModSettings) error {
	return r.editSettings(c, mod, func(m *Mod, s *ModSettings) error {
		if len(settings.Settings) > len(m.Groups) {
			return fmt.Errorf("%d groups for %s: %w", len(settings.Settings), m.Name, ErrInvalidSetting)
		}
		for i, v := range settings.Settings {
			if !validSelection(m.Groups[i], v) {
				return fmt.Errorf("value %d for group %s: %w", v, m.Groups[i].Name, ErrInvalidSetting)
			}
		}
		s.Enabled = settings.Enabled
		s.Priority = settings.Priority
		copy(s.Settings, settings.Settings)
		return nil
	})
}

// InheritMod removes c's own settings of mod so the inherited ones apply.
func (r *Registry) InheritMod(c *Collection, mod string) error {
	r.mu.Lock()
	if err := r.registeredLocked(c); err != nil {
		r.mu.Unlock()
		return fmt.Errorf("inherit mod %s: %w", mod, err)
	}
	c.mu.Lock()
	_, had := c.settings[mod]
	delete(c.settings, mod)
	c.mu.Unlock()
	if !had {
		r.mu.Unlock()
		return nil
	}
	r.touchLocked(append([]*Collection{c}, r.dependentsLocked(c)...))
	err := r.save(c)
	r.mu.Unlock()
	r.publish(Change{Type: ChangeSettings, New: c, Name: mod})
	return err
}

func validSelection(g Group, v uint64) bool {
	switch g.Type {
	case GroupSingle:
		return v < uint64(len(g.Options))
	case GroupMulti:
		return len(g.Options) >= 64 || v < 1<<len(g.Options)
	}
	return false
}

// editSettings applies edit to the settings c uses for mod. A collection
// without its own settings starts from the inherited ones, else from the
// mod's defaults, disabled.
func (r *Registry) editSettings(c *Collection, name string, edit func(*Mod, *ModSettings) error) error {
	r.mu.Lock()
	if err := r.registeredLocked(c); err != nil {
		r.mu.Unlock()
		return fmt.Errorf("edit %s: %w", name, err)
	}
	m, ok := r.lookupMod(name)
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("edit %s: %w", name, ErrModNotFound)
	}
	s, _, ok := c.EffectiveSettings(name)
	if !ok {
		s = ModSettings{Settings: m.DefaultSettings()}
	}
	if len(s.Settings) < len(m.Groups) {
		s.Settings = append(s.Settings, m.DefaultSettings()[len(s.Settings):]...)
	}
	if err := edit(m, &s); err != nil {
		r.mu.Unlock()
		return fmt.Errorf("edit %s: %w", name, err)
	}
	c.mu.Lock()
	c.settings[name] = s
	c.mu.Unlock()
	r.touchLocked(append([]*Collection{c}, r.dependentsLocked(c)...))
	err := r.save(c)
	r.mu.Unlock()

	r.publish(Change{Type: ChangeSettings, New: c, Name: name})
	return err
}

func (r *Registry) lookupMod(name string) (*Mod, bool) {
	if r.mods == nil {
		return nil, false
	}
	return r.mods.Mod(name)
}

// ModsReloaded rebuilds every collection after the installed mods changed.
func (r *Registry) ModsReloaded() {
	r.mu.Lock()
	all := make([]*Collection, 0, len(r.byIndex))
	for _, c := range r.byIndex {
		if c != r.empty {
			all = append(all, c)
		}
	}
	r.touchLocked(all)
	r.mu.Unlock()
	r.publish(Change{Type: ChangeModsReloaded})
}

func (r *Registry) publish(ch Change) {
	if err := r.events.Publish(ch); err != nil {
		r.log.Warn("change subscriber failed", slog.String("change", ch.Type.String()), slog.Any("error", err))
	}
}

// record returns the persisted form of c.
func record(c *Collection) types.CollectionRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec := types.CollectionRecord{ID: c.id, Name: c.name, CreatedAt: c.createdAt}
	for _, p := range c.inherits {
		rec.Inheritance = append(rec.Inheritance, p.id)
	}
	for _, mod := range slices.Sorted(maps.Keys(c.settings)) {
		s := c.settings[mod]
		rec.Settings = append(rec.Settings, types.ModSettingRecord{
			Mod:      mod,
			Enabled:  s.Enabled,
			Priority: s.Priority,
			Settings: slices.Clone(s.Settings),
		})
	}
	return rec
}

// save persists c. Temporary collections and registries without a store
// are not persisted.
func (r *Registry) save(c *Collection) error {
	if r.store == nil || c.temporary || c == r.empty {
		return nil
	}
	if err := r.store.SaveCollection(record(c)); err != nil {
		r.log.Error("save collection failed", slog.String("collection", c.name), slog.Any("error", err))
		return fmt.Errorf("save collection %s: %w", c.name, err)
	}
	return nil
}

// saveAssignments persists the role and permanent individual assignments.
func (r *Registry) saveAssignments() error {
	if r.store == nil {
		return nil
	}
	recs, err := r.active.records()
	if err != nil {
		return err
	}
	if err := r.store.SaveAssignments(recs); err != nil {
		r.log.Error("save assignments failed", slog.Any("error", err))
		return fmt.Errorf("save assignments: %w", err)
	}
	return nil
}

// records returns the persisted form of the assignments: roles in the order
// of Roles, then individuals in assignment order.
func (a *Active) records() ([]types.AssignmentRecord, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []types.AssignmentRecord
	for _, role := range Roles() {
		if c, ok := a.roles[role]; ok {
			out = append(out, types.AssignmentRecord{Role: role.String(), CollectionID: c.id})
		}
	}
	for _, ind := range a.permanent.list {
		ids, err := json.Marshal(ind.Identifiers)
		if err != nil {
			return nil, fmt.Errorf("encode individual %s: %w", ind.Name, err)
		}
		out = append(out, types.AssignmentRecord{Role: RoleIndividual, CollectionID: ind.Collection.id, Identifiers: ids})
	}
	return out, nil
}

// Load reads collections and assignments from the store. Records naming
// unknown collections, unknown roles or invalid identifiers are skipped with
// a warning. Without persisted collections a Default collection is created
// and assigned to the Default, Interface and Current roles.
func (r *Registry) Load() error {
	if r.store != nil {
		if err := r.loadCollections(); err != nil {
			return err
		}
	}
	if len(r.All()) == 0 {
		c, err := r.Create(DefaultName)
		if err != nil {
			return fmt.Errorf("load: %w", err)
		}
		for _, role := range []Role{Default, Interface, Current} {
			if err := r.active.SetRole(role, c); err != nil {
				return fmt.Errorf("load: %w", err)
			}
		}
		return nil
	}
	if r.store != nil {
		return r.loadAssignments()
	}
	return nil
}

func (r *Registry) loadCollections() error {
	recs, err := r.store.LoadCollections()
	if err != nil {
		return fmt.Errorf("load collections: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	loaded := make(map[string]*Collection, len(recs))
	for _, rec := range recs {
		if err := r.validName(rec.Name); err != nil || uuid.Validate(rec.ID) != nil {
			r.log.Warn("skipping collection", slog.String("id", rec.ID), slog.String("name", rec.Name))
			continue
		}
		c := r.add(rec.ID, strings.TrimSpace(rec.Name), rec.CreatedAt, false)
		for _, s := range rec.Settings {
			c.settings[s.Mod] = ModSettings{Enabled: s.Enabled, Priority: s.Priority, Settings: slices.Clone(s.Settings)}
		}
		loaded[rec.ID] = c
	}
	for _, rec := range recs {
		c, ok := loaded[rec.ID]
		if !ok {
			continue
		}
		for _, pid := range rec.Inheritance {
			p, ok := loaded[pid]
			if !ok || p == c || slices.Contains(p.Flattened(), c) || slices.Contains(c.inherits, p) {
				r.log.Warn("skipping inheritance", slog.String("collection", c.name), slog.String("parent", pid))
				continue
			}
			c.inherits = append(c.inherits, p)
		}
	}
	for _, c := range r.collections {
		c.rebuild(r.mods)
	}
	return nil
}

func (r *Registry) loadAssignments() error {
	recs, err := r.store.LoadAssignments()
	if err != nil {
		return fmt.Errorf("load assignments: %w", err)
	}
	a := r.active
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, rec := range recs {
		c, ok := r.ByID(rec.CollectionID)
		if !ok || c.temporary {
			r.log.Warn("skipping assignment to unknown collection", slog.String("role", rec.Role), slog.String("collection", rec.CollectionID))
			continue
		}
		if rec.Role == RoleIndividual {
			var ids []actors.Identifier
			if err := json.Unmarshal(rec.Identifiers, &ids); err != nil || len(ids) == 0 {
				r.log.Warn("skipping malformed individual", slog.String("collection", c.name))
				continue
			}
			valid := true
			for _, id := range ids {
				if _, dup := a.permanent.find(id); !id.IsValid() || dup {
					valid = false
				}
			}
			if !valid {
				r.log.Warn("skipping invalid individual", slog.String("collection", c.name), slog.String("individual", ids[0].String()))
				continue
			}
			a.permanent.add(&Individual{Name: ids[0].String(), Identifiers: ids, Collection: c})
			continue
		}
		role, err := ParseRole(rec.Role)
		if err != nil {
			r.log.Warn("skipping unknown role", slog.String("role", rec.Role))
			continue
		}
		a.roles[role] = c
	}
	return nil
}
