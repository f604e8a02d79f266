package collections

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/mesh-intelligence/wardrobe/internal/actors"
)

// Individual assigns one collection to a group of identities, for example a
// player on several home worlds.
type Individual struct {
	Name        string
	Identifiers []actors.Identifier
	Collection  *Collection
}

type individuals struct {
	list    []*Individual
	buckets map[string][]*Individual
}

func (s *individuals) find(id actors.Identifier) (*Individual, bool) {
	if !id.IsValid() {
		return nil, false
	}
	for _, ind := range s.buckets[id.Bucket()] {
		for _, x := range ind.Identifiers {
			if x.Equal(id) {
				return ind, true
			}
		}
	}
	return nil, false
}

func (s *individuals) add(ind *Individual) {
	if s.buckets == nil {
		s.buckets = make(map[string][]*Individual)
	}
	s.list = append(s.list, ind)
	seen := make(map[string]bool)
	for _, id := range ind.Identifiers {
		b := id.Bucket()
		if !seen[b] {
			seen[b] = true
			s.buckets[b] = append(s.buckets[b], ind)
		}
	}
}

func (s *individuals) remove(ind *Individual) {
	s.list = slices.DeleteFunc(s.list, func(x *Individual) bool { return x == ind })
	for _, id := range ind.Identifiers {
		b := id.Bucket()
		s.buckets[b] = slices.DeleteFunc(s.buckets[b], func(x *Individual) bool { return x == ind })
		if len(s.buckets[b]) == 0 {
			delete(s.buckets, b)
		}
	}
}

func (s *individuals) removeCollection(c *Collection) []*Individual {
	var removed []*Individual
	for _, ind := range slices.Clone(s.list) {
		if ind.Collection == c {
			s.remove(ind)
			removed = append(removed, ind)
		}
	}
	return removed
}

// Active maps roles, individual identities and temporary identities to
// collections. It is safe for concurrent use; lookups take a read lock only.
type Active struct {
	mu        sync.RWMutex
	roles     map[Role]*Collection
	permanent individuals
	temporary individuals
	empty     *Collection

	events  *Events
	log     *slog.Logger
	persist func() error
}

func newActive(empty *Collection, events *Events, log *slog.Logger, persist func() error) *Active {
	return &Active{
		roles:   make(map[Role]*Collection),
		empty:   empty,
		events:  events,
		log:     log,
		persist: persist,
	}
}

// ByRole returns the collection assigned to r.
func (a *Active) ByRole(r Role) (*Collection, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c, ok := a.roles[r]
	return c, ok
}

// Default returns the collection of the Default role, or the empty
// collection when none is assigned.
func (a *Active) Default() *Collection {
	if c, ok := a.ByRole(Default); ok {
		return c
	}
	return a.empty
}

// Assignments returns a snapshot of the role assignments.
func (a *Active) Assignments() map[Role]*Collection {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[Role]*Collection, len(a.roles))
	for r, c := range a.roles {
		out[r] = c
	}
	return out
}

// SetRole assigns c to r. A nil c removes the assignment, except for the
// Default role which falls back to the empty collection.
func (a *Active) SetRole(r Role, c *Collection) error {
	if !r.Valid() {
		return fmt.Errorf("assign %s: %w", r, ErrInvalidRole)
	}
	if c != nil && c.Temporary() {
		return fmt.Errorf("assign %s: %w", r, ErrTemporaryCollection)
	}
	if c == nil && r == Default {
		c = a.empty
	}
	a.mu.Lock()
	old := a.roles[r]
	if old == c {
		a.mu.Unlock()
		return nil
	}
	if c == nil {
		delete(a.roles, r)
	} else {
		a.roles[r] = c
	}
	a.mu.Unlock()

	a.log.Debug("role assigned", slog.String("role", r.String()), slog.String("collection", nameOf(c)))
	return a.changed(Change{Type: ChangeAssigned, Role: r, Old: old, New: c})
}

// Individual returns the permanent individual assignment matching id.
func (a *Active) Individual(id actors.Identifier) (*Collection, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if ind, ok := a.permanent.find(id); ok {
		return ind.Collection, true
	}
	return nil, false
}

// TemporaryFor returns the temporary collection assigned to id.
func (a *Active) TemporaryFor(id actors.Identifier) (*Collection, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if ind, ok := a.temporary.find(id); ok {
		return ind.Collection, true
	}
	return nil, false
}

// Individuals returns copies of the permanent individual assignments in
// assignment order.
func (a *Active) Individuals() []Individual {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Individual, len(a.permanent.list))
	for i, ind := range a.permanent.list {
		out[i] = Individual{Name: ind.Name, Identifiers: slices.Clone(ind.Identifiers), Collection: ind.Collection}
	}
	return out
}

// AssignIndividual assigns c to a group of identities. Every identifier must
// be valid and none may already have a permanent assignment.
func (a *Active) AssignIndividual(c *Collection, ids ...actors.Identifier) error {
	if c == nil {
		return fmt.Errorf("assign individual: %w", ErrCollectionNotFound)
	}
	if c.Temporary() {
		return fmt.Errorf("assign individual: %w", ErrTemporaryCollection)
	}
	ind, err := a.insert(&a.permanent, c, ids)
	if err != nil {
		return err
	}
	a.log.Debug("individual assigned", slog.String("individual", ind.Name), slog.String("collection", c.Name()))
	return a.changed(Change{Type: ChangeAssigned, New: c, Name: ind.Name})
}

// AssignTemporary assigns a temporary collection to a group of identities.
// Temporary assignments take precedence over permanent ones and are never
// persisted.
func (a *Active) AssignTemporary(c *Collection, ids ...actors.Identifier) error {
	if c == nil || !c.Temporary() {
		return fmt.Errorf("assign temporary: %w", ErrNotTemporary)
	}
	ind, err := a.insert(&a.temporary, c, ids)
	if err != nil {
		return err
	}
	a.log.Debug("temporary assigned", slog.String("individual", ind.Name), slog.String("collection", c.Name()))
	a.notify(Change{Type: ChangeTemporary, New: c, Name: ind.Name})
	return nil
}

func (a *Active) insert(set *individuals, c *Collection, ids []actors.Identifier) (*Individual, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("assign individual: %w", ErrInvalidIdentifier)
	}
	for _, id := range ids {
		if !id.IsValid() {
			return nil, fmt.Errorf("assign individual %s: %w", id, ErrInvalidIdentifier)
		}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, id := range ids {
		if _, ok := set.find(id); ok {
			return nil, fmt.Errorf("assign individual %s: %w", id, ErrDuplicateIndividual)
		}
	}
	ind := &Individual{Name: ids[0].String(), Identifiers: slices.Clone(ids), Collection: c}
	set.add(ind)
	return ind, nil
}

// RemoveIndividual removes the permanent assignment matching id.
func (a *Active) RemoveIndividual(id actors.Identifier) bool {
	a.mu.Lock()
	ind, ok := a.permanent.find(id)
	if ok {
		a.permanent.remove(ind)
	}
	a.mu.Unlock()
	if !ok {
		return false
	}
	_ = a.changed(Change{Type: ChangeAssigned, Old: ind.Collection, Name: ind.Name})
	return true
}

// RemoveTemporary drops every temporary assignment of c.
func (a *Active) RemoveTemporary(c *Collection) int {
	a.mu.Lock()
	removed := a.temporary.removeCollection(c)
	a.mu.Unlock()
	for _, ind := range removed {
		a.notify(Change{Type: ChangeTemporary, Old: c, Name: ind.Name})
	}
	return len(removed)
}

// forget removes every assignment of a deleted collection. The Default role
// falls back to the empty collection.
func (a *Active) forget(c *Collection) {
	a.mu.Lock()
	var roles []Role
	for r, x := range a.roles {
		if x == c {
			roles = append(roles, r)
		}
	}
	for _, r := range roles {
		if r == Default {
			a.roles[r] = a.empty
		} else {
			delete(a.roles, r)
		}
	}
	a.permanent.removeCollection(c)
	a.temporary.removeCollection(c)
	a.mu.Unlock()
}

// changed persists the assignments and publishes ch. Subscribers are
// notified even when persisting fails.
func (a *Active) changed(ch Change) error {
	var err error
	if a.persist != nil {
		err = a.persist()
	}
	a.notify(ch)
	return err
}

func (a *Active) notify(ch Change) {
	if err := a.events.Publish(ch); err != nil {
		a.log.Warn("change subscriber failed", slog.String("change", ch.Type.String()), slog.Any("error", err))
	}
}

func nameOf(c *Collection) string {
	if c == nil {
		return ""
	}
	return c.Name()
}
