package collections

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ChangeType classifies a collection change.
type ChangeType uint8

const (
	ChangeCreated ChangeType = iota + 1
	ChangeDeleted
	ChangeAssigned
	ChangeInheritance
	ChangeSettings
	ChangeTemporary
	ChangeModsReloaded
)

var changeTypeNames = [...]string{
	ChangeCreated:      "created",
	ChangeDeleted:      "deleted",
	ChangeAssigned:     "assigned",
	ChangeInheritance:  "inheritance",
	ChangeSettings:     "settings",
	ChangeTemporary:    "temporary",
	ChangeModsReloaded: "mods-reloaded",
}

func (t ChangeType) String() string {
	if int(t) < len(changeTypeNames) && changeTypeNames[t] != "" {
		return changeTypeNames[t]
	}
	return fmt.Sprintf("ChangeType(%d)", t)
}

// Change describes one registry or assignment edit. Old and New are nil
// where they do not apply; Role is set for assignment changes and Name names
// the individual or temporary identity involved, if any.
type Change struct {
	Type ChangeType
	Role Role
	Old  *Collection
	New  *Collection
	Name string
}

// Subscriber receives collection changes.
type Subscriber interface {
	CollectionChanged(ch Change) error
}

// SubscriberFunc allows plain functions to satisfy Subscriber.
type SubscriberFunc func(ch Change) error

// CollectionChanged dispatches to the underlying function.
func (fn SubscriberFunc) CollectionChanged(ch Change) error {
	if fn == nil {
		return nil
	}
	return fn(ch)
}

// Well-known subscriber priorities. Higher priorities are notified first;
// caches must be invalidated before anything that reads through them.
const (
	PriorityCache    = 100
	PriorityResolver = 50
	PriorityDefault  = 0
)

type subscription struct {
	seq      uint64
	name     string
	priority int
	sub      Subscriber
}

// Events fans collection changes out to subscribers in priority order. A
// subscriber that fails or panics does not stop the others.
type Events struct {
	mu   sync.RWMutex
	subs []subscription
	seq  uint64
}

// Subscribe registers sub under name and returns a function removing it.
func (e *Events) Subscribe(name string, priority int, sub Subscriber) (unsubscribe func()) {
	if sub == nil {
		return func() {}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq++
	seq := e.seq
	e.subs = append(e.subs, subscription{seq: seq, name: name, priority: priority, sub: sub})
	slices.SortStableFunc(e.subs, func(a, b subscription) int { return b.priority - a.priority })
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.subs = slices.DeleteFunc(e.subs, func(s subscription) bool { return s.seq == seq })
	}
}

// Len returns the number of subscribers.
func (e *Events) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.subs)
}

// Publish notifies every subscriber and returns their joined errors.
// Panics are recovered and reported as errors.
func (e *Events) Publish(ch Change) error {
	if e == nil {
		return nil
	}
	e.mu.RLock()
	subs := slices.Clone(e.subs)
	e.mu.RUnlock()

	var errs []error
	for _, s := range subs {
		if err := notify(s, ch); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func notify(s subscription, ch Change) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber %s panicked on %s: %v", s.name, ch.Type, r)
		}
	}()
	if err := s.sub.CollectionChanged(ch); err != nil {
		return fmt.Errorf("subscriber %s on %s: %w", s.name, ch.Type, err)
	}
	return nil
}
