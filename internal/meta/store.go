package meta

import (
	"iter"
	"maps"
	"slices"
)

const kindCount = int(KindAtr) + 1

// kindStore is the type-erased view of one kind's identifier → entry map.
type kindStore interface {
	len() int
	get(id Identifier) (any, bool)
	add(id Identifier, entry any) bool
	update(id Identifier, entry any) bool
	remove(id Identifier) bool
	// union adds the entries of src whose identifiers are absent and returns
	// the number added.
	union(src kindStore) int
	// mergeForced adds the entries of src in identifier order and stops at the
	// first identifier already present.
	mergeForced(src kindStore) (added int, conflict Identifier, ok bool)
	// overlay sets every entry of src, replacing or adding, and returns the
	// number of new identifiers.
	overlay(src kindStore) int
	clone() kindStore
	ids() []Identifier
	equal(o kindStore) bool
}

// store is the concrete map for one kind. V is struct{} for the no-entry kind.
type store[K ordered[K], V comparable] struct {
	m map[K]V
}

func newStore(k Kind) kindStore {
	switch k {
	case KindImc:
		return &store[ImcIdentifier, ImcEntry]{}
	case KindEqdp:
		return &store[EqdpIdentifier, EqdpEntry]{}
	case KindEqp:
		return &store[EqpIdentifier, EqpEntry]{}
	case KindEst:
		return &store[EstIdentifier, EstEntry]{}
	case KindGmp:
		return &store[GmpIdentifier, GmpEntry]{}
	case KindRsp:
		return &store[RspIdentifier, RspEntry]{}
	case KindGlobalEqp:
		return &store[GlobalEqpManipulation, struct{}]{}
	case KindAtch:
		return &store[AtchIdentifier, AtchEntry]{}
	case KindShp:
		return &store[ShpIdentifier, ShpEntry]{}
	case KindAtr:
		return &store[AtrIdentifier, AtrEntry]{}
	default:
		return nil
	}
}

func (s *store[K, V]) len() int { return len(s.m) }

func (s *store[K, V]) key(id Identifier) (K, bool) {
	k, ok := id.(K)
	return k, ok
}

// value converts entry to V. A nil entry is accepted for the no-entry kind.
func (s *store[K, V]) value(entry any) (V, bool) {
	if v, ok := entry.(V); ok {
		return v, true
	}
	var zero V
	if _, unit := any(zero).(struct{}); unit && entry == nil {
		return zero, true
	}
	return zero, false
}

func (s *store[K, V]) get(id Identifier) (any, bool) {
	k, ok := s.key(id)
	if !ok {
		return nil, false
	}
	v, ok := s.m[k]
	return v, ok
}

func (s *store[K, V]) add(id Identifier, entry any) bool {
	k, ok := s.key(id)
	if !ok {
		return false
	}
	v, ok := s.value(entry)
	if !ok {
		return false
	}
	if _, exists := s.m[k]; exists {
		return false
	}
	if s.m == nil {
		s.m = make(map[K]V)
	}
	s.m[k] = v
	return true
}

func (s *store[K, V]) update(id Identifier, entry any) bool {
	k, ok := s.key(id)
	if !ok {
		return false
	}
	v, ok := s.value(entry)
	if !ok {
		return false
	}
	if _, exists := s.m[k]; !exists {
		return false
	}
	s.m[k] = v
	return true
}

func (s *store[K, V]) remove(id Identifier) bool {
	k, ok := s.key(id)
	if !ok {
		return false
	}
	if _, exists := s.m[k]; !exists {
		return false
	}
	delete(s.m, k)
	if len(s.m) == 0 {
		s.m = nil
	}
	return true
}

func (s *store[K, V]) union(src kindStore) int {
	o := src.(*store[K, V])
	added := 0
	for k, v := range o.m {
		if _, exists := s.m[k]; exists {
			continue
		}
		if s.m == nil {
			s.m = make(map[K]V, len(o.m))
		}
		s.m[k] = v
		added++
	}
	return added
}

func (s *store[K, V]) mergeForced(src kindStore) (int, Identifier, bool) {
	o := src.(*store[K, V])
	added := 0
	for _, k := range sortedKeys(o.m) {
		if _, exists := s.m[k]; exists {
			return added, any(k).(Identifier), false
		}
		if s.m == nil {
			s.m = make(map[K]V, len(o.m))
		}
		s.m[k] = o.m[k]
		added++
	}
	return added, nil, true
}

func (s *store[K, V]) overlay(src kindStore) int {
	o := src.(*store[K, V])
	added := 0
	for k, v := range o.m {
		if s.m == nil {
			s.m = make(map[K]V, len(o.m))
		}
		if _, exists := s.m[k]; !exists {
			added++
		}
		s.m[k] = v
	}
	return added
}

func (s *store[K, V]) clone() kindStore {
	if len(s.m) == 0 {
		return &store[K, V]{}
	}
	return &store[K, V]{m: maps.Clone(s.m)}
}

func (s *store[K, V]) ids() []Identifier {
	keys := sortedKeys(s.m)
	out := make([]Identifier, len(keys))
	for i, k := range keys {
		out[i] = any(k).(Identifier)
	}
	return out
}

func (s *store[K, V]) equal(o kindStore) bool {
	return maps.Equal(s.m, o.(*store[K, V]).m)
}

func sortedKeys[K ordered[K], V any](m map[K]V) []K {
	keys := slices.Collect(maps.Keys(m))
	slices.SortFunc(keys, func(a, b K) int { return a.Compare(b) })
	return keys
}

// sorted iterates m in identifier order.
func sorted[K ordered[K], V any](m map[K]V) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, k := range sortedKeys(m) {
			if !yield(k, m[k]) {
				return
			}
		}
	}
}
