package tables

import (
	"fmt"
	"sync"

	"github.com/mesh-intelligence/wardrobe/internal/game"
	"github.com/mesh-intelligence/wardrobe/internal/meta"
)

// Set tracks the tables the host currently has loaded. Per-race tables are
// registered at startup; IMC files come and go as the host loads them.
type Set struct {
	mu     sync.RWMutex
	tables map[Key]Memory
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{tables: make(map[Key]Memory)}
}

// Register makes m the table for k, replacing any previous table.
func (s *Set) Register(k Key, m Memory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[k] = m
}

// Unregister forgets the table for k.
func (s *Set) Unregister(k Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tables, k)
}

// Table returns the table for k.
func (s *Set) Table(k Key) (Memory, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.tables[k]
	return m, ok
}

// Len returns the number of registered tables.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables)
}

// Resolve returns the table and location of id.
func (s *Set) Resolve(id meta.Identifier) (Memory, Location, error) {
	loc, err := Locate(id)
	if err != nil {
		return nil, Location{}, err
	}
	m, ok := s.Table(loc.Key)
	if !ok {
		return nil, loc, fmt.Errorf("resolve %s in %s: %w", id, loc.Key, ErrNotAvailable)
	}
	if loc.Offset+int64(loc.Size) > m.Size() {
		return nil, loc, fmt.Errorf("resolve %s in %s: %w", id, loc.Key, ErrOutOfRange)
	}
	return m, loc, nil
}

// Read decodes the value currently stored for id.
func (s *Set) Read(id meta.Identifier) (any, error) {
	m, loc, err := s.Resolve(id)
	if err != nil {
		return nil, err
	}
	raw := make([]byte, loc.Size)
	if _, err := m.ReadAt(raw, loc.Offset); err != nil {
		return nil, fmt.Errorf("read %s: %w", id, err)
	}
	return Decode(id, raw)
}

// NewDefaultSet registers zeroed in-memory copies of every fixed table: the
// global EQP, GMP and RSP tables plus the per-race EQDP, EST and ATCH tables.
// It serves tools and tests that run without a host.
func NewDefaultSet() *Set {
	s := NewSet()
	s.Register(EqpKey(), NewByteMemory(EqpTableSize))
	s.Register(GmpKey(), NewByteMemory(GmpTableSize))
	s.Register(RspKey(), NewByteMemory(RspTableSize))
	for _, gr := range game.GenderRaces {
		s.Register(EqdpKey(gr, false), NewByteMemory(EqdpTableSize))
		s.Register(EqdpKey(gr, true), NewByteMemory(EqdpTableSize))
		s.Register(AtchKey(gr), NewByteMemory(AtchTableSize))
		for _, t := range meta.EstTypes {
			s.Register(EstKey(t, gr), NewByteMemory(EstTableSize))
		}
	}
	return s
}
