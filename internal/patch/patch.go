// Package patch overlays a collection's manipulations onto the shared tables
// for the lifetime of a guard.
//
// Every patched record is tracked as a cell holding the bytes the table had
// before the first overlay and the overlays currently active on it, in
// application order. Closing a guard removes its overlays and rewrites each
// cell from its base bytes and the overlays that remain, so guards may be
// closed in any order and a cell returns to its exact original bytes once its
// last overlay is gone.
package patch

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/mesh-intelligence/wardrobe/internal/meta"
	"github.com/mesh-intelligence/wardrobe/internal/tables"
)

type cellKey struct {
	table  tables.Key
	offset int64
}

type overlay struct {
	guard uint64
	id    meta.Identifier
	entry any
}

// forcedEqp is an EQP overlay that sets its bits on the record as it stands
// beneath the overlay instead of replacing the slot.
type forcedEqp meta.EqpEntry

func encodeOverlay(id meta.Identifier, entry any, current []byte) ([]byte, error) {
	if f, ok := entry.(forcedEqp); ok {
		below, err := tables.Decode(id, current)
		if err != nil {
			return nil, err
		}
		entry = below.(meta.EqpEntry) | meta.EqpEntry(f)
	}
	return tables.Encode(id, entry, current)
}

type cell struct {
	mem      tables.Memory
	base     []byte
	overlays []overlay
}

// Manager owns every active overlay on one table set.
type Manager struct {
	tables *tables.Set
	log    *slog.Logger

	mu    sync.Mutex
	cells map[cellKey]*cell
	seq   uint64
}

// NewManager returns a manager patching set. A nil logger uses slog.Default.
func NewManager(set *tables.Set, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		tables: set,
		log:    log.With(slog.String("component", "patch")),
		cells:  make(map[cellKey]*cell),
	}
}

// Tables returns the table set the manager patches.
func (m *Manager) Tables() *tables.Set { return m.tables }

// Active returns the number of records currently carrying an overlay.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cells)
}

// Scope selects which identifiers of a kind an Apply call overlays.
type Scope func(meta.Identifier) bool

// Apply overlays every manipulation of kind in d selected by scope. A nil
// scope selects everything. Manipulations whose table is not loaded are
// skipped. On error nothing stays applied.
func (m *Manager) Apply(d *meta.Dictionary, kind meta.Kind, scope Scope) (*Guard, error) {
	g := m.newGuard()
	for id, entry := range d.All() {
		if id.Kind() != kind || (scope != nil && !scope(id)) {
			continue
		}
		if err := m.overlay(g, id, entry); err != nil {
			return nil, errors.Join(err, g.Close())
		}
	}
	return g, nil
}

// Set overlays a single manipulation.
func (m *Manager) Set(id meta.Identifier, entry any) (*Guard, error) {
	g := m.newGuard()
	if err := m.overlay(g, id, entry); err != nil {
		return nil, errors.Join(err, g.Close())
	}
	return g, nil
}

func (m *Manager) newGuard() *Guard {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return &Guard{m: m, id: m.seq}
}

func (m *Manager) overlay(g *Guard, id meta.Identifier, entry any) error {
	mem, loc, err := m.tables.Resolve(id)
	switch {
	case errors.Is(err, tables.ErrNotAvailable):
		m.log.Debug("table not loaded", slog.String("id", id.String()), slog.String("table", loc.Key.String()))
		return nil
	case err != nil:
		return fmt.Errorf("apply %s: %w", id, err)
	}
	check := entry
	if f, ok := entry.(forcedEqp); ok {
		check = meta.EqpEntry(f)
	}
	if !meta.ValidEntry(id, check) {
		return fmt.Errorf("apply %s: %w", id, meta.ErrInvalidEntry)
	}

	key := cellKey{table: loc.Key, offset: loc.Offset}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cells[key]
	if !ok {
		base := make([]byte, loc.Size)
		if _, err := mem.ReadAt(base, loc.Offset); err != nil {
			return fmt.Errorf("apply %s: read base: %w", id, err)
		}
		c = &cell{mem: mem, base: base}
		m.cells[key] = c
	}
	c.overlays = append(c.overlays, overlay{guard: g.id, id: id, entry: entry})
	if err := m.write(key, c); err != nil {
		c.overlays = c.overlays[:len(c.overlays)-1]
		_ = m.settle(key, c)
		return fmt.Errorf("apply %s: %w", id, err)
	}
	g.cells = append(g.cells, key)
	return nil
}

// write stores the bytes of c: its base with every active overlay applied in
// order. Caller holds m.mu.
func (m *Manager) write(key cellKey, c *cell) error {
	buf := slices.Clone(c.base)
	for _, ov := range c.overlays {
		next, err := encodeOverlay(ov.id, ov.entry, buf)
		if err != nil {
			return err
		}
		buf = next
	}
	if _, err := c.mem.WriteAt(buf, key.offset); err != nil {
		return fmt.Errorf("write %s at %d: %w", key.table, key.offset, err)
	}
	return nil
}

// settle rewrites c after overlays were removed and forgets it once none
// remain. Caller holds m.mu.
func (m *Manager) settle(key cellKey, c *cell) error {
	if len(c.overlays) == 0 {
		delete(m.cells, key)
		if _, err := c.mem.WriteAt(c.base, key.offset); err != nil {
			return fmt.Errorf("restore %s at %d: %w", key.table, key.offset, err)
		}
		return nil
	}
	return m.write(key, c)
}

// release removes the overlays of guard from the cells it touched, newest
// first.
func (m *Manager) release(guard uint64, keys []cellKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	for i := len(keys) - 1; i >= 0; i-- {
		key := keys[i]
		c, ok := m.cells[key]
		if !ok {
			continue
		}
		before := len(c.overlays)
		c.overlays = slices.DeleteFunc(c.overlays, func(ov overlay) bool { return ov.guard == guard })
		if len(c.overlays) == before {
			continue
		}
		if err := m.settle(key, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
