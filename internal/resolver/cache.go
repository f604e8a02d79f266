package resolver

import (
	"sync"
	"sync/atomic"

	"github.com/mesh-intelligence/wardrobe/internal/actors"
	"github.com/mesh-intelligence/wardrobe/internal/collections"
	"github.com/mesh-intelligence/wardrobe/internal/game"
)

// Entry is a cached identification.
type Entry struct {
	Identity   actors.Identifier
	Collection *collections.Collection
}

// Cache memoizes identifications by actor address. Invalidate only marks the
// cache dirty; the next access clears it. Readers on other threads may see
// entries of the previous generation until that access happens.
//
// Every invalidation starts a new generation. A result computed in an older
// generation is never stored, so an invalidation that lands between a miss
// and the Set of its result is not lost.
type Cache struct {
	entries sync.Map // game.Address -> Entry
	dirty   atomic.Bool
	gen     atomic.Uint64
	size    atomic.Int64
}

// Generation returns the current generation. Read it before computing a
// result and pass it to Set.
func (c *Cache) Generation() uint64 { return c.gen.Load() }

// Get returns the entry of addr. A dirty cache is cleared and misses.
func (c *Cache) Get(addr game.Address) (Entry, bool) {
	if c.clearIfDirty() {
		return Entry{}, false
	}
	v, ok := c.entries.Load(addr)
	if !ok {
		return Entry{}, false
	}
	return v.(Entry), true
}

// Set stores the entry of addr if no invalidation happened since gen was
// read. It reports whether the entry was kept.
func (c *Cache) Set(addr game.Address, e Entry, gen uint64) bool {
	c.clearIfDirty()
	if c.gen.Load() != gen {
		return false
	}
	if _, loaded := c.entries.Swap(addr, e); !loaded {
		c.size.Add(1)
	}
	// An invalidation may have been observed and cleared by another reader
	// between the check and the store.
	if c.gen.Load() != gen {
		if _, ok := c.entries.LoadAndDelete(addr); ok {
			c.size.Add(-1)
		}
		return false
	}
	return true
}

// Invalidate marks every entry stale and starts a new generation.
func (c *Cache) Invalidate() {
	c.gen.Add(1)
	c.dirty.Store(true)
}

// Dirty reports whether an invalidation is pending.
func (c *Cache) Dirty() bool { return c.dirty.Load() }

// Len returns the approximate number of entries.
func (c *Cache) Len() int { return int(c.size.Load()) }

func (c *Cache) clearIfDirty() bool {
	if !c.dirty.CompareAndSwap(true, false) {
		return false
	}
	c.entries.Clear()
	c.size.Store(0)
	return true
}
