// Package resolvectx holds the per-thread state that ties an asset load to
// the collection it was started for, and the path blurb that carries the
// same information through callbacks that only see a path string.
//
// Host threads are identified by an explicit ThreadID passed in by the
// interception layer. Every interception point follows save, stamp, call,
// restore:
//
//	defer ctx.Stamp(tid, data)()
//	callOriginal()
package resolvectx

import (
	"sync"

	"github.com/mesh-intelligence/wardrobe/internal/collections"
	"github.com/mesh-intelligence/wardrobe/internal/game"
)

// ThreadID identifies the host thread an intercepted call runs on.
type ThreadID uint64

// ResolveData ties a load to a collection and the actor it is for. The zero
// value is invalid.
type ResolveData struct {
	Collection *collections.Collection
	Actor      game.Address
	valid      bool
}

// NewResolveData returns valid data for c. A nil collection yields invalid
// data.
func NewResolveData(c *collections.Collection, actor game.Address) ResolveData {
	return ResolveData{Collection: c, Actor: actor, valid: c != nil}
}

// Valid reports whether d names a collection.
func (d ResolveData) Valid() bool { return d.valid }

// ModCollection returns the collection of d, or fallback when d is invalid.
func (d ResolveData) ModCollection(fallback *collections.Collection) *collections.Collection {
	if d.valid {
		return d.Collection
	}
	return fallback
}

// ThreadLocal is a value per ThreadID. The zero value is ready to use and
// safe for concurrent use by different threads.
type ThreadLocal[T any] struct {
	m sync.Map
}

// Get returns the value of tid, or the zero value.
func (l *ThreadLocal[T]) Get(tid ThreadID) T {
	if v, ok := l.m.Load(tid); ok {
		return v.(T)
	}
	var zero T
	return zero
}

// Swap stores v for tid and returns the previous value.
func (l *ThreadLocal[T]) Swap(tid ThreadID, v T) T {
	prev, ok := l.m.Swap(tid, v)
	if !ok {
		var zero T
		return zero
	}
	return prev.(T)
}

// Take returns the value of tid and clears it.
func (l *ThreadLocal[T]) Take(tid ThreadID) T {
	if v, ok := l.m.LoadAndDelete(tid); ok {
		return v.(T)
	}
	var zero T
	return zero
}

// Clear removes the value of tid.
func (l *ThreadLocal[T]) Clear(tid ThreadID) { l.m.Delete(tid) }

// Context is the resolution context of every host thread.
type Context struct {
	current  ThreadLocal[ResolveData]
	suppress ThreadLocal[int]
}

// New returns an empty context.
func New() *Context { return &Context{} }

// Current returns the data stamped on tid without consuming it.
func (c *Context) Current(tid ThreadID) ResolveData {
	return c.current.Get(tid)
}

// Suppressed reports whether internal resolution is in progress on tid.
func (c *Context) Suppressed(tid ThreadID) bool {
	return c.suppress.Get(tid) > 0
}

// Set stamps d on tid and returns the previous value for Restore. While
// suppressed, Set changes nothing and returns the current value.
func (c *Context) Set(tid ThreadID, d ResolveData) ResolveData {
	if c.Suppressed(tid) {
		return c.current.Get(tid)
	}
	return c.current.Swap(tid, d)
}

// Restore puts back a value returned by Set. While suppressed, Restore
// changes nothing.
func (c *Context) Restore(tid ThreadID, prev ResolveData) {
	if c.Suppressed(tid) {
		return
	}
	if !prev.valid {
		c.current.Clear(tid)
		return
	}
	c.current.Swap(tid, prev)
}

// Stamp sets d on tid and returns a function restoring the previous value,
// meant to be deferred around a call into host code.
func (c *Context) Stamp(tid ThreadID, d ResolveData) (restore func()) {
	prev := c.Set(tid, d)
	return func() { c.Restore(tid, prev) }
}

// Consume returns the data stamped on tid and clears it, so every stamp is
// used at most once. While suppressed it returns invalid data and leaves the
// stamp in place.
func (c *Context) Consume(tid ThreadID) ResolveData {
	if c.Suppressed(tid) {
		return ResolveData{}
	}
	return c.current.Take(tid)
}

// ResolvePath stamps d on tid and returns path unchanged. Shims that must not
// alter the host's control flow use it to pass data to the load the host
// starts next.
func (c *Context) ResolvePath(tid ThreadID, d ResolveData, path string) string {
	c.Set(tid, d)
	return path
}

// Suppress starts internal resolution on tid and returns the function ending
// it. Calls nest.
func (c *Context) Suppress(tid ThreadID) (release func()) {
	c.suppress.Swap(tid, c.suppress.Get(tid)+1)
	var once sync.Once
	return func() {
		once.Do(func() {
			if n := c.suppress.Get(tid) - 1; n > 0 {
				c.suppress.Swap(tid, n)
			} else {
				c.suppress.Clear(tid)
			}
		})
	}
}
