package hooks

import (
	"log/slog"

	"github.com/mesh-intelligence/wardrobe/internal/game"
	"github.com/mesh-intelligence/wardrobe/internal/resolvectx"
	"github.com/mesh-intelligence/wardrobe/internal/resolver"
)

// ResolvePath wraps the host resolving the file path of a model part of obj.
// Materials come back with a path blurb naming the collection; every other
// path is returned unchanged with the collection stamped on tid for the load
// the host starts next.
func (i *Interceptor) ResolvePath(tid resolvectx.ThreadID, obj game.Address, gamePath string) string {
	if !i.Enabled(EntryResolvePath) {
		return gamePath
	}
	out := gamePath
	i.protect(EntryResolvePath, func() {
		d := i.dataFor(obj)
		if !d.Valid() {
			d = i.ctx.Current(tid)
		}
		if resolver.TypeOf(gamePath) == resolver.TypeMaterial {
			out, _, _ = i.resolver.ResolvePath(gamePath, d)
			return
		}
		if d.Valid() {
			out = i.ctx.ResolvePath(tid, d, gamePath)
		}
	})
	return out
}

// LoadResource wraps a file load. The collection is taken from a path blurb,
// else from the data stamped on tid, else from the load in flight on tid,
// else from the timeline or sound tracker for animation and sound files.
// The load is called with the redirected path, and loads it triggers
// synchronously inherit its collection.
func (i *Interceptor) LoadResource(tid resolvectx.ThreadID, gamePath string, load func(path string) game.Address) game.Address {
	if !i.Enabled(EntryLoadResource) {
		return load(gamePath)
	}
	path := gamePath
	var d resolvectx.ResolveData
	if !i.protect(EntryLoadResource, func() { path, d = i.redirect(tid, gamePath) }) {
		path, d = gamePath, resolvectx.ResolveData{}
	}
	if d.Valid() {
		prev := i.loading.Swap(tid, d)
		defer restoreLocal(&i.loading, tid, prev)
	}
	return load(path)
}

func (i *Interceptor) redirect(tid resolvectx.ThreadID, gamePath string) (string, resolvectx.ResolveData) {
	original, d := i.resolver.ParsePath(gamePath)
	stamped := i.ctx.Consume(tid)
	if !d.Valid() {
		d = stamped
	}
	if !d.Valid() {
		d = i.loading.Get(tid)
	}
	if !d.Valid() {
		switch resolver.TypeOf(original) {
		case resolver.TypeTimeline, resolver.TypeAnim, resolver.TypeVfx:
			d = i.timeline.Get(tid)
		case resolver.TypeSound:
			d = i.sound.Get(tid)
		}
	}
	c := d.ModCollection(i.resolver.Registry().Active().Default())
	r, ok := c.Resolve(original)
	if !ok {
		return original, d
	}
	i.log.Debug("resource redirected", slog.String("path", original), slog.String("target", r.Path),
		slog.String("mod", r.Mod), slog.String("collection", c.Name()))
	return r.Path, resolvectx.NewResolveData(c, d.Actor)
}

// LoadTimeline wraps the host loading an animation timeline for a. Files
// the timeline loads on tid resolve through the collection of a.
func (i *Interceptor) LoadTimeline(tid resolvectx.ThreadID, a game.Actor, load func()) {
	i.tracked(tid, EntryLoadTimeline, &i.timeline, a, load)
}

// PlayCharacterSound wraps the host playing a sound for a.
func (i *Interceptor) PlayCharacterSound(tid resolvectx.ThreadID, a game.Actor, play func()) {
	i.tracked(tid, EntryPlayCharacterSound, &i.sound, a, play)
}

func (i *Interceptor) tracked(tid resolvectx.ThreadID, e EntryPoint, slot *resolvectx.ThreadLocal[resolvectx.ResolveData], a game.Actor, call func()) {
	if !i.Enabled(e) || a == nil {
		call()
		return
	}
	d, _ := i.resolver.Identify(a, true)
	prev := slot.Swap(tid, d)
	defer restoreLocal(slot, tid, prev)
	call()
}

func restoreLocal(slot *resolvectx.ThreadLocal[resolvectx.ResolveData], tid resolvectx.ThreadID, prev resolvectx.ResolveData) {
	if !prev.Valid() {
		slot.Clear(tid)
		return
	}
	slot.Swap(tid, prev)
}
