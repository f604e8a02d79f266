// Package hooks implements the shims installed on host entry points.
//
// Each shim receives the host thread it runs on and the original routine,
// and follows save, stamp, call, restore: it identifies the collection the
// call is for, stamps the resolution context and any table overlays, calls
// through to the original routine and restores the previous state on every
// exit path. A failure inside a shim is logged and the original routine runs
// unmodified; shims never panic into host code. Panics raised by the
// original routine itself propagate after the state is restored.
package hooks

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/mesh-intelligence/wardrobe/internal/meta"
	"github.com/mesh-intelligence/wardrobe/internal/patch"
	"github.com/mesh-intelligence/wardrobe/internal/resolvectx"
	"github.com/mesh-intelligence/wardrobe/internal/resolver"
)

// EntryPoint names an intercepted host routine.
type EntryPoint string

// Intercepted entry points.
const (
	EntryCreateCharacterBase  EntryPoint = "CreateCharacterBase"
	EntryDestroyCharacterBase EntryPoint = "DestroyCharacterBase"
	EntryUpdateModels         EntryPoint = "UpdateModels"
	EntrySetupVisor           EntryPoint = "SetupVisor"
	EntryChangeCustomize      EntryPoint = "ChangeCustomize"
	EntryLoadImc              EntryPoint = "LoadImc"
	EntryResolvePath          EntryPoint = "ResolvePath"
	EntryLoadResource         EntryPoint = "LoadResource"
	EntryLoadTimeline         EntryPoint = "LoadTimeline"
	EntryPlayCharacterSound   EntryPoint = "PlayCharacterSound"
)

// EntryPoints lists every intercepted entry point.
var EntryPoints = []EntryPoint{
	EntryCreateCharacterBase, EntryDestroyCharacterBase, EntryUpdateModels,
	EntrySetupVisor, EntryChangeCustomize, EntryLoadImc, EntryResolvePath,
	EntryLoadResource, EntryLoadTimeline, EntryPlayCharacterSound,
}

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithLogger sets the logger. A nil logger uses slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(i *Interceptor) {
		if l != nil {
			i.log = l
		}
	}
}

// WithContext sets the resolution context shared with other components.
func WithContext(c *resolvectx.Context) Option {
	return func(i *Interceptor) {
		if c != nil {
			i.ctx = c
		}
	}
}

// Interceptor holds the state shared by the shims.
type Interceptor struct {
	resolver *resolver.Resolver
	patches  *patch.Manager
	ctx      *resolvectx.Context
	draws    DrawObjects
	log      *slog.Logger

	// Secondary-load trackers. Loads triggered by a timeline or a sound
	// have no draw object and use the actor that started them.
	timeline resolvectx.ThreadLocal[resolvectx.ResolveData]
	sound    resolvectx.ThreadLocal[resolvectx.ResolveData]
	// loading is the data of the resource load in flight, inherited by the
	// loads it triggers synchronously.
	loading resolvectx.ThreadLocal[resolvectx.ResolveData]

	mu       sync.RWMutex
	disabled map[EntryPoint]bool
}

// New returns an interceptor resolving through r. patches may be nil, in
// which case no table overlays are applied.
func New(r *resolver.Resolver, patches *patch.Manager, opts ...Option) *Interceptor {
	i := &Interceptor{
		resolver: r,
		patches:  patches,
		log:      slog.Default(),
		disabled: make(map[EntryPoint]bool),
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.ctx == nil {
		i.ctx = resolvectx.New()
	}
	i.log = i.log.With(slog.String("component", "hooks"))
	return i
}

// Context returns the resolution context the shims stamp.
func (i *Interceptor) Context() *resolvectx.Context { return i.ctx }

// DrawObjects returns the draw object tracker.
func (i *Interceptor) DrawObjects() *DrawObjects { return &i.draws }

// Enable turns the shim of e back on.
func (i *Interceptor) Enable(e EntryPoint) {
	i.mu.Lock()
	delete(i.disabled, e)
	i.mu.Unlock()
}

// Disable makes the shim of e call through without doing anything.
func (i *Interceptor) Disable(e EntryPoint) {
	i.mu.Lock()
	i.disabled[e] = true
	i.mu.Unlock()
}

// Enabled reports whether the shim of e is active.
func (i *Interceptor) Enabled(e EntryPoint) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return !i.disabled[e]
}

// protect runs fn and turns a panic into a logged error. It reports whether
// fn returned normally.
func (i *Interceptor) protect(e EntryPoint, fn func()) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			i.log.Error("interception failed", slog.String("entry", string(e)), slog.String("panic", fmt.Sprint(p)))
			ok = false
		}
	}()
	fn()
	return true
}

// overlays applies the manipulations apply selects from the collection of
// d, stamps d, calls through and restores both. If applying fails the call
// proceeds with neither overlays nor a stamp.
func (i *Interceptor) overlays(tid resolvectx.ThreadID, e EntryPoint, d resolvectx.ResolveData, apply func(*patch.GuardSet, *meta.Dictionary), call func()) {
	var guards patch.GuardSet
	defer i.closeGuards(e, &guards)
	if d.Valid() && i.patches != nil {
		if !i.protect(e, func() { apply(&guards, d.Collection.Meta()) }) {
			i.closeGuards(e, &guards)
			d = resolvectx.ResolveData{}
		}
	}
	if d.Valid() {
		defer i.ctx.Stamp(tid, d)()
	}
	call()
}

// apply opens one overlay of kind and adds it to guards. Failures leave the
// kind unpatched.
func (i *Interceptor) apply(e EntryPoint, guards *patch.GuardSet, dict *meta.Dictionary, kind meta.Kind, scope patch.Scope) {
	if dict.CountOf(kind) == 0 {
		return
	}
	g, err := i.patches.Apply(dict, kind, scope)
	if err != nil {
		i.log.Warn("overlay failed", slog.String("entry", string(e)), slog.String("kind", kind.String()), slog.Any("error", err))
		return
	}
	guards.Add(g)
}

func (i *Interceptor) closeGuards(e EntryPoint, guards *patch.GuardSet) {
	if err := guards.Close(); err != nil {
		i.log.Error("revert overlay failed", slog.String("entry", string(e)), slog.Any("error", err))
	}
}
