// Package resolver decides which collection governs a live actor and
// resolves game paths through that collection.
package resolver

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/mesh-intelligence/wardrobe/internal/actors"
	"github.com/mesh-intelligence/wardrobe/internal/collections"
	"github.com/mesh-intelligence/wardrobe/internal/game"
	"github.com/mesh-intelligence/wardrobe/internal/resolvectx"
	"github.com/mesh-intelligence/wardrobe/pkg/types"
)

// Option configures a Resolver.
type Option func(*Resolver)

// WithCutscenes sets the tracker mapping cutscene copies to their parents.
func WithCutscenes(t game.CutsceneTracker) Option {
	return func(r *Resolver) { r.cutscenes = t }
}

// WithAliases sets the source of NPC data id aliases.
func WithAliases(a actors.AliasSource) Option {
	return func(r *Resolver) { r.aliases = a }
}

// WithConfig sets the initial resolver switches.
func WithConfig(cfg types.ResolverConfig) Option {
	return func(r *Resolver) { r.config.Store(&cfg) }
}

// WithLogger sets the logger. A nil logger uses slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// WithCodec sets the path blurb codec. The default uses a random salt.
func WithCodec(c *resolvectx.Codec) Option {
	return func(r *Resolver) {
		if c != nil {
			r.codec = c
		}
	}
}

// Resolver identifies actors and picks their collection. It is safe for
// concurrent use from any host thread and never panics into its caller.
type Resolver struct {
	registry  *collections.Registry
	objects   game.ObjectTable
	client    game.ClientState
	cutscenes game.CutsceneTracker
	aliases   actors.AliasSource
	factory   *actors.Factory
	codec     *resolvectx.Codec
	cache     Cache
	config    atomic.Pointer[types.ResolverConfig]
	log       *slog.Logger

	unsubscribe func()
}

// New returns a resolver over the collections of reg. It subscribes to reg's
// change events to invalidate its cache; call Close to unsubscribe.
func New(reg *collections.Registry, objects game.ObjectTable, client game.ClientState, opts ...Option) *Resolver {
	r := &Resolver{
		registry: reg,
		objects:  objects,
		client:   client,
		log:      slog.Default(),
	}
	cfg := types.DefaultResolverConfig()
	r.config.Store(&cfg)
	for _, opt := range opts {
		opt(r)
	}
	if r.codec == nil {
		r.codec = resolvectx.NewCodec()
	}
	r.log = r.log.With(slog.String("component", "resolver"))
	r.factory = actors.NewFactory(objects, r.cutscenes, r.aliases)
	r.unsubscribe = reg.Events().Subscribe("identification-cache", collections.PriorityCache,
		collections.SubscriberFunc(r.collectionChanged))
	return r
}

// Close stops listening to collection changes.
func (r *Resolver) Close() {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
}

// Registry returns the collection registry.
func (r *Resolver) Registry() *collections.Registry { return r.registry }

// Codec returns the path blurb codec of this run.
func (r *Resolver) Codec() *resolvectx.Codec { return r.codec }

// Factory returns the identifier factory.
func (r *Resolver) Factory() *actors.Factory { return r.factory }

// Cache returns the identification cache.
func (r *Resolver) Cache() *Cache { return &r.cache }

// Config returns the current switches.
func (r *Resolver) Config() types.ResolverConfig { return *r.config.Load() }

// SetConfig replaces the switches and invalidates the cache.
func (r *Resolver) SetConfig(cfg types.ResolverConfig) {
	r.config.Store(&cfg)
	r.cache.Invalidate()
}

func (r *Resolver) collectionChanged(ch collections.Change) error {
	switch ch.Type {
	case collections.ChangeAssigned, collections.ChangeDeleted, collections.ChangeTemporary, collections.ChangeInheritance:
		r.log.Debug("identification cache invalidated", slog.String("change", ch.Type.String()))
		r.cache.Invalidate()
	}
	return nil
}

// ZoneChanged invalidates the cache after the host changed zones.
func (r *Resolver) ZoneChanged() { r.cache.Invalidate() }

// ActorDestroyed invalidates the cache after the host destroyed an actor,
// whose address may be reused.
func (r *Resolver) ActorDestroyed(game.Address) { r.cache.Invalidate() }

// Identify returns the collection governing a and its identity. Cached
// results are used when useCache is set. Failures resolve to the default
// collection.
func (r *Resolver) Identify(a game.Actor, useCache bool) (d resolvectx.ResolveData, id actors.Identifier) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("identify failed", slog.String("panic", fmt.Sprint(p)))
			d, id = r.defaultData(a), actors.Invalid
		}
	}()
	if a == nil {
		return r.defaultData(nil), actors.Invalid
	}
	addr := a.Address()
	gen := r.cache.Generation()
	if useCache {
		if e, ok := r.cache.Get(addr); ok {
			return resolvectx.NewResolveData(e.Collection, addr), e.Identity
		}
	}
	id = r.factory.FromActor(a)
	c, final := r.collectionFor(a, id)
	if final {
		r.cache.Set(addr, Entry{Identity: id, Collection: c}, gen)
	}
	return resolvectx.NewResolveData(c, addr), id
}

// IdentifyByAddress identifies the actor at addr in the object table.
func (r *Resolver) IdentifyByAddress(addr game.Address, useCache bool) resolvectx.ResolveData {
	if r.objects != nil {
		if a, ok := r.objects.ByAddress(addr); ok {
			d, _ := r.Identify(a, useCache)
			return d
		}
	}
	return resolvectx.NewResolveData(r.registry.Active().Default(), addr)
}

func (r *Resolver) defaultData(a game.Actor) resolvectx.ResolveData {
	var addr game.Address
	if a != nil {
		addr = a.Address()
	}
	return resolvectx.NewResolveData(r.registry.Active().Default(), addr)
}

// collectionFor runs the priority chain. final is false when the result
// depends on customization data the host has not populated yet.
func (r *Resolver) collectionFor(a game.Actor, id actors.Identifier) (*collections.Collection, bool) {
	active := r.registry.Active()
	cfg := r.Config()

	if r.client != nil && !r.client.IsLoggedIn() && a.Name() == "" {
		if c, ok := active.ByRole(collections.Yourself); ok {
			return c, true
		}
		if c, final, ok := r.byAttributes(a); ok || !final {
			return orDefault(c, active), final
		}
		return active.Default(), true
	}

	if r.client != nil && r.client.InCharacterEditor() && cfg.UseYourselfInEditors {
		if c, ok := active.ByRole(collections.Yourself); ok {
			return c, true
		}
	}

	if c, ok := r.byIdentity(id); ok {
		return c, true
	}
	if id.Type == actors.TypeSpecial && id.Special == actors.SpecialExamineScreen && cfg.UseNoModsInInspect {
		return r.registry.Empty(), true
	}

	c, final, ok := r.byYourselfOrAttributes(a, id, cfg)
	if ok {
		return c, final
	}

	if id.Type == actors.TypeOwned && cfg.UseOwnerNameForCharacterCollection {
		if owner, has := a.Owner(); has {
			ownerID := r.factory.FromActor(owner)
			if c, ok := r.byIdentity(ownerID); ok {
				return c, final
			}
			if c, ownerFinal, ok := r.byYourselfOrAttributes(owner, ownerID, cfg); ok {
				return c, final && ownerFinal
			}
		}
	}
	return active.Default(), final
}

func orDefault(c *collections.Collection, active *collections.Active) *collections.Collection {
	if c == nil {
		return active.Default()
	}
	return c
}

// byIdentity looks up temporary, then permanent individual assignments.
func (r *Resolver) byIdentity(id actors.Identifier) (*collections.Collection, bool) {
	if !id.IsValid() {
		return nil, false
	}
	active := r.registry.Active()
	if c, ok := active.TemporaryFor(id); ok {
		return c, true
	}
	return active.Individual(id)
}

func (r *Resolver) byYourselfOrAttributes(a game.Actor, id actors.Identifier, cfg types.ResolverConfig) (*collections.Collection, bool, bool) {
	if r.isYourself(a, id, cfg) {
		if c, ok := r.registry.Active().ByRole(collections.Yourself); ok {
			return c, true, true
		}
	}
	return r.byAttributes(a)
}

// isYourself reports whether a is the local player or a stand-in showing the
// local player.
func (r *Resolver) isYourself(a game.Actor, id actors.Identifier, cfg types.ResolverConfig) bool {
	if id.Type == actors.TypeSpecial {
		if id.Special == actors.SpecialCard {
			return cfg.UseCharacterCollectionsInCards
		}
		if id.Special.ShowsLocalPlayer() {
			return true
		}
	}
	if r.objects == nil {
		return false
	}
	player, ok := r.objects.LocalPlayer()
	if !ok {
		return false
	}
	if a.Address() == player.Address() {
		return true
	}
	if a.Index().IsCutscene() && r.cutscenes != nil {
		if parent, ok := r.cutscenes.Parent(a.Index()); ok {
			return parent == player.Index()
		}
	}
	return false
}

// byAttributes matches human actors against the body type groups, then the
// clan and gender groups, then the gender groups. ok is false when nothing
// matched; final is false when the customization data is not populated yet.
func (r *Resolver) byAttributes(a game.Actor) (c *collections.Collection, final, ok bool) {
	if !a.IsHuman() {
		return nil, true, false
	}
	cust, populated := a.Customize()
	if !populated {
		return nil, false, false
	}
	active := r.registry.Active()
	switch cust.BodyType {
	case game.BodyTypeChild:
		if c, ok := active.ByRole(collections.Child); ok {
			return c, true, true
		}
	case game.BodyTypeElderly:
		if c, ok := active.ByRole(collections.Elderly); ok {
			return c, true, true
		}
	}
	npc := a.Kind() != game.KindPlayer
	if c, ok := active.ByRole(collections.GroupRole(cust.Clan, cust.Gender, npc)); ok {
		return c, true, true
	}
	if c, ok := active.ByRole(collections.GenderRole(cust.Gender, npc)); ok {
		return c, true, true
	}
	return nil, true, false
}
