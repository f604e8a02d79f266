package hooks

import (
	"log/slog"

	"github.com/mesh-intelligence/wardrobe/internal/game"
	"github.com/mesh-intelligence/wardrobe/internal/meta"
	"github.com/mesh-intelligence/wardrobe/internal/patch"
	"github.com/mesh-intelligence/wardrobe/internal/resolvectx"
)

// CreateCharacterBase wraps the creation of a human model for a. The racial
// scaling, racial model and attachment point tables of the actor's
// collection are overlaid together while the host builds the model, and the
// draw object it returns is tracked.
func (i *Interceptor) CreateCharacterBase(tid resolvectx.ThreadID, a game.Actor, cust game.Customize, create func() game.Address) game.Address {
	if !i.Enabled(EntryCreateCharacterBase) || a == nil {
		return create()
	}
	d, _ := i.resolver.Identify(a, true)
	gr := cust.GenderRace()

	var obj game.Address
	i.overlays(tid, EntryCreateCharacterBase, d, func(guards *patch.GuardSet, dict *meta.Dictionary) {
		i.apply(EntryCreateCharacterBase, guards, dict, meta.KindRsp, patch.ForClan(cust.Clan))
		i.apply(EntryCreateCharacterBase, guards, dict, meta.KindEqdp, patch.ForGenderRace(gr))
		i.apply(EntryCreateCharacterBase, guards, dict, meta.KindEst, patch.ForGenderRace(gr))
		i.apply(EntryCreateCharacterBase, guards, dict, meta.KindAtch, patch.ForGenderRace(gr))
	}, func() {
		obj = create()
	})
	if obj != 0 {
		i.draws.Track(obj, a.Address())
	}
	return obj
}

// DestroyCharacterBase forgets obj before the host destroys it.
func (i *Interceptor) DestroyCharacterBase(obj game.Address, destroy func()) {
	if i.Enabled(EntryDestroyCharacterBase) {
		i.draws.Forget(obj)
	}
	destroy()
}

// UpdateModels wraps the refresh of the models obj shows. The visibility
// flags of the sets in a, including global visibility rules, and the racial
// model table are overlaid for the call.
func (i *Interceptor) UpdateModels(tid resolvectx.ThreadID, obj game.Address, a game.Appearance, update func()) {
	if !i.Enabled(EntryUpdateModels) {
		update()
		return
	}
	i.overlays(tid, EntryUpdateModels, i.dataFor(obj), func(guards *patch.GuardSet, dict *meta.Dictionary) {
		shown := dict.ForAppearance(a)
		g, err := i.patches.ApplyEqp(shown, a)
		if err != nil {
			i.log.Warn("overlay failed", slog.String("entry", string(EntryUpdateModels)), slog.String("kind", meta.KindEqp.String()), slog.Any("error", err))
		} else {
			guards.Add(g)
		}
		i.apply(EntryUpdateModels, guards, shown, meta.KindEqdp, patch.ForGenderRace(a.GenderRace))
	}, update)
}

// SetupVisor wraps the visor setup of obj wearing head set.
func (i *Interceptor) SetupVisor(tid resolvectx.ThreadID, obj game.Address, set game.PrimaryID, setup func() bool) bool {
	if !i.Enabled(EntrySetupVisor) {
		return setup()
	}
	var ok bool
	i.overlays(tid, EntrySetupVisor, i.dataFor(obj), func(guards *patch.GuardSet, dict *meta.Dictionary) {
		i.apply(EntrySetupVisor, guards, dict, meta.KindGmp, patch.ForSet(set))
	}, func() {
		ok = setup()
	})
	return ok
}

// ChangeCustomize wraps an in-place customization change of obj.
func (i *Interceptor) ChangeCustomize(tid resolvectx.ThreadID, obj game.Address, cust game.Customize, change func() bool) bool {
	if !i.Enabled(EntryChangeCustomize) {
		return change()
	}
	gr := cust.GenderRace()
	var ok bool
	i.overlays(tid, EntryChangeCustomize, i.dataFor(obj), func(guards *patch.GuardSet, dict *meta.Dictionary) {
		i.apply(EntryChangeCustomize, guards, dict, meta.KindRsp, patch.ForClan(cust.Clan))
		i.apply(EntryChangeCustomize, guards, dict, meta.KindEst, patch.ForGenderRace(gr))
	}, func() {
		ok = change()
	})
	return ok
}

// LoadImc wraps the load of the IMC file named by file for obj. Only the
// rows of that file are overlaid.
func (i *Interceptor) LoadImc(tid resolvectx.ThreadID, obj game.Address, file meta.ImcIdentifier, load func()) {
	if !i.Enabled(EntryLoadImc) {
		load()
		return
	}
	i.overlays(tid, EntryLoadImc, i.dataFor(obj), func(guards *patch.GuardSet, dict *meta.Dictionary) {
		i.apply(EntryLoadImc, guards, dict, meta.KindImc, patch.ForImc(file))
	}, load)
}

// ActorDestroyed forwards the destruction of an actor to the resolver and
// forgets its draw objects.
func (i *Interceptor) ActorDestroyed(actor game.Address) {
	i.resolver.ActorDestroyed(actor)
	if n := i.draws.ForgetActor(actor); n > 0 {
		i.log.Debug("draw objects forgotten", slog.Int("count", n))
	}
}

// ZoneChanged forwards a zone change to the resolver.
func (i *Interceptor) ZoneChanged() { i.resolver.ZoneChanged() }

// dataFor returns the data of the actor that created obj, or invalid data
// for untracked draw objects.
func (i *Interceptor) dataFor(obj game.Address) resolvectx.ResolveData {
	actor, ok := i.draws.Actor(obj)
	if !ok {
		return resolvectx.ResolveData{}
	}
	return i.resolver.IdentifyByAddress(actor, true)
}
