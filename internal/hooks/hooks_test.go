package hooks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/wardrobe/internal/collections"
	"github.com/mesh-intelligence/wardrobe/internal/game"
	"github.com/mesh-intelligence/wardrobe/internal/meta"
	"github.com/mesh-intelligence/wardrobe/internal/patch"
	"github.com/mesh-intelligence/wardrobe/internal/resolvectx"
	"github.com/mesh-intelligence/wardrobe/internal/resolver"
	"github.com/mesh-intelligence/wardrobe/internal/tables"
)

type testActor struct {
	addr game.Address
	idx  game.ObjectIndex
	name string
	cust game.Customize
}

func (a *testActor) Address() game.Address             { return a.addr }
func (a *testActor) Index() game.ObjectIndex           { return a.idx }
func (a *testActor) Kind() game.ObjectKind             { return game.KindPlayer }
func (a *testActor) Name() string                      { return a.name }
func (a *testActor) HomeWorld() game.WorldID           { return 40 }
func (a *testActor) DataID() uint32                    { return 0 }
func (a *testActor) IsHuman() bool                     { return true }
func (a *testActor) Customize() (game.Customize, bool) { return a.cust, true }
func (a *testActor) Appearance() game.Appearance       { return game.Appearance{} }
func (a *testActor) Owner() (game.Actor, bool)         { return nil, false }

type testObjects []*testActor

func (o testObjects) ByIndex(idx game.ObjectIndex) (game.Actor, bool) {
	for _, a := range o {
		if a.idx == idx {
			return a, true
		}
	}
	return nil, false
}

func (o testObjects) ByAddress(addr game.Address) (game.Actor, bool) {
	for _, a := range o {
		if a.addr == addr {
			return a, true
		}
	}
	return nil, false
}

func (o testObjects) LocalPlayer() (game.Actor, bool) { return nil, false }

type loggedIn struct{}

func (loggedIn) IsLoggedIn() bool        { return true }
func (loggedIn) InCharacterEditor() bool { return false }

// panicMemory is a table whose writes fail the way a bad host pointer does.
type panicMemory struct{ *tables.ByteMemory }

func (panicMemory) WriteAt([]byte, int64) (int, error) { panic("access violation") }

const (
	tid     resolvectx.ThreadID = 11
	drawObj game.Address        = 0xD0
)

const modelMdl = "chara/human/c0401/obj/body/b0001/model/c0401b0001_top.mdl"

var (
	rspID = meta.RspIdentifier{SubRace: game.Highlander, Attribute: meta.RspFemaleMaxSize}
	eqpID = meta.EqpIdentifier{SetID: 1201, Slot: game.SlotBody}
)

type fixture struct {
	i     *Interceptor
	set   *tables.Set
	pm    *patch.Manager
	tall  *collections.Collection
	actor *testActor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	manips := &meta.Dictionary{}
	require.True(t, manips.TryAdd(rspID, meta.RspEntry(2.5)))
	require.True(t, manips.TryAdd(eqpID, meta.EqpEntry(0x07)))
	mods := collections.StaticMods{{
		Name: "Tall",
		Default: collections.Data{
			Files: map[string]string{
				modelMdl:             "mods/tall/top.mdl",
				"chara/x/mt.mtrl":    "mods/tall/mt.mtrl",
				"chara/action/a.pap": "mods/tall/a.pap",
				"sound/voice.scd":    "mods/tall/voice.scd",
			},
			Manipulations: manips,
		},
	}}
	reg := collections.New(mods)
	require.NoError(t, reg.Load())
	tall, err := reg.Create("Tall")
	require.NoError(t, err)
	require.NoError(t, reg.SetModEnabled(tall, "Tall", true))
	require.NoError(t, reg.Active().SetRole(collections.GroupRole(game.Highlander, game.Female, false), tall))

	actor := &testActor{
		addr: 0x100, idx: 2, name: "Hana Tall",
		cust: game.Customize{Race: game.Hyur, Clan: game.Highlander, Gender: game.Female, BodyType: game.BodyTypeNormal},
	}
	res := resolver.New(reg, testObjects{actor}, loggedIn{})
	t.Cleanup(res.Close)
	set := tables.NewDefaultSet()
	pm := patch.NewManager(set, nil)
	return &fixture{i: New(res, pm), set: set, pm: pm, tall: tall, actor: actor}
}

func (f *fixture) read(t *testing.T, id meta.Identifier) any {
	t.Helper()
	v, err := f.set.Read(id)
	require.NoError(t, err)
	return v
}

func TestCreateCharacterBaseOverlaysAndRestores(t *testing.T) {
	f := newFixture(t)
	before := f.read(t, rspID)

	called := false
	obj := f.i.CreateCharacterBase(tid, f.actor, f.actor.cust, func() game.Address {
		called = true
		assert.Equal(t, meta.RspEntry(2.5), f.read(t, rspID))
		assert.Same(t, f.tall, f.i.Context().Current(tid).Collection)
		return drawObj
	})
	require.True(t, called)
	assert.Equal(t, drawObj, obj)
	assert.Equal(t, before, f.read(t, rspID))
	assert.Zero(t, f.pm.Active())
	assert.False(t, f.i.Context().Current(tid).Valid())

	owner, ok := f.i.DrawObjects().Actor(drawObj)
	require.True(t, ok)
	assert.Equal(t, f.actor.addr, owner)

	f.i.DestroyCharacterBase(drawObj, func() {})
	assert.Zero(t, f.i.DrawObjects().Len())
}

func TestHostPanicStillRestores(t *testing.T) {
	f := newFixture(t)
	before := f.read(t, rspID)
	assert.Panics(t, func() {
		f.i.CreateCharacterBase(tid, f.actor, f.actor.cust, func() game.Address { panic("host crash") })
	})
	assert.Equal(t, before, f.read(t, rspID))
	assert.False(t, f.i.Context().Current(tid).Valid())
	assert.Zero(t, f.i.DrawObjects().Len())
}

func TestShimFailureCallsThroughUnmodified(t *testing.T) {
	f := newFixture(t)
	f.set.Register(tables.RspKey(), panicMemory{tables.NewByteMemory(tables.RspTableSize)})

	called := false
	obj := f.i.CreateCharacterBase(tid, f.actor, f.actor.cust, func() game.Address {
		called = true
		assert.False(t, f.i.Context().Current(tid).Valid(), "a failed overlay drops the collection")
		return drawObj
	})
	assert.True(t, called)
	assert.Equal(t, drawObj, obj)
}

func TestUpdateModelsOverlaysShownSets(t *testing.T) {
	f := newFixture(t)
	f.i.DrawObjects().Track(drawObj, f.actor.addr)
	var a game.Appearance
	a.GenderRace = game.HighlanderFemale
	a.Clan = game.Highlander
	a.SetItem(game.SlotBody, 1201)

	before := f.read(t, eqpID)
	f.i.UpdateModels(tid, drawObj, a, func() {
		assert.Equal(t, meta.EqpEntry(0x07), f.read(t, eqpID))
	})
	assert.Equal(t, before, f.read(t, eqpID))

	a.SetItem(game.SlotBody, 1)
	f.i.UpdateModels(tid, drawObj, a, func() {
		assert.Equal(t, before, f.read(t, eqpID), "sets not worn are not overlaid")
	})
}

func TestResolveThenLoad(t *testing.T) {
	f := newFixture(t)
	f.i.DrawObjects().Track(drawObj, f.actor.addr)

	assert.Equal(t, modelMdl, f.i.ResolvePath(tid, drawObj, modelMdl))
	assert.Same(t, f.tall, f.i.Context().Current(tid).Collection)

	var loaded, nested string
	f.i.LoadResource(tid, modelMdl, func(path string) game.Address {
		loaded = path
		f.i.LoadResource(tid, "sound/voice.scd", func(path string) game.Address {
			nested = path
			return 2
		})
		return 1
	})
	assert.Equal(t, "mods/tall/top.mdl", loaded)
	assert.Equal(t, "mods/tall/voice.scd", nested, "synchronous loads inherit the collection")

	f.i.LoadResource(tid, modelMdl, func(path string) game.Address {
		loaded = path
		return 1
	})
	assert.Equal(t, modelMdl, loaded, "the stamp was consumed; the default collection applies")
}

func TestMaterialBlurbSurvivesToLoad(t *testing.T) {
	f := newFixture(t)
	f.i.DrawObjects().Track(drawObj, f.actor.addr)

	blurbed := f.i.ResolvePath(tid, drawObj, "chara/x/mt.mtrl")
	require.NotEqual(t, "chara/x/mt.mtrl", blurbed)
	assert.False(t, f.i.Context().Current(tid).Valid(), "materials carry their data in the path")

	var loaded, nested string
	f.i.LoadResource(99, blurbed, func(path string) game.Address {
		loaded = path
		f.i.LoadResource(99, "chara/action/a.pap", func(path string) game.Address {
			nested = path
			return 0
		})
		return 0
	})
	assert.Equal(t, "mods/tall/mt.mtrl", loaded)
	assert.Equal(t, "mods/tall/a.pap", nested)
}

func TestSecondaryLoadTrackers(t *testing.T) {
	f := newFixture(t)
	load := func(p string) string {
		var got string
		f.i.LoadResource(tid, p, func(path string) game.Address {
			got = path
			return 0
		})
		return got
	}

	f.i.LoadTimeline(tid, f.actor, func() {
		assert.Equal(t, "mods/tall/a.pap", load("chara/action/a.pap"))
		assert.Equal(t, "sound/voice.scd", load("sound/voice.scd"), "timelines do not govern sounds")
	})
	f.i.PlayCharacterSound(tid, f.actor, func() {
		assert.Equal(t, "mods/tall/voice.scd", load("sound/voice.scd"))
	})
	assert.Equal(t, "chara/action/a.pap", load("chara/action/a.pap"))
	assert.Equal(t, "sound/voice.scd", load("sound/voice.scd"))
}

func TestDisabledEntryPointsCallThrough(t *testing.T) {
	f := newFixture(t)
	f.i.DrawObjects().Track(drawObj, f.actor.addr)
	for _, e := range EntryPoints {
		f.i.Disable(e)
	}
	assert.False(t, f.i.Enabled(EntryResolvePath))

	assert.Equal(t, "chara/x/mt.mtrl", f.i.ResolvePath(tid, drawObj, "chara/x/mt.mtrl"))
	f.i.CreateCharacterBase(tid, f.actor, f.actor.cust, func() game.Address {
		assert.False(t, f.i.Context().Current(tid).Valid())
		return 0
	})
	f.i.Enable(EntryResolvePath)
	assert.True(t, f.i.Enabled(EntryResolvePath))
}

func TestActorDestroyedForgetsDrawObjects(t *testing.T) {
	f := newFixture(t)
	f.i.DrawObjects().Track(1, f.actor.addr)
	f.i.DrawObjects().Track(2, f.actor.addr)
	f.i.DrawObjects().Track(3, 0x999)
	f.i.ActorDestroyed(f.actor.addr)
	assert.Equal(t, 1, f.i.DrawObjects().Len())
	_, ok := f.i.DrawObjects().Actor(1)
	assert.False(t, ok)
}
