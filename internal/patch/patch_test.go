package patch

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/wardrobe/internal/game"
	"github.com/mesh-intelligence/wardrobe/internal/meta"
	"github.com/mesh-intelligence/wardrobe/internal/tables"
)

// randomSet registers every fixed table plus one IMC file, each filled with
// random bytes so reverts are checked against non-zero content.
func randomSet(t *testing.T) (*tables.Set, map[tables.Key]*tables.ByteMemory) {
	t.Helper()
	set := tables.NewSet()
	mems := make(map[tables.Key]*tables.ByteMemory)
	reg := func(k tables.Key, size int) {
		buf := make([]byte, size)
		_, err := rand.Read(buf)
		require.NoError(t, err)
		m := tables.FromBytes(buf)
		set.Register(k, m)
		mems[k] = m
	}
	reg(tables.EqpKey(), tables.EqpTableSize)
	reg(tables.GmpKey(), tables.GmpTableSize)
	reg(tables.RspKey(), tables.RspTableSize)
	reg(tables.EqdpKey(game.HighlanderFemale, false), tables.EqdpTableSize)
	reg(tables.EstKey(meta.EstHead, game.HighlanderFemale), tables.EstTableSize)
	reg(tables.AtchKey(game.HighlanderFemale), tables.AtchTableSize)
	reg(tables.ImcKey(imcID), tables.ImcFileSize(5, 4))
	return set, mems
}

var imcID = meta.ImcIdentifier{ObjectType: game.ObjectEquipment, PrimaryID: 77, Variant: 3, EquipSlot: game.SlotLegs}

func snapshot(mems map[tables.Key]*tables.ByteMemory) map[tables.Key][]byte {
	out := make(map[tables.Key][]byte, len(mems))
	for k, m := range mems {
		out[k] = m.Bytes()
	}
	return out
}

func everyKind(t *testing.T) *meta.Dictionary {
	t.Helper()
	gmp, err := meta.NewGmpEntry(meta.GmpFields{Enabled: true, RotationA: 30})
	require.NoError(t, err)
	d := &meta.Dictionary{}
	for _, m := range []struct {
		id    meta.Identifier
		entry any
	}{
		{meta.EqpIdentifier{SetID: 1201, Slot: game.SlotBody}, meta.EqpEntry(0x07)},
		{meta.EqpIdentifier{SetID: 1201, Slot: game.SlotHead}, meta.EqpHeadEnabled},
		{meta.EqdpIdentifier{SetID: 40, Slot: game.SlotFeet, GenderRace: game.HighlanderFemale}, meta.NewEqdpEntry(game.SlotFeet, true, true)},
		{meta.EstIdentifier{SetID: 40, Slot: meta.EstHead, GenderRace: game.HighlanderFemale}, meta.EstEntry(9)},
		{meta.GmpIdentifier{SetID: 40}, gmp},
		{meta.RspIdentifier{SubRace: game.Highlander, Attribute: meta.RspFemaleMaxSize}, meta.RspEntry(2.5)},
		{meta.AtchIdentifier{Type: meta.AtchGun, GenderRace: game.HighlanderFemale, Index: 0}, meta.AtchEntry{Bone: "j_buki_sebo_l", Scale: 1}},
		{imcID, meta.ImcEntry{MaterialID: 9, VfxID: 1}},
	} {
		require.True(t, d.TryAdd(m.id, m.entry), m.id.String())
	}
	return d
}

func TestGuardRevertsEveryKind(t *testing.T) {
	for _, kind := range []meta.Kind{meta.KindEqp, meta.KindEqdp, meta.KindEst, meta.KindGmp, meta.KindRsp, meta.KindAtch, meta.KindImc} {
		t.Run(kind.String(), func(t *testing.T) {
			set, mems := randomSet(t)
			before := snapshot(mems)
			d := everyKind(t)
			m := NewManager(set, nil)

			g, err := m.Apply(d, kind, nil)
			require.NoError(t, err)
			require.Positive(t, g.Len())

			for id, want := range d.All() {
				if id.Kind() != kind {
					continue
				}
				got, err := set.Read(id)
				require.NoError(t, err)
				assert.Equal(t, want, got, id.String())
			}

			require.NoError(t, g.Close())
			assert.Equal(t, before, snapshot(mems))
			assert.Zero(t, m.Active())
			assert.NoError(t, g.Close(), "second close is a no-op")
		})
	}
}

func TestGuardRevertsOnPanic(t *testing.T) {
	set, mems := randomSet(t)
	before := snapshot(mems)
	m := NewManager(set, nil)
	d := everyKind(t)

	func() {
		defer func() { _ = recover() }()
		var guards GuardSet
		defer guards.Close()
		for _, k := range []meta.Kind{meta.KindRsp, meta.KindEqdp, meta.KindAtch} {
			g, err := m.Apply(d, k, nil)
			require.NoError(t, err)
			guards.Add(g)
		}
		panic("model creation failed")
	}()

	assert.Equal(t, before, snapshot(mems))
}

func TestInterleavedGuards(t *testing.T) {
	set, mems := randomSet(t)
	before := snapshot(mems)
	m := NewManager(set, nil)
	body := meta.EqpIdentifier{SetID: 5, Slot: game.SlotBody}
	legs := meta.EqpIdentifier{SetID: 5, Slot: game.SlotLegs}

	first, err := m.Set(body, meta.EqpBodyEnabled)
	require.NoError(t, err)
	second, err := m.Set(legs, meta.EqpLegsEnabled)
	require.NoError(t, err)
	third, err := m.Set(body, meta.EqpEntry(0))
	require.NoError(t, err)

	got, _ := set.Read(body)
	assert.Equal(t, meta.EqpEntry(0), got, "newest overlay wins")

	require.NoError(t, third.Close())
	got, _ = set.Read(body)
	assert.Equal(t, meta.EqpBodyEnabled, got)

	require.NoError(t, first.Close())
	got, _ = set.Read(legs)
	assert.Equal(t, meta.EqpLegsEnabled, got, "closing out of order keeps other overlays")
	assert.Equal(t, 1, m.Active())

	require.NoError(t, second.Close())
	assert.Equal(t, before, snapshot(mems))
}

func TestApplyScope(t *testing.T) {
	set, _ := randomSet(t)
	m := NewManager(set, nil)
	d := everyKind(t)
	require.True(t, d.TryAdd(meta.RspIdentifier{SubRace: game.Midlander, Attribute: meta.RspMaleMaxSize}, meta.RspEntry(1)))

	g, err := m.Apply(d, meta.KindRsp, ForClan(game.Midlander))
	require.NoError(t, err)
	defer g.Close()
	assert.Equal(t, 1, g.Len())
}

func TestApplySkipsUnloadedTables(t *testing.T) {
	m := NewManager(tables.NewSet(), nil)
	g, err := m.Apply(everyKind(t), meta.KindImc, nil)
	require.NoError(t, err)
	assert.Zero(t, g.Len())
	assert.NoError(t, g.Close())
}

func TestApplyEqpForcesGlobalRules(t *testing.T) {
	set, mems := randomSet(t)
	before := snapshot(mems)
	m := NewManager(set, nil)

	var a game.Appearance
	a.SetItem(game.SlotHead, 10)
	a.SetItem(game.SlotBody, 1201)
	a.SetItem(game.SlotNeck, 3)

	d := &meta.Dictionary{}
	require.True(t, d.TryAdd(meta.EqpIdentifier{SetID: 1201, Slot: game.SlotBody}, meta.EqpEntry(0x07)))
	require.True(t, d.TryAdd(meta.GlobalEqpManipulation{Type: meta.GlobalEqpDoNotHideNecklace, Condition: 3}, nil))
	require.True(t, d.TryAdd(meta.GlobalEqpManipulation{Type: meta.GlobalEqpDoNotHideEarrings}, nil))

	headID := meta.EqpIdentifier{SetID: 10, Slot: game.SlotHead}
	headBefore, err := set.Read(headID)
	require.NoError(t, err)

	g, err := m.ApplyEqp(d, a)
	require.NoError(t, err)

	body, _ := set.Read(meta.EqpIdentifier{SetID: 1201, Slot: game.SlotBody})
	assert.Equal(t, meta.EqpEntry(0x07)|meta.EqpBodyShowNecklace, body)
	head, _ := set.Read(headID)
	assert.Equal(t, headBefore.(meta.EqpEntry)|meta.EqpHeadShowEarrings, head)

	require.NoError(t, g.Close())
	assert.Equal(t, before, snapshot(mems))
}

func TestApplyEqpGlobalRulesKeepNoForeignBits(t *testing.T) {
	set, mems := randomSet(t)
	before := snapshot(mems)
	m := NewManager(set, nil)

	var a game.Appearance
	a.SetItem(game.SlotHead, 10)
	headID := meta.EqpIdentifier{SetID: 10, Slot: game.SlotHead}
	headBefore, err := set.Read(headID)
	require.NoError(t, err)

	other, err := m.Set(headID, meta.EqpMask(game.SlotHead)&^meta.EqpHeadShowEarrings)
	require.NoError(t, err)

	d := &meta.Dictionary{}
	require.True(t, d.TryAdd(meta.GlobalEqpManipulation{Type: meta.GlobalEqpDoNotHideEarrings}, nil))
	g, err := m.ApplyEqp(d, a)
	require.NoError(t, err)

	head, _ := set.Read(headID)
	assert.Equal(t, meta.EqpMask(game.SlotHead), head)

	require.NoError(t, other.Close())
	head, _ = set.Read(headID)
	assert.Equal(t, headBefore.(meta.EqpEntry)|meta.EqpHeadShowEarrings, head, "closed overlay leaves no bits behind")

	require.NoError(t, g.Close())
	assert.Equal(t, before, snapshot(mems))
}
