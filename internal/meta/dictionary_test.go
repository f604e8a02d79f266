package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/wardrobe/internal/game"
)

func eqpID(set game.PrimaryID, slot game.EquipSlot) EqpIdentifier {
	return EqpIdentifier{SetID: set, Slot: slot}
}

func rspID(clan game.SubRace, attr RspAttribute) RspIdentifier {
	return RspIdentifier{SubRace: clan, Attribute: attr}
}

func TestDictionaryTryAdd(t *testing.T) {
	tests := []struct {
		name  string
		id    Identifier
		entry any
		want  bool
	}{
		{"eqp body bits", eqpID(1, game.SlotBody), EqpBodyEnabled, true},
		{"eqp bits of another slot", eqpID(1, game.SlotBody), EqpHeadEnabled, false},
		{"eqp accessory slot", eqpID(1, game.SlotEars), EqpEntry(0), false},
		{"eqp set out of range", eqpID(10000, game.SlotBody), EqpEntry(0), false},
		{"wrong entry type", eqpID(1, game.SlotBody), EstEntry(1), false},
		{"rsp in range", rspID(game.Midlander, RspMaleMaxSize), RspEntry(1.2), true},
		{"rsp below minimum", rspID(game.Midlander, RspMaleMaxSize), RspEntry(0), false},
		{"global eqp without entry", GlobalEqpManipulation{Type: GlobalEqpDoNotHideNecklace}, nil, true},
		{"hat rule with condition", GlobalEqpManipulation{Type: GlobalEqpDoNotHideVieraHats, Condition: 5}, nil, false},
		{"nil identifier", nil, EqpEntry(0), false},
		{
			"est",
			EstIdentifier{SetID: 5, Slot: EstHead, GenderRace: game.MiqoteFemale},
			EstEntry(12),
			true,
		},
		{
			"est unknown race",
			EstIdentifier{SetID: 5, Slot: EstHead, GenderRace: 999},
			EstEntry(12),
			false,
		},
		{
			"imc sound id too wide",
			ImcIdentifier{ObjectType: game.ObjectEquipment, PrimaryID: 1, EquipSlot: game.SlotHead},
			ImcEntry{SoundID: 64},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Dictionary
			assert.Equal(t, tt.want, d.TryAdd(tt.id, tt.entry))
			if tt.want {
				assert.Equal(t, 1, d.Count())
			} else {
				assert.Equal(t, 0, d.Count())
				assert.Nil(t, d.stores, "rejected add must not allocate")
			}
		})
	}
}

func TestDictionaryDuplicateAdd(t *testing.T) {
	var d Dictionary
	id := eqpID(3, game.SlotLegs)
	require.True(t, d.TryAdd(id, EqpLegsEnabled))
	assert.False(t, d.TryAdd(id, EqpEntry(0)))

	got, ok := d.Get(id)
	require.True(t, ok)
	assert.Equal(t, EqpLegsEnabled, got)
	assert.Equal(t, 1, d.Count())
}

func TestDictionaryUpdateAndRemove(t *testing.T) {
	var d Dictionary
	id := rspID(game.Veena, RspBustMaxX)

	assert.False(t, d.Update(id, RspEntry(2)), "update of absent id")
	require.True(t, d.TryAdd(id, RspEntry(1)))
	assert.True(t, d.Update(id, RspEntry(2)))
	assert.False(t, d.Update(id, RspEntry(-1)), "invalid entry")

	got, _ := d.Get(id)
	assert.Equal(t, RspEntry(2), got)

	assert.True(t, d.Remove(id))
	assert.False(t, d.Remove(id))
	assert.Equal(t, 0, d.Count())
	assert.Nil(t, d.stores, "empty dictionary drops its storage")
}

func TestDictionaryCountTracksContents(t *testing.T) {
	var d Dictionary
	for set := game.PrimaryID(1); set <= 20; set++ {
		require.True(t, d.TryAdd(eqpID(set, game.SlotBody), EqpBodyEnabled))
		require.True(t, d.TryAdd(GmpIdentifier{SetID: set}, GmpEntry(1)))
	}
	assert.Equal(t, 40, d.Count())
	assert.Equal(t, 20, d.CountOf(KindEqp))
	assert.Equal(t, 20, d.CountOf(KindGmp))
	assert.Len(t, d.Identifiers(), d.Count())

	for set := game.PrimaryID(1); set <= 20; set++ {
		require.True(t, d.Remove(GmpIdentifier{SetID: set}))
	}
	assert.Equal(t, 20, d.Count())
	assert.Equal(t, 0, d.CountOf(KindGmp))
	assert.Len(t, d.Identifiers(), d.Count())

	d.Clear()
	assert.True(t, d.IsEmpty())
}

func TestDictionaryUnionWith(t *testing.T) {
	a, b := &Dictionary{}, &Dictionary{}
	shared := eqpID(1, game.SlotBody)
	require.True(t, a.TryAdd(shared, EqpBodyEnabled))
	require.True(t, b.TryAdd(shared, EqpEntry(0)))
	require.True(t, b.TryAdd(eqpID(2, game.SlotBody), EqpBodyEnabled))
	require.True(t, b.TryAdd(GlobalEqpManipulation{Type: GlobalEqpDoNotHideRingL}, nil))

	a.UnionWith(b)

	assert.Equal(t, 3, a.Count())
	got, _ := a.Get(shared)
	assert.Equal(t, EqpBodyEnabled, got, "existing entry wins")
	assert.Equal(t, 3, b.Count(), "source untouched")
}

func TestDictionaryMergeForced(t *testing.T) {
	t.Run("disjoint", func(t *testing.T) {
		a, b := &Dictionary{}, &Dictionary{}
		require.True(t, a.TryAdd(eqpID(1, game.SlotBody), EqpBodyEnabled))
		require.True(t, b.TryAdd(eqpID(2, game.SlotBody), EqpBodyEnabled))

		ok, conflict := a.MergeForced(b)
		assert.True(t, ok)
		assert.Nil(t, conflict)
		assert.Equal(t, 2, a.Count())
	})

	t.Run("reports first conflict in order", func(t *testing.T) {
		a, b := &Dictionary{}, &Dictionary{}
		require.True(t, a.TryAdd(eqpID(5, game.SlotBody), EqpBodyEnabled))
		require.True(t, a.TryAdd(eqpID(9, game.SlotBody), EqpBodyEnabled))
		for _, set := range []game.PrimaryID{9, 2, 5} {
			require.True(t, b.TryAdd(eqpID(set, game.SlotBody), EqpEntry(0)))
		}
		require.True(t, b.TryAdd(GmpIdentifier{SetID: 1}, GmpEntry(1)))

		ok, conflict := a.MergeForced(b)
		assert.False(t, ok)
		assert.Equal(t, eqpID(5, game.SlotBody), conflict)
		assert.True(t, a.Contains(eqpID(2, game.SlotBody)), "entries before the conflict stay")
		assert.False(t, a.Contains(GmpIdentifier{SetID: 1}), "later kinds are not merged")
		assert.Equal(t, 3, a.Count())
	})
}

func TestDictionarySetToAndUpdateTo(t *testing.T) {
	a, b := &Dictionary{}, &Dictionary{}
	require.True(t, a.TryAdd(eqpID(1, game.SlotBody), EqpBodyEnabled))
	require.True(t, a.TryAdd(eqpID(2, game.SlotBody), EqpBodyEnabled))
	require.True(t, b.TryAdd(eqpID(2, game.SlotBody), EqpEntry(0)))
	require.True(t, b.TryAdd(eqpID(3, game.SlotBody), EqpEntry(0)))

	upd := a.Clone()
	upd.UpdateTo(b)
	assert.Equal(t, 3, upd.Count())
	got, _ := upd.Get(eqpID(2, game.SlotBody))
	assert.Equal(t, EqpEntry(0), got, "incoming entry replaces")

	set := a.Clone()
	set.SetTo(b)
	assert.True(t, set.Equal(b))

	require.True(t, set.Remove(eqpID(3, game.SlotBody)))
	assert.True(t, b.Contains(eqpID(3, game.SlotBody)), "SetTo copies storage")

	set.SetTo(&Dictionary{})
	assert.True(t, set.IsEmpty())
	assert.Nil(t, set.stores)
}

func TestDictionaryDiff(t *testing.T) {
	a, b := &Dictionary{}, &Dictionary{}
	require.True(t, a.TryAdd(eqpID(1, game.SlotBody), EqpBodyEnabled))
	require.True(t, a.TryAdd(eqpID(2, game.SlotBody), EqpBodyEnabled))
	require.True(t, b.TryAdd(eqpID(2, game.SlotBody), EqpEntry(0)))
	require.True(t, b.TryAdd(ImcIdentifier{ObjectType: game.ObjectWeapon, PrimaryID: 201, SecondaryID: 1}, ImcEntry{MaterialID: 2}))

	changes := a.Diff(b)
	require.Len(t, changes, 3)

	assert.Equal(t, KindImc, changes[0].ID.Kind(), "imc sorts first")
	assert.Nil(t, changes[0].Old)

	assert.Equal(t, eqpID(1, game.SlotBody), changes[1].ID)
	assert.Nil(t, changes[1].New)

	assert.Equal(t, eqpID(2, game.SlotBody), changes[2].ID)
	assert.Equal(t, EqpBodyEnabled, changes[2].Old)
	assert.Equal(t, EqpEntry(0), changes[2].New)

	assert.Empty(t, a.Diff(a.Clone()))
}

func TestDictionaryTypedIterationIsOrdered(t *testing.T) {
	var d Dictionary
	for _, set := range []game.PrimaryID{30, 10, 20} {
		require.True(t, d.TryAdd(eqpID(set, game.SlotHead), EqpHeadEnabled))
	}
	var sets []game.PrimaryID
	for id := range d.Eqp() {
		sets = append(sets, id.SetID)
	}
	assert.Equal(t, []game.PrimaryID{10, 20, 30}, sets)

	var empty Dictionary
	for range empty.Atch() {
		t.Fatal("empty dictionary yielded")
	}
}

func TestForAppearance(t *testing.T) {
	var a game.Appearance
	a.GenderRace = game.MidlanderFemale
	a.Clan = game.Midlander
	a.SetItem(game.SlotBody, 100)
	a.SetItem(game.SlotHead, 7)
	a.SetItem(game.SlotEars, 12)

	var d Dictionary
	require.True(t, d.TryAdd(eqpID(100, game.SlotBody), EqpBodyEnabled))
	require.True(t, d.TryAdd(eqpID(101, game.SlotBody), EqpBodyEnabled))
	require.True(t, d.TryAdd(EqdpIdentifier{SetID: 100, Slot: game.SlotBody, GenderRace: game.MidlanderFemale}, EqdpEntry(0)))
	require.True(t, d.TryAdd(EqdpIdentifier{SetID: 100, Slot: game.SlotBody, GenderRace: game.MidlanderMale}, EqdpEntry(0)))
	require.True(t, d.TryAdd(GmpIdentifier{SetID: 7}, GmpEntry(1)))
	require.True(t, d.TryAdd(rspID(game.Midlander, RspFemaleMaxSize), RspEntry(1)))
	require.True(t, d.TryAdd(rspID(game.Highlander, RspFemaleMaxSize), RspEntry(1)))
	require.True(t, d.TryAdd(GlobalEqpManipulation{Type: GlobalEqpDoNotHideEarrings, Condition: 12}, nil))
	require.True(t, d.TryAdd(GlobalEqpManipulation{Type: GlobalEqpDoNotHideEarrings, Condition: 13}, nil))
	shp := ShpIdentifier{Slot: game.SlotLegs, ID: 40, Shape: "shpx_a", GenderRace: game.RoegadynMale}
	atr := AtrIdentifier{Slot: game.SlotHead, ID: 99, Attribute: "atrx_b"}
	require.True(t, d.TryAdd(shp, ShpEntry(true)))
	require.True(t, d.TryAdd(atr, AtrEntry(false)))

	got := d.ForAppearance(a)

	assert.Equal(t, 7, got.Count())
	assert.True(t, got.Contains(shp), "shape keys are kept whatever the appearance")
	assert.True(t, got.Contains(atr), "attributes are kept whatever the appearance")
	assert.True(t, got.Contains(eqpID(100, game.SlotBody)))
	assert.False(t, got.Contains(eqpID(101, game.SlotBody)))
	assert.True(t, got.Contains(GlobalEqpManipulation{Type: GlobalEqpDoNotHideEarrings, Condition: 12}))
	assert.False(t, got.Contains(rspID(game.Highlander, RspFemaleMaxSize)))
	assert.Equal(t, 11, d.Count(), "source untouched")
}
