package meta

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/wardrobe/internal/game"
)

func TestEqpMasksAreDisjoint(t *testing.T) {
	var seen EqpEntry
	for _, slot := range game.EquipmentSlots {
		m := EqpMask(slot)
		assert.NotZero(t, m, slot.String())
		assert.Zero(t, seen&m, "%s overlaps", slot)
		seen |= m
	}
	assert.Equal(t, EqpEntry(math.MaxUint64), seen)
}

func TestEqpMerge(t *testing.T) {
	base := EqpEntry(0xFFFF_FFFF_FFFF_FFFF)
	got := EqpEntry(0).Merge(base, game.SlotLegs)
	assert.Equal(t, base&^EqpMask(game.SlotLegs), got)
}

func TestEqdpEntryBits(t *testing.T) {
	e := NewEqdpEntry(game.SlotWrists, true, true)
	assert.True(t, e.Material(game.SlotWrists))
	assert.True(t, e.Model(game.SlotWrists))
	assert.False(t, e.Model(game.SlotNeck))
	assert.Equal(t, EqdpMask(game.SlotWrists), e)

	merged := NewEqdpEntry(game.SlotHead, false, true).Merge(0xFFFF, game.SlotHead)
	assert.False(t, merged.Material(game.SlotHead))
	assert.True(t, merged.Model(game.SlotHead))
	assert.True(t, merged.Material(game.SlotFeet))
}

func TestGmpEntryFields(t *testing.T) {
	f := GmpFields{Enabled: true, Animated: false, RotationA: 1023, RotationB: 0, RotationC: 512, UnknownA: 15, UnknownB: 1}
	e, err := NewGmpEntry(f)
	require.NoError(t, err)
	assert.Equal(t, f, e.Fields())
	assert.Zero(t, e&^GmpUsedBits)

	_, err = NewGmpEntry(GmpFields{RotationA: 1024})
	assert.ErrorIs(t, err, ErrInvalidEntry)
	_, err = NewGmpEntry(GmpFields{UnknownB: 16})
	assert.ErrorIs(t, err, ErrInvalidEntry)
}

func TestImcEntryEncoding(t *testing.T) {
	e := ImcEntry{MaterialID: 4, DecalID: 9, AttributeMask: 0x2A5, SoundID: 33, VfxID: 7, MaterialAnimationID: 3}
	require.True(t, e.Validate())

	buf := make([]byte, ImcEntrySize)
	e.Encode(buf)
	assert.Equal(t, e, DecodeImcEntry(buf))
	assert.Equal(t, []byte{4, 9, 0xA5, 0x86, 7, 3}, buf)
}

func TestImcIdentifierValidate(t *testing.T) {
	tests := []struct {
		name string
		id   ImcIdentifier
		want bool
	}{
		{"equipment", ImcIdentifier{ObjectType: game.ObjectEquipment, PrimaryID: 1, EquipSlot: game.SlotFeet}, true},
		{"equipment needs armour slot", ImcIdentifier{ObjectType: game.ObjectEquipment, PrimaryID: 1, EquipSlot: game.SlotEars}, false},
		{"accessory", ImcIdentifier{ObjectType: game.ObjectAccessory, PrimaryID: 1, EquipSlot: game.SlotEars}, true},
		{"weapon with secondary", ImcIdentifier{ObjectType: game.ObjectWeapon, PrimaryID: 201, SecondaryID: 4}, true},
		{"weapon with slot", ImcIdentifier{ObjectType: game.ObjectWeapon, PrimaryID: 201, EquipSlot: game.SlotMainHand}, false},
		{"character part", ImcIdentifier{ObjectType: game.ObjectCharacter, PrimaryID: 101, SecondaryID: 2, BodySlot: game.BodyHair}, true},
		{"character without part", ImcIdentifier{ObjectType: game.ObjectCharacter, PrimaryID: 101}, false},
		{"variant out of range", ImcIdentifier{ObjectType: game.ObjectMonster, PrimaryID: 1, Variant: 1024}, false},
		{"unknown type", ImcIdentifier{PrimaryID: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.id.Validate())
		})
	}
}

func TestAtchEntryEncoding(t *testing.T) {
	e := AtchEntry{Bone: "j_buki_kosi_l", Scale: 1.5, OffsetX: -0.25, RotationZ: 90}
	require.True(t, e.Validate())

	buf := make([]byte, AtchEntrySize)
	for i := range buf {
		buf[i] = 0xEE
	}
	e.Encode(buf)
	assert.Equal(t, e, DecodeAtchEntry(buf))
	assert.Zero(t, buf[len(e.Bone)], "name is NUL terminated")

	assert.False(t, AtchEntry{Bone: ""}.Validate())
	assert.False(t, AtchEntry{Bone: "bone", Scale: float32(math.NaN())}.Validate())
	assert.False(t, AtchEntry{Bone: string(make([]byte, MaxAtchBoneName))}.Validate())
}

func TestShapeValidation(t *testing.T) {
	tests := []struct {
		name string
		id   ShpIdentifier
		want bool
	}{
		{"any slot", ShpIdentifier{Shape: "shpx_wa_hoge"}, true},
		{"wrong prefix", ShpIdentifier{Shape: "shp_wa_hoge"}, false},
		{"prefix only", ShpIdentifier{Shape: "shpx_"}, false},
		{"id without slot", ShpIdentifier{ID: 5, Shape: "shpx_a"}, false},
		{"wrists connector on body", ShpIdentifier{Slot: game.SlotBody, Shape: "shpx_a", ConnectorCondition: ConnectorWrists}, true},
		{"ankles connector on head", ShpIdentifier{Slot: game.SlotHead, Shape: "shpx_a", ConnectorCondition: ConnectorAnkles}, false},
		{"weapon slot", ShpIdentifier{Slot: game.SlotMainHand, Shape: "shpx_a"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.id.Validate())
		})
	}

	id := ShpIdentifier{Slot: game.SlotLegs, Shape: "shpx_a"}
	assert.True(t, id.Matches(game.SlotLegs, 40, game.RoegadynMale))
	assert.False(t, id.Matches(game.SlotFeet, 40, game.RoegadynMale))
}

func TestGlobalEqpForce(t *testing.T) {
	m := GlobalEqpManipulation{Type: GlobalEqpDoNotHideRingR}
	assert.Equal(t, EqpHandsEnabled|EqpHandsShowRingR, m.Force(EqpHandsEnabled))

	var a game.Appearance
	cond := GlobalEqpManipulation{Type: GlobalEqpDoNotHideRingR, Condition: 9}
	assert.False(t, cond.Applies(a))
	a.SetItem(game.SlotRFinger, 9)
	assert.True(t, cond.Applies(a))
}
