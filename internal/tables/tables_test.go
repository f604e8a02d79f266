package tables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/wardrobe/internal/game"
	"github.com/mesh-intelligence/wardrobe/internal/meta"
)

func TestLocate(t *testing.T) {
	tests := []struct {
		name   string
		id     meta.Identifier
		key    Key
		offset int64
		size   int
	}{
		{
			name:   "eqp",
			id:     meta.EqpIdentifier{SetID: 10, Slot: game.SlotLegs},
			key:    EqpKey(),
			offset: 80,
			size:   8,
		},
		{
			name:   "eqdp accessory",
			id:     meta.EqdpIdentifier{SetID: 3, Slot: game.SlotNeck, GenderRace: game.LalafellFemale},
			key:    EqdpKey(game.LalafellFemale, true),
			offset: 6,
			size:   2,
		},
		{
			name:   "rsp second clan",
			id:     meta.RspIdentifier{SubRace: game.Highlander, Attribute: meta.RspMaleMaxSize},
			key:    RspKey(),
			offset: int64(RspRecordSize) + 4,
			size:   4,
		},
		{
			name:   "atch",
			id:     meta.AtchIdentifier{Type: meta.AtchShield, GenderRace: game.AuRaFemale, Index: 2},
			key:    AtchKey(game.AuRaFemale),
			offset: (meta.MaxAtchStates + 2) * meta.AtchEntrySize,
			size:   meta.AtchEntrySize,
		},
		{
			name: "imc armour shares one file per set",
			id: meta.ImcIdentifier{
				ObjectType: game.ObjectEquipment, PrimaryID: 50, Variant: 2, EquipSlot: game.SlotHands,
			},
			key:    Key{Kind: meta.KindImc, ObjectType: game.ObjectEquipment, PrimaryID: 50},
			offset: ImcHeaderSize + (2*5+2)*meta.ImcEntrySize,
			size:   meta.ImcEntrySize,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := Locate(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.key, loc.Key)
			assert.Equal(t, tt.offset, loc.Offset)
			assert.Equal(t, tt.size, loc.Size)
		})
	}
}

func TestLocateLookupKinds(t *testing.T) {
	for _, id := range []meta.Identifier{
		meta.GlobalEqpManipulation{Type: meta.GlobalEqpDoNotHideNecklace},
		meta.ShpIdentifier{Shape: "shpx_a"},
		meta.AtrIdentifier{Attribute: "atrx_a"},
	} {
		_, err := Locate(id)
		assert.ErrorIs(t, err, ErrNoTable, id.String())
	}
}

func TestEncodeKeepsOtherSlots(t *testing.T) {
	id := meta.EqpIdentifier{SetID: 1, Slot: game.SlotBody}
	current := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

	out, err := Encode(id, meta.EqpBodyEnabled, current)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, out)

	got, err := Decode(id, out)
	require.NoError(t, err)
	assert.Equal(t, meta.EqpBodyEnabled, got)

	_, err = Encode(id, meta.EqpHeadEnabled, current)
	assert.ErrorIs(t, err, meta.ErrInvalidEntry)
}

func TestSetReadAndResolve(t *testing.T) {
	s := NewDefaultSet()
	id := meta.RspIdentifier{SubRace: game.Rava, Attribute: meta.RspBustMaxZ}

	m, loc, err := s.Resolve(id)
	require.NoError(t, err)
	raw, err := Encode(id, meta.RspEntry(1.25), make([]byte, loc.Size))
	require.NoError(t, err)
	_, err = m.WriteAt(raw, loc.Offset)
	require.NoError(t, err)

	got, err := s.Read(id)
	require.NoError(t, err)
	assert.Equal(t, meta.RspEntry(1.25), got)

	imc := meta.ImcIdentifier{ObjectType: game.ObjectWeapon, PrimaryID: 2001, SecondaryID: 1}
	_, _, err = s.Resolve(imc)
	assert.ErrorIs(t, err, ErrNotAvailable)

	s.Register(ImcKey(imc), NewByteMemory(ImcFileSize(1, 0)))
	_, _, err = s.Resolve(meta.ImcIdentifier{ObjectType: game.ObjectWeapon, PrimaryID: 2001, SecondaryID: 1, Variant: 3})
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = s.Read(imc)
	assert.NoError(t, err)
}

func TestByteMemoryBounds(t *testing.T) {
	m := NewByteMemory(4)
	_, err := m.WriteAt([]byte{1, 2, 3}, 2)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, []byte{0, 0, 0, 0}, m.Bytes())

	n, err := m.WriteAt([]byte{9, 9}, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	buf := make([]byte, 3)
	n, err = m.ReadAt(buf, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 9, 9}, buf[:n])
}
