package meta

import (
	"cmp"
	"encoding/binary"
	"fmt"

	"github.com/mesh-intelligence/wardrobe/internal/game"
)

// ImcEntrySize is the encoded size of one IMC variant row.
const ImcEntrySize = 6

// MaxImcVariant bounds the variant of IMC identifiers.
const MaxImcVariant game.Variant = 1023

// ImcEntry is one variant row of an IMC file.
type ImcEntry struct {
	MaterialID          uint8  `json:"MaterialId"`
	DecalID             uint8  `json:"DecalId"`
	AttributeMask       uint16 `json:"AttributeMask"`
	SoundID             uint8  `json:"SoundId"`
	VfxID               uint8  `json:"VfxId"`
	MaterialAnimationID uint8  `json:"MaterialAnimationId"`
}

// Field widths of the packed IMC words.
const (
	imcAttributeBits = 10
	imcSoundBits     = 6
	imcAnimationBits = 4
)

// Validate checks every packed field fits its width.
func (e ImcEntry) Validate() bool {
	return e.AttributeMask < 1<<imcAttributeBits &&
		e.SoundID < 1<<imcSoundBits &&
		e.MaterialAnimationID < 1<<imcAnimationBits
}

// Encode writes the six-byte row layout.
func (e ImcEntry) Encode(dst []byte) {
	_ = dst[ImcEntrySize-1]
	dst[0] = e.MaterialID
	dst[1] = e.DecalID
	binary.LittleEndian.PutUint16(dst[2:], e.AttributeMask&(1<<imcAttributeBits-1)|uint16(e.SoundID)<<imcAttributeBits)
	dst[4] = e.VfxID
	dst[5] = e.MaterialAnimationID & (1<<imcAnimationBits - 1)
}

// DecodeImcEntry reads a six-byte row.
func DecodeImcEntry(src []byte) ImcEntry {
	_ = src[ImcEntrySize-1]
	packed := binary.LittleEndian.Uint16(src[2:])
	return ImcEntry{
		MaterialID:          src[0],
		DecalID:             src[1],
		AttributeMask:       packed & (1<<imcAttributeBits - 1),
		SoundID:             uint8(packed >> imcAttributeBits),
		VfxID:               src[4],
		MaterialAnimationID: src[5] & (1<<imcAnimationBits - 1),
	}
}

// ImcIdentifier addresses one variant row of one IMC file.
type ImcIdentifier struct {
	ObjectType  game.ObjectType  `json:"ObjectType"`
	PrimaryID   game.PrimaryID   `json:"PrimaryId"`
	SecondaryID game.SecondaryID `json:"SecondaryId"`
	Variant     game.Variant     `json:"Variant"`
	EquipSlot   game.EquipSlot   `json:"EquipSlot"`
	BodySlot    game.BodySlot    `json:"BodySlot"`
}

func (ImcIdentifier) Kind() Kind { return KindImc }

// Validate encodes which fields each object type uses: armour and accessories
// need a matching slot and no secondary id, weapons and monsters need no
// slot, demihumans need an armour slot, character parts need a body slot.
func (id ImcIdentifier) Validate() bool {
	if id.Variant > MaxImcVariant || id.PrimaryID > game.MaxPrimaryID {
		return false
	}
	switch id.ObjectType {
	case game.ObjectEquipment:
		return id.EquipSlot.IsEquipment() && id.SecondaryID == 0 && id.BodySlot == game.BodyUnknown
	case game.ObjectAccessory:
		return id.EquipSlot.IsAccessory() && id.SecondaryID == 0 && id.BodySlot == game.BodyUnknown
	case game.ObjectWeapon, game.ObjectMonster:
		return id.EquipSlot == game.SlotUnknown && id.BodySlot == game.BodyUnknown
	case game.ObjectDemiHuman:
		return id.EquipSlot.IsEquipment() && id.BodySlot == game.BodyUnknown
	case game.ObjectCharacter:
		return id.BodySlot != game.BodyUnknown && id.EquipSlot == game.SlotUnknown
	default:
		return false
	}
}

// PartIndex is the row offset of the identifier within one variant block.
func (id ImcIdentifier) PartIndex() int {
	switch id.ObjectType {
	case game.ObjectEquipment, game.ObjectAccessory, game.ObjectDemiHuman:
		return id.EquipSlot.TableIndex()
	default:
		return 0
	}
}

// PartCount is the number of rows per variant block of the identifier's file.
func (id ImcIdentifier) PartCount() int {
	switch id.ObjectType {
	case game.ObjectEquipment, game.ObjectAccessory, game.ObjectDemiHuman:
		return 5
	default:
		return 1
	}
}

// Compare orders by object type, primary id, secondary id, variant, then slots.
func (id ImcIdentifier) Compare(o ImcIdentifier) int {
	return cmp.Or(
		cmp.Compare(id.ObjectType, o.ObjectType),
		cmp.Compare(id.PrimaryID, o.PrimaryID),
		cmp.Compare(id.SecondaryID, o.SecondaryID),
		cmp.Compare(id.Variant, o.Variant),
		cmp.Compare(id.EquipSlot, o.EquipSlot),
		cmp.Compare(id.BodySlot, o.BodySlot),
	)
}

func (id ImcIdentifier) String() string {
	switch id.ObjectType {
	case game.ObjectEquipment, game.ObjectAccessory:
		return fmt.Sprintf("Imc - %s - %d - %s - %d", id.ObjectType, id.PrimaryID, id.EquipSlot, id.Variant)
	case game.ObjectCharacter:
		return fmt.Sprintf("Imc - %s - %d - %s - %d - %d", id.ObjectType, id.PrimaryID, id.BodySlot, id.SecondaryID, id.Variant)
	default:
		return fmt.Sprintf("Imc - %s - %d - %d - %d", id.ObjectType, id.PrimaryID, id.SecondaryID, id.Variant)
	}
}
