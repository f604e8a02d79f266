package tables

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/mesh-intelligence/wardrobe/internal/game"
	"github.com/mesh-intelligence/wardrobe/internal/meta"
)

// Fixed record sizes of the table layouts.
const (
	EqpRecordSize  = 8
	EqdpRecordSize = 2
	EstRecordSize  = 2
	GmpRecordSize  = 8
	RspFloatSize   = 4
	RspRecordSize  = int(meta.RspAttributeCount) * RspFloatSize
	ImcHeaderSize  = 4
	setCount       = int(game.MaxPrimaryID) + 1
)

// Table sizes of the per-set layouts.
const (
	EqpTableSize  = setCount * EqpRecordSize
	EqdpTableSize = setCount * EqdpRecordSize
	EstTableSize  = setCount * EstRecordSize
	GmpTableSize  = setCount * GmpRecordSize
	RspTableSize  = int(game.Veena) * RspRecordSize
	AtchTableSize = int(meta.AtchTypeCount) * meta.MaxAtchStates * meta.AtchEntrySize
)

// ImcFileSize returns the size of an IMC file with variants+1 blocks of parts
// rows each.
func ImcFileSize(parts, variants int) int {
	return ImcHeaderSize + (variants+1)*parts*meta.ImcEntrySize
}

// Key names one table. Fields that do not apply to Kind are zero.
type Key struct {
	Kind        meta.Kind
	GenderRace  game.GenderRace
	Accessory   bool
	Est         meta.EstType
	ObjectType  game.ObjectType
	PrimaryID   game.PrimaryID
	SecondaryID game.SecondaryID
	BodySlot    game.BodySlot
}

func (k Key) String() string {
	switch k.Kind {
	case meta.KindEqdp:
		if k.Accessory {
			return fmt.Sprintf("eqdp/%s/accessory", k.GenderRace.Code())
		}
		return fmt.Sprintf("eqdp/%s/equipment", k.GenderRace.Code())
	case meta.KindEst:
		return fmt.Sprintf("est/%s/%s", k.Est, k.GenderRace.Code())
	case meta.KindAtch:
		return "atch/" + k.GenderRace.Code()
	case meta.KindImc:
		return fmt.Sprintf("imc/%s/%04d/%s/%04d", k.ObjectType, k.PrimaryID, k.BodySlot, k.SecondaryID)
	default:
		return k.Kind.String()
	}
}

// EqpKey names the armour visibility table.
func EqpKey() Key { return Key{Kind: meta.KindEqp} }

// GmpKey names the visor table.
func GmpKey() Key { return Key{Kind: meta.KindGmp} }

// RspKey names the racial scaling table.
func RspKey() Key { return Key{Kind: meta.KindRsp} }

// EqdpKey names the racial model availability table of one model race.
func EqdpKey(gr game.GenderRace, accessory bool) Key {
	return Key{Kind: meta.KindEqdp, GenderRace: gr, Accessory: accessory}
}

// EstKey names one extra skeleton table.
func EstKey(t meta.EstType, gr game.GenderRace) Key {
	return Key{Kind: meta.KindEst, Est: t, GenderRace: gr}
}

// AtchKey names the attachment table of one model race.
func AtchKey(gr game.GenderRace) Key {
	return Key{Kind: meta.KindAtch, GenderRace: gr}
}

// ImcKey names the IMC file an identifier lives in. Armour and accessory
// files are shared per set; weapon, monster and demihuman files per
// primary/secondary pair; character part files additionally per body slot.
func ImcKey(id meta.ImcIdentifier) Key {
	k := Key{Kind: meta.KindImc, ObjectType: id.ObjectType, PrimaryID: id.PrimaryID}
	switch id.ObjectType {
	case game.ObjectEquipment, game.ObjectAccessory:
	case game.ObjectCharacter:
		k.SecondaryID = id.SecondaryID
		k.BodySlot = id.BodySlot
	default:
		k.SecondaryID = id.SecondaryID
	}
	return k
}

// Location is the byte range a manipulation targets.
type Location struct {
	Key    Key
	Offset int64
	Size   int
}

// Locate returns where id lives. Kinds that are evaluated by lookup rather
// than by patching a table return ErrNoTable.
func Locate(id meta.Identifier) (Location, error) {
	switch id := id.(type) {
	case meta.EqpIdentifier:
		return Location{EqpKey(), int64(id.SetID) * EqpRecordSize, EqpRecordSize}, nil
	case meta.EqdpIdentifier:
		return Location{EqdpKey(id.GenderRace, id.Accessory()), int64(id.SetID) * EqdpRecordSize, EqdpRecordSize}, nil
	case meta.EstIdentifier:
		return Location{EstKey(id.Slot, id.GenderRace), int64(id.SetID) * EstRecordSize, EstRecordSize}, nil
	case meta.GmpIdentifier:
		return Location{GmpKey(), int64(id.SetID) * GmpRecordSize, GmpRecordSize}, nil
	case meta.RspIdentifier:
		off := int64(int(id.SubRace)-1)*int64(RspRecordSize) + int64(id.Attribute)*RspFloatSize
		return Location{RspKey(), off, RspFloatSize}, nil
	case meta.AtchIdentifier:
		row := int64(id.Type)*meta.MaxAtchStates + int64(id.Index)
		return Location{AtchKey(id.GenderRace), row * meta.AtchEntrySize, meta.AtchEntrySize}, nil
	case meta.ImcIdentifier:
		row := int64(id.Variant)*int64(id.PartCount()) + int64(id.PartIndex())
		return Location{ImcKey(id), ImcHeaderSize + row*meta.ImcEntrySize, meta.ImcEntrySize}, nil
	case nil:
		return Location{}, fmt.Errorf("locate: %w", meta.ErrInvalidIdentifier)
	default:
		return Location{}, fmt.Errorf("locate %s: %w", id, ErrNoTable)
	}
}

// Encode returns the bytes that store entry for id, given the bytes
// currently at its location. Kinds that own only part of a record keep the
// bits of other slots from current.
func Encode(id meta.Identifier, entry any, current []byte) ([]byte, error) {
	if !meta.ValidEntry(id, entry) {
		return nil, fmt.Errorf("encode %v: %w", id, meta.ErrInvalidEntry)
	}
	out := make([]byte, len(current))
	switch id := id.(type) {
	case meta.EqpIdentifier:
		base := meta.EqpEntry(binary.LittleEndian.Uint64(current))
		binary.LittleEndian.PutUint64(out, uint64(entry.(meta.EqpEntry).Merge(base, id.Slot)))
	case meta.EqdpIdentifier:
		base := meta.EqdpEntry(binary.LittleEndian.Uint16(current))
		binary.LittleEndian.PutUint16(out, uint16(entry.(meta.EqdpEntry).Merge(base, id.Slot)))
	case meta.EstIdentifier:
		binary.LittleEndian.PutUint16(out, uint16(entry.(meta.EstEntry)))
	case meta.GmpIdentifier:
		binary.LittleEndian.PutUint64(out, uint64(entry.(meta.GmpEntry)))
	case meta.RspIdentifier:
		binary.LittleEndian.PutUint32(out, math.Float32bits(float32(entry.(meta.RspEntry))))
	case meta.AtchIdentifier:
		entry.(meta.AtchEntry).Encode(out)
	case meta.ImcIdentifier:
		entry.(meta.ImcEntry).Encode(out)
	default:
		return nil, fmt.Errorf("encode %s: %w", id, ErrNoTable)
	}
	return out, nil
}

// Decode reads the entry of id from the bytes at its location. For kinds that
// own part of a record only the bits of id's slot are returned.
func Decode(id meta.Identifier, raw []byte) (any, error) {
	switch id := id.(type) {
	case meta.EqpIdentifier:
		return meta.EqpEntry(binary.LittleEndian.Uint64(raw)) & meta.EqpMask(id.Slot), nil
	case meta.EqdpIdentifier:
		return meta.EqdpEntry(binary.LittleEndian.Uint16(raw)) & meta.EqdpMask(id.Slot), nil
	case meta.EstIdentifier:
		return meta.EstEntry(binary.LittleEndian.Uint16(raw)), nil
	case meta.GmpIdentifier:
		return meta.GmpEntry(binary.LittleEndian.Uint64(raw)), nil
	case meta.RspIdentifier:
		return meta.RspEntry(math.Float32frombits(binary.LittleEndian.Uint32(raw))), nil
	case meta.AtchIdentifier:
		return meta.DecodeAtchEntry(raw), nil
	case meta.ImcIdentifier:
		return meta.DecodeImcEntry(raw), nil
	default:
		return nil, fmt.Errorf("decode %v: %w", id, ErrNoTable)
	}
}
