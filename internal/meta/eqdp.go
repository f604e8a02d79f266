package meta

import (
	"cmp"
	"fmt"

	"github.com/mesh-intelligence/wardrobe/internal/game"
)

// EqdpEntry is the 16-bit racial model availability word of one set for one
// model race. Each of the five slots of a table group owns two bits: the low
// bit marks a race-specific material, the high bit a race-specific model.
type EqdpEntry uint16

// EqdpMask returns the bits of an EQDP word owned by slot.
func EqdpMask(slot game.EquipSlot) EqdpEntry {
	i := slot.TableIndex()
	if i < 0 {
		return 0
	}
	return 0b11 << (2 * i)
}

// NewEqdpEntry builds the slot portion of an EQDP word.
func NewEqdpEntry(slot game.EquipSlot, material, model bool) EqdpEntry {
	i := slot.TableIndex()
	if i < 0 {
		return 0
	}
	var e EqdpEntry
	if material {
		e |= 1 << (2 * i)
	}
	if model {
		e |= 1 << (2*i + 1)
	}
	return e
}

// Material reports the material bit of slot.
func (e EqdpEntry) Material(slot game.EquipSlot) bool {
	i := slot.TableIndex()
	return i >= 0 && e&(1<<(2*i)) != 0
}

// Model reports the model bit of slot.
func (e EqdpEntry) Model(slot game.EquipSlot) bool {
	i := slot.TableIndex()
	return i >= 0 && e&(1<<(2*i+1)) != 0
}

// Merge returns base with the bits owned by slot replaced by e.
func (e EqdpEntry) Merge(base EqdpEntry, slot game.EquipSlot) EqdpEntry {
	mask := EqdpMask(slot)
	return (base &^ mask) | (e & mask)
}

// EqdpIdentifier addresses the slot bits of one set for one model race.
type EqdpIdentifier struct {
	SetID      game.PrimaryID  `json:"SetId"`
	Slot       game.EquipSlot  `json:"Slot"`
	GenderRace game.GenderRace `json:"GenderRace"`
}

func (EqdpIdentifier) Kind() Kind { return KindEqdp }

// Validate requires an armour or accessory slot, a known race and a set id
// in range.
func (id EqdpIdentifier) Validate() bool {
	return (id.Slot.IsEquipment() || id.Slot.IsAccessory()) &&
		id.GenderRace.Valid() &&
		id.SetID <= game.MaxPrimaryID
}

// Accessory reports whether the identifier targets the accessory table.
func (id EqdpIdentifier) Accessory() bool {
	return id.Slot.IsAccessory()
}

// Compare orders by race, set id, then slot.
func (id EqdpIdentifier) Compare(o EqdpIdentifier) int {
	return cmp.Or(
		cmp.Compare(id.GenderRace, o.GenderRace),
		cmp.Compare(id.SetID, o.SetID),
		cmp.Compare(id.Slot, o.Slot),
	)
}

func (id EqdpIdentifier) String() string {
	return fmt.Sprintf("Eqdp - %d - %s - %s", id.SetID, id.Slot, id.GenderRace.Code())
}
