package meta

import (
	"cmp"
	"fmt"

	"github.com/mesh-intelligence/wardrobe/internal/game"
)

// EqpEntry is the 64-bit visibility flag word of one armour set. Each armour
// slot owns a disjoint bit range; see EqpMask.
type EqpEntry uint64

// Selected EQP flags. Only the flags the global rules touch are named.
const (
	EqpBodyEnabled         EqpEntry = 1 << 0
	EqpBodyHideWaist       EqpEntry = 1 << 1
	EqpBodyHideSmallGloves EqpEntry = 1 << 2
	EqpBodyShowNecklace    EqpEntry = 1 << 12
	EqpLegsEnabled         EqpEntry = 1 << 16
	EqpHandsEnabled        EqpEntry = 1 << 24
	EqpHandsShowBracelet   EqpEntry = 1 << 25
	EqpHandsShowRingR      EqpEntry = 1 << 26
	EqpHandsShowRingL      EqpEntry = 1 << 27
	EqpFeetEnabled         EqpEntry = 1 << 32
	EqpHeadEnabled         EqpEntry = 1 << 40
	EqpHeadShowEarrings    EqpEntry = 1 << 42
	EqpHeadShowHrothgarHat EqpEntry = 1 << 46
	EqpHeadShowVieraHat    EqpEntry = 1 << 47
)

// EqpMask returns the bits of an EQP word owned by slot. It is the only place
// the slot layout of EQP words is defined.
func EqpMask(slot game.EquipSlot) EqpEntry {
	switch slot {
	case game.SlotBody:
		return 0x0000_0000_0000_FFFF
	case game.SlotLegs:
		return 0x0000_0000_00FF_0000
	case game.SlotHands:
		return 0x0000_0000_FF00_0000
	case game.SlotFeet:
		return 0x0000_00FF_0000_0000
	case game.SlotHead:
		return 0xFFFF_FF00_0000_0000
	default:
		return 0
	}
}

// Merge returns base with the bits owned by slot replaced by e.
func (e EqpEntry) Merge(base EqpEntry, slot game.EquipSlot) EqpEntry {
	mask := EqpMask(slot)
	return (base &^ mask) | (e & mask)
}

// EqpIdentifier addresses the slot portion of one armour set's EQP word.
type EqpIdentifier struct {
	SetID game.PrimaryID `json:"SetId"`
	Slot  game.EquipSlot `json:"Slot"`
}

func (EqpIdentifier) Kind() Kind { return KindEqp }

// Validate requires an armour slot and an in-range set id.
func (id EqpIdentifier) Validate() bool {
	return id.Slot.IsEquipment() && id.SetID <= game.MaxPrimaryID
}

// Compare orders by set id, then slot.
func (id EqpIdentifier) Compare(o EqpIdentifier) int {
	return cmp.Or(cmp.Compare(id.SetID, o.SetID), cmp.Compare(id.Slot, o.Slot))
}

func (id EqpIdentifier) String() string {
	return fmt.Sprintf("Eqp - %d - %s", id.SetID, id.Slot)
}

// GlobalEqpType names the global visibility rules. They carry no entry: their
// presence alone forces a "show" flag on.
type GlobalEqpType uint8

const (
	GlobalEqpDoNotHideEarrings GlobalEqpType = iota
	GlobalEqpDoNotHideNecklace
	GlobalEqpDoNotHideBracelets
	GlobalEqpDoNotHideRingR
	GlobalEqpDoNotHideRingL
	GlobalEqpDoNotHideHrothgarHats
	GlobalEqpDoNotHideVieraHats
	globalEqpTypeCount
)

var globalEqpNames = [...]string{
	GlobalEqpDoNotHideEarrings:     "DoNotHideEarrings",
	GlobalEqpDoNotHideNecklace:     "DoNotHideNecklace",
	GlobalEqpDoNotHideBracelets:    "DoNotHideBracelets",
	GlobalEqpDoNotHideRingR:        "DoNotHideRingR",
	GlobalEqpDoNotHideRingL:        "DoNotHideRingL",
	GlobalEqpDoNotHideHrothgarHats: "DoNotHideHrothgarHats",
	GlobalEqpDoNotHideVieraHats:    "DoNotHideVieraHats",
}

func (t GlobalEqpType) String() string {
	if t < globalEqpTypeCount {
		return globalEqpNames[t]
	}
	return fmt.Sprintf("GlobalEqpType(%d)", uint8(t))
}

// MarshalText encodes the rule by name.
func (t GlobalEqpType) MarshalText() ([]byte, error) {
	if t >= globalEqpTypeCount {
		return nil, fmt.Errorf("invalid global eqp type %d", t)
	}
	return []byte(t.String()), nil
}

// UnmarshalText parses a rule name.
func (t *GlobalEqpType) UnmarshalText(text []byte) error {
	for i, n := range globalEqpNames {
		if n == string(text) {
			*t = GlobalEqpType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown global eqp type %q", text)
}

// conditionSlot is the slot whose worn set id a Condition is compared with.
func (t GlobalEqpType) conditionSlot() game.EquipSlot {
	switch t {
	case GlobalEqpDoNotHideEarrings:
		return game.SlotEars
	case GlobalEqpDoNotHideNecklace:
		return game.SlotNeck
	case GlobalEqpDoNotHideBracelets:
		return game.SlotWrists
	case GlobalEqpDoNotHideRingR:
		return game.SlotRFinger
	case GlobalEqpDoNotHideRingL:
		return game.SlotLFinger
	default:
		return game.SlotHead
	}
}

// flag is the EQP flag the rule forces on.
func (t GlobalEqpType) flag() EqpEntry {
	switch t {
	case GlobalEqpDoNotHideEarrings:
		return EqpHeadShowEarrings
	case GlobalEqpDoNotHideNecklace:
		return EqpBodyShowNecklace
	case GlobalEqpDoNotHideBracelets:
		return EqpHandsShowBracelet
	case GlobalEqpDoNotHideRingR:
		return EqpHandsShowRingR
	case GlobalEqpDoNotHideRingL:
		return EqpHandsShowRingL
	case GlobalEqpDoNotHideHrothgarHats:
		return EqpHeadShowHrothgarHat
	case GlobalEqpDoNotHideVieraHats:
		return EqpHeadShowVieraHat
	default:
		return 0
	}
}

// GlobalEqpManipulation is the no-entry kind. A zero Condition applies to
// every item; otherwise only while the condition item is worn.
type GlobalEqpManipulation struct {
	Type      GlobalEqpType  `json:"Type"`
	Condition game.PrimaryID `json:"Condition"`
}

func (GlobalEqpManipulation) Kind() Kind { return KindGlobalEqp }

// Validate requires a known rule. Hat rules take no condition.
func (m GlobalEqpManipulation) Validate() bool {
	if m.Type >= globalEqpTypeCount {
		return false
	}
	if m.Type == GlobalEqpDoNotHideHrothgarHats || m.Type == GlobalEqpDoNotHideVieraHats {
		return m.Condition == 0
	}
	return m.Condition <= game.MaxPrimaryID
}

// Compare orders by rule, then condition.
func (m GlobalEqpManipulation) Compare(o GlobalEqpManipulation) int {
	return cmp.Or(cmp.Compare(m.Type, o.Type), cmp.Compare(m.Condition, o.Condition))
}

func (m GlobalEqpManipulation) String() string {
	if m.Condition == 0 {
		return "Global EQP - " + m.Type.String()
	}
	return fmt.Sprintf("Global EQP - %s - %d", m.Type, m.Condition)
}

// Applies reports whether the rule is active for an actor showing a.
func (m GlobalEqpManipulation) Applies(a game.Appearance) bool {
	if m.Condition == 0 {
		return true
	}
	return a.Item(m.Type.conditionSlot()) == m.Condition
}

// Force returns e with the rule's flag set.
func (m GlobalEqpManipulation) Force(e EqpEntry) EqpEntry {
	return e | m.Type.flag()
}
