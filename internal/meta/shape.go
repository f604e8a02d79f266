package meta

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/wardrobe/internal/game"
)

// Name limits of shape keys and attributes.
const (
	MaxShapeNameLength = 30
	ShapePrefix        = "shpx_"
	AttributePrefix    = "atrx_"
)

// ShapeName is a model shape key, e.g. "shpx_wa_hoge".
type ShapeName string

// Valid requires the prefix, at least one character after it, ASCII and a
// length that fits the model's fixed name field.
func (s ShapeName) Valid() bool {
	return validKey(string(s), ShapePrefix)
}

// AttributeName is a model attribute, e.g. "atrx_ear".
type AttributeName string

// Valid applies the same rules as ShapeName with the attribute prefix.
func (a AttributeName) Valid() bool {
	return validKey(string(a), AttributePrefix)
}

func validKey(s, prefix string) bool {
	if len(s) <= len(prefix) || len(s) > MaxShapeNameLength || !strings.HasPrefix(s, prefix) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] <= 0x20 || s[i] > 0x7E {
			return false
		}
	}
	return true
}

// ConnectorCondition restricts a shape key to models whose connector matches.
type ConnectorCondition uint8

const (
	ConnectorNone ConnectorCondition = iota
	ConnectorWrists
	ConnectorWaist
	ConnectorAnkles
	connectorCount
)

var connectorNames = [...]string{
	ConnectorNone:   "None",
	ConnectorWrists: "Wrists",
	ConnectorWaist:  "Waist",
	ConnectorAnkles: "Ankles",
}

func (c ConnectorCondition) String() string {
	if c < connectorCount {
		return connectorNames[c]
	}
	return fmt.Sprintf("ConnectorCondition(%d)", uint8(c))
}

// MarshalText encodes the condition by name.
func (c ConnectorCondition) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses a condition name case-insensitively.
func (c *ConnectorCondition) UnmarshalText(text []byte) error {
	for i, n := range connectorNames {
		if strings.EqualFold(n, string(text)) {
			*c = ConnectorCondition(i)
			return nil
		}
	}
	return fmt.Errorf("unknown connector condition %q", text)
}

// allows reports whether a connector condition may be attached to slot.
func (c ConnectorCondition) allows(slot game.EquipSlot) bool {
	switch c {
	case ConnectorNone:
		return true
	case ConnectorWrists:
		return slot == game.SlotBody || slot == game.SlotHands
	case ConnectorWaist:
		return slot == game.SlotBody || slot == game.SlotLegs
	case ConnectorAnkles:
		return slot == game.SlotLegs || slot == game.SlotFeet
	default:
		return false
	}
}

// ShpEntry enables or disables a shape key.
type ShpEntry bool

// ShpIdentifier addresses a shape key. SlotUnknown, a zero ID and
// GenderRaceUnknown each mean "any".
type ShpIdentifier struct {
	Slot               game.EquipSlot     `json:"Slot"`
	ID                 game.PrimaryID     `json:"Id"`
	Shape              ShapeName          `json:"Shape"`
	GenderRace         game.GenderRace    `json:"GenderRace"`
	ConnectorCondition ConnectorCondition `json:"ConnectorCondition"`
}

func (ShpIdentifier) Kind() Kind { return KindShp }

// Validate checks the shape name, that a concrete id comes with a concrete
// slot, and that a connector condition matches the slot.
func (id ShpIdentifier) Validate() bool {
	if !id.Shape.Valid() || !validHumanSlot(id.Slot) {
		return false
	}
	if id.ID != 0 && id.Slot == game.SlotUnknown {
		return false
	}
	if id.GenderRace != game.GenderRaceUnknown && !id.GenderRace.Valid() {
		return false
	}
	if id.ConnectorCondition >= connectorCount {
		return false
	}
	return id.Slot == game.SlotUnknown || id.ConnectorCondition.allows(id.Slot)
}

// Matches reports whether the shape key applies to a model in slot with set id
// and race gr.
func (id ShpIdentifier) Matches(slot game.EquipSlot, set game.PrimaryID, gr game.GenderRace) bool {
	return (id.Slot == game.SlotUnknown || id.Slot == slot) &&
		(id.ID == 0 || id.ID == set) &&
		(id.GenderRace == game.GenderRaceUnknown || id.GenderRace == gr)
}

// Compare orders by slot, id, race, connector, then shape name.
func (id ShpIdentifier) Compare(o ShpIdentifier) int {
	return cmp.Or(
		cmp.Compare(id.Slot, o.Slot),
		cmp.Compare(id.ID, o.ID),
		cmp.Compare(id.GenderRace, o.GenderRace),
		cmp.Compare(id.ConnectorCondition, o.ConnectorCondition),
		cmp.Compare(id.Shape, o.Shape),
	)
}

func (id ShpIdentifier) String() string {
	return fmt.Sprintf("Shp - %s - %s - %d - %s", id.Shape, id.Slot, id.ID, id.GenderRace)
}

// AtrEntry enables or disables a model attribute.
type AtrEntry bool

// AtrIdentifier addresses a model attribute with the same wildcard rules as
// ShpIdentifier.
type AtrIdentifier struct {
	Slot       game.EquipSlot  `json:"Slot"`
	ID         game.PrimaryID  `json:"Id"`
	Attribute  AttributeName   `json:"Attribute"`
	GenderRace game.GenderRace `json:"GenderRace"`
}

func (AtrIdentifier) Kind() Kind { return KindAtr }

// Validate checks the attribute name and slot/id consistency.
func (id AtrIdentifier) Validate() bool {
	if !id.Attribute.Valid() || !validHumanSlot(id.Slot) {
		return false
	}
	if id.ID != 0 && id.Slot == game.SlotUnknown {
		return false
	}
	return id.GenderRace == game.GenderRaceUnknown || id.GenderRace.Valid()
}

// Matches reports whether the attribute applies to a model in slot with set
// id and race gr.
func (id AtrIdentifier) Matches(slot game.EquipSlot, set game.PrimaryID, gr game.GenderRace) bool {
	return (id.Slot == game.SlotUnknown || id.Slot == slot) &&
		(id.ID == 0 || id.ID == set) &&
		(id.GenderRace == game.GenderRaceUnknown || id.GenderRace == gr)
}

// Compare orders by slot, id, race, then attribute name.
func (id AtrIdentifier) Compare(o AtrIdentifier) int {
	return cmp.Or(
		cmp.Compare(id.Slot, o.Slot),
		cmp.Compare(id.ID, o.ID),
		cmp.Compare(id.GenderRace, o.GenderRace),
		cmp.Compare(id.Attribute, o.Attribute),
	)
}

func (id AtrIdentifier) String() string {
	return fmt.Sprintf("Atr - %s - %s - %d - %s", id.Attribute, id.Slot, id.ID, id.GenderRace)
}

func validHumanSlot(s game.EquipSlot) bool {
	return s == game.SlotUnknown || s.IsEquipment() || s.IsAccessory()
}
