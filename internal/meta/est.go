package meta

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/wardrobe/internal/game"
)

// EstType names the four extra-skeleton tables.
type EstType uint8

const (
	EstHair EstType = iota + 1
	EstFace
	EstBody
	EstHead
)

var estTypeNames = [...]string{
	0:       "Unknown",
	EstHair: "Hair",
	EstFace: "Face",
	EstBody: "Body",
	EstHead: "Head",
}

// EstTypes lists the tables in layout order.
var EstTypes = []EstType{EstHair, EstFace, EstBody, EstHead}

func (t EstType) String() string {
	if int(t) < len(estTypeNames) {
		return estTypeNames[t]
	}
	return fmt.Sprintf("EstType(%d)", uint8(t))
}

// Valid reports whether t names an EST table.
func (t EstType) Valid() bool {
	return t >= EstHair && t <= EstHead
}

// MarshalText encodes the table by name.
func (t EstType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid est type %d", t)
	}
	return []byte(t.String()), nil
}

// UnmarshalText parses a table name case-insensitively.
func (t *EstType) UnmarshalText(text []byte) error {
	for i, n := range estTypeNames {
		if i > 0 && strings.EqualFold(n, string(text)) {
			*t = EstType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown est type %q", text)
}

// EstEntry is the skeleton id an extra bone set resolves to. Zero means none.
type EstEntry uint16

// EstIdentifier addresses one skeleton entry.
type EstIdentifier struct {
	SetID      game.PrimaryID  `json:"SetId"`
	Slot       EstType         `json:"Slot"`
	GenderRace game.GenderRace `json:"GenderRace"`
}

func (EstIdentifier) Kind() Kind { return KindEst }

// Validate requires a known table and race and a set id in range.
func (id EstIdentifier) Validate() bool {
	return id.Slot.Valid() && id.GenderRace.Valid() && id.SetID <= game.MaxPrimaryID
}

// Compare orders by table, race, then set id.
func (id EstIdentifier) Compare(o EstIdentifier) int {
	return cmp.Or(
		cmp.Compare(id.Slot, o.Slot),
		cmp.Compare(id.GenderRace, o.GenderRace),
		cmp.Compare(id.SetID, o.SetID),
	)
}

func (id EstIdentifier) String() string {
	return fmt.Sprintf("Est - %d - %s - %s", id.SetID, id.Slot, id.GenderRace.Code())
}
