package meta

import (
	"cmp"
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/wardrobe/internal/game"
)

// GmpEntry is the bit-packed visor behaviour of one head set. Only the low
// five bytes are meaningful.
type GmpEntry uint64

// gmpField describes one bit field of a GMP word.
type gmpField struct {
	shift uint
	width uint
}

var (
	gmpEnabled   = gmpField{0, 1}
	gmpAnimated  = gmpField{1, 1}
	gmpRotationA = gmpField{2, 10}
	gmpRotationB = gmpField{12, 10}
	gmpRotationC = gmpField{22, 10}
	gmpUnknownA  = gmpField{32, 4}
	gmpUnknownB  = gmpField{36, 4}
)

// GmpUsedBits covers every defined field.
const GmpUsedBits GmpEntry = 0xFF_FFFF_FFFF

func (f gmpField) mask() GmpEntry {
	return ((1 << f.width) - 1) << f.shift
}

func (f gmpField) get(e GmpEntry) uint16 {
	return uint16((e & f.mask()) >> f.shift)
}

func (f gmpField) set(e GmpEntry, v uint16) GmpEntry {
	return (e &^ f.mask()) | ((GmpEntry(v) << f.shift) & f.mask())
}

func (f gmpField) fits(v uint16) bool {
	return uint(v) < 1<<f.width
}

func (e GmpEntry) Enabled() bool { return gmpEnabled.get(e) != 0 }
func (e GmpEntry) Animated() bool { return gmpAnimated.get(e) != 0 }
func (e GmpEntry) RotationA() uint16 { return gmpRotationA.get(e) }
func (e GmpEntry) RotationB() uint16 { return gmpRotationB.get(e) }
func (e GmpEntry) RotationC() uint16 { return gmpRotationC.get(e) }
func (e GmpEntry) UnknownA() uint8 { return uint8(gmpUnknownA.get(e)) }
func (e GmpEntry) UnknownB() uint8 { return uint8(gmpUnknownB.get(e)) }

// GmpFields is the expanded form of a GmpEntry.
type GmpFields struct {
	Enabled   bool   `json:"Enabled"`
	Animated  bool   `json:"Animated"`
	RotationA uint16 `json:"RotationA"`
	RotationB uint16 `json:"RotationB"`
	RotationC uint16 `json:"RotationC"`
	UnknownA  uint8  `json:"UnknownA"`
	UnknownB  uint8  `json:"UnknownB"`
}

// Fields expands e.
func (e GmpEntry) Fields() GmpFields {
	return GmpFields{
		Enabled:   e.Enabled(),
		Animated:  e.Animated(),
		RotationA: e.RotationA(),
		RotationB: e.RotationB(),
		RotationC: e.RotationC(),
		UnknownA:  e.UnknownA(),
		UnknownB:  e.UnknownB(),
	}
}

// NewGmpEntry packs f, rejecting values that do not fit their field.
func NewGmpEntry(f GmpFields) (GmpEntry, error) {
	for _, c := range []struct {
		field gmpField
		value uint16
		name  string
	}{
		{gmpRotationA, f.RotationA, "RotationA"},
		{gmpRotationB, f.RotationB, "RotationB"},
		{gmpRotationC, f.RotationC, "RotationC"},
		{gmpUnknownA, uint16(f.UnknownA), "UnknownA"},
		{gmpUnknownB, uint16(f.UnknownB), "UnknownB"},
	} {
		if !c.field.fits(c.value) {
			return 0, fmt.Errorf("%w: gmp %s %d out of range", ErrInvalidEntry, c.name, c.value)
		}
	}
	var e GmpEntry
	e = gmpEnabled.set(e, boolBit(f.Enabled))
	e = gmpAnimated.set(e, boolBit(f.Animated))
	e = gmpRotationA.set(e, f.RotationA)
	e = gmpRotationB.set(e, f.RotationB)
	e = gmpRotationC.set(e, f.RotationC)
	e = gmpUnknownA.set(e, uint16(f.UnknownA))
	e = gmpUnknownB.set(e, uint16(f.UnknownB))
	return e, nil
}

func boolBit(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}

// MarshalJSON writes the expanded fields.
func (e GmpEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Fields())
}

// UnmarshalJSON reads the expanded fields.
func (e *GmpEntry) UnmarshalJSON(data []byte) error {
	var f GmpFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	v, err := NewGmpEntry(f)
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// GmpIdentifier addresses the visor entry of one head set.
type GmpIdentifier struct {
	SetID game.PrimaryID `json:"SetId"`
}

func (GmpIdentifier) Kind() Kind { return KindGmp }

// Validate requires a set id in range.
func (id GmpIdentifier) Validate() bool {
	return id.SetID <= game.MaxPrimaryID
}

// Compare orders by set id.
func (id GmpIdentifier) Compare(o GmpIdentifier) int {
	return cmp.Compare(id.SetID, o.SetID)
}

func (id GmpIdentifier) String() string {
	return fmt.Sprintf("Gmp - %d", id.SetID)
}
