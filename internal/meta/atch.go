package meta

import (
	"bytes"
	"cmp"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/mesh-intelligence/wardrobe/internal/game"
)

// AtchType names an attachment point family (weapon sheath positions).
type AtchType uint8

const (
	AtchSword AtchType = iota
	AtchShield
	AtchKnuckle
	AtchBow
	AtchQuiver
	AtchStaff
	AtchGun
	AtchBook
	AtchOrrery
	AtchFoil
	AtchScythe
	AtchPalette
	AtchTypeCount
)

var atchTypeNames = [...]string{
	AtchSword:   "Sword",
	AtchShield:  "Shield",
	AtchKnuckle: "Knuckle",
	AtchBow:     "Bow",
	AtchQuiver:  "Quiver",
	AtchStaff:   "Staff",
	AtchGun:     "Gun",
	AtchBook:    "Book",
	AtchOrrery:  "Orrery",
	AtchFoil:    "Foil",
	AtchScythe:  "Scythe",
	AtchPalette: "Palette",
}

func (t AtchType) String() string {
	if t < AtchTypeCount {
		return atchTypeNames[t]
	}
	return fmt.Sprintf("AtchType(%d)", uint8(t))
}

// MarshalText encodes the type by name.
func (t AtchType) MarshalText() ([]byte, error) {
	if t >= AtchTypeCount {
		return nil, fmt.Errorf("invalid atch type %d", t)
	}
	return []byte(t.String()), nil
}

// UnmarshalText parses a type name case-insensitively.
func (t *AtchType) UnmarshalText(text []byte) error {
	for i, n := range atchTypeNames {
		if strings.EqualFold(n, string(text)) {
			*t = AtchType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown atch type %q", text)
}

// Attachment table limits.
const (
	MaxAtchStates   = 8
	MaxAtchBoneName = 34
	AtchEntrySize   = 64
)

// AtchEntry places an attachment on a bone.
type AtchEntry struct {
	Bone      string  `json:"Bone"`
	Scale     float32 `json:"Scale"`
	OffsetX   float32 `json:"OffsetX"`
	OffsetY   float32 `json:"OffsetY"`
	OffsetZ   float32 `json:"OffsetZ"`
	RotationX float32 `json:"RotationX"`
	RotationY float32 `json:"RotationY"`
	RotationZ float32 `json:"RotationZ"`
}

// Validate requires a printable ASCII bone name that fits its fixed field and
// finite floats.
func (e AtchEntry) Validate() bool {
	if len(e.Bone) == 0 || len(e.Bone) >= MaxAtchBoneName {
		return false
	}
	for i := 0; i < len(e.Bone); i++ {
		if e.Bone[i] < 0x20 || e.Bone[i] > 0x7E {
			return false
		}
	}
	for _, f := range e.floats() {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return false
		}
	}
	return true
}

func (e AtchEntry) floats() [7]float32 {
	return [7]float32{e.Scale, e.OffsetX, e.OffsetY, e.OffsetZ, e.RotationX, e.RotationY, e.RotationZ}
}

// Encode writes the fixed 64-byte record: a NUL-padded bone name followed by
// seven little-endian floats and padding.
func (e AtchEntry) Encode(dst []byte) {
	_ = dst[AtchEntrySize-1]
	clear(dst[:AtchEntrySize])
	copy(dst[:MaxAtchBoneName-1], e.Bone)
	for i, f := range e.floats() {
		binary.LittleEndian.PutUint32(dst[MaxAtchBoneName+4*i:], math.Float32bits(f))
	}
}

// DecodeAtchEntry reads a 64-byte record.
func DecodeAtchEntry(src []byte) AtchEntry {
	_ = src[AtchEntrySize-1]
	name := src[:MaxAtchBoneName]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	var f [7]float32
	for i := range f {
		f[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[MaxAtchBoneName+4*i:]))
	}
	return AtchEntry{
		Bone:      string(name),
		Scale:     f[0],
		OffsetX:   f[1],
		OffsetY:   f[2],
		OffsetZ:   f[3],
		RotationX: f[4],
		RotationY: f[5],
		RotationZ: f[6],
	}
}

// AtchIdentifier addresses one state of one attachment point for one model race.
type AtchIdentifier struct {
	Type       AtchType        `json:"Type"`
	GenderRace game.GenderRace `json:"GenderRace"`
	Index      uint16          `json:"Index"`
}

func (AtchIdentifier) Kind() Kind { return KindAtch }

// Validate requires a known type and race and a state index in range.
func (id AtchIdentifier) Validate() bool {
	return id.Type < AtchTypeCount && id.GenderRace.Valid() && id.Index < MaxAtchStates
}

// Compare orders by race, type, then index.
func (id AtchIdentifier) Compare(o AtchIdentifier) int {
	return cmp.Or(
		cmp.Compare(id.GenderRace, o.GenderRace),
		cmp.Compare(id.Type, o.Type),
		cmp.Compare(id.Index, o.Index),
	)
}

func (id AtchIdentifier) String() string {
	return fmt.Sprintf("Atch - %s - %s - %d", id.GenderRace.Code(), id.Type, id.Index)
}
