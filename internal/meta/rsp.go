package meta

import (
	"cmp"
	"fmt"
	"math"
	"strings"

	"github.com/mesh-intelligence/wardrobe/internal/game"
)

// RspAttribute names one float of a clan's racial scaling record.
type RspAttribute uint8

const (
	RspMaleMinSize RspAttribute = iota
	RspMaleMaxSize
	RspMaleMinTail
	RspMaleMaxTail
	RspFemaleMinSize
	RspFemaleMaxSize
	RspFemaleMinTail
	RspFemaleMaxTail
	RspBustMinX
	RspBustMinY
	RspBustMinZ
	RspBustMaxX
	RspBustMaxY
	RspBustMaxZ
	RspAttributeCount
)

var rspAttributeNames = [...]string{
	RspMaleMinSize:   "MaleMinSize",
	RspMaleMaxSize:   "MaleMaxSize",
	RspMaleMinTail:   "MaleMinTail",
	RspMaleMaxTail:   "MaleMaxTail",
	RspFemaleMinSize: "FemaleMinSize",
	RspFemaleMaxSize: "FemaleMaxSize",
	RspFemaleMinTail: "FemaleMinTail",
	RspFemaleMaxTail: "FemaleMaxTail",
	RspBustMinX:      "BustMinX",
	RspBustMinY:      "BustMinY",
	RspBustMinZ:      "BustMinZ",
	RspBustMaxX:      "BustMaxX",
	RspBustMaxY:      "BustMaxY",
	RspBustMaxZ:      "BustMaxZ",
}

func (a RspAttribute) String() string {
	if a < RspAttributeCount {
		return rspAttributeNames[a]
	}
	return fmt.Sprintf("RspAttribute(%d)", uint8(a))
}

// MarshalText encodes the attribute by name.
func (a RspAttribute) MarshalText() ([]byte, error) {
	if a >= RspAttributeCount {
		return nil, fmt.Errorf("invalid rsp attribute %d", a)
	}
	return []byte(a.String()), nil
}

// UnmarshalText parses an attribute name case-insensitively.
func (a *RspAttribute) UnmarshalText(text []byte) error {
	for i, n := range rspAttributeNames {
		if strings.EqualFold(n, string(text)) {
			*a = RspAttribute(i)
			return nil
		}
	}
	return fmt.Errorf("unknown rsp attribute %q", text)
}

// Gender returns the gender the attribute scales; bust attributes are female.
func (a RspAttribute) Gender() game.Gender {
	if a <= RspMaleMaxTail {
		return game.Male
	}
	return game.Female
}

// Range bounds of racial scaling values.
const (
	RspMinValue = 0.01
	RspMaxValue = 512
)

// RspEntry is one scaling float.
type RspEntry float32

// Validate rejects values outside the range the client accepts.
func (e RspEntry) Validate() bool {
	f := float64(e)
	return !math.IsNaN(f) && f >= RspMinValue && f <= RspMaxValue
}

// RspIdentifier addresses one attribute of one clan's scaling record.
type RspIdentifier struct {
	SubRace   game.SubRace `json:"SubRace"`
	Attribute RspAttribute `json:"Attribute"`
}

func (RspIdentifier) Kind() Kind { return KindRsp }

// Validate requires a known clan and attribute.
func (id RspIdentifier) Validate() bool {
	return id.SubRace.Valid() && id.Attribute < RspAttributeCount
}

// Compare orders by clan, then attribute.
func (id RspIdentifier) Compare(o RspIdentifier) int {
	return cmp.Or(cmp.Compare(id.SubRace, o.SubRace), cmp.Compare(id.Attribute, o.Attribute))
}

func (id RspIdentifier) String() string {
	return fmt.Sprintf("Rsp - %s - %s", id.SubRace, id.Attribute)
}
