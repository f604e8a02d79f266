// Package actors identifies live actors as players, retainers, NPCs, owned
// NPCs or special UI stand-ins.
package actors

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/mesh-intelligence/wardrobe/internal/game"
)

// IdentifierType tags the variant an ActorIdentifier holds.
type IdentifierType uint8

const (
	TypeInvalid IdentifierType = iota
	TypePlayer
	TypeRetainer
	TypeNpc
	TypeOwned
	TypeSpecial
)

var identifierTypeNames = [...]string{
	TypeInvalid:  "Invalid",
	TypePlayer:   "Player",
	TypeRetainer: "Retainer",
	TypeNpc:      "Npc",
	TypeOwned:    "Owned",
	TypeSpecial:  "Special",
}

func (t IdentifierType) String() string {
	if int(t) < len(identifierTypeNames) {
		return identifierTypeNames[t]
	}
	return "IdentifierType(" + strconv.Itoa(int(t)) + ")"
}

// ParseIdentifierType parses a type name case-insensitively.
func ParseIdentifierType(s string) (IdentifierType, bool) {
	for i, n := range identifierTypeNames {
		if strings.EqualFold(n, s) {
			return IdentifierType(i), true
		}
	}
	return TypeInvalid, false
}

// SpecialActor tags the UI stand-in a Special identifier refers to.
type SpecialActor uint8

const (
	SpecialNone SpecialActor = iota
	SpecialCharacterScreen
	SpecialExamineScreen
	SpecialFittingRoom
	SpecialDyePreview
	SpecialPortrait
	SpecialCard
	SpecialGPosePlayer
)

var specialNames = [...]string{
	SpecialNone:            "None",
	SpecialCharacterScreen: "CharacterScreen",
	SpecialExamineScreen:   "ExamineScreen",
	SpecialFittingRoom:     "FittingRoom",
	SpecialDyePreview:      "DyePreview",
	SpecialPortrait:        "Portrait",
	SpecialCard:            "Card",
	SpecialGPosePlayer:     "GPosePlayer",
}

func (s SpecialActor) String() string {
	if int(s) < len(specialNames) {
		return specialNames[s]
	}
	return "SpecialActor(" + strconv.Itoa(int(s)) + ")"
}

// ParseSpecialActor parses a special actor name case-insensitively.
func ParseSpecialActor(s string) (SpecialActor, bool) {
	for i, n := range specialNames {
		if i > 0 && strings.EqualFold(n, s) {
			return SpecialActor(i), true
		}
	}
	return SpecialNone, false
}

// ShowsLocalPlayer reports whether the stand-in always renders the local player.
func (s SpecialActor) ShowsLocalPlayer() bool {
	switch s {
	case SpecialCharacterScreen, SpecialFittingRoom, SpecialDyePreview, SpecialPortrait, SpecialGPosePlayer:
		return true
	default:
		return false
	}
}

// Identifier is a closed tagged union over the kinds of actor identity.
//
// Player and Retainer carry Name (and HomeWorld for players). Npc carries Kind
// and DataIDs. Owned carries the owner's Name and HomeWorld plus the owned NPC's
// Kind and DataIDs. Special carries Special. The zero value is Invalid.
//
// Identifiers are compared with Equal, never with ==: Invalid equals nothing,
// and NPC id sets match on any overlap because the client reuses several data
// ids for one localized NPC.
type Identifier struct {
	Type      IdentifierType  `json:"type"`
	Name      string          `json:"name,omitempty"`
	HomeWorld game.WorldID    `json:"home_world,omitempty"`
	Kind      game.ObjectKind `json:"kind,omitempty"`
	DataIDs   []uint32        `json:"data_ids,omitempty"`
	Special   SpecialActor    `json:"special,omitempty"`
}

// Invalid is the identifier of actors that could not be identified.
var Invalid = Identifier{}

// foldName returns the case-folded form of a name. Casers are stateful, so a
// fresh one is used per call.
func foldName(name string) string {
	return cases.Fold().String(name)
}

// NewPlayer returns a player identifier.
func NewPlayer(name string, world game.WorldID) Identifier {
	return Identifier{Type: TypePlayer, Name: name, HomeWorld: world}
}

// NewRetainer returns a retainer identifier.
func NewRetainer(name string) Identifier {
	return Identifier{Type: TypeRetainer, Name: name}
}

// NewNpc returns an NPC identifier over one or more data ids.
func NewNpc(kind game.ObjectKind, ids ...uint32) Identifier {
	return Identifier{Type: TypeNpc, Kind: kind, DataIDs: normalizeIDs(ids)}
}

// NewOwned returns an identifier for an NPC owned by a player.
func NewOwned(ownerName string, ownerWorld game.WorldID, kind game.ObjectKind, ids ...uint32) Identifier {
	return Identifier{
		Type:      TypeOwned,
		Name:      ownerName,
		HomeWorld: ownerWorld,
		Kind:      kind,
		DataIDs:   normalizeIDs(ids),
	}
}

// NewSpecial returns an identifier for a UI stand-in.
func NewSpecial(s SpecialActor) Identifier {
	return Identifier{Type: TypeSpecial, Special: s}
}

func normalizeIDs(ids []uint32) []uint32 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// IsValid reports whether id carries enough data to be looked up.
func (id Identifier) IsValid() bool {
	switch id.Type {
	case TypePlayer:
		return validName(id.Name) && id.HomeWorld != 0
	case TypeRetainer:
		return validName(id.Name)
	case TypeNpc:
		return id.Kind.IsNpc() && len(id.DataIDs) > 0
	case TypeOwned:
		return validName(id.Name) && id.HomeWorld != 0 && id.Kind.IsNpc() && len(id.DataIDs) > 0
	case TypeSpecial:
		return id.Special != SpecialNone && int(id.Special) < len(specialNames)
	default:
		return false
	}
}

// validName accepts names of up to 32 bytes without control characters.
func validName(name string) bool {
	if name == "" || len(name) > 32 {
		return false
	}
	for _, r := range name {
		if r < 0x20 {
			return false
		}
	}
	return true
}

// Equal implements the lookup equality of identifiers.
func (id Identifier) Equal(other Identifier) bool {
	if !id.IsValid() || !other.IsValid() || id.Type != other.Type {
		return false
	}
	switch id.Type {
	case TypePlayer:
		return id.HomeWorld == other.HomeWorld && sameName(id.Name, other.Name)
	case TypeRetainer:
		return sameName(id.Name, other.Name)
	case TypeNpc:
		return id.Kind == other.Kind && overlaps(id.DataIDs, other.DataIDs)
	case TypeOwned:
		return id.HomeWorld == other.HomeWorld && sameName(id.Name, other.Name) &&
			id.Kind == other.Kind && overlaps(id.DataIDs, other.DataIDs)
	case TypeSpecial:
		return id.Special == other.Special
	}
	return false
}

func sameName(a, b string) bool {
	return a == b || foldName(a) == foldName(b)
}

// overlaps reports whether two id sets share an element. The sets hold a
// handful of ids and need not be sorted.
func overlaps(a, b []uint32) bool {
	for _, v := range a {
		if slices.Contains(b, v) {
			return true
		}
	}
	return false
}

// UnmarshalJSON decodes an identifier and normalizes its data ids the way
// NewNpc and NewOwned do.
func (id *Identifier) UnmarshalJSON(data []byte) error {
	type plain Identifier
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*id = Identifier(p)
	if len(id.DataIDs) > 0 {
		id.DataIDs = normalizeIDs(id.DataIDs)
	}
	return nil
}

// Owner returns the player identifier of an Owned identifier.
func (id Identifier) Owner() (Identifier, bool) {
	if id.Type != TypeOwned {
		return Invalid, false
	}
	return NewPlayer(id.Name, id.HomeWorld), true
}

// Bucket groups identifiers that can possibly compare equal. Equal identifiers
// always share a bucket.
func (id Identifier) Bucket() string {
	switch id.Type {
	case TypePlayer, TypeRetainer:
		return id.Type.String() + ":" + foldName(id.Name)
	case TypeOwned:
		return id.Type.String() + ":" + foldName(id.Name) + ":" + id.Kind.String()
	case TypeNpc:
		return id.Type.String() + ":" + id.Kind.String()
	case TypeSpecial:
		return id.Type.String() + ":" + id.Special.String()
	default:
		return ""
	}
}

func (id Identifier) String() string {
	switch id.Type {
	case TypePlayer:
		return id.Name + " (" + strconv.Itoa(int(id.HomeWorld)) + ")"
	case TypeRetainer:
		return id.Name + " (Retainer)"
	case TypeNpc:
		return id.Kind.String() + " " + joinIDs(id.DataIDs)
	case TypeOwned:
		return id.Name + "'s " + id.Kind.String() + " " + joinIDs(id.DataIDs)
	case TypeSpecial:
		return id.Special.String()
	default:
		return "Invalid"
	}
}

func joinIDs(ids []uint32) string {
	parts := make([]string, len(ids))
	for i, v := range ids {
		parts[i] = strconv.FormatUint(uint64(v), 10)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
