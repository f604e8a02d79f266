package collections

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/wardrobe/internal/game"
)

// RoleType tags the kind of slot a collection can be assigned to.
type RoleType uint8

const (
	RoleNone RoleType = iota
	RoleDefault
	RoleInterface
	RoleCurrent
	RoleYourself
	RoleChild
	RoleElderly
	// RoleGroup matches actors by gender, NPC flag and optionally clan.
	RoleGroup
)

var roleTypeNames = [...]string{
	RoleNone:      "none",
	RoleDefault:   "default",
	RoleInterface: "interface",
	RoleCurrent:   "current",
	RoleYourself:  "yourself",
	RoleChild:     "child",
	RoleElderly:   "elderly",
	RoleGroup:     "group",
}

// Role is a slot of the active assignment table. Group roles carry Gender,
// NPC and, for race groups, Clan; every other role carries only its Type.
// Roles are comparable and used as map keys.
type Role struct {
	Type   RoleType
	Gender game.Gender
	Clan   game.SubRace
	NPC    bool
}

// Fixed roles.
var (
	Default   = Role{Type: RoleDefault}
	Interface = Role{Type: RoleInterface}
	Current   = Role{Type: RoleCurrent}
	Yourself  = Role{Type: RoleYourself}
	Child     = Role{Type: RoleChild}
	Elderly   = Role{Type: RoleElderly}
)

// GroupRole returns the race group role of clan and gender.
func GroupRole(clan game.SubRace, gender game.Gender, npc bool) Role {
	return Role{Type: RoleGroup, Gender: gender, Clan: clan, NPC: npc}
}

// GenderRole returns the gender-only group role.
func GenderRole(gender game.Gender, npc bool) Role {
	return Role{Type: RoleGroup, Gender: gender, NPC: npc}
}

// Valid reports whether r names an assignable slot.
func (r Role) Valid() bool {
	switch r.Type {
	case RoleDefault, RoleInterface, RoleCurrent, RoleYourself, RoleChild, RoleElderly:
		return r.Gender == game.GenderUnknown && r.Clan == game.SubRaceUnknown && !r.NPC
	case RoleGroup:
		if r.Gender != game.Male && r.Gender != game.Female {
			return false
		}
		return r.Clan == game.SubRaceUnknown || r.Clan.Valid()
	default:
		return false
	}
}

// String returns the canonical role name: a fixed role name such as
// "default", or for groups "[clan-]gender[-npc]" in lower case, such as
// "highlander-female-npc" or "male".
func (r Role) String() string {
	if r.Type != RoleGroup {
		if int(r.Type) < len(roleTypeNames) {
			return roleTypeNames[r.Type]
		}
		return fmt.Sprintf("role(%d)", r.Type)
	}
	var b strings.Builder
	if r.Clan != game.SubRaceUnknown {
		b.WriteString(strings.ToLower(r.Clan.String()))
		b.WriteByte('-')
	}
	b.WriteString(strings.ToLower(r.Gender.String()))
	if r.NPC {
		b.WriteString("-npc")
	}
	return b.String()
}

// MarshalText encodes the role by its canonical name.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("marshal role %s: %w", r, ErrInvalidRole)
	}
	return []byte(r.String()), nil
}

// UnmarshalText parses a canonical role name.
func (r *Role) UnmarshalText(text []byte) error {
	v, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// ParseRole parses a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range roleTypeNames {
		t := RoleType(i)
		if n == name && t != RoleNone && t != RoleGroup {
			return Role{Type: t}, nil
		}
	}

	parts := strings.Split(name, "-")
	var r Role
	r.Type = RoleGroup
	if len(parts) > 0 && parts[len(parts)-1] == "npc" {
		r.NPC = true
		parts = parts[:len(parts)-1]
	}
	switch len(parts) {
	case 1:
	case 2:
		clan, ok := game.ParseSubRace(parts[0])
		if !ok || clan == game.SubRaceUnknown {
			return Role{}, fmt.Errorf("parse role %q: unknown clan %q: %w", s, parts[0], ErrInvalidRole)
		}
		r.Clan = clan
		parts = parts[1:]
	default:
		return Role{}, fmt.Errorf("parse role %q: %w", s, ErrInvalidRole)
	}
	switch parts[0] {
	case "male":
		r.Gender = game.Male
	case "female":
		r.Gender = game.Female
	default:
		return Role{}, fmt.Errorf("parse role %q: %w", s, ErrInvalidRole)
	}
	return r, nil
}

// Roles lists every assignable role: the fixed roles, then every gender
// group and every clan group, non-NPC before NPC.
func Roles() []Role {
	out := []Role{Default, Interface, Current, Yourself, Child, Elderly}
	for _, npc := range []bool{false, true} {
		for _, g := range []game.Gender{game.Male, game.Female} {
			out = append(out, GenderRole(g, npc))
		}
		for _, clan := range game.SubRaces {
			for _, g := range []game.Gender{game.Male, game.Female} {
				out = append(out, GroupRole(clan, g, npc))
			}
		}
	}
	return out
}
