// Package game defines the value types shared with the host client: model and
// set ids, equipment slots, gender/race codes, object kinds and the collaborator
// interfaces through which live actors are observed.
package game

import (
	"fmt"
	"strconv"
	"strings"
)

// PrimaryID is the set id of an equipment piece, weapon, monster or body part.
type PrimaryID uint16

// SecondaryID is the secondary id of weapons, monsters and demihumans.
type SecondaryID uint16

// Variant selects a row of an IMC file.
type Variant uint16

// WorldID is the home world of a player.
type WorldID uint16

// ObjectIndex is the position of an actor in the host's object table.
type ObjectIndex uint16

// Address is the host-side pointer of a live object. It is only compared and
// used as a map key, never dereferenced.
type Address uintptr

// MaxPrimaryID bounds set ids accepted by the per-set tables.
const MaxPrimaryID PrimaryID = 9999

// EquipSlot names the equipment and accessory slots plus weapons.
type EquipSlot uint8

const (
	SlotUnknown EquipSlot = iota
	SlotHead
	SlotBody
	SlotHands
	SlotLegs
	SlotFeet
	SlotEars
	SlotNeck
	SlotWrists
	SlotRFinger
	SlotLFinger
	SlotMainHand
	SlotOffHand
)

var equipSlotNames = [...]string{
	SlotUnknown:  "Unknown",
	SlotHead:     "Head",
	SlotBody:     "Body",
	SlotHands:    "Hands",
	SlotLegs:     "Legs",
	SlotFeet:     "Feet",
	SlotEars:     "Ears",
	SlotNeck:     "Neck",
	SlotWrists:   "Wrists",
	SlotRFinger:  "RFinger",
	SlotLFinger:  "LFinger",
	SlotMainHand: "MainHand",
	SlotOffHand:  "OffHand",
}

// EquipmentSlots lists the five armour slots in table order.
var EquipmentSlots = []EquipSlot{SlotHead, SlotBody, SlotHands, SlotLegs, SlotFeet}

// AccessorySlots lists the five accessory slots in table order.
var AccessorySlots = []EquipSlot{SlotEars, SlotNeck, SlotWrists, SlotRFinger, SlotLFinger}

func (s EquipSlot) String() string {
	if int(s) < len(equipSlotNames) {
		return equipSlotNames[s]
	}
	return "EquipSlot(" + strconv.Itoa(int(s)) + ")"
}

// IsEquipment reports whether s is one of the five armour slots.
func (s EquipSlot) IsEquipment() bool {
	return s >= SlotHead && s <= SlotFeet
}

// IsAccessory reports whether s is one of the five accessory slots.
func (s EquipSlot) IsAccessory() bool {
	return s >= SlotEars && s <= SlotLFinger
}

// IsWeapon reports whether s is a weapon slot.
func (s EquipSlot) IsWeapon() bool {
	return s == SlotMainHand || s == SlotOffHand
}

// TableIndex returns the position of s inside its five-slot table group, or -1.
func (s EquipSlot) TableIndex() int {
	switch {
	case s.IsEquipment():
		return int(s - SlotHead)
	case s.IsAccessory():
		return int(s - SlotEars)
	default:
		return -1
	}
}

// MarshalText encodes the slot by name.
func (s EquipSlot) MarshalText() ([]byte, error) {
	if int(s) >= len(equipSlotNames) {
		return nil, fmt.Errorf("invalid equip slot %d", s)
	}
	return []byte(s.String()), nil
}

// UnmarshalText accepts slot names case-insensitively.
func (s *EquipSlot) UnmarshalText(text []byte) error {
	v, ok := ParseEquipSlot(string(text))
	if !ok {
		return fmt.Errorf("unknown equip slot %q", text)
	}
	*s = v
	return nil
}

// ParseEquipSlot parses a slot name.
func ParseEquipSlot(name string) (EquipSlot, bool) {
	for i, n := range equipSlotNames {
		if strings.EqualFold(n, name) {
			return EquipSlot(i), true
		}
	}
	return SlotUnknown, false
}

// Gender of a model.
type Gender uint8

const (
	GenderUnknown Gender = iota
	Male
	Female
)

func (g Gender) String() string {
	switch g {
	case Male:
		return "Male"
	case Female:
		return "Female"
	default:
		return "Unknown"
	}
}

// Race is the playable race a customization names.
type Race uint8

const (
	RaceUnknown Race = iota
	Hyur
	Elezen
	Lalafell
	Miqote
	Roegadyn
	AuRa
	Hrothgar
	Viera
)

// SubRace is the clan byte of a customization. Group roles are keyed by it.
type SubRace uint8

const (
	SubRaceUnknown SubRace = iota
	Midlander
	Highlander
	Wildwood
	Duskwight
	Plainsfolk
	Dunesfolk
	SeekerOfTheSun
	KeeperOfTheMoon
	Seawolf
	Hellsguard
	Raen
	Xaela
	Hellion
	Lost
	Rava
	Veena
)

var subRaceNames = [...]string{
	SubRaceUnknown:  "Unknown",
	Midlander:       "Midlander",
	Highlander:      "Highlander",
	Wildwood:        "Wildwood",
	Duskwight:       "Duskwight",
	Plainsfolk:      "Plainsfolk",
	Dunesfolk:       "Dunesfolk",
	SeekerOfTheSun:  "SeekerOfTheSun",
	KeeperOfTheMoon: "KeeperOfTheMoon",
	Seawolf:         "Seawolf",
	Hellsguard:      "Hellsguard",
	Raen:            "Raen",
	Xaela:           "Xaela",
	Hellion:         "Hellion",
	Lost:            "Lost",
	Rava:            "Rava",
	Veena:           "Veena",
}

// SubRaces lists every known clan, excluding SubRaceUnknown.
var SubRaces = []SubRace{
	Midlander, Highlander, Wildwood, Duskwight, Plainsfolk, Dunesfolk,
	SeekerOfTheSun, KeeperOfTheMoon, Seawolf, Hellsguard, Raen, Xaela,
	Hellion, Lost, Rava, Veena,
}

func (s SubRace) String() string {
	if int(s) < len(subRaceNames) {
		return subRaceNames[s]
	}
	return "SubRace(" + strconv.Itoa(int(s)) + ")"
}

// Valid reports whether s names a known clan.
func (s SubRace) Valid() bool {
	return s > SubRaceUnknown && int(s) < len(subRaceNames)
}

// Race returns the race a clan belongs to.
func (s SubRace) Race() Race {
	if !s.Valid() {
		return RaceUnknown
	}
	return Race((s + 1) / 2)
}

// MarshalText encodes the clan by name.
func (s SubRace) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts clan names case-insensitively.
func (s *SubRace) UnmarshalText(text []byte) error {
	v, ok := ParseSubRace(string(text))
	if !ok {
		return fmt.Errorf("unknown sub race %q", text)
	}
	*s = v
	return nil
}

// ParseSubRace parses a clan name.
func ParseSubRace(name string) (SubRace, bool) {
	for i, n := range subRaceNames {
		if strings.EqualFold(n, name) {
			return SubRace(i), true
		}
	}
	return SubRaceUnknown, false
}

// BodyType is the body byte of a customization.
type BodyType uint8

const (
	BodyTypeUnknown BodyType = 0
	BodyTypeNormal  BodyType = 1
	BodyTypeElderly BodyType = 3
	BodyTypeChild   BodyType = 4
)

// ObjectType classifies the owner of a model file.
type ObjectType uint8

const (
	ObjectUnknown ObjectType = iota
	ObjectEquipment
	ObjectAccessory
	ObjectWeapon
	ObjectMonster
	ObjectDemiHuman
	ObjectCharacter
)

var objectTypeNames = [...]string{
	ObjectUnknown:   "Unknown",
	ObjectEquipment: "Equipment",
	ObjectAccessory: "Accessory",
	ObjectWeapon:    "Weapon",
	ObjectMonster:   "Monster",
	ObjectDemiHuman: "DemiHuman",
	ObjectCharacter: "Character",
}

func (o ObjectType) String() string {
	if int(o) < len(objectTypeNames) {
		return objectTypeNames[o]
	}
	return "ObjectType(" + strconv.Itoa(int(o)) + ")"
}

// MarshalText encodes the object type by name.
func (o ObjectType) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText accepts object type names case-insensitively.
func (o *ObjectType) UnmarshalText(text []byte) error {
	for i, n := range objectTypeNames {
		if strings.EqualFold(n, string(text)) {
			*o = ObjectType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown object type %q", text)
}

// BodySlot names the customizable body parts of character models.
type BodySlot uint8

const (
	BodyUnknown BodySlot = iota
	BodyHair
	BodyFace
	BodyTail
	BodyBody
	BodyZear
)

var bodySlotNames = [...]string{
	BodyUnknown: "Unknown",
	BodyHair:    "Hair",
	BodyFace:    "Face",
	BodyTail:    "Tail",
	BodyBody:    "Body",
	BodyZear:    "Zear",
}

func (b BodySlot) String() string {
	if int(b) < len(bodySlotNames) {
		return bodySlotNames[b]
	}
	return "BodySlot(" + strconv.Itoa(int(b)) + ")"
}

// MarshalText encodes the body slot by name.
func (b BodySlot) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText accepts body slot names case-insensitively.
func (b *BodySlot) UnmarshalText(text []byte) error {
	for i, n := range bodySlotNames {
		if strings.EqualFold(n, string(text)) {
			*b = BodySlot(i)
			return nil
		}
	}
	return fmt.Errorf("unknown body slot %q", text)
}

// ObjectKind is the kind byte of an entry in the host's object table.
type ObjectKind uint8

const (
	KindNone ObjectKind = iota
	KindPlayer
	KindBattleNpc
	KindEventNpc
	KindTreasure
	KindAetheryte
	KindGatheringPoint
	KindEventObj
	KindMount
	KindCompanion
	KindRetainer
	KindArea
	KindHousing
	KindCutscene
	KindCardStand
	KindOrnament
)

var objectKindNames = [...]string{
	KindNone:           "None",
	KindPlayer:         "Player",
	KindBattleNpc:      "BattleNpc",
	KindEventNpc:       "EventNpc",
	KindTreasure:       "Treasure",
	KindAetheryte:      "Aetheryte",
	KindGatheringPoint: "GatheringPoint",
	KindEventObj:       "EventObj",
	KindMount:          "Mount",
	KindCompanion:      "Companion",
	KindRetainer:       "Retainer",
	KindArea:           "Area",
	KindHousing:        "Housing",
	KindCutscene:       "Cutscene",
	KindCardStand:      "CardStand",
	KindOrnament:       "Ornament",
}

func (k ObjectKind) String() string {
	if int(k) < len(objectKindNames) {
		return objectKindNames[k]
	}
	return "ObjectKind(" + strconv.Itoa(int(k)) + ")"
}

// ParseObjectKind parses an object kind name.
func ParseObjectKind(name string) (ObjectKind, bool) {
	for i, n := range objectKindNames {
		if strings.EqualFold(n, name) {
			return ObjectKind(i), true
		}
	}
	return KindNone, false
}

// IsNpc reports whether actors of this kind are identified by data ids.
func (k ObjectKind) IsNpc() bool {
	switch k {
	case KindBattleNpc, KindEventNpc, KindMount, KindCompanion, KindOrnament:
		return true
	default:
		return false
	}
}
