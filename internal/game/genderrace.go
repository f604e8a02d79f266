package game

import (
	"fmt"
	"strconv"
)

// GenderRace is the four-digit model race code used in file paths (c0101) and
// as the key of the racial tables.
type GenderRace uint16

const (
	GenderRaceUnknown   GenderRace = 0
	MidlanderMale       GenderRace = 101
	MidlanderFemale     GenderRace = 201
	HighlanderMale      GenderRace = 301
	HighlanderFemale    GenderRace = 401
	ElezenMale          GenderRace = 501
	ElezenFemale        GenderRace = 601
	MiqoteMale          GenderRace = 701
	MiqoteFemale        GenderRace = 801
	RoegadynMale        GenderRace = 901
	RoegadynFemale      GenderRace = 1001
	LalafellMale        GenderRace = 1101
	LalafellFemale      GenderRace = 1201
	AuRaMale            GenderRace = 1301
	AuRaFemale          GenderRace = 1401
	HrothgarMale        GenderRace = 1501
	HrothgarFemale      GenderRace = 1601
	VieraMale           GenderRace = 1701
	VieraFemale         GenderRace = 1801
	MidlanderMaleNpc    GenderRace = 104
	MidlanderFemaleNpc  GenderRace = 204
	HighlanderMaleNpc   GenderRace = 304
	HighlanderFemaleNpc GenderRace = 404
)

// GenderRaces lists every code the racial tables are laid out for, in table order.
var GenderRaces = []GenderRace{
	MidlanderMale, MidlanderMaleNpc, MidlanderFemale, MidlanderFemaleNpc,
	HighlanderMale, HighlanderMaleNpc, HighlanderFemale, HighlanderFemaleNpc,
	ElezenMale, ElezenFemale, MiqoteMale, MiqoteFemale,
	RoegadynMale, RoegadynFemale, LalafellMale, LalafellFemale,
	AuRaMale, AuRaFemale, HrothgarMale, HrothgarFemale,
	VieraMale, VieraFemale,
}

var genderRaceIndex = func() map[GenderRace]int {
	m := make(map[GenderRace]int, len(GenderRaces))
	for i, gr := range GenderRaces {
		m[gr] = i
	}
	return m
}()

// Valid reports whether gr is a known model race code.
func (gr GenderRace) Valid() bool {
	_, ok := genderRaceIndex[gr]
	return ok
}

// TableIndex returns the position of gr in GenderRaces, or -1.
func (gr GenderRace) TableIndex() int {
	if i, ok := genderRaceIndex[gr]; ok {
		return i
	}
	return -1
}

// Code returns the path form, e.g. "c0101".
func (gr GenderRace) Code() string {
	return fmt.Sprintf("c%04d", uint16(gr))
}

// Gender returns the gender encoded in gr.
func (gr GenderRace) Gender() Gender {
	if !gr.Valid() {
		return GenderUnknown
	}
	if (gr/100)%2 == 1 {
		return Male
	}
	return Female
}

func (gr GenderRace) String() string {
	if gr == GenderRaceUnknown {
		return "Unknown"
	}
	return strconv.Itoa(int(gr))
}

// CombinedRace maps a customization's gender and clan to its model race code.
// Hyur clans have distinct models; every other race shares one per gender.
func CombinedRace(g Gender, s SubRace) GenderRace {
	if g != Male && g != Female {
		return GenderRaceUnknown
	}
	var base GenderRace
	switch s {
	case Midlander:
		base = MidlanderMale
	case Highlander:
		base = HighlanderMale
	default:
		switch s.Race() {
		case Elezen:
			base = ElezenMale
		case Miqote:
			base = MiqoteMale
		case Roegadyn:
			base = RoegadynMale
		case Lalafell:
			base = LalafellMale
		case AuRa:
			base = AuRaMale
		case Hrothgar:
			base = HrothgarMale
		case Viera:
			base = VieraMale
		default:
			return GenderRaceUnknown
		}
	}
	if g == Female {
		return base + 100
	}
	return base
}
