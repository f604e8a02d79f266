package collections

import (
	"cmp"
	"slices"
	"strings"

	"github.com/mesh-intelligence/wardrobe/internal/meta"
)

// Data is what a mod or one of its options contributes: file redirections
// keyed by game path and metadata manipulations.
type Data struct {
	Files         map[string]string
	Manipulations *meta.Dictionary
}

// GroupType selects how the setting value of an option group is read.
type GroupType uint8

const (
	// GroupSingle selects exactly one option; the setting is its index.
	GroupSingle GroupType = iota
	// GroupMulti enables any subset; the setting is a bit mask.
	GroupMulti
)

func (t GroupType) String() string {
	if t == GroupMulti {
		return "Multi"
	}
	return "Single"
}

// Option is one choice of a group.
type Option struct {
	Name string
	Data Data
}

// Group is a named set of options.
type Group struct {
	Name            string
	Type            GroupType
	Priority        int
	DefaultSettings uint64
	Options         []Option
}

// Mod is an installed mod as the mod source reports it.
type Mod struct {
	// Name is the mod's directory name and its key in collection settings.
	Name    string
	Default Data
	Groups  []Group
}

// DefaultSettings returns the per-group defaults of m.
func (m *Mod) DefaultSettings() []uint64 {
	out := make([]uint64, len(m.Groups))
	for i, g := range m.Groups {
		out[i] = g.DefaultSettings
	}
	return out
}

// Effective returns the data of m under settings: the default data with the
// selected options of every group layered on top, later groups and higher
// group priorities winning. Missing settings use the group default.
func (m *Mod) Effective(settings []uint64) Data {
	out := Data{Files: make(map[string]string), Manipulations: &meta.Dictionary{}}
	order := make([]int, len(m.Groups))
	for i := range order {
		order[i] = i
	}
	// Lower priorities are overlaid first; equal priorities keep file order.
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(m.Groups[a].Priority, m.Groups[b].Priority)
	})

	overlay(&out, m.Default)
	for _, gi := range order {
		g := m.Groups[gi]
		value := g.DefaultSettings
		if gi < len(settings) {
			value = settings[gi]
		}
		switch g.Type {
		case GroupSingle:
			if int(value) < len(g.Options) {
				overlay(&out, g.Options[value].Data)
			}
		case GroupMulti:
			for oi, o := range g.Options {
				if oi < 64 && value&(1<<oi) != 0 {
					overlay(&out, o.Data)
				}
			}
		}
	}
	return out
}

func overlay(dst *Data, src Data) {
	for path, target := range src.Files {
		dst.Files[NormalizePath(path)] = target
	}
	dst.Manipulations.UpdateTo(src.Manipulations)
}

// NormalizePath returns the lookup form of a game path: forward slashes and
// lower case.
func NormalizePath(path string) string {
	return strings.ToLower(strings.ReplaceAll(path, `\`, "/"))
}

// ModSource lists installed mods.
type ModSource interface {
	Mods() []*Mod
	Mod(name string) (*Mod, bool)
}

// StaticMods is a ModSource over a fixed list.
type StaticMods []*Mod

// Mods returns the list.
func (s StaticMods) Mods() []*Mod { return s }

// Mod finds a mod by name.
func (s StaticMods) Mod(name string) (*Mod, bool) {
	for _, m := range s {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// ModSettings is one collection's configuration of one mod.
type ModSettings struct {
	Enabled  bool     `json:"enabled"`
	Priority int      `json:"priority"`
	Settings []uint64 `json:"settings,omitempty"`
}

func (s ModSettings) clone() ModSettings {
	s.Settings = append([]uint64(nil), s.Settings...)
	return s
}
