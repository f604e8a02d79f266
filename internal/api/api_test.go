package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/wardrobe/internal/actors"
	"github.com/mesh-intelligence/wardrobe/internal/collections"
	"github.com/mesh-intelligence/wardrobe/internal/game"
	"github.com/mesh-intelligence/wardrobe/internal/meta"
)

func testService(t *testing.T) (*Service, *collections.Registry) {
	t.Helper()
	manips := &meta.Dictionary{}
	require.True(t, manips.TryAdd(meta.EqpIdentifier{SetID: 1201, Slot: game.SlotBody}, meta.EqpEntry(0x07)))
	mods := collections.StaticMods{
		{
			Name: "Boots",
			Default: collections.Data{
				Files:         map[string]string{"chara/feet.mdl": "boots/feet.mdl"},
				Manipulations: manips,
			},
			Groups: []collections.Group{{
				Name: "Colour", Type: collections.GroupSingle,
				Options: []collections.Option{{Name: "Red"}, {Name: "Blue"}},
			}},
		},
		{
			Name:    "Socks",
			Default: collections.Data{Files: map[string]string{"chara/feet.mdl": "socks/feet.mdl"}},
		},
	}
	reg := collections.New(mods)
	require.NoError(t, reg.Load())
	return New(reg), reg
}

func TestCollections(t *testing.T) {
	s, reg := testService(t)
	base, err := reg.Create("Base")
	require.NoError(t, err)
	child, err := reg.Create("Child")
	require.NoError(t, err)
	require.NoError(t, reg.SetInheritance(child, base))
	require.NoError(t, reg.SetModEnabled(base, "Boots", true))

	all := s.Collections()
	require.Len(t, all, 3)
	assert.Equal(t, collections.DefaultName, all[0].Name)

	got, err := s.Collection("child")
	require.NoError(t, err)
	assert.Equal(t, []string{"Base"}, got.Inheritance)
	assert.Equal(t, []string{"Boots"}, got.EnabledMods)
	assert.Equal(t, 1, got.Manipulations)

	byID, err := s.Collection(child.ID())
	require.NoError(t, err)
	assert.Equal(t, "Child", byID.Name)

	_, err = s.Collection("missing")
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}

func TestFilesSettingsAndConflicts(t *testing.T) {
	s, reg := testService(t)
	c, err := reg.Create("Feet")
	require.NoError(t, err)
	require.NoError(t, reg.SetModEnabled(c, "Boots", true))
	require.NoError(t, reg.SetModSetting(c, "Boots", 0, 1))
	require.NoError(t, reg.SetModEnabled(c, "Socks", true))
	require.NoError(t, reg.SetModPriority(c, "Socks", 5))

	files, err := s.ResolvedFiles("Feet")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"chara/feet.mdl": "socks/feet.mdl"}, files)

	conflicts, err := s.Conflicts("Feet")
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "Socks", conflicts[0].Winner)
	assert.Equal(t, []string{"Boots"}, conflicts[0].Losers)

	settings, err := s.ModSettings("Feet")
	require.NoError(t, err)
	require.Len(t, settings, 2)
	assert.Equal(t, ModSettings{Mod: "Boots", Enabled: true, Settings: map[string]uint64{"Colour": 1}}, settings[0])
	assert.Equal(t, ModSettings{Mod: "Socks", Enabled: true, Priority: 5}, settings[1])

	path, ok, err := s.ResolvePath("Feet", `Chara\Feet.mdl`)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "socks/feet.mdl", path)

	_, err = s.ModSetting("Feet", "Hats")
	assert.ErrorIs(t, err, ErrModNotFound)
}

func TestInheritedSettingsAreMarked(t *testing.T) {
	s, reg := testService(t)
	base, err := reg.Create("Base")
	require.NoError(t, err)
	child, err := reg.Create("Child")
	require.NoError(t, err)
	require.NoError(t, reg.SetInheritance(child, base))
	require.NoError(t, reg.SetModEnabled(base, "Boots", true))

	got, err := s.ModSetting("Child", "Boots")
	require.NoError(t, err)
	assert.True(t, got.Enabled)
	assert.Equal(t, "Base", got.InheritedFrom)

	own, err := s.ModSetting("Base", "Boots")
	require.NoError(t, err)
	assert.Empty(t, own.InheritedFrom)
}

func TestManipulationsAndAssignments(t *testing.T) {
	s, reg := testService(t)
	c, err := reg.Create("Armour")
	require.NoError(t, err)
	require.NoError(t, reg.SetModEnabled(c, "Boots", true))
	require.NoError(t, reg.Active().SetRole(collections.Yourself, c))
	require.NoError(t, reg.Active().AssignIndividual(c, actors.NewRetainer("Mog")))

	raw, err := s.Manipulations("Armour")
	require.NoError(t, err)
	var records []map[string]any
	require.NoError(t, json.Unmarshal(raw, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "Eqp", records[0]["Type"])

	got := s.Assignments()
	assert.Contains(t, got, Assignment{Role: collections.Yourself.String(), Collection: "Armour"})
	assert.Contains(t, got, Assignment{Role: collections.Default.String(), Collection: collections.DefaultName})
	assert.Equal(t, "Armour", got[len(got)-1].Collection)
	assert.Contains(t, got[len(got)-1].Role, collections.RoleIndividual)
}
