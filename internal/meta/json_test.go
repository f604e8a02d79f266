package meta

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/wardrobe/internal/game"
)

func sampleDictionary(t *testing.T) *Dictionary {
	t.Helper()
	gmp, err := NewGmpEntry(GmpFields{Enabled: true, RotationA: 100, RotationB: 200, UnknownA: 3})
	require.NoError(t, err)

	d := &Dictionary{}
	for _, m := range []struct {
		id    Identifier
		entry any
	}{
		{ImcIdentifier{ObjectType: game.ObjectEquipment, PrimaryID: 1, Variant: 2, EquipSlot: game.SlotBody}, ImcEntry{MaterialID: 3, AttributeMask: 0x3FF, SoundID: 5}},
		{EqdpIdentifier{SetID: 1, Slot: game.SlotHands, GenderRace: game.AuRaMale}, NewEqdpEntry(game.SlotHands, true, false)},
		{eqpID(1, game.SlotHead), EqpHeadEnabled | EqpHeadShowEarrings},
		{EstIdentifier{SetID: 2, Slot: EstFace, GenderRace: game.VieraFemale}, EstEntry(7)},
		{GmpIdentifier{SetID: 8}, gmp},
		{rspID(game.Lost, RspMaleMinTail), RspEntry(0.5)},
		{GlobalEqpManipulation{Type: GlobalEqpDoNotHideBracelets, Condition: 4}, nil},
		{AtchIdentifier{Type: AtchBow, GenderRace: game.ElezenMale, Index: 1}, AtchEntry{Bone: "j_buki_sebo_r", Scale: 1, OffsetY: 0.25}},
		{ShpIdentifier{Slot: game.SlotLegs, ID: 6, Shape: "shpx_yb_a", ConnectorCondition: ConnectorAnkles}, ShpEntry(true)},
		{AtrIdentifier{Attribute: "atrx_ear"}, AtrEntry(false)},
	} {
		require.True(t, d.TryAdd(m.id, m.entry), "add %s", m.id)
	}
	return d
}

func TestDictionaryJSONRoundTrip(t *testing.T) {
	d := sampleDictionary(t)

	data, err := json.Marshal(d)
	require.NoError(t, err)

	var back Dictionary
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, d.Count(), back.Count())
	assert.True(t, d.Equal(&back))
	assert.Empty(t, d.Diff(&back))
}

func TestDictionaryJSONShape(t *testing.T) {
	var d Dictionary
	require.True(t, d.TryAdd(eqpID(12, game.SlotBody), EqpBodyEnabled))
	require.True(t, d.TryAdd(GlobalEqpManipulation{Type: GlobalEqpDoNotHideNecklace}, nil))

	data, err := json.Marshal(&d)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"Type":"Eqp","Manipulation":{"SetId":12,"Slot":"Body","Entry":1}},
		{"Type":"GlobalEqp","Manipulation":{"Type":"DoNotHideNecklace","Condition":0}}
	]`, string(data))
}

func TestDecodeSkipsBadRecords(t *testing.T) {
	input := `[
		{"Type":"Eqp","Manipulation":{"SetId":12,"Slot":"Body","Entry":1}},
		{"Type":"Bogus","Manipulation":{}},
		{"Type":"Eqp","Manipulation":{"SetId":12,"Slot":"Ears","Entry":0}},
		{"Type":"Eqp","Manipulation":{"SetId":13,"Slot":"Body"}},
		{"Type":"Rsp","Manipulation":{"SubRace":"Raen","Attribute":"MaleMaxSize","Entry":9000}},
		{"Type":"Eqp","Manipulation":{"SetId":12,"Slot":"Body","Entry":0}},
		{"Type":"Est","Manipulation":"not an object"},
		{"Type":"Rsp","Manipulation":{"SubRace":"Raen","Attribute":"MaleMaxSize","Entry":1.5}}
	]`
	var logs bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logs, nil))

	d, err := Decode([]byte(input), log)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Count())
	got, ok := d.Get(eqpID(12, game.SlotBody))
	require.True(t, ok)
	assert.Equal(t, EqpBodyEnabled, got, "first record wins")
	assert.Equal(t, 6, bytes.Count(logs.Bytes(), []byte("level=WARN")))
}

func TestDecodeRejectsNonArray(t *testing.T) {
	for _, input := range []string{`{"Type":"Eqp"}`, `[{"Type":`, ``} {
		_, err := Decode([]byte(input), nil)
		assert.ErrorIs(t, err, ErrMalformed, "input %q", input)
	}
}
