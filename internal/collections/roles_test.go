package collections

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/wardrobe/internal/game"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		input   string
		want    Role
		wantErr bool
	}{
		{input: "default", want: Default},
		{input: "Yourself", want: Yourself},
		{input: "child", want: Child},
		{input: "elderly", want: Elderly},
		{input: "male", want: GenderRole(game.Male, false)},
		{input: "female-npc", want: GenderRole(game.Female, true)},
		{input: "highlander-female-npc", want: GroupRole(game.Highlander, game.Female, true)},
		{input: "SeekerOfTheSun-male", want: GroupRole(game.SeekerOfTheSun, game.Male, false)},
		{input: "group", wantErr: true},
		{input: "none", wantErr: true},
		{input: "npc", wantErr: true},
		{input: "unknown-male", wantErr: true},
		{input: "midlander-other", wantErr: true},
		{input: "a-b-male", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRole(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRole)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRolesRoundTrip(t *testing.T) {
	roles := Roles()
	assert.Len(t, roles, 6+2*(2+2*len(game.SubRaces)))
	seen := make(map[Role]bool)
	for _, r := range roles {
		require.True(t, r.Valid(), r.String())
		assert.False(t, seen[r], "duplicate %s", r)
		seen[r] = true

		text, err := r.MarshalText()
		require.NoError(t, err)
		var back Role
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, r, back)
	}
}

func TestRoleValid(t *testing.T) {
	assert.False(t, Role{}.Valid())
	assert.False(t, Role{Type: RoleDefault, NPC: true}.Valid())
	assert.False(t, Role{Type: RoleGroup}.Valid())
	assert.False(t, GroupRole(game.SubRace(99), game.Male, false).Valid())
	_, err := Role{Type: RoleGroup}.MarshalText()
	assert.ErrorIs(t, err, ErrInvalidRole)
}
