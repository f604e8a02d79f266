package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/wardrobe/internal/api"
	"github.com/mesh-intelligence/wardrobe/internal/collections"
	"github.com/mesh-intelligence/wardrobe/pkg/wardrobe"
)

// testDirs points every command of a test at its own scratch directories.
type testDirs struct {
	config, data, mods string
}

func newTestDirs(t *testing.T) testDirs {
	t.Helper()
	root := t.TempDir()
	d := testDirs{
		config: filepath.Join(root, "config"),
		data:   filepath.Join(root, "data"),
		mods:   filepath.Join(root, "data", "mods"),
	}
	require.NoError(t, os.MkdirAll(d.mods, 0o755))
	return d
}

// run executes one wardrobe command and returns its stdout.
func (d testDirs) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config-dir", d.config, "--data-dir", d.data, "--mod-dir", d.mods}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (d testDirs) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := d.run(t, args...)
	require.NoError(t, err, "wardrobe %s", strings.Join(args, " "))
	return out
}

func (d testDirs) writeMod(t *testing.T, name, file, content string) {
	t.Helper()
	path := filepath.Join(d.mods, name, file)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func decodeJSON[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestInitCreatesDefault(t *testing.T) {
	d := newTestDirs(t)

	out := d.mustRun(t, "init")
	assert.Contains(t, out, "1 collections")
	assert.FileExists(t, filepath.Join(d.config, configFileExt))
	assert.FileExists(t, filepath.Join(d.data, "collections.jsonl"))

	list := decodeJSON[[]api.Collection](t, d.mustRun(t, "--json", "collection", "list"))
	require.Len(t, list, 1)
	assert.Equal(t, collections.DefaultName, list[0].Name)

	assigned := decodeJSON[[]api.Assignment](t, d.mustRun(t, "--json", "assign"))
	roles := map[string]string{}
	for _, a := range assigned {
		roles[a.Role] = a.Collection
	}
	assert.Equal(t, collections.DefaultName, roles["default"])
	assert.Equal(t, collections.DefaultName, roles["interface"])

	out = d.mustRun(t, "--json", "init")
	assert.Contains(t, out, `"config_written": false`)
}

func TestVersion(t *testing.T) {
	d := newTestDirs(t)
	got := decodeJSON[map[string]string](t, d.mustRun(t, "--json", "version"))
	assert.Equal(t, wardrobe.Version, got["version"])
	assert.Equal(t, wardrobe.ModulePath, got["module"])
}

func TestConfigOverrides(t *testing.T) {
	d := newTestDirs(t)
	require.NoError(t, os.MkdirAll(d.config, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(d.config, configFileExt),
		[]byte("backend: sqlite\nresolver:\n  use_yourself_in_editors: false\n"), 0o644))
	t.Setenv("WARDROBE_RESOLVER_USE_NO_MODS_IN_INSPECT", "true")

	out := d.mustRun(t, "--json", "config")
	var cfg struct {
		DataDir  string         `json:"data_dir"`
		Resolver map[string]any `json:"resolver"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, d.data, cfg.DataDir)
	assert.Equal(t, false, cfg.Resolver["use_yourself_in_editors"])
	assert.Equal(t, true, cfg.Resolver["use_no_mods_in_inspect"])
	assert.Equal(t, true, cfg.Resolver["use_owner_name_for_character_collection"])
}

func TestConfigRejectsUnknownBackend(t *testing.T) {
	d := newTestDirs(t)
	require.NoError(t, os.MkdirAll(d.config, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(d.config, configFileExt), []byte("backend: postgres\n"), 0o644))

	_, err := d.run(t, "config")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}

func TestCollectionLifecycle(t *testing.T) {
	d := newTestDirs(t)
	d.mustRun(t, "init")

	assert.Contains(t, d.mustRun(t, "collection", "create", "Armour"), "Created collection Armour")
	d.mustRun(t, "collection", "create", "Tall", "--from", "Armour")
	assert.Contains(t, d.mustRun(t, "collection", "inherit", "Tall", "Armour", "Default"), "Tall inherits [Armour, Default]")

	tests := []struct {
		name string
		args []string
		want error
	}{
		{name: "duplicate name", args: []string{"collection", "create", "armour"}, want: collections.ErrDuplicateName},
		{name: "reserved name", args: []string{"collection", "create", "None"}, want: collections.ErrDuplicateName},
		{name: "empty name", args: []string{"collection", "create", " "}, want: collections.ErrInvalidName},
		{name: "cycle", args: []string{"collection", "inherit", "Armour", "Tall"}, want: collections.ErrInheritanceCycle},
		{name: "unknown parent", args: []string{"collection", "inherit", "Tall", "Nope"}, want: collections.ErrCollectionNotFound},
		{name: "delete default", args: []string{"collection", "delete", "Default"}, want: collections.ErrCannotDeleteDefault},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.run(t, tt.args...)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, exitUserError, exitCode(err))
		})
	}

	_, err := d.run(t, "collection", "inherit", "Tall", "Armour", "--remove", "--replace")
	var flagErr *flagError
	assert.ErrorAs(t, err, &flagErr)

	d.mustRun(t, "collection", "delete", "Armour")
	detail := decodeJSON[collectionDetail](t, d.mustRun(t, "--json", "collection", "show", "Tall"))
	assert.Equal(t, []string{collections.DefaultName}, detail.Inheritance)

	names := map[string]bool{}
	for _, c := range decodeJSON[[]api.Collection](t, d.mustRun(t, "--json", "collection", "list")) {
		names[c.Name] = true
	}
	assert.Equal(t, map[string]bool{"Default": true, "Tall": true}, names)
}

func TestAssign(t *testing.T) {
	d := newTestDirs(t)
	d.mustRun(t, "init")
	d.mustRun(t, "collection", "create", "Armour")

	d.mustRun(t, "assign", "yourself", "Armour")
	d.mustRun(t, "assign", "highlander-female-npc", "Armour")
	out := d.mustRun(t, "assign", "individual", "Armour", "--player", "Aria Stone@73", "--player", "Aria Stone@40")
	assert.Contains(t, out, "Aria Stone")

	assigned := map[string]string{}
	for _, a := range decodeJSON[[]api.Assignment](t, d.mustRun(t, "--json", "assign")) {
		assigned[a.Role] = a.Collection
	}
	assert.Equal(t, "Armour", assigned["yourself"])
	assert.Equal(t, "Armour", assigned["highlander-female-npc"])
	var individuals int
	for role, c := range assigned {
		if strings.HasPrefix(role, collections.RoleIndividual+":") {
			individuals++
			assert.Equal(t, "Armour", c)
		}
	}
	assert.Equal(t, 1, individuals)

	d.mustRun(t, "assign", "individual", "None", "--player", "Aria Stone@73")
	d.mustRun(t, "assign", "yourself", "None")
	for _, a := range decodeJSON[[]api.Assignment](t, d.mustRun(t, "--json", "assign")) {
		assert.NotEqual(t, "yourself", a.Role)
		assert.False(t, strings.HasPrefix(a.Role, collections.RoleIndividual+":"), a.Role)
	}

	tests := []struct {
		name string
		args []string
	}{
		{name: "one argument", args: []string{"assign", "yourself"}},
		{name: "individual without identities", args: []string{"assign", "individual", "Armour"}},
		{name: "identities on a role", args: []string{"assign", "yourself", "Armour", "--retainer", "Mog"}},
		{name: "player without world", args: []string{"assign", "individual", "Armour", "--player", "Aria Stone"}},
		{name: "unknown special", args: []string{"assign", "individual", "Armour", "--special", "Lobby"}},
		{name: "npc without ids", args: []string{"assign", "individual", "Armour", "--npc", "EventNpc"}},
		{name: "npc of player kind", args: []string{"assign", "individual", "Armour", "--npc", "Player:5"}},
		{name: "npc with bad id", args: []string{"assign", "individual", "Armour", "--npc", "Mount:x"}},
		{name: "owned without owner", args: []string{"assign", "individual", "Armour", "--owned", "Mount:5"}},
		{name: "owned without kind", args: []string{"assign", "individual", "Armour", "--owned", "Aria Stone@73"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.run(t, tt.args...)
			var flagErr *flagError
			require.ErrorAs(t, err, &flagErr)
			assert.Equal(t, exitUserError, exitCode(err))
		})
	}

	_, err := d.run(t, "assign", "dwarf", "Armour")
	assert.ErrorIs(t, err, collections.ErrInvalidRole)
}

func TestAssignNpcIndividuals(t *testing.T) {
	d := newTestDirs(t)
	d.mustRun(t, "init")
	d.mustRun(t, "collection", "create", "Tall")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "npc with several data ids",
			args: []string{"--npc", "eventnpc:1002, 1001"},
			want: "EventNpc [1001,1002]",
		},
		{
			name: "owned npc",
			args: []string{"--owned", "Aria Stone@73:Mount:5"},
			want: "Aria Stone's Mount [5]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := d.mustRun(t, append([]string{"assign", "individual", "Tall"}, tt.args...)...)
			assert.Contains(t, out, tt.want)

			var found bool
			for _, a := range decodeJSON[[]api.Assignment](t, d.mustRun(t, "--json", "assign")) {
				if strings.HasPrefix(a.Role, collections.RoleIndividual+":") && strings.Contains(a.Role, tt.want) {
					found = true
					assert.Equal(t, "Tall", a.Collection)
				}
			}
			assert.True(t, found, "assignment persisted for %s", tt.want)

			d.mustRun(t, append([]string{"assign", "individual", "None"}, tt.args...)...)
		})
	}
}

const plateMod = `{
	"Files": {"chara/equipment/e6000/model/c0101e6000_top.mdl": "files/top.mdl"},
	"Manipulations": [{"Type": "Eqp", "Manipulation": {"SetId": 6000, "Slot": "Body", "Entry": 5}}]
}`

const plateColours = `{
	"Name": "Colour", "Type": "Single",
	"Options": [
		{"Name": "Red", "Files": {"chara/equipment/e6000/texture/top.tex": "red.tex"}},
		{"Name": "Blue", "Files": {"chara/equipment/e6000/texture/top.tex": "blue.tex"}}
	]
}`

func TestModSetAndResolve(t *testing.T) {
	d := newTestDirs(t)
	d.writeMod(t, "Plate", "default_mod.json", plateMod)
	d.writeMod(t, "Plate", "group_001_colour.json", plateColours)
	d.mustRun(t, "init")
	d.mustRun(t, "collection", "create", "Armour")

	mods := decodeJSON[[]map[string]any](t, d.mustRun(t, "--json", "mod", "list"))
	require.Len(t, mods, 1)
	assert.Equal(t, "Plate", mods[0]["name"])

	got := decodeJSON[api.ModSettings](t, d.mustRun(t, "--json", "mod", "set", "Armour", "Plate",
		"--enable", "--priority", "5", "--setting", "Colour=1"))
	assert.True(t, got.Enabled)
	assert.Equal(t, 5, got.Priority)
	assert.Equal(t, uint64(1), got.Settings["Colour"])

	out := d.mustRun(t, "resolve", "Armour", `chara\equipment\e6000\texture\top.tex`)
	assert.Equal(t, filepath.Join(d.mods, "Plate", "blue.tex"), strings.TrimSpace(out))
	out = d.mustRun(t, "resolve", "Armour", "chara/equipment/e6000/model/c0101e6000_top.mdl")
	assert.Equal(t, filepath.Join(d.mods, "Plate", "files", "top.mdl"), strings.TrimSpace(out))
	assert.Contains(t, d.mustRun(t, "resolve", "Default", "chara/equipment/e6000/texture/top.tex"), "not redirected")

	// A child inherits the enabled mod until it configures the mod itself.
	d.mustRun(t, "collection", "create", "Child")
	d.mustRun(t, "collection", "inherit", "Child", "Armour")
	detail := decodeJSON[collectionDetail](t, d.mustRun(t, "--json", "collection", "show", "Child"))
	require.Len(t, detail.Settings, 1)
	assert.Equal(t, "Armour", detail.Settings[0].InheritedFrom)
	d.mustRun(t, "mod", "set", "Child", "Plate", "--disable")
	assert.Contains(t, d.mustRun(t, "resolve", "Child", "chara/equipment/e6000/texture/top.tex"), "not redirected")
	d.mustRun(t, "mod", "set", "Child", "Plate", "--inherit")
	out = d.mustRun(t, "resolve", "Child", "chara/equipment/e6000/texture/top.tex")
	assert.Equal(t, filepath.Join(d.mods, "Plate", "blue.tex"), strings.TrimSpace(out))

	_, err := d.run(t, "mod", "set", "Armour", "Missing", "--enable")
	assert.ErrorIs(t, err, collections.ErrModNotFound)
	_, err = d.run(t, "mod", "set", "Armour", "Plate", "--setting", "Shape=1")
	assert.ErrorIs(t, err, collections.ErrInvalidSetting)
	_, err = d.run(t, "mod", "set", "Armour", "Plate", "--setting", "Colour")
	var flagErr *flagError
	assert.ErrorAs(t, err, &flagErr)
	_, err = d.run(t, "mod", "set", "Armour", "Plate", "--enable", "--disable")
	assert.ErrorAs(t, err, &flagErr)
}

func TestParseSetting(t *testing.T) {
	m := &collections.Mod{Name: "Plate", Groups: []collections.Group{{Name: "Colour"}, {Name: "Extras"}}}
	tests := []struct {
		in        string
		wantGroup int
		wantValue uint64
		wantErr   bool
	}{
		{in: "Colour=1", wantGroup: 0, wantValue: 1},
		{in: "extras = 0x3", wantGroup: 1, wantValue: 3},
		{in: "1=0b101", wantGroup: 1, wantValue: 5},
		{in: "Colour=-1", wantErr: true},
		{in: "Colour", wantErr: true},
		{in: "7=1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			g, v, err := parseSetting(m, tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantGroup, g)
			assert.Equal(t, tt.wantValue, v)
		})
	}
}

func TestMetaImportExportDiff(t *testing.T) {
	d := newTestDirs(t)
	d.mustRun(t, "init")
	d.mustRun(t, "collection", "create", "Armour")

	src := filepath.Join(t.TempDir(), "manips.json")
	require.NoError(t, os.WriteFile(src, []byte(`[
		{"Type": "Eqp", "Manipulation": {"SetId": 6000, "Slot": "Head", "Entry": 3298534883328}},
		{"Type": "Unknown", "Manipulation": {}}
	]`), 0o644))

	_, err := d.run(t, "meta", "import", src)
	var flagErr *flagError
	require.ErrorAs(t, err, &flagErr)

	out := d.mustRun(t, "meta", "import", src, "--mod", "Imported", "--enable-in", "Armour")
	assert.Contains(t, out, "Installed Imported with 1 manipulations")
	assert.FileExists(t, filepath.Join(d.mods, "Imported", "default_mod.json"))

	exported := filepath.Join(t.TempDir(), "armour.json")
	d.mustRun(t, "meta", "export", "Armour", "-o", exported)
	assert.FileExists(t, exported)

	lines := decodeJSON[[]diffLine](t, d.mustRun(t, "--json", "meta", "diff", "Default", "Armour"))
	require.Len(t, lines, 1)
	assert.Equal(t, "added", lines[0].Op)

	lines = decodeJSON[[]diffLine](t, d.mustRun(t, "--json", "meta", "diff", "Armour", exported))
	assert.Empty(t, lines)

	_, err = d.run(t, "meta", "diff", "Armour", "Nowhere")
	assert.ErrorIs(t, err, collections.ErrCollectionNotFound)
}

func TestBlurbRoundTrip(t *testing.T) {
	d := newTestDirs(t)
	d.mustRun(t, "init")
	d.mustRun(t, "collection", "create", "Armour")

	path := "chara/equipment/e6000/material/v0001/mt_c0101e6000_top_a.mtrl"
	vpath := strings.TrimSpace(d.mustRun(t, "blurb", "encode", "Armour", path, "--crc", "--salt", "7"))
	assert.True(t, strings.HasSuffix(vpath, path), vpath)

	got := decodeJSON[decodedBlurb](t, d.mustRun(t, "--json", "blurb", "decode", vpath, "--salt", "7"))
	assert.Equal(t, path, got.Path)
	assert.Equal(t, "Armour", got.Name)
	assert.False(t, got.Stale)
	assert.NotEmpty(t, got.PathCRC)

	_, err := d.run(t, "blurb", "decode", vpath, "--salt", "8")
	var flagErr *flagError
	assert.ErrorAs(t, err, &flagErr)
	_, err = d.run(t, "blurb", "decode", path)
	assert.ErrorAs(t, err, &flagErr)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "flag error", err: usageErrorf("bad"), want: exitUserError},
		{name: "not found", err: api.ErrCollectionNotFound, want: exitUserError},
		{name: "wrapped sentinel", err: fmt.Errorf("assign: %w", collections.ErrInvalidRole), want: exitUserError},
		{name: "other", err: os.ErrPermission, want: exitSysError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
