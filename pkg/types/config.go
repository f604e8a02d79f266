package types

import "errors"

// Config holds backend selection, directories and resolver switches.
// Environment variables prefixed WARDROBE_ override file values.
type Config struct {
	Backend string `json:"backend" yaml:"backend" mapstructure:"backend" env:"BACKEND"`
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir" env:"DATA_DIR"`
	ModDir  string `json:"mod_dir" yaml:"mod_dir" mapstructure:"mod_dir" env:"MOD_DIR"`

	Resolver ResolverConfig `json:"resolver" yaml:"resolver" mapstructure:"resolver" envPrefix:"RESOLVER_"`
}

// ResolverConfig toggles the optional steps of collection resolution.
type ResolverConfig struct {
	// UseOwnerNameForCharacterCollection resolves owned NPCs (minions,
	// mounts, pets) through their owner when no assignment matches them.
	UseOwnerNameForCharacterCollection bool `json:"use_owner_name_for_character_collection" yaml:"use_owner_name_for_character_collection" mapstructure:"use_owner_name_for_character_collection" env:"USE_OWNER_NAME"`
	// UseYourselfInEditors prefers the Yourself collection on character
	// editing screens.
	UseYourselfInEditors bool `json:"use_yourself_in_editors" yaml:"use_yourself_in_editors" mapstructure:"use_yourself_in_editors" env:"USE_YOURSELF_IN_EDITORS"`
	// UseCharacterCollectionsInCards resolves adventurer cards through the
	// local player.
	UseCharacterCollectionsInCards bool `json:"use_character_collections_in_cards" yaml:"use_character_collections_in_cards" mapstructure:"use_character_collections_in_cards" env:"USE_CHARACTER_COLLECTIONS_IN_CARDS"`
	// UseNoModsInInspect resolves the examine screen to the empty collection.
	UseNoModsInInspect bool `json:"use_no_mods_in_inspect" yaml:"use_no_mods_in_inspect" mapstructure:"use_no_mods_in_inspect" env:"USE_NO_MODS_IN_INSPECT"`
}

// DefaultResolverConfig returns the switches a fresh install starts with.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		UseOwnerNameForCharacterCollection: true,
		UseYourselfInEditors:               true,
		UseCharacterCollectionsInCards:     true,
	}
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
	ErrDataDirEmpty   = errors.New("data dir must not be empty for the sqlite backend")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Backend == BackendSQLite && c.DataDir == "" {
		return ErrDataDirEmpty
	}
	return nil
}
