// Package paths resolves the configuration, data and mod directories.
//
// Every directory follows the same precedence: command-line flag, then the
// value from config.yaml (where one exists), then the WARDROBE_ environment
// variable, then the platform default. Results are absolute.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// appName names the per-user directories.
const appName = "wardrobe"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "WARDROBE_CONFIG_DIR"
	EnvDataDir   = "WARDROBE_DATA_DIR"
	EnvModDir    = "WARDROBE_MOD_DIR"
)

// ModDirName is the mod directory created under the data directory when
// nothing else names one.
const ModDirName = "mods"

// platformDir holds platform lookups that tests override.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/wardrobe (fallback ~/.config/wardrobe)
// macOS:   ~/Library/Application Support/wardrobe
// Windows: %APPDATA%/wardrobe
func DefaultConfigDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform data directory.
//
// Linux:   $XDG_DATA_HOME/wardrobe (fallback ~/.local/share/wardrobe)
// macOS and Windows share the configuration directory.
func DefaultDataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgDir(env, homeRel string) (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appName), nil
	}
	if xdg := os.Getenv(env); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeRel, appName), nil
}

// ResolveConfigDir returns flag, else $WARDROBE_CONFIG_DIR, else
// DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	return resolve(DefaultConfigDir, EnvConfigDir, flag)
}

// ResolveDataDir returns flag, else the config.yaml value, else
// $WARDROBE_DATA_DIR, else DefaultDataDir.
func ResolveDataDir(flag, configValue string) (string, error) {
	return resolve(DefaultDataDir, EnvDataDir, flag, configValue)
}

// ResolveModDir returns flag, else the config.yaml value, else
// $WARDROBE_MOD_DIR, else the mods directory inside dataDir.
func ResolveModDir(flag, configValue, dataDir string) (string, error) {
	fallback := func() (string, error) { return filepath.Join(dataDir, ModDirName), nil }
	return resolve(fallback, EnvModDir, flag, configValue)
}

// resolve returns the first non-empty explicit value, then the
// environment variable env, then fallback.
func resolve(fallback func() (string, error), env string, explicit ...string) (string, error) {
	for _, v := range explicit {
		if v != "" {
			return filepath.Abs(v)
		}
	}
	if v := os.Getenv(env); v != "" {
		return filepath.Abs(v)
	}
	dir, err := fallback()
	if err != nil {
		return "", err
	}
	return filepath.Abs(dir)
}
