package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/wardrobe/internal/paths"
	"github.com/mesh-intelligence/wardrobe/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	// envPrefix prefixes every environment override of types.Config.
	envPrefix = "WARDROBE_"
)

// configFile is the structure written to config.yaml on first run.
type configFile struct {
	Backend  string               `yaml:"backend"`
	DataDir  string               `yaml:"data_dir,omitempty"`
	ModDir   string               `yaml:"mod_dir,omitempty"`
	Resolver types.ResolverConfig `yaml:"resolver"`
}

// configure resolves the directories and builds the effective config:
// defaults, then config.yaml, then WARDROBE_ environment variables.
// Directories follow the flag > config.yaml > environment > default chain.
func (a *app) configure() error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return err
	}

	file := types.Config{Backend: types.BackendSQLite, Resolver: types.DefaultResolverConfig()}
	if err := v.Unmarshal(&file); err != nil {
		return fmt.Errorf("decode %s: %w", configFileExt, err)
	}
	cfg := file
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	if cfg.DataDir, err = paths.ResolveDataDir(a.flags.dataDir, file.DataDir); err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	if cfg.ModDir, err = paths.ResolveModDir(a.flags.modDir, file.ModDir, cfg.DataDir); err != nil {
		return fmt.Errorf("resolve mod dir: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.configDir, a.cfg = configDir, cfg
	return nil
}

// loadConfig reads config.yaml from configDir. A missing file is not an
// error.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// writeConfigIfMissing creates config.yaml with the current values. An
// existing file is left untouched.
func writeConfigIfMissing(path string, cfg types.Config) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}
	data, err := yaml.Marshal(&configFile{
		Backend:  cfg.Backend,
		DataDir:  cfg.DataDir,
		ModDir:   cfg.ModDir,
		Resolver: cfg.Resolver,
	})
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), a.cfg)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", filepath.Join(a.configDir, configFileExt))
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(&a.cfg)
		},
	}
}
