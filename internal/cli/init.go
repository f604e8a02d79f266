package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize wardrobe storage",
		Long: "Create the configuration, data and mod directories, write a default\n" +
			"config.yaml and create the Default collection on a fresh install.",
		Args: cobra.NoArgs,
		RunE: a.runInit,
	}
}

func (a *app) runInit(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(a.configDir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	created, err := writeConfigIfMissing(filepath.Join(a.configDir, configFileExt), a.cfg)
	if err != nil {
		return err
	}

	var count int
	err = a.withSession(func(s *session) error {
		count = len(s.reg.All())
		return nil
	})
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}

	out := cmd.OutOrStdout()
	if a.flags.jsonMode {
		return printJSON(out, map[string]any{
			"config_dir":     a.configDir,
			"data_dir":       a.cfg.DataDir,
			"mod_dir":        a.cfg.ModDir,
			"config_written": created,
			"collections":    count,
		})
	}
	fmt.Fprintf(out, "Wardrobe initialized in %s (%d collections)\n", a.cfg.DataDir, count)
	return nil
}
