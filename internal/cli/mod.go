package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/wardrobe/internal/collections"
)

type modSetFlags struct {
	enable   bool
	disable  bool
	priority int
	settings []string
	inherit  bool
}

func newModCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mod",
		Short: "List installed mods and edit their settings in a collection",
	}
	cmd.AddCommand(newModListCmd(a), newModSetCmd(a))
	return cmd
}

func newModListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed mods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				type modInfo struct {
					Name   string   `json:"name"`
					Groups []string `json:"groups,omitempty"`
				}
				var out []modInfo
				for _, m := range s.mods.Mods() {
					info := modInfo{Name: m.Name}
					for _, g := range m.Groups {
						info.Groups = append(info.Groups, g.Name)
					}
					out = append(out, info)
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), out)
				}
				for _, m := range out {
					fmt.Fprintf(cmd.OutOrStdout(), "%-40s %s\n", m.Name, strings.Join(m.Groups, ", "))
				}
				return nil
			})
		},
	}
}

func newModSetCmd(a *app) *cobra.Command {
	var f modSetFlags
	cmd := &cobra.Command{
		Use:   "set <collection> <mod>",
		Short: "Change the settings of a mod in a collection",
		Long: `Change whether a mod is enabled, its priority and its option selections in a
collection. Settings take "Group=value": the option index of a single-select
group or the option bit mask of a multi-select group. --inherit drops the
collection's own settings so inherited ones apply.

Example:
  wardrobe mod set Armour "Plate Boots" --enable --priority 5 --setting Colour=1`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.enable && f.disable {
				return usageErrorf("--enable and --disable are mutually exclusive")
			}
			if f.inherit && (f.enable || f.disable || cmd.Flags().Changed("priority") || len(f.settings) > 0) {
				return usageErrorf("--inherit cannot be combined with other settings")
			}
			return a.withSession(func(s *session) error {
				c, err := s.collection(args[0])
				if err != nil {
					return err
				}
				if err := a.applyModSet(cmd, s, c, args[1], f); err != nil {
					return err
				}
				got, err := s.api.ModSetting(c.ID(), args[1])
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), got)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s in %s: enabled=%t priority=%d\n", got.Mod, c.Name(), got.Enabled, got.Priority)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&f.enable, "enable", false, "enable the mod")
	cmd.Flags().BoolVar(&f.disable, "disable", false, "disable the mod")
	cmd.Flags().IntVar(&f.priority, "priority", 0, "mod priority; higher wins conflicts")
	cmd.Flags().StringArrayVar(&f.settings, "setting", nil, `option selection as "Group=value"`)
	cmd.Flags().BoolVar(&f.inherit, "inherit", false, "drop own settings and use inherited ones")
	return cmd
}

func (a *app) applyModSet(cmd *cobra.Command, s *session, c *collections.Collection, mod string, f modSetFlags) error {
	if f.inherit {
		return s.reg.InheritMod(c, mod)
	}
	m, ok := s.mods.Mod(mod)
	if !ok {
		return fmt.Errorf("mod %q: %w", mod, collections.ErrModNotFound)
	}
	if f.enable || f.disable {
		if err := s.reg.SetModEnabled(c, mod, f.enable); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("priority") {
		if err := s.reg.SetModPriority(c, mod, f.priority); err != nil {
			return err
		}
	}
	for _, kv := range f.settings {
		group, value, err := parseSetting(m, kv)
		if err != nil {
			return err
		}
		if err := s.reg.SetModSetting(c, mod, group, value); err != nil {
			return err
		}
	}
	return nil
}

// parseSetting parses "Group=value" against the groups of m. The group may
// be named or given by index; the value may be decimal, 0x hex or 0b binary.
func parseSetting(m *collections.Mod, kv string) (int, uint64, error) {
	name, raw, ok := strings.Cut(kv, "=")
	if !ok {
		return 0, 0, usageErrorf("setting %q: expected Group=value", kv)
	}
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 0, 64)
	if err != nil {
		return 0, 0, usageErrorf("setting %q: value must be an unsigned number", kv)
	}
	name = strings.TrimSpace(name)
	for i, g := range m.Groups {
		if strings.EqualFold(g.Name, name) {
			return i, value, nil
		}
	}
	if i, err := strconv.Atoi(name); err == nil && i >= 0 && i < len(m.Groups) {
		return i, value, nil
	}
	return 0, 0, fmt.Errorf("group %q of %s: %w", name, m.Name, collections.ErrInvalidSetting)
}
