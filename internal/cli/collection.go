package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/wardrobe/internal/api"
	"github.com/mesh-intelligence/wardrobe/internal/collections"
)

func newCollectionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collection",
		Aliases: []string{"col"},
		Short:   "Create, delete, inherit and inspect collections",
	}
	cmd.AddCommand(
		newCollectionListCmd(a),
		newCollectionCreateCmd(a),
		newCollectionDeleteCmd(a),
		newCollectionInheritCmd(a),
		newCollectionShowCmd(a),
	)
	return cmd
}

func newCollectionListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				all := s.api.Collections()
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), all)
				}
				for _, c := range all {
					fmt.Fprintf(cmd.OutOrStdout(), "%-3d %-32s %s  mods=%d manipulations=%d\n",
						c.Index, c.Name, c.ID, len(c.EnabledMods), c.Manipulations)
				}
				return nil
			})
		},
	}
}

func newCollectionCreateCmd(a *app) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a collection",
		Long:  "Create an empty collection, or a copy of the settings and inheritance of\nanother collection with --from.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				var (
					c   *collections.Collection
					err error
				)
				if from != "" {
					src, ferr := s.collection(from)
					if ferr != nil {
						return ferr
					}
					c, err = s.reg.Duplicate(src, args[0])
				} else {
					c, err = s.reg.Create(args[0])
				}
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), map[string]string{"id": c.ID(), "name": c.Name()})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created collection %s (%s)\n", c.Name(), c.ID())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "collection to copy settings and inheritance from")
	return cmd
}

func newCollectionDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <collection>",
		Short: "Delete a collection",
		Long:  "Delete a collection. Collections inheriting from it drop it and its\nassignments are removed. Default and None cannot be deleted.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				c, err := s.collection(args[0])
				if err != nil {
					return err
				}
				if err := s.reg.Delete(c); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted collection %s\n", c.Name())
				return nil
			})
		},
	}
}

func newCollectionInheritCmd(a *app) *cobra.Command {
	var remove, replace bool
	cmd := &cobra.Command{
		Use:   "inherit <collection> <parent>...",
		Short: "Edit the inheritance list of a collection",
		Long: "Append parents to the inheritance list of a collection. Parents are searched\n" +
			"in list order for mods the collection does not configure itself.\n" +
			"With --remove the parents are removed instead; with --replace the list is\n" +
			"replaced by the given parents.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if remove && replace {
				return usageErrorf("--remove and --replace are mutually exclusive")
			}
			if len(args) < 2 && !replace {
				return usageErrorf("inherit needs at least one parent")
			}
			return a.withSession(func(s *session) error {
				c, err := s.collection(args[0])
				if err != nil {
					return err
				}
				parents := make([]*collections.Collection, 0, len(args)-1)
				for _, name := range args[1:] {
					p, err := s.collection(name)
					if err != nil {
						return err
					}
					parents = append(parents, p)
				}
				switch {
				case replace:
					err = s.reg.SetInheritance(c, parents...)
				case remove:
					for _, p := range parents {
						if err = s.reg.RemoveInheritance(c, p); err != nil {
							break
						}
					}
				default:
					for _, p := range parents {
						if err = s.reg.AddInheritance(c, p); err != nil {
							break
						}
					}
				}
				if err != nil {
					return err
				}
				names := make([]string, 0)
				for _, p := range c.Inheritance() {
					names = append(names, p.Name())
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), map[string]any{"collection": c.Name(), "inheritance": names})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s inherits [%s]\n", c.Name(), strings.Join(names, ", "))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&remove, "remove", false, "remove the parents instead of adding them")
	cmd.Flags().BoolVar(&replace, "replace", false, "replace the whole inheritance list")
	return cmd
}

// collectionDetail is the output of collection show.
type collectionDetail struct {
	api.Collection
	Settings  []api.ModSettings      `json:"settings,omitempty"`
	Conflicts []collections.Conflict `json:"conflicts,omitempty"`
}

func newCollectionShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <collection>",
		Short: "Show a collection with its mod settings and conflicts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				var (
					d   collectionDetail
					err error
				)
				if d.Collection, err = s.api.Collection(args[0]); err != nil {
					return err
				}
				if d.Settings, err = s.api.ModSettings(d.ID); err != nil {
					return err
				}
				if d.Conflicts, err = s.api.Conflicts(d.ID); err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), d)
				}
				printDetail(cmd, d)
				return nil
			})
		},
	}
}

func printDetail(cmd *cobra.Command, d collectionDetail) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Name:          %s\n", d.Name)
	fmt.Fprintf(out, "ID:            %s\n", d.ID)
	fmt.Fprintf(out, "Index:         %d\n", d.Index)
	fmt.Fprintf(out, "Changes:       %d\n", d.ChangeCounter)
	fmt.Fprintf(out, "Inherits:      [%s]\n", strings.Join(d.Inheritance, ", "))
	fmt.Fprintf(out, "Manipulations: %d\n", d.Manipulations)
	if len(d.Settings) > 0 {
		fmt.Fprintln(out, "Mods:")
	}
	for _, s := range d.Settings {
		state := "off"
		if s.Enabled {
			state = "on"
		}
		line := fmt.Sprintf("  %-3s %4d  %s", state, s.Priority, s.Mod)
		if s.InheritedFrom != "" {
			line += "  (from " + s.InheritedFrom + ")"
		}
		fmt.Fprintln(out, line)
	}
	if len(d.Conflicts) > 0 {
		fmt.Fprintln(out, "Conflicts:")
	}
	for _, c := range d.Conflicts {
		fmt.Fprintf(out, "  %s: %s over %s\n", c.Path, c.Winner, strings.Join(c.Losers, ", "))
	}
}
