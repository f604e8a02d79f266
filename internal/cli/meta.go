package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/wardrobe/internal/collections"
	"github.com/mesh-intelligence/wardrobe/internal/meta"
)

func newMetaCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meta",
		Short: "Export, import and compare metadata manipulations",
	}
	cmd.AddCommand(newMetaExportCmd(a), newMetaImportCmd(a), newMetaDiffCmd(a))
	return cmd
}

func newMetaExportCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <collection>",
		Short: "Write the manipulations of a collection as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				raw, err := s.api.Manipulations(args[0])
				if err != nil {
					return err
				}
				var buf bytes.Buffer
				if err := json.Indent(&buf, raw, "", "  "); err != nil {
					return fmt.Errorf("format manipulations: %w", err)
				}
				buf.WriteByte('\n')
				if output == "" || output == "-" {
					_, err = cmd.OutOrStdout().Write(buf.Bytes())
					return err
				}
				if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write instead of stdout")
	return cmd
}

func newMetaImportCmd(a *app) *cobra.Command {
	var modName, enableIn string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Install a manipulation list as a new mod",
		Long: "Read a JSON manipulation list and install it as a mod carrying only those\n" +
			"manipulations. Records that do not parse are skipped with a warning.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if modName == "" {
				return usageErrorf("--mod is required")
			}
			d, err := readDictionary(a, args[0])
			if err != nil {
				return err
			}
			return a.withSession(func(s *session) error {
				if err := s.mods.Install(modName, d); err != nil {
					return err
				}
				s.reg.ModsReloaded()
				if enableIn != "" {
					c, err := s.collection(enableIn)
					if err != nil {
						return err
					}
					if err := s.reg.SetModEnabled(c, modName, true); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Installed %s with %d manipulations\n", modName, d.Count())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&modName, "mod", "", "name of the mod to create")
	cmd.Flags().StringVar(&enableIn, "enable-in", "", "collection to enable the new mod in")
	return cmd
}

// diffLine is one entry of meta diff output.
type diffLine struct {
	Op  string `json:"op"`
	ID  string `json:"id"`
	Old any    `json:"old,omitempty"`
	New any    `json:"new,omitempty"`
}

func newMetaDiffCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <from> <to>",
		Short: "Compare the manipulations of two collections or files",
		Long: "List the manipulations added, removed or changed between two sources. Each\n" +
			"source is a collection name or id, or a JSON manipulation file.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				from, err := a.dictionary(s, args[0])
				if err != nil {
					return err
				}
				to, err := a.dictionary(s, args[1])
				if err != nil {
					return err
				}
				changes := diffLines(from.Diff(to))
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), changes)
				}
				for _, l := range changes {
					switch l.Op {
					case "changed":
						fmt.Fprintf(cmd.OutOrStdout(), "~ %s: %v -> %v\n", l.ID, l.Old, l.New)
					case "added":
						fmt.Fprintf(cmd.OutOrStdout(), "+ %s: %v\n", l.ID, l.New)
					default:
						fmt.Fprintf(cmd.OutOrStdout(), "- %s: %v\n", l.ID, l.Old)
					}
				}
				return nil
			})
		},
	}
}

func diffLines(changes []meta.Change) []diffLine {
	out := make([]diffLine, 0, len(changes))
	for _, ch := range changes {
		l := diffLine{ID: ch.ID.String(), Old: ch.Old, New: ch.New}
		switch {
		case ch.Old == nil:
			l.Op = "added"
		case ch.New == nil:
			l.Op = "removed"
		default:
			l.Op = "changed"
		}
		out = append(out, l)
	}
	return out
}

// dictionary returns the manipulations of a collection, or of a file when
// no collection matches src.
func (a *app) dictionary(s *session, src string) (*meta.Dictionary, error) {
	c, err := s.collection(src)
	if err == nil {
		return c.Meta(), nil
	}
	if !errors.Is(err, collections.ErrCollectionNotFound) {
		return nil, err
	}
	if _, serr := os.Stat(src); serr != nil {
		return nil, err
	}
	return readDictionary(a, src)
}

func readDictionary(a *app, path string) (*meta.Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	d, err := meta.Decode(data, a.log)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}
