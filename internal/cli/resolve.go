package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResolveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <collection> <game-path>",
		Short: "Show the file a collection redirects a game path to",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(func(s *session) error {
				target, ok, err := s.api.ResolvePath(args[0], args[1])
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), map[string]any{"path": args[1], "target": target, "redirected": ok})
				}
				if !ok {
					fmt.Fprintf(cmd.OutOrStdout(), "%s (not redirected)\n", target)
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), target)
				return nil
			})
		},
	}
}
