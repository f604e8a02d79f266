package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/wardrobe/pkg/wardrobe"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the wardrobe version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]string{"version": wardrobe.Version, "module": wardrobe.ModulePath})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wardrobe v%s\nmodule: %s\n", wardrobe.Version, wardrobe.ModulePath)
			return nil
		},
	}
}
