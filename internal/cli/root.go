// Package cli implements the wardrobe command-line interface.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/wardrobe/internal/api"
	"github.com/mesh-intelligence/wardrobe/internal/collections"
	"github.com/mesh-intelligence/wardrobe/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	modDir    string
	jsonMode  bool
	verbose   bool
}

// app is the state one command invocation shares between its subcommands.
type app struct {
	flags     rootFlags
	configDir string
	cfg       types.Config
	log       *slog.Logger
}

// NewRootCmd creates the top-level "wardrobe" command with global flags and
// every subcommand registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "wardrobe",
		Short: "Manage mod collections and inspect how they resolve",
		Long: "Wardrobe manages mod collections, their settings and inheritance, and the\n" +
			"roles and individuals they are assigned to.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.log = newLogger(cmd.ErrOrStderr(), a.flags.verbose)
			return a.configure()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: platform data dir)")
	pf.StringVar(&a.flags.modDir, "mod-dir", "", "installed mod directory (default: <data-dir>/mods)")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newVersionCmd(a),
		newInitCmd(a),
		newConfigCmd(a),
		newCollectionCmd(a),
		newAssignCmd(a),
		newModCmd(a),
		newMetaCmd(a),
		newResolveCmd(a),
		newBlurbCmd(a),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	err := root.Execute()
	if err == nil {
		os.Exit(exitSuccess)
	}
	fmt.Fprintln(os.Stderr, "wardrobe:", err)
	os.Exit(exitCode(err))
}

// exitCode maps an error to the process exit code: errors caused by the
// arguments are user errors, everything else is a system error.
func exitCode(err error) int {
	var flagErr *flagError
	switch {
	case errors.As(err, &flagErr),
		errors.Is(err, collections.ErrCollectionNotFound),
		errors.Is(err, collections.ErrDuplicateName),
		errors.Is(err, collections.ErrInvalidName),
		errors.Is(err, collections.ErrInheritanceCycle),
		errors.Is(err, collections.ErrCannotDeleteDefault),
		errors.Is(err, collections.ErrModNotFound),
		errors.Is(err, collections.ErrInvalidSetting),
		errors.Is(err, collections.ErrInvalidRole),
		errors.Is(err, collections.ErrInvalidIdentifier),
		errors.Is(err, collections.ErrDuplicateIndividual),
		errors.Is(err, api.ErrCollectionNotFound),
		errors.Is(err, api.ErrModNotFound):
		return exitUserError
	}
	return exitSysError
}

// flagError reports invalid command-line input.
type flagError struct{ msg string }

func (e *flagError) Error() string { return e.msg }

func usageErrorf(format string, args ...any) error {
	return &flagError{msg: fmt.Sprintf(format, args...)}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
