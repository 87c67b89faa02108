package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/netdraw/pkg/buildinfo"
)

// Execute runs the netdraw CLI and returns an error if any command fails.
// This is the main entry point for the CLI application.
//
// The function sets up the root command with all subcommands (render, serve,
// cache), configures logging based on the --verbose flag, and executes the
// command tree.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands via
// loggerFromContext.
func Execute(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:          "netdraw",
		Short:        "netdraw renders digital-logic netlists as schematic diagrams",
		Long:         `netdraw takes a JSON netlist and a skin of parametric SVG templates, places cells with an orthogonal layout engine, routes nets with junction dots, and emits a schematic SVG.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newRenderCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newCacheCmd())

	return root.ExecuteContext(ctx)
}
