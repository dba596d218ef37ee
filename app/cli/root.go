package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	baseURL    string
	output     string
	debug      bool
	trace      bool
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "todo",
		Short: "Manage tasks and subtasks on a remote task server",
		Long: `todo is a command line client for the task API.

It signs in once, keeps the session token locally, and lets you create,
complete and organise tasks into subtasks, import and export them as markdown,
and pick from suggested tasks.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&opts.baseURL, "base-url", "", "override api.base_url")
	flags.StringVarP(&opts.output, "output", "o", "table", "output format: table, json or yaml")
	flags.BoolVar(&opts.debug, "debug", false, "sets log level to debug")
	flags.BoolVar(&opts.trace, "trace", false, "sets log level to trace")

	rootCmd.AddCommand(newLoginCmd(opts))
	rootCmd.AddCommand(newRegisterCmd(opts))
	rootCmd.AddCommand(newLogoutCmd(opts))
	rootCmd.AddCommand(newWhoamiCmd(opts))
	rootCmd.AddCommand(newListCmd(opts))
	rootCmd.AddCommand(newSubtasksCmd(opts))
	rootCmd.AddCommand(newTreeCmd(opts))
	rootCmd.AddCommand(newAddCmd(opts))
	rootCmd.AddCommand(newEditCmd(opts))
	rootCmd.AddCommand(newCompleteCmd(opts))
	rootCmd.AddCommand(newDeleteCmd(opts))
	rootCmd.AddCommand(newSuggestCmd(opts))
	rootCmd.AddCommand(newImportCmd(opts))
	rootCmd.AddCommand(newExportCmd(opts))
	rootCmd.AddCommand(newRecoverCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	return rootCmd
}

// Execute runs the root command
func Execute(ctx context.Context, version string) error {
	rootCmd := NewRootCommand()
	rootCmd.Version = version
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
