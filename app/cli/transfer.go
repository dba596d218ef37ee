package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	var upload bool
	cmd := &cobra.Command{
		Use:   "import <file.md>",
		Short: "Create tasks from a markdown file",
		Long: `Create tasks from markdown. Each "# Heading" becomes a task and each
"## Heading" below it becomes one of its subtasks. The server does the parsing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireLogin(cmd.Context()); err != nil {
				return err
			}

			tasks := a.rootController()
			if upload {
				result, err := tasks.ImportFile(cmd.Context(), args[0])
				return reportImport(cmd, result.Message, err)
			}
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			result, err := tasks.Import(cmd.Context(), string(content))
			return reportImport(cmd, result.Message, err)
		},
	}
	cmd.Flags().BoolVar(&upload, "upload", false, "send the file as a multipart upload")
	return cmd
}

func reportImport(cmd *cobra.Command, message string, err error) error {
	if err != nil {
		return err
	}
	if message == "" {
		message = "Import complete"
	}
	fmt.Fprintln(cmd.OutOrStdout(), message)
	return nil
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all tasks to a markdown file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireLogin(cmd.Context()); err != nil {
				return err
			}

			path, err := a.rootController().Export(cmd.Context(), dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported tasks to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "directory to write the export into")
	return cmd
}
