// Package commands wires the splitbooks CLI.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/splitbooks-dev/splitbooks/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "splitbooks",
		Short:   "Two-party shared-expense reconciliation",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newProcessCommand())
	rootCmd.AddCommand(newReviewCommand())
	rootCmd.AddCommand(newReportCommand())
	rootCmd.AddCommand(newServeCommand())

	return rootCmd
}

// workspaceDir reads the optional [directory] positional argument.
func workspaceDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
