// Package commands implements the reconcile CLI.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brentcurtis76/casa-reconcile/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "reconcile",
		Short:   "Bank statement import and reconciliation",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newAnalyzeCommand())
	rootCmd.AddCommand(newImportCommand())
	rootCmd.AddCommand(newBatchesCommand())
	rootCmd.AddCommand(newMatchCommand())
	rootCmd.AddCommand(newReconcileCommands()...)
	rootCmd.AddCommand(newSweepCommand())

	return rootCmd
}
