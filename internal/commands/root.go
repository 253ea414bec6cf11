// Package commands holds the statementctl CLI.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "statementctl",
		Short: "Parse and ingest Indian bank statement PDFs",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newParseCommand())
	rootCmd.AddCommand(newIngestCommand())
	rootCmd.AddCommand(newBanksCommand())

	return rootCmd
}
