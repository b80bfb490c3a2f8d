// Package main provides the entry point for the treefeed CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/treefeed/cmd/treefeed/commands"
	"github.com/Sumatoshi-tech/treefeed/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "treefeed",
		Short: "Treefeed - AST sequence preparation toolkit",
		Long: `Treefeed prepares pre-order flattened AST corpora for sequence models.

Commands:
  prep       Segment trees into training windows
  vocab      Build the literal vocabulary
  ancestors  Emit per-node ancestor chains
  stats      Summarize a corpus
  validate   Schema-check a corpus`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	commands.RegisterRootFlags(rootCmd)

	rootCmd.AddCommand(commands.NewPrepCommand())
	rootCmd.AddCommand(commands.NewVocabCommand())
	rootCmd.AddCommand(commands.NewAncestorsCommand())
	rootCmd.AddCommand(commands.NewStatsCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "treefeed %s\n", version.String())
		},
	}
}
