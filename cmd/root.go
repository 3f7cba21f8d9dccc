// Package cmd contains the CLI of the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// newRootCmd builds the github-pr-stats command. It has no subcommands; the
// root command itself produces the report.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "github-pr-stats",
		Short: "Lists a GitHub user's pull requests grouped by repository.",
		Long: `github-pr-stats searches the pull requests a GitHub user opened within a
date range, optionally filtered by label, fetches the details of each one and
prints them grouped by repository with their creation and merge dates.`,
		Example: `  github-pr-stats --user octocat --start 2024-01-01 --end 2024-03-31
  github-pr-stats --user octocat --start 2024-10-01 --end 2024-10-31 --label hacktoberfest`,
		Args: cobra.NoArgs,
		RunE: runReport,
	}

	// Add a persistent flag for verbose output.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	addReportFlags(rootCmd)
	return rootCmd
}

// Execute builds the root command and runs it. Interrupts cancel the
// in-flight requests. This is called by main.main().
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := newRootCmd().ExecuteContext(ctx)
	if err != nil {
		cancel()
		os.Exit(1)
	}
}
