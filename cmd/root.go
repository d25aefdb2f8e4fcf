// Package cmd contains the CLI entry point for the application,
// built using the Cobra library.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "config.json"

var rootCmd = &cobra.Command{
	Use:   "repo-report [owner/name]",
	Short: "A CLI tool to report on GitHub repository activity.",
	Long: `repo-report fetches repository metadata, branches and commits from GitHub,
aggregates commit statistics per author, day, month and weekday, and writes a
Markdown report with bar charts for every repository listed in the config file.

Pass owner/name to analyze a single repository without a config file.
Set GITHUB_TOKEN (or put it in a .env file) for higher rate limits.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runAnalyze,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringP("config", "c", defaultConfigPath, "Path to the JSON or TOML config file")
	rootCmd.Flags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
}
