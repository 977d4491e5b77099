package main

import (
	"fmt"
	"os"

	"github.com/nao1215/pydistro/internal/config"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for pydistro.
// Without a subcommand it runs a full scrape.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pydistro",
		Short: "Find the Python 3 version shipped by each Linux distribution",
		Long: `pydistro scrapes DistroWatch to find which Python 3.x micro-version each
Linux distribution release ships.

A run downloads the distribution list, every distribution's detail page and
the package list of each release. Downloads are cached and reused for the
rest of the day. Results are written to python_distros_{version}.csv, one
file per tracked Python minor version, and a summary is printed.

Examples:
  # Scrape and print the summary
  pydistro

  # Wait one second between requests and archive the run
  pydistro --delay 1s --history

  # Write a Markdown summary to a file
  pydistro --markdown -o report.md`,
		Args:          cobra.NoArgs,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runScrapeCmd,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .pydistro in current directory, XDG config or home directory)")
	cmd.PersistentFlags().String("log-format", config.DefaultLogFormat,
		"Log record format: text or json")

	cmd.Flags().DurationP("delay", "d", config.DefaultCrawlDelay,
		"Minimum delay between HTTP requests")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request (0 means none)")
	cmd.Flags().Bool("history", false,
		"Archive this run in the history database")
	addOutputFlags(cmd)

	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// addOutputFlags registers the summary format flags.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON summary (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown summary (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write summary to specified file path (creates directories if needed)")
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
