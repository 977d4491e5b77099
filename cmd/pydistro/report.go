package main

import (
	"fmt"

	"github.com/nao1215/pydistro/internal/report"
	"github.com/spf13/cobra"
)

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the summary of existing report files",
		Long: `Report reads the python_distros_{version}.csv files left by a previous
run and prints their summary without downloading anything.

Missing report files are skipped.

Examples:
  # Print the plain text summary
  pydistro report

  # Print a JSON summary
  pydistro report --json

  # Write a Markdown summary to a file
  pydistro report --markdown -o docs/python.md`,
		Args: cobra.NoArgs,
		RunE: runReportCmd,
	}

	addOutputFlags(cmd)

	return cmd
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := readOutputFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	store := report.NewStore(cfg.ReportDir, cfg.VersionTable())
	return outputSummary(cmd.OutOrStdout(), cfg, store)
}
