package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nao1215/pydistro/internal/database"
	"github.com/nao1215/pydistro/internal/model"
	"github.com/spf13/cobra"
)

// historyTimeLayout is the timestamp format of the history listing.
const historyTimeLayout = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show archived runs",
		Long: `History lists the runs archived with --history, newest first, or prints
the matches of a single run.

Examples:
  # List the ten most recent runs
  pydistro history --limit 10

  # Show the matches found by run 3
  pydistro history --run 3`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().Int64P("run", "r", 0,
		"Show the matches of the run with this ID")
	cmd.Flags().IntP("limit", "n", 0,
		"Maximum number of runs to list (0 lists all)")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runID, err := cmd.Flags().GetInt64("run")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if _, err := os.Stat(filepath.Join(cfg.DBDir, database.FileName)); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(out, "No runs recorded yet.")
		fmt.Fprintln(out, "\nUse 'pydistro --history' to archive a run.")
		return nil
	}

	db, err := database.Open(cfg.DBDir, database.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if runID > 0 {
		return showRunMatches(ctx, out, db, runID)
	}
	return listRuns(ctx, out, db, limit)
}

// listRuns prints one line per archived run.
func listRuns(ctx context.Context, out io.Writer, db *database.HistoryDB, limit int) error {
	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		fmt.Fprintln(out, "\nUse 'pydistro --history' to archive a run.")
		return nil
	}

	fmt.Fprintf(out, "Run history (%d runs):\n\n", len(runs))
	fmt.Fprintf(out, "  %-6s  %-20s  %-10s  %-9s  %-8s  %-9s  %s\n",
		"ID", "Started", "Status", "Distros", "Releases", "Downloads", "Matches")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 84))

	for _, r := range runs {
		fmt.Fprintf(out, "  %-6d  %-20s  %-10s  %-9d  %-8d  %-9d  %d\n",
			r.ID,
			formatRunTime(r.StartedAt),
			r.Status,
			r.Distributions,
			r.Releases,
			r.Downloads,
			r.Matches,
		)
		if r.Error != "" {
			fmt.Fprintf(out, "          error: %s\n", r.Error)
		}
	}

	fmt.Fprintln(out, "\nUse 'pydistro history --run <id>' to see the matches of a run.")
	return nil
}

// showRunMatches prints the matches of one run grouped by minor version.
func showRunMatches(ctx context.Context, out io.Writer, db *database.HistoryDB, runID int64) error {
	records, err := db.RunMatches(ctx, runID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintf(out, "No matches recorded for run %d\n", runID)
		return nil
	}

	fmt.Fprintf(out, "Matches of run %d:\n", runID)
	var current model.MinorVersion
	for _, rec := range records {
		if rec.Minor != current {
			current = rec.Minor
			fmt.Fprintf(out, "\nPython %s\n", current)
		}
		fmt.Fprintf(out, "  %s %s: Python %s\n", rec.Distribution, rec.DistVersion, rec.PythonVersion)
	}
	return nil
}

func formatRunTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(historyTimeLayout)
}
