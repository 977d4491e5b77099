package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/nao1215/pydistro/internal/config"
	"github.com/nao1215/pydistro/internal/crawler"
	"github.com/nao1215/pydistro/internal/database"
	"github.com/nao1215/pydistro/internal/extract"
	"github.com/nao1215/pydistro/internal/fetch"
	pdlog "github.com/nao1215/pydistro/internal/log"
	"github.com/nao1215/pydistro/internal/pipeline"
	"github.com/nao1215/pydistro/internal/report"
	"github.com/spf13/cobra"
)

// runScrapeCmd executes a full scrape.
func runScrapeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScrape(ctx, cmd.OutOrStdout(), cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// newLogger creates the logger selected by the configured log format.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	if cfg.LogFormat == config.LogFormatJSON {
		return pdlog.NewJSONLogger(w, cfg.Verbose)
	}
	return pdlog.NewLogger(w, cfg.Verbose)
}

// loadConfig builds a Config from defaults and the configuration file.
// An explicitly given --config path must exist; otherwise a missing file
// leaves the defaults untouched.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	if cmd.Flags().Changed("log-format") {
		format, err := cmd.Flags().GetString("log-format")
		if err != nil {
			return nil, err
		}
		cfg.LogFormat = strings.ToLower(format)
	}
	return cfg, nil
}

// buildConfig creates a Config for the scrape command.
// Flags override the configuration file only when given on the command line.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("delay") {
		if cfg.CrawlDelay, err = flags.GetDuration("delay"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("history") {
		if cfg.History, err = flags.GetBool("history"); err != nil {
			return nil, err
		}
	}
	if err := readOutputFlags(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readOutputFlags copies the summary format flags onto cfg.
func readOutputFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return err
	}
	return nil
}

// runScrape wires the components together, runs the pipeline and prints the summary.
func runScrape(ctx context.Context, out io.Writer, cfg *config.Config, logger *slog.Logger) error {
	table := cfg.VersionTable()
	minors := table.Minors()

	site := crawler.NewSite(cfg.SiteURL, cfg.PageDir, cfg.ManifestDir)
	store := report.NewStore(cfg.ReportDir, table)

	fetchOpts := []fetch.Option{
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithHeaders(cfg.Headers),
		fetch.WithDelay(cfg.CrawlDelay),
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithLogger(logger),
	}

	var db *database.HistoryDB
	if cfg.History {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer db.Close()
		fetchOpts = append(fetchOpts, fetch.WithRecorder(db))
	}

	fetcher := fetch.New(fetchOpts...)
	extractor := extract.New(fetcher, site, table, logger)

	p := pipeline.New(pipeline.WithLogger(logger))
	var save *pipeline.SaveHistoryStep
	if db != nil {
		save = pipeline.NewSaveHistoryStep(db, minors)
		p.AddStep(pipeline.NewStartHistoryStep(db, minors))
	}
	p.AddSteps(
		pipeline.NewResetReportsStep(store),
		pipeline.NewFetchIndexStep(fetcher, site),
		pipeline.NewScanDistributionsStep(fetcher, site, extractor, store, minors, logger),
	)
	if save != nil {
		p.AddStep(save)
	}

	logger.Info("starting scrape",
		"site", cfg.SiteURL,
		"python_versions", minors,
		"steps", p.StepNames(),
	)

	run := pipeline.NewRun(time.Now())
	if err := p.Execute(ctx, run); err != nil {
		if save != nil {
			if abortErr := save.Abort(context.WithoutCancel(ctx), run, err); abortErr != nil {
				logger.Warn("failed to record failed run", "error", abortErr)
			}
		}
		return fmt.Errorf("scrape failed: %w", err)
	}

	logger.Info("scrape completed",
		"distributions", run.Distributions,
		"releases", run.Releases,
		"matches", run.MatchCount(),
	)

	return outputSummary(out, cfg, store)
}

// outputSummary prints the summary of the report files in the requested format,
// to cfg.ReportFile when set and to stdout otherwise.
func outputSummary(stdout io.Writer, cfg *config.Config, store *report.Store) error {
	if cfg.ReportFile == "" {
		return printSummary(stdout, cfg, store)
	}

	if dir := filepath.Dir(cfg.ReportFile); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	return writeAndClose(f, cfg, store)
}

// writeAndClose prints the summary to wc and closes it. A failed close is
// reported when the summary itself was written.
func writeAndClose(wc io.WriteCloser, cfg *config.Config, store *report.Store) error {
	err := printSummary(wc, cfg, store)
	if cerr := wc.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("failed to close output file: %w", cerr)
	}
	return err
}

func printSummary(output io.Writer, cfg *config.Config, store *report.Store) error {
	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output)
	}

	if _, err := report.PrintSummary(store, w); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}
