package pipeline

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/nao1215/pydistro/internal/database"
	"github.com/nao1215/pydistro/internal/model"
)

// Fetcher keeps a cache file fresh. *fetch.Fetcher implements it.
type Fetcher interface {
	EnsureFresh(ctx context.Context, url, path string) (bool, error)
}

// Site knows the page layout of the scraped site. *crawler.Site implements it.
type Site interface {
	IndexURL() string
	IndexPath() string
	DetailURL(distribution string) string
	DetailPath(distribution string) string
	Distributions() iter.Seq2[string, error]
	PackageLists(distribution string) iter.Seq2[string, error]
}

// Extractor resolves the Python version of one release. *extract.Extractor implements it.
type Extractor interface {
	Extract(ctx context.Context, distribution, distVersion string, minor model.MinorVersion) (*model.Match, error)
}

// ReportStore receives matches. *report.Store implements it.
type ReportStore interface {
	Reset() error
	Append(m *model.Match, minor model.MinorVersion) error
}

// HistoryStore archives runs. *database.HistoryDB implements it.
type HistoryStore interface {
	StartRun(ctx context.Context, startedAt time.Time, versions []model.MinorVersion) (int64, error)
	InsertMatches(ctx context.Context, runID int64, minor model.MinorVersion, matches []model.Match) error
	FinishRun(ctx context.Context, runID int64, finishedAt time.Time, stats database.RunStats, runErr error) error
}

// ResetReportsStep truncates every report file to its header.
type ResetReportsStep struct {
	store ReportStore
}

// NewResetReportsStep creates a ResetReportsStep.
func NewResetReportsStep(store ReportStore) *ResetReportsStep {
	return &ResetReportsStep{store: store}
}

// Name returns the step name.
func (s *ResetReportsStep) Name() string {
	return "reset_reports"
}

// Do executes the step.
func (s *ResetReportsStep) Do(_ context.Context, _ *Run) error {
	if err := s.store.Reset(); err != nil {
		return fmt.Errorf("failed to reset reports: %w", err)
	}
	return nil
}

// FetchIndexStep refreshes the cached listing page.
type FetchIndexStep struct {
	fetcher Fetcher
	site    Site
}

// NewFetchIndexStep creates a FetchIndexStep.
func NewFetchIndexStep(fetcher Fetcher, site Site) *FetchIndexStep {
	return &FetchIndexStep{fetcher: fetcher, site: site}
}

// Name returns the step name.
func (s *FetchIndexStep) Name() string {
	return "fetch_index"
}

// Do executes the step.
func (s *FetchIndexStep) Do(ctx context.Context, _ *Run) error {
	if _, err := s.fetcher.EnsureFresh(ctx, s.site.IndexURL(), s.site.IndexPath()); err != nil {
		return fmt.Errorf("failed to fetch listing page: %w", err)
	}
	return nil
}

// ScanDistributionsStep walks every distribution and release and records
// the Python version of each tracked minor version.
type ScanDistributionsStep struct {
	fetcher   Fetcher
	site      Site
	extractor Extractor
	store     ReportStore
	minors    []model.MinorVersion
	logger    *slog.Logger
}

// NewScanDistributionsStep creates a ScanDistributionsStep. Every release is
// checked against every minor in minors, in order.
func NewScanDistributionsStep(fetcher Fetcher, site Site, extractor Extractor, store ReportStore, minors []model.MinorVersion, logger *slog.Logger) *ScanDistributionsStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScanDistributionsStep{
		fetcher:   fetcher,
		site:      site,
		extractor: extractor,
		store:     store,
		minors:    minors,
		logger:    logger,
	}
}

// Name returns the step name.
func (s *ScanDistributionsStep) Name() string {
	return "scan_distributions"
}

// Do executes the step.
func (s *ScanDistributionsStep) Do(ctx context.Context, run *Run) error {
	for distribution, err := range s.site.Distributions() {
		if err != nil {
			return err
		}
		run.Distributions++

		if err := s.scanDistribution(ctx, run, distribution); err != nil {
			return err
		}
	}
	s.logger.Info("scan finished",
		"distributions", run.Distributions,
		"releases", run.Releases,
		"matches", run.MatchCount(),
	)
	return nil
}

func (s *ScanDistributionsStep) scanDistribution(ctx context.Context, run *Run, distribution string) error {
	if _, err := s.fetcher.EnsureFresh(ctx, s.site.DetailURL(distribution), s.site.DetailPath(distribution)); err != nil {
		return fmt.Errorf("failed to fetch detail page of %s: %w", distribution, err)
	}

	for version, err := range s.site.PackageLists(distribution) {
		if err != nil {
			return err
		}
		run.Releases++

		for _, minor := range s.minors {
			if err := ctx.Err(); err != nil {
				return err
			}
			run.Attempts++

			m, err := s.extractor.Extract(ctx, distribution, version, minor)
			if err != nil {
				return fmt.Errorf("failed to extract python %s from %s %s: %w", minor, distribution, version, err)
			}
			if m == nil {
				continue
			}
			if err := s.store.Append(m, minor); err != nil {
				return err
			}
			run.AddMatch(minor, *m)
			s.logger.Debug("match", "distribution", distribution, "version", version, "python", m.PythonVersion)
		}
	}
	return nil
}

// StartHistoryStep opens a run in the history database so that downloads
// made by later steps are attributed to it.
type StartHistoryStep struct {
	db     HistoryStore
	minors []model.MinorVersion
}

// NewStartHistoryStep creates a StartHistoryStep.
func NewStartHistoryStep(db HistoryStore, minors []model.MinorVersion) *StartHistoryStep {
	return &StartHistoryStep{db: db, minors: minors}
}

// Name returns the step name.
func (s *StartHistoryStep) Name() string {
	return "start_history"
}

// Do executes the step.
func (s *StartHistoryStep) Do(ctx context.Context, run *Run) error {
	id, err := s.db.StartRun(ctx, run.StartedAt, s.minors)
	if err != nil {
		return err
	}
	run.HistoryID = id
	return nil
}

// SaveHistoryStep archives the matches and counters of the run.
type SaveHistoryStep struct {
	db     HistoryStore
	minors []model.MinorVersion
	now    func() time.Time
}

// NewSaveHistoryStep creates a SaveHistoryStep.
func NewSaveHistoryStep(db HistoryStore, minors []model.MinorVersion) *SaveHistoryStep {
	return &SaveHistoryStep{db: db, minors: minors, now: time.Now}
}

// Name returns the step name.
func (s *SaveHistoryStep) Name() string {
	return "save_history"
}

// Do executes the step.
func (s *SaveHistoryStep) Do(ctx context.Context, run *Run) error {
	if run.HistoryID == 0 {
		return nil
	}
	for _, minor := range s.minors {
		if err := s.db.InsertMatches(ctx, run.HistoryID, minor, run.Matches[minor]); err != nil {
			return err
		}
	}
	return s.db.FinishRun(ctx, run.HistoryID, s.now(), stats(run), nil)
}

// Abort marks an unfinished run as failed with runErr.
// It does nothing when history was never started.
func (s *SaveHistoryStep) Abort(ctx context.Context, run *Run, runErr error) error {
	if run.HistoryID == 0 {
		return nil
	}
	return s.db.FinishRun(ctx, run.HistoryID, s.now(), stats(run), runErr)
}

func stats(run *Run) database.RunStats {
	return database.RunStats{
		Distributions: run.Distributions,
		Releases:      run.Releases,
		Attempts:      run.Attempts,
		Matches:       run.MatchCount(),
	}
}
