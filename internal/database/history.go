package database

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/pydistro/internal/fetch"
	"github.com/nao1215/pydistro/internal/model"
)

// FileName is the database file name inside the data directory.
const FileName = "pydistro.db"

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ErrNoActiveRun is returned by RecordFetch when no run has been started.
var ErrNoActiveRun = errors.New("no active run")

// HistoryDB stores the run history in SQLite.
type HistoryDB struct {
	db     *sql.DB
	dbPath string

	// activeRun is the run downloads are attributed to. Zero means none.
	activeRun int64
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	h := &HistoryDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := h.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return h, nil
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

func (h *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		status TEXT NOT NULL,
		python_versions TEXT NOT NULL,
		distributions INTEGER DEFAULT 0,
		releases INTEGER DEFAULT 0,
		attempts INTEGER DEFAULT 0,
		matches INTEGER DEFAULT 0,
		error TEXT
	);

	CREATE TABLE IF NOT EXISTS matches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		python_minor TEXT NOT NULL,
		distribution TEXT NOT NULL,
		dist_version TEXT NOT NULL,
		python_version TEXT NOT NULL,
		resource TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_matches_run ON matches(run_id);
	CREATE INDEX IF NOT EXISTS idx_matches_distribution ON matches(distribution);

	CREATE TABLE IF NOT EXISTS fetches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		url TEXT NOT NULL,
		path TEXT NOT NULL,
		status_code INTEGER,
		bytes INTEGER,
		fetched_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_fetches_run ON fetches(run_id);
	`
	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// Run is one archived scraper run.
type Run struct {
	ID             int64
	StartedAt      time.Time
	FinishedAt     time.Time
	Status         string
	PythonVersions []model.MinorVersion
	Distributions  int
	Releases       int
	Attempts       int
	Matches        int
	Downloads      int
	Error          string
}

// RunStats are the counters stored when a run finishes.
type RunStats struct {
	Distributions int
	Releases      int
	Attempts      int
	Matches       int
}

// MatchRecord is an archived match with the minor version it was recorded for.
type MatchRecord struct {
	Minor model.MinorVersion
	model.Match
}

// StartRun records a new running run and makes it the active run for RecordFetch.
func (h *HistoryDB) StartRun(ctx context.Context, startedAt time.Time, versions []model.MinorVersion) (int64, error) {
	tags := make([]string, len(versions))
	for i, v := range versions {
		tags[i] = v.String()
	}

	res, err := h.db.ExecContext(ctx,
		`INSERT INTO runs (started_at, status, python_versions) VALUES (?, ?, ?)`,
		formatTimestamp(startedAt), StatusRunning, strings.Join(tags, ","))
	if err != nil {
		return 0, fmt.Errorf("failed to start run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}
	h.activeRun = id
	return id, nil
}

// FinishRun stores the counters and final status of a run. A non-nil runErr
// marks the run failed. The run stops being active.
func (h *HistoryDB) FinishRun(ctx context.Context, runID int64, finishedAt time.Time, stats RunStats, runErr error) error {
	status, msg := StatusCompleted, ""
	if runErr != nil {
		status, msg = StatusFailed, runErr.Error()
	}

	_, err := h.db.ExecContext(ctx, `
	UPDATE runs SET finished_at = ?, status = ?, distributions = ?, releases = ?, attempts = ?, matches = ?, error = ?
	WHERE id = ?`,
		formatTimestamp(finishedAt), status, stats.Distributions, stats.Releases, stats.Attempts, stats.Matches, msg, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run %d: %w", runID, err)
	}
	if h.activeRun == runID {
		h.activeRun = 0
	}
	return nil
}

// InsertMatches stores the matches of one minor version in a single transaction.
func (h *HistoryDB) InsertMatches(ctx context.Context, runID int64, minor model.MinorVersion, matches []model.Match) error {
	if len(matches) == 0 {
		return nil
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO matches (run_id, python_minor, distribution, dist_version, python_version, resource)
	VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range matches {
		if _, err := stmt.ExecContext(ctx, runID, minor.String(), m.Distribution, m.DistVersion, m.PythonVersion, m.Resource); err != nil {
			return fmt.Errorf("failed to insert match: %w", err)
		}
	}
	return tx.Commit()
}

// RecordFetch stores a download under the active run. It implements fetch.Recorder.
func (h *HistoryDB) RecordFetch(ctx context.Context, d fetch.Download) error {
	if h.activeRun == 0 {
		return ErrNoActiveRun
	}
	_, err := h.db.ExecContext(ctx, `
	INSERT INTO fetches (run_id, url, path, status_code, bytes, fetched_at)
	VALUES (?, ?, ?, ?, ?, ?)`,
		h.activeRun, d.URL, d.Path, d.StatusCode, d.Bytes, formatTimestamp(d.FetchedAt))
	if err != nil {
		return fmt.Errorf("failed to record fetch: %w", err)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first. A limit of zero or less returns all runs.
func (h *HistoryDB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
	SELECT r.id, r.started_at, COALESCE(r.finished_at, ''), r.status, r.python_versions,
	       r.distributions, r.releases, r.attempts, r.matches, COALESCE(r.error, ''),
	       (SELECT COUNT(*) FROM fetches f WHERE f.run_id = r.id)
	FROM runs r
	ORDER BY r.id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished string
			versions          string
		)
		if err := rows.Scan(&r.ID, &started, &finished, &r.Status, &versions,
			&r.Distributions, &r.Releases, &r.Attempts, &r.Matches, &r.Error, &r.Downloads); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = parseTimestamp(started)
		r.FinishedAt = parseTimestamp(finished)
		r.PythonVersions = splitVersions(versions)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunMatches returns the matches of a run grouped by minor version in the
// order the run tracked them, then in insertion order.
func (h *HistoryDB) RunMatches(ctx context.Context, runID int64) ([]MatchRecord, error) {
	var versions string
	err := h.db.QueryRowContext(ctx, `SELECT python_versions FROM runs WHERE id = ?`, runID).Scan(&versions)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run %d: %w", runID, err)
	}

	rows, err := h.db.QueryContext(ctx, `
	SELECT python_minor, distribution, dist_version, python_version, resource
	FROM matches
	WHERE run_id = ?
	ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches of run %d: %w", runID, err)
	}
	defer rows.Close()

	var out []MatchRecord
	for rows.Next() {
		var (
			rec   MatchRecord
			minor string
		)
		if err := rows.Scan(&minor, &rec.Distribution, &rec.DistVersion, &rec.PythonVersion, &rec.Resource); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		rec.Minor = model.MinorVersion(minor)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	order := splitVersions(versions)
	rank := func(m model.MinorVersion) int {
		if i := slices.Index(order, m); i >= 0 {
			return i
		}
		return len(order)
	}
	slices.SortStableFunc(out, func(a, b MatchRecord) int {
		return cmp.Compare(rank(a.Minor), rank(b.Minor))
	})
	return out, nil
}

func splitVersions(s string) []model.MinorVersion {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]model.MinorVersion, len(parts))
	for i, p := range parts {
		out[i] = model.MinorVersion(p)
	}
	return out
}

// timestampFormats lists formats to try when parsing timestamps from SQLite.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTimestamp returns the zero time for empty or unparsable values.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

var _ fetch.Recorder = (*HistoryDB)(nil)
