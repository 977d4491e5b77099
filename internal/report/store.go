package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nao1215/pydistro/internal/model"
)

// Header is the first row of every report file.
var Header = []string{"distribution", "dist_version", "python_version", "resource"}

// Store reads and writes the report files of one directory.
// It is not safe for concurrent use.
type Store struct {
	dir   string
	table *model.VersionTable
}

// NewStore creates a Store writing to dir for the minor versions of table.
func NewStore(dir string, table *model.VersionTable) *Store {
	return &Store{dir: dir, table: table}
}

// Path returns the report file of minor.
func (s *Store) Path(minor model.MinorVersion) string {
	return filepath.Join(s.dir, "python_distros_"+minor.String()+".csv")
}

// Reset truncates or creates the report file of every tracked minor version,
// leaving only the header row.
func (s *Store) Reset() error {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	for _, minor := range s.table.Minors() {
		if err := s.write(minor, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, Header); err != nil {
			return err
		}
	}
	return nil
}

// Append adds one row for m to the report file of minor.
// Rows are never deduplicated.
func (s *Store) Append(m *model.Match, minor model.MinorVersion) error {
	return s.write(minor, os.O_CREATE|os.O_WRONLY|os.O_APPEND,
		[]string{m.Distribution, m.DistVersion, m.PythonVersion, m.Resource})
}

func (s *Store) write(minor model.MinorVersion, flag int, record []string) error {
	path := s.Path(minor)
	f, err := os.OpenFile(path, flag, 0o644) //nolint:gosec // report files are meant to be shared
	if err != nil {
		return fmt.Errorf("failed to open report %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	w.UseCRLF = true
	if err := w.Write(record); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return f.Close()
}

// Read loads the report file of minor. The first row is treated as the header
// and skipped. ok is false when the file does not exist.
func (s *Store) Read(minor model.MinorVersion) (summary *model.Summary, ok bool, err error) {
	path := s.Path(minor)
	f, err := os.Open(path) //nolint:gosec // path is built from the configured report directory
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to open report %s: %w", path, err)
	}
	defer f.Close()

	summary = &model.Summary{Minor: minor, Matches: []model.Match{}}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	for row := 0; ; row++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, false, fmt.Errorf("failed to read report %s: %w", path, err)
		}
		if row == 0 {
			continue
		}
		summary.Matches = append(summary.Matches, matchFromRecord(rec))
	}
	return summary, true, nil
}

// Summaries reads the report of every tracked minor version in order,
// skipping minor versions without a report file.
func (s *Store) Summaries() ([]*model.Summary, error) {
	var out []*model.Summary
	for _, minor := range s.table.Minors() {
		summary, ok, err := s.Read(minor)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, summary)
		}
	}
	return out, nil
}

func matchFromRecord(rec []string) model.Match {
	field := func(i int) string {
		if i < len(rec) {
			return rec[i]
		}
		return ""
	}
	return model.Match{
		Distribution:  field(0),
		DistVersion:   field(1),
		PythonVersion: field(2),
		Resource:      field(3),
	}
}
