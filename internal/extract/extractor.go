package extract

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nao1215/pydistro/internal/model"
)

// Fetcher keeps a cache file fresh. *fetch.Fetcher implements it.
type Fetcher interface {
	EnsureFresh(ctx context.Context, url, path string) (bool, error)
}

// Locator builds manifest URLs and cache paths. *crawler.Site implements it.
type Locator interface {
	ManifestURL(distribution, version string) string
	ManifestPath(distribution, version string) string
}

// Extractor downloads manifests and scans them for Python package declarations.
type Extractor struct {
	fetcher Fetcher
	locator Locator
	table   *model.VersionTable
	logger  *slog.Logger
}

// New creates an Extractor. A nil logger discards output.
func New(fetcher Fetcher, locator Locator, table *model.VersionTable, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{
		fetcher: fetcher,
		locator: locator,
		table:   table,
		logger:  logger,
	}
}

// Extract makes sure the manifest of (distribution, distVersion) is cached
// and returns the Python micro-version of minor it declares.
// It returns nil and no error when the manifest has no matching line.
func (e *Extractor) Extract(ctx context.Context, distribution, distVersion string, minor model.MinorVersion) (*model.Match, error) {
	if !e.table.Tracks(minor) {
		return nil, fmt.Errorf("python %s is not tracked", minor)
	}

	url := e.locator.ManifestURL(distribution, distVersion)
	path := e.locator.ManifestPath(distribution, distVersion)
	if _, err := e.fetcher.EnsureFresh(ctx, url, path); err != nil {
		return nil, err
	}

	f, err := os.Open(path) //nolint:gosec // path is built from the configured cache directory
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	version, line, err := e.scan(f, minor, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if version == "" {
		e.logger.Debug("no python declaration found", "python", minor.String(), "path", path)
		return nil, nil
	}

	return &model.Match{
		Distribution:  distribution,
		DistVersion:   distVersion,
		PythonVersion: version,
		Resource:      strings.TrimSpace(line),
	}, nil
}

// Scan returns the resolved micro-version and the line it was found on,
// or empty strings when r has no matching line.
func (e *Extractor) Scan(r io.Reader, minor model.MinorVersion) (version, line string, err error) {
	return e.scan(r, minor, "")
}

func (e *Extractor) scan(r io.Reader, minor model.MinorVersion, source string) (string, string, error) {
	prefixes := minor.PrefixPatterns()
	candidates := e.table.Candidates(minor)

	br := bufio.NewReader(r)
	for {
		line, err := readLine(br)
		if errors.Is(err, io.EOF) {
			return "", "", nil
		}
		if err != nil {
			return "", "", err
		}
		if !hasAnyPrefix(line, prefixes) {
			continue
		}
		if v := lastContained(line, candidates); v != "" {
			return v, line, nil
		}
		e.logger.Debug("python declaration without known version", "python", minor.String(), "path", source, "line", line)
	}
}

// readLine returns the next line of r without its terminator.
// "\n", "\r\n" and a bare "\r" all end a line, and lines may be of any length.
// io.EOF is returned only when no bytes are left.
func readLine(r *bufio.Reader) (string, error) {
	var b strings.Builder
	for {
		c, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && b.Len() > 0 {
				return b.String(), nil
			}
			return b.String(), err
		}
		switch c {
		case '\n':
			return b.String(), nil
		case '\r':
			if next, err := r.Peek(1); err == nil && next[0] == '\n' {
				_, _ = r.ReadByte()
			}
			return b.String(), nil
		}
		b.WriteByte(c)
	}
}

// MatchLine applies the matching rules to a single line. ok is false when the
// line does not start with a prefix of minor or holds none of the candidates.
func MatchLine(line string, minor model.MinorVersion, candidates []string) (version string, ok bool) {
	if !hasAnyPrefix(line, minor.PrefixPatterns()) {
		return "", false
	}
	v := lastContained(line, candidates)
	return v, v != ""
}

func hasAnyPrefix(line string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// lastContained returns the last candidate, in list order, that is a substring of line.
func lastContained(line string, candidates []string) string {
	found := ""
	for _, c := range candidates {
		if strings.Contains(line, c) {
			found = c
		}
	}
	return found
}
