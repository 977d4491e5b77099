package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/pydistro/internal/model"
)

// Default configuration values.
const (
	// DefaultSiteURL is the DistroWatch root. All request URLs are built from it.
	DefaultSiteURL = "https://distrowatch.com"

	// DefaultPageDir caches the listing page and the per-distribution detail pages.
	DefaultPageDir = "downloaded_data"

	// DefaultManifestDir caches the downloaded package manifests.
	DefaultManifestDir = "downloaded_resources_data"

	// DefaultReportDir is where python_distros_{minor}.csv files are written.
	DefaultReportDir = "."

	// DefaultUserAgent is sent on every request.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 6.1) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/41.0.2228.0 Safari/537.36"

	// DefaultCrawlDelay of zero sends requests back to back.
	DefaultCrawlDelay = time.Duration(0)

	// DefaultTimeout of zero leaves request duration unbounded.
	DefaultTimeout = time.Duration(0)

	// LogFormatText writes human-readable key=value log records.
	LogFormatText = "text"

	// LogFormatJSON writes one JSON object per log record.
	LogFormatJSON = "json"

	// DefaultLogFormat is the log format used when none is configured.
	DefaultLogFormat = LogFormatText

	// AppName is the application name used for XDG directory paths.
	AppName = "pydistro"
)

// Config holds all configuration options for pydistro.
// It is populated from defaults, the optional config file and CLI flags,
// validated once, and then handed to each component.
type Config struct {
	// SiteURL is the scheme and host of the site being scraped, without a trailing slash.
	SiteURL string

	// PageDir holds distrowatch.html and one {distribution}.html per detail page.
	PageDir string

	// ManifestDir holds one {distribution}-{version}.txt per package manifest.
	ManifestDir string

	// ReportDir is the directory of the per-minor-version CSV reports.
	ReportDir string

	// PythonVersions are the tracked minor versions, in report order.
	PythonVersions []model.MinorVersion

	// MaxMicro is the highest micro-version number tried for each minor version.
	MaxMicro int

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// Headers are extra HTTP headers sent with every request.
	Headers map[string]string

	// CrawlDelay is the minimum spacing between two requests. Zero disables spacing.
	CrawlDelay time.Duration

	// Timeout bounds each HTTP request. Zero means no timeout.
	Timeout time.Duration

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// LogFormat selects the log record encoding: LogFormatText or LogFormatJSON.
	LogFormat string

	// History enables the SQLite run archive.
	History bool

	// DBDir is the directory of the run archive database.
	// Defaults to the XDG data directory (~/.local/share/pydistro on Linux).
	DBDir string

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile searches the default locations.
	ConfigFilePath string

	// JSONReport prints the summary as JSON. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport prints the summary as Markdown. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file for the summary. Empty means stdout.
	ReportFile string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	versions := make([]model.MinorVersion, len(model.DefaultMinorVersions))
	copy(versions, model.DefaultMinorVersions)

	return &Config{
		SiteURL:        DefaultSiteURL,
		PageDir:        DefaultPageDir,
		ManifestDir:    DefaultManifestDir,
		ReportDir:      DefaultReportDir,
		PythonVersions: versions,
		MaxMicro:       model.DefaultMaxMicro,
		UserAgent:      DefaultUserAgent,
		Headers:        map[string]string{},
		CrawlDelay:     DefaultCrawlDelay,
		Timeout:        DefaultTimeout,
		LogFormat:      DefaultLogFormat,
		DBDir:          XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for pydistro.
// On Linux: ~/.local/share/pydistro
// On macOS: ~/Library/Application Support/pydistro
// On Windows: %LOCALAPPDATA%\pydistro
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for pydistro.
// On Linux: ~/.config/pydistro
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// VersionTable builds the candidate table for the configured minor versions.
func (c *Config) VersionTable() *model.VersionTable {
	return model.NewVersionTable(c.PythonVersions, c.MaxMicro)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the package sentinel errors.
func (c *Config) Validate() error {
	if c.SiteURL == "" {
		return ErrEmptySiteURL
	}

	if len(c.PythonVersions) == 0 {
		return ErrNoPythonVersions
	}
	for _, v := range c.PythonVersions {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidPythonVersion, err)
		}
	}

	if c.MaxMicro < 0 {
		return ErrInvalidMaxMicro
	}

	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}

	if c.Timeout < 0 {
		return ErrInvalidTimeout
	}

	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return ErrInvalidLogFormat
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
