package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrEmptySiteURL is returned when the site URL is blank.
	ErrEmptySiteURL = errors.New("site URL must not be empty")

	// ErrNoPythonVersions is returned when no minor version is tracked.
	ErrNoPythonVersions = errors.New("no python versions configured")

	// ErrInvalidPythonVersion is returned when a tracked version is not in MAJOR.MINOR form.
	ErrInvalidPythonVersion = errors.New("invalid python version")

	// ErrInvalidMaxMicro is returned when the micro-version ceiling is negative.
	ErrInvalidMaxMicro = errors.New("invalid max micro: must be non-negative")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidTimeout is returned when the timeout is negative.
	// Use 0 to disable the timeout.
	ErrInvalidTimeout = errors.New("invalid timeout: must be non-negative")

	// ErrInvalidLogFormat is returned when the log format is neither "text" nor "json".
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
