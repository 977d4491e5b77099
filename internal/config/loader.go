package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nao1215/pydistro/internal/model"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".pydistro"

// xdgConfigFile is the file name looked up inside XDGConfigDir.
const xdgConfigFile = "config.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .pydistro configuration file.
// Pointer fields distinguish "not set" from a zero value.
type File struct {
	SiteURL        *string           `yaml:"site_url,omitempty"`
	PageDir        *string           `yaml:"page_dir,omitempty"`
	ManifestDir    *string           `yaml:"manifest_dir,omitempty"`
	ReportDir      *string           `yaml:"report_dir,omitempty"`
	PythonVersions []string          `yaml:"python_versions,omitempty"`
	MaxMicro       *int              `yaml:"max_micro,omitempty"`
	UserAgent      *string           `yaml:"user_agent,omitempty"`
	CrawlDelay     *time.Duration    `yaml:"crawl_delay,omitempty"`
	Timeout        *time.Duration    `yaml:"timeout,omitempty"`
	Headers        map[string]string `yaml:"headers,omitempty"`
	LogFormat      *string           `yaml:"log_format,omitempty"`
	History        *bool             `yaml:"history,omitempty"`
	DBDir          *string           `yaml:"db_dir,omitempty"`
}

// LoadConfigFile loads a configuration file from path.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// Apply copies every value set in the file onto cfg.
// Headers are merged; a header present in both keeps the file's value.
func (cf *File) Apply(cfg *Config) {
	if cf.SiteURL != nil {
		cfg.SiteURL = strings.TrimRight(*cf.SiteURL, "/")
	}
	if cf.PageDir != nil {
		cfg.PageDir = *cf.PageDir
	}
	if cf.ManifestDir != nil {
		cfg.ManifestDir = *cf.ManifestDir
	}
	if cf.ReportDir != nil {
		cfg.ReportDir = *cf.ReportDir
	}
	if len(cf.PythonVersions) > 0 {
		cfg.PythonVersions = make([]model.MinorVersion, 0, len(cf.PythonVersions))
		for _, v := range cf.PythonVersions {
			cfg.PythonVersions = append(cfg.PythonVersions, model.MinorVersion(strings.TrimSpace(v)))
		}
	}
	if cf.MaxMicro != nil {
		cfg.MaxMicro = *cf.MaxMicro
	}
	if cf.UserAgent != nil {
		cfg.UserAgent = *cf.UserAgent
	}
	if cf.CrawlDelay != nil {
		cfg.CrawlDelay = *cf.CrawlDelay
	}
	if cf.Timeout != nil {
		cfg.Timeout = *cf.Timeout
	}
	if len(cf.Headers) > 0 {
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string, len(cf.Headers))
		}
		for k, v := range cf.Headers {
			cfg.Headers[k] = v
		}
	}
	if cf.LogFormat != nil {
		cfg.LogFormat = strings.ToLower(strings.TrimSpace(*cf.LogFormat))
	}
	if cf.History != nil {
		cfg.History = *cf.History
	}
	if cf.DBDir != nil {
		cfg.DBDir = *cf.DBDir
	}
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .pydistro in the current directory
// 3. Look for config.yaml in the XDG config directory
// 4. Look for .pydistro in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), xdgConfigFile))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}
