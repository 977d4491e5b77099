// Package config provides configuration structures and utilities for pydistro.
// It defines the site to scrape, the cache and report directories, the tracked
// Python versions and the politeness settings used while downloading.
package config
