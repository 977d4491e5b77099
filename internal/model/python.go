package model

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultMinorVersions are the Python minor versions tracked when nothing else is configured.
var DefaultMinorVersions = []MinorVersion{"3.4", "3.5", "3.6", "3.7"}

// DefaultMaxMicro is the highest micro-version number tried for every minor version.
// With the default, each minor version has 15 candidates: {minor}.0 through {minor}.14.
const DefaultMaxMicro = 14

// MinorVersion is a Python minor version tag in "MAJOR.MINOR" form, e.g. "3.6".
type MinorVersion string

// String returns the tag as written in report file names and prefix patterns.
func (m MinorVersion) String() string {
	return string(m)
}

// Validate checks that the tag has the "MAJOR.MINOR" shape with numeric parts.
func (m MinorVersion) Validate() error {
	major, minor, ok := strings.Cut(string(m), ".")
	if !ok {
		return fmt.Errorf("python version %q: expected MAJOR.MINOR", string(m))
	}
	for _, part := range []string{major, minor} {
		if _, err := strconv.ParseUint(part, 10, 16); err != nil {
			return fmt.Errorf("python version %q: %q is not a number", string(m), part)
		}
	}
	return nil
}

// Candidates returns the micro-versions {m}.0 through {m}.{maxMicro} in ascending order.
// The list is only used for substring matching against manifest lines.
func (m MinorVersion) Candidates(maxMicro int) []string {
	if maxMicro < 0 {
		return nil
	}
	out := make([]string, 0, maxMicro+1)
	for micro := 0; micro <= maxMicro; micro++ {
		out = append(out, string(m)+"."+strconv.Itoa(micro))
	}
	return out
}

// PrefixPatterns returns the seven line prefixes that identify a Python package
// declaration for this minor version in a package manifest.
//
// Observed conventions:
//
//	python3 3.6*    antergos 17.6
//	python3^3.6*    kaos 2017.07
//	python3-3.6*    fedora 26: python3-3.6.1-8.fc26.x86_64
//	python3.6*      parrotsecurity 3.7: python3.6^3.6.2~rc1-1
//	python 3.6*     gentoo unstable
//	python^3.6*
//	python-3.6*     arch current: python-3.6.2-1-i686.pkg.tar.xz
func (m MinorVersion) PrefixPatterns() []string {
	v := string(m)
	return []string{
		"python3 " + v,
		"python3^" + v,
		"python3-" + v,
		"python" + v,
		"python " + v,
		"python^" + v,
		"python-" + v,
	}
}

// VersionTable maps every tracked minor version to its candidate micro-versions.
// It is built once from configuration and never modified afterwards.
type VersionTable struct {
	minors     []MinorVersion
	candidates map[MinorVersion][]string
}

// NewVersionTable builds the candidate table for the given minor versions.
// Duplicate tags are kept only once, in first-seen order.
func NewVersionTable(minors []MinorVersion, maxMicro int) *VersionTable {
	t := &VersionTable{
		minors:     make([]MinorVersion, 0, len(minors)),
		candidates: make(map[MinorVersion][]string, len(minors)),
	}
	for _, m := range minors {
		if _, ok := t.candidates[m]; ok {
			continue
		}
		t.minors = append(t.minors, m)
		t.candidates[m] = m.Candidates(maxMicro)
	}
	return t
}

// Minors returns the tracked minor versions in configuration order.
func (t *VersionTable) Minors() []MinorVersion {
	out := make([]MinorVersion, len(t.minors))
	copy(out, t.minors)
	return out
}

// Candidates returns the candidate micro-versions for m, or nil if m is not tracked.
func (t *VersionTable) Candidates(m MinorVersion) []string {
	return t.candidates[m]
}

// Tracks reports whether m is part of the table.
func (t *VersionTable) Tracks(m MinorVersion) bool {
	_, ok := t.candidates[m]
	return ok
}
