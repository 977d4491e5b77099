package model

// Match records that a distribution release ships a specific Python micro-version.
// A Match is created once and never updated.
type Match struct {
	// Distribution is the DistroWatch identifier, e.g. "fedora".
	Distribution string `json:"distribution"`

	// DistVersion is the release label scraped from the package list link, e.g. "26".
	DistVersion string `json:"dist_version"`

	// PythonVersion is the resolved micro-version. It always occurs in Resource.
	PythonVersion string `json:"python_version"`

	// Resource is the trimmed manifest line the version was read from.
	Resource string `json:"resource"`
}

// Summary holds the matches of one minor version as read back from its report file.
type Summary struct {
	// Minor is the Python minor version the report was written for.
	Minor MinorVersion `json:"minor"`

	// Matches are the report rows in file order.
	Matches []Match `json:"matches"`
}

// Count returns the number of matches in the summary.
func (s *Summary) Count() int {
	return len(s.Matches)
}
