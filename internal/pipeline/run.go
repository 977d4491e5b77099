package pipeline

import (
	"time"

	"github.com/nao1215/pydistro/internal/model"
)

// Run accumulates the state of one scrape.
type Run struct {
	// HistoryID is the run id in the history database, or zero when history is off.
	HistoryID int64

	// StartedAt is when the run began.
	StartedAt time.Time

	// Distributions counts the distributions enumerated from the listing page.
	Distributions int

	// Releases counts the release labels found on detail pages.
	Releases int

	// Attempts counts extraction attempts, one per release and minor version.
	Attempts int

	// Matches holds the matches found per minor version, in discovery order.
	Matches map[model.MinorVersion][]model.Match

	// PerformedSteps lists the steps that completed.
	PerformedSteps []string

	// Err is the error that stopped the run, if any.
	Err error
}

// NewRun creates an empty Run started at startedAt.
func NewRun(startedAt time.Time) *Run {
	return &Run{
		StartedAt: startedAt,
		Matches:   make(map[model.MinorVersion][]model.Match),
	}
}

// AddMatch records m under minor.
func (r *Run) AddMatch(minor model.MinorVersion, m model.Match) {
	r.Matches[minor] = append(r.Matches[minor], m)
}

// MatchCount returns the number of matches over all minor versions.
func (r *Run) MatchCount() int {
	n := 0
	for _, ms := range r.Matches {
		n += len(ms)
	}
	return n
}
