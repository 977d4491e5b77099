// Package report stores matches in per-version CSV files and renders summaries.
//
// Store owns the python_distros_{minor}.csv files: one per tracked minor
// version, reset at the start of every run and appended to as matches are
// found. The summary writers read nothing themselves; they render the
// model.Summary values returned by Store.Summaries:
//   - SimpleWriter: the plain console summary
//   - MarkdownWriter: GitHub Flavored Markdown tables
//   - JSONWriter: structured JSON for tool integration
package report
