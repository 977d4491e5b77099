// Package pipeline runs one scrape as an ordered list of steps.
//
// A full run resets the reports, refreshes the listing page, walks every
// distribution and release, and optionally archives the result:
//
//	start_history -> reset_reports -> fetch_index -> scan_distributions -> save_history
//
// Steps share a *Run that accumulates counters and matches. The first
// failing step stops the run. Steps execute one at a time and every
// download inside them is sequential.
package pipeline
