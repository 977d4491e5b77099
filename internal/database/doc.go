// Package database provides the optional SQLite run history of pydistro.
//
// HistoryDB stores:
//   - one row per run with its counters and final status
//   - the matches found by each run, per Python minor version
//   - every download made during a run
//
// The CSV reports stay the primary output and are overwritten on each run.
// The history is an opt-in archive next to them (modernc.org/sqlite, no CGO).
package database
