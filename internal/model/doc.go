// Package model defines the core data structures used throughout pydistro.
//
// This package contains the following main types:
//   - MinorVersion: A tracked Python 3.x minor version such as "3.6"
//   - VersionTable: The ordered candidate micro-versions for every tracked minor version
//   - Match: One distribution release found to ship a Python micro-version
//   - Summary: The matches of one minor version read back from its report
//
// Multiple packages (extract, report, database, pipeline) share these types,
// so they live here to avoid import cycles.
package model
