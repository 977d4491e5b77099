// Package extract resolves the Python micro-version shipped by a distribution release.
//
// A package manifest is a plain text file with one package per line. A line
// declares Python M when it starts with one of seven naming conventions
// (see model.MinorVersion.PrefixPatterns). On the first such line that also
// contains a candidate micro-version, the last candidate in ascending order
// that occurs in the line is taken, so "3.6.1" loses to "3.6.12" when both
// appear but a line holding only "3.6.1" resolves to "3.6.1".
package extract
