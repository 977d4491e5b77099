// Package crawler knows the page layout of the scraped site.
//
// Site builds the fixed request URLs and cache paths, and reads the cached
// pages back:
//
//   - Distributions lists the identifiers offered by the distribution
//     select control on the listing page.
//   - PackageLists finds the "Full Package List" row of a detail page and
//     returns the release labels linked next to it.
//
// Both are restartable iterators. Every range re-reads the cached file, so
// callers must make sure it is fresh first (see package fetch).
// There is no link discovery: the set of URLs is fixed.
package crawler
