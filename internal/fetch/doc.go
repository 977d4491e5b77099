// Package fetch downloads pages and manifests into a local cache.
//
// A cached file is reused for the rest of the calendar day it was written
// on. The first request on a later day downloads it again. Requests carry a
// configurable User-Agent, can be spaced by a politeness delay and are
// transcoded to UTF-8 before being stored.
package fetch
