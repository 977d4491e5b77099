package crawler

import (
	"net/url"
	"path/filepath"
	"strings"
)

const (
	// IndexFile is the cache file name of the listing page.
	IndexFile = "distrowatch.html"

	// packageListHeader is the exact text of the header cell preceding the release links.
	packageListHeader = "Full Package List"
)

// Site describes where pages live remotely and in the cache.
type Site struct {
	baseURL     string
	pageDir     string
	manifestDir string
}

// NewSite creates a Site. baseURL is the scheme and host without a trailing slash;
// pageDir caches HTML pages and manifestDir caches package manifests.
func NewSite(baseURL, pageDir, manifestDir string) *Site {
	return &Site{
		baseURL:     strings.TrimRight(baseURL, "/"),
		pageDir:     pageDir,
		manifestDir: manifestDir,
	}
}

// IndexURL returns the URL of the listing page.
func (s *Site) IndexURL() string {
	return s.baseURL + "/"
}

// IndexPath returns the cache path of the listing page.
func (s *Site) IndexPath() string {
	return filepath.Join(s.pageDir, IndexFile)
}

// DetailURL returns the URL of the detail page of distribution.
func (s *Site) DetailURL(distribution string) string {
	return s.baseURL + "/table-mobile.php?distribution=" + url.QueryEscape(distribution)
}

// DetailPath returns the cache path of the detail page of distribution.
func (s *Site) DetailPath(distribution string) string {
	return filepath.Join(s.pageDir, fileName(distribution)+".html")
}

// ManifestURL returns the URL of the package manifest of one release.
func (s *Site) ManifestURL(distribution, version string) string {
	return s.baseURL + "/resource/" + url.PathEscape(distribution) + "/" +
		url.PathEscape(distribution+"-"+version) + ".txt"
}

// ManifestPath returns the cache path of the package manifest of one release.
func (s *Site) ManifestPath(distribution, version string) string {
	return filepath.Join(s.manifestDir, fileName(distribution+"-"+version)+".txt")
}

// fileName makes a scraped label usable as a single path element.
func fileName(s string) string {
	return strings.NewReplacer("/", "_", `\`, "_").Replace(s)
}
