package crawler

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

// writePage stores content as a cached page and returns a Site reading from it.
func writePage(t *testing.T, name, content string) *Site {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write page: %v", err)
	}
	return NewSite("https://distrowatch.com", dir, t.TempDir())
}

func collect(t *testing.T, seq func(func(string, error) bool)) ([]string, error) {
	t.Helper()

	var out []string
	for v, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}

func TestSiteLayout(t *testing.T) {
	t.Parallel()

	s := NewSite("https://distrowatch.com/", "pages", "manifests")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{name: "index url", got: s.IndexURL(), want: "https://distrowatch.com/"},
		{name: "index path", got: s.IndexPath(), want: filepath.Join("pages", "distrowatch.html")},
		{name: "detail url", got: s.DetailURL("fedora"), want: "https://distrowatch.com/table-mobile.php?distribution=fedora"},
		{name: "detail path", got: s.DetailPath("fedora"), want: filepath.Join("pages", "fedora.html")},
		{name: "manifest url", got: s.ManifestURL("fedora", "26"), want: "https://distrowatch.com/resource/fedora/fedora-26.txt"},
		{name: "manifest path", got: s.ManifestPath("fedora", "26"), want: filepath.Join("manifests", "fedora-26.txt")},
		{name: "manifest url escapes spaces", got: s.ManifestURL("gentoo", "unstable 1"), want: "https://distrowatch.com/resource/gentoo/gentoo-unstable%201.txt"},
		{name: "manifest path replaces slash", got: s.ManifestPath("x", "1/2"), want: filepath.Join("manifests", "x-1_2.txt")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, tt.got)
			}
		})
	}
}

func TestDistributions(t *testing.T) {
	t.Parallel()

	t.Run("yields non-empty option values in order", func(t *testing.T) {
		t.Parallel()

		page := `<html><body><form>
<select name="distribution">
  <option value="">Select Distribution</option>
  <option value="fedora">Fedora</option>
  <option>No value</option>
  <option value="arch">Arch</option>
  <option value="gentoo">Gentoo</option>
</select>
<select name="other"><option value="nope">Nope</option></select>
</form></body></html>`
		s := writePage(t, IndexFile, page)

		got, err := collect(t, s.Distributions())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"fedora", "arch", "gentoo"}
		if !slices.Equal(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("restartable", func(t *testing.T) {
		t.Parallel()

		s := writePage(t, IndexFile, `<select name="distribution"><option value="a">A</option><option value="b">B</option></select>`)
		first, _ := collect(t, s.Distributions())
		second, _ := collect(t, s.Distributions())
		if !slices.Equal(first, second) || len(first) != 2 {
			t.Errorf("expected two identical passes, got %v and %v", first, second)
		}
	})

	t.Run("stops when the consumer stops", func(t *testing.T) {
		t.Parallel()

		s := writePage(t, IndexFile, `<select name="distribution"><option value="a"></option><option value="b"></option></select>`)
		var got []string
		for id, err := range s.Distributions() {
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got = append(got, id)
			break
		}
		if len(got) != 1 || got[0] != "a" {
			t.Errorf("expected [a], got %v", got)
		}
	})

	t.Run("missing select is a hard error", func(t *testing.T) {
		t.Parallel()

		s := writePage(t, IndexFile, `<html><body><p>maintenance</p></body></html>`)
		_, err := collect(t, s.Distributions())
		if !errors.Is(err, ErrDistributionSelectNotFound) {
			t.Errorf("expected ErrDistributionSelectNotFound, got %v", err)
		}
	})

	t.Run("missing cache file is an error", func(t *testing.T) {
		t.Parallel()

		s := NewSite("https://distrowatch.com", t.TempDir(), t.TempDir())
		if _, err := collect(t, s.Distributions()); err == nil {
			t.Error("expected error for missing listing page")
		}
	})
}

func TestPackageLists(t *testing.T) {
	t.Parallel()

	t.Run("yields link texts after the header", func(t *testing.T) {
		t.Parallel()

		page := `<html><body><table>
<tr><th>Feature</th><td><a href="x">not this</a></td></tr>
<tr>
  <th>Full Package List</th>
  <td><a href="/resource/fedora/fedora-rawhide.txt">rawhide</a></td>
  <td>no link</td>
  <td><span><a href="/resource/fedora/fedora-26.txt">26</a></span></td>
  <td><a href="/resource/fedora/fedora-25.txt">25</a><a href="y">ignored</a></td>
</tr>
</table></body></html>`
		s := writePage(t, "fedora.html", page)

		got, err := collect(t, s.PackageLists("fedora"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"rawhide", "26", "25"}
		if !slices.Equal(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("no header yields nothing", func(t *testing.T) {
		t.Parallel()

		s := writePage(t, "lfs.html", `<table><tr><th>Package</th><td><a>1</a></td></tr></table>`)
		got, err := collect(t, s.PackageLists("lfs"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no labels, got %v", got)
		}
	})

	t.Run("header text must match exactly", func(t *testing.T) {
		t.Parallel()

		s := writePage(t, "x.html", `<table><tr><th>Full Package List (beta)</th><td><a>1</a></td></tr>
<tr><th>Full Package List <i>x</i></th><td><a>2</a></td></tr></table>`)
		got, _ := collect(t, s.PackageLists("x"))
		if len(got) != 0 {
			t.Errorf("expected no labels, got %v", got)
		}
	})

	t.Run("first matching header wins", func(t *testing.T) {
		t.Parallel()

		s := writePage(t, "x.html", `<table>
<tr><th>Full Package List</th><td><a>first</a></td></tr>
<tr><th>Full Package List</th><td><a>second</a></td></tr>
</table>`)
		got, _ := collect(t, s.PackageLists("x"))
		if !slices.Equal(got, []string{"first"}) {
			t.Errorf("expected [first], got %v", got)
		}
	})

	t.Run("header with a single wrapped string matches", func(t *testing.T) {
		t.Parallel()

		s := writePage(t, "x.html", `<table><tr><th><b>Full Package List</b></th><td><a>7</a></td></tr></table>`)
		got, _ := collect(t, s.PackageLists("x"))
		if !slices.Equal(got, []string{"7"}) {
			t.Errorf("expected [7], got %v", got)
		}
	})

	t.Run("labels are NFC normalized", func(t *testing.T) {
		t.Parallel()

		s := writePage(t, "x.html", "<table><tr><th>Full Package List</th><td><a>cafe\u0301</a></td></tr></table>")
		got, _ := collect(t, s.PackageLists("x"))
		if !slices.Equal(got, []string{"caf\u00e9"}) {
			t.Errorf("expected composed label, got %q", got)
		}
	})

	t.Run("missing detail page is an error", func(t *testing.T) {
		t.Parallel()

		s := NewSite("https://distrowatch.com", t.TempDir(), t.TempDir())
		if _, err := collect(t, s.PackageLists("nope")); err == nil {
			t.Error("expected error for missing detail page")
		}
	})
}

func TestReleaseLabels(t *testing.T) {
	t.Parallel()

	doc, err := html.Parse(strings.NewReader(`<table><tr><th>Full Package List</th><td><a>17.6</a></td></tr></table>`))
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if got := ReleaseLabels(doc); !slices.Equal(got, []string{"17.6"}) {
		t.Errorf("expected [17.6], got %v", got)
	}
}
