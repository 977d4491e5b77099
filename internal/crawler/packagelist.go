package crawler

import (
	"fmt"
	"iter"
	"os"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"
)

// PackageLists yields the release labels of distribution's detail page.
//
// The first th element whose only text is exactly "Full Package List" is
// located. Each element following it at the same level is searched for a
// descendant link, and the link's text is yielded. A page without that header
// yields nothing, which is the normal case for distributions without package data.
func (s *Site) PackageLists(distribution string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		labels, err := s.readPackageLists(distribution)
		if err != nil {
			yield("", err)
			return
		}
		for _, l := range labels {
			if !yield(l, nil) {
				return
			}
		}
	}
}

func (s *Site) readPackageLists(distribution string) ([]string, error) {
	path := s.DetailPath(distribution)
	f, err := os.Open(path) //nolint:gosec // path is built from the configured cache directory
	if err != nil {
		return nil, fmt.Errorf("failed to open detail page of %s: %w", distribution, err)
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return ReleaseLabels(doc), nil
}

// ReleaseLabels returns the link texts following the package list header in doc.
func ReleaseLabels(doc *html.Node) []string {
	th := findHeader(doc, packageListHeader)
	if th == nil {
		return nil
	}

	var labels []string
	for sib := th.NextSibling; sib != nil; sib = sib.NextSibling {
		if sib.Type != html.ElementNode {
			continue
		}
		if a := firstDescendant(sib, atom.A); a != nil {
			labels = append(labels, norm.NFC.String(textContent(a)))
		}
	}
	return labels
}

// findHeader returns the first th in document order whose string equals text.
func findHeader(n *html.Node, text string) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Th {
		if s, ok := onlyString(n); ok && s == text {
			return n
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findHeader(c, text); found != nil {
			return found
		}
	}
	return nil
}

// onlyString returns the text of n when n has a single chain of only children
// ending in a text node, e.g. <th><b>text</b></th>. Anything else has no string.
func onlyString(n *html.Node) (string, bool) {
	for {
		c := n.FirstChild
		if c == nil || c.NextSibling != nil {
			return "", false
		}
		switch c.Type {
		case html.TextNode:
			return c.Data, true
		case html.ElementNode:
			n = c
		default:
			return "", false
		}
	}
}

// firstDescendant returns the first element below n (excluding n) with the given tag.
func firstDescendant(n *html.Node, tag atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == tag {
			return c
		}
		if found := firstDescendant(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
