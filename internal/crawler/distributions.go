package crawler

import (
	"fmt"
	"iter"
	"os"

	"github.com/PuerkitoBio/goquery"
)

// Distributions yields the value of every option of the listing page's
// select[name=distribution] control, in document order. Options with an
// empty or missing value, such as the "select one" placeholder, are skipped.
//
// A missing select control yields ErrDistributionSelectNotFound.
// The cached page is read again on each range.
func (s *Site) Distributions() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ids, err := s.readDistributions()
		if err != nil {
			yield("", err)
			return
		}
		for _, id := range ids {
			if !yield(id, nil) {
				return
			}
		}
	}
}

func (s *Site) readDistributions() ([]string, error) {
	f, err := os.Open(s.IndexPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open listing page: %w", err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing page: %w", err)
	}

	sel := doc.Find("select[name=distribution]").First()
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%s: %w", s.IndexPath(), ErrDistributionSelectNotFound)
	}

	var ids []string
	sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
		if v, _ := opt.Attr("value"); v != "" {
			ids = append(ids, v)
		}
	})
	return ids, nil
}
