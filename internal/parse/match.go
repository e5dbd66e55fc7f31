package parse

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Matcher locates one structural region of a page. Matchers are tried in
// order and the first non-empty selection wins.
type Matcher struct {
	Name  string
	Match func(doc *goquery.Document) *goquery.Selection
}

// SelectorMatcher matches the first element for a CSS selector.
func SelectorMatcher(selector string) Matcher {
	selector = strings.TrimSpace(selector)
	return Matcher{
		Name: selector,
		Match: func(doc *goquery.Document) *goquery.Selection {
			return doc.Find(selector).First()
		},
	}
}

func SelectorMatchers(selectors []string) []Matcher {
	out := make([]Matcher, 0, len(selectors))
	for _, s := range selectors {
		if strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, SelectorMatcher(s))
	}
	return out
}

// FirstMatch runs matchers in order and returns the first hit and the name
// of the matcher that produced it. A nil selection means nothing matched.
func FirstMatch(doc *goquery.Document, matchers []Matcher) (*goquery.Selection, string) {
	if doc == nil {
		return nil, ""
	}
	for _, m := range matchers {
		if m.Match == nil {
			continue
		}
		if sel := m.Match(doc); sel != nil && sel.Length() > 0 {
			return sel, m.Name
		}
	}
	return nil, ""
}
