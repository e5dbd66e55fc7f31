package nav

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// TitleRule extracts a candidate book title; an empty string means no hit.
type TitleRule struct {
	Name    string
	Extract func(doc *goquery.Document) string
}

func DefaultTitleRules() []TitleRule {
	return []TitleRule{
		{Name: "menu-title", Extract: textOf("h1.menu-title")},
		{Name: "sidebar-logo", Extract: textOf("a.sidebar-logo")},
		{Name: "title", Extract: pageTitle},
	}
}

func (r *Resolver) bookTitle(doc *goquery.Document) string {
	for _, rule := range r.titles {
		if title := rule.Extract(doc); title != "" {
			return title
		}
	}
	return DefaultTitle
}

func textOf(selector string) func(*goquery.Document) string {
	return func(doc *goquery.Document) string {
		return strings.TrimSpace(doc.Find(selector).First().Text())
	}
}

// pageTitle returns the <title> text before the first " - " separator.
func pageTitle(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	before, _, _ := strings.Cut(title, " - ")
	return strings.TrimSpace(before)
}
