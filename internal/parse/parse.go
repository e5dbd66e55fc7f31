package parse

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const HeadingSelector = "h1, h2, h3, h4, h5, h6"

// NoBookmarkClass marks headings that must stay out of the PDF outline.
const NoBookmarkClass = "no-bookmark"

type Heading struct {
	Text       string `json:"text"`
	Level      int    `json:"level"`
	ID         string `json:"id,omitempty"`
	Bookmarked bool   `json:"bookmarked"`
}

// Outline is the heading and link skeleton of a document.
type Outline struct {
	Headings []Heading
	IDs      []string
	Anchors  []string
}

func NewDocument(htmlText string) (*goquery.Document, error) {
	if strings.TrimSpace(htmlText) == "" {
		return nil, errors.New("empty html")
	}
	return goquery.NewDocumentFromReader(strings.NewReader(htmlText))
}

// RemoveSelectors deletes every match of selector and reports how many
// elements were removed. A nil selection or blank selector is a no-op.
func RemoveSelectors(sel *goquery.Selection, selector string) int {
	if sel == nil || strings.TrimSpace(selector) == "" {
		return 0
	}
	matches := sel.Find(selector)
	n := matches.Length()
	matches.Remove()
	return n
}

func OutlineOf(doc *goquery.Document) Outline {
	out := Outline{}
	if doc == nil {
		return out
	}

	doc.Find("[id]").Each(func(_ int, s *goquery.Selection) {
		if id, ok := s.Attr("id"); ok && id != "" {
			out.IDs = append(out.IDs, id)
		}
	})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if strings.HasPrefix(href, "#") && len(href) > 1 {
			out.Anchors = append(out.Anchors, strings.TrimPrefix(href, "#"))
		}
	})
	doc.Find(HeadingSelector).Each(func(_ int, s *goquery.Selection) {
		out.Headings = append(out.Headings, Heading{
			Text:       strings.TrimSpace(s.Text()),
			Level:      HeadingLevel(goquery.NodeName(s)),
			ID:         s.AttrOr("id", ""),
			Bookmarked: !s.HasClass(NoBookmarkClass),
		})
	})
	return out
}

func HeadingLevel(tag string) int {
	switch strings.ToLower(tag) {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	default:
		return 0
	}
}
