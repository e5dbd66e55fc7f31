package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/atom"

	"mdbook2pdf/internal/parse"
)

func RemoveTags(tags []string) Pass {
	return func(root *goquery.Selection, _ *url.URL) {
		for _, tag := range tags {
			parse.RemoveSelectors(root, tag)
		}
	}
}

// RemoveClasses drops every element carrying at least one of classes.
func RemoveClasses(classes []string) Pass {
	set := make(map[string]struct{}, len(classes))
	for _, c := range classes {
		set[c] = struct{}{}
	}
	return func(root *goquery.Selection, _ *url.URL) {
		root.Find("[class]").FilterFunction(func(_ int, s *goquery.Selection) bool {
			for _, c := range strings.Fields(s.AttrOr("class", "")) {
				if _, ok := set[c]; ok {
					return true
				}
			}
			return false
		}).Remove()
	}
}

// RemoveIDs drops the first element for each id.
func RemoveIDs(ids []string) Pass {
	return func(root *goquery.Selection, _ *url.URL) {
		for _, id := range ids {
			root.Find("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
				return s.AttrOr("id", "") == id
			}).First().Remove()
		}
	}
}

// RemoveIconButtons drops playground, clipboard and icon-font controls.
func RemoveIconButtons(root *goquery.Selection, _ *url.URL) {
	root.Find("button[class], i[class]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		class := strings.ToLower(s.AttrOr("class", ""))
		return strings.Contains(class, "play") ||
			strings.Contains(class, "copy") ||
			strings.Contains(class, "fa-")
	}).Remove()
}

// RemoveFirstHeading drops the page's own title; the chapter heading
// injected at assembly replaces it.
func RemoveFirstHeading(root *goquery.Selection, _ *url.URL) {
	root.Find("h1").First().Remove()
}

// DemoteHeadings shifts h1..h5 down one rank, h5 first so no heading moves
// twice, and marks each moved heading as excluded from the outline. h6 is
// left alone.
func DemoteHeadings(root *goquery.Selection, _ *url.URL) {
	for level := 5; level >= 1; level-- {
		to := fmt.Sprintf("h%d", level+1)
		root.Find(fmt.Sprintf("h%d", level)).Each(func(_ int, s *goquery.Selection) {
			rename(s, to)
			s.AddClass(parse.NoBookmarkClass)
		})
	}
}

func rename(s *goquery.Selection, tag string) {
	for _, n := range s.Nodes {
		n.Data = tag
		n.DataAtom = atom.Lookup([]byte(tag))
	}
}

// RewriteURLs resolves relative image sources and link targets against the
// site base. Absolute URLs, data URIs, fragments, mailto and javascript
// links are kept as they are.
func RewriteURLs(root *goquery.Selection, base *url.URL) {
	root.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src := s.AttrOr("src", "")
		if src == "" || hasAnyPrefix(src, "http", "data:") {
			return
		}
		if abs, ok := resolve(base, src); ok {
			s.SetAttr("src", abs)
		}
	})
	root.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := s.AttrOr("href", "")
		if href == "" || hasAnyPrefix(href, "http", "#", "mailto:", "javascript:") {
			return
		}
		if abs, ok := resolve(base, href); ok {
			s.SetAttr("href", abs)
		}
	})
}

func resolve(base *url.URL, ref string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", false
	}
	return base.ResolveReference(u).String(), true
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
