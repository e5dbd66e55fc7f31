package nav

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mdbook2pdf/internal/book"
	"mdbook2pdf/internal/config"
	"mdbook2pdf/internal/parse"
)

const DefaultTitle = "mdBook Document"

var ErrNoChapters = errors.New("no chapter links found")

// StructuralResolutionFailure means neither the sidebar nor the page-wide
// link scan produced a single chapter.
type StructuralResolutionFailure struct {
	BaseURL string
	Err     error
}

func (e *StructuralResolutionFailure) Error() string {
	return fmt.Sprintf("resolve navigation for %s: %v", e.BaseURL, e.Err)
}

func (e *StructuralResolutionFailure) Unwrap() error { return e.Err }

// Result is the ordered chapter list recovered from the home page.
type Result struct {
	Title    string
	Logo     string
	Chapters []book.Chapter
	// Matcher names the sidebar matcher that hit, empty when none did.
	Matcher  string
	Fallback bool
}

type Resolver struct {
	sidebar []parse.Matcher
	titles  []TitleRule
}

func NewResolver(cfg config.Config) *Resolver {
	return &Resolver{
		sidebar: parse.SelectorMatchers(cfg.SidebarSelectors),
		titles:  DefaultTitleRules(),
	}
}

// WithMatchers appends sidebar matchers tried after the configured ones.
func (r *Resolver) WithMatchers(m ...parse.Matcher) *Resolver {
	r.sidebar = append(r.sidebar, m...)
	return r
}

// NormalizeBaseURL parses raw and ensures the path ends with a slash.
func NormalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid url %q: missing host", raw)
	}
	u.Fragment = ""
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String(), nil
}

// Resolve reads the home page markup and returns the chapters in sidebar
// order, the home page first.
func (r *Resolver) Resolve(htmlText, baseURL string) (Result, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return Result{}, fmt.Errorf("invalid base url: %w", err)
	}
	doc, err := parse.NewDocument(htmlText)
	if err != nil {
		return Result{}, &StructuralResolutionFailure{BaseURL: baseURL, Err: err}
	}

	res := Result{
		Title: r.bookTitle(doc),
		Logo:  bookLogo(doc, base),
	}

	links := newLinkSet()
	if sidebar, name := parse.FirstMatch(doc, r.sidebar); sidebar != nil {
		res.Matcher = name
		collectSidebar(sidebar, base, links)
	}
	if links.empty() {
		res.Fallback = true
		collectFallback(doc, base, links)
	}
	if links.empty() {
		return Result{}, &StructuralResolutionFailure{BaseURL: baseURL, Err: ErrNoChapters}
	}

	links.putFirst(base.String(), res.Title)
	res.Chapters = links.chapters()
	return res, nil
}

func collectSidebar(sidebar *goquery.Selection, base *url.URL, links *linkSet) {
	baseStr := base.String()
	sidebar.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if !isChapterLink(href, baseStr) {
			return
		}
		title := strings.TrimSpace(a.Text())
		if title == "" {
			return
		}
		abs, ok := normalize(href, base)
		if !ok || !sameHost(abs, base) {
			return
		}
		links.add(abs, title)
	})
}

func collectFallback(doc *goquery.Document, base *url.URL, links *linkSet) {
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if !strings.HasSuffix(href, ".html") || strings.HasPrefix(href, "http") {
			return
		}
		title := strings.TrimSpace(a.Text())
		if title == "" {
			return
		}
		abs, ok := normalize(href, base)
		if !ok || !sameHost(abs, base) {
			return
		}
		links.add(abs, title)
	})
}

// isChapterLink rejects pure anchors, absolute links outside the book and
// links to non-page resources such as images or archives.
func isChapterLink(href, base string) bool {
	if href == "" || strings.HasPrefix(href, "#") {
		return false
	}
	if strings.HasPrefix(href, "http") && !strings.Contains(href, base) {
		return false
	}
	path := href
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if strings.HasSuffix(path, ".html") || strings.HasSuffix(path, "/") {
		return true
	}
	last := path[strings.LastIndex(path, "/")+1:]
	return !strings.Contains(last, ".")
}

func normalize(href string, base *url.URL) (string, bool) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	abs.Fragment = ""
	abs.RawFragment = ""
	return abs.String(), true
}

func sameHost(raw string, base *url.URL) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, base.Host)
}

func bookLogo(doc *goquery.Document, base *url.URL) string {
	src := strings.TrimSpace(doc.Find("a.sidebar-logo img, .sidebar-logo img").First().AttrOr("src", ""))
	if src == "" {
		return ""
	}
	abs, ok := normalize(src, base)
	if !ok {
		return ""
	}
	return abs
}

// linkSet is an insertion-ordered URL -> title map; the first title seen
// for a URL wins.
type linkSet struct {
	order  []string
	titles map[string]string
}

func newLinkSet() *linkSet {
	return &linkSet{titles: map[string]string{}}
}

func (s *linkSet) add(u, title string) {
	if _, ok := s.titles[u]; ok {
		return
	}
	s.titles[u] = title
	s.order = append(s.order, u)
}

func (s *linkSet) empty() bool { return len(s.order) == 0 }

// putFirst moves u to the front, inserting it with title when missing.
func (s *linkSet) putFirst(u, title string) {
	if _, ok := s.titles[u]; !ok {
		s.titles[u] = title
		s.order = append([]string{u}, s.order...)
		return
	}
	rest := make([]string, 0, len(s.order))
	for _, v := range s.order {
		if v != u {
			rest = append(rest, v)
		}
	}
	s.order = append([]string{u}, rest...)
}

func (s *linkSet) chapters() []book.Chapter {
	out := make([]book.Chapter, len(s.order))
	for i, u := range s.order {
		out[i] = book.Chapter{URL: u, Title: s.titles[u], Order: i}
	}
	return out
}
