package extract

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"mdbook2pdf/internal/config"
	"mdbook2pdf/internal/parse"
)

// Pass is one in-place rewrite of the content tree. A pass must be safe to
// run on a tree that earlier passes already pruned.
type Pass func(root *goquery.Selection, base *url.URL)

// Extractor turns a raw page into the normalized content fragment used as a
// chapter body.
type Extractor struct {
	content []parse.Matcher
	passes  []Pass
	policy  *bluemonday.Policy
}

func New(cfg config.Config) *Extractor {
	tags := append([]string(nil), cfg.RemoveTags...)
	for _, t := range []string{"script", "style"} {
		if !slices.Contains(tags, t) {
			tags = append(tags, t)
		}
	}

	e := &Extractor{
		content: parse.SelectorMatchers(cfg.ContentSelectors),
		passes: []Pass{
			RemoveTags(tags),
			RemoveClasses(cfg.RemoveClasses),
			RemoveIDs(cfg.RemoveIDs),
			RemoveIconButtons,
			RemoveFirstHeading,
			DemoteHeadings,
			RewriteURLs,
		},
	}
	if cfg.Sanitize {
		e.policy = sanitizePolicy()
	}
	return e
}

// Extract returns the cleaned main content of htmlText, or "" when the page
// has no content region at all.
func (e *Extractor) Extract(htmlText, baseURL string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	if strings.TrimSpace(htmlText) == "" {
		return "", nil
	}
	doc, err := parse.NewDocument(htmlText)
	if err != nil {
		return "", err
	}

	root, inner := e.contentRoot(doc)
	if root == nil {
		return "", nil
	}
	for _, pass := range e.passes {
		pass(root, base)
	}

	var out string
	if inner {
		out, err = root.Html()
	} else {
		out, err = goquery.OuterHtml(root)
	}
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if e.policy != nil {
		out = e.policy.Sanitize(out)
	}
	return out, nil
}

// contentRoot picks the main container. When only the body is left the
// caller serializes its children so no <body> tag leaks into a chapter.
func (e *Extractor) contentRoot(doc *goquery.Document) (*goquery.Selection, bool) {
	if sel, _ := parse.FirstMatch(doc, e.content); sel != nil {
		return sel, false
	}
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return nil, false
	}
	return body, true
}

// MatchedContainer reports which content matcher hits for htmlText, "body"
// for the fallback, or "" if the markup has no body.
func (e *Extractor) MatchedContainer(htmlText string) string {
	doc, err := parse.NewDocument(htmlText)
	if err != nil {
		return ""
	}
	if _, name := parse.FirstMatch(doc, e.content); name != "" {
		return name
	}
	if doc.Find("body").Length() > 0 {
		return "body"
	}
	return ""
}

func sanitizePolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class", "id").Globally()
	p.RequireNoFollowOnLinks(false)
	return p
}
