package book

import (
	"fmt"
	"regexp"
	"strings"
)

// Chapter is one page of the book as listed by the navigation sidebar.
// Order is the position in the sidebar; the home page is always 0.
type Chapter struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Order int    `json:"order"`
}

// ExtractedPage is a chapter together with its normalized content fragment.
type ExtractedPage struct {
	URL     string
	Title   string
	Content string
}

type TocEntry struct {
	Title  string `json:"title"`
	Level  int    `json:"level"`
	Anchor string `json:"anchor"`
}

// Document is the assembled book handed to the renderer.
type Document struct {
	Title     string
	SourceURL string
	Logo      string
	Toc       []TocEntry
	Chapters  []ExtractedPage
	// Dropped lists chapter URLs whose fetch failed, in chapter order.
	Dropped []string
}

var numberPrefix = regexp.MustCompile(`^(\d+(?:\.\d+)*)`)

// Level infers the outline depth of a chapter from a leading dotted number:
// "3" and "3." are level 1, "3.2" level 2, "3.2.1" and deeper level 3.
// Titles without a number are level 1.
func Level(title string) int {
	m := numberPrefix.FindStringSubmatch(strings.TrimSpace(title))
	if m == nil {
		return 1
	}
	switch dots := strings.Count(m[1], "."); {
	case dots == 0:
		return 1
	case dots == 1:
		return 2
	default:
		return 3
	}
}

func ChapterAnchor(i int) string {
	return fmt.Sprintf("chapter-%d", i)
}

// Assemble builds the document from the pages in the order given.
func Assemble(title, sourceURL string, pages []ExtractedPage, dropped []string) Document {
	toc := make([]TocEntry, 0, len(pages))
	for i, p := range pages {
		toc = append(toc, TocEntry{
			Title:  p.Title,
			Level:  Level(p.Title),
			Anchor: ChapterAnchor(i),
		})
	}
	return Document{
		Title:     title,
		SourceURL: sourceURL,
		Toc:       toc,
		Chapters:  append([]ExtractedPage(nil), pages...),
		Dropped:   append([]string(nil), dropped...),
	}
}

// Columns splits the table of contents into two columns; the left one
// holds ceil(n/2) entries.
func (d Document) Columns() (left, right []TocEntry) {
	mid := (len(d.Toc) + 1) / 2
	return d.Toc[:mid], d.Toc[mid:]
}

var unsafeFilename = regexp.MustCompile(`[<>:"/\\|?*]`)

// SanitizeFilename replaces each character that is invalid in file names on
// common platforms with an underscore. Length is preserved.
func SanitizeFilename(name string) string {
	return unsafeFilename.ReplaceAllString(name, "_")
}
