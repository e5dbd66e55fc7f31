package render

import (
	"bytes"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
)

// OutlineEntry is one bookmark the final PDF keeps.
type OutlineEntry struct {
	Title string
	Level int
}

type placedEntry struct {
	title string
	level int
	page  int
}

// PruneOutline replaces the browser generated outline of pdf with the
// entries of want, in order and nested by Level. Each entry takes the page
// of the next generated bookmark with the same title; bookmarks up to and
// including the first one titled after are skipped. Entries without a match
// are left out. A PDF without an outline is returned unchanged.
func PruneOutline(pdf []byte, want []OutlineEntry, after string) ([]byte, error) {
	bms, err := api.Bookmarks(bytes.NewReader(pdf), nil)
	if err != nil {
		return nil, err
	}
	if len(bms) == 0 {
		return pdf, nil
	}

	flat := flattenBookmarks(bms, nil)
	start := 0
	if after != "" {
		for i, bm := range flat {
			if outlineTitle(bm.Title) == outlineTitle(after) {
				start = i + 1
				break
			}
		}
	}

	var placed []placedEntry
	cursor := start
	for _, w := range want {
		title := outlineTitle(w.Title)
		for i := cursor; i < len(flat); i++ {
			if outlineTitle(flat[i].Title) != title || flat[i].PageFrom < 1 {
				continue
			}
			placed = append(placed, placedEntry{title: w.Title, level: max(w.Level, 1), page: flat[i].PageFrom})
			cursor = i + 1
			break
		}
	}

	var buf bytes.Buffer
	if len(placed) == 0 {
		if err := api.RemoveBookmarks(bytes.NewReader(pdf), &buf, nil); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	if err := api.AddBookmarks(bytes.NewReader(pdf), &buf, nestBookmarks(placed), true, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// flattenBookmarks lists bms depth first, which is document order.
func flattenBookmarks(bms []pdfcpu.Bookmark, out []pdfcpu.Bookmark) []pdfcpu.Bookmark {
	for _, bm := range bms {
		out = append(out, bm)
		out = flattenBookmarks(bm.Kids, out)
	}
	return out
}

// nestBookmarks turns a flat, leveled list into a tree; an entry owns the
// following entries with a deeper level.
func nestBookmarks(items []placedEntry) []pdfcpu.Bookmark {
	var out []pdfcpu.Bookmark
	for i := 0; i < len(items); {
		j := i + 1
		for j < len(items) && items[j].level > items[i].level {
			j++
		}
		out = append(out, pdfcpu.Bookmark{
			Title:    items[i].title,
			PageFrom: items[i].page,
			Kids:     nestBookmarks(items[i+1 : j]),
		})
		i = j
	}
	return out
}

func outlineTitle(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
