package report

import (
	"sort"
	"strings"

	"mdbook2pdf/internal/book"
	"mdbook2pdf/internal/parse"
)

// Report summarizes structural problems of an assembled book. None of them
// stop a run; they end up in the manifest and the final log line.
type Report struct {
	Chapters      int      `json:"chapters"`
	Dropped       int      `json:"dropped"`
	EmptyChapters []string `json:"empty_chapters"`
	LevelGaps     []string `json:"level_gaps"`
	DuplicateIDs  []string `json:"duplicate_ids"`
	BrokenAnchors []string `json:"broken_anchors"`
}

func (r Report) HasIssues() bool {
	return r.Dropped > 0 ||
		len(r.EmptyChapters) > 0 ||
		len(r.LevelGaps) > 0 ||
		len(r.DuplicateIDs) > 0 ||
		len(r.BrokenAnchors) > 0
}

// Analyze checks doc and its rendered HTML.
func Analyze(doc book.Document, renderedHTML string) (Report, error) {
	rep := Report{
		Chapters:      len(doc.Chapters),
		Dropped:       len(doc.Dropped),
		EmptyChapters: []string{},
		LevelGaps:     []string{},
	}

	for _, ch := range doc.Chapters {
		if isEmpty(ch.Content) {
			rep.EmptyChapters = append(rep.EmptyChapters, ch.Title)
		}
	}

	prev := 0
	for _, entry := range doc.Toc {
		if prev > 0 && entry.Level-prev > 1 {
			rep.LevelGaps = append(rep.LevelGaps, entry.Title)
		}
		prev = entry.Level
	}

	gq, err := parse.NewDocument(renderedHTML)
	if err != nil {
		return rep, err
	}
	outline := parse.OutlineOf(gq)
	rep.DuplicateIDs = findDuplicates(outline.IDs)
	rep.BrokenAnchors = findBrokenAnchors(outline.Anchors, outline.IDs)

	sort.Strings(rep.DuplicateIDs)
	sort.Strings(rep.BrokenAnchors)
	return rep, nil
}

func isEmpty(content string) bool {
	if strings.TrimSpace(content) == "" {
		return true
	}
	gq, err := parse.NewDocument(content)
	if err != nil {
		return true
	}
	return strings.TrimSpace(gq.Text()) == "" && gq.Find("img").Length() == 0
}

func findDuplicates(ids []string) []string {
	counts := map[string]int{}
	for _, id := range ids {
		if id == "" {
			continue
		}
		counts[id]++
	}
	dups := []string{}
	for id, count := range counts {
		if count > 1 {
			dups = append(dups, id)
		}
	}
	return dups
}

func findBrokenAnchors(anchors []string, ids []string) []string {
	idset := map[string]struct{}{}
	for _, id := range ids {
		if id == "" {
			continue
		}
		idset[id] = struct{}{}
	}
	seen := map[string]struct{}{}
	broken := []string{}
	for _, a := range anchors {
		if a == "" {
			continue
		}
		if _, ok := idset[a]; ok {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		broken = append(broken, a)
	}
	return broken
}
