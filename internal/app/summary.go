package app

import (
	"strings"

	"github.com/charmbracelet/log"
)

func logSummary(logger *log.Logger, sum Summary) {
	logger.Info("done", "title", sum.Title, "chapters", sum.Chapters, "dropped", len(sum.Dropped), "dir", sum.OutputDir)
	for _, u := range sum.Dropped {
		logger.Warn("missing chapter", "url", u)
	}

	rep := sum.Report
	if !rep.HasIssues() {
		return
	}
	logger.Warn("document report",
		"empty_chapters", len(rep.EmptyChapters),
		"level_gaps", len(rep.LevelGaps),
		"duplicate_ids", len(rep.DuplicateIDs),
		"broken_anchors", len(rep.BrokenAnchors),
	)
	if len(rep.EmptyChapters) > 0 {
		logger.Debug("empty chapters", "titles", strings.Join(rep.EmptyChapters, ", "))
	}
	if len(rep.BrokenAnchors) > 0 {
		logger.Debug("broken anchors", "ids", strings.Join(rep.BrokenAnchors, ", "))
	}
}
