package app

import (
	"context"
	"fmt"

	"mdbook2pdf/internal/book"
	"mdbook2pdf/internal/extract"
	"mdbook2pdf/internal/nav"
)

func resolve(ctx context.Context, opts Options, baseURL string) (nav.Result, error) {
	opts.Logger.Info("fetching home page", "url", baseURL)
	homeHTML, err := opts.Fetcher.Fetch(ctx, baseURL)
	if err != nil {
		return nav.Result{}, fmt.Errorf("fetch home page: %w", err)
	}
	res, err := nav.NewResolver(opts.Config).Resolve(homeHTML, baseURL)
	if err != nil {
		return nav.Result{}, err
	}
	if res.Fallback {
		opts.Logger.Warn("sidebar not found, using page-wide link scan", "url", baseURL)
	}
	opts.Logger.Info("resolved navigation", "title", res.Title, "chapters", len(res.Chapters), "matcher", res.Matcher)
	return res, nil
}

// crawlChapters fetches and extracts every chapter in order, one request at
// a time, each followed by the configured delay. A chapter that cannot be
// fetched is logged and dropped. Relative references in every chapter are
// resolved against baseURL, not the chapter's own URL.
func crawlChapters(ctx context.Context, opts Options, baseURL string, chapters []book.Chapter) ([]book.ExtractedPage, []string, error) {
	ex := extract.New(opts.Config)
	delay := opts.Config.Delay()
	total := len(chapters)

	pages := make([]book.ExtractedPage, 0, total)
	var dropped []string

	for i, ch := range chapters {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		opts.Logger.Info(fmt.Sprintf("[%d/%d] %s", i+1, total, ch.Title), "url", ch.URL)

		page, err := crawlChapter(ctx, opts, ex, baseURL, ch)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			opts.Logger.Warn("chapter dropped", "url", ch.URL, "err", err)
			dropped = append(dropped, ch.URL)
		} else {
			pages = append(pages, page)
		}

		if err := opts.wait(ctx, delay); err != nil {
			return nil, nil, err
		}
	}
	return pages, dropped, nil
}

func crawlChapter(ctx context.Context, opts Options, ex *extract.Extractor, baseURL string, ch book.Chapter) (book.ExtractedPage, error) {
	html, err := opts.Fetcher.Fetch(ctx, ch.URL)
	if err != nil {
		return book.ExtractedPage{}, err
	}
	content, err := ex.Extract(html, baseURL)
	if err != nil {
		return book.ExtractedPage{}, fmt.Errorf("extract: %w", err)
	}
	return book.ExtractedPage{URL: ch.URL, Title: ch.Title, Content: content}, nil
}
