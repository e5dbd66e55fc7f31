package app

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"mdbook2pdf/internal/config"
	"mdbook2pdf/internal/fetch"
	"mdbook2pdf/internal/nav"
	"mdbook2pdf/internal/output"
	"mdbook2pdf/internal/render"
)

// PageFetcher retrieves the HTML of one page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type Options struct {
	Config config.Config
	Logger *log.Logger

	// Fetcher and Renderer default to the colly fetcher and the engine
	// named in Config.
	Fetcher  PageFetcher
	Renderer render.Renderer

	// Progress receives the rendering spinner. Nil disables it.
	Progress io.Writer

	wait func(ctx context.Context, d time.Duration) error
	now  func() time.Time
}

func normalizeOptions(opts Options) (Options, string, error) {
	baseURL, err := nav.NormalizeBaseURL(strings.TrimSpace(opts.Config.URL))
	if err != nil {
		return opts, "", err
	}
	opts.Config.URL = baseURL
	if strings.TrimSpace(opts.Config.OutputDir) == "" {
		opts.Config.OutputDir = output.DefaultDir(baseURL)
	}
	if strings.TrimSpace(opts.Config.Engine) == "" {
		opts.Config.Engine = config.DefaultEngine
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Fetcher == nil {
		opts.Fetcher = fetch.New(opts.Config)
	}
	if opts.wait == nil {
		opts.wait = fetch.Wait
	}
	if opts.now == nil {
		opts.now = time.Now
	}
	return opts, baseURL, nil
}

func newRenderer(opts Options) (render.Renderer, error) {
	if opts.Renderer != nil {
		return opts.Renderer, nil
	}
	return render.New(opts.Config.Engine, render.Options{
		Timeout:  4 * opts.Config.Timeout(),
		Headless: true,
	})
}
