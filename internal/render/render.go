package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const (
	EnginePlaywright = "playwright"
	EngineChromedp   = "chromedp"
)

// Renderer prints a standalone HTML file, stylesheet embedded, to PDF.
// The file is passed by path so relative asset references resolve.
type Renderer interface {
	Render(ctx context.Context, htmlPath string) ([]byte, error)
}

// RenderFailure wraps any error raised while producing the PDF, including
// a missing browser.
type RenderFailure struct {
	Engine string
	Err    error
}

func (e *RenderFailure) Error() string {
	return fmt.Sprintf("render pdf with %s: %v", e.Engine, e.Err)
}

func (e *RenderFailure) Unwrap() error { return e.Err }

type Options struct {
	Timeout  time.Duration
	Headless bool
}

func Engines() []string {
	return []string{EnginePlaywright, EngineChromedp}
}

func New(engine string, opts Options) (Renderer, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EnginePlaywright:
		return &playwrightEngine{provider: playwrightProvider{}, opts: opts}, nil
	case EngineChromedp:
		return &chromedpEngine{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unknown render engine %q (want one of %s)", engine, strings.Join(Engines(), ", "))
	}
}

// Verify parses pdf and returns its page count.
func Verify(pdf []byte) (int, error) {
	if len(pdf) == 0 {
		return 0, errors.New("empty pdf")
	}
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(pdf), conf)
	if err != nil {
		return 0, fmt.Errorf("pdfcpu read: %w", err)
	}
	if ctx.PageCount == 0 {
		return 0, errors.New("pdf has no pages")
	}
	return ctx.PageCount, nil
}

func fileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}
