package render

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

type pdfProvider interface {
	Install() error
	Run() (pdfRunner, error)
}

type pdfRunner interface {
	ChromiumLaunch(headless bool) (pdfBrowser, error)
	Stop() error
}

type pdfBrowser interface {
	NewPage() (pdfPage, error)
	Close() error
}

type pdfPage interface {
	Goto(url string, timeout time.Duration) error
	PDF() ([]byte, error)
	Close() error
}

type playwrightProvider struct{}

func (playwrightProvider) Install() error {
	return playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}})
}

func (playwrightProvider) Run() (pdfRunner, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, err
	}
	return &playwrightRunner{pw: pw}, nil
}

type playwrightRunner struct {
	pw *playwright.Playwright
}

func (r *playwrightRunner) ChromiumLaunch(headless bool) (pdfBrowser, error) {
	browser, err := r.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
	})
	if err != nil {
		return nil, err
	}
	return &playwrightBrowser{browser: browser}, nil
}

func (r *playwrightRunner) Stop() error {
	return r.pw.Stop()
}

type playwrightBrowser struct {
	browser playwright.Browser
}

func (b *playwrightBrowser) NewPage() (pdfPage, error) {
	page, err := b.browser.NewPage()
	if err != nil {
		return nil, err
	}
	return &playwrightPage{page: page}, nil
}

func (b *playwrightBrowser) Close() error {
	return b.browser.Close()
}

type playwrightPage struct {
	page playwright.Page
}

func (p *playwrightPage) Goto(url string, timeout time.Duration) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	})
	return err
}

func (p *playwrightPage) PDF() ([]byte, error) {
	return p.page.PDF(playwright.PagePdfOptions{
		PrintBackground:   playwright.Bool(true),
		PreferCSSPageSize: playwright.Bool(true),
		Outline:           playwright.Bool(true),
		Tagged:            playwright.Bool(true),
	})
}

func (p *playwrightPage) Close() error {
	return p.page.Close()
}

type playwrightEngine struct {
	provider pdfProvider
	opts     Options
}

func (e *playwrightEngine) Render(ctx context.Context, htmlPath string) ([]byte, error) {
	pdf, err := e.render(ctx, htmlPath)
	if err != nil {
		return nil, &RenderFailure{Engine: EnginePlaywright, Err: err}
	}
	return pdf, nil
}

func (e *playwrightEngine) render(ctx context.Context, htmlPath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, err := fileURL(htmlPath)
	if err != nil {
		return nil, err
	}

	if err := e.provider.Install(); err != nil {
		return nil, fmt.Errorf("install playwright: %w", err)
	}
	runner, err := e.provider.Run()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = runner.Stop()
	}()

	browser, err := runner.ChromiumLaunch(e.opts.Headless)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = browser.Close()
	}()

	page, err := browser.NewPage()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = page.Close()
	}()

	if err := page.Goto(target, e.opts.Timeout); err != nil {
		return nil, fmt.Errorf("load %s: %w", target, err)
	}
	return page.PDF()
}
