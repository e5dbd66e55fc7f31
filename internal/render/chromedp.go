package render

import (
	"context"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

type chromedpEngine struct {
	opts Options
}

func (e *chromedpEngine) Render(ctx context.Context, htmlPath string) ([]byte, error) {
	pdf, err := e.render(ctx, htmlPath)
	if err != nil {
		return nil, &RenderFailure{Engine: EngineChromedp, Err: err}
	}
	return pdf, nil
}

func (e *chromedpEngine) render(ctx context.Context, htmlPath string) ([]byte, error) {
	target, err := fileURL(htmlPath)
	if err != nil {
		return nil, err
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", e.opts.Headless),
		chromedp.Flag("allow-file-access-from-files", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, e.opts.Timeout)
	defer cancelTimeout()

	var pdf []byte
	err = chromedp.Run(taskCtx,
		chromedp.Navigate(target),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				WithGenerateDocumentOutline(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdf, nil
}
