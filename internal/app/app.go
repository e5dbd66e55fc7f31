package app

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/briandowns/spinner"

	"mdbook2pdf/internal/assets"
	"mdbook2pdf/internal/book"
	"mdbook2pdf/internal/markdown"
	"mdbook2pdf/internal/output"
	"mdbook2pdf/internal/render"
	"mdbook2pdf/internal/report"
)

// Summary describes a finished run. RenderErr is set when the HTML was
// written but PDF rendering failed; the run itself still succeeded.
type Summary struct {
	Title        string
	OutputDir    string
	Chapters     int
	Dropped      []string
	HTMLPath     string
	PDFPath      string
	MarkdownPath string
	ManifestPath string
	PDFPages     int
	Report       report.Report
	RenderErr    error
}

// Run crawls the book at opts.Config.URL and writes its artifacts. A failed
// home page fetch or an empty chapter list is returned as an error; chapter
// fetch failures and render failures are not.
func Run(ctx context.Context, opts Options) (Summary, error) {
	opts, baseURL, err := normalizeOptions(opts)
	if err != nil {
		return Summary{}, err
	}
	startedAt := opts.now()

	navigation, err := resolve(ctx, opts, baseURL)
	if err != nil {
		return Summary{}, err
	}

	pages, dropped, err := crawlChapters(ctx, opts, baseURL, navigation.Chapters)
	if err != nil {
		return Summary{}, err
	}
	opts.Logger.Info("crawl finished", "pages", len(pages), "dropped", len(dropped))

	doc := book.Assemble(navigation.Title, baseURL, pages, dropped)
	doc.Logo = navigation.Logo

	layout := output.NewLayout(opts.Config.OutputDir, doc.Title)
	manifest := output.NewManifest(doc, startedAt)
	if !opts.Config.HTMLOnly {
		manifest.Engine = opts.Config.Engine
	}

	if opts.Config.DownloadAssets {
		doc = localizeAssets(ctx, opts, doc, &manifest)
	}

	sum := Summary{
		Title:     doc.Title,
		OutputDir: opts.Config.OutputDir,
		Chapters:  len(doc.Chapters),
		Dropped:   doc.Dropped,
	}

	var buf bytes.Buffer
	if err := book.RenderHTML(&buf, doc); err != nil {
		return sum, fmt.Errorf("render html: %w", err)
	}
	sum.HTMLPath, err = output.WriteHTML(layout, buf.String())
	if err != nil {
		return sum, fmt.Errorf("write html: %w", err)
	}
	manifest.Artifacts.HTML = filepath.Base(sum.HTMLPath)
	opts.Logger.Info("wrote html", "path", sum.HTMLPath)

	sum.Report, err = report.Analyze(doc, buf.String())
	if err != nil {
		return sum, fmt.Errorf("analyze: %w", err)
	}
	manifest.Report = sum.Report

	if opts.Config.Markdown {
		if err := writeMarkdown(opts, layout, doc, &sum); err != nil {
			return sum, err
		}
		manifest.Artifacts.Markdown = filepath.Base(sum.MarkdownPath)
	}

	if !opts.Config.HTMLOnly {
		if err := renderPDF(ctx, opts, layout, doc, &sum); err != nil {
			return sum, err
		}
		if sum.RenderErr != nil {
			manifest.RenderError = sum.RenderErr.Error()
		} else {
			manifest.Artifacts.PDF = filepath.Base(sum.PDFPath)
			manifest.PDFPages = sum.PDFPages
		}
	}

	manifest.CompletedAt = opts.now()
	sum.ManifestPath, err = output.WriteManifest(layout, manifest)
	if err != nil {
		return sum, fmt.Errorf("write manifest: %w", err)
	}

	logSummary(opts.Logger, sum)
	return sum, nil
}

func localizeAssets(ctx context.Context, opts Options, doc book.Document, manifest *output.Manifest) book.Document {
	dl := assets.New(assets.Options{
		OutputDir: opts.Config.OutputDir,
		Headers:   opts.Config.RequestHeaders(),
		Timeout:   opts.Config.Timeout(),
	})
	out, res, err := dl.Localize(ctx, doc)
	if err != nil {
		opts.Logger.Warn("asset download failed", "err", err)
		return doc
	}
	for _, u := range res.Failed {
		opts.Logger.Warn("asset not downloaded", "url", u)
	}
	opts.Logger.Info("downloaded assets", "count", res.Downloaded, "failed", len(res.Failed))
	manifest.Artifacts.Assets = assets.Dir
	manifest.FailedAsset = res.Failed
	return out
}

func writeMarkdown(opts Options, layout output.Layout, doc book.Document, sum *Summary) error {
	md, err := markdown.NewConverter().Book(doc)
	if err != nil {
		return fmt.Errorf("convert markdown: %w", err)
	}
	sum.MarkdownPath, err = output.WriteMarkdown(layout, md)
	if err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	opts.Logger.Info("wrote markdown", "path", sum.MarkdownPath)
	return nil
}

// renderPDF only returns errors that should fail the run. Engine and
// verification problems end up in sum.RenderErr.
func renderPDF(ctx context.Context, opts Options, layout output.Layout, doc book.Document, sum *Summary) error {
	r, err := newRenderer(opts)
	if err != nil {
		return err
	}

	stop := startSpinner(opts, "rendering pdf")
	pdf, err := r.Render(ctx, sum.HTMLPath)
	stop()
	if err == nil {
		pdf = pruneOutline(opts, doc, pdf)
		sum.PDFPages, err = verify(opts.Config.Engine, pdf)
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		sum.RenderErr = err
		opts.Logger.Error("pdf rendering failed", "err", err)
		opts.Logger.Warn("open the html file in a browser and print it to pdf", "html", sum.HTMLPath)
		return nil
	}

	sum.PDFPath, err = output.WritePDF(layout, pdf)
	if err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	opts.Logger.Info("wrote pdf", "path", sum.PDFPath, "pages", sum.PDFPages)
	return nil
}

// pruneOutline keeps only chapter titles in the PDF outline. The browser
// bookmarks every heading, cover and contents included. On failure the
// unpruned PDF is kept.
func pruneOutline(opts Options, doc book.Document, pdf []byte) []byte {
	want := make([]render.OutlineEntry, 0, len(doc.Toc))
	for _, e := range doc.Toc {
		want = append(want, render.OutlineEntry{Title: e.Title, Level: e.Level})
	}
	pruned, err := render.PruneOutline(pdf, want, book.ContentsTitle)
	if err != nil {
		opts.Logger.Warn("could not rewrite pdf bookmarks", "err", err)
		return pdf
	}
	return pruned
}

func verify(engine string, pdf []byte) (int, error) {
	n, err := render.Verify(pdf)
	if err != nil {
		return 0, &render.RenderFailure{Engine: engine, Err: err}
	}
	return n, nil
}

func startSpinner(opts Options, suffix string) func() {
	if opts.Progress == nil {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(opts.Progress))
	s.Suffix = " " + suffix
	s.Start()
	return s.Stop
}
