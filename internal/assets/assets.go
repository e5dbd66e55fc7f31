package assets

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"

	"mdbook2pdf/internal/book"
	"mdbook2pdf/internal/parse"
)

const Dir = "assets"

type Options struct {
	// OutputDir receives the assets/ directory.
	OutputDir   string
	Headers     map[string]string
	Timeout     time.Duration
	Parallelism int
}

type Result struct {
	Downloaded int      `json:"downloaded"`
	Failed     []string `json:"failed,omitempty"`
}

// Downloader copies remote images next to the document so the PDF engine
// never has to reach the network.
type Downloader struct {
	client *resty.Client
	opts   Options
}

func New(opts Options) *Downloader {
	if opts.Parallelism <= 0 {
		opts.Parallelism = 4
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	client := resty.New().
		SetTimeout(opts.Timeout).
		SetHeaders(opts.Headers).
		SetLogger(discardLogger{})
	return &Downloader{client: client, opts: opts}
}

type job struct {
	url   string
	local string
	path  string
}

// Localize downloads every http(s) image referenced by doc and returns a
// copy whose references point at the local files. Images that fail keep
// their remote URL.
func (d *Downloader) Localize(ctx context.Context, doc book.Document) (book.Document, Result, error) {
	assetsDir := filepath.Join(d.opts.OutputDir, Dir)
	if err := os.MkdirAll(assetsDir, 0755); err != nil {
		return doc, Result{}, err
	}

	jobs, order := collect(doc, assetsDir)
	if len(order) == 0 {
		return doc, Result{}, nil
	}

	var (
		mu     sync.Mutex
		done   = map[string]string{}
		failed []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Parallelism)
	for _, u := range order {
		j := jobs[u]
		g.Go(func() error {
			err := d.fetch(gctx, j)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, j.url)
				return nil
			}
			done[j.url] = j.local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return doc, Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return doc, Result{}, err
	}

	out, err := rewrite(doc, done)
	if err != nil {
		return doc, Result{}, err
	}
	res := Result{Downloaded: len(done), Failed: sortedLike(order, failed)}
	return out, res, nil
}

func (d *Downloader) fetch(ctx context.Context, j job) error {
	if _, err := os.Stat(j.path); err == nil {
		return nil
	}
	resp, err := d.client.R().SetContext(ctx).Get(j.url)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("unexpected status %d", resp.StatusCode())
	}
	return os.WriteFile(j.path, resp.Body(), 0600)
}

// collect returns one job per distinct remote image, plus the URLs in
// first-seen order.
func collect(doc book.Document, assetsDir string) (map[string]job, []string) {
	jobs := map[string]job{}
	order := []string{}
	add := func(src string) {
		if _, ok := jobs[src]; ok || !isRemote(src) {
			return
		}
		name := localName(src)
		jobs[src] = job{url: src, local: Dir + "/" + name, path: filepath.Join(assetsDir, name)}
		order = append(order, src)
	}

	add(doc.Logo)
	for _, ch := range doc.Chapters {
		gq, err := parse.NewDocument(ch.Content)
		if err != nil {
			continue
		}
		gq.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
			add(strings.TrimSpace(s.AttrOr("src", "")))
		})
	}
	return jobs, order
}

func rewrite(doc book.Document, local map[string]string) (book.Document, error) {
	out := doc
	if l, ok := local[doc.Logo]; ok {
		out.Logo = l
	}
	out.Chapters = make([]book.ExtractedPage, len(doc.Chapters))
	for i, ch := range doc.Chapters {
		out.Chapters[i] = ch
		gq, err := parse.NewDocument(ch.Content)
		if err != nil {
			continue
		}
		changed := false
		gq.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
			if l, ok := local[strings.TrimSpace(s.AttrOr("src", ""))]; ok {
				s.SetAttr("src", l)
				changed = true
			}
		})
		if !changed {
			continue
		}
		html, err := gq.Find("body").Html()
		if err != nil {
			return doc, err
		}
		out.Chapters[i].Content = strings.TrimSpace(html)
	}
	return out, nil
}

func isRemote(src string) bool {
	u, err := url.Parse(src)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// localName derives a stable file name from the URL hash and its extension.
func localName(src string) string {
	ext := ""
	if u, err := url.Parse(src); err == nil {
		ext = strings.ToLower(path.Ext(u.Path))
	}
	if ext == "" || len(ext) > 5 {
		ext = ".img"
	}
	sum := sha256.Sum256([]byte(src))
	return hex.EncodeToString(sum[:])[:16] + ext
}

func sortedLike(order, subset []string) []string {
	if len(subset) == 0 {
		return nil
	}
	in := make(map[string]struct{}, len(subset))
	for _, s := range subset {
		in[s] = struct{}{}
	}
	out := make([]string, 0, len(subset))
	for _, s := range order {
		if _, ok := in[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

type discardLogger struct{}

func (discardLogger) Errorf(string, ...interface{}) {}
func (discardLogger) Warnf(string, ...interface{})  {}
func (discardLogger) Debugf(string, ...interface{}) {}
