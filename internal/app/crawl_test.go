package app_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"

	"mdbook2pdf/internal/app"
)

// newSiteServer serves pages by path; paths in dropConn get their
// connection closed without a response.
func newSiteServer(t *testing.T, pages map[string]string, dropConn map[string]bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if dropConn[r.URL.Path] {
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Errorf("response writer cannot hijack")
				return
			}
			conn, _, err := hj.Hijack()
			if err != nil {
				t.Errorf("hijack: %v", err)
				return
			}
			_ = conn.Close()
			return
		}
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func sitePage(nav, body string) string {
	return `<html><head><title>Small Book</title></head><body>
	<nav class="sidebar"><ol class="chapter">` + nav + `</ol></nav>
	<main>` + body + `</main></body></html>`
}

func threePageSite(t *testing.T, dropConn map[string]bool) *httptest.Server {
	t.Helper()
	nav := `<li><a href="./">Introduction</a></li>
	<li><a href="one.html">1. One</a></li>
	<li><a href="two.html">2. Two</a></li>`
	return newSiteServer(t, map[string]string{
		"/book/":         sitePage(nav, "<h1>Introduction</h1><p>home</p>"),
		"/book/one.html": sitePage(nav, "<h1>One</h1><p>one</p>"),
		"/book/two.html": sitePage(nav, "<h1>Two</h1><p>two</p>"),
	}, dropConn)
}

func chapterTitles(doc *goquery.Document) []string {
	var titles []string
	doc.Find("div.chapter .chapter-title").Each(func(_ int, s *goquery.Selection) {
		titles = append(titles, s.Text())
	})
	return titles
}

func TestRun_ThreePageBook(t *testing.T) {
	srv := threePageSite(t, nil)
	cfg := testConfig(srv.URL+"/book/", t.TempDir())
	cfg.HTMLOnly = true

	sum, err := app.Run(context.Background(), app.Options{Config: cfg})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc := readHTML(t, sum.HTMLPath)
	if got := chapterTitles(doc); strings.Join(got, "|") != "Introduction|1. One|2. Two" {
		t.Fatalf("unexpected chapters %v", got)
	}
	left := doc.Find(".toc td").Eq(0).Find(".toc-item").Length()
	right := doc.Find(".toc td").Eq(1).Find(".toc-item").Length()
	if left != 2 || right != 1 {
		t.Fatalf("expected a 2/1 toc split, got %d/%d", left, right)
	}
	if href := doc.Find(".cover p.source a").AttrOr("href", ""); href != srv.URL+"/book/" {
		t.Fatalf("cover should link home, got %q", href)
	}
}

func TestRun_TransportFailureDropsChapter(t *testing.T) {
	srv := threePageSite(t, map[string]bool{"/book/one.html": true})
	cfg := testConfig(srv.URL+"/book/", t.TempDir())
	cfg.HTMLOnly = true

	sum, err := app.Run(context.Background(), app.Options{Config: cfg})
	if err != nil {
		t.Fatalf("a chapter transport error must not fail the run: %v", err)
	}
	if len(sum.Dropped) != 1 || sum.Dropped[0] != srv.URL+"/book/one.html" {
		t.Fatalf("expected one.html dropped, got %v", sum.Dropped)
	}
	doc := readHTML(t, sum.HTMLPath)
	if got := chapterTitles(doc); strings.Join(got, "|") != "Introduction|2. Two" {
		t.Fatalf("expected chapters 1 and 3, got %v", got)
	}
	if n := doc.Find(".toc-item").Length(); n != 2 {
		t.Fatalf("expected 2 toc entries, got %d", n)
	}
}

func TestRun_ResolvesReferencesAgainstSiteBase(t *testing.T) {
	nav := `<li><a href="./">Introduction</a></li><li><a href="sub/page.html">1. Nested</a></li>`
	srv := newSiteServer(t, map[string]string{
		"/book/":              sitePage(nav, "<h1>Introduction</h1><p>home</p>"),
		"/book/sub/page.html": sitePage(nav, `<h1>Nested</h1><p><img src="img/a.png"><a href="other.html">other</a></p>`),
	}, nil)
	cfg := testConfig(srv.URL+"/book/", t.TempDir())
	cfg.HTMLOnly = true

	sum, err := app.Run(context.Background(), app.Options{Config: cfg})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	nested := readHTML(t, sum.HTMLPath).Find("div.chapter").Eq(1)
	if src := nested.Find("img").AttrOr("src", ""); src != srv.URL+"/book/img/a.png" {
		t.Fatalf("img should resolve against the site base, got %q", src)
	}
	if href := nested.Find("p a").AttrOr("href", ""); href != srv.URL+"/book/other.html" {
		t.Fatalf("link should resolve against the site base, got %q", href)
	}
}

func TestRun_PDFOutlineListsOnlyChapters(t *testing.T) {
	srv := newBookServer(t, nil)
	cfg := testConfig(srv.URL+"/book/", t.TempDir())

	var browserPDF bytes.Buffer
	bms := []pdfcpu.Bookmark{
		{Title: "Test Book", PageFrom: 1},
		{Title: "Contents", PageFrom: 1},
		{Title: "Introduction", PageFrom: 2, Kids: []pdfcpu.Bookmark{{Title: "Welcome", PageFrom: 2}}},
		{Title: "1. Getting Started", PageFrom: 2, Kids: []pdfcpu.Bookmark{
			{Title: "1.1 Installation", PageFrom: 3, Kids: []pdfcpu.Bookmark{{Title: "Details", PageFrom: 3}}},
		}},
		{Title: "2. Advanced", PageFrom: 3},
	}
	if err := api.AddBookmarks(bytes.NewReader(minimalPDF(3)), &browserPDF, bms, true, nil); err != nil {
		t.Fatalf("build pdf: %v", err)
	}

	sum, err := app.Run(context.Background(), app.Options{Config: cfg, Renderer: &fakeRenderer{pdf: browserPDF.Bytes()}})
	if err != nil || sum.RenderErr != nil {
		t.Fatalf("unexpected error: %v / %v", err, sum.RenderErr)
	}

	written, err := os.ReadFile(sum.PDFPath)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	got, err := api.Bookmarks(bytes.NewReader(written), nil)
	if err != nil {
		t.Fatalf("read bookmarks: %v", err)
	}
	var lines []string
	for _, bm := range got {
		lines = append(lines, bm.Title)
		for _, kid := range bm.Kids {
			lines = append(lines, "-"+kid.Title)
		}
	}
	want := "Introduction|1. Getting Started|-1.1 Installation|2. Advanced"
	if strings.Join(lines, "|") != want {
		t.Fatalf("unexpected outline %q", lines)
	}
}
