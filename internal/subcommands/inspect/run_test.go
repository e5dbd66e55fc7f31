package inspect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mdbook2pdf/internal/config"
	"mdbook2pdf/internal/nav"
	"mdbook2pdf/internal/parse"
)

const homePage = `<html><head><title>Guide</title></head><body>
<nav class="sidebar"><ol class="chapter">
<li><a href="./">Introduction</a></li>
<li><a href="ch1.html">1. Basics</a></li>
</ol></nav>
<div id="menu-bar"><h1 class="menu-title">Guide</h1></div>
<main><h1>Introduction</h1><p>Welcome.</p></main>
</body></html>`

const chapterPage = `<html><body>
<div id="menu-bar">menu</div>
<main><h1>Basics</h1><h2 id="setup">Setup</h2><p><a href="#setup">jump</a></p><h3>Details</h3></main>
</body></html>`

func newServer(t *testing.T, home string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/guide/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/guide/":
			fmt.Fprint(w, home)
		case "/guide/ch1.html":
			fmt.Fprint(w, chapterPage)
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(url string) config.Config {
	cfg := config.Default()
	cfg.URL = url
	cfg.TimeoutSeconds = 5
	return cfg
}

func TestRun_ReportsNavigationAndContent(t *testing.T) {
	srv := newServer(t, homePage)
	var out bytes.Buffer
	if err := Run(context.Background(), &out, testConfig(srv.URL+"/guide/"), 1); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"Title: Guide",
		"Sidebar matcher: nav.sidebar",
		"Page-wide fallback: false",
		"Chapters: 2",
		"1. Basics",
		"Content container: main",
		"Headings: 2 (bookmarked 0)",
		"In-page anchors: 1",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRun_ChapterOutOfRange(t *testing.T) {
	srv := newServer(t, homePage)
	if err := Run(context.Background(), &bytes.Buffer{}, testConfig(srv.URL+"/guide/"), 5); err == nil {
		t.Fatal("expected error for chapter index out of range")
	}
}

func TestRun_NoNavigationPrintsCandidates(t *testing.T) {
	srv := newServer(t, `<html><body><aside><p>no links here</p></aside></body></html>`)
	var out bytes.Buffer
	err := Run(context.Background(), &out, testConfig(srv.URL+"/guide/"), 0)
	var structural *nav.StructuralResolutionFailure
	if !errors.As(err, &structural) {
		t.Fatalf("expected StructuralResolutionFailure, got %v", err)
	}
	if !strings.Contains(out.String(), "- aside: links=0") {
		t.Fatalf("expected candidate listing, got:\n%s", out.String())
	}
}

func TestNodeSelector(t *testing.T) {
	cases := []struct {
		html string
		want string
	}{
		{html: `<div id="x" class="a b"></div>`, want: "#x"},
		{html: `<div class="a b"></div>`, want: "div.a.b"},
		{html: `<section></section>`, want: "section"},
	}
	for _, tc := range cases {
		doc, err := parse.NewDocument("<body>" + tc.html + "</body>")
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if got := nodeSelector(doc.Find("body > *").First()); got != tc.want {
			t.Errorf("nodeSelector(%s) = %q, want %q", tc.html, got, tc.want)
		}
	}
}
