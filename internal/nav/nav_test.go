package nav_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"mdbook2pdf/internal/config"
	"mdbook2pdf/internal/nav"
	"mdbook2pdf/internal/parse"
)

const base = "https://book.example.com/guide/"

func resolve(t *testing.T, html string) nav.Result {
	t.Helper()
	res, err := nav.NewResolver(config.Default()).Resolve(html, base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return res
}

func chapterURLs(res nav.Result) []string {
	out := make([]string, len(res.Chapters))
	for i, c := range res.Chapters {
		out[i] = c.URL
	}
	return out
}

func TestResolve_SidebarOrderAndFiltering(t *testing.T) {
	html := `
	<html><head><title>Introduction - Guide</title></head>
	<body>
	  <nav class="sidebar">
	    <h1 class="menu-title">The Guide</h1>
	    <ol class="chapter">
	      <li><a href="intro.html">Introduction</a></li>
	      <li><a href="ch1.html#setup">1. Basics</a></li>
	      <li><a href="ch1.html">1. Basics again</a></li>
	      <li><a href="#top">Top</a></li>
	      <li><a href="https://other.example.com/x.html">Elsewhere</a></li>
	      <li><a href="images/diagram.png">Diagram</a></li>
	      <li><a href="ch2.html">   </a></li>
	      <li><a href="ch2/">2. Folder</a></li>
	      <li><a href="https://book.example.com/guide/ch3.html">3. Absolute</a></li>
	    </ol>
	  </nav>
	</body></html>`

	res := resolve(t, html)

	want := []string{
		base,
		base + "intro.html",
		base + "ch1.html",
		base + "ch2/",
		base + "ch3.html",
	}
	if !reflect.DeepEqual(chapterURLs(res), want) {
		t.Fatalf("unexpected urls:\n got %v\nwant %v", chapterURLs(res), want)
	}
	if res.Title != "The Guide" {
		t.Fatalf("expected menu title, got %q", res.Title)
	}
	if res.Chapters[0].Title != "The Guide" {
		t.Fatalf("inserted home should carry the book title, got %q", res.Chapters[0].Title)
	}
	if res.Chapters[2].Title != "1. Basics" {
		t.Fatalf("first occurrence should win, got %q", res.Chapters[2].Title)
	}
	for i, c := range res.Chapters {
		if c.Order != i {
			t.Fatalf("chapter %d has order %d", i, c.Order)
		}
	}
	if res.Matcher != "nav.sidebar" || res.Fallback {
		t.Fatalf("unexpected strategy: matcher=%q fallback=%v", res.Matcher, res.Fallback)
	}
}

func TestResolve_HomeMovedToFront(t *testing.T) {
	html := `
	<nav class="sidebar">
	  <a href="intro.html">Intro</a>
	  <a href="./">Home</a>
	  <a href="ch1.html">One</a>
	</nav>`

	res := resolve(t, html)
	want := []string{base, base + "intro.html", base + "ch1.html"}
	if !reflect.DeepEqual(chapterURLs(res), want) {
		t.Fatalf("unexpected urls: %v", chapterURLs(res))
	}
	if res.Chapters[0].Title != "Home" {
		t.Fatalf("existing home entry keeps its sidebar title, got %q", res.Chapters[0].Title)
	}
	if len(res.Chapters) != 3 {
		t.Fatalf("home must not be duplicated, got %d chapters", len(res.Chapters))
	}
}

func TestResolve_MatcherPriority(t *testing.T) {
	html := `
	<div id="sidebar"><a href="wrong.html">Wrong</a></div>
	<nav class="sidebar"><a href="right.html">Right</a></nav>`

	res := resolve(t, html)
	if res.Matcher != "nav.sidebar" {
		t.Fatalf("expected nav.sidebar to win, got %q", res.Matcher)
	}
	if len(res.Chapters) != 2 || res.Chapters[1].URL != base+"right.html" {
		t.Fatalf("unexpected chapters: %+v", res.Chapters)
	}
}

func TestResolve_FallbackScan(t *testing.T) {
	cases := []struct {
		name string
		html string
	}{
		{
			name: "no sidebar",
			html: `<body><p>
			  <a href="a.html">A</a>
			  <a href="https://other.example.com/b.html">B</a>
			  <a href="c.htm">C</a>
			  <a href="d.html"></a>
			  <a href="a.html">A again</a>
			</p></body>`,
		},
		{
			name: "empty sidebar",
			html: `<nav class="sidebar"><a href="#x">X</a></nav><p><a href="a.html">A</a></p>`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := resolve(t, tc.html)
			if !res.Fallback {
				t.Fatal("expected fallback scan")
			}
			want := []string{base, base + "a.html"}
			if !reflect.DeepEqual(chapterURLs(res), want) {
				t.Fatalf("unexpected urls: %v", chapterURLs(res))
			}
		})
	}
}

func TestResolve_StructuralFailure(t *testing.T) {
	html := `<html><body><nav class="sidebar"><a href="#only">Anchor</a></nav><a href="logo.png">x</a></body></html>`
	_, err := nav.NewResolver(config.Default()).Resolve(html, base)
	if !errors.Is(err, nav.ErrNoChapters) {
		t.Fatalf("expected ErrNoChapters, got %v", err)
	}
	var failure *nav.StructuralResolutionFailure
	if !errors.As(err, &failure) || failure.BaseURL != base {
		t.Fatalf("expected StructuralResolutionFailure, got %v", err)
	}

	if _, err := nav.NewResolver(config.Default()).Resolve("", base); err == nil {
		t.Fatal("expected error for empty markup")
	}
}

func TestResolve_BookTitle(t *testing.T) {
	links := `<nav class="sidebar"><a href="a.html">A</a></nav>`
	cases := []struct {
		name string
		head string
		body string
		want string
	}{
		{"menu title", `<title>Page - Site</title>`, `<h1 class="menu-title">Menu Book</h1>`, "Menu Book"},
		{"sidebar logo", `<title>Page - Site</title>`, `<a class="sidebar-logo" href="./">Logo Book</a>`, "Logo Book"},
		{"page title", `<title>Rust Notes - Chapter</title>`, `<h1 class="menu-title"> </h1>`, "Rust Notes"},
		{"default", ``, ``, nav.DefaultTitle},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			html := "<html><head>" + tc.head + "</head><body>" + tc.body + links + "</body></html>"
			res := resolve(t, html)
			if res.Title != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, res.Title)
			}
		})
	}
}

func TestResolve_Logo(t *testing.T) {
	html := `<nav class="sidebar"><a class="sidebar-logo" href="./"><img src="img/logo.svg"></a><a href="a.html">A</a></nav>`
	res := resolve(t, html)
	if res.Logo != base+"img/logo.svg" {
		t.Fatalf("unexpected logo %q", res.Logo)
	}
}

func TestResolve_CustomMatcher(t *testing.T) {
	cfg := config.Default()
	cfg.SidebarSelectors = nil
	r := nav.NewResolver(cfg).WithMatchers(parse.Matcher{
		Name: "aside-toc",
		Match: func(doc *goquery.Document) *goquery.Selection {
			return doc.Find("aside.toc").First()
		},
	})

	res, err := r.Resolve(`<aside class="toc"><a href="one.html">One</a></aside><a href="two.html">Two</a>`, base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Matcher != "aside-toc" || len(res.Chapters) != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	cases := []struct {
		in, want string
		wantErr  bool
	}{
		{"https://book.example.com/guide", "https://book.example.com/guide/", false},
		{"https://book.example.com/guide/", "https://book.example.com/guide/", false},
		{"https://book.example.com", "https://book.example.com/", false},
		{"  http://book.example.com/x#frag ", "http://book.example.com/x/", false},
		{"ftp://book.example.com/", "", true},
		{"book.example.com", "", true},
	}
	for _, tc := range cases {
		got, err := nav.NormalizeBaseURL(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("NormalizeBaseURL(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("NormalizeBaseURL(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("NormalizeBaseURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
