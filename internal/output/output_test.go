package output_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"mdbook2pdf/internal/book"
	"mdbook2pdf/internal/output"
)

func TestDefaultDir(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{url: "https://rustwiki.org/zh-CN/book/", want: "./book_pdf"},
		{url: "https://colobu.com/rust100/", want: "./rust100_pdf"},
		{url: "https://docs.example.com/", want: "./docs_example_com_pdf"},
		{url: "https://docs.example.com", want: "./docs_example_com_pdf"},
	}
	for _, tc := range cases {
		if got := output.DefaultDir(tc.url); got != tc.want {
			t.Fatalf("DefaultDir(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestLayout(t *testing.T) {
	l := output.NewLayout("out", `My/Book: "Intro"?`)
	if got := l.HTMLPath(); got != filepath.Join("out", `My_Book_ _Intro__.html`) {
		t.Fatalf("unexpected html path %q", got)
	}
	if got := l.PDFPath(); filepath.Ext(got) != ".pdf" {
		t.Fatalf("unexpected pdf path %q", got)
	}
	if got := output.NewLayout("out", "  ").Base; got != "book" {
		t.Fatalf("expected fallback base name, got %q", got)
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	l := output.NewLayout(dir, "Book")

	htmlPath, err := output.WriteHTML(l, "<html></html>")
	if err != nil {
		t.Fatalf("WriteHTML error: %v", err)
	}
	pdfPath, err := output.WritePDF(l, []byte("%PDF"))
	if err != nil {
		t.Fatalf("WritePDF error: %v", err)
	}
	mdPath, err := output.WriteMarkdown(l, "# Book\n")
	if err != nil {
		t.Fatalf("WriteMarkdown error: %v", err)
	}

	for path, want := range map[string]string{htmlPath: "<html></html>", pdfPath: "%PDF", mdPath: "# Book\n"} {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		if string(data) != want {
			t.Fatalf("%s: got %q, want %q", path, data, want)
		}
	}
}

func TestManifestRoundTrip(t *testing.T) {
	doc := book.Assemble("Book", "https://example.com/book/", []book.ExtractedPage{
		{URL: "https://example.com/book/", Title: "Introduction", Content: "<p>a</p>"},
		{URL: "https://example.com/book/ch3.html", Title: "3.2 Traits", Content: "<p>b</p>"},
	}, []string{"https://example.com/book/ch2.html"})

	m := output.NewManifest(doc, time.Now())
	if _, err := uuid.Parse(m.RunID); err != nil {
		t.Fatalf("run id is not a uuid: %q", m.RunID)
	}
	m.PDFPages = 7

	l := output.NewLayout(t.TempDir(), doc.Title)
	path, err := output.WriteManifest(l, m)
	if err != nil {
		t.Fatalf("WriteManifest error: %v", err)
	}
	got, err := output.ReadManifest(path)
	if err != nil {
		t.Fatalf("ReadManifest error: %v", err)
	}
	if got.RunID != m.RunID || got.PDFPages != 7 {
		t.Fatalf("unexpected manifest %+v", got)
	}
	if len(got.Chapters) != 2 || got.Chapters[1].Level != 2 {
		t.Fatalf("unexpected chapters %+v", got.Chapters)
	}
	if len(got.Dropped) != 1 || got.Dropped[0] != "https://example.com/book/ch2.html" {
		t.Fatalf("unexpected dropped %v", got.Dropped)
	}
}
