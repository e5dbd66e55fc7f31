package output

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"mdbook2pdf/internal/book"
)

// Layout names every artifact of one run. All files share the sanitized
// book title as base name.
type Layout struct {
	Dir  string
	Base string
}

func NewLayout(dir, title string) Layout {
	base := book.SanitizeFilename(strings.TrimSpace(title))
	if base == "" {
		base = "book"
	}
	return Layout{Dir: dir, Base: base}
}

func (l Layout) HTMLPath() string     { return filepath.Join(l.Dir, l.Base+".html") }
func (l Layout) PDFPath() string      { return filepath.Join(l.Dir, l.Base+".pdf") }
func (l Layout) MarkdownPath() string { return filepath.Join(l.Dir, l.Base+".md") }
func (l Layout) ManifestPath() string { return filepath.Join(l.Dir, ManifestFile) }

// DefaultDir derives the output directory from the book URL: the last
// path segment, or the host with dots replaced, followed by "_pdf".
func DefaultDir(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "./book_pdf"
	}
	name := ""
	for _, part := range strings.Split(u.Path, "/") {
		if part != "" {
			name = part
		}
	}
	if name == "" {
		name = strings.ReplaceAll(u.Host, ".", "_")
	}
	if name == "" {
		name = "book"
	}
	return "./" + name + "_pdf"
}

func WriteHTML(l Layout, html string) (string, error) {
	return writeFile(l.HTMLPath(), []byte(html))
}

func WritePDF(l Layout, pdf []byte) (string, error) {
	return writeFile(l.PDFPath(), pdf)
}

func WriteMarkdown(l Layout, markdown string) (string, error) {
	return writeFile(l.MarkdownPath(), []byte(markdown))
}

func writeFile(path string, data []byte) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", err
	}
	return path, nil
}
