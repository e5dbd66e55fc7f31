package markdown

import (
	"regexp"
	"strings"

	htmltomd "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"

	"mdbook2pdf/internal/book"
)

// Converter renders an assembled book as a single Markdown file.
type Converter struct {
	md *htmltomd.Converter
}

func NewConverter() *Converter {
	conv := htmltomd.NewConverter("", true, nil)
	conv.Use(plugin.GitHubFlavored())
	conv.Use(AdmonitionPlugin())
	conv.AddRules(codeBlockRule())
	conv.Remove("button")
	return &Converter{md: conv}
}

// Book converts every chapter in order, preceded by the book title and a
// source line.
func (c *Converter) Book(doc book.Document) (string, error) {
	var b strings.Builder
	b.WriteString("# " + doc.Title + "\n\n")
	if doc.SourceURL != "" {
		b.WriteString("Source: <" + doc.SourceURL + ">\n")
	}
	for _, ch := range doc.Chapters {
		part, err := c.Chapter(ch.Title, book.Level(ch.Title)+1, ch.Content)
		if err != nil {
			return "", err
		}
		b.WriteString("\n")
		b.WriteString(part)
	}
	return b.String(), nil
}

// Chapter converts one chapter body under a heading of the given level.
func (c *Converter) Chapter(title string, level int, contentHTML string) (string, error) {
	level = max(1, min(level, 6))
	headingLine := strings.TrimSpace(strings.Repeat("#", level) + " " + title)

	body, err := c.md.ConvertString(contentHTML)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(body) == "" {
		return headingLine + "\n", nil
	}
	return headingLine + "\n\n" + strings.TrimSpace(body) + "\n", nil
}

func codeBlockRule() htmltomd.Rule {
	return htmltomd.Rule{
		Filter: []string{"pre"},
		Replacement: func(_ string, selec *goquery.Selection, _ *htmltomd.Options) *string {
			code := selec.Find("code").First()
			if code.Length() == 0 {
				return nil
			}

			lang := detectLanguage(code)
			text := strings.ReplaceAll(code.Text(), "\r\n", "\n")
			text = strings.TrimSuffix(text, "\n")

			fence := "```"
			if strings.Contains(text, "```") {
				fence = "````"
			}

			out := "\n" + fence + lang + "\n" + text + "\n" + fence + "\n"
			return &out
		},
	}
}

var languageClass = regexp.MustCompile(`(?:^|\s)(?:language|lang)-([a-zA-Z0-9_+-]+)(?:\s|$)`)

// detectLanguage reads the highlight.js class mdBook puts on code blocks,
// e.g. "language-rust editable" or "hljs language-toml".
func detectLanguage(code *goquery.Selection) string {
	m := languageClass.FindStringSubmatch(code.AttrOr("class", ""))
	if len(m) != 2 {
		return ""
	}
	return strings.ToLower(m[1])
}
