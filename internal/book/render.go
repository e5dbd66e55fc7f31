package book

import (
	_ "embed"
	"fmt"
	"html"
	"html/template"
	"io"
)

// ContentsTitle is the heading of the table of contents page.
const ContentsTitle = "Contents"

//go:embed style.css
var stylesheet string

// Stylesheet returns the fixed print stylesheet embedded in every document.
func Stylesheet() string { return stylesheet }

const documentTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
{{.Style}}
</style>
</head>
<body>
<div class="cover">
{{- if .Logo}}
<img class="logo" src="{{.Logo}}" alt="">
{{- end}}
<h1>{{.Title}}</h1>
<p class="source">Source: <a href="{{.SourceURL}}">{{.SourceURL}}</a></p>
</div>
<div class="toc">
<h1>{{.ContentsTitle}}</h1>
<table>
<tr>
<td>
{{- range .Left}}
<div class="toc-item level-{{.Level}}"><a href="#{{.Anchor}}">{{.Title}}</a></div>
{{- end}}
</td>
<td>
{{- range .Right}}
<div class="toc-item level-{{.Level}}"><a href="#{{.Anchor}}">{{.Title}}</a></div>
{{- end}}
</td>
</tr>
</table>
</div>
{{- range .Chapters}}
<div class="{{.Class}}" id="{{.Anchor}}">
{{.Heading}}
{{.Content}}
</div>
{{- end}}
</body>
</html>
`

var tmpl = template.Must(template.New("book").Parse(documentTemplate))

type documentView struct {
	Title         string
	SourceURL     string
	Logo          string
	Style         template.CSS
	ContentsTitle string
	Left          []TocEntry
	Right         []TocEntry
	Chapters      []chapterView
}

type chapterView struct {
	Class   string
	Anchor  string
	Heading template.HTML
	Content template.HTML
}

// RenderHTML writes the complete standalone HTML document for doc.
// Chapter content is emitted verbatim; it must already be normalized.
func RenderHTML(w io.Writer, doc Document) error {
	left, right := doc.Columns()
	view := documentView{
		Title:         doc.Title,
		SourceURL:     doc.SourceURL,
		Logo:          doc.Logo,
		Style:         template.CSS(stylesheet),
		ContentsTitle: ContentsTitle,
		Left:          left,
		Right:         right,
	}
	for i, p := range doc.Chapters {
		class := "chapter"
		if i == 0 {
			class += " first"
		}
		level := Level(p.Title)
		view.Chapters = append(view.Chapters, chapterView{
			Class:   class,
			Anchor:  ChapterAnchor(i),
			Heading: chapterHeading(p.Title, level),
			Content: template.HTML(p.Content),
		})
	}
	return tmpl.Execute(w, view)
}

// chapterHeading renders the injected chapter title; its rank is the level
// capped at 3.
func chapterHeading(title string, level int) template.HTML {
	rank := min(level, 3)
	return template.HTML(fmt.Sprintf(`<h%d class="chapter-title bookmark-%d">%s</h%d>`,
		rank, level, html.EscapeString(title), rank))
}
