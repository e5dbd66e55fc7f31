package markdown

import (
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// AdmonitionPlugin turns mdBook callouts into titled blockquotes. It covers
// the built-in div.warning and the mdbook-admonish markup
// (div.admonition.admonish-<kind> with a .admonition-title child).
func AdmonitionPlugin() md.Plugin {
	return func(conv *md.Converter) []md.Rule {
		return []md.Rule{{
			Filter: []string{"div", "aside"},
			Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
				title := admonitionTitle(selec)
				if title == "" {
					return nil
				}

				body := content
				if heading := selec.Find(".admonition-title").First(); heading.Length() > 0 {
					body = strings.Replace(body, strings.TrimSpace(heading.Text()), "", 1)
				}

				var b strings.Builder
				b.WriteString("\n> **" + title + "**\n")
				for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
					if strings.TrimSpace(line) == "" {
						b.WriteString(">\n")
						continue
					}
					b.WriteString("> " + line + "\n")
				}
				b.WriteString("\n")
				out := b.String()
				return &out
			},
		}}
	}
}

func admonitionTitle(selec *goquery.Selection) string {
	if selec.HasClass("warning") && !selec.HasClass("admonition") {
		return "Warning"
	}
	if !selec.HasClass("admonition") {
		return ""
	}
	if t := strings.TrimSpace(selec.Find(".admonition-title").First().Text()); t != "" {
		return t
	}
	for _, class := range strings.Fields(selec.AttrOr("class", "")) {
		if kind, ok := strings.CutPrefix(class, "admonish-"); ok && kind != "" {
			return strings.ToUpper(kind[:1]) + kind[1:]
		}
	}
	return "Note"
}
