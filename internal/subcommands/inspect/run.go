package inspect

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"

	"mdbook2pdf/internal/config"
	"mdbook2pdf/internal/extract"
	"mdbook2pdf/internal/fetch"
	"mdbook2pdf/internal/nav"
	"mdbook2pdf/internal/parse"
)

type candidate struct {
	Selector string
	Links    int
	Text     int
}

type options struct {
	configPath string
	chapter    int
	timeout    int
}

// NewCommand returns the "inspect" diagnostic. It shows which sidebar and
// content matchers hit on a book without writing anything.
func NewCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "inspect <url>",
		Short: "Show how navigation and content are detected for a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			cfg.URL = args[0]
			if opts.timeout > 0 {
				cfg.TimeoutSeconds = opts.timeout
			}
			return Run(cmd.Context(), cmd.OutOrStdout(), cfg, opts.chapter)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&opts.configPath, "config", "", "Config file to apply")
	fs.IntVar(&opts.chapter, "chapter", 0, "Index of the chapter whose content is inspected")
	fs.IntVar(&opts.timeout, "timeout", 0, "Request timeout in seconds")
	return cmd
}

func loadConfig(path string) (config.Config, error) {
	cfg := config.Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	fileCfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	return config.Merge(cfg, fileCfg), nil
}

func Run(ctx context.Context, w io.Writer, cfg config.Config, chapter int) error {
	baseURL, err := nav.NormalizeBaseURL(cfg.URL)
	if err != nil {
		return err
	}
	fetcher := fetch.New(cfg)

	home, err := fetcher.Fetch(ctx, baseURL)
	if err != nil {
		return fmt.Errorf("fetch home page: %w", err)
	}

	res, resolveErr := nav.NewResolver(cfg).Resolve(home, baseURL)
	if resolveErr != nil {
		fmt.Fprintf(w, "Navigation: %v\n", resolveErr)
		doc, err := parse.NewDocument(home)
		if err != nil {
			return err
		}
		printCandidates(w, collectCandidates(doc))
		printTopLinkContainers(w, doc, 5)
		return resolveErr
	}

	matcher := res.Matcher
	if matcher == "" {
		matcher = "(none)"
	}
	fmt.Fprintf(w, "Title: %s\n", res.Title)
	if res.Logo != "" {
		fmt.Fprintf(w, "Logo: %s\n", res.Logo)
	}
	fmt.Fprintf(w, "Sidebar matcher: %s\n", matcher)
	fmt.Fprintf(w, "Page-wide fallback: %t\n", res.Fallback)
	fmt.Fprintf(w, "Chapters: %d\n", len(res.Chapters))
	for i, c := range res.Chapters {
		fmt.Fprintf(w, "%4d  %s  %s\n", i, c.Title, c.URL)
	}

	if chapter < 0 || chapter >= len(res.Chapters) {
		return fmt.Errorf("chapter index %d out of range [0,%d)", chapter, len(res.Chapters))
	}
	target := res.Chapters[chapter]
	page, err := fetcher.Fetch(ctx, target.URL)
	if err != nil {
		return err
	}

	ex := extract.New(cfg)
	fmt.Fprintf(w, "\nChapter %d: %s\n", chapter, target.URL)
	container := ex.MatchedContainer(page)
	if container == "" {
		container = "(none)"
	}
	fmt.Fprintf(w, "Content container: %s\n", container)

	content, err := ex.Extract(page, target.URL)
	if err != nil {
		return err
	}
	doc, err := parse.NewDocument("<body>" + content + "</body>")
	if err != nil {
		fmt.Fprintln(w, "Extracted content is empty")
		return nil
	}
	outline := parse.OutlineOf(doc)
	bookmarked := 0
	for _, h := range outline.Headings {
		if h.Bookmarked {
			bookmarked++
		}
	}
	fmt.Fprintf(w, "Headings: %d (bookmarked %d)\n", len(outline.Headings), bookmarked)
	fmt.Fprintf(w, "In-page anchors: %d\n", len(outline.Anchors))
	return nil
}

func collectCandidates(doc *goquery.Document) []candidate {
	selectors := []string{
		"nav", "aside", "[role='navigation']", ".sidebar", ".toc", ".menu", ".chapter",
		"#sidebar", "#toc", "main", "article", ".content", "#content",
	}

	candidates := []candidate{}
	for _, sel := range selectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			linkCount := s.Find("a").Length()
			textCount := len(strings.TrimSpace(s.Text()))
			if linkCount == 0 && textCount == 0 {
				return
			}
			candidates = append(candidates, candidate{Selector: sel, Links: linkCount, Text: textCount})
		})
	}
	return candidates
}

func printCandidates(w io.Writer, candidates []candidate) {
	fmt.Fprintln(w, "Selector candidates (links/text length):")
	for _, c := range candidates {
		fmt.Fprintf(w, "- %s: links=%d text=%d\n", c.Selector, c.Links, c.Text)
	}
}

func printTopLinkContainers(w io.Writer, doc *goquery.Document, limit int) {
	fmt.Fprintln(w, "\nTop containers by link count:")
	type box struct {
		Sel   string
		Links int
	}
	boxes := []box{}
	doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
		if links := s.Find("a").Length(); links >= 3 {
			boxes = append(boxes, box{Sel: nodeSelector(s), Links: links})
		}
	})
	sort.SliceStable(boxes, func(i, j int) bool { return boxes[i].Links > boxes[j].Links })
	for i, b := range boxes {
		if i >= limit {
			break
		}
		fmt.Fprintf(w, "- %s (links=%d)\n", b.Sel, b.Links)
	}
}

func nodeSelector(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	if id, exists := s.Attr("id"); exists && id != "" {
		return "#" + id
	}
	if classStr, exists := s.Attr("class"); exists {
		if classes := strings.Fields(classStr); len(classes) > 0 {
			return s.Get(0).Data + "." + strings.Join(classes, ".")
		}
	}
	return s.Get(0).Data
}
