package output

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"

	"mdbook2pdf/internal/book"
	"mdbook2pdf/internal/report"
)

const ManifestFile = "manifest.json"

type ManifestChapter struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Level int    `json:"level"`
}

type Artifacts struct {
	HTML     string `json:"html"`
	PDF      string `json:"pdf,omitempty"`
	Markdown string `json:"markdown,omitempty"`
	Assets   string `json:"assets,omitempty"`
}

// Manifest records what a run produced.
type Manifest struct {
	RunID       string            `json:"run_id"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt time.Time         `json:"completed_at"`
	SourceURL   string            `json:"source_url"`
	Title       string            `json:"title"`
	Engine      string            `json:"engine,omitempty"`
	Chapters    []ManifestChapter `json:"chapters"`
	Dropped     []string          `json:"dropped"`
	FailedAsset []string          `json:"failed_assets,omitempty"`
	Report      report.Report     `json:"report"`
	Artifacts   Artifacts         `json:"artifacts"`
	PDFPages    int               `json:"pdf_pages,omitempty"`
	RenderError string            `json:"render_error,omitempty"`
}

// NewManifest fills the document part of a manifest. Falls back to a random
// id if a time-ordered one cannot be generated.
func NewManifest(doc book.Document, startedAt time.Time) Manifest {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	chapters := make([]ManifestChapter, len(doc.Chapters))
	for i, ch := range doc.Chapters {
		chapters[i] = ManifestChapter{URL: ch.URL, Title: ch.Title, Level: book.Level(ch.Title)}
	}
	dropped := append([]string{}, doc.Dropped...)
	return Manifest{
		RunID:     id.String(),
		StartedAt: startedAt,
		SourceURL: doc.SourceURL,
		Title:     doc.Title,
		Chapters:  chapters,
		Dropped:   dropped,
	}
}

func WriteManifest(l Layout, m Manifest) (string, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", err
	}
	return writeFile(l.ManifestPath(), data)
}

func ReadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, err
	}
	return m, nil
}
