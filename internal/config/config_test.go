package config_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"mdbook2pdf/internal/config"
)

func TestLoadJSON(t *testing.T) {
	data := []byte(`{
  "url": "https://book.example.com/",
  "output_dir": "out/book",
  "timeout_seconds": 42,
  "delay_seconds": 1.5,
  "user_agent": "test-agent",
  "headers": {"Accept-Language": "en"},
  "sidebar_selectors": ["aside.toc"],
  "engine": "chromedp",
  "html_only": true
}`)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	delay := 1.5
	expected := config.Config{
		URL:              "https://book.example.com/",
		OutputDir:        "out/book",
		TimeoutSeconds:   42,
		DelaySeconds:     &delay,
		UserAgent:        "test-agent",
		Headers:          map[string]string{"Accept-Language": "en"},
		SidebarSelectors: []string{"aside.toc"},
		Engine:           "chromedp",
		HTMLOnly:         true,
	}
	if !reflect.DeepEqual(cfg, expected) {
		t.Fatalf("config mismatch:\nexpected: %#v\nactual:   %#v", expected, cfg)
	}
}

func TestLoadYAML(t *testing.T) {
	data := []byte(`
url: https://book.example.com/
delay_seconds: 0
remove_ids:
  - sidebar
  - banner
markdown: true
`)
	dir := t.TempDir()
	path := filepath.Join(dir, "mdbook2pdf.yaml")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DelaySeconds == nil || *cfg.DelaySeconds != 0 {
		t.Fatalf("expected explicit zero delay, got %v", cfg.DelaySeconds)
	}
	if !reflect.DeepEqual(cfg.RemoveIDs, []string{"sidebar", "banner"}) {
		t.Fatalf("unexpected remove ids: %v", cfg.RemoveIDs)
	}
	if !cfg.Markdown {
		t.Fatal("expected markdown to be enabled")
	}

	merged := config.Merge(config.Default(), cfg)
	if merged.Delay() != 0 {
		t.Fatalf("expected zero delay after merge, got %s", merged.Delay())
	}
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte("{"), 0600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDefaults(t *testing.T) {
	cfg := config.Default()
	if cfg.Timeout() != 30*time.Second {
		t.Fatalf("expected 30s timeout, got %s", cfg.Timeout())
	}
	if cfg.Delay() != 300*time.Millisecond {
		t.Fatalf("expected 300ms delay, got %s", cfg.Delay())
	}
	if cfg.SidebarSelectors[0] != "nav.sidebar" {
		t.Fatalf("unexpected first sidebar selector %q", cfg.SidebarSelectors[0])
	}
	if cfg.ContentSelectors[0] != "main" {
		t.Fatalf("unexpected first content selector %q", cfg.ContentSelectors[0])
	}
	headers := cfg.RequestHeaders()
	if headers["User-Agent"] != config.DefaultUserAgent {
		t.Fatalf("expected default user agent, got %q", headers["User-Agent"])
	}
	if headers["Accept"] == "" {
		t.Fatal("expected Accept header")
	}
}

func TestMergeDoesNotMutateBase(t *testing.T) {
	base := config.Default()
	override := config.Config{
		Headers:       map[string]string{"X-Test": "1"},
		RemoveClasses: []string{"ads"},
		UserAgent:     "custom",
	}
	merged := config.Merge(base, override)

	if _, ok := base.Headers["X-Test"]; ok {
		t.Fatal("base headers were mutated")
	}
	if merged.Headers["X-Test"] != "1" || merged.Headers["Accept"] == "" {
		t.Fatalf("expected merged headers, got %v", merged.Headers)
	}
	if !reflect.DeepEqual(merged.RemoveClasses, []string{"ads"}) {
		t.Fatalf("expected override classes, got %v", merged.RemoveClasses)
	}
	if merged.RequestHeaders()["User-Agent"] != "custom" {
		t.Fatalf("expected custom user agent, got %q", merged.RequestHeaders()["User-Agent"])
	}
	if len(merged.RemoveTags) == 0 {
		t.Fatal("expected default remove tags to survive")
	}
}

func TestMarshalRoundTripYAML(t *testing.T) {
	cfg := config.Config{URL: "https://book.example.com/", Engine: "chromedp"}
	data, err := config.Marshal(cfg, "out.yml")
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "out.yml")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	loaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.URL != cfg.URL || loaded.Engine != cfg.Engine {
		t.Fatalf("round trip mismatch: %#v", loaded)
	}
}
