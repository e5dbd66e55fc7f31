package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTimeoutSeconds = 30
	DefaultDelaySeconds   = 0.3
	DefaultEngine         = "playwright"
	DefaultUserAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Config is the single settings value threaded through the fetcher, the
// navigation resolver and the content extractor. It is built once from
// defaults, an optional file and explicit flags, then only read.
type Config struct {
	URL            string            `json:"url,omitempty" yaml:"url,omitempty"`
	OutputDir      string            `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
	TimeoutSeconds int               `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
	DelaySeconds   *float64          `json:"delay_seconds,omitempty" yaml:"delay_seconds,omitempty"`
	UserAgent      string            `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	Headers        map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`

	SidebarSelectors []string `json:"sidebar_selectors,omitempty" yaml:"sidebar_selectors,omitempty"`
	ContentSelectors []string `json:"content_selectors,omitempty" yaml:"content_selectors,omitempty"`
	RemoveTags       []string `json:"remove_tags,omitempty" yaml:"remove_tags,omitempty"`
	RemoveClasses    []string `json:"remove_classes,omitempty" yaml:"remove_classes,omitempty"`
	RemoveIDs        []string `json:"remove_ids,omitempty" yaml:"remove_ids,omitempty"`

	Engine         string `json:"engine,omitempty" yaml:"engine,omitempty"`
	HTMLOnly       bool   `json:"html_only,omitempty" yaml:"html_only,omitempty"`
	Markdown       bool   `json:"markdown,omitempty" yaml:"markdown,omitempty"`
	DownloadAssets bool   `json:"download_assets,omitempty" yaml:"download_assets,omitempty"`
	Sanitize       bool   `json:"sanitize,omitempty" yaml:"sanitize,omitempty"`
}

// Default returns a fresh Config holding the built-in mdBook conventions.
func Default() Config {
	delay := DefaultDelaySeconds
	return Config{
		TimeoutSeconds: DefaultTimeoutSeconds,
		DelaySeconds:   &delay,
		UserAgent:      DefaultUserAgent,
		Headers: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
		},
		SidebarSelectors: []string{
			"nav.sidebar",
			"div.sidebar",
			"div#sidebar",
			"nav.nav-chapters",
			"ol.chapter",
			"ul.chapter",
		},
		ContentSelectors: []string{
			"main",
			"div.content",
			"div#content",
			"article",
			"div.page-wrapper",
		},
		RemoveTags: []string{"nav", "header", "footer", "script", "style", "noscript"},
		RemoveClasses: []string{
			"nav-wrapper", "nav-chapters", "sidebar", "menu-bar", "nav-wide-wrapper",
			"sidetoc", "pagetoc", "mobile-nav-chapters", "buttons", "search-wrapper",
			"searchresults-outer", "searchresults-header", "theme-popup", "theme-toggle",
			"search-toggle", "print-button", "git-link", "edit-button", "back-to-top",
			"chapter-nav",
		},
		RemoveIDs: []string{
			"sidebar", "menu-bar", "search-wrapper", "searchresults-outer",
			"theme-toggle", "search-toggle", "searchbar", "searchresults",
		},
		Engine: DefaultEngine,
	}
}

// Merge overlays every non-zero field of override onto base. Headers are
// merged key by key; selector lists replace the base list wholesale.
func Merge(base, override Config) Config {
	out := base
	if override.URL != "" {
		out.URL = override.URL
	}
	if override.OutputDir != "" {
		out.OutputDir = override.OutputDir
	}
	if override.TimeoutSeconds > 0 {
		out.TimeoutSeconds = override.TimeoutSeconds
	}
	if override.DelaySeconds != nil {
		delay := *override.DelaySeconds
		out.DelaySeconds = &delay
	}
	if override.UserAgent != "" {
		out.UserAgent = override.UserAgent
	}
	if len(override.Headers) > 0 {
		headers := make(map[string]string, len(base.Headers)+len(override.Headers))
		for k, v := range base.Headers {
			headers[k] = v
		}
		for k, v := range override.Headers {
			headers[k] = v
		}
		out.Headers = headers
	}
	out.SidebarSelectors = pickList(base.SidebarSelectors, override.SidebarSelectors)
	out.ContentSelectors = pickList(base.ContentSelectors, override.ContentSelectors)
	out.RemoveTags = pickList(base.RemoveTags, override.RemoveTags)
	out.RemoveClasses = pickList(base.RemoveClasses, override.RemoveClasses)
	out.RemoveIDs = pickList(base.RemoveIDs, override.RemoveIDs)
	if override.Engine != "" {
		out.Engine = override.Engine
	}
	out.HTMLOnly = base.HTMLOnly || override.HTMLOnly
	out.Markdown = base.Markdown || override.Markdown
	out.DownloadAssets = base.DownloadAssets || override.DownloadAssets
	out.Sanitize = base.Sanitize || override.Sanitize
	return out
}

func pickList(base, override []string) []string {
	if len(override) == 0 {
		return base
	}
	return append([]string(nil), override...)
}

func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c Config) Delay() time.Duration {
	if c.DelaySeconds == nil {
		return time.Duration(DefaultDelaySeconds * float64(time.Second))
	}
	if *c.DelaySeconds <= 0 {
		return 0
	}
	return time.Duration(*c.DelaySeconds * float64(time.Second))
}

// RequestHeaders returns a copy of the configured headers with the
// User-Agent filled in.
func (c Config) RequestHeaders() map[string]string {
	headers := make(map[string]string, len(c.Headers)+1)
	for k, v := range c.Headers {
		headers[k] = v
	}
	ua := c.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	if _, ok := headers["User-Agent"]; !ok {
		headers["User-Agent"] = ua
	}
	return headers
}

// Load reads a config file. Files ending in .yaml or .yml are decoded as
// YAML, everything else as JSON. Only fields present in the file are set.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if isYAML(path) {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
		return cfg, nil
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Marshal encodes cfg in the format implied by path.
func Marshal(cfg Config, path string) ([]byte, error) {
	if isYAML(path) {
		return yaml.Marshal(cfg)
	}
	return json.MarshalIndent(cfg, "", "  ")
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
