package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	DefaultConfigDir  = "configs"
	DefaultConfigFile = "mdbook2pdf.yaml"
)

var candidateNames = []string{"mdbook2pdf.yaml", "mdbook2pdf.yml", "mdbook2pdf.json"}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir, DefaultConfigFile)
}

func SearchDirs() []string {
	dirs := []string{".", DefaultConfigDir}
	if home, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, "mdbook2pdf"))
	}
	return uniqueDirs(dirs)
}

// Discover returns the first config file found in SearchDirs, or "" when
// none exists.
func Discover() string {
	for _, dir := range SearchDirs() {
		for _, name := range candidateNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path
			}
		}
	}
	return ""
}

func uniqueDirs(dirs []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		trimmed := strings.TrimSpace(dir)
		if trimmed == "" {
			continue
		}
		normalized := strings.ToLower(filepath.Clean(trimmed))
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
