package cli

import (
	"fmt"
	"sort"
	"strings"
)

// headerFlag collects repeated --header key=value pairs.
type headerFlag struct {
	Values map[string]string
}

func (h *headerFlag) String() string {
	if len(h.Values) == 0 {
		return ""
	}
	parts := make([]string, 0, len(h.Values))
	for key, value := range h.Values {
		parts = append(parts, fmt.Sprintf("%s=%s", key, value))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

func (h *headerFlag) Set(v string) error {
	key, value, ok := strings.Cut(v, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return fmt.Errorf("expected key=value, got %q", v)
	}
	if h.Values == nil {
		h.Values = make(map[string]string)
	}
	h.Values[strings.TrimSpace(key)] = strings.TrimSpace(value)
	return nil
}

func (h *headerFlag) Type() string { return "key=value" }
