package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

func NewLogger(w io.Writer, level string) (*log.Logger, error) {
	lvl := log.InfoLevel
	if strings.TrimSpace(level) != "" {
		parsed, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
		if err != nil {
			return nil, usageError(fmt.Errorf("invalid log level %q", level))
		}
		lvl = parsed
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	}), nil
}
