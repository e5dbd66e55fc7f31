package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mdbook2pdf/internal/config"
)

func NewInitConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Write a config file by answering a few questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return RunConfigWizard(cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// RunConfigWizard asks for the common settings on out, reads answers from
// in and writes the resulting config file. Empty answers keep the default.
func RunConfigWizard(in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	fmt.Fprintln(out, "Config wizard (press Enter to accept defaults)")

	def := config.Default()
	path := promptString(reader, out, "Config file path", config.DefaultConfigPath())
	urlStr := promptString(reader, out, "Book URL (optional)", "")
	outputDir := promptString(reader, out, "Output dir (optional)", "")
	delay := promptFloat(reader, out, "Delay seconds", config.DefaultDelaySeconds)
	timeout := promptInt(reader, out, "Timeout seconds", def.TimeoutSeconds)
	engine := promptString(reader, out, "PDF engine (playwright|chromedp)", config.DefaultEngine)
	markdown := promptBool(reader, out, "Also write Markdown (true/false)", false)
	downloadAssets := promptBool(reader, out, "Download images (true/false)", false)
	contentSel := promptString(reader, out, "Extra content selector (optional)", "")

	cfg := config.Config{
		URL:            strings.TrimSpace(urlStr),
		OutputDir:      strings.TrimSpace(outputDir),
		TimeoutSeconds: timeout,
		DelaySeconds:   &delay,
		Engine:         strings.ToLower(strings.TrimSpace(engine)),
		Markdown:       markdown,
		DownloadAssets: downloadAssets,
	}
	if err := validateEngine(cfg.Engine); err != nil {
		return err
	}
	if sel := strings.TrimSpace(contentSel); sel != "" {
		cfg.ContentSelectors = append([]string{sel}, def.ContentSelectors...)
	}

	data, err := config.Marshal(cfg, path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return err
	}

	fmt.Fprintf(out, "Wrote %s\n", path)
	return nil
}

func promptString(reader *bufio.Reader, out io.Writer, label, def string) string {
	if def != "" {
		fmt.Fprintf(out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(out, "%s: ", label)
	}
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return def
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

func promptInt(reader *bufio.Reader, out io.Writer, label string, def int) int {
	line := promptString(reader, out, label, fmt.Sprintf("%d", def))
	var val int
	if _, err := fmt.Sscanf(line, "%d", &val); err != nil {
		return def
	}
	return val
}

func promptFloat(reader *bufio.Reader, out io.Writer, label string, def float64) float64 {
	line := promptString(reader, out, label, fmt.Sprintf("%g", def))
	var val float64
	if _, err := fmt.Sscanf(line, "%g", &val); err != nil || val < 0 {
		return def
	}
	return val
}

func promptBool(reader *bufio.Reader, out io.Writer, label string, def bool) bool {
	line := strings.ToLower(promptString(reader, out, label, fmt.Sprintf("%t", def)))
	return line == "true" || line == "1" || line == "yes" || line == "y"
}
