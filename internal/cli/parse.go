package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"mdbook2pdf/internal/config"
	"mdbook2pdf/internal/render"
)

type ExitError struct {
	Code int
	Err  error
}

func (e ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "error"
}

func (e ExitError) Unwrap() error { return e.Err }

func usageError(err error) error {
	return ExitError{Code: 2, Err: err}
}

// Invocation is the fully merged result of defaults, config file and flags.
type Invocation struct {
	Config     config.Config
	ConfigPath string
	LogLevel   string
}

type Runner func(ctx context.Context, inv Invocation) error

type rootFlags struct {
	urlStr         string
	configPath     string
	outputDir      string
	delay          float64
	timeout        int
	htmlOnly       bool
	engine         string
	markdown       bool
	downloadAssets bool
	sanitize       bool
	userAgent      string
	headers        headerFlag
	logLevel       string
}

func NewRootCommand(run Runner) *cobra.Command {
	f := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "mdbook2pdf [url]",
		Short: "Crawl an mdBook site and print it to a single PDF",
		Long: "Crawl an mdBook site chapter by chapter in sidebar order and render it to one\n" +
			"PDF with a cover, a table of contents and bookmarks.",
		Example: "  mdbook2pdf https://rust-lang.github.io/async-book/\n" +
			"  mdbook2pdf https://doc.rust-lang.org/book/ -o ./rust_book --markdown",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
				return usageError(err)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := f.invocation(cmd.Flags(), args)
			if err != nil {
				return err
			}
			return run(cmd.Context(), inv)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})
	f.register(cmd.Flags())
	return cmd
}

func (f *rootFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.urlStr, "url", "", "mdBook site URL (alternative to the positional argument)")
	fs.StringVar(&f.configPath, "config", "", "Path to a JSON or YAML config file")
	fs.StringVarP(&f.outputDir, "output", "o", "", "Output directory (default: ./<book>_pdf)")
	fs.Float64VarP(&f.delay, "delay", "d", config.DefaultDelaySeconds, "Seconds to wait after each request")
	fs.IntVar(&f.timeout, "timeout", config.DefaultTimeoutSeconds, "Per-request timeout in seconds")
	fs.BoolVar(&f.htmlOnly, "html-only", false, "Write the HTML file only, skip PDF rendering")
	fs.StringVar(&f.engine, "engine", config.DefaultEngine, "PDF engine: "+strings.Join(render.Engines(), "|"))
	fs.BoolVar(&f.markdown, "markdown", false, "Also write the book as Markdown")
	fs.BoolVar(&f.downloadAssets, "download-assets", false, "Download images next to the HTML file")
	fs.BoolVar(&f.sanitize, "sanitize", false, "Run extracted chapters through an HTML sanitizer")
	fs.StringVar(&f.userAgent, "user-agent", "", "User-Agent header")
	fs.Var(&f.headers, "header", "Extra request header, repeatable")
	fs.StringVar(&f.logLevel, "log-level", "info", "Log level: debug|info|warn|error")
}

func (f *rootFlags) invocation(fs *pflag.FlagSet, args []string) (Invocation, error) {
	cfgPath := f.configPath
	if !fs.Changed("config") {
		cfgPath = config.Discover()
	}
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return Invocation{}, err
	}
	applyFlags(&cfg, f, fs)

	if len(args) == 1 {
		cfg.URL = strings.TrimSpace(args[0])
	}
	if strings.TrimSpace(cfg.URL) == "" {
		return Invocation{}, usageError(errors.New("a book url is required"))
	}
	if err := validateEngine(cfg.Engine); err != nil {
		return Invocation{}, usageError(err)
	}
	return Invocation{Config: cfg, ConfigPath: cfgPath, LogLevel: f.logLevel}, nil
}

func loadConfig(path string) (config.Config, error) {
	cfg := config.Default()
	if path == "" {
		return cfg, nil
	}
	fileCfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	return config.Merge(cfg, fileCfg), nil
}

// applyFlags copies every explicitly set flag onto cfg.
func applyFlags(cfg *config.Config, f *rootFlags, fs *pflag.FlagSet) {
	if fs.Changed("url") {
		cfg.URL = strings.TrimSpace(f.urlStr)
	}
	if fs.Changed("output") {
		cfg.OutputDir = strings.TrimSpace(f.outputDir)
	}
	if fs.Changed("delay") {
		delay := f.delay
		cfg.DelaySeconds = &delay
	}
	if fs.Changed("timeout") {
		cfg.TimeoutSeconds = f.timeout
	}
	if fs.Changed("html-only") {
		cfg.HTMLOnly = f.htmlOnly
	}
	if fs.Changed("engine") {
		cfg.Engine = strings.ToLower(strings.TrimSpace(f.engine))
	}
	if fs.Changed("markdown") {
		cfg.Markdown = f.markdown
	}
	if fs.Changed("download-assets") {
		cfg.DownloadAssets = f.downloadAssets
	}
	if fs.Changed("sanitize") {
		cfg.Sanitize = f.sanitize
	}
	if fs.Changed("user-agent") {
		cfg.UserAgent = strings.TrimSpace(f.userAgent)
	}
	if fs.Changed("header") {
		*cfg = config.Merge(*cfg, config.Config{Headers: f.headers.Values})
	}
}

func validateEngine(engine string) error {
	if engine == "" {
		return nil
	}
	for _, e := range render.Engines() {
		if e == engine {
			return nil
		}
	}
	return fmt.Errorf("unknown engine %q (want %s)", engine, strings.Join(render.Engines(), " or "))
}
