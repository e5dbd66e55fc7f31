package tui

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"mdbook2pdf/internal/config"
	"mdbook2pdf/internal/render"
)

type Result struct {
	Config     config.Config
	SaveConfig bool
	ConfigPath string
	RunNow     bool
}

func Run() (Result, error) {
	printBanner()
	state := newFormState()

	if err := manageConfigs(state); err != nil {
		return Result{}, err
	}

	form := buildForm(state).WithTheme(huh.ThemeDracula())
	if err := form.Run(); err != nil {
		return Result{}, err
	}

	return buildResult(state)
}

func printBanner() {
	fmt.Print(`
           _ _                 _    ____            _  __
  _ __ ___  __| | |__   ___   ___ | | _|___ \ _ __   __| |/ _|
 | '_ ` + "`" + ` _ \/ _` + "`" + ` | '_ \ / _ \ / _ \| |/ / __) | '_ \ / _` + "`" + ` | |_
 | | | | | | (_| | |_) | (_) | (_) |   < / __/| |_) | (_| |  _|
 |_| |_| |_|\__,_|_.__/ \___/ \___/|_|\_\_____| .__/ \__,_|_|
                                              |_|
`)
}

func manageConfigs(state *formState) error {
	for {
		files := listConfigFiles()
		if len(files) == 0 {
			return nil
		}

		var selectedFile string
		opts := []huh.Option[string]{
			huh.NewOption("Start fresh (defaults)", ""),
		}
		for _, f := range files {
			opts = append(opts, huh.NewOption(fmt.Sprintf("Manage %s", f), f))
		}

		selectForm := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Saved configurations").
					Description("Load a saved config or start from the defaults.").
					Options(opts...).
					Value(&selectedFile),
			),
		).WithTheme(huh.ThemeDracula())

		if err := selectForm.Run(); err != nil {
			return err
		}
		if selectedFile == "" {
			return nil
		}

		var action string
		actionForm := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title(fmt.Sprintf("Action for %s", selectedFile)).
					Options(
						huh.NewOption("Load this config", "load"),
						huh.NewOption("Delete this config", "delete"),
						huh.NewOption("Back to list", "back"),
					).
					Value(&action),
			),
		).WithTheme(huh.ThemeDracula())

		if err := actionForm.Run(); err != nil {
			return err
		}

		done, err := executeConfigAction(action, selectedFile, state)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func listConfigFiles() []string {
	var files []string
	for _, dir := range config.SearchDirs() {
		for _, pattern := range []string{"*.yaml", "*.yml", "*.json"} {
			matches, err := filepath.Glob(filepath.Join(dir, pattern))
			if err != nil {
				continue
			}
			files = append(files, matches...)
		}
	}
	return files
}

func executeConfigAction(action, selectedFile string, state *formState) (bool, error) {
	switch action {
	case "load":
		cfg, err := config.Load(selectedFile)
		if err != nil {
			return false, err
		}
		state.fromConfig(cfg)
		state.configPath = selectedFile
		return true, nil

	case "delete":
		var confirmDelete bool
		if err := huh.NewConfirm().Title(fmt.Sprintf("Really delete %s?", selectedFile)).Affirmative("Yes, delete it.").Negative("No, keep it.").Value(&confirmDelete).Run(); err != nil {
			return false, err
		}
		if confirmDelete {
			if err := os.Remove(selectedFile); err != nil {
				return false, fmt.Errorf("failed to delete %s: %w", selectedFile, err)
			}
		}
	}
	return false, nil
}

type formState struct {
	base           config.Config
	urlStr         string
	outputDir      string
	delayStr       string
	timeoutSecStr  string
	engine         string
	htmlOnly       bool
	markdown       bool
	downloadAssets bool
	sanitize       bool
	configPath     string
	finalAction    string
}

func newFormState() *formState {
	return &formState{
		base:          config.Default(),
		delayStr:      strconv.FormatFloat(config.DefaultDelaySeconds, 'f', -1, 64),
		timeoutSecStr: strconv.Itoa(config.DefaultTimeoutSeconds),
		engine:        config.DefaultEngine,
		configPath:    config.DefaultConfigPath(),
		finalAction:   "run",
	}
}

// fromConfig loads cfg over the defaults so selectors and headers from the
// file survive even though the form does not show them.
func (s *formState) fromConfig(cfg config.Config) {
	s.base = config.Merge(config.Default(), cfg)
	if cfg.URL != "" {
		s.urlStr = cfg.URL
	}
	if cfg.OutputDir != "" {
		s.outputDir = cfg.OutputDir
	}
	if cfg.DelaySeconds != nil {
		s.delayStr = strconv.FormatFloat(*cfg.DelaySeconds, 'f', -1, 64)
	}
	if cfg.TimeoutSeconds > 0 {
		s.timeoutSecStr = strconv.Itoa(cfg.TimeoutSeconds)
	}
	if cfg.Engine != "" {
		s.engine = cfg.Engine
	}
	s.htmlOnly = cfg.HTMLOnly
	s.markdown = cfg.Markdown
	s.downloadAssets = cfg.DownloadAssets
	s.sanitize = cfg.Sanitize
}

func buildForm(state *formState) *huh.Form {
	return huh.NewForm(
		buildTargetGroup(state),
		buildCrawlGroup(state),
		buildOutputGroup(state),
		buildFinishGroup(state),
	)
}

func buildTargetGroup(state *formState) *huh.Group {
	return huh.NewGroup(
		huh.NewInput().Title("Book URL").Placeholder("https://doc.rust-lang.org/book/").Value(&state.urlStr).
			Description("Home page of the mdBook site.").
			Validate(validateBookURL),
		huh.NewInput().Title("Output dir").Description("Optional: defaults to ./<book>_pdf").Value(&state.outputDir),
	).Title("Target")
}

func buildCrawlGroup(state *formState) *huh.Group {
	return huh.NewGroup(
		huh.NewInput().Title("Delay (seconds)").Description("Pause after each request.").Value(&state.delayStr).
			Validate(validateFloatString(0, 60)),
		huh.NewInput().Title("Timeout (seconds)").Value(&state.timeoutSecStr).
			Validate(validateIntString(1, 3600)),
	).Title("Crawl")
}

func buildOutputGroup(state *formState) *huh.Group {
	engines := []huh.Option[string]{}
	for _, e := range render.Engines() {
		engines = append(engines, huh.NewOption(e, e))
	}
	return huh.NewGroup(
		huh.NewConfirm().Title("HTML only").Description("Skip PDF rendering?").Value(&state.htmlOnly),
		huh.NewSelect[string]().Title("PDF engine").Options(engines...).Value(&state.engine),
		huh.NewConfirm().Title("Markdown").Description("Also write the book as Markdown?").Value(&state.markdown),
		huh.NewConfirm().Title("Download images").Description("Store images next to the HTML file?").Value(&state.downloadAssets),
		huh.NewConfirm().Title("Sanitize").Description("Run chapters through an HTML sanitizer?").Value(&state.sanitize),
	).Title("Output")
}

func buildFinishGroup(state *formState) *huh.Group {
	return huh.NewGroup(
		huh.NewSelect[string]().Title("Action").Value(&state.finalAction).Options(
			huh.NewOption("Build the book now", "run"),
			huh.NewOption("Save config and build", "save_and_run"),
			huh.NewOption("Only save config", "save_only"),
		),
		huh.NewInput().Title("Config path").
			Description("Path for 'Save' actions (.yaml or .json).").
			Value(&state.configPath).
			Validate(func(s string) error {
				if state.finalAction != "save_and_run" && state.finalAction != "save_only" {
					return nil
				}
				return validateConfigPath(s)
			}),
	).Title("Finish")
}

func buildResult(state *formState) (Result, error) {
	timeoutSec, err := parsePositiveInt(state.timeoutSecStr, "timeout must be a positive integer")
	if err != nil {
		return Result{}, err
	}
	delay, err := parseNonNegativeFloat(state.delayStr, "delay must be a number >= 0")
	if err != nil {
		return Result{}, err
	}

	cfg := state.base
	cfg.URL = strings.TrimSpace(state.urlStr)
	cfg.OutputDir = strings.TrimSpace(state.outputDir)
	cfg.TimeoutSeconds = timeoutSec
	cfg.DelaySeconds = &delay
	cfg.Engine = state.engine
	cfg.HTMLOnly = state.htmlOnly
	cfg.Markdown = state.markdown
	cfg.DownloadAssets = state.downloadAssets
	cfg.Sanitize = state.sanitize

	res := Result{Config: cfg, ConfigPath: strings.TrimSpace(state.configPath)}
	switch state.finalAction {
	case "run":
		res.RunNow = true
	case "save_and_run":
		res.RunNow = true
		res.SaveConfig = true
	case "save_only":
		res.SaveConfig = true
	}

	if res.SaveConfig {
		if err := writeConfig(res.ConfigPath, cfg); err != nil {
			return Result{}, err
		}
	}
	return res, nil
}

func writeConfig(path string, cfg config.Config) error {
	data, err := config.Marshal(cfg, path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func validateBookURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("url is required")
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("must be an http(s) url")
	}
	return nil
}

func validateConfigPath(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("path cannot be empty")
	}
	switch strings.ToLower(filepath.Ext(s)) {
	case ".yaml", ".yml", ".json":
	default:
		return errors.New("use a .yaml, .yml or .json file")
	}
	if strings.ContainsAny(filepath.Base(s), `:*?"<>|`) {
		return errors.New("invalid characters")
	}
	return nil
}

func parsePositiveInt(s, errMsg string) (int, error) {
	val, err := parseInt(s)
	if err != nil || val <= 0 {
		return 0, errors.New(errMsg)
	}
	return val, nil
}

func parseNonNegativeFloat(s, errMsg string) (float64, error) {
	val, err := parseFloat(s)
	if err != nil || val < 0 {
		return 0, errors.New(errMsg)
	}
	return val, nil
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func validateIntString(minVal, maxVal int) func(string) error {
	return func(s string) error {
		v, err := parseInt(s)
		if err != nil {
			return errors.New("must be an integer")
		}
		if v < minVal || v > maxVal {
			return fmt.Errorf("must be between %d and %d", minVal, maxVal)
		}
		return nil
	}
}

func validateFloatString(minVal, maxVal float64) func(string) error {
	return func(s string) error {
		v, err := parseFloat(s)
		if err != nil {
			return errors.New("must be a number")
		}
		if v < minVal || v > maxVal {
			return fmt.Errorf("must be between %.2f and %.2f", minVal, maxVal)
		}
		return nil
	}
}
