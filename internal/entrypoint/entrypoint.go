package entrypoint

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"mdbook2pdf/internal/app"
	"mdbook2pdf/internal/cli"
	"mdbook2pdf/internal/subcommands/inspect"
	"mdbook2pdf/internal/tui"
)

// Execute runs the program for os.Args-style args and returns the process
// exit code. With no arguments the interactive form is shown.
func Execute(args []string) (int, error) {
	if len(args) == 1 {
		res, err := tui.Run()
		if err != nil {
			return 1, err
		}
		if !res.RunNow {
			return 0, nil
		}
		return exitCode(runBook(context.Background(), cli.Invocation{Config: res.Config, ConfigPath: res.ConfigPath, LogLevel: "info"}))
	}

	root := cli.NewRootCommand(runBook)
	root.AddCommand(cli.NewInitConfigCommand(), inspect.NewCommand())
	rest := []string{}
	if len(args) > 1 {
		rest = args[1:]
	}
	root.SetArgs(rest)
	return exitCode(root.Execute())
}

func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr cli.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, exitErr.Err
	}
	return 1, err
}

func runBook(ctx context.Context, inv cli.Invocation) error {
	logger, err := cli.NewLogger(os.Stderr, inv.LogLevel)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if inv.ConfigPath != "" {
		logger.Debug("using config", "path", inv.ConfigPath)
	}
	opts := app.Options{
		Config: inv.Config,
		Logger: logger,
	}
	if isTerminal(os.Stderr) {
		opts.Progress = os.Stderr
	}
	_, err = app.Run(ctx, opts)
	return err
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
