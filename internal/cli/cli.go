// Package cli wires validated run settings into the formatter engine and
// turns the resulting report into terminal output and an exit code.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/stackvity/docfmt/internal/cli/config"
	"github.com/stackvity/docfmt/internal/cli/hooks"
	"github.com/stackvity/docfmt/pkg/formatter"
	"github.com/stackvity/docfmt/pkg/formatter/cache"
	"github.com/stackvity/docfmt/pkg/util"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitDirty = 1
	ExitUsage = 2
)

var (
	styleGood = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	styleWarn = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	styleBad  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// Run executes one formatting run and returns the process exit code.
func Run(ctx context.Context, settings *config.Settings, logger *slog.Logger) (int, error) {
	opts := settings.Options

	manager, err := buildCacheManager(&opts, logger)
	if err != nil {
		return ExitDirty, err
	}
	opts.CacheManager = manager

	if settings.ClearCache {
		if err := manager.Clear(); err != nil {
			return ExitDirty, fmt.Errorf("clearing cache: %w", err)
		}
		logger.Info("cache cleared", "path", manager.Path())
		if len(opts.Paths) == 0 && opts.RawInput == "" {
			return ExitOK, nil
		}
	}

	if len(opts.Paths) == 0 && opts.RawInput == "" {
		return ExitUsage, fmt.Errorf("%w: no paths given", formatter.ErrConfigValidation)
	}

	interactive := term.IsTerminal(int(os.Stderr.Fd()))
	showProgress := interactive &&
		settings.OutputFormat == config.OutputText &&
		!settings.NoProgress &&
		!opts.Quiet &&
		!opts.RawOutput &&
		opts.RawInput == "" &&
		!stdinRun(opts.Paths)
	opts.Hooks = hooks.NewCLIHooks(logger, opts.Verbosity > 0, showProgress)

	engine, err := formatter.NewEngine(opts)
	if err != nil {
		if errors.Is(err, formatter.ErrConfigValidation) {
			return ExitUsage, err
		}
		return ExitDirty, err
	}

	report, err := engine.Run(ctx)
	if err != nil {
		return ExitDirty, err
	}

	if err := writeReport(os.Stdout, settings, report); err != nil {
		return ExitDirty, err
	}
	return exitCode(settings, report), nil
}

// buildCacheManager selects the cache backing for this run. Stdin and raw
// input runs have no stable file identity, so they get the no-op manager.
func buildCacheManager(opts *formatter.Options, logger *slog.Logger) (cache.Manager, error) {
	if opts.RawInput != "" || stdinRun(opts.Paths) {
		return cache.NewNoOpManager(), nil
	}
	dir := opts.CacheDir
	if dir == "" {
		var err error
		dir, err = cache.DefaultDir()
		if err != nil {
			logger.Warn("cache disabled", "error", err)
			return cache.NewNoOpManager(), nil
		}
	}
	return cache.NewFileManager(cache.Options{
		Dir:                   dir,
		LineLength:            opts.LineLength,
		DocstringTrailingLine: opts.DocstringTrailingLine,
		ToolVersion:           opts.ToolVersion,
		IgnoreReads:           opts.IgnoreCache,
		Logger:                logger.Handler(),
	}), nil
}

func stdinRun(paths []string) bool {
	return len(paths) == 1 && paths[0] == formatter.StdinPath
}

// writeReport renders the run report in the selected output format.
func writeReport(w io.Writer, settings *config.Settings, report formatter.Report) error {
	switch settings.OutputFormat {
	case config.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case config.OutputYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(report)
	default:
		writeTextSummary(w, settings, report)
		return nil
	}
}

// writeTextSummary prints the human summary. Raw output and stdin runs keep
// stdout for the formatted content only, so no summary is printed for them.
func writeTextSummary(w io.Writer, settings *config.Settings, report formatter.Report) {
	opts := settings.Options
	if opts.Quiet || opts.RawOutput || opts.RawInput != "" || stdinRun(opts.Paths) {
		return
	}

	colorize := term.IsTerminal(int(os.Stdout.Fd()))
	paint := func(style lipgloss.Style, s string) string {
		if colorize {
			return style.Render(s)
		}
		return s
	}

	s := report.Summary
	checked := s.Processed + s.Cached

	if opts.Check {
		for _, path := range report.MisformattedPaths() {
			fmt.Fprintf(w, "%s %s\n", paint(styleWarn, "would reformat"), path)
		}
	}

	verb := "were"
	if opts.Check {
		verb = "could be"
	}
	line := fmt.Sprintf("%d out of %s %s reformatted.", s.Misformatted, util.Plural("file", checked), verb)
	if s.Misformatted == 0 {
		line = paint(styleGood, line)
	} else if opts.Check {
		line = paint(styleWarn, line)
	}
	fmt.Fprintln(w, line)

	if s.Cached > 0 {
		fmt.Fprintf(w, "%s unchanged since the last run.\n", util.Plural("file", s.Cached))
	}
	if s.Skipped > 0 {
		fmt.Fprintf(w, "%s skipped.\n", util.Plural("file", s.Skipped))
	}
	if s.Errors > 0 {
		fmt.Fprintln(w, paint(styleBad, fmt.Sprintf("%s occurred.", util.Plural("error", s.Errors))))
	}
	if s.Cancelled {
		fmt.Fprintln(w, paint(styleBad, "run cancelled."))
	}
}

// exitCode maps a report to the process exit code: failures and pending
// check-mode reformats are dirty, everything else is clean.
func exitCode(settings *config.Settings, report formatter.Report) int {
	s := report.Summary
	if s.Errors > 0 || s.Cancelled {
		return ExitDirty
	}
	if settings.Options.Check && s.Misformatted > 0 {
		return ExitDirty
	}
	return ExitOK
}
