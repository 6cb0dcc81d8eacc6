// Package hooks bridges formatter run events to the CLI surface: per-file
// logging in verbose mode, a progress bar on interactive terminals, plain
// error logging otherwise.
package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	progressbar "github.com/schollz/progressbar/v3"

	"github.com/stackvity/docfmt/pkg/formatter"
)

// ProgressBar is the slice of the progress bar API the hooks use, so tests
// can substitute a recorder.
type ProgressBar interface {
	Add(num int) error
	Close() error
}

// CLIHooks implements formatter.Hooks for terminal runs.
type CLIHooks struct {
	logger  *slog.Logger
	verbose bool
	newBar  func(total int) ProgressBar

	mu  sync.Mutex
	bar ProgressBar
}

// NewCLIHooks builds hooks for one run. showProgress enables the bar; verbose
// replaces it with per-file log lines.
func NewCLIHooks(logger *slog.Logger, verbose, showProgress bool) *CLIHooks {
	h := &CLIHooks{logger: logger, verbose: verbose}
	if showProgress && !verbose {
		h.newBar = newTerminalBar
	}
	return h
}

func newTerminalBar(total int) ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("formatting"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)
}

// OnRunStart sizes the progress bar to the discovered file count.
func (h *CLIHooks) OnRunStart(totalFiles int) {
	if h.newBar == nil || totalFiles == 0 {
		return
	}
	h.mu.Lock()
	h.bar = h.newBar(totalFiles)
	h.mu.Unlock()
}

// OnFileStatusUpdate is called from worker goroutines and must stay
// thread-safe.
func (h *CLIHooks) OnFileStatusUpdate(path string, status formatter.Status, message string, duration time.Duration) {
	if h.verbose {
		level := slog.LevelInfo
		if status == formatter.StatusErrored {
			level = slog.LevelError
		}
		attrs := []any{
			slog.String("path", path),
			slog.String("status", string(status)),
			slog.Duration("duration", duration),
		}
		if message != "" {
			attrs = append(attrs, slog.String("message", message))
		}
		h.logger.Log(context.Background(), level, "file finished", attrs...)
		return
	}

	h.mu.Lock()
	if h.bar != nil {
		_ = h.bar.Add(1)
	}
	h.mu.Unlock()

	if status == formatter.StatusErrored {
		h.logger.Error("file failed", "path", path, "error", message)
	}
}

// OnRunComplete closes the progress bar. The text summary is printed by the
// caller, not here.
func (h *CLIHooks) OnRunComplete(formatter.Report) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.bar != nil {
		_ = h.bar.Close()
		h.bar = nil
		_, _ = fmt.Fprintln(os.Stderr)
	}
}
