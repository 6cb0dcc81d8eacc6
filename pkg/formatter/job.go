package formatter

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/stackvity/docfmt/pkg/formatter/kind"
)

// job processes exactly one file end to end. Failures never escape the job
// boundary; they come back as counted errors inside the Outcome.
type job struct {
	path        string
	opts        *Options
	transformer *transformer
	stdoutMu    *sync.Mutex
	logger      *slog.Logger
}

func newJob(path string, opts *Options, tr *transformer, stdoutMu *sync.Mutex, handler slog.Handler) *job {
	return &job{
		path:        path,
		opts:        opts,
		transformer: tr,
		stdoutMu:    stdoutMu,
		logger:      slog.New(handler).With(slog.String("component", "job"), slog.String("path", path)),
	}
}

func (j *job) run(ctx context.Context) Outcome {
	start := time.Now()
	outcome := j.process(ctx)
	outcome.Path = j.path
	outcome.Duration = time.Since(start)
	return outcome
}

func (j *job) process(ctx context.Context) Outcome {
	raw, mode, err := j.read()
	if err != nil {
		j.logger.Error("Read failed", "error", err.Error())
		return Outcome{Status: StatusErrored, ErrorCount: 1, Message: err.Error()}
	}
	if err := ctx.Err(); err != nil {
		return Outcome{Status: StatusCancelled}
	}

	if j.opts.EncodingHandler.IsBinary(raw) {
		j.logger.Debug("Skipping binary file")
		return Outcome{Status: StatusSkipped, Message: "binary content"}
	}

	decoded, encodingName, _, err := j.opts.EncodingHandler.DetectAndDecode(raw)
	if err != nil {
		wrapped := fmt.Errorf("%w: %s: %w", ErrReadFailed, j.path, err)
		j.logger.Error("Decode failed", "encoding", encodingName, "error", err.Error())
		return Outcome{Status: StatusErrored, ErrorCount: 1, Message: wrapped.Error()}
	}

	newline, mixed := j.opts.EncodingHandler.DetectNewline(decoded)
	if mixed || newline == "" {
		newline = platformNewline()
	}
	content := strings.ReplaceAll(string(decoded), "\r\n", "\n")

	fileKind := j.detectKind(raw)
	var (
		formatted    string
		misformatted bool
		errorCount   int
	)
	switch fileKind {
	case kind.Source:
		formatted, misformatted, errorCount, err = j.transformer.Transform(j.path, content)
		if err != nil {
			j.logger.Error("Source transform failed", "error", err.Error())
			return Outcome{Status: StatusErrored, ErrorCount: 1, Message: err.Error()}
		}
		if !misformatted {
			formatted = content
		}
	case kind.Markup:
		formatted, errorCount = j.renderMarkup(content)
		misformatted = formatted != content
	default:
		j.logger.Debug("Skipping file of unknown kind")
		return Outcome{Status: StatusSkipped, Message: "unrecognized file kind"}
	}

	if err := ctx.Err(); err != nil {
		return Outcome{Status: StatusCancelled}
	}

	status, writeErrs := j.dispose(mode, formatted, misformatted, newline)
	errorCount += writeErrs

	if errorCount > 0 {
		status = StatusErrored
	}
	return Outcome{Status: status, Misformatted: misformatted, ErrorCount: errorCount}
}

type jobMode int

const (
	modeFile jobMode = iota
	modeStdin
	modeRawInput
)

func (j *job) read() ([]byte, jobMode, error) {
	if j.opts.RawInput != "" {
		return []byte(j.opts.RawInput), modeRawInput, nil
	}
	if j.path == StdinPath {
		data, err := io.ReadAll(j.opts.Stdin)
		if err != nil {
			return nil, modeStdin, fmt.Errorf("%w: stdin: %w", ErrReadFailed, err)
		}
		return data, modeStdin, nil
	}
	data, err := os.ReadFile(j.path)
	if err != nil {
		return nil, modeFile, fmt.Errorf("%w: %s: %w", ErrReadFailed, j.path, err)
	}
	return data, modeFile, nil
}

func (j *job) detectKind(content []byte) kind.Kind {
	if j.path == StdinPath || j.opts.RawInput != "" {
		if j.opts.FileType == FileTypePython {
			return kind.Source
		}
		return kind.Markup
	}
	return j.opts.KindDetector.Detect(content, j.path)
}

// renderMarkup formats a whole markup document. YAML front matter, when
// present, is preserved byte for byte and only the body is rendered.
func (j *job) renderMarkup(content string) (string, int) {
	front, body := splitFrontMatter(content)

	doc, err := j.opts.MarkupEngine.Parse(j.path, body)
	if err != nil {
		j.logger.Error("Markup parse failed", "error", fmt.Errorf("%w: %s: %w", ErrMarkupParse, j.path, err).Error())
		return content, 1
	}
	rendered, renderErrs := j.opts.MarkupEngine.Render(j.opts.LineLength, doc, false)
	for _, re := range renderErrs {
		j.logger.Error("Markup render problem", "error", re.Error())
	}

	out := front + rendered
	if out != "" && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out, len(renderErrs)
}

func splitFrontMatter(content string) (front, body string) {
	var meta map[string]any
	rest, err := frontmatter.Parse(strings.NewReader(content), &meta)
	if err != nil || len(rest) == len(content) {
		return "", content
	}
	return content[:len(content)-len(rest)], string(rest)
}

// dispose routes the formatted content to its destination and picks the
// outcome status. Stdout writes are serialized by the shared mutex since
// multiple workers may emit concurrently.
func (j *job) dispose(mode jobMode, formatted string, misformatted bool, newline string) (Status, int) {
	toStdout := mode != modeFile || j.opts.RawOutput

	switch {
	case toStdout:
		// Raw output always echoes, changed or not; check mode is
		// meaningless for a stream.
		j.stdoutMu.Lock()
		_, err := io.WriteString(j.opts.Stdout, restoreNewlines(formatted, newline))
		j.stdoutMu.Unlock()
		if err != nil {
			j.logger.Error("Stdout write failed", "error", err.Error())
			return StatusErrored, 1
		}
	case j.opts.Check:
		if misformatted {
			return StatusMisformatted, 0
		}
		return StatusUnchanged, 0
	case misformatted:
		if err := j.writeBack(restoreNewlines(formatted, newline)); err != nil {
			j.logger.Error("Write back failed", "error", err.Error())
			return StatusErrored, 1
		}
	}

	switch {
	case !misformatted:
		return StatusUnchanged, 0
	case toStdout && mode == modeFile:
		// The file on disk still needs reformatting.
		return StatusMisformatted, 0
	default:
		return StatusFormatted, 0
	}
}

func (j *job) writeBack(content string) error {
	perm := fs.FileMode(0o644)
	if info, err := os.Stat(j.path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := os.WriteFile(j.path, []byte(content), perm); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteFailed, j.path, err)
	}
	return nil
}

func restoreNewlines(content, newline string) string {
	if newline == "\n" {
		return content
	}
	return strings.ReplaceAll(content, "\n", newline)
}

func platformNewline() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}
