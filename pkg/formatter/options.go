package formatter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/stackvity/docfmt/pkg/formatter/cache"
	"github.com/stackvity/docfmt/pkg/formatter/encoding"
	"github.com/stackvity/docfmt/pkg/formatter/kind"
	"github.com/stackvity/docfmt/pkg/formatter/markup"
)

// FileType is the kind hint for stdin and raw input.
const (
	FileTypePython   = "py"
	FileTypeMarkdown = "md"
)

// Options configures one formatting run. Zero values are filled in by
// setDefaults; injected dependencies default to working implementations so a
// caller only overrides what it needs.
type Options struct {
	// Paths are the files, directories, and globs to process. The single
	// sentinel "-" selects standard input.
	Paths []string `mapstructure:"-"`

	// RawInput, when non-empty, is formatted directly to Stdout and no
	// paths are touched.
	RawInput string `mapstructure:"-"`

	// Check reports what would change without writing anything.
	Check bool `mapstructure:"check"`

	// RawOutput emits formatted content to Stdout instead of rewriting
	// files in place.
	RawOutput bool `mapstructure:"raw_output"`

	// DocstringTrailingLine requires a trailing blank line inside
	// multi-line docstrings.
	DocstringTrailingLine bool `mapstructure:"docstring_trailing_line"`

	// LineLength is the target width, in columns.
	LineLength int `mapstructure:"line_length"`

	// FileType is the kind assumed for stdin and raw input ("py" or "md").
	FileType string `mapstructure:"file_type"`

	// IncludeTxt treats .txt files as markup during discovery.
	IncludeTxt bool `mapstructure:"include_txt"`

	// IgnoreCache skips fingerprint reads; the run still commits.
	IgnoreCache bool `mapstructure:"ignore_cache"`

	// Excludes replaces the default exclusion globs; ExtendExcludes adds
	// to whichever set is active.
	Excludes       []string `mapstructure:"exclude"`
	ExtendExcludes []string `mapstructure:"extend_exclude"`

	// Concurrency bounds the worker pool. Zero selects DefaultConcurrency;
	// one runs jobs serially under the same protocol.
	Concurrency int `mapstructure:"concurrency"`

	// CacheDir overrides the per-user cache directory.
	CacheDir string `mapstructure:"cache_dir"`

	// Verbosity raises log and report detail; Quiet suppresses everything
	// but errors.
	Verbosity int  `mapstructure:"verbose"`
	Quiet     bool `mapstructure:"quiet"`

	// ToolVersion is stamped into cache headers.
	ToolVersion string `mapstructure:"-"`

	// Injected dependencies.
	Logger          slog.Handler     `mapstructure:"-"`
	Hooks           Hooks            `mapstructure:"-"`
	CacheManager    cache.Manager    `mapstructure:"-"`
	MarkupEngine    markup.Engine    `mapstructure:"-"`
	KindDetector    kind.Detector    `mapstructure:"-"`
	EncodingHandler encoding.Handler `mapstructure:"-"`
	Stdin           io.Reader        `mapstructure:"-"`
	Stdout          io.Writer        `mapstructure:"-"`
}

// Validate checks the user-controlled fields. It wraps every failure in
// ErrConfigValidation so callers can map it to a usage error.
func (o *Options) Validate() error {
	err := validation.ValidateStruct(o,
		validation.Field(&o.LineLength, validation.Required, validation.Min(MinLineLength)),
		validation.Field(&o.FileType, validation.In(FileTypePython, FileTypeMarkdown)),
		validation.Field(&o.Concurrency, validation.Min(0)),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfigValidation, err)
	}
	if containsStdin(o.Paths) && len(o.Paths) > 1 {
		return fmt.Errorf("%w: stdin cannot be combined with other paths", ErrConfigValidation)
	}
	return nil
}

func containsStdin(paths []string) bool {
	for _, p := range paths {
		if p == StdinPath {
			return true
		}
	}
	return false
}

// setDefaults fills unset fields so the engine never checks for nil
// collaborators.
func (o *Options) setDefaults() {
	if o.LineLength == 0 {
		o.LineLength = DefaultLineLength
	}
	if o.FileType == "" {
		o.FileType = FileTypeMarkdown
	}
	if len(o.Excludes) == 0 {
		o.Excludes = append([]string(nil), DefaultExcludes...)
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency()
	}
	if o.Logger == nil {
		o.Logger = slog.NewTextHandler(io.Discard, nil)
	}
	if o.Hooks == nil {
		o.Hooks = NoOpHooks{}
	}
	if o.CacheManager == nil {
		o.CacheManager = cache.NewNoOpManager()
	}
	if o.MarkupEngine == nil {
		o.MarkupEngine = markup.NewGoldmarkEngine()
	}
	if o.KindDetector == nil {
		o.KindDetector = kind.NewDetector(o.IncludeTxt)
	}
	if o.EncodingHandler == nil {
		o.EncodingHandler = encoding.NewCharsetHandler(DefaultEncoding)
	}
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
}

// DefaultConcurrency is the CPU count, capped on Windows.
func DefaultConcurrency() int {
	n := runtime.NumCPU()
	if runtime.GOOS == "windows" && n > MaxWindowsWorkers {
		n = MaxWindowsWorkers
	}
	if n < 1 {
		n = 1
	}
	return n
}
