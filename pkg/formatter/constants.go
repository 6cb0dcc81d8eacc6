package formatter

const (
	// DefaultLineLength is the target width when none is configured.
	DefaultLineLength = 88

	// MinLineLength is the smallest accepted line length.
	MinLineLength = 4

	// StdinPath is the sentinel path selecting standard input.
	StdinPath = "-"

	// DefaultEncoding is assumed for inputs whose charset cannot be detected
	// with certainty.
	DefaultEncoding = "utf-8"

	// MaxWindowsWorkers caps the worker pool on Windows, where very large
	// pools hit handle limits.
	MaxWindowsWorkers = 61
)

// DefaultExcludes is the glob set pruned from file discovery unless the
// caller overrides it.
var DefaultExcludes = []string{
	"**/.direnv/",
	"**/.eggs/",
	"**/.git/",
	"**/.hg/",
	"**/.mypy_cache/",
	"**/.nox/",
	"**/.tox/",
	"**/.venv/",
	"**/.svn/",
	"**/_build",
	"**/buck-out",
	"**/build",
	"**/dist",
}
