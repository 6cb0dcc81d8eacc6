package formatter

import "errors"

// Sentinel errors for the formatter core. Callers match them with errors.Is;
// call sites wrap them with fmt.Errorf("%w: ...") to attach file context.
var (
	// ErrReadFailed indicates a file or stdin could not be read.
	ErrReadFailed = errors.New("failed to read input")

	// ErrWriteFailed indicates formatted output could not be written back.
	ErrWriteFailed = errors.New("failed to write output")

	// ErrWidthTooSmall indicates the configured line length minus a block's
	// indentation leaves no room to render.
	ErrWidthTooSmall = errors.New("computed rendering width is below the minimum")

	// ErrMarkupParse indicates a markup document or docstring body could not
	// be parsed or rendered.
	ErrMarkupParse = errors.New("failed to parse markup")

	// ErrSourceParse indicates a source file could not be scanned for
	// documentation blocks.
	ErrSourceParse = errors.New("failed to parse source file")

	// ErrConfigValidation indicates the merged run options are invalid.
	ErrConfigValidation = errors.New("invalid configuration")
)
