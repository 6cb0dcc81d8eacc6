package formatter

import "time"

// Status describes the final state of one file within a run.
type Status string

const (
	// StatusFormatted means the file was rewritten into canonical form.
	StatusFormatted Status = "formatted"

	// StatusUnchanged means the file was already canonical.
	StatusUnchanged Status = "unchanged"

	// StatusMisformatted means check mode found the file would change.
	StatusMisformatted Status = "misformatted"

	// StatusCached means the fingerprint cache proved the file canonical
	// without reading it.
	StatusCached Status = "cached"

	// StatusSkipped means the file was not processed (binary content,
	// unknown kind).
	StatusSkipped Status = "skipped"

	// StatusErrored means at least one error was counted for the file.
	StatusErrored Status = "errored"

	// StatusCancelled means the run was cancelled before the file finished.
	StatusCancelled Status = "cancelled"
)

// Outcome is the result of one formatting Job.
type Outcome struct {
	Path         string
	Status       Status
	Misformatted bool
	ErrorCount   int
	Duration     time.Duration
	Message      string
}

// FileReport is the per-file record included in the final run Report.
type FileReport struct {
	Path       string        `json:"path" yaml:"path"`
	Status     Status        `json:"status" yaml:"status"`
	ErrorCount int           `json:"errorCount,omitempty" yaml:"errorCount,omitempty"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
	Message    string        `json:"message,omitempty" yaml:"message,omitempty"`
}

// ReportSummary aggregates a run. The counts are a commutative merge over
// job outcomes, so completion order never affects them.
type ReportSummary struct {
	TotalFiles   int           `json:"totalFiles" yaml:"totalFiles"`
	Processed    int           `json:"processed" yaml:"processed"`
	Misformatted int           `json:"misformatted" yaml:"misformatted"`
	Cached       int           `json:"cached" yaml:"cached"`
	Skipped      int           `json:"skipped" yaml:"skipped"`
	Errors       int           `json:"errors" yaml:"errors"`
	Cancelled    bool          `json:"cancelled" yaml:"cancelled"`
	CheckMode    bool          `json:"checkMode" yaml:"checkMode"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
}

// Report is the final result of a run.
type Report struct {
	Summary ReportSummary `json:"summary" yaml:"summary"`
	Files   []FileReport  `json:"files" yaml:"files"`
}

// MisformattedPaths lists the files that were or would be reformatted.
func (r Report) MisformattedPaths() []string {
	var out []string
	for _, f := range r.Files {
		if f.Status == StatusMisformatted || f.Status == StatusFormatted {
			out = append(out, f.Path)
		}
	}
	return out
}

// Hooks receives lifecycle events during a run. Implementations must be safe
// for concurrent calls from worker goroutines.
type Hooks interface {
	OnRunStart(totalFiles int)
	OnFileStatusUpdate(path string, status Status, message string, duration time.Duration)
	OnRunComplete(report Report)
}

// NoOpHooks is the default Hooks implementation. It does nothing.
type NoOpHooks struct{}

func (NoOpHooks) OnRunStart(int) {}

func (NoOpHooks) OnFileStatusUpdate(string, Status, string, time.Duration) {}

func (NoOpHooks) OnRunComplete(Report) {}
