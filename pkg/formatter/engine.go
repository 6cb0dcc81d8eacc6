// Package formatter implements the docfmt core: a concurrent batch pipeline
// that rewrites documentation blocks in source files and whole markup
// documents to a canonical width-constrained layout, leaving every other
// byte untouched.
package formatter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"
)

// RawInputPath labels the synthetic file used when formatting --raw-input
// text.
const RawInputPath = "<raw_input>"

// Engine orchestrates one run: discovery, cache partition, a bounded worker
// pool, completion-order aggregation, and the single batched cache commit.
type Engine struct {
	opts   Options
	logger *slog.Logger
}

// NewEngine fills in defaults, validates the result, and returns a ready
// Engine. Zero-valued fields never fail validation; only explicit bad values
// do.
func NewEngine(opts Options) (*Engine, error) {
	opts.setDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		opts:   opts,
		logger: slog.New(opts.Logger).With(slog.String("component", "engine")),
	}, nil
}

// Run executes the full pipeline. The returned error covers setup failures
// only; per-file problems are counted inside the Report. Cancelling ctx stops
// scheduling new work, waits for running jobs, and still commits fingerprints
// for jobs that fully completed.
func (e *Engine) Run(ctx context.Context) (Report, error) {
	start := time.Now()

	if e.opts.RawInput != "" {
		return e.runRaw(ctx, start)
	}

	if err := e.opts.CacheManager.Load(); err != nil {
		return Report{}, err
	}

	w := newWalker(e.opts.IncludeTxt, append(e.opts.Excludes, e.opts.ExtendExcludes...), e.opts.Logger)
	files, err := w.discover(e.opts.Paths)
	if err != nil {
		return Report{}, err
	}

	todo, cached := e.partition(files)
	e.logger.Debug("Run starting",
		"total", len(files), "todo", len(todo), "cached", len(cached), "workers", e.opts.Concurrency)
	e.opts.Hooks.OnRunStart(len(files))

	report := Report{Summary: ReportSummary{TotalFiles: len(files), CheckMode: e.opts.Check}}
	for _, path := range cached {
		report.Summary.Cached++
		e.opts.Hooks.OnFileStatusUpdate(path, StatusCached, "", 0)
		report.Files = append(report.Files, FileReport{Path: path, Status: StatusCached})
	}

	e.runPool(ctx, todo, &report)

	if err := e.opts.CacheManager.Commit(); err != nil {
		e.logger.Error("Cache commit failed", "error", err.Error())
		report.Summary.Errors++
	}

	report.Summary.Cancelled = ctx.Err() != nil
	report.Summary.Duration = time.Since(start)
	sort.Slice(report.Files, func(i, j int) bool { return report.Files[i].Path < report.Files[j].Path })
	e.opts.Hooks.OnRunComplete(report)
	return report, nil
}

// runRaw formats the --raw-input text as a single synthetic job. Raw input
// never touches the cache or discovery.
func (e *Engine) runRaw(ctx context.Context, start time.Time) (Report, error) {
	e.opts.Hooks.OnRunStart(1)
	report := Report{Summary: ReportSummary{TotalFiles: 1, CheckMode: false}}

	var stdoutMu sync.Mutex
	tr := newTransformer(e.opts.LineLength, e.opts.DocstringTrailingLine, e.opts.MarkupEngine, e.opts.Logger)
	outcome := newJob(RawInputPath, &e.opts, tr, &stdoutMu, e.opts.Logger).run(ctx)
	e.consume(outcome, &report)

	report.Summary.Cancelled = ctx.Err() != nil
	report.Summary.Duration = time.Since(start)
	e.opts.Hooks.OnRunComplete(report)
	return report, nil
}

// partition splits files into those needing work and those the cache proves
// are already canonical. Stdin and stat failures always land in todo; a
// failing stat will surface as a read error in the job.
func (e *Engine) partition(files []string) (todo, cached []string) {
	for _, path := range files {
		if path == StdinPath {
			todo = append(todo, path)
			continue
		}
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() && e.opts.CacheManager.Check(path, info.ModTime(), info.Size()) {
			cached = append(cached, path)
			continue
		}
		todo = append(todo, path)
	}
	return todo, cached
}

// runPool fans todo out across the worker pool and merges outcomes in
// whatever order jobs finish. Concurrency of one degrades to a serial run
// under the identical protocol.
func (e *Engine) runPool(ctx context.Context, todo []string, report *Report) {
	if len(todo) == 0 {
		return
	}

	var stdoutMu sync.Mutex
	tr := newTransformer(e.opts.LineLength, e.opts.DocstringTrailingLine, e.opts.MarkupEngine, e.opts.Logger)

	jobs := make(chan string, len(todo))
	for _, path := range todo {
		jobs <- path
	}
	close(jobs)

	results := make(chan Outcome, len(todo))
	var wg sync.WaitGroup
	for i := 0; i < e.opts.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				if ctx.Err() != nil {
					results <- Outcome{Path: path, Status: StatusCancelled}
					continue
				}
				results <- newJob(path, &e.opts, tr, &stdoutMu, e.opts.Logger).run(ctx)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	for outcome := range results {
		e.consume(outcome, report)
	}
}

// consume merges one outcome into the report and records the fingerprint for
// files that finished error-free in an acceptable final state. The merge is
// commutative, so completion order never changes the aggregate.
func (e *Engine) consume(outcome Outcome, report *Report) {
	e.opts.Hooks.OnFileStatusUpdate(outcome.Path, outcome.Status, outcome.Message, outcome.Duration)

	report.Files = append(report.Files, FileReport{
		Path:       outcome.Path,
		Status:     outcome.Status,
		ErrorCount: outcome.ErrorCount,
		Duration:   outcome.Duration,
		Message:    outcome.Message,
	})

	switch outcome.Status {
	case StatusCancelled:
		return
	case StatusSkipped:
		report.Summary.Skipped++
		return
	}

	report.Summary.Processed++
	report.Summary.Errors += outcome.ErrorCount
	if outcome.Misformatted {
		report.Summary.Misformatted++
	}

	if e.cacheEligible(outcome) {
		if info, err := os.Stat(outcome.Path); err == nil {
			e.opts.CacheManager.Record(outcome.Path, info.ModTime(), info.Size())
		}
	}
}

// cacheEligible implements the fingerprint rule: only error-free files whose
// on-disk state is canonical after the run get an entry. A misformatted file
// qualifies only when it was actually rewritten in place.
func (e *Engine) cacheEligible(outcome Outcome) bool {
	if outcome.ErrorCount != 0 || outcome.Path == StdinPath || outcome.Path == RawInputPath {
		return false
	}
	switch outcome.Status {
	case StatusUnchanged:
		return true
	case StatusFormatted:
		return !e.opts.RawOutput
	default:
		return false
	}
}

// ClearCache removes every cache file for the configured cache manager.
func (e *Engine) ClearCache() error {
	if err := e.opts.CacheManager.Clear(); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}
