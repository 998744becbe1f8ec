// Package validator fans changed entry files out over a bounded worker pool
// and checks every URL they reference.
package validator

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sudosantos27/entry-url-validator/internal/annotation"
	"github.com/sudosantos27/entry-url-validator/internal/checker"
	"github.com/sudosantos27/entry-url-validator/internal/entry"
)

type urlChecker interface {
	Check(ctx context.Context, rawURL string) checker.Result
}

// Loader reads the entry file at path.
type Loader func(path string) (*entry.Entry, error)

// Summary counts what a run did. Warnings never fail a run.
type Summary struct {
	Paths       int
	URLs        int
	OK          int
	Warnings    int
	EntryErrors int
	Duration    time.Duration
}

// Option customizes a Validator.
type Option func(*Validator)

// WithLoader replaces entry.Load.
func WithLoader(load Loader) Option {
	return func(v *Validator) {
		v.load = load
	}
}

// WithLogger sets the logger for progress output.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		v.logger = logger
	}
}

// Validator checks the URLs of a list of entry files.
type Validator struct {
	checker     urlChecker
	reporter    annotation.Reporter
	concurrency int
	load        Loader
	logger      *slog.Logger
}

// New returns a Validator running at most concurrency paths at a time.
// A concurrency below 1 uses one worker per CPU.
func New(c urlChecker, reporter annotation.Reporter, concurrency int, opts ...Option) *Validator {
	if concurrency < 1 {
		concurrency = runtime.NumCPU()
	}

	v := &Validator{
		checker:     c,
		reporter:    reporter,
		concurrency: concurrency,
		load:        entry.Load,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Run checks every path and reports each result as it completes. A broken
// entry or unreachable URL never stops other paths; the only error returned
// is the context's, when it ends before all paths were processed.
func (v *Validator) Run(ctx context.Context, paths []string) (Summary, error) {
	start := time.Now()
	v.logger.Info("Starting URL checks", "total_paths", len(paths), "workers", v.concurrency)

	var (
		mu      sync.Mutex
		summary = Summary{Paths: len(paths)}
		done    int
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(v.concurrency)

	for _, path := range paths {
		if gCtx.Err() != nil {
			break
		}

		g.Go(func() error {
			s := v.checkPath(gCtx, path)

			mu.Lock()
			summary.URLs += s.URLs
			summary.OK += s.OK
			summary.Warnings += s.Warnings
			summary.EntryErrors += s.EntryErrors
			done++
			progress := done
			mu.Unlock()

			v.logger.Info("Validating URLs", "path", path, "done", progress, "total", len(paths))
			return nil
		})
	}

	_ = g.Wait()
	summary.Duration = time.Since(start)

	if err := ctx.Err(); err != nil {
		v.logger.Error("Run interrupted", "error", err, "done", done, "total", len(paths))
		return summary, err
	}

	v.logger.Info("Check completed",
		"paths", summary.Paths,
		"urls", summary.URLs,
		"ok", summary.OK,
		"warnings", summary.Warnings,
		"entry_errors", summary.EntryErrors,
		"duration", summary.Duration,
	)

	return summary, nil
}

// checkPath checks the targets of one entry sequentially.
func (v *Validator) checkPath(ctx context.Context, path string) Summary {
	var s Summary

	e, err := v.load(path)
	if err != nil {
		v.logger.Warn("Entry unreadable", "path", path, "error", err)
		v.reporter.EntryError(path, err)
		s.EntryErrors++
		return s
	}

	for _, target := range e.Targets(path) {
		res := v.checker.Check(ctx, target.URL)
		v.reporter.Result(target, res)

		s.URLs++
		if res.OK() {
			s.OK++
			v.logger.Debug("Check success", "path", path, "url", res.URL, "status", res.StatusCode, "duration", res.Duration)
			continue
		}

		s.Warnings++
		v.logger.Debug("Check failed",
			"path", path,
			"url", res.URL,
			"kind", res.Kind.String(),
			"status", res.StatusCode,
			"error", res.ErrorMsg,
			"duration", res.Duration,
		)
	}

	return s
}
