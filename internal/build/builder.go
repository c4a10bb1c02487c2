// Package build orchestrates a full staging run: wipe the output root,
// recreate it, copy the configured HTML entry points and asset directories,
// and derive the final exit status from the accumulated ledger.
package build

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitestager/internal/config"
	"git.home.luguber.info/inful/sitestager/internal/logfields"
	"git.home.luguber.info/inful/sitestager/internal/metrics"
	"git.home.luguber.info/inful/sitestager/internal/staging"
	"git.home.luguber.info/inful/sitestager/internal/stats"
)

// Builder runs the staging pipeline. One Builder may be reused for repeated
// runs (watch mode); each Run constructs a fresh ledger and report.
type Builder struct {
	cfg      *config.Config
	recorder metrics.Recorder
	out      io.Writer

	// per-run state
	stats       *stats.Stats
	stager      *staging.Stager
	report      *Report
	outputReady bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithRecorder injects a metrics recorder (defaults to the no-op recorder).
func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) { b.recorder = r }
}

// WithSummaryWriter redirects the rendered build summary (defaults to stdout).
func WithSummaryWriter(w io.Writer) Option {
	return func(b *Builder) { b.out = w }
}

// New creates a Builder for the given configuration. The configuration must
// already be resolved to absolute paths.
func New(cfg *config.Config, opts ...Option) *Builder {
	b := &Builder{cfg: cfg, recorder: metrics.NoopRecorder{}, out: os.Stdout}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Report returns the report of the most recent run, or nil before any run.
func (b *Builder) Report() *Report { return b.report }

// Run executes one full clean build and returns the process exit status:
// 0 for a run with no recorded errors and at least one file staged, 1
// otherwise. The summary is always rendered, including on hard-aborted runs,
// so everything accumulated before the abort point is still reported.
func (b *Builder) Run(ctx context.Context) (status int) {
	b.stats = stats.New()
	b.stager = staging.New(b.cfg.Output.Directory, b.stats)
	b.report = newReport(uuid.NewString())
	b.outputReady = false

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Build aborted by unexpected failure",
				slog.String("panic", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())))
			status = 1
		}
	}()

	slog.Info("Starting site build",
		logfields.BuildID(b.report.BuildID),
		logfields.Source(b.cfg.Source),
		logfields.Destination(b.cfg.Output.Directory))

	fatal := b.runStages(ctx)
	if fatal != nil {
		slog.Error("Build aborted", logfields.Error(fatal))
	}

	b.report.finish(b.stats, fatal != nil)
	fmt.Fprint(b.out, b.report.Render())
	slog.Info("Build finished", logfields.BuildID(b.report.BuildID), slog.String("summary", b.report.Summary()))

	b.recorder.ObserveBuildDuration(b.report.Elapsed())
	b.recorder.AddFilesCopied(b.stats.FilesProcessed)
	b.recorder.AddBytesCopied(b.stats.TotalSize)
	b.recorder.IncBuildOutcome(string(b.report.Outcome))

	// Persist the report into the staged tree when one exists. Best effort:
	// a persistence failure never changes the exit status.
	if b.outputReady {
		if err := b.report.Persist(b.cfg.Output.Directory); err != nil {
			slog.Warn("Failed to persist build report", logfields.Error(err))
		}
	}

	return b.report.ExitStatus()
}
