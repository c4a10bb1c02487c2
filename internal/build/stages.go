package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/sitestager/internal/logfields"
	"git.home.luguber.info/inful/sitestager/internal/metrics"
)

// StageName identifies one step of the staging pipeline.
type StageName string

const (
	StageClean        StageName = "clean"
	StageEnsureOutput StageName = "ensure_output"
	StageCopyHTML     StageName = "copy_html"
	StageCopyAssets   StageName = "copy_assets"
)

// StageError marks a hard-abort failure of a named stage. Anything wrapped in
// a StageError stops the remaining pipeline; recorded-and-continue failures
// never surface as one.
type StageError struct {
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("stage %s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

type stageFn func(ctx context.Context, b *Builder) error

type stageDef struct {
	name StageName
	fn   stageFn
}

func buildStages() []stageDef {
	return []stageDef{
		{StageClean, stageClean},
		{StageEnsureOutput, stageEnsureOutput},
		{StageCopyHTML, stageCopyHTML},
		{StageCopyAssets, stageCopyAssets},
	}
}

// runStages executes stages in order, recording timing and stopping on the
// first fatal error. The returned error, if any, is always a *StageError.
func (b *Builder) runStages(ctx context.Context) error {
	for _, st := range buildStages() {
		select {
		case <-ctx.Done():
			se := &StageError{Stage: st.name, Err: ctx.Err()}
			b.recorder.IncStageResult(string(st.name), metrics.ResultFatal)
			return se
		default:
		}

		t0 := time.Now()
		err := st.fn(ctx, b)
		dur := time.Since(t0)

		b.report.StageDurations[string(st.name)] = dur
		b.recorder.ObserveStageDuration(string(st.name), dur)

		if err != nil {
			b.recorder.IncStageResult(string(st.name), metrics.ResultFatal)
			return &StageError{Stage: st.name, Err: err}
		}
		b.recorder.IncStageResult(string(st.name), metrics.ResultSuccess)
	}
	return nil
}

func stageClean(_ context.Context, b *Builder) error {
	if !b.stager.Clean() {
		return fmt.Errorf("failed to clean output directory %s", b.cfg.Output.Directory)
	}
	return nil
}

func stageEnsureOutput(_ context.Context, b *Builder) error {
	if err := b.stager.EnsureDir(b.cfg.Output.Directory); err != nil {
		return err
	}
	b.outputReady = true
	return nil
}

func stageCopyHTML(_ context.Context, b *Builder) error {
	copied := 0
	for _, name := range b.cfg.Site.HTMLFiles {
		src := filepath.Join(b.cfg.Source, name)
		if _, err := os.Stat(src); err != nil {
			slog.Warn("HTML file missing, skipping", logfields.Path(src))
			b.stats.Warn(fmt.Sprintf("html file missing: %s", src))
			continue
		}
		if b.stager.CopyFile(src, filepath.Join(b.cfg.Output.Directory, name)) {
			copied++
		}
	}
	if copied == 0 {
		slog.Warn("No HTML files were copied")
	}
	return nil
}

func stageCopyAssets(_ context.Context, b *Builder) error {
	total := 0
	for _, dir := range b.cfg.Site.AssetDirs {
		n, err := b.stager.CopyTree(
			filepath.Join(b.cfg.Source, dir),
			filepath.Join(b.cfg.Output.Directory, dir),
		)
		total += n
		if err != nil {
			return err
		}
	}
	slog.Info("Copied asset directories", logfields.Count(total))
	return nil
}
