// Package staging implements the filesystem side of a build run: creating
// output directories, copying individual files and whole asset trees, and
// wiping the output root. All operations record their outcome into a shared
// stats.Stats ledger owned by the orchestrator.
//
// Failure handling follows two classes. Per-file and per-listing failures are
// recorded and skipped so sibling work continues. Directory creation is the
// single escalating primitive: EnsureDir returns its error to the caller, and
// CopyTree propagates an ensure failure for its own destination as a hard
// abort. CopyFile demotes an ensure failure for a parent directory to an
// ordinary copy failure.
package staging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitestager/internal/logfields"
	"git.home.luguber.info/inful/sitestager/internal/stats"
)

// Stager performs staging operations rooted at an output directory. File
// records are stored relative to that root.
type Stager struct {
	outputRoot string
	stats      *stats.Stats
}

// New creates a Stager writing into the provided ledger. The output root must
// already be absolute (config resolution happens before any I/O).
func New(outputRoot string, st *stats.Stats) *Stager {
	return &Stager{outputRoot: outputRoot, stats: st}
}

// EnsureDir creates path and any missing ancestors (0755). An existing entry
// of any type is a no-op. On failure the error is recorded and returned; this
// is the one operation whose failure escalates to the caller.
func (s *Stager) EnsureDir(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		s.stats.RecordError(stats.ErrorRecord{Op: stats.OpDirCreate, Path: path, Message: err.Error()})
		slog.Error("Failed to create directory", logfields.Path(path), logfields.Error(err))
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	s.stats.RecordDir(path)
	slog.Info("Created directory", logfields.Path(path))
	return nil
}

// CopyFile copies one file byte-for-byte (0644) and records the result.
// It never escalates: any failure, including a failed parent-directory
// creation, is recorded in the ledger and reported as false so the caller can
// move on to sibling files.
func (s *Stager) CopyFile(src, dst string) bool {
	if err := s.EnsureDir(filepath.Dir(dst)); err != nil {
		// Already recorded by EnsureDir; for this file it is just a failed copy.
		return false
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return s.copyFailed(src, dst, err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return s.copyFailed(src, dst, err)
	}
	fi, err := os.Stat(dst)
	if err != nil {
		return s.copyFailed(src, dst, err)
	}
	rel, err := filepath.Rel(s.outputRoot, dst)
	if err != nil {
		rel = dst
	}
	s.stats.RecordFile(rel, fi.Size())
	slog.Info("Copied file", logfields.Source(src), logfields.Destination(dst), logfields.Size(fi.Size()))
	return true
}

func (s *Stager) copyFailed(src, dst string, err error) bool {
	s.stats.RecordError(stats.ErrorRecord{Op: stats.OpFileCopy, Source: src, Destination: dst, Message: err.Error()})
	slog.Error("Failed to copy file", logfields.Source(src), logfields.Destination(dst), logfields.Error(err))
	return false
}

// CopyTree recursively copies srcDir into dstDir, returning the number of
// files successfully copied. A missing source tree is a warning, not an error
// (optional asset categories are expected to be absent). A non-nil error means
// a destination directory could not be created and the whole build must abort;
// every other failure is recorded and traversal continues.
func (s *Stager) CopyTree(srcDir, dstDir string) (int, error) {
	if _, err := os.Stat(srcDir); err != nil {
		slog.Warn("Source directory missing, skipping", logfields.Path(srcDir))
		s.stats.Warn(fmt.Sprintf("source directory missing: %s", srcDir))
		return 0, nil
	}
	if err := s.EnsureDir(dstDir); err != nil {
		return 0, err
	}
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		s.stats.RecordError(stats.ErrorRecord{Op: stats.OpDirCopy, Directory: srcDir, Message: err.Error()})
		slog.Error("Failed to read directory", logfields.Path(srcDir), logfields.Error(err))
		return 0, nil
	}
	copied := 0
	for _, entry := range entries {
		src := filepath.Join(srcDir, entry.Name())
		dst := filepath.Join(dstDir, entry.Name())
		switch {
		case entry.IsDir():
			n, err := s.CopyTree(src, dst)
			copied += n
			if err != nil {
				return copied, err
			}
		case entry.Type().IsRegular():
			if s.CopyFile(src, dst) {
				copied++
			}
		default:
			slog.Warn("Skipping non-regular entry", logfields.Path(src))
			s.stats.Warn(fmt.Sprintf("skipped non-regular entry: %s", src))
		}
	}
	return copied, nil
}

// Clean removes the output root and everything beneath it. An absent root is
// a successful no-op. Returns false on failure after recording it.
func (s *Stager) Clean() bool {
	if _, err := os.Stat(s.outputRoot); os.IsNotExist(err) {
		slog.Debug("Output directory already absent", logfields.Path(s.outputRoot))
		return true
	}
	if err := os.RemoveAll(s.outputRoot); err != nil {
		s.stats.RecordError(stats.ErrorRecord{Op: stats.OpClean, Message: err.Error()})
		slog.Error("Failed to clean output directory", logfields.Path(s.outputRoot), logfields.Error(err))
		return false
	}
	slog.Info("Cleaned output directory", logfields.Path(s.outputRoot))
	return true
}
