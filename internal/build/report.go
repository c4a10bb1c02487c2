package build

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/sitestager/internal/stats"
)

// Outcome is the typed enumeration of final build result states.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeWarning Outcome = "warning"
	OutcomeFailed  Outcome = "failed"
)

// Report captures high-level metrics about a staging run. It is derived from
// the ledger once the run finishes and is what gets persisted into the output
// root alongside the staged site.
type Report struct {
	BuildID            string                   `json:"build_id"`
	Start              time.Time                `json:"start"`
	End                time.Time                `json:"end"`
	FilesProcessed     int                      `json:"files_processed"`
	TotalSize          int64                    `json:"total_size"`
	TotalSizeHuman     string                   `json:"total_size_human"`
	DirectoriesCreated int                      `json:"directories_created"`
	Warnings           []string                 `json:"warnings"`
	Errors             []string                 `json:"errors"`
	Files              []stats.FileRecord       `json:"files"`
	StageDurations     map[string]time.Duration `json:"stage_durations"`
	Outcome            Outcome                  `json:"outcome"`
}

func newReport(buildID string) *Report {
	return &Report{
		BuildID:        buildID,
		Start:          time.Now(),
		Warnings:       []string{},
		Errors:         []string{},
		StageDurations: make(map[string]time.Duration),
	}
}

// finish copies the final ledger state into the report and derives the
// outcome. aborted marks runs that hit a hard-abort condition.
func (r *Report) finish(st *stats.Stats, aborted bool) {
	r.End = time.Now()
	r.FilesProcessed = st.FilesProcessed
	r.TotalSize = st.TotalSize
	r.TotalSizeHuman = stats.FormatSize(st.TotalSize)
	r.DirectoriesCreated = len(st.Directories)
	r.Files = st.Files
	r.Warnings = append(r.Warnings[:0], st.Warnings...)
	for _, rec := range st.Errors {
		r.Errors = append(r.Errors, rec.String())
	}
	r.deriveOutcome(aborted)
}

// deriveOutcome sets Outcome from the accumulated state. A build that staged
// nothing is failed even without explicit errors.
func (r *Report) deriveOutcome(aborted bool) {
	switch {
	case aborted || len(r.Errors) > 0 || r.FilesProcessed == 0:
		r.Outcome = OutcomeFailed
	case len(r.Warnings) > 0:
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
}

// ExitStatus maps the outcome onto the process exit status contract.
func (r *Report) ExitStatus() int {
	if r.Outcome == OutcomeFailed {
		return 1
	}
	return 0
}

// Elapsed returns the wall-clock duration of the run.
func (r *Report) Elapsed() time.Duration {
	return r.End.Sub(r.Start)
}

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	return fmt.Sprintf("files=%d size=%s dirs=%d errors=%d warnings=%d duration=%s outcome=%s",
		r.FilesProcessed, r.TotalSizeHuman, r.DirectoriesCreated, len(r.Errors), len(r.Warnings),
		r.Elapsed().Truncate(time.Millisecond), r.Outcome)
}

// Persist writes the report atomically into the provided root directory
// (the staged output root). It writes two files:
//
//	build-report.json  (machine readable)
//	build-report.txt   (human summary)
//
// Best effort; errors are returned for caller logging but do not change the
// build outcome.
func (r *Report) Persist(root string) error {
	jb, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	jsonPath := filepath.Join(root, "build-report.json")
	tmpJSON := jsonPath + ".tmp"
	if err := os.WriteFile(tmpJSON, jb, 0o644); err != nil {
		return fmt.Errorf("write temp report json: %w", err)
	}
	if err := os.Rename(tmpJSON, jsonPath); err != nil {
		return fmt.Errorf("atomic rename json: %w", err)
	}
	summaryPath := filepath.Join(root, "build-report.txt")
	tmpTxt := summaryPath + ".tmp"
	if err := os.WriteFile(tmpTxt, []byte(r.Render()), 0o644); err != nil {
		return fmt.Errorf("write temp report summary: %w", err)
	}
	if err := os.Rename(tmpTxt, summaryPath); err != nil {
		return fmt.Errorf("atomic rename summary: %w", err)
	}
	return nil
}
