package stats

import "fmt"

// Op identifies which operation an ErrorRecord originated from.
type Op string

const (
	OpDirCreate Op = "dir_create"
	OpFileCopy  Op = "file_copy"
	OpDirCopy   Op = "dir_copy"
	OpClean     Op = "clean"
)

// ErrorRecord captures the context of a single failed operation. Exactly the
// fields matching Op are populated; the rest stay zero.
type ErrorRecord struct {
	Op          Op     `json:"op"`
	Path        string `json:"path,omitempty"`        // dir_create
	Source      string `json:"source,omitempty"`      // file_copy
	Destination string `json:"destination,omitempty"` // file_copy
	Directory   string `json:"directory,omitempty"`   // dir_copy
	Message     string `json:"message"`
}

// String renders the record with its full structured detail for summaries.
func (r ErrorRecord) String() string {
	switch r.Op {
	case OpDirCreate:
		return fmt.Sprintf("create directory %s: %s", r.Path, r.Message)
	case OpFileCopy:
		return fmt.Sprintf("copy %s -> %s: %s", r.Source, r.Destination, r.Message)
	case OpDirCopy:
		return fmt.Sprintf("copy directory %s: %s", r.Directory, r.Message)
	case OpClean:
		return fmt.Sprintf("clean output: %s", r.Message)
	}
	return r.Message
}

// FileRecord describes one successfully staged file.
type FileRecord struct {
	Path      string `json:"path"` // relative to the output root
	Size      int64  `json:"size"`
	SizeHuman string `json:"size_human"`
}

// Stats is the mutable ledger for a single build run. The orchestrator
// constructs one instance and passes it into every staging operation; nothing
// is shared across runs, so no locking is needed (the build is sequential).
type Stats struct {
	FilesProcessed int
	TotalSize      int64
	Errors         []ErrorRecord
	Warnings       []string
	Directories    []string
	Files          []FileRecord
}

// New returns an empty ledger.
func New() *Stats {
	return &Stats{}
}

// RecordFile appends a FileRecord and updates the aggregate counters, keeping
// the FilesProcessed == len(Files) and TotalSize == sum(sizes) invariants.
func (s *Stats) RecordFile(relPath string, size int64) {
	s.FilesProcessed++
	s.TotalSize += size
	s.Files = append(s.Files, FileRecord{Path: relPath, Size: size, SizeHuman: FormatSize(size)})
}

// RecordDir appends a directory created during this run.
func (s *Stats) RecordDir(path string) {
	s.Directories = append(s.Directories, path)
}

// Warn appends a warning message.
func (s *Stats) Warn(msg string) {
	s.Warnings = append(s.Warnings, msg)
}

// RecordError appends an ErrorRecord.
func (s *Stats) RecordError(rec ErrorRecord) {
	s.Errors = append(s.Errors, rec)
}

// HasErrors reports whether any operation recorded a failure.
func (s *Stats) HasErrors() bool {
	return len(s.Errors) > 0
}
