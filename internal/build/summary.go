package build

import (
	"fmt"
	"strings"
)

// Render formats the full build summary: totals first, then the numbered
// warnings and errors if any, then a table of every staged file with the path
// left-justified and the formatted size right-justified.
func (r *Report) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Build %s finished in %.2fs\n", r.BuildID, r.Elapsed().Seconds())
	fmt.Fprintf(&b, "  files processed:     %d\n", r.FilesProcessed)
	fmt.Fprintf(&b, "  total size:          %s\n", r.TotalSizeHuman)
	fmt.Fprintf(&b, "  directories created: %d\n", r.DirectoriesCreated)
	fmt.Fprintf(&b, "  outcome:             %s\n", r.Outcome)

	if len(r.Warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for i, w := range r.Warnings {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, w)
		}
	}
	if len(r.Errors) > 0 {
		b.WriteString("\nErrors:\n")
		for i, e := range r.Errors {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, e)
		}
	}
	if len(r.Files) > 0 {
		pathWidth := 0
		sizeWidth := 0
		for _, f := range r.Files {
			if len(f.Path) > pathWidth {
				pathWidth = len(f.Path)
			}
			if len(f.SizeHuman) > sizeWidth {
				sizeWidth = len(f.SizeHuman)
			}
		}
		b.WriteString("\nFiles:\n")
		for _, f := range r.Files {
			fmt.Fprintf(&b, "  %-*s  %*s\n", pathWidth, f.Path, sizeWidth, f.SizeHuman)
		}
	}
	return b.String()
}
