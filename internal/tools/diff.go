package tools

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// computeDiff produces a line diff between two code snippets. Line numbers
// track the new side: removed lines carry the number the next kept line will
// take.
func computeDiff(oldCode, newCode string) CodeDiffResult {
	oldLines := strings.Split(oldCode, "\n")
	newLines := strings.Split(newCode, "\n")

	matcher := difflib.NewMatcher(oldLines, newLines)

	diffs := make([]DiffLine, 0)
	var added, removed int
	lineNumber := 1

	for _, op := range matcher.GetOpCodes() {
		switch op.Tag {
		case 'e':
			for _, line := range newLines[op.J1:op.J2] {
				diffs = append(diffs, DiffLine{Type: "unchanged", Content: line, LineNumber: lineNumber})
				lineNumber++
			}
		case 'd':
			for _, line := range oldLines[op.I1:op.I2] {
				diffs = append(diffs, DiffLine{Type: "removed", Content: line, LineNumber: lineNumber})
				removed++
			}
		case 'i':
			for _, line := range newLines[op.J1:op.J2] {
				diffs = append(diffs, DiffLine{Type: "added", Content: line, LineNumber: lineNumber})
				lineNumber++
				added++
			}
		case 'r':
			for _, line := range oldLines[op.I1:op.I2] {
				diffs = append(diffs, DiffLine{Type: "removed", Content: line, LineNumber: lineNumber})
				removed++
			}
			for _, line := range newLines[op.J1:op.J2] {
				diffs = append(diffs, DiffLine{Type: "added", Content: line, LineNumber: lineNumber})
				lineNumber++
				added++
			}
		}
	}

	changed := added
	if removed < changed {
		changed = removed
	}

	return CodeDiffResult{
		Diffs: diffs,
		Summary: DiffSummary{
			LinesAdded:   added,
			LinesRemoved: removed,
			LinesChanged: changed,
		},
	}
}
