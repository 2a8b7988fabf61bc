package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoGenerator is returned by generator-backed tools when no model adapter
// has been injected.
var ErrNoGenerator = errors.New("no AI provider available")

const modificationPromptFormat = `Please modify the following code according to this request: %s

Current code:
` + "```" + `
%s
` + "```" + `

Requirements:
- Make only the necessary changes requested
- Maintain the existing code structure and style
- Return ONLY the complete modified code
- Do not include explanations or markdown formatting
- Ensure the code remains functional and syntactically correct
`

// modifyFileWithDiff proposes a change to an existing file. It never writes:
// the caller holds the result until the user approves or rejects it.
func (e *Executor) modifyFileWithDiff(ctx context.Context, args map[string]any, workingDir string) (Result, error) {
	if e.gen == nil {
		return nil, ErrNoGenerator
	}

	filePath := stringArg(args, "file_path")
	request := stringArg(args, "modification_request")

	current, hasCurrent := args["current_content"].(string)
	if !hasCurrent {
		content, err := e.store.Read(filePath, workingDir)
		if err != nil {
			return nil, fmt.Errorf("could not read file %s: %w", filePath, err)
		}
		current = content
	}

	return e.proposeModification(ctx, filePath, request, current)
}

// proposeModification asks the model for a rewritten file and packages it as
// a reviewable proposal. The smart action tool shares this path.
func (e *Executor) proposeModification(ctx context.Context, filePath, request, current string) (FileModificationResult, error) {
	prompt := fmt.Sprintf(modificationPromptFormat, request, current)
	modified, err := e.gen.GenerateText(ctx, prompt)
	if err != nil {
		return FileModificationResult{}, fmt.Errorf("AI modification failed: %w", err)
	}
	modified = stripCodeFence(modified)

	diff := computeDiff(current, modified)

	return FileModificationResult{
		FilePath:            filePath,
		OriginalContent:     current,
		ModifiedContent:     modified,
		Diff:                diff,
		ModificationSummary: modificationSummary(diff.Summary, request),
	}, nil
}

func modificationSummary(summary DiffSummary, request string) string {
	changes := make([]string, 0, 3)
	if summary.LinesAdded > 0 {
		changes = append(changes, fmt.Sprintf("%d lines added", summary.LinesAdded))
	}
	if summary.LinesRemoved > 0 {
		changes = append(changes, fmt.Sprintf("%d lines removed", summary.LinesRemoved))
	}
	if summary.LinesChanged > 0 {
		changes = append(changes, fmt.Sprintf("%d lines modified", summary.LinesChanged))
	}
	if len(changes) == 0 {
		return "No changes detected"
	}
	return fmt.Sprintf("Applied changes: %s. Summary: %s.", request, strings.Join(changes, ", "))
}

// stripCodeFence removes a surrounding markdown code fence that models emit
// despite being told not to.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return trimmed
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
