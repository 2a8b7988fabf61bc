package provider

import (
	"fmt"
	"sort"
	"strings"
)

const systemPrompt = `You are an AI coding assistant. You help with code generation, analysis, refactoring, and documentation.

Available tools:
- generate_code_diff: Compare two versions of code and show differences
- generate_documentation: Create BRD, SRD, README, or API documentation
- analyze_code_structure: Analyze code patterns, structure, and provide improvement suggestions
- refactor_code: Refactor code with specific strategies (optimize, modernize, add types, extract components)
- modify_file_with_diff: Propose changes to an existing file as a diff for user approval
- read_file, write_file, list_directory: Work with files in the project

Use tools when appropriate to help users with their coding tasks. Always provide helpful explanations along with tool results. Be proactive in suggesting improvements and best practices.`

// contextMessage folds the editor context into a single user message that
// precedes the actual question. Returns "" when there is nothing to fold.
func contextMessage(c *ChatContext) string {
	if c == nil {
		return ""
	}

	parts := make([]string, 0, 4)
	if c.FilePath != "" {
		parts = append(parts, fmt.Sprintf("File: %s", c.FilePath))
	}
	if c.CodeContent != "" {
		parts = append(parts, fmt.Sprintf("Code:\n```\n%s\n```", c.CodeContent))
	}
	if c.ProjectStructure != "" {
		parts = append(parts, fmt.Sprintf("Project structure:\n%s", c.ProjectStructure))
	}
	if len(c.ReferencedFiles) > 0 {
		paths := make([]string, 0, len(c.ReferencedFiles))
		for path := range c.ReferencedFiles {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		for _, path := range paths {
			parts = append(parts, fmt.Sprintf("Referenced file %s:\n```\n%s\n```", path, c.ReferencedFiles[path]))
		}
	}

	if len(parts) == 0 {
		return ""
	}
	return "Current context:\n" + strings.Join(parts, "\n")
}

func workingDirectory(c *ChatContext) string {
	if c == nil {
		return ""
	}
	return c.WorkingDirectory
}
