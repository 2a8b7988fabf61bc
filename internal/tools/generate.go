package tools

import (
	"context"
	"fmt"
)

// generateCode handles a batch of generation requests. Each item succeeds or
// fails on its own so a bad prompt or write cannot sink the whole batch.
func (e *Executor) generateCode(ctx context.Context, args map[string]any, workingDir string) (Result, error) {
	rawItems, _ := args["items"].([]any)

	items := make([]GeneratedCodeItem, 0, len(rawItems))
	for _, raw := range rawItems {
		item, _ := raw.(map[string]any)
		filePath := stringArg(item, "file_path")
		language := stringArg(item, "language")

		if e.gen == nil {
			items = append(items, GeneratedCodeItem{
				FilePath: filePath,
				Language: language,
				Message:  "No AI provider configured or available for code generation.",
			})
			continue
		}

		prompt := fmt.Sprintf(`Generate a complete and runnable %s script for the following prompt: %s

CRITICAL REQUIREMENTS:
- The script should be fully executable.
- The script MUST print its result to the console.
- Do NOT include any markdown formatting, explanations, or comments.
`, language, stringArg(item, "prompt"))

		code, err := e.gen.GenerateText(ctx, prompt)
		if err != nil {
			items = append(items, GeneratedCodeItem{
				FilePath: filePath,
				Language: language,
				Message:  fmt.Sprintf("AI code generation failed: %v", err),
			})
			continue
		}
		code = stripCodeFence(code)

		if err := e.store.Write(filePath, code, workingDir); err != nil {
			items = append(items, GeneratedCodeItem{
				FilePath: filePath,
				Language: language,
				Message:  fmt.Sprintf("write failed: %v", err),
			})
			continue
		}
		items = append(items, GeneratedCodeItem{
			FilePath: filePath,
			Language: language,
			Success:  true,
			Message:  fmt.Sprintf("wrote %s", filePath),
		})
	}

	return GeneratedCodeResult{Items: items}, nil
}
