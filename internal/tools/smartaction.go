package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const strategyPromptFormat = `Decide how to handle this code improvement request.

Request: %s

File: %s

Reply with a single JSON object, no prose:
{
  "strategy_type": "refactor" | "modify" | "analyze" | "security" | "documentation",
  "refactor_type": "optimize" | "modernize" | "add_types" | "extract_components",
  "specific_actions": ["..."],
  "priority": "low" | "medium" | "high",
  "reasoning": "one sentence"
}
`

// smartCodeAction interprets a natural language improvement request, picks a
// strategy, and runs the matching tool path. Modification payloads are
// proposals and are never written.
func (e *Executor) smartCodeAction(ctx context.Context, args map[string]any, workingDir string) (Result, error) {
	filePath := stringArg(args, "file_path")
	request := stringArg(args, "action_request")

	code, hasContent := args["file_content"].(string)
	if !hasContent {
		content, err := e.store.Read(filePath, workingDir)
		if err != nil {
			return nil, fmt.Errorf("could not read file %s: %w", filePath, err)
		}
		code = content
	}

	strategy := e.determineStrategy(ctx, request, filePath)

	result := SmartActionResult{
		FilePath:      filePath,
		ActionRequest: request,
		Strategy:      strategy,
	}

	switch strategy.Type {
	case "refactor":
		refactorType := strategy.RefactorType
		if _, ok := refactorRules[refactorType]; !ok {
			refactorType = refactorTypeForRequest(request)
		}
		refactored, err := applyRefactor(code, refactorType)
		if err != nil {
			return nil, err
		}
		result.Refactor = &refactored
	case "modify", "documentation":
		if e.gen == nil {
			return nil, ErrNoGenerator
		}
		modRequest := request
		if len(strategy.Actions) > 0 {
			modRequest = "Apply the following improvements: " + strings.Join(strategy.Actions, "; ")
		}
		if strategy.Type == "documentation" {
			modRequest = "Add clear documentation comments to all functions and classes. " + modRequest
		}
		modification, err := e.proposeModification(ctx, filePath, modRequest, code)
		if err != nil {
			return nil, err
		}
		result.Modification = &modification
	case "security":
		security := analyzeSecurity(filePath, code)
		result.Security = &security
	default:
		analysis := analyzeCode(filePath, code)
		result.Analysis = &analysis
	}

	return result, nil
}

// determineStrategy asks the model to classify the request. Any failure falls
// back to keyword rules so the tool never blocks on the model.
func (e *Executor) determineStrategy(ctx context.Context, request, filePath string) ActionStrategy {
	if e.gen == nil {
		return fallbackStrategy(request)
	}
	text, err := e.gen.GenerateText(ctx, fmt.Sprintf(strategyPromptFormat, request, filePath))
	if err != nil {
		return fallbackStrategy(request)
	}

	var strategy ActionStrategy
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &strategy); err != nil {
		return fallbackStrategy(request)
	}
	switch strategy.Type {
	case "refactor", "modify", "analyze", "security", "documentation":
		return strategy
	default:
		return fallbackStrategy(request)
	}
}

// fallbackStrategy classifies the request with keyword rules.
func fallbackStrategy(request string) ActionStrategy {
	lower := strings.ToLower(request)
	switch {
	case strings.Contains(lower, "optimize"), strings.Contains(lower, "performance"):
		return ActionStrategy{Type: "refactor", RefactorType: "optimize", Priority: "medium", Reasoning: "Request mentions optimization"}
	case strings.Contains(lower, "type"), strings.Contains(lower, "hint"):
		return ActionStrategy{Type: "refactor", RefactorType: "add_types", Priority: "medium", Reasoning: "Request mentions type annotations"}
	case strings.Contains(lower, "modern"), strings.Contains(lower, "convert"), strings.Contains(lower, "upgrade"), strings.Contains(lower, "async"):
		return ActionStrategy{Type: "refactor", RefactorType: "modernize", Priority: "medium", Reasoning: "Request mentions modernization"}
	case strings.Contains(lower, "error"), strings.Contains(lower, "handling"):
		return ActionStrategy{Type: "modify", Actions: []string{"add_error_handling"}, Priority: "high", Reasoning: "Request mentions error handling"}
	case strings.Contains(lower, "doc"), strings.Contains(lower, "comment"):
		return ActionStrategy{Type: "documentation", Actions: []string{"add_docstrings"}, Priority: "low", Reasoning: "Request mentions documentation"}
	case strings.Contains(lower, "security"), strings.Contains(lower, "bug"), strings.Contains(lower, "vulnerab"):
		return ActionStrategy{Type: "security", Priority: "high", Reasoning: "Request mentions security concerns"}
	default:
		return ActionStrategy{Type: "analyze", Priority: "low", Reasoning: "No specific action recognized, analyzing first"}
	}
}
