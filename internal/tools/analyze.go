package tools

import (
	"context"
	"regexp"
	"sort"
	"strings"
)

var (
	functionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)function\s+(\w+)`),
		regexp.MustCompile(`(?i)def\s+(\w+)`),
		regexp.MustCompile(`(?i)func\s+(?:\([^)]*\)\s*)?(\w+)\s*\(`),
		regexp.MustCompile(`(?i)const\s+(\w+)\s*=\s*(?:async\s+)?\(`),
	}
	classPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)class\s+(\w+)`),
		regexp.MustCompile(`(?i)interface\s+(\w+)`),
		regexp.MustCompile(`(?i)struct\s+(\w+)`),
		regexp.MustCompile(`(?i)enum\s+(\w+)`),
	}
	importPatterns = []*regexp.Regexp{
		regexp.MustCompile(`import\s+(?:{[^}]+}|\w+|\*\s+as\s+\w+)\s+from\s+['"]([^'"]+)['"]`),
		regexp.MustCompile(`from\s+(\w+)\s+import`),
		regexp.MustCompile(`#include\s*<([^>]+)>`),
		regexp.MustCompile(`import\s+"([^"]+)"`),
	}
	exportPatterns = []*regexp.Regexp{
		regexp.MustCompile(`export\s+(?:default\s+)?(?:class|function|const)\s+(\w+)`),
		regexp.MustCompile(`module\.exports\s*=\s*(\w+)`),
	}
	complexityKeywords = regexp.MustCompile(`(?i)\b(if|else|while|for|switch|case|catch)\b`)
)

// analyzeCodeStructure runs heuristic static analysis over a source snippet.
// It is pattern matching, not parsing, so it works the same for any language.
func (e *Executor) analyzeCodeStructure(_ context.Context, args map[string]any, _ string) (Result, error) {
	return analyzeCode(stringArg(args, "file_path"), stringArg(args, "code_content")), nil
}

// analyzeCode is the shared analysis pass, also used by the review and smart
// action tools.
func analyzeCode(filePath, code string) CodeAnalysisResult {
	structure := CodeStructure{
		Functions: matchAll(functionPatterns, code),
		Classes:   matchAll(classPatterns, code),
		Imports:   matchAll(importPatterns, code),
		Exports:   matchAll(exportPatterns, code),
	}

	loc := 0
	for _, line := range strings.Split(code, "\n") {
		if strings.TrimSpace(line) != "" {
			loc++
		}
	}
	complexity := 1 + len(complexityKeywords.FindAllString(code, -1))

	return CodeAnalysisResult{
		Structure: structure,
		Metrics: CodeMetrics{
			LinesOfCode:          loc,
			Complexity:           complexity,
			MaintainabilityScore: maintainabilityScore(loc, complexity, len(structure.Functions)),
		},
		Suggestions: analysisSuggestions(code),
		Patterns:    detectPatterns(code, filePath),
	}
}

func matchAll(patterns []*regexp.Regexp, code string) []string {
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		for _, match := range pattern.FindAllStringSubmatch(code, -1) {
			if len(match) > 1 && match[1] != "" {
				seen[match[1]] = true
			}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// maintainabilityScore penalizes size and complexity, rewards modularity,
// and clamps to [0, 100].
func maintainabilityScore(loc, complexity, functionCount int) float64 {
	locPenalty := float64(loc) / 10
	if locPenalty > 30 {
		locPenalty = 30
	}
	complexityPenalty := float64(complexity) * 2
	if complexityPenalty > 40 {
		complexityPenalty = 40
	}
	functionBonus := float64(functionCount) * 2
	if functionBonus > 20 {
		functionBonus = 20
	}

	score := 100.0 - locPenalty - complexityPenalty + functionBonus
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

func analysisSuggestions(code string) []string {
	suggestions := make([]string, 0)

	if len(strings.Split(code, "\n")) > 200 {
		suggestions = append(suggestions, "File is quite large. Consider breaking it into smaller modules.")
	}
	if strings.Contains(code, "TODO") || strings.Contains(code, "FIXME") {
		suggestions = append(suggestions, "Address TODO and FIXME comments")
	}
	if !strings.Contains(code, "//") && !strings.Contains(code, "/*") && !strings.Contains(code, "#") {
		suggestions = append(suggestions, "Add comments to improve code readability")
	}
	if strings.Contains(code, "console.log(") {
		suggestions = append(suggestions, "Remove console.log statements before production")
	}
	if regexp.MustCompile(`\bvar\s+`).MatchString(code) {
		suggestions = append(suggestions, "Use const or let instead of var")
	}

	return suggestions
}

func detectPatterns(code, filePath string) []string {
	patterns := make([]string, 0)

	switch {
	case strings.HasSuffix(filePath, ".js"), strings.HasSuffix(filePath, ".jsx"):
		patterns = append(patterns, "JavaScript")
		if strings.Contains(code, "React") {
			patterns = append(patterns, "React Framework")
		}
		if strings.Contains(code, "useState") || strings.Contains(code, "useEffect") {
			patterns = append(patterns, "React Hooks")
		}
	case strings.HasSuffix(filePath, ".ts"), strings.HasSuffix(filePath, ".tsx"):
		patterns = append(patterns, "TypeScript")
		if strings.Contains(code, "interface") {
			patterns = append(patterns, "TypeScript Interfaces")
		}
	case strings.HasSuffix(filePath, ".go"):
		patterns = append(patterns, "Go")
		if strings.Contains(code, "go func(") || strings.Contains(code, "chan ") {
			patterns = append(patterns, "Goroutines and Channels")
		}
	case strings.HasSuffix(filePath, ".py"):
		patterns = append(patterns, "Python")
	}

	if strings.Contains(code, "async") && strings.Contains(code, "await") {
		patterns = append(patterns, "Async/Await Pattern")
	}
	if strings.Contains(code, "class ") {
		patterns = append(patterns, "Object-Oriented Programming")
	}
	if strings.Contains(code, "express") || strings.Contains(code, "app.get") {
		patterns = append(patterns, "Express.js")
	}

	return patterns
}
