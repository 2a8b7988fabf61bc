// Package testgen analyzes how testable a source file is and generates unit
// test suites for it. Analysis is heuristic pattern matching; test code comes
// from the model layer.
package testgen

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"codex-assistant/internal/tools"
)

// ErrNoGenerator is returned by GenerateTests when no model adapter is
// available.
var ErrNoGenerator = errors.New("no AI provider available")

// FunctionInfo describes one function found in the analyzed file.
type FunctionInfo struct {
	Name      string `json:"name"`
	StartLine int    `json:"start_line"`
	LineCount int    `json:"line_count"`
}

// TestabilityReport is the result of analyzing a file for testability.
type TestabilityReport struct {
	FilePath         string         `json:"file_path"`
	Language         string         `json:"language"`
	TestabilityScore float64        `json:"testability_score"`
	Functions        []FunctionInfo `json:"functions"`
	ComplexFunctions []string       `json:"complex_functions"`
	ExistingTests    []string       `json:"existing_tests"`
	Dependencies     []string       `json:"dependencies"`
	Framework        string         `json:"suggested_framework"`
	Recommendations  []string       `json:"recommendations"`
}

// GenerateRequest describes a test generation call.
type GenerateRequest struct {
	FilePath    string
	CodeContent string
	Language    string
	Framework   string
	TestType    string
}

// TestSuite is a generated set of tests for one file.
type TestSuite struct {
	FilePath     string `json:"file_path"`
	TestFilePath string `json:"test_file_path"`
	Language     string `json:"language"`
	Framework    string `json:"framework"`
	TestType     string `json:"test_type"`
	TestCode     string `json:"test_code"`
}

// Functions longer than this count as complex for the testability score.
const complexFunctionLines = 20

var (
	functionStartPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^\s*def\s+(\w+)`),
		regexp.MustCompile(`(?m)^\s*(?:async\s+)?function\s+(\w+)`),
		regexp.MustCompile(`(?m)^\s*func\s+(?:\([^)]*\)\s*)?(\w+)\s*\(`),
		regexp.MustCompile(`(?m)^\s*(?:export\s+)?const\s+(\w+)\s*=\s*(?:async\s+)?\(`),
	}
	dependencyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`import\s+(?:{[^}]+}|\w+|\*\s+as\s+\w+)\s+from\s+['"]([^'"]+)['"]`),
		regexp.MustCompile(`(?m)^\s*from\s+([\w.]+)\s+import`),
		regexp.MustCompile(`(?m)^\s*import\s+([\w.]+)\s*$`),
		regexp.MustCompile(`import\s+"([^"]+)"`),
		regexp.MustCompile(`require\(['"]([^'"]+)['"]\)`),
	}
)

var frameworkMarkers = []struct {
	marker    string
	framework string
}{
	{"vitest", "vitest"},
	{"jest", "jest"},
	{"pytest", "pytest"},
	{"mocha", "mocha"},
	{"jasmine", "jasmine"},
}

var defaultFrameworks = map[string]string{
	"python":     "pytest",
	"javascript": "jest",
	"typescript": "jest",
	"go":         "testing",
	"java":       "junit",
}

// SupportedFrameworks lists the test frameworks the generator knows how to
// target, keyed by language.
func SupportedFrameworks() map[string][]string {
	return map[string][]string{
		"python":     {"pytest", "unittest"},
		"javascript": {"jest", "vitest", "mocha", "jasmine"},
		"typescript": {"jest", "vitest"},
		"go":         {"testing", "testify"},
		"java":       {"junit"},
	}
}

// LanguageForPath infers the language from the file extension.
func LanguageForPath(filePath string) string {
	switch strings.ToLower(path.Ext(filePath)) {
	case ".py":
		return "python"
	case ".js", ".jsx":
		return "javascript"
	case ".ts", ".tsx":
		return "typescript"
	case ".go":
		return "go"
	case ".java":
		return "java"
	default:
		return "generic"
	}
}

// AnalyzeTestability scores how easy the file is to unit test. The score
// starts at 10 and loses points for complex functions and heavy dependency
// counts, gaining a little back for modular code.
func AnalyzeTestability(filePath, code, language string) TestabilityReport {
	if language == "" {
		language = LanguageForPath(filePath)
	}

	functions := extractFunctions(code)
	deps := extractDependencies(code)

	complexFns := make([]string, 0)
	existingTests := make([]string, 0)
	for _, fn := range functions {
		if fn.LineCount > complexFunctionLines {
			complexFns = append(complexFns, fn.Name)
		}
		if strings.Contains(strings.ToLower(fn.Name), "test") {
			existingTests = append(existingTests, fn.Name)
		}
	}

	return TestabilityReport{
		FilePath:         filePath,
		Language:         language,
		TestabilityScore: testabilityScore(len(complexFns), len(deps), len(functions)),
		Functions:        functions,
		ComplexFunctions: complexFns,
		ExistingTests:    existingTests,
		Dependencies:     deps,
		Framework:        DetectFramework(code, language),
		Recommendations:  recommendations(complexFns, deps, existingTests, functions),
	}
}

// DetectFramework picks a test framework from markers in the code, falling
// back to the language default.
func DetectFramework(code, language string) string {
	lower := strings.ToLower(code)
	for _, m := range frameworkMarkers {
		if strings.Contains(lower, m.marker) {
			return m.framework
		}
	}
	if fw, ok := defaultFrameworks[language]; ok {
		return fw
	}
	return "generic"
}

func testabilityScore(complexCount, depCount, functionCount int) float64 {
	complexPenalty := float64(complexCount) * 2
	if complexPenalty > 5 {
		complexPenalty = 5
	}
	depPenalty := float64(depCount) * 0.1
	if depPenalty > 3 {
		depPenalty = 3
	}
	modularityBonus := float64(functionCount) * 0.2
	if modularityBonus > 2 {
		modularityBonus = 2
	}

	score := 10.0 - complexPenalty - depPenalty + modularityBonus
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}
	return score
}

// extractFunctions finds function starts and measures each function as the
// span to the next function start or end of file. Heuristic, not a parser.
func extractFunctions(code string) []FunctionInfo {
	lines := strings.Split(code, "\n")

	type start struct {
		name string
		line int
	}
	starts := make([]start, 0)
	seen := make(map[int]bool)
	for _, pattern := range functionStartPatterns {
		for _, loc := range pattern.FindAllStringSubmatchIndex(code, -1) {
			if len(loc) < 4 || loc[2] < 0 {
				continue
			}
			line := 1 + strings.Count(code[:loc[0]], "\n")
			if seen[line] {
				continue
			}
			seen[line] = true
			starts = append(starts, start{name: code[loc[2]:loc[3]], line: line})
		}
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].line < starts[j].line })

	functions := make([]FunctionInfo, 0, len(starts))
	for i, s := range starts {
		end := len(lines) + 1
		if i+1 < len(starts) {
			end = starts[i+1].line
		}
		functions = append(functions, FunctionInfo{
			Name:      s.name,
			StartLine: s.line,
			LineCount: end - s.line,
		})
	}
	return functions
}

func extractDependencies(code string) []string {
	seen := make(map[string]bool)
	for _, pattern := range dependencyPatterns {
		for _, match := range pattern.FindAllStringSubmatch(code, -1) {
			if len(match) > 1 && match[1] != "" {
				seen[match[1]] = true
			}
		}
	}
	deps := make([]string, 0, len(seen))
	for dep := range seen {
		deps = append(deps, dep)
	}
	sort.Strings(deps)
	return deps
}

func recommendations(complexFns, deps, existingTests []string, functions []FunctionInfo) []string {
	recs := make([]string, 0)
	if len(complexFns) > 0 {
		recs = append(recs, fmt.Sprintf("Break down complex functions before testing: %s", strings.Join(complexFns, ", ")))
	}
	if len(deps) > 10 {
		recs = append(recs, "Many dependencies detected, consider injecting them to enable mocking")
	}
	if len(existingTests) == 0 && len(functions) > 0 {
		recs = append(recs, "No existing tests found, start with the public functions")
	}
	if len(recs) == 0 {
		recs = append(recs, "Code is well structured for testing")
	}
	return recs
}

const generatePromptFormat = `Generate %s tests for the following %s code using the %s framework.

File: %s

` + "```" + `
%s
` + "```" + `

Requirements:
- Cover the main success paths and obvious edge cases
- Use idiomatic %s assertions
- Return ONLY the complete test file content
- Do not include explanations or markdown formatting
`

// Service generates test suites through the model layer.
type Service struct {
	gen tools.Generator
}

// NewService returns a test generation service backed by gen.
func NewService(gen tools.Generator) *Service {
	return &Service{gen: gen}
}

// GenerateTests produces a test suite for the given file. The framework and
// language are inferred when the request leaves them empty.
func (s *Service) GenerateTests(ctx context.Context, req GenerateRequest) (*TestSuite, error) {
	if s.gen == nil {
		return nil, ErrNoGenerator
	}

	language := req.Language
	if language == "" {
		language = LanguageForPath(req.FilePath)
	}
	framework := req.Framework
	if framework == "" {
		framework = DetectFramework(req.CodeContent, language)
	}
	testType := req.TestType
	if testType == "" {
		testType = "unit"
	}

	prompt := fmt.Sprintf(generatePromptFormat, testType, language, framework, req.FilePath, req.CodeContent, framework)
	code, err := s.gen.GenerateText(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("test generation failed: %w", err)
	}

	return &TestSuite{
		FilePath:     req.FilePath,
		TestFilePath: TestFilePath(req.FilePath, language, framework),
		Language:     language,
		Framework:    framework,
		TestType:     testType,
		TestCode:     stripFence(code),
	}, nil
}

// TestFilePath derives the conventional test file name for the framework.
func TestFilePath(filePath, language, framework string) string {
	dir := path.Dir(filePath)
	base := path.Base(filePath)
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	var name string
	switch language {
	case "python":
		name = "test_" + stem + ext
	case "go":
		name = stem + "_test" + ext
	case "java":
		name = stem + "Test" + ext
	default:
		if framework == "mocha" || framework == "jasmine" {
			name = stem + ".spec" + ext
		} else {
			name = stem + ".test" + ext
		}
	}
	if dir == "." {
		return name
	}
	return dir + "/" + name
}

func stripFence(text string) string {
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
