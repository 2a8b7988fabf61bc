package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"codex-assistant/internal/workspace"
)

// fakeGenerator returns canned text, or an error when the prompt contains a
// trigger word.
type fakeGenerator struct {
	output  string
	failOn  string
	prompts []string
}

func (g *fakeGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.failOn != "" && strings.Contains(prompt, g.failOn) {
		return "", errors.New("model unavailable")
	}
	return g.output, nil
}

func newTestExecutor(t *testing.T) (*Executor, string) {
	t.Helper()
	root := t.TempDir()
	e, err := NewExecutor(workspace.NewStore(root))
	if err != nil {
		t.Fatalf("NewExecutor failed: %v", err)
	}
	return e, root
}

func TestExecuteUnknownTool(t *testing.T) {
	e, _ := newTestExecutor(t)

	_, err := e.Execute(context.Background(), "no_such_tool", nil, "")
	var unknownErr *UnknownToolError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("error = %v, want UnknownToolError", err)
	}
	if unknownErr.Name != "no_such_tool" {
		t.Errorf("Name = %q, want no_such_tool", unknownErr.Name)
	}
}

func TestExecuteValidatesArguments(t *testing.T) {
	e, _ := newTestExecutor(t)

	tests := []struct {
		name string
		tool string
		args map[string]any
	}{
		{"missing required", "generate_code_diff", map[string]any{"old_code": "a"}},
		{"wrong type", "generate_code_diff", map[string]any{"old_code": "a", "new_code": 42}},
		{"bad enum", "refactor_code", map[string]any{"original_code": "x", "refactor_type": "rewrite_everything"}},
		{"bad array item", "generate_multiple_documentation", map[string]any{"doc_types": []any{"BRD", "NOVEL"}, "project_context": "ctx"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Execute(context.Background(), tt.tool, tt.args, "")
			var argErr *InvalidArgumentsError
			if !errors.As(err, &argErr) {
				t.Fatalf("error = %v, want InvalidArgumentsError", err)
			}
			if argErr.Tool != tt.tool {
				t.Errorf("Tool = %q, want %q", argErr.Tool, tt.tool)
			}
		})
	}
}

func TestExecuteGenerateCodeDiff(t *testing.T) {
	e, _ := newTestExecutor(t)

	result, err := e.Execute(context.Background(), "generate_code_diff", map[string]any{
		"old_code": "a\nb",
		"new_code": "a\nc",
	}, "")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	diff, ok := result.(CodeDiffResult)
	if !ok {
		t.Fatalf("result type = %T, want CodeDiffResult", result)
	}
	if diff.Summary.LinesAdded != 1 || diff.Summary.LinesRemoved != 1 {
		t.Errorf("summary = %+v, want 1 added 1 removed", diff.Summary)
	}
}

func TestExecuteFileRoundTrip(t *testing.T) {
	e, _ := newTestExecutor(t)
	ctx := context.Background()

	if _, err := e.Execute(ctx, "write_file", map[string]any{
		"file_path": "src/app.js",
		"content":   "let x = 1",
	}, ""); err != nil {
		t.Fatalf("write_file failed: %v", err)
	}

	result, err := e.Execute(ctx, "read_file", map[string]any{"path": "src/app.js"}, "")
	if err != nil {
		t.Fatalf("read_file failed: %v", err)
	}
	content, ok := result.(FileContentResult)
	if !ok || content.Content != "let x = 1" {
		t.Errorf("read result = %#v, want content %q", result, "let x = 1")
	}

	treeResult, err := e.Execute(ctx, "list_directory", nil, "")
	if err != nil {
		t.Fatalf("list_directory failed: %v", err)
	}
	tree, ok := treeResult.(TreeResult)
	if !ok || len(tree.Tree) != 1 || tree.Tree[0].Name != "src" {
		t.Errorf("tree = %#v, want single src directory", treeResult)
	}
}

func TestExecuteReadMissingFileIsHandlerError(t *testing.T) {
	e, _ := newTestExecutor(t)

	_, err := e.Execute(context.Background(), "read_file", map[string]any{"path": "ghost.txt"}, "")
	var handlerErr *HandlerError
	if !errors.As(err, &handlerErr) {
		t.Fatalf("error = %v, want HandlerError", err)
	}
	if handlerErr.Tool != "read_file" {
		t.Errorf("Tool = %q, want read_file", handlerErr.Tool)
	}
}

func TestModifyFileWithDiff(t *testing.T) {
	e, _ := newTestExecutor(t)
	ctx := context.Background()

	if _, err := e.Execute(ctx, "write_file", map[string]any{
		"file_path": "calc.py",
		"content":   "def add(a, b):\n    return a + b",
	}, ""); err != nil {
		t.Fatal(err)
	}

	gen := &fakeGenerator{output: "def add(a, b):\n    return a + b\n\ndef sub(a, b):\n    return a - b"}
	e.SetGenerator(gen)

	result, err := e.Execute(ctx, "modify_file_with_diff", map[string]any{
		"file_path":            "calc.py",
		"modification_request": "add a subtract function",
	}, "")
	if err != nil {
		t.Fatalf("modify_file_with_diff failed: %v", err)
	}

	mod, ok := result.(FileModificationResult)
	if !ok {
		t.Fatalf("result type = %T, want FileModificationResult", result)
	}
	if mod.FilePath != "calc.py" {
		t.Errorf("FilePath = %q, want calc.py", mod.FilePath)
	}
	if !strings.Contains(mod.ModifiedContent, "def sub") {
		t.Errorf("ModifiedContent missing generated change: %q", mod.ModifiedContent)
	}
	if mod.Diff.Summary.LinesAdded == 0 {
		t.Error("diff summary reports no added lines")
	}
	if !strings.Contains(mod.ModificationSummary, "add a subtract function") {
		t.Errorf("summary = %q, want modification request echoed", mod.ModificationSummary)
	}

	// The proposal must not touch the file.
	content, err := e.store.Read("calc.py", "")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(content, "def sub") {
		t.Error("modify_file_with_diff wrote to disk before approval")
	}

	// The current content is fed to the model.
	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "return a + b") {
		t.Errorf("prompt missing current file content: %v", gen.prompts)
	}
}

func TestModifyFileWithDiffWithoutGenerator(t *testing.T) {
	e, _ := newTestExecutor(t)

	_, err := e.Execute(context.Background(), "modify_file_with_diff", map[string]any{
		"file_path":            "a.txt",
		"modification_request": "change it",
	}, "")
	if !errors.Is(err, ErrNoGenerator) {
		t.Errorf("error = %v, want ErrNoGenerator", err)
	}
}

func TestGenerateMultipleDocumentationPartialFailure(t *testing.T) {
	e, _ := newTestExecutor(t)
	e.SetGenerator(&fakeGenerator{
		output: "# Doc\n\ncontent here",
		failOn: "Business Requirements Document",
	})

	result, err := e.Execute(context.Background(), "generate_multiple_documentation", map[string]any{
		"doc_types":       []any{"BRD", "README"},
		"project_context": "a todo app",
	}, "")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	multi, ok := result.(MultiDocumentationResult)
	if !ok || len(multi.Results) != 2 {
		t.Fatalf("result = %#v, want 2 outcomes", result)
	}

	brd, readme := multi.Results[0], multi.Results[1]
	if brd.Error == "" || brd.Result != nil {
		t.Errorf("BRD outcome = %+v, want failure", brd)
	}
	if readme.Error != "" || readme.Result == nil {
		t.Fatalf("README outcome = %+v, want success", readme)
	}
	if readme.Result.WordCount == 0 {
		t.Error("README word count is zero")
	}

	// The successful document lands on disk, the failed one does not.
	exists, err := e.store.Exists("generated_docs/README.md", "")
	if err != nil || !exists {
		t.Errorf("README.md not written: exists=%v err=%v", exists, err)
	}
	exists, _ = e.store.Exists("generated_docs/BRD.md", "")
	if exists {
		t.Error("BRD.md written despite generation failure")
	}
}

func TestGenerateCodeBatchIsolation(t *testing.T) {
	e, _ := newTestExecutor(t)
	e.SetGenerator(&fakeGenerator{output: "print('ok')", failOn: "broken"})

	result, err := e.Execute(context.Background(), "generate_code", map[string]any{
		"items": []any{
			map[string]any{"prompt": "hello world", "file_path": "hello.py", "language": "python"},
			map[string]any{"prompt": "broken thing", "file_path": "broken.py"},
		},
	}, "")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	batch, ok := result.(GeneratedCodeResult)
	if !ok || len(batch.Items) != 2 {
		t.Fatalf("result = %#v, want 2 items", result)
	}
	if !batch.Items[0].Success {
		t.Errorf("first item failed: %+v", batch.Items[0])
	}
	if batch.Items[1].Success {
		t.Errorf("second item should fail: %+v", batch.Items[1])
	}

	exists, _ := e.store.Exists("hello.py", "")
	if !exists {
		t.Error("hello.py not written")
	}
}

func TestDefinitionsCoverRegisteredTools(t *testing.T) {
	e, _ := newTestExecutor(t)

	defs := e.Definitions()
	if len(defs) == 0 {
		t.Fatal("no definitions")
	}

	byName := make(map[string]Definition)
	for _, def := range defs {
		byName[def.Name] = def
	}
	for _, name := range []string{"generate_code_diff", "modify_file_with_diff", "read_file", "write_file", "list_directory", "security_analysis", "comprehensive_code_review", "smart_code_action"} {
		def, ok := byName[name]
		if !ok {
			t.Errorf("missing definition for %s", name)
			continue
		}
		if def.Description == "" || def.Schema == nil {
			t.Errorf("definition %s incomplete: %+v", name, def)
		}
	}

	if !e.Has("refactor_code") || e.Has("nonexistent") {
		t.Error("Has reports wrong membership")
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain code", "plain code"},
		{"```python\nprint(1)\n```", "print(1)"},
		{"```\nx = 1\ny = 2\n```", "x = 1\ny = 2"},
		{"  ```js\nlet a;\n```  ", "let a;"},
	}
	for _, tt := range tests {
		if got := stripCodeFence(tt.in); got != tt.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExecutorRecoversPanickingHandler(t *testing.T) {
	e, _ := newTestExecutor(t)
	err := e.register("boom", "panics", objectSchema(map[string]any{}), func(context.Context, map[string]any, string) (Result, error) {
		panic("kaboom")
	})
	if err != nil {
		t.Fatal(err)
	}

	_, execErr := e.Execute(context.Background(), "boom", nil, "")
	var handlerErr *HandlerError
	if !errors.As(execErr, &handlerErr) {
		t.Fatalf("error = %v, want HandlerError", execErr)
	}
	if !strings.Contains(handlerErr.Error(), "panic") {
		t.Errorf("error %q does not mention panic", handlerErr.Error())
	}
}

func TestRefactorCode(t *testing.T) {
	e, _ := newTestExecutor(t)

	result, err := e.Execute(context.Background(), "refactor_code", map[string]any{
		"original_code": "var x = 1;\nconsole.log(x);\n",
		"refactor_type": "optimize",
	}, "")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	ref, ok := result.(RefactorResult)
	if !ok {
		t.Fatalf("result type = %T, want RefactorResult", result)
	}
	if strings.Contains(ref.RefactoredCode, "console.log") {
		t.Errorf("console.log not removed: %q", ref.RefactoredCode)
	}
	if !strings.Contains(ref.RefactoredCode, "const x") {
		t.Errorf("var not replaced: %q", ref.RefactoredCode)
	}
	if len(ref.Changes) != 2 {
		t.Errorf("changes = %d, want 2: %+v", len(ref.Changes), ref.Changes)
	}
	if ref.RefactorType != "optimize" {
		t.Errorf("RefactorType = %q, want optimize", ref.RefactorType)
	}
}

func TestAnalyzeCodeStructure(t *testing.T) {
	e, _ := newTestExecutor(t)

	code := `import { useState } from 'react'

function add(a, b) {
  if (a > b) {
    return a + b
  }
  return b
}

class Calculator {
  // adds numbers
}

export const total = add(1, 2)
`

	result, err := e.Execute(context.Background(), "analyze_code_structure", map[string]any{
		"file_path":    "calc.js",
		"code_content": code,
	}, "")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	analysis, ok := result.(CodeAnalysisResult)
	if !ok {
		t.Fatalf("result type = %T, want CodeAnalysisResult", result)
	}

	if !contains(analysis.Structure.Functions, "add") {
		t.Errorf("functions = %v, want add", analysis.Structure.Functions)
	}
	if !contains(analysis.Structure.Classes, "Calculator") {
		t.Errorf("classes = %v, want Calculator", analysis.Structure.Classes)
	}
	if !contains(analysis.Structure.Imports, "react") {
		t.Errorf("imports = %v, want react", analysis.Structure.Imports)
	}
	if !contains(analysis.Structure.Exports, "total") {
		t.Errorf("exports = %v, want total", analysis.Structure.Exports)
	}
	if analysis.Metrics.Complexity < 2 {
		t.Errorf("complexity = %d, want >= 2", analysis.Metrics.Complexity)
	}
	if analysis.Metrics.MaintainabilityScore <= 0 || analysis.Metrics.MaintainabilityScore > 100 {
		t.Errorf("maintainability = %v, out of range", analysis.Metrics.MaintainabilityScore)
	}
	if !contains(analysis.Patterns, "JavaScript") {
		t.Errorf("patterns = %v, want JavaScript", analysis.Patterns)
	}
}

func contains(list []string, want string) bool {
	for _, item := range list {
		if item == want {
			return true
		}
	}
	return false
}

func ExampleExecutor_Execute() {
	e, _ := NewExecutor(workspace.NewStore("."))
	result, _ := e.Execute(context.Background(), "generate_code_diff", map[string]any{
		"old_code": "a",
		"new_code": "b",
	}, "")
	diff := result.(CodeDiffResult)
	fmt.Println(diff.Summary.LinesAdded, diff.Summary.LinesRemoved)
	// Output: 1 1
}
