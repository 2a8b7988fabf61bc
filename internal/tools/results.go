package tools

import "codex-assistant/internal/workspace"

// Result is the closed set of tool result shapes. Every handler returns one
// of the concrete types below; consumers switch on the concrete type rather
// than poking at untyped JSON.
type Result interface {
	toolResult()
}

// DiffLine is a single classified line of a diff.
type DiffLine struct {
	Type       string `json:"type"`
	Content    string `json:"content"`
	LineNumber int    `json:"line_number"`
}

// DiffSummary aggregates diff statistics.
type DiffSummary struct {
	LinesAdded   int `json:"lines_added"`
	LinesRemoved int `json:"lines_removed"`
	LinesChanged int `json:"lines_changed"`
}

// CodeDiffResult is the result of generate_code_diff.
type CodeDiffResult struct {
	Diffs   []DiffLine  `json:"diffs"`
	Summary DiffSummary `json:"summary"`
}

func (CodeDiffResult) toolResult() {}

// FileModificationResult is the result of modify_file_with_diff. It is a
// proposal: nothing has been written when this result is emitted. The write
// is a separate, explicitly approved step.
type FileModificationResult struct {
	FilePath            string         `json:"file_path"`
	OriginalContent     string         `json:"original_content"`
	ModifiedContent     string         `json:"modified_content"`
	Diff                CodeDiffResult `json:"diff"`
	ModificationSummary string         `json:"modification_summary"`
}

func (FileModificationResult) toolResult() {}

// DocumentationResult is the result of generate_documentation.
type DocumentationResult struct {
	Content   string   `json:"content"`
	DocType   string   `json:"doc_type"`
	Sections  []string `json:"sections"`
	WordCount int      `json:"word_count"`
}

func (DocumentationResult) toolResult() {}

// DocumentationOutcome is one item of a multi-document generation batch.
// Failed items carry an error message; the rest of the batch is unaffected.
type DocumentationOutcome struct {
	DocType  string               `json:"doc_type"`
	Result   *DocumentationResult `json:"result,omitempty"`
	FilePath string               `json:"file_path,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// MultiDocumentationResult is the result of generate_multiple_documentation.
type MultiDocumentationResult struct {
	Results []DocumentationOutcome `json:"results"`
}

func (MultiDocumentationResult) toolResult() {}

// CodeStructure lists the declarations found in a file.
type CodeStructure struct {
	Functions []string `json:"functions"`
	Classes   []string `json:"classes"`
	Imports   []string `json:"imports"`
	Exports   []string `json:"exports"`
}

// CodeMetrics holds heuristic quality metrics.
type CodeMetrics struct {
	LinesOfCode          int     `json:"lines_of_code"`
	Complexity           int     `json:"complexity"`
	MaintainabilityScore float64 `json:"maintainability_score"`
}

// CodeAnalysisResult is the result of analyze_code_structure.
type CodeAnalysisResult struct {
	Structure   CodeStructure `json:"structure"`
	Metrics     CodeMetrics   `json:"metrics"`
	Suggestions []string      `json:"suggestions"`
	Patterns    []string      `json:"patterns"`
}

func (CodeAnalysisResult) toolResult() {}

// RefactorChange describes one applied refactoring change.
type RefactorChange struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	LineNumber  int    `json:"line_number"`
}

// RefactorResult is the result of refactor_code.
type RefactorResult struct {
	RefactoredCode string           `json:"refactored_code"`
	Changes        []RefactorChange `json:"changes"`
	Improvements   []string         `json:"improvements"`
	RefactorType   string           `json:"refactor_type"`
}

func (RefactorResult) toolResult() {}

// GeneratedCodeItem is one item of a generate_code batch.
type GeneratedCodeItem struct {
	FilePath string `json:"file_path"`
	Language string `json:"language,omitempty"`
	Success  bool   `json:"success"`
	Message  string `json:"message"`
}

// GeneratedCodeResult is the result of generate_code.
type GeneratedCodeResult struct {
	Items []GeneratedCodeItem `json:"items"`
}

func (GeneratedCodeResult) toolResult() {}

// FileContentResult is the result of read_file.
type FileContentResult struct {
	Content string `json:"content"`
}

func (FileContentResult) toolResult() {}

// WriteResult is the result of write_file.
type WriteResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (WriteResult) toolResult() {}

// TreeResult is the result of list_directory.
type TreeResult struct {
	Tree []workspace.TreeNode `json:"tree"`
}

func (TreeResult) toolResult() {}

// SecurityIssue is one finding of the security analyzer. Snippets that may
// contain secrets are redacted before they reach the wire.
type SecurityIssue struct {
	Severity       string `json:"severity"`
	Category       string `json:"category"`
	Description    string `json:"description"`
	LineNumber     int    `json:"line_number"`
	CodeSnippet    string `json:"code_snippet"`
	Recommendation string `json:"recommendation"`
	CWEID          string `json:"cwe_id,omitempty"`
}

// SecurityAnalysisResult is the result of security_analysis.
type SecurityAnalysisResult struct {
	Issues          []SecurityIssue `json:"issues"`
	SecurityScore   float64         `json:"security_score"`
	Summary         map[string]int  `json:"summary"`
	Recommendations []string        `json:"recommendations"`
}

func (SecurityAnalysisResult) toolResult() {}

// ReviewIssue is one finding of the comprehensive review.
type ReviewIssue struct {
	Severity    string `json:"severity"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
	LineNumber  int    `json:"line_number"`
	CodeSnippet string `json:"code_snippet"`
	Suggestion  string `json:"suggestion"`
	Impact      string `json:"impact"`
	Effort      string `json:"effort"`
}

// ReviewMetrics aggregates the scores feeding the overall review score.
type ReviewMetrics struct {
	LinesOfCode          int     `json:"lines_of_code"`
	Complexity           int     `json:"complexity"`
	MaintainabilityScore float64 `json:"maintainability_score"`
	SecurityScore        float64 `json:"security_score"`
	Vulnerabilities      int     `json:"vulnerabilities_found"`
	Functions            int     `json:"functions"`
	Classes              int     `json:"classes"`
}

// CodeReviewResult is the result of comprehensive_code_review.
type CodeReviewResult struct {
	OverallScore    float64        `json:"overall_score"`
	ReviewFocus     string         `json:"review_focus"`
	Issues          []ReviewIssue  `json:"issues"`
	Summary         map[string]int `json:"summary"`
	Strengths       []string       `json:"strengths"`
	PriorityFixes   []ReviewIssue  `json:"priority_fixes"`
	Recommendations []string       `json:"recommendations"`
	Metrics         ReviewMetrics  `json:"metrics"`
	AIInsights      []string       `json:"ai_insights"`
}

func (CodeReviewResult) toolResult() {}

// ActionStrategy records how a smart action request was interpreted.
type ActionStrategy struct {
	Type         string   `json:"strategy_type"`
	RefactorType string   `json:"refactor_type,omitempty"`
	Actions      []string `json:"specific_actions,omitempty"`
	Priority     string   `json:"priority,omitempty"`
	Reasoning    string   `json:"reasoning,omitempty"`
}

// SmartActionResult is the result of smart_code_action. Exactly one of the
// payload fields matching the strategy type is set. A modification payload
// is a proposal like modify_file_with_diff: nothing is written.
type SmartActionResult struct {
	FilePath      string                  `json:"file_path"`
	ActionRequest string                  `json:"action_request"`
	Strategy      ActionStrategy          `json:"strategy"`
	Refactor      *RefactorResult         `json:"refactor,omitempty"`
	Modification  *FileModificationResult `json:"modification,omitempty"`
	Security      *SecurityAnalysisResult `json:"security,omitempty"`
	Analysis      *CodeAnalysisResult     `json:"analysis,omitempty"`
}

func (SmartActionResult) toolResult() {}
