package tools

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

const reviewInsightPromptFormat = `Review this code and list concrete improvement suggestions as bullet points starting with "- ".

File: %s

` + "```" + `
%s
` + "```" + `

Focus on correctness, maintainability, and common pitfalls. Return only the bullet list.
`

var fallbackInsights = []string{
	"Add error handling for edge cases",
	"Consider extracting repeated logic into reusable functions",
	"Review input validation at the boundaries",
	"Add unit tests for the critical paths",
}

var (
	nestedLoopPattern = regexp.MustCompile(`(?s)\b(?:for|while)\b[^\n]*\n(?:[^\n]*\n)*?\s+\b(?:for|while)\b`)
	concatLoopPattern = regexp.MustCompile(`(?s)\b(?:for|while)\b[^\n]*\n(?:[^\n]*\n)*?[^\n]*\+=\s*['"` + "`" + `]`)
	magicNumberRe     = regexp.MustCompile(`\b\d{2,}\b`)
)

// comprehensiveCodeReview combines structural analysis, the security scan,
// and model-generated insights into a single scored report.
func (e *Executor) comprehensiveCodeReview(ctx context.Context, args map[string]any, workingDir string) (Result, error) {
	filePath := stringArg(args, "file_path")
	focus := stringArg(args, "review_focus")
	if focus == "" {
		focus = "all"
	}

	code, hasContent := args["file_content"].(string)
	if !hasContent {
		content, err := e.store.Read(filePath, workingDir)
		if err != nil {
			return nil, fmt.Errorf("could not read file %s: %w", filePath, err)
		}
		code = content
	}

	analysis := analyzeCode(filePath, code)
	security := analyzeSecurity(filePath, code)

	issues := make([]ReviewIssue, 0)
	if focus == "all" || focus == "security" {
		issues = append(issues, securityToReviewIssues(security.Issues)...)
	}
	if focus == "all" || focus == "performance" {
		issues = append(issues, performanceIssues(code)...)
	}
	if focus == "all" || focus == "maintainability" {
		issues = append(issues, maintainabilityIssues(code)...)
	}
	if focus == "all" || focus == "style" {
		issues = append(issues, suggestionsToReviewIssues(analysis.Suggestions)...)
	}

	summary := reviewSummary(issues)
	overall := overallReviewScore(analysis.Metrics.MaintainabilityScore, security.SecurityScore, summary)

	priority := make([]ReviewIssue, 0)
	for _, issue := range issues {
		if issue.Severity == "critical" || issue.Severity == "high" {
			priority = append(priority, issue)
		}
	}

	return CodeReviewResult{
		OverallScore:    overall,
		ReviewFocus:     focus,
		Issues:          issues,
		Summary:         summary,
		Strengths:       reviewStrengths(analysis, security),
		PriorityFixes:   priority,
		Recommendations: reviewRecommendations(summary, analysis.Metrics),
		Metrics: ReviewMetrics{
			LinesOfCode:          analysis.Metrics.LinesOfCode,
			Complexity:           analysis.Metrics.Complexity,
			MaintainabilityScore: analysis.Metrics.MaintainabilityScore,
			SecurityScore:        security.SecurityScore,
			Vulnerabilities:      len(security.Issues),
			Functions:            len(analysis.Structure.Functions),
			Classes:              len(analysis.Structure.Classes),
		},
		AIInsights: e.reviewInsights(ctx, filePath, code),
	}, nil
}

// reviewInsights asks the model for suggestions. Any failure falls back to a
// static list so the review always completes.
func (e *Executor) reviewInsights(ctx context.Context, filePath, code string) []string {
	if e.gen == nil {
		return fallbackInsights
	}
	text, err := e.gen.GenerateText(ctx, fmt.Sprintf(reviewInsightPromptFormat, filePath, code))
	if err != nil {
		return fallbackInsights
	}

	insights := make([]string, 0)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "- ") {
			insights = append(insights, strings.TrimPrefix(line, "- "))
		}
		if len(insights) == 10 {
			break
		}
	}
	if len(insights) == 0 {
		return fallbackInsights
	}
	return insights
}

func securityToReviewIssues(findings []SecurityIssue) []ReviewIssue {
	issues := make([]ReviewIssue, 0, len(findings))
	for _, f := range findings {
		issues = append(issues, ReviewIssue{
			Severity:    f.Severity,
			Category:    "security",
			Title:       f.Description,
			Description: f.Description,
			LineNumber:  f.LineNumber,
			CodeSnippet: f.CodeSnippet,
			Suggestion:  f.Recommendation,
			Impact:      impactForSeverity(f.Severity),
			Effort:      "medium",
		})
	}
	return issues
}

func performanceIssues(code string) []ReviewIssue {
	issues := make([]ReviewIssue, 0)
	if loc := nestedLoopPattern.FindStringIndex(code); loc != nil {
		issues = append(issues, ReviewIssue{
			Severity:    "medium",
			Category:    "performance",
			Title:       "Nested loops detected",
			Description: "Nested loops can degrade to quadratic time on large inputs",
			LineNumber:  1 + strings.Count(code[:loc[0]], "\n"),
			Suggestion:  "Consider restructuring with a lookup map or a single pass.",
			Impact:      "medium",
			Effort:      "high",
		})
	}
	if loc := concatLoopPattern.FindStringIndex(code); loc != nil {
		issues = append(issues, ReviewIssue{
			Severity:    "low",
			Category:    "performance",
			Title:       "String concatenation inside a loop",
			Description: "Repeated concatenation allocates a new string on every iteration",
			LineNumber:  1 + strings.Count(code[:loc[0]], "\n"),
			Suggestion:  "Collect parts in a slice or builder and join once.",
			Impact:      "low",
			Effort:      "low",
		})
	}
	return issues
}

func maintainabilityIssues(code string) []ReviewIssue {
	issues := make([]ReviewIssue, 0)

	if len(magicNumberRe.FindAllString(code, -1)) > 3 {
		issues = append(issues, ReviewIssue{
			Severity:    "low",
			Category:    "maintainability",
			Title:       "Magic numbers",
			Description: "Several unexplained numeric literals make the code harder to follow",
			Suggestion:  "Name the constants.",
			Impact:      "low",
			Effort:      "low",
		})
	}

	maxIndent := 0
	for _, line := range strings.Split(code, "\n") {
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent > maxIndent {
			maxIndent = indent
		}
	}
	if maxIndent > 16 {
		issues = append(issues, ReviewIssue{
			Severity:    "medium",
			Category:    "maintainability",
			Title:       "Deep nesting",
			Description: "Deeply nested blocks are hard to read and test",
			Suggestion:  "Use early returns or extract helper functions.",
			Impact:      "medium",
			Effort:      "medium",
		})
	}

	return issues
}

func suggestionsToReviewIssues(suggestions []string) []ReviewIssue {
	issues := make([]ReviewIssue, 0, len(suggestions))
	for _, s := range suggestions {
		issues = append(issues, ReviewIssue{
			Severity:    "low",
			Category:    "style",
			Title:       s,
			Description: s,
			Suggestion:  s,
			Impact:      "low",
			Effort:      "low",
		})
	}
	return issues
}

func impactForSeverity(severity string) string {
	switch severity {
	case "critical", "high":
		return "high"
	case "medium":
		return "medium"
	default:
		return "low"
	}
}

func reviewSummary(issues []ReviewIssue) map[string]int {
	summary := map[string]int{"critical": 0, "high": 0, "medium": 0, "low": 0}
	for _, issue := range issues {
		summary[issue.Severity]++
	}
	return summary
}

// overallReviewScore averages maintainability and security, then deducts per
// issue severity, clamped to [0, 100].
func overallReviewScore(maintainability, security float64, summary map[string]int) float64 {
	score := (maintainability + security) / 2
	score -= float64(summary["critical"]) * 10
	score -= float64(summary["high"]) * 5
	score -= float64(summary["medium"]) * 2
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

func reviewStrengths(analysis CodeAnalysisResult, security SecurityAnalysisResult) []string {
	strengths := make([]string, 0)
	if len(security.Issues) == 0 {
		strengths = append(strengths, "No security vulnerabilities detected")
	}
	if analysis.Metrics.MaintainabilityScore >= 80 {
		strengths = append(strengths, "Good maintainability score")
	}
	if len(analysis.Structure.Functions) > 0 && analysis.Metrics.Complexity <= 10 {
		strengths = append(strengths, "Low cyclomatic complexity")
	}
	if len(analysis.Structure.Functions) >= 3 {
		strengths = append(strengths, "Code is broken into functions")
	}
	if len(strengths) == 0 {
		strengths = append(strengths, "Code is syntactically structured")
	}
	return strengths
}

func reviewRecommendations(summary map[string]int, metrics CodeMetrics) []string {
	recs := make([]string, 0)
	if summary["critical"] > 0 {
		recs = append(recs, "Fix critical security issues before deploying")
	}
	if summary["high"] > 0 {
		recs = append(recs, "Address high severity issues in the next iteration")
	}
	if metrics.MaintainabilityScore < 60 {
		recs = append(recs, "Refactor to improve maintainability")
	}
	if metrics.Complexity > 15 {
		recs = append(recs, "Reduce cyclomatic complexity by splitting large functions")
	}
	if len(recs) == 0 {
		recs = append(recs, "Code quality is good, continue regular reviews")
	}
	return recs
}
