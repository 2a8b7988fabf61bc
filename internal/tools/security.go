package tools

import (
	"context"
	"regexp"
	"sort"
	"strings"
)

const redactedSnippet = "[REDACTED - may contain sensitive data]"

type securityRule struct {
	pattern        *regexp.Regexp
	severity       string
	category       string
	description    string
	recommendation string
	cwe            string
	redact         bool
	languages      []string
}

var securityRules = []securityRule{
	{
		pattern:        regexp.MustCompile(`(?i)(?:SELECT|INSERT\s+INTO|UPDATE|DELETE\s+FROM)\s+[^;\n]*[+%][^;\n]*`),
		severity:       "critical",
		category:       "sql_injection",
		description:    "Potential SQL injection vulnerability detected",
		recommendation: "Use parameterized queries or prepared statements.",
		cwe:            "CWE-89",
	},
	{
		pattern:        regexp.MustCompile(`(?i)(?:os\.system|subprocess\.call|shell_exec|\bsystem)\([^)]*\+[^)]*\)`),
		severity:       "critical",
		category:       "command_injection",
		description:    "Potential command injection vulnerability detected",
		recommendation: "Validate and sanitize all inputs and use safe command execution methods.",
		cwe:            "CWE-78",
	},
	{
		pattern:        regexp.MustCompile(`(?i)\beval\s*\(`),
		severity:       "critical",
		category:       "code_injection",
		description:    "Use of eval() can lead to code injection",
		recommendation: "Avoid eval(). Parse data with a safe deserializer instead.",
		cwe:            "CWE-94",
	},
	{
		pattern:        regexp.MustCompile(`(?i)\b(?:password|api_key|secret|token)\s*=\s*['"]\w{8,}['"]`),
		severity:       "high",
		category:       "hardcoded_secrets",
		description:    "Hardcoded secret detected",
		recommendation: "Move secrets to environment variables or secure configuration.",
		cwe:            "CWE-798",
		redact:         true,
	},
	{
		pattern:        regexp.MustCompile(`(?i)\b(?:MD5|SHA1|DES|RC4)\s*\(`),
		severity:       "medium",
		category:       "weak_cryptography",
		description:    "Weak cryptographic algorithm detected",
		recommendation: "Use strong algorithms (AES-256, bcrypt, scrypt, Argon2).",
		cwe:            "CWE-327",
	},
	{
		pattern:        regexp.MustCompile(`(?i)(?:innerHTML\s*=\s*[^;\n]*\+|document\.write\([^)]*\+[^)]*\))`),
		severity:       "high",
		category:       "xss",
		description:    "Potential Cross-Site Scripting (XSS) vulnerability",
		recommendation: "Use textContent instead of innerHTML, or sanitize user input.",
		cwe:            "CWE-79",
		languages:      []string{"javascript", "typescript"},
	},
	{
		pattern:        regexp.MustCompile(`(?i)localStorage\.setItem\([^)]*(?:password|token|key)[^)]*\)`),
		severity:       "medium",
		category:       "data_exposure",
		description:    "Sensitive data stored in localStorage",
		recommendation: "Use secure storage mechanisms or encrypt sensitive data.",
		cwe:            "CWE-922",
		languages:      []string{"javascript", "typescript"},
	},
	{
		pattern:        regexp.MustCompile(`(?i)console\.log\([^)]*(?:password|token|key|secret)[^)]*\)`),
		severity:       "medium",
		category:       "information_disclosure",
		description:    "Sensitive information logged to console",
		recommendation: "Remove log statements containing sensitive data.",
		cwe:            "CWE-532",
		redact:         true,
		languages:      []string{"javascript", "typescript"},
	},
	{
		pattern:        regexp.MustCompile(`(?i)(?:#|//)\s*(?:TODO|FIXME)[^\n]*(?:security|auth|password|token)`),
		severity:       "low",
		category:       "security_todo",
		description:    "Security-related TODO/FIXME comment found",
		recommendation: "Address security-related TODO/FIXME items promptly.",
	},
}

var severityPenalties = map[string]float64{
	"critical": 25,
	"high":     15,
	"medium":   8,
	"low":      3,
}

var categoryRecommendations = map[string]string{
	"sql_injection":     "Use parameterized queries and prepared statements for all database operations",
	"command_injection": "Validate all user inputs and use safe command execution methods",
	"code_injection":    "Never evaluate untrusted input as code",
	"xss":               "Sanitize user inputs and use textContent instead of innerHTML",
	"hardcoded_secrets": "Move all secrets to environment variables or secure configuration files",
	"weak_cryptography": "Use strong cryptographic algorithms (AES-256, bcrypt, scrypt)",
}

// securityAnalysis scans a snippet for vulnerability patterns and scores it.
func (e *Executor) securityAnalysis(_ context.Context, args map[string]any, _ string) (Result, error) {
	return analyzeSecurity(stringArg(args, "file_path"), stringArg(args, "code_content")), nil
}

func analyzeSecurity(filePath, code string) SecurityAnalysisResult {
	language := languageForPath(filePath)
	lines := strings.Split(code, "\n")

	issues := make([]SecurityIssue, 0)
	for _, rule := range securityRules {
		if !rule.applies(language) {
			continue
		}
		for _, loc := range rule.pattern.FindAllStringIndex(code, -1) {
			lineNum := 1 + strings.Count(code[:loc[0]], "\n")
			snippet := redactedSnippet
			if !rule.redact && lineNum <= len(lines) {
				snippet = strings.TrimSpace(lines[lineNum-1])
			}
			issues = append(issues, SecurityIssue{
				Severity:       rule.severity,
				Category:       rule.category,
				Description:    rule.description,
				LineNumber:     lineNum,
				CodeSnippet:    snippet,
				Recommendation: rule.recommendation,
				CWEID:          rule.cwe,
			})
		}
	}

	return SecurityAnalysisResult{
		Issues:          issues,
		SecurityScore:   securityScore(issues, code),
		Summary:         severitySummary(issues),
		Recommendations: securityRecommendations(issues, language),
	}
}

func (r securityRule) applies(language string) bool {
	if len(r.languages) == 0 {
		return true
	}
	for _, l := range r.languages {
		if l == language {
			return true
		}
	}
	return false
}

func languageForPath(filePath string) string {
	idx := strings.LastIndex(filePath, ".")
	if idx < 0 {
		return "generic"
	}
	switch strings.ToLower(filePath[idx+1:]) {
	case "py":
		return "python"
	case "js", "jsx":
		return "javascript"
	case "ts", "tsx":
		return "typescript"
	case "java":
		return "java"
	case "go":
		return "go"
	case "rb":
		return "ruby"
	case "rs":
		return "rust"
	case "php":
		return "php"
	default:
		return "generic"
	}
}

// securityScore starts at 100, deducts per issue severity, and grants small
// bonuses for visible error handling and input validation.
func securityScore(issues []SecurityIssue, code string) float64 {
	score := 100.0
	for _, issue := range issues {
		penalty, ok := severityPenalties[issue.Severity]
		if !ok {
			penalty = 5
		}
		score -= penalty
	}

	tryBlocks := len(regexp.MustCompile(`(?i)\btry\s*[:{]`).FindAllString(code, -1))
	if tryBlocks > 0 {
		bonus := float64(tryBlocks) * 2
		if bonus > 10 {
			bonus = 10
		}
		score += bonus
	}
	for _, pattern := range []string{"validate(", "sanitize(", "escape("} {
		if strings.Contains(strings.ToLower(code), pattern) {
			score += 2
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

func severitySummary(issues []SecurityIssue) map[string]int {
	summary := map[string]int{"critical": 0, "high": 0, "medium": 0, "low": 0}
	for _, issue := range issues {
		summary[issue.Severity]++
	}
	return summary
}

func securityRecommendations(issues []SecurityIssue, language string) []string {
	seen := make(map[string]bool)
	for _, issue := range issues {
		if rec, ok := categoryRecommendations[issue.Category]; ok {
			seen[rec] = true
		}
	}

	switch language {
	case "python":
		seen["Consider using bandit for automated security testing"] = true
	case "javascript", "typescript":
		seen["Use Content Security Policy (CSP) headers"] = true
		seen["Use npm audit to check for vulnerable dependencies"] = true
	}
	seen["Implement proper error handling without information leakage"] = true
	seen["Use HTTPS for all network communications"] = true

	out := make([]string, 0, len(seen))
	for rec := range seen {
		out = append(out, rec)
	}
	sort.Strings(out)
	return out
}
