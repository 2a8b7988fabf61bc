package tools

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"
)

type docTemplate struct {
	title    string
	sections []string
}

var docTemplates = map[string]docTemplate{
	"BRD": {
		title: "Business Requirements Document",
		sections: []string{
			"Executive Summary",
			"Business Objectives",
			"Scope and Deliverables",
			"Functional Requirements",
			"Non-Functional Requirements",
			"Assumptions and Dependencies",
			"Success Criteria",
		},
	},
	"SRD": {
		title: "Software Requirements Document",
		sections: []string{
			"Introduction",
			"System Overview",
			"Functional Requirements",
			"Technical Requirements",
			"System Architecture",
			"Interface Requirements",
			"Data Requirements",
			"Security Requirements",
			"Performance Requirements",
		},
	},
	"README": {
		title: "README Documentation",
		sections: []string{
			"Project Title",
			"Description",
			"Installation",
			"Usage",
			"Features",
			"API Documentation",
			"Contributing",
			"License",
		},
	},
	"API_DOCS": {
		title: "API Documentation",
		sections: []string{
			"Overview",
			"Authentication",
			"Endpoints",
			"Request/Response Examples",
			"Error Codes",
			"Rate Limiting",
			"SDK Information",
		},
	},
}

func (e *Executor) generateDocumentation(ctx context.Context, args map[string]any, _ string) (Result, error) {
	result, err := e.generateDoc(ctx, stringArg(args, "doc_type"), stringArg(args, "project_context"), stringArg(args, "code_structure"))
	if err != nil {
		return nil, err
	}
	return *result, nil
}

func (e *Executor) generateDoc(ctx context.Context, docType, projectContext, codeStructure string) (*DocumentationResult, error) {
	template, ok := docTemplates[docType]
	if !ok {
		return nil, fmt.Errorf("unsupported documentation type: %s", docType)
	}
	if e.gen == nil {
		return nil, ErrNoGenerator
	}

	var sections strings.Builder
	for _, s := range template.sections {
		fmt.Fprintf(&sections, "- %s\n", s)
	}

	var structurePart string
	if codeStructure != "" {
		structurePart = fmt.Sprintf("\nCode Structure:\n```\n%s\n```", codeStructure)
	}

	prompt := fmt.Sprintf(`Please generate a complete '%s' document.

**Project Context:**
%s
%s

**Instructions:**
1.  Generate content for all the following sections:
%s
2.  Format the entire output as a single, well-structured Markdown document.
3.  Ensure the content is professional, detailed, and directly relevant to the project context.
4.  Start directly with the document title ('# %s').
`, template.title, projectContext, structurePart, sections.String(), template.title)

	content, err := e.gen.GenerateText(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate documentation: %w", err)
	}
	content += fmt.Sprintf("\n\n---\n*Generated on %s*\n", time.Now().Format(time.RFC3339))

	return &DocumentationResult{
		Content:   content,
		DocType:   docType,
		Sections:  template.sections,
		WordCount: len(strings.Fields(content)),
	}, nil
}

// generateMultipleDocumentation generates the requested document types
// concurrently and writes each under generated_docs/. One failed document
// does not abort the rest of the batch.
func (e *Executor) generateMultipleDocumentation(ctx context.Context, args map[string]any, workingDir string) (Result, error) {
	docTypes := stringSliceArg(args, "doc_types")
	projectContext := stringArg(args, "project_context")
	codeStructure := stringArg(args, "code_structure")

	outcomes := make([]DocumentationOutcome, len(docTypes))
	var wg sync.WaitGroup
	for i, docType := range docTypes {
		wg.Add(1)
		go func(i int, docType string) {
			defer wg.Done()
			outcomes[i] = e.generateAndWriteDoc(ctx, docType, projectContext, codeStructure, workingDir)
		}(i, docType)
	}
	wg.Wait()

	return MultiDocumentationResult{Results: outcomes}, nil
}

func (e *Executor) generateAndWriteDoc(ctx context.Context, docType, projectContext, codeStructure, workingDir string) DocumentationOutcome {
	filePath := path.Join("generated_docs", docType+".md")
	outcome := DocumentationOutcome{DocType: docType, FilePath: filePath}

	result, err := e.generateDoc(ctx, docType, projectContext, codeStructure)
	if err != nil {
		outcome.Error = fmt.Sprintf("failed to generate %s: %v", docType, err)
		return outcome
	}
	if err := e.store.Write(filePath, result.Content, workingDir); err != nil {
		outcome.Error = fmt.Sprintf("failed to write %s: %v", filePath, err)
		return outcome
	}
	outcome.Result = result
	return outcome
}
