package tools

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func (e *Executor) registerBuiltins() error {
	type builtin struct {
		name        string
		description string
		schema      map[string]any
		handler     Handler
	}

	builtins := []builtin{
		{
			name:        "generate_code_diff",
			description: "Generate and display code differences",
			schema: objectSchema(map[string]any{
				"old_code": map[string]any{
					"type":        "string",
					"description": "Original version of the code",
				},
				"new_code": map[string]any{
					"type":        "string",
					"description": "Updated version of the code",
				},
				"language": map[string]any{
					"type":        "string",
					"description": "Programming language (optional)",
				},
			}, "old_code", "new_code"),
			handler: e.generateCodeDiff,
		},
		{
			name:        "generate_documentation",
			description: "Generate technical documentation like BRD, SRD, or README",
			schema: objectSchema(map[string]any{
				"doc_type": map[string]any{
					"type":        "string",
					"enum":        []string{"BRD", "SRD", "README", "API_DOCS"},
					"description": "Type of documentation to generate",
				},
				"project_context": map[string]any{
					"type":        "string",
					"description": "Project-level description, user goal, or business purpose",
				},
				"code_structure": map[string]any{
					"type":        "string",
					"description": "Description of file structure or key components (optional)",
				},
			}, "doc_type", "project_context"),
			handler: e.generateDocumentation,
		},
		{
			name:        "generate_multiple_documentation",
			description: "Generate multiple types of technical documentation (BRD, SRD, README, API_DOCS) in one request",
			schema: objectSchema(map[string]any{
				"doc_types": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "string",
						"enum": []string{"BRD", "SRD", "README", "API_DOCS"},
					},
					"description": "List of documentation types to generate",
				},
				"project_context": map[string]any{
					"type":        "string",
					"description": "Project-level description, user goal, or business purpose",
				},
				"code_structure": map[string]any{
					"type":        "string",
					"description": "Description of file structure or key components (optional)",
				},
			}, "doc_types", "project_context"),
			handler: e.generateMultipleDocumentation,
		},
		{
			name:        "analyze_code_structure",
			description: "Analyze a file or project to detect patterns and structure",
			schema: objectSchema(map[string]any{
				"file_path": map[string]any{
					"type":        "string",
					"description": "Relative file path",
				},
				"code_content": map[string]any{
					"type":        "string",
					"description": "Source code to analyze",
				},
			}, "file_path", "code_content"),
			handler: e.analyzeCodeStructure,
		},
		{
			name:        "refactor_code",
			description: "Refactor code with a specific strategy",
			schema: objectSchema(map[string]any{
				"original_code": map[string]any{
					"type":        "string",
					"description": "The source code to be refactored",
				},
				"refactor_type": map[string]any{
					"type":        "string",
					"enum":        []string{"optimize", "modernize", "add_types", "extract_components"},
					"description": "The type of refactoring to apply",
				},
			}, "original_code", "refactor_type"),
			handler: e.refactorCode,
		},
		{
			name:        "read_file",
			description: "Reads the content of a specified file.",
			schema: objectSchema(map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "The path to the file to read (relative to project root)",
				},
			}, "path"),
			handler: e.readFile,
		},
		{
			name:        "write_file",
			description: "Writes content to a specified file.",
			schema: objectSchema(map[string]any{
				"file_path": map[string]any{
					"type":        "string",
					"description": "The path to the file to write (relative to project root)",
				},
				"content": map[string]any{
					"type":        "string",
					"description": "The content to write to the file",
				},
			}, "file_path", "content"),
			handler: e.writeFile,
		},
		{
			name:        "list_directory",
			description: "Lists the project file tree.",
			schema:      objectSchema(map[string]any{}),
			handler:     e.listDirectory,
		},
		{
			name:        "generate_code",
			description: "Generates code for multiple files based on a list of prompts and saves them to specified file paths.",
			schema: objectSchema(map[string]any{
				"items": map[string]any{
					"type":        "array",
					"description": "A list of code generation requests.",
					"items": objectSchema(map[string]any{
						"prompt": map[string]any{
							"type":        "string",
							"description": "Natural language description of the code to generate for this item",
						},
						"file_path": map[string]any{
							"type":        "string",
							"description": "The specific file path (relative to project root) where this code should be saved",
						},
						"language": map[string]any{
							"type":        "string",
							"description": "Programming language for this code item (e.g., python, javascript, typescript)",
						},
					}, "prompt", "file_path"),
				},
			}, "items"),
			handler: e.generateCode,
		},
		{
			name:        "modify_file_with_diff",
			description: "Modify an existing file with AI assistance and generate a diff for user approval. Use this when the user wants to make changes to a specific file.",
			schema: objectSchema(map[string]any{
				"file_path": map[string]any{
					"type":        "string",
					"description": "Path to the file to modify (relative to project root)",
				},
				"modification_request": map[string]any{
					"type":        "string",
					"description": "Description of the changes to make to the file",
				},
				"current_content": map[string]any{
					"type":        "string",
					"description": "Current file content (optional, will be auto-fetched if not provided)",
				},
			}, "file_path", "modification_request"),
			handler: e.modifyFileWithDiff,
		},
		{
			name:        "smart_code_action",
			description: "Perform intelligent code improvements based on natural language requests. Can optimize code, add type hints, modernize syntax, add error handling, etc.",
			schema: objectSchema(map[string]any{
				"file_path": map[string]any{
					"type":        "string",
					"description": "Path to the file to improve (relative to project root)",
				},
				"action_request": map[string]any{
					"type":        "string",
					"description": "Natural language description of the improvement to make",
				},
				"file_content": map[string]any{
					"type":        "string",
					"description": "Current file content (optional, will be auto-fetched if not provided)",
				},
			}, "file_path", "action_request"),
			handler: e.smartCodeAction,
		},
		{
			name:        "security_analysis",
			description: "Perform comprehensive security analysis to find vulnerabilities, weak cryptography, and security issues",
			schema: objectSchema(map[string]any{
				"file_path": map[string]any{
					"type":        "string",
					"description": "Relative file path",
				},
				"code_content": map[string]any{
					"type":        "string",
					"description": "Source code to scan",
				},
			}, "file_path", "code_content"),
			handler: e.securityAnalysis,
		},
		{
			name:        "comprehensive_code_review",
			description: "Perform a comprehensive code review combining security analysis, code quality metrics, and AI insights",
			schema: objectSchema(map[string]any{
				"file_path": map[string]any{
					"type":        "string",
					"description": "Path to the file to review (relative to project root)",
				},
				"file_content": map[string]any{
					"type":        "string",
					"description": "Current file content (optional, will be auto-fetched if not provided)",
				},
				"review_focus": map[string]any{
					"type":        "string",
					"enum":        []string{"all", "security", "performance", "maintainability", "style"},
					"description": "Aspect to focus the review on (defaults to all)",
				},
			}, "file_path"),
			handler: e.comprehensiveCodeReview,
		},
	}

	for _, b := range builtins {
		if err := e.register(b.name, b.description, b.schema, b.handler); err != nil {
			return err
		}
	}
	return nil
}
