package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"codex-assistant/internal/testgen"
)

// TestabilityRequest is the body of POST /api/test-generation/analyze-testability.
type TestabilityRequest struct {
	FilePath         string `json:"file_path"`
	CodeContent      string `json:"code_content,omitempty"`
	Language         string `json:"language,omitempty"`
	WorkingDirectory string `json:"workingDirectory,omitempty"`
}

// handleTestability scores a file for testability.
func (s *Server) handleTestability(w http.ResponseWriter, r *http.Request) {
	var req TestabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}
	if req.FilePath == "" {
		writeBadRequest(w, "file_path is required")
		return
	}

	code, ok := s.resolveCode(w, req.FilePath, req.CodeContent, req.WorkingDirectory)
	if !ok {
		return
	}

	writeData(w, http.StatusOK, testgen.AnalyzeTestability(req.FilePath, code, req.Language))
}

// GenerateTestsRequest is the body of POST /api/test-generation/generate-tests.
type GenerateTestsRequest struct {
	FilePath         string `json:"file_path"`
	CodeContent      string `json:"code_content,omitempty"`
	Language         string `json:"language,omitempty"`
	Framework        string `json:"framework,omitempty"`
	TestType         string `json:"test_type,omitempty"`
	WorkingDirectory string `json:"workingDirectory,omitempty"`
}

// handleGenerateTests generates a test suite for a file.
func (s *Server) handleGenerateTests(w http.ResponseWriter, r *http.Request) {
	var req GenerateTestsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}
	if req.FilePath == "" {
		writeBadRequest(w, "file_path is required")
		return
	}

	code, ok := s.resolveCode(w, req.FilePath, req.CodeContent, req.WorkingDirectory)
	if !ok {
		return
	}

	suite, err := s.testgen.GenerateTests(r.Context(), testgen.GenerateRequest{
		FilePath:    req.FilePath,
		CodeContent: code,
		Language:    req.Language,
		Framework:   req.Framework,
		TestType:    req.TestType,
	})
	if err != nil {
		if errors.Is(err, testgen.ErrNoGenerator) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeData(w, http.StatusOK, suite)
}

// handleSupportedFrameworks lists the test frameworks per language.
func (s *Server) handleSupportedFrameworks(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, map[string]any{
		"frameworks": testgen.SupportedFrameworks(),
	})
}

// resolveCode returns the provided content or reads the file from the
// workspace. A false return means an error response was already written.
func (s *Server) resolveCode(w http.ResponseWriter, filePath, content, workingDir string) (string, bool) {
	if content != "" {
		return content, true
	}
	code, err := s.store.Read(filePath, workingDir)
	if err != nil {
		if os.IsNotExist(err) {
			writeNotFound(w, "File not found: "+filePath)
		} else {
			writeBadRequest(w, err.Error())
		}
		return "", false
	}
	return code, true
}
