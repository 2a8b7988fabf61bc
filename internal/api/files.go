package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"codex-assistant/internal/workspace"
)

// handleFileTree returns the filtered recursive listing of the workspace.
func (s *Server) handleFileTree(w http.ResponseWriter, r *http.Request) {
	workingDir := r.URL.Query().Get("workingDirectory")

	tree, err := s.store.Tree(workingDir)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string][]workspace.TreeNode{"tree": tree})
}

// handleFileContent returns the content of one workspace file.
func (s *Server) handleFileContent(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	workingDir := r.URL.Query().Get("workingDirectory")

	if path == "" {
		writeBadRequest(w, "path query parameter is required")
		return
	}

	content, err := s.store.Read(path, workingDir)
	if err != nil {
		switch {
		case os.IsNotExist(err):
			writeNotFound(w, "File not found: "+path)
		case errors.Is(err, workspace.ErrPathEscape),
			errors.Is(err, workspace.ErrAbsolutePath),
			errors.Is(err, workspace.ErrEmptyPath):
			writeBadRequest(w, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"content": content})
}

// WriteFileRequest is the body of POST /api/files/write.
type WriteFileRequest struct {
	FilePath         string `json:"file_path"`
	Content          string `json:"content"`
	WorkingDirectory string `json:"workingDirectory,omitempty"`
}

// handleFileWrite writes content to a workspace file.
func (s *Server) handleFileWrite(w http.ResponseWriter, r *http.Request) {
	var req WriteFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}
	if req.FilePath == "" {
		writeBadRequest(w, "file_path is required")
		return
	}

	if err := s.store.Write(req.FilePath, req.Content, req.WorkingDirectory); err != nil {
		switch {
		case errors.Is(err, workspace.ErrPathEscape),
			errors.Is(err, workspace.ErrAbsolutePath),
			errors.Is(err, workspace.ErrEmptyPath):
			writeBadRequest(w, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Message: "wrote " + req.FilePath,
	})
}
