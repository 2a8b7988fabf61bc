package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeTestabilityEndpoint(t *testing.T) {
	_, router := newTestServer(t)

	rec := postJSON(t, router, "/api/test-generation/analyze-testability", map[string]any{
		"file_path":    "calc.py",
		"code_content": "def add(a, b):\n    return a + b\n",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Language  string  `json:"language"`
			Score     float64 `json:"testability_score"`
			Framework string  `json:"suggested_framework"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.Data.Language != "python" {
		t.Errorf("body = %s, want python report", rec.Body.String())
	}
	if resp.Data.Framework != "pytest" {
		t.Errorf("framework = %q, want pytest", resp.Data.Framework)
	}
	if resp.Data.Score <= 0 {
		t.Errorf("score = %v, want positive", resp.Data.Score)
	}
}

func TestAnalyzeTestabilityEndpointValidation(t *testing.T) {
	_, router := newTestServer(t)

	rec := postJSON(t, router, "/api/test-generation/analyze-testability", map[string]any{
		"code_content": "def add(): pass",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing file_path status = %d, want 400", rec.Code)
	}

	// No inline content and no such file in the workspace.
	rec = postJSON(t, router, "/api/test-generation/analyze-testability", map[string]any{
		"file_path": "ghost.py",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing file status = %d, want 404", rec.Code)
	}
}

func TestGenerateTestsEndpoint(t *testing.T) {
	_, router := newTestServer(t, &scriptedProvider{name: "openai", modelID: "gpt-4o", available: true})

	rec := postJSON(t, router, "/api/test-generation/generate-tests", map[string]any{
		"file_path":    "src/calc.py",
		"code_content": "def add(a, b):\n    return a + b\n",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			TestFilePath string `json:"test_file_path"`
			Framework    string `json:"framework"`
			TestCode     string `json:"test_code"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.TestFilePath != "src/test_calc.py" {
		t.Errorf("test file path = %q", resp.Data.TestFilePath)
	}
	if resp.Data.Framework != "pytest" {
		t.Errorf("framework = %q, want pytest", resp.Data.Framework)
	}
	if resp.Data.TestCode == "" {
		t.Error("empty test code")
	}
}

func TestGenerateTestsEndpointNoProvider(t *testing.T) {
	_, router := newTestServer(t, &scriptedProvider{name: "openai", modelID: "gpt-4o"})

	rec := postJSON(t, router, "/api/test-generation/generate-tests", map[string]any{
		"file_path":    "calc.py",
		"code_content": "def add(): pass",
	})
	if rec.Code != http.StatusInternalServerError && rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want failure without an available provider", rec.Code)
	}
}

func TestSupportedFrameworksEndpoint(t *testing.T) {
	_, router := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/test-generation/supported-frameworks", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Data struct {
			Frameworks map[string][]string `json:"frameworks"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(strings.Join(resp.Data.Frameworks["python"], ","), "pytest") {
		t.Errorf("frameworks = %v, want pytest for python", resp.Data.Frameworks)
	}
}
