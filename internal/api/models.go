package api

import (
	"net/http"
	"time"
)

var modelDetails = map[string]struct {
	name         string
	description  string
	capabilities []string
}{
	"gpt-4o": {
		name:        "GPT-4o",
		description: "Advanced OpenAI model with vision capabilities",
		capabilities: []string{
			"text-generation",
			"code-generation",
			"tool-calling",
			"image-analysis",
		},
	},
	"claude-3.5-sonnet": {
		name:        "Claude 3.5 Sonnet",
		description: "Advanced Anthropic model for complex reasoning",
		capabilities: []string{
			"text-generation",
			"code-generation",
			"tool-calling",
			"reasoning",
		},
	},
}

type modelEntry struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Provider     string   `json:"provider"`
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities"`
	Available    bool     `json:"available"`
}

// handleModels returns the model catalog with availability status.
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	catalog := s.registry.Models()

	models := make([]modelEntry, 0, len(catalog))
	available := 0
	for _, m := range catalog {
		entry := modelEntry{
			ID:        m.ID,
			Name:      m.ID,
			Provider:  m.Provider,
			Available: m.Available,
		}
		if details, ok := modelDetails[m.ID]; ok {
			entry.Name = details.name
			entry.Description = details.description
			entry.Capabilities = details.capabilities
		}
		if m.Available {
			available++
		}
		models = append(models, entry)
	}

	writeData(w, http.StatusOK, map[string]any{
		"models":    models,
		"total":     len(models),
		"available": available,
	})
}

// handleHealth reports service health. All providers usable means healthy,
// some means degraded but still serving, none means unhealthy and the
// endpoint answers 503 so load balancers can route around it.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	services := map[string]bool{"gateway": true}
	available := 0
	total := 0
	for _, m := range s.registry.Models() {
		services[m.Provider] = m.Available
		total++
		if m.Available {
			available++
		}
	}

	status := "healthy"
	code := http.StatusOK
	switch {
	case available == 0:
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	case available < total:
		status = "degraded"
	}

	writeData(w, code, map[string]any{
		"status":         status,
		"version":        Version,
		"uptime_seconds": int(time.Since(s.started).Seconds()),
		"services":       services,
		"timestamp":      time.Now().UnixMilli(),
	})
}

// handleRoot returns service information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":     "Codex Assistant",
		"version":     Version,
		"description": "AI services for code generation, analysis, and documentation",
		"status":      "healthy",
		"endpoints": map[string]string{
			"chat":   "/api/chat",
			"models": "/api/models",
			"health": "/api/health",
		},
	})
}
