// Package provider contains the model adapters that translate upstream
// streaming protocols into the unified event stream, executing tools when
// the model asks for them.
package provider

import (
	"context"
	"errors"

	"codex-assistant/internal/stream"
)

// ChatContext carries editor state the client attaches to a chat message.
type ChatContext struct {
	FilePath         string            `json:"file_path,omitempty"`
	CodeContent      string            `json:"code_content,omitempty"`
	ProjectStructure string            `json:"project_structure,omitempty"`
	ReferencedFiles  map[string]string `json:"referenced_files,omitempty"`
	WorkingDirectory string            `json:"working_directory,omitempty"`
}

// ChatRequest is a single user turn plus its context.
type ChatRequest struct {
	Message string
	Context *ChatContext
}

// Provider adapts one upstream model family to the unified event stream.
// StreamChat reports configuration problems synchronously; everything that
// happens after the stream opens is reported in-band as events.
type Provider interface {
	Name() string
	ModelID() string
	Available() bool
	StreamChat(ctx context.Context, req ChatRequest) (<-chan stream.Event, error)
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// ModelInfo describes one entry of the model catalog.
type ModelInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Provider  string `json:"provider"`
	Available bool   `json:"available"`
}

// ErrNoProvider is returned when no configured provider can serve a request.
var ErrNoProvider = errors.New("no AI provider configured")

// Registry holds the configured providers keyed by model identifier.
type Registry struct {
	byModel map[string]Provider
	order   []Provider
}

// NewRegistry builds a registry. Provider order determines generator
// preference.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{byModel: make(map[string]Provider)}
	for _, p := range providers {
		r.byModel[p.ModelID()] = p
		r.order = append(r.order, p)
	}
	return r
}

// Lookup returns the provider serving the given model identifier.
func (r *Registry) Lookup(modelID string) (Provider, bool) {
	p, ok := r.byModel[modelID]
	return p, ok
}

// Models returns the catalog in registration order.
func (r *Registry) Models() []ModelInfo {
	models := make([]ModelInfo, 0, len(r.order))
	for _, p := range r.order {
		models = append(models, ModelInfo{
			ID:        p.ModelID(),
			Name:      p.ModelID(),
			Provider:  p.Name(),
			Available: p.Available(),
		})
	}
	return models
}

// Healthy reports whether at least one provider is available.
func (r *Registry) Healthy() bool {
	for _, p := range r.order {
		if p.Available() {
			return true
		}
	}
	return false
}

// GenerateText delegates to the first available provider, letting the
// registry stand in as the text generator for generator-backed tools.
func (r *Registry) GenerateText(ctx context.Context, prompt string) (string, error) {
	for _, p := range r.order {
		if p.Available() {
			return p.GenerateText(ctx, prompt)
		}
	}
	return "", ErrNoProvider
}
