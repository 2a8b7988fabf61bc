package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"codex-assistant/internal/config"
	"codex-assistant/internal/provider"
	"codex-assistant/internal/testgen"
	"codex-assistant/internal/tools"
	"codex-assistant/internal/workspace"
)

// Version reported by the service-info and health endpoints.
const Version = "1.0.0"

// Server holds all dependencies for the HTTP server.
type Server struct {
	config   *config.Config
	store    *workspace.Store
	executor *tools.Executor
	registry *provider.Registry
	testgen  *testgen.Service
	started  time.Time
}

// NewServer wires the store, tool executor and model adapters together.
func NewServer(cfg *config.Config) (*Server, error) {
	store := workspace.NewStore(cfg.WorkspaceRoot)

	executor, err := tools.NewExecutor(store)
	if err != nil {
		return nil, err
	}

	settings := provider.Settings{
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}
	registry := provider.NewRegistry(
		provider.NewOpenAI(cfg.OpenAIKey, executor, settings),
		provider.NewAnthropic(cfg.AnthropicKey, executor, settings),
	)

	// Generator-backed tools reach the model layer through the registry.
	executor.SetGenerator(registry)

	return &Server{
		config:   cfg,
		store:    store,
		executor: executor,
		registry: registry,
		testgen:  testgen.NewService(registry),
		started:  time.Now(),
	}, nil
}

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(srv *Server) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(RecovererMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Cache-Control", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Chat routes
	r.Post("/api/chat", srv.handleChat)

	// Model catalog routes
	r.Get("/api/models", srv.handleModels)
	r.Get("/api/health", srv.handleHealth)

	// Test generation routes
	r.Route("/api/test-generation", func(r chi.Router) {
		r.Post("/analyze-testability", srv.handleTestability)
		r.Post("/generate-tests", srv.handleGenerateTests)
		r.Get("/supported-frameworks", srv.handleSupportedFrameworks)
	})

	// File routes
	r.Get("/api/files/tree", srv.handleFileTree)
	r.Get("/api/files/content", srv.handleFileContent)
	r.Post("/api/files/write", srv.handleFileWrite)

	// Service info
	r.Get("/", srv.handleRoot)

	return r
}
