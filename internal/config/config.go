// Package config handles loading and validating configuration from environment variables.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// OpenAIKey is the API key for the OpenAI provider.
	OpenAIKey string
	// AnthropicKey is the API key for the Anthropic provider.
	AnthropicKey string
	// WorkspaceRoot is the default project directory tools operate on.
	WorkspaceRoot string
	// ServerAddr is the HTTP listen address (e.g., :8000).
	ServerAddr string
	// HeartbeatInterval is how often comment frames are sent on idle streams.
	HeartbeatInterval time.Duration
	// RequestTimeout bounds one chat stream's lifetime.
	RequestTimeout time.Duration
	// MaxTokens caps upstream completion length.
	MaxTokens int
	// Temperature is the upstream sampling temperature.
	Temperature float32
	// Environment is "development" or "production".
	Environment string
}

// Load reads configuration from environment variables.
// It loads .env file if present, but environment variables take precedence.
func Load() (*Config, error) {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		OpenAIKey:         os.Getenv("OPENAI_API_KEY"),
		AnthropicKey:      os.Getenv("ANTHROPIC_API_KEY"),
		WorkspaceRoot:     os.Getenv("WORKSPACE_ROOT"),
		ServerAddr:        os.Getenv("SERVER_ADDR"),
		Environment:       strings.TrimSpace(os.Getenv("ENVIRONMENT")),
		HeartbeatInterval: parseDurationEnv("HEARTBEAT_INTERVAL", 15*time.Second),
		RequestTimeout:    parseDurationEnv("REQUEST_TIMEOUT", 5*time.Minute),
		MaxTokens:         parseIntEnv("MAX_TOKENS", 4000),
		Temperature:       parseFloatEnv("TEMPERATURE", 0.7),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required fields and fills defaults.
func (c *Config) Validate() error {
	if c.WorkspaceRoot == "" {
		return errors.New("WORKSPACE_ROOT is required")
	}
	if c.ServerAddr == "" {
		c.ServerAddr = ":8000"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	// Provider keys are optional - a provider without a key is listed as
	// unavailable rather than failing startup.
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func parseIntEnv(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return defaultValue
	}
	return parsed
}

func parseFloatEnv(key string, defaultValue float32) float32 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 32)
	if err != nil || parsed < 0 {
		return defaultValue
	}
	return float32(parsed)
}

func parseDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return defaultValue
	}
	return parsed
}
