// Package llm is a small client for OpenAI-compatible chat completion APIs
// with retries and token cost estimation.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Config holds configuration for an LLM client.
type Config struct {
	Model       string        `yaml:"model" json:"model" env:"LLM_MODEL"`
	APIKey      string        `yaml:"api_key" json:"-" env:"LLM_API_KEY"`
	BaseURL     string        `yaml:"base_url" json:"base_url" env:"LLM_BASE_URL"`
	MaxRetries  int           `yaml:"max_retries" json:"max_retries"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout" env:"LLM_TIMEOUT"`
	MaxTokens   int           `yaml:"max_tokens" json:"max_tokens"`
	Temperature float64       `yaml:"temperature" json:"temperature"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Model:       "gpt-4o-mini",
		BaseURL:     "https://api.openai.com/v1",
		MaxRetries:  3,
		Timeout:     60 * time.Second,
		MaxTokens:   600,
		Temperature: 0.2,
	}
}

// ErrNoAPIKey is returned by NewClient when no API key is configured.
var ErrNoAPIKey = errors.New("llm: API key is required")

// Client is the interface for chat completions.
type Client interface {
	// Generate sends a prompt and returns the model response.
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// Message represents a single message in a conversation.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// Request holds the parameters for a generation request.
type Request struct {
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// Response holds the result of a generation.
type Response struct {
	Content      string  `json:"content"`
	FinishReason string  `json:"finish_reason,omitempty"`
	TokensIn     int     `json:"tokens_in"`
	TokensOut    int     `json:"tokens_out"`
	Cost         float64 `json:"cost"`
	Model        string  `json:"model"`
	LatencyMs    int64   `json:"latency_ms"`
}

// APIError is a non-2xx reply from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm API error (%d): %s", e.StatusCode, e.Message)
}

// NewClient creates a retrying client for cfg. Zero fields take their
// DefaultConfig values.
func NewClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	def := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return wrapWithRetry(newOpenAIClient(cfg), cfg.MaxRetries), nil
}
