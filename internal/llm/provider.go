// Package llm adapts hosted and local language models to the single completion
// call the judge overlay needs.
package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ppiankov/corroborate/internal/util"
)

// ErrNoContent is returned when a provider answers without any text
var ErrNoContent = errors.New("llm: response contained no text content")

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one system + user prompt pair and returns the raw text answer
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// CompletionRequest is one judge prompt
type CompletionRequest struct {
	System string
	Prompt string

	// Model overrides the configured model when set
	Model string

	// MaxTokens limits the response length (0 = provider config)
	MaxTokens int

	// Temperature overrides the configured temperature when set
	Temperature *float64

	// JSON asks the provider for a JSON-only answer where the API supports it
	JSON bool
}

// CompletionResponse is the raw model output
type CompletionResponse struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "google", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, proxies, test servers)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Temperature for response generation
	Temperature float64

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "", // Disabled by default
		Timeout:     30,
		MaxTokens:   800,
		Temperature: 0.1, // Judges should be repeatable
	}
}

func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout <= 0 {
		return fallback
	}
	return time.Duration(c.Timeout) * time.Second
}

// httpClient builds the proxied client every provider talks through
func (c Config) httpClient(fallback time.Duration) *http.Client {
	return &http.Client{
		Timeout:   c.timeout(fallback),
		Transport: &http.Transport{Proxy: util.NewProxyFunc(c.HTTPProxy, c.HTTPSProxy, c.NoProxy)},
	}
}

// resolve fills request fields left empty from the provider config
func (c Config) resolve(req CompletionRequest, defaultModel string) (model string, maxTokens int, temperature float64) {
	model = req.Model
	if model == "" {
		model = c.Model
	}
	if model == "" {
		model = defaultModel
	}

	maxTokens = req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 800
	}

	temperature = c.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	return model, maxTokens, temperature
}
