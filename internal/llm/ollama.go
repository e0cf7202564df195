package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultOllamaURL = "http://localhost:11434"

// OllamaProvider calls a local Ollama server over its chat endpoint
type OllamaProvider struct {
	endpoint string
	client   *http.Client
	config   Config
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"`
	Options  map[string]any  `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
	Error           string        `json:"error"`
}

// NewOllamaProvider needs a model name; the server defaults to localhost
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	if config.Model == "" {
		return nil, fmt.Errorf("ollama: model is required (e.g. llama3.1:8b)")
	}
	base := config.BaseURL
	if base == "" {
		base = defaultOllamaURL
	}
	return &OllamaProvider{
		endpoint: strings.TrimRight(base, "/") + "/api/chat",
		// local models answer slower than hosted ones
		client: config.httpClient(60 * time.Second),
		config: config,
	}, nil
}

func (p *OllamaProvider) Name() string { return "ollama" }

func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model, maxTokens, temperature := p.config.resolve(req, "")

	chat := ollamaChatRequest{
		Model:   model,
		Options: map[string]any{"temperature": temperature, "num_predict": maxTokens},
	}
	if req.System != "" {
		chat.Messages = append(chat.Messages, ollamaMessage{Role: "system", Content: req.System})
	}
	chat.Messages = append(chat.Messages, ollamaMessage{Role: "user", Content: req.Prompt})
	if req.JSON {
		chat.Format = "json"
	}

	out, err := p.post(ctx, chat)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}

	text := strings.TrimSpace(out.Message.Content)
	if text == "" {
		return nil, fmt.Errorf("ollama: %w", ErrNoContent)
	}

	tokens := out.PromptEvalCount + out.EvalCount
	if tokens == 0 {
		// some models omit counts; ~4 characters per token
		tokens = (len(req.Prompt) + len(text)) / 4
	}
	return &CompletionResponse{Text: text, Model: out.Model, TokensUsed: tokens}, nil
}

func (p *OllamaProvider) post(ctx context.Context, chat ollamaChatRequest) (*ollamaChatResponse, error) {
	payload, err := json.Marshal(chat)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out ollamaChatResponse
	decodeErr := json.Unmarshal(body, &out)
	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		if decodeErr == nil && out.Error != "" {
			msg = out.Error
		}
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}
	return &out, nil
}
