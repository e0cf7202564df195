package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	googleoption "google.golang.org/api/option"
)

const defaultGoogleModel = "gemini-1.5-flash"

// GoogleProvider implements the Provider interface for Gemini models.
// A genai.Client is created per call so the caller's context governs the
// connection and the client is always closed after use.
type GoogleProvider struct {
	config Config
}

// NewGoogleProvider creates a new Google provider
func NewGoogleProvider(config Config) (*GoogleProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Google API key is required")
	}
	return &GoogleProvider{config: config}, nil
}

// Name returns the provider name
func (p *GoogleProvider) Name() string {
	return "google"
}

// Complete runs one GenerateContent call
func (p *GoogleProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model, maxTokens, temperature := p.config.resolve(req, defaultGoogleModel)

	opts := []googleoption.ClientOption{googleoption.WithAPIKey(p.config.APIKey)}
	if p.config.BaseURL != "" {
		opts = append(opts, googleoption.WithEndpoint(p.config.BaseURL))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("google: genai client: %w", err)
	}
	defer func() { _ = client.Close() }()

	m := client.GenerativeModel(model)
	if req.System != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	maxOut := int32(maxTokens)
	m.MaxOutputTokens = &maxOut
	temp := float32(temperature)
	m.Temperature = &temp
	if req.JSON {
		m.ResponseMIMEType = "application/json"
	}

	resp, err := m.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return nil, fmt.Errorf("Google API error: %w", err)
	}

	var parts []string
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				parts = append(parts, string(t))
			}
		}
	}
	text := strings.TrimSpace(strings.Join(parts, ""))
	if text == "" {
		return nil, fmt.Errorf("google: %w", ErrNoContent)
	}

	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return &CompletionResponse{
		Text:       text,
		Model:      model,
		TokensUsed: tokens,
	}, nil
}
