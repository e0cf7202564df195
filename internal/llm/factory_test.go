package llm

import (
	"testing"

	"github.com/ppiankov/corroborate/internal/model"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		config   Config
		wantName string
		wantNil  bool
		wantErr  bool
		desc     string
	}{
		{config: Config{}, wantNil: true, desc: "disabled"},
		{config: Config{Provider: "openai", APIKey: "k"}, wantName: "openai", desc: "openai"},
		{config: Config{Provider: "Claude", APIKey: "k"}, wantName: "anthropic", desc: "claude alias"},
		{config: Config{Provider: "gemini", APIKey: "k"}, wantName: "google", desc: "gemini alias"},
		{config: Config{Provider: "ollama", Model: "llama3.1"}, wantName: "ollama", desc: "ollama"},
		{config: Config{Provider: "openai"}, wantErr: true, desc: "missing key"},
		{config: Config{Provider: "watson"}, wantErr: true, desc: "unknown provider"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			p, err := NewProvider(tt.config)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil {
				if p != nil {
					t.Fatalf("expected nil provider, got %s", p.Name())
				}
				return
			}
			if p.Name() != tt.wantName {
				t.Errorf("expected %s, got %s", tt.wantName, p.Name())
			}
		})
	}
}

func TestConfigFromModel(t *testing.T) {
	cfg := ConfigFromModel(model.LLMConfig{
		Provider:    "openai",
		Model:       "gpt-4o-mini",
		APIKey:      "k",
		Timeout:     12,
		MaxTokens:   300,
		Temperature: 0.2,
		HTTPSProxy:  "http://proxy:3128",
	})

	if cfg.Provider != "openai" || cfg.Model != "gpt-4o-mini" || cfg.APIKey != "k" {
		t.Errorf("identity fields not copied: %+v", cfg)
	}
	if cfg.Timeout != 12 || cfg.MaxTokens != 300 || cfg.Temperature != 0.2 || cfg.HTTPSProxy != "http://proxy:3128" {
		t.Errorf("tuning fields not copied: %+v", cfg)
	}
}

func TestConfigResolve(t *testing.T) {
	cfg := Config{Model: "configured", MaxTokens: 0, Temperature: 0.1}

	m, maxTokens, temp := cfg.resolve(CompletionRequest{}, "fallback")
	if m != "configured" || maxTokens != 800 || temp != 0.1 {
		t.Errorf("unexpected defaults: %s %d %v", m, maxTokens, temp)
	}

	m, _, _ = Config{}.resolve(CompletionRequest{}, "fallback")
	if m != "fallback" {
		t.Errorf("expected provider default model, got %s", m)
	}
}
