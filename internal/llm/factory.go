package llm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/corroborate/internal/model"
)

type constructor func(Config) (Provider, error)

func wrap[P Provider](build func(Config) (P, error)) constructor {
	return func(c Config) (Provider, error) {
		p, err := build(c)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

// constructors maps every accepted provider name, aliases included
var constructors = map[string]constructor{
	"openai":    wrap(NewOpenAIProvider),
	"anthropic": wrap(NewAnthropicProvider),
	"claude":    wrap(NewAnthropicProvider),
	"google":    wrap(NewGoogleProvider),
	"gemini":    wrap(NewGoogleProvider),
	"ollama":    wrap(NewOllamaProvider),
}

// NewProvider builds the provider config names. An empty name means no
// judge is configured and yields a nil Provider without error.
func NewProvider(config Config) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(config.Provider))
	if name == "" {
		return nil, nil
	}
	build, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("unknown llm provider %q (supported: %s)", config.Provider, strings.Join(providerNames(), ", "))
	}
	return build(config)
}

func providerNames() []string {
	names := make([]string, 0, len(constructors))
	for n := range constructors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ConfigFromModel maps the file configuration onto provider settings
func ConfigFromModel(c model.LLMConfig) Config {
	return Config{
		Provider:    c.Provider,
		Model:       c.Model,
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Timeout:     c.Timeout,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		HTTPProxy:   c.HTTPProxy,
		HTTPSProxy:  c.HTTPSProxy,
	}
}
