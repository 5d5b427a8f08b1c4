package provider

import (
	"fmt"

	"github.com/felixgeelhaar/vigil/domain/config"
)

// Default models per provider kind, used when the configuration names none.
var defaultModels = map[string]string{
	config.KindOpenAI:    "gpt-4o",
	config.KindAnthropic: "claude-sonnet-4-20250514",
	config.KindGemini:    "gemini-2.0-flash",
	config.KindPoe:       "Gemini-2.0-Flash",
	config.KindOllama:    "llama3.2",
}

// New creates the Provider for a provider configuration.
func New(pc config.ProviderConfig) (Provider, error) {
	model := pc.Model
	if model == "" {
		model = defaultModels[pc.Kind]
	}

	switch pc.Kind {
	case config.KindOpenAI:
		return NewOpenAIProvider(OpenAIConfig{APIKey: pc.APIKey, BaseURL: pc.BaseURL, Model: model}), nil
	case config.KindAnthropic:
		return NewAnthropicProvider(AnthropicConfig{APIKey: pc.APIKey, BaseURL: pc.BaseURL, Model: model}), nil
	case config.KindGemini:
		return NewGeminiProvider(GeminiConfig{APIKey: pc.APIKey, BaseURL: pc.BaseURL, Model: model}), nil
	case config.KindPoe:
		return NewPoeProvider(PoeConfig{APIKey: pc.APIKey, BaseURL: pc.BaseURL, Model: model}), nil
	case config.KindOllama:
		return NewOllamaProvider(OllamaConfig{BaseURL: pc.BaseURL, Model: model}), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, pc.Kind)
	}
}

// NewAdapter creates a ChatAdapter for a provider configuration.
func NewAdapter(pc config.ProviderConfig, systemPrompt string) (*ChatAdapter, error) {
	p, err := New(pc)
	if err != nil {
		return nil, err
	}

	opts := []AdapterOption{WithSystemPrompt(systemPrompt)}
	if pc.Temperature > 0 {
		opts = append(opts, WithTemperature(pc.Temperature))
	}
	if pc.MaxTokens > 0 {
		opts = append(opts, WithMaxTokens(pc.MaxTokens))
	}
	return NewChatAdapter(pc.ID, p, opts...), nil
}
