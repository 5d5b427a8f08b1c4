package provider

import (
	"errors"
	"testing"

	"github.com/felixgeelhaar/vigil/domain/config"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind     string
		wantName string
	}{
		{config.KindOpenAI, "openai"},
		{config.KindAnthropic, "anthropic"},
		{config.KindGemini, "gemini"},
		{config.KindPoe, "poe"},
		{config.KindOllama, "ollama"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			t.Parallel()

			p, err := New(config.ProviderConfig{ID: "x", Kind: tt.kind, APIKey: "k"})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if p.Name() != tt.wantName {
				t.Errorf("Name() = %s, want %s", p.Name(), tt.wantName)
			}
		})
	}

	t.Run("unknown kind", func(t *testing.T) {
		t.Parallel()

		if _, err := New(config.ProviderConfig{Kind: "bedrock"}); !errors.Is(err, ErrUnknownKind) {
			t.Errorf("New() error = %v, want ErrUnknownKind", err)
		}
	})

	t.Run("applies default model", func(t *testing.T) {
		t.Parallel()

		p, _ := New(config.ProviderConfig{Kind: config.KindOpenAI, APIKey: "k"})
		if got := p.(*OpenAIProvider).model; got != "gpt-4o" {
			t.Errorf("model = %s, want gpt-4o", got)
		}
	})
}

func TestNewAdapter(t *testing.T) {
	t.Parallel()

	adapter, err := NewAdapter(config.ProviderConfig{
		ID:          "claude",
		Kind:        config.KindAnthropic,
		APIKey:      "k",
		Temperature: 0.7,
		MaxTokens:   2000,
	}, "You are Vigil.")
	if err != nil {
		t.Fatalf("NewAdapter() error = %v", err)
	}
	if adapter.ID() != "claude" {
		t.Errorf("ID() = %s, want claude", adapter.ID())
	}
	if adapter.systemPrompt != "You are Vigil." {
		t.Errorf("systemPrompt = %s", adapter.systemPrompt)
	}
	if adapter.maxTokens != 2000 {
		t.Errorf("maxTokens = %d, want 2000", adapter.maxTokens)
	}
}
