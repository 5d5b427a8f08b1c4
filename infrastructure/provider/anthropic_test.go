package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewAnthropicProvider(t *testing.T) {
	t.Parallel()

	provider := NewAnthropicProvider(AnthropicConfig{APIKey: "test-key", Model: "claude-sonnet-4-20250514"})

	if provider.baseURL != "https://api.anthropic.com" {
		t.Errorf("BaseURL = %s, want https://api.anthropic.com", provider.baseURL)
	}
	if provider.Name() != "anthropic" {
		t.Errorf("Name() = %s, want anthropic", provider.Name())
	}
}

func TestAnthropicProvider_Complete(t *testing.T) {
	t.Parallel()

	t.Run("moves system prompt and defaults max tokens", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/messages" {
				t.Errorf("Path = %s, want /v1/messages", r.URL.Path)
			}
			if r.Header.Get("x-api-key") != "test-key" {
				t.Errorf("x-api-key header not set correctly")
			}
			if r.Header.Get("anthropic-version") == "" {
				t.Errorf("anthropic-version header missing")
			}

			var req anthropicRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("Failed to decode request: %v", err)
			}
			if req.System != "You are Vigil." {
				t.Errorf("System = %s, want You are Vigil.", req.System)
			}
			if len(req.Messages) != 3 {
				t.Errorf("Messages length = %d, want 3", len(req.Messages))
			}
			if req.MaxTokens != 1024 {
				t.Errorf("MaxTokens = %d, want 1024", req.MaxTokens)
			}

			_ = json.NewEncoder(w).Encode(anthropicResponse{
				ID:      "msg_1",
				Role:    "assistant",
				Model:   "claude-sonnet-4-20250514",
				Content: []anthropicContent{{Type: "text", Text: "Greetings"}},
			})
		}))
		defer server.Close()

		provider := NewAnthropicProvider(AnthropicConfig{APIKey: "test-key", BaseURL: server.URL})
		resp, err := provider.Complete(context.Background(), CompletionRequest{
			Messages: []Message{
				{Role: "system", Content: "You are Vigil."},
				{Role: "user", Content: "hi"},
				{Role: "assistant", Content: "hello"},
				{Role: "user", Content: "who are you?"},
			},
		})
		if err != nil {
			t.Fatalf("Complete() error = %v", err)
		}
		if resp.Message.Content != "Greetings" {
			t.Errorf("Content = %s, want Greetings", resp.Message.Content)
		}
	})

	t.Run("returns status error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		provider := NewAnthropicProvider(AnthropicConfig{APIKey: "bad", BaseURL: server.URL})
		if _, err := provider.Complete(context.Background(), CompletionRequest{}); err == nil {
			t.Error("Complete() should fail on 401")
		}
	})
}
