package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaProvider_Complete(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("Path = %s, want /api/chat", r.URL.Path)
		}
		var req ollamaChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if req.Stream {
			t.Error("Stream should be false")
		}
		_ = json.NewEncoder(w).Encode(ollamaChatResponse{
			Model:     "llama3.2",
			Message:   ollamaMessage{Role: "assistant", Content: "local answer"},
			Done:      true,
			EvalCount: 3,
		})
	}))
	defer server.Close()

	provider := NewOllamaProvider(OllamaConfig{BaseURL: server.URL, Model: "llama3.2"})
	resp, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Message.Content != "local answer" {
		t.Errorf("Content = %s, want local answer", resp.Message.Content)
	}
	if resp.Usage.CompletionTokens != 3 {
		t.Errorf("CompletionTokens = %d, want 3", resp.Usage.CompletionTokens)
	}
}

func TestNewOllamaProvider_Defaults(t *testing.T) {
	t.Parallel()

	provider := NewOllamaProvider(OllamaConfig{})
	if provider.baseURL != "http://localhost:11434" {
		t.Errorf("BaseURL = %s, want http://localhost:11434", provider.baseURL)
	}
}
