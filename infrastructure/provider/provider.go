// Package provider contains HTTP clients for the upstream language-model
// providers and the adapter that exposes them to the orchestrator.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Provider defines the interface for chat completion backends.
type Provider interface {
	// Complete sends a chat completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)

	// Name returns the provider name for logging.
	Name() string
}

// CompletionRequest represents a chat completion request.
type CompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// CompletionResponse represents a chat completion response.
type CompletionResponse struct {
	ID      string    `json:"id"`
	Model   string    `json:"model"`
	Message Message   `json:"message"`
	Usage   Usage     `json:"usage"`
	Error   *APIError `json:"error,omitempty"`
}

// Usage contains token usage information.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// APIError represents an API error response.
type APIError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return e.Type + ": " + e.Message + " (" + e.Code + ")"
	}
	return e.Type + ": " + e.Message
}

// StatusError reports a non-200 HTTP response from a provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// Provider errors.
var (
	// ErrEmptyResponse indicates the provider answered without any text.
	ErrEmptyResponse = errors.New("empty response from provider")

	// ErrNoChoices indicates the provider returned no completion candidates.
	ErrNoChoices = errors.New("no choices in response")

	// ErrUnknownKind indicates an unsupported provider kind.
	ErrUnknownKind = errors.New("unknown provider kind")
)

// maxErrorBody bounds how much of an error body ends up in logs.
const maxErrorBody = 512

// sanitizeProviderError builds a StatusError with a trimmed, bounded body.
// Request URLs are never included since some providers carry keys in them.
func sanitizeProviderError(name string, status int, body []byte) error {
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	return &StatusError{Provider: name, StatusCode: status, Body: text}
}

// defaultTimeout is the HTTP client timeout in seconds. Per-call deadlines
// are set by the caller's context.
const defaultTimeout = 120
