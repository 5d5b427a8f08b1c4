package provider

import (
	"context"
	"strings"

	"github.com/felixgeelhaar/vigil/domain/conversation"
	"github.com/felixgeelhaar/vigil/domain/orchestration"
)

// ChatAdapter exposes a chat Provider as an orchestration.Adapter.
// It renders the system prompt, the conversation context and the prompt
// as one message list per call.
type ChatAdapter struct {
	id           string
	provider     Provider
	systemPrompt string
	model        string
	temperature  float64
	maxTokens    int
}

// AdapterOption configures a ChatAdapter.
type AdapterOption func(*ChatAdapter)

// WithSystemPrompt sets the system prompt prepended to every call.
func WithSystemPrompt(prompt string) AdapterOption {
	return func(a *ChatAdapter) {
		a.systemPrompt = prompt
	}
}

// WithModel overrides the provider's default model.
func WithModel(model string) AdapterOption {
	return func(a *ChatAdapter) {
		a.model = model
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) AdapterOption {
	return func(a *ChatAdapter) {
		a.temperature = t
	}
}

// WithMaxTokens bounds the answer length.
func WithMaxTokens(n int) AdapterOption {
	return func(a *ChatAdapter) {
		a.maxTokens = n
	}
}

// NewChatAdapter creates an adapter with the given id around a provider.
// An empty id falls back to the provider name.
func NewChatAdapter(id string, p Provider, opts ...AdapterOption) *ChatAdapter {
	if id == "" {
		id = p.Name()
	}
	a := &ChatAdapter{
		id:       id,
		provider: p,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ID returns the adapter id.
func (a *ChatAdapter) ID() string {
	return a.id
}

// Call sends the prompt with its context and returns the answer text.
func (a *ChatAdapter) Call(ctx context.Context, prompt string, history conversation.Context) (string, error) {
	resp, err := a.provider.Complete(ctx, CompletionRequest{
		Model:       a.model,
		Messages:    BuildMessages(a.systemPrompt, history, prompt),
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", resp.Error
	}
	if strings.TrimSpace(resp.Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return resp.Message.Content, nil
}

// BuildMessages renders a system prompt, prior turns and the new prompt as
// chat messages. System turns inside the history are kept in place.
func BuildMessages(systemPrompt string, history conversation.Context, prompt string) []Message {
	messages := make([]Message, 0, len(history)+2)
	if systemPrompt != "" {
		messages = append(messages, Message{Role: string(conversation.RoleSystem), Content: systemPrompt})
	}
	for _, turn := range history {
		messages = append(messages, Message{Role: string(turn.Role), Content: turn.Text})
	}
	return append(messages, Message{Role: string(conversation.RoleUser), Content: prompt})
}

var _ orchestration.Adapter = (*ChatAdapter)(nil)
