package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/vigil/domain/conversation"
)

type stubProvider struct {
	resp CompletionResponse
	err  error
	last CompletionRequest
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	s.last = req
	return s.resp, s.err
}

func TestBuildMessages(t *testing.T) {
	t.Parallel()

	history := conversation.Context{
		{Role: conversation.RoleUser, Text: "hi"},
		{Role: conversation.RoleAssistant, Text: "hello"},
	}

	tests := []struct {
		name      string
		system    string
		history   conversation.Context
		wantLen   int
		wantFirst string
	}{
		{name: "system and history", system: "sys", history: history, wantLen: 4, wantFirst: "system"},
		{name: "no system prompt", history: history, wantLen: 3, wantFirst: "user"},
		{name: "empty history", system: "sys", wantLen: 2, wantFirst: "system"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			msgs := BuildMessages(tt.system, tt.history, "question")
			if len(msgs) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(msgs), tt.wantLen)
			}
			if msgs[0].Role != tt.wantFirst {
				t.Errorf("first role = %s, want %s", msgs[0].Role, tt.wantFirst)
			}
			last := msgs[len(msgs)-1]
			if last.Role != "user" || last.Content != "question" {
				t.Errorf("last = %+v, want user question", last)
			}
		})
	}
}

func TestChatAdapter_Call(t *testing.T) {
	t.Parallel()

	t.Run("returns content and forwards options", func(t *testing.T) {
		t.Parallel()

		stub := &stubProvider{resp: CompletionResponse{Message: Message{Content: "42"}}}
		adapter := NewChatAdapter("gpt", stub,
			WithSystemPrompt("sys"),
			WithModel("gpt-4o-mini"),
			WithTemperature(0.2),
			WithMaxTokens(100),
		)

		got, err := adapter.Call(context.Background(), "answer?", nil)
		if err != nil {
			t.Fatalf("Call() error = %v", err)
		}
		if got != "42" {
			t.Errorf("Call() = %s, want 42", got)
		}
		if adapter.ID() != "gpt" {
			t.Errorf("ID() = %s, want gpt", adapter.ID())
		}
		if stub.last.Model != "gpt-4o-mini" || stub.last.MaxTokens != 100 || stub.last.Temperature != 0.2 {
			t.Errorf("request = %+v, options not forwarded", stub.last)
		}
	})

	t.Run("falls back to provider name for id", func(t *testing.T) {
		t.Parallel()

		adapter := NewChatAdapter("", &stubProvider{})
		if adapter.ID() != "stub" {
			t.Errorf("ID() = %s, want stub", adapter.ID())
		}
	})

	t.Run("surfaces transport errors", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		adapter := NewChatAdapter("x", &stubProvider{err: boom})
		if _, err := adapter.Call(context.Background(), "q", nil); !errors.Is(err, boom) {
			t.Errorf("Call() error = %v, want boom", err)
		}
	})

	t.Run("surfaces API errors", func(t *testing.T) {
		t.Parallel()

		adapter := NewChatAdapter("x", &stubProvider{resp: CompletionResponse{Error: &APIError{Type: "overloaded", Message: "busy"}}})
		_, err := adapter.Call(context.Background(), "q", nil)
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Errorf("Call() error = %v, want APIError", err)
		}
	})

	t.Run("rejects blank answers", func(t *testing.T) {
		t.Parallel()

		adapter := NewChatAdapter("x", &stubProvider{resp: CompletionResponse{Message: Message{Content: "  \n"}}})
		if _, err := adapter.Call(context.Background(), "q", nil); !errors.Is(err, ErrEmptyResponse) {
			t.Errorf("Call() error = %v, want ErrEmptyResponse", err)
		}
	})
}
