package provider

import (
	"context"
	"sync"
	"time"

	"github.com/felixgeelhaar/vigil/domain/conversation"
	"github.com/felixgeelhaar/vigil/domain/orchestration"
)

// ScriptedAdapter is a deterministic orchestration.Adapter for tests and
// offline runs. It answers after a fixed latency and records every call.
type ScriptedAdapter struct {
	id            string
	answer        string
	err           error
	latency       time.Duration
	ignoreContext bool
	answerFn      func(prompt string, history conversation.Context) (string, error)

	mu      sync.Mutex
	calls   int
	prompts []string
	history []conversation.Context
}

// ScriptedOption configures a ScriptedAdapter.
type ScriptedOption func(*ScriptedAdapter)

// WithAnswer sets the fixed answer.
func WithAnswer(answer string) ScriptedOption {
	return func(a *ScriptedAdapter) {
		a.answer = answer
	}
}

// WithError makes every call fail with err.
func WithError(err error) ScriptedOption {
	return func(a *ScriptedAdapter) {
		a.err = err
	}
}

// WithLatency delays every answer by d.
func WithLatency(d time.Duration) ScriptedOption {
	return func(a *ScriptedAdapter) {
		a.latency = d
	}
}

// WithIgnoreContext makes the adapter sleep through cancellation, like a
// client that does not honor its context.
func WithIgnoreContext() ScriptedOption {
	return func(a *ScriptedAdapter) {
		a.ignoreContext = true
	}
}

// WithAnswerFunc computes the answer from the call arguments.
func WithAnswerFunc(fn func(prompt string, history conversation.Context) (string, error)) ScriptedOption {
	return func(a *ScriptedAdapter) {
		a.answerFn = fn
	}
}

// NewScriptedAdapter creates a scripted adapter with the given id.
func NewScriptedAdapter(id string, opts ...ScriptedOption) *ScriptedAdapter {
	a := &ScriptedAdapter{id: id, answer: id + " answer"}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ID returns the adapter id.
func (a *ScriptedAdapter) ID() string {
	return a.id
}

// Call records the call, waits for the configured latency and answers.
func (a *ScriptedAdapter) Call(ctx context.Context, prompt string, history conversation.Context) (string, error) {
	a.mu.Lock()
	a.calls++
	a.prompts = append(a.prompts, prompt)
	a.history = append(a.history, history.Clone())
	a.mu.Unlock()

	if a.latency > 0 {
		if a.ignoreContext {
			time.Sleep(a.latency)
		} else {
			timer := time.NewTimer(a.latency)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}

	if a.answerFn != nil {
		return a.answerFn(prompt, history)
	}
	if a.err != nil {
		return "", a.err
	}
	return a.answer, nil
}

// Calls returns the number of calls made.
func (a *ScriptedAdapter) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// Prompts returns the prompts received, in call order.
func (a *ScriptedAdapter) Prompts() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.prompts...)
}

// LastHistory returns the context passed to the most recent call.
func (a *ScriptedAdapter) LastHistory() conversation.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.history) == 0 {
		return nil
	}
	return a.history[len(a.history)-1]
}

var _ orchestration.Adapter = (*ScriptedAdapter)(nil)
