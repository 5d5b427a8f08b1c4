// Package orchestration defines the request, result and adapter model for
// multi-provider orchestration.
package orchestration

import (
	"context"

	"github.com/felixgeelhaar/vigil/domain/conversation"
)

// Adapter is the uniform interface to one upstream model backend.
// Transport, credentials and endpoint are encapsulated by the implementation.
type Adapter interface {
	// ID returns the stable provider id used for priority and accounting.
	ID() string

	// Call sends the prompt with its conversation context and returns the answer.
	Call(ctx context.Context, prompt string, history conversation.Context) (string, error)
}

// AdapterFunc adapts a function into an Adapter.
type AdapterFunc struct {
	Name string
	Fn   func(ctx context.Context, prompt string, history conversation.Context) (string, error)
}

// ID returns the adapter id.
func (a AdapterFunc) ID() string { return a.Name }

// Call invokes the wrapped function.
func (a AdapterFunc) Call(ctx context.Context, prompt string, history conversation.Context) (string, error) {
	return a.Fn(ctx, prompt, history)
}
