// Package memory defines the port to the conversational memory collaborator.
package memory

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/vigil/domain/conversation"
)

// DefaultMaxTurns is the number of turns kept as conversation context.
const DefaultMaxTurns = 40

// Store persists finalized exchanges.
type Store interface {
	// Append records a finalized exchange.
	Append(ctx context.Context, exchange conversation.Exchange) error

	// Recent returns up to n of the newest exchanges, oldest first.
	// A non-positive n returns every stored exchange.
	Recent(ctx context.Context, n int) ([]conversation.Exchange, error)

	// Clear removes all exchanges.
	Clear(ctx context.Context) error
}

// LoadContext reads enough recent exchanges to build a context of at most maxTurns turns.
func LoadContext(ctx context.Context, store Store, maxTurns int) (conversation.Context, error) {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	// Every exchange contributes two turns.
	exchanges, err := store.Recent(ctx, (maxTurns+1)/2)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation context: %w", err)
	}
	return conversation.FromExchanges(exchanges, maxTurns), nil
}
