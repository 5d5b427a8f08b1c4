package conversation

import "time"

// Exchange is a finalized prompt and answer pair as handed to the memory store.
type Exchange struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	Answer    string    `json:"answer"`
	Mode      string    `json:"mode"`
	Providers []string  `json:"providers,omitempty"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
}

// Turns expands the exchange into its user and assistant turns.
func (e Exchange) Turns() []Turn {
	return []Turn{
		{Role: RoleUser, Text: e.Prompt, Timestamp: e.Timestamp},
		{Role: RoleAssistant, Text: e.Answer, Timestamp: e.Timestamp},
	}
}

// FromExchanges builds a context from exchanges ordered oldest first,
// keeping at most maxTurns of the newest turns.
func FromExchanges(exchanges []Exchange, maxTurns int) Context {
	var ctx Context
	for _, e := range exchanges {
		ctx = append(ctx, e.Turns()...)
	}
	if maxTurns > 0 && len(ctx) > maxTurns {
		ctx = ctx[len(ctx)-maxTurns:]
	}
	if ctx == nil {
		return Context{}
	}
	return ctx
}
