package statemachine

import (
	"time"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/vigil/domain/orchestration"
	"github.com/felixgeelhaar/vigil/infrastructure/logging"
)

// enterState syncs the context with the state just entered.
// In statekit, actions receive a pointer to the context. Since our context is *Context,
// actions receive **Context.
func enterState(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}

	c := *ctx
	if event.Type == "" {
		c.State = orchestration.StateValidating
		return
	}
	c.State = StateForEvent(event.Type)
}

// recordTransition appends the transition and logs it at debug level.
func recordTransition(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}

	c := *ctx
	from := orchestration.StateValidating
	if n := len(c.Transitions); n > 0 {
		from = c.Transitions[n-1].To
	}
	to := StateForEvent(event.Type)

	c.Transitions = append(c.Transitions, Transition{From: from, To: to, At: time.Now()})

	logging.Debug().
		Add(logging.RequestID(c.RequestID)).
		Add(logging.FromState(from)).
		Add(logging.ToState(to)).
		Msg("state transition")
}

// guardEligible allows the cache path only for cache-eligible requests.
// Guards receive the context by value; with *Context that is the pointer itself.
func guardEligible(ctx *Context, _ statekit.Event) bool {
	return ctx != nil && ctx.Eligible
}

// guardIneligible allows direct dispatch only when the cache is skipped.
func guardIneligible(ctx *Context, _ statekit.Event) bool {
	return ctx != nil && !ctx.Eligible
}
