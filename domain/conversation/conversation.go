// Package conversation provides the turn and exchange model shared by the
// orchestrator and the memory stores.
package conversation

import (
	"time"
)

// Role identifies the author of a turn.
type Role string

// Roles understood by every provider adapter.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is a recognized role.
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// Turn is a single message in a conversation.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Context is the ordered sequence of prior turns.
// Its length decides whether a request may use the response cache.
type Context []Turn

// Len returns the number of turns.
func (c Context) Len() int {
	return len(c)
}

// Last returns the most recent n turns. A non-positive n returns an empty context.
func (c Context) Last(n int) Context {
	if n <= 0 {
		return Context{}
	}
	if n >= len(c) {
		return c.Clone()
	}
	return c[len(c)-n:].Clone()
}

// Clone returns a copy that shares no backing array with c.
func (c Context) Clone() Context {
	out := make(Context, len(c))
	copy(out, c)
	return out
}

// Append returns a new context with the turn added, keeping at most maxTurns
// of the newest turns. A non-positive maxTurns keeps everything.
func (c Context) Append(maxTurns int, turns ...Turn) Context {
	out := make(Context, 0, len(c)+len(turns))
	out = append(out, c...)
	out = append(out, turns...)
	if maxTurns > 0 && len(out) > maxTurns {
		out = out[len(out)-maxTurns:]
	}
	return out
}
