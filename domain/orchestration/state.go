package orchestration

// State is a step in the per-request lifecycle.
type State string

// Lifecycle states.
const (
	StateValidating   State = "validating"
	StateCacheLookup  State = "cache_lookup"
	StateCacheHit     State = "cache_hit"
	StateDispatching  State = "dispatching"
	StateReducing     State = "reducing"
	StateSuccess      State = "success"
	StateTotalFailure State = "total_failure"
	StateRejected     State = "rejected"
)

// IsTerminal returns true for states that end a request.
func (s State) IsTerminal() bool {
	switch s {
	case StateCacheHit, StateSuccess, StateTotalFailure, StateRejected:
		return true
	default:
		return false
	}
}

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}
