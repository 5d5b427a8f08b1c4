// Package statemachine provides the statekit integration for the request lifecycle.
package statemachine

import (
	"time"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/vigil/domain/orchestration"
)

// Transition is one recorded state change.
type Transition struct {
	From orchestration.State
	To   orchestration.State
	At   time.Time
}

// Context carries request state through the state machine.
type Context struct {
	RequestID   string
	State       orchestration.State
	Eligible    bool
	Transitions []Transition
}

// NewContext creates a new machine context for a request.
func NewContext(requestID string, eligible bool) *Context {
	return &Context{
		RequestID: requestID,
		Eligible:  eligible,
	}
}

// Events driving the lifecycle.
const (
	EventLookup   statekit.EventType = "LOOKUP"
	EventHit      statekit.EventType = "HIT"
	EventMiss     statekit.EventType = "MISS"
	EventDispatch statekit.EventType = "DISPATCH"
	EventReduce   statekit.EventType = "REDUCE"
	EventSucceed  statekit.EventType = "SUCCEED"
	EventFail     statekit.EventType = "FAIL"
	EventReject   statekit.EventType = "REJECT"
)

// State IDs as StateID type for statekit.
const (
	stateValidating   statekit.StateID = statekit.StateID(orchestration.StateValidating)
	stateCacheLookup  statekit.StateID = statekit.StateID(orchestration.StateCacheLookup)
	stateCacheHit     statekit.StateID = statekit.StateID(orchestration.StateCacheHit)
	stateDispatching  statekit.StateID = statekit.StateID(orchestration.StateDispatching)
	stateReducing     statekit.StateID = statekit.StateID(orchestration.StateReducing)
	stateSuccess      statekit.StateID = statekit.StateID(orchestration.StateSuccess)
	stateTotalFailure statekit.StateID = statekit.StateID(orchestration.StateTotalFailure)
	stateRejected     statekit.StateID = statekit.StateID(orchestration.StateRejected)
)

// NewRequestMachine creates the request lifecycle statechart.
//
//	validating -> cache_lookup -> cache_hit
//	                           -> dispatching -> reducing -> success | total_failure
//	validating -> dispatching (cache ineligible)
//	validating -> rejected
func NewRequestMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context]("request").
		WithInitial(stateValidating).
		WithContext(&Context{}).
		WithAction("enterState", enterState).
		WithAction("recordTransition", recordTransition).
		WithGuard("eligible", guardEligible).
		WithGuard("ineligible", guardIneligible).
		State(stateValidating).
			OnEntry("enterState").
			On(EventLookup).Target(stateCacheLookup).Guard("eligible").Do("recordTransition").
			On(EventDispatch).Target(stateDispatching).Guard("ineligible").Do("recordTransition").
			On(EventReject).Target(stateRejected).Do("recordTransition").
			Done().
		State(stateCacheLookup).
			OnEntry("enterState").
			On(EventHit).Target(stateCacheHit).Do("recordTransition").
			On(EventMiss).Target(stateDispatching).Do("recordTransition").
			Done().
		State(stateDispatching).
			OnEntry("enterState").
			On(EventReduce).Target(stateReducing).Do("recordTransition").
			Done().
		State(stateReducing).
			OnEntry("enterState").
			On(EventSucceed).Target(stateSuccess).Do("recordTransition").
			On(EventFail).Target(stateTotalFailure).Do("recordTransition").
			Done().
		State(stateCacheHit).
			Final().
			OnEntry("enterState").
			Done().
		State(stateSuccess).
			Final().
			OnEntry("enterState").
			Done().
		State(stateTotalFailure).
			Final().
			OnEntry("enterState").
			Done().
		State(stateRejected).
			Final().
			OnEntry("enterState").
			Done().
		Build()
}

// StateForEvent returns the state an event leads to.
// Every event has exactly one target.
func StateForEvent(event statekit.EventType) orchestration.State {
	switch event {
	case EventLookup:
		return orchestration.StateCacheLookup
	case EventHit:
		return orchestration.StateCacheHit
	case EventMiss, EventDispatch:
		return orchestration.StateDispatching
	case EventReduce:
		return orchestration.StateReducing
	case EventSucceed:
		return orchestration.StateSuccess
	case EventFail:
		return orchestration.StateTotalFailure
	case EventReject:
		return orchestration.StateRejected
	default:
		return orchestration.StateValidating
	}
}

// allowedEvents lists the events each non-final state accepts.
var allowedEvents = map[orchestration.State][]statekit.EventType{
	orchestration.StateValidating:  {EventLookup, EventDispatch, EventReject},
	orchestration.StateCacheLookup: {EventHit, EventMiss},
	orchestration.StateDispatching: {EventReduce},
	orchestration.StateReducing:    {EventSucceed, EventFail},
}

// Accepts reports whether the state handles the event.
func Accepts(state orchestration.State, event statekit.EventType) bool {
	for _, e := range allowedEvents[state] {
		if e == event {
			return true
		}
	}
	return false
}
