package statemachine

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/vigil/domain/orchestration"
)

// ErrInvalidTransition is returned when the current state does not accept an event.
var ErrInvalidTransition = errors.New("invalid state transition")

// Interpreter wraps the statekit interpreter for one request.
// It is not safe for concurrent use.
type Interpreter struct {
	interp *statekit.Interpreter[*Context]
	ctx    *Context
}

// NewInterpreter creates a new interpreter for the request machine.
func NewInterpreter(machine *statekit.MachineConfig[*Context], ctx *Context) *Interpreter {
	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})
	return &Interpreter{
		interp: interp,
		ctx:    ctx,
	}
}

// Start enters the initial state.
func (i *Interpreter) Start() {
	i.interp.Start()
	i.ctx.State = orchestration.State(i.interp.State().Value)
}

// Stop stops the interpreter.
func (i *Interpreter) Stop() {
	i.interp.Stop()
}

// State returns the current state.
func (i *Interpreter) State() orchestration.State {
	return orchestration.State(i.interp.State().Value)
}

// Fire sends an event. It fails without changing state when the current
// state does not accept the event or a guard rejects it.
func (i *Interpreter) Fire(event statekit.EventType) error {
	from := i.State()
	if !Accepts(from, event) {
		return fmt.Errorf("%w: %s on %s", ErrInvalidTransition, event, from)
	}

	i.interp.Send(statekit.Event{Type: event})

	to := i.State()
	if to == from {
		return fmt.Errorf("%w: %s on %s rejected by guard", ErrInvalidTransition, event, from)
	}
	i.ctx.State = to
	return nil
}

// IsTerminal returns true if the interpreter is in a final state.
func (i *Interpreter) IsTerminal() bool {
	return i.interp.Done()
}

// Matches checks if the current state matches the given state.
func (i *Interpreter) Matches(state orchestration.State) bool {
	return i.interp.Matches(statekit.StateID(state))
}

// Context returns the interpreter context.
func (i *Interpreter) Context() *Context {
	return i.ctx
}

// Transitions returns a copy of the recorded transitions.
func (i *Interpreter) Transitions() []Transition {
	return append([]Transition(nil), i.ctx.Transitions...)
}
