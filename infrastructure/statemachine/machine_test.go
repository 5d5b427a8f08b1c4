package statemachine

import (
	"errors"
	"testing"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/vigil/domain/orchestration"
)

func newStarted(t *testing.T, eligible bool) *Interpreter {
	t.Helper()

	machine, err := NewRequestMachine()
	if err != nil {
		t.Fatalf("NewRequestMachine() error = %v", err)
	}
	interp := NewInterpreter(machine, NewContext("req-1", eligible))
	interp.Start()
	return interp
}

func TestNewRequestMachine(t *testing.T) {
	t.Parallel()

	machine, err := NewRequestMachine()
	if err != nil {
		t.Fatalf("NewRequestMachine() error = %v", err)
	}
	if machine == nil {
		t.Fatal("NewRequestMachine() returned nil machine")
	}
}

func TestStateForEvent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		event    statekit.EventType
		expected orchestration.State
	}{
		{EventLookup, orchestration.StateCacheLookup},
		{EventHit, orchestration.StateCacheHit},
		{EventMiss, orchestration.StateDispatching},
		{EventDispatch, orchestration.StateDispatching},
		{EventReduce, orchestration.StateReducing},
		{EventSucceed, orchestration.StateSuccess},
		{EventFail, orchestration.StateTotalFailure},
		{EventReject, orchestration.StateRejected},
	}

	for _, tt := range tests {
		t.Run(string(tt.event), func(t *testing.T) {
			t.Parallel()

			if got := StateForEvent(tt.event); got != tt.expected {
				t.Errorf("StateForEvent(%s) = %s, want %s", tt.event, got, tt.expected)
			}
		})
	}
}

func TestInterpreter_Start(t *testing.T) {
	t.Parallel()

	interp := newStarted(t, true)

	if interp.State() != orchestration.StateValidating {
		t.Errorf("Initial state = %s, want validating", interp.State())
	}
	if interp.Context().State != orchestration.StateValidating {
		t.Errorf("Context state = %s, want validating", interp.Context().State)
	}
	if interp.IsTerminal() {
		t.Error("Should not be in terminal state after start")
	}
}

func TestInterpreter_Paths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		eligible bool
		events   []statekit.EventType
		final    orchestration.State
	}{
		{
			name:     "cache hit",
			eligible: true,
			events:   []statekit.EventType{EventLookup, EventHit},
			final:    orchestration.StateCacheHit,
		},
		{
			name:     "cache miss then success",
			eligible: true,
			events:   []statekit.EventType{EventLookup, EventMiss, EventReduce, EventSucceed},
			final:    orchestration.StateSuccess,
		},
		{
			name:     "ineligible total failure",
			eligible: false,
			events:   []statekit.EventType{EventDispatch, EventReduce, EventFail},
			final:    orchestration.StateTotalFailure,
		},
		{
			name:     "rejected",
			eligible: true,
			events:   []statekit.EventType{EventReject},
			final:    orchestration.StateRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			interp := newStarted(t, tt.eligible)
			for _, ev := range tt.events {
				if err := interp.Fire(ev); err != nil {
					t.Fatalf("Fire(%s) error = %v", ev, err)
				}
			}

			if interp.State() != tt.final {
				t.Errorf("State() = %s, want %s", interp.State(), tt.final)
			}
			if !interp.Matches(tt.final) {
				t.Errorf("Matches(%s) = false", tt.final)
			}
			if !interp.IsTerminal() {
				t.Error("IsTerminal() = false, want true")
			}
			if got := len(interp.Transitions()); got != len(tt.events) {
				t.Errorf("len(Transitions()) = %d, want %d", got, len(tt.events))
			}
		})
	}
}

func TestInterpreter_Guards(t *testing.T) {
	t.Parallel()

	t.Run("ineligible request cannot look up cache", func(t *testing.T) {
		t.Parallel()

		interp := newStarted(t, false)
		if err := interp.Fire(EventLookup); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("Fire(LOOKUP) error = %v, want ErrInvalidTransition", err)
		}
		if interp.State() != orchestration.StateValidating {
			t.Errorf("State() = %s, want validating", interp.State())
		}
	})

	t.Run("eligible request cannot skip cache", func(t *testing.T) {
		t.Parallel()

		interp := newStarted(t, true)
		if err := interp.Fire(EventDispatch); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("Fire(DISPATCH) error = %v, want ErrInvalidTransition", err)
		}
	})
}

func TestInterpreter_InvalidEvent(t *testing.T) {
	t.Parallel()

	interp := newStarted(t, true)
	if err := interp.Fire(EventSucceed); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire(SUCCEED) error = %v, want ErrInvalidTransition", err)
	}

	_ = interp.Fire(EventReject)
	if err := interp.Fire(EventLookup); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire after final state error = %v, want ErrInvalidTransition", err)
	}
}

func TestTransitionsRecordOrder(t *testing.T) {
	t.Parallel()

	interp := newStarted(t, true)
	_ = interp.Fire(EventLookup)
	_ = interp.Fire(EventMiss)

	got := interp.Transitions()
	if len(got) != 2 {
		t.Fatalf("len(Transitions()) = %d, want 2", len(got))
	}
	if got[1].From != orchestration.StateCacheLookup || got[1].To != orchestration.StateDispatching {
		t.Errorf("Transitions()[1] = %s->%s, want cache_lookup->dispatching", got[1].From, got[1].To)
	}
}
