package logging

import (
	"strings"
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/felixgeelhaar/vigil/domain/orchestration"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// RequestID adds a request ID field.
func RequestID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("request_id", id)
	}
}

// Provider adds a provider id field.
func Provider(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("provider", id)
	}
}

// Mode adds a dispatch mode field.
func Mode(m orchestration.Mode) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("mode", string(m))
	}
}

// Status adds a provider call status field.
func Status(s orchestration.CallStatus) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("status", string(s))
	}
}

// CacheHit adds a cache_hit field.
func CacheHit(hit bool) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Bool("cache_hit", hit)
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// State adds a lifecycle state field.
func State(s orchestration.State) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("state", string(s))
	}
}

// FromState adds a from_state field for transitions.
func FromState(s orchestration.State) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("from_state", string(s))
	}
}

// ToState adds a to_state field for transitions.
func ToState(s orchestration.State) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("to_state", string(s))
	}
}

// Contributors adds the comma-separated contributing provider ids.
func Contributors(ids []string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("contributors", strings.Join(ids, ","))
	}
}

// Count adds an integer field with custom key.
func Count(key string, n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int(key, n)
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Component adds a component field for categorization.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// Operation adds an operation field.
func Operation(op string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("operation", op)
	}
}

// Str adds a string field with custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}
