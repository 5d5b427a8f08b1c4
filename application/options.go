package application

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/vigil/domain/cache"
	"github.com/felixgeelhaar/vigil/domain/memory"
	"github.com/felixgeelhaar/vigil/domain/orchestration"
	"github.com/felixgeelhaar/vigil/infrastructure/telemetry"
)

// Option configures the orchestrator.
type Option func(*OrchestratorConfig)

// WithAdapters sets the provider adapters in priority order.
func WithAdapters(adapters ...orchestration.Adapter) Option {
	return func(c *OrchestratorConfig) {
		c.Adapters = append(c.Adapters, adapters...)
	}
}

// WithTrinity sets the provider ids used by trinity mode, in priority order.
func WithTrinity(ids ...string) Option {
	return func(c *OrchestratorConfig) {
		c.Trinity = ids
	}
}

// WithCache sets the response cache. Without one, every request is dispatched.
func WithCache(rc cache.ResponseCache) Option {
	return func(c *OrchestratorConfig) {
		c.Cache = rc
	}
}

// WithEligibilityThreshold sets the context length at which the cache is bypassed.
func WithEligibilityThreshold(n int) Option {
	return func(c *OrchestratorConfig) {
		c.EligibilityThreshold = n
	}
}

// WithKeyWindow sets how many trailing context turns are hashed into the
// cache key. The default of zero keys on prompt and mode only.
func WithKeyWindow(turns int) Option {
	return func(c *OrchestratorConfig) {
		c.KeyWindow = turns
	}
}

// WithReducer sets the result reducer.
// If not set, the orchestrator uses PriorityReducer.
func WithReducer(r Reducer) Option {
	return func(c *OrchestratorConfig) {
		c.Reducer = r
	}
}

// WithFanOut sets the fan-out coordinator.
func WithFanOut(f *FanOut) Option {
	return func(c *OrchestratorConfig) {
		c.FanOut = f
	}
}

// WithCallTimeout sets the per-call timeout of the default coordinator.
// It has no effect when WithFanOut is used.
func WithCallTimeout(d time.Duration) Option {
	return func(c *OrchestratorConfig) {
		c.CallTimeout = d
	}
}

// WithMemory sets the conversational memory store and the number of turns
// loaded from it when a request carries no context.
func WithMemory(store memory.Store, maxTurns int) Option {
	return func(c *OrchestratorConfig) {
		c.Memory = store
		c.MaxTurns = maxTurns
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m telemetry.Metrics) Option {
	return func(c *OrchestratorConfig) {
		c.Metrics = m
	}
}

// WithTracer sets the tracer used for request spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *OrchestratorConfig) {
		c.Tracer = t
	}
}

// WithDefaultMode sets the mode used when a request names none.
func WithDefaultMode(m orchestration.Mode) Option {
	return func(c *OrchestratorConfig) {
		c.DefaultMode = m
	}
}

// NewOrchestratorWithOptions creates an orchestrator with functional options.
func NewOrchestratorWithOptions(opts ...Option) (*Orchestrator, error) {
	config := OrchestratorConfig{}
	for _, opt := range opts {
		opt(&config)
	}
	return NewOrchestrator(config)
}
