// Package resilience protects provider calls using fortify.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/felixgeelhaar/fortify/retry"
)

// ErrRateLimited is returned when a provider's rate limit rejects a call.
var ErrRateLimited = errors.New("provider rate limit exceeded")

// MinConcurrent is the smallest pool that lets a trinity fan-out run fully in parallel.
const MinConcurrent = 3

// DefaultMaxQueue is the number of calls that may wait for a bulkhead slot.
const DefaultMaxQueue = 256

// Call is a single provider invocation.
type Call func(ctx context.Context) (string, error)

// Executor runs provider calls through a shared bulkhead and a circuit
// breaker per provider, with optional retries and per-provider rate limits.
// Deadlines come from the caller's context.
type Executor struct {
	bulkhead   bulkhead.Bulkhead[string]
	retry      retry.Retry[string]
	limiter    ratelimit.RateLimiter
	breakerCfg circuitbreaker.Config

	mu       sync.Mutex
	breakers map[string]circuitbreaker.CircuitBreaker[string]
}

// ExecutorConfig configures the resilient executor.
type ExecutorConfig struct {
	// MaxConcurrent limits concurrent provider calls. Values below 3 are raised to 3.
	MaxConcurrent int

	// MaxQueue is the number of calls that wait for a free slot when all
	// slots are busy. Waiting calls are bounded by their context deadline.
	// Calls beyond the queue are rejected. Zero uses DefaultMaxQueue.
	MaxQueue int

	// CircuitBreakerThreshold is the number of consecutive failures before opening.
	CircuitBreakerThreshold int

	// CircuitBreakerTimeout is how long the circuit stays open.
	CircuitBreakerTimeout time.Duration

	// RetryMaxAttempts is the total number of attempts. 1 or less disables retries.
	RetryMaxAttempts int

	// RetryInitialDelay is the initial delay between retries.
	RetryInitialDelay time.Duration

	// RetryBackoffMultiplier is the exponential backoff multiplier.
	RetryBackoffMultiplier float64

	// RateLimit is the number of calls per second allowed per provider. 0 disables.
	RateLimit int

	// RateBurst is the per-provider burst size.
	RateBurst int
}

// DefaultExecutorConfig returns a configuration with sensible defaults.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		MaxConcurrent:           16,
		MaxQueue:                DefaultMaxQueue,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   30 * time.Second,
		RetryMaxAttempts:        1,
		RetryInitialDelay:       200 * time.Millisecond,
		RetryBackoffMultiplier:  2.0,
	}
}

// NewExecutor creates a new resilient executor.
func NewExecutor(config ExecutorConfig) *Executor {
	maxConcurrent := config.MaxConcurrent
	if maxConcurrent < MinConcurrent {
		maxConcurrent = MinConcurrent
	}
	maxQueue := config.MaxQueue
	if maxQueue <= 0 {
		maxQueue = DefaultMaxQueue
	}
	threshold := config.CircuitBreakerThreshold
	if threshold <= 0 {
		threshold = 5
	}
	breakerTimeout := config.CircuitBreakerTimeout
	if breakerTimeout <= 0 {
		breakerTimeout = 30 * time.Second
	}

	e := &Executor{
		bulkhead: bulkhead.New[string](bulkhead.Config{
			MaxConcurrent: maxConcurrent,
			MaxQueue:      maxQueue,
		}),
		breakerCfg: circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    breakerTimeout,
			Timeout:     breakerTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- bounds checked above
			},
		},
		breakers: make(map[string]circuitbreaker.CircuitBreaker[string]),
	}

	if config.RetryMaxAttempts > 1 {
		multiplier := config.RetryBackoffMultiplier
		if multiplier <= 0 {
			multiplier = 2.0
		}
		e.retry = retry.New[string](retry.Config{
			MaxAttempts:   config.RetryMaxAttempts,
			InitialDelay:  config.RetryInitialDelay,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    multiplier,
		})
	}

	if config.RateLimit > 0 {
		burst := config.RateBurst
		if burst <= 0 {
			burst = config.RateLimit
		}
		e.limiter = ratelimit.New(&ratelimit.Config{
			Rate:  config.RateLimit,
			Burst: burst,
		})
	}

	return e
}

// NewDefaultExecutor creates an executor with default configuration.
func NewDefaultExecutor() *Executor {
	return NewExecutor(DefaultExecutorConfig())
}

// Execute runs a call for the named provider.
// Composition order: Rate limit → Bulkhead → Circuit Breaker → Retry.
func (e *Executor) Execute(ctx context.Context, provider string, call Call) (string, error) {
	if e.limiter != nil && !e.limiter.Allow(ctx, provider) {
		return "", ErrRateLimited
	}

	breaker := e.breaker(provider)

	return e.bulkhead.Execute(ctx, func(ctx context.Context) (string, error) {
		return breaker.Execute(ctx, func(ctx context.Context) (string, error) {
			if e.retry != nil {
				return e.retry.Do(ctx, func(ctx context.Context) (string, error) {
					return call(ctx)
				})
			}
			return call(ctx)
		})
	})
}

// breaker returns the circuit breaker for a provider, creating it on first use.
func (e *Executor) breaker(provider string) circuitbreaker.CircuitBreaker[string] {
	e.mu.Lock()
	defer e.mu.Unlock()

	cb, ok := e.breakers[provider]
	if !ok {
		cb = circuitbreaker.New[string](e.breakerCfg)
		e.breakers[provider] = cb
	}
	return cb
}

// CircuitBreakerState returns the state of a provider's circuit breaker.
func (e *Executor) CircuitBreakerState(provider string) circuitbreaker.State {
	return e.breaker(provider).State()
}
