package resilience

import (
	"context"
	"testing"
	"time"
)

func TestOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		opt   Option
		check func(ExecutorConfig) bool
	}{
		{"max concurrent", WithMaxConcurrent(20), func(c ExecutorConfig) bool { return c.MaxConcurrent == 20 }},
		{"max queue", WithMaxQueue(32), func(c ExecutorConfig) bool { return c.MaxQueue == 32 }},
		{"breaker threshold", WithCircuitBreakerThreshold(10), func(c ExecutorConfig) bool { return c.CircuitBreakerThreshold == 10 }},
		{"breaker timeout", WithCircuitBreakerTimeout(time.Minute), func(c ExecutorConfig) bool { return c.CircuitBreakerTimeout == time.Minute }},
		{"retry attempts", WithRetryAttempts(5), func(c ExecutorConfig) bool { return c.RetryMaxAttempts == 5 }},
		{"retry delay", WithRetryDelay(time.Second), func(c ExecutorConfig) bool { return c.RetryInitialDelay == time.Second }},
		{"rate limit", WithRateLimit(4, 8), func(c ExecutorConfig) bool { return c.RateLimit == 4 && c.RateBurst == 8 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			config := DefaultExecutorConfig()
			tt.opt(&config)
			if !tt.check(config) {
				t.Errorf("option %s not applied: %+v", tt.name, config)
			}
		})
	}
}

func TestAllOptions_ChainedUsage(t *testing.T) {
	t.Parallel()

	executor := NewExecutorWithOptions(
		WithMaxConcurrent(5),
		WithMaxQueue(10),
		WithCircuitBreakerThreshold(3),
		WithCircuitBreakerTimeout(10*time.Second),
		WithRetryAttempts(2),
		WithRetryDelay(5*time.Millisecond),
		WithRateLimit(100, 100),
	)

	if executor == nil {
		t.Fatal("NewExecutorWithOptions() with all options returned nil")
	}

	got, err := executor.Execute(context.Background(), "openai", func(context.Context) (string, error) {
		return "ok", nil
	})
	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if got != "ok" {
		t.Errorf("Execute() = %s, want ok", got)
	}
}
