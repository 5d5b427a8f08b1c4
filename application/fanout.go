package application

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/vigil/domain/conversation"
	"github.com/felixgeelhaar/vigil/domain/orchestration"
	"github.com/felixgeelhaar/vigil/infrastructure/logging"
	"github.com/felixgeelhaar/vigil/infrastructure/observability"
	"github.com/felixgeelhaar/vigil/infrastructure/resilience"
	"github.com/felixgeelhaar/vigil/infrastructure/telemetry"
)

// DefaultCallTimeout bounds a provider call when none is configured.
const DefaultCallTimeout = 30 * time.Second

// FanOut dispatches a prompt to provider adapters and classifies each outcome.
//
// Every call gets its own deadline. A call that overruns is reported as a
// timeout without affecting its siblings, and the join never waits past the
// deadline even when an adapter ignores its context.
type FanOut struct {
	executor *resilience.Executor
	metrics  telemetry.Metrics
	tracer   trace.Tracer
	timeout  atomic.Int64
}

// FanOutOption configures a FanOut.
type FanOutOption func(*FanOut)

// WithFanOutMetrics records every provider call.
func WithFanOutMetrics(m telemetry.Metrics) FanOutOption {
	return func(f *FanOut) {
		if m != nil {
			f.metrics = m
		}
	}
}

// WithFanOutTracer wraps every provider call in a span.
func WithFanOutTracer(t trace.Tracer) FanOutOption {
	return func(f *FanOut) {
		if t != nil {
			f.tracer = t
		}
	}
}

// NewFanOut creates a coordinator. A nil executor uses the default executor
// and a non-positive timeout uses DefaultCallTimeout.
func NewFanOut(executor *resilience.Executor, timeout time.Duration, opts ...FanOutOption) *FanOut {
	if executor == nil {
		executor = resilience.NewDefaultExecutor()
	}
	f := &FanOut{
		executor: executor,
		metrics:  &telemetry.NoopMetricsProvider{},
		tracer:   observability.DefaultTracer(),
	}
	f.SetTimeout(timeout)
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Timeout returns the per-call timeout.
func (f *FanOut) Timeout() time.Duration {
	return time.Duration(f.timeout.Load())
}

// SetTimeout changes the per-call timeout for calls started afterwards.
func (f *FanOut) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultCallTimeout
	}
	f.timeout.Store(int64(d))
}

// Dispatch calls every adapter concurrently and waits for all of them.
// Results are returned in adapter order.
func (f *FanOut) Dispatch(ctx context.Context, adapters []orchestration.Adapter, prompt string, history conversation.Context) []orchestration.CallResult {
	type indexed struct {
		i      int
		result orchestration.CallResult
	}

	ch := make(chan indexed, len(adapters))
	for i, a := range adapters {
		go func(i int, a orchestration.Adapter) {
			ch <- indexed{i: i, result: f.Call(ctx, a, prompt, history)}
		}(i, a)
	}

	results := make([]orchestration.CallResult, len(adapters))
	for range adapters {
		r := <-ch
		results[r.i] = r.result
	}
	return results
}

// Sequential calls adapters one at a time in order and stops at the first success.
func (f *FanOut) Sequential(ctx context.Context, adapters []orchestration.Adapter, prompt string, history conversation.Context) []orchestration.CallResult {
	results := make([]orchestration.CallResult, 0, len(adapters))
	for _, a := range adapters {
		r := f.Call(ctx, a, prompt, history)
		results = append(results, r)
		if r.OK() {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}
	return results
}

// Call invokes one adapter under the per-call timeout.
func (f *FanOut) Call(ctx context.Context, a orchestration.Adapter, prompt string, history conversation.Context) orchestration.CallResult {
	id := a.ID()
	timeout := f.Timeout()

	ctx, span := f.tracer.Start(ctx, "vigil.provider.call",
		trace.WithAttributes(
			attribute.String("vigil.provider", id),
			attribute.Int("vigil.context_turns", history.Len()),
		),
	)

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		answer string
		err    error
	}
	done := make(chan outcome, 1)
	start := time.Now()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("adapter panic: %v", r)}
			}
		}()
		answer, err := f.executor.Execute(callCtx, id, func(ctx context.Context) (string, error) {
			return a.Call(ctx, prompt, history)
		})
		done <- outcome{answer: answer, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-callCtx.Done():
		out = outcome{err: callCtx.Err()}
	}

	result := orchestration.CallResult{
		Provider: id,
		Latency:  time.Since(start),
	}

	switch {
	case out.err == nil:
		result.Status = orchestration.StatusSuccess
		result.Payload = out.answer
	case errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		result.Status = orchestration.StatusTimeout
		result.Err = fmt.Errorf("%w: %s exceeded %v", orchestration.ErrProviderTimeout, id, timeout)
	default:
		result.Status = orchestration.StatusError
		result.Err = fmt.Errorf("%w: %s: %w", orchestration.ErrProviderError, id, out.err)
	}

	span.SetAttributes(
		attribute.String("vigil.status", string(result.Status)),
		attribute.Int64("vigil.latency_ms", result.Latency.Milliseconds()),
	)
	observability.EndSpan(span, result.Err)
	f.metrics.RecordProviderCall(ctx, id, string(result.Status), result.Latency)

	var event *logging.LogEvent
	if result.OK() {
		event = logging.Debug()
	} else {
		event = logging.Warn().Add(logging.ErrorField(result.Err))
	}
	event.
		Add(logging.Provider(id)).
		Add(logging.Status(result.Status)).
		Add(logging.Duration(result.Latency)).
		Msg("provider call finished")

	return result
}
