// Package application provides the orchestration service that answers
// requests from one or more provider adapters.
package application

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/statekit"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/vigil/domain/cache"
	"github.com/felixgeelhaar/vigil/domain/conversation"
	"github.com/felixgeelhaar/vigil/domain/memory"
	"github.com/felixgeelhaar/vigil/domain/orchestration"
	"github.com/felixgeelhaar/vigil/infrastructure/logging"
	"github.com/felixgeelhaar/vigil/infrastructure/observability"
	"github.com/felixgeelhaar/vigil/infrastructure/statemachine"
	"github.com/felixgeelhaar/vigil/infrastructure/telemetry"
)

// DefaultEligibilityThreshold is the context length at which the cache is bypassed.
const DefaultEligibilityThreshold = 10

// TrinitySize is the number of providers trinity mode dispatches to.
const TrinitySize = 3

// Orchestrator answers requests by consulting the response cache and
// dispatching to provider adapters.
type Orchestrator struct {
	adapters  []orchestration.Adapter
	byID      map[string]orchestration.Adapter
	trinity   []orchestration.Adapter
	cache     cache.ResponseCache
	threshold atomic.Int64
	keyWindow int
	reducer   Reducer
	fanout    *FanOut
	memory    memory.Store
	maxTurns  int
	metrics   telemetry.Metrics
	tracer    trace.Tracer
	mode      orchestration.Mode
	telemetry recorder
}

// OrchestratorConfig contains configuration for the orchestrator.
type OrchestratorConfig struct {
	// Adapters in priority order. At least one is required.
	Adapters []orchestration.Adapter
	// Trinity lists adapter ids for trinity mode. Empty selects the first three adapters.
	Trinity              []string
	Cache                cache.ResponseCache
	EligibilityThreshold int
	// KeyWindow is the number of trailing context turns hashed into the cache
	// key. Zero keys on prompt and mode only.
	KeyWindow            int
	Reducer              Reducer
	FanOut               *FanOut
	CallTimeout          time.Duration
	Memory               memory.Store
	MaxTurns             int
	Metrics              telemetry.Metrics
	Tracer               trace.Tracer
	DefaultMode          orchestration.Mode
}

// NewOrchestrator creates a new orchestrator with the given configuration.
func NewOrchestrator(config OrchestratorConfig) (*Orchestrator, error) {
	if len(config.Adapters) == 0 {
		return nil, orchestration.ErrNoAdapters
	}

	o := &Orchestrator{
		byID:      make(map[string]orchestration.Adapter, len(config.Adapters)),
		cache:     config.Cache,
		keyWindow: max(config.KeyWindow, 0),
		reducer:   config.Reducer,
		fanout:    config.FanOut,
		memory:    config.Memory,
		maxTurns:  config.MaxTurns,
		metrics:   config.Metrics,
		tracer:    config.Tracer,
		mode:      config.DefaultMode,
	}

	for _, a := range config.Adapters {
		if a == nil {
			return nil, errors.New("adapter is nil")
		}
		if _, dup := o.byID[a.ID()]; dup {
			return nil, fmt.Errorf("duplicate adapter id %q", a.ID())
		}
		o.byID[a.ID()] = a
		o.adapters = append(o.adapters, a)
	}

	// Set defaults
	if o.metrics == nil {
		o.metrics = &telemetry.NoopMetricsProvider{}
	}
	if o.tracer == nil {
		o.tracer = observability.DefaultTracer()
	}
	if o.reducer == nil {
		o.reducer = PriorityReducer{}
	}
	if o.fanout == nil {
		o.fanout = NewFanOut(nil, config.CallTimeout, WithFanOutMetrics(o.metrics))
	}
	if o.maxTurns <= 0 {
		o.maxTurns = memory.DefaultMaxTurns
	}
	if o.mode == "" {
		o.mode = orchestration.ModeSingle
	}
	if !o.mode.IsValid() {
		return nil, fmt.Errorf("%w: unknown default mode %q", orchestration.ErrInvalidRequest, o.mode)
	}
	o.SetEligibilityThreshold(config.EligibilityThreshold)

	o.trinity = o.resolveTrinity(config.Trinity)
	if len(o.trinity) < TrinitySize {
		logging.Warn().
			Add(logging.Contributors(adapterIDs(o.trinity))).
			Add(logging.Count("trinity_size", len(o.trinity))).
			Msg("trinity has fewer than three configured providers")
	}

	return o, nil
}

func (o *Orchestrator) resolveTrinity(ids []string) []orchestration.Adapter {
	var trinity []orchestration.Adapter
	for _, id := range ids {
		a, ok := o.byID[id]
		if !ok {
			logging.Warn().
				Add(logging.Provider(id)).
				Msg("trinity provider is not configured, skipping")
			continue
		}
		trinity = append(trinity, a)
		if len(trinity) == TrinitySize {
			break
		}
	}
	if len(trinity) == 0 {
		n := min(TrinitySize, len(o.adapters))
		trinity = append(trinity, o.adapters[:n]...)
	}
	return trinity
}

// Handle answers one request. It never panics and never returns an error:
// invalid requests and total provider failure are reported as Response.Failure.
func (o *Orchestrator) Handle(ctx context.Context, req orchestration.Request) orchestration.Response {
	start := time.Now()
	requestID := uuid.NewString()

	if req.Mode == "" {
		req.Mode = o.mode
	}

	ctx, span := o.tracer.Start(ctx, "vigil.handle",
		trace.WithAttributes(
			attribute.String("vigil.request_id", requestID),
			attribute.String("vigil.mode", string(req.Mode)),
		),
	)

	o.metrics.IncrementInflight(ctx)
	defer o.metrics.DecrementInflight(ctx)

	resp := orchestration.Response{RequestID: requestID, Mode: req.Mode}

	machine, err := statemachine.NewRequestMachine()
	if err != nil {
		// The machine definition is static; this only fails on a programming error.
		resp.Failure = orchestration.NewFailure(fmt.Errorf("failed to create state machine: %w", err))
		return o.finish(ctx, span, nil, resp, start)
	}
	machineCtx := statemachine.NewContext(requestID, false)
	interp := statemachine.NewInterpreter(machine, machineCtx)
	interp.Start()
	defer interp.Stop()

	logging.Debug().
		Add(logging.RequestID(requestID)).
		Add(logging.Mode(req.Mode)).
		Msg("request started")

	if err := req.Validate(); err != nil {
		return o.reject(ctx, span, interp, resp, err, start)
	}
	resp.Mode = req.Mode

	adapters, err := o.adaptersFor(req)
	if err != nil {
		return o.reject(ctx, span, interp, resp, err, start)
	}

	history := o.history(ctx, requestID, req.Context)
	eligible := o.eligible(req, history)
	machineCtx.Eligible = eligible
	span.SetAttributes(
		attribute.Bool("vigil.cache_eligible", eligible),
		attribute.Int("vigil.context_turns", history.Len()),
	)

	var key cache.Key
	if eligible {
		o.fire(interp, statemachine.EventLookup)
		key = cache.NewKey(req.Prompt, string(req.Mode), history.Last(o.keyWindow))

		if entry, ok := o.lookup(ctx, requestID, key); ok {
			o.fire(interp, statemachine.EventHit)
			o.metrics.RecordCacheHit(ctx, string(req.Mode))
			resp.Text = entry.Value
			resp.CacheHit = true
			o.forward(ctx, requestID, req, resp)
			return o.finish(ctx, span, interp, resp, start)
		}

		o.fire(interp, statemachine.EventMiss)
		o.metrics.RecordCacheMiss(ctx, string(req.Mode))
	} else {
		o.fire(interp, statemachine.EventDispatch)
	}

	resp.Results = o.dispatch(ctx, req.Mode, adapters, req.Prompt, history)

	o.fire(interp, statemachine.EventReduce)
	red, err := o.reducer.Reduce(ctx, req.Prompt, resp.Results)
	resp.Results = append(resp.Results, red.Extra...)
	if err != nil {
		o.fire(interp, statemachine.EventFail)
		resp.Failure = orchestration.NewFailure(err)
		o.metrics.RecordError(ctx, string(resp.Failure.Kind), map[string]string{
			"mode": string(req.Mode),
		})
		return o.finish(ctx, span, interp, resp, start)
	}

	o.fire(interp, statemachine.EventSucceed)
	resp.Text = red.Text
	resp.Source = red.Source
	resp.Providers = red.Providers

	if eligible {
		if err := o.cache.Put(ctx, key, red.Text); err != nil {
			logging.Warn().
				Add(logging.RequestID(requestID)).
				Add(logging.Str("cache_key", key.Short())).
				Add(logging.ErrorField(errors.Join(orchestration.ErrCacheUnavailable, err))).
				Msg("cache write failed")
			o.metrics.RecordError(ctx, "cache_unavailable", map[string]string{"op": "put"})
		}
	}

	o.forward(ctx, requestID, req, resp)
	return o.finish(ctx, span, interp, resp, start)
}

func (o *Orchestrator) reject(ctx context.Context, span trace.Span, interp *statemachine.Interpreter, resp orchestration.Response, err error, start time.Time) orchestration.Response {
	o.fire(interp, statemachine.EventReject)
	resp.Failure = orchestration.NewFailure(err)
	o.metrics.RecordError(ctx, string(resp.Failure.Kind), nil)
	return o.finish(ctx, span, interp, resp, start)
}

// adaptersFor returns the adapters a request dispatches to, in priority order.
func (o *Orchestrator) adaptersFor(req orchestration.Request) ([]orchestration.Adapter, error) {
	switch req.Mode {
	case orchestration.ModeTrinity:
		return o.trinity, nil
	case orchestration.ModeFallback:
		return o.adapters, nil
	default:
		if req.Provider == "" {
			return o.adapters[:1], nil
		}
		a, ok := o.byID[req.Provider]
		if !ok {
			return nil, fmt.Errorf("%w: %q", orchestration.ErrUnknownProvider, req.Provider)
		}
		return []orchestration.Adapter{a}, nil
	}
}

// history returns the request context, loading it from memory when absent.
func (o *Orchestrator) history(ctx context.Context, requestID string, given conversation.Context) conversation.Context {
	if given != nil || o.memory == nil {
		return given
	}
	loaded, err := memory.LoadContext(ctx, o.memory, o.maxTurns)
	if err != nil {
		logging.Warn().
			Add(logging.RequestID(requestID)).
			Add(logging.ErrorField(err)).
			Msg("memory unavailable, continuing without context")
		return conversation.Context{}
	}
	return loaded
}

func (o *Orchestrator) eligible(req orchestration.Request, history conversation.Context) bool {
	if o.cache == nil || req.NoCache || !req.Mode.Cacheable() {
		return false
	}
	return int64(history.Len()) < o.threshold.Load()
}

// lookup reads the cache. Cache faults are logged and treated as a miss.
func (o *Orchestrator) lookup(ctx context.Context, requestID string, key cache.Key) (cache.Entry, bool) {
	entry, ok, err := o.cache.Get(ctx, key)
	if err != nil {
		logging.Warn().
			Add(logging.RequestID(requestID)).
			Add(logging.Str("cache_key", key.Short())).
			Add(logging.ErrorField(errors.Join(orchestration.ErrCacheUnavailable, err))).
			Msg("cache read failed, recomputing")
		o.metrics.RecordError(ctx, "cache_unavailable", map[string]string{"op": "get"})
		return cache.Entry{}, false
	}
	return entry, ok
}

func (o *Orchestrator) dispatch(ctx context.Context, mode orchestration.Mode, adapters []orchestration.Adapter, prompt string, history conversation.Context) []orchestration.CallResult {
	switch mode {
	case orchestration.ModeTrinity:
		return o.fanout.Dispatch(ctx, adapters, prompt, history)
	case orchestration.ModeFallback:
		return o.fanout.Sequential(ctx, adapters, prompt, history)
	default:
		return []orchestration.CallResult{o.fanout.Call(ctx, adapters[0], prompt, history)}
	}
}

// forward hands the finalized exchange to the memory store.
// Failures are logged and never reach the caller.
func (o *Orchestrator) forward(ctx context.Context, requestID string, req orchestration.Request, resp orchestration.Response) {
	if o.memory == nil {
		return
	}
	exchange := conversation.Exchange{
		ID:        requestID,
		Prompt:    req.Prompt,
		Answer:    resp.Text,
		Mode:      string(resp.Mode),
		Providers: resp.Providers,
		CacheHit:  resp.CacheHit,
		Timestamp: time.Now().UTC(),
	}
	if err := o.memory.Append(context.WithoutCancel(ctx), exchange); err != nil {
		logging.Warn().
			Add(logging.RequestID(requestID)).
			Add(logging.ErrorField(err)).
			Msg("failed to forward exchange to memory")
	}
}

func (o *Orchestrator) fire(interp *statemachine.Interpreter, event statekit.EventType) {
	if err := interp.Fire(event); err != nil {
		logging.Error().
			Add(logging.RequestID(interp.Context().RequestID)).
			Add(logging.State(interp.State())).
			Add(logging.ErrorField(err)).
			Msg("state machine rejected event")
	}
}

func (o *Orchestrator) finish(ctx context.Context, span trace.Span, interp *statemachine.Interpreter, resp orchestration.Response, start time.Time) orchestration.Response {
	resp.Latency = time.Since(start)
	o.telemetry.record(start, resp.Latency, resp.CacheHit, !resp.OK())
	o.metrics.RecordRequest(ctx, string(resp.Mode), resp.CacheHit, resp.OK(), resp.Latency)

	state := orchestration.State("")
	if interp != nil {
		state = interp.State()
		for _, t := range interp.Transitions() {
			o.metrics.RecordStateTransition(ctx, string(t.From), string(t.To))
		}
	}

	span.SetAttributes(
		attribute.String("vigil.state", string(state)),
		attribute.Bool("vigil.cache_hit", resp.CacheHit),
		attribute.StringSlice("vigil.providers", resp.Providers),
	)
	var spanErr error
	if resp.Failure != nil {
		spanErr = resp.Failure
	}
	observability.EndSpan(span, spanErr)

	if resp.Failure != nil {
		logging.Warn().
			Add(logging.RequestID(resp.RequestID)).
			Add(logging.Mode(resp.Mode)).
			Add(logging.State(state)).
			Add(logging.Duration(resp.Latency)).
			Add(logging.ErrorField(resp.Failure)).
			Msg("request failed")
		return resp
	}

	logging.Info().
		Add(logging.RequestID(resp.RequestID)).
		Add(logging.Mode(resp.Mode)).
		Add(logging.State(state)).
		Add(logging.CacheHit(resp.CacheHit)).
		Add(logging.Contributors(resp.Providers)).
		Add(logging.Duration(resp.Latency)).
		Msg("request completed")
	return resp
}

// Telemetry returns the latest request telemetry.
func (o *Orchestrator) Telemetry() Snapshot {
	return o.telemetry.snapshot()
}

// EligibilityThreshold returns the context length at which the cache is bypassed.
func (o *Orchestrator) EligibilityThreshold() int {
	return int(o.threshold.Load())
}

// SetEligibilityThreshold changes the threshold for requests started afterwards.
// A non-positive value restores DefaultEligibilityThreshold.
func (o *Orchestrator) SetEligibilityThreshold(n int) {
	if n <= 0 {
		n = DefaultEligibilityThreshold
	}
	o.threshold.Store(int64(n))
}

// SetCallTimeout changes the per-call timeout for calls started afterwards.
func (o *Orchestrator) SetCallTimeout(d time.Duration) {
	o.fanout.SetTimeout(d)
}

// CallTimeout returns the per-call timeout.
func (o *Orchestrator) CallTimeout() time.Duration {
	return o.fanout.Timeout()
}

// Adapters returns the adapter ids in priority order.
func (o *Orchestrator) Adapters() []string {
	return adapterIDs(o.adapters)
}

// Trinity returns the adapter ids used by trinity mode.
func (o *Orchestrator) Trinity() []string {
	return adapterIDs(o.trinity)
}

// CacheStats returns cache statistics when the cache provides them.
func (o *Orchestrator) CacheStats() (cache.Stats, bool) {
	sp, ok := o.cache.(cache.StatsProvider)
	if !ok {
		return cache.Stats{}, false
	}
	return sp.Stats(), true
}

// Memory returns the memory store, or nil.
func (o *Orchestrator) Memory() memory.Store {
	return o.memory
}

func adapterIDs(adapters []orchestration.Adapter) []string {
	ids := make([]string, len(adapters))
	for i, a := range adapters {
		ids[i] = a.ID()
	}
	return ids
}
