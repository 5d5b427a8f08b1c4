// Package api provides the public API for the vigil library.
//
// Build wires an Orchestrator from a Config: provider adapters for every
// configured provider, the FIFO response cache, the memory backend, the
// resilience executor, tracing and metrics.
//
//	cfg, err := api.NewConfigLoader().LoadFile("vigil.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rt, err := api.Build(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	resp := rt.Handle(ctx, api.Request{Prompt: "2+2?", Mode: api.ModeTrinity})
package api

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/felixgeelhaar/vigil"
	"github.com/felixgeelhaar/vigil/application"
	"github.com/felixgeelhaar/vigil/domain/cache"
	domainconfig "github.com/felixgeelhaar/vigil/domain/config"
	"github.com/felixgeelhaar/vigil/domain/orchestration"
	"github.com/felixgeelhaar/vigil/infrastructure/logging"
	"github.com/felixgeelhaar/vigil/infrastructure/observability"
	"github.com/felixgeelhaar/vigil/infrastructure/provider"
	"github.com/felixgeelhaar/vigil/infrastructure/resilience"
	memstore "github.com/felixgeelhaar/vigil/infrastructure/storage/memory"
	"github.com/felixgeelhaar/vigil/infrastructure/telemetry"
)

// Re-export orchestration types.
type (
	// Request is one orchestration request.
	Request = orchestration.Request
	// Response is the result of Handle.
	Response = orchestration.Response
	// Mode selects how many providers a request fans out to.
	Mode = orchestration.Mode
	// Adapter is the interface to one upstream model backend.
	Adapter = orchestration.Adapter
	// Orchestrator answers requests.
	Orchestrator = application.Orchestrator
)

// Orchestration modes.
const (
	ModeSingle   = orchestration.ModeSingle
	ModeTrinity  = orchestration.ModeTrinity
	ModeFallback = orchestration.ModeFallback
)

// ErrNoProviders is returned when no provider in the configuration can be called.
var ErrNoProviders = errors.New("no configured providers")

// Runtime is an orchestrator wired from configuration together with the
// resources it owns.
type Runtime struct {
	Orchestrator *application.Orchestrator
	Config       *Config
	Cache        *memstore.ResponseCache
	Memory       MemoryStore
	Tracing      *observability.Provider
	Metrics      telemetry.Metrics

	closers []closeFunc
}

type buildOptions struct {
	adapters   []orchestration.Adapter
	metrics    telemetry.Metrics
	logOutput  io.Writer
	skipLogger bool
	traceOut   io.Writer
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

// WithAdapters replaces the adapters built from the provider configuration.
// Provider ids in the orchestration section then refer to these adapters.
func WithAdapters(adapters ...Adapter) BuildOption {
	return func(o *buildOptions) {
		o.adapters = append(o.adapters, adapters...)
	}
}

// WithMetricsRecorder sets the metrics recorder. Defaults to an
// OpenTelemetry MetricsProvider on the global meter provider.
func WithMetricsRecorder(m Metrics) BuildOption {
	return func(o *buildOptions) {
		o.metrics = m
	}
}

// WithLogOutput sends logs to w instead of stderr.
func WithLogOutput(w io.Writer) BuildOption {
	return func(o *buildOptions) {
		o.logOutput = w
	}
}

// WithoutLoggerInit leaves the default logger untouched.
func WithoutLoggerInit() BuildOption {
	return func(o *buildOptions) {
		o.skipLogger = true
	}
}

// WithTraceOutput sends spans of the stdout exporter to w.
func WithTraceOutput(w io.Writer) BuildOption {
	return func(o *buildOptions) {
		o.traceOut = w
	}
}

// Build creates a Runtime from the configuration.
func Build(ctx context.Context, cfg *Config, opts ...BuildOption) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: configuration is nil", ErrBuildFailed)
	}
	bo := &buildOptions{}
	for _, opt := range opts {
		opt(bo)
	}

	cfg.ApplyDefaults()

	if !bo.skipLogger {
		logging.Init(logging.Config{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Output: bo.logOutput,
		})
	}

	rt := &Runtime{Config: cfg, Metrics: bo.metrics}
	if rt.Metrics == nil {
		rt.Metrics = telemetry.NewMetricsProvider(telemetry.DefaultMetricsConfig())
	}

	tracing, err := observability.New(tracingOptions(cfg, bo.traceOut)...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildFailed, err)
	}
	rt.Tracing = tracing
	rt.closers = append(rt.closers, tracing.Shutdown)

	adapters := bo.adapters
	if len(adapters) == 0 {
		adapters, err = buildAdapters(cfg)
		if err != nil {
			_ = rt.Close(ctx)
			return nil, err
		}
	}

	store, closeMemory, err := OpenMemory(ctx, cfg.Memory)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	rt.Memory = store
	rt.closers = append(rt.closers, closeMemory)

	fanout := application.NewFanOut(
		newExecutor(cfg.Resilience, len(adapters)),
		cfg.Orchestration.CallTimeout.Duration(),
		application.WithFanOutMetrics(rt.Metrics),
		application.WithFanOutTracer(tracing.Tracer()),
	)

	orchOpts := []application.Option{
		application.WithAdapters(adapters...),
		application.WithTrinity(cfg.Orchestration.Trinity...),
		application.WithFanOut(fanout),
		application.WithEligibilityThreshold(cfg.Cache.EligibilityThreshold),
		application.WithKeyWindow(cfg.Cache.ContextWindow),
		application.WithMemory(store, cfg.Memory.MaxTurns),
		application.WithMetrics(rt.Metrics),
		application.WithTracer(tracing.Tracer()),
		application.WithDefaultMode(orchestration.Mode(cfg.Orchestration.DefaultMode)),
	}

	if !cfg.Cache.Disabled {
		metrics := rt.Metrics
		rt.Cache = memstore.NewResponseCache(
			memstore.WithMaxSize(cfg.Cache.MaxSize),
			memstore.WithEvictionHook(func(e cache.Entry) {
				metrics.RecordCacheEviction(context.Background())
				logging.Debug().
					Add(logging.Component("cache")).
					Add(logging.Str("cache_key", e.Key.Short())).
					Msg("cache entry evicted")
			}),
		)
		orchOpts = append(orchOpts, application.WithCache(rt.Cache))
	}

	if cfg.Orchestration.Reducer == domainconfig.ReducerSynthesis {
		reducer, err := buildSynthesis(cfg, fanout, adapters)
		if err != nil {
			_ = rt.Close(ctx)
			return nil, err
		}
		orchOpts = append(orchOpts, application.WithReducer(reducer))
	}

	orch, err := application.NewOrchestratorWithOptions(orchOpts...)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("%w: %w", ErrBuildFailed, err)
	}
	rt.Orchestrator = orch

	logging.Info().
		Add(logging.Contributors(orch.Adapters())).
		Add(logging.Str("trinity", fmt.Sprint(orch.Trinity()))).
		Add(logging.Str("version", vigil.Version)).
		Msg("orchestrator ready")

	return rt, nil
}

// buildAdapters creates adapters for every provider that has credentials.
func buildAdapters(cfg *Config) ([]orchestration.Adapter, error) {
	var adapters []orchestration.Adapter
	for _, pc := range cfg.Providers {
		if !pc.Configured() {
			logging.Warn().
				Add(logging.Provider(pc.ID)).
				Msg("provider has no credentials, skipping")
			continue
		}
		a, err := provider.NewAdapter(pc, cfg.SystemPrompt)
		if err != nil {
			return nil, fmt.Errorf("%w: provider %s: %w", ErrBuildFailed, pc.ID, err)
		}
		adapters = append(adapters, a)
	}
	if len(adapters) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrBuildFailed, ErrNoProviders)
	}
	return adapters, nil
}

func buildSynthesis(cfg *Config, fanout *application.FanOut, adapters []orchestration.Adapter) (*application.SynthesisReducer, error) {
	id := cfg.Orchestration.Synthesizer
	for _, a := range adapters {
		if id == "" || a.ID() == id {
			return application.NewSynthesisReducer(fanout, a)
		}
	}
	return nil, fmt.Errorf("%w: synthesizer %q is not a configured provider", ErrBuildFailed, id)
}

func newExecutor(rc ResilienceConfig, providers int) *resilience.Executor {
	maxConcurrent := rc.MaxConcurrent
	if maxConcurrent == 0 {
		maxConcurrent = resilience.DefaultExecutorConfig().MaxConcurrent
	}
	// Trinity plus a synthesis call must never queue behind each other.
	maxConcurrent = max(maxConcurrent, providers+1)

	opts := []resilience.Option{resilience.WithMaxConcurrent(maxConcurrent)}
	if rc.MaxQueue > 0 {
		opts = append(opts, resilience.WithMaxQueue(rc.MaxQueue))
	}
	if rc.BreakerThreshold > 0 {
		opts = append(opts, resilience.WithCircuitBreakerThreshold(rc.BreakerThreshold))
	}
	if rc.BreakerTimeout > 0 {
		opts = append(opts, resilience.WithCircuitBreakerTimeout(rc.BreakerTimeout.Duration()))
	}
	if rc.RetryAttempts > 0 {
		opts = append(opts, resilience.WithRetryAttempts(rc.RetryAttempts))
	}
	if rc.RetryDelay > 0 {
		opts = append(opts, resilience.WithRetryDelay(rc.RetryDelay.Duration()))
	}
	if rc.RateLimit > 0 {
		opts = append(opts, resilience.WithRateLimit(rc.RateLimit, rc.RateBurst))
	}
	return resilience.NewExecutorWithOptions(opts...)
}

func tracingOptions(cfg *Config, traceOut io.Writer) []observability.Option {
	opts := []observability.Option{
		observability.WithServiceName("vigil"),
		observability.WithServiceVersion(vigil.Version),
	}
	if cfg.Name != "" {
		opts = append(opts, observability.WithEnvironment(cfg.Name))
	}

	tc := cfg.Telemetry.Tracing
	if !tc.Enabled {
		return opts
	}

	exporter := observability.ExporterType(tc.Exporter)
	if exporter == "" {
		exporter = observability.ExporterOTLP
	}
	opts = append(opts, observability.WithTracing(exporter, tc.Endpoint))
	if tc.Insecure {
		opts = append(opts, observability.WithTracingInsecure())
	}
	if tc.SampleRate > 0 {
		opts = append(opts, observability.WithSampleRate(tc.SampleRate))
	}
	if traceOut != nil {
		opts = append(opts, observability.WithTraceWriter(traceOut))
	}
	return opts
}

// Handle answers one request.
func (r *Runtime) Handle(ctx context.Context, req Request) Response {
	return r.Orchestrator.Handle(ctx, req)
}

// Apply takes over the settings that can change without a restart:
// log level, cache eligibility threshold and call timeout.
func (r *Runtime) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.ApplyDefaults()

	logging.SetLevel(cfg.Logging.Level)
	r.Orchestrator.SetEligibilityThreshold(cfg.Cache.EligibilityThreshold)
	r.Orchestrator.SetCallTimeout(cfg.Orchestration.CallTimeout.Duration())

	logging.Info().
		Add(logging.Str("log_level", cfg.Logging.Level)).
		Add(logging.Count("eligibility_threshold", cfg.Cache.EligibilityThreshold)).
		Add(logging.Str("call_timeout", cfg.Orchestration.CallTimeout.Duration().String())).
		Msg("configuration applied")
}

// Close releases the memory backend and flushes traces.
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}
