// Package telemetry provides OpenTelemetry metrics for the orchestrator.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsProvider provides access to metrics instruments.
type MetricsProvider struct {
	meter metric.Meter

	// Counters
	requests         metric.Int64Counter
	providerCalls    metric.Int64Counter
	stateTransitions metric.Int64Counter
	cacheHits        metric.Int64Counter
	cacheMisses      metric.Int64Counter
	cacheEvictions   metric.Int64Counter
	errors           metric.Int64Counter

	// Histograms
	requestDuration  metric.Float64Histogram
	providerDuration metric.Float64Histogram

	// Gauges (using UpDownCounter for OpenTelemetry)
	inflight metric.Int64UpDownCounter

	initErr error
}

// MetricsConfig configures the metrics provider.
type MetricsConfig struct {
	// MeterName is the name of the meter (default: "github.com/felixgeelhaar/vigil").
	MeterName string
	// MeterVersion is the version of the meter.
	MeterVersion string
	// MeterProvider overrides the global meter provider.
	MeterProvider metric.MeterProvider
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    "github.com/felixgeelhaar/vigil",
		MeterVersion: "1.0.0",
	}
}

// NewMetricsProvider creates a new metrics provider.
func NewMetricsProvider(config MetricsConfig) *MetricsProvider {
	if config.MeterName == "" {
		config.MeterName = DefaultMetricsConfig().MeterName
	}

	provider := config.MeterProvider
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(
		config.MeterName,
		metric.WithInstrumentationVersion(config.MeterVersion),
	)

	mp := &MetricsProvider{meter: meter}
	mp.initErr = mp.initInstruments()
	return mp
}

// initInstruments initializes all metric instruments.
func (mp *MetricsProvider) initInstruments() error {
	var err error

	mp.requests, err = mp.meter.Int64Counter(
		"vigil.requests",
		metric.WithDescription("Number of handled requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	mp.providerCalls, err = mp.meter.Int64Counter(
		"vigil.provider.calls",
		metric.WithDescription("Number of provider calls by status"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return err
	}

	mp.stateTransitions, err = mp.meter.Int64Counter(
		"vigil.state.transitions",
		metric.WithDescription("Number of request lifecycle transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return err
	}

	mp.cacheHits, err = mp.meter.Int64Counter(
		"vigil.cache.hits",
		metric.WithDescription("Number of response cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	mp.cacheMisses, err = mp.meter.Int64Counter(
		"vigil.cache.misses",
		metric.WithDescription("Number of response cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return err
	}

	mp.cacheEvictions, err = mp.meter.Int64Counter(
		"vigil.cache.evictions",
		metric.WithDescription("Number of response cache evictions"),
		metric.WithUnit("{eviction}"),
	)
	if err != nil {
		return err
	}

	mp.errors, err = mp.meter.Int64Counter(
		"vigil.errors",
		metric.WithDescription("Number of errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	mp.requestDuration, err = mp.meter.Float64Histogram(
		"vigil.request.duration",
		metric.WithDescription("Duration of handled requests"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.providerDuration, err = mp.meter.Float64Histogram(
		"vigil.provider.duration",
		metric.WithDescription("Duration of provider calls"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.inflight, err = mp.meter.Int64UpDownCounter(
		"vigil.requests.inflight",
		metric.WithDescription("Number of requests being handled"),
		metric.WithUnit("{request}"),
	)
	return err
}

// Error returns any initialization error.
func (mp *MetricsProvider) Error() error {
	return mp.initErr
}

// RecordRequest records a finished request.
func (mp *MetricsProvider) RecordRequest(ctx context.Context, mode string, cacheHit, success bool, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.Bool("cache_hit", cacheHit),
		attribute.Bool("success", success),
	)

	mp.requests.Add(ctx, 1, attrs)
	mp.requestDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordProviderCall records one provider call and its status.
func (mp *MetricsProvider) RecordProviderCall(ctx context.Context, provider, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("status", status),
	)

	mp.providerCalls.Add(ctx, 1, attrs)
	mp.providerDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordStateTransition records a lifecycle transition.
func (mp *MetricsProvider) RecordStateTransition(ctx context.Context, fromState, toState string) {
	mp.stateTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("state.from", fromState),
		attribute.String("state.to", toState),
	))
}

// RecordCacheHit records a cache hit.
func (mp *MetricsProvider) RecordCacheHit(ctx context.Context, mode string) {
	mp.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
}

// RecordCacheMiss records a cache miss.
func (mp *MetricsProvider) RecordCacheMiss(ctx context.Context, mode string) {
	mp.cacheMisses.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
}

// RecordCacheEviction records a FIFO eviction.
func (mp *MetricsProvider) RecordCacheEviction(ctx context.Context) {
	mp.cacheEvictions.Add(ctx, 1)
}

// RecordError records an error.
func (mp *MetricsProvider) RecordError(ctx context.Context, errorType string, details map[string]string) {
	attrs := []attribute.KeyValue{
		attribute.String("error.type", errorType),
	}
	for k, v := range details {
		attrs = append(attrs, attribute.String(k, v))
	}

	mp.errors.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// IncrementInflight increments the in-flight request gauge.
func (mp *MetricsProvider) IncrementInflight(ctx context.Context) {
	mp.inflight.Add(ctx, 1)
}

// DecrementInflight decrements the in-flight request gauge.
func (mp *MetricsProvider) DecrementInflight(ctx context.Context) {
	mp.inflight.Add(ctx, -1)
}

// NoopMetricsProvider is a no-op metrics provider for testing or when metrics are disabled.
type NoopMetricsProvider struct{}

// RecordRequest is a no-op.
func (n *NoopMetricsProvider) RecordRequest(context.Context, string, bool, bool, time.Duration) {}

// RecordProviderCall is a no-op.
func (n *NoopMetricsProvider) RecordProviderCall(context.Context, string, string, time.Duration) {}

// RecordStateTransition is a no-op.
func (n *NoopMetricsProvider) RecordStateTransition(context.Context, string, string) {}

// RecordCacheHit is a no-op.
func (n *NoopMetricsProvider) RecordCacheHit(context.Context, string) {}

// RecordCacheMiss is a no-op.
func (n *NoopMetricsProvider) RecordCacheMiss(context.Context, string) {}

// RecordCacheEviction is a no-op.
func (n *NoopMetricsProvider) RecordCacheEviction(context.Context) {}

// RecordError is a no-op.
func (n *NoopMetricsProvider) RecordError(context.Context, string, map[string]string) {}

// IncrementInflight is a no-op.
func (n *NoopMetricsProvider) IncrementInflight(context.Context) {}

// DecrementInflight is a no-op.
func (n *NoopMetricsProvider) DecrementInflight(context.Context) {}

// Metrics defines the interface for metrics recording.
type Metrics interface {
	RecordRequest(ctx context.Context, mode string, cacheHit, success bool, duration time.Duration)
	RecordProviderCall(ctx context.Context, provider, status string, duration time.Duration)
	RecordStateTransition(ctx context.Context, fromState, toState string)
	RecordCacheHit(ctx context.Context, mode string)
	RecordCacheMiss(ctx context.Context, mode string)
	RecordCacheEviction(ctx context.Context)
	RecordError(ctx context.Context, errorType string, details map[string]string)
	IncrementInflight(ctx context.Context)
	DecrementInflight(ctx context.Context)
}

// Ensure implementations satisfy the interface.
var (
	_ Metrics = (*MetricsProvider)(nil)
	_ Metrics = (*NoopMetricsProvider)(nil)
)
