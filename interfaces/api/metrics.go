// Package api provides the public API for the vigil library.
// This file provides metrics and telemetry-related exports.
package api

import (
	"github.com/felixgeelhaar/vigil/application"
	"github.com/felixgeelhaar/vigil/infrastructure/telemetry"
)

// Re-export telemetry types.
type (
	// MetricsProvider provides access to OpenTelemetry metrics instruments.
	MetricsProvider = telemetry.MetricsProvider

	// MetricsConfig configures the metrics provider.
	MetricsConfig = telemetry.MetricsConfig

	// Metrics is the interface for recording metrics.
	Metrics = telemetry.Metrics

	// NoopMetricsProvider is a no-op implementation for testing.
	NoopMetricsProvider = telemetry.NoopMetricsProvider

	// Snapshot is the orchestrator's in-process telemetry.
	Snapshot = application.Snapshot
)

// NewMetricsProvider creates a new OpenTelemetry metrics provider.
//
// The provider records metrics for:
//   - Requests (count and duration, by mode, cache hit and outcome)
//   - Provider calls (count and duration, by provider and status)
//   - State transitions
//   - Cache hits, misses and evictions
//   - In-flight requests
//   - Errors
//
// Example:
//
//	provider := api.NewMetricsProvider(api.DefaultMetricsConfig())
//	if err := provider.Error(); err != nil {
//	    log.Fatalf("failed to create metrics provider: %v", err)
//	}
//
//	rt, _ := api.Build(ctx, cfg, api.WithMetricsRecorder(provider))
func NewMetricsProvider(config MetricsConfig) *MetricsProvider {
	return telemetry.NewMetricsProvider(config)
}

// DefaultMetricsConfig returns the default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return telemetry.DefaultMetricsConfig()
}
