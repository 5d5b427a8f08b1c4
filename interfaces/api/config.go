// Package api provides the public API for the vigil library.
// This file provides configuration-related exports.
package api

import (
	domainconfig "github.com/felixgeelhaar/vigil/domain/config"
	infraconfig "github.com/felixgeelhaar/vigil/infrastructure/config"
)

// Re-export domain configuration types.
type (
	// Config represents the complete orchestrator configuration.
	Config = domainconfig.Config
	// ProviderConfig configures one upstream backend.
	ProviderConfig = domainconfig.ProviderConfig
	// OrchestrationConfig contains fan-out and reduction settings.
	OrchestrationConfig = domainconfig.OrchestrationConfig
	// CacheConfig contains response cache settings.
	CacheConfig = domainconfig.CacheConfig
	// MemoryConfig selects and configures the memory backend.
	MemoryConfig = domainconfig.MemoryConfig
	// ResilienceConfig contains per-call protection settings.
	ResilienceConfig = domainconfig.ResilienceConfig
	// LoggingConfig contains logger settings.
	LoggingConfig = domainconfig.LoggingConfig
	// TelemetryConfig contains tracing settings.
	TelemetryConfig = domainconfig.TelemetryConfig
	// TracingConfig configures span export.
	TracingConfig = domainconfig.TracingConfig
	// ConfigDuration is a time.Duration that supports JSON/YAML string representation.
	ConfigDuration = domainconfig.Duration

	// ValidationError represents a configuration validation error.
	ValidationError = domainconfig.ValidationError
	// ValidationErrors is a collection of validation errors.
	ValidationErrors = domainconfig.ValidationErrors
)

// Re-export infrastructure configuration types.
type (
	// ConfigLoader loads configuration from files.
	ConfigLoader = infraconfig.Loader
	// ConfigLoaderOption configures the loader.
	ConfigLoaderOption = infraconfig.LoaderOption
	// ConfigWatcher reloads configuration when its file changes.
	ConfigWatcher = infraconfig.Watcher
	// ConfigWatcherOption configures the watcher.
	ConfigWatcherOption = infraconfig.WatcherOption
	// JSONSchema represents a JSON Schema document.
	JSONSchema = infraconfig.JSONSchema
)

// Configuration format constants.
const (
	// ConfigFormatYAML is the YAML format.
	ConfigFormatYAML = infraconfig.FormatYAML
	// ConfigFormatJSON is the JSON format.
	ConfigFormatJSON = infraconfig.FormatJSON
)

// Configuration errors.
var (
	// ErrConfigNotFound indicates the configuration file was not found.
	ErrConfigNotFound = domainconfig.ErrConfigNotFound
	// ErrInvalidFormat indicates the configuration format is invalid.
	ErrInvalidFormat = domainconfig.ErrInvalidFormat
	// ErrUnsupportedFormat indicates the file format is not supported.
	ErrUnsupportedFormat = domainconfig.ErrUnsupportedFormat
	// ErrValidationFailed indicates configuration validation failed.
	ErrValidationFailed = domainconfig.ErrValidationFailed
	// ErrMissingEnvVar indicates a required environment variable is not set.
	ErrMissingEnvVar = domainconfig.ErrMissingEnvVar
	// ErrBuildFailed indicates building the runtime from config failed.
	ErrBuildFailed = domainconfig.ErrBuildFailed
)

// NewConfigLoader creates a new configuration loader with default settings.
func NewConfigLoader() *ConfigLoader {
	return infraconfig.NewLoader()
}

// NewConfigLoaderWithOptions creates a loader with the specified options.
func NewConfigLoaderWithOptions(opts ...ConfigLoaderOption) *ConfigLoader {
	return infraconfig.NewLoaderWithOptions(opts...)
}

// ConfigWithEnvExpansion enables or disables environment variable expansion.
func ConfigWithEnvExpansion(enabled bool) ConfigLoaderOption {
	return infraconfig.WithEnvExpansion(enabled)
}

// ConfigWithStrictEnv enables strict environment variable checking.
func ConfigWithStrictEnv(enabled bool) ConfigLoaderOption {
	return infraconfig.WithStrictEnv(enabled)
}

// ConfigWithValidation enables or disables configuration validation.
func ConfigWithValidation(enabled bool) ConfigLoaderOption {
	return infraconfig.WithValidation(enabled)
}

// NewConfigWatcher watches path and calls onReload with every valid new configuration.
func NewConfigWatcher(path string, loader *ConfigLoader, onReload func(*Config), opts ...ConfigWatcherOption) (*ConfigWatcher, error) {
	return infraconfig.NewWatcher(path, loader, onReload, opts...)
}

// ConfigWithErrorHandler receives reload failures.
func ConfigWithErrorHandler(fn func(error)) ConfigWatcherOption {
	return infraconfig.WithErrorHandler(fn)
}

// NewConfigValidator creates a new configuration validator.
func NewConfigValidator() *domainconfig.Validator {
	return domainconfig.NewValidator()
}

// GenerateConfigSchema generates a JSON Schema for the configuration.
func GenerateConfigSchema() *JSONSchema {
	return infraconfig.GenerateSchema()
}

// ConfigSchemaJSON returns the configuration JSON Schema as a JSON string.
func ConfigSchemaJSON() (string, error) {
	return infraconfig.SchemaJSON()
}

// ExpandEnv expands environment variables in a string.
// Supported patterns: ${VAR}, ${VAR:-default}, ${VAR:?error}
func ExpandEnv(input string) string {
	return infraconfig.ExpandEnv(input)
}
