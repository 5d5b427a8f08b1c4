package config

import (
	"encoding/json"

	domainconfig "github.com/felixgeelhaar/vigil/domain/config"
)

// JSONSchema represents a JSON Schema document.
type JSONSchema struct {
	Schema               string                 `json:"$schema,omitempty"`
	ID                   string                 `json:"$id,omitempty"`
	Title                string                 `json:"title,omitempty"`
	Description          string                 `json:"description,omitempty"`
	Type                 string                 `json:"type,omitempty"`
	Properties           map[string]*JSONSchema `json:"properties,omitempty"`
	Required             []string               `json:"required,omitempty"`
	Items                *JSONSchema            `json:"items,omitempty"`
	AdditionalProperties *JSONSchema            `json:"additionalProperties,omitempty"`
	Enum                 []string               `json:"enum,omitempty"`
	Default              any                    `json:"default,omitempty"`
	Minimum              *float64               `json:"minimum,omitempty"`
	Maximum              *float64               `json:"maximum,omitempty"`
	MinItems             *int                   `json:"minItems,omitempty"`
	MaxItems             *int                   `json:"maxItems,omitempty"`
	Format               string                 `json:"format,omitempty"`
}

// GenerateSchema generates a JSON Schema for the orchestrator configuration.
func GenerateSchema() *JSONSchema {
	return &JSONSchema{
		Schema:      "https://json-schema.org/draft/2020-12/schema",
		ID:          "https://github.com/felixgeelhaar/vigil/vigil-config.schema.json",
		Title:       "Vigil Configuration",
		Description: "Configuration schema for the vigil orchestrator",
		Type:        "object",
		Required:    []string{"providers"},
		Properties: map[string]*JSONSchema{
			"name": {
				Type:        "string",
				Description: "A human-readable name for this configuration",
			},
			"system_prompt": {
				Type:        "string",
				Description: "Prepended to every provider call",
			},
			"providers":     generateProvidersSchema(),
			"orchestration": generateOrchestrationSchema(),
			"cache":         generateCacheSchema(),
			"memory":        generateMemorySchema(),
			"resilience":    generateResilienceSchema(),
			"logging":       generateLoggingSchema(),
			"telemetry":     generateTelemetrySchema(),
		},
	}
}

func generateProvidersSchema() *JSONSchema {
	return &JSONSchema{
		Type:        "array",
		Description: "Upstream model backends in priority order",
		MinItems:    intPtr(1),
		Items: &JSONSchema{
			Type:     "object",
			Required: []string{"id", "kind"},
			Properties: map[string]*JSONSchema{
				"id": {Type: "string", Description: "Unique provider id"},
				"kind": {
					Type: "string",
					Enum: []string{
						domainconfig.KindOpenAI,
						domainconfig.KindAnthropic,
						domainconfig.KindGemini,
						domainconfig.KindPoe,
						domainconfig.KindOllama,
					},
				},
				"api_key":     {Type: "string", Description: "Credential; providers without one are skipped"},
				"base_url":    {Type: "string", Format: "uri"},
				"model":       {Type: "string"},
				"temperature": {Type: "number", Minimum: floatPtr(0), Maximum: floatPtr(2)},
				"max_tokens":  {Type: "integer", Minimum: floatPtr(0)},
			},
		},
	}
}

func generateOrchestrationSchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Fan-out and reduction settings",
		Properties: map[string]*JSONSchema{
			"trinity": {
				Type:        "array",
				Description: "Provider ids used in trinity mode, highest priority first",
				Items:       &JSONSchema{Type: "string"},
				MinItems:    intPtr(3),
				MaxItems:    intPtr(3),
			},
			"call_timeout": {
				Type:        "string",
				Description: "Per-call timeout (e.g., '30s')",
				Format:      "duration",
				Default:     "30s",
			},
			"reducer": {
				Type:    "string",
				Enum:    []string{domainconfig.ReducerPriority, domainconfig.ReducerSynthesis},
				Default: domainconfig.ReducerPriority,
			},
			"synthesizer": {
				Type:        "string",
				Description: "Provider id that merges answers for the synthesis reducer",
			},
			"default_mode": {
				Type:    "string",
				Enum:    []string{"single", "trinity", "fallback"},
				Default: "single",
			},
		},
	}
}

func generateCacheSchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Response cache settings",
		Properties: map[string]*JSONSchema{
			"max_size": {
				Type:    "integer",
				Minimum: floatPtr(0),
				Default: domainconfig.DefaultCacheMaxSize,
			},
			"eligibility_threshold": {
				Type:        "integer",
				Description: "Context length at which caching stops. 0 means the default; set disabled to turn caching off",
				Minimum:     floatPtr(0),
				Default:     domainconfig.DefaultEligibilityThreshold,
			},
			"context_window": {
				Type:        "integer",
				Description: "Trailing context turns hashed into the cache key. 0 keys on prompt and mode only",
				Minimum:     floatPtr(0),
				Default:     0,
			},
			"disabled": {Type: "boolean", Default: false},
		},
	}
}

func generateMemorySchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Conversational memory backend",
		Properties: map[string]*JSONSchema{
			"backend": {
				Type: "string",
				Enum: []string{
					domainconfig.BackendMemory,
					domainconfig.BackendSQLite,
					domainconfig.BackendRedis,
					domainconfig.BackendBadger,
					domainconfig.BackendPostgres,
				},
				Default: domainconfig.BackendMemory,
			},
			"max_turns":  {Type: "integer", Minimum: floatPtr(0), Default: 40},
			"dsn":        {Type: "string", Description: "SQLite or Postgres data source name"},
			"address":    {Type: "string", Description: "Redis address"},
			"password":   {Type: "string"},
			"dir":        {Type: "string", Description: "BadgerDB directory"},
			"key_prefix": {Type: "string"},
		},
	}
}

func generateResilienceSchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Per-call protection settings",
		Properties: map[string]*JSONSchema{
			"max_concurrent":    {Type: "integer", Minimum: floatPtr(0), Default: 16},
			"max_queue":         {Type: "integer", Minimum: floatPtr(0), Default: 256, Description: "Calls that wait for a free slot"},
			"breaker_threshold": {Type: "integer", Minimum: floatPtr(0), Default: 5},
			"breaker_timeout":   {Type: "string", Format: "duration", Default: "30s"},
			"retry_attempts":    {Type: "integer", Minimum: floatPtr(0), Default: 1},
			"retry_delay":       {Type: "string", Format: "duration", Default: "200ms"},
			"rate_limit":        {Type: "integer", Minimum: floatPtr(0), Description: "Calls per second per provider"},
			"rate_burst":        {Type: "integer", Minimum: floatPtr(0)},
		},
	}
}

func generateLoggingSchema() *JSONSchema {
	return &JSONSchema{
		Type: "object",
		Properties: map[string]*JSONSchema{
			"level": {
				Type:    "string",
				Enum:    []string{"trace", "debug", "info", "warn", "error"},
				Default: "info",
			},
			"format": {
				Type:    "string",
				Enum:    []string{"json", "console"},
				Default: "console",
			},
		},
	}
}

func generateTelemetrySchema() *JSONSchema {
	return &JSONSchema{
		Type: "object",
		Properties: map[string]*JSONSchema{
			"tracing": {
				Type: "object",
				Properties: map[string]*JSONSchema{
					"enabled":     {Type: "boolean", Default: false},
					"exporter":    {Type: "string", Enum: []string{"otlp", "stdout", "noop"}},
					"endpoint":    {Type: "string"},
					"insecure":    {Type: "boolean"},
					"sample_rate": {Type: "number", Minimum: floatPtr(0), Maximum: floatPtr(1)},
				},
			},
		},
	}
}

func floatPtr(f float64) *float64 {
	return &f
}

func intPtr(i int) *int {
	return &i
}

// SchemaJSON returns the JSON Schema as a JSON string.
func SchemaJSON() (string, error) {
	data, err := json.MarshalIndent(GenerateSchema(), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
