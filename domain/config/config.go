// Package config provides domain models for orchestrator configuration.
package config

import "time"

// Provider kinds understood by the adapter factory.
const (
	KindOpenAI    = "openai"
	KindAnthropic = "anthropic"
	KindGemini    = "gemini"
	KindPoe       = "poe"
	KindOllama    = "ollama"
)

// Memory backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendBadger   = "badger"
	BackendPostgres = "postgres"
)

// Reducer policies.
const (
	ReducerPriority  = "priority"
	ReducerSynthesis = "synthesis"
)

// Config represents the complete orchestrator configuration.
type Config struct {
	// Name is a human-readable name for this configuration.
	Name string `json:"name" yaml:"name"`
	// SystemPrompt is prepended to every provider call.
	SystemPrompt string `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty"`

	// Providers lists the upstream model backends in priority order.
	Providers []ProviderConfig `json:"providers" yaml:"providers"`
	// Orchestration contains fan-out and reduction settings.
	Orchestration OrchestrationConfig `json:"orchestration,omitempty" yaml:"orchestration,omitempty"`
	// Cache contains response cache settings.
	Cache CacheConfig `json:"cache,omitempty" yaml:"cache,omitempty"`
	// Memory selects the conversational memory backend.
	Memory MemoryConfig `json:"memory,omitempty" yaml:"memory,omitempty"`
	// Resilience contains per-call protection settings.
	Resilience ResilienceConfig `json:"resilience,omitempty" yaml:"resilience,omitempty"`
	// Logging contains logger settings.
	Logging LoggingConfig `json:"logging,omitempty" yaml:"logging,omitempty"`
	// Telemetry contains tracing settings.
	Telemetry TelemetryConfig `json:"telemetry,omitempty" yaml:"telemetry,omitempty"`
}

// ProviderConfig configures one upstream backend.
type ProviderConfig struct {
	// ID is the unique provider id used in priority order and logs.
	ID string `json:"id" yaml:"id"`
	// Kind selects the adapter implementation.
	Kind string `json:"kind" yaml:"kind"`
	// APIKey is the credential. Providers without one are skipped, except ollama.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	// BaseURL overrides the default endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	// Model is the upstream model or bot name.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`
	// Temperature is the sampling temperature.
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	// MaxTokens bounds the answer length.
	MaxTokens int `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
}

// Configured returns true if the provider has what it needs to be called.
func (p ProviderConfig) Configured() bool {
	return p.Kind == KindOllama || p.APIKey != ""
}

// OrchestrationConfig contains fan-out and reduction settings.
type OrchestrationConfig struct {
	// Trinity lists the three provider ids used in trinity mode, in priority order.
	Trinity []string `json:"trinity,omitempty" yaml:"trinity,omitempty"`
	// CallTimeout bounds every individual provider call.
	CallTimeout Duration `json:"call_timeout,omitempty" yaml:"call_timeout,omitempty"`
	// Reducer selects the reduction policy (priority or synthesis).
	Reducer string `json:"reducer,omitempty" yaml:"reducer,omitempty"`
	// Synthesizer is the provider id asked to merge answers when Reducer is synthesis.
	Synthesizer string `json:"synthesizer,omitempty" yaml:"synthesizer,omitempty"`
	// DefaultMode is used when a request does not name a mode.
	DefaultMode string `json:"default_mode,omitempty" yaml:"default_mode,omitempty"`
}

// CacheConfig contains response cache settings.
type CacheConfig struct {
	// MaxSize is the maximum number of cached answers (default 50).
	MaxSize int `json:"max_size,omitempty" yaml:"max_size,omitempty"`
	// EligibilityThreshold is the context length at which caching stops.
	// Zero or unset means the default of 10; use Disabled to turn caching off.
	EligibilityThreshold int `json:"eligibility_threshold,omitempty" yaml:"eligibility_threshold,omitempty"`
	// ContextWindow is the number of trailing context turns hashed into the
	// cache key. Zero keys on prompt and mode only.
	ContextWindow int `json:"context_window,omitempty" yaml:"context_window,omitempty"`
	// Disabled turns the cache off entirely.
	Disabled bool `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// MemoryConfig selects and configures the memory backend.
type MemoryConfig struct {
	// Backend is one of memory, sqlite, redis, badger, postgres.
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
	// MaxTurns caps the context loaded for a request (default 40).
	MaxTurns int `json:"max_turns,omitempty" yaml:"max_turns,omitempty"`
	// DSN is the SQLite or Postgres data source name.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	// Address is the Redis address.
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
	// Password is the Redis password.
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	// Dir is the BadgerDB directory.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
	// KeyPrefix namespaces keys or rows.
	KeyPrefix string `json:"key_prefix,omitempty" yaml:"key_prefix,omitempty"`
}

// ResilienceConfig contains per-call protection settings.
type ResilienceConfig struct {
	// MaxConcurrent bounds in-flight provider calls (minimum 3).
	MaxConcurrent int `json:"max_concurrent,omitempty" yaml:"max_concurrent,omitempty"`
	// MaxQueue is the number of calls that wait for a free slot (default 256).
	MaxQueue int `json:"max_queue,omitempty" yaml:"max_queue,omitempty"`
	// BreakerThreshold is the consecutive failures before a provider's circuit opens.
	BreakerThreshold int `json:"breaker_threshold,omitempty" yaml:"breaker_threshold,omitempty"`
	// BreakerTimeout is how long an open circuit stays open.
	BreakerTimeout Duration `json:"breaker_timeout,omitempty" yaml:"breaker_timeout,omitempty"`
	// RetryAttempts is the total attempts per call (1 disables retries).
	RetryAttempts int `json:"retry_attempts,omitempty" yaml:"retry_attempts,omitempty"`
	// RetryDelay is the initial backoff delay.
	RetryDelay Duration `json:"retry_delay,omitempty" yaml:"retry_delay,omitempty"`
	// RateLimit is the per-provider calls per second (0 disables).
	RateLimit int `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
	// RateBurst is the per-provider burst size.
	RateBurst int `json:"rate_burst,omitempty" yaml:"rate_burst,omitempty"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	// Level is trace, debug, info, warn or error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// Format is json or console.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// TelemetryConfig contains tracing settings.
type TelemetryConfig struct {
	Tracing TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty"`
}

// TracingConfig configures span export.
type TracingConfig struct {
	Enabled    bool    `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Exporter   string  `json:"exporter,omitempty" yaml:"exporter,omitempty"`
	Endpoint   string  `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Insecure   bool    `json:"insecure,omitempty" yaml:"insecure,omitempty"`
	SampleRate float64 `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty"`
}

// Defaults for optional settings.
const (
	DefaultCacheMaxSize         = 50
	DefaultEligibilityThreshold = 10
	DefaultCallTimeout          = 30 * time.Second
)

// ApplyDefaults fills unset optional fields.
func (c *Config) ApplyDefaults() {
	if c.Cache.MaxSize == 0 {
		c.Cache.MaxSize = DefaultCacheMaxSize
	}
	if c.Cache.EligibilityThreshold == 0 {
		c.Cache.EligibilityThreshold = DefaultEligibilityThreshold
	}
	if c.Orchestration.CallTimeout == 0 {
		c.Orchestration.CallTimeout = Duration(DefaultCallTimeout)
	}
	if c.Orchestration.Reducer == "" {
		c.Orchestration.Reducer = ReducerPriority
	}
	if c.Orchestration.DefaultMode == "" {
		c.Orchestration.DefaultMode = "single"
	}
	if len(c.Orchestration.Trinity) == 0 {
		for i, p := range c.Providers {
			if i == 3 {
				break
			}
			c.Orchestration.Trinity = append(c.Orchestration.Trinity, p.ID)
		}
	}
	if c.Memory.Backend == "" {
		c.Memory.Backend = BackendMemory
	}
	if c.Memory.MaxTurns == 0 {
		c.Memory.MaxTurns = 40
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}

// Provider returns the provider config with the given id.
func (c *Config) Provider(id string) (ProviderConfig, bool) {
	for _, p := range c.Providers {
		if p.ID == id {
			return p, true
		}
	}
	return ProviderConfig{}, false
}

// Duration is a time.Duration that supports JSON/YAML string representation.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}

	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
