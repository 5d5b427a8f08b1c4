package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Path is the dotted path to the invalid field.
	Path string
	// Message describes the validation error.
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e), strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates orchestrator configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(config *Config) ValidationErrors {
	v.errors = nil

	v.validateProviders(config)
	v.validateOrchestration(config)
	v.validateCache(config)
	v.validateMemory(config)
	v.validateResilience(config)
	v.validateLogging(config)

	return v.errors
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}

func (v *Validator) validateProviders(config *Config) {
	if len(config.Providers) == 0 {
		v.addError("providers", "at least one provider is required")
		return
	}

	validKinds := map[string]bool{
		KindOpenAI: true, KindAnthropic: true, KindGemini: true, KindPoe: true, KindOllama: true,
	}
	seen := make(map[string]bool)
	for i, p := range config.Providers {
		path := fmt.Sprintf("providers[%d]", i)
		if p.ID == "" {
			v.addError(path+".id", "provider id is required")
		} else if seen[p.ID] {
			v.addError(path+".id", fmt.Sprintf("duplicate provider id: %s", p.ID))
		}
		seen[p.ID] = true

		if !validKinds[p.Kind] {
			v.addError(path+".kind", fmt.Sprintf("unknown provider kind: %s", p.Kind))
		}
		if p.Temperature < 0 || p.Temperature > 2 {
			v.addError(path+".temperature", "temperature must be between 0 and 2")
		}
		if p.MaxTokens < 0 {
			v.addError(path+".max_tokens", "max_tokens must be non-negative")
		}
	}
}

func (v *Validator) validateOrchestration(config *Config) {
	o := config.Orchestration

	if len(o.Trinity) > 0 {
		if len(o.Trinity) != 3 {
			v.addError("orchestration.trinity", fmt.Sprintf("trinity needs exactly 3 providers, got %d", len(o.Trinity)))
		}
		seen := make(map[string]bool)
		for i, id := range o.Trinity {
			if _, ok := config.Provider(id); !ok {
				v.addError(fmt.Sprintf("orchestration.trinity[%d]", i), fmt.Sprintf("unknown provider: %s", id))
			}
			if seen[id] {
				v.addError(fmt.Sprintf("orchestration.trinity[%d]", i), fmt.Sprintf("duplicate provider: %s", id))
			}
			seen[id] = true
		}
	}

	if o.CallTimeout < 0 {
		v.addError("orchestration.call_timeout", "call_timeout must be non-negative")
	}

	switch o.Reducer {
	case "", ReducerPriority:
	case ReducerSynthesis:
		if o.Synthesizer == "" {
			v.addError("orchestration.synthesizer", "synthesizer is required for the synthesis reducer")
		} else if _, ok := config.Provider(o.Synthesizer); !ok {
			v.addError("orchestration.synthesizer", fmt.Sprintf("unknown provider: %s", o.Synthesizer))
		}
	default:
		v.addError("orchestration.reducer", fmt.Sprintf("unknown reducer: %s", o.Reducer))
	}

	switch o.DefaultMode {
	case "", "single", "trinity", "fallback":
	default:
		v.addError("orchestration.default_mode", fmt.Sprintf("unknown mode: %s", o.DefaultMode))
	}
}

func (v *Validator) validateCache(config *Config) {
	if config.Cache.MaxSize < 0 {
		v.addError("cache.max_size", "max_size must be non-negative")
	}
	if config.Cache.EligibilityThreshold < 0 {
		v.addError("cache.eligibility_threshold", "eligibility_threshold must be non-negative (0 means the default; set cache.disabled to turn caching off)")
	}
	if config.Cache.ContextWindow < 0 {
		v.addError("cache.context_window", "context_window must be non-negative")
	}
}

func (v *Validator) validateMemory(config *Config) {
	m := config.Memory
	switch m.Backend {
	case "", BackendMemory:
	case BackendSQLite, BackendPostgres:
		if m.DSN == "" {
			v.addError("memory.dsn", fmt.Sprintf("dsn is required for the %s backend", m.Backend))
		}
	case BackendRedis:
		if m.Address == "" {
			v.addError("memory.address", "address is required for the redis backend")
		}
	case BackendBadger:
		if m.Dir == "" {
			v.addError("memory.dir", "dir is required for the badger backend")
		}
	default:
		v.addError("memory.backend", fmt.Sprintf("unknown backend: %s", m.Backend))
	}
	if m.MaxTurns < 0 {
		v.addError("memory.max_turns", "max_turns must be non-negative")
	}
}

func (v *Validator) validateResilience(config *Config) {
	r := config.Resilience
	if r.MaxConcurrent < 0 {
		v.addError("resilience.max_concurrent", "max_concurrent must be non-negative")
	}
	if r.MaxQueue < 0 {
		v.addError("resilience.max_queue", "max_queue must be non-negative")
	}
	if r.BreakerThreshold < 0 {
		v.addError("resilience.breaker_threshold", "breaker_threshold must be non-negative")
	}
	if r.RetryAttempts < 0 {
		v.addError("resilience.retry_attempts", "retry_attempts must be non-negative")
	}
	if r.RateLimit < 0 || r.RateBurst < 0 {
		v.addError("resilience.rate_limit", "rate_limit and rate_burst must be non-negative")
	}
}

func (v *Validator) validateLogging(config *Config) {
	if config.Logging.Level != "" {
		validLevels := map[string]bool{
			"trace": true, "debug": true, "info": true, "warn": true, "error": true,
		}
		if !validLevels[strings.ToLower(config.Logging.Level)] {
			v.addError("logging.level", fmt.Sprintf("invalid level: %s", config.Logging.Level))
		}
	}
	if config.Logging.Format != "" && config.Logging.Format != "json" && config.Logging.Format != "console" {
		v.addError("logging.format", fmt.Sprintf("invalid format: %s", config.Logging.Format))
	}
}
