package orchestration

import "errors"

// Domain errors for orchestration.
var (
	// ErrInvalidRequest indicates an empty or malformed request. It is raised
	// before any provider is contacted.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrProviderTimeout indicates a provider call exceeded its timeout.
	ErrProviderTimeout = errors.New("provider timeout")

	// ErrProviderError indicates a provider call failed.
	ErrProviderError = errors.New("provider error")

	// ErrAllProvidersFailed indicates no provider produced a usable answer.
	ErrAllProvidersFailed = errors.New("all providers failed")

	// ErrCacheUnavailable indicates the response cache could not serve a
	// lookup or write. The orchestrator recomputes instead.
	ErrCacheUnavailable = errors.New("cache unavailable")

	// ErrUnknownProvider indicates a request named a provider that is not registered.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrNoAdapters indicates an orchestrator was built without adapters.
	ErrNoAdapters = errors.New("no provider adapters configured")
)
