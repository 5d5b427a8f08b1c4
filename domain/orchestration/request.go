package orchestration

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/vigil/domain/conversation"
)

// Mode selects how many providers a request fans out to.
type Mode string

// Orchestration modes.
const (
	// ModeSingle calls exactly one provider.
	ModeSingle Mode = "single"
	// ModeTrinity calls the three trinity providers concurrently.
	ModeTrinity Mode = "trinity"
	// ModeFallback calls providers one at a time in priority order until one succeeds.
	ModeFallback Mode = "fallback"
)

// IsValid returns true if the mode is a recognized mode.
func (m Mode) IsValid() bool {
	switch m {
	case ModeSingle, ModeTrinity, ModeFallback:
		return true
	default:
		return false
	}
}

// Cacheable returns true if answers produced in this mode may be cached.
func (m Mode) Cacheable() bool {
	return m.IsValid()
}

// ParseMode converts a string into a Mode. An empty string yields ModeSingle.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModeSingle, nil
	}
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidRequest, s)
	}
	return m, nil
}

// Request is one logical orchestration request.
type Request struct {
	// Prompt is the user text. It must contain non-whitespace characters.
	Prompt string

	// Context is the prior conversation. When nil the orchestrator loads it
	// from its memory store, if one is configured.
	Context conversation.Context

	// Mode defaults to ModeSingle.
	Mode Mode

	// Provider pins single mode to a specific adapter id.
	Provider string

	// NoCache disables cache reads and writes for this request.
	NoCache bool
}

// Validate checks the request and normalizes its mode.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("%w: prompt is empty", ErrInvalidRequest)
	}
	if r.Mode == "" {
		r.Mode = ModeSingle
	}
	if !r.Mode.IsValid() {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidRequest, r.Mode)
	}
	if r.Provider != "" && r.Mode != ModeSingle {
		return fmt.Errorf("%w: provider can only be pinned in single mode", ErrInvalidRequest)
	}
	for i, turn := range r.Context {
		if !turn.Role.IsValid() {
			return fmt.Errorf("%w: context turn %d has unknown role %q", ErrInvalidRequest, i, turn.Role)
		}
	}
	return nil
}
