package orchestration

import (
	"errors"
	"time"
)

// FailureKind names the failures that surface to callers.
type FailureKind string

// Failure kinds.
const (
	FailureInvalidRequest     FailureKind = "invalid_request"
	FailureAllProvidersFailed FailureKind = "all_providers_failed"
)

// Failure is a typed failure result returned instead of an error.
type Failure struct {
	Kind    FailureKind
	Message string
	Err     error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return string(f.Kind) + ": " + f.Message
}

// Unwrap returns the sentinel error behind the failure.
func (f *Failure) Unwrap() error {
	return f.Err
}

// NewFailure classifies err into a Failure.
func NewFailure(err error) *Failure {
	kind := FailureAllProvidersFailed
	if errors.Is(err, ErrInvalidRequest) || errors.Is(err, ErrUnknownProvider) {
		kind = FailureInvalidRequest
	}
	return &Failure{Kind: kind, Message: err.Error(), Err: err}
}

// Response is the caller-facing result of Handle.
type Response struct {
	RequestID string
	Text      string
	// Source is the provider whose answer was returned, or "synthesis".
	Source string
	// Providers lists every provider that contributed a successful result.
	Providers []string
	CacheHit  bool
	Mode      Mode
	Latency   time.Duration
	Results   []CallResult
	Failure   *Failure
}

// OK returns true if the response carries an answer.
func (r Response) OK() bool {
	return r.Failure == nil
}
