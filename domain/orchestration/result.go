package orchestration

import "time"

// CallStatus classifies the outcome of one provider call.
type CallStatus string

// Call statuses.
const (
	StatusSuccess CallStatus = "success"
	StatusTimeout CallStatus = "timeout"
	StatusError   CallStatus = "error"
)

// CallResult is the outcome of a single provider call.
type CallResult struct {
	Provider string
	Status   CallStatus
	Payload  string
	Err      error
	Latency  time.Duration
}

// OK returns true if the call succeeded.
func (r CallResult) OK() bool {
	return r.Status == StatusSuccess
}
