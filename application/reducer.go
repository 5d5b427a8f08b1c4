package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/vigil/domain/conversation"
	"github.com/felixgeelhaar/vigil/domain/orchestration"
	"github.com/felixgeelhaar/vigil/infrastructure/logging"
)

// SourceSynthesis is the Response.Source of a synthesized answer.
const SourceSynthesis = "synthesis"

// Reduction is the answer chosen from a set of call results.
type Reduction struct {
	Text string
	// Source is the provider whose answer was chosen, or SourceSynthesis.
	Source string
	// Providers lists every provider with a successful result, in priority order.
	Providers []string
	// Extra holds calls the reducer made itself.
	Extra []orchestration.CallResult
}

// Reducer turns call results into one answer.
type Reducer interface {
	// Reduce selects or derives the answer. Results are in priority order.
	// It returns an error wrapping orchestration.ErrAllProvidersFailed when
	// no result can be used.
	Reduce(ctx context.Context, prompt string, results []orchestration.CallResult) (Reduction, error)
}

// PriorityReducer picks the successful answer of the highest-priority provider.
type PriorityReducer struct{}

// Reduce implements Reducer.
func (PriorityReducer) Reduce(_ context.Context, _ string, results []orchestration.CallResult) (Reduction, error) {
	var (
		red  Reduction
		errs []error
	)
	for _, r := range results {
		if !r.OK() {
			if r.Err != nil {
				errs = append(errs, r.Err)
			}
			continue
		}
		if red.Source == "" {
			red.Text = r.Payload
			red.Source = r.Provider
		}
		red.Providers = append(red.Providers, r.Provider)
	}

	if red.Source == "" {
		return Reduction{}, allFailed(len(results), errs)
	}
	return red, nil
}

func allFailed(n int, errs []error) error {
	if len(errs) == 0 {
		return fmt.Errorf("%w: %d providers attempted", orchestration.ErrAllProvidersFailed, n)
	}
	return fmt.Errorf("%w: %d providers attempted: %w", orchestration.ErrAllProvidersFailed, n, errors.Join(errs...))
}

// Caller invokes one adapter under the orchestrator's call policy.
type Caller interface {
	Call(ctx context.Context, a orchestration.Adapter, prompt string, history conversation.Context) orchestration.CallResult
}

// SynthesisReducer asks a designated adapter to merge two or more successful
// answers into one. With fewer successes, or when the synthesizer fails, it
// falls back to the priority pick.
type SynthesisReducer struct {
	caller      Caller
	synthesizer orchestration.Adapter
	fallback    PriorityReducer
}

// NewSynthesisReducer creates a synthesis reducer.
func NewSynthesisReducer(caller Caller, synthesizer orchestration.Adapter) (*SynthesisReducer, error) {
	if caller == nil {
		return nil, errors.New("synthesis reducer: caller is required")
	}
	if synthesizer == nil {
		return nil, errors.New("synthesis reducer: synthesizer is required")
	}
	return &SynthesisReducer{caller: caller, synthesizer: synthesizer}, nil
}

// Reduce implements Reducer.
func (s *SynthesisReducer) Reduce(ctx context.Context, prompt string, results []orchestration.CallResult) (Reduction, error) {
	picked, err := s.fallback.Reduce(ctx, prompt, results)
	if err != nil || len(picked.Providers) < 2 {
		return picked, err
	}

	call := s.caller.Call(ctx, s.synthesizer, SynthesisPrompt(prompt, results), nil)
	picked.Extra = append(picked.Extra, call)
	if !call.OK() {
		logging.Warn().
			Add(logging.Provider(s.synthesizer.ID())).
			Add(logging.ErrorField(call.Err)).
			Msg("synthesis failed, using priority answer")
		return picked, nil
	}

	picked.Text = call.Payload
	picked.Source = SourceSynthesis
	return picked, nil
}

// SynthesisPrompt builds the prompt that asks for one unified answer.
func SynthesisPrompt(prompt string, results []orchestration.CallResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You received the following question: %q\n\n", prompt)
	b.WriteString("Three AI perspectives responded:\n\n")
	for _, r := range results {
		if !r.OK() {
			continue
		}
		fmt.Fprintf(&b, "**%s:** %s\n\n", r.Provider, r.Payload)
	}
	b.WriteString("Synthesize these into ONE unified response that:\n")
	b.WriteString("1. Captures the convergent truth across all perspectives\n")
	b.WriteString("2. Notes any important tensions or differences\n")
	b.WriteString("3. Speaks as Vigil - the unified voice of the Trinity\n\n")
	b.WriteString("Keep it concise (3-5 sentences).")
	return b.String()
}

var (
	_ Reducer = PriorityReducer{}
	_ Reducer = (*SynthesisReducer)(nil)
	_ Caller  = (*FanOut)(nil)
)
