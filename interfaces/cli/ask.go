package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	api "github.com/felixgeelhaar/vigil/interfaces/api"
)

// askOptions holds options for the ask command.
type askOptions struct {
	mode       string
	provider   string
	noCache    bool
	jsonOutput bool
}

// newAskCmd creates the ask command.
func (a *App) newAskCmd() *cobra.Command {
	opts := &askOptions{}

	cmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Ask a single question",
		Long: `Ask one question and print the answer.

The prompt is taken from the argument, or read from stdin when omitted.
Conversation context is loaded from the configured memory store and the
exchange is recorded there afterwards.

Examples:
  # Ask the first configured provider
  vigil ask "What is the capital of Portugal?"

  # Ask all three trinity providers
  vigil ask --mode trinity "Is P equal to NP?"

  # Pin a provider and skip the cache
  vigil ask --provider claude --no-cache "Summarize the CAP theorem"

  # Read the prompt from stdin and print JSON
  echo "2+2?" | vigil ask --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := ""
			if len(args) > 0 {
				prompt = args[0]
			} else {
				data, err := io.ReadAll(a.stdin)
				if err != nil {
					return fmt.Errorf("failed to read prompt: %w", err)
				}
				prompt = strings.TrimSpace(string(data))
			}
			return a.ask(cmd.Context(), prompt, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "", "Orchestration mode: single, trinity or fallback")
	cmd.Flags().StringVarP(&opts.provider, "provider", "p", "", "Provider id to use in single mode")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "Bypass the response cache")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the response as JSON")

	return cmd
}

// ask answers one prompt.
func (a *App) ask(ctx context.Context, prompt string, opts *askOptions) error {
	rt, err := a.buildRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close(context.WithoutCancel(ctx)) }()

	resp := rt.Handle(ctx, api.Request{
		Prompt:   prompt,
		Mode:     api.Mode(opts.mode),
		Provider: opts.provider,
		NoCache:  opts.noCache,
	})

	if opts.jsonOutput {
		if err := writeJSON(a.stdout, toJSON(resp)); err != nil {
			return err
		}
	} else if resp.OK() {
		writeAnswer(a.stdout, resp)
	}

	if resp.Failure != nil {
		return resp.Failure
	}
	return nil
}
