package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/vigil/domain/orchestration"
	api "github.com/felixgeelhaar/vigil/interfaces/api"
)

// chatOptions holds options for the chat command.
type chatOptions struct {
	mode    string
	noCache bool
	watch   bool
}

// chatSession is the state of one interactive session.
type chatSession struct {
	app     *App
	rt      *api.Runtime
	mode    api.Mode
	noCache bool
}

// newChatCmd creates the chat command.
func (a *App) newChatCmd() *cobra.Command {
	opts := &chatOptions{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Long: `Start an interactive conversation.

Every answer is remembered, so later prompts carry the conversation as
context. Once the conversation reaches the cache threshold, prompts are
always sent to the providers.

Commands:
  /mode <single|trinity|fallback>  switch the orchestration mode
  /stats                           show latency and cache statistics
  /clear                           forget the conversation
  /quit                            leave the session

With --watch, changes to the log level, cache threshold and call timeout in
the configuration file take effect without restarting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.chat(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "", "Initial orchestration mode")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "Bypass the response cache")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Reload settings when the configuration file changes")

	return cmd
}

// chat runs the interactive session until /quit or end of input.
func (a *App) chat(ctx context.Context, opts *chatOptions) error {
	rt, err := a.buildRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close(context.WithoutCancel(ctx)) }()

	if opts.watch {
		watcher, err := api.NewConfigWatcher(a.configPath, api.NewConfigLoader(), rt.Apply,
			api.ConfigWithErrorHandler(func(err error) {
				_, _ = fmt.Fprintf(a.stderr, "configuration not reloaded: %v\n", err)
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to watch configuration: %w", err)
		}
		if err := watcher.Start(ctx); err != nil {
			return fmt.Errorf("failed to watch configuration: %w", err)
		}
		defer func() { _ = watcher.Stop() }()
	}

	s := &chatSession{
		app:     a,
		rt:      rt,
		mode:    api.Mode(opts.mode),
		noCache: opts.noCache,
	}
	if s.mode == "" {
		s.mode = api.Mode(rt.Config.Orchestration.DefaultMode)
	}
	if _, err := orchestration.ParseMode(string(s.mode)); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(a.stdout, "vigil %s, mode %s. Type /quit to leave.\n", Version, s.mode)

	scanner := bufio.NewScanner(a.stdin)
	for {
		_, _ = fmt.Fprint(a.stdout, "> ")
		if !scanner.Scan() {
			_, _ = fmt.Fprintln(a.stdout)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := s.command(ctx, line); quit {
				return nil
			}
			continue
		}
		s.ask(ctx, line)
	}
}

func (s *chatSession) ask(ctx context.Context, prompt string) {
	resp := s.rt.Handle(ctx, api.Request{Prompt: prompt, Mode: s.mode, NoCache: s.noCache})
	if resp.Failure != nil {
		_, _ = fmt.Fprintf(s.app.stdout, "! %s\n", resp.Failure.Message)
		return
	}
	writeAnswer(s.app.stdout, resp)
}

// command runs a slash command and reports whether the session should end.
func (s *chatSession) command(ctx context.Context, line string) bool {
	out := s.app.stdout
	fields := strings.Fields(line)

	switch fields[0] {
	case "/quit", "/exit":
		return true

	case "/mode":
		if len(fields) < 2 {
			_, _ = fmt.Fprintf(out, "mode: %s\n", s.mode)
			return false
		}
		mode, err := orchestration.ParseMode(fields[1])
		if err != nil {
			_, _ = fmt.Fprintf(out, "! unknown mode %q (single, trinity, fallback)\n", fields[1])
			return false
		}
		s.mode = mode
		_, _ = fmt.Fprintf(out, "mode: %s\n", s.mode)

	case "/stats":
		s.stats()

	case "/clear":
		if err := s.rt.Memory.Clear(ctx); err != nil {
			_, _ = fmt.Fprintf(out, "! %v\n", err)
			return false
		}
		_, _ = fmt.Fprintln(out, "conversation cleared")

	default:
		_, _ = fmt.Fprintf(out, "! unknown command %s (/mode, /stats, /clear, /quit)\n", fields[0])
	}
	return false
}

func (s *chatSession) stats() {
	out := s.app.stdout
	snap := s.rt.Orchestrator.Telemetry()

	_, _ = fmt.Fprintf(out, "requests:      %d (%d failed)\n", snap.Requests, snap.Failures)
	_, _ = fmt.Fprintf(out, "cache hits:    %d (%.0f%%)\n", snap.CacheHits, snap.HitRate()*100)
	_, _ = fmt.Fprintf(out, "last latency:  %s\n", snap.LastLatency)
	_, _ = fmt.Fprintf(out, "last cached:   %t\n", snap.LastCacheHit)
	if stats, ok := s.rt.Orchestrator.CacheStats(); ok {
		_, _ = fmt.Fprintf(out, "cache entries: %d/%d (%d evicted)\n", stats.Size, stats.MaxSize, stats.Evictions)
	}
	_, _ = fmt.Fprintf(out, "providers:     %s\n", strings.Join(s.rt.Orchestrator.Adapters(), ", "))
	_, _ = fmt.Fprintf(out, "trinity:       %s\n", strings.Join(s.rt.Orchestrator.Trinity(), ", "))
}
