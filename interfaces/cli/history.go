package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	api "github.com/felixgeelhaar/vigil/interfaces/api"
)

// historyOptions holds options for the history command.
type historyOptions struct {
	limit      int
	clear      bool
	jsonOutput bool
}

// newHistoryCmd creates the history command.
func (a *App) newHistoryCmd() *cobra.Command {
	opts := &historyOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent exchanges",
		Long: `Show the most recent exchanges from the configured memory store.

The in-memory backend does not outlive a process; use sqlite, badger, redis
or postgres to keep history between runs.

Examples:
  # Show the last 10 exchanges
  vigil history

  # Show everything as JSON
  vigil history -n 0 --json

  # Forget everything
  vigil history --clear`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.history(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Number of exchanges to show (0 for all)")
	cmd.Flags().BoolVar(&opts.clear, "clear", false, "Remove all exchanges")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output exchanges as JSON")

	return cmd
}

// history lists or clears the memory store.
func (a *App) history(ctx context.Context, opts *historyOptions) error {
	config, err := a.loadConfig()
	if err != nil {
		return err
	}

	store, closeStore, err := api.OpenMemory(ctx, config.Memory)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore(context.WithoutCancel(ctx)) }()

	if opts.clear {
		if err := store.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		_, _ = fmt.Fprintln(a.stdout, "history cleared")
		return nil
	}

	exchanges, err := store.Recent(ctx, opts.limit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if opts.jsonOutput {
		return writeJSON(a.stdout, exchanges)
	}

	if len(exchanges) == 0 {
		_, _ = fmt.Fprintln(a.stdout, "no exchanges recorded")
		return nil
	}

	for _, e := range exchanges {
		source := strings.Join(e.Providers, ", ")
		if e.CacheHit {
			source = "cache"
		}
		_, _ = fmt.Fprintf(a.stdout, "[%s] %s (%s)\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Mode, source)
		_, _ = fmt.Fprintf(a.stdout, "  > %s\n", e.Prompt)
		_, _ = fmt.Fprintf(a.stdout, "  %s\n", e.Answer)
	}
	return nil
}
