// Package cli provides the vigil command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/vigil"
	api "github.com/felixgeelhaar/vigil/interfaces/api"
)

// Version information set at build time.
var (
	Version   = vigil.Version
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// DefaultConfigPath is read when no --config flag is given.
const DefaultConfigPath = "vigil.yaml"

// App represents the CLI application.
type App struct {
	root       *cobra.Command
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
	configPath string
	buildOpts  []api.BuildOption
}

// New creates a new CLI application.
func New() *App {
	app := &App{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "vigil",
		Short: "Multi-provider LLM orchestration",
		Long: `vigil answers prompts from one or more LLM providers.

Single mode asks one provider. Trinity mode asks three providers at once and
returns the answer of the highest-priority provider that succeeded. Fallback
mode tries providers one at a time until one answers. Repeated prompts in
short conversations are served from a bounded FIFO cache.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	app.root.PersistentFlags().StringVarP(&app.configPath, "config", "c", DefaultConfigPath, "Path to configuration file")

	app.root.AddCommand(
		app.newVersionCmd(),
		app.newValidateCmd(),
		app.newExportSchemaCmd(),
		app.newAskCmd(),
		app.newChatCmd(),
		app.newHistoryCmd(),
	)

	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// WithInput sets the reader used for prompts and the chat session.
func (a *App) WithInput(stdin io.Reader) *App {
	a.stdin = stdin
	a.root.SetIn(stdin)
	return a
}

// WithBuildOptions adds options to every runtime the CLI builds.
func (a *App) WithBuildOptions(opts ...api.BuildOption) *App {
	a.buildOpts = append(a.buildOpts, opts...)
	return a
}

// Execute runs the CLI application.
func (a *App) Execute(ctx context.Context) error {
	// Set up signal handling
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments (useful for testing).
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

// loadConfig reads and validates the configuration file.
func (a *App) loadConfig() (*api.Config, error) {
	config, err := api.NewConfigLoader().LoadFile(a.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return config, nil
}

// buildRuntime loads the configuration and wires an orchestrator from it.
func (a *App) buildRuntime(ctx context.Context) (*api.Runtime, error) {
	config, err := a.loadConfig()
	if err != nil {
		return nil, err
	}

	opts := append([]api.BuildOption{api.WithLogOutput(a.stderr)}, a.buildOpts...)
	rt, err := api.Build(ctx, config, opts...)
	if err != nil {
		return nil, err
	}
	return rt, nil
}

// newVersionCmd creates the version command.
func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(a.stdout, "vigil version %s\n", Version)
			_, _ = fmt.Fprintf(a.stdout, "  Git commit: %s\n", GitCommit)
			_, _ = fmt.Fprintf(a.stdout, "  Build date: %s\n", BuildDate)
		},
	}
}
