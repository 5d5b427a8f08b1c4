package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	api "github.com/felixgeelhaar/vigil/interfaces/api"
)

// validateOptions holds options for the validate command.
type validateOptions struct {
	strict     bool
	showSchema bool
}

// newValidateCmd creates the validate command.
func (a *App) newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Long: `Validate a vigil configuration file for correctness.

This command checks:
  - File format (YAML or JSON)
  - Provider ids, kinds and duplicates
  - Trinity and synthesizer references
  - Cache, memory and logging settings
  - Environment variable references (in strict mode)

Examples:
  # Validate a configuration file
  vigil validate -c vigil.yaml

  # Strict validation (fail on missing env vars)
  vigil validate -c vigil.yaml --strict

  # Show the JSON schema for configuration
  vigil validate --schema`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showSchema {
				return a.showConfigSchema()
			}
			return a.validateConfig(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Enable strict validation (fail on missing env vars)")
	cmd.Flags().BoolVar(&opts.showSchema, "schema", false, "Show JSON schema for configuration")

	return cmd
}

// validateConfig validates the configuration file.
func (a *App) validateConfig(opts *validateOptions) error {
	loaderOpts := []api.ConfigLoaderOption{
		api.ConfigWithValidation(true),
	}
	if opts.strict {
		loaderOpts = append(loaderOpts, api.ConfigWithStrictEnv(true))
	}

	loader := api.NewConfigLoaderWithOptions(loaderOpts...)
	config, err := loader.LoadFile(a.configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	configured := 0
	for _, p := range config.Providers {
		if p.Configured() {
			configured++
		}
	}
	if configured == 0 {
		return fmt.Errorf("validation failed: %w", api.ErrNoProviders)
	}

	_, _ = fmt.Fprintf(a.stdout, "✓ Configuration is valid\n")
	if config.Name != "" {
		_, _ = fmt.Fprintf(a.stdout, "  Name: %s\n", config.Name)
	}

	// Summary
	_, _ = fmt.Fprintf(a.stdout, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(a.stdout, "  Providers: %d (%d configured)\n", len(config.Providers), configured)
	for _, p := range config.Providers {
		status := "ready"
		if !p.Configured() {
			status = "skipped, no credentials"
		}
		_, _ = fmt.Fprintf(a.stdout, "    - %s (%s, %s)\n", p.ID, p.Kind, status)
	}
	_, _ = fmt.Fprintf(a.stdout, "  Trinity: %v\n", config.Orchestration.Trinity)
	_, _ = fmt.Fprintf(a.stdout, "  Default mode: %s\n", config.Orchestration.DefaultMode)
	_, _ = fmt.Fprintf(a.stdout, "  Reducer: %s\n", config.Orchestration.Reducer)
	_, _ = fmt.Fprintf(a.stdout, "  Call timeout: %s\n", config.Orchestration.CallTimeout.Duration())

	if config.Cache.Disabled {
		_, _ = fmt.Fprintf(a.stdout, "  Cache: disabled\n")
	} else {
		_, _ = fmt.Fprintf(a.stdout, "  Cache: %d entries, bypassed at %d turns\n",
			config.Cache.MaxSize, config.Cache.EligibilityThreshold)
	}
	_, _ = fmt.Fprintf(a.stdout, "  Memory: %s (%d turns)\n", config.Memory.Backend, config.Memory.MaxTurns)

	if config.Telemetry.Tracing.Enabled {
		_, _ = fmt.Fprintf(a.stdout, "  Tracing: enabled (%s)\n", config.Telemetry.Tracing.Exporter)
	}

	return nil
}

// showConfigSchema displays the JSON schema for configuration.
func (a *App) showConfigSchema() error {
	schemaJSON, err := api.ConfigSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	_, _ = fmt.Fprintln(a.stdout, schemaJSON)
	return nil
}
