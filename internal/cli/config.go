package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/rollcall/internal/config"
)

// ConfigReport is the output of config validate.
type ConfigReport struct {
	Config config.File `json:"config"`
	Policy string      `json:"policy"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and print the effective settings",
		Long: `Load the configuration (--config, environment overrides and --db),
validate it against the schema and the policy rules, and print the
effective settings.

Exit codes:
  0 - Configuration is valid
  2 - Configuration is invalid or unreadable`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfig(rootOpts, cmd)
		},
	})

	return cmd
}

func validateConfig(opts *RootOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	pol, err := cfg.BuildPolicy()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid policy", err)
	}

	report := ConfigReport{Config: cfg, Policy: pol.String()}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to render configuration", err)
	}
	return out.Render(report, func(w io.Writer) {
		fmt.Fprintln(w, "Configuration valid")
		fmt.Fprintf(w, "Policy: %s\n\n", report.Policy)
		w.Write(data)
	})
}
