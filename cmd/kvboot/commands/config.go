package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/systmms/kvboot/internal/config"
	"github.com/systmms/kvboot/internal/logging"
)

// NewConfigCommand creates the config command group.
func NewConfigCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the local configuration",
	}
	cmd.AddCommand(newConfigShowCommand(cfg))
	return cmd
}

func newConfigShowCommand(cfg *config.Config) *cobra.Command {
	var validate bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the merged local configuration",
		Long: `Show every key of the local configuration (appsettings files and
environment) with the layer it comes from. Values are never printed and Key
Vault is not contacted.

Examples:
  kvboot config show
  kvboot config show --environment Development --validate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "# environment: %s\n", cfg.Environment)
			_, _ = fmt.Fprintln(w, "KEY\tSOURCE\tVALUE")
			for _, key := range cfg.Base.Keys() {
				value := logging.Secret(cfg.Base.Value(key)).String()
				if cfg.Base.Value(key) == "" {
					value = "(empty)"
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", key, cfg.Base.Source(key), value)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if !validate {
				return nil
			}
			settings, err := config.LoadSettings(cfg.Base)
			if err != nil {
				return err
			}
			if cfg.Thumbprint != "" {
				settings.Thumbprint = cfg.Thumbprint
			}
			if err := settings.Validate(); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
			return err
		},
	}

	cmd.Flags().BoolVar(&validate, "validate", false, "Also check that the keys needed by serve are present")
	return cmd
}
