package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/systmms/kvboot/cmd/kvboot/commands"
	"github.com/systmms/kvboot/internal/config"
	dserrors "github.com/systmms/kvboot/internal/errors"
	"github.com/systmms/kvboot/internal/logging"
	"github.com/systmms/kvboot/internal/secure"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	err := run()
	secure.Purge()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", dserrors.SimplifyError(err))
		os.Exit(1)
	}
}

func run() error {
	// Global flags
	var (
		configDir   string
		environment string
		thumbprint  string
		noColor     bool
		debug       bool
	)

	// Create config placeholder
	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "kvboot",
		Short: "Serve configuration bootstrapped from Azure Key Vault",
		Long: `kvboot reads appsettings files and the environment, finds a client
certificate in the current user's certificate store by thumbprint, and uses it
to load every secret of an Azure Key Vault on top of the local configuration.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize logger with parsed flags
			cfg.Logger = logging.New(debug, noColor)
			cfg.Dir = configDir
			cfg.Environment = environment
			cfg.Thumbprint = thumbprint
		},
	}

	rootCmd.PersistentFlags().StringVar(&configDir, "config", ".", "Directory holding appsettings.yaml")
	rootCmd.PersistentFlags().StringVar(&environment, "environment", "", "Environment name (default $KVBOOT_ENVIRONMENT or Production)")
	rootCmd.PersistentFlags().StringVar(&thumbprint, "thumbprint", "", "Client certificate thumbprint (overrides AzureADCertThumbprint)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		commands.NewServeCommand(cfg),
		commands.NewCertsCommand(cfg),
		commands.NewConfigCommand(cfg),
		commands.NewCompletionCommand(cfg),
	)

	return rootCmd.Execute()
}
