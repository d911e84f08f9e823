package commands

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/systmms/kvboot/internal/bootstrap"
	"github.com/systmms/kvboot/internal/config"
	"github.com/systmms/kvboot/internal/metrics"
	"github.com/systmms/kvboot/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand(cfg *config.Config) *cobra.Command {
	return newServeCommand(cfg, bootstrap.Options{})
}

// newServeCommand lets tests inject the certificate store and vault client.
func newServeCommand(cfg *config.Config, base bootstrap.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load Key Vault secrets and serve the configuration",
		Long: `Load the local configuration, authenticate to Azure Key Vault with the
client certificate named by AzureADCertThumbprint, overlay every secret of the
vault and serve the value of Server:DisplayKey over HTTP.

The server does not start when any step fails.

Examples:
  # Serve using ./appsettings.yaml
  kvboot serve

  # Use a certificate other than the configured one
  kvboot serve --thumbprint 0123456789ABCDEF0123456789ABCDEF01234567`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}

			settings, err := config.LoadSettings(cfg.Base)
			if err != nil {
				return err
			}
			if err := cfg.Logger.SetLevel(settings.LogLevel); err != nil {
				return err
			}
			if settings.Metrics.Enabled {
				metrics.InitMetrics()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts := base
			opts.Thumbprint = cfg.Thumbprint
			opts.Logger = cfg.Logger
			opts.Metrics = metrics.NewRecorder()

			store, report, err := bootstrap.Run(ctx, cfg.Base, opts)
			if err != nil {
				return err
			}
			cfg.Logger.Info("Loaded %d secrets (%d skipped) from %s in %s using certificate %s",
				report.Loaded, report.Skipped, report.VaultURL, report.Duration.Round(time.Millisecond), report.Thumbprint)

			// Secrets may carry Server:* and Metrics:* keys too.
			final, err := config.LoadSettings(store)
			if err != nil {
				return err
			}

			srv := server.New(store, server.Config{Server: final.Server, Metrics: final.Metrics}, cfg.Logger)
			return srv.Run(ctx)
		},
	}

	return cmd
}
