package commands

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/systmms/kvboot/internal/bootstrap"
	"github.com/systmms/kvboot/internal/certstore"
	"github.com/systmms/kvboot/internal/config"
	dserrors "github.com/systmms/kvboot/internal/errors"
)

// NewCertsCommand creates the certs command group.
func NewCertsCommand(cfg *config.Config) *cobra.Command {
	return newCertsCommand(cfg, nil)
}

func newCertsCommand(cfg *config.Config, opener certstore.Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "certs",
		Short: "Inspect the client certificate store",
	}

	cmd.AddCommand(
		newCertsListCommand(cfg, opener),
		newCertsFindCommand(cfg, opener),
	)
	return cmd
}

func newCertsListCommand(cfg *config.Config, opener certstore.Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List certificates in the store",
		Long: `List every certificate in the configured store with its thumbprint,
subject and expiry. The configured thumbprint is marked with '*'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, settings, err := openCertificateStore(cmd, cfg, opener)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			certs, err := store.List()
			if errors.Is(err, certstore.ErrListUnsupported) {
				return dserrors.UserError{
					Message:    "This certificate store cannot be listed",
					Suggestion: "Look up a certificate with 'kvboot certs find <thumbprint>'",
					Err:        err,
				}
			}
			if err != nil {
				return err
			}

			selected := selectedThumbprint(cfg, settings)
			sort.Slice(certs, func(i, j int) bool { return certs[i].Thumbprint < certs[j].Thumbprint })
			return printCertificates(cmd.OutOrStdout(), certs, selected)
		},
	}
}

func newCertsFindCommand(cfg *config.Config, opener certstore.Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "find [thumbprint]",
		Short: "Find certificates by thumbprint",
		Long: `Find the certificates matching a thumbprint. Without an argument the
configured thumbprint is used. Fails unless exactly one certificate matches,
the same rule serve applies.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, settings, err := openCertificateStore(cmd, cfg, opener)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			raw := selectedThumbprint(cfg, settings)
			if len(args) == 1 {
				raw = args[0]
			}
			if raw == "" {
				return dserrors.UserError{
					Message:    "No thumbprint given",
					Suggestion: "Pass a thumbprint or set AzureADCertThumbprint",
				}
			}
			tp, err := certstore.ParseThumbprint(raw)
			if err != nil {
				return dserrors.ConfigError{Field: config.ThumbprintKey, Value: raw, Message: err.Error()}
			}

			matches, err := store.Find(tp)
			if err != nil {
				return err
			}
			if err := printCertificates(cmd.OutOrStdout(), matches, tp.String()); err != nil {
				return err
			}

			switch len(matches) {
			case 1:
				return nil
			case 0:
				return dserrors.CertificateError{
					Thumbprint: tp.String(),
					Err:        dserrors.ErrCertificateNotFound,
					Unreadable: certstore.Unreadable(store),
				}
			default:
				return dserrors.CertificateError{Thumbprint: tp.String(), Matches: len(matches), Err: dserrors.ErrAmbiguousCertificate}
			}
		},
	}
}

func openCertificateStore(cmd *cobra.Command, cfg *config.Config, opener certstore.Opener) (certstore.Store, config.Settings, error) {
	if err := cfg.Load(); err != nil {
		return nil, config.Settings{}, err
	}
	settings, err := config.LoadSettings(cfg.Base)
	if err != nil {
		return nil, config.Settings{}, err
	}

	if opener == nil {
		opener = bootstrap.OpenerFor(settings.Certificates, cfg.Logger)
	}
	store, err := opener.Open(cmd.Context())
	if err != nil {
		return nil, config.Settings{}, dserrors.UserError{
			Message:    "Failed to open the certificate store",
			Details:    err.Error(),
			Suggestion: "Check Certificates:Source and Certificates:Path",
			Err:        err,
		}
	}
	return store, settings, nil
}

func selectedThumbprint(cfg *config.Config, settings config.Settings) string {
	raw := settings.Thumbprint
	if cfg.Thumbprint != "" {
		raw = cfg.Thumbprint
	}
	tp, err := certstore.ParseThumbprint(raw)
	if err != nil {
		return raw
	}
	return tp.String()
}

func printCertificates(out io.Writer, certs []*certstore.Certificate, selected string) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "\tTHUMBPRINT\tSUBJECT\tNOT AFTER\tPRIVATE KEY")

	now := time.Now()
	for _, c := range certs {
		mark := ""
		if c.Thumbprint.String() == selected {
			mark = "*"
		}
		notAfter := c.Leaf.NotAfter.UTC().Format(time.RFC3339)
		if c.Expired(now) {
			notAfter += " (expired)"
		}
		key := "no"
		if c.HasPrivateKey() {
			key = "yes"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", mark, c.Thumbprint, c.Subject(), notAfter, key)
	}
	return w.Flush()
}
