// Package bootstrap turns the local configuration into the application's
// final configuration by overlaying the secrets of an Azure Key Vault, read
// with a client certificate found in the user's certificate store.
//
// Run is meant for the startup path. It either returns a complete store or
// an error, in which case the application must not start.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	"github.com/systmms/kvboot/internal/certstore"
	"github.com/systmms/kvboot/internal/config"
	dserrors "github.com/systmms/kvboot/internal/errors"
	"github.com/systmms/kvboot/internal/keyvault"
	"github.com/systmms/kvboot/internal/logging"
	"github.com/systmms/kvboot/internal/metrics"
)

// ClientFactory creates the Key Vault client for vaultURL.
type ClientFactory func(vaultURL string, cred azcore.TokenCredential) (keyvault.Client, error)

// Options control a bootstrap run. Every field is optional.
type Options struct {
	// Thumbprint overrides the AzureADCertThumbprint key.
	Thumbprint string

	// Opener replaces the certificate store chosen by Certificates:Source.
	Opener certstore.Opener

	// NewClient replaces the azsecrets client.
	NewClient ClientFactory

	Logger  *logging.Logger
	Metrics *metrics.Recorder
}

// Report describes a successful run.
type Report struct {
	VaultURL   string
	Thumbprint certstore.Thumbprint
	Subject    string
	Loaded     int
	Skipped    int
	Duration   time.Duration
}

// Run loads the secrets of the configured vault and returns base with them
// overlaid as the top layer. base is not modified.
func Run(ctx context.Context, base *config.Store, opts Options) (*config.Store, Report, error) {
	start := time.Now()

	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	store, report, err := run(ctx, base, opts, logger)
	report.Duration = time.Since(start)

	loaded := 0
	if err == nil {
		loaded = report.Loaded
	}
	opts.Metrics.RecordBootstrap(resultLabel(err), report.Duration.Seconds(), loaded)

	if err != nil {
		return nil, Report{}, err
	}
	return store, report, nil
}

func run(ctx context.Context, base *config.Store, opts Options, logger *logging.Logger) (*config.Store, Report, error) {
	var report Report

	if base == nil {
		return nil, report, errors.New("base configuration is required")
	}

	settings, err := config.LoadSettings(base)
	if err != nil {
		return nil, report, err
	}
	if opts.Thumbprint != "" {
		settings.Thumbprint = opts.Thumbprint
	}
	if err := settings.Validate(); err != nil {
		return nil, report, err
	}

	tp, err := certstore.ParseThumbprint(settings.Thumbprint)
	if err != nil {
		return nil, report, dserrors.ConfigError{
			Field:      config.ThumbprintKey,
			Value:      settings.Thumbprint,
			Message:    err.Error(),
			Suggestion: "Copy the 40 character SHA-1 thumbprint of the client certificate",
		}
	}
	report.Thumbprint = tp
	report.VaultURL = keyvault.VaultURL(settings.KeyVaultName)

	opener := opts.Opener
	if opener == nil {
		opener = OpenerFor(settings.Certificates, logger)
	}

	certs, err := opener.Open(ctx)
	if err != nil {
		return nil, report, dserrors.UserError{
			Message:    "Failed to open the certificate store",
			Details:    err.Error(),
			Suggestion: "Check Certificates:Source and Certificates:Path",
			Err:        err,
		}
	}
	// The handle is held until the secrets are fetched and released on
	// every path out of run.
	defer func() {
		if cerr := certs.Close(); cerr != nil {
			logger.Warn("Failed to close certificate store: %v", cerr)
		}
	}()

	cert, err := findCertificate(certs, tp)
	if err != nil {
		return nil, report, err
	}
	report.Subject = cert.Subject()
	if cert.Expired(time.Now()) {
		logger.Warn("Certificate %s (%s) is outside its validity period", tp, cert.Subject())
	}
	logger.Debug("Using certificate %s (%s) from %s", tp, cert.Subject(), cert.Source)

	cred, err := keyvault.NewCredential(settings.DirectoryID, settings.ApplicationID, cert, keyvault.CredentialOptions{
		SendCertificateChain:     settings.AzureAD.SendCertificateChain,
		AuthorityHost:            settings.AzureAD.AuthorityHost,
		DisableInstanceDiscovery: settings.AzureAD.DisableInstanceDiscovery,
	})
	if err != nil {
		return nil, report, dserrors.CertificateError{Thumbprint: tp.String(), Matches: 1, Err: err}
	}

	newClient := opts.NewClient
	if newClient == nil {
		newClient = defaultClient
	}
	client, err := newClient(report.VaultURL, cred)
	if err != nil {
		return nil, report, err
	}

	source, err := keyvault.NewSource(report.VaultURL, cred,
		keyvault.WithClient(client),
		keyvault.WithKeyMapper(keyvault.NewKeyMapper(settings.KeyVault.SecretNameDelimiter, settings.KeyVault.SecretPrefix)),
		keyvault.WithLogger(logger),
	)
	if err != nil {
		return nil, report, err
	}

	logger.Info("Loading secrets from %s", report.VaultURL)

	loadCtx, cancel := withFetchTimeout(ctx, settings.KeyVault.Timeout)
	defer cancel()

	result, err := source.Load(loadCtx)
	if err != nil {
		return nil, report, timeoutError(ctx, err, report.VaultURL, settings.KeyVault.Timeout)
	}
	report.Loaded = result.Loaded
	report.Skipped = result.Skipped

	final, err := base.WithLayer(result.Layer)
	if err != nil {
		return nil, report, fmt.Errorf("failed to overlay Key Vault secrets: %w", err)
	}

	return final, report, nil
}

func defaultClient(vaultURL string, cred azcore.TokenCredential) (keyvault.Client, error) {
	return keyvault.NewClient(vaultURL, cred)
}

// findCertificate requires exactly one certificate with thumbprint tp.
func findCertificate(store certstore.Store, tp certstore.Thumbprint) (*certstore.Certificate, error) {
	matches, err := store.Find(tp)
	if err != nil {
		return nil, dserrors.CertificateError{Thumbprint: tp.String(), Err: err}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return nil, dserrors.CertificateError{
			Thumbprint: tp.String(),
			Err:        dserrors.ErrCertificateNotFound,
			Unreadable: certstore.Unreadable(store),
		}
	default:
		return nil, dserrors.CertificateError{
			Thumbprint: tp.String(),
			Matches:    len(matches),
			Err:        dserrors.ErrAmbiguousCertificate,
		}
	}
}

// OpenerFor returns the certificate store described by cs. For the keyring
// source Path names the keyring service.
func OpenerFor(cs config.CertificateSettings, logger *logging.Logger) certstore.Opener {
	if cs.Source == "keyring" {
		return certstore.KeyringOpener{Service: cs.Path, Password: cs.Password, Logger: logger}
	}
	return certstore.DirOpener{Path: cs.Path, Password: cs.Password, Logger: logger}
}

func resultLabel(err error) string {
	var (
		cfgErr       dserrors.ConfigError
		certErr      dserrors.CertificateError
		authErr      dserrors.AuthError
		transportErr dserrors.TransportError
	)

	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.As(err, &cfgErr):
		return metrics.ResultConfig
	case errors.As(err, &certErr):
		return metrics.ResultCertificate
	case errors.As(err, &authErr):
		return metrics.ResultAuth
	case errors.As(err, &transportErr):
		return metrics.ResultTransport
	default:
		return metrics.ResultError
	}
}
