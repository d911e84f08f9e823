package keyvault

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/systmms/kvboot/internal/certstore"
)

// ErrNoPrivateKey is returned when the selected certificate cannot sign.
var ErrNoPrivateKey = errors.New("certificate has no private key")

// CredentialOptions tune the client certificate credential.
type CredentialOptions struct {
	// SendCertificateChain sends the x5c header, required for subject
	// name/issuer authentication.
	SendCertificateChain bool

	// AuthorityHost overrides the Entra ID authority, e.g. for sovereign
	// clouds. Empty means the public cloud.
	AuthorityHost string

	// DisableInstanceDiscovery skips the authority validation request, for
	// disconnected clouds and private authority hosts.
	DisableInstanceDiscovery bool
}

// Credential is a client certificate credential for one application in one
// tenant. It is built once and never mutated. Its printed forms never reveal
// the key or token material.
type Credential struct {
	tenantID   string
	clientID   string
	thumbprint certstore.Thumbprint
	cred       azcore.TokenCredential
}

var _ azcore.TokenCredential = (*Credential)(nil)

// NewCredential builds a Credential from the tenant, application and
// certificate.
func NewCredential(tenantID, clientID string, cert *certstore.Certificate, opts CredentialOptions) (*Credential, error) {
	if cert == nil {
		return nil, errors.New("certificate is required")
	}
	if !cert.HasPrivateKey() {
		return nil, fmt.Errorf("certificate %s: %w", cert.Thumbprint, ErrNoPrivateKey)
	}

	options := &azidentity.ClientCertificateCredentialOptions{
		SendCertificateChain:     opts.SendCertificateChain,
		DisableInstanceDiscovery: opts.DisableInstanceDiscovery,
	}
	// token requests get one attempt, like the vault requests
	options.ClientOptions.Retry = policy.RetryOptions{MaxRetries: -1}
	if opts.AuthorityHost != "" {
		cfg := cloud.AzurePublic
		cfg.ActiveDirectoryAuthorityHost = opts.AuthorityHost
		options.ClientOptions.Cloud = cfg
	}

	cred, err := azidentity.NewClientCertificateCredential(tenantID, clientID, cert.Chain, cert.PrivateKey, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create client certificate credential: %w", err)
	}

	return &Credential{
		tenantID:   tenantID,
		clientID:   clientID,
		thumbprint: cert.Thumbprint,
		cred:       cred,
	}, nil
}

// GetToken implements azcore.TokenCredential.
func (c *Credential) GetToken(ctx context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return c.cred.GetToken(ctx, opts)
}

// TenantID returns the directory the credential authenticates against.
func (c *Credential) TenantID() string { return c.tenantID }

// ClientID returns the application id.
func (c *Credential) ClientID() string { return c.clientID }

// Thumbprint identifies the certificate backing the credential.
func (c *Credential) Thumbprint() certstore.Thumbprint { return c.thumbprint }

func (c *Credential) String() string {
	return "ClientCertificateCredential([REDACTED])"
}

func (c *Credential) GoString() string {
	return c.String()
}
