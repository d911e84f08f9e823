// Package keyvault loads secrets from an Azure Key Vault and maps them to
// configuration keys.
package keyvault

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
)

// VaultDomain is the DNS suffix of vaults in the public Azure cloud.
const VaultDomain = "vault.azure.net"

// VaultURL returns the data-plane endpoint of the named vault.
func VaultURL(name string) string {
	return fmt.Sprintf("https://%s.%s/", name, VaultDomain)
}

// Client is the subset of *azsecrets.Client used to load secrets.
type Client interface {
	NewListSecretPropertiesPager(options *azsecrets.ListSecretPropertiesOptions) *runtime.Pager[azsecrets.ListSecretPropertiesResponse]
	GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
}

var _ Client = (*azsecrets.Client)(nil)

// NewClient creates an azsecrets client for vaultURL. Requests are attempted
// once; failures surface immediately.
func NewClient(vaultURL string, cred azcore.TokenCredential) (*azsecrets.Client, error) {
	client, err := azsecrets.NewClient(vaultURL, cred, &azsecrets.ClientOptions{
		ClientOptions: policy.ClientOptions{
			Retry: policy.RetryOptions{MaxRetries: -1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Key Vault client: %w", err)
	}
	return client, nil
}
