package fakes

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
)

// FakeVaultURL is the vault the fake client pretends to be.
const FakeVaultURL = "https://test-vault.vault.azure.net/"

// FakeAzureKeyVaultClient is an in-memory Key Vault. It satisfies
// keyvault.Client.
type FakeAzureKeyVaultClient struct {
	mu sync.Mutex

	// Secrets maps secret names to their data
	Secrets map[string]*AzureSecretData
	// Errors maps secret names to errors returned by GetSecret
	Errors map[string]error
	// ListErr is returned by the first NextPage call when set
	ListErr error
	// PageSize is the number of secrets per page; 0 means one page
	PageSize int

	listCalls int
	getCalls  []string
}

// AzureSecretData holds the data for a fake Key Vault secret
type AzureSecretData struct {
	Value       *string
	Attributes  *azsecrets.SecretAttributes
	Tags        map[string]*string
	ContentType *string
}

// NewFakeAzureKeyVaultClient creates an empty fake vault
func NewFakeAzureKeyVaultClient() *FakeAzureKeyVaultClient {
	return &FakeAzureKeyVaultClient{
		Secrets: make(map[string]*AzureSecretData),
		Errors:  make(map[string]error),
	}
}

// AddSecret adds a secret to the fake vault
func (f *FakeAzureKeyVaultClient) AddSecret(name string, data *AzureSecretData) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Secrets[name] = data
}

// AddSecretString adds an enabled string secret
func (f *FakeAzureKeyVaultClient) AddSecretString(name, value string) {
	now := time.Now()
	f.AddSecret(name, &AzureSecretData{
		Value: to.Ptr(value),
		Attributes: &azsecrets.SecretAttributes{
			Enabled:       to.Ptr(true),
			Created:       &now,
			Updated:       &now,
			RecoveryLevel: to.Ptr("Recoverable+Purgeable"),
		},
	})
}

// AddDisabledSecret adds a secret that is listed but disabled
func (f *FakeAzureKeyVaultClient) AddDisabledSecret(name, value string) {
	f.AddSecret(name, &AzureSecretData{
		Value:      to.Ptr(value),
		Attributes: &azsecrets.SecretAttributes{Enabled: to.Ptr(false)},
	})
}

// AddExpiredSecret adds an enabled secret whose expiry is expires
func (f *FakeAzureKeyVaultClient) AddExpiredSecret(name, value string, expires time.Time) {
	f.AddSecret(name, &AzureSecretData{
		Value: to.Ptr(value),
		Attributes: &azsecrets.SecretAttributes{
			Enabled: to.Ptr(true),
			Expires: &expires,
		},
	})
}

// AddError configures GetSecret to fail for a specific secret
func (f *FakeAzureKeyVaultClient) AddError(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors[name] = err
}

// ListCalls returns how many pages were requested
func (f *FakeAzureKeyVaultClient) ListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

// GetCalls returns the secret names passed to GetSecret, in call order
func (f *FakeAzureKeyVaultClient) GetCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.getCalls...)
}

func secretID(name string) *azsecrets.ID {
	return (*azsecrets.ID)(to.Ptr(fmt.Sprintf("%ssecrets/%s", FakeVaultURL, name)))
}

// pages returns the secret properties split into pages, sorted by name.
func (f *FakeAzureKeyVaultClient) pages() [][]*azsecrets.SecretProperties {
	f.mu.Lock()
	defer f.mu.Unlock()

	names := make([]string, 0, len(f.Secrets))
	for name := range f.Secrets {
		names = append(names, name)
	}
	sort.Strings(names)

	props := make([]*azsecrets.SecretProperties, 0, len(names))
	for _, name := range names {
		data := f.Secrets[name]
		props = append(props, &azsecrets.SecretProperties{
			ID:          secretID(name),
			Attributes:  data.Attributes,
			Tags:        data.Tags,
			ContentType: data.ContentType,
		})
	}

	size := f.PageSize
	if size <= 0 || size > len(props) {
		size = len(props)
	}
	if size == 0 {
		return [][]*azsecrets.SecretProperties{nil}
	}

	var out [][]*azsecrets.SecretProperties
	for start := 0; start < len(props); start += size {
		end := min(start+size, len(props))
		out = append(out, props[start:end])
	}
	return out
}

// NewListSecretPropertiesPager pages through the fake secrets
func (f *FakeAzureKeyVaultClient) NewListSecretPropertiesPager(options *azsecrets.ListSecretPropertiesOptions) *runtime.Pager[azsecrets.ListSecretPropertiesResponse] {
	pages := f.pages()
	next := 0

	return runtime.NewPager(runtime.PagingHandler[azsecrets.ListSecretPropertiesResponse]{
		More: func(page azsecrets.ListSecretPropertiesResponse) bool {
			return page.NextLink != nil
		},
		Fetcher: func(ctx context.Context, page *azsecrets.ListSecretPropertiesResponse) (azsecrets.ListSecretPropertiesResponse, error) {
			f.mu.Lock()
			f.listCalls++
			listErr := f.ListErr
			f.mu.Unlock()

			if err := ctx.Err(); err != nil {
				return azsecrets.ListSecretPropertiesResponse{}, err
			}
			if listErr != nil {
				return azsecrets.ListSecretPropertiesResponse{}, listErr
			}

			resp := azsecrets.ListSecretPropertiesResponse{
				SecretPropertiesListResult: azsecrets.SecretPropertiesListResult{
					Value: pages[next],
				},
			}
			next++
			if next < len(pages) {
				resp.NextLink = to.Ptr(fmt.Sprintf("%ssecrets?page=%d", FakeVaultURL, next))
			}
			return resp, nil
		},
	})
}

// GetSecret returns the latest value of a fake secret
func (f *FakeAzureKeyVaultClient) GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls = append(f.getCalls, name)

	if err := ctx.Err(); err != nil {
		return azsecrets.GetSecretResponse{}, err
	}
	if err, exists := f.Errors[name]; exists {
		return azsecrets.GetSecretResponse{}, err
	}

	data, exists := f.Secrets[name]
	if !exists {
		return azsecrets.GetSecretResponse{}, AzureNotFoundError(name)
	}

	return azsecrets.GetSecretResponse{
		Secret: azsecrets.Secret{
			ID:          secretID(name),
			Value:       data.Value,
			Attributes:  data.Attributes,
			Tags:        data.Tags,
			ContentType: data.ContentType,
		},
	}, nil
}

// AzureNotFoundError creates a fake Azure not found error
func AzureNotFoundError(secretName string) error {
	return &azcore.ResponseError{
		StatusCode: 404,
		ErrorCode:  "SecretNotFound",
	}
}

// AzureForbiddenError creates a fake Azure forbidden error
func AzureForbiddenError() error {
	return &azcore.ResponseError{
		StatusCode: 403,
		ErrorCode:  "Forbidden",
	}
}

// AzureUnauthorizedError creates a fake Azure unauthorized error
func AzureUnauthorizedError() error {
	return &azcore.ResponseError{
		StatusCode: 401,
		ErrorCode:  "Unauthorized",
	}
}

// AzureThrottledError creates a fake Azure throttled error
func AzureThrottledError() error {
	return &azcore.ResponseError{
		StatusCode: 429,
		ErrorCode:  "TooManyRequests",
	}
}
