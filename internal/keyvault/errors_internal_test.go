package keyvault

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dserrors "github.com/systmms/kvboot/internal/errors"
	"github.com/systmms/kvboot/tests/testutil"
)

const testVault = "https://contoso.vault.azure.net/"

func TestClassifyError(t *testing.T) {
	t.Parallel()

	dnsErr := &url.Error{
		Op:  "Get",
		URL: testVault,
		Err: &net.OpError{Op: "dial", Net: "tcp", Err: &net.DNSError{Err: "no such host", Name: "contoso.vault.azure.net", IsNotFound: true}},
	}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"auth rejected", &azidentity.AuthenticationFailedError{RawResponse: tokenResponse(http.StatusUnauthorized)}, "auth"},
		{"auth bad request", &azidentity.AuthenticationFailedError{RawResponse: tokenResponse(http.StatusBadRequest)}, "auth"},
		{"auth no response", &azidentity.AuthenticationFailedError{}, "transport"},
		{"auth service down", &azidentity.AuthenticationFailedError{RawResponse: tokenResponse(http.StatusServiceUnavailable)}, "transport"},
		{"401", &azcore.ResponseError{StatusCode: 401}, "auth"},
		{"403", &azcore.ResponseError{StatusCode: 403, ErrorCode: "Forbidden"}, "auth"},
		{"500", &azcore.ResponseError{StatusCode: 500}, "user"},
		{"dns", dnsErr, "transport"},
		{"deadline", context.DeadlineExceeded, "transport"},
		{"other", errors.New("boom"), "user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := classifyError(testVault, "Failed to list secrets", tt.err)
			assert.ErrorIs(t, err, tt.err)

			var (
				authErr      dserrors.AuthError
				transportErr dserrors.TransportError
				userErr      dserrors.UserError
			)
			switch tt.want {
			case "auth":
				assert.ErrorAs(t, err, &authErr)
				assert.Equal(t, testVault, authErr.Vault)
			case "transport":
				assert.ErrorAs(t, err, &transportErr)
				assert.Equal(t, testVault, transportErr.Vault)
			case "user":
				assert.ErrorAs(t, err, &userErr)
				assert.Equal(t, "Failed to list secrets", userErr.Message)
			}
		})
	}
}

func tokenResponse(status int) *http.Response {
	return &http.Response{StatusCode: status, Status: http.StatusText(status), Body: http.NoBody}
}

func TestClassifyUnreachableAuthority(t *testing.T) {
	t.Parallel()

	cert := testutil.NewTestCertificate(t, "kvboot-client")
	cred, err := NewCredential("tid-1", "app-1", cert.StoreCertificate(false), CredentialOptions{
		AuthorityHost:            "https://127.0.0.1:1/",
		DisableInstanceDiscovery: true,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, tokenErr := cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{"https://vault.azure.net/.default"}})
	require.Error(t, tokenErr)

	err = classifyError(testVault, "Failed to list secrets", tokenErr)

	var transportErr dserrors.TransportError
	assert.ErrorAs(t, err, &transportErr)
	var authErr dserrors.AuthError
	assert.False(t, errors.As(err, &authErr))
}

func TestClassifyNil(t *testing.T) {
	t.Parallel()
	assert.NoError(t, classifyError(testVault, "x", nil))
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()
	assert.True(t, isNotFound(&azcore.ResponseError{StatusCode: 404}))
	assert.False(t, isNotFound(&azcore.ResponseError{StatusCode: 403}))
	assert.False(t, isNotFound(errors.New("404")))
}

func TestGetAzureErrorSuggestion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  string
		want string
	}{
		{"403 Forbidden", "access policies"},
		{"401 Unauthorized", "certificate is registered"},
		{"vault not found", "KeyVaultName"},
		{"429 throttled", "throttled"},
		{"invalid tenant", "tenant ID"},
		{"something else", "application registration"},
	}

	for _, tt := range tests {
		assert.Contains(t, getAzureErrorSuggestion(errors.New(tt.err)), tt.want, tt.err)
	}
}
