package keyvault

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	dserrors "github.com/systmms/kvboot/internal/errors"
)

// classifyError maps an SDK error to the bootstrap error taxonomy.
func classifyError(vault, action string, err error) error {
	if err == nil {
		return nil
	}

	// Without a response Entra ID was never reached.
	var authFailed *azidentity.AuthenticationFailedError
	if errors.As(err, &authFailed) {
		if authFailed.RawResponse == nil || authFailed.RawResponse.StatusCode >= http.StatusInternalServerError {
			return dserrors.TransportError{Vault: vault, Err: err}
		}
		return dserrors.AuthError{Vault: vault, Err: err}
	}

	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return dserrors.AuthError{Vault: vault, Err: err}
		}
		return dserrors.UserError{
			Message:    action,
			Details:    err.Error(),
			Suggestion: getAzureErrorSuggestion(err),
			Err:        err,
		}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return dserrors.TransportError{Vault: vault, Err: err}
	}

	return dserrors.UserError{
		Message:    action,
		Details:    err.Error(),
		Suggestion: getAzureErrorSuggestion(err),
		Err:        err,
	}
}

// isNotFound reports whether err is a 404 from the vault.
func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode == http.StatusNotFound
	}
	return false
}

// getAzureErrorSuggestion provides helpful suggestions based on Azure errors
func getAzureErrorSuggestion(err error) string {
	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "forbidden") || strings.Contains(errStr, "access denied"):
		return "Check Key Vault access policies: 'Get' and 'List' permissions are required for secrets"
	case strings.Contains(errStr, "unauthorized") || strings.Contains(errStr, "401"):
		return "Check that the certificate is registered on the application and the tenant id is correct"
	case strings.Contains(errStr, "vault not found") || strings.Contains(errStr, "keyvaulterror"):
		return "Check KeyVaultName and that the Key Vault exists"
	case strings.Contains(errStr, "throttled") || strings.Contains(errStr, "toomanyrequests") || strings.Contains(errStr, "429"):
		return "Request was throttled. Wait and restart the application"
	case strings.Contains(errStr, "tenant"):
		return "Check that the tenant ID is correct and the application is registered"
	default:
		return "Check KeyVaultName, the application registration and the vault access policies"
	}
}
