package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	dserrors "github.com/systmms/kvboot/internal/errors"
)

// withFetchTimeout bounds the whole remote fetch, every page and secret
// included.
func withFetchTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

// timeoutError explains a fetch that ran out of time. Other errors, and
// cancellations coming from the caller, pass through unchanged.
func timeoutError(parent context.Context, err error, vault string, timeout time.Duration) error {
	if err == nil || !errors.Is(err, context.DeadlineExceeded) || parent.Err() != nil {
		return err
	}
	return dserrors.UserError{
		Message:    "Key Vault operation timed out",
		Details:    fmt.Sprintf("%s did not answer within %s", vault, timeout),
		Suggestion: getTimeoutSuggestion(timeout),
		Err:        err,
	}
}

func getTimeoutSuggestion(timeout time.Duration) string {
	if timeout < 10*time.Second {
		return "Azure can be slow to issue the first token. Try increasing KeyVault:TimeoutSeconds to 30"
	}
	return "Check network connectivity to login.microsoftonline.com and the vault. Consider increasing KeyVault:TimeoutSeconds"
}
