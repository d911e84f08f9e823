package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dserrors "github.com/systmms/kvboot/internal/errors"
)

func TestTimeoutError(t *testing.T) {
	vault := "https://contoso.vault.azure.net/"
	deadline := dserrors.TransportError{Vault: vault, Err: context.DeadlineExceeded}

	t.Run("deadline of the fetch", func(t *testing.T) {
		err := timeoutError(context.Background(), deadline, vault, 5*time.Second)

		var userErr dserrors.UserError
		require.ErrorAs(t, err, &userErr)
		assert.Contains(t, userErr.Details, "5s")
		assert.Contains(t, userErr.Suggestion, "KeyVault:TimeoutSeconds")

		var transportErr dserrors.TransportError
		assert.ErrorAs(t, err, &transportErr)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("caller cancelled", func(t *testing.T) {
		parent, cancel := context.WithCancel(context.Background())
		cancel()

		err := timeoutError(parent, deadline, vault, 5*time.Second)
		assert.Equal(t, deadline, err)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		other := errors.New("boom")
		assert.Equal(t, other, timeoutError(context.Background(), other, vault, time.Second))
		assert.NoError(t, timeoutError(context.Background(), nil, vault, time.Second))
	})
}

func TestGetTimeoutSuggestion(t *testing.T) {
	assert.Contains(t, getTimeoutSuggestion(2*time.Second), "30")
	assert.Contains(t, getTimeoutSuggestion(time.Minute), "connectivity")
}
