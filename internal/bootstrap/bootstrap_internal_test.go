package bootstrap

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	dserrors "github.com/systmms/kvboot/internal/errors"
	"github.com/systmms/kvboot/internal/metrics"
)

func TestResultLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{nil, metrics.ResultSuccess},
		{dserrors.ConfigError{Field: "KeyVaultName"}, metrics.ResultConfig},
		{dserrors.CertificateError{Err: dserrors.ErrCertificateNotFound}, metrics.ResultCertificate},
		{fmt.Errorf("wrapped: %w", dserrors.AuthError{Vault: "v"}), metrics.ResultAuth},
		{dserrors.TransportError{Vault: "v"}, metrics.ResultTransport},
		{errors.New("boom"), metrics.ResultError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, resultLabel(tt.err), "%v", tt.err)
	}
}
