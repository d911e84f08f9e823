package secure

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSecureBuffer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{
			name: "creates enclave from bytes",
			data: []byte("-----BEGIN CERTIFICATE-----"),
		},
		{
			name: "handles binary data",
			data: []byte{0x30, 0x82, 0x0A, 0x00},
		},
		{
			name:    "rejects empty data",
			data:    []byte{},
			wantErr: ErrEmpty,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			buf, err := NewSecureBuffer(tt.data)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer buf.Destroy()
			assert.Equal(t, len(tt.data), buf.Size())
		})
	}
}

func TestSecureBufferWithBytes(t *testing.T) {
	t.Parallel()

	const secretStr = "pfx-bytes-go-here"
	secret := []byte(secretStr)

	buf, err := NewSecureBuffer(secret)
	require.NoError(t, err)
	defer buf.Destroy()

	assert.False(t, bytes.Equal(secret, []byte(secretStr)), "source slice should be wiped")
	assert.Equal(t, len(secretStr), buf.Size())

	var seen string
	err = buf.WithBytes(func(plain []byte) error {
		seen = string(plain)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, secretStr, seen)

	boom := errors.New("parse failed")
	err = buf.WithBytes(func([]byte) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestSecureBufferDestroy(t *testing.T) {
	t.Parallel()

	buf, err := NewSecureBuffer([]byte("certificate"))
	require.NoError(t, err)

	buf.Destroy()
	buf.Destroy()

	_, err = buf.Open()
	assert.ErrorIs(t, err, ErrDestroyed)
	assert.Zero(t, buf.Size())
	assert.ErrorIs(t, buf.WithBytes(func([]byte) error { return nil }), ErrDestroyed)
}
