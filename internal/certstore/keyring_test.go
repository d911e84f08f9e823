package certstore_test

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/systmms/kvboot/internal/certstore"
	"github.com/systmms/kvboot/tests/testutil"
)

// keyring.MockInit swaps a process-wide provider, so these tests do not run
// in parallel.

func TestKeyringStoreFind(t *testing.T) {
	keyring.MockInit()

	c := testutil.NewTestCertificate(t, "keyring")
	require.NoError(t, keyring.Set(certstore.DefaultKeyringService, c.Thumbprint, base64.StdEncoding.EncodeToString(c.PEM())))

	store, err := certstore.KeyringOpener{}.Open(context.Background())
	require.NoError(t, err)
	defer store.Close()

	matches, err := store.Find(certstore.Thumbprint(c.Thumbprint))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.True(t, matches[0].HasPrivateKey())

	missing, err := store.Find(certstore.Thumbprint(testutil.NewTestCertificate(t, "absent").Thumbprint))
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestKeyringStoreRawPEM(t *testing.T) {
	keyring.MockInit()

	c := testutil.NewTestCertificate(t, "raw")
	require.NoError(t, keyring.Set("custom", c.Thumbprint, string(c.PEM())))

	store, err := certstore.KeyringOpener{Service: "custom"}.Open(context.Background())
	require.NoError(t, err)
	defer store.Close()

	matches, err := store.Find(certstore.Thumbprint(c.Thumbprint))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestKeyringStoreMislabeledItem(t *testing.T) {
	keyring.MockInit()

	stored := testutil.NewTestCertificate(t, "stored")
	label := testutil.NewTestCertificate(t, "label")
	require.NoError(t, keyring.Set(certstore.DefaultKeyringService, label.Thumbprint, base64.StdEncoding.EncodeToString(stored.PEM())))

	store, err := certstore.KeyringOpener{}.Open(context.Background())
	require.NoError(t, err)
	defer store.Close()

	matches, err := store.Find(certstore.Thumbprint(label.Thumbprint))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestKeyringStoreListAndClose(t *testing.T) {
	keyring.MockInit()

	store, err := certstore.KeyringOpener{}.Open(context.Background())
	require.NoError(t, err)

	_, err = store.List()
	assert.ErrorIs(t, err, certstore.ErrListUnsupported)

	require.NoError(t, store.Close())
	_, err = store.Find("ABCD")
	assert.ErrorIs(t, err, certstore.ErrStoreClosed)
}
