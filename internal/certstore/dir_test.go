package certstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/kvboot/internal/certstore"
	"github.com/systmms/kvboot/tests/testutil"
)

func openDir(t *testing.T, dir string) certstore.Store {
	t.Helper()
	store, err := certstore.DirOpener{Path: dir}.Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestDirStoreFindSingleMatch(t *testing.T) {
	t.Parallel()

	wanted := testutil.NewTestCertificate(t, "wanted")
	other := testutil.NewTestCertificate(t, "other")
	store := openDir(t, testutil.NewCertificateStoreDir(t, wanted, other))

	matches, err := store.Find(certstore.Thumbprint(wanted.Thumbprint))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	cert := matches[0]
	assert.Equal(t, "CN=wanted", cert.Subject())
	assert.True(t, cert.HasPrivateKey())
	assert.Equal(t, wanted.Cert.Raw, cert.Leaf.Raw)
	assert.False(t, cert.Expired(time.Now()))
	assert.Equal(t, wanted.Thumbprint+".pem", cert.Source)
}

func TestDirStoreFindNoMatch(t *testing.T) {
	t.Parallel()

	store := openDir(t, testutil.NewCertificateStoreDir(t, testutil.NewTestCertificate(t, "only")))

	matches, err := store.Find(certstore.Thumbprint(testutil.NewTestCertificate(t, "absent").Thumbprint))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestDirStoreFindDuplicates(t *testing.T) {
	t.Parallel()

	c := testutil.NewTestCertificate(t, "dup")
	dir := testutil.NewCertificateStoreDir(t, c)
	c.WriteTo(t, dir, "copy-of-dup", false)

	matches, err := openDir(t, dir).Find(certstore.Thumbprint(c.Thumbprint))
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestDirStorePublicOnlyCertificateStillMatches(t *testing.T) {
	t.Parallel()

	c := testutil.NewTestCertificate(t, "public")
	dir := t.TempDir()
	c.WriteTo(t, dir, "public", true)

	matches, err := openDir(t, dir).Find(certstore.Thumbprint(c.Thumbprint))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.False(t, matches[0].HasPrivateKey())
}

func TestDirStoreSkipsJunk(t *testing.T) {
	t.Parallel()

	c := testutil.NewTestCertificate(t, "good")
	dir := testutil.NewCertificateStoreDir(t, c)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.pfx"), []byte("not a certificate"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.pem"), nil, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), c.PEM(), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.pem"), 0o700))

	store := openDir(t, dir)
	certs, err := store.List()
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.Equal(t, certstore.Thumbprint(c.Thumbprint), certs[0].Thumbprint)
	assert.Equal(t, []string{"garbage.pfx"}, certstore.Unreadable(store))
}

func TestDirStoreReportsUnreadableFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "client.pfx"), []byte("encrypted with another password"), 0o600))

	logger := testutil.NewTestLogger(t)
	store, err := certstore.DirOpener{Path: dir, Password: "wrong", Logger: logger.Logger}.Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	matches, err := store.Find("0000000000000000000000000000000000000000")
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.Equal(t, []string{"client.pfx"}, certstore.Unreadable(store))
	logger.AssertContains(t, "Skipping certificate file client.pfx")

	require.NoError(t, store.Close())
	assert.Empty(t, certstore.Unreadable(store))
}

func TestDirStoreClosed(t *testing.T) {
	t.Parallel()

	store, err := certstore.DirOpener{Path: t.TempDir()}.Open(context.Background())
	require.NoError(t, err)

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, err = store.Find("ABCD")
	assert.ErrorIs(t, err, certstore.ErrStoreClosed)
	_, err = store.List()
	assert.ErrorIs(t, err, certstore.ErrStoreClosed)
}

func TestDirOpenerMissingDirectory(t *testing.T) {
	t.Parallel()

	_, err := certstore.DirOpener{Path: filepath.Join(t.TempDir(), "missing")}.Open(context.Background())
	assert.Error(t, err)
}

func TestDirOpenerCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := certstore.DirOpener{Path: t.TempDir()}.Open(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultUserStorePath(t *testing.T) {
	t.Setenv("HOME", "/home/kvboot")

	path, err := certstore.DefaultUserStorePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/kvboot", ".dotnet", "corefx", "cryptography", "x509stores", "my"), path)
}
