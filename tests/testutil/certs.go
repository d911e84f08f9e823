package testutil

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1" //nolint:gosec
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/systmms/kvboot/internal/certstore"
)

// TestCertificate is a self-signed certificate with its private key.
type TestCertificate struct {
	Cert       *x509.Certificate
	Key        *rsa.PrivateKey
	CertPEM    []byte
	KeyPEM     []byte
	Thumbprint string
}

// NewTestCertificate generates a self-signed RSA client certificate for cn.
// Entra ID only accepts RSA keys for certificate credentials.
func NewTestCertificate(t *testing.T, cn string) *TestCertificate {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		t.Fatalf("Failed to generate serial: %v", err)
	}

	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("Failed to create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("Failed to parse certificate: %v", err)
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("Failed to marshal key: %v", err)
	}

	sum := sha1.Sum(der) //nolint:gosec
	return &TestCertificate{
		Cert:       cert,
		Key:        key,
		CertPEM:    pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		KeyPEM:     pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}),
		Thumbprint: strings.ToUpper(hex.EncodeToString(sum[:])),
	}
}

// PEM returns the certificate followed by its private key.
func (c *TestCertificate) PEM() []byte {
	out := make([]byte, 0, len(c.CertPEM)+len(c.KeyPEM))
	out = append(out, c.CertPEM...)
	return append(out, c.KeyPEM...)
}

// StoreCertificate returns the certificate as a store entry. With publicOnly
// the private key is left out.
func (c *TestCertificate) StoreCertificate(publicOnly bool) *certstore.Certificate {
	entry := &certstore.Certificate{
		Leaf:       c.Cert,
		Chain:      []*x509.Certificate{c.Cert},
		Thumbprint: certstore.Thumbprint(c.Thumbprint),
		Source:     "memory:" + c.Thumbprint,
	}
	if !publicOnly {
		entry.PrivateKey = c.Key
	}
	return entry
}

// WriteTo writes the certificate and key as dir/name.pem. With publicOnly
// the key is left out.
func (c *TestCertificate) WriteTo(t *testing.T, dir, name string, publicOnly bool) string {
	t.Helper()

	data := c.PEM()
	if publicOnly {
		data = c.CertPEM
	}
	path := filepath.Join(dir, name+".pem")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// NewCertificateStoreDir returns a temporary store directory holding certs,
// each written as <thumbprint>.pem the way per-user stores name entries.
func NewCertificateStoreDir(t *testing.T, certs ...*TestCertificate) string {
	t.Helper()

	dir := t.TempDir()
	for _, c := range certs {
		c.WriteTo(t, dir, c.Thumbprint, false)
	}
	return dir
}
