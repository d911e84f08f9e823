package certstore

import (
	"crypto"
	"crypto/x509"
	"encoding/pem"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/systmms/kvboot/internal/secure"
)

// parseCertificate turns PEM or PKCS#12 data into a Certificate. Data
// without a private key still yields an entry so that a thumbprint match is
// reported; such entries cannot build a credential.
//
// data is wiped before parseCertificate returns.
func parseCertificate(data, password []byte, source string) (*Certificate, error) {
	buf, err := secure.NewSecureBuffer(data)
	if err != nil {
		return nil, err
	}
	defer buf.Destroy()

	var cert *Certificate
	err = buf.WithBytes(func(plain []byte) error {
		certs, key, perr := azidentity.ParseCertificates(plain, password)
		if perr != nil && len(password) > 0 {
			// unencrypted PEM files in a store that also holds protected PFX files
			certs, key, perr = azidentity.ParseCertificates(plain, nil)
		}
		if perr != nil {
			// azidentity insists on a private key; fall back to a public
			// certificate so the entry is still visible to Find.
			certs, key = parsePublicPEM(plain), nil
			if len(certs) == 0 {
				return perr
			}
		}
		cert = newCertificate(certs, key, source)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cert, nil
}

func parsePublicPEM(data []byte) []*x509.Certificate {
	var certs []*x509.Certificate
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		c, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			continue
		}
		certs = append(certs, c)
	}
	return certs
}

func newCertificate(certs []*x509.Certificate, key crypto.PrivateKey, source string) *Certificate {
	leafIdx := leafIndex(certs, key)

	chain := make([]*x509.Certificate, 0, len(certs))
	chain = append(chain, certs[leafIdx])
	for i, c := range certs {
		if i != leafIdx {
			chain = append(chain, c)
		}
	}

	return &Certificate{
		Leaf:       chain[0],
		Chain:      chain,
		PrivateKey: key,
		Thumbprint: ThumbprintOf(chain[0]),
		Source:     source,
	}
}

// leafIndex picks the certificate matching key, or the first one.
func leafIndex(certs []*x509.Certificate, key crypto.PrivateKey) int {
	signer, ok := key.(crypto.Signer)
	if !ok {
		return 0
	}
	pub, ok := signer.Public().(interface{ Equal(crypto.PublicKey) bool })
	if !ok {
		return 0
	}
	for i, c := range certs {
		if pub.Equal(c.PublicKey) {
			return i
		}
	}
	return 0
}
