package certstore

import (
	"crypto/sha1" //nolint:gosec // thumbprints are SHA-1 by definition
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"strings"
)

// ThumbprintLength is the number of hex characters in a SHA-1 thumbprint.
const ThumbprintLength = sha1.Size * 2

// Thumbprint is the upper-case hex SHA-1 of a certificate's DER encoding.
type Thumbprint string

// ParseThumbprint normalizes s into a Thumbprint. Spaces, colons and the
// U+200E mark that certificate dialogs prepend when copying are dropped.
func ParseThumbprint(s string) (Thumbprint, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', ':', '\t', '\u200e', '\u200f':
			return -1
		}
		return r
	}, s)
	cleaned = strings.ToUpper(cleaned)

	if len(cleaned) != ThumbprintLength {
		return "", fmt.Errorf("thumbprint must be %d hex characters, got %d", ThumbprintLength, len(cleaned))
	}
	if _, err := hex.DecodeString(cleaned); err != nil {
		return "", fmt.Errorf("thumbprint is not hexadecimal: %w", err)
	}
	return Thumbprint(cleaned), nil
}

// ThumbprintOf computes the thumbprint of cert.
func ThumbprintOf(cert *x509.Certificate) Thumbprint {
	sum := sha1.Sum(cert.Raw) //nolint:gosec
	return Thumbprint(strings.ToUpper(hex.EncodeToString(sum[:])))
}

func (t Thumbprint) String() string {
	return string(t)
}
