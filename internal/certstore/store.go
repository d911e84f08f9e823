// Package certstore reads client certificates from a user-scoped, read-only
// certificate store and finds them by thumbprint.
//
// A Store is a scoped handle: Open acquires it and Close releases it. Callers
// defer Close immediately after a successful Open.
package certstore

import (
	"context"
	"crypto"
	"crypto/x509"
	"errors"
	"time"
)

// ErrStoreClosed is returned by every Store method after Close.
var ErrStoreClosed = errors.New("certificate store is closed")

// ErrListUnsupported is returned by stores that can only be queried by
// thumbprint.
var ErrListUnsupported = errors.New("certificate store cannot be enumerated")

// Store is an open, read-only handle to a certificate repository.
type Store interface {
	// Find returns every certificate whose thumbprint equals tp.
	Find(tp Thumbprint) ([]*Certificate, error)

	// List returns every certificate in the store.
	List() ([]*Certificate, error)

	// Close releases the handle. It is safe to call more than once.
	Close() error
}

// Opener acquires a Store handle.
type Opener interface {
	Open(ctx context.Context) (Store, error)
}

// Certificate is one entry of a store.
type Certificate struct {
	Leaf       *x509.Certificate
	Chain      []*x509.Certificate // leaf first
	PrivateKey crypto.PrivateKey
	Thumbprint Thumbprint
	Source     string
}

// HasPrivateKey reports whether the entry can be used to authenticate.
func (c *Certificate) HasPrivateKey() bool {
	return c.PrivateKey != nil
}

// Subject returns the leaf subject in RFC 2253 form.
func (c *Certificate) Subject() string {
	return c.Leaf.Subject.String()
}

// Expired reports whether the leaf is outside its validity window at now.
func (c *Certificate) Expired(now time.Time) bool {
	return now.Before(c.Leaf.NotBefore) || now.After(c.Leaf.NotAfter)
}

// Unreadable returns the entries of store that could not be parsed, for
// stores that keep track of them.
func Unreadable(store Store) []string {
	if r, ok := store.(interface{ Unreadable() []string }); ok {
		return r.Unreadable()
	}
	return nil
}

func findIn(certs []*Certificate, tp Thumbprint) []*Certificate {
	var matches []*Certificate
	for _, c := range certs {
		if c.Thumbprint == tp {
			matches = append(matches, c)
		}
	}
	return matches
}
