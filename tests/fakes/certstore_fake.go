package fakes

import (
	"context"
	"sync"

	"github.com/systmms/kvboot/internal/certstore"
)

// FakeCertificateOpener hands out FakeCertificateStore handles over a fixed
// set of certificates and records every open and close.
type FakeCertificateOpener struct {
	mu sync.Mutex

	Certificates []*certstore.Certificate
	// OpenErr is returned by Open when set
	OpenErr error
	// FindErr is returned by Find when set
	FindErr error

	opened int
	closed int
}

// NewFakeCertificateOpener creates an opener over certs
func NewFakeCertificateOpener(certs ...*certstore.Certificate) *FakeCertificateOpener {
	return &FakeCertificateOpener{Certificates: certs}
}

// Open returns a new handle
func (f *FakeCertificateOpener) Open(ctx context.Context) (certstore.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.OpenErr != nil {
		return nil, f.OpenErr
	}
	f.opened++
	return &FakeCertificateStore{opener: f}, nil
}

// Opened returns the number of successful opens
func (f *FakeCertificateOpener) Opened() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened
}

// Closed returns the number of handles closed
func (f *FakeCertificateOpener) Closed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Outstanding returns the number of handles opened but not yet closed
func (f *FakeCertificateOpener) Outstanding() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened - f.closed
}

// FakeCertificateStore is one handle returned by FakeCertificateOpener
type FakeCertificateStore struct {
	opener *FakeCertificateOpener
	closed bool
}

// Find returns the certificates with thumbprint tp
func (s *FakeCertificateStore) Find(tp certstore.Thumbprint) ([]*certstore.Certificate, error) {
	s.opener.mu.Lock()
	defer s.opener.mu.Unlock()

	if s.closed {
		return nil, certstore.ErrStoreClosed
	}
	if s.opener.FindErr != nil {
		return nil, s.opener.FindErr
	}

	var matches []*certstore.Certificate
	for _, c := range s.opener.Certificates {
		if c.Thumbprint == tp {
			matches = append(matches, c)
		}
	}
	return matches, nil
}

// List returns every certificate
func (s *FakeCertificateStore) List() ([]*certstore.Certificate, error) {
	s.opener.mu.Lock()
	defer s.opener.mu.Unlock()

	if s.closed {
		return nil, certstore.ErrStoreClosed
	}
	return append([]*certstore.Certificate(nil), s.opener.Certificates...), nil
}

// Close releases the handle; later calls are no-ops
func (s *FakeCertificateStore) Close() error {
	s.opener.mu.Lock()
	defer s.opener.mu.Unlock()

	if !s.closed {
		s.closed = true
		s.opener.closed++
	}
	return nil
}
