package certstore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"

	"github.com/systmms/kvboot/internal/logging"
)

// DefaultKeyringService is the keyring service under which certificates are
// stored, one item per certificate with the thumbprint as account name.
const DefaultKeyringService = "kvboot-certificates"

// KeyringOpener opens the OS keyring (macOS Keychain, Secret Service,
// Windows Credential Manager) as a Store. Item values hold base64 PFX or
// PEM data.
type KeyringOpener struct {
	Service  string
	Password string
	Logger   *logging.Logger
}

// Open returns a handle on the keyring service.
func (o KeyringOpener) Open(ctx context.Context) (Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	service := o.Service
	if service == "" {
		service = DefaultKeyringService
	}
	logger := o.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	return &keyringStore{
		service:  service,
		password: []byte(o.Password),
		logger:   logger,
	}, nil
}

type keyringStore struct {
	mu       sync.Mutex
	closed   bool
	service  string
	password []byte
	logger   *logging.Logger
}

func (s *keyringStore) Find(tp Thumbprint) ([]*Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	encoded, err := keyring.Get(s.service, tp.String())
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query keyring service %s: %w", s.service, err)
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		// PEM may be stored as-is
		data = []byte(encoded)
	}

	cert, err := parseCertificate(data, s.password, s.service+"/"+tp.String())
	if err != nil {
		return nil, fmt.Errorf("keyring item %s/%s is not a certificate: %w", s.service, tp, err)
	}

	// The account name is only a label; the content decides the match.
	if cert.Thumbprint != tp {
		s.logger.Warn("Keyring item %s/%s holds certificate %s", s.service, tp, cert.Thumbprint)
		return nil, nil
	}
	return []*Certificate{cert}, nil
}

func (s *keyringStore) List() ([]*Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	return nil, ErrListUnsupported
}

func (s *keyringStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
