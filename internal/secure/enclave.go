package secure

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

var (
	// ErrEmpty is returned when creating a buffer from no data.
	ErrEmpty = errors.New("secure: no data to protect")

	// ErrDestroyed is returned when opening a destroyed buffer.
	ErrDestroyed = errors.New("secure: buffer destroyed")
)

// SecureBuffer provides memory-safe storage for sensitive data.
// It wraps memguard.Enclave to encrypt secrets at rest in memory
// and protect them from swapping via mlock.
type SecureBuffer struct {
	enclave   *memguard.Enclave
	size      int
	mu        sync.RWMutex
	destroyed bool
}

// NewSecureBuffer creates a protected buffer from secret bytes.
// memguard wipes data once it has been copied into the enclave.
func NewSecureBuffer(data []byte) (*SecureBuffer, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}

	size := len(data)
	enclave := memguard.NewEnclave(data)

	return &SecureBuffer{
		enclave: enclave,
		size:    size,
	}, nil
}

// Open decrypts and returns the protected data in a locked buffer.
// The caller MUST call Destroy() on the returned LockedBuffer when done.
func (s *SecureBuffer) Open() (*memguard.LockedBuffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed {
		return nil, ErrDestroyed
	}

	return s.enclave.Open()
}

// WithBytes hands the plaintext to fn and wipes it when fn returns.
// fn must not retain the slice.
func (s *SecureBuffer) WithBytes(fn func([]byte) error) error {
	locked, err := s.Open()
	if err != nil {
		return err
	}
	defer locked.Destroy()

	return fn(locked.Bytes())
}

// Size returns the number of protected bytes.
func (s *SecureBuffer) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed {
		return 0
	}
	return s.size
}

// Destroy marks this SecureBuffer as destroyed and prevents further use.
// It is idempotent.
func (s *SecureBuffer) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return
	}

	s.enclave = nil
	s.destroyed = true
}

// Purge wipes all memguard-managed memory. Call it once on the way out of
// main.
func Purge() {
	memguard.Purge()
}
