package certstore

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/systmms/kvboot/internal/logging"
)

// dotnetUserStore is where the .NET runtime keeps the CurrentUser\My store
// on Unix systems, one PFX file per certificate.
var dotnetUserStore = filepath.Join(".dotnet", "corefx", "cryptography", "x509stores", "my")

var certExtensions = map[string]bool{
	".pfx": true,
	".p12": true,
	".pem": true,
	".crt": true,
	".cer": true,
}

// DefaultUserStorePath returns the current user's personal store directory.
func DefaultUserStorePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, dotnetUserStore), nil
}

// DirOpener opens a directory of certificate files as a Store.
type DirOpener struct {
	// Path is the store directory. Empty means DefaultUserStorePath.
	Path string

	// Password decrypts PKCS#12 files. Empty for unprotected files.
	Password string

	Logger *logging.Logger
}

// Open acquires a read-only handle on the directory. Reads through the
// handle cannot escape the directory.
func (o DirOpener) Open(ctx context.Context) (Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := o.Path
	if path == "" {
		var err error
		if path, err = DefaultUserStorePath(); err != nil {
			return nil, err
		}
	}

	root, err := os.OpenRoot(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open certificate store %s: %w", path, err)
	}

	logger := o.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	return &dirStore{
		root:     root,
		path:     path,
		password: []byte(o.Password),
		logger:   logger,
	}, nil
}

type dirStore struct {
	mu       sync.Mutex
	root     *os.Root
	path     string
	password []byte
	logger   *logging.Logger

	loaded     bool
	certs      []*Certificate
	unreadable []string
}

func (s *dirStore) Find(tp Thumbprint) ([]*Certificate, error) {
	certs, err := s.load()
	if err != nil {
		return nil, err
	}
	return findIn(certs, tp), nil
}

func (s *dirStore) List() ([]*Certificate, error) {
	certs, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]*Certificate, len(certs))
	copy(out, certs)
	return out, nil
}

func (s *dirStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.root == nil {
		return nil
	}
	err := s.root.Close()
	s.root = nil
	s.certs = nil
	s.unreadable = nil
	s.loaded = false
	return err
}

// Unreadable lists the certificate files that failed to parse, usually
// PKCS#12 files protected by another password.
func (s *dirStore) Unreadable() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.unreadable))
	copy(out, s.unreadable)
	return out
}

// load parses every certificate file once per handle.
func (s *dirStore) load() ([]*Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.root == nil {
		return nil, ErrStoreClosed
	}
	if s.loaded {
		return s.certs, nil
	}

	fsys := s.root.FS()
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate store %s: %w", s.path, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var (
		certs      []*Certificate
		unreadable []string
	)
	for _, e := range entries {
		if e.IsDir() || !certExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}

		data, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			s.logger.Debug("Skipping unreadable certificate file %s: %v", e.Name(), err)
			continue
		}
		if len(data) == 0 {
			continue
		}

		cert, err := parseCertificate(data, s.password, e.Name())
		if err != nil {
			s.logger.Warn("Skipping certificate file %s: %v", e.Name(), err)
			unreadable = append(unreadable, e.Name())
			continue
		}
		certs = append(certs, cert)
	}

	s.logger.Debug("Certificate store %s holds %d certificate(s)", s.path, len(certs))
	s.certs = certs
	s.unreadable = unreadable
	s.loaded = true
	return certs, nil
}
