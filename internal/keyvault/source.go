package keyvault

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/systmms/kvboot/internal/config"
	"github.com/systmms/kvboot/internal/logging"
)

// LayerName names the configuration layer produced by Source.
const LayerName = "keyvault"

// Secret is one secret read from the vault.
type Secret struct {
	Name        string
	Value       string
	ContentType string
	Enabled     bool
}

func (s Secret) String() string {
	return fmt.Sprintf("%s=%s", s.Name, logging.Secret(s.Value))
}

// Result is the outcome of Source.Load.
type Result struct {
	Layer   config.Layer
	Loaded  int
	Skipped int
}

// Source reads every accessible secret of one vault.
type Source struct {
	vaultURL string
	client   Client
	mapper   KeyMapper
	logger   *logging.Logger
	now      func() time.Time
}

// SourceOption is a functional option for configuring a Source
type SourceOption func(*Source)

// WithClient sets a custom Key Vault client (for testing)
func WithClient(client Client) SourceOption {
	return func(s *Source) {
		s.client = client
	}
}

// WithKeyMapper replaces the default IdentityMapper.
func WithKeyMapper(m KeyMapper) SourceOption {
	return func(s *Source) {
		if m != nil {
			s.mapper = m
		}
	}
}

// WithLogger sets the logger used for per-secret debug output.
func WithLogger(l *logging.Logger) SourceOption {
	return func(s *Source) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now for expiry checks.
func WithClock(now func() time.Time) SourceOption {
	return func(s *Source) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSource creates a Source for vaultURL. cred may be nil when a client is
// supplied with WithClient.
func NewSource(vaultURL string, cred azcore.TokenCredential, opts ...SourceOption) (*Source, error) {
	s := &Source{
		vaultURL: vaultURL,
		mapper:   IdentityMapper{},
		logger:   logging.Nop(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		if cred == nil {
			return nil, errors.New("a credential is required to reach Key Vault")
		}
		client, err := NewClient(vaultURL, cred)
		if err != nil {
			return nil, err
		}
		s.client = client
	}

	return s, nil
}

// VaultURL returns the vault endpoint.
func (s *Source) VaultURL() string {
	return s.vaultURL
}

// Secrets enumerates the vault and fetches the latest value of every enabled,
// unexpired secret the mapper accepts. The second result counts secrets that
// were listed but not fetched.
func (s *Source) Secrets(ctx context.Context) ([]Secret, int, error) {
	var (
		secrets []Secret
		skipped int
	)

	pager := s.client.NewListSecretPropertiesPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, 0, classifyError(s.vaultURL, "Failed to list secrets", err)
		}

		for _, props := range page.Value {
			name, ok := s.include(props)
			if !ok {
				skipped++
				continue
			}

			resp, err := s.client.GetSecret(ctx, name, "", nil)
			if err != nil {
				if isNotFound(err) {
					// deleted between list and get
					s.logger.Debug("Secret %s disappeared before it was read", name)
					skipped++
					continue
				}
				return nil, 0, classifyError(s.vaultURL, fmt.Sprintf("Failed to access secret: %s", name), err)
			}

			secret := Secret{Name: name, Enabled: true}
			if resp.Value != nil {
				secret.Value = *resp.Value
			}
			if resp.ContentType != nil {
				secret.ContentType = *resp.ContentType
			}
			secrets = append(secrets, secret)
		}
	}

	return secrets, skipped, nil
}

func (s *Source) include(props *azsecrets.SecretProperties) (string, bool) {
	if props == nil || props.ID == nil {
		return "", false
	}
	name := props.ID.Name()
	if name == "" {
		return "", false
	}

	if attrs := props.Attributes; attrs != nil {
		if attrs.Enabled != nil && !*attrs.Enabled {
			s.logger.Debug("Skipping disabled secret %s", name)
			return name, false
		}
		if attrs.Expires != nil && !s.now().Before(*attrs.Expires) {
			s.logger.Debug("Skipping expired secret %s", name)
			return name, false
		}
	}

	if !s.mapper.Load(name) {
		s.logger.Debug("Skipping secret %s: not selected by key mapper", name)
		return name, false
	}
	return name, true
}

// Load reads the vault into a configuration layer.
func (s *Source) Load(ctx context.Context) (Result, error) {
	secrets, skipped, err := s.Secrets(ctx)
	if err != nil {
		return Result{}, err
	}

	values := make(map[string]string, len(secrets))
	for _, secret := range secrets {
		key := s.mapper.Key(secret.Name)
		s.logger.Debug("Loaded secret %s as %s", secret.Name, key)
		values[key] = secret.Value
	}

	return Result{
		Layer:   config.Layer{Name: LayerName, Values: values},
		Loaded:  len(secrets),
		Skipped: skipped,
	}, nil
}
