package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	dserrors "github.com/systmms/kvboot/internal/errors"
)

// Base configuration keys consumed by the bootstrapper.
const (
	KeyVaultNameKey   = "KeyVaultName"
	DirectoryIDKey    = "AzureADDirectoryId"
	ApplicationIDKey  = "AzureADApplicationId"
	ThumbprintKey     = "AzureADCertThumbprint"
	DefaultDisplayKey = "my-secret-01"
)

// DefaultTimeout bounds the whole remote fetch when KeyVault:TimeoutSeconds
// is not set.
const DefaultTimeout = 30 * time.Second

var vaultNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]{1,22}[A-Za-z0-9]$`)

// Settings is the typed view of the configuration keys kvboot understands.
type Settings struct {
	KeyVaultName  string
	DirectoryID   string
	ApplicationID string
	Thumbprint    string

	KeyVault     KeyVaultSettings
	AzureAD      AzureADSettings
	Certificates CertificateSettings
	Server       ServerSettings
	Metrics      MetricsSettings
	LogLevel     string
}

// KeyVaultSettings tune how secrets are fetched and mapped.
type KeyVaultSettings struct {
	Timeout             time.Duration
	SecretNameDelimiter string
	SecretPrefix        string
}

// AzureADSettings tune the client certificate credential.
type AzureADSettings struct {
	SendCertificateChain     bool
	AuthorityHost            string
	DisableInstanceDiscovery bool
}

// CertificateSettings locate the user certificate store.
type CertificateSettings struct {
	Source   string
	Path     string
	Password string
}

// ServerSettings configure the HTTP listener.
type ServerSettings struct {
	Address      string
	DisplayKey   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// MetricsSettings configure the optional Prometheus listener.
type MetricsSettings struct {
	Enabled bool
	Address string
	Path    string
}

// LoadSettings reads Settings from s, applying defaults. It fails only on
// values that are present but unparseable; required keys are checked by
// Validate.
func LoadSettings(s *Store) (Settings, error) {
	st := Settings{
		KeyVaultName:  strings.TrimSpace(s.Value(KeyVaultNameKey)),
		DirectoryID:   strings.TrimSpace(s.Value(DirectoryIDKey)),
		ApplicationID: strings.TrimSpace(s.Value(ApplicationIDKey)),
		Thumbprint:    s.Value(ThumbprintKey),
		KeyVault: KeyVaultSettings{
			SecretNameDelimiter: s.Value("KeyVault:SecretNameDelimiter"),
			SecretPrefix:        s.Value("KeyVault:SecretPrefix"),
		},
		AzureAD: AzureADSettings{
			AuthorityHost: s.Value("AzureAD:AuthorityHost"),
		},
		Certificates: CertificateSettings{
			Source:   strings.ToLower(s.ValueOr("Certificates:Source", "dir")),
			Path:     s.Value("Certificates:Path"),
			Password: s.Value("Certificates:Password"),
		},
		Server: ServerSettings{
			Address:    s.ValueOr("Server:Address", ":8080"),
			DisplayKey: s.ValueOr("Server:DisplayKey", DefaultDisplayKey),
		},
		Metrics: MetricsSettings{
			Address: s.ValueOr("Metrics:Address", ":9090"),
			Path:    s.ValueOr("Metrics:Path", "/metrics"),
		},
		LogLevel: s.Value("Logging:Level"),
	}

	var err error
	if st.KeyVault.Timeout, err = s.Seconds("KeyVault:TimeoutSeconds", DefaultTimeout); err != nil {
		return Settings{}, invalidValue("KeyVault:TimeoutSeconds", s, "must be a whole number of seconds")
	}
	if st.KeyVault.Timeout <= 0 {
		return Settings{}, invalidValue("KeyVault:TimeoutSeconds", s, "must be greater than zero")
	}
	if st.AzureAD.SendCertificateChain, err = s.Bool("AzureAD:SendCertificateChain", false); err != nil {
		return Settings{}, invalidValue("AzureAD:SendCertificateChain", s, "must be true or false")
	}
	if st.AzureAD.DisableInstanceDiscovery, err = s.Bool("AzureAD:DisableInstanceDiscovery", false); err != nil {
		return Settings{}, invalidValue("AzureAD:DisableInstanceDiscovery", s, "must be true or false")
	}
	if st.Server.ReadTimeout, err = s.Seconds("Server:ReadTimeoutSeconds", 5*time.Second); err != nil {
		return Settings{}, invalidValue("Server:ReadTimeoutSeconds", s, "must be a whole number of seconds")
	}
	if st.Server.WriteTimeout, err = s.Seconds("Server:WriteTimeoutSeconds", 10*time.Second); err != nil {
		return Settings{}, invalidValue("Server:WriteTimeoutSeconds", s, "must be a whole number of seconds")
	}
	if st.Metrics.Enabled, err = s.Bool("Metrics:Enabled", false); err != nil {
		return Settings{}, invalidValue("Metrics:Enabled", s, "must be true or false")
	}

	switch st.Certificates.Source {
	case "dir", "keyring":
	default:
		return Settings{}, dserrors.ConfigError{
			Field:      "Certificates:Source",
			Value:      st.Certificates.Source,
			Message:    "unknown certificate store",
			Suggestion: "Use 'dir' or 'keyring'",
		}
	}

	return st, nil
}

func invalidValue(key string, s *Store, msg string) error {
	return dserrors.ConfigError{
		Field:   key,
		Value:   s.Value(key),
		Message: msg,
	}
}

// Validate checks that every key the bootstrapper needs is present and that
// the vault name can form a vault URL. All missing keys are reported at once.
func (st Settings) Validate() error {
	var missing []string
	if st.KeyVaultName == "" {
		missing = append(missing, KeyVaultNameKey)
	}
	if st.DirectoryID == "" {
		missing = append(missing, DirectoryIDKey)
	}
	if st.ApplicationID == "" {
		missing = append(missing, ApplicationIDKey)
	}
	if strings.TrimSpace(st.Thumbprint) == "" {
		missing = append(missing, ThumbprintKey)
	}
	if len(missing) > 0 {
		return dserrors.ConfigError{
			Field:      strings.Join(missing, ", "),
			Message:    fmt.Sprintf("%d required key(s) missing", len(missing)),
			Suggestion: "Set them in appsettings.yaml or as environment variables (use __ for nested keys)",
		}
	}

	if !vaultNamePattern.MatchString(st.KeyVaultName) || strings.Contains(st.KeyVaultName, "--") {
		return dserrors.ConfigError{
			Field:      KeyVaultNameKey,
			Value:      st.KeyVaultName,
			Message:    "invalid Key Vault name",
			Suggestion: "Vault names are 3-24 characters: letters, digits and single dashes, starting with a letter",
		}
	}

	return nil
}
