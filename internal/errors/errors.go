package errors

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrCertificateNotFound is returned when no certificate in the store matches
// the configured thumbprint.
var ErrCertificateNotFound = errors.New("certificate not found")

// ErrAmbiguousCertificate is returned when more than one certificate matches
// the configured thumbprint.
var ErrAmbiguousCertificate = errors.New("multiple certificates match thumbprint")

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// CertificateError reports a thumbprint lookup that did not yield exactly one
// certificate. Err is ErrCertificateNotFound or ErrAmbiguousCertificate.
type CertificateError struct {
	Thumbprint string
	Matches    int
	Err        error

	// Unreadable names store entries that could not be parsed and so were
	// not compared.
	Unreadable []string
}

func (e CertificateError) Error() string {
	var msg string
	switch {
	case errors.Is(e.Err, ErrAmbiguousCertificate):
		msg = fmt.Sprintf("%d certificates match thumbprint %s", e.Matches, e.Thumbprint)
		msg += "\n  💡 Remove duplicate certificates from the store so exactly one matches"
	case errors.Is(e.Err, ErrCertificateNotFound):
		msg = fmt.Sprintf("certificate not found: no certificate in the store matches thumbprint %s", e.Thumbprint)
		if len(e.Unreadable) > 0 {
			msg += fmt.Sprintf("\n  %d certificate file(s) could not be read: %s", len(e.Unreadable), strings.Join(e.Unreadable, ", "))
			msg += "\n  💡 Check Certificates:Password for password-protected PFX files"
		} else {
			msg += "\n  💡 Import the certificate into the current user store or check AzureADCertThumbprint"
		}
	default:
		msg = fmt.Sprintf("certificate lookup for thumbprint %s failed", e.Thumbprint)
		if e.Err != nil {
			msg += ": " + e.Err.Error()
		}
	}
	return msg
}

func (e CertificateError) Unwrap() error {
	return e.Err
}

// AuthError indicates the remote secret store rejected the credential.
type AuthError struct {
	Vault string
	Err   error
}

func (e AuthError) Error() string {
	msg := "authentication to " + e.Vault + " failed"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg + "\n  💡 Check the application id, tenant id and that the certificate is registered on the app and granted 'Get' and 'List' on secrets"
}

func (e AuthError) Unwrap() error {
	return e.Err
}

// TransportError indicates the remote secret store could not be reached.
type TransportError struct {
	Vault string
	Err   error
}

func (e TransportError) Error() string {
	msg := "unable to reach " + e.Vault
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg + "\n  💡 Check network connectivity and that KeyVaultName is correct"
}

func (e TransportError) Unwrap() error {
	return e.Err
}

// SimplifyError simplifies complex error messages for users
func SimplifyError(err error) error {
	if err == nil {
		return nil
	}

	// Already a user-friendly error
	var (
		userErr  UserError
		cfgErr   ConfigError
		certErr  CertificateError
		authErr  AuthError
		transErr TransportError
	)
	if errors.As(err, &userErr) || errors.As(err, &cfgErr) || errors.As(err, &certErr) ||
		errors.As(err, &authErr) || errors.As(err, &transErr) {
		return err
	}

	// Unwrap to get the root cause
	rootErr := err
	for {
		unwrapped := errors.Unwrap(rootErr)
		if unwrapped == nil {
			break
		}
		rootErr = unwrapped
	}

	errStr := rootErr.Error()

	// yaml.v3 prefixes its own errors; file names ending in .yaml must not match
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) || strings.HasPrefix(errStr, "yaml: ") {
		return ConfigError{
			Message:    "Invalid YAML format",
			Suggestion: "Check for indentation errors and missing quotes",
		}
	}

	if strings.Contains(errStr, "permission denied") {
		return UserError{
			Message:    "Permission denied",
			Suggestion: "Check file permissions or run with appropriate privileges",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "no such file or directory") {
		return UserError{
			Message:    "File or directory not found",
			Suggestion: "Verify the path exists and is spelled correctly",
			Err:        err,
		}
	}

	return err
}
