package keyvault

import (
	"strings"

	"github.com/systmms/kvboot/internal/config"
)

// KeyMapper decides which secrets load and under which configuration key.
type KeyMapper interface {
	// Load reports whether the named secret should be loaded.
	Load(name string) bool
	// Key returns the configuration key for the named secret.
	Key(name string) string
}

// IdentityMapper loads every secret under its own name.
type IdentityMapper struct{}

func (IdentityMapper) Load(string) bool       { return true }
func (IdentityMapper) Key(name string) string { return name }

// DelimiterMapper replaces Delimiter with the configuration key delimiter, so
// a secret named "Logging--Level" becomes "Logging:Level". Key Vault names
// cannot contain ':'.
type DelimiterMapper struct {
	Delimiter string
}

func (DelimiterMapper) Load(string) bool { return true }

func (m DelimiterMapper) Key(name string) string {
	if m.Delimiter == "" {
		return name
	}
	return strings.ReplaceAll(name, m.Delimiter, config.KeyDelimiter)
}

// PrefixMapper loads only secrets starting with Prefix (case-insensitive),
// strips it, then hands the rest to Next.
type PrefixMapper struct {
	Prefix string
	Next   KeyMapper
}

func (m PrefixMapper) Load(name string) bool {
	if len(name) <= len(m.Prefix) || !strings.EqualFold(name[:len(m.Prefix)], m.Prefix) {
		return false
	}
	return m.next().Load(name[len(m.Prefix):])
}

func (m PrefixMapper) Key(name string) string {
	if len(name) >= len(m.Prefix) && strings.EqualFold(name[:len(m.Prefix)], m.Prefix) {
		name = name[len(m.Prefix):]
	}
	return m.next().Key(name)
}

func (m PrefixMapper) next() KeyMapper {
	if m.Next == nil {
		return IdentityMapper{}
	}
	return m.Next
}

// NewKeyMapper composes the mapper for the given delimiter and prefix. Both
// may be empty, which yields IdentityMapper.
func NewKeyMapper(delimiter, prefix string) KeyMapper {
	var m KeyMapper = IdentityMapper{}
	if delimiter != "" {
		m = DelimiterMapper{Delimiter: delimiter}
	}
	if prefix != "" {
		m = PrefixMapper{Prefix: prefix, Next: m}
	}
	return m
}
