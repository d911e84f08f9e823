package config

import (
	"strings"

	"github.com/caarlos0/env/v11"
)

// environmentLayers splits environ into the plain layer and the layer of
// variables carrying prefix (with prefix removed).
func environmentLayers(prefix string, environ []string) (plain, prefixed map[string]string) {
	vars := env.ToMap(environ)

	plain = make(map[string]string, len(vars))
	prefixed = make(map[string]string)
	for name, value := range vars {
		key := strings.ReplaceAll(name, "__", KeyDelimiter)
		plain[key] = value

		if prefix != "" && len(name) > len(prefix) && strings.EqualFold(name[:len(prefix)], prefix) {
			prefixed[strings.ReplaceAll(name[len(prefix):], "__", KeyDelimiter)] = value
		}
	}
	return plain, prefixed
}
