package config

import (
	"errors"
	"fmt"
)

// Builder assembles a Store from layered sources. Sources are added lowest
// precedence first. The first failing source records an error that Build
// returns; later calls are still accepted so the chain reads linearly.
type Builder struct {
	layers []Layer
	err    error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{layers: make([]Layer, 0, 4)}
}

// AddMap adds an in-memory layer.
func (b *Builder) AddMap(name string, values map[string]string) *Builder {
	b.layers = append(b.layers, Layer{Name: name, Values: values})
	return b
}

// AddYAMLFile adds a layer read from a YAML file. Nested mappings become
// delimiter-joined keys. A missing file is an error unless optional is set.
func (b *Builder) AddYAMLFile(path string, optional bool) *Builder {
	values, err := readYAMLFile(path, optional)
	if err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}
	if values != nil {
		b.layers = append(b.layers, Layer{Name: path, Values: values})
	}
	return b
}

// AddEnvironment adds the environment variables in environ. "__" in a
// variable name maps to the key delimiter. Variables starting with prefix
// are added again, prefix stripped, above the unprefixed ones.
func (b *Builder) AddEnvironment(prefix string, environ []string) *Builder {
	plain, prefixed := environmentLayers(prefix, environ)
	b.layers = append(b.layers, Layer{Name: "environment", Values: plain})
	if prefix != "" && len(prefixed) > 0 {
		b.layers = append(b.layers, Layer{Name: "environment:" + prefix, Values: prefixed})
	}
	return b
}

// Build returns the assembled Store.
func (b *Builder) Build() (*Store, error) {
	if b.err != nil {
		return nil, fmt.Errorf("error occurred during building config: %w", b.err)
	}
	return NewStore(b.layers...)
}
