package config

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
)

// KeyDelimiter separates the segments of a hierarchical configuration key.
const KeyDelimiter = ":"

// Layer is one named source of configuration values.
type Layer struct {
	Name   string
	Values map[string]string
}

// Store is an immutable, layered key/value namespace. Layers added later
// override earlier ones for the same key. Key comparison ignores case.
//
// A Store is never modified after construction, so any number of goroutines
// may read from it without synchronization.
type Store struct {
	layers []Layer
	values map[string]string // normalized key -> value
	names  map[string]string // normalized key -> key as last written
	origin map[string]string // normalized key -> layer name
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func newStore(layers []Layer) (*Store, error) {
	s := &Store{
		layers: layers,
		values: make(map[string]string),
		names:  make(map[string]string),
		origin: make(map[string]string),
	}

	for _, layer := range layers {
		values := make(map[string]string, len(layer.Values))
		names := make(map[string]string, len(layer.Values))
		origin := make(map[string]string, len(layer.Values))

		// Keys of one layer that differ only in case resolve to the last
		// in byte order, whatever the map order.
		keys := make([]string, 0, len(layer.Values))
		for k := range layer.Values {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			v := layer.Values[k]
			nk := normalizeKey(k)
			if nk == "" {
				continue
			}
			values[nk] = v
			names[nk] = k
			origin[nk] = layer.Name
		}

		if err := mergo.Merge(&s.values, values, mergo.WithOverride); err != nil {
			return nil, err
		}
		if err := mergo.Merge(&s.names, names, mergo.WithOverride); err != nil {
			return nil, err
		}
		if err := mergo.Merge(&s.origin, origin, mergo.WithOverride); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// NewStore builds a Store from the given layers, lowest precedence first.
func NewStore(layers ...Layer) (*Store, error) {
	copied := make([]Layer, 0, len(layers))
	for _, l := range layers {
		copied = append(copied, copyLayer(l))
	}
	return newStore(copied)
}

func copyLayer(l Layer) Layer {
	values := make(map[string]string, len(l.Values))
	for k, v := range l.Values {
		values[k] = v
	}
	return Layer{Name: l.Name, Values: values}
}

// WithLayer returns a new Store with layer placed on top of the receiver's
// layers. The receiver is left untouched.
func (s *Store) WithLayer(layer Layer) (*Store, error) {
	layers := make([]Layer, 0, len(s.layers)+1)
	layers = append(layers, s.layers...)
	layers = append(layers, copyLayer(layer))
	return newStore(layers)
}

// Get returns the value for key and whether it was present.
func (s *Store) Get(key string) (string, bool) {
	v, ok := s.values[normalizeKey(key)]
	return v, ok
}

// Value returns the value for key, or "" when absent.
func (s *Store) Value(key string) string {
	v, _ := s.Get(key)
	return v
}

// ValueOr returns the value for key, or def when absent or empty.
func (s *Store) ValueOr(key, def string) string {
	if v, ok := s.Get(key); ok && v != "" {
		return v
	}
	return def
}

// Bool parses key as a boolean. Absent or empty keys yield def.
func (s *Store) Bool(key string, def bool) (bool, error) {
	v, ok := s.Get(key)
	if !ok || v == "" {
		return def, nil
	}
	return strconv.ParseBool(v)
}

// Int parses key as an integer. Absent or empty keys yield def.
func (s *Store) Int(key string, def int) (int, error) {
	v, ok := s.Get(key)
	if !ok || v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

// Seconds parses key as a whole number of seconds. Absent or empty keys
// yield def.
func (s *Store) Seconds(key string, def time.Duration) (time.Duration, error) {
	v, ok := s.Get(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Second, nil
}

// Source returns the name of the layer that supplied key.
func (s *Store) Source(key string) string {
	return s.origin[normalizeKey(key)]
}

// Keys returns every key in the store, sorted.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.names))
	for _, k := range s.names {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return strings.ToLower(keys[i]) < strings.ToLower(keys[j])
	})
	return keys
}

// Section returns the values below prefix, keyed by the remainder of the key.
func (s *Store) Section(prefix string) map[string]string {
	p := normalizeKey(prefix) + strings.ToLower(KeyDelimiter)
	out := make(map[string]string)
	for nk, v := range s.values {
		if strings.HasPrefix(nk, p) {
			name := s.names[nk]
			out[name[len(p):]] = v
		}
	}
	return out
}

// Layers returns the names of the layers, lowest precedence first.
func (s *Store) Layers() []string {
	names := make([]string, 0, len(s.layers))
	for _, l := range s.layers {
		names = append(names, l.Name)
	}
	return names
}

// Len returns the number of distinct keys.
func (s *Store) Len() int {
	return len(s.values)
}
