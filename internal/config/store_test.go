package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreLaterLayerWins(t *testing.T) {
	t.Parallel()

	s, err := NewStore(
		Layer{Name: "base", Values: map[string]string{"K": "base", "only-base": "1"}},
		Layer{Name: "secrets", Values: map[string]string{"K": "secret"}},
	)
	require.NoError(t, err)

	v, ok := s.Get("K")
	require.True(t, ok)
	assert.Equal(t, "secret", v)
	assert.Equal(t, "secrets", s.Source("K"))
	assert.Equal(t, "1", s.Value("only-base"))
	assert.Equal(t, "base", s.Source("only-base"))
}

func TestStoreEmptyValueOverrides(t *testing.T) {
	t.Parallel()

	s, err := NewStore(
		Layer{Name: "file", Values: map[string]string{"Feature": "on"}},
		Layer{Name: "environment", Values: map[string]string{"Feature": ""}},
	)
	require.NoError(t, err)

	v, ok := s.Get("Feature")
	assert.True(t, ok)
	assert.Empty(t, v)
	assert.Equal(t, "fallback", s.ValueOr("Feature", "fallback"))
}

func TestStoreKeysIgnoreCase(t *testing.T) {
	t.Parallel()

	s, err := NewStore(
		Layer{Name: "a", Values: map[string]string{"Logging:Level": "info"}},
		Layer{Name: "b", Values: map[string]string{"logging:level": "debug"}},
	)
	require.NoError(t, err)

	assert.Equal(t, "debug", s.Value("LOGGING:LEVEL"))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, []string{"logging:level"}, s.Keys())
}

func TestStoreCaseCollisionInOneLayerIsDeterministic(t *testing.T) {
	t.Parallel()

	values := map[string]string{"FOO": "upper", "Foo": "title", "foo": "lower"}
	for i := 0; i < 50; i++ {
		s, err := NewStore(Layer{Name: "env", Values: values})
		require.NoError(t, err)

		assert.Equal(t, "lower", s.Value("Foo"))
		assert.Equal(t, []string{"foo"}, s.Keys())
		assert.Equal(t, 1, s.Len())
	}
}

func TestStoreGetMissing(t *testing.T) {
	t.Parallel()

	s, err := NewStore()
	require.NoError(t, err)

	_, ok := s.Get("my-secret-01")
	assert.False(t, ok)
	assert.Empty(t, s.Value("my-secret-01"))
	assert.Empty(t, s.Source("my-secret-01"))
}

func TestStoreWithLayerLeavesReceiverUntouched(t *testing.T) {
	t.Parallel()

	base, err := NewStore(Layer{Name: "base", Values: map[string]string{"K": "base"}})
	require.NoError(t, err)

	merged, err := base.WithLayer(Layer{Name: "vault", Values: map[string]string{"K": "secret", "new": "x"}})
	require.NoError(t, err)

	assert.Equal(t, "base", base.Value("K"))
	_, ok := base.Get("new")
	assert.False(t, ok)

	assert.Equal(t, "secret", merged.Value("K"))
	assert.Equal(t, []string{"base", "vault"}, merged.Layers())
}

func TestStoreInputMapsAreCopied(t *testing.T) {
	t.Parallel()

	values := map[string]string{"K": "v1"}
	s, err := NewStore(Layer{Name: "m", Values: values})
	require.NoError(t, err)

	values["K"] = "v2"
	assert.Equal(t, "v1", s.Value("K"))
}

func TestStoreSection(t *testing.T) {
	t.Parallel()

	s, err := NewStore(Layer{Name: "m", Values: map[string]string{
		"Server:Address":    ":8080",
		"Server:DisplayKey": "my-secret-01",
		"ServerName":        "ignored",
	}})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"Address":    ":8080",
		"DisplayKey": "my-secret-01",
	}, s.Section("server"))
}

func TestStoreTypedAccessors(t *testing.T) {
	t.Parallel()

	s, err := NewStore(Layer{Name: "m", Values: map[string]string{
		"flag":    "true",
		"count":   "3",
		"timeout": "15",
		"bad":     "nope",
	}})
	require.NoError(t, err)

	b, err := s.Bool("flag", false)
	require.NoError(t, err)
	assert.True(t, b)

	n, err := s.Int("count", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	d, err := s.Seconds("timeout", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, d)

	d, err = s.Seconds("absent", time.Second)
	require.NoError(t, err)
	assert.Equal(t, time.Second, d)

	_, err = s.Bool("bad", false)
	assert.Error(t, err)
	_, err = s.Int("bad", 0)
	assert.Error(t, err)
}
